package dataset

import (
	"io"
	"log/slog"

	"github.com/mapframe-labs/mapframe/pkg/frame"
	"github.com/mapframe-labs/mapframe/pkg/sqlapi"
)

// Env is the construction environment handed to strategy rules: the
// connection, target schema, and logger the resulting strategy operates with.
type Env struct {
	Client sqlapi.Client
	Schema string
	Logger *slog.Logger
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}

// Rule classifies a value and builds the matching strategy. Match must be
// pure; New may parse (e.g. a GeoJSON document) but performs no network I/O.
type Rule struct {
	Name  string
	Match func(data any) bool
	New   func(data any, env Env) (Strategy, error)
}

// Registry is an ordered, caller-owned list of strategy rules. First match
// wins, so rule order is significant. Each caller constructs its own
// registry; there is no process-wide shared instance.
type Registry struct {
	rules []Rule
}

// NewRegistry returns a registry holding the built-in rules: frames and
// GeoJSON sources build dataframe strategies, query-looking strings build
// query strategies, and any other non-empty string is a table name.
func NewRegistry() *Registry {
	return &Registry{rules: builtinRules()}
}

// Register adds a rule ahead of the existing ones, so custom classifications
// take precedence over the built-ins.
func (r *Registry) Register(rule Rule) {
	r.rules = append([]Rule{rule}, r.rules...)
}

// Rules returns the rules in match order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Resolve classifies data and constructs the matching strategy. It returns
// ErrUnknownDataType when no rule matches.
func (r *Registry) Resolve(data any, env Env) (Strategy, error) {
	for _, rule := range r.rules {
		if rule.Match(data) {
			return rule.New(data, env)
		}
	}
	return nil, ErrUnknownDataType
}

func builtinRules() []Rule {
	return []Rule{
		{
			Name: "dataframe",
			Match: func(data any) bool {
				if _, ok := data.(*frame.Frame); ok {
					return true
				}
				return IsGeoJSON(data)
			},
			New: func(data any, env Env) (Strategy, error) {
				f, ok := data.(*frame.Frame)
				if !ok {
					loaded, err := frame.LoadGeoJSON(data)
					if err != nil {
						return nil, err
					}
					f = loaded
				}
				return NewDataFrameStrategy(f, env)
			},
		},
		{
			Name: "query",
			Match: func(data any) bool {
				s, ok := data.(string)
				return ok && !IsGeoJSON(s) && IsSQLQuery(s)
			},
			New: func(data any, env Env) (Strategy, error) {
				return NewQueryStrategy(data.(string), env)
			},
		},
		{
			Name: "table",
			Match: func(data any) bool {
				s, ok := data.(string)
				return ok && !IsGeoJSON(s) && Classify(s) == SourceTable
			},
			New: func(data any, env Env) (Strategy, error) {
				return NewTableStrategy(data.(string), env)
			},
		},
	}
}
