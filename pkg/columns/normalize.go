// Package columns implements SQL-safe column name normalization and the
// type mapping tables that translate between frame types and the service's
// PostgreSQL types.
package columns

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// maxLength is the PostgreSQL identifier limit.
	maxLength = 63
	// maxCollisionLength leaves room for a collision suffix.
	maxCollisionLength = 60
)

// reservedWords is the list of identifiers that must be prefixed before use
// as a column name, matching the service's import pipeline.
var reservedWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"ALL", "ANALYSE", "ANALYZE", "AND", "ANY", "ARRAY", "AS", "ASC", "ASYMMETRIC", "AUTHORIZATION",
		"BETWEEN", "BINARY", "BOTH", "CASE", "CAST", "CHECK", "COLLATE", "COLUMN", "CONSTRAINT",
		"CREATE", "CROSS", "CURRENT_DATE", "CURRENT_ROLE", "CURRENT_TIME", "CURRENT_TIMESTAMP",
		"CURRENT_USER", "DEFAULT", "DEFERRABLE", "DESC", "DISTINCT", "DO", "ELSE", "END", "EXCEPT",
		"FALSE", "FOR", "FOREIGN", "FREEZE", "FROM", "FULL", "GRANT", "GROUP", "HAVING", "ILIKE", "IN",
		"INITIALLY", "INNER", "INTERSECT", "INTO", "IS", "ISNULL", "JOIN", "LEADING", "LEFT", "LIKE",
		"LIMIT", "LOCALTIME", "LOCALTIMESTAMP", "NATURAL", "NEW", "NOT", "NOTNULL", "NULL", "OFF",
		"OFFSET", "OLD", "ON", "ONLY", "OR", "ORDER", "OUTER", "OVERLAPS", "PLACING", "PRIMARY",
		"REFERENCES", "RIGHT", "SELECT", "SESSION_USER", "SIMILAR", "SOME", "SYMMETRIC", "TABLE", "THEN",
		"TO", "TRAILING", "TRUE", "UNION", "UNIQUE", "USER", "USING", "VERBOSE", "WHEN", "WHERE",
		"XMIN", "XMAX", "FORMAT", "CONTROLLER", "ACTION",
	} {
		reservedWords[w] = struct{}{}
	}
}

// SupportedGeomColumnNames are the column names recognized as geometry
// columns on upload.
var SupportedGeomColumnNames = []string{"geom", "the_geom", "geometry"}

// ReservedColumnNames are columns managed by the service itself; they are
// excluded from normalization plans.
var ReservedColumnNames = []string{"geom", "the_geom", "geometry", "the_geom_webmercator", "cartodb_id"}

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	entityRe     = regexp.MustCompile(`&.+?;`)
	invalidRe    = regexp.MustCompile(`[^a-z0-9 _-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	dashRunRe    = regexp.MustCompile(`-+`)
	supportedRe  = regexp.MustCompile(`^[a-z_][a-z_0-9]*$`)

	// asciiFold strips combining marks after NFD decomposition, turning
	// 'à' into 'a' the way the original import pipeline did.
	asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// NormalizeName translates one arbitrary name into the SQL-normalized name
// the service's import pipeline would give it. It does not resolve
// collisions; use NormalizeNames for a full column list.
func NormalizeName(name string) string {
	return normalize(name, nil)
}

// NormalizeNames normalizes a list of column names in order, resolving
// collisions deterministically by appending _1, _2, ... to a truncated stem.
//
//	"Field: 2"  -> "field_2"
//	"2 Items"   -> "_2_items"
//	"201moore"  -> "_201moore", and a second "201moore" -> "_201moore_1"
//	"SELECT"    -> "_select"
//	"à"         -> "a"
func NormalizeNames(names []string) []string {
	result := make([]string, 0, len(names))
	for _, name := range names {
		result = append(result, normalize(name, result))
	}
	return result
}

func normalize(name string, taken []string) string {
	candidate := truncate(sanitize(slugify(name)), maxLength)

	for i := 1; contains(taken, candidate); i++ {
		candidate = truncate(candidate, maxCollisionLength) + "_" + strconv.Itoa(i)
	}
	return candidate
}

func slugify(value string) string {
	folded, _, err := transform.String(asciiFold, strings.ToLower(value))
	if err != nil {
		folded = strings.ToLower(value)
	}
	folded = tagRe.ReplaceAllString(folded, "")
	folded = entityRe.ReplaceAllString(folded, "-")
	folded = strings.TrimSpace(invalidRe.ReplaceAllString(folded, "-"))
	folded = whitespaceRe.ReplaceAllString(folded, "-")
	folded = dashRunRe.ReplaceAllString(folded, "-")
	return strings.ReplaceAll(folded, "-", "_")
}

func sanitize(value string) string {
	if isReserved(value) || !supportedRe.MatchString(value) {
		return "_" + value
	}
	return value
}

func truncate(value string, length int) string {
	if len(value) > length {
		return value[:length]
	}
	return value
}

func isReserved(value string) bool {
	_, ok := reservedWords[strings.ToUpper(value)]
	return ok
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// Mapping pairs an original column name with its normalized form.
type Mapping struct {
	Original   string
	Normalized string
}

// Plan computes the normalization plan for an upload: every non-reserved
// column mapped to a unique SQL-safe name, in the original column order. The
// plan is recomputed fresh on every upload.
func Plan(columnNames []string) []Mapping {
	kept := make([]string, 0, len(columnNames))
	for _, name := range columnNames {
		if !isReservedColumn(name) {
			kept = append(kept, name)
		}
	}

	normalized := NormalizeNames(kept)
	plan := make([]Mapping, len(kept))
	for i := range kept {
		plan[i] = Mapping{Original: kept[i], Normalized: normalized[i]}
	}
	return plan
}

func isReservedColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, reserved := range ReservedColumnNames {
		if lower == reserved {
			return true
		}
	}
	return false
}
