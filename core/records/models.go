package records

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/schoolportal/core"
)

const (
	// IDField is the key holding a record identifier.
	IDField = "id"

	suggestMinRatio = .6
)

// Kinds are the resources served under /api/{kind}.
var Kinds = []string{
	"activities",
	"attendance",
	"classes",
	"complaints",
	"health-records",
	"parents",
	"sections",
	"students",
	"subjects",
	"teachers",
	"transport/pickup-points",
	"transport/routes",
	"transport/vehicles",
	"visitors",
}

// Record is an opaque JSON object; only its "id" is interpreted.
type Record map[string]interface{}

func (r Record) ID() string {
	switch id := r[IDField].(type) {
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// String returns the value of a field as text, "" when missing.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Copy returns a shallow copy of the record.
func (r Record) Copy() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Fields returns the sorted field names of the record.
func (r Record) Fields() []string {
	flds := make([]string, 0, len(r))
	for k := range r {
		flds = append(flds, k)
	}
	sort.Strings(flds)
	return flds
}

func IsKind(kind string) bool {
	kind = CleanKind(kind)
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// CleanKind normalizes a kind: trimmed, lowered and without surrounding slashes.
func CleanKind(kind string) string {
	return strings.Trim(core.CleanString(kind, true /* lower */), "/")
}

// Suggest returns up to 3 kinds similar to an unknown one, best first.
func Suggest(kind string) []string {
	return SuggestFrom(CleanKind(kind), Kinds, 3)
}

// SuggestFrom returns up to n candidates similar enough to word, best first.
func SuggestFrom(word string, candidates []string, n int) []string {
	type match struct {
		value string
		ratio float64
	}
	matches := make([]match, 0, len(candidates))
	for _, c := range candidates {
		ratio := difflib.NewMatcher(strings.Split(word, ""), strings.Split(c, "")).Ratio()
		if ratio >= suggestMinRatio {
			matches = append(matches, match{c, ratio})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].ratio > matches[j].ratio })

	out := make([]string, 0, n)
	for i := 0; i < len(matches) && i < n; i++ {
		out = append(out, matches[i].value)
	}
	return out
}
