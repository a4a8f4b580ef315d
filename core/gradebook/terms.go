package gradebook

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
)

var ErrUnknownTerm = errors.New("unknown term")

type (
	// UnitMax holds the maxima of one unit.
	UnitMax struct {
		Theory    float64 `json:"theory"`
		Practical float64 `json:"practical"`
	}

	// TermConfig is the ordered list of unit maxima of a term.
	TermConfig struct {
		Name  string    `json:"name"`
		Units []UnitMax `json:"units"`
	}

	Terms []TermConfig
)

// DefaultTerms is the built-in term table.
var DefaultTerms = Terms{
	{Name: "Periodic Test", Units: []UnitMax{{Theory: 20, Practical: 5}, {Theory: 20, Practical: 5}}},
	{Name: "Mid Term", Units: []UnitMax{{Theory: 20, Practical: 5}}},
	{Name: "Final Exam", Units: []UnitMax{{Theory: 80, Practical: 20}}},
}

func (tc TermConfig) UnitsCount() int {
	return len(tc.Units)
}

// UnitMax returns the maxima of unit i; ok is false when i is out of range.
func (tc TermConfig) UnitMax(i int) (UnitMax, bool) {
	if i < 0 || i >= len(tc.Units) {
		return UnitMax{}, false
	}
	return tc.Units[i], true
}

// Max is the sum of every configured unit maximum.
func (tc TermConfig) Max() float64 {
	var max float64
	for _, u := range tc.Units {
		max += u.Theory + u.Practical
	}
	return max
}

// Lookup finds a term by name, ignoring case and surrounding whitespace.
func (ts Terms) Lookup(name string) (TermConfig, error) {
	name = core.CleanString(name)
	for _, tc := range ts {
		if strings.EqualFold(tc.Name, name) {
			return tc, nil
		}
	}
	return TermConfig{}, errors.Wrapf(ErrUnknownTerm, "%q", name)
}

func (ts Terms) Names() []string {
	names := make([]string, 0, len(ts))
	for _, tc := range ts {
		names = append(names, tc.Name)
	}
	return names
}

// TermsFromConfig merges the configured term settings over DefaultTerms:
// a setting replaces the default term with the same name, other settings are appended.
func TermsFromConfig(settings []core.TermSetting) Terms {
	terms := make(Terms, len(DefaultTerms))
	copy(terms, DefaultTerms)

	for _, st := range settings {
		name := core.CleanString(st.Name)
		if name == "" {
			continue
		}
		tc := TermConfig{Name: name, Units: make([]UnitMax, 0, len(st.Units))}
		for _, u := range st.Units {
			tc.Units = append(tc.Units, UnitMax{Theory: u.Theory, Practical: u.Practical})
		}

		replaced := false
		for i := range terms {
			if strings.EqualFold(terms[i].Name, name) {
				terms[i] = tc
				replaced = true
				break
			}
		}
		if !replaced {
			terms = append(terms, tc)
		}
	}
	return terms
}
