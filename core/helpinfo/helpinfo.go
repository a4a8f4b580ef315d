// Package helpinfo turns free-form help text into collapsible sections.
package helpinfo

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// UntitledSection labels the text found before the first heading.
const UntitledSection = "Overview"

var (
	bulletRegex  = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
	ErrNoSection = errors.New("no such section")
)

type Section struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

func isHeading(line string) (string, bool) {
	if strings.HasPrefix(line, "#") {
		return strings.TrimSpace(strings.TrimLeft(line, "#")), true
	}
	if strings.HasSuffix(line, ":") && !bulletRegex.MatchString(line) {
		return strings.TrimSpace(strings.TrimSuffix(line, ":")), true
	}
	return "", false
}

// Parse splits text into sections. A heading is a line starting with "#" or ending with ":".
// Bullet markers ("-", "*", "•", "1.", "1)") are stripped from items; blank lines are skipped.
// Sections without items are dropped.
func Parse(text string) []Section {
	sections := make([]Section, 0)
	current := Section{Title: UntitledSection}

	flush := func() {
		if len(current.Items) > 0 {
			sections = append(sections, current)
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if title, ok := isHeading(line); ok {
			flush()
			current = Section{Title: title}
			continue
		}
		if item := strings.TrimSpace(bulletRegex.ReplaceAllString(line, "")); item != "" {
			current.Items = append(current.Items, item)
		}
	}
	flush()
	return sections
}

// Panel is a set of sections that open and close independently. All start collapsed.
type Panel struct {
	Title    string
	Sections []Section
	open     []bool
}

func NewPanel(title, text string) *Panel {
	sections := Parse(text)
	return &Panel{Title: title, Sections: sections, open: make([]bool, len(sections))}
}

func (p *Panel) check(i int) error {
	if i < 0 || i >= len(p.Sections) {
		return errors.Wrapf(ErrNoSection, "%d", i+1)
	}
	return nil
}

func (p *Panel) IsOpen(i int) bool {
	return p.check(i) == nil && p.open[i]
}

// Toggle opens a closed section or closes an open one and returns the new state.
func (p *Panel) Toggle(i int) (bool, error) {
	if err := p.check(i); err != nil {
		return false, err
	}
	p.open[i] = !p.open[i]
	return p.open[i], nil
}

func (p *Panel) ExpandAll() {
	for i := range p.open {
		p.open[i] = true
	}
}

func (p *Panel) CollapseAll() {
	for i := range p.open {
		p.open[i] = false
	}
}

// Render writes the panel; open sections list their items.
func (p *Panel) Render(w io.Writer) error {
	if p.Title != "" {
		if _, err := fmt.Fprintf(w, "%s\n", p.Title); err != nil {
			return err
		}
	}
	for i, sec := range p.Sections {
		marker := "+"
		if p.open[i] {
			marker = "-"
		}
		if _, err := fmt.Fprintf(w, "[%s] %d. %s\n", marker, i+1, sec.Title); err != nil {
			return err
		}
		if !p.open[i] {
			continue
		}
		for _, item := range sec.Items {
			if _, err := fmt.Fprintf(w, "      • %s\n", item); err != nil {
				return err
			}
		}
	}
	return nil
}
