package helpinfo

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Section
	}{
		{name: "empty", text: "  \n\n", want: []Section{}},
		{
			name: "untitled paragraph",
			text: "Just some text.\nMore text.",
			want: []Section{{Title: UntitledSection, Items: []string{"Just some text.", "More text."}}},
		},
		{
			name: "headings and bullets",
			text: "Intro\n\nSteps:\n- one\n* two\n• three\n\n# Numbers\n1. first\n2) second\n",
			want: []Section{
				{Title: UntitledSection, Items: []string{"Intro"}},
				{Title: "Steps", Items: []string{"one", "two", "three"}},
				{Title: "Numbers", Items: []string{"first", "second"}},
			},
		},
		{
			name: "empty sections dropped",
			text: "Empty:\n## Also empty\nFull:\n- item",
			want: []Section{{Title: "Full", Items: []string{"item"}}},
		},
		{
			name: "bullet ending with colon is an item",
			text: "Notes:\n- remember:",
			want: []Section{{Title: "Notes", Items: []string{"remember:"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text))
		})
	}
}

func TestPanel(t *testing.T) {
	p := NewPanel("Help", "A:\n- a1\nB:\n- b1\n- b2")
	require.Len(t, p.Sections, 2)
	assert.False(t, p.IsOpen(0))
	assert.False(t, p.IsOpen(1))

	open, err := p.Toggle(1)
	require.NoError(t, err)
	assert.True(t, open)

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	assert.Equal(t, "Help\n[+] 1. A\n[-] 2. B\n      • b1\n      • b2\n", buf.String())

	open, err = p.Toggle(1)
	require.NoError(t, err)
	assert.False(t, open)

	_, err = p.Toggle(2)
	assert.Equal(t, ErrNoSection, errors.Cause(err))
	_, err = p.Toggle(-1)
	assert.Equal(t, ErrNoSection, errors.Cause(err))

	p.ExpandAll()
	assert.True(t, p.IsOpen(0))
	assert.True(t, p.IsOpen(1))
	p.CollapseAll()
	assert.False(t, p.IsOpen(0))
	assert.False(t, p.IsOpen(1))
}

func TestTopic(t *testing.T) {
	assert.Equal(t, []string{"gradebook", "listing", "resources"}, TopicNames())

	p, ok := Topic(" Gradebook ")
	require.True(t, ok)
	assert.Equal(t, "Gradebook", p.Title)

	titles := make([]string, 0, len(p.Sections))
	for _, sec := range p.Sections {
		titles = append(titles, sec.Title)
	}
	assert.Equal(t, []string{UntitledSection, "Subject teacher", "Class teacher", "Grades", "Terms"}, titles)

	_, ok = Topic("lol")
	assert.False(t, ok)
}
