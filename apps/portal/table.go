package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

type table struct {
	w *tabwriter.Writer
}

func newTable(out io.Writer, header ...string) *table {
	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	if len(header) > 0 {
		t.row(header...)
	}
	return t
}

func (t *table) row(cells ...string) {
	_, _ = fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return t.w.Flush()
}

// num formats a mark or a percentage without trailing zeros.
func num(v float64) string {
	return fmt.Sprintf("%g", v)
}
