// Package listing derives what a list page shows from the fetched records:
// search, ordering, pagination and per-field counts.
package listing

import (
	"sort"
	"strconv"
	"strings"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/records"
)

const DefaultPerPage = 10

type (
	Page struct {
		Items   []records.Record `json:"items"`
		Total   int              `json:"total"`
		Page    int              `json:"page"`
		Pages   int              `json:"pages"`
		PerPage int              `json:"perPage"`
	}

	Count struct {
		Value string `json:"value"`
		Count int    `json:"count"`
	}
)

func number(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	default:
		return 0, false
	}
}

// searchable returns the text of a scalar field value.
func searchable(v interface{}) (string, bool) {
	if n, ok := number(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// Search keeps the records where any of fields contains term, ignoring case.
// No fields means every scalar field. An empty term keeps everything.
func Search(recs []records.Record, term string, fields ...string) []records.Record {
	term = core.CleanString(term, true /* lower */)
	if term == "" {
		return append([]records.Record{}, recs...)
	}

	found := make([]records.Record, 0, len(recs))
	for _, rec := range recs {
		flds := fields
		if len(flds) == 0 {
			flds = rec.Fields()
		}
		for _, fld := range flds {
			if s, ok := searchable(rec[fld]); ok && core.ContainsFold(s, term) {
				found = append(found, rec)
				break
			}
		}
	}
	return found
}

func compare(a, b interface{}) int {
	fa, aNum := number(a)
	fb, bNum := number(b)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	sa, _ := searchable(a)
	sb, _ := searchable(b)
	return strings.Compare(strings.ToLower(sa), strings.ToLower(sb))
}

// Sort returns the records ordered by the given keys, first key first. The sort is stable.
func Sort(recs []records.Record, orderings ...core.DBOrdering) []records.Record {
	sorted := append([]records.Record{}, recs...)
	if len(orderings) == 0 {
		return sorted
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		for _, ord := range orderings {
			c := compare(sorted[i][ord.Field], sorted[j][ord.Field])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return sorted
}

// Paginate cuts one page out of the records. Pages are 1-based; out of range pages are clamped.
func Paginate(recs []records.Record, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := len(recs)
	pages := (total + perPage - 1) / perPage
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Items:   append([]records.Record{}, recs[start:end]...),
		Total:   total,
		Page:    page,
		Pages:   pages,
		PerPage: perPage,
	}
}

// CountBy counts the records per value of a field, most frequent first.
// Records without the field are counted under "".
func CountBy(recs []records.Record, field string) []Count {
	counts := make(map[string]int)
	for _, rec := range recs {
		counts[rec.String(field)]++
	}
	out := make([]Count, 0, len(counts))
	for val, cnt := range counts {
		out = append(out, Count{Value: val, Count: cnt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
