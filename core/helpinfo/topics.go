package helpinfo

import (
	"sort"
	"strings"
)

// Topics holds the built-in help texts, keyed by topic.
var Topics = map[string]string{
	"gradebook": `
Gradebook helps teachers enter unit marks and publish results.

Subject teacher:
- Pick the class, section, subject, academic year and term.
- Enter theory and practical marks per unit; values above the unit maximum are reduced to it.
- Save as often as needed; marks stay editable until locked.
- Final Save & Lock freezes the sheet. Locked marks can never be edited again.

Class teacher:
- The class view consolidates every locked subject of the section.
- Subjects that are not locked yet are listed as pending.
- A student fails when any subject is below 33% of its maximum.

# Grades
1. A+ from 90%
2. A from 75%
3. B from 60%
4. C from 45%
5. D from 33%
6. F below 33%

Terms:
- Periodic Test: 2 units of 20 theory + 5 practical.
- Mid Term: 1 unit of 20 theory + 5 practical.
- Final Exam: 1 unit of 80 theory + 20 practical.
`,
	"listing": `
Every list page fetches its records once and filters them locally.

Searching:
- The search term matches any text field, ignoring case.
- Restrict the search with -fields name,number.

Ordering:
- Use -ordering name to sort ascending and -ordering -name for descending.
- Several keys are separated by commas.

Pages:
- Use -page and -per-page; pages start at 1.
`,
	"resources": `
Resources are the records managed by the school office.

Kinds:
- students, teachers, parents
- classes, sections, subjects
- activities, attendance, visitors, complaints, health-records
- transport/vehicles, transport/routes, transport/pickup-points

Editing:
- create and update take the record as a JSON object with -data.
- Every change is sent to the server, then the list is fetched again.
- Use stats -by FIELD for the dashboard counters.
`,
}

// TopicNames returns the sorted topic names.
func TopicNames() []string {
	names := make([]string, 0, len(Topics))
	for name := range Topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Topic returns the panel of a built-in topic.
func Topic(name string) (*Panel, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	text, ok := Topics[name]
	if !ok {
		return nil, false
	}
	return NewPanel(strings.ToUpper(name[:1])+name[1:], text), true
}
