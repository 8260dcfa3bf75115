package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/session"
)

// NoResultsMessage is returned verbatim whenever a turn produced no rows.
const NoResultsMessage = "No results found for your query."

const sampleSize = 20

// priorityFields are rendered in this order when present in a result set.
var priorityFields = []string{
	"hcp_name", "name", "system_name", "title", "specialty",
	"contact_name", "system_id", "hcp_id", "tier", "importance",
	"contact_email", "revenue", "phone", "address",
}

// housekeepingFields are excluded from the positional fallback.
var housekeepingFields = map[string]struct{}{
	"id":         {},
	"created_at": {},
	"updated_at": {},
	"version_id": {},
}

var fieldLabels = map[string]string{
	"hcp_name":        "Name",
	"name":            "Name",
	"system_name":     "System",
	"title":           "Title",
	"specialty":       "Specialty",
	"contact_name":    "Contact",
	"system_id":       "ID",
	"hcp_id":          "HCP ID",
	"tier":            "Tier",
	"importance":      "Importance",
	"contact_email":   "Email",
	"phone":           "Phone",
	"address":         "Address",
	"city":            "City",
	"state":           "State",
	"npi":             "NPI",
	"revenue":         "Revenue",
	"prescriber_type": "Type",
}

// Responder turns a turn's row set into the user-facing answer and folds the
// finished turn into session memory before returning.
type Responder struct{}

func NewResponder() *Responder {
	return &Responder{}
}

func (r *Responder) Compose(ts *TurnState, mem *session.Memory, sctx *session.Context) string {
	ts.Answer = r.render(ts)

	mem.ApplyTurn(session.TurnUpdate{
		QueryText:      ts.UserText,
		GeneratedQuery: ts.GeneratedQuery,
		Rows:           ts.Rows,
		Answer:         ts.Answer,
		Category:       ts.Category,
	}, sctx)

	return ts.Answer
}

func (r *Responder) render(ts *TurnState) string {
	rows := ts.Rows

	if (ts.Category == CategoryListAll || ts.Category == CategoryAdHocSelect) && len(rows) > 0 {
		if len(rows) <= 100 {
			return fmt.Sprintf("Here are all %d entries:\n\n%s", len(rows), renderRows(rows))
		}
		return fmt.Sprintf(`Found %d entries in total.

Here are the first %d:

%s

... and %d more entries.

Would you like me to show a specific range or filter these results?`,
			len(rows), sampleSize, renderRows(rows[:sampleSize]), len(rows)-sampleSize)
	}

	if len(rows) > 0 {
		return fmt.Sprintf("Here are the results:\n\n%s", renderRows(rows))
	}

	return NoResultsMessage
}

// renderRows formats rows 1-indexed in store order, one line each.
func renderRows(rows []core.Row) string {
	fields := selectDisplayFields(rows[0])

	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			value, ok := row.Get(field)
			text := formatValue(value)
			if ok && text != "" {
				parts = append(parts, fmt.Sprintf("%s: %s", labelFor(field), text))
			}
		}

		if len(parts) == 0 {
			// Nothing selected was populated; fall back to every non-empty field.
			for j, col := range row.Columns {
				text := formatValue(row.Values[j])
				if text != "" {
					parts = append(parts, fmt.Sprintf("%s: %s", labelFor(col), text))
				}
			}
		}

		lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.Join(parts, " | ")))
	}
	return strings.Join(lines, "\n")
}

// selectDisplayFields picks fields from the first row by priority, falling
// back to the first five non-housekeeping columns.
func selectDisplayFields(first core.Row) []string {
	present := make(map[string]struct{}, len(first.Columns))
	for _, col := range first.Columns {
		present[col] = struct{}{}
	}

	var fields []string
	for _, field := range priorityFields {
		if _, ok := present[field]; ok {
			fields = append(fields, field)
		}
	}
	if len(fields) > 0 {
		return fields
	}

	for _, col := range first.Columns {
		if _, skip := housekeepingFields[col]; skip {
			continue
		}
		fields = append(fields, col)
		if len(fields) == 5 {
			break
		}
	}
	return fields
}

func labelFor(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	words := strings.Split(strings.ReplaceAll(field, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// formatValue renders a field for display. Zero and false count as absent,
// the same as nil and empty strings.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		if !v {
			return ""
		}
	case int64:
		if v == 0 {
			return ""
		}
	case float64:
		if v == 0 {
			return ""
		}
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return fmt.Sprintf("%v", value)
}
