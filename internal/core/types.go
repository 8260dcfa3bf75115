package core

const (
	AppName    = "pharmalist"
	AppVersion = "0.1.0"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Row is a single result record with column order preserved exactly as the
// data store returned it. Columns and Values are parallel slices.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value for a column by name.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Message is one entry in a session's conversation transcript.
type Message struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

// TurnResult is what a processed turn reports back to the transport.
type TurnResult struct {
	Answer         string
	GeneratedQuery string
	RowCount       int
	Category       string
}
