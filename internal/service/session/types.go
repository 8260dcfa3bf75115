package session

import (
	"time"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
)

const (
	// historyLimit caps per-session turn history; oldest records are evicted first.
	historyLimit = 10
	// cacheRowLimit caps how many rows a cached result retains.
	cacheRowLimit = 50
	// previewLimit caps the stored answer preview, in bytes.
	previewLimit = 200
	// summaryEvery is the turn cadence for regenerating the rolling summary.
	summaryEvery = 3
	// summaryWindow is how many recent turns feed the rolling summary.
	summaryWindow = 5
	// transcriptLimit caps the conversation transcript length, in messages.
	transcriptLimit = 20
)

// TurnRecord is one completed turn. Immutable once appended to history.
type TurnRecord struct {
	Turn            int
	QueryText       string
	GeneratedQuery  string
	RowCount        int
	Timestamp       time.Time
	ResponsePreview string
}

// CachedResult holds the first rows of a turn's result set for later
// reference. Immutable once written.
type CachedResult struct {
	Query         string
	Rows          []core.Row
	TotalRowCount int
}

// Context is the session's current focus, updated every turn. It mirrors
// part of Memory (lastTable) and both must stay consistent after a
// single-table query.
type Context struct {
	CurrentTable       string
	LastQueryType      string
	ActiveRequestID    int
	LastResultsSummary string
	MentionedTables    []string
	LastComposedQuery  string
	LastResultCount    int
}

// MentionTable records a table reference: union into MentionedTables and
// make it the current table (last mention wins).
func (c *Context) MentionTable(name string) {
	for _, t := range c.MentionedTables {
		if t == name {
			c.CurrentTable = name
			return
		}
	}
	c.MentionedTables = append(c.MentionedTables, name)
	c.CurrentTable = name
}
