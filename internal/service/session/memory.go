package session

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
)

// entityTables is the fixed vocabulary scanned for table-presence entities.
var entityTables = []string{"list_versions", "target_list_entries", "hcp", "version"}

var fromTableRe = regexp.MustCompile(`(?i)FROM\s+(\w+)`)

// Memory is the per-session record of what happened so far: bounded turn
// history, result cache, entity index and a periodically regenerated rolling
// summary. It is not safe for concurrent use; the owning Session serializes
// turns.
type Memory struct {
	TurnCount      int
	History        []TurnRecord
	ResultCache    map[string]CachedResult
	EntityIndex    map[string]struct{}
	LastTable      string
	RollingSummary string
	LastTopic      string
}

func NewMemory() *Memory {
	return &Memory{
		ResultCache: make(map[string]CachedResult),
		EntityIndex: make(map[string]struct{}),
	}
}

// TurnUpdate carries the facts of a finished turn into memory.
type TurnUpdate struct {
	QueryText      string
	GeneratedQuery string
	Rows           []core.Row
	Answer         string
	Category       string
}

// ApplyTurn folds one turn into memory, in order: bump the counter, append a
// history record (FIFO cap), cache the result set, extract entities, note the
// topic, and every third turn regenerate the rolling summary. The session
// context's current table is kept in sync with lastTable.
func (m *Memory) ApplyTurn(u TurnUpdate, sctx *Context) {
	m.TurnCount++

	rec := TurnRecord{
		Turn:            m.TurnCount,
		QueryText:       u.QueryText,
		GeneratedQuery:  u.GeneratedQuery,
		RowCount:        len(u.Rows),
		Timestamp:       time.Now(),
		ResponsePreview: truncate(u.Answer, previewLimit),
	}
	m.History = append(m.History, rec)
	if len(m.History) > historyLimit {
		m.History = m.History[len(m.History)-historyLimit:]
	}

	if u.GeneratedQuery != "" && len(u.Rows) > 0 {
		key := fmt.Sprintf("turn_%d", m.TurnCount)
		if _, exists := m.ResultCache[key]; !exists {
			cached := u.Rows
			if len(cached) > cacheRowLimit {
				cached = cached[:cacheRowLimit]
			}
			m.ResultCache[key] = CachedResult{
				Query:         u.GeneratedQuery,
				Rows:          cached,
				TotalRowCount: len(u.Rows),
			}
		}

		if table := TableFromQuery(u.GeneratedQuery); table != "" {
			m.LastTable = table
			if sctx != nil {
				sctx.CurrentTable = table
			}
		}
	}

	for entity := range ExtractEntities(u.QueryText, u.Rows) {
		m.EntityIndex[entity] = struct{}{}
	}

	if u.Category != "" {
		m.LastTopic = u.Category
	}

	if m.TurnCount%summaryEvery == 0 {
		m.RollingSummary = summarize(m.History)
	}
}

// TableFromQuery extracts the first FROM target of a generated query.
func TableFromQuery(query string) string {
	match := fromTableRe.FindStringSubmatch(query)
	if match == nil {
		return ""
	}
	return match[1]
}

// ExtractEntities scans the user's text for known table names and the first
// rows for name-like string fields. Keys are namespaced table_<name> and
// name_<value>; re-adding an existing key is a no-op at the caller.
func ExtractEntities(queryText string, rows []core.Row) map[string]struct{} {
	entities := make(map[string]struct{})

	lowered := strings.ToLower(queryText)
	for _, table := range entityTables {
		if strings.Contains(lowered, table) {
			entities["table_"+table] = struct{}{}
		}
	}

	limit := len(rows)
	if limit > 5 {
		limit = 5
	}
	for _, row := range rows[:limit] {
		for i, col := range row.Columns {
			if !strings.Contains(strings.ToLower(col), "name") {
				continue
			}
			if value, ok := row.Values[i].(string); ok && value != "" {
				entities["name_"+value] = struct{}{}
			}
		}
	}

	return entities
}

func summarize(history []TurnRecord) string {
	if len(history) == 0 {
		return "No previous conversation."
	}

	recent := history
	if len(recent) > summaryWindow {
		recent = recent[len(recent)-summaryWindow:]
	}

	parts := make([]string, 0, len(recent))
	for _, rec := range recent {
		parts = append(parts, fmt.Sprintf("Turn %d: Asked about '%s...' → %d results",
			rec.Turn, truncate(rec.QueryText, 60), rec.RowCount))
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
