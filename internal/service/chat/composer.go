package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/session"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/log"
)

const (
	composerMaxTokens   = 400
	composerHistory     = 5
	composerEntityCap   = 10
	firstQueryInSession = "First query in session"
)

// Composer asks the completion engine for a single read-only SQL statement
// grounded in the session's accumulated context. It does not validate the
// returned text; the executor's structural guard is the safety boundary.
type Composer struct {
	provider  core.CompletionProvider
	schemaCtx string
}

func NewComposer(provider core.CompletionProvider, schemaCtx string) *Composer {
	return &Composer{provider: provider, schemaCtx: schemaCtx}
}

// Compose returns the generated query text, or "" when no query could be
// produced (engine failure or empty output).
func (c *Composer) Compose(ctx context.Context, userText string, sctx *session.Context, mem *session.Memory) string {
	prompt := c.buildPrompt(userText, sctx, mem)

	response, err := c.provider.Complete(ctx, prompt, core.CompleteOptions{
		Temperature: 0,
		MaxTokens:   composerMaxTokens,
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("query composition failed")
		return ""
	}

	return stripFences(strings.TrimSpace(response))
}

func (c *Composer) buildPrompt(userText string, sctx *session.Context, mem *session.Memory) string {
	var ctxInfo strings.Builder

	currentTable := sctx.CurrentTable
	if currentTable == "" {
		currentTable = "unknown"
	}
	lastTable := mem.LastTable
	if lastTable == "" {
		lastTable = "unknown"
	}
	fmt.Fprintf(&ctxInfo, "Current table/topic: %s\n", currentTable)
	fmt.Fprintf(&ctxInfo, "Last table queried: %s\n", lastTable)
	fmt.Fprintf(&ctxInfo, "Previously mentioned tables: %s\n", strings.Join(sctx.MentionedTables, ", "))

	// Most recent generated query is the default anaphora-resolution target.
	var lastQuery, lastQueryText, lastQueryTable string

	if len(mem.History) > 0 {
		recent := mem.History
		if len(recent) > composerHistory {
			recent = recent[len(recent)-composerHistory:]
		}
		ctxInfo.WriteString("\nRecent queries in this conversation:\n")
		for _, rec := range recent {
			fmt.Fprintf(&ctxInfo, "- Turn %d: %s\n", rec.Turn, truncateText(rec.QueryText, 80))
			if rec.GeneratedQuery != "" {
				fmt.Fprintf(&ctxInfo, "  SQL: %s\n", truncateText(rec.GeneratedQuery, 100))
				lastQuery = rec.GeneratedQuery
				lastQueryText = rec.QueryText
				if table := session.TableFromQuery(rec.GeneratedQuery); table != "" {
					lastQueryTable = table
				}
			}
		}

		if lastQuery != "" {
			table := lastQueryTable
			if table == "" {
				table = "unknown"
			}
			fmt.Fprintf(&ctxInfo, `
MOST RECENT QUERY (use this as primary context):
User asked: %q
SQL executed: %s
Table used: %s

If the current question refers to "them", "those entries", "full entry",
"more details", it likely means the results from the above query.
`, lastQueryText, lastQuery, table)
		}
	}

	if len(mem.EntityIndex) > 0 {
		entities := make([]string, 0, composerEntityCap)
		for entity := range mem.EntityIndex {
			entities = append(entities, entity)
			if len(entities) == composerEntityCap {
				break
			}
		}
		fmt.Fprintf(&ctxInfo, "\nMentioned entities: %s\n", strings.Join(entities, ", "))
	}

	summary := mem.RollingSummary
	if summary == "" {
		summary = firstQueryInSession
	}

	anchorTable := lastQueryTable
	if anchorTable == "" {
		anchorTable = mem.LastTable
	}
	if anchorTable == "" {
		anchorTable = "N/A"
	}
	anchorQuery := lastQuery
	if anchorQuery == "" {
		anchorQuery = "N/A"
	}

	return fmt.Sprintf(`You are an expert SQL generator for a PostgreSQL database.

Database schema:
%s

Conversation context:
%s

Conversation summary:
%s

Current user question: %s

CONTEXT AWARENESS:
The MOST RECENT table queried was: %s
The MOST RECENT SQL executed was: %s

CRITICAL INSTRUCTIONS:
1. Generate a single SELECT SQL query. No INSERT, UPDATE, DELETE, or DDL.

2. CONTEXT MATCHING RULES (highest priority):
   - If the user mentions a person name that appeared in recent results:
     query the SAME table from the most recent query (%s) and add a WHERE
     clause filtering for that person.
   - If the user says "give details for X", "show only X", "filter for X":
     query the SAME table (%s) and add a WHERE condition for X.
   - If the user asks "give full entry", "show details", "more info":
     query the SAME table (%s) with SELECT * to show all columns.

3. TABLE SELECTION:
   - If the question references "them", "those", "the previous ones": use %s.
   - If the question mentions a specific list type: use the matching table.
   - If uncertain: default to %s.

4. FIELD NAME MATCHING:
   - idn_health_system_entries: contact_name holds the person's name.
   - target_list_entries: hcp_name holds the person's name.
   - Use ILIKE '%%name%%' for flexible name matching.

5. Return valid PostgreSQL SQL only. No explanations, no markdown, no code blocks.`,
		c.schemaCtx, ctxInfo.String(), summary, userText,
		anchorTable, anchorQuery,
		anchorTable, anchorTable, anchorTable, anchorTable, anchorTable)
}

// stripFences removes a surrounding markdown code fence if the model added
// one despite the prompt contract.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
