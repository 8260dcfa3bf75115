package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/session"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/log"
)

// Semantic categories steering query generation and display. The classifier
// passes unknown model output through as-is; downstream code must tolerate
// categories outside this set.
const (
	CategoryVersionComparison = "version_comparison"
	CategoryHistory           = "history"
	CategoryAttribution       = "attribution"
	CategoryCurrentState      = "current_state"
	CategoryListAll           = "list_all"
	CategoryAdHocSelect       = "ad_hoc_select"
	CategoryConversation      = "conversation"
	CategoryUnknown           = "unknown"
)

// Classifier buckets a data-request turn into a semantic category via the
// completion engine.
type Classifier struct {
	provider core.CompletionProvider
}

func NewClassifier(provider core.CompletionProvider) *Classifier {
	return &Classifier{provider: provider}
}

func (c *Classifier) Classify(ctx context.Context, userText string, sctx *session.Context, mem *session.Memory) string {
	prompt := c.buildPrompt(userText, sctx, mem)

	response, err := c.provider.Complete(ctx, prompt, core.CompleteOptions{
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("classification failed, using unknown category")
		return CategoryUnknown
	}

	category := strings.ToLower(strings.TrimSpace(response))
	if fields := strings.Fields(category); len(fields) > 0 {
		category = fields[0]
	}
	if category == "" {
		return CategoryUnknown
	}
	return category
}

func (c *Classifier) buildPrompt(userText string, sctx *session.Context, mem *session.Memory) string {
	currentTable := sctx.CurrentTable
	if currentTable == "" {
		currentTable = "unknown"
	}

	recentContext := ""
	if len(mem.History) > 0 {
		recent := mem.History
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		queries := make([]string, 0, len(recent))
		for _, rec := range recent {
			queries = append(queries, truncateText(rec.QueryText, 40))
		}
		recentContext = "Recent queries: " + strings.Join(queries, ", ")
	}

	return fmt.Sprintf(`Classify the following user query into one of:
- version_comparison (comparing versions)
- history (timeline/evolution)
- attribution (who made the changes)
- current_state (current version or active state)
- list_all (listing all records from a table)
- ad_hoc_select (any general or SQL-like query)

Current context: %s
%s

Query: %s

Return only one word category.`, currentTable, recentContext, userText)
}

func truncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
