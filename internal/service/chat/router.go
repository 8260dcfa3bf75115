package chat

import (
	"strings"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/session"
)

// pureGreetings short-circuit the pipeline only on an exact match of the
// whole trimmed utterance.
var pureGreetings = map[string]struct{}{
	"hello":        {},
	"hi":           {},
	"hey":          {},
	"thanks":       {},
	"thank you":    {},
	"bye":          {},
	"good morning": {},
	"good evening": {},
}

// metaPhrases are questions about the assistant itself.
var metaPhrases = []string{
	"how do you work", "what can you do", "help me", "how does this work",
}

// The indicator sets below are computed as signals but do not gate the
// needs-data decision: every non-greeting, non-meta utterance is treated as
// a data request. They are kept for a future, less permissive policy.
var newQueryIndicators = []string{
	"give me", "show me", "retrieve", "fetch", "get me", "find",
	"i want", "i need", "can you get", "can you show", "list",
	"another question", "new question", "different question",
	"from table", "from the", "select", "query", "what are", "what is",
}

var followUpIndicators = []string{
	"about them", "about these", "about those", "about it", "about that",
	"the same", "those ones", "these ones", "from that", "from those",
	"tell me more", "more about", "more details", "more info",
	"what about", "how about", "why", "explain",
}

var referenceIndicators = []string{
	"the results", "the data", "those results", "that list",
	"the previous", "last query", "before", "earlier",
}

// tableVocabulary is the fixed set of table/domain-object names tracked as
// mentions in the session context.
var tableVocabulary = []string{
	"list_versions", "target_list_entries", "version", "entry", "hcp", "list",
}

// Decision is the router's verdict for one utterance.
type Decision struct {
	NeedsData bool

	// Advisory signals, currently not acted on.
	NewQuery     bool
	FollowUp     bool
	HasReference bool
	EntityMatch  bool
}

// Router decides whether a turn needs a data fetch at all, using lexical
// heuristics plus entity hints from session memory. It is a pure policy
// object apart from recording table mentions in the session context.
type Router struct{}

func NewRouter() *Router {
	return &Router{}
}

func (r *Router) Route(userText string, mem *session.Memory, sctx *session.Context) Decision {
	query := strings.ToLower(strings.TrimSpace(userText))

	dec := Decision{
		NewQuery:     containsAny(query, newQueryIndicators),
		FollowUp:     containsAny(query, followUpIndicators),
		HasReference: containsAny(query, referenceIndicators),
	}

	for entity := range mem.EntityIndex {
		if strings.Contains(query, strings.ToLower(entity)) {
			dec.EntityMatch = true
			break
		}
	}

	switch {
	case isPureGreeting(query):
		dec.NeedsData = false
	case containsAny(query, metaPhrases):
		dec.NeedsData = false
	default:
		// Permissive by default: anything else is a data request, and a
		// remembered entity in the text forces one regardless.
		dec.NeedsData = true
	}

	for _, table := range tableVocabulary {
		if strings.Contains(query, table) {
			sctx.MentionTable(table)
		}
	}

	return dec
}

func isPureGreeting(query string) bool {
	_, ok := pureGreetings[query]
	return ok
}

func containsAny(query string, indicators []string) bool {
	for _, indicator := range indicators {
		if strings.Contains(query, indicator) {
			return true
		}
	}
	return false
}
