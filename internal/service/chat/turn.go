package chat

import "github.com/mokshitpuri/pharmalist-dbversion/internal/core"

// TurnState is the ephemeral working record threaded through the pipeline
// stages for a single turn. Nothing here survives the turn; derived facts
// are folded into session memory by the responder.
type TurnState struct {
	SessionKey string
	UserText   string
	RequestID  int

	// Written by the router.
	NeedsData bool

	// Written by the classifier.
	Category string

	// Written by the composer.
	GeneratedQuery string

	// Written by the executor stage.
	Rows []core.Row

	// Written by the responder.
	Answer string
}
