package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/config"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/session"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/log"
)

// Pipeline sequences the turn-processing stages: route, classify, compose,
// execute, respond. It is the single entry point for a turn and never
// returns an error to the caller; every internal failure degrades to a
// well-formed answer.
type Pipeline struct {
	registry   *session.Registry
	router     *Router
	classifier *Classifier
	composer   *Composer
	runner     core.QueryRunner
	responder  *Responder

	completeTimeout time.Duration
	queryTimeout    time.Duration
}

func NewPipeline(
	cfg *config.AppConfig,
	registry *session.Registry,
	provider core.CompletionProvider,
	runner core.QueryRunner,
	schemaCtx string,
) *Pipeline {
	return &Pipeline{
		registry:        registry,
		router:          NewRouter(),
		classifier:      NewClassifier(provider),
		composer:        NewComposer(provider, schemaCtx),
		runner:          runner,
		responder:       NewResponder(),
		completeTimeout: cfg.CompleteTimeout,
		queryTimeout:    cfg.QueryTimeout,
	}
}

// ProcessTurn runs one turn end to end for the given session key. Turns on
// the same key are serialized; turns on different keys run independently.
func (p *Pipeline) ProcessTurn(ctx context.Context, sessionKey, userText string, requestID int) core.TurnResult {
	sess := p.registry.Acquire(sessionKey)
	sess.Lock()
	defer sess.Unlock()

	logger := log.FromCtx(ctx)

	ts := &TurnState{
		SessionKey: sessionKey,
		UserText:   userText,
		RequestID:  requestID,
	}
	if requestID != 0 {
		sess.Context.ActiveRequestID = requestID
	}

	decision := p.router.Route(userText, sess.Memory, sess.Context)
	ts.NeedsData = decision.NeedsData
	logger.Debug().
		Bool("needs_data", decision.NeedsData).
		Bool("entity_match", decision.EntityMatch).
		Msg("routed turn")

	if !ts.NeedsData {
		ts.Category = CategoryConversation
	} else {
		p.classify(ctx, ts, sess)
		p.compose(ctx, ts, sess)
		p.execute(ctx, ts, sess)
	}

	answer := p.responder.Compose(ts, sess.Memory, sess.Context)

	sess.AppendExchange(
		core.Message{Role: core.RoleUser, Content: userText, Category: ts.Category},
		core.Message{Role: core.RoleAssistant, Content: answer, Category: ts.Category},
	)

	return core.TurnResult{
		Answer:         answer,
		GeneratedQuery: ts.GeneratedQuery,
		RowCount:       len(ts.Rows),
		Category:       ts.Category,
	}
}

func (p *Pipeline) classify(ctx context.Context, ts *TurnState, sess *session.Session) {
	cctx, cancel := context.WithTimeout(ctx, p.completeTimeout)
	defer cancel()

	ts.Category = p.classifier.Classify(cctx, ts.UserText, sess.Context, sess.Memory)
	sess.Context.LastQueryType = ts.Category
	log.FromCtx(ctx).Debug().Str("category", ts.Category).Msg("classified turn")
}

func (p *Pipeline) compose(ctx context.Context, ts *TurnState, sess *session.Session) {
	cctx, cancel := context.WithTimeout(ctx, p.completeTimeout)
	defer cancel()

	ts.GeneratedQuery = p.composer.Compose(cctx, ts.UserText, sess.Context, sess.Memory)
	if ts.GeneratedQuery != "" {
		sess.Context.LastComposedQuery = ts.GeneratedQuery
	}
}

// execute runs the composed query. Execution failures are non-fatal: the
// turn proceeds with zero rows and the failure reason is recorded in the
// session context for observability.
func (p *Pipeline) execute(ctx context.Context, ts *TurnState, sess *session.Session) {
	if ts.GeneratedQuery == "" {
		sess.Context.LastResultsSummary = "no query generated"
		return
	}

	qctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	rows, err := p.runner.Run(qctx, ts.GeneratedQuery)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("query execution failed")
		sess.Context.LastResultsSummary = fmt.Sprintf("error: %v", err)
		ts.Rows = nil
		return
	}

	ts.Rows = rows
	sess.Context.LastResultsSummary = fmt.Sprintf("retrieved %d rows", len(rows))
	sess.Context.LastResultCount = len(rows)
}
