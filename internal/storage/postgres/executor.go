package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/log"
)

// Executor runs generated read-only queries. Each call checks out a
// dedicated connection for its duration only; nothing is reused across
// turns.
type Executor struct {
	db *sql.DB
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// Run validates and executes exactly one statement, mapping every row to a
// uniform ordered-field record.
func (e *Executor) Run(ctx context.Context, query string) ([]core.Row, error) {
	if err := ValidateReadOnly(query); err != nil {
		return nil, fmt.Errorf("rejected query: %w", err)
	}

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var result []core.Row
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		// Normalize byte slices so downstream formatting sees strings.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		result = append(result, core.Row{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	log.FromCtx(ctx).Debug().Int("rows", len(result)).Msg("executed query")
	return result, nil
}
