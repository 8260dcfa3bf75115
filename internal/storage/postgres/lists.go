package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
)

// ErrNotFound is returned when a list request or subdomain does not exist.
var ErrNotFound = errors.New("not found")

// ListsRepo is the persistence layer for list requests, versions and their
// per-subdomain entry tables.
type ListsRepo struct {
	db *sql.DB
}

func NewListsRepo(db *sql.DB) *ListsRepo {
	return &ListsRepo{db: db}
}

func (r *ListsRepo) ListRequests(ctx context.Context, subdomainID int, limit int) ([]core.ListRequest, error) {
	query := `SELECT lr.request_id, lr.subdomain_id, COALESCE(s.subdomain_name, ''),
		lr.requester_name, lr.request_purpose, lr.status, COALESCE(lr.assigned_to, ''), lr.created_at
		FROM list_requests lr
		LEFT JOIN subdomains s ON s.subdomain_id = lr.subdomain_id`
	args := []any{}
	if subdomainID > 0 {
		query += ` WHERE lr.subdomain_id = $1`
		args = append(args, subdomainID)
	}
	query += fmt.Sprintf(` ORDER BY lr.created_at DESC LIMIT %d`, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query list requests: %w", err)
	}
	defer rows.Close()

	var requests []core.ListRequest
	for rows.Next() {
		var lr core.ListRequest
		if err := rows.Scan(&lr.RequestID, &lr.SubdomainID, &lr.SubdomainName,
			&lr.RequesterName, &lr.RequestPurpose, &lr.Status, &lr.AssignedTo, &lr.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list request: %w", err)
		}
		requests = append(requests, lr)
	}
	return requests, rows.Err()
}

func (r *ListsRepo) GetListRequest(ctx context.Context, requestID int) (*core.ListRequest, error) {
	query := `SELECT lr.request_id, lr.subdomain_id, COALESCE(s.subdomain_name, ''),
		lr.requester_name, lr.request_purpose, lr.status, COALESCE(lr.assigned_to, ''), lr.created_at
		FROM list_requests lr
		LEFT JOIN subdomains s ON s.subdomain_id = lr.subdomain_id
		WHERE lr.request_id = $1`

	var lr core.ListRequest
	err := r.db.QueryRowContext(ctx, query, requestID).Scan(
		&lr.RequestID, &lr.SubdomainID, &lr.SubdomainName,
		&lr.RequesterName, &lr.RequestPurpose, &lr.Status, &lr.AssignedTo, &lr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list request: %w", err)
	}
	return &lr, nil
}

func (r *ListsRepo) CreateListRequest(ctx context.Context, lr *core.ListRequest) (*core.ListRequest, error) {
	query := `INSERT INTO list_requests (subdomain_id, requester_name, request_purpose, status, assigned_to)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING request_id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		lr.SubdomainID, lr.RequesterName, lr.RequestPurpose, lr.Status, lr.AssignedTo).
		Scan(&lr.RequestID, &lr.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create list request: %w", err)
	}
	return lr, nil
}

// UpdateListRequest applies the given column updates. Immutable columns are
// filtered by the service layer.
func (r *ListsRepo) UpdateListRequest(ctx context.Context, requestID int, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	i := 1
	for col, val := range fields {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(col), i))
		args = append(args, val)
		i++
	}
	args = append(args, requestID)

	query := fmt.Sprintf(`UPDATE list_requests SET %s WHERE request_id = $%d`,
		strings.Join(setClauses, ", "), i)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update list request: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ListsRepo) DeleteListRequest(ctx context.Context, requestID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM list_requests WHERE request_id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("failed to delete list request: %w", err)
	}
	return nil
}

// Versions returns all versions of a request in ascending version order.
func (r *ListsRepo) Versions(ctx context.Context, requestID int) ([]core.ListVersion, error) {
	query := `SELECT version_id, request_id, version_number, COALESCE(change_type, ''),
		COALESCE(change_rationale, ''), COALESCE(created_by, ''), is_current, created_at
		FROM list_versions WHERE request_id = $1 ORDER BY version_number ASC`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer rows.Close()

	var versions []core.ListVersion
	for rows.Next() {
		var v core.ListVersion
		if err := rows.Scan(&v.VersionID, &v.RequestID, &v.VersionNumber, &v.ChangeType,
			&v.ChangeRationale, &v.CreatedBy, &v.IsCurrent, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// CurrentVersion returns the version flagged is_current, or nil if none.
func (r *ListsRepo) CurrentVersion(ctx context.Context, requestID int) (*core.ListVersion, error) {
	query := `SELECT version_id, request_id, version_number, COALESCE(change_type, ''),
		COALESCE(change_rationale, ''), COALESCE(created_by, ''), is_current, created_at
		FROM list_versions WHERE request_id = $1 AND is_current = TRUE
		ORDER BY version_number DESC LIMIT 1`

	var v core.ListVersion
	err := r.db.QueryRowContext(ctx, query, requestID).Scan(
		&v.VersionID, &v.RequestID, &v.VersionNumber, &v.ChangeType,
		&v.ChangeRationale, &v.CreatedBy, &v.IsCurrent, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}
	return &v, nil
}

// HCPIDs returns the hcp_id set of a target list version.
func (r *ListsRepo) HCPIDs(ctx context.Context, versionID int) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT hcp_id FROM target_list_entries WHERE version_id = $1`, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query hcp ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan hcp id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// EntriesForVersion loads all items of a version from the given entry table.
// The table name comes from the fixed subdomain mapping, never from input.
func (r *ListsRepo) EntriesForVersion(ctx context.Context, table string, versionID int) ([]map[string]any, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE version_id = $1`, pq.QuoteIdentifier(table))

	rows, err := r.db.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var entries []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		entry := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			entry[col] = values[i]
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// AddVersion creates the next version for a request inside one transaction:
// the previous current version is unflagged and the new one inserted with
// is_current set.
func (r *ListsRepo) AddVersion(ctx context.Context, requestID int, changeType, rationale, createdBy string) (*core.ListVersion, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version_number), 0) + 1 FROM list_versions WHERE request_id = $1`,
		requestID).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to compute next version number: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE list_versions SET is_current = FALSE WHERE request_id = $1 AND is_current = TRUE`,
		requestID); err != nil {
		return nil, fmt.Errorf("failed to unset current version: %w", err)
	}

	v := &core.ListVersion{
		RequestID:       requestID,
		VersionNumber:   next,
		ChangeType:      changeType,
		ChangeRationale: rationale,
		CreatedBy:       createdBy,
		IsCurrent:       true,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO list_versions (request_id, version_number, change_type, change_rationale, created_by, is_current)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING version_id, created_at`,
		requestID, next, changeType, rationale, createdBy).Scan(&v.VersionID, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit version: %w", err)
	}
	return v, nil
}

// InsertEntries bulk-inserts items into an entry table for a version. Column
// names come from the first item; every item must share its shape.
func (r *ListsRepo) InsertEntries(ctx context.Context, table string, versionID int, items []map[string]any) error {
	if len(items) == 0 {
		return nil
	}

	columns := make([]string, 0, len(items[0]))
	for col := range items[0] {
		columns = append(columns, col)
	}

	quoted := make([]string, 0, len(columns)+1)
	quoted = append(quoted, pq.QuoteIdentifier("version_id"))
	for _, col := range columns {
		quoted = append(quoted, pq.QuoteIdentifier(col))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, len(quoted))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		args := make([]any, 0, len(quoted))
		args = append(args, versionID)
		for _, col := range columns {
			args = append(args, item[col])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	return tx.Commit()
}
