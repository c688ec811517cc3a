/*
Package sqlite provides a SQLite-backed implementation of absence.Store.

PURPOSE:
  Implements the absence persistence interface using SQLite. In
  production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  groups:    Named partitions of resources (teams)
  resources: Employees/managers/approvers/admins
  absences:  Absence requests with lifecycle status and version

OPTIMISTIC CONCURRENCY:
  absences.version is checked on every UPDATE. A mutation carries the
  version it read; if the row moved on, zero rows match and the store
  reports absence.ErrConflict instead of silently overwriting.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/absences.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - absence/store.go: Interface definition and contracts
  - absence/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/absence-engine/absence"
)

// Store implements absence.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		employee_number TEXT,
		role TEXT,
		is_approver INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		manager_id TEXT,
		group_id TEXT REFERENCES groups(id),
		directory_id TEXT,
		synced_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_resources_group ON resources(group_id);

	CREATE TABLE IF NOT EXISTS absences (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES resources(id),
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL,
		requested_date TEXT NOT NULL,
		approver_id TEXT,
		approved_date TEXT,
		approval_comments TEXT,
		version INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_absences_employee ON absences(employee_id);
	CREATE INDEX IF NOT EXISTS idx_absences_status ON absences(status);
	CREATE INDEX IF NOT EXISTS idx_absences_window ON absences(start_at, end_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) SaveRequest(ctx context.Context, r absence.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO absences
			(id, employee_id, start_at, end_at, reason, status, requested_date,
			 approver_id, approved_date, approval_comments, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), string(r.EmployeeID),
		formatTime(r.Start), formatTime(r.End),
		r.Reason, string(r.Status), formatTime(r.RequestedDate),
		nullableID(r.ApproverID), nullableTime(r.ApprovedDate),
		nullableString(r.ApprovalComments), r.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id absence.RequestID) (*absence.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, start_at, end_at, reason, status, requested_date,
		       approver_id, approved_date, approval_comments, version
		FROM absences WHERE id = ?`, string(id))
	return scanRequest(row)
}

func (s *Store) UpdateRequest(ctx context.Context, r absence.Request, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE absences
		SET start_at = ?, end_at = ?, reason = ?, status = ?,
		    approver_id = ?, approved_date = ?, approval_comments = ?,
		    version = ?
		WHERE id = ? AND version = ?`,
		formatTime(r.Start), formatTime(r.End), r.Reason, string(r.Status),
		nullableID(r.ApproverID), nullableTime(r.ApprovedDate),
		nullableString(r.ApprovalComments), r.Version,
		string(r.ID), expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from a version mismatch.
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM absences WHERE id = ?`, string(r.ID)).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return absence.ErrNotFound
		}
		if err != nil {
			return err
		}
		return absence.ErrConflict
	}
	return nil
}

func (s *Store) DeleteRequest(ctx context.Context, id absence.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM absences WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return absence.ErrNotFound
	}
	return nil
}

func (s *Store) ListRequests(ctx context.Context) ([]absence.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, start_at, end_at, reason, status, requested_date,
		       approver_id, approved_date, approval_comments, version
		FROM absences`)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var out []absence.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(sc scanner) (*absence.Request, error) {
	var (
		r                                 absence.Request
		id, employeeID, start, end        string
		status, requestedDate             string
		approverID, approvedDate, comment sql.NullString
	)
	err := sc.Scan(&id, &employeeID, &start, &end, &r.Reason, &status,
		&requestedDate, &approverID, &approvedDate, &comment, &r.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, absence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}

	r.ID = absence.RequestID(id)
	r.EmployeeID = absence.ResourceID(employeeID)
	r.Status = absence.Status(status)
	if r.Start, err = parseTime(start); err != nil {
		return nil, err
	}
	if r.End, err = parseTime(end); err != nil {
		return nil, err
	}
	if r.RequestedDate, err = parseTime(requestedDate); err != nil {
		return nil, err
	}
	if approverID.Valid {
		aid := absence.ResourceID(approverID.String)
		r.ApproverID = &aid
	}
	if approvedDate.Valid {
		at, err := parseTime(approvedDate.String)
		if err != nil {
			return nil, err
		}
		r.ApprovedDate = &at
	}
	if comment.Valid {
		c := comment.String
		r.ApprovalComments = &c
	}
	return &r, nil
}

// =============================================================================
// RESOURCES
// =============================================================================

func (s *Store) SaveResource(ctx context.Context, r absence.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.GroupID != "" {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM groups WHERE id = ?`, string(r.GroupID)).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return absence.ErrGroupRequired
		}
		if err != nil {
			return err
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO resources
			(id, name, email, employee_number, role, is_approver, is_active,
			 manager_id, group_id, directory_id, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), r.Name, r.Email, r.EmployeeNumber, r.Role,
		boolToInt(r.IsApprover), boolToInt(r.IsActive),
		nullIfEmpty(string(r.ManagerID)), nullIfEmpty(string(r.GroupID)),
		nullIfEmpty(r.DirectoryID), nullableTime(r.SyncedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save resource: %w", err)
	}
	return nil
}

func (s *Store) GetResource(ctx context.Context, id absence.ResourceID) (*absence.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, employee_number, role, is_approver, is_active,
		       manager_id, group_id, directory_id, synced_at
		FROM resources WHERE id = ?`, string(id))
	return scanResource(row)
}

func (s *Store) ListResources(ctx context.Context) ([]absence.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, employee_number, role, is_approver, is_active,
		       manager_id, group_id, directory_id, synced_at
		FROM resources`)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var out []absence.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanResource(sc scanner) (*absence.Resource, error) {
	var (
		r                         absence.Resource
		id                        string
		empNo, role               sql.NullString
		isApprover, isActive      int
		managerID, groupID, dirID sql.NullString
		syncedAt                  sql.NullString
	)
	err := sc.Scan(&id, &r.Name, &r.Email, &empNo, &role, &isApprover,
		&isActive, &managerID, &groupID, &dirID, &syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, absence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan resource: %w", err)
	}

	r.ID = absence.ResourceID(id)
	r.EmployeeNumber = empNo.String
	r.Role = role.String
	r.IsApprover = isApprover != 0
	r.IsActive = isActive != 0
	r.ManagerID = absence.ResourceID(managerID.String)
	r.GroupID = absence.GroupID(groupID.String)
	r.DirectoryID = dirID.String
	if syncedAt.Valid {
		at, err := parseTime(syncedAt.String)
		if err != nil {
			return nil, err
		}
		r.SyncedAt = &at
	}
	return &r, nil
}

// =============================================================================
// GROUPS
// =============================================================================

func (s *Store) SaveGroup(ctx context.Context, g absence.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO groups (id, name) VALUES (?, ?)`,
		string(g.ID), g.Name)
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, id absence.GroupID) (*absence.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var g absence.Group
	var gid string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM groups WHERE id = ?`, string(id)).Scan(&gid, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, absence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	g.ID = absence.GroupID(gid)
	return &g, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]absence.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM groups`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var out []absence.Group
	for rows.Next() {
		var g absence.Group
		var gid string
		if err := rows.Scan(&gid, &g.Name); err != nil {
			return nil, err
		}
		g.ID = absence.GroupID(gid)
		out = append(out, g)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableID(id *absence.ResourceID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
