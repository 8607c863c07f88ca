package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/teamdeck/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db      *sqlx.DB
	watcher *watcher
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, watcher: newWatcher()}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Watch subscribes to change signals for a collection.
func (s *SQLiteStore) Watch(collection string) (<-chan struct{}, func()) {
	return s.watcher.subscribe(collection)
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(
	ctx context.Context,
	n model.Notification,
) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, user_id, kind, message, read,
			sender_name, sender_avatar, project_id, project_name, task_id,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, string(n.Kind), n.Message, boolToInt(n.Read),
		n.SenderName, n.SenderAvatar, n.ProjectID, n.ProjectName, n.TaskID,
		n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	s.watcher.notify(CollectionNotifications)
	return nil
}

// ListUnreadNotifications retrieves the user's unread notifications,
// ordered by creation time descending.
func (s *SQLiteStore) ListUnreadNotifications(
	ctx context.Context,
	userID string,
) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM notifications
		WHERE user_id = ? AND read = 0
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unread notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(
	ctx context.Context,
	id string,
) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}

	s.watcher.notify(CollectionNotifications)
	return nil
}

// MarkNotificationsRead marks a batch of notifications as read in a
// single write. An empty id set is a no-op.
func (s *SQLiteStore) MarkNotificationsRead(
	ctx context.Context,
	ids []string,
) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(
		"UPDATE notifications SET read = 1 WHERE id IN (?)", ids,
	)
	if err != nil {
		return fmt.Errorf("building batch read query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("marking %d notifications as read: %w", len(ids), err)
	}

	s.watcher.notify(CollectionNotifications)
	return nil
}

// CreateInvitation inserts a new invitation record.
func (s *SQLiteStore) CreateInvitation(
	ctx context.Context,
	inv model.Invitation,
) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.Status == "" {
		inv.Status = model.InvitationPending
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invitations (
			id, project_id, project_name, inviter_name, inviter_avatar,
			recipient_email, status, source_message_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ProjectID, inv.ProjectName, inv.InviterName, inv.InviterAvatar,
		inv.RecipientEmail, inv.Status, inv.SourceMessageID, inv.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating invitation: %w", err)
	}

	s.watcher.notify(CollectionInvitations)
	return nil
}

// ListPendingInvitations retrieves pending invitations addressed to the
// given email. No ordering is applied; the aggregator sorts the feed.
func (s *SQLiteStore) ListPendingInvitations(
	ctx context.Context,
	email string,
) ([]model.Invitation, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM invitations
		WHERE recipient_email = ? AND status = ?`,
		email, model.InvitationPending,
	)
	if err != nil {
		return nil, fmt.Errorf("querying pending invitations: %w", err)
	}
	defer rows.Close()

	var invitations []model.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}

	return invitations, rows.Err()
}

// HasInvitationFromMessage reports whether an invitation was already
// ingested from the email with the given Message-ID.
func (s *SQLiteStore) HasInvitationFromMessage(
	ctx context.Context,
	messageID string,
) (bool, error) {
	if messageID == "" {
		return false, nil
	}

	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM invitations WHERE source_message_id = ?",
		messageID,
	)
	if err != nil {
		return false, fmt.Errorf("checking invitation message id: %w", err)
	}

	return count > 0, nil
}

// AcceptInvitation flips a pending invitation to accepted and provisions
// the project membership in the same transaction. The compound write
// either fully succeeds or fully fails.
func (s *SQLiteStore) AcceptInvitation(
	ctx context.Context,
	id string,
	userID string,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var projectID string
	err = tx.GetContext(ctx, &projectID, `
		SELECT project_id FROM invitations
		WHERE id = ? AND status = ?`,
		id, model.InvitationPending,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvitationNotPending
	}
	if err != nil {
		return fmt.Errorf("loading invitation %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE invitations SET status = ? WHERE id = ?",
		model.InvitationAccepted, id,
	); err != nil {
		return fmt.Errorf("accepting invitation %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO project_members (project_id, user_id, role, joined_at)
		VALUES (?, ?, ?, ?)`,
		projectID, userID, model.RoleMember, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("provisioning membership for %s: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing accept of %s: %w", id, err)
	}

	s.watcher.notify(CollectionInvitations)
	s.watcher.notify(CollectionProjects)
	return nil
}

// DeclineInvitation flips a pending invitation to declined.
func (s *SQLiteStore) DeclineInvitation(
	ctx context.Context,
	id string,
) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE invitations SET status = ? WHERE id = ? AND status = ?",
		model.InvitationDeclined, id, model.InvitationPending,
	)
	if err != nil {
		return fmt.Errorf("declining invitation %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking decline of %s: %w", id, err)
	}
	if affected == 0 {
		return ErrInvitationNotPending
	}

	s.watcher.notify(CollectionInvitations)
	return nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		kind      string
		readInt   int
		createdAt time.Time
	)

	err := rows.Scan(
		&n.ID, &n.UserID, &kind, &n.Message, &readInt,
		&n.SenderName, &n.SenderAvatar, &n.ProjectID, &n.ProjectName, &n.TaskID,
		&createdAt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Kind = model.NotificationKind(kind)
	n.Read = readInt != 0
	n.CreatedAt = createdAt

	return n, nil
}

// scanInvitation scans an invitation row from a sqlx.Rows result set.
func scanInvitation(rows *sqlx.Rows) (model.Invitation, error) {
	var (
		inv       model.Invitation
		createdAt time.Time
	)

	err := rows.Scan(
		&inv.ID, &inv.ProjectID, &inv.ProjectName,
		&inv.InviterName, &inv.InviterAvatar,
		&inv.RecipientEmail, &inv.Status, &inv.SourceMessageID,
		&createdAt,
	)
	if err != nil {
		return model.Invitation{}, fmt.Errorf("scanning invitation row: %w", err)
	}

	inv.CreatedAt = createdAt

	return inv, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
