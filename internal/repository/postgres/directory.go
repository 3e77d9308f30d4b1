package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/logger"
)

// ErrUserNotFound is returned for an unknown recipient.
var ErrUserNotFound = errors.New("user not found")

// ActivitySource reports when a user was last seen. ok is false when the
// source holds nothing for the user.
type ActivitySource interface {
	LastSeen(ctx context.Context, userID string) (at time.Time, ok bool, err error)
}

const (
	recipientQuery = `SELECT id, email, phone, full_name, language, push_token
FROM users WHERE id = $1`

	membershipQuery = `SELECT nm.role, u.last_active_at
FROM users u
LEFT JOIN node_members nm
  ON nm.user_id = u.id AND nm.node_id = $2 AND nm.tenant_id IN ($3, '')
WHERE u.id = $1`

	tenantBaseURLQuery = `SELECT base_url FROM tenants WHERE id = $1`

	nodeMembersQuery = `SELECT user_id FROM node_members
WHERE node_id = $1 AND tenant_id IN ($2, '')
ORDER BY created_at, user_id`

	recordActivityQuery = `UPDATE users
SET last_active_at = GREATEST(COALESCE(last_active_at, $2), $2)
WHERE id = $1`
)

// Directory answers recipient, membership, and tenant questions from the
// users, node_members, and tenants tables.
type Directory struct {
	db       *sql.DB
	activity ActivitySource
	window   time.Duration
	now      func() time.Time
}

// NewDirectory creates a Directory. A user is active when seen within
// window; activity may be nil, in which case only users.last_active_at is
// consulted.
func NewDirectory(db *sql.DB, activity ActivitySource, window time.Duration) *Directory {
	return &Directory{db: db, activity: activity, window: window, now: time.Now}
}

// Recipient implements notification.Directory.
func (d *Directory) Recipient(ctx context.Context, userID string) (notification.Recipient, error) {
	var r notification.Recipient
	err := d.db.QueryRowContext(ctx, recipientQuery, userID).
		Scan(&r.ID, &r.Email, &r.Phone, &r.FullName, &r.Language, &r.PushToken)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return r, fmt.Errorf("load user %s: %w", userID, err)
	}
	return r, nil
}

// Membership implements notification.Directory. An unrecognised role is
// treated as no role.
func (d *Directory) Membership(ctx context.Context, tenantID, userID, nodeID string) (notification.Membership, error) {
	var (
		role       sql.NullString
		lastActive sql.NullTime
	)
	err := d.db.QueryRowContext(ctx, membershipQuery, userID, nodeID, tenantID).Scan(&role, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return notification.Membership{}, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return notification.Membership{}, fmt.Errorf("load membership of %s in %s: %w", userID, nodeID, err)
	}

	var m notification.Membership
	if role.Valid {
		r, ok := notification.ParseRole(role.String)
		if ok {
			m.Role, m.HasRole = r, true
		} else {
			logger.Warn("ignoring unknown node role",
				zap.String("user_id", userID),
				zap.String("node_id", nodeID),
				zap.String("role", role.String),
			)
		}
	}
	m.Active = d.active(ctx, userID, lastActive)
	return m, nil
}

func (d *Directory) active(ctx context.Context, userID string, stored sql.NullTime) bool {
	cutoff := d.now().Add(-d.window)
	if d.activity != nil {
		at, ok, err := d.activity.LastSeen(ctx, userID)
		switch {
		case err != nil:
			logger.Warn("activity lookup failed, using stored last activity",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		case ok && at.After(cutoff):
			return true
		}
	}
	return stored.Valid && stored.Time.After(cutoff)
}

// TenantBaseURL implements notification.Directory.
func (d *Directory) TenantBaseURL(ctx context.Context, tenantID string) (string, error) {
	if tenantID == "" {
		return "", nil
	}
	var base string
	err := d.db.QueryRowContext(ctx, tenantBaseURLQuery, tenantID).Scan(&base)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load tenant %s: %w", tenantID, err)
	}
	return base, nil
}

// NodeMembers implements notification.Members.
func (d *Directory) NodeMembers(ctx context.Context, tenantID, nodeID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, nodeMembersQuery, nodeID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", nodeID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member of %s: %w", nodeID, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecordActivity persists last-seen times. A stored time is never moved back.
func (d *Directory) RecordActivity(ctx context.Context, seen map[string]time.Time) (int, error) {
	if len(seen) == 0 {
		return 0, nil
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin activity update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var updated int
	for userID, at := range seen {
		res, err := tx.ExecContext(ctx, recordActivityQuery, userID, at)
		if err != nil {
			return 0, fmt.Errorf("record activity of %s: %w", userID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			updated += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit activity update: %w", err)
	}
	return updated, nil
}

var (
	_ notification.Directory = (*Directory)(nil)
	_ notification.Members   = (*Directory)(nil)
)
