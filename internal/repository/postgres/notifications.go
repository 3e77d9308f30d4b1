package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/notification"
)

const notificationsTable = "notifications"

var notificationColumns = []string{
	"id", "user_id", "tenant_id", "type",
	"is_read", "read_at",
	"action_visibility", "action_push", "action_email", "action_sms",
	"title", "body", "language",
	"action_url", "action_text",
	"actor_node_id", "target_node_id", "supply_chain_id",
	"event_kind", "event_id", "event_data",
	"redirect_id", "redirect_type", "context", "send_to", "token_id",
	"sms_message_id", "sms_failure", "email_queued_at", "push_sent_at",
	"created_at", "updated_at",
}

// identityColumns back the unique index that makes creation get-or-create.
var identityColumns = []string{"user_id", "tenant_id", "type", "event_kind", "event_id", "token_id"}

// NotificationStore persists notification records. It implements both
// notification.Store and notification.Inbox.
type NotificationStore struct {
	db *sql.DB
}

// NewNotificationStore creates a NotificationStore.
func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func pg() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

// FindByKey implements notification.Store.
func (s *NotificationStore) FindByKey(ctx context.Context, key notification.Key) (*notification.Notification, error) {
	query, args := pg().Select(notificationColumns...).
		From(entsql.Table(notificationsTable)).
		Where(entsql.And(
			entsql.EQ("user_id", key.RecipientID),
			entsql.EQ("tenant_id", key.TenantID),
			entsql.EQ("type", key.Type),
			entsql.EQ("event_kind", string(key.Event.Kind)),
			entsql.EQ("event_id", key.Event.ID),
			entsql.EQ("token_id", key.TokenID),
		)).
		Query()
	n, err := scanNotification(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("find notification by key: %w", err)
	}
	return n, nil
}

// Create implements notification.Store. A conflicting identity is reported
// as (false, nil).
func (s *NotificationStore) Create(ctx context.Context, n *notification.Notification) (bool, error) {
	title, err := json.Marshal(n.Title)
	if err != nil {
		return false, fmt.Errorf("encode title: %w", err)
	}
	body, err := json.Marshal(n.Body)
	if err != nil {
		return false, fmt.Errorf("encode body: %w", err)
	}
	var contextJSON any
	if n.Context != nil {
		b, err := json.Marshal(n.Context)
		if err != nil {
			return false, fmt.Errorf("encode context: %w", err)
		}
		contextJSON = string(b)
	}
	eventData := "{}"
	if len(n.EventData) > 0 {
		eventData = string(n.EventData)
	}

	query, args := pg().Insert(notificationsTable).
		Columns(notificationColumns...).
		Values(
			n.ID, n.RecipientID, n.TenantID, n.Type,
			n.IsRead, nullTime(n.ReadAt),
			n.Flags.Visibility, n.Flags.Push, n.Flags.Email, n.Flags.SMS,
			string(title), string(body), n.Language,
			n.ActionURL, n.ActionText,
			n.ActorNodeID, n.TargetNodeID, n.SupplyChainID,
			string(n.Event.Kind), n.Event.ID, eventData,
			n.RedirectID, n.RedirectType, contextJSON, n.SendTo, n.TokenID,
			n.SMSMessageID, n.SMSFailure, nullTime(n.EmailQueuedAt), nullTime(n.PushSentAt),
			n.CreatedAt, n.UpdatedAt,
		).
		OnConflict(entsql.ConflictColumns(identityColumns...), entsql.DoNothing()).
		Query()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert notification: rows affected: %w", err)
	}
	return affected == 1, nil
}

// Get implements notification.Store.
func (s *NotificationStore) Get(ctx context.Context, id string) (*notification.Notification, error) {
	query, args := pg().Select(notificationColumns...).
		From(entsql.Table(notificationsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	n, err := scanNotification(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}
	return n, nil
}

// MarkEmailQueued implements notification.Store.
func (s *NotificationStore) MarkEmailQueued(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, id, "mark email queued", map[string]any{"email_queued_at": at, "updated_at": at})
}

// MarkPushSent implements notification.Store.
func (s *NotificationStore) MarkPushSent(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, id, "mark push sent", map[string]any{"push_sent_at": at, "updated_at": at})
}

// SaveSMSResult implements notification.Store.
func (s *NotificationStore) SaveSMSResult(ctx context.Context, id, messageID, failure string) error {
	return s.update(ctx, id, "save sms result", map[string]any{
		"sms_message_id": messageID,
		"sms_failure":    failure,
		"updated_at":     time.Now().UTC(),
	})
}

func (s *NotificationStore) update(ctx context.Context, id, op string, values map[string]any) error {
	u := pg().Update(notificationsTable)
	// fixed column order keeps the statement text stable
	for _, col := range []string{"email_queued_at", "push_sent_at", "sms_message_id", "sms_failure", "updated_at"} {
		if v, ok := values[col]; ok {
			u.Set(col, v)
		}
	}
	query, args := u.Where(entsql.EQ("id", id)).Query()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%s %s: %w", op, id, notification.ErrNotFound)
	}
	return nil
}

func inScope(scope notification.InboxScope) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("user_id", scope.UserID),
		entsql.In("tenant_id", scope.TenantID, ""),
		entsql.EQ("action_visibility", true),
	)
}

// Summary implements notification.Inbox.
func (s *NotificationStore) Summary(ctx context.Context, scope notification.InboxScope) ([]notification.NodeSummary, error) {
	query, args := pg().Select("target_node_id", "COUNT(*) FILTER (WHERE NOT is_read)", entsql.Count("*")).
		From(entsql.Table(notificationsTable)).
		Where(inScope(scope)).
		GroupBy("target_node_id").
		OrderBy("target_node_id").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize notifications: %w", err)
	}
	defer rows.Close()

	var out []notification.NodeSummary
	for rows.Next() {
		var ns notification.NodeSummary
		if err := rows.Scan(&ns.NodeID, &ns.Unread, &ns.Total); err != nil {
			return nil, fmt.Errorf("scan notification summary: %w", err)
		}
		out = append(out, ns)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summarize notifications: %w", err)
	}
	return out, nil
}

func listPredicate(q notification.ListQuery) *entsql.Predicate {
	preds := []*entsql.Predicate{inScope(q.InboxScope)}
	if q.NodeID != "" {
		preds = append(preds, entsql.EQ("target_node_id", q.NodeID))
	}
	if q.IsRead != nil {
		preds = append(preds, entsql.EQ("is_read", *q.IsRead))
	}
	if q.Search != "" {
		pattern := "%" + escapeLike(q.Search) + "%"
		// match the localized texts, not the JSON keys around them
		preds = append(preds, entsql.P(func(b *entsql.Builder) {
			b.WriteString(`(EXISTS (SELECT 1 FROM jsonb_each_text("title") AS t WHERE t.value ILIKE `).Arg(pattern).
				WriteString(`) OR EXISTS (SELECT 1 FROM jsonb_each_text("body") AS t WHERE t.value ILIKE `).Arg(pattern).
				WriteString("))")
		}))
	}
	return entsql.And(preds...)
}

// List implements notification.Inbox. Newest first.
func (s *NotificationStore) List(ctx context.Context, q notification.ListQuery) (notification.Page, error) {
	countQuery, countArgs := pg().Select(entsql.Count("*")).
		From(entsql.Table(notificationsTable)).
		Where(listPredicate(q)).
		Query()
	var page notification.Page
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count notifications: %w", err)
	}
	if page.Total == 0 {
		return page, nil
	}

	sel := pg().Select(notificationColumns...).
		From(entsql.Table(notificationsTable)).
		Where(listPredicate(q)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if q.Limit > 0 {
		sel.Limit(q.Limit)
	}
	if q.Offset > 0 {
		sel.Offset(q.Offset)
	}
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return page, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return page, fmt.Errorf("list notifications: %w", err)
		}
		page.Items = append(page.Items, n)
	}
	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("list notifications: %w", err)
	}
	return page, nil
}

// MarkRead implements notification.Inbox.
func (s *NotificationStore) MarkRead(ctx context.Context, scope notification.InboxScope, ids []string, now time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.markRead(ctx, now, inScope(scope), entsql.In("id", args...))
}

// MarkAllRead implements notification.Inbox.
func (s *NotificationStore) MarkAllRead(ctx context.Context, scope notification.InboxScope, now time.Time) (int, error) {
	return s.markRead(ctx, now, inScope(scope))
}

func (s *NotificationStore) markRead(ctx context.Context, now time.Time, preds ...*entsql.Predicate) (int, error) {
	// already-read rows keep their original read_at
	preds = append(preds, entsql.EQ("is_read", false))
	query, args := pg().Update(notificationsTable).
		Set("is_read", true).
		Set("read_at", now).
		Set("updated_at", now).
		Where(entsql.And(preds...)).
		Query()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: rows affected: %w", err)
	}
	return int(affected), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(row scanner) (*notification.Notification, error) {
	var (
		n                                  notification.Notification
		readAt, emailQueuedAt, pushSentAt  sql.NullTime
		title, body, eventData, contextRaw []byte
		eventKind                          string
	)
	err := row.Scan(
		&n.ID, &n.RecipientID, &n.TenantID, &n.Type,
		&n.IsRead, &readAt,
		&n.Flags.Visibility, &n.Flags.Push, &n.Flags.Email, &n.Flags.SMS,
		&title, &body, &n.Language,
		&n.ActionURL, &n.ActionText,
		&n.ActorNodeID, &n.TargetNodeID, &n.SupplyChainID,
		&eventKind, &n.Event.ID, &eventData,
		&n.RedirectID, &n.RedirectType, &contextRaw, &n.SendTo, &n.TokenID,
		&n.SMSMessageID, &n.SMSFailure, &emailQueuedAt, &pushSentAt,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notification.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	n.Event.Kind = domain.EventKind(eventKind)
	n.EventData = json.RawMessage(eventData)
	n.ReadAt = timePtr(readAt)
	n.EmailQueuedAt = timePtr(emailQueuedAt)
	n.PushSentAt = timePtr(pushSentAt)
	if err := json.Unmarshal(title, &n.Title); err != nil {
		return nil, fmt.Errorf("decode title of %s: %w", n.ID, err)
	}
	if err := json.Unmarshal(body, &n.Body); err != nil {
		return nil, fmt.Errorf("decode body of %s: %w", n.ID, err)
	}
	if len(contextRaw) > 0 {
		if err := json.Unmarshal(contextRaw, &n.Context); err != nil {
			return nil, fmt.Errorf("decode context of %s: %w", n.ID, err)
		}
	}
	return &n, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var (
	_ notification.Store = (*NotificationStore)(nil)
	_ notification.Inbox = (*NotificationStore)(nil)
)
