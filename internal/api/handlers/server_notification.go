package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"tracehub.io/tracehub/internal/api/middleware"
	"tracehub.io/tracehub/internal/notification"
	apperrors "tracehub.io/tracehub/internal/pkg/errors"
	"tracehub.io/tracehub/internal/pkg/idcodec"
	"tracehub.io/tracehub/internal/pkg/logger"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// scopeFromCtx returns the caller's inbox scope, or false when the request is
// unauthenticated.
func scopeFromCtx(c *gin.Context) (notification.InboxScope, bool) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return notification.InboxScope{}, false
	}
	return notification.InboxScope{UserID: userID, TenantID: middleware.GetTenantID(ctx)}, true
}

func unauthorized(c *gin.Context) {
	_ = c.Error(apperrors.Unauthorized(apperrors.CodeUnauthorized, "authentication required"))
}

// GetNotificationSummary handles GET /notifications/summary.
func (s *Server) GetNotificationSummary(c *gin.Context) {
	scope, ok := scopeFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	rows, err := s.inbox.Summary(c.Request.Context(), scope)
	if err != nil {
		logger.Error("failed to summarize notifications",
			zap.String("user_id", scope.UserID),
			zap.Error(err),
		)
		_ = c.Error(err)
		return
	}

	items := make([]NodeSummary, 0, len(rows))
	for _, r := range rows {
		items = append(items, NodeSummary{Node: encodeOptional(r.NodeID), Unread: r.Unread, Total: r.Total})
	}
	c.JSON(http.StatusOK, NotificationSummary{Items: items})
}

// ListNotifications handles GET /notifications.
func (s *Server) ListNotifications(c *gin.Context) {
	scope, ok := scopeFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	q, err := bindListQuery(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	q.InboxScope = scope

	page, err := s.inbox.List(c.Request.Context(), q)
	if err != nil {
		logger.Error("failed to list notifications",
			zap.String("user_id", scope.UserID),
			zap.Int("offset", q.Offset),
			zap.Error(err),
		)
		_ = c.Error(err)
		return
	}

	accept, _, _ := language.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
	items := make([]Notification, 0, len(page.Items))
	for _, n := range page.Items {
		items = append(items, notificationToAPI(n, accept))
	}
	c.JSON(http.StatusOK, NotificationList{
		Items: items,
		Pagination: Pagination{
			Limit:  q.Limit,
			Offset: q.Offset,
			Total:  page.Total,
		},
	})
}

func bindListQuery(c *gin.Context) (notification.ListQuery, error) {
	params := c.Request.URL.Query()
	q := notification.ListQuery{Limit: defaultPageLimit}

	var node string
	if err := runtime.BindQueryParameter("form", true, false, "node", params, &node); err != nil {
		return q, apperrors.ErrInvalidRequestField("node", err.Error())
	}
	if node != "" {
		id, err := idcodec.Decode(node)
		if err != nil {
			return q, apperrors.ErrInvalidRequestField("node", err.Error())
		}
		q.NodeID = id
	}
	if err := runtime.BindQueryParameter("form", true, false, "is_read", params, &q.IsRead); err != nil {
		return q, apperrors.ErrInvalidRequestField("is_read", err.Error())
	}
	if err := runtime.BindQueryParameter("form", true, false, "search", params, &q.Search); err != nil {
		return q, apperrors.ErrInvalidRequestField("search", err.Error())
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", params, &q.Limit); err != nil {
		return q, apperrors.ErrInvalidRequestField("limit", err.Error())
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", params, &q.Offset); err != nil {
		return q, apperrors.ErrInvalidRequestField("offset", err.Error())
	}

	if q.Limit < 1 || q.Limit > maxPageLimit {
		return q, apperrors.ErrInvalidRequestField("limit", "must be between 1 and 100")
	}
	if q.Offset < 0 {
		return q, apperrors.ErrInvalidRequestField("offset", "must not be negative")
	}
	return q, nil
}

// MarkNotificationsRead handles PATCH /notifications/read. Exactly one of ids
// or all=true must be supplied.
func (s *Server) MarkNotificationsRead(c *gin.Context) {
	scope, ok := scopeFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ErrInvalidRequestField("body", err.Error()))
		return
	}
	byIDs := req.IDs != nil
	all := req.All != nil && *req.All
	if byIDs == all {
		_ = c.Error(apperrors.ErrMarkReadSelector())
		return
	}

	ctx := c.Request.Context()
	now := s.now()
	var (
		updated int
		err     error
	)
	if all {
		updated, err = s.inbox.MarkAllRead(ctx, scope, now)
	} else {
		ids, decodeErr := idcodec.DecodeAll(req.IDs)
		if decodeErr != nil {
			_ = c.Error(apperrors.ErrInvalidRequestField("ids", decodeErr.Error()))
			return
		}
		if len(ids) > 0 {
			updated, err = s.inbox.MarkRead(ctx, scope, ids, now)
		}
	}
	if err != nil {
		logger.Error("failed to mark notifications read",
			zap.String("user_id", scope.UserID),
			zap.Bool("all", all),
			zap.Error(err),
		)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, MarkReadResult{Updated: updated})
}
