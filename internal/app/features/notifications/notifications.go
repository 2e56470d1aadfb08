// internal/app/features/notifications/notifications.go
package notifications

import (
	"context"
	"net/http"

	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	notificationstore "github.com/dalemusser/researchhub/internal/app/store/notifications"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (requestflow.Actor, bool) {
	a, ok := requestflow.ActorFrom(r)
	if !ok {
		h.ErrLog.Fail(w, r, "notifications", requestflow.ErrNotAuthorized)
	}
	return a, ok
}

// ServeList handles GET /notifications?skip=&limit=&unread_only=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	unreadOnly, _ := jsonutil.QueryBool(r, "unread_only")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list notifications")
	defer cancel()

	list, err := notificationstore.New(h.DB).List(ctx, a.UserID, unreadOnly, paging.Parse(r, paging.NotificationLimit))
	if err != nil {
		h.ErrLog.Fail(w, r, "list notifications", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, list)
}

// ServeUnreadCount handles GET /notifications/unread-count.
func (h *Handler) ServeUnreadCount(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "unread count")
	defer cancel()

	n, err := notificationstore.New(h.DB).UnreadCount(ctx, a.UserID)
	if err != nil {
		h.ErrLog.Fail(w, r, "unread count", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, map[string]int64{"count": n})
}

// HandleMarkRead handles PUT /notifications/mark-read. Ids that are not the
// caller's are skipped.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var in struct {
		NotificationIDs []primitive.ObjectID `json:"notification_ids"`
	}
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode mark read", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "mark read")
	defer cancel()

	n, err := notificationstore.New(h.DB).MarkRead(ctx, a.UserID, in.NotificationIDs)
	if err != nil {
		h.ErrLog.Fail(w, r, "mark read", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, map[string]any{"message": "Notifications marked as read", "marked": n})
}

func notificationID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, notificationstore.ErrNotFound
	}
	return id, nil
}

// HandleMarkOneRead handles PUT /notifications/{id}/mark-read.
func (h *Handler) HandleMarkOneRead(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := notificationID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "mark notification read", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "mark notification read")
	defer cancel()

	if err := notificationstore.New(h.DB).MarkOneRead(ctx, a.UserID, id); err != nil {
		h.ErrLog.Fail(w, r, "mark notification read", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// HandleDelete handles DELETE /notifications/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := notificationID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "delete notification", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete notification")
	defer cancel()

	if err := notificationstore.New(h.DB).Delete(ctx, a.UserID, id); err != nil {
		h.ErrLog.Fail(w, r, "delete notification", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
}

type actionRequest struct {
	NotificationID primitive.ObjectID `json:"notification_id"`
	Action         string             `json:"action"`
}

type actionResult struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// HandleInvitationAction handles POST /notifications/group-invitation/action.
func (h *Handler) HandleInvitationAction(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Invitation", h.Flow.ActOnInvitationNotice)
}

// HandleJoinRequestAction handles POST /notifications/group-join-request/action.
func (h *Handler) HandleJoinRequestAction(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Join request", h.Flow.ActOnJoinNotice)
}

type actFunc func(ctx context.Context, a requestflow.Actor, notificationID primitive.ObjectID, action string) (string, error)

func (h *Handler) act(w http.ResponseWriter, r *http.Request, noun string, fn actFunc) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var in actionRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode notification action", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "notification action")
	defer cancel()

	status, err := fn(ctx, a, in.NotificationID, in.Action)
	if err != nil {
		h.ErrLog.Fail(w, r, "notification action", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, actionResult{Message: noun + " " + status, Status: status})
}
