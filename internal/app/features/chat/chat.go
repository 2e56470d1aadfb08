// internal/app/features/chat/chat.go
package chat

import (
	"context"
	"net/http"

	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	chatstore "github.com/dalemusser/researchhub/internal/app/store/chat"
	groupstore "github.com/dalemusser/researchhub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/researchhub/internal/app/store/memberships"
	"github.com/dalemusser/researchhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// access resolves the caller and the group, failing unless the caller
// belongs to the group or mentors it.
func (h *Handler) access(ctx context.Context, r *http.Request) (requestflow.Actor, models.Group, error) {
	a, ok := requestflow.ActorFrom(r)
	if !ok {
		return a, models.Group{}, requestflow.ErrNotAuthorized
	}
	gid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "group_id"))
	if err != nil {
		return a, models.Group{}, groupstore.ErrNotFound
	}
	g, err := groupstore.New(h.DB).GetByID(ctx, gid)
	if err != nil {
		return a, models.Group{}, err
	}

	switch a.Role {
	case models.RoleStudent:
		st, err := h.Flow.StudentFor(ctx, a)
		if err != nil {
			return a, g, errNotMember
		}
		member, err := membershipstore.New(h.DB).Exists(ctx, g.ID, st.ID)
		if err != nil {
			return a, g, err
		}
		if member {
			return a, g, nil
		}
	case models.RoleProfessor:
		p, err := h.Flow.ProfessorFor(ctx, a)
		if err != nil {
			return a, g, errNotMember
		}
		for _, id := range g.MentorIDs {
			if id == p.ID {
				return a, g, nil
			}
		}
	}
	return a, g, errNotMember
}

func messageID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, chatstore.ErrNotFound
	}
	return id, nil
}

// ServeMessages handles GET /chat/groups/{group_id}/messages.
func (h *Handler) ServeMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "chat history")
	defer cancel()

	a, g, err := h.access(ctx, r)
	if err != nil {
		h.ErrLog.Fail(w, r, "chat history", err)
		return
	}
	msgs, err := chatstore.New(h.DB).List(ctx, g.ID, a.UserID, paging.Parse(r, paging.DefaultLimit))
	if err != nil {
		h.ErrLog.Fail(w, r, "chat history", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, msgs)
}

type messageBody struct {
	Message string `json:"message"`
}

// HandleSend handles POST /chat/groups/{group_id}/messages.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var in messageBody
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode chat message", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "send chat message")
	defer cancel()

	a, g, err := h.access(ctx, r)
	if err != nil {
		h.ErrLog.Fail(w, r, "send chat message", err)
		return
	}
	m, err := chatstore.New(h.DB).Create(ctx, models.ChatMessage{
		GroupID:    g.ID,
		SenderID:   a.UserID,
		SenderType: a.Role,
		SenderName: a.Name,
		Message:    htmlsanitize.Text(in.Message),
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "send chat message", err)
		return
	}
	jsonutil.Write(w, http.StatusCreated, m)
}

// own loads a message of the group and checks the caller sent it.
func (h *Handler) own(ctx context.Context, r *http.Request, denied error) (*chatstore.Store, models.ChatMessage, error) {
	store := chatstore.New(h.DB)
	a, g, err := h.access(ctx, r)
	if err != nil {
		return store, models.ChatMessage{}, err
	}
	id, err := messageID(r)
	if err != nil {
		return store, models.ChatMessage{}, err
	}
	m, err := store.Get(ctx, g.ID, id)
	if err != nil {
		return store, models.ChatMessage{}, err
	}
	if m.SenderID != a.UserID {
		return store, models.ChatMessage{}, denied
	}
	return store, m, nil
}

// HandleEdit handles PUT /chat/groups/{group_id}/messages/{id}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var in messageBody
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode chat edit", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "edit chat message")
	defer cancel()

	store, m, err := h.own(ctx, r, errEditOwn)
	if err != nil {
		h.ErrLog.Fail(w, r, "edit chat message", err)
		return
	}
	edited, err := store.Edit(ctx, m.ID, htmlsanitize.Text(in.Message))
	if err != nil {
		h.ErrLog.Fail(w, r, "edit chat message", err)
		return
	}
	edited.IsRead = true
	jsonutil.Write(w, http.StatusOK, edited)
}

// HandleDelete handles DELETE /chat/groups/{group_id}/messages/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete chat message")
	defer cancel()

	store, m, err := h.own(ctx, r, errDeleteOwn)
	if err != nil {
		h.ErrLog.Fail(w, r, "delete chat message", err)
		return
	}
	if err := store.SoftDelete(ctx, m.ID); err != nil {
		h.ErrLog.Fail(w, r, "delete chat message", err)
		return
	}
	jsonutil.NoContent(w)
}

// HandleRead handles POST /chat/groups/{group_id}/messages/{id}/read.
func (h *Handler) HandleRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "read chat message")
	defer cancel()

	a, g, err := h.access(ctx, r)
	if err != nil {
		h.ErrLog.Fail(w, r, "read chat message", err)
		return
	}
	id, err := messageID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "read chat message", err)
		return
	}
	if err := chatstore.New(h.DB).MarkRead(ctx, g.ID, id, a.UserID); err != nil {
		h.ErrLog.Fail(w, r, "read chat message", err)
		return
	}
	jsonutil.NoContent(w)
}

// HandleReadAll handles POST /chat/groups/{group_id}/messages/read-all.
func (h *Handler) HandleReadAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "read all chat")
	defer cancel()

	a, g, err := h.access(ctx, r)
	if err != nil {
		h.ErrLog.Fail(w, r, "read all chat", err)
		return
	}
	if _, err := chatstore.New(h.DB).MarkAllRead(ctx, g.ID, a.UserID); err != nil {
		h.ErrLog.Fail(w, r, "read all chat", err)
		return
	}
	jsonutil.NoContent(w)
}

// ServeUnreadCount handles GET /chat/groups/{group_id}/unread-count.
func (h *Handler) ServeUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "chat unread count")
	defer cancel()

	a, g, err := h.access(ctx, r)
	if err != nil {
		h.ErrLog.Fail(w, r, "chat unread count", err)
		return
	}
	n, err := chatstore.New(h.DB).UnreadCount(ctx, g.ID, a.UserID)
	if err != nil {
		h.ErrLog.Fail(w, r, "chat unread count", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, map[string]any{"group_id": g.ID, "unread_count": n})
}
