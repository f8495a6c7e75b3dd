package notifications

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/store/audit"
	notificationstore "github.com/dalemusser/loyaltyhub/internal/app/store/notifications"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/app/system/authz"
	"github.com/dalemusser/loyaltyhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/loyaltyhub/internal/app/system/inputval"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type notificationInput struct {
	Title   string `json:"title" validate:"required,max=200" label:"Title"`
	Content string `json:"content" validate:"required,max=20000" label:"Content"`
	Type    string `json:"type" validate:"omitempty,notiftype" label:"Type"`
}

func (in *notificationInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if in.Type == "" {
		in.Type = string(models.NotificationGeneral)
	}
}

func decodeInput(w http.ResponseWriter, r *http.Request) (notificationInput, *inputval.Result, error) {
	var in notificationInput
	if err := respond.Decode(w, r, &in); err != nil {
		return in, nil, err
	}
	in.normalize()
	return in, inputval.Validate(in), nil
}

func parseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid notification id %q", s)
	}
	return id, nil
}

// HandleCreate handles POST /notifications. created_by is the author's
// display name, falling back to the email.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, res, err := decodeInput(w, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res.HasErrors() {
		respond.Invalid(w, res)
		return
	}

	author := ""
	if u, ok := auth.CurrentUser(r); ok {
		author = u.Name
		if author == "" {
			author = u.Email
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Store.Create(ctx, models.Notification{
		Title:     in.Title,
		Content:   htmlsanitize.PrepareForStorage(in.Content),
		Type:      models.NotificationType(in.Type),
		CreatedBy: author,
	})
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("create notification", err))
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Admin(ctx, r, audit.EventNotificationCreated, actorID, "", map[string]string{
		"notification_id": n.ID.Hex(),
		"title":           n.Title,
	})
	respond.JSON(w, http.StatusCreated, n)
}

// HandleUpdate handles PUT /notifications/{id}. Readers are left intact.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in, res, err := decodeInput(w, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res.HasErrors() {
		respond.Invalid(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.Store.Update(ctx, id, notificationstore.Update{
		Title:   in.Title,
		Content: htmlsanitize.PrepareForStorage(in.Content),
		Type:    models.NotificationType(in.Type),
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("notification", id.Hex()))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("update notification", err))
		return
	}
	n, err := h.Store.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("load notification", err))
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Admin(ctx, r, audit.EventNotificationUpdated, actorID, "", map[string]string{"notification_id": id.Hex()})
	respond.OK(w, n)
}

// HandleDelete handles DELETE /notifications/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.Store.Delete(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("notification", id.Hex()))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("delete notification", err))
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Admin(ctx, r, audit.EventNotificationDeleted, actorID, "", map[string]string{"notification_id": id.Hex()})
	w.WriteHeader(http.StatusNoContent)
}
