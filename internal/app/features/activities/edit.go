package activities

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	activitystore "github.com/dalemusser/loyaltyhub/internal/app/store/activities"
	"github.com/dalemusser/loyaltyhub/internal/app/store/audit"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/authz"
	"github.com/dalemusser/loyaltyhub/internal/app/system/inputval"
	"github.com/dalemusser/loyaltyhub/internal/app/system/normalize"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type activityInput struct {
	Name              string `json:"name" validate:"required,max=120" label:"Name"`
	Description       string `json:"description" validate:"max=2000" label:"Description"`
	Points            int64  `json:"points" validate:"gte=0" label:"Points"`
	ParticipantsCount int64  `json:"participants_count" validate:"gte=0" label:"Participants count"`
	ProjectName       string `json:"project_name" validate:"max=120" label:"Project name"`
	IsActive          *bool  `json:"is_active"`
	// Force skips the similar-name warning. Exact duplicates are always
	// rejected.
	Force bool `json:"force"`
}

func decodeInput(w http.ResponseWriter, r *http.Request) (activityInput, *inputval.Result, error) {
	var in activityInput
	if err := respond.Decode(w, r, &in); err != nil {
		return in, nil, err
	}
	in.Name = normalize.Name(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ProjectName = normalize.Name(in.ProjectName)
	return in, inputval.Validate(in), nil
}

func parseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid activity id %q", s)
	}
	return id, nil
}

// vetName answers the request itself and returns false when name collides
// with another activity.
func (h *Handler) vetName(ctx context.Context, w http.ResponseWriter, r *http.Request, name string, force bool, self primitive.ObjectID) bool {
	existing, err := h.Activities.Names(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("load activity names", err))
		return false
	}
	check := checkName(name, existing, self)
	if check.Duplicate {
		respond.Error(w, r, h.Log, apperr.Conflict("an activity with this name already exists"))
		return false
	}
	if len(check.Similar) > 0 && !force {
		respond.JSON(w, http.StatusConflict, map[string]any{
			"error": map[string]any{
				"code":    "similar_name",
				"message": "The name is very similar to an existing activity. Resend with force to save anyway.",
				"similar": check.Similar,
			},
		})
		return false
	}
	return true
}

// HandleCreate handles POST /activities.
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.vetName(ctx, w, r, in.Name, in.Force, primitive.NilObjectID) {
		return
	}
	a, err := h.Activities.Create(ctx, models.Activity{
		Name:              in.Name,
		Description:       in.Description,
		Points:            in.Points,
		ParticipantsCount: in.ParticipantsCount,
		ProjectName:       in.ProjectName,
	})
	if errors.Is(err, activitystore.ErrDuplicateName) {
		respond.Error(w, r, h.Log, apperr.Conflict("an activity with this name already exists"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("create activity", err))
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Admin(ctx, r, audit.EventActivityCreated, actorID, "", map[string]string{
		"activity_id": a.ID.Hex(),
		"name":        a.Name,
	})
	respond.JSON(w, http.StatusCreated, a)
}

// HandleUpdate handles PUT /activities/{id}. The name checks run only when
// the name changes.
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	current, err := h.Activities.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("activity", id.Hex()))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("load activity", err))
		return
	}
	if in.Name != current.Name && !h.vetName(ctx, w, r, in.Name, in.Force, id) {
		return
	}

	active := current.IsActive
	if in.IsActive != nil {
		active = *in.IsActive
	}
	err = h.Activities.Update(ctx, id, activitystore.Update{
		Name:              in.Name,
		Description:       in.Description,
		Points:            in.Points,
		ParticipantsCount: in.ParticipantsCount,
		ProjectName:       in.ProjectName,
		IsActive:          active,
	})
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		respond.Error(w, r, h.Log, apperr.NotFound("activity", id.Hex()))
		return
	case errors.Is(err, activitystore.ErrDuplicateName):
		respond.Error(w, r, h.Log, apperr.Conflict("an activity with this name already exists"))
		return
	case err != nil:
		respond.Error(w, r, h.Log, apperr.Store("update activity", err))
		return
	}

	updated, err := h.Activities.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("load activity", err))
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Admin(ctx, r, audit.EventActivityUpdated, actorID, "", map[string]string{"activity_id": id.Hex()})
	respond.OK(w, updated)
}

// HandleDelete handles DELETE /activities/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.Activities.Delete(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("activity", id.Hex()))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("delete activity", err))
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Admin(ctx, r, audit.EventActivityDeleted, actorID, "", map[string]string{"activity_id": id.Hex()})
	w.WriteHeader(http.StatusNoContent)
}
