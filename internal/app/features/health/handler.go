package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// BreakerStater reports a circuit breaker state ("closed", "open", ...).
type BreakerStater interface {
	BreakerState() string
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client   *mongo.Client
	Identity BreakerStater // optional
	Log      *zap.Logger
}

func NewHandler(client *mongo.Client, identity BreakerStater, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Identity: identity, Log: logger}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Identity string `json:"identity_breaker,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "identity_breaker":"closed" }
//
// On DB failure: 503 with status "error".
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "connected"}
	if h.Identity != nil {
		resp.Identity = h.Identity.BreakerState()
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		respond.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	respond.OK(w, resp)
}
