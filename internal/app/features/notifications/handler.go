// internal/app/features/notifications/handler.go
package notifications

import (
	"github.com/dalemusser/loyaltyhub/internal/app/readtracking"
	notificationstore "github.com/dalemusser/loyaltyhub/internal/app/store/notifications"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// listLimit caps the notification list.
const listLimit = 200

type Handler struct {
	Store    *notificationstore.Store
	Reads    *readtracking.Engine
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(store *notificationstore.Store, reads *readtracking.Engine, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Reads: reads, AuditLog: audit, Log: logger}
}
