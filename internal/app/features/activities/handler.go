// internal/app/features/activities/handler.go
package activities

import (
	"github.com/dalemusser/loyaltyhub/internal/app/participation"
	activitystore "github.com/dalemusser/loyaltyhub/internal/app/store/activities"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

type Handler struct {
	Activities    *activitystore.Store
	Members       *memberstore.Store
	Participation *participation.Service
	AuditLog      *auditlog.Logger
	Log           *zap.Logger
}

func NewHandler(activities *activitystore.Store, members *memberstore.Store, part *participation.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Activities: activities, Members: members, Participation: part, AuditLog: audit, Log: logger}
}
