// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	"github.com/dalemusser/loyaltyhub/internal/app/store/oauthstate"
	"github.com/dalemusser/loyaltyhub/internal/app/system/identity"
	"github.com/dalemusser/loyaltyhub/internal/app/system/normalize"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after schema setup and before the
// HTTP handler is built: it makes sure the configured administrator exists
// and clears expired OAuth states.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail != "" {
		ids := identity.NewMongoProvider(deps.MongoDatabase).WithCost(appCfg.BcryptCost)
		if err := ensureAdmin(ctx, deps, ids, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
	}

	n, err := oauthstate.New(deps.MongoDatabase).Purge(ctx)
	if err != nil {
		logger.Warn("oauth state purge failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("purged expired oauth states", zap.Int64("count", n))
	}
	return nil
}

// ensureAdmin promotes the account with email to admin, creating the
// identity and account when neither exists. Creating needs a password;
// without one the step is skipped with a warning.
func ensureAdmin(ctx context.Context, deps DBDeps, ids identity.Provider, email, password string, logger *zap.Logger) error {
	email = normalize.Email(email)
	members := memberstore.New(deps.MongoDatabase)

	m, err := members.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if m.Role == models.RoleAdmin {
			return nil
		}
		if err := members.PromoteToAdmin(ctx, m.ID); err != nil {
			return err
		}
		logger.Info("promoted account to admin", zap.String("email", email), zap.String("previous_role", m.Role))
		return nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return err
	}

	if password == "" {
		logger.Warn("admin account missing and no admin_password set; skipping", zap.String("email", email))
		return nil
	}

	ident, err := ids.Create(ctx, email, "Administrator", password)
	if errors.Is(err, identity.ErrEmailTaken) {
		// Identity exists without an account document.
		ident, err = ids.Authenticate(ctx, email, password)
	}
	if err != nil {
		return err
	}

	if _, err := members.Create(ctx, models.Member{
		ID:       ident.ID,
		Name:     "Administrator",
		Email:    email,
		Role:     models.RoleAdmin,
		IsActive: true,
	}); err != nil {
		return err
	}
	logger.Info("created admin account", zap.String("email", email))
	return nil
}
