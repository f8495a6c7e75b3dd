// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for LoyaltyHub.
//
// Values come from LOYALTYHUB_* environment variables, config files or
// command-line flags (see appConfigKeys). WAFFLE's CoreConfig still owns
// ports, TLS, log level and CORS.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // e.g. mongodb://localhost:27017
	MongoDatabase    string
	MongoMaxPoolSize uint64

	// Session management configuration
	SessionKey    string // signs session cookies; must be strong in production
	SessionName   string
	SessionDomain string // blank means current host
	SessionMaxAge time.Duration

	// BaseURL is the public origin, used for the Google callback URL.
	BaseURL string

	// Google OAuth (sign-in is disabled while either is empty)
	GoogleClientID     string
	GoogleClientSecret string

	// Audit logging destinations: all, db, log, off
	AuditLogAuth  string
	AuditLogAdmin string

	// LoginRateLimit is the number of POST /login requests allowed per IP
	// per minute. 0 disables throttling.
	LoginRateLimit int

	// Local identity provider
	BcryptCost int

	// Identity provider circuit breaker
	IdentityBreakerFailures int
	IdentityBreakerTimeout  time.Duration

	// Bootstrap administrator, created or promoted on startup.
	AdminEmail    string
	AdminPassword string
}
