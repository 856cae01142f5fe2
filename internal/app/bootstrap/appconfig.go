// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP ports,
// TLS, logging level, and request limits. AppConfig is everything specific
// to this application.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Namespace prefixes collection names so several deployments can share
	// one database. Blank disables prefixing.
	Namespace string

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: carline-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Login throttling
	LoginRateLimit  int           // Failed attempts allowed per window, per email
	LoginRateWindow time.Duration // Window the limit applies over

	// Live dashboard configuration
	WatchPollInterval time.Duration // Fallback poll cadence when change streams are unavailable
	AllowedOrigins    []string      // Origins allowed to open dashboard websockets; empty allows all
}
