// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where you put everything specific to YOUR application:
// connection strings, SMTP credentials, storage backends, and behavior
// flags for the circle board.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: circlehub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // How long a signed-in session lasts

	// File storage configuration for member profile photos
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/uploads")

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region        string // AWS region
	StorageS3Bucket        string // S3 bucket name
	StorageS3Endpoint      string // Custom endpoint for S3-compatible stores (blank for AWS)
	StorageS3PathStyle     bool   // Use path-style addressing (needed for MinIO and friends)
	StorageS3PublicBaseURL string // Public URL prefix for stored objects (blank derives the AWS URL)

	// Email/SMTP configuration for invitation mail
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit, email-smtp.us-east-1.amazonaws.com for SES)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@circlehub.org)
	MailFromName string // From display name (e.g., CircleHub)

	// SiteName appears in invitation emails.
	SiteName string

	// Base URL for invite links in email
	BaseURL string // e.g., "https://circlehub.org" or "http://localhost:3000"

	// RemoveOnEmptyDrop controls what dragging a circled member onto
	// empty board space does: true removes them back to the available
	// pool, false treats the drop as a no-op.
	RemoveOnEmptyDrop bool
}
