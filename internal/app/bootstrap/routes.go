// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	circlesfeature "github.com/dalemusser/circlehub/internal/app/features/circles"
	errorsfeature "github.com/dalemusser/circlehub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/circlehub/internal/app/features/health"
	invitesfeature "github.com/dalemusser/circlehub/internal/app/features/invites"
	loginfeature "github.com/dalemusser/circlehub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/circlehub/internal/app/features/logout"
	membersfeature "github.com/dalemusser/circlehub/internal/app/features/members"
	stakesfeature "github.com/dalemusser/circlehub/internal/app/features/stakes"
	wardsfeature "github.com/dalemusser/circlehub/internal/app/features/wards"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/blobstore"
	"github.com/dalemusser/circlehub/internal/app/system/mailer"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// CircleHub applies session middleware and mounts the JSON feature
// routers: health, login/logout, circles, members, wards, stakes, and
// invites, plus Prometheus metrics and static assets for the drag-and-
// drop client.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Profile photo storage: local disk in development, S3 in
	// deployments that configure it.
	var blobs blobstore.Store
	var localBlobs *blobstore.Local
	switch appCfg.StorageType {
	case "s3":
		s3Store, err := blobstore.NewS3(context.Background(), blobstore.S3Config{
			Region:        appCfg.StorageS3Region,
			Bucket:        appCfg.StorageS3Bucket,
			Endpoint:      appCfg.StorageS3Endpoint,
			PathStyle:     appCfg.StorageS3PathStyle,
			PublicBaseURL: appCfg.StorageS3PublicBaseURL,
		})
		if err != nil {
			logger.Error("s3 blob store init failed", zap.Error(err))
			return nil, err
		}
		blobs = s3Store
	default:
		localBlobs, err = blobstore.NewLocal(appCfg.StorageLocalPath, appCfg.StorageLocalURL)
		if err != nil {
			logger.Error("local blob store init failed", zap.Error(err))
			return nil, err
		}
		blobs = localBlobs
	}

	// Outbound invitation mail.
	from := appCfg.MailFrom
	if appCfg.MailFromName != "" {
		from = fmt.Sprintf("%s <%s>", appCfg.MailFromName, appCfg.MailFrom)
	}
	sender := &mailer.SMTPSender{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     from,
		Log:      logger,
	}

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.CircleHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Uploaded profile photos when running on local storage. S3 serves
	// its own URLs.
	if localBlobs != nil {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, localBlobs.Root()))
	}

	// Authentication: invite-token activation sign-in
	loginHandler := loginfeature.NewHandler(deps.CircleHubMongoDatabase, errLog, sessionMgr, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Circle board: snapshot, drag-and-drop, and lifecycle operations
	circlesHandler := circlesfeature.NewHandler(deps.CircleHubMongoDatabase, errLog, appCfg.RemoveOnEmptyDrop, logger)
	r.Mount("/circles", circlesfeature.Routes(circlesHandler, sessionMgr))

	// Member roster: CRUD, CSV import, transfers, photos
	membersHandler := membersfeature.NewHandler(deps.CircleHubMongoDatabase, errLog, blobs, logger)
	r.Mount("/members", membersfeature.Routes(membersHandler, sessionMgr))

	// Ward management (stake admins)
	wardsHandler := wardsfeature.NewHandler(deps.CircleHubMongoDatabase, errLog, logger)
	r.Mount("/wards", wardsfeature.Routes(wardsHandler, sessionMgr))

	// Stake management
	stakesHandler := stakesfeature.NewHandler(deps.CircleHubMongoDatabase, errLog, logger)
	r.Mount("/stakes", stakesfeature.Routes(stakesHandler, sessionMgr))

	// Invitation email
	invitesHandler := invitesfeature.NewHandler(deps.CircleHubMongoDatabase, errLog, sender, appCfg.SiteName, appCfg.BaseURL, logger)
	r.Mount("/invites", invitesfeature.Routes(invitesHandler, sessionMgr))

	return r, nil
}
