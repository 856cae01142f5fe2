// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/carline/internal/app/dismissal"
	callerfeature "github.com/dalemusser/carline/internal/app/features/caller"
	dashboardfeature "github.com/dalemusser/carline/internal/app/features/dashboard"
	healthfeature "github.com/dalemusser/carline/internal/app/features/health"
	loginfeature "github.com/dalemusser/carline/internal/app/features/login"
	logoutfeature "github.com/dalemusser/carline/internal/app/features/logout"
	registerfeature "github.com/dalemusser/carline/internal/app/features/register"
	schoolfeature "github.com/dalemusser/carline/internal/app/features/school"
	stafffeature "github.com/dalemusser/carline/internal/app/features/staff"
	studentsfeature "github.com/dalemusser/carline/internal/app/features/students"
	"github.com/dalemusser/carline/internal/app/live"
	"github.com/dalemusser/carline/internal/app/mirror"
	callstore "github.com/dalemusser/carline/internal/app/store/calls"
	schoolstore "github.com/dalemusser/carline/internal/app/store/schools"
	studentstore "github.com/dalemusser/carline/internal/app/store/students"
	userstore "github.com/dalemusser/carline/internal/app/store/users"
	"github.com/dalemusser/carline/internal/app/system/auth"
	"github.com/dalemusser/carline/internal/app/system/credential"
	"github.com/dalemusser/carline/internal/app/system/metrics"
	"github.com/dalemusser/carline/internal/app/system/ratelimit"
	"github.com/dalemusser/carline/internal/domain/models"
)

// callMirrorWindow bounds how far back the call watcher lists. The mirror
// already drops calls from previous local days at read time; the window
// just keeps memory and query cost flat.
const callMirrorWindow = 48 * time.Hour

// watchCancel stops the mirror watchers; Shutdown calls it.
var watchCancel context.CancelFunc

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It wires the stores, the call lifecycle
// engine, the in-memory mirror with its watchers, the websocket hub, and
// mounts every feature router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.CarLineMongoDatabase
	ns := appCfg.Namespace

	schools := schoolstore.New(db, ns)
	users := userstore.New(db, ns)
	students := studentstore.New(db, ns)
	calls := callstore.New(db, ns)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	engine := &dismissal.Engine{
		Students: students,
		Calls:    calls,
		Log:      logger,
		Metrics:  collector,
	}

	verifier := &credential.Verifier{Users: users, Schools: schools}

	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// The mirror serves dashboard reads; the hub re-renders per client
	// whenever a watcher reports a school changed.
	m := mirror.New()
	render := func(schoolID primitive.ObjectID, f dismissal.RosterFilter) ([]byte, error) {
		st := m.Students(schoolID)
		return json.Marshal(struct {
			Roster   dismissal.Roster `json:"roster"`
			Teachers []string         `json:"teachers"`
		}{
			Roster:   dismissal.ProjectRoster(m.Calls(schoolID), st, f),
			Teachers: dismissal.TeacherNames(st),
		})
	}
	hub := live.NewHub(render, appCfg.AllowedOrigins, logger, collector)

	startWatchers(m, hub, students, calls, appCfg, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.CarLineMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	// Public: school registration and authentication.
	registerHandler := registerfeature.NewHandler(schools, users, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler))

	limiter := ratelimit.NewLoginLimiter(appCfg.LoginRateLimit, appCfg.LoginRateWindow)
	loginHandler := loginfeature.NewHandler(verifier, sessionMgr, limiter, collector, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Any signed-in staff: submit calls, watch the dashboard.
	callerHandler := callerfeature.NewHandler(engine, calls, hub, logger)
	r.With(auth.RequireSignedIn).Mount("/caller", callerfeature.Routes(callerHandler))

	dashboardHandler := dashboardfeature.NewHandler(m, engine, hub, logger)
	r.With(auth.RequireSignedIn).Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

	// Admin only: roster, staff, and school management.
	adminOnly := []func(http.Handler) http.Handler{
		auth.RequireSignedIn,
		auth.RequireRole(models.RoleAdmin),
	}

	studentsHandler := studentsfeature.NewHandler(students, collector, logger)
	r.With(adminOnly...).Mount("/students", studentsfeature.Routes(studentsHandler))

	staffHandler := stafffeature.NewHandler(users, logger)
	r.With(adminOnly...).Mount("/staff", stafffeature.Routes(staffHandler))

	schoolHandler := schoolfeature.NewHandler(schools, calls, collector, logger)
	r.With(adminOnly...).Mount("/school", schoolfeature.Routes(schoolHandler))

	return r, nil
}

// startWatchers runs the student and call watchers until Shutdown.
func startWatchers(m *mirror.Mirror, hub *live.Hub, students *studentstore.Store, calls *callstore.Store, appCfg AppConfig, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	watchCancel = cancel

	studentWatcher := &mirror.Watcher[models.Student]{
		Name:         "students",
		Coll:         students.Collection(),
		List:         students.ListAll,
		Key:          func(s models.Student) primitive.ObjectID { return s.SchoolID },
		Apply:        m.ReplaceStudents,
		Notify:       hub.Notify,
		PollInterval: appCfg.WatchPollInterval,
		Log:          logger,
	}

	callWatcher := &mirror.Watcher[models.Call]{
		Name: "calls",
		Coll: calls.Collection(),
		List: func(ctx context.Context) ([]models.Call, error) {
			return calls.ListSince(ctx, time.Now().Add(-callMirrorWindow))
		},
		Key:          func(c models.Call) primitive.ObjectID { return c.SchoolID },
		Apply:        m.ReplaceCalls,
		Notify:       hub.Notify,
		PollInterval: appCfg.WatchPollInterval,
		Log:          logger,
	}

	go studentWatcher.Run(ctx)
	go callWatcher.Run(ctx)
}
