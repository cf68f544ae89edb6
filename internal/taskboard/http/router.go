package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/taskboardhq/taskboard/internal/taskboard/service"
	"github.com/taskboardhq/taskboard/internal/taskboard/store"
	"github.com/taskboardhq/taskboard/pkg/httpx"
	"github.com/taskboardhq/taskboard/pkg/jwtx"
	"github.com/taskboardhq/taskboard/pkg/slogx"

	_ "github.com/taskboardhq/taskboard/api/taskboard" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier      jwtx.Verifier
	buildVersion  string
	startTime     time.Time
	logger        *slog.Logger
	devMode       bool
	uploadDir     string
	maxUploadSize int64

	store       store.Store
	AuthService *service.AuthService
	TaskService *service.TaskService
	UserService *service.UserService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	devMode bool,
	uploadDir string,
	maxUploadSize int64,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		verifier:      verifier,
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		store:         st,
		logger:        logger,
		devMode:       devMode,
		uploadDir:     uploadDir,
		maxUploadSize: maxUploadSize,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTasks()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
//
//	@title			Taskboard API
//	@version		0.1.0
//	@description	Task management REST API: JWT authentication, task CRUD with
//	@description	ownership policy, comments, file attachments, filtered search,
//	@description	and user administration.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService, DevMode: r.devMode}

	// Unauthenticated endpoints get strict per-IP limits to slow down
	// credential stuffing.
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))

	authed := func(next http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("POST /api/auth/logout", authed(h.HandleLogout, httpx.ModerateLimit))
	r.Mux.Handle("GET /api/auth/me", authed(h.HandleMe, httpx.LenientLimit))
	r.Mux.Handle("PUT /api/auth/profile", authed(h.HandleUpdateProfile, httpx.ModerateLimit))
	r.Mux.Handle("PUT /api/auth/password", authed(h.HandleChangePassword, httpx.StrictLimit))
	r.Mux.Handle("POST /api/auth/totp/enroll", authed(h.HandleEnrollTOTP, httpx.StrictLimit))
	r.Mux.Handle("POST /api/auth/totp/activate", authed(h.HandleActivateTOTP, httpx.StrictLimit))
	r.Mux.Handle("POST /api/auth/totp/disable", authed(h.HandleDisableTOTP, httpx.StrictLimit))
}

func (r *Router) registerTasks() {
	tasks := &TasksHandler{TaskService: r.TaskService, DevMode: r.devMode}
	comments := &CommentsHandler{TaskService: r.TaskService, DevMode: r.devMode}
	attachments := &AttachmentsHandler{
		TaskService:   r.TaskService,
		MaxUploadSize: r.maxUploadSize,
		DevMode:       r.devMode,
	}

	authed := func(next http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("GET /api/tasks", authed(tasks.HandleSearch, httpx.LenientLimit))
	r.Mux.Handle("POST /api/tasks", authed(tasks.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /api/tasks/stats", authed(tasks.HandleStats, httpx.LenientLimit))
	r.Mux.Handle("GET /api/tasks/{id}", authed(tasks.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PUT /api/tasks/{id}", authed(tasks.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /api/tasks/{id}", authed(tasks.HandleDelete, httpx.ModerateLimit))

	r.Mux.Handle("POST /api/tasks/{id}/comments", authed(comments.HandleAdd, httpx.ModerateLimit))
	r.Mux.Handle("PUT /api/tasks/{id}/comments/{commentId}", authed(comments.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /api/tasks/{id}/comments/{commentId}", authed(comments.HandleDelete, httpx.ModerateLimit))

	r.Mux.Handle("POST /api/tasks/{id}/attachments", authed(attachments.HandleUpload, httpx.ModerateLimit))
	r.Mux.Handle("GET /api/tasks/{id}/attachments/{attachmentId}/url", authed(attachments.HandleURL, httpx.LenientLimit))
	r.Mux.Handle("GET /api/tasks/{id}/attachments/{attachmentId}/download", authed(attachments.HandleDownload, httpx.LenientLimit))
	r.Mux.Handle("DELETE /api/tasks/{id}/attachments/{attachmentId}", authed(attachments.HandleDelete, httpx.ModerateLimit))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService, DevMode: r.devMode}

	authed := func(next http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(limit),
		)
	}
	admin := func(next http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAdmin(),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("GET /api/users", admin(h.HandleList, httpx.ModerateLimit))
	r.Mux.Handle("GET /api/users/assignable", authed(h.HandleAssignable, httpx.LenientLimit))
	// self-or-admin check happens in the handler
	r.Mux.Handle("GET /api/users/{id}", authed(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PUT /api/users/{id}", admin(h.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /api/users/{id}", admin(h.HandleDelete, httpx.ModerateLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /api",
		httpx.Chain(IndexHandler(r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		))
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		))
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		))

	// Attachment downloads are served straight off the blob root.
	r.Mux.Handle("GET /uploads/",
		httpx.Chain(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(r.uploadDir))),
			httpx.RateLimitByIP(httpx.LenientLimit),
		))
}
