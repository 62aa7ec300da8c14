// Package api is the HTTP and websocket surface of the server.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/pongsakornd/comic-secretary/internal/blob"
	"github.com/pongsakornd/comic-secretary/internal/chat"
	"github.com/pongsakornd/comic-secretary/internal/config"
	"github.com/pongsakornd/comic-secretary/internal/database"
	"github.com/pongsakornd/comic-secretary/internal/hub"
	"github.com/pongsakornd/comic-secretary/internal/jobs"
	"github.com/pongsakornd/comic-secretary/internal/stats"
)

type App struct {
	log            *log.Logger
	db             database.Repository
	mux            *http.Server
	chatSvc        *chat.Service
	jobSvc         *jobs.Service
	roomHub        *hub.Hub
	userHub        *hub.Hub
	blobs          blob.Store
	stats          stats.StatsProvider
	signingKey     []byte
	allowedOrigins []string
}

type Deps struct {
	Logger   *log.Logger
	DB       database.Repository
	ChatSvc  *chat.Service
	JobSvc   *jobs.Service
	RoomHub  *hub.Hub
	UserHub  *hub.Hub
	Blobs    blob.Store
	Stats    stats.StatsProvider
	StatsMux *http.ServeMux
}

func NewApp(cfg *config.Config, d Deps) *App {
	s := &App{
		log:            d.Logger,
		db:             d.DB,
		chatSvc:        d.ChatSvc,
		jobSvc:         d.JobSvc,
		roomHub:        d.RoomHub,
		userHub:        d.UserHub,
		blobs:          d.Blobs,
		stats:          d.Stats,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux := d.StatsMux
	if mux == nil {
		mux = http.NewServeMux()
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)

	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.Handle("GET /api/auth/session", s.authMiddleware(s.session))

	mux.Handle("POST /api/employees", s.employerOnly(s.createEmployee))
	mux.Handle("GET /api/employees", s.employerOnly(s.listEmployees))
	mux.Handle("PUT /api/employees/{id}/telegram", s.employerOnly(s.setEmployeeTelegram))
	mux.Handle("GET /api/employees/{id}/unpaid", s.employerOnly(s.unpaidSummary))
	mux.Handle("POST /api/employees/{id}/payroll", s.employerOnly(s.processPayroll))
	mux.Handle("GET /api/employees/{id}/payroll", s.employerOnly(s.latestPayroll))

	mux.Handle("POST /api/comics", s.employerOnly(s.createComic))
	mux.Handle("GET /api/comics", s.employerOnly(s.listComics))

	mux.Handle("POST /api/jobs", s.employerOnly(s.createJob))
	mux.Handle("GET /api/jobs", s.authMiddleware(s.listJobs))
	mux.Handle("GET /api/jobs/{id}", s.authMiddleware(s.getJob))
	mux.Handle("POST /api/jobs/{id}/complete", s.authMiddleware(s.completeJob))
	mux.Handle("POST /api/jobs/{id}/revision", s.employerOnly(s.requestRevision))
	mux.Handle("POST /api/jobs/{id}/archive", s.employerOnly(s.approveAndArchive))
	mux.Handle("POST /api/jobs/{id}/files", s.employerOnly(s.addSupplementalFile))
	mux.Handle("GET /api/jobs/{id}/files", s.authMiddleware(s.listSupplementalFiles))

	mux.Handle("GET /api/rooms", s.authMiddleware(s.listRooms))
	mux.Handle("POST /api/rooms/general", s.authMiddleware(s.generalRoom))
	mux.Handle("DELETE /api/rooms/{id}", s.authMiddleware(s.deleteRoom))
	mux.Handle("GET /api/rooms/{id}/messages", s.authMiddleware(s.roomHistory))
	mux.Handle("POST /api/rooms/{id}/messages", s.authMiddleware(s.postMessage))
	mux.Handle("DELETE /api/rooms/{id}/messages/{messageId}", s.authMiddleware(s.deleteMessage))
	mux.Handle("POST /api/rooms/{id}/context", s.authMiddleware(s.attachJobContext))
	mux.Handle("POST /api/rooms/{id}/read", s.authMiddleware(s.markRead))

	mux.Handle("POST /api/uploads", s.authMiddleware(s.uploadAttachment))
	mux.Handle("GET /api/files/{key...}", s.authMiddleware(s.downloadFile))

	mux.Handle("POST /api/devices", s.authMiddleware(s.registerDevice))
	mux.Handle("DELETE /api/devices", s.authMiddleware(s.unregisterDevice))

	mux.Handle("GET /ws/rooms/{id}", s.authMiddleware(s.serveChatWs))
	mux.Handle("GET /ws/notifications", s.authMiddleware(s.serveNotifyWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *App) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *App) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
