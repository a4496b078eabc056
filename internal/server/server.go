// Package server wires repositories, services, and handlers into the HTTP
// server.
package server

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"my-friends/backend/internal/audit"
	auditrepo "my-friends/backend/internal/audit/repository"
	authhandler "my-friends/backend/internal/auth/handler"
	authservice "my-friends/backend/internal/auth/service"
	"my-friends/backend/internal/config"
	"my-friends/backend/internal/devotp"
	devotphandler "my-friends/backend/internal/devotp/handler"
	healthhandler "my-friends/backend/internal/health/handler"
	"my-friends/backend/internal/otp"
	"my-friends/backend/internal/otp/delivery"
	"my-friends/backend/internal/platform/rbac"
	"my-friends/backend/internal/policy/engine"
	"my-friends/backend/internal/security"
	"my-friends/backend/internal/server/middleware"
	"my-friends/backend/internal/session"
	taskhandler "my-friends/backend/internal/task/handler"
	taskrepo "my-friends/backend/internal/task/repository"
	taskservice "my-friends/backend/internal/task/service"
	userrepo "my-friends/backend/internal/user/repository"
)

// Server is the marketplace HTTP server.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
}

// New builds the server from config. db is required for the postgres
// backend and ignored for the json backend.
func New(cfg *config.Config, db *sql.DB) (*Server, error) {
	users, tasks, audits, err := buildRepositories(cfg, db)
	if err != nil {
		return nil, err
	}

	sender, err := buildSender(cfg)
	if err != nil {
		return nil, err
	}

	evaluator, err := engine.NewOPAEvaluator()
	if err != nil {
		return nil, err
	}

	var devStore devotp.Store
	if cfg.OTPReturnToClient {
		devStore = devotp.NewMemoryStore()
		log.Println("server: dev OTP mode enabled, codes readable at GET /dev/otp")
	}

	secret := cfg.TicketSecret
	if secret == "" {
		secret = randomSecret()
	}

	sessions := session.NewRegistry()
	authSvc := authservice.NewService(
		users,
		sessions,
		otp.NewRegistry(cfg.OTPLifetime()),
		security.NewTicketProvider(secret, cfg.TicketLifetime()),
		sender,
		devStore,
		cfg.OTPLifetime(),
	)
	taskSvc := taskservice.NewService(tasks, rbac.NewGuard(evaluator))
	auditLogger := audit.NewLogger(audits)

	router := gin.Default()

	healthhandler.NewHTTPHandler(map[string]healthhandler.Checker{
		"policy": evaluator,
	}).Register(router)

	api := router.Group("/api")
	api.Use(middleware.Audit(auditLogger))
	authed := router.Group("/api")
	authed.Use(middleware.RequireUser(sessions, users), middleware.Audit(auditLogger))

	authhandler.NewHTTPHandler(authSvc, cfg.CookieTTL()).Register(api, authed)
	taskhandler.NewHTTPHandler(taskSvc).Register(authed)

	if devStore != nil {
		devotphandler.NewHTTPHandler(devStore).Register(router)
	}

	return &Server{cfg: cfg, router: router}, nil
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	log.Printf("server: listening on %s (storage=%s)", s.cfg.HTTPAddr, s.cfg.StorageBackend)
	return s.router.Run(s.cfg.HTTPAddr)
}

func buildRepositories(cfg *config.Config, db *sql.DB) (userrepo.Repository, taskrepo.Repository, auditrepo.Repository, error) {
	switch cfg.StorageBackend {
	case "postgres":
		if db == nil {
			return nil, nil, nil, fmt.Errorf("server: postgres backend requires a database connection")
		}
		return userrepo.NewPostgresRepository(db),
			taskrepo.NewPostgresRepository(db),
			auditrepo.NewPostgresRepository(db),
			nil
	default:
		users, err := userrepo.NewJSONFileRepository(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		tasks, err := taskrepo.NewJSONFileRepository(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		audits, err := auditrepo.NewJSONFileRepository(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return users, tasks, audits, nil
	}
}

func buildSender(cfg *config.Config) (delivery.Sender, error) {
	switch cfg.OTPDelivery {
	case "sms":
		return delivery.NewSMSLocalSender(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender), nil
	case "telegram":
		return delivery.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramChatID)
	default:
		return delivery.NewConsoleSender(), nil
	}
}

func randomSecret() string {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		// crypto/rand failing is unrecoverable for a server that mints
		// session tokens anyway.
		panic(err)
	}
	return hex.EncodeToString(raw)
}
