package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/realmledger/internal/api/handler"
	"github.com/mcoot/realmledger/internal/api/middleware"
	httpmw "github.com/mcoot/realmledger/internal/middleware"
	"github.com/mcoot/realmledger/internal/services/auth"
	"github.com/mcoot/realmledger/internal/services/authz"
	"github.com/mcoot/realmledger/internal/services/credential"
	"github.com/mcoot/realmledger/internal/services/profile"
	"github.com/mcoot/realmledger/internal/services/session"
	"github.com/mcoot/realmledger/internal/services/settlement"
	"github.com/mcoot/realmledger/internal/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	AuthService       *auth.Service
	CredentialService *credential.Service
	Guard             *authz.Guard
	ProfileService    *profile.Service
	SettlementService *settlement.Service
	SessionController *session.Controller
	HubManager        *sse.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	signerHandler := handler.NewSignerHandler(cfg.AuthService)
	profileHandler := handler.NewProfileHandler(cfg.ProfileService, cfg.SettlementService)
	sessionHandler := handler.NewSessionHandler(cfg.SessionController, cfg.Guard, cfg.HubManager)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService, cfg.CredentialService)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(httpmw.Logging(cfg.Logger))

	// Signer routes (no auth required for registering/logging in)
	api.HandleFunc("/signers/register", signerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/signers/login", signerHandler.Login).Methods(http.MethodPost)

	signers := api.PathPrefix("/signers").Subrouter()
	signers.Use(authMiddleware)
	signers.HandleFunc("/me", signerHandler.GetMe).Methods(http.MethodGet)

	// Profile routes
	profiles := api.PathPrefix("/profiles").Subrouter()
	profiles.Use(authMiddleware)
	profiles.Handle("", middleware.SignerOnly(http.HandlerFunc(profileHandler.Create))).Methods(http.MethodPost)
	profiles.HandleFunc("/{owner}", profileHandler.Get).Methods(http.MethodGet)
	profiles.HandleFunc("/{owner}/delegate", profileHandler.Delegate).Methods(http.MethodPost)
	profiles.HandleFunc("/{owner}/settle", profileHandler.Settle).Methods(http.MethodPost)
	profiles.HandleFunc("/{owner}/checkpoint", profileHandler.Checkpoint).Methods(http.MethodPost)
	profiles.HandleFunc("/{owner}/checkpoint", profileHandler.GetCheckpoint).Methods(http.MethodGet)
	profiles.HandleFunc("/{owner}/credentials", profileHandler.IssueCredential).Methods(http.MethodPost)

	// Session routes
	sessions := api.PathPrefix("/sessions").Subrouter()
	sessions.Use(authMiddleware)
	sessions.HandleFunc("/{owner}", sessionHandler.Get).Methods(http.MethodGet)
	sessions.HandleFunc("/{owner}/enter", sessionHandler.Enter).Methods(http.MethodPost)
	sessions.HandleFunc("/{owner}/blocks", sessionHandler.PlaceBlock).Methods(http.MethodPost)
	sessions.HandleFunc("/{owner}/attacks", sessionHandler.Attack).Methods(http.MethodPost)
	sessions.HandleFunc("/{owner}/kills", sessionHandler.KillEntity).Methods(http.MethodPost)
	sessions.HandleFunc("/{owner}/end", sessionHandler.End).Methods(http.MethodPost)
	sessions.HandleFunc("/{owner}/events", sessionHandler.Events).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
