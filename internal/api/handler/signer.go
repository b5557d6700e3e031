package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/realmledger/internal/api/middleware"
	"github.com/mcoot/realmledger/internal/api/request"
	"github.com/mcoot/realmledger/internal/api/response"
	"github.com/mcoot/realmledger/internal/services/auth"
)

// SignerHandler handles signer registration and login
type SignerHandler struct {
	authService *auth.Service
}

// NewSignerHandler creates a new signer handler
func NewSignerHandler(authService *auth.Service) *SignerHandler {
	return &SignerHandler{
		authService: authService,
	}
}

// Register handles POST /api/v1/signers/register
func (h *SignerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session))
}

// Login handles POST /api/v1/signers/login
func (h *SignerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// GetMe handles GET /api/v1/signers/me
func (h *SignerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	me := response.Me{Signer: string(identity.Signer)}
	if identity.Session != nil {
		me.Username = identity.Session.Signer.Username
		me.Owner = string(identity.Session.Signer.Owner())
	}
	if identity.Credential != nil {
		cred := response.CredentialFromModel(identity.Credential)
		me.Owner = cred.Owner
		me.Credential = &cred
	}

	response.JSON(w, http.StatusOK, me)
}
