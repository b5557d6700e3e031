package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/realmledger/internal/api/middleware"
	"github.com/mcoot/realmledger/internal/api/request"
	"github.com/mcoot/realmledger/internal/api/response"
	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/services/authz"
	"github.com/mcoot/realmledger/internal/services/session"
	"github.com/mcoot/realmledger/internal/sse"
)

// SessionHandler handles hot-path session endpoints
type SessionHandler struct {
	controller *session.Controller
	guard      *authz.Guard
	hubManager *sse.HubManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(controller *session.Controller, guard *authz.Guard, hubManager *sse.HubManager) *SessionHandler {
	return &SessionHandler{
		controller: controller,
		guard:      guard,
		hubManager: hubManager,
	}
}

// Get handles GET /api/v1/sessions/{owner}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.controller.GetSession(r.Context(), ownerVar(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(s))
}

// Enter handles POST /api/v1/sessions/{owner}/enter
func (h *SessionHandler) Enter(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.EnterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	s, err := h.controller.Enter(r.Context(), identity.Request(ownerVar(r)), req.Realm)
	h.writeSession(w, s, err)
}

// PlaceBlock handles POST /api/v1/sessions/{owner}/blocks
func (h *SessionHandler) PlaceBlock(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.PlaceBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	s, err := h.controller.PlaceBlock(r.Context(), identity.Request(ownerVar(r)), req.BlockType)
	h.writeSession(w, s, err)
}

// Attack handles POST /api/v1/sessions/{owner}/attacks
func (h *SessionHandler) Attack(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.AttackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body (damage must be 0-255)"))
		return
	}

	s, err := h.controller.Attack(r.Context(), identity.Request(ownerVar(r)), req.TargetType, req.Damage)
	h.writeSession(w, s, err)
}

// KillEntity handles POST /api/v1/sessions/{owner}/kills
func (h *SessionHandler) KillEntity(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.KillEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	s, err := h.controller.KillEntity(r.Context(), identity.Request(ownerVar(r)), req.EntityType, req.ScoreReward)
	h.writeSession(w, s, err)
}

// End handles POST /api/v1/sessions/{owner}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	s, err := h.controller.EndGame(r.Context(), identity.Request(ownerVar(r)))
	h.writeSession(w, s, err)
}

// Events handles GET /api/v1/sessions/{owner}/events as a server-sent
// event stream
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	owner := ownerVar(r)

	if err := h.guard.Authorize(authz.OpWatchEvents, identity.Request(owner)); err != nil {
		WriteError(w, err)
		return
	}
	if _, err := h.controller.GetSession(r.Context(), owner); err != nil {
		WriteError(w, err)
		return
	}

	hub := h.hubManager.GetOrCreateHub(owner)
	sse.ServeSSE(w, r, hub, identity.Signer)
}

func (h *SessionHandler) writeSession(w http.ResponseWriter, s *model.GameSession, err error) {
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromModel(s))
}
