package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/realmledger/internal/api/middleware"
	"github.com/mcoot/realmledger/internal/api/response"
	"github.com/mcoot/realmledger/internal/model"
	"github.com/mcoot/realmledger/internal/services/profile"
	"github.com/mcoot/realmledger/internal/services/settlement"
)

// ProfileHandler handles profile and custody endpoints
type ProfileHandler struct {
	profileService    *profile.Service
	settlementService *settlement.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *profile.Service, settlementService *settlement.Service) *ProfileHandler {
	return &ProfileHandler{
		profileService:    profileService,
		settlementService: settlementService,
	}
}

func ownerVar(r *http.Request) model.OwnerID {
	return model.OwnerID(mux.Vars(r)["owner"])
}

// Create handles POST /api/v1/profiles. The caller's own identity becomes
// the owner.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	owner := model.OwnerID(identity.Signer)

	p, err := h.profileService.CreateProfile(r.Context(), identity.Request(owner))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ProfileFromModel(p))
}

// Get handles GET /api/v1/profiles/{owner}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.profileService.GetProfile(r.Context(), ownerVar(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(p))
}

// Delegate handles POST /api/v1/profiles/{owner}/delegate
func (h *ProfileHandler) Delegate(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	session, err := h.settlementService.Delegate(r.Context(), identity.Request(ownerVar(r)))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}

// Settle handles POST /api/v1/profiles/{owner}/settle
func (h *ProfileHandler) Settle(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	p, err := h.settlementService.UndelegateAndSettle(r.Context(), identity.Request(ownerVar(r)))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(p))
}

// Checkpoint handles POST /api/v1/profiles/{owner}/checkpoint
func (h *ProfileHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	session, err := h.settlementService.CommitCheckpoint(r.Context(), identity.Request(ownerVar(r)))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}

// GetCheckpoint handles GET /api/v1/profiles/{owner}/checkpoint
func (h *ProfileHandler) GetCheckpoint(w http.ResponseWriter, r *http.Request) {
	session, err := h.settlementService.GetCheckpoint(r.Context(), ownerVar(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}

// IssueCredential handles POST /api/v1/profiles/{owner}/credentials
func (h *ProfileHandler) IssueCredential(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	token, cred, err := h.settlementService.IssueCredential(r.Context(), identity.Request(ownerVar(r)))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CredentialResponse{
		Token:      token,
		Credential: response.CredentialFromModel(cred),
	})
}
