package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/request"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/response"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/kinvo"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/service"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/validation"
)

// LoginVerifier signs in to Kinvo with the current credentials.
type LoginVerifier interface {
	Login(ctx context.Context) error
}

// CredentialHandler handles storing and removing the Kinvo credentials
type CredentialHandler struct {
	credentialService *service.CredentialService
	verifier          LoginVerifier
}

// NewCredentialHandler creates a new CredentialHandler. verifier is used to
// check new credentials against Kinvo and may be nil to skip the check.
func NewCredentialHandler(credentialService *service.CredentialService, verifier LoginVerifier) *CredentialHandler {
	return &CredentialHandler{
		credentialService: credentialService,
		verifier:          verifier,
	}
}

// CredentialsResponse confirms which account is stored. The password is never returned.
type CredentialsResponse struct {
	Email string `json:"email"`
}

// Put handles PUT requests to store the Kinvo credentials.
//
// The credentials are stored, then verified by signing in. Credentials Kinvo
// rejects are removed again.
//
// Endpoint: PUT /api/credentials
// Request body: request.CredentialsRequest
// Response: 200 OK with CredentialsResponse
// Error: 400 invalid body, 502 Kinvo rejected the credentials,
// 500 when no CREDENTIAL_KEY is configured
func (h *CredentialHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req request.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCredentials(req); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
			return
		}
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	creds := kinvo.Credentials{Email: req.Email, Password: req.Password}
	if err := h.credentialService.Save(r.Context(), creds); err != nil {
		response.RespondServiceError(w, apperrors.ErrFailedToSaveCredentials.Error(), err)
		return
	}

	if h.verifier != nil {
		if err := h.verifier.Login(r.Context()); err != nil {
			if derr := h.credentialService.Delete(context.WithoutCancel(r.Context())); derr != nil {
				slog.ErrorContext(r.Context(), "failed to remove rejected credentials", "error", derr)
			}
			response.RespondServiceError(w, apperrors.ErrFailedToSaveCredentials.Error(), err)
			return
		}
	}

	stored, err := h.credentialService.Load(r.Context())
	if err != nil {
		response.RespondServiceError(w, apperrors.ErrFailedToSaveCredentials.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, CredentialsResponse{Email: stored.Email})
}

// Delete handles DELETE requests to remove the stored credentials.
//
// Endpoint: DELETE /api/credentials
// Response: 204 No Content
func (h *CredentialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.credentialService.Delete(r.Context()); err != nil {
		response.RespondServiceError(w, apperrors.ErrFailedToDeleteCredentials.Error(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
