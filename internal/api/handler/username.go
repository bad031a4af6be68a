package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mcoot/shatterrealms/internal/api/request"
	"github.com/mcoot/shatterrealms/internal/api/response"
	"github.com/mcoot/shatterrealms/internal/services/moderation"
)

// UsernameHandler serves username checks for clients before they sign up
type UsernameHandler struct{}

// NewUsernameHandler creates a new username handler
func NewUsernameHandler() *UsernameHandler {
	return &UsernameHandler{}
}

// Validate handles POST /api/v1/usernames/validate
func (h *UsernameHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req request.ValidateUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == nil || *req.Username == "" {
		response.JSON(w, http.StatusBadRequest, response.UsernameValidation{
			Valid:  false,
			Reason: "Username is required.",
		})
		return
	}

	err := moderation.ValidateUsername(strings.TrimSpace(*req.Username))
	response.JSON(w, http.StatusOK, response.UsernameValidation{
		Valid:  err == nil,
		Reason: moderation.Reason(err),
	})
}
