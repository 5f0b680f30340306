package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/username/ledgerview/backend/src/database"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/model"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/security/validation"
	"github.com/username/ledgerview/backend/src/services"
	"github.com/username/ledgerview/backend/src/utils"
)

// currentUser loads the authenticated user, writing the error response itself
// when it cannot.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return nil, false
	}
	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "User not found", http.StatusUnauthorized)
			return nil, false
		}
		logger.FromContext(r.Context()).Error("Failed to load user", "error", err)
		utils.SendJSONError(w, "Failed to load user", http.StatusInternalServerError)
		return nil, false
	}
	return user, true
}

// bankFilter reads the optional bank_id query parameter. Empty and "all"
// select every bank.
func bankFilter(w http.ResponseWriter, r *http.Request) (string, bool) {
	bankID := strings.TrimSpace(r.URL.Query().Get("bank_id"))
	if bankID == "" || bankID == models.AllBanks {
		return bankID, true
	}
	fe := validation.FieldErrors{}
	fe.Add("bank_id", validation.ValidateIdentifier(bankID, validation.DefaultMaxStringLength, "bank_id"))
	if err := fe.Err(); err != nil {
		sendValidationError(w, err)
		return "", false
	}
	return bankID, true
}

func sendValidationError(w http.ResponseWriter, err error) {
	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	utils.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  validation.ErrValidationFailed.Error(),
		"fields": fe,
	})
}

// sendServiceError maps service sentinel errors to HTTP statuses.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctxLogger := logger.FromContext(r.Context())
	switch {
	case errors.Is(err, validation.ErrValidationFailed):
		sendValidationError(w, err)
	case errors.Is(err, services.ErrNoCustomer):
		utils.SendJSONError(w, "Link a bank customer before requesting financial data", http.StatusPreconditionFailed)
	case errors.Is(err, services.ErrStepOutOfOrder):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, model.ErrCustomerTaken):
		utils.SendJSONError(w, "This bank customer is already linked to another account", http.StatusConflict)
	case errors.Is(err, services.ErrUnknownStep), errors.Is(err, services.ErrUnknownReport), errors.Is(err, services.ErrUnknownBank):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrUpstream):
		ctxLogger.Error("Bank aggregator request failed", "error", err)
		utils.SendJSONError(w, "Your bank data is temporarily unavailable. Please try again shortly.", http.StatusBadGateway)
	default:
		ctxLogger.Error("Unhandled service error", "error", err)
		utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}
