// backend/src/handlers/auth_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/ledgerview/backend/src/database"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/model"
	"github.com/username/ledgerview/backend/src/security"
	"github.com/username/ledgerview/backend/src/security/validation"
	"github.com/username/ledgerview/backend/src/utils"
)

const maxAuthBodyBytes = 1 << 16

type AuthHandler struct {
	authService *security.AuthService
}

func NewAuthHandler(authService *security.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        *model.User `json:"user"`
}

func (h *AuthHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var req registerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBodyBytes)).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.CompanyName = validation.SanitizeText(req.CompanyName)

	fe := validation.FieldErrors{}
	fe.Add("email", validation.ValidateEmail(req.Email))
	fe.Add("password", validation.ValidatePassword(req.Password))
	fe.Add("company_name", validation.ValidateRequiredText(req.CompanyName, validation.DefaultMaxStringLength, "company_name"))
	if err := fe.Err(); err != nil {
		sendValidationError(w, err)
		return
	}

	hashedPassword, err := h.authService.HashPassword(req.Password)
	if err != nil {
		ctxLogger.Error("Failed to hash password", "error", err)
		utils.SendJSONError(w, "Failed to process registration", http.StatusInternalServerError)
		return
	}

	user := &model.User{
		Email:       req.Email,
		Password:    hashedPassword,
		CompanyName: req.CompanyName,
	}
	if err := user.CreateUser(database.DB); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			utils.SendJSONError(w, "Email address already in use", http.StatusConflict)
			return
		}
		ctxLogger.Error("Failed to create user in DB", "error", err)
		utils.SendJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	ctxLogger.Info("User registered", "userID", user.ID)
	h.issueToken(w, r, user, http.StatusCreated)
}

func (h *AuthHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBodyBytes)).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.SendJSONError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByEmail(database.DB, req.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			ctxLogger.Error("Error loading user for login", "error", err)
			utils.SendJSONError(w, "Failed to process login", http.StatusInternalServerError)
			return
		}
		utils.SendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := user.CheckPassword(req.Password); err != nil {
		ctxLogger.Warn("Login failed: wrong password", "userID", user.ID)
		utils.SendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := user.RecordLogin(database.DB); err != nil {
		ctxLogger.Error("Failed to record login", "userID", user.ID, "error", err)
	}

	ctxLogger.Info("User logged in", "userID", user.ID)
	h.issueToken(w, r, user, http.StatusOK)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, r *http.Request, user *model.User, status int) {
	token, err := h.authService.GenerateToken(strconv.FormatInt(user.ID, 10))
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to generate access token", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, status, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.authService.ExpiresIn().Seconds()),
		User:        user,
	})
}

// GetCurrentUserHandler returns the authenticated user's profile.
func (h *AuthHandler) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}
