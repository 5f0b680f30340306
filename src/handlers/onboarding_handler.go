// backend/src/handlers/onboarding_handler.go
package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/model"
	"github.com/username/ledgerview/backend/src/services"
	"github.com/username/ledgerview/backend/src/utils"
)

const maxOnboardingBodyBytes = 1 << 16

type OnboardingHandler struct {
	onboarding *services.OnboardingService
}

func NewOnboardingHandler(onboarding *services.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboarding: onboarding}
}

type onboardingResponse struct {
	*model.Onboarding
	Steps []model.OnboardingStep `json:"steps"`
}

func (h *OnboardingHandler) HandleGetOnboarding(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	state, err := h.onboarding.Get(userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to load onboarding state", "error", err)
		utils.SendJSONError(w, "Failed to load onboarding state", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, onboardingResponse{Onboarding: state, Steps: model.OnboardingSteps})
}

func (h *OnboardingHandler) HandleSubmitStep(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxOnboardingBodyBytes))
	if err != nil {
		utils.SendJSONError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	step := model.OnboardingStep(chi.URLParam(r, "step"))
	state, err := h.onboarding.Submit(r.Context(), user, step, payload)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, onboardingResponse{Onboarding: state, Steps: model.OnboardingSteps})
}
