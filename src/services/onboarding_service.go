// backend/src/services/onboarding_service.go
package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/model"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/security/validation"
)

const maxIndustryLength = 100

// BusinessAnswers is the first questionnaire page.
type BusinessAnswers struct {
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
	CountryCode string `json:"country_code"`
}

// FinancialAnswers is the second questionnaire page.
type FinancialAnswers struct {
	BaseCurrency         string `json:"base_currency"`
	FiscalYearStartMonth int    `json:"fiscal_year_start_month"`
	VATRegistered        bool   `json:"vat_registered"`
}

// BankingAnswers links the aggregator customer.
type BankingAnswers struct {
	CustomerID string `json:"customer_id"`
}

// CustomerVerifier confirms an aggregator customer id has banks attached.
type CustomerVerifier interface {
	Banks(ctx context.Context, customerID string) ([]models.Bank, error)
}

// OnboardingService drives the linear questionnaire. Earlier pages may be
// resubmitted at any time; a later page is rejected until its predecessors
// are answered.
type OnboardingService struct {
	db       *sql.DB
	verifier CustomerVerifier
}

func NewOnboardingService(db *sql.DB, verifier CustomerVerifier) *OnboardingService {
	return &OnboardingService{db: db, verifier: verifier}
}

func (s *OnboardingService) Get(userID int64) (*model.Onboarding, error) {
	return model.GetOnboarding(s.db, userID)
}

// Submit validates and stores the answers of one page, advancing the cursor
// when the page is the current one.
func (s *OnboardingService) Submit(ctx context.Context, user *model.User, step model.OnboardingStep, payload []byte) (*model.Onboarding, error) {
	idx := step.Index()
	if idx < 0 || step == model.StepCompleted {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}

	state, err := model.GetOnboarding(s.db, user.ID)
	if err != nil {
		return nil, fmt.Errorf("loading onboarding state: %w", err)
	}
	if idx > state.CurrentStep.Index() {
		return nil, fmt.Errorf("%w: %s requested while on %s", ErrStepOutOfOrder, step, state.CurrentStep)
	}

	var answers interface{}
	switch step {
	case model.StepBusiness:
		answers, err = s.business(user, payload)
	case model.StepFinancials:
		answers, err = s.financials(payload)
	case model.StepBanking:
		answers, err = s.banking(ctx, user, payload)
	}
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("encoding %s answers: %w", step, err)
	}
	state.Answers[step] = encoded

	if step == state.CurrentStep {
		state.CurrentStep = step.Next()
		state.Completed = state.CurrentStep == model.StepCompleted
	}
	if err := state.Save(s.db); err != nil {
		return nil, fmt.Errorf("saving onboarding state: %w", err)
	}

	logger.FromContext(ctx).Info("Onboarding step saved", "step", step, "currentStep", state.CurrentStep, "completed", state.Completed)
	return state, nil
}

func decodeAnswers(payload []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		fe := validation.FieldErrors{}
		fe["body"] = fmt.Sprintf("invalid JSON: %v", err)
		return fe
	}
	return nil
}

func (s *OnboardingService) business(user *model.User, payload []byte) (interface{}, error) {
	var a BusinessAnswers
	if err := decodeAnswers(payload, &a); err != nil {
		return nil, err
	}
	a.CompanyName = validation.SanitizeText(a.CompanyName)
	a.Industry = validation.SanitizeText(a.Industry)
	a.CountryCode = strings.ToUpper(strings.TrimSpace(a.CountryCode))

	fe := validation.FieldErrors{}
	fe.Add("company_name", validation.ValidateRequiredText(a.CompanyName, validation.DefaultMaxStringLength, "company_name"))
	fe.Add("industry", validation.ValidateRequiredText(a.Industry, maxIndustryLength, "industry"))
	fe.Add("country_code", validation.ValidateCountryCode(a.CountryCode))
	if err := fe.Err(); err != nil {
		return nil, err
	}

	if a.CompanyName != user.CompanyName {
		if err := user.UpdateCompanyName(s.db, a.CompanyName); err != nil {
			return nil, fmt.Errorf("updating company name: %w", err)
		}
	}
	return a, nil
}

func (s *OnboardingService) financials(payload []byte) (interface{}, error) {
	var a FinancialAnswers
	if err := decodeAnswers(payload, &a); err != nil {
		return nil, err
	}
	a.BaseCurrency = strings.ToUpper(strings.TrimSpace(a.BaseCurrency))

	fe := validation.FieldErrors{}
	fe.Add("base_currency", validation.ValidateCurrencyCode(a.BaseCurrency))
	fe.Add("fiscal_year_start_month", validation.ValidateIntRange(a.FiscalYearStartMonth, 1, 12, "fiscal_year_start_month"))
	if err := fe.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *OnboardingService) banking(ctx context.Context, user *model.User, payload []byte) (interface{}, error) {
	var a BankingAnswers
	if err := decodeAnswers(payload, &a); err != nil {
		return nil, err
	}
	a.CustomerID = strings.TrimSpace(a.CustomerID)

	fe := validation.FieldErrors{}
	fe.Add("customer_id", validation.ValidateIdentifier(a.CustomerID, validation.MaxCustomerIDLength, "customer_id"))
	if err := fe.Err(); err != nil {
		return nil, err
	}

	// Ownership first, so another tenant's customer is never fetched.
	taken, err := model.CustomerIDInUse(s.db, a.CustomerID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("checking customer link: %w", err)
	}
	if taken {
		logger.FromContext(ctx).Warn("Rejected link to a customer owned by another user")
		return nil, model.ErrCustomerTaken
	}

	if s.verifier != nil {
		if _, err := s.verifier.Banks(ctx, a.CustomerID); err != nil {
			return nil, fmt.Errorf("verifying customer %s: %w", a.CustomerID, err)
		}
	}
	if err := user.SetCustomerID(s.db, a.CustomerID); err != nil {
		return nil, fmt.Errorf("linking customer: %w", err)
	}
	return a, nil
}
