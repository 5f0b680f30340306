package model

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// OnboardingStep names one page of the onboarding questionnaire.
type OnboardingStep string

const (
	StepBusiness   OnboardingStep = "business"
	StepFinancials OnboardingStep = "financials"
	StepBanking    OnboardingStep = "banking"
	StepCompleted  OnboardingStep = "completed"
)

// OnboardingSteps lists the questionnaire pages in the order they must be answered.
var OnboardingSteps = []OnboardingStep{StepBusiness, StepFinancials, StepBanking}

// Index is the position of the step in OnboardingSteps; completed sorts last
// and unknown steps return -1.
func (s OnboardingStep) Index() int {
	if s == StepCompleted {
		return len(OnboardingSteps)
	}
	for i, step := range OnboardingSteps {
		if step == s {
			return i
		}
	}
	return -1
}

// Next returns the step following s.
func (s OnboardingStep) Next() OnboardingStep {
	i := s.Index()
	if i < 0 || i+1 >= len(OnboardingSteps) {
		return StepCompleted
	}
	return OnboardingSteps[i+1]
}

// Onboarding is the questionnaire state of one user.
type Onboarding struct {
	UserID      int64                              `json:"-"`
	CurrentStep OnboardingStep                     `json:"current_step"`
	Completed   bool                               `json:"completed"`
	Answers     map[OnboardingStep]json.RawMessage `json:"answers"`
	UpdatedAt   time.Time                          `json:"updated_at"`
}

// GetOnboarding loads the questionnaire state, returning a fresh state at the
// first step when the user has not answered anything yet.
func GetOnboarding(db *sql.DB, userID int64) (*Onboarding, error) {
	row := db.QueryRow(`SELECT current_step, completed, answers, updated_at FROM onboarding WHERE user_id = ?`, userID)

	o := &Onboarding{UserID: userID}
	var answers string
	err := row.Scan(&o.CurrentStep, &o.Completed, &answers, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		o.CurrentStep = OnboardingSteps[0]
		o.Answers = make(map[OnboardingStep]json.RawMessage)
		return o, nil
	}
	if err != nil {
		return nil, err
	}

	o.Answers = make(map[OnboardingStep]json.RawMessage)
	if answers != "" {
		if err := json.Unmarshal([]byte(answers), &o.Answers); err != nil {
			return nil, fmt.Errorf("corrupt onboarding answers for user %d: %w", userID, err)
		}
	}
	return o, nil
}

// Save upserts the questionnaire state.
func (o *Onboarding) Save(db *sql.DB) error {
	answers, err := json.Marshal(o.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode onboarding answers: %w", err)
	}
	o.UpdatedAt = time.Now().UTC()

	query := `
	INSERT INTO onboarding (user_id, current_step, completed, answers, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		current_step = excluded.current_step,
		completed = excluded.completed,
		answers = excluded.answers,
		updated_at = excluded.updated_at`
	_, err = db.Exec(query, o.UserID, string(o.CurrentStep), o.Completed, string(answers), o.UpdatedAt)
	return err
}
