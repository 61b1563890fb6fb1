// Package prefs persists small local-only preferences. Everything that
// matters lives on the service; this is just enough state to know which
// screen to open on.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const onboardingFile = "onboarding.json"

// OnboardingState records that first-run setup finished and with what
// monthly budget, so the app can open on goals and show the figure without
// a round trip.
type OnboardingState struct {
	Completed          bool   `json:"completed"`
	CompletedAt        string `json:"completed_at,omitempty"`
	MonthlyBudgetCents int64  `json:"monthly_budget_cents,omitempty"`
}

func onboardingPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "nestegg")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, onboardingFile), nil
}

// SaveOnboarding writes the state atomically.
func SaveOnboarding(st OnboardingState) error {
	path, err := onboardingPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadOnboarding returns the stored state, or the zero state when nothing
// was saved yet.
func LoadOnboarding() (OnboardingState, error) {
	path, err := onboardingPath()
	if err != nil {
		return OnboardingState{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return OnboardingState{}, nil
		}
		return OnboardingState{}, err
	}
	var st OnboardingState
	if err := json.Unmarshal(data, &st); err != nil {
		return OnboardingState{}, err
	}
	return st, nil
}

// MarkOnboardingComplete stamps completion with the chosen budget.
func MarkOnboardingComplete(budgetCents int64) error {
	return SaveOnboarding(OnboardingState{
		Completed:          true,
		CompletedAt:        time.Now().UTC().Format(time.RFC3339),
		MonthlyBudgetCents: budgetCents,
	})
}
