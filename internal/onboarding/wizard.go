// Package onboarding models the five-step setup wizard a verified user
// completes before reaching the dashboard.
package onboarding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/korusync/korusync/internal/validation"
)

type Step int

const (
	Welcome Step = iota
	Username
	Timezone
	Pillars
	Intro
)

var stepNames = [...]string{"welcome", "username", "timezone", "pillars", "intro"}

var ErrUnknownStep = errors.New("unknown onboarding step")

func (s Step) String() string {
	if s < Welcome || s > Intro {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if strings.EqualFold(name, n) {
			return Step(i), nil
		}
	}
	return Welcome, fmt.Errorf("%w: %q", ErrUnknownStep, name)
}

// Next returns the following step; Intro is terminal.
func (s Step) Next() Step {
	if s >= Intro {
		return Intro
	}
	return s + 1
}

// Prev returns the preceding step; Welcome is the floor.
func (s Step) Prev() Step {
	if s <= Welcome {
		return Welcome
	}
	return s - 1
}

// Submission is everything the final step writes.
type Submission struct {
	Username string                   `json:"username"`
	FullName string                   `json:"full_name"`
	Timezone string                   `json:"timezone"`
	Pillars  []validation.PillarInput `json:"pillars"`
}

// Normalize trims inputs and lower-cases the username.
func (s *Submission) Normalize() {
	s.Username = validation.NormalizeUsername(s.Username)
	s.FullName = strings.TrimSpace(s.FullName)
	s.Timezone = strings.TrimSpace(s.Timezone)
	for i := range s.Pillars {
		s.Pillars[i].Name = strings.TrimSpace(s.Pillars[i].Name)
		s.Pillars[i].Color = strings.TrimSpace(s.Pillars[i].Color)
	}
}

// Validate checks every step's input. Call Normalize first.
func (s *Submission) Validate() error {
	err := validation.ValidateUsername(s.Username)
	if err != nil {
		return err
	}
	err = validation.ValidateFullName(s.FullName)
	if err != nil {
		return err
	}
	err = validation.ValidateTimezone(s.Timezone)
	if err != nil {
		return err
	}
	return validation.ValidatePillars(s.Pillars)
}

// Wizard tracks progress through the steps. Advance validates only the
// input belonging to the current step.
type Wizard struct {
	Step       Step
	Submission Submission
}

func NewWizard(defaultTimezone string) *Wizard {
	return &Wizard{Submission: Submission{Timezone: defaultTimezone}}
}

// Advance merges input for the current step and moves forward. On error the
// wizard stays where it is.
func (w *Wizard) Advance(input Submission) error {
	input.Normalize()

	switch w.Step {
	case Username:
		err := validation.ValidateUsername(input.Username)
		if err != nil {
			return err
		}
		err = validation.ValidateFullName(input.FullName)
		if err != nil {
			return err
		}
		w.Submission.Username = input.Username
		w.Submission.FullName = input.FullName
	case Timezone:
		err := validation.ValidateTimezone(input.Timezone)
		if err != nil {
			return err
		}
		w.Submission.Timezone = input.Timezone
	case Pillars:
		err := validation.ValidatePillars(input.Pillars)
		if err != nil {
			return err
		}
		w.Submission.Pillars = input.Pillars
	}

	w.Step = w.Step.Next()
	return nil
}

func (w *Wizard) Back() {
	w.Step = w.Step.Prev()
}

// Ready reports whether the wizard reached the last step with valid data.
func (w *Wizard) Ready() bool {
	return w.Step == Intro && w.Submission.Validate() == nil
}

// Replay walks a fresh wizard through every step up to and including
// through, feeding each the same submission. It stops at the first step
// whose input is invalid and returns that error with the wizard left on it.
func Replay(sub Submission, through Step) (*Wizard, error) {
	w := NewWizard("UTC")
	for {
		err := w.Advance(sub)
		if err != nil {
			return w, err
		}
		if w.Step > through || w.Step == Intro {
			return w, nil
		}
	}
}
