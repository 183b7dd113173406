package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/korusync/korusync/internal/metrics"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/onboarding"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/validation"
)

var (
	ErrUsernameTaken       = errors.New("username is already taken")
	ErrOnboardingCompleted = errors.New("onboarding is already completed")
)

// Suggestions feed the client-side wizard.
type Suggestions struct {
	Steps    []string                 `json:"steps"`
	Pillars  []validation.PillarInput `json:"pillars"`
	Palette  []string                 `json:"palette"`
	Timezone []string                 `json:"timezones"`
}

// OnboardingState is what the wizard needs to resume.
type OnboardingState struct {
	Completed bool            `json:"completed"`
	Profile   *model.Profile  `json:"profile"`
	Pillars   []*model.Pillar `json:"pillars"`
}

type OnboardingService struct {
	onboardingRepo  repository.OnboardingRepository
	profileRepo     repository.ProfileRepository
	preferencesRepo repository.PreferencesRepository
	pillarRepo      repository.PillarRepository
	userRepo        repository.UserRepository
	emailService    *EmailService
}

func NewOnboardingService(
	onboardingRepo repository.OnboardingRepository,
	profileRepo repository.ProfileRepository,
	preferencesRepo repository.PreferencesRepository,
	pillarRepo repository.PillarRepository,
	userRepo repository.UserRepository,
	emailService *EmailService,
) *OnboardingService {
	return &OnboardingService{
		onboardingRepo:  onboardingRepo,
		profileRepo:     profileRepo,
		preferencesRepo: preferencesRepo,
		pillarRepo:      pillarRepo,
		userRepo:        userRepo,
		emailService:    emailService,
	}
}

func (s *OnboardingService) State(userID string) (*OnboardingState, error) {
	prefs, err := s.preferencesRepo.ByUserID(userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.ByUserID(userID)
	if err != nil {
		return nil, err
	}
	pillars, err := s.pillarRepo.Pillars(userID)
	if err != nil {
		return nil, err
	}
	return &OnboardingState{Completed: prefs.OnboardingCompleted, Profile: profile, Pillars: pillars}, nil
}

// Complete validates every step, then writes the profile, the onboarding
// flag and the pillars in one transaction. The welcome email is best effort.
func (s *OnboardingService) Complete(userID string, sub onboarding.Submission) (*model.Profile, []*model.Pillar, error) {
	wizard, err := onboarding.Replay(sub, onboarding.Intro)
	if err != nil {
		return nil, nil, err
	}
	sub = wizard.Submission

	prefs, err := s.preferencesRepo.ByUserID(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	if prefs.OnboardingCompleted {
		return nil, nil, ErrOnboardingCompleted
	}

	profile, err := s.profileRepo.ByUserID(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get profile: %w", err)
	}

	username := sub.Username
	profile.Username = &username
	profile.FullName = sub.FullName
	profile.Timezone = sub.Timezone

	pillars := BuildPillars(userID, sub.Pillars, time.Now().UTC())

	err = s.onboardingRepo.Complete(profile, prefs, pillars)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, nil, ErrUsernameTaken
		}
		return nil, nil, fmt.Errorf("failed to complete onboarding: %w", err)
	}

	metrics.IncrementOnboardingCompleted()
	slog.Info("onboarding completed", "user_id", userID, "pillars", len(pillars))

	user, err := s.userRepo.ByID(userID)
	if err != nil {
		slog.Warn("failed to load user for welcome email", "error", err, "user_id", userID)
	} else {
		err = s.emailService.SendWelcomeEmail(user.Email, profile.FullName)
		if err != nil {
			slog.Warn("failed to send welcome email", "error", err, "user_id", userID)
		}
	}

	// Re-read so upserted pillars carry their stored IDs.
	stored, err := s.pillarRepo.Pillars(userID)
	if err != nil {
		return profile, pillars, nil
	}
	return profile, stored, nil
}

// StepResult tells the client where the wizard goes after a checked step.
type StepResult struct {
	Step       string                `json:"step"`
	Next       string                `json:"next"`
	Previous   string                `json:"previous"`
	Ready      bool                  `json:"ready"`
	Submission onboarding.Submission `json:"submission"`
}

// CheckStep validates the answers collected so far, up to and including
// the named step, without writing anything. sub carries every earlier
// step's answers as well. A taken username fails the username step.
func (s *OnboardingService) CheckStep(userID, stepName string, sub onboarding.Submission) (*StepResult, error) {
	step, err := onboarding.ParseStep(stepName)
	if err != nil {
		return nil, err
	}

	prefs, err := s.preferencesRepo.ByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	if prefs.OnboardingCompleted {
		return nil, ErrOnboardingCompleted
	}

	wizard, err := onboarding.Replay(sub, step)
	if err != nil {
		return nil, err
	}

	if step >= onboarding.Username {
		available, err := s.UsernameAvailable(userID, wizard.Submission.Username)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, ErrUsernameTaken
		}
	}

	result := &StepResult{
		Step:       step.String(),
		Next:       wizard.Step.String(),
		Ready:      wizard.Ready(),
		Submission: wizard.Submission,
	}
	wizard.Back()
	result.Previous = wizard.Step.String()
	return result, nil
}

// UsernameAvailable reports whether a username is valid and unclaimed.
// The caller's own username counts as available.
func (s *OnboardingService) UsernameAvailable(userID, username string) (bool, error) {
	username = validation.NormalizeUsername(username)
	err := validation.ValidateUsername(username)
	if err != nil {
		return false, err
	}

	profile, err := s.profileRepo.ByUsername(username)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return true, nil
		}
		return false, err
	}
	return profile.UserID == userID, nil
}

func (s *OnboardingService) Suggestions() Suggestions {
	steps := make([]string, 0, onboarding.Intro+1)
	for step := onboarding.Welcome; step <= onboarding.Intro; step++ {
		steps = append(steps, step.String())
	}
	return Suggestions{
		Steps:    steps,
		Pillars:  onboarding.SuggestedPillars,
		Palette:  onboarding.Palette,
		Timezone: onboarding.Timezones,
	}
}
