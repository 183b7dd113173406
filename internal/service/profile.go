package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/validation"
)

const maxWeeklyFocusGoalMinutes = 7 * 24 * 60

var (
	ErrThemeInvalid          = errors.New("theme must be system, light or dark")
	ErrWeeklyFocusGoal       = fmt.Errorf("weekly focus goal must be between 0 and %d minutes", maxWeeklyFocusGoalMinutes)
	ErrUsernameChangeInvalid = errors.New("username cannot be cleared")
)

// ProfileUpdate carries optional changes; nil fields are left alone.
type ProfileUpdate struct {
	FullName *string `json:"full_name"`
	Username *string `json:"username"`
	Timezone *string `json:"timezone"`
}

// PreferencesUpdate carries optional changes; nil fields are left alone.
type PreferencesUpdate struct {
	Theme                  *string `json:"theme"`
	WeeklyFocusGoalMinutes *int    `json:"weekly_focus_goal_minutes"`
	EmailNotifications     *bool   `json:"email_notifications"`
}

type ProfileService struct {
	profileRepo     repository.ProfileRepository
	preferencesRepo repository.PreferencesRepository
}

func NewProfileService(profileRepo repository.ProfileRepository, preferencesRepo repository.PreferencesRepository) *ProfileService {
	return &ProfileService{
		profileRepo:     profileRepo,
		preferencesRepo: preferencesRepo,
	}
}

func (s *ProfileService) ByUserID(userID string) (*model.Profile, error) {
	return s.profileRepo.ByUserID(userID)
}

func (s *ProfileService) Preferences(userID string) (*model.Preferences, error) {
	return s.preferencesRepo.ByUserID(userID)
}

func (s *ProfileService) Update(userID string, in ProfileUpdate) (*model.Profile, error) {
	profile, err := s.profileRepo.ByUserID(userID)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		err = validation.ValidateFullName(*in.FullName)
		if err != nil {
			return nil, err
		}
		profile.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Username != nil {
		username := validation.NormalizeUsername(*in.Username)
		if username == "" {
			return nil, ErrUsernameChangeInvalid
		}
		err = validation.ValidateUsername(username)
		if err != nil {
			return nil, err
		}
		profile.Username = &username
	}
	if in.Timezone != nil {
		err = validation.ValidateTimezone(*in.Timezone)
		if err != nil {
			return nil, err
		}
		profile.Timezone = *in.Timezone
	}

	err = s.profileRepo.Update(profile)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) UpdatePreferences(userID string, in PreferencesUpdate) (*model.Preferences, error) {
	prefs, err := s.preferencesRepo.ByUserID(userID)
	if err != nil {
		return nil, err
	}

	if in.Theme != nil {
		switch *in.Theme {
		case model.ThemeSystem, model.ThemeLight, model.ThemeDark:
			prefs.Theme = *in.Theme
		default:
			return nil, ErrThemeInvalid
		}
	}
	if in.WeeklyFocusGoalMinutes != nil {
		m := *in.WeeklyFocusGoalMinutes
		if m < 0 || m > maxWeeklyFocusGoalMinutes {
			return nil, ErrWeeklyFocusGoal
		}
		prefs.WeeklyFocusGoalMinutes = m
	}
	if in.EmailNotifications != nil {
		prefs.EmailNotifications = *in.EmailNotifications
	}

	err = s.preferencesRepo.Update(prefs)
	if err != nil {
		return nil, err
	}
	return prefs, nil
}
