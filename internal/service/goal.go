package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/stats"
	"github.com/korusync/korusync/internal/validation"
)

const maxUnitLength = 30

var (
	ErrGoalAlreadyCompleted = errors.New("goal already completed")
	ErrGoalArchived         = errors.New("goal is archived")
	ErrNothingToUndo        = errors.New("goal has no check-ins to undo")
	ErrGoalUnit             = fmt.Errorf("unit is too long (max %d characters)", maxUnitLength)
)

type GoalInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PillarID    *string    `json:"pillar_id"`
	Target      int        `json:"target"`
	Unit        string     `json:"unit"`
	TargetDate  *time.Time `json:"target_date"`
}

// GoalUpdate carries optional changes; nil fields are left alone.
type GoalUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	PillarID    *string    `json:"pillar_id"`
	ClearPillar bool       `json:"clear_pillar"`
	Target      *int       `json:"target"`
	Unit        *string    `json:"unit"`
	Status      *string    `json:"status"`
	TargetDate  *time.Time `json:"target_date"`
}

type CheckInInput struct {
	Amount int    `json:"amount"`
	Note   string `json:"note"`
}

// CheckInResult reports the goal after a check-in and what it earned.
type CheckInResult struct {
	Goal      *model.Goal      `json:"goal"`
	Entry     *model.GoalEntry `json:"entry"`
	Completed bool             `json:"completed"`
	XP        int              `json:"xp"`
	Badges    []string         `json:"badges,omitempty"`
}

type GoalService struct {
	repo         repository.GoalRepository
	entryRepo    repository.GoalEntryRepository
	pillars      *PillarService
	profiles     repository.ProfileRepository
	gamification *GamificationService
	now          func() time.Time
}

func NewGoalService(
	repo repository.GoalRepository,
	entryRepo repository.GoalEntryRepository,
	pillars *PillarService,
	profiles repository.ProfileRepository,
	gamification *GamificationService,
) *GoalService {
	return &GoalService{
		repo:         repo,
		entryRepo:    entryRepo,
		pillars:      pillars,
		profiles:     profiles,
		gamification: gamification,
		now:          time.Now,
	}
}

func (s *GoalService) Create(userID string, in GoalInput) (*model.Goal, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Unit = strings.TrimSpace(in.Unit)

	err := validation.ValidateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	err = validation.ValidateDescription(in.Description)
	if err != nil {
		return nil, err
	}
	err = validation.ValidateGoalTarget(in.Target)
	if err != nil {
		return nil, err
	}
	if len(in.Unit) > maxUnitLength {
		return nil, ErrGoalUnit
	}
	err = s.pillars.ValidateOwnership(userID, in.PillarID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	goal := &model.Goal{
		ID:          uuid.New().String(),
		UserID:      userID,
		PillarID:    emptyToNil(in.PillarID),
		Title:       in.Title,
		Description: in.Description,
		Unit:        in.Unit,
		Target:      in.Target,
		Status:      model.GoalStatusActive,
		TargetDate:  utcPtr(in.TargetDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repo.Create(goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return goal, nil
}

func (s *GoalService) ByID(userID, goalID string) (*model.Goal, error) {
	return s.repo.ByID(userID, goalID)
}

func (s *GoalService) Goals(userID, sortBy string) ([]*model.Goal, error) {
	return s.repo.Goals(userID, sortBy)
}

func (s *GoalService) Active(userID string) ([]*model.Goal, error) {
	return s.repo.Active(userID)
}

func (s *GoalService) GoalWithEntries(userID, goalID string) (*model.Goal, []*model.GoalEntry, error) {
	// Verify ownership
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.entryRepo.Entries(goalID)
	if err != nil {
		return nil, nil, err
	}

	return goal, entries, nil
}

func (s *GoalService) Update(userID, goalID string, in GoalUpdate) (*model.Goal, error) {
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		err = validation.ValidateTitle(title)
		if err != nil {
			return nil, err
		}
		goal.Title = title
	}
	if in.Description != nil {
		err = validation.ValidateDescription(*in.Description)
		if err != nil {
			return nil, err
		}
		goal.Description = *in.Description
	}
	if in.ClearPillar {
		goal.PillarID = nil
	} else if in.PillarID != nil {
		err = s.pillars.ValidateOwnership(userID, in.PillarID)
		if err != nil {
			return nil, err
		}
		goal.PillarID = emptyToNil(in.PillarID)
	}
	if in.Unit != nil {
		unit := strings.TrimSpace(*in.Unit)
		if len(unit) > maxUnitLength {
			return nil, ErrGoalUnit
		}
		goal.Unit = unit
	}
	if in.TargetDate != nil {
		goal.TargetDate = utcPtr(in.TargetDate)
	}
	if in.Target != nil {
		err = validation.ValidateGoalTarget(*in.Target)
		if err != nil {
			return nil, err
		}
		goal.Target = *in.Target
	}
	if in.Status != nil {
		err = validation.ValidateGoalStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		goal.Status = *in.Status
	}

	// A changed target can complete or reopen the goal.
	switch {
	case goal.Status == model.GoalStatusActive && goal.Progress >= goal.Target:
		goal.Status = model.GoalStatusCompleted
	case goal.Status == model.GoalStatusCompleted && goal.Progress < goal.Target:
		goal.Status = model.GoalStatusActive
	}

	err = s.repo.Update(goal)
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// CheckIn records progress. Reaching the target completes the goal and
// earns the completion bonus.
func (s *GoalService) CheckIn(userID, goalID string, in CheckInInput) (*CheckInResult, error) {
	// Verify ownership
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	switch goal.Status {
	case model.GoalStatusCompleted:
		return nil, ErrGoalAlreadyCompleted
	case model.GoalStatusArchived:
		return nil, ErrGoalArchived
	}

	if in.Amount == 0 {
		in.Amount = 1
	}
	if in.Amount < 0 {
		return nil, validation.ErrCheckInAmount
	}
	note := strings.TrimSpace(in.Note)
	err = validation.ValidateDescription(note)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry := &model.GoalEntry{
		ID:        uuid.New().String(),
		GoalID:    goal.ID,
		Amount:    in.Amount,
		Note:      note,
		CreatedAt: now,
	}

	goal, completed, err := s.entryRepo.CheckIn(userID, entry)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotActive) {
			return nil, ErrGoalAlreadyCompleted
		}
		return nil, fmt.Errorf("failed to check in: %w", err)
	}

	xp := XPGoalCheckIn
	if completed {
		xp += XPGoalCompleted
		slog.Info("goal completed", "user_id", userID, "goal_id", goalID)
	}

	loc := userLocation(s.profiles, userID)
	_, badges, err := s.gamification.RecordActivity(userID, Activity{
		XP:   xp,
		Date: stats.LocalDate(now, loc),
	})
	if err != nil {
		slog.Error("failed to record goal activity", "error", err, "user_id", userID, "goal_id", goalID)
	}

	return &CheckInResult{Goal: goal, Entry: entry, Completed: completed, XP: xp, Badges: badges}, nil
}

// Undo removes the newest check-in. XP already earned is kept.
func (s *GoalService) Undo(userID, goalID string) (*model.Goal, error) {
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status == model.GoalStatusArchived {
		return nil, ErrGoalArchived
	}

	_, goal, err = s.entryRepo.Undo(userID, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalEntryNotFound) {
			return nil, ErrNothingToUndo
		}
		return nil, err
	}

	return goal, nil
}

func (s *GoalService) Delete(userID, goalID string) error {
	// Verify ownership
	_, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return err
	}

	return s.repo.Delete(userID, goalID)
}
