package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/korusync/korusync/internal/metrics"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/stats"
	"github.com/korusync/korusync/internal/validation"
)

const MaxTimeEntryDuration = 24 * time.Hour

var (
	ErrTimerRunning      = errors.New("a timer is already running")
	ErrTimerStopped      = errors.New("timer is already stopped")
	ErrEntryRange        = errors.New("end time must be after start time")
	ErrEntryTooLong      = errors.New("time entries cannot exceed 24 hours")
	ErrEntryInFuture     = errors.New("time entries cannot end in the future")
	ErrListRangeRequired = errors.New("from must be before to")
)

type TimerInput struct {
	PillarID    *string `json:"pillar_id"`
	TaskID      *string `json:"task_id"`
	Description string  `json:"description"`
}

type ManualEntryInput struct {
	TimerInput
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// FocusResult reports a finished entry and what it earned.
type FocusResult struct {
	Entry  *model.TimeEntry `json:"entry"`
	XP     int              `json:"xp"`
	Badges []string         `json:"badges,omitempty"`
}

type TimeEntryService struct {
	repo         repository.TimeEntryRepository
	tasks        repository.TaskRepository
	pillars      *PillarService
	profiles     repository.ProfileRepository
	gamification *GamificationService
	now          func() time.Time
}

func NewTimeEntryService(
	repo repository.TimeEntryRepository,
	tasks repository.TaskRepository,
	pillars *PillarService,
	profiles repository.ProfileRepository,
	gamification *GamificationService,
) *TimeEntryService {
	return &TimeEntryService{
		repo:         repo,
		tasks:        tasks,
		pillars:      pillars,
		profiles:     profiles,
		gamification: gamification,
		now:          time.Now,
	}
}

// Start begins the stopwatch. At most one entry per user may run; the
// partial unique index backs this check against concurrent starts.
func (s *TimeEntryService) Start(userID string, in TimerInput) (*model.TimeEntry, error) {
	_, err := s.repo.Running(userID)
	if err == nil {
		return nil, ErrTimerRunning
	}
	if !errors.Is(err, repository.ErrTimeEntryNotFound) {
		return nil, err
	}

	entry, err := s.newEntry(userID, in)
	if err != nil {
		return nil, err
	}
	entry.StartedAt = entry.CreatedAt

	err = s.repo.Create(entry)
	if err != nil {
		if errors.Is(err, repository.ErrTimerRunning) {
			return nil, ErrTimerRunning
		}
		return nil, fmt.Errorf("failed to start timer: %w", err)
	}

	slog.Debug("timer started", "user_id", userID, "entry_id", entry.ID)
	return entry, nil
}

// Stop ends a running entry and credits its focus time.
func (s *TimeEntryService) Stop(userID, entryID string) (*FocusResult, error) {
	entry, err := s.repo.ByID(userID, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.IsRunning() {
		return nil, ErrTimerStopped
	}

	now := s.now().UTC()
	if now.Before(entry.StartedAt) {
		now = entry.StartedAt
	}
	entry.EndedAt = &now
	entry.DurationSeconds = int(now.Sub(entry.StartedAt) / time.Second)

	err = s.repo.Stop(entry)
	if err != nil {
		if errors.Is(err, repository.ErrTimeEntryNotFound) {
			return nil, ErrTimerStopped
		}
		return nil, fmt.Errorf("failed to stop timer: %w", err)
	}

	return s.credit(entry), nil
}

// Create records a finished session after the fact.
func (s *TimeEntryService) Create(userID string, in ManualEntryInput) (*FocusResult, error) {
	start, end := in.StartedAt.UTC(), in.EndedAt.UTC()
	if !end.After(start) {
		return nil, ErrEntryRange
	}
	if end.Sub(start) > MaxTimeEntryDuration {
		return nil, ErrEntryTooLong
	}
	if end.After(s.now().UTC().Add(time.Minute)) {
		return nil, ErrEntryInFuture
	}

	entry, err := s.newEntry(userID, in.TimerInput)
	if err != nil {
		return nil, err
	}
	entry.StartedAt = start
	entry.EndedAt = &end
	entry.DurationSeconds = int(end.Sub(start) / time.Second)

	err = s.repo.Create(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to create time entry: %w", err)
	}

	return s.credit(entry), nil
}

func (s *TimeEntryService) Running(userID string) (*model.TimeEntry, error) {
	return s.repo.Running(userID)
}

// List returns entries overlapping [from, to).
func (s *TimeEntryService) List(userID string, from, to time.Time) ([]*model.TimeEntry, error) {
	if !from.Before(to) {
		return nil, ErrListRangeRequired
	}
	return s.repo.Between(userID, from, to)
}

// Delete removes an entry. Focus XP already earned is kept.
func (s *TimeEntryService) Delete(userID, entryID string) error {
	return s.repo.Delete(userID, entryID)
}

func (s *TimeEntryService) newEntry(userID string, in TimerInput) (*model.TimeEntry, error) {
	description := strings.TrimSpace(in.Description)
	err := validation.ValidateDescription(description)
	if err != nil {
		return nil, err
	}

	pillarID := emptyToNil(in.PillarID)
	err = s.pillars.ValidateOwnership(userID, pillarID)
	if err != nil {
		return nil, err
	}

	taskID := emptyToNil(in.TaskID)
	if taskID != nil {
		task, err := s.tasks.ByID(userID, *taskID)
		if err != nil {
			return nil, err
		}
		// Focus on a task counts toward the task's pillar unless one was chosen.
		if pillarID == nil {
			pillarID = task.PillarID
		}
	}

	return &model.TimeEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		PillarID:    pillarID,
		TaskID:      taskID,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}, nil
}

// credit awards XP per full focus block, dated by the local day the session ended.
func (s *TimeEntryService) credit(entry *model.TimeEntry) *FocusResult {
	xp := FocusXP(entry.DurationSeconds)
	metrics.AddFocusMinutes(entry.DurationSeconds / 60)

	loc := userLocation(s.profiles, entry.UserID)
	_, badges, err := s.gamification.RecordActivity(entry.UserID, Activity{
		XP:           xp,
		Date:         stats.LocalDate(*entry.EndedAt, loc),
		FocusSeconds: entry.DurationSeconds,
	})
	if err != nil {
		slog.Error("failed to record focus activity", "error", err, "user_id", entry.UserID, "entry_id", entry.ID)
	}

	return &FocusResult{Entry: entry, XP: xp, Badges: badges}
}
