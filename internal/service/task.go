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

var (
	ErrTaskAlreadyDone = errors.New("task is already completed")
	ErrTaskNotDone     = errors.New("task is not completed")
)

type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PillarID    *string    `json:"pillar_id"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// TaskUpdate carries optional changes; nil fields are left alone. Setting
// ClearPillar or ClearDueDate unlinks the field.
type TaskUpdate struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	PillarID     *string    `json:"pillar_id"`
	ClearPillar  bool       `json:"clear_pillar"`
	Priority     *string    `json:"priority"`
	Status       *string    `json:"status"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

// TaskCompletion reports what completing a task earned.
type TaskCompletion struct {
	Task   *model.Task `json:"task"`
	XP     int         `json:"xp"`
	Badges []string    `json:"badges,omitempty"`
}

type TaskService struct {
	repo         repository.TaskRepository
	pillars      *PillarService
	profiles     repository.ProfileRepository
	gamification *GamificationService
	now          func() time.Time
}

func NewTaskService(
	repo repository.TaskRepository,
	pillars *PillarService,
	profiles repository.ProfileRepository,
	gamification *GamificationService,
) *TaskService {
	return &TaskService{
		repo:         repo,
		pillars:      pillars,
		profiles:     profiles,
		gamification: gamification,
		now:          time.Now,
	}
}

func (s *TaskService) Tasks(userID string, filter model.TaskFilter) ([]*model.Task, error) {
	if filter.Status != "" {
		err := validation.ValidateTaskStatus(filter.Status)
		if err != nil {
			return nil, err
		}
	}
	return s.repo.Tasks(userID, filter)
}

func (s *TaskService) ByID(userID, taskID string) (*model.Task, error) {
	return s.repo.ByID(userID, taskID)
}

func (s *TaskService) Create(userID string, in TaskInput) (*model.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Priority == "" {
		in.Priority = model.TaskPriorityMedium
	}

	err := validation.ValidateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	err = validation.ValidateDescription(in.Description)
	if err != nil {
		return nil, err
	}
	err = validation.ValidateTaskPriority(in.Priority)
	if err != nil {
		return nil, err
	}
	err = s.pillars.ValidateOwnership(userID, in.PillarID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task := &model.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		PillarID:    emptyToNil(in.PillarID),
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      model.TaskStatusTodo,
		DueDate:     utcPtr(in.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repo.Create(task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// Update applies field changes. A status change to or from done goes
// through Complete or Reopen.
func (s *TaskService) Update(userID, taskID string, in TaskUpdate) (*model.Task, error) {
	task, err := s.repo.ByID(userID, taskID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		err = validation.ValidateTitle(title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if in.Description != nil {
		err = validation.ValidateDescription(*in.Description)
		if err != nil {
			return nil, err
		}
		task.Description = *in.Description
	}
	if in.ClearPillar {
		task.PillarID = nil
	} else if in.PillarID != nil {
		err = s.pillars.ValidateOwnership(userID, in.PillarID)
		if err != nil {
			return nil, err
		}
		task.PillarID = emptyToNil(in.PillarID)
	}
	if in.Priority != nil {
		err = validation.ValidateTaskPriority(*in.Priority)
		if err != nil {
			return nil, err
		}
		task.Priority = *in.Priority
	}
	if in.ClearDueDate {
		task.DueDate = nil
	} else if in.DueDate != nil {
		task.DueDate = utcPtr(in.DueDate)
	}

	status := task.Status
	if in.Status != nil {
		err = validation.ValidateTaskStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		status = *in.Status
	}

	switch {
	case status == model.TaskStatusDone && !task.IsDone():
		err = s.repo.Update(task)
		if err != nil {
			return nil, err
		}
		completion, err := s.Complete(userID, taskID)
		if err != nil {
			return nil, err
		}
		return completion.Task, nil
	case status != model.TaskStatusDone && task.IsDone():
		task.Status = status
		task.CompletedAt = nil
	default:
		task.Status = status
	}

	err = s.repo.Update(task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Complete marks the task done and credits XP by priority to the user's
// stats for today's local date.
func (s *TaskService) Complete(userID, taskID string) (*TaskCompletion, error) {
	task, err := s.repo.ByID(userID, taskID)
	if err != nil {
		return nil, err
	}
	if task.IsDone() {
		return nil, ErrTaskAlreadyDone
	}

	now := s.now().UTC()
	task.Status = model.TaskStatusDone
	task.CompletedAt = &now

	err = s.repo.Update(task)
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	xp := TaskXP(task.Priority)
	loc := userLocation(s.profiles, userID)
	_, badges, err := s.gamification.RecordActivity(userID, Activity{
		XP:             xp,
		Date:           stats.LocalDate(now, loc),
		TasksCompleted: 1,
	})
	if err != nil {
		slog.Error("failed to record task activity", "error", err, "user_id", userID, "task_id", taskID)
	}

	return &TaskCompletion{Task: task, XP: xp, Badges: badges}, nil
}

// Reopen moves a done task back to todo. XP already earned is kept.
func (s *TaskService) Reopen(userID, taskID string) (*model.Task, error) {
	task, err := s.repo.ByID(userID, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsDone() {
		return nil, ErrTaskNotDone
	}

	task.Status = model.TaskStatusTodo
	task.CompletedAt = nil

	err = s.repo.Update(task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Delete(userID, taskID string) error {
	return s.repo.Delete(userID, taskID)
}

// userLocation resolves the user's timezone, falling back to UTC.
func userLocation(profiles repository.ProfileRepository, userID string) *time.Location {
	profile, err := profiles.ByUserID(userID)
	if err != nil {
		slog.Warn("failed to load profile timezone, using UTC", "error", err, "user_id", userID)
		return time.UTC
	}
	return profile.Location()
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
