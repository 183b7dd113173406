package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/onboarding"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/validation"
)

var ErrPillarLimitReached = fmt.Errorf("a user can have at most %d pillars", validation.MaxPillars)

// PillarSlug is the stored slug for a pillar name. Names with no
// sluggable characters get a random one.
func PillarSlug(name string) string {
	s := validation.PillarSlug(name)
	if s == "" {
		s = "pillar-" + uuid.New().String()[:8]
	}
	return s
}

// BuildPillars turns validated inputs into pillar rows, assigning palette
// colours where none was chosen.
func BuildPillars(userID string, inputs []validation.PillarInput, now time.Time) []*model.Pillar {
	pillars := make([]*model.Pillar, 0, len(inputs))
	for i, in := range inputs {
		color := in.Color
		if color == "" {
			color = onboarding.Palette[i%len(onboarding.Palette)]
		}
		name := validation.NormalizePillarName(in.Name)
		pillars = append(pillars, &model.Pillar{
			ID:        uuid.New().String(),
			UserID:    userID,
			Name:      name,
			Slug:      PillarSlug(name),
			Color:     strings.ToUpper(color),
			SortOrder: i,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return pillars
}

type PillarService struct {
	repo repository.PillarRepository
}

func NewPillarService(repo repository.PillarRepository) *PillarService {
	return &PillarService{repo: repo}
}

func (s *PillarService) Pillars(userID string) ([]*model.Pillar, error) {
	return s.repo.Pillars(userID)
}

func (s *PillarService) ByID(userID, pillarID string) (*model.Pillar, error) {
	return s.repo.ByID(userID, pillarID)
}

func (s *PillarService) Create(userID string, input validation.PillarInput) (*model.Pillar, error) {
	err := validation.ValidatePillarName(input.Name)
	if err != nil {
		return nil, err
	}
	err = validation.ValidateColor(input.Color)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.Count(userID)
	if err != nil {
		return nil, err
	}
	if count >= validation.MaxPillars {
		return nil, ErrPillarLimitReached
	}

	pillar := BuildPillars(userID, []validation.PillarInput{input}, time.Now().UTC())[0]
	if input.Color == "" {
		pillar.Color = onboarding.Palette[count%len(onboarding.Palette)]
	}
	pillar.SortOrder = count

	err = s.repo.Create(pillar)
	if err != nil {
		return nil, err
	}
	return pillar, nil
}

// PillarUpdate carries optional changes; nil fields are left alone.
type PillarUpdate struct {
	Name      *string `json:"name"`
	Color     *string `json:"color"`
	SortOrder *int    `json:"sort_order"`
}

func (s *PillarService) Update(userID, pillarID string, in PillarUpdate) (*model.Pillar, error) {
	pillar, err := s.repo.ByID(userID, pillarID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		err = validation.ValidatePillarName(*in.Name)
		if err != nil {
			return nil, err
		}
		pillar.Name = validation.NormalizePillarName(*in.Name)
		pillar.Slug = PillarSlug(pillar.Name)
	}
	if in.Color != nil {
		color := strings.TrimSpace(*in.Color)
		err = validation.ValidateColor(color)
		if err != nil {
			return nil, err
		}
		if color != "" {
			pillar.Color = strings.ToUpper(color)
		}
	}
	if in.SortOrder != nil && *in.SortOrder >= 0 {
		pillar.SortOrder = *in.SortOrder
	}

	err = s.repo.Update(pillar)
	if err != nil {
		return nil, err
	}
	return pillar, nil
}

func (s *PillarService) Delete(userID, pillarID string) error {
	return s.repo.Delete(userID, pillarID)
}

// ValidateOwnership returns ErrPillarNotFound unless the pillar belongs to the user.
func (s *PillarService) ValidateOwnership(userID string, pillarID *string) error {
	if pillarID == nil || *pillarID == "" {
		return nil
	}
	_, err := s.repo.ByID(userID, *pillarID)
	if errors.Is(err, repository.ErrPillarNotFound) {
		return repository.ErrPillarNotFound
	}
	return err
}
