package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/db"
	"github.com/korusync/korusync/internal/model"
)

// OnboardingRepository performs the final onboarding writes as one unit.
type OnboardingRepository interface {
	Complete(profile *model.Profile, prefs *model.Preferences, pillars []*model.Pillar) error
}

type onboardingRepository struct {
	db *sqlx.DB
}

func NewOnboardingRepository(db *sqlx.DB) OnboardingRepository {
	return &onboardingRepository{db: db}
}

// Complete updates the profile, flips the onboarding flag and upserts the
// pillars. Nothing is written unless all three succeed.
func (r *onboardingRepository) Complete(profile *model.Profile, prefs *model.Preferences, pillars []*model.Pillar) error {
	return db.WithTx(r.db, func(tx *sqlx.Tx) error {
		err := updateProfile(tx, profile)
		if err != nil {
			return fmt.Errorf("profile update: %w", err)
		}

		prefs.OnboardingCompleted = true
		err = updatePreferences(tx, prefs)
		if err != nil {
			return fmt.Errorf("preferences update: %w", err)
		}

		for _, p := range pillars {
			err = upsertPillar(tx, p)
			if err != nil {
				return fmt.Errorf("pillar upsert %q: %w", p.Slug, err)
			}
		}

		return nil
	})
}
