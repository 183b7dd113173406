package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"github.com/korusync/korusync/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	MaxPillars          = 8
	MaxPillarNameLength = 40
	MaxTitleLength      = 200
	MaxGoalTarget       = 1000
)

var (
	ErrPillarsRequired  = invalid("choose at least one pillar")
	ErrTooManyPillars   = invalidf("choose at most %d pillars", MaxPillars)
	ErrPillarName       = invalidf("pillar name must be 1-%d characters", MaxPillarNameLength)
	ErrPillarDuplicate  = invalid("pillar names must be unique")
	ErrColorInvalid     = invalid("color must be a hex value like #34D399")
	ErrTitleRequired    = invalid("title is required")
	ErrTitleTooLong     = invalidf("title is too long (max %d characters)", MaxTitleLength)
	ErrMoodInvalid      = invalid("mood must be between 1 and 5")
	ErrDateInvalid      = invalid("date must be formatted YYYY-MM-DD")
	ErrTimestampInvalid = invalid("time must be formatted as RFC 3339")
	ErrGoalTarget       = invalidf("target must be between 1 and %d", MaxGoalTarget)
	ErrTaskStatus       = invalid("unknown task status")
	ErrTaskPriority     = invalid("unknown task priority")
	ErrGoalStatus       = invalid("unknown goal status")
	ErrCheckInAmount    = invalid("check-in amount must be positive")
	ErrDescriptionLimit = invalid("description is too long (max 5000 characters)")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// PillarInput is a pillar as submitted by the wizard or settings.
type PillarInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func ValidatePillarName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 || n > MaxPillarNameLength {
		return ErrPillarName
	}
	return nil
}

// ValidateColor allows empty (a palette colour is assigned).
func ValidateColor(color string) error {
	if color != "" && !colorPattern.MatchString(color) {
		return ErrColorInvalid
	}
	return nil
}

var titleCaser = cases.Title(language.English)

// NormalizePillarName collapses whitespace and title-cases: "deep  work"
// becomes "Deep Work".
func NormalizePillarName(name string) string {
	return titleCaser.String(strings.Join(strings.Fields(name), " "))
}

// PillarSlug is the per-user unique key a pillar is stored under. It is
// empty when the name has no sluggable characters.
func PillarSlug(name string) string {
	return slug.Make(NormalizePillarName(name))
}

// pillarKey identifies names that would be stored as the same pillar.
func pillarKey(name string) string {
	if key := PillarSlug(name); key != "" {
		return key
	}
	return strings.ToLower(NormalizePillarName(name))
}

// ValidatePillars checks a full pillar selection: 1..MaxPillars entries,
// each valid, no two names mapping to the same slug.
func ValidatePillars(pillars []PillarInput) error {
	if len(pillars) == 0 {
		return ErrPillarsRequired
	}
	if len(pillars) > MaxPillars {
		return ErrTooManyPillars
	}

	seen := make(map[string]bool, len(pillars))
	for _, p := range pillars {
		err := ValidatePillarName(p.Name)
		if err != nil {
			return err
		}
		err = ValidateColor(p.Color)
		if err != nil {
			return err
		}
		key := pillarKey(p.Name)
		if seen[key] {
			return ErrPillarDuplicate
		}
		seen[key] = true
	}
	return nil
}

func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 {
		return ErrTitleRequired
	}
	if n > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > 5000 {
		return ErrDescriptionLimit
	}
	return nil
}

func ValidateMood(mood *int) error {
	if mood != nil && (*mood < 1 || *mood > 5) {
		return ErrMoodInvalid
	}
	return nil
}

func ValidateDate(date string) error {
	_, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return ErrDateInvalid
	}
	return nil
}

func ValidateGoalTarget(target int) error {
	if target < 1 || target > MaxGoalTarget {
		return ErrGoalTarget
	}
	return nil
}

func ValidateTaskStatus(status string) error {
	if !model.ValidTaskStatus(status) {
		return ErrTaskStatus
	}
	return nil
}

func ValidateTaskPriority(priority string) error {
	if !model.ValidTaskPriority(priority) {
		return ErrTaskPriority
	}
	return nil
}

func ValidateGoalStatus(status string) error {
	if !model.ValidGoalStatus(status) {
		return ErrGoalStatus
	}
	return nil
}
