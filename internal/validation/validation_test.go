package validation

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  error
	}{
		{"ann@example.com", nil},
		{"", ErrEmailRequired},
		{"not-an-email", ErrEmailInvalid},
		{"Ann <ann@example.com>", ErrEmailInvalid},
		{strings.Repeat("a", 250) + "@x.io", ErrEmailTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.email))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@example.com", NormalizeEmail("  Ann@Example.COM "))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("correct horse battery"))
	assert.ErrorIs(t, ValidatePassword("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("x", 73)), ErrPasswordTooLong)
	assert.ErrorIs(t, ValidatePassword("MyPassword2024!"), ErrPasswordCommon)
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     error
	}{
		{"valid", "koru_fan42", nil},
		{"too short", "ab", ErrUsernameInvalid},
		{"too long", strings.Repeat("a", 31), ErrUsernameInvalid},
		{"upper case", "Koru", ErrUsernameInvalid},
		{"dash", "koru-fan", ErrUsernameInvalid},
		{"reserved", "admin", ErrUsernameReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateUsername(tt.username))
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "koru", NormalizeUsername(" @Koru "))
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.NoError(t, ValidateTimezone("America/New_York"))
	assert.ErrorIs(t, ValidateTimezone(""), ErrTimezoneInvalid)
	assert.ErrorIs(t, ValidateTimezone("Local"), ErrTimezoneInvalid)
	assert.ErrorIs(t, ValidateTimezone("Mars/Olympus"), ErrTimezoneInvalid)
}

func TestValidatePillars(t *testing.T) {
	tests := []struct {
		name    string
		pillars []PillarInput
		want    error
	}{
		{"valid", []PillarInput{{Name: "Health", Color: "#34D399"}, {Name: "Career"}}, nil},
		{"empty", nil, ErrPillarsRequired},
		{"too many", make([]PillarInput, MaxPillars+1), ErrTooManyPillars},
		{"blank name", []PillarInput{{Name: "  "}}, ErrPillarName},
		{"long name", []PillarInput{{Name: strings.Repeat("x", MaxPillarNameLength+1)}}, ErrPillarName},
		{"bad color", []PillarInput{{Name: "Health", Color: "green"}}, ErrColorInvalid},
		{"duplicate", []PillarInput{{Name: "Health"}, {Name: " health "}}, ErrPillarDuplicate},
		{"same slug", []PillarInput{{Name: "Deep Work"}, {Name: "Deep-Work"}}, ErrPillarDuplicate},
		{"same slug spacing", []PillarInput{{Name: "deep work"}, {Name: "Deep   Work"}}, ErrPillarDuplicate},
		{"distinct", []PillarInput{{Name: "Deep Work"}, {Name: "Deep Rest"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePillars(tt.pillars))
		})
	}
}

func TestPillarSlug(t *testing.T) {
	assert.Equal(t, "Deep Work", NormalizePillarName("  deep   work "))
	assert.Equal(t, "deep-work", PillarSlug("Deep-Work"))
	assert.Equal(t, PillarSlug("deep work"), PillarSlug("Deep-Work"))
	assert.Empty(t, PillarSlug("!!!"))
}

func TestValidateMoodAndDate(t *testing.T) {
	three, six := 3, 6
	assert.NoError(t, ValidateMood(nil))
	assert.NoError(t, ValidateMood(&three))
	assert.ErrorIs(t, ValidateMood(&six), ErrMoodInvalid)

	assert.NoError(t, ValidateDate("2025-02-28"))
	assert.ErrorIs(t, ValidateDate("2025-02-30"), ErrDateInvalid)
	assert.ErrorIs(t, ValidateDate("28/02/2025"), ErrDateInvalid)
}

func TestDetectImage(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

	mime, err := DetectImage(bytes.NewReader(png), "me.PNG")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = DetectImage(bytes.NewReader(png), "me.jpg")
	assert.Error(t, err)

	_, err = DetectImage(strings.NewReader("plain text"), "me.png")
	assert.Error(t, err)
}

func TestIsInvalid(t *testing.T) {
	assert.True(t, IsInvalid(ErrTitleRequired))
	assert.True(t, IsInvalid(fmt.Errorf("create task: %w", ErrGoalTarget)))
	assert.False(t, IsInvalid(errors.New("database is locked")))
	assert.False(t, IsInvalid(nil))
}
