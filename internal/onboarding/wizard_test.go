package onboarding

import (
	"testing"

	"github.com/korusync/korusync/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepNavigation(t *testing.T) {
	assert.Equal(t, Username, Welcome.Next())
	assert.Equal(t, Intro, Intro.Next())
	assert.Equal(t, Welcome, Welcome.Prev())
	assert.Equal(t, Timezone, Pillars.Prev())
	assert.Equal(t, "pillars", Pillars.String())
	assert.Equal(t, "step(9)", Step(9).String())
}

func TestParseStep(t *testing.T) {
	s, err := ParseStep("Timezone")
	require.NoError(t, err)
	assert.Equal(t, Timezone, s)

	_, err = ParseStep("billing")
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestWizardWalkthrough(t *testing.T) {
	w := NewWizard("UTC")

	require.NoError(t, w.Advance(Submission{}))
	assert.Equal(t, Username, w.Step)

	err := w.Advance(Submission{Username: "x"})
	assert.ErrorIs(t, err, validation.ErrUsernameInvalid)
	assert.Equal(t, Username, w.Step, "invalid input keeps the step")

	require.NoError(t, w.Advance(Submission{Username: " @Koru_Fan ", FullName: "Koru Fan"}))
	assert.Equal(t, "koru_fan", w.Submission.Username)

	require.NoError(t, w.Advance(Submission{Timezone: "Europe/Berlin"}))

	assert.ErrorIs(t, w.Advance(Submission{}), validation.ErrPillarsRequired)
	require.NoError(t, w.Advance(Submission{Pillars: []validation.PillarInput{{Name: "Health"}}}))

	assert.Equal(t, Intro, w.Step)
	assert.True(t, w.Ready())

	w.Back()
	assert.Equal(t, Pillars, w.Step)
	assert.False(t, w.Ready())
}

func TestSubmissionValidate(t *testing.T) {
	s := Submission{Username: "Koru", Timezone: "UTC", Pillars: []validation.PillarInput{{Name: "Health"}}}
	s.Normalize()
	assert.NoError(t, s.Validate())

	s.Timezone = "Nowhere/City"
	assert.ErrorIs(t, s.Validate(), validation.ErrTimezoneInvalid)
}

func TestSuggestionsAreValid(t *testing.T) {
	assert.NoError(t, validation.ValidatePillars(SuggestedPillars))
	for _, tz := range Timezones {
		assert.NoError(t, validation.ValidateTimezone(tz), tz)
	}
}

func TestReplay(t *testing.T) {
	sub := Submission{
		Username: "Ada",
		Timezone: "Europe/Berlin",
		Pillars:  []validation.PillarInput{{Name: "Health"}},
	}

	w, err := Replay(sub, Username)
	require.NoError(t, err)
	assert.Equal(t, Timezone, w.Step)
	assert.Equal(t, "ada", w.Submission.Username)
	assert.Empty(t, w.Submission.Pillars, "later steps are not read")

	w, err = Replay(sub, Intro)
	require.NoError(t, err)
	assert.Equal(t, Intro, w.Step)
	assert.True(t, w.Ready())

	sub.Timezone = "Nowhere/City"
	w, err = Replay(sub, Pillars)
	assert.ErrorIs(t, err, validation.ErrTimezoneInvalid)
	assert.Equal(t, Timezone, w.Step)
}
