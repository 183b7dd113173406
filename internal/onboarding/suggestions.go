package onboarding

import "github.com/korusync/korusync/internal/validation"

// SuggestedPillars are offered on the pillars step.
var SuggestedPillars = []validation.PillarInput{
	{Name: "Health", Color: "#34D399"},
	{Name: "Career", Color: "#60A5FA"},
	{Name: "Relationships", Color: "#F472B6"},
	{Name: "Learning", Color: "#FBBF24"},
	{Name: "Finance", Color: "#A78BFA"},
	{Name: "Mindfulness", Color: "#2DD4BF"},
	{Name: "Creativity", Color: "#FB923C"},
	{Name: "Fun", Color: "#F87171"},
}

// Palette colours pillars submitted without one, in order.
var Palette = []string{
	"#34D399", "#60A5FA", "#F472B6", "#FBBF24",
	"#A78BFA", "#2DD4BF", "#FB923C", "#F87171",
}

// Timezones is the short list shown before the full IANA search.
var Timezones = []string{
	"UTC",
	"America/Los_Angeles",
	"America/Denver",
	"America/Chicago",
	"America/New_York",
	"America/Sao_Paulo",
	"Europe/London",
	"Europe/Berlin",
	"Europe/Istanbul",
	"Africa/Lagos",
	"Africa/Nairobi",
	"Asia/Dubai",
	"Asia/Kolkata",
	"Asia/Singapore",
	"Asia/Tokyo",
	"Australia/Sydney",
	"Pacific/Auckland",
}
