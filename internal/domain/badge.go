package domain

import (
	"time"

	"github.com/google/uuid"
)

// Badge is an achievement the ledger can award alongside XP.
type Badge struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Color       string

	// XPThreshold awards the badge once cumulative XP reaches it.
	// Zero means the badge is not XP-gated.
	XPThreshold int

	// OnCourseComplete awards the badge on the learner's first course
	// completion.
	OnCourseComplete bool
}

// EarnedBadge records that a learner holds a badge.
type EarnedBadge struct {
	LearnerID uuid.UUID
	BadgeID   string
	EarnedAt  time.Time
}

// DefaultBadges is the built-in badge catalog.
func DefaultBadges() []Badge {
	return []Badge{
		{
			ID:          "first-steps",
			Name:        "First Steps",
			Description: "Earned your first 50 XP",
			Icon:        "🚀",
			Color:       "cyber-accent",
			XPThreshold: 50,
		},
		{
			ID:          "xp-warrior",
			Name:        "XP Warrior",
			Description: "Reached 200 total XP",
			Icon:        "⚔️",
			Color:       "cyber-orange",
			XPThreshold: 200,
		},
		{
			ID:          "cyber-guardian",
			Name:        "Cyber Guardian",
			Description: "Reached 500 total XP",
			Icon:        "🛡️",
			Color:       "cyber-neon",
			XPThreshold: 500,
		},
		{
			ID:               "course-master",
			Name:             "Course Master",
			Description:      "Completed your first course",
			Icon:             "🎓",
			Color:            "cyber-yellow",
			OnCourseComplete: true,
		},
	}
}

// NewlyEarned returns the badges from the catalog that the learner now
// qualifies for and does not already hold. The caller persists the result.
func NewlyEarned(catalog []Badge, totalXP int, courseCompleted bool, held map[string]bool) []Badge {
	var earned []Badge
	for _, b := range catalog {
		if held[b.ID] {
			continue
		}
		if b.XPThreshold > 0 && totalXP >= b.XPThreshold {
			earned = append(earned, b)
			continue
		}
		if b.OnCourseComplete && courseCompleted {
			earned = append(earned, b)
		}
	}
	return earned
}
