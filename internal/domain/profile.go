package domain

import (
	"time"

	"github.com/google/uuid"
)

// XPPerLevel is the flat XP cost of each level.
const XPPerLevel = 500

// Rank is a named tier derived as a step function of cumulative XP.
type Rank string

const (
	RankBronze   Rank = "Bronze"
	RankSilver   Rank = "Silver"
	RankGold     Rank = "Gold"
	RankPlatinum Rank = "Platinum"
	RankDiamond  Rank = "Diamond"
)

// rankThresholds is ordered descending so the first match wins.
var rankThresholds = []struct {
	xp   int
	rank Rank
}{
	{2000, RankDiamond},
	{1500, RankPlatinum},
	{1000, RankGold},
	{500, RankSilver},
	{0, RankBronze},
}

// LevelForXP derives the level from cumulative XP: floor(xp/500) + 1.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/XPPerLevel + 1
}

// RankForXP derives the rank tier from cumulative XP.
func RankForXP(xp int) Rank {
	for _, t := range rankThresholds {
		if xp >= t.xp {
			return t.rank
		}
	}
	return RankBronze
}

// Profile tracks a learner's cumulative XP and the level and rank derived
// from it. It is created at profile-setup time and mutated only by the
// reward ledger afterwards.
type Profile struct {
	LearnerID uuid.UUID
	Username  string
	XP        int
	Level     int
	Rank      Rank
	Streak    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProfile creates a fresh profile at the base tier.
func NewProfile(learnerID uuid.UUID, username string) *Profile {
	now := time.Now()
	return &Profile{
		LearnerID: learnerID,
		Username:  username,
		Level:     1,
		Rank:      RankBronze,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyAward adds an XP delta and rederives level and rank. The delta is
// additive, so callers must guarantee at-most-once delivery per completion.
func (p *Profile) ApplyAward(xpDelta int) {
	p.XP += xpDelta
	p.Level = LevelForXP(p.XP)
	p.Rank = RankForXP(p.XP)
	p.UpdatedAt = time.Now()
}
