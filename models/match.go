package models

import "time"

type MatchType string

const (
	MatchTypeLeague MatchType = "league"
	MatchTypeCup    MatchType = "cup"
)

// CupPhase tags a cup match with the stage it was played in.
type CupPhase string

const (
	PhaseGroupA      CupPhase = "group_A"
	PhaseGroupB      CupPhase = "group_B"
	PhaseSemi1       CupPhase = "semi_1"
	PhaseSemi2       CupPhase = "semi_2"
	PhaseThirdFourth CupPhase = "third_fourth"
	PhaseFinal       CupPhase = "final"
)

func (p CupPhase) IsValid() bool {
	return p.IsGroup() || p.IsFinals()
}

func (p CupPhase) IsGroup() bool {
	return p == PhaseGroupA || p == PhaseGroupB
}

func (p CupPhase) IsFinals() bool {
	switch p {
	case PhaseSemi1, PhaseSemi2, PhaseThirdFourth, PhaseFinal:
		return true
	}
	return false
}

// Group returns the group whose round robin the phase belongs to.
func (p CupPhase) Group() (GroupName, bool) {
	switch p {
	case PhaseGroupA:
		return GroupA, true
	case PhaseGroupB:
		return GroupB, true
	}
	return "", false
}

// Match is a recorded outcome. It is never edited; undo deletes it.
type Match struct {
	ID            string    `json:"id" db:"id"`
	WinnerID      string    `json:"winner_id" db:"winner_id"`
	LoserID       string    `json:"loser_id" db:"loser_id"`
	Type          MatchType `json:"match_type" db:"match_type"`
	CupID         *string   `json:"cup_id,omitempty" db:"cup_id"`
	Phase         *CupPhase `json:"cup_phase,omitempty" db:"cup_phase"`
	PointsAwarded int       `json:"points_awarded" db:"points_awarded"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	WinnerName string `json:"winner_name,omitempty" db:"-"`
	LoserName  string `json:"loser_name,omitempty" db:"-"`
}

// InPhase reports whether the match was played in the given cup phase.
func (m *Match) InPhase(phase CupPhase) bool {
	return m != nil && m.Phase != nil && *m.Phase == phase
}

// Involves reports whether the match was played between a and b, in either order.
func (m *Match) Involves(a, b string) bool {
	return (m.WinnerID == a && m.LoserID == b) || (m.WinnerID == b && m.LoserID == a)
}

// MatchPoints is what report_match returns for a ladder match.
type MatchPoints struct {
	PointsAwarded       int     `json:"points_awarded"`
	Base                int     `json:"base"`
	Bonus               int     `json:"bonus"`
	Multiplier          float64 `json:"multiplier"`
	DailyPercentile     float64 `json:"daily_percentile"`
	GlobalPercentile    float64 `json:"global_percentile"`
	CompositePercentile float64 `json:"composite_percentile"`
}

// Tier buckets the loser's composite percentile the way the scoreboard labels it.
func (p MatchPoints) Tier() string {
	switch {
	case p.CompositePercentile <= 0.3:
		return "TOP"
	case p.CompositePercentile <= 0.7:
		return "MID"
	default:
		return "LOW"
	}
}
