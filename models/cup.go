package models

import "time"

// CupStatus mirrors the cup_status enum in the database.
type CupStatus string

const (
	CupStatusSetup    CupStatus = "setup"
	CupStatusGroups   CupStatus = "groups"
	CupStatusFinals   CupStatus = "finals"
	CupStatusFinished CupStatus = "finished"
)

// FinalsMode is chosen once per edition and never downgraded.
type FinalsMode string

const (
	FinalsModeNone               FinalsMode = "none"
	FinalsModeOnlyFinal          FinalsMode = "only_final"
	FinalsModeSemisAndFinal      FinalsMode = "semi_final_final"
	FinalsModeSemisFinalAndThird FinalsMode = "third_fourth_semi_final"
)

func (m FinalsMode) IsValid() bool {
	switch m {
	case FinalsModeNone, FinalsModeOnlyFinal, FinalsModeSemisAndFinal, FinalsModeSemisFinalAndThird:
		return true
	}
	return false
}

// Phases returns the knockout phases played under the mode, in display order.
func (m FinalsMode) Phases() []CupPhase {
	switch m {
	case FinalsModeOnlyFinal:
		return []CupPhase{PhaseFinal}
	case FinalsModeSemisAndFinal:
		return []CupPhase{PhaseSemi1, PhaseSemi2, PhaseFinal}
	case FinalsModeSemisFinalAndThird:
		return []CupPhase{PhaseSemi1, PhaseSemi2, PhaseThirdFourth, PhaseFinal}
	}
	return nil
}

func (m FinalsMode) HasSemifinals() bool {
	return m == FinalsModeSemisAndFinal || m == FinalsModeSemisFinalAndThird
}

// Cup is one edition of the knockout side-event.
type Cup struct {
	ID         string     `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Status     CupStatus  `json:"status" db:"status"`
	FinalsMode FinalsMode `json:"finals_mode" db:"finals_mode"`
	WinnerID   *string    `json:"winner_id,omitempty" db:"winner_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

type GroupName string

const (
	GroupA GroupName = "A"
	GroupB GroupName = "B"
)

// Phase returns the match phase tag used for the group's round robin.
func (g GroupName) Phase() CupPhase {
	if g == GroupB {
		return PhaseGroupB
	}
	return PhaseGroupA
}

// CupPlayer assigns a player to a group for one edition. Set once at draw time.
type CupPlayer struct {
	CupID    string    `json:"cup_id" db:"cup_id"`
	PlayerID string    `json:"player_id" db:"player_id"`
	Group    GroupName `json:"group_name" db:"group_name"`

	Player *Player `json:"player,omitempty" db:"-"`
}
