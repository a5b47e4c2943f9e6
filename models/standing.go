package models

// Standing is one row of a group table. It is derived on every refresh and
// never stored.
type Standing struct {
	Player    *Player `json:"player"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	TotalWins int     `json:"total_wins"`
	Rank      int     `json:"rank"` // 1-based; 0 while the group has fewer than 2 players
}

// Fixture is a knockout pairing. Nil players are rendered as "awaiting".
type Fixture struct {
	Phase   CupPhase `json:"phase"`
	Player1 *Player  `json:"player1"`
	Player2 *Player  `json:"player2"`
	Outcome *Match   `json:"outcome"`
	Decided bool     `json:"decided"`
}

// Ready reports whether both slots are resolved.
func (f *Fixture) Ready() bool {
	return f != nil && f.Player1 != nil && f.Player2 != nil
}

type Bracket struct {
	Unlocked     bool       `json:"unlocked"`
	AwaitingMode bool       `json:"awaiting_mode"`
	Mode         FinalsMode `json:"mode"`
	Fixtures     []*Fixture `json:"fixtures"`
}

// Fixture returns the fixture for the phase, or nil when the phase is not active.
func (b *Bracket) Fixture(phase CupPhase) *Fixture {
	if b == nil {
		return nil
	}
	for _, f := range b.Fixtures {
		if f.Phase == phase {
			return f
		}
	}
	return nil
}

// GroupPairing is a round-robin fixture inside a group, with its result once played.
type GroupPairing struct {
	Player1 *Player `json:"player1"`
	Player2 *Player `json:"player2"`
	Outcome *Match  `json:"outcome,omitempty"`
}

// CupBoard is the snapshot pushed to scoreboard clients.
type CupBoard struct {
	Cup            *Cup            `json:"cup"`
	GroupA         []*Standing     `json:"group_a"`
	GroupB         []*Standing     `json:"group_b"`
	PairingsA      []*GroupPairing `json:"pairings_a"`
	PairingsB      []*GroupPairing `json:"pairings_b"`
	GroupAFinished bool            `json:"group_a_finished"`
	GroupBFinished bool            `json:"group_b_finished"`
	Bracket        *Bracket        `json:"bracket"`
	Warnings       []string        `json:"warnings,omitempty"`
}
