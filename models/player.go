package models

import "time"

// Player is a ladder regular. TotalWins and CupWins are aggregated by the
// database (player_total_wins view) and are read-only here.
type Player struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	AvatarKey *string   `json:"-" db:"avatar_key"`
	AvatarURL *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	TotalWins int `json:"total_wins" db:"-"`
	CupWins   int `json:"cup_wins" db:"-"`
}
