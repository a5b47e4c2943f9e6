package models

// DailyStat is one player's ladder line for a day, maintained by report_match.
type DailyStat struct {
	Date          string `json:"date" db:"date"`
	PlayerID      string `json:"player_id" db:"player_id"`
	Points        int    `json:"points" db:"points"`
	Wins          int    `json:"wins" db:"wins"`
	Losses        int    `json:"losses" db:"losses"`
	CurrentStreak int    `json:"current_streak" db:"current_streak"`
	MaxStreak     int    `json:"max_streak" db:"max_streak"`
	Rank          int    `json:"rank,omitempty" db:"-"`

	Player *Player `json:"player,omitempty" db:"-"`
}

type Leaderboard struct {
	Date      string       `json:"date"`
	Stats     []*DailyStat `json:"stats"`
	KingID    *string      `json:"king_id,omitempty"`
	TopStreak *DailyStat   `json:"top_streak,omitempty"`
}

type DayClosingEntry struct {
	Name   string `json:"name"`
	Streak int    `json:"streak,omitempty"`
	Points int    `json:"points,omitempty"`
}

// DayClosing is the close_day_bonus result.
type DayClosing struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message,omitempty"`
	BonusWinner *DayClosingEntry `json:"bonus_winner,omitempty"`
	DayWinner   *DayClosingEntry `json:"day_winner,omitempty"`
}

type DayWinnerRank struct {
	PlayerID string `json:"player_id" db:"player_id"`
	Name     string `json:"name" db:"name"`
	DayWins  int    `json:"day_wins" db:"day_wins"`
}

type TotalWinRank struct {
	PlayerID  string `json:"player_id" db:"player_id"`
	Name      string `json:"name" db:"name"`
	TotalWins int    `json:"total_wins" db:"total_wins"`
}

type PlayerHistory struct {
	PlayerID    string       `json:"player_id"`
	Days        []*DailyStat `json:"days"`
	TotalWins   int          `json:"total_wins"`
	TotalLosses int          `json:"total_losses"`
	WinRate     int          `json:"win_rate"`
}
