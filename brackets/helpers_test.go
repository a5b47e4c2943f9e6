package brackets

import (
	"fmt"

	"github.com/Dosada05/kotc-scoreboard/models"
)

func player(id string, totalWins int) *models.Player {
	return &models.Player{ID: id, Name: "Player " + id, TotalWins: totalWins}
}

func roster(n int) []*models.Player {
	players := make([]*models.Player, n)
	for i := range players {
		players[i] = player(fmt.Sprintf("p%d", i+1), 0)
	}
	return players
}

func outcome(winner, loser string, phase models.CupPhase) *models.Match {
	ph := phase
	return &models.Match{
		ID:       winner + "-" + loser + "-" + string(phase),
		WinnerID: winner,
		LoserID:  loser,
		Type:     models.MatchTypeCup,
		Phase:    &ph,
	}
}

func ids(rows []*models.Standing) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Player.ID
	}
	return out
}
