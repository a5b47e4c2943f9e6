package brackets

import (
	"github.com/Dosada05/kotc-scoreboard/models"
)

// Pairings enumerates the round-robin fixtures of a group: every unordered
// pair once, outer index ascending, then inner index ascending. Nil entries
// are skipped; fewer than two players yields an empty slice.
func Pairings(players []*models.Player) []*models.GroupPairing {
	present := make([]*models.Player, 0, len(players))
	for _, p := range players {
		if p != nil {
			present = append(present, p)
		}
	}
	n := len(present)
	if n < 2 {
		return []*models.GroupPairing{}
	}

	pairings := make([]*models.GroupPairing, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairings = append(pairings, &models.GroupPairing{
				Player1: present[i],
				Player2: present[j],
			})
		}
	}
	return pairings
}

// PairingsWithResults is Pairings with each fixture joined to the outcome
// that settled it, whichever way round it was won.
func PairingsWithResults(players []*models.Player, outcomes []*models.Match) []*models.GroupPairing {
	pairings := Pairings(players)
	for _, p := range pairings {
		for _, m := range outcomes {
			if m != nil && m.Involves(p.Player1.ID, p.Player2.ID) {
				p.Outcome = m
				break
			}
		}
	}
	return pairings
}

// ExpectedMatches is the number of fixtures in a single round robin of n players.
func ExpectedMatches(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}
