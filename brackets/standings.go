package brackets

import (
	"sort"

	"github.com/Dosada05/kotc-scoreboard/models"
)

// CalculateStandings builds a group table from the group's roster and the
// outcomes recorded for its phase. Rows are ordered by group wins (desc),
// lifetime wins (asc, the underdog goes first) and group losses (asc).
// Rows equal on all three keys keep no guaranteed order.
func CalculateStandings(players []*models.Player, outcomes []*models.Match) []*models.Standing {
	standings := make([]*models.Standing, 0, len(players))
	index := make(map[string]*models.Standing, len(players))
	for _, p := range players {
		if p == nil {
			continue
		}
		row := &models.Standing{Player: p, TotalWins: p.TotalWins}
		standings = append(standings, row)
		index[p.ID] = row
	}

	for _, m := range outcomes {
		if m == nil {
			continue
		}
		winner, okW := index[m.WinnerID]
		loser, okL := index[m.LoserID]
		if !okW || !okL {
			continue
		}
		winner.Wins++
		loser.Losses++
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.TotalWins != b.TotalWins {
			return a.TotalWins < b.TotalWins
		}
		return a.Losses < b.Losses
	})

	if len(standings) >= 2 {
		for i, row := range standings {
			row.Rank = i + 1
		}
	}
	return standings
}

// GroupFinished reports whether a group of the given size has recorded all
// of its round-robin outcomes.
func GroupFinished(players, recorded int) bool {
	return players >= 2 && recorded >= ExpectedMatches(players)
}

// FilterByPhase returns the outcomes tagged with phase, preserving order.
func FilterByPhase(matches []*models.Match, phase models.CupPhase) []*models.Match {
	filtered := make([]*models.Match, 0)
	for _, m := range matches {
		if m.InPhase(phase) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// FinalsOutcomes returns the outcomes of knockout phases.
func FinalsOutcomes(matches []*models.Match) []*models.Match {
	filtered := make([]*models.Match, 0)
	for _, m := range matches {
		if m != nil && m.Phase != nil && m.Phase.IsFinals() {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// ResolvedOutcomes returns the outcomes whose two players are both on the
// roster. Only these count towards the table and group completion.
func ResolvedOutcomes(players []*models.Player, outcomes []*models.Match) []*models.Match {
	resolved, _ := partitionOutcomes(players, outcomes)
	return resolved
}

// UnresolvedOutcomes returns the outcomes naming a player who is not on the
// roster. They are left out of the table and should be surfaced, not hidden.
func UnresolvedOutcomes(players []*models.Player, outcomes []*models.Match) []*models.Match {
	_, unresolved := partitionOutcomes(players, outcomes)
	return unresolved
}

func partitionOutcomes(players []*models.Player, outcomes []*models.Match) (resolved, unresolved []*models.Match) {
	known := make(map[string]struct{}, len(players))
	for _, p := range players {
		if p != nil {
			known[p.ID] = struct{}{}
		}
	}

	resolved = make([]*models.Match, 0, len(outcomes))
	unresolved = make([]*models.Match, 0)
	for _, m := range outcomes {
		if m == nil {
			continue
		}
		_, okW := known[m.WinnerID]
		_, okL := known[m.LoserID]
		if okW && okL {
			resolved = append(resolved, m)
		} else {
			unresolved = append(unresolved, m)
		}
	}
	return resolved, unresolved
}

// KnockoutUnlocked reports whether the knockout phase is open: both groups
// are complete, the cup has already moved on, or a knockout match exists.
func KnockoutUnlocked(groupAFinished, groupBFinished bool, status models.CupStatus, finalsOutcomes []*models.Match) bool {
	if groupAFinished && groupBFinished {
		return true
	}
	if status == models.CupStatusFinals || status == models.CupStatusFinished {
		return true
	}
	return len(finalsOutcomes) > 0
}
