package brackets

import (
	"github.com/Dosada05/kotc-scoreboard/models"
)

// KnockoutParams is everything the bracket depends on. GroupA and GroupB are
// sorted standings, first place at index 0.
type KnockoutParams struct {
	GroupA   []*models.Standing
	GroupB   []*models.Standing
	Mode     models.FinalsMode
	Outcomes []*models.Match
	Unlocked bool
}

// DeriveBracket resolves the knockout fixtures for the configured finals mode.
// Seeding is fixed: semi 1 is A1 vs B2, semi 2 is B1 vs A2, and a final-only
// edition plays A1 vs B1. Slots that cannot be resolved yet stay nil.
func DeriveBracket(params KnockoutParams) *models.Bracket {
	bracket := &models.Bracket{
		Unlocked: params.Unlocked,
		Mode:     params.Mode,
		Fixtures: []*models.Fixture{},
	}
	if !params.Unlocked {
		return bracket
	}
	if params.Mode == "" || params.Mode == models.FinalsModeNone || !params.Mode.IsValid() {
		bracket.AwaitingMode = true
		return bracket
	}

	a1, a2 := seed(params.GroupA, 0), seed(params.GroupA, 1)
	b1, b2 := seed(params.GroupB, 0), seed(params.GroupB, 1)

	var semi1, semi2 *models.Fixture
	if params.Mode.HasSemifinals() {
		semi1 = newFixture(models.PhaseSemi1, a1, b2, params.Outcomes)
		semi2 = newFixture(models.PhaseSemi2, b1, a2, params.Outcomes)
	}

	for _, phase := range params.Mode.Phases() {
		switch phase {
		case models.PhaseSemi1:
			bracket.Fixtures = append(bracket.Fixtures, semi1)
		case models.PhaseSemi2:
			bracket.Fixtures = append(bracket.Fixtures, semi2)
		case models.PhaseThirdFourth:
			var p1, p2 *models.Player
			if semi1.Decided && semi2.Decided {
				p1, p2 = loser(semi1), loser(semi2)
			}
			bracket.Fixtures = append(bracket.Fixtures, newFixture(phase, p1, p2, params.Outcomes))
		case models.PhaseFinal:
			var p1, p2 *models.Player
			if params.Mode.HasSemifinals() {
				p1, p2 = winner(semi1), winner(semi2)
			} else {
				p1, p2 = a1, b1
			}
			bracket.Fixtures = append(bracket.Fixtures, newFixture(phase, p1, p2, params.Outcomes))
		}
	}
	return bracket
}

// seed picks the player at a table position. A group with fewer than two
// players has no ranking and seeds nobody.
func seed(rows []*models.Standing, pos int) *models.Player {
	if len(rows) < 2 || pos >= len(rows) || rows[pos] == nil {
		return nil
	}
	return rows[pos].Player
}

func newFixture(phase models.CupPhase, p1, p2 *models.Player, outcomes []*models.Match) *models.Fixture {
	f := &models.Fixture{Phase: phase, Player1: p1, Player2: p2}
	for _, m := range outcomes {
		if m.InPhase(phase) {
			f.Outcome = m
			f.Decided = true
			break
		}
	}
	return f
}

// winner resolves the decided outcome against the fixture slots. An outcome
// naming someone outside the fixture resolves to nil.
func winner(f *models.Fixture) *models.Player {
	if f == nil || !f.Decided {
		return nil
	}
	return slotByID(f, f.Outcome.WinnerID)
}

func loser(f *models.Fixture) *models.Player {
	if f == nil || !f.Decided {
		return nil
	}
	return slotByID(f, f.Outcome.LoserID)
}

func slotByID(f *models.Fixture, id string) *models.Player {
	switch {
	case f.Player1 != nil && f.Player1.ID == id:
		return f.Player1
	case f.Player2 != nil && f.Player2.ID == id:
		return f.Player2
	}
	return nil
}
