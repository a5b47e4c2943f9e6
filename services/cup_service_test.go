package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/kotc-scoreboard/models"
)

type cupFixture struct {
	svc      *cupService
	tx       *fakeTransactor
	cups     *fakeCupRepo
	players  *fakePlayerRepo
	matches  *fakeMatchRepo
	notifier *fakeNotifier
}

func newCupFixture(names ...string) *cupFixture {
	f := &cupFixture{
		tx:       &fakeTransactor{},
		cups:     newFakeCupRepo(),
		players:  newFakePlayerRepo(names...),
		matches:  &fakeMatchRepo{},
		notifier: &fakeNotifier{},
	}
	f.svc = NewCupService(f.tx, f.cups, f.players, f.matches, f.notifier, "Matapi's Cup", discardLogger()).(*cupService)
	f.svc.shuffle = nil
	return f
}

// drawFour leaves p1, p2 in group A and p3, p4 in group B.
func drawFour(t *testing.T) *cupFixture {
	t.Helper()
	f := newCupFixture("Ana", "Beto", "Caro", "Dani")
	if _, err := f.svc.RunDraw(context.Background(), []string{"p1", "p2", "p3", "p4"}); err != nil {
		t.Fatalf("RunDraw: %v", err)
	}
	return f
}

func (f *cupFixture) report(t *testing.T, winner, loser string, phase models.CupPhase) {
	t.Helper()
	_, err := f.svc.ReportMatch(context.Background(), ReportCupMatchInput{WinnerID: winner, LoserID: loser, Phase: phase})
	if err != nil {
		t.Fatalf("ReportMatch(%s beats %s in %s): %v", winner, loser, phase, err)
	}
}

func (f *cupFixture) finishGroups(t *testing.T) {
	t.Helper()
	f.report(t, "p1", "p2", models.PhaseGroupA)
	f.report(t, "p3", "p4", models.PhaseGroupB)
}

func TestCupService_GetBoardWithoutCup(t *testing.T) {
	f := newCupFixture("Ana")

	board, err := f.svc.GetBoard(context.Background())
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if board.Cup != nil {
		t.Errorf("Cup = %+v, want nil", board.Cup)
	}
	if len(board.GroupA) != 0 || len(board.GroupB) != 0 || len(board.Bracket.Fixtures) != 0 {
		t.Errorf("expected an empty board, got %+v", board)
	}
}

func TestCupService_RunDrawValidation(t *testing.T) {
	f := newCupFixture("Ana", "Beto")
	ctx := context.Background()

	if _, err := f.svc.RunDraw(ctx, []string{"p1", "p1", " "}); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("duplicate ids: err = %v, want ErrNotEnoughPlayers", err)
	}
	if _, err := f.svc.RunDraw(ctx, []string{"p1", "ghost"}); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("unknown player: err = %v, want ErrPlayerNotFound", err)
	}
	if len(f.cups.cups) != 0 {
		t.Errorf("rejected draws created %d cups", len(f.cups.cups))
	}
}

func TestCupService_RunDrawCreatesEdition(t *testing.T) {
	f := newCupFixture("Ana", "Beto", "Caro", "Dani", "Eva")

	board, err := f.svc.RunDraw(context.Background(), []string{"p1", "p2", "p3", "p4", "p5"})
	if err != nil {
		t.Fatalf("RunDraw: %v", err)
	}

	if board.Cup == nil || board.Cup.Name != "I Matapi's Cup" {
		t.Fatalf("Cup = %+v, want the first edition", board.Cup)
	}
	if board.Cup.Status != models.CupStatusGroups {
		t.Errorf("Status = %q, want groups", board.Cup.Status)
	}
	if len(board.GroupA) != 3 || len(board.GroupB) != 2 {
		t.Errorf("group sizes = %d/%d, want 3/2", len(board.GroupA), len(board.GroupB))
	}
	if len(board.PairingsA) != 3 || len(board.PairingsB) != 1 {
		t.Errorf("pairings = %d/%d, want 3/1", len(board.PairingsA), len(board.PairingsB))
	}
	if f.tx.calls != 1 {
		t.Errorf("transactions = %d, want 1", f.tx.calls)
	}
	if !f.notifier.published(TopicCup) {
		t.Error("draw was not published")
	}
}

func TestCupService_RedrawBeforeAnyMatchReusesCup(t *testing.T) {
	f := drawFour(t)
	ctx := context.Background()

	if _, err := f.svc.RunDraw(ctx, []string{"p4", "p3", "p2"}); err != nil {
		t.Fatalf("second RunDraw: %v", err)
	}
	if len(f.cups.cups) != 1 {
		t.Fatalf("cups = %d, want the draw to reuse the edition", len(f.cups.cups))
	}
	got := f.cups.group("cup-1", models.GroupA)
	if len(got) != 2 || got[0] != "p4" || got[1] != "p3" {
		t.Errorf("group A = %v, want [p4 p3]", got)
	}
}

func TestCupService_DrawLockedOnceMatchesExist(t *testing.T) {
	f := drawFour(t)
	f.report(t, "p1", "p2", models.PhaseGroupA)

	_, err := f.svc.RunDraw(context.Background(), []string{"p1", "p2", "p3", "p4"})
	if !errors.Is(err, ErrDrawLocked) {
		t.Errorf("err = %v, want ErrDrawLocked", err)
	}
}

func TestCupService_NextEditionAfterFinish(t *testing.T) {
	f := newCupFixture("Ana", "Beto")
	f.cups.cups = append(f.cups.cups, &models.Cup{ID: "old", Name: "I Matapi's Cup", Status: models.CupStatusFinished})

	board, err := f.svc.RunDraw(context.Background(), []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("RunDraw: %v", err)
	}
	if board.Cup.Name != "II Matapi's Cup" {
		t.Errorf("Name = %q, want II Matapi's Cup", board.Cup.Name)
	}
}

func TestCupService_ReportGroupMatchValidation(t *testing.T) {
	f := drawFour(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input ReportCupMatchInput
		want  error
	}{
		{"missing loser", ReportCupMatchInput{WinnerID: "p1", Phase: models.PhaseGroupA}, ErrValidationFailed},
		{"bad phase", ReportCupMatchInput{WinnerID: "p1", LoserID: "p2", Phase: "group_C"}, ErrInvalidPhase},
		{"same player", ReportCupMatchInput{WinnerID: "p1", LoserID: "p1", Phase: models.PhaseGroupA}, ErrSamePlayer},
		{"cross group", ReportCupMatchInput{WinnerID: "p1", LoserID: "p3", Phase: models.PhaseGroupA}, ErrPlayerNotInGroup},
		{"wrong group", ReportCupMatchInput{WinnerID: "p1", LoserID: "p2", Phase: models.PhaseGroupB}, ErrPlayerNotInGroup},
		{"knockout locked", ReportCupMatchInput{WinnerID: "p1", LoserID: "p3", Phase: models.PhaseFinal}, ErrKnockoutLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.ReportMatch(ctx, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if f.matches.count() != 0 {
		t.Errorf("rejected reports stored %d matches", f.matches.count())
	}
}

func TestCupService_RejectsDuplicatePair(t *testing.T) {
	f := drawFour(t)
	f.report(t, "p1", "p2", models.PhaseGroupA)

	_, err := f.svc.ReportMatch(context.Background(), ReportCupMatchInput{WinnerID: "p2", LoserID: "p1", Phase: models.PhaseGroupA})
	if !errors.Is(err, ErrMatchAlreadyReported) {
		t.Errorf("err = %v, want ErrMatchAlreadyReported", err)
	}
}

func TestCupService_ReportRecordsZeroPointCupMatch(t *testing.T) {
	f := drawFour(t)

	match, err := f.svc.ReportMatch(context.Background(), ReportCupMatchInput{WinnerID: "p2", LoserID: "p1", Phase: models.PhaseGroupA})
	if err != nil {
		t.Fatalf("ReportMatch: %v", err)
	}
	if match.Type != models.MatchTypeCup || match.PointsAwarded != 0 {
		t.Errorf("match = %+v, want a zero-point cup match", match)
	}
	if match.CupID == nil || *match.CupID != "cup-1" {
		t.Errorf("CupID = %v, want cup-1", match.CupID)
	}

	board, err := f.svc.GetBoard(context.Background())
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if board.GroupA[0].Player.ID != "p2" || board.GroupA[0].Wins != 1 {
		t.Errorf("group A leader = %+v, want p2 with 1 win", board.GroupA[0])
	}
	if !board.GroupAFinished || board.GroupBFinished {
		t.Errorf("finished = %v/%v, want true/false", board.GroupAFinished, board.GroupBFinished)
	}
	if board.Bracket.Unlocked {
		t.Error("bracket unlocked with group B unfinished")
	}
}

func TestCupService_FinalOnlyFlow(t *testing.T) {
	f := drawFour(t)
	ctx := context.Background()
	f.finishGroups(t)

	board, err := f.svc.GetBoard(ctx)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if !board.Bracket.Unlocked || !board.Bracket.AwaitingMode {
		t.Fatalf("bracket = %+v, want unlocked and awaiting a mode", board.Bracket)
	}

	if _, err := f.svc.SetFinalsMode(ctx, models.FinalsModeNone); !errors.Is(err, ErrInvalidFinalsMode) {
		t.Errorf("mode none: err = %v, want ErrInvalidFinalsMode", err)
	}
	board, err = f.svc.SetFinalsMode(ctx, models.FinalsModeOnlyFinal)
	if err != nil {
		t.Fatalf("SetFinalsMode: %v", err)
	}
	if board.Cup.Status != models.CupStatusFinals {
		t.Errorf("Status = %q, want finals", board.Cup.Status)
	}
	if _, err := f.svc.SetFinalsMode(ctx, models.FinalsModeSemisAndFinal); !errors.Is(err, ErrFinalsModeLocked) {
		t.Errorf("second mode: err = %v, want ErrFinalsModeLocked", err)
	}

	final := board.Bracket.Fixture(models.PhaseFinal)
	if !final.Ready() || final.Player1.ID != "p1" || final.Player2.ID != "p3" {
		t.Fatalf("final = %+v, want p1 vs p3", final)
	}

	if _, err := f.svc.ReportMatch(ctx, ReportCupMatchInput{WinnerID: "p2", LoserID: "p1", Phase: models.PhaseFinal}); !errors.Is(err, ErrFixtureMismatch) {
		t.Errorf("wrong finalists: err = %v, want ErrFixtureMismatch", err)
	}
	if _, err := f.svc.ReportMatch(ctx, ReportCupMatchInput{WinnerID: "p3", LoserID: "p1", Phase: models.PhaseSemi1}); !errors.Is(err, ErrPhaseNotActive) {
		t.Errorf("inactive phase: err = %v, want ErrPhaseNotActive", err)
	}
	if _, err := f.svc.ReportMatch(ctx, ReportCupMatchInput{WinnerID: "p2", LoserID: "p1", Phase: models.PhaseGroupA}); !errors.Is(err, ErrGroupStageClosed) {
		t.Errorf("late group match: err = %v, want ErrGroupStageClosed", err)
	}

	if _, err := f.svc.FinishCup(ctx, "p3"); !errors.Is(err, ErrFinalUndecided) {
		t.Errorf("finish before final: err = %v, want ErrFinalUndecided", err)
	}

	f.report(t, "p3", "p1", models.PhaseFinal)
	if _, err := f.svc.ReportMatch(ctx, ReportCupMatchInput{WinnerID: "p1", LoserID: "p3", Phase: models.PhaseFinal}); !errors.Is(err, ErrMatchAlreadyReported) {
		t.Errorf("second final: err = %v, want ErrMatchAlreadyReported", err)
	}

	if _, err := f.svc.FinishCup(ctx, "p1"); !errors.Is(err, ErrChampionMismatch) {
		t.Errorf("wrong champion: err = %v, want ErrChampionMismatch", err)
	}
	board, err = f.svc.FinishCup(ctx, "p3")
	if err != nil {
		t.Fatalf("FinishCup: %v", err)
	}
	if board.Cup.Status != models.CupStatusFinished || board.Cup.WinnerID == nil || *board.Cup.WinnerID != "p3" {
		t.Errorf("cup = %+v, want finished with p3", board.Cup)
	}
	if f.cups.cupWins["p3"] != 1 {
		t.Errorf("cup wins of p3 = %d, want 1", f.cups.cupWins["p3"])
	}
	if !f.notifier.published(TopicLeague) {
		t.Error("finish did not refresh the league")
	}

	if _, err := f.svc.ReportMatch(ctx, ReportCupMatchInput{WinnerID: "p1", LoserID: "p2", Phase: models.PhaseGroupA}); !errors.Is(err, ErrCupAlreadyFinished) {
		t.Errorf("report after finish: err = %v, want ErrCupAlreadyFinished", err)
	}
}

func TestCupService_SemifinalFlow(t *testing.T) {
	f := drawFour(t)
	ctx := context.Background()

	if _, err := f.svc.SetFinalsMode(ctx, models.FinalsModeSemisAndFinal); !errors.Is(err, ErrKnockoutLocked) {
		t.Errorf("early mode: err = %v, want ErrKnockoutLocked", err)
	}
	f.finishGroups(t)
	if _, err := f.svc.SetFinalsMode(ctx, models.FinalsModeSemisAndFinal); err != nil {
		t.Fatalf("SetFinalsMode: %v", err)
	}

	// A = [p1, p2], B = [p3, p4]: semi 1 is p1 vs p4, semi 2 is p3 vs p2.
	if _, err := f.svc.ReportMatch(ctx, ReportCupMatchInput{WinnerID: "p1", LoserID: "p3", Phase: models.PhaseFinal}); !errors.Is(err, ErrFixtureNotReady) {
		t.Errorf("early final: err = %v, want ErrFixtureNotReady", err)
	}
	if _, err := f.svc.ReportMatch(ctx, ReportCupMatchInput{WinnerID: "p1", LoserID: "p2", Phase: models.PhaseThirdFourth}); !errors.Is(err, ErrPhaseNotActive) {
		t.Errorf("third place: err = %v, want ErrPhaseNotActive", err)
	}

	f.report(t, "p4", "p1", models.PhaseSemi1)
	f.report(t, "p2", "p3", models.PhaseSemi2)

	board, err := f.svc.GetBoard(ctx)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	final := board.Bracket.Fixture(models.PhaseFinal)
	if !final.Ready() || final.Player1.ID != "p4" || final.Player2.ID != "p2" {
		t.Fatalf("final = %+v, want p4 vs p2", final)
	}
	f.report(t, "p2", "p4", models.PhaseFinal)
	if _, err := f.svc.FinishCup(ctx, "p2"); err != nil {
		t.Fatalf("FinishCup: %v", err)
	}
}

func TestCupService_UndoMatch(t *testing.T) {
	f := drawFour(t)
	ctx := context.Background()
	f.report(t, "p1", "p2", models.PhaseGroupA)
	f.matches.matches = append(f.matches.matches, &models.Match{ID: "league-1", WinnerID: "p1", LoserID: "p2", Type: models.MatchTypeLeague})

	if err := f.svc.UndoMatch(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing match: err = %v, want ErrNotFound", err)
	}
	if err := f.svc.UndoMatch(ctx, "league-1"); !errors.Is(err, ErrMatchNotInCup) {
		t.Errorf("ladder match: err = %v, want ErrMatchNotInCup", err)
	}
	if err := f.svc.UndoMatch(ctx, "m1"); err != nil {
		t.Fatalf("UndoMatch: %v", err)
	}

	board, err := f.svc.GetBoard(ctx)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if board.GroupAFinished {
		t.Error("group A still finished after undo")
	}
	if _, err := f.svc.RunDraw(ctx, []string{"p1", "p2", "p3", "p4"}); err != nil {
		t.Errorf("draw should unlock once the only match is undone: %v", err)
	}
}

func TestCupService_UndoRefusedWhileLaterPhaseDecided(t *testing.T) {
	f := drawFour(t)
	ctx := context.Background()
	f.finishGroups(t) // m1, m2
	if _, err := f.svc.SetFinalsMode(ctx, models.FinalsModeSemisAndFinal); err != nil {
		t.Fatalf("SetFinalsMode: %v", err)
	}
	f.report(t, "p4", "p1", models.PhaseSemi1) // m3
	f.report(t, "p2", "p3", models.PhaseSemi2) // m4
	f.report(t, "p2", "p4", models.PhaseFinal) // m5

	if err := f.svc.UndoMatch(ctx, "m3"); !errors.Is(err, ErrUndoBlocked) {
		t.Errorf("undo semi with final played: err = %v, want ErrUndoBlocked", err)
	}
	if err := f.svc.UndoMatch(ctx, "m1"); !errors.Is(err, ErrUndoBlocked) {
		t.Errorf("undo group match with knockout played: err = %v, want ErrUndoBlocked", err)
	}
	if f.matches.count() != 5 {
		t.Fatalf("matches = %d, want 5 after refused undos", f.matches.count())
	}

	if err := f.svc.UndoMatch(ctx, "m5"); err != nil {
		t.Fatalf("undo final: %v", err)
	}
	if err := f.svc.UndoMatch(ctx, "m3"); err != nil {
		t.Fatalf("undo semi once the final is gone: %v", err)
	}

	board, err := f.svc.GetBoard(ctx)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if final := board.Bracket.Fixture(models.PhaseFinal); final.Ready() || final.Decided {
		t.Errorf("final = %+v, want awaiting semi 1", final)
	}
	if _, err := f.svc.FinishCup(ctx, "p2"); !errors.Is(err, ErrFinalUndecided) {
		t.Errorf("finish after undo: err = %v, want ErrFinalUndecided", err)
	}
}

func TestBuildBoard_FlagsUnknownPlayers(t *testing.T) {
	phase := models.PhaseGroupA
	cupID := "c"
	snap := &cupSnapshot{
		cup:    &models.Cup{ID: cupID, Status: models.CupStatusGroups, FinalsMode: models.FinalsModeNone},
		roster: []*models.Player{{ID: "p1"}, {ID: "p2"}},
		assignments: []*models.CupPlayer{
			{CupID: cupID, PlayerID: "p1", Group: models.GroupA},
			{CupID: cupID, PlayerID: "p2", Group: models.GroupA},
			{CupID: cupID, PlayerID: "gone", Group: models.GroupB},
		},
		matches: []*models.Match{
			{ID: "m1", WinnerID: "p1", LoserID: "gone", Type: models.MatchTypeCup, CupID: &cupID, Phase: &phase},
		},
	}

	board := buildBoard(snap)
	if len(board.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", board.Warnings)
	}
	if len(board.GroupB) != 0 {
		t.Errorf("group B = %d rows, want 0", len(board.GroupB))
	}
	if board.GroupA[0].Player.ID != "p1" || board.GroupA[0].Wins != 0 || board.GroupA[0].Losses != 0 {
		t.Errorf("group A leader = %+v, want p1 without a record", board.GroupA[0])
	}
	if board.GroupAFinished {
		t.Error("group A finished on an outcome against an unknown player")
	}
	if board.Bracket.Unlocked {
		t.Error("knockout unlocked before group A played its fixture")
	}
}
