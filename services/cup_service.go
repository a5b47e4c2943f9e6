package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/Dosada05/kotc-scoreboard/brackets"
	"github.com/Dosada05/kotc-scoreboard/models"
	"github.com/Dosada05/kotc-scoreboard/repositories"
	"github.com/Dosada05/kotc-scoreboard/utils"
	"golang.org/x/sync/errgroup"
)

type CupService interface {
	GetBoard(ctx context.Context) (*models.CupBoard, error)
	RunDraw(ctx context.Context, playerIDs []string) (*models.CupBoard, error)
	ReportMatch(ctx context.Context, input ReportCupMatchInput) (*models.Match, error)
	UndoMatch(ctx context.Context, matchID string) error
	SetFinalsMode(ctx context.Context, mode models.FinalsMode) (*models.CupBoard, error)
	FinishCup(ctx context.Context, winnerID string) (*models.CupBoard, error)
}

type ReportCupMatchInput struct {
	WinnerID string          `json:"winner_id"`
	LoserID  string          `json:"loser_id"`
	Phase    models.CupPhase `json:"phase"`
}

type cupService struct {
	tx         repositories.Transactor
	cupRepo    repositories.CupRepository
	playerRepo repositories.PlayerRepository
	matchRepo  repositories.MatchRepository
	notifier   Notifier
	cupTitle   string
	shuffle    func(n int, swap func(i, j int))
	logger     *slog.Logger
}

func NewCupService(
	tx repositories.Transactor,
	cupRepo repositories.CupRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	notifier Notifier,
	cupTitle string,
	logger *slog.Logger,
) CupService {
	return &cupService{
		tx:         tx,
		cupRepo:    cupRepo,
		playerRepo: playerRepo,
		matchRepo:  matchRepo,
		notifier:   notifier,
		cupTitle:   cupTitle,
		shuffle:    rand.Shuffle,
		logger:     logger.With(slog.String("service", "cup")),
	}
}

// cupSnapshot is the raw state a board is derived from.
type cupSnapshot struct {
	cup         *models.Cup
	roster      []*models.Player
	assignments []*models.CupPlayer
	matches     []*models.Match
}

func (s *cupService) loadSnapshot(ctx context.Context) (*cupSnapshot, error) {
	snap := &cupSnapshot{}

	cup, err := s.cupRepo.GetLatest(ctx, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrCupNotFound) {
			return snap, nil
		}
		return nil, fmt.Errorf("failed to load latest cup: %w", err)
	}
	snap.cup = cup

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		roster, err := s.playerRepo.ListWithTotals(gctx, nil)
		if err != nil {
			return fmt.Errorf("failed to load roster: %w", err)
		}
		snap.roster = roster
		return nil
	})
	g.Go(func() error {
		assignments, err := s.cupRepo.ListPlayers(gctx, nil, cup.ID)
		if err != nil {
			return fmt.Errorf("failed to load group assignments: %w", err)
		}
		snap.assignments = assignments
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByCup(gctx, nil, cup.ID)
		if err != nil {
			return fmt.Errorf("failed to load cup matches: %w", err)
		}
		snap.matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// buildBoard joins assignments to the roster and derives standings, group
// completion and the bracket. It performs no I/O.
func buildBoard(snap *cupSnapshot) *models.CupBoard {
	board := &models.CupBoard{
		Cup:       snap.cup,
		GroupA:    []*models.Standing{},
		GroupB:    []*models.Standing{},
		PairingsA: []*models.GroupPairing{},
		PairingsB: []*models.GroupPairing{},
		Bracket:   &models.Bracket{Fixtures: []*models.Fixture{}},
	}
	if snap.cup == nil {
		return board
	}

	byID := make(map[string]*models.Player, len(snap.roster))
	for _, p := range snap.roster {
		byID[p.ID] = p
	}

	groups := map[models.GroupName][]*models.Player{}
	for _, a := range snap.assignments {
		p, ok := byID[a.PlayerID]
		if !ok {
			board.Warnings = append(board.Warnings, fmt.Sprintf("group %s lists unknown player %s", a.Group, a.PlayerID))
			continue
		}
		a.Player = p
		groups[a.Group] = append(groups[a.Group], p)
	}

	outcomesA := brackets.FilterByPhase(snap.matches, models.PhaseGroupA)
	outcomesB := brackets.FilterByPhase(snap.matches, models.PhaseGroupB)
	finals := brackets.FinalsOutcomes(snap.matches)

	board.GroupA = brackets.CalculateStandings(groups[models.GroupA], outcomesA)
	board.GroupB = brackets.CalculateStandings(groups[models.GroupB], outcomesB)
	board.PairingsA = brackets.PairingsWithResults(groups[models.GroupA], outcomesA)
	board.PairingsB = brackets.PairingsWithResults(groups[models.GroupB], outcomesB)
	board.GroupAFinished = brackets.GroupFinished(len(groups[models.GroupA]), len(brackets.ResolvedOutcomes(groups[models.GroupA], outcomesA)))
	board.GroupBFinished = brackets.GroupFinished(len(groups[models.GroupB]), len(brackets.ResolvedOutcomes(groups[models.GroupB], outcomesB)))

	all := append(append([]*models.Player{}, groups[models.GroupA]...), groups[models.GroupB]...)
	board.Warnings = append(board.Warnings, unresolvedWarnings(groups[models.GroupA], outcomesA)...)
	board.Warnings = append(board.Warnings, unresolvedWarnings(groups[models.GroupB], outcomesB)...)
	board.Warnings = append(board.Warnings, unresolvedWarnings(all, finals)...)

	unlocked := brackets.KnockoutUnlocked(board.GroupAFinished, board.GroupBFinished, snap.cup.Status, finals)
	board.Bracket = brackets.DeriveBracket(brackets.KnockoutParams{
		GroupA:   board.GroupA,
		GroupB:   board.GroupB,
		Mode:     snap.cup.FinalsMode,
		Outcomes: finals,
		Unlocked: unlocked,
	})
	return board
}

func unresolvedWarnings(players []*models.Player, outcomes []*models.Match) []string {
	var warnings []string
	for _, m := range brackets.UnresolvedOutcomes(players, outcomes) {
		phase := ""
		if m.Phase != nil {
			phase = string(*m.Phase)
		}
		warnings = append(warnings, fmt.Sprintf("match %s (%s) names a player outside the group", m.ID, phase))
	}
	return warnings
}

func (s *cupService) GetBoard(ctx context.Context) (*models.CupBoard, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	board := buildBoard(snap)
	for _, w := range board.Warnings {
		s.logger.Warn("inconsistent cup data", slog.String("warning", w))
	}
	return board, nil
}

// activeBoard loads the board and fails unless a cup is in progress.
func (s *cupService) activeBoard(ctx context.Context) (*cupSnapshot, *models.CupBoard, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	if snap.cup == nil {
		return nil, nil, ErrNoActiveCup
	}
	if snap.cup.Status == models.CupStatusFinished {
		return nil, nil, ErrCupAlreadyFinished
	}
	return snap, buildBoard(snap), nil
}

func (s *cupService) RunDraw(ctx context.Context, playerIDs []string) (*models.CupBoard, error) {
	ids := distinctIDs(playerIDs)
	if len(ids) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	roster, err := s.playerRepo.ListWithTotals(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	known := make(map[string]bool, len(roster))
	for _, p := range roster {
		known[p.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
		}
	}

	latest, err := s.cupRepo.GetLatest(ctx, nil)
	if err != nil && !errors.Is(err, repositories.ErrCupNotFound) {
		return nil, fmt.Errorf("failed to load latest cup: %w", err)
	}
	if latest != nil && (latest.Status == models.CupStatusGroups || latest.Status == models.CupStatusFinals) {
		played, err := s.matchRepo.CountByCup(ctx, nil, latest.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count cup matches: %w", err)
		}
		if played > 0 || latest.Status == models.CupStatusFinals {
			return nil, ErrDrawLocked
		}
	}

	groupA, groupB := brackets.SplitGroups(ids, s.shuffle)

	var cupID string
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		cup := latest
		if cup == nil || cup.Status == models.CupStatusFinished {
			editions, err := s.cupRepo.Count(ctx, exec)
			if err != nil {
				return err
			}
			cup = &models.Cup{
				Name:       fmt.Sprintf("%s %s", utils.ToRoman(editions+1), s.cupTitle),
				Status:     models.CupStatusGroups,
				FinalsMode: models.FinalsModeNone,
			}
			if err := s.cupRepo.Create(ctx, exec, cup); err != nil {
				return err
			}
		} else if cup.Status == models.CupStatusSetup {
			if err := s.cupRepo.UpdateStatus(ctx, exec, cup.ID, models.CupStatusGroups); err != nil {
				return err
			}
		}
		cupID = cup.ID

		assignments := make([]*models.CupPlayer, 0, len(ids))
		for _, id := range groupA {
			assignments = append(assignments, &models.CupPlayer{CupID: cup.ID, PlayerID: id, Group: models.GroupA})
		}
		for _, id := range groupB {
			assignments = append(assignments, &models.CupPlayer{CupID: cup.ID, PlayerID: id, Group: models.GroupB})
		}
		return s.cupRepo.ReplacePlayers(ctx, exec, cup.ID, assignments)
	})
	if err != nil {
		return nil, fmt.Errorf("draw failed: %w", err)
	}

	s.logger.Info("cup draw completed",
		slog.String("cup_id", cupID),
		slog.Int("group_a", len(groupA)),
		slog.Int("group_b", len(groupB)),
	)
	s.notifier.Publish(TopicCup)
	return s.GetBoard(ctx)
}

func distinctIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (s *cupService) ReportMatch(ctx context.Context, input ReportCupMatchInput) (*models.Match, error) {
	if input.WinnerID == "" || input.LoserID == "" {
		return nil, fmt.Errorf("%w: winner_id and loser_id are required", ErrValidationFailed)
	}
	if !input.Phase.IsValid() {
		return nil, ErrInvalidPhase
	}
	if input.WinnerID == input.LoserID {
		return nil, ErrSamePlayer
	}

	snap, board, err := s.activeBoard(ctx)
	if err != nil {
		return nil, err
	}

	if group, ok := input.Phase.Group(); ok {
		if err := checkGroupReport(snap, group, input); err != nil {
			return nil, err
		}
	} else if err := checkFinalsReport(board, input); err != nil {
		return nil, err
	}

	phase := input.Phase
	match := &models.Match{
		WinnerID:      input.WinnerID,
		LoserID:       input.LoserID,
		Type:          models.MatchTypeCup,
		CupID:         &snap.cup.ID,
		Phase:         &phase,
		PointsAwarded: 0,
	}
	if err := s.matchRepo.Create(ctx, nil, match); err != nil {
		if errors.Is(err, repositories.ErrMatchPlayerInvalid) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to record cup match: %w", err)
	}

	s.logger.Info("cup match reported",
		slog.String("match_id", match.ID),
		slog.String("phase", string(phase)),
		slog.String("winner_id", match.WinnerID),
	)
	s.notifier.Publish(TopicCup)
	return match, nil
}

func checkGroupReport(snap *cupSnapshot, group models.GroupName, input ReportCupMatchInput) error {
	if snap.cup.Status != models.CupStatusGroups {
		return ErrGroupStageClosed
	}
	members := make(map[string]bool)
	for _, a := range snap.assignments {
		if a.Group == group {
			members[a.PlayerID] = true
		}
	}
	if !members[input.WinnerID] || !members[input.LoserID] {
		return ErrPlayerNotInGroup
	}
	for _, m := range brackets.FilterByPhase(snap.matches, input.Phase) {
		if m.Involves(input.WinnerID, input.LoserID) {
			return ErrMatchAlreadyReported
		}
	}
	return nil
}

func checkFinalsReport(board *models.CupBoard, input ReportCupMatchInput) error {
	if !board.Bracket.Unlocked {
		return ErrKnockoutLocked
	}
	fixture := board.Bracket.Fixture(input.Phase)
	if fixture == nil {
		return ErrPhaseNotActive
	}
	if fixture.Decided {
		return ErrMatchAlreadyReported
	}
	if !fixture.Ready() {
		return ErrFixtureNotReady
	}
	p1, p2 := fixture.Player1.ID, fixture.Player2.ID
	if !((input.WinnerID == p1 && input.LoserID == p2) || (input.WinnerID == p2 && input.LoserID == p1)) {
		return ErrFixtureMismatch
	}
	return nil
}

func (s *cupService) UndoMatch(ctx context.Context, matchID string) error {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load match: %w", err)
	}

	cup, err := s.cupRepo.GetLatest(ctx, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrCupNotFound) {
			return ErrNoActiveCup
		}
		return fmt.Errorf("failed to load latest cup: %w", err)
	}
	if match.Type != models.MatchTypeCup || match.CupID == nil || *match.CupID != cup.ID {
		return ErrMatchNotInCup
	}
	if cup.Status == models.CupStatusFinished {
		return ErrCupAlreadyFinished
	}
	if match.Phase != nil {
		matches, err := s.matchRepo.ListByCup(ctx, nil, cup.ID)
		if err != nil {
			return fmt.Errorf("failed to load cup matches: %w", err)
		}
		if hasDependentOutcome(*match.Phase, matches) {
			return ErrUndoBlocked
		}
	}

	if err := s.matchRepo.Undo(ctx, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to undo cup match: %w", err)
	}

	s.logger.Info("cup match undone", slog.String("match_id", matchID))
	s.notifier.Publish(TopicCup)
	return nil
}

// hasDependentOutcome reports whether a recorded outcome was seeded from phase:
// any knockout result depends on the groups, the final and third place depend
// on the semifinals.
func hasDependentOutcome(phase models.CupPhase, matches []*models.Match) bool {
	for _, m := range matches {
		if m.Phase == nil {
			continue
		}
		switch {
		case phase.IsGroup():
			if m.Phase.IsFinals() {
				return true
			}
		case phase == models.PhaseSemi1 || phase == models.PhaseSemi2:
			if *m.Phase == models.PhaseFinal || *m.Phase == models.PhaseThirdFourth {
				return true
			}
		}
	}
	return false
}

func (s *cupService) SetFinalsMode(ctx context.Context, mode models.FinalsMode) (*models.CupBoard, error) {
	if !mode.IsValid() || mode == models.FinalsModeNone {
		return nil, ErrInvalidFinalsMode
	}

	snap, board, err := s.activeBoard(ctx)
	if err != nil {
		return nil, err
	}
	if snap.cup.FinalsMode != "" && snap.cup.FinalsMode != models.FinalsModeNone {
		return nil, ErrFinalsModeLocked
	}
	if !board.Bracket.Unlocked {
		return nil, ErrKnockoutLocked
	}

	if err := s.cupRepo.SetFinalsMode(ctx, nil, snap.cup.ID, mode); err != nil {
		if errors.Is(err, repositories.ErrCupFinalsModeLocked) {
			return nil, ErrFinalsModeLocked
		}
		return nil, fmt.Errorf("failed to set finals mode: %w", err)
	}

	s.logger.Info("finals mode chosen", slog.String("cup_id", snap.cup.ID), slog.String("mode", string(mode)))
	s.notifier.Publish(TopicCup)
	return s.GetBoard(ctx)
}

func (s *cupService) FinishCup(ctx context.Context, winnerID string) (*models.CupBoard, error) {
	if winnerID == "" {
		return nil, fmt.Errorf("%w: winner_id is required", ErrValidationFailed)
	}

	snap, board, err := s.activeBoard(ctx)
	if err != nil {
		return nil, err
	}
	final := board.Bracket.Fixture(models.PhaseFinal)
	if final == nil || !final.Decided {
		return nil, ErrFinalUndecided
	}
	if final.Outcome.WinnerID != winnerID {
		return nil, ErrChampionMismatch
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.cupRepo.Finish(ctx, exec, snap.cup.ID, winnerID); err != nil {
			return err
		}
		return s.cupRepo.IncrementCupWins(ctx, exec, winnerID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrCupAlreadyFinished) {
			return nil, ErrCupAlreadyFinished
		}
		return nil, fmt.Errorf("failed to finish cup: %w", err)
	}

	s.logger.Info("cup finished", slog.String("cup_id", snap.cup.ID), slog.String("winner_id", winnerID))
	s.notifier.Publish(TopicCup, TopicLeague)
	return s.GetBoard(ctx)
}
