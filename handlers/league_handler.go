package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/kotc-scoreboard/services"
)

type LeagueHandler struct {
	leagueService services.LeagueService
}

func NewLeagueHandler(ls services.LeagueService) *LeagueHandler {
	return &LeagueHandler{leagueService: ls}
}

// Leaderboard handles GET /league/leaderboard?date=YYYY-MM-DD.
func (h *LeagueHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.leagueService.Leaderboard(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) CurrentKing(w http.ResponseWriter, r *http.Request) {
	king, err := h.leagueService.CurrentKing(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"king": king}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) DayWinners(w http.ResponseWriter, r *http.Request) {
	ranks, err := h.leagueService.DayWinners(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"day_winners": ranks}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TotalWins handles GET /league/total-wins?limit=N.
func (h *LeagueHandler) TotalWins(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequestResponse(w, r, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	ranks, err := h.leagueService.TotalWins(r.Context(), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"total_wins": ranks}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReportMatch handles POST /league/matches.
func (h *LeagueHandler) ReportMatch(w http.ResponseWriter, r *http.Request) {
	var input services.ReportLeagueMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var err error
	if input.WinnerID, err = parseUUID(input.WinnerID, "winner_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.LoserID, err = parseUUID(input.LoserID, "loser_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	points, err := h.leagueService.ReportMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	response := jsonResponse{"points": points, "tier": points.Tier()}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UndoMatch handles DELETE /league/matches/{matchID}.
func (h *LeagueHandler) UndoMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.leagueService.UndoMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloseDay handles POST /league/close-day.
func (h *LeagueHandler) CloseDay(w http.ResponseWriter, r *http.Request) {
	closing, err := h.leagueService.CloseDay(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": closing}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
