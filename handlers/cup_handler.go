package handlers

import (
	"net/http"

	"github.com/Dosada05/kotc-scoreboard/models"
	"github.com/Dosada05/kotc-scoreboard/services"
)

type CupHandler struct {
	cupService services.CupService
}

func NewCupHandler(cs services.CupService) *CupHandler {
	return &CupHandler{cupService: cs}
}

// GetBoard handles GET /cup.
func (h *CupHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.cupService.GetBoard(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"board": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RunDraw handles POST /cup/draw.
func (h *CupHandler) RunDraw(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PlayerIDs []string `json:"player_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ids := make([]string, 0, len(input.PlayerIDs))
	for _, raw := range input.PlayerIDs {
		id, err := parseUUID(raw, "player_ids")
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		ids = append(ids, id)
	}

	board, err := h.cupService.RunDraw(r.Context(), ids)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"board": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReportMatch handles POST /cup/matches.
func (h *CupHandler) ReportMatch(w http.ResponseWriter, r *http.Request) {
	var input services.ReportCupMatchInput
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

	match, err := h.cupService.ReportMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UndoMatch handles DELETE /cup/matches/{matchID}.
func (h *CupHandler) UndoMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.cupService.UndoMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFinalsMode handles PUT /cup/finals-mode.
func (h *CupHandler) SetFinalsMode(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Mode models.FinalsMode `json:"mode"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	board, err := h.cupService.SetFinalsMode(r.Context(), input.Mode)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"board": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Finish handles POST /cup/finish.
func (h *CupHandler) Finish(w http.ResponseWriter, r *http.Request) {
	var input struct {
		WinnerID string `json:"winner_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	winnerID, err := parseUUID(input.WinnerID, "winner_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	board, err := h.cupService.FinishCup(r.Context(), winnerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"board": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
