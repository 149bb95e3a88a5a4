package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/brewbracket/tournament-system/middleware"
	"github.com/brewbracket/tournament-system/models"
	"github.com/brewbracket/tournament-system/services"
	"github.com/go-chi/chi/v5"
)

// AdminHandler covers dispute adjudication and direct match overrides.
type AdminHandler struct {
	adjudicationService services.AdjudicationService
	statsService        services.StatsService
}

func NewAdminHandler(adjudicationService services.AdjudicationService, statsService services.StatsService) *AdminHandler {
	return &AdminHandler{
		adjudicationService: adjudicationService,
		statsService:        statsService,
	}
}

type resolveDisputeInput struct {
	Resolution models.DisputeResolution  `json:"resolution"`
	Override   *services.OverridePayload `json:"override,omitempty"`
}

func (h *AdminHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	disputeID := chi.URLParam(r, "disputeID")
	if disputeID == "" {
		badRequestResponse(w, r, errors.New("dispute id is required"))
		return
	}
	adminID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input resolveDisputeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.adjudicationService.ResolveDispute(r.Context(), disputeID, adminID, input.Resolution, input.Override); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "resolved", "resolution": input.Resolution}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type overrideMatchInput struct {
	WinnerTeamID int    `json:"winner_team_id"`
	ScoreA       int    `json:"score_a"`
	ScoreB       int    `json:"score_b"`
	Reason       string `json:"reason"`
}

func (h *AdminHandler) OverrideMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	adminID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input overrideMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	payload := services.OverridePayload{
		WinnerTeamID: input.WinnerTeamID,
		ScoreA:       input.ScoreA,
		ScoreB:       input.ScoreB,
	}
	if err := h.adjudicationService.OverrideMatch(r.Context(), matchID, adminID, payload, input.Reason); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "overridden"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.DisputeStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.DisputeStatus(raw)
		if s != models.DisputeOpen && s != models.DisputeResolved {
			badRequestResponse(w, r, errors.New("status must be 'open' or 'resolved'"))
			return
		}
		status = &s
	}

	disputes, err := h.adjudicationService.ListDisputes(r.Context(), tournamentID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"disputes": disputes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ListActionLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.statsService.ListAdminLog(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"actions": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
