package handlers

import (
	"errors"
	"net/http"

	"github.com/brewbracket/tournament-system/middleware"
	"github.com/brewbracket/tournament-system/services"
	"github.com/go-chi/chi/v5"
)

// ResolutionHandler exposes the result reporting pipeline: submit a score,
// confirm it early, or dispute it before the grace period runs out.
type ResolutionHandler struct {
	resolutionService services.ResolutionService
	matchService      services.MatchService
}

func NewResolutionHandler(resolutionService services.ResolutionService, matchService services.MatchService) *ResolutionHandler {
	return &ResolutionHandler{
		resolutionService: resolutionService,
		matchService:      matchService,
	}
}

type submitResultInput struct {
	WinnerTeamID int `json:"winner_team_id"`
	ScoreA       int `json:"score_a"`
	ScoreB       int `json:"score_b"`
}

func (h *ResolutionHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	reporterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input submitResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	submissionID, err := h.resolutionService.SubmitResult(r.Context(), matchID, reporterID, input.WinnerTeamID, input.ScoreA, input.ScoreB)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"submission_id": submissionID}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ResolutionHandler) ConfirmResult(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "submissionID")
	if submissionID == "" {
		badRequestResponse(w, r, errors.New("submission id is required"))
		return
	}

	if err := h.resolutionService.ConfirmResult(r.Context(), submissionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "confirmed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type disputeInput struct {
	Reason string `json:"reason"`
}

func (h *ResolutionHandler) DisputeResult(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "submissionID")
	if submissionID == "" {
		badRequestResponse(w, r, errors.New("submission id is required"))
		return
	}
	disputerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input disputeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.resolutionService.RequestDispute(r.Context(), submissionID, disputerID, input.Reason); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "disputed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ResolutionHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	submissions, err := h.matchService.ListSubmissions(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"submissions": submissions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
