package handlers

import (
	"net/http"

	"github.com/brewbracket/tournament-system/middleware"
	"github.com/brewbracket/tournament-system/models"
	"github.com/brewbracket/tournament-system/services"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(eventService services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type createEventInput struct {
	Name       string  `json:"name"`
	Rules      *string `json:"rules,omitempty"`
	WinPoints  *int    `json:"win_points,omitempty"`
	LossPoints *int    `json:"loss_points,omitempty"`
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	role, err := middleware.RoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input createEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event := &models.Event{
		Name:       input.Name,
		Rules:      input.Rules,
		WinPoints:  models.DefaultWinPoints,
		LossPoints: models.DefaultLossPoints,
	}
	if input.WinPoints != nil {
		event.WinPoints = *input.WinPoints
	}
	if input.LossPoints != nil {
		event.LossPoints = *input.LossPoints
	}

	if err := h.eventService.Create(r.Context(), event, role); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetByID(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
