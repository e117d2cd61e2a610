package api

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brandoo/console/internal/events"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/sse"
)

const entityEvent = "event"

// EventResponse is an event with the display titles of its links.
type EventResponse struct {
	Event models.Event      `json:"event"`
	Links []events.LinkChip `json:"links"`
}

// ListEvents handles GET /api/events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.events.ForUser(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, "Události se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ResponseEvents handles GET /api/responses/{id}/events.
func (h *Handler) ResponseEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.events.ForResponse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Události se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateResponseEvent handles POST /api/responses/{id}/events. The body is
// the detailed response the event is created for; its id comes from the
// path.
//
//	@Summary		Create the default event of a form response
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Response id"
//	@Param			body	body		models.DetailedResponse	false	"Response details"
//	@Success		201		{object}	models.Event
//	@Security		BearerAuth
//	@Router			/responses/{id}/events [post]
func (h *Handler) CreateResponseEvent(w http.ResponseWriter, r *http.Request) {
	var resp models.DetailedResponse
	if r.ContentLength != 0 && !decodeJSON(w, r, &resp) {
		return
	}
	resp.ID = chi.URLParam(r, "id")
	e, err := h.events.CreateForResponse(r.Context(), resp, userID(r))
	if err != nil {
		h.fail(w, r, "Událost se nepodařilo vytvořit", err)
		return
	}
	h.done(r, "Událost vytvořena", entityEvent, sse.ChangeCreated, e.ID)
	writeJSON(w, http.StatusCreated, e)
}

// GetEvent handles GET /api/events/{id}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Událost se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, EventResponse{Event: e, Links: h.events.LinkChips(r.Context(), e.Links)})
}

// UpdateEvent handles PATCH /api/events/{id}.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var p events.Patch
	if !decodeJSON(w, r, &p) {
		return
	}
	id := chi.URLParam(r, "id")
	e, err := h.events.Update(r.Context(), id, p)
	if err != nil {
		h.fail(w, r, "Událost se nepodařilo uložit", err)
		return
	}
	h.done(r, "Událost uložena", entityEvent, sse.ChangeUpdated, id)
	writeJSON(w, http.StatusOK, e)
}

// DeleteEvent handles DELETE /api/events/{id}.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.events.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "Událost se nepodařilo smazat", err)
		return
	}
	h.done(r, "Událost smazána", entityEvent, sse.ChangeDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

// EventICS handles GET /api/events/{id}/ics.
func (h *Handler) EventICS(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.events.Calendar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Kalendář se nepodařilo vytvořit", err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("ics write failed", slog.String("error", err.Error()))
	}
}
