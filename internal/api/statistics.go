package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/sse"
	"github.com/brandoo/console/internal/stats"
)

const entityStatistic = "statistic"

// ListStatistics handles GET /api/statistics.
func (h *Handler) ListStatistics(w http.ResponseWriter, r *http.Request) {
	list, err := h.stats.List(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, "Statistiky se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// StatisticSummary handles GET /api/statistics/{id}/summary.
//
//	@Summary		Aggregate one statistic over an interval
//	@Tags			statistics
//	@Produce		json
//	@Param			id			path		string	true	"Statistic id"
//	@Param			interval	query		string	false	"Interval"	Enums(today, last-week, last-month, last-year, all)
//	@Success		200			{object}	stats.Summary
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/statistics/{id}/summary [get]
func (h *Handler) StatisticSummary(w http.ResponseWriter, r *http.Request) {
	iv, err := stats.ParseInterval(r.URL.Query().Get("interval"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	sum, err := h.stats.Summary(r.Context(), userID(r), chi.URLParam(r, "id"), iv)
	if err != nil {
		h.fail(w, r, "Statistiku se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// CreateStatistic handles POST /api/statistics.
func (h *Handler) CreateStatistic(w http.ResponseWriter, r *http.Request) {
	var in models.StatisticInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.stats.Create(r.Context(), userID(r), in); err != nil {
		h.fail(w, r, "Statistiku se nepodařilo vytvořit", err)
		return
	}
	h.done(r, "Statistika vytvořena", entityStatistic, sse.ChangeCreated, "")
	w.WriteHeader(http.StatusCreated)
}

// UpdateStatistic handles PUT /api/statistics/{id}.
func (h *Handler) UpdateStatistic(w http.ResponseWriter, r *http.Request) {
	var in models.StatisticInput
	if !decodeJSON(w, r, &in) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.stats.Update(r.Context(), id, in); err != nil {
		h.fail(w, r, "Statistiku se nepodařilo upravit", err)
		return
	}
	h.done(r, "Statistika upravena", entityStatistic, sse.ChangeUpdated, id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteStatistic handles DELETE /api/statistics/{id}.
func (h *Handler) DeleteStatistic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.stats.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "Statistiku se nepodařilo smazat", err)
		return
	}
	h.done(r, "Statistika smazána", entityStatistic, sse.ChangeDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

// ResetStatistic handles POST /api/statistics/{id}/reset.
func (h *Handler) ResetStatistic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.stats.Reset(r.Context(), id); err != nil {
		h.fail(w, r, "Statistiku se nepodařilo vynulovat", err)
		return
	}
	h.done(r, "Statistika vynulována", entityStatistic, sse.ChangeUpdated, id)
	w.WriteHeader(http.StatusNoContent)
}
