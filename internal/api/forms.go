package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/checksum"
	"github.com/brandoo/console/internal/formschema"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/render"
	"github.com/brandoo/console/internal/sse"
)

const entityForm = "form"

// ListForms handles GET /api/forms.
//
//	@Summary		List the forms of the signed-in user
//	@Tags			forms
//	@Produce		json
//	@Success		200	{array}		models.Form
//	@Failure		401	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/forms [get]
func (h *Handler) ListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.client.UserForms(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, "Formuláře se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

// CreateForm handles POST /api/forms.
//
//	@Summary		Create a form with the reserved fields
//	@Tags			forms
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFormRequest	true	"Form to create"
//	@Success		201		{object}	models.FormWithProperties
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/forms [post]
func (h *Handler) CreateForm(w http.ResponseWriter, r *http.Request) {
	var req CreateFormRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := formschema.Create(r.Context(), h.ws.Backend(), userID(r), req.Name, req.Description)
	if err != nil {
		h.fail(w, r, "Formulář se nepodařilo vytvořit", err)
		return
	}
	f := e.Snapshot()
	h.done(r, "Formulář vytvořen", entityForm, sse.ChangeCreated, f.ID)
	writeJSON(w, http.StatusCreated, f)
}

// DeleteForm handles DELETE /api/forms/{id}. Responses go with the form.
func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := formschema.Delete(r.Context(), h.ws.Backend(), id); err != nil {
		h.fail(w, r, "Formulář se nepodařilo smazat", err)
		return
	}
	h.ws.DropForm(id)
	h.done(r, "Formulář smazán", entityForm, sse.ChangeDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

// ResetForm handles POST /api/forms/{id}/reset: all responses are removed,
// the schema stays.
func (h *Handler) ResetForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := formschema.Reset(r.Context(), h.ws.Backend(), id); err != nil {
		h.fail(w, r, "Odpovědi se nepodařilo smazat", err)
		return
	}
	h.done(r, "Odpovědi smazány", entityForm, sse.ChangeUpdated, id)
	w.WriteHeader(http.StatusNoContent)
}

// FormTable handles GET /api/forms/{id}/table.
func (h *Handler) FormTable(w http.ResponseWriter, r *http.Request) {
	t, err := h.client.FormTable(r.Context(), chi.URLParam(r, "id"), tableQuery(r))
	if err != nil {
		h.fail(w, r, "Odpovědi se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// AllResponses handles GET /api/responses: one table over every form.
func (h *Handler) AllResponses(w http.ResponseWriter, r *http.Request) {
	t, err := h.contacts.AllResponses(r.Context(), userID(r), tableQuery(r))
	if err != nil {
		h.fail(w, r, "Odpovědi se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func tableQuery(r *http.Request) models.TableQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return models.TableQuery{
		Page:        page,
		PerPage:     perPage,
		SearchQuery: q.Get("search_query"),
		SortBy:      q.Get("sort_by"),
		SortOrder:   q.Get("sort_order"),
	}
}

// FieldOptions handles GET /api/forms/{id}/editor/fields/{fieldID}/options,
// the public option listing of a saved choice field (developer mode).
func (h *Handler) FieldOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.client.PropertyOptions(r.Context(), chi.URLParam(r, "fieldID"))
	if err != nil {
		h.fail(w, r, "Možnosti se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (h *Handler) editor(w http.ResponseWriter, r *http.Request) (*formschema.Editor, bool) {
	e, err := h.ws.FormEditor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Formulář se nepodařilo načíst", err)
		return nil, false
	}
	return e, true
}

// writeEditor responds with the working copy, its issues and its ETag.
func (h *Handler) writeEditor(w http.ResponseWriter, status int, e *formschema.Editor) {
	f := e.Snapshot()
	if tag, err := checksum.ETag(f); err == nil {
		w.Header().Set("ETag", tag)
	}
	issues := e.Validate()
	if issues == nil {
		issues = []formschema.Issue{}
	}
	writeJSON(w, status, EditorResponse{Form: f, Issues: issues})
}

// GetEditor handles GET /api/forms/{id}/editor.
//
//	@Summary		Get the working copy of a form schema
//	@Tags			forms
//	@Produce		json
//	@Param			id	path		string	true	"Form id"
//	@Success		200	{object}	EditorResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/forms/{id}/editor [get]
func (h *Handler) GetEditor(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	h.writeEditor(w, http.StatusOK, e)
}

// UpdateFormInfo handles PATCH /api/forms/{id}/editor.
func (h *Handler) UpdateFormInfo(w http.ResponseWriter, r *http.Request) {
	var req FormInfoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	if req.Name != nil {
		e.SetName(*req.Name)
	}
	if req.Description != nil {
		e.SetDescription(*req.Description)
	}
	h.writeEditor(w, http.StatusOK, e)
}

// DiscardEditor handles DELETE /api/forms/{id}/editor: local changes are
// dropped and the next read refetches the form.
func (h *Handler) DiscardEditor(w http.ResponseWriter, r *http.Request) {
	h.ws.DropForm(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// AddField handles POST /api/forms/{id}/editor/fields.
func (h *Handler) AddField(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, e.Add())
}

// UpdateField handles PATCH /api/forms/{id}/editor/fields/{fieldID}.
func (h *Handler) UpdateField(w http.ResponseWriter, r *http.Request) {
	var req FieldPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	f, err := patchField(e, chi.URLParam(r, "fieldID"), req)
	if err != nil {
		h.fail(w, r, "Pole se nepodařilo upravit", err)
		return
	}
	if f.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("nothing to update"))
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func patchField(e *formschema.Editor, id string, req FieldPatchRequest) (models.FieldDefinition, error) {
	var (
		f   models.FieldDefinition
		err error
	)
	if req.Label != nil {
		if f, err = e.SetLabel(id, *req.Label); err != nil {
			return f, err
		}
	}
	if req.Type != nil {
		if f, err = e.SetType(id, *req.Type); err != nil {
			return f, err
		}
	}
	if req.Options != nil {
		if f, err = e.SetOptions(id, req.Options); err != nil {
			return f, err
		}
	}
	if req.Required != nil {
		if f, err = e.SetRequired(id, *req.Required); err != nil {
			return f, err
		}
	}
	return f, nil
}

// RemoveField handles DELETE /api/forms/{id}/editor/fields/{fieldID}.
func (h *Handler) RemoveField(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	if err := e.Remove(chi.URLParam(r, "fieldID")); err != nil {
		h.fail(w, r, "Pole nelze odebrat", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveField handles POST /api/forms/{id}/editor/move.
func (h *Handler) MoveField(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	if err := e.Move(req.From, req.To); err != nil {
		h.fail(w, r, "Pole se nepodařilo přesunout", err)
		return
	}
	h.writeEditor(w, http.StatusOK, e)
}

// SaveForm handles POST /api/forms/{id}/editor/save.
//
//	@Summary		Submit the working copy with optimistic concurrency
//	@Tags			forms
//	@Produce		json
//	@Param			id			path		string	true	"Form id"
//	@Param			If-Match	header		string	false	"ETag of the working copy the page last saw"
//	@Success		200			{object}	EditorResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/forms/{id}/editor/save [post]
func (h *Handler) SaveForm(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	if ifMatch := strings.TrimSpace(r.Header.Get("If-Match")); ifMatch != "" {
		tag, err := checksum.ETag(e.Snapshot())
		if err != nil || tag != ifMatch {
			h.fail(w, r, "Formulář byl mezitím změněn", apperr.ErrConflict)
			return
		}
	}
	if err := e.Save(r.Context(), h.ws.Backend()); err != nil {
		h.fail(w, r, "Formulář se nepodařilo uložit", err)
		return
	}
	h.done(r, "Formulář uložen", entityForm, sse.ChangeUpdated, e.FormID())
	h.writeEditor(w, http.StatusOK, e)
}

// PreviewForm handles GET /api/forms/{id}/preview and renders the working
// copy as an HTML fragment.
func (h *Handler) PreviewForm(w http.ResponseWriter, r *http.Request) {
	e, ok := h.editor(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Form(w, e.Snapshot().Properties); err != nil {
		h.logger.Error("form preview failed", slog.String("error", err.Error()))
	}
}
