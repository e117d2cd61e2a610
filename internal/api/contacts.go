package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/registry"
	"github.com/brandoo/console/internal/sse"
)

const (
	entityContact     = "contact"
	entityContactForm = "contact-form"
	entityLabel       = "label"
	xlsxMIME          = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ListContacts handles GET /api/contacts.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	list, err := h.contacts.List(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, "Kontakty se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UnseenContacts handles GET /api/contacts/unseen.
func (h *Handler) UnseenContacts(w http.ResponseWriter, r *http.Request) {
	n, err := h.contacts.Unseen(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, "Nepřečtené kontakty se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unseen": n})
}

// MarkContactRead handles POST /api/contacts/{id}/read.
func (h *Handler) MarkContactRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.contacts.MarkRead(r.Context(), id); err != nil {
		h.fail(w, r, "Kontakt se nepodařilo označit", err)
		return
	}
	h.done(r, "", entityContact, sse.ChangeUpdated, id)
	w.WriteHeader(http.StatusNoContent)
}

// SetContactDescription handles PUT /api/contacts/{id}/description.
func (h *Handler) SetContactDescription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.contacts.SetDescription(r.Context(), id, req.Description); err != nil {
		h.fail(w, r, "Poznámku se nepodařilo uložit", err)
		return
	}
	h.done(r, "Poznámka uložena", entityContact, sse.ChangeUpdated, id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteContact handles DELETE /api/contacts/{id}.
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.contacts.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "Kontakt se nepodařilo smazat", err)
		return
	}
	h.done(r, "Kontakt smazán", entityContact, sse.ChangeDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

// ToggleContactLabel handles PUT /api/contacts/{id}/labels/{labelID}: the
// label is attached when missing and detached otherwise.
//
//	@Summary		Toggle a label on a contact
//	@Tags			contacts
//	@Produce		json
//	@Param			id		path		string	true	"Contact id"
//	@Param			labelID	path		string	true	"Label id"
//	@Success		200		{object}	map[string][]string
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id}/labels/{labelID} [put]
func (h *Handler) ToggleContactLabel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	labels, err := h.contacts.ToggleLabel(r.Context(), id, chi.URLParam(r, "labelID"))
	if err != nil {
		h.fail(w, r, "Štítek se nepodařilo změnit", err)
		return
	}
	h.done(r, "", entityContact, sse.ChangeUpdated, id)
	writeJSON(w, http.StatusOK, map[string][]string{"labels": labels})
}

// ListLabels handles GET /api/labels.
func (h *Handler) ListLabels(w http.ResponseWriter, r *http.Request) {
	list, err := h.contacts.Labels(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, "Štítky se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateLabel handles POST /api/labels.
func (h *Handler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	var in models.LabelInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.contacts.CreateLabel(r.Context(), userID(r), in); err != nil {
		h.fail(w, r, "Štítek se nepodařilo vytvořit", err)
		return
	}
	h.done(r, "Štítek vytvořen", entityLabel, sse.ChangeCreated, "")
	w.WriteHeader(http.StatusCreated)
}

// UpdateLabel handles PUT /api/labels/{id}.
func (h *Handler) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	var in models.LabelInput
	if !decodeJSON(w, r, &in) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.contacts.UpdateLabel(r.Context(), id, in); err != nil {
		h.fail(w, r, "Štítek se nepodařilo upravit", err)
		return
	}
	h.done(r, "Štítek upraven", entityLabel, sse.ChangeUpdated, id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteLabel handles DELETE /api/labels/{id}. The label is detached from
// every contact first.
func (h *Handler) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.contacts.DeleteLabel(r.Context(), userID(r), id); err != nil {
		h.fail(w, r, "Štítek se nepodařilo smazat", err)
		return
	}
	h.done(r, "Štítek smazán", entityLabel, sse.ChangeDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

// ListContactForms handles GET /api/contact-forms.
func (h *Handler) ListContactForms(w http.ResponseWriter, r *http.Request) {
	list, err := h.contacts.ContactForms(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, "Kontaktní formuláře se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ContactFormProperties handles GET /api/contact-forms/properties: the
// attributes a legacy contact form can ask for.
func (h *Handler) ContactFormProperties(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, registry.SelectFormProperties)
}

// CreateContactForm handles POST /api/contact-forms.
func (h *Handler) CreateContactForm(w http.ResponseWriter, r *http.Request) {
	var in models.ContactForm
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.contacts.CreateContactForm(r.Context(), userID(r), in); err != nil {
		h.fail(w, r, "Kontaktní formulář se nepodařilo vytvořit", err)
		return
	}
	h.done(r, "Kontaktní formulář vytvořen", entityContactForm, sse.ChangeCreated, "")
	w.WriteHeader(http.StatusCreated)
}

// UpdateContactForm handles PUT /api/contact-forms/{id}.
func (h *Handler) UpdateContactForm(w http.ResponseWriter, r *http.Request) {
	var in models.ContactForm
	if !decodeJSON(w, r, &in) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.contacts.UpdateContactForm(r.Context(), id, in); err != nil {
		h.fail(w, r, "Kontaktní formulář se nepodařilo uložit", err)
		return
	}
	h.done(r, "Kontaktní formulář uložen", entityContactForm, sse.ChangeUpdated, id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteContactForm handles DELETE /api/contact-forms/{id}.
func (h *Handler) DeleteContactForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.contacts.DeleteContactForm(r.Context(), id); err != nil {
		h.fail(w, r, "Kontaktní formulář se nepodařilo smazat", err)
		return
	}
	h.done(r, "Kontaktní formulář smazán", entityContactForm, sse.ChangeDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

// ExportContacts handles GET /api/contacts/export.xlsx?form=.
func (h *Handler) ExportContacts(w http.ResponseWriter, r *http.Request) {
	formID := r.URL.Query().Get("form")
	if formID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'form' is required"))
		return
	}
	var buf bytes.Buffer
	if err := h.contacts.ExportForm(r.Context(), userID(r), formID, &buf); err != nil {
		h.fail(w, r, "Export se nepodařil", err)
		return
	}
	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, formID))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export write failed", slog.String("form", formID), slog.String("error", err.Error()))
	}
}
