package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/richtext"
)

// GetSession handles GET /api/session. It answers without a session.
func (h *Handler) GetSession(w http.ResponseWriter, _ *http.Request) {
	st := h.session.State()
	resp := SessionResponse{
		SignedIn: st.Active(time.Now()) && st.Token != "",
		User:     st.User,
		DevMode:  st.DevMode,
	}
	if !st.ExpiresAt.IsZero() {
		resp.ExpiresAt = st.ExpiresAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// SignIn handles POST /api/session.
//
//	@Summary		Sign in against the backend
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SignInRequest	true	"Credentials"
//	@Success		200		{object}	models.User
//	@Failure		401		{object}	errResponse
//	@Router			/session [post]
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.session.SignIn(r.Context(), h.client, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "Přihlášení se nezdařilo", err)
		return
	}
	h.ws.Reset()
	h.notifier.Success(r.Context(), "Přihlášení proběhlo úspěšně")
	writeJSON(w, http.StatusOK, user)
}

// SignOut handles DELETE /api/session.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.session.SignOut(); err != nil {
		h.fail(w, r, "Odhlášení se nezdařilo", err)
		return
	}
	h.ws.Reset()
	h.notifier.Info(r.Context(), "Odhlášeno")
	w.WriteHeader(http.StatusNoContent)
}

// ToggleDevMode handles POST /api/session/dev-mode.
func (h *Handler) ToggleDevMode(w http.ResponseWriter, r *http.Request) {
	on, err := h.session.ToggleDevMode()
	if err != nil {
		h.fail(w, r, "Vývojářský režim se nepodařilo přepnout", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"devMode": on})
}

// SetUserFormInfo handles PUT /api/session/user-form-info.
func (h *Handler) SetUserFormInfo(w http.ResponseWriter, r *http.Request) {
	var req UserFormInfoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.session.SetUserFormInfo(r.Context(), h.client, models.UserFormInfo(req))
	if err != nil {
		h.fail(w, r, "Kontaktní údaje se nepodařilo uložit", err)
		return
	}
	h.notifier.Success(r.Context(), "Kontaktní údaje uloženy")
	writeJSON(w, http.StatusOK, user)
}

// Activity handles GET /api/activity: the most recent backend writes made
// by the console.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "Historii se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ApplyRichText handles POST /api/richtext/apply. Nothing is stored; the
// page saves the returned HTML through the content endpoints.
func (h *Handler) ApplyRichText(w http.ResponseWriter, r *http.Request) {
	var req RichTextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	html, state, err := richtext.Apply(req.Content, req.Commands...)
	if err != nil {
		status, msg := statusOf(err)
		writeJSON(w, status, errorBody(msg))
		return
	}
	writeJSON(w, http.StatusOK, RichTextResponse{HTML: html, State: state})
}
