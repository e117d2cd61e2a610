package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brandoo/console/internal/cms"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/sse"
)

const entityContent = "content"

// ListRoots handles GET /api/contents/roots.
func (h *Handler) ListRoots(w http.ResponseWriter, r *http.Request) {
	roots, err := h.ws.CMS().ListRoots(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, "Obsah se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, roots)
}

// CreateRoot handles POST /api/contents/roots.
func (h *Handler) CreateRoot(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.CMS().CreateRoot(r.Context(), userID(r)); err != nil {
		h.fail(w, r, "Obsah se nepodařilo vytvořit", err)
		return
	}
	h.done(r, "Obsah vytvořen", entityContent, sse.ChangeCreated, "")
	w.WriteHeader(http.StatusCreated)
}

// RenameRoot handles PUT /api/contents/roots/{id}.
func (h *Handler) RenameRoot(w http.ResponseWriter, r *http.Request) {
	var req AliasRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.ws.CMS().RenameRoot(r.Context(), id, req.Alias); err != nil {
		h.fail(w, r, "Obsah se nepodařilo přejmenovat", err)
		return
	}
	h.done(r, "", entityContent, sse.ChangeUpdated, id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteRoot handles DELETE /api/contents/roots/{id}.
func (h *Handler) DeleteRoot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.ws.CMS().DeleteRoot(r.Context(), id); err != nil {
		h.fail(w, r, "Obsah se nepodařilo smazat", err)
		return
	}
	h.done(r, "Obsah smazán", entityContent, sse.ChangeDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

// GetContent handles GET /api/contents/{id}.
//
//	@Summary		Get one content node with its editing state
//	@Tags			contents
//	@Produce		json
//	@Param			id	path		string	true	"Content id"
//	@Success		200	{object}	ContentResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contents/{id} [get]
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	n, err := h.ws.CMS().Fetch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Obsah se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, contentResponse(n))
}

// PublicContent handles GET /api/contents/{id}/public: the JSON websites
// receive for the node (developer mode).
func (h *Handler) PublicContent(w http.ResponseWriter, r *http.Request) {
	doc, err := h.client.PublicContent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Veřejná data se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ContentResponse is a node with the editing state derived from its type.
type ContentResponse struct {
	Node  models.ContentNode `json:"node"`
	State string             `json:"state"`
}

func contentResponse(n models.ContentNode) ContentResponse {
	return ContentResponse{Node: n, State: cms.StateOf(n).String()}
}

// writeNode responds with an edited node and announces the change.
func (h *Handler) writeNode(w http.ResponseWriter, r *http.Request, n models.ContentNode) {
	h.done(r, "", entityContent, sse.ChangeUpdated, n.ID)
	writeJSON(w, http.StatusOK, contentResponse(n))
}

// ContentTree handles GET /api/contents/{id}/tree.
func (h *Handler) ContentTree(w http.ResponseWriter, r *http.Request) {
	t, err := h.ws.CMS().Tree(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Strom obsahu se nepodařilo načíst", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// PreviewContent handles GET /api/contents/{id}/preview?root=.
func (h *Handler) PreviewContent(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.ws.CMS().Preview(r.Context(), &buf, chi.URLParam(r, "id"), r.URL.Query().Get("root")); err != nil {
		h.fail(w, r, "Náhled se nepodařilo vytvořit", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("content preview write failed", slog.String("error", err.Error()))
	}
}

// SetContentType handles PUT /api/contents/{id}/type. The previous payload
// is discarded.
func (h *Handler) SetContentType(w http.ResponseWriter, r *http.Request) {
	var req ContentTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	n, err := h.ws.CMS().SetType(r.Context(), id, req.ContentType)
	if err != nil {
		h.fail(w, r, "Typ obsahu se nepodařilo změnit", err)
		return
	}
	h.ws.DropDrag(id)
	h.writeNode(w, r, n)
}

// UpdateContent handles PUT /api/contents/{id} for leaf edits.
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var req ContentUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	ed := h.ws.CMS()
	ctx := r.Context()

	var (
		n   models.ContentNode
		err error
	)
	switch {
	case req.Text != nil:
		n, err = ed.SetText(ctx, id, *req.Text)
	case req.HTML != nil:
		n, err = ed.SetHTML(ctx, id, *req.HTML)
	default:
		switch e := req.ListText; e.Action {
		case ListTextAdd:
			n, err = ed.AddListText(ctx, id)
		case ListTextSet:
			n, err = ed.SetListText(ctx, id, e.Index, e.Text)
		case ListTextRemove:
			n, err = ed.RemoveListText(ctx, id, e.Index)
		}
	}
	if err != nil {
		h.fail(w, r, "Obsah se nepodařilo uložit", err)
		return
	}
	h.writeNode(w, r, n)
}

// AddProperty handles POST /api/contents/{id}/properties.
func (h *Handler) AddProperty(w http.ResponseWriter, r *http.Request) {
	var req PropertyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.ws.CMS().AddProperty(r.Context(), chi.URLParam(r, "id"), req.RootID)
	if err != nil {
		h.fail(w, r, "Vlastnost se nepodařilo přidat", err)
		return
	}
	h.writeNode(w, r, n)
}

// DeleteProperty handles DELETE /api/contents/{id}/properties/{propertyID}.
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	n, err := h.ws.CMS().DeleteProperty(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "propertyID"))
	if err != nil {
		h.fail(w, r, "Vlastnost se nepodařilo smazat", err)
		return
	}
	h.writeNode(w, r, n)
}

// RenameProperty handles PUT /api/properties/{id}/key.
func (h *Handler) RenameProperty(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.ws.CMS().RenameProperty(r.Context(), id, req.Key); err != nil {
		h.fail(w, r, "Klíč se nepodařilo přejmenovat", err)
		return
	}
	h.done(r, "", entityContent, sse.ChangeUpdated, id)
	w.WriteHeader(http.StatusNoContent)
}

// AddListItem handles POST /api/contents/{id}/list-items.
func (h *Handler) AddListItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := h.ws.CMS().AddListItem(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Položku se nepodařilo přidat", err)
		return
	}
	h.ws.DropDrag(id)
	h.writeNode(w, r, n)
}

// AddListItemProperty handles POST /api/contents/{id}/list-items/{idx}/properties.
func (h *Handler) AddListItemProperty(w http.ResponseWriter, r *http.Request) {
	idx, ok := intParam(r, "idx")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid index"))
		return
	}
	var req PropertyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	n, err := h.ws.CMS().AddListItemProperty(r.Context(), id, idx, req.RootID)
	if err != nil {
		h.fail(w, r, "Vlastnost se nepodařilo přidat", err)
		return
	}
	h.ws.DropDrag(id)
	h.writeNode(w, r, n)
}

// RemoveListItem handles DELETE /api/contents/{id}/list-items/{idx}.
func (h *Handler) RemoveListItem(w http.ResponseWriter, r *http.Request) {
	idx, ok := intParam(r, "idx")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid index"))
		return
	}
	id := chi.URLParam(r, "id")
	n, err := h.ws.CMS().RemoveListItem(r.Context(), id, idx)
	if err != nil {
		h.fail(w, r, "Položku se nepodařilo smazat", err)
		return
	}
	h.ws.DropDrag(id)
	h.writeNode(w, r, n)
}

// DragResponse is the state of a reorder session.
type DragResponse struct {
	ContentID string      `json:"contentId"`
	Groups    []cms.Group `json:"groups"`
	Order     []int       `json:"order"`
}

func dragResponse(s *cms.DragSession) DragResponse {
	return DragResponse{ContentID: s.ContentID(), Groups: s.Groups(), Order: s.Diff()}
}

func (h *Handler) drag(w http.ResponseWriter, r *http.Request) (*cms.DragSession, bool) {
	s, err := h.ws.DragSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Položky se nepodařilo načíst", err)
		return nil, false
	}
	return s, true
}

// GetDrag handles GET /api/contents/{id}/drag.
func (h *Handler) GetDrag(w http.ResponseWriter, r *http.Request) {
	s, ok := h.drag(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dragResponse(s))
}

// dragStep handles POST /api/contents/{id}/drag/{start|hover|toggle}.
func (h *Handler) dragStep(step func(*cms.DragSession, int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		s, ok := h.drag(w, r)
		if !ok {
			return
		}
		if err := step(s, req.Index); err != nil {
			h.fail(w, r, "Položku nelze přesunout", err)
			return
		}
		writeJSON(w, http.StatusOK, dragResponse(s))
	}
}

// DropDrag handles POST /api/contents/{id}/drag/drop: the new order is
// submitted and the session takes a fresh snapshot.
func (h *Handler) DropDrag(w http.ResponseWriter, r *http.Request) {
	s, ok := h.drag(w, r)
	if !ok {
		return
	}
	if _, err := s.Drop(r.Context(), h.ws.Backend()); err != nil {
		h.fail(w, r, "Pořadí se nepodařilo uložit", err)
		return
	}
	h.done(r, "Pořadí uloženo", entityContent, sse.ChangeUpdated, s.ContentID())
	writeJSON(w, http.StatusOK, dragResponse(s))
}
