package testutil

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brandoo/console/internal/models"
)

func (b *FakeBackend) contentRoutes(r chi.Router) {
	r.Get("/contents/root/users/{userID}", b.listRoots)
	r.Get("/contents/root/{id}", b.getNode)
	r.Post("/contents/root/{id}", b.createRoot)
	r.Put("/contents/root/{id}", b.renameRoot)
	r.Delete("/contents/root/{id}", b.deleteRoot)
	r.Get("/contents/{id}", b.getNode)
	r.Put("/contents/{id}", b.updateNode)
	r.Get("/contents/{id}/public", b.publicNode)
	r.Post("/contents/property/{id}/{rootID}", b.createProperty)
	r.Put("/contents/property/{id}", b.renameProperty)
	r.Delete("/contents/{id}/property/{propertyID}", b.deleteProperty)
	r.Post("/contents/list-item-content/{id}", b.createListItem)
	r.Post("/contents/list-item-content/{id}/{idx}/{rootID}/property", b.createListItemProperty)
	r.Delete("/contents/list-item-content/{id}/{idx}", b.deleteListItem)
	r.Put("/contents/list-item-content/{id}/reorder", b.reorderListItems)
}

func (b *FakeBackend) listRoots(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	userID := chi.URLParam(r, "userID")
	out := []models.ContentRoot{}
	for _, n := range b.nodes {
		if n.IsRoot && n.UserID == userID {
			out = append(out, models.ContentRoot{ID: n.ID, Alias: n.Alias, IsRoot: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeSnake(w, http.StatusOK, out)
}

func (b *FakeBackend) getNode(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	writeSnake(w, http.StatusOK, n)
}

func (b *FakeBackend) createRoot(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID("content")
	b.nodes[id] = &models.ContentNode{ID: id, UserID: chi.URLParam(r, "id"), IsRoot: true}
	w.WriteHeader(http.StatusCreated)
}

func (b *FakeBackend) renameRoot(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[chi.URLParam(r, "id")]
	if !ok || !n.IsRoot {
		notFound(w)
		return
	}
	n.Alias = r.URL.Query().Get("alias")
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) deleteRoot(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := b.nodes[id]; !ok {
		notFound(w)
		return
	}
	b.deleteSubtree(id)
	w.WriteHeader(http.StatusOK)
}

// deleteSubtree removes a node and every node reachable from it.
// Caller holds b.mu.
func (b *FakeBackend) deleteSubtree(id string) {
	n, ok := b.nodes[id]
	if !ok {
		return
	}
	delete(b.nodes, id)
	b.dropChildren(n)
}

// dropChildren removes the subtrees referenced by n's item payloads.
func (b *FakeBackend) dropChildren(n *models.ContentNode) {
	for _, p := range n.ItemContent {
		b.deleteSubtree(p.ContentID)
	}
	for _, group := range n.ListItemContent {
		for _, p := range group {
			b.deleteSubtree(p.ContentID)
		}
	}
}

func (b *FakeBackend) updateNode(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := readCamel(r, &patch); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	if t, ok := patch["contentType"].(string); ok && !models.ContentType(t).Valid() {
		badRequest(w, fmt.Errorf("unknown content type %q", t))
		return
	}
	before := *n
	if err := mergeInto(n, patch); err != nil {
		badRequest(w, err)
		return
	}
	if _, ok := patch["itemContent"]; ok && n.ItemContent == nil {
		b.dropChildren(&models.ContentNode{ItemContent: before.ItemContent})
	}
	if _, ok := patch["listItemContent"]; ok && n.ListItemContent == nil {
		b.dropChildren(&models.ContentNode{ListItemContent: before.ListItemContent})
	}
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) publicNode(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	writeSnake(w, http.StatusOK, map[string]any{"id": n.ID, "content": b.publicValue(n)})
}

// publicValue resolves a node into the plain value served to websites.
func (b *FakeBackend) publicValue(n *models.ContentNode) any {
	switch n.Type() {
	case models.ContentText:
		return deref(n.Text)
	case models.ContentImage:
		return deref(n.Image)
	case models.ContentHTML:
		return deref(n.HTML)
	case models.ContentListText:
		return n.ListTextContent
	case models.ContentItem:
		return b.publicItem(n.ItemContent)
	case models.ContentListItem:
		out := make([]any, 0, len(n.ListItemContent))
		for _, group := range n.ListItemContent {
			out = append(out, b.publicItem(group))
		}
		return out
	}
	return nil
}

func (b *FakeBackend) publicItem(props []models.ItemProperty) map[string]any {
	out := make(map[string]any, len(props))
	for _, p := range props {
		if child, ok := b.nodes[p.ContentID]; ok {
			out[p.Key] = b.publicValue(child)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// newProperty creates an empty child node and the property pointing at it.
// Caller holds b.mu.
func (b *FakeBackend) newProperty() models.ItemProperty {
	child := b.nextID("content")
	b.nodes[child] = &models.ContentNode{ID: child}
	return models.ItemProperty{ID: b.nextID("property"), Key: "", ContentID: child}
}

func (b *FakeBackend) createProperty(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	n.ItemContent = append(n.ItemContent, b.newProperty())
	w.WriteHeader(http.StatusCreated)
}

func (b *FakeBackend) renameProperty(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	key := r.URL.Query().Get("key")
	for _, n := range b.nodes {
		for i := range n.ItemContent {
			if n.ItemContent[i].ID == id {
				n.ItemContent[i].Key = key
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		for g := range n.ListItemContent {
			for i := range n.ListItemContent[g] {
				if n.ListItemContent[g][i].ID == id {
					n.ListItemContent[g][i].Key = key
					w.WriteHeader(http.StatusOK)
					return
				}
			}
		}
	}
	notFound(w)
}

func (b *FakeBackend) deleteProperty(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	propertyID := chi.URLParam(r, "propertyID")
	for i, p := range n.ItemContent {
		if p.ID == propertyID {
			n.ItemContent = append(n.ItemContent[:i:i], n.ItemContent[i+1:]...)
			b.deleteSubtree(p.ContentID)
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	for g, group := range n.ListItemContent {
		for i, p := range group {
			if p.ID == propertyID {
				n.ListItemContent[g] = append(group[:i:i], group[i+1:]...)
				b.deleteSubtree(p.ContentID)
				w.WriteHeader(http.StatusOK)
				return
			}
		}
	}
	notFound(w)
}

func (b *FakeBackend) createListItem(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	n.ListItemContent = append(n.ListItemContent, []models.ItemProperty{})
	w.WriteHeader(http.StatusCreated)
}

// groupIndex parses {idx} and checks it against n. Caller holds b.mu.
func groupIndex(r *http.Request, n *models.ContentNode) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil || idx < 0 || idx >= len(n.ListItemContent) {
		return 0, false
	}
	return idx, true
}

func (b *FakeBackend) createListItemProperty(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	idx, ok := groupIndex(r, n)
	if !ok {
		notFound(w)
		return
	}
	n.ListItemContent[idx] = append(n.ListItemContent[idx], b.newProperty())
	w.WriteHeader(http.StatusCreated)
}

func (b *FakeBackend) deleteListItem(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	idx, ok := groupIndex(r, n)
	if !ok {
		notFound(w)
		return
	}
	group := n.ListItemContent[idx]
	n.ListItemContent = append(n.ListItemContent[:idx:idx], n.ListItemContent[idx+1:]...)
	for _, p := range group {
		b.deleteSubtree(p.ContentID)
	}
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) reorderListItems(w http.ResponseWriter, r *http.Request) {
	var in struct {
		NewOrder []int `json:"newOrder"`
	}
	if err := readCamel(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	if len(in.NewOrder) != len(n.ListItemContent) {
		badRequest(w, fmt.Errorf("new order has %d entries, want %d", len(in.NewOrder), len(n.ListItemContent)))
		return
	}
	reordered := make([][]models.ItemProperty, len(n.ListItemContent))
	seen := make([]bool, len(n.ListItemContent))
	for orig, target := range in.NewOrder {
		if target < 0 || target >= len(reordered) || seen[target] {
			badRequest(w, fmt.Errorf("new order is not a permutation"))
			return
		}
		seen[target] = true
		reordered[target] = n.ListItemContent[orig]
	}
	n.ListItemContent = reordered
	w.WriteHeader(http.StatusOK)
}
