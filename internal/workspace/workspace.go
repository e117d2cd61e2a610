// Package workspace holds the open editors of a signed-in session: form
// schema editors, the content editor and drag sessions. Everything is
// dropped when the session changes.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brandoo/console/internal/cms"
	"github.com/brandoo/console/internal/formschema"
)

// Backend is the part of the backend API the editors need.
type Backend interface {
	formschema.Client
	cms.ContentAPI
}

// Workspace is safe for concurrent use.
type Workspace struct {
	backend Backend
	logger  *slog.Logger

	mu    sync.Mutex
	forms map[string]*formschema.Editor
	drags map[string]*cms.DragSession
	cms   *cms.Editor
}

// New returns an empty workspace over backend.
func New(backend Backend, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Workspace{backend: backend, logger: logger}
	w.clear()
	return w
}

func (w *Workspace) clear() {
	w.forms = make(map[string]*formschema.Editor)
	w.drags = make(map[string]*cms.DragSession)
	w.cms = cms.NewEditor(w.backend, w.logger)
}

// Backend returns the API the editors talk to.
func (w *Workspace) Backend() Backend {
	return w.backend
}

// FormEditor returns the open editor of form id, loading it on first use.
func (w *Workspace) FormEditor(ctx context.Context, id string) (*formschema.Editor, error) {
	w.mu.Lock()
	e, ok := w.forms[id]
	w.mu.Unlock()
	if ok {
		return e, nil
	}

	e, err := formschema.Load(ctx, w.backend, id)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if cur, ok := w.forms[id]; ok {
		return cur, nil
	}
	w.forms[id] = e
	return e, nil
}

// DropForm discards the working copy of form id. The next FormEditor
// call refetches it.
func (w *Workspace) DropForm(id string) {
	w.mu.Lock()
	delete(w.forms, id)
	w.mu.Unlock()
}

// OpenForms returns the ids of forms with a working copy.
func (w *Workspace) OpenForms() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.forms))
	for id := range w.forms {
		ids = append(ids, id)
	}
	return ids
}

// CMS returns the content editor.
func (w *Workspace) CMS() *cms.Editor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cms
}

// DragSession returns the reorder session of list node contentID, opening
// it from the stored node on first use.
func (w *Workspace) DragSession(ctx context.Context, contentID string) (*cms.DragSession, error) {
	w.mu.Lock()
	s, ok := w.drags[contentID]
	w.mu.Unlock()
	if ok {
		return s, nil
	}

	n, err := w.backend.Content(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("workspace: open drag %s: %w", contentID, err)
	}
	s = cms.NewDragSession(contentID, n.ListItemContent)

	w.mu.Lock()
	defer w.mu.Unlock()
	if cur, ok := w.drags[contentID]; ok {
		return cur, nil
	}
	w.drags[contentID] = s
	return s, nil
}

// DropDrag closes the reorder session of contentID.
func (w *Workspace) DropDrag(contentID string) {
	w.mu.Lock()
	delete(w.drags, contentID)
	w.mu.Unlock()
}

// Reset discards every open editor.
func (w *Workspace) Reset() {
	w.mu.Lock()
	n := len(w.forms) + len(w.drags)
	w.clear()
	w.mu.Unlock()
	w.logger.Info("workspace reset", slog.Int("dropped", n))
}
