// Package cms edits the content tree of the headless CMS. Every edit goes
// straight to the backend; the editor keeps no copy of the tree.
package cms

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/richtext"
)

// ContentAPI is the part of the backend API the editor needs.
type ContentAPI interface {
	ContentRoots(ctx context.Context, userID string) ([]models.ContentRoot, error)
	ContentRoot(ctx context.Context, id string) (models.ContentNode, error)
	CreateContentRoot(ctx context.Context, userID string) error
	RenameContentRoot(ctx context.Context, id, alias string) error
	DeleteContentRoot(ctx context.Context, id string) error

	Content(ctx context.Context, id string) (models.ContentNode, error)
	UpdateContent(ctx context.Context, id string, patch models.ContentPatch) error
	CreateProperty(ctx context.Context, contentID, rootID string) error
	RenamePropertyKey(ctx context.Context, propertyID, key string) error
	DeleteProperty(ctx context.Context, contentID, propertyID string) error
	CreateListItem(ctx context.Context, contentID string) error
	CreateListItemProperty(ctx context.Context, contentID string, idx int, rootID string) error
	DeleteListItem(ctx context.Context, contentID string, idx int) error
	ReorderListItems(ctx context.Context, contentID string, newOrder []int) error

	UploadFile(ctx context.Context, name string, r io.Reader) (string, error)
	DeleteFile(ctx context.Context, name string) (string, error)
}

// State is the editing state of a node, driven by its content type.
type State int

const (
	Uninitialized State = iota
	Leaf
	Item
	ListOfItems
)

func (s State) String() string {
	switch s {
	case Leaf:
		return "leaf"
	case Item:
		return "item"
	case ListOfItems:
		return "list_of_items"
	}
	return "uninitialized"
}

// StateOf classifies n.
func StateOf(n models.ContentNode) State {
	switch n.Type() {
	case models.ContentText, models.ContentImage, models.ContentHTML, models.ContentListText:
		return Leaf
	case models.ContentItem:
		return Item
	case models.ContentListItem:
		return ListOfItems
	}
	return Uninitialized
}

// Editor performs content tree edits against the backend.
type Editor struct {
	api    ContentAPI
	logger *slog.Logger
}

// NewEditor returns an editor bound to api. A nil logger uses slog.Default.
func NewEditor(api ContentAPI, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{api: api, logger: logger}
}

// ListRoots returns the root nodes of userID.
func (e *Editor) ListRoots(ctx context.Context, userID string) ([]models.ContentRoot, error) {
	roots, err := e.api.ContentRoots(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("cms: list roots: %w", err)
	}
	return roots, nil
}

// CreateRoot adds an empty root node for userID.
func (e *Editor) CreateRoot(ctx context.Context, userID string) error {
	if err := e.api.CreateContentRoot(ctx, userID); err != nil {
		return fmt.Errorf("cms: create root: %w", err)
	}
	return nil
}

// RenameRoot sets the alias websites address root id by.
func (e *Editor) RenameRoot(ctx context.Context, id, alias string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return fmt.Errorf("cms: empty alias: %w", apperr.ErrInvalidInput)
	}
	if err := e.api.RenameContentRoot(ctx, id, alias); err != nil {
		return fmt.Errorf("cms: rename root %s: %w", id, err)
	}
	return nil
}

// DeleteRoot removes root id with its subtree.
func (e *Editor) DeleteRoot(ctx context.Context, id string) error {
	if err := e.api.DeleteContentRoot(ctx, id); err != nil {
		return fmt.Errorf("cms: delete root %s: %w", id, err)
	}
	return nil
}

// FetchRoot returns root id.
func (e *Editor) FetchRoot(ctx context.Context, id string) (models.ContentNode, error) {
	n, err := e.api.ContentRoot(ctx, id)
	if err != nil {
		return models.ContentNode{}, fmt.Errorf("cms: fetch root %s: %w", id, err)
	}
	return n, nil
}

// Fetch returns node id.
func (e *Editor) Fetch(ctx context.Context, id string) (models.ContentNode, error) {
	n, err := e.api.Content(ctx, id)
	if err != nil {
		return models.ContentNode{}, fmt.Errorf("cms: fetch %s: %w", id, err)
	}
	return n, nil
}

// Resolve fetches a nested node; it satisfies render.Resolver.
func (e *Editor) Resolve(ctx context.Context, id string) (models.ContentNode, error) {
	return e.Fetch(ctx, id)
}

func (e *Editor) update(ctx context.Context, id string, patch models.ContentPatch) (models.ContentNode, error) {
	if err := e.api.UpdateContent(ctx, id, patch); err != nil {
		return models.ContentNode{}, fmt.Errorf("cms: update %s: %w", id, err)
	}
	return e.Fetch(ctx, id)
}

// SetType switches node id to t. The previous payload is discarded.
func (e *Editor) SetType(ctx context.Context, id string, t models.ContentType) (models.ContentNode, error) {
	if !t.Valid() {
		return models.ContentNode{}, fmt.Errorf("cms: content type %q: %w", t, apperr.ErrInvalidType)
	}
	return e.update(ctx, id, models.DiscardPayload(t))
}

// fetchTyped returns node id and checks that it holds a t payload.
func (e *Editor) fetchTyped(ctx context.Context, id string, t models.ContentType) (models.ContentNode, error) {
	n, err := e.Fetch(ctx, id)
	if err != nil {
		return n, err
	}
	if n.Type() != t {
		return n, fmt.Errorf("cms: %s is %q, not %q: %w", id, n.Type(), t, apperr.ErrInvalidType)
	}
	return n, nil
}

func (e *Editor) SetText(ctx context.Context, id, text string) (models.ContentNode, error) {
	if _, err := e.fetchTyped(ctx, id, models.ContentText); err != nil {
		return models.ContentNode{}, err
	}
	return e.update(ctx, id, models.ContentPatch{"text": text})
}

// SetHTML stores rich text content reduced to the editor's subset.
func (e *Editor) SetHTML(ctx context.Context, id, html string) (models.ContentNode, error) {
	if _, err := e.fetchTyped(ctx, id, models.ContentHTML); err != nil {
		return models.ContentNode{}, err
	}
	return e.update(ctx, id, models.ContentPatch{"html": richtext.Sanitize(html)})
}

// SetImage uploads r and points node id at the stored file. The previous
// file is deleted afterwards; a failed deletion is only logged. A failed
// upload leaves the node untouched.
func (e *Editor) SetImage(ctx context.Context, id, name string, r io.Reader) (models.ContentNode, error) {
	n, err := e.fetchTyped(ctx, id, models.ContentImage)
	if err != nil {
		return models.ContentNode{}, err
	}
	stored, err := e.api.UploadFile(ctx, name, r)
	if err != nil {
		return models.ContentNode{}, fmt.Errorf("cms: image %s: %w", id, err)
	}
	updated, err := e.update(ctx, id, models.ContentPatch{"image": stored})
	if err != nil {
		return models.ContentNode{}, err
	}
	if n.Image != nil && *n.Image != "" && *n.Image != stored {
		prev := path.Base(*n.Image)
		if _, err := e.api.DeleteFile(ctx, prev); err != nil {
			e.logger.Warn("cms: delete previous image", slog.String("file", prev), slog.Any("err", err))
		}
	}
	return updated, nil
}

func (e *Editor) editListText(ctx context.Context, id string, fn func([]string) ([]string, error)) (models.ContentNode, error) {
	n, err := e.fetchTyped(ctx, id, models.ContentListText)
	if err != nil {
		return models.ContentNode{}, err
	}
	texts, err := fn(append([]string{}, n.ListTextContent...))
	if err != nil {
		return models.ContentNode{}, err
	}
	return e.update(ctx, id, models.ContentPatch{"listTextContent": texts})
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("cms: index %d of %d: %w", i, n, apperr.ErrInvalidInput)
	}
	return nil
}

// AddListText appends a numbered placeholder entry.
func (e *Editor) AddListText(ctx context.Context, id string) (models.ContentNode, error) {
	return e.editListText(ctx, id, func(texts []string) ([]string, error) {
		return append(texts, fmt.Sprintf("Možnost %d", len(texts)+1)), nil
	})
}

func (e *Editor) SetListText(ctx context.Context, id string, i int, text string) (models.ContentNode, error) {
	return e.editListText(ctx, id, func(texts []string) ([]string, error) {
		if err := checkIndex(i, len(texts)); err != nil {
			return nil, err
		}
		texts[i] = text
		return texts, nil
	})
}

// RemoveListText drops entry i. Entries are addressed by index, so equal
// texts are removed one at a time.
func (e *Editor) RemoveListText(ctx context.Context, id string, i int) (models.ContentNode, error) {
	return e.editListText(ctx, id, func(texts []string) ([]string, error) {
		if err := checkIndex(i, len(texts)); err != nil {
			return nil, err
		}
		return append(texts[:i], texts[i+1:]...), nil
	})
}

// AddProperty appends an empty property to item node id.
func (e *Editor) AddProperty(ctx context.Context, id, rootID string) (models.ContentNode, error) {
	if err := e.api.CreateProperty(ctx, id, rootID); err != nil {
		return models.ContentNode{}, fmt.Errorf("cms: add property to %s: %w", id, err)
	}
	return e.Fetch(ctx, id)
}

// DeleteProperty removes propertyID from node id and refetches the parent.
func (e *Editor) DeleteProperty(ctx context.Context, id, propertyID string) (models.ContentNode, error) {
	if err := e.api.DeleteProperty(ctx, id, propertyID); err != nil {
		return models.ContentNode{}, fmt.Errorf("cms: delete property %s: %w", propertyID, err)
	}
	return e.Fetch(ctx, id)
}

// RenameProperty changes the key a property is published under.
func (e *Editor) RenameProperty(ctx context.Context, propertyID, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("cms: empty property key: %w", apperr.ErrInvalidInput)
	}
	if err := e.api.RenamePropertyKey(ctx, propertyID, key); err != nil {
		return fmt.Errorf("cms: rename property %s: %w", propertyID, err)
	}
	return nil
}

// AddListItem appends an empty group to list node id.
func (e *Editor) AddListItem(ctx context.Context, id string) (models.ContentNode, error) {
	if err := e.api.CreateListItem(ctx, id); err != nil {
		return models.ContentNode{}, fmt.Errorf("cms: add list item to %s: %w", id, err)
	}
	return e.Fetch(ctx, id)
}

// AddListItemProperty appends a property to group idx of list node id.
func (e *Editor) AddListItemProperty(ctx context.Context, id string, idx int, rootID string) (models.ContentNode, error) {
	if err := e.api.CreateListItemProperty(ctx, id, idx, rootID); err != nil {
		return models.ContentNode{}, fmt.Errorf("cms: add property to %s[%d]: %w", id, idx, err)
	}
	return e.Fetch(ctx, id)
}

// RemoveListItem deletes group idx. The backend removes the group's
// subtrees.
func (e *Editor) RemoveListItem(ctx context.Context, id string, idx int) (models.ContentNode, error) {
	if err := e.api.DeleteListItem(ctx, id, idx); err != nil {
		return models.ContentNode{}, fmt.Errorf("cms: remove %s[%d]: %w", id, idx, err)
	}
	return e.Fetch(ctx, id)
}
