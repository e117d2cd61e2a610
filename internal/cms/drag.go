package cms

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/models"
)

// Group is one record of a list-of-items node as seen during a drag.
type Group struct {
	ID         string                `json:"id"`
	Properties []models.ItemProperty `json:"properties"`
	Open       bool                  `json:"open"`
}

// DragSession reorders the groups of one list-of-items node. Each group
// carries a generated id for the life of the session, so the order diff
// never compares group contents.
type DragSession struct {
	mu        sync.Mutex
	contentID string
	original  []string
	groups    []Group
	dragged   int
}

// NewDragSession snapshots the groups of list node contentID.
func NewDragSession(contentID string, groups [][]models.ItemProperty) *DragSession {
	s := &DragSession{contentID: contentID, dragged: -1}
	s.snapshot(groups, nil)
	return s
}

// snapshot replaces the groups and takes the new original order. ids are
// reused by position when they match the group count. Caller holds s.mu.
func (s *DragSession) snapshot(groups [][]models.ItemProperty, ids []string) {
	if len(ids) != len(groups) {
		ids = make([]string, len(groups))
		for i := range ids {
			ids[i] = uuid.NewString()
		}
	}
	s.groups = make([]Group, len(groups))
	s.original = make([]string, len(groups))
	for i, g := range groups {
		s.groups[i] = Group{ID: ids[i], Properties: append([]models.ItemProperty{}, g...)}
		s.original[i] = ids[i]
	}
	s.dragged = -1
}

// ContentID returns the list node the session reorders.
func (s *DragSession) ContentID() string {
	return s.contentID
}

// Groups returns the groups in their current order.
func (s *DragSession) Groups() []Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// Toggle opens or closes group i.
func (s *DragSession) Toggle(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkIndex(i, len(s.groups)); err != nil {
		return err
	}
	s.groups[i].Open = !s.groups[i].Open
	return nil
}

// Start begins dragging group i. Every group is closed.
func (s *DragSession) Start(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkIndex(i, len(s.groups)); err != nil {
		return err
	}
	for k := range s.groups {
		s.groups[k].Open = false
	}
	s.dragged = i
	return nil
}

// Hover moves the dragged group to index j. The dragged index follows the
// group, so repeated hovers over the same slot are no-ops.
func (s *DragSession) Hover(j int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dragged < 0 {
		return fmt.Errorf("cms: hover without drag: %w", apperr.ErrInvalidInput)
	}
	if err := checkIndex(j, len(s.groups)); err != nil {
		return err
	}
	if j == s.dragged {
		return nil
	}
	g := s.groups[s.dragged]
	s.groups = append(s.groups[:s.dragged], s.groups[s.dragged+1:]...)
	s.groups = append(s.groups[:j], append([]Group{g}, s.groups[j:]...)...)
	s.dragged = j
	return nil
}

// Diff returns newOrder with newOrder[original index] = current index.
func (s *DragSession) Diff() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diff()
}

func (s *DragSession) diff() []int {
	current := make(map[string]int, len(s.groups))
	for i, g := range s.groups {
		current[g.ID] = i
	}
	order := make([]int, len(s.original))
	for i, id := range s.original {
		order[i] = current[id]
	}
	return order
}

// Drop submits the reorder, refetches the node and takes a new snapshot.
func (s *DragSession) Drop(ctx context.Context, api ContentAPI) ([]int, error) {
	s.mu.Lock()
	order := s.diff()
	ids := make([]string, len(s.groups))
	for i, g := range s.groups {
		ids[i] = g.ID
	}
	s.dragged = -1
	s.mu.Unlock()

	if err := api.ReorderListItems(ctx, s.contentID, order); err != nil {
		return nil, fmt.Errorf("cms: reorder %s: %w", s.contentID, err)
	}
	n, err := api.Content(ctx, s.contentID)
	if err != nil {
		return nil, fmt.Errorf("cms: refetch %s: %w", s.contentID, err)
	}

	s.mu.Lock()
	s.snapshot(n.ListItemContent, ids)
	s.mu.Unlock()
	return order, nil
}
