package cms

import (
	"context"
	"fmt"
	"io"

	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/render"
)

// Tree fetches node id and resolves its item properties recursively, up to
// render.MaxDepth levels.
func (e *Editor) Tree(ctx context.Context, id string) (models.ContentTree, error) {
	n, err := e.Fetch(ctx, id)
	if err != nil {
		return models.ContentTree{}, err
	}
	return e.expand(ctx, n, 0)
}

func (e *Editor) expand(ctx context.Context, n models.ContentNode, depth int) (models.ContentTree, error) {
	tree := models.ContentTree{Node: n}
	switch StateOf(n) {
	case Item:
		props, err := e.expandProperties(ctx, n.ItemContent, depth)
		if err != nil {
			return tree, err
		}
		tree.Properties = props
	case ListOfItems:
		tree.Groups = make([][]models.PropertyTree, 0, len(n.ListItemContent))
		for _, g := range n.ListItemContent {
			props, err := e.expandProperties(ctx, g, depth)
			if err != nil {
				return tree, err
			}
			tree.Groups = append(tree.Groups, props)
		}
	}
	return tree, nil
}

func (e *Editor) expandProperties(ctx context.Context, props []models.ItemProperty, depth int) ([]models.PropertyTree, error) {
	if depth >= render.MaxDepth {
		return nil, fmt.Errorf("cms: %w", render.ErrTooDeep)
	}
	out := make([]models.PropertyTree, 0, len(props))
	for _, p := range props {
		child, err := e.Fetch(ctx, p.ContentID)
		if err != nil {
			return nil, err
		}
		sub, err := e.expand(ctx, child, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, models.PropertyTree{Property: p, Tree: &sub})
	}
	return out, nil
}

// Preview renders node id as an HTML fragment.
func (e *Editor) Preview(ctx context.Context, w io.Writer, id, rootID string) error {
	n, err := e.Fetch(ctx, id)
	if err != nil {
		return err
	}
	return render.Node(ctx, w, render.ContentProps{Content: n, RootID: rootID, Resolve: e.Resolve})
}
