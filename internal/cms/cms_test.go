package cms_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/brandoo"
	"github.com/brandoo/console/internal/cms"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func newEditor(t *testing.T) (*cms.Editor, *brandoo.Client, *testutil.FakeBackend) {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	creds := brandoo.StaticCredentials{Token: testutil.FakeToken, PrivateKey: testutil.FakePrivateKey, UserID: testutil.FakeUserID}
	client := brandoo.New(brandoo.Options{BaseURL: backend.URL(), Timeout: 5 * time.Second}, creds, nil)
	return cms.NewEditor(client, nil), client, backend
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, cms.Uninitialized, cms.StateOf(models.ContentNode{}))
	for _, ct := range []models.ContentType{models.ContentText, models.ContentImage, models.ContentHTML, models.ContentListText} {
		assert.Equal(t, cms.Leaf, cms.StateOf(models.ContentNode{ContentType: ptr(ct)}), ct)
	}
	assert.Equal(t, cms.Item, cms.StateOf(models.ContentNode{ContentType: ptr(models.ContentItem)}))
	assert.Equal(t, cms.ListOfItems, cms.StateOf(models.ContentNode{ContentType: ptr(models.ContentListItem)}))
	assert.Equal(t, "list_of_items", cms.ListOfItems.String())
}

func TestRoots(t *testing.T) {
	ctx := context.Background()
	ed, _, backend := newEditor(t)

	roots, err := ed.ListRoots(ctx, testutil.FakeUserID)
	require.NoError(t, err)
	assert.Empty(t, roots)

	require.NoError(t, ed.CreateRoot(ctx, testutil.FakeUserID))
	roots, err = ed.ListRoots(ctx, testutil.FakeUserID)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	id := roots[0].ID
	assert.ErrorIs(t, ed.RenameRoot(ctx, id, "  "), apperr.ErrInvalidInput)
	require.NoError(t, ed.RenameRoot(ctx, id, "homepage"))
	root, err := ed.FetchRoot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "homepage", root.Alias)
	assert.True(t, root.IsRoot)

	require.NoError(t, ed.DeleteRoot(ctx, id))
	assert.Equal(t, 0, backend.NodeCount())
}

func TestTypeSwitchDiscardsPayload(t *testing.T) {
	ctx := context.Background()
	ed, _, backend := newEditor(t)
	id := backend.SeedContent(models.ContentNode{ContentType: ptr(models.ContentText), Text: ptr("hello")})

	n, err := ed.SetType(ctx, id, models.ContentImage)
	require.NoError(t, err)
	assert.Equal(t, models.ContentImage, n.Type())
	assert.Nil(t, n.Text)

	req, ok := backend.LastRequest("PUT", "contents/"+id)
	require.True(t, ok)
	assert.Contains(t, req.Body, `"text":null`)
	assert.Contains(t, req.Body, `"content_type":"image"`)

	n, err = ed.SetImage(ctx, id, "logo.png", strings.NewReader("png"))
	require.NoError(t, err)
	require.NotNil(t, n.Image)
	assert.Nil(t, n.Text)

	_, err = ed.SetType(ctx, id, "video")
	assert.ErrorIs(t, err, apperr.ErrInvalidType)
}

func TestLeafEditsCheckType(t *testing.T) {
	ctx := context.Background()
	ed, _, backend := newEditor(t)
	id := backend.SeedContent(models.ContentNode{ContentType: ptr(models.ContentText), Text: ptr("a")})

	n, err := ed.SetText(ctx, id, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", *n.Text)

	_, err = ed.SetHTML(ctx, id, "<p>x</p>")
	assert.ErrorIs(t, err, apperr.ErrInvalidType)
}

func TestSetHTMLSanitizes(t *testing.T) {
	ctx := context.Background()
	ed, _, backend := newEditor(t)
	id := backend.SeedContent(models.ContentNode{ContentType: ptr(models.ContentHTML)})

	n, err := ed.SetHTML(ctx, id, `<p><b>ok</b></p><script>alert(1)</script>`)
	require.NoError(t, err)
	assert.Equal(t, "<p><b>ok</b></p>", *n.HTML)
}

func TestSetImageReplacesFile(t *testing.T) {
	ctx := context.Background()
	ed, _, backend := newEditor(t)
	id := backend.SeedContent(models.ContentNode{ContentType: ptr(models.ContentImage)})

	first, err := ed.SetImage(ctx, id, "a.png", strings.NewReader("A"))
	require.NoError(t, err)
	_, ok := backend.File(*first.Image)
	require.True(t, ok)

	second, err := ed.SetImage(ctx, id, "b.png", strings.NewReader("B"))
	require.NoError(t, err)
	assert.NotEqual(t, *first.Image, *second.Image)

	_, ok = backend.File(*first.Image)
	assert.False(t, ok, "previous file is deleted")
	data, ok := backend.File(*second.Image)
	require.True(t, ok)
	assert.Equal(t, "B", string(data))
}

func TestFailedUploadLeavesImage(t *testing.T) {
	ctx := context.Background()
	ed, _, backend := newEditor(t)
	id := backend.SeedContent(models.ContentNode{ContentType: ptr(models.ContentImage), Image: ptr("uploads/old.png")})

	backend.Fail("POST", "upload-file", 500)
	_, err := ed.SetImage(ctx, id, "new.png", strings.NewReader("N"))
	var fe *brandoo.FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "upload", fe.Op)

	n, _ := backend.Node(id)
	assert.Equal(t, "uploads/old.png", *n.Image)
	_, deleted := backend.LastRequest("DELETE", "delete-file/")
	assert.False(t, deleted)
}

func TestListText(t *testing.T) {
	ctx := context.Background()
	ed, _, backend := newEditor(t)
	id := backend.SeedContent(models.ContentNode{ContentType: ptr(models.ContentListText), ListTextContent: []string{"x", "x"}})

	n, err := ed.AddListText(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x", "Možnost 3"}, n.ListTextContent)

	n, err = ed.SetListText(ctx, id, 2, "y")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x", "y"}, n.ListTextContent)

	// Duplicates are removed one at a time.
	n, err = ed.RemoveListText(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, n.ListTextContent)

	_, err = ed.RemoveListText(ctx, id, 5)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestItemProperties(t *testing.T) {
	ctx := context.Background()
	ed, _, backend := newEditor(t)
	root := backend.SeedContent(models.ContentNode{IsRoot: true, ContentType: ptr(models.ContentItem)})

	n, err := ed.AddProperty(ctx, root, root)
	require.NoError(t, err)
	require.Len(t, n.ItemContent, 1)
	prop := n.ItemContent[0]

	require.NoError(t, ed.RenameProperty(ctx, prop.ID, "title"))
	assert.ErrorIs(t, ed.RenameProperty(ctx, prop.ID, ""), apperr.ErrInvalidInput)

	_, err = ed.SetType(ctx, prop.ContentID, models.ContentText)
	require.NoError(t, err)
	_, err = ed.SetText(ctx, prop.ContentID, "Nadpis")
	require.NoError(t, err)

	tree, err := ed.Tree(ctx, root)
	require.NoError(t, err)
	require.Len(t, tree.Properties, 1)
	assert.Equal(t, "title", tree.Properties[0].Property.Key)
	assert.Equal(t, "Nadpis", *tree.Properties[0].Tree.Node.Text)

	var sb strings.Builder
	require.NoError(t, ed.Preview(ctx, &sb, root, root))
	assert.Contains(t, sb.String(), "Nadpis")

	n, err = ed.DeleteProperty(ctx, root, prop.ID)
	require.NoError(t, err)
	assert.Empty(t, n.ItemContent)
	_, ok := backend.Node(prop.ContentID)
	assert.False(t, ok)
}

func TestListItems(t *testing.T) {
	ctx := context.Background()
	ed, _, backend := newEditor(t)
	id := backend.SeedContent(models.ContentNode{ContentType: ptr(models.ContentListItem)})

	_, err := ed.AddListItem(ctx, id)
	require.NoError(t, err)
	n, err := ed.AddListItem(ctx, id)
	require.NoError(t, err)
	require.Len(t, n.ListItemContent, 2)

	n, err = ed.AddListItemProperty(ctx, id, 1, id)
	require.NoError(t, err)
	require.Len(t, n.ListItemContent[1], 1)
	child := n.ListItemContent[1][0].ContentID

	tree, err := ed.Tree(ctx, id)
	require.NoError(t, err)
	require.Len(t, tree.Groups, 2)
	assert.Empty(t, tree.Groups[0])
	assert.Len(t, tree.Groups[1], 1)

	n, err = ed.RemoveListItem(ctx, id, 1)
	require.NoError(t, err)
	assert.Len(t, n.ListItemContent, 1)
	_, ok := backend.Node(child)
	assert.False(t, ok)
}

func TestTreeIsBounded(t *testing.T) {
	ctx := context.Background()
	ed, _, backend := newEditor(t)
	backend.SeedContent(models.ContentNode{ID: "loop", ContentType: ptr(models.ContentItem), ItemContent: []models.ItemProperty{
		{ID: "p", Key: "again", ContentID: "loop"},
	}})

	_, err := ed.Tree(ctx, "loop")
	assert.ErrorContains(t, err, "nested too deep")
}
