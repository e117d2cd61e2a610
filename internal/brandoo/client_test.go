package brandoo_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/brandoo"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/testutil"
)

func signedIn() brandoo.StaticCredentials {
	return brandoo.StaticCredentials{
		Token:      testutil.FakeToken,
		PrivateKey: testutil.FakePrivateKey,
		UserID:     testutil.FakeUserID,
	}
}

func newClient(t *testing.T, creds brandoo.CredentialSource) (*brandoo.Client, *testutil.FakeBackend) {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	c := brandoo.New(brandoo.Options{BaseURL: backend.URL(), Timeout: 5 * time.Second}, creds, nil)
	return c, backend
}

type recorded struct {
	method, path string
	status       int
	err          error
}

type memRecorder struct {
	mu      sync.Mutex
	entries []recorded
}

func (m *memRecorder) RecordWrite(_ context.Context, method, path string, status int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, recorded{method, path, status, err})
}

func TestSignInNeedsNoSession(t *testing.T) {
	c, _ := newClient(t, brandoo.StaticCredentials{})

	resp, err := c.SignIn(context.Background(), models.SignInRequest{Email: testutil.FakeEmail, Password: testutil.FakePassword})
	require.NoError(t, err)
	assert.Equal(t, testutil.FakeToken, resp.Security.Token.AuthToken)
	assert.Equal(t, testutil.FakePrivateKey, resp.Security.PrivateKey)
	assert.Equal(t, testutil.FakeUserID, resp.User.ID)
}

func TestSignInWrongPassword(t *testing.T) {
	c, _ := newClient(t, nil)

	_, err := c.SignIn(context.Background(), models.SignInRequest{Email: testutil.FakeEmail, Password: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	var apiErr *brandoo.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestRequestsWithoutSession(t *testing.T) {
	c, backend := newClient(t, brandoo.StaticCredentials{})

	_, err := c.GetForm(context.Background(), "form-1")
	assert.ErrorIs(t, err, apperr.ErrNoSession)
	assert.Empty(t, backend.Requests(), "no request may leave without a session")
}

func TestPrivateKeyRequired(t *testing.T) {
	creds := signedIn()
	creds.PrivateKey = ""
	c, backend := newClient(t, creds)
	formID := backend.SeedForm("Kontakt")

	_, err := c.FormTable(context.Background(), formID, models.TableQuery{})
	assert.ErrorIs(t, err, apperr.ErrNoPrivateKey)
	_, ok := backend.LastRequest(http.MethodGet, "form-table")
	assert.False(t, ok)
}

func TestRequestBodiesAreSnakeCase(t *testing.T) {
	c, backend := newClient(t, signedIn())
	formID := backend.SeedForm("Kontakt")

	err := c.UpdateForm(context.Background(), formID, models.FormUpdate{
		Name: "Kontakt",
		Properties: []models.FieldDefinition{
			{Key: "firstName", Label: "Jméno", PropertyType: models.PropertyShortText, Position: 1, Required: true},
		},
	})
	require.NoError(t, err)

	req, ok := backend.LastRequest(http.MethodPut, "update-form")
	require.True(t, ok)
	assert.Contains(t, req.Body, `"property_type":"short_text"`)
	assert.NotContains(t, req.Body, "propertyType")
	// Values are never rewritten, only keys.
	assert.Contains(t, req.Body, `"key":"firstName"`)
}

func TestResponseBodiesAreCamelCase(t *testing.T) {
	c, backend := newClient(t, signedIn())
	formID := backend.SeedForm("Kontakt",
		models.FieldDefinition{Key: "email", Label: "E-mail", PropertyType: models.PropertyShortText, Position: 1, Required: true},
		models.FieldDefinition{Key: "topic", Label: "Téma", PropertyType: models.PropertySelection, Options: []string{"a", "b"}, Position: 2},
	)

	form, err := c.GetForm(context.Background(), formID)
	require.NoError(t, err)
	require.Len(t, form.Properties, 2)
	assert.Equal(t, models.PropertySelection, form.Properties[1].PropertyType)
	assert.Equal(t, []string{"a", "b"}, form.Properties[1].Options)
	assert.Equal(t, formID, form.Properties[0].FormID)
}

func TestFormTableQuery(t *testing.T) {
	c, backend := newClient(t, signedIn())
	formID := backend.SeedForm("Kontakt",
		models.FieldDefinition{Key: "email", Label: "E-mail", PropertyType: models.PropertyShortText, Position: 1},
	)
	for _, mail := range []string{"a@x.cz", "b@x.cz", "c@y.cz"} {
		backend.SeedResponse(formID, models.Response{"email": mail})
	}

	table, err := c.FormTable(context.Background(), formID, models.TableQuery{Page: 1, PerPage: 2, SearchQuery: "x.cz"})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Pagination.TotalItems)
	assert.Equal(t, 1, table.Pagination.TotalPages)
	require.Len(t, table.Table.Body, 2)
	assert.Equal(t, "a@x.cz", table.Table.Body[0]["email"])

	req, ok := backend.LastRequest(http.MethodGet, "form-table")
	require.True(t, ok)
	assert.Equal(t, testutil.FakePrivateKey, req.PrivateKey)
	assert.Contains(t, req.Query, "per_page=2")
	assert.Contains(t, req.Query, "search_query=x.cz")
}

func TestNotFoundListsAreEmpty(t *testing.T) {
	c, _ := newClient(t, signedIn())

	labels, err := c.Labels(context.Background(), testutil.FakeUserID)
	require.NoError(t, err)
	assert.Empty(t, labels)

	forms, err := c.UserForms(context.Background(), testutil.FakeUserID)
	require.NoError(t, err)
	assert.Empty(t, forms)
}

func TestNotFoundSentinel(t *testing.T) {
	c, _ := newClient(t, signedIn())

	_, err := c.GetForm(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestRecorderSeesWritesOnly(t *testing.T) {
	c, backend := newClient(t, signedIn())
	rec := &memRecorder{}
	c.SetRecorder(rec)
	formID := backend.SeedForm("Kontakt")

	ctx := context.Background()
	_, err := c.GetForm(ctx, formID)
	require.NoError(t, err)
	require.NoError(t, c.ResetForm(ctx, formID))
	require.Error(t, c.DeleteForm(ctx, "missing"))

	require.Len(t, rec.entries, 2)
	assert.Equal(t, http.MethodDelete, rec.entries[0].method)
	assert.Equal(t, "forms/reset-form/"+formID, rec.entries[0].path)
	assert.NoError(t, rec.entries[0].err)
	assert.Equal(t, http.StatusNotFound, rec.entries[1].status)
	assert.Error(t, rec.entries[1].err)
}

func TestCancelledContext(t *testing.T) {
	c, _ := newClient(t, signedIn())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Statistics(ctx, testutil.FakeUserID)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUploadAndDeleteFile(t *testing.T) {
	c, backend := newClient(t, signedIn())
	ctx := context.Background()

	path, err := c.UploadFile(ctx, "logo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "logo.png"), path)
	data, ok := backend.File(path)
	require.True(t, ok)
	assert.Equal(t, "png-bytes", string(data))

	name := path[strings.LastIndex(path, "/")+1:]
	msg, err := c.DeleteFile(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "File deleted", msg)

	_, err = c.DeleteFile(ctx, name)
	var fileErr *brandoo.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, "delete", fileErr.Op)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUploadFailure(t *testing.T) {
	c, backend := newClient(t, signedIn())
	backend.Fail(http.MethodPost, "upload-file", http.StatusInternalServerError)

	path, err := c.UploadFile(context.Background(), "a.txt", strings.NewReader("x"))
	assert.Empty(t, path)
	var fileErr *brandoo.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, "upload", fileErr.Op)
	assert.Equal(t, "a.txt", fileErr.Name)
}

// droppingServer closes every connection without answering and counts the
// attempts per path.
func droppingServer(t *testing.T) (*httptest.Server, func(path string) int) {
	t.Helper()
	var mu sync.Mutex
	hits := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func(path string) int {
		mu.Lock()
		defer mu.Unlock()
		return hits[path]
	}
}

func TestUploadIsNotRetried(t *testing.T) {
	srv, hits := droppingServer(t)
	c := brandoo.New(brandoo.Options{BaseURL: srv.URL + "/api/", Timeout: 5 * time.Second, RetryCount: 2}, signedIn(), nil)
	ctx := context.Background()

	_, err := c.UploadFile(ctx, "logo.png", strings.NewReader("png-bytes"))
	var fileErr *brandoo.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, 1, hits("/api/upload-file"), "a consumed upload must not be resent")

	_, err = c.DeleteFile(ctx, "logo.png")
	require.Error(t, err)
	assert.Equal(t, 1, hits("/api/delete-file/logo.png"))
}

func TestReorderListItemsWire(t *testing.T) {
	c, backend := newClient(t, signedIn())
	kind := models.ContentListItem
	id := backend.SeedContent(models.ContentNode{
		ContentType:     &kind,
		ListItemContent: [][]models.ItemProperty{{}, {}, {}},
	})

	require.NoError(t, c.ReorderListItems(context.Background(), id, []int{2, 0, 1}))
	req, ok := backend.LastRequest(http.MethodPut, "reorder")
	require.True(t, ok)
	assert.JSONEq(t, `{"new_order":[2,0,1]}`, req.Body)
}

func TestContentPatchSendsNulls(t *testing.T) {
	c, backend := newClient(t, signedIn())
	kind := models.ContentText
	text := "hello"
	id := backend.SeedContent(models.ContentNode{ContentType: &kind, Text: &text})

	require.NoError(t, c.UpdateContent(context.Background(), id, models.DiscardPayload(models.ContentHTML)))

	req, ok := backend.LastRequest(http.MethodPut, "contents/"+id)
	require.True(t, ok)
	assert.Contains(t, req.Body, `"text":null`)
	assert.Contains(t, req.Body, `"list_item_content":null`)
	assert.Contains(t, req.Body, `"content_type":"html"`)

	node, _ := backend.Node(id)
	assert.Equal(t, models.ContentHTML, node.Type())
	assert.Nil(t, node.Text)
}

func TestEventsUsePrivateKey(t *testing.T) {
	c, backend := newClient(t, signedIn())
	ctx := context.Background()

	require.NoError(t, c.CreateEvent(ctx, models.Event{ResponseID: "response-9", UserID: testutil.FakeUserID, Title: "Schůzka"}))
	events, err := c.ResponseEvents(ctx, "response-9")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Schůzka", events[0].Title)
	assert.Equal(t, []string{}, events[0].Files)

	req, ok := backend.LastRequest(http.MethodGet, "events/response")
	require.True(t, ok)
	assert.Equal(t, testutil.FakePrivateKey, req.PrivateKey)
}

func TestUnseenContacts(t *testing.T) {
	c, backend := newClient(t, signedIn())
	backend.SeedContact(map[string]any{"email": "a@b.cz"})
	id := backend.SeedContact(map[string]any{"email": "c@d.cz"})
	ctx := context.Background()

	n, err := c.UnseenContacts(ctx, testutil.FakeUserID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, c.MarkContactRead(ctx, id))
	n, err = c.UnseenContacts(ctx, testutil.FakeUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	contact, err := c.Contact(ctx, id)
	require.NoError(t, err)
	assert.True(t, contact.HasReadInitialMessage)
	assert.Equal(t, "c@d.cz", contact.Fields["email"])
}
