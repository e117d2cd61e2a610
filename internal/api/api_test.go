package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/brandoo/console/internal/brandoo"
	"github.com/brandoo/console/internal/contacts"
	"github.com/brandoo/console/internal/events"
	"github.com/brandoo/console/internal/journal"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/notify"
	"github.com/brandoo/console/internal/session"
	"github.com/brandoo/console/internal/sse"
	"github.com/brandoo/console/internal/stats"
	"github.com/brandoo/console/internal/testutil"
	"github.com/brandoo/console/internal/workspace"
)

var quiet = slog.New(slog.NewJSONHandler(io.Discard, nil))

type toastRecorder struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *toastRecorder) Publish(e sse.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *toastRecorder) last() (notify.Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return notify.Toast{}, false
	}
	t, ok := r.events[len(r.events)-1].Data.(notify.Toast)
	return t, ok
}

type env struct {
	router  http.Handler
	backend *testutil.FakeBackend
	store   *session.Store
	toasts  *toastRecorder
}

// testEnv wires the handlers against a fake backend. signedIn signs the
// owner in before the router is returned; a non-empty authToken turns on
// token mode.
func testEnv(t *testing.T, signedIn bool, authToken string) *env {
	t.Helper()
	return testEnvWithSSE(t, signedIn, authToken, nil)
}

func testEnvWithSSE(t *testing.T, signedIn bool, authToken string, sseHandler http.Handler) *env {
	t.Helper()

	dir, fs := testutil.TestDataDir(t)
	store := session.NewStore(fs, quiet)
	backend := testutil.NewFakeBackend(t)
	client := brandoo.New(brandoo.Options{BaseURL: backend.URL(), Timeout: 5 * time.Second}, store, quiet)

	db, err := journal.Open(testutil.JournalPath(dir), quiet)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	client.SetRecorder(db)

	if signedIn {
		if _, err := store.SignIn(context.Background(), client, testutil.FakeEmail, testutil.FakePassword); err != nil {
			t.Fatalf("SignIn: %v", err)
		}
	}

	toasts := &toastRecorder{}
	h := NewHandler(Deps{
		Session:   store,
		Client:    client,
		Workspace: workspace.New(client, quiet),
		Stats:     stats.NewService(client),
		Contacts:  contacts.NewService(client),
		Events:    events.NewService(client),
		Journal:   db,
		Notifier:  notify.New(quiet, toasts),
		MaxUpload: 1 << 20,
		Logger:    quiet,
	})
	return &env{
		router:  NewRouter(h, authToken != "", authToken, sseHandler),
		backend: backend,
		store:   store,
		toasts:  toasts,
	}
}

func (e *env) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func ptr[T any](v T) *T { return &v }

func TestSessionRequired(t *testing.T) {
	e := testEnv(t, false, "")

	w := e.do(t, http.MethodGet, "/forms", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("forms without session = %d, want 401", w.Code)
	}
	toast, ok := e.toasts.last()
	if !ok || toast.Level != notify.LevelError {
		t.Errorf("expected an error toast, got %+v", toast)
	}

	w = e.do(t, http.MethodGet, "/session", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("session = %d", w.Code)
	}
	if got := decode[SessionResponse](t, w); got.SignedIn {
		t.Error("should not be signed in")
	}
}

func TestSignInAndOut(t *testing.T) {
	e := testEnv(t, false, "")

	w := e.do(t, http.MethodPost, "/session", map[string]string{"email": "not-an-email", "password": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid email = %d, want 400", w.Code)
	}

	w = e.do(t, http.MethodPost, "/session", map[string]string{"email": testutil.FakeEmail, "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d, want 401", w.Code)
	}

	w = e.do(t, http.MethodPost, "/session", map[string]string{"email": testutil.FakeEmail, "password": testutil.FakePassword})
	if w.Code != http.StatusOK {
		t.Fatalf("sign in = %d, body = %s", w.Code, w.Body.String())
	}
	if u := decode[models.User](t, w); u.ID != testutil.FakeUserID {
		t.Errorf("user = %q", u.ID)
	}

	got := decode[SessionResponse](t, e.do(t, http.MethodGet, "/session", nil))
	if !got.SignedIn || got.User == nil || got.ExpiresAt == "" {
		t.Errorf("session after sign in = %+v", got)
	}

	w = e.do(t, http.MethodPost, "/session/dev-mode", nil)
	if dev := decode[map[string]bool](t, w); !dev["devMode"] {
		t.Errorf("dev mode = %v", dev)
	}

	if w := e.do(t, http.MethodDelete, "/session", nil); w.Code != http.StatusNoContent {
		t.Fatalf("sign out = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/forms", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("forms after sign out = %d, want 401", w.Code)
	}
}

func TestSetUserFormInfo(t *testing.T) {
	e := testEnv(t, true, "")

	w := e.do(t, http.MethodPut, "/session/user-form-info", map[string]string{"registrationNo": "12a"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-digit registration no = %d, want 400", w.Code)
	}

	w = e.do(t, http.MethodPut, "/session/user-form-info", map[string]string{
		"contactEmail":   "info@brandoo.cz",
		"registrationNo": "12345678",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("user form info = %d, body = %s", w.Code, w.Body.String())
	}
	if u := e.store.State().User; u == nil || u.ContactEmail != "info@brandoo.cz" {
		t.Errorf("stored user = %+v", u)
	}
}

func TestFormEditorFlow(t *testing.T) {
	e := testEnv(t, true, "")
	id := e.backend.SeedForm("Poptávka")

	w := e.do(t, http.MethodGet, "/forms", nil)
	if forms := decode[[]models.Form](t, w); len(forms) != 1 || forms[0].ID != id {
		t.Fatalf("forms = %+v", forms)
	}

	w = e.do(t, http.MethodGet, "/forms/"+id+"/editor", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("editor = %d", w.Code)
	}
	staleTag := w.Header().Get("ETag")
	if staleTag == "" {
		t.Fatal("missing ETag")
	}
	if ed := decode[EditorResponse](t, w); len(ed.Issues) == 0 {
		t.Error("a form without reserved fields should report issues")
	}

	w = e.do(t, http.MethodPost, "/forms/"+id+"/editor/fields", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("add field = %d", w.Code)
	}
	field := decode[models.FieldDefinition](t, w)
	if !strings.HasPrefix(field.ID, models.PlaceholderPrefix) {
		t.Errorf("new field id = %q", field.ID)
	}

	w = e.do(t, http.MethodPatch, "/forms/"+id+"/editor/fields/"+field.ID, map[string]any{"label": "Telefonní číslo"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch field = %d, body = %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPatch, "/forms/"+id+"/editor/fields/"+field.ID, map[string]any{"options": []string{"a"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("options on short text = %d, want 400", w.Code)
	}

	w = e.do(t, http.MethodPatch, "/forms/"+id+"/editor/fields/"+field.ID, map[string]any{"propertyType": "video"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown type = %d, want 400", w.Code)
	}

	w = e.do(t, http.MethodPost, "/forms/"+id+"/editor/save", nil, "If-Match", staleTag)
	if w.Code != http.StatusConflict {
		t.Errorf("save with stale ETag = %d, want 409", w.Code)
	}

	tag := e.do(t, http.MethodGet, "/forms/"+id+"/editor", nil).Header().Get("ETag")
	w = e.do(t, http.MethodPost, "/forms/"+id+"/editor/save", nil, "If-Match", tag)
	if w.Code != http.StatusOK {
		t.Fatalf("save = %d, body = %s", w.Code, w.Body.String())
	}
	stored, _ := e.backend.Form(id)
	if len(stored.Properties) != 1 || stored.Properties[0].Key != "telefonniCislo" {
		t.Errorf("stored properties = %+v", stored.Properties)
	}
	if toast, _ := e.toasts.last(); toast.Level != notify.LevelSuccess {
		t.Errorf("last toast = %+v", toast)
	}

	w = e.do(t, http.MethodGet, "/forms/"+id+"/preview", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Telefonní číslo") {
		t.Errorf("preview = %d %s", w.Code, w.Body.String())
	}
}

func TestCreateFormAndLockedField(t *testing.T) {
	e := testEnv(t, true, "")

	w := e.do(t, http.MethodPost, "/forms", map[string]string{"name": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty name = %d, want 400", w.Code)
	}

	w = e.do(t, http.MethodPost, "/forms", map[string]string{"name": "Kontakt"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	f := decode[models.FormWithProperties](t, w)

	var privacy string
	for _, p := range f.Properties {
		if p.Key == models.KeyAgreedToPrivacyPolicy {
			privacy = p.ID
		}
	}
	if privacy == "" {
		t.Fatalf("created form lacks the privacy field: %+v", f.Properties)
	}
	w = e.do(t, http.MethodDelete, "/forms/"+f.ID+"/editor/fields/"+privacy, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("remove privacy field = %d, want 422", w.Code)
	}

	if w := e.do(t, http.MethodDelete, "/forms/"+f.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/forms/"+f.ID+"/editor", nil); w.Code != http.StatusNotFound {
		t.Errorf("editor after delete = %d, want 404", w.Code)
	}
}

func TestContentEdits(t *testing.T) {
	e := testEnv(t, true, "")
	id := e.backend.SeedContent(models.ContentNode{ContentType: ptr(models.ContentText), Text: ptr("")})

	w := e.do(t, http.MethodPut, "/contents/"+id, map[string]any{"text": "Ahoj"})
	if w.Code != http.StatusOK {
		t.Fatalf("set text = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[ContentResponse](t, w); got.State != "leaf" {
		t.Errorf("state = %q", got.State)
	}
	if n, _ := e.backend.Node(id); n.Text == nil || *n.Text != "Ahoj" {
		t.Errorf("stored text = %v", n.Text)
	}

	w = e.do(t, http.MethodPut, "/contents/"+id, map[string]any{"text": "a", "html": "<p>b</p>"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("two edits = %d, want 400", w.Code)
	}
	w = e.do(t, http.MethodPut, "/contents/"+id, map[string]any{"html": "<p>b</p>"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("html on text node = %d, want 400", w.Code)
	}
	w = e.do(t, http.MethodPut, "/contents/"+id+"/type", map[string]any{"contentType": "video"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown content type = %d, want 400", w.Code)
	}

	w = e.do(t, http.MethodPut, "/contents/"+id+"/type", map[string]any{"contentType": models.ContentListText})
	if w.Code != http.StatusOK {
		t.Fatalf("set type = %d", w.Code)
	}
	w = e.do(t, http.MethodPut, "/contents/"+id, map[string]any{"listText": map[string]any{"action": "add"}})
	if w.Code != http.StatusOK {
		t.Fatalf("add list text = %d, body = %s", w.Code, w.Body.String())
	}
	w = e.do(t, http.MethodPut, "/contents/"+id, map[string]any{"listText": map[string]any{"action": "set", "index": 0, "text": "první"}})
	if w.Code != http.StatusOK {
		t.Fatalf("set list text = %d", w.Code)
	}
	if n, _ := e.backend.Node(id); len(n.ListTextContent) != 1 || n.ListTextContent[0] != "první" {
		t.Errorf("list text = %v", n.ListTextContent)
	}

	w = e.do(t, http.MethodGet, "/activity", nil)
	if entries := decode[[]journal.Entry](t, w); len(entries) == 0 {
		t.Error("content writes should be journaled")
	}
}

func TestDragReorder(t *testing.T) {
	e := testEnv(t, true, "")
	group := func(key string) []models.ItemProperty {
		return []models.ItemProperty{{ID: "p-" + key, Key: key, ContentID: "c-" + key}}
	}
	id := e.backend.SeedContent(models.ContentNode{
		ContentType:     ptr(models.ContentListItem),
		ListItemContent: [][]models.ItemProperty{group("a"), group("b"), group("c")},
	})

	w := e.do(t, http.MethodPost, "/contents/"+id+"/drag/hover", map[string]int{"index": 1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("hover before start = %d, want 400", w.Code)
	}

	for _, step := range []struct {
		path  string
		index int
	}{{"start", 0}, {"hover", 1}, {"hover", 2}} {
		w := e.do(t, http.MethodPost, "/contents/"+id+"/drag/"+step.path, map[string]int{"index": step.index})
		if w.Code != http.StatusOK {
			t.Fatalf("%s %d = %d, body = %s", step.path, step.index, w.Code, w.Body.String())
		}
	}

	w = e.do(t, http.MethodPost, "/contents/"+id+"/drag/drop", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("drop = %d, body = %s", w.Code, w.Body.String())
	}
	n, _ := e.backend.Node(id)
	var keys []string
	for _, g := range n.ListItemContent {
		keys = append(keys, g[0].Key)
	}
	if strings.Join(keys, ",") != "b,c,a" {
		t.Errorf("stored order = %v, want b,c,a", keys)
	}
	if got := decode[DragResponse](t, w); fmt.Sprint(got.Order) != "[0 1 2]" {
		t.Errorf("order after drop = %v, want identity", got.Order)
	}
}

func TestRichTextApply(t *testing.T) {
	e := testEnv(t, false, "")

	w := e.do(t, http.MethodPost, "/richtext/apply", map[string]any{
		"content": "<p>Hello world</p>",
		"commands": []map[string]any{
			{"name": "bold", "selection": map[string]int{"start": 0, "end": 5}},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("apply = %d, body = %s", w.Code, w.Body.String())
	}
	got := decode[RichTextResponse](t, w)
	if got.HTML != "<p><b>Hello</b> world</p>" || !got.State.Bold {
		t.Errorf("apply = %+v", got)
	}

	w = e.do(t, http.MethodPost, "/richtext/apply", map[string]any{
		"content":  "<p>x</p>",
		"commands": []map[string]any{{"name": "blink"}},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown command = %d, want 400", w.Code)
	}
}

func TestStatisticSummary(t *testing.T) {
	e := testEnv(t, true, "")
	now := time.Now().UTC().Format(time.RFC3339)
	id := e.backend.SeedStatistic(models.Statistic{Name: "Kliky", Type: models.StatisticNumber, Values: []models.StatisticValue{
		{CreatedAt: now, Number: 3},
		{CreatedAt: now, Number: 4},
	}})

	w := e.do(t, http.MethodGet, "/statistics/"+id+"/summary?interval=all", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary = %d, body = %s", w.Code, w.Body.String())
	}
	if sum := decode[stats.Summary](t, w); sum.Count != 2 {
		t.Errorf("count = %d, want 2", sum.Count)
	}

	if w := e.do(t, http.MethodGet, "/statistics/"+id+"/summary?interval=decade", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad interval = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/statistics/missing/summary", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing statistic = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/statistics", map[string]string{"name": "X", "type": "color"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad statistic type = %d, want 400", w.Code)
	}
}

func TestExportContacts(t *testing.T) {
	e := testEnv(t, true, "")
	formID := e.backend.SeedForm("Poptávka",
		models.FieldDefinition{Key: "email", Label: "E-mail", PropertyType: models.PropertyShortText, Position: 1},
	)
	e.backend.SeedResponse(formID, models.Response{"email": "a@b.cz"})

	if w := e.do(t, http.MethodGet, "/contacts/export.xlsx", nil); w.Code != http.StatusBadRequest {
		t.Errorf("export without form = %d, want 400", w.Code)
	}

	w := e.do(t, http.MethodGet, "/contacts/export.xlsx?form="+formID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxMIME {
		t.Errorf("content type = %q", ct)
	}
	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(contacts.SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "a@b.cz" {
		t.Errorf("rows = %v", rows)
	}
}

func TestToggleContactLabel(t *testing.T) {
	e := testEnv(t, true, "")
	label := e.backend.SeedLabel("VIP", "amber")
	id := e.backend.SeedContact(map[string]any{"email": "a@b.cz", "labels": []any{}})

	w := e.do(t, http.MethodPut, "/contacts/"+id+"/labels/"+label, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[map[string][]string](t, w)["labels"]; len(got) != 1 || got[0] != label {
		t.Errorf("labels after first toggle = %v", got)
	}
	w = e.do(t, http.MethodPut, "/contacts/"+id+"/labels/"+label, nil)
	if got := decode[map[string][]string](t, w)["labels"]; len(got) != 0 {
		t.Errorf("labels after second toggle = %v", got)
	}
}

func TestResponseEventAndICS(t *testing.T) {
	e := testEnv(t, true, "")

	w := e.do(t, http.MethodPost, "/responses/resp-1/events", map[string]string{"alias": "Jan Novák"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create event = %d, body = %s", w.Code, w.Body.String())
	}
	stored := e.backend.Events()
	if len(stored) != 1 || stored[0].Title != "Schůzka s Jan Novák" || stored[0].ResponseID != "resp-1" {
		t.Fatalf("stored events = %+v", stored)
	}

	w = e.do(t, http.MethodGet, "/events/"+stored[0].ID+"/ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ics = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.Contains(w.Body.String(), "SUMMARY:Schůzka s Jan Novák") {
		t.Errorf("ics body = %s", w.Body.String())
	}

	w = e.do(t, http.MethodPatch, "/events/"+stored[0].ID, map[string]any{"title": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty title = %d, want 400", w.Code)
	}

	if w := e.do(t, http.MethodDelete, "/events/"+stored[0].ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete event = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/events/"+stored[0].ID+"/ics", nil); w.Code != http.StatusNotFound {
		t.Errorf("ics after delete = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := testEnv(t, false, "secret123")

	w := e.do(t, http.MethodGet, "/session", nil, "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed session = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	e := testEnv(t, false, "secret123")

	w := e.do(t, http.MethodGet, "/session", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	e := testEnv(t, false, "secret123")

	w := e.do(t, http.MethodGet, "/session", nil, "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

func blockingSSE() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	e := testEnvWithSSE(t, false, "secret", blockingSSE())

	w := e.do(t, http.MethodGet, "/events/stream", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	e := testEnvWithSSE(t, false, "tok", blockingSSE())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events/stream", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

// Image upload tests.

func uploadImage(t *testing.T, e *env, id, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/contents/"+id+"/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestUploadImage(t *testing.T) {
	e := testEnv(t, true, "")
	id := e.backend.SeedContent(models.ContentNode{ContentType: ptr(models.ContentImage)})

	w := uploadImage(t, e, id, "logo.png", []byte("fake-png-data"))
	if w.Code != http.StatusOK {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	n, _ := e.backend.Node(id)
	if n.Image == nil {
		t.Fatal("node image not set")
	}
	data, ok := e.backend.File(*n.Image)
	if !ok || string(data) != "fake-png-data" {
		t.Errorf("stored file = %q, %v", data, ok)
	}
}

func TestUploadImage_Rejected(t *testing.T) {
	e := testEnv(t, true, "")
	id := e.backend.SeedContent(models.ContentNode{ContentType: ptr(models.ContentImage)})

	if w := uploadImage(t, e, id, "notes.txt", []byte("x")); w.Code != http.StatusBadRequest {
		t.Errorf("non-image = %d, want 400", w.Code)
	}
	if w := uploadImage(t, e, id, "huge.png", bytes.Repeat([]byte("x"), 2<<20)); w.Code != http.StatusBadRequest {
		t.Errorf("oversized = %d, want 400", w.Code)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/contents/"+id+"/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestImageName(t *testing.T) {
	for _, name := range []string{"", "../a.png", "a/b.png", `a\b.png`, "doc.pdf"} {
		if _, err := imageName(name); err == nil {
			t.Errorf("imageName(%q) should fail", name)
		}
	}
	if got, err := imageName("Logo.PNG"); err != nil || got != "Logo.PNG" {
		t.Errorf("imageName(Logo.PNG) = %q, %v", got, err)
	}
}

func TestDeveloperPanels(t *testing.T) {
	e := testEnv(t, true, "")
	formID := e.backend.SeedForm("Anketa",
		models.FieldDefinition{ID: "prop-color", Key: "barva", Label: "Barva", PropertyType: models.PropertySelection, Options: []string{"modrá", "zelená"}, Position: 1},
	)
	nodeID := e.backend.SeedContent(models.ContentNode{ContentType: ptr(models.ContentText), Text: ptr("Ahoj")})

	publicPath := "/contents/" + nodeID + "/public"
	optionsPath := "/forms/" + formID + "/editor/fields/prop-color/options"
	for _, path := range []string{publicPath, optionsPath} {
		if w := e.do(t, http.MethodGet, path, nil); w.Code != http.StatusForbidden {
			t.Errorf("GET %s without developer mode = %d, want 403", path, w.Code)
		}
	}

	if w := e.do(t, http.MethodPost, "/session/dev-mode", nil); w.Code != http.StatusOK {
		t.Fatalf("dev mode = %d", w.Code)
	}

	w := e.do(t, http.MethodGet, publicPath, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("public content = %d, body = %s", w.Code, w.Body.String())
	}
	if doc := decode[map[string]any](t, w); doc["content"] != "Ahoj" {
		t.Errorf("public content = %v", doc)
	}

	w = e.do(t, http.MethodGet, optionsPath, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("options = %d, body = %s", w.Code, w.Body.String())
	}
	opts := decode[models.PropertyOptions](t, w)
	if opts.Key != "barva" || fmt.Sprint(opts.Options) != "[modrá zelená]" {
		t.Errorf("options = %+v", opts)
	}

	if w := e.do(t, http.MethodGet, "/forms/"+formID+"/editor/fields/missing/options", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing field options = %d, want 404", w.Code)
	}
}

func TestAllResponses(t *testing.T) {
	e := testEnv(t, true, "")
	first := e.backend.SeedForm("Poptávka",
		models.FieldDefinition{Key: "email", Label: "E-mail", PropertyType: models.PropertyShortText, Position: 1},
	)
	second := e.backend.SeedForm("Registrace",
		models.FieldDefinition{Key: "email", Label: "E-mail", PropertyType: models.PropertyShortText, Position: 1},
	)
	e.backend.SeedResponse(first, models.Response{"email": "a@b.cz"})
	e.backend.SeedResponse(second, models.Response{"email": "c@d.cz"})
	e.backend.SeedResponse(second, models.Response{"email": "e@f.cz"})

	w := e.do(t, http.MethodGet, "/responses?page=1&per_page=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("responses = %d, body = %s", w.Code, w.Body.String())
	}
	table := decode[models.FormTable](t, w)
	if len(table.Table.Body) != 2 || table.Pagination.TotalItems != 3 || table.Pagination.TotalPages != 2 {
		t.Errorf("table = %+v", table)
	}

	req, ok := e.backend.LastRequest(http.MethodGet, "users-forms-table")
	if !ok {
		t.Fatal("no users-forms-table request")
	}
	if req.PrivateKey != testutil.FakePrivateKey || !strings.Contains(req.Query, "per_page=2") {
		t.Errorf("request = %+v", req)
	}
}

func TestContactForms(t *testing.T) {
	e := testEnv(t, true, "")

	props := decode[[]map[string]string](t, e.do(t, http.MethodGet, "/contact-forms/properties", nil))
	if len(props) == 0 || props[0]["key"] != "agreedToPrivacyPolicy" {
		t.Errorf("properties = %v", props)
	}

	w := e.do(t, http.MethodPost, "/contact-forms", map[string]any{
		"name":           "Kontakt",
		"formProperties": []string{"email", "phone"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("form without privacy policy = %d, want 400", w.Code)
	}
	w = e.do(t, http.MethodPost, "/contact-forms", map[string]any{
		"name":           "Kontakt",
		"formProperties": []string{"email", "agreedToPrivacyPolicy", "shoeSize"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("form with unknown attribute = %d, want 400", w.Code)
	}
	if len(e.backend.ContactForms()) != 0 {
		t.Fatal("invalid forms reached the backend")
	}

	w = e.do(t, http.MethodPost, "/contact-forms", map[string]any{
		"name":           "Kontakt",
		"formProperties": []string{"email", "agreedToPrivacyPolicy", "phone"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	list := decode[[]models.ContactForm](t, e.do(t, http.MethodGet, "/contact-forms", nil))
	if len(list) != 1 || list[0].UserID != testutil.FakeUserID || fmt.Sprint(list[0].FormProperties) != "[email agreedToPrivacyPolicy phone]" {
		t.Fatalf("list = %+v", list)
	}
	id := list[0].ID

	w = e.do(t, http.MethodPut, "/contact-forms/"+id, map[string]any{
		"name":           "Kontakt 2",
		"formProperties": []string{"email", "agreedToPrivacyPolicy"},
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	if got := e.backend.ContactForms(); got[0].Name != "Kontakt 2" || len(got[0].FormProperties) != 2 {
		t.Errorf("stored = %+v", got)
	}

	if w := e.do(t, http.MethodDelete, "/contact-forms/"+id, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if got := decode[[]models.ContactForm](t, e.do(t, http.MethodGet, "/contact-forms", nil)); len(got) != 0 {
		t.Errorf("list after delete = %+v", got)
	}
}
