package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/brandoo/console/internal/casing"
	"github.com/brandoo/console/internal/models"
)

// Fake credentials accepted by FakeBackend.
const (
	FakeUserID     = "user-1"
	FakeEmail      = "owner@example.com"
	FakePassword   = "secret"
	FakeToken      = "token-1"
	FakePrivateKey = "pk-1"
)

// Request is a request received by FakeBackend. Body is the raw wire body.
type Request struct {
	Method     string
	Path       string
	Query      string
	Body       string
	PrivateKey string
}

type failure struct {
	method string
	path   string
	status int
}

// FakeBackend is an in-memory Brandoo backend speaking the snake_case wire
// format. Paths are served under /api/.
type FakeBackend struct {
	Server *httptest.Server

	mu         sync.Mutex
	seq        int
	requests   []Request
	failures   []failure
	forms      map[string]*models.FormWithProperties
	responses  map[string][]models.Response
	nodes      map[string]*models.ContentNode
	labels     map[string]*models.Label
	legacy     map[string]*models.ContactForm
	contacts   map[string]map[string]any
	statistics map[string]*models.Statistic
	events     map[string]*models.Event
	files      map[string][]byte
	users      map[string]models.User
}

// NewFakeBackend starts a fake backend that is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	b := &FakeBackend{
		forms:      make(map[string]*models.FormWithProperties),
		responses:  make(map[string][]models.Response),
		nodes:      make(map[string]*models.ContentNode),
		labels:     make(map[string]*models.Label),
		legacy:     make(map[string]*models.ContactForm),
		contacts:   make(map[string]map[string]any),
		statistics: make(map[string]*models.Statistic),
		events:     make(map[string]*models.Event),
		files:      make(map[string][]byte),
		users: map[string]models.User{
			FakeUserID: {ID: FakeUserID, Name: "Owner", Email: FakeEmail, Type: "company"},
		},
	}
	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the API base URL.
func (b *FakeBackend) URL() string {
	return b.Server.URL + "/api/"
}

// Requests returns a copy of every request received so far.
func (b *FakeBackend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent request with method whose path
// contains fragment.
func (b *FakeBackend) LastRequest(method, fragment string) (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		r := b.requests[i]
		if r.Method == method && strings.Contains(r.Path, fragment) {
			return r, true
		}
	}
	return Request{}, false
}

// Fail makes every request with method whose path contains fragment answer
// with status.
func (b *FakeBackend) Fail(method, fragment string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, failure{method: method, path: fragment, status: status})
}

// ClearFailures removes every injected failure.
func (b *FakeBackend) ClearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = nil
}

func (b *FakeBackend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%d", prefix, b.seq)
}

// SeedForm stores a form owned by FakeUserID and returns its id. Fields
// without an id get one.
func (b *FakeBackend) SeedForm(name string, fields ...models.FieldDefinition) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID("form")
	f := &models.FormWithProperties{ID: id, UserID: FakeUserID, Name: name}
	b.setProperties(f, fields)
	b.forms[id] = f
	return id
}

// Form returns the stored form.
func (b *FakeBackend) Form(id string) (models.FormWithProperties, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.forms[id]
	if !ok {
		return models.FormWithProperties{}, false
	}
	out := *f
	out.Properties = append([]models.FieldDefinition(nil), f.Properties...)
	return out, true
}

// SeedResponse appends a submission to a form.
func (b *FakeBackend) SeedResponse(formID string, r models.Response) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.ID() == "" {
		r["id"] = b.nextID("response")
	}
	b.responses[formID] = append(b.responses[formID], r)
	return r.ID()
}

// SeedContent stores a node and returns its id.
func (b *FakeBackend) SeedContent(n models.ContentNode) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n.ID == "" {
		n.ID = b.nextID("content")
	}
	if n.UserID == "" && n.IsRoot {
		n.UserID = FakeUserID
	}
	b.nodes[n.ID] = &n
	return n.ID
}

// Node returns the stored node.
func (b *FakeBackend) Node(id string) (models.ContentNode, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[id]
	if !ok {
		return models.ContentNode{}, false
	}
	return *n, true
}

// NodeCount returns how many nodes are stored.
func (b *FakeBackend) NodeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.nodes)
}

// SeedStatistic stores a statistic owned by FakeUserID and returns its id.
func (b *FakeBackend) SeedStatistic(s models.Statistic) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.ID == "" {
		s.ID = b.nextID("statistic")
	}
	s.UserID = FakeUserID
	b.statistics[s.ID] = &s
	return s.ID
}

// Statistic returns the stored statistic.
func (b *FakeBackend) Statistic(id string) (models.Statistic, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.statistics[id]
	if !ok {
		return models.Statistic{}, false
	}
	return *s, true
}

// SeedContact stores a contact with the given camelCase fields.
func (b *FakeBackend) SeedContact(fields map[string]any) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, _ := fields["id"].(string)
	if id == "" {
		id = b.nextID("contact")
	}
	c := map[string]any{"hasReadInitialMessage": false, "labels": []any{}}
	for k, v := range fields {
		c[k] = v
	}
	c["id"] = id
	b.contacts[id] = c
	return id
}

// Contact returns the stored contact fields.
func (b *FakeBackend) Contact(id string) (map[string]any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.contacts[id]
	return c, ok
}

// SeedLabel stores a label owned by FakeUserID and returns its id.
func (b *FakeBackend) SeedLabel(title, color string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID("label")
	b.labels[id] = &models.Label{ID: id, UserID: FakeUserID, Title: title, Color: color}
	return id
}

// Events returns every stored event.
func (b *FakeBackend) Events() []models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Event, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// File returns an uploaded file.
func (b *FakeBackend) File(path string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[path]
	return data, ok
}

func (b *FakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(b.recordRequests)
	r.Route("/api", func(r chi.Router) {
		r.Post("/user/sign-in", b.signIn)
		r.Post("/upload-file", b.uploadFile)
		r.Delete("/delete-file/{name}", b.deleteFile)

		r.Group(func(r chi.Router) {
			r.Use(b.requireToken)
			r.Put("/user/update/{id}", b.updateUser)
			b.formRoutes(r)
			b.contactRoutes(r)
			b.contentRoutes(r)
			b.statisticRoutes(r)
			b.eventRoutes(r)
		})
	})
	return r
}

func (b *FakeBackend) recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(strings.NewReader(string(body)))
		}
		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:     r.Method,
			Path:       r.URL.Path,
			Query:      r.URL.RawQuery,
			Body:       string(body),
			PrivateKey: r.Header.Get("X-Private-Key"),
		})
		for _, f := range b.failures {
			if f.method == r.Method && strings.Contains(r.URL.Path, f.path) {
				b.mu.Unlock()
				http.Error(w, "injected failure", f.status)
				return
			}
		}
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+FakeToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requirePrivateKey(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-Private-Key") != FakePrivateKey {
		http.Error(w, "missing private key", http.StatusForbidden)
		return false
	}
	return true
}

// writeSnake encodes v with snake_case keys, as the real backend does.
func writeSnake(w http.ResponseWriter, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	snake, err := casing.SnakeJSON(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(snake)
}

// readCamel decodes a snake_case body into v.
func readCamel(r *http.Request, v any) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	camel, err := casing.CamelJSON(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(camel, v)
}

func notFound(w http.ResponseWriter) {
	http.Error(w, "not found", http.StatusNotFound)
}

func badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// --- user ---

func (b *FakeBackend) signIn(w http.ResponseWriter, r *http.Request) {
	var in models.SignInRequest
	if err := readCamel(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	if in.Email != FakeEmail || in.Password != FakePassword {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	b.mu.Lock()
	user := b.users[FakeUserID]
	b.mu.Unlock()

	var out models.SignInResponse
	out.User = user
	out.Security.PrivateKey = FakePrivateKey
	out.Security.Token.AuthToken = FakeToken
	out.Security.Token.UserID = FakeUserID
	out.Security.Token.ExpiresAt = "2099-01-01T00:00:00Z"
	writeSnake(w, http.StatusOK, out)
}

func (b *FakeBackend) updateUser(w http.ResponseWriter, r *http.Request) {
	var in models.UserFormInfo
	if err := readCamel(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	u.ContactEmail = in.ContactEmail
	u.ContactPhone = in.ContactPhone
	u.RegistrationNo = in.RegistrationNo
	b.users[u.ID] = u
	w.WriteHeader(http.StatusOK)
}

// --- files ---

func (b *FakeBackend) uploadFile(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	path := "uploads/" + b.nextID("file") + "-" + header.Filename
	b.files[path] = data
	b.mu.Unlock()
	writeSnake(w, http.StatusOK, path)
}

func (b *FakeBackend) deleteFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	b.mu.Lock()
	defer b.mu.Unlock()
	for path := range b.files {
		if path == name || strings.HasSuffix(path, "/"+name) {
			delete(b.files, path)
			writeSnake(w, http.StatusOK, "File deleted")
			return
		}
	}
	notFound(w)
}

// --- forms ---

func (b *FakeBackend) formRoutes(r chi.Router) {
	r.Post("/forms/create-form/{userID}", b.createForm)
	r.Get("/forms/get-form/{id}", b.getForm)
	r.Put("/forms/update-form/{id}", b.updateForm)
	r.Delete("/forms/delete-form/{id}", b.deleteForm)
	r.Delete("/forms/reset-form/{id}", b.resetForm)
	r.Get("/forms/get-users-forms/{userID}", b.userForms)
	r.Get("/forms/form-table/{id}", b.formTable)
	r.Get("/forms/users-forms-table/{userID}", b.usersFormsTable)
	r.Get("/forms/property/options/{id}", b.propertyOptions)
}

// setProperties replaces the field set of f, assigning ids to new fields.
// Caller holds b.mu.
func (b *FakeBackend) setProperties(f *models.FormWithProperties, fields []models.FieldDefinition) {
	props := make([]models.FieldDefinition, 0, len(fields))
	ids := make([]string, 0, len(fields))
	for _, fd := range fields {
		if fd.ID == "" || strings.HasPrefix(fd.ID, models.PlaceholderPrefix) {
			fd.ID = b.nextID("property")
		}
		fd.FormID = f.ID
		fd.UserID = f.UserID
		props = append(props, fd)
		ids = append(ids, fd.ID)
	}
	sort.SliceStable(props, func(i, j int) bool { return props[i].Position < props[j].Position })
	f.Properties = props
	f.FormPropertiesIDs = ids
}

func (b *FakeBackend) createForm(w http.ResponseWriter, r *http.Request) {
	var in models.FormBasicInfo
	if err := readCamel(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID("form")
	f := &models.FormWithProperties{ID: id, UserID: chi.URLParam(r, "userID"), Name: in.Name, Description: in.Description}
	b.setProperties(f, []models.FieldDefinition{
		{Key: models.KeyEmail, Label: "E-mail", PropertyType: models.PropertyShortText, Position: 1, Required: true},
		{Key: models.KeyAgreedToPrivacyPolicy, Label: "Souhlas se zpracováním osobních údajů", PropertyType: models.PropertyBoolean, Position: 2, Required: true},
	})
	b.forms[id] = f
	writeSnake(w, http.StatusCreated, map[string]string{"id": id})
}

func (b *FakeBackend) getForm(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.forms[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	writeSnake(w, http.StatusOK, f)
}

func (b *FakeBackend) updateForm(w http.ResponseWriter, r *http.Request) {
	var in models.FormUpdate
	if err := readCamel(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.forms[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	f.Name = in.Name
	f.Description = in.Description
	b.setProperties(f, in.Properties)
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) deleteForm(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := b.forms[id]; !ok {
		notFound(w)
		return
	}
	delete(b.forms, id)
	delete(b.responses, id)
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) resetForm(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := b.forms[id]; !ok {
		notFound(w)
		return
	}
	delete(b.responses, id)
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) userForms(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	userID := chi.URLParam(r, "userID")
	var out []models.Form
	for _, f := range b.forms {
		if f.UserID == userID {
			out = append(out, models.Form{ID: f.ID, UserID: f.UserID, Name: f.Name, Description: f.Description, FormProperties: f.FormPropertiesIDs})
		}
	}
	if len(out) == 0 {
		notFound(w)
		return
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeSnake(w, http.StatusOK, out)
}

func (b *FakeBackend) formTable(w http.ResponseWriter, r *http.Request) {
	if !requirePrivateKey(w, r) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.forms[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	writeSnake(w, http.StatusOK, pageTable(headerOf(f), b.responses[f.ID], r))
}

func (b *FakeBackend) usersFormsTable(w http.ResponseWriter, r *http.Request) {
	if !requirePrivateKey(w, r) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	userID := chi.URLParam(r, "userID")
	ids := make([]string, 0, len(b.forms))
	for id, f := range b.forms {
		if f.UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	var rows []models.Response
	var header []models.TableHeader
	for _, id := range ids {
		if header == nil {
			header = headerOf(b.forms[id])
		}
		rows = append(rows, b.responses[id]...)
	}
	writeSnake(w, http.StatusOK, pageTable(header, rows, r))
}

func headerOf(f *models.FormWithProperties) []models.TableHeader {
	out := make([]models.TableHeader, 0, len(f.Properties))
	for _, p := range f.Properties {
		out = append(out, models.TableHeader{Key: p.Key, Label: p.Label, Position: p.Position, PropertyType: p.PropertyType})
	}
	return out
}

func pageTable(header []models.TableHeader, rows []models.Response, r *http.Request) models.FormTable {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if q := strings.ToLower(r.URL.Query().Get("search_query")); q != "" {
		var filtered []models.Response
		for _, row := range rows {
			for _, v := range row {
				if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), q) {
					filtered = append(filtered, row)
					break
				}
			}
		}
		rows = filtered
	}

	var t models.FormTable
	t.Table.Header = header
	start := (page - 1) * perPage
	if start < len(rows) {
		end := min(start+perPage, len(rows))
		t.Table.Body = rows[start:end]
	}
	if t.Table.Body == nil {
		t.Table.Body = []models.Response{}
	}
	t.Pagination = models.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: len(rows),
		TotalPages: (len(rows) + perPage - 1) / perPage,
	}
	return t
}

func (b *FakeBackend) propertyOptions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	for _, f := range b.forms {
		for _, p := range f.Properties {
			if p.ID == id {
				writeSnake(w, http.StatusOK, models.PropertyOptions{ID: p.ID, Key: p.Key, Label: p.Label, Options: p.Options})
				return
			}
		}
	}
	notFound(w)
}

// --- contacts ---

func (b *FakeBackend) contactRoutes(r chi.Router) {
	r.Get("/contacts/get-contacts/{userID}", b.listContacts)
	r.Get("/contacts/get-contact/{id}", b.getContact)
	r.Get("/contacts/get-unseen-contacts/{userID}", b.unseenContacts)
	r.Put("/contacts/has-read-initial-message/{id}", b.markRead)
	r.Put("/contacts/update-contact-description/{id}", b.updateContactField("description"))
	r.Put("/contacts/update-contact-labels/{id}", b.updateContactField("labels"))
	r.Delete("/contacts/delete-contact/{id}", b.deleteContact)
	r.Get("/contacts/labels/{userID}", b.listLabels)
	r.Post("/contacts/label/{id}", b.createLabel)
	r.Put("/contacts/label/{id}", b.updateLabel)
	r.Delete("/contacts/label/{id}", b.deleteLabel)
	r.Get("/contacts/forms/{userID}", b.listContactForms)
	r.Post("/contacts/form/{id}", b.createContactForm)
	r.Put("/contacts/form/{id}", b.updateContactForm)
	r.Delete("/contacts/form/{id}", b.deleteContactForm)
}

func (b *FakeBackend) sortedContacts() []map[string]any {
	ids := make([]string, 0, len(b.contacts))
	for id := range b.contacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.contacts[id])
	}
	return out
}

func (b *FakeBackend) listContacts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeSnake(w, http.StatusOK, b.sortedContacts())
}

func (b *FakeBackend) getContact(w http.ResponseWriter, r *http.Request) {
	if !requirePrivateKey(w, r) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.contacts[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	writeSnake(w, http.StatusOK, c)
}

func (b *FakeBackend) unseenContacts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.contacts {
		if read, _ := c["hasReadInitialMessage"].(bool); !read {
			n++
		}
	}
	writeSnake(w, http.StatusOK, n)
}

func (b *FakeBackend) markRead(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.contacts[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	c["hasReadInitialMessage"] = true
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) updateContactField(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		if err := readCamel(r, &in); err != nil {
			badRequest(w, err)
			return
		}
		v, ok := in[field]
		if !ok {
			badRequest(w, fmt.Errorf("missing %s", field))
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		c, ok := b.contacts[chi.URLParam(r, "id")]
		if !ok {
			notFound(w)
			return
		}
		c[field] = v
		w.WriteHeader(http.StatusOK)
	}
}

func (b *FakeBackend) deleteContact(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := b.contacts[id]; !ok {
		notFound(w)
		return
	}
	delete(b.contacts, id)
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) listLabels(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	userID := chi.URLParam(r, "userID")
	var out []models.Label
	for _, l := range b.labels {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	if len(out) == 0 {
		notFound(w)
		return
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeSnake(w, http.StatusOK, out)
}

func (b *FakeBackend) createLabel(w http.ResponseWriter, r *http.Request) {
	var in models.LabelInput
	if err := readCamel(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID("label")
	b.labels[id] = &models.Label{ID: id, UserID: chi.URLParam(r, "id"), Title: in.Title, Color: in.Color}
	w.WriteHeader(http.StatusCreated)
}

func (b *FakeBackend) updateLabel(w http.ResponseWriter, r *http.Request) {
	var in models.LabelInput
	if err := readCamel(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.labels[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	l.Title, l.Color = in.Title, in.Color
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) deleteLabel(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := b.labels[id]; !ok {
		notFound(w)
		return
	}
	delete(b.labels, id)
	w.WriteHeader(http.StatusOK)
}

// ContactForms returns the stored legacy contact forms ordered by id.
func (b *FakeBackend) ContactForms() []models.ContactForm {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.ContactForm, 0, len(b.legacy))
	for _, f := range b.legacy {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *FakeBackend) listContactForms(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	userID := chi.URLParam(r, "userID")
	var out []models.ContactForm
	for _, f := range b.legacy {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	if len(out) == 0 {
		notFound(w)
		return
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeSnake(w, http.StatusOK, out)
}

func (b *FakeBackend) createContactForm(w http.ResponseWriter, r *http.Request) {
	var in models.ContactForm
	if err := readCamel(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	in.ID = b.nextID("contact-form")
	in.UserID = chi.URLParam(r, "id")
	b.legacy[in.ID] = &in
	w.WriteHeader(http.StatusCreated)
}

func (b *FakeBackend) updateContactForm(w http.ResponseWriter, r *http.Request) {
	var in models.ContactForm
	if err := readCamel(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.legacy[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	f.Name, f.Description, f.FormProperties = in.Name, in.Description, in.FormProperties
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) deleteContactForm(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := b.legacy[id]; !ok {
		notFound(w)
		return
	}
	delete(b.legacy, id)
	w.WriteHeader(http.StatusOK)
}

// --- statistics ---

func (b *FakeBackend) statisticRoutes(r chi.Router) {
	r.Get("/statistics/users-statistics/{userID}", b.listStatistics)
	r.Post("/statistics/new-statistic/{userID}", b.createStatistic)
	r.Put("/statistics/update-statistic/{id}", b.updateStatistic)
	r.Delete("/statistics/delete-statistic/{id}", b.deleteStatistic)
	r.Delete("/statistics/reset/{id}", b.resetStatistic)
}

func (b *FakeBackend) listStatistics(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	userID := chi.URLParam(r, "userID")
	out := []models.Statistic{}
	for _, s := range b.statistics {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeSnake(w, http.StatusOK, out)
}

func (b *FakeBackend) createStatistic(w http.ResponseWriter, r *http.Request) {
	var in models.StatisticInput
	if err := readCamel(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID("statistic")
	b.statistics[id] = &models.Statistic{
		ID:          id,
		UserID:      chi.URLParam(r, "userID"),
		Name:        in.Name,
		Icon:        in.Icon,
		Type:        in.Type,
		Description: in.Description,
		Values:      []models.StatisticValue{},
	}
	w.WriteHeader(http.StatusCreated)
}

func (b *FakeBackend) updateStatistic(w http.ResponseWriter, r *http.Request) {
	var in models.StatisticInput
	if err := readCamel(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.statistics[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	s.Name, s.Icon, s.Type, s.Description = in.Name, in.Icon, in.Type, in.Description
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) deleteStatistic(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := b.statistics[id]; !ok {
		notFound(w)
		return
	}
	delete(b.statistics, id)
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) resetStatistic(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.statistics[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	s.Values = []models.StatisticValue{}
	w.WriteHeader(http.StatusOK)
}

// --- events ---

func (b *FakeBackend) eventRoutes(r chi.Router) {
	r.Post("/event", b.createEvent)
	r.Get("/event/{id}", b.getEvent)
	r.Put("/event/{id}", b.updateEvent)
	r.Delete("/event/{id}", b.deleteEvent)
	r.Get("/event/events/response/{id}", b.listEvents(func(e *models.Event, id string) bool { return e.ResponseID == id }))
	r.Get("/event/events/user/{id}", b.listEvents(func(e *models.Event, id string) bool { return e.UserID == id }))
	r.Get("/get-title", func(w http.ResponseWriter, r *http.Request) {
		writeSnake(w, http.StatusOK, models.LinkTitle{Title: "Title of " + r.URL.Query().Get("url")})
	})
}

func (b *FakeBackend) createEvent(w http.ResponseWriter, r *http.Request) {
	var in models.Event
	if err := readCamel(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	in.ID = b.nextID("event")
	b.events[in.ID] = &in
	writeSnake(w, http.StatusCreated, in)
}

func (b *FakeBackend) getEvent(w http.ResponseWriter, r *http.Request) {
	if !requirePrivateKey(w, r) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.events[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	writeSnake(w, http.StatusOK, e)
}

func (b *FakeBackend) updateEvent(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := readCamel(r, &patch); err != nil {
		badRequest(w, err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.events[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	if err := mergeInto(e, patch); err != nil {
		badRequest(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if !requirePrivateKey(w, r) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := b.events[id]; !ok {
		notFound(w)
		return
	}
	delete(b.events, id)
	w.WriteHeader(http.StatusOK)
}

func (b *FakeBackend) listEvents(match func(*models.Event, string) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requirePrivateKey(w, r) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		id := chi.URLParam(r, "id")
		out := []models.Event{}
		for _, e := range b.events {
			if match(e, id) {
				out = append(out, *e)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		writeSnake(w, http.StatusOK, out)
	}
}

// mergeInto applies a camelCase patch to dst. Nil entries clear the field.
func mergeInto[T any](dst *T, patch map[string]any) error {
	raw, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	for k, v := range patch {
		if v == nil {
			delete(m, k)
			continue
		}
		m[k] = v
	}
	merged, err := json.Marshal(m)
	if err != nil {
		return err
	}
	var fresh T
	if err := json.Unmarshal(merged, &fresh); err != nil {
		return err
	}
	*dst = fresh
	return nil
}
