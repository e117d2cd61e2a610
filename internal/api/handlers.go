package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brandoo/console/internal/brandoo"
	"github.com/brandoo/console/internal/contacts"
	"github.com/brandoo/console/internal/events"
	"github.com/brandoo/console/internal/journal"
	"github.com/brandoo/console/internal/notify"
	"github.com/brandoo/console/internal/session"
	"github.com/brandoo/console/internal/stats"
	"github.com/brandoo/console/internal/workspace"
)

// ChangePublisher announces entity changes to connected pages.
type ChangePublisher interface {
	PublishChange(entity, kind, id string)
}

// Deps are the services the handlers work with.
type Deps struct {
	Session   *session.Store
	Client    *brandoo.Client
	Workspace *workspace.Workspace
	Stats     *stats.Service
	Contacts  *contacts.Service
	Events    *events.Service
	Journal   *journal.DB
	Notifier  *notify.Notifier
	Changes   ChangePublisher
	MaxUpload int64
	Logger    *slog.Logger
}

// Handler holds API route handlers.
type Handler struct {
	session   *session.Store
	client    *brandoo.Client
	ws        *workspace.Workspace
	stats     *stats.Service
	contacts  *contacts.Service
	events    *events.Service
	journal   *journal.DB
	notifier  *notify.Notifier
	changes   ChangePublisher
	maxUpload int64
	logger    *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := d.MaxUpload
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handler{
		session:   d.Session,
		client:    d.Client,
		ws:        d.Workspace,
		stats:     d.Stats,
		contacts:  d.Contacts,
		events:    d.Events,
		journal:   d.Journal,
		notifier:  d.Notifier,
		changes:   d.Changes,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// fail writes the error response and raises an error toast with msg.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status, body := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	h.notifier.Error(r.Context(), msg, err)
	writeJSON(w, status, errorBody(body))
}

// done raises a success toast and announces the change.
func (h *Handler) done(r *http.Request, msg, entity, kind, id string) {
	if msg != "" {
		h.notifier.Success(r.Context(), msg)
	}
	if h.changes != nil && entity != "" {
		h.changes.PublishChange(entity, kind, id)
	}
}

func intParam(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	return n, err == nil
}
