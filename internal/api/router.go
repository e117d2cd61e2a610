package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brandoo/console/internal/cms"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events/stream inside the auth
// group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Session and tools that work while signed out.
	r.Get("/session", h.GetSession)
	r.Post("/session", h.SignIn)
	r.Delete("/session", h.SignOut)
	r.Post("/session/dev-mode", h.ToggleDevMode)
	r.Post("/richtext/apply", h.ApplyRichText)
	r.Get("/activity", h.Activity)

	if sseHandler != nil {
		r.Get("/events/stream", sseHandler.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)

		r.Put("/session/user-form-info", h.SetUserFormInfo)

		// Forms and the schema editor.
		r.Get("/forms", h.ListForms)
		r.Post("/forms", h.CreateForm)
		r.Delete("/forms/{id}", h.DeleteForm)
		r.Post("/forms/{id}/reset", h.ResetForm)
		r.Get("/forms/{id}/table", h.FormTable)
		r.Get("/responses", h.AllResponses)
		r.Get("/forms/{id}/preview", h.PreviewForm)
		r.Get("/forms/{id}/editor", h.GetEditor)
		r.Patch("/forms/{id}/editor", h.UpdateFormInfo)
		r.Delete("/forms/{id}/editor", h.DiscardEditor)
		r.Post("/forms/{id}/editor/fields", h.AddField)
		r.Patch("/forms/{id}/editor/fields/{fieldID}", h.UpdateField)
		r.Delete("/forms/{id}/editor/fields/{fieldID}", h.RemoveField)
		r.Post("/forms/{id}/editor/move", h.MoveField)
		r.Post("/forms/{id}/editor/save", h.SaveForm)

		// CMS.
		r.Get("/contents/roots", h.ListRoots)
		r.Post("/contents/roots", h.CreateRoot)
		r.Put("/contents/roots/{id}", h.RenameRoot)
		r.Delete("/contents/roots/{id}", h.DeleteRoot)
		r.Get("/contents/{id}", h.GetContent)
		r.Put("/contents/{id}", h.UpdateContent)
		r.Get("/contents/{id}/tree", h.ContentTree)
		r.Get("/contents/{id}/preview", h.PreviewContent)
		r.Put("/contents/{id}/type", h.SetContentType)
		r.Post("/contents/{id}/image", h.UploadImage)
		r.Post("/contents/{id}/properties", h.AddProperty)
		r.Delete("/contents/{id}/properties/{propertyID}", h.DeleteProperty)
		r.Put("/properties/{id}/key", h.RenameProperty)
		r.Post("/contents/{id}/list-items", h.AddListItem)
		r.Post("/contents/{id}/list-items/{idx}/properties", h.AddListItemProperty)
		r.Delete("/contents/{id}/list-items/{idx}", h.RemoveListItem)
		r.Get("/contents/{id}/drag", h.GetDrag)
		r.Post("/contents/{id}/drag/start", h.dragStep((*cms.DragSession).Start))
		r.Post("/contents/{id}/drag/hover", h.dragStep((*cms.DragSession).Hover))
		r.Post("/contents/{id}/drag/toggle", h.dragStep((*cms.DragSession).Toggle))
		r.Post("/contents/{id}/drag/drop", h.DropDrag)

		// Statistics.
		r.Get("/statistics", h.ListStatistics)
		r.Post("/statistics", h.CreateStatistic)
		r.Put("/statistics/{id}", h.UpdateStatistic)
		r.Delete("/statistics/{id}", h.DeleteStatistic)
		r.Post("/statistics/{id}/reset", h.ResetStatistic)
		r.Get("/statistics/{id}/summary", h.StatisticSummary)

		// Contacts and labels.
		r.Get("/contacts", h.ListContacts)
		r.Get("/contacts/unseen", h.UnseenContacts)
		r.Get("/contacts/export.xlsx", h.ExportContacts)
		r.Post("/contacts/{id}/read", h.MarkContactRead)
		r.Put("/contacts/{id}/description", h.SetContactDescription)
		r.Put("/contacts/{id}/labels/{labelID}", h.ToggleContactLabel)
		r.Delete("/contacts/{id}", h.DeleteContact)
		r.Get("/labels", h.ListLabels)
		r.Post("/labels", h.CreateLabel)
		r.Put("/labels/{id}", h.UpdateLabel)
		r.Delete("/labels/{id}", h.DeleteLabel)
		r.Get("/contact-forms", h.ListContactForms)
		r.Get("/contact-forms/properties", h.ContactFormProperties)
		r.Post("/contact-forms", h.CreateContactForm)
		r.Put("/contact-forms/{id}", h.UpdateContactForm)
		r.Delete("/contact-forms/{id}", h.DeleteContactForm)

		// Events.
		r.Get("/events", h.ListEvents)
		r.Get("/events/{id}", h.GetEvent)
		r.Patch("/events/{id}", h.UpdateEvent)
		r.Delete("/events/{id}", h.DeleteEvent)
		r.Get("/events/{id}/ics", h.EventICS)
		r.Get("/responses/{id}/events", h.ResponseEvents)
		r.Post("/responses/{id}/events", h.CreateResponseEvent)

		// Developer panels.
		r.Group(func(r chi.Router) {
			r.Use(h.requireDevMode)
			r.Get("/contents/{id}/public", h.PublicContent)
			r.Get("/forms/{id}/editor/fields/{fieldID}/options", h.FieldOptions)
		})
	})

	return r
}
