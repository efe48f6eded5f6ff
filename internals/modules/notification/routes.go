package notification

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Patch("/{notificationID}/read", h.MarkRead)
	r.Delete("/clear-all", h.ClearRead)

	return r
}

/*
- GET: /notifications -> latest 50, newest first, with endpoint name and url
	req auth : true

- PATCH: /notifications/{notificationID}/read -> mark read, 404 if not owned
	req auth : true

- DELETE: /notifications/clear-all -> delete read notifications
	req auth : true
	resp : {deleted}
*/
