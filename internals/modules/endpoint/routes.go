package endpoint

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateEndpoint)
	r.Get("/", h.ListEndpoints)
	r.Get("/{endpointID}", h.GetEndpoint)
	r.Put("/{endpointID}", h.UpdateEndpoint)
	r.Delete("/{endpointID}", h.DeleteEndpoint)

	return r
}

/*
- POST: /endpoints -> create endpoint
	req auth : true
	body : CreateEndpointRequest
	resp : Endpoint

- GET: /endpoints -> list user's endpoints, newest first, each with last 10 logs
	req auth : true
	resp : []EndpointDetail

- GET: /endpoints/{endpointID} -> endpoint with last 100 logs
	req auth : true
	resp : EndpointDetail

- PUT: /endpoints/{endpointID} -> partial update
	req auth : true
	body : UpdateEndpointRequest
	resp : Endpoint

- DELETE: /endpoints/{endpointID} -> delete, cascades logs and notifications
	req auth : true
	resp : {id}
*/
