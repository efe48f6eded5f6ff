package endpoint

import (
	"encoding/json"
	"net/http"

	middle "endpoint-monitor/internals/middleware"
	"endpoint-monitor/pkg/apperror"
	"endpoint-monitor/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service, validator *validator.Validate) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
	}
}

func (h *Handler) CreateEndpoint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	user, ok := middle.UserFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	var req CreateEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	cmd := CreateEndpointCmd{
		UserID:  user.UserID,
		Name:    req.Name,
		Url:     req.Url,
		Headers: req.Headers,
	}
	if req.CheckIntervalMs != nil {
		cmd.CheckIntervalMs = *req.CheckIntervalMs
	}
	if req.TimeoutMs != nil {
		cmd.TimeoutMs = *req.TimeoutMs
	}

	ep, err := h.service.CreateEndpoint(ctx, cmd)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, reqID, utils.EndpointCreated, ep)
}

func (h *Handler) ListEndpoints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	user, ok := middle.UserFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	eps, err := h.service.ListEndpoints(ctx, user.UserID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, utils.EndpointsListed, eps)
}

func (h *Handler) GetEndpoint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	user, ok := middle.UserFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	endpointID, err := uuid.Parse(chi.URLParam(r, "endpointID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid endpoint id")
		return
	}

	ep, err := h.service.GetEndpoint(ctx, user.UserID, endpointID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, utils.EndpointRetrieved, ep)
}

func (h *Handler) UpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	user, ok := middle.UserFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	endpointID, err := uuid.Parse(chi.URLParam(r, "endpointID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid endpoint id")
		return
	}

	var req UpdateEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	ep, err := h.service.UpdateEndpoint(ctx, user.UserID, endpointID, EndpointPatch{
		Name:            req.Name,
		Url:             req.Url,
		CheckIntervalMs: req.CheckIntervalMs,
		TimeoutMs:       req.TimeoutMs,
		Headers:         req.Headers,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, utils.EndpointUpdated, ep)
}

func (h *Handler) DeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	user, ok := middle.UserFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	endpointID, err := uuid.Parse(chi.URLParam(r, "endpointID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid endpoint id")
		return
	}

	ep, err := h.service.DeleteEndpoint(ctx, user.UserID, endpointID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, utils.EndpointDeleted, DeleteEndpointResponse{ID: ep.ID.String()})
}
