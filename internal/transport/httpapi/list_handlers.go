package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/lists"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/storage/postgres"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/log"
)

type listHandlers struct {
	svc *lists.Service
}

func newListHandlers(svc *lists.Service) *listHandlers {
	return &listHandlers{svc: svc}
}

func (h *listHandlers) list(w http.ResponseWriter, r *http.Request) {
	subdomainID, _ := strconv.Atoi(r.URL.Query().Get("subdomain_id"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	requests, err := h.svc.List(r.Context(), subdomainID, limit)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if requests == nil {
		requests = []core.ListRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *listHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *listHandlers) create(w http.ResponseWriter, r *http.Request) {
	var lr core.ListRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.Create(r.Context(), &lr)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *listHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.Update(r.Context(), id, fields); err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true, "list_id": id})
}

func (h *listHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "list_id": id})
}

type addItemsRequest struct {
	Items     []map[string]any `json:"items"`
	UpdatedBy string           `json:"updated_by"`
}

func (h *listHandlers) addItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	version, err := h.svc.AddItems(r.Context(), id, req.Items, req.UpdatedBy)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

func (h *listHandlers) changes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	analysis, err := h.svc.AnalyzeChanges(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *listHandlers) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		writeError(w, http.StatusNotFound, "list not found")
	case errors.Is(err, lists.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.FromCtx(r.Context()).Error().Err(err).Msg("lists request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return 0, false
	}
	return id, true
}
