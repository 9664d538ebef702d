package client

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"studiodesk/internal/api"
	"studiodesk/pkg/config"
	"studiodesk/pkg/pagination"
)

type Handlers struct {
	Cfg  config.Config
	Repo *Repository
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromQuery(r.URL.Query())
	items, total, err := h.Repo.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), p)
	if err != nil {
		api.WriteInternal(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, pagination.NewResult(items, p, total))
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, c)
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := api.DecodeJSON(r, &in); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	in, err := in.Normalize()
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	c, err := h.Repo.Create(r.Context(), in)
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, c)
}

func (h Handlers) Put(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := api.DecodeJSON(r, &in); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	in, err := in.Normalize()
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	c, err := h.Repo.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, c)
}

// Delete fails with 409 while projects or documents still reference the client.
func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.DeleteByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
