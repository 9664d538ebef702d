package project

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiodesk/internal/api"
	"studiodesk/internal/audit"
	"studiodesk/pkg/config"
	"studiodesk/pkg/db"
	"studiodesk/pkg/pagination"
)

type Handlers struct {
	Cfg  config.Config
	DB   *pgxpool.Pool
	Repo *Repository
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{ClientID: q.Get("clientId")}
	if s := q.Get("status"); s != "" {
		st, err := ParseStatus(s)
		if err != nil {
			api.WriteDomainError(w, r, h.Cfg.Prod(), err)
			return
		}
		f.Status = st
	}
	p := pagination.FromQuery(q)
	items, total, err := h.Repo.List(r.Context(), f, p)
	if err != nil {
		api.WriteInternal(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, pagination.NewResult(items, p, total))
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, p)
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := api.DecodeJSON(r, &in); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	v, err := in.Validate()
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}

	var out *Project
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		p, err := Create(r.Context(), tx, v)
		if err != nil {
			return err
		}
		out = p
		return audit.Insert(r.Context(), tx, audit.Entry{
			Collection: audit.CollectionProjects,
			RecordID:   p.ID,
			Action:     audit.ActionCreate,
			Actor:      api.Actor(r),
			Metadata:   p,
		})
	})
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, out)
}

func (h Handlers) Put(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in Input
	if err := api.DecodeJSON(r, &in); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	v, err := in.Validate()
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}

	var out *Project
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		before, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		after, err := Update(r.Context(), tx, id, v)
		if err != nil {
			return err
		}
		out = after
		diff, err := audit.Diff(before, after)
		if err != nil {
			return err
		}
		return audit.Insert(r.Context(), tx, audit.Entry{
			Collection: audit.CollectionProjects,
			RecordID:   id,
			Action:     audit.ActionUpdate,
			Actor:      api.Actor(r),
			Metadata:   map[string]any{"changes": diff},
		})
	})
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, out)
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		before, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if err := Delete(r.Context(), tx, id); err != nil {
			return err
		}
		return audit.Insert(r.Context(), tx, audit.Entry{
			Collection: audit.CollectionProjects,
			RecordID:   id,
			Action:     audit.ActionDelete,
			Actor:      api.Actor(r),
			Metadata:   before,
		})
	})
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
