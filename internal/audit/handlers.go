package audit

import (
	"net/http"

	"studiodesk/internal/api"
	"studiodesk/pkg/config"
	"studiodesk/pkg/pagination"
)

type Handlers struct {
	Cfg  config.Config
	Repo *Repository
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := pagination.FromQuery(q)
	items, total, err := h.Repo.List(r.Context(), Filter{
		Collection: q.Get("collection"),
		RecordID:   q.Get("recordId"),
	}, p)
	if err != nil {
		api.WriteInternal(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, pagination.NewResult(items, p, total))
}
