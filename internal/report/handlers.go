package report

import (
	"fmt"
	"net/http"
	"time"

	"studiodesk/internal/api"
	"studiodesk/internal/document"
	"studiodesk/internal/termin"
	"studiodesk/pkg/config"
)

type Handlers struct {
	Cfg  config.Config
	Docs *document.Repository
}

func (h Handlers) revenue(r *http.Request) (Revenue, []document.Document, error) {
	q := r.URL.Query()
	g, err := termin.ParseGranularity(q.Get("granularity"))
	if err != nil {
		return Revenue{}, nil, err
	}
	rng, err := ParseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		return Revenue{}, nil, err
	}
	docs, err := h.Docs.ListByKind(r.Context(), document.KindInvoice)
	if err != nil {
		return Revenue{}, nil, err
	}
	return BuildRevenue(docs, g, rng), docs, nil
}

func (h Handlers) Revenue(w http.ResponseWriter, r *http.Request) {
	rev, _, err := h.revenue(r)
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, rev)
}

func (h Handlers) Outstanding(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Docs.ListByKind(r.Context(), document.KindInvoice)
	if err != nil {
		api.WriteInternal(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, BuildOutstanding(docs))
}

func (h Handlers) RevenueXLSX(w http.ResponseWriter, r *http.Request) {
	rev, docs, err := h.revenue(r)
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}

	fileName := fmt.Sprintf("revenue_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
	if err := WriteWorkbook(w, rev, BuildOutstanding(docs)); err != nil {
		// Headers are already out; all that is left is to log.
		api.LoggerFromContext(r.Context()).Sugar().Errorw("write revenue workbook", "error", err)
	}
}
