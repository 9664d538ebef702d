package payment

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiodesk/internal/api"
	"studiodesk/internal/audit"
	"studiodesk/internal/document"
	"studiodesk/internal/events"
	"studiodesk/internal/termin"
	"studiodesk/pkg/config"
	"studiodesk/pkg/db"
)

type Handlers struct {
	Cfg config.Config
	DB  *pgxpool.Pool
	Now func() time.Time
}

type SetStatusRequest struct {
	Status      string `json:"status"`
	PaymentDate string `json:"paymentDate"`
}

type SetStatusResponse struct {
	Milestone termin.Milestone `json:"milestone"`
	Summary   termin.Summary   `json:"summary"`
}

// Apply records the settlement change on a copy of ms. A newly paid termin without an
// explicit date is stamped with today; an already paid one keeps its date. Reverting
// keeps whatever date was recorded.
func (req SetStatusRequest) Apply(ms []termin.Milestone, i int, today time.Time) ([]termin.Milestone, error) {
	st, err := termin.ParseStatus(strings.TrimSpace(req.Status))
	if err != nil {
		return nil, termin.ValidationError{Code: "STATUS_INVALID", Message: err.Error()}
	}
	if !st.Paid() {
		return termin.MarkUnpaid(ms, i)
	}

	d := strings.TrimSpace(req.PaymentDate)
	if d == "" && i >= 0 && i < len(ms) && ms[i].Status.Paid() && ms[i].PaymentDate != "" {
		// Repeated "paid" without a date: keep the recorded one.
		return termin.Clone(ms), nil
	}
	on := today
	if d != "" {
		if on, err = time.Parse(termin.DateLayout, d); err != nil {
			return nil, termin.ValidationError{Code: "PAYMENT_DATE_INVALID", Message: "paymentDate must be YYYY-MM-DD"}
		}
	}
	return termin.MarkPaid(ms, i, on)
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// SetTerminStatus marks one termin paid or unpaid. Amounts are untouched: settlement
// never feeds back into the distribution.
func (h Handlers) SetTerminStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	i, err := document.IndexParam(r)
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	var req SetStatusRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	actor := api.Actor(r)

	var resp SetStatusResponse
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		d, err := document.GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if d.Status == document.StatusVoid {
			api.WriteError(w, http.StatusConflict, "DOCUMENT_LOCKED", "document is void")
			return pgx.ErrTxCommitRollback
		}

		ms, err := req.Apply(d.Milestones, i, h.now())
		if err != nil {
			return err
		}
		before := d.Milestones[i]
		after := ms[i]
		if before.Status == after.Status && before.PaymentDate == after.PaymentDate {
			resp = SetStatusResponse{Milestone: after, Summary: d.Summary()}
			return nil
		}

		d.Milestones = ms
		saved, err := document.Update(r.Context(), tx, *d)
		if err != nil {
			return err
		}

		eventType, summary := events.TypeTerminUnpaid, fmt.Sprintf("%s marked unpaid", after.Label)
		if after.Status.Paid() {
			eventType, summary = events.TypeTerminPaid, fmt.Sprintf("%s paid on %s", after.Label, after.PaymentDate)
		}
		data := map[string]any{"index": i, "amount": after.Amount, "paymentDate": after.PaymentDate}
		if err := audit.Insert(r.Context(), tx, audit.Entry{
			Collection: saved.Kind.Collection(),
			RecordID:   saved.ID,
			Action:     audit.ActionUpdate,
			Actor:      actor,
			Metadata: map[string]any{"changes": map[string]audit.Change{
				fmt.Sprintf("milestones[%d].status", i): {From: before.Status, To: after.Status},
			}},
		}); err != nil {
			return err
		}
		if err := events.Insert(r.Context(), tx, saved.ID, eventType, summary, actor, h.now(), data); err != nil {
			return err
		}

		resp = SetStatusResponse{Milestone: saved.Milestones[i], Summary: saved.Summary()}
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrTxCommitRollback) {
			return
		}
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, resp)
}
