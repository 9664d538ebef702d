package document

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"studiodesk/internal/adminaction"
	"studiodesk/internal/api"
	"studiodesk/internal/audit"
	"studiodesk/internal/client"
	"studiodesk/internal/events"
	"studiodesk/internal/project"
	"studiodesk/internal/termin"
	"studiodesk/pkg/config"
	"studiodesk/pkg/db"
	"studiodesk/pkg/pagination"
)

type Handlers struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Docs      *Repository
	Events    *events.Repository
	Overrides *adminaction.Repository
	Clients   *client.Repository
	Projects  *project.Repository
	Editor    Editor
}

// View is what every single-document endpoint returns.
type View struct {
	Document Document             `json:"document"`
	Summary  termin.Summary       `json:"summary"`
	Warnings []termin.SpecWarning `json:"warnings"`
}

func NewView(d Document) View {
	w := d.Warnings()
	if w == nil {
		w = []termin.SpecWarning{}
	}
	return View{Document: d, Summary: d.Summary(), Warnings: w}
}

type ListItem struct {
	Document
	Summary termin.Summary   `json:"summary"`
	Client  *client.Client   `json:"client,omitempty"`
	Project *project.Project `json:"project,omitempty"`
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		ClientID:  q.Get("clientId"),
		ProjectID: q.Get("projectId"),
		Query:     q.Get("q"),
	}
	var err error
	if s := q.Get("kind"); s != "" {
		if f.Kind, err = ParseKind(s); err != nil {
			api.WriteDomainError(w, r, h.Cfg.Prod(), err)
			return
		}
	}
	if s := q.Get("category"); s != "" {
		if f.Category, err = termin.ParseCategory(s); err != nil {
			api.WriteDomainError(w, r, h.Cfg.Prod(), err)
			return
		}
	}
	if s := q.Get("status"); s != "" {
		f.Status = Status(s)
	}

	p := pagination.FromQuery(q)
	docs, total, err := h.Docs.List(r.Context(), f, p)
	if err != nil {
		api.WriteInternal(w, r, h.Cfg.Prod(), err)
		return
	}

	items, err := h.expand(r.Context(), docs, parseExpand(q.Get("expand")))
	if err != nil {
		api.WriteInternal(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, pagination.NewResult(items, p, total))
}

func parseExpand(s string) map[string]bool {
	out := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out[part] = true
		}
	}
	return out
}

func (h Handlers) expand(ctx context.Context, docs []Document, want map[string]bool) ([]ListItem, error) {
	var clientIDs, projectIDs []string
	for _, d := range docs {
		clientIDs = append(clientIDs, d.ClientID)
		if d.ProjectID != nil {
			projectIDs = append(projectIDs, *d.ProjectID)
		}
	}

	clients := map[string]client.Client{}
	projects := map[string]project.Project{}
	var err error
	if want["client"] {
		if clients, err = h.Clients.GetMany(ctx, clientIDs); err != nil {
			return nil, fmt.Errorf("expand clients: %w", err)
		}
	}
	if want["project"] {
		if projects, err = h.Projects.GetMany(ctx, projectIDs); err != nil {
			return nil, fmt.Errorf("expand projects: %w", err)
		}
	}

	out := make([]ListItem, 0, len(docs))
	for _, d := range docs {
		item := ListItem{Document: d, Summary: d.Summary()}
		if c, ok := clients[d.ClientID]; ok {
			item.Client = &c
		}
		if d.ProjectID != nil {
			if p, ok := projects[*d.ProjectID]; ok {
				item.Project = &p
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.Docs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, NewView(*d))
}

type MilestoneInput struct {
	Label string `json:"label"`
	Spec  string `json:"spec"`
}

type CreateRequest struct {
	Kind       string           `json:"kind"`
	Number     string           `json:"number"`
	Title      string           `json:"title"`
	ClientID   string           `json:"clientId"`
	ProjectID  *string          `json:"projectId"`
	Category   string           `json:"category"`
	Area       decimal.Decimal  `json:"area"`
	UnitPrice  decimal.Decimal  `json:"unitPrice"`
	TotalValue decimal.Decimal  `json:"totalValue"`
	Notes      string           `json:"notes"`
	Milestones []MilestoneInput `json:"milestones"`
}

// Build turns the request into a fresh draft. Without explicit milestones the category
// template is used.
func (req CreateRequest) Build(e Editor) (Document, error) {
	kind, err := ParseKind(req.Kind)
	if err != nil {
		return Document{}, err
	}
	cat, err := termin.ParseCategory(req.Category)
	if err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(req.ClientID) == "" {
		return Document{}, termin.ValidationError{Code: "VALIDATION_FAILED", Message: "clientId is required"}
	}

	d := e.New(kind, cat)
	d.Number = strings.TrimSpace(req.Number)
	d.Title = strings.TrimSpace(req.Title)
	d.ClientID = strings.TrimSpace(req.ClientID)
	d.ProjectID = normalizeID(req.ProjectID)
	d.Notes = req.Notes
	if len(req.Milestones) > 0 {
		d.Milestones = make([]termin.Milestone, 0, len(req.Milestones))
		for i, m := range req.Milestones {
			label := strings.TrimSpace(m.Label)
			if label == "" {
				label = termin.DefaultLabel(i)
			}
			d.Milestones = append(d.Milestones, termin.Milestone{Label: label, Spec: m.Spec, Amount: decimal.Zero})
		}
	}
	return e.SetPricing(d, req.Area, req.UnitPrice, req.TotalValue)
}

func normalizeID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	s := strings.TrimSpace(*id)
	return &s
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	d, err := req.Build(h.Editor)
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}

	actor := api.Actor(r)
	var out *Document
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		if d.Number == "" {
			year := time.Now().Year()
			seq, err := NextSequence(r.Context(), tx, d.Kind, year)
			if err != nil {
				return err
			}
			d.Number = FormatNumber(d.Kind, year, seq)
		}
		created, err := Create(r.Context(), tx, d)
		if err != nil {
			return err
		}
		out = created
		if err := audit.Insert(r.Context(), tx, audit.Entry{
			Collection: created.Kind.Collection(),
			RecordID:   created.ID,
			Action:     audit.ActionCreate,
			Actor:      actor,
			Metadata:   created,
		}); err != nil {
			return err
		}
		return events.Insert(r.Context(), tx, created.ID, events.TypeCreated,
			fmt.Sprintf("%s %s created", created.Kind, created.Number), actor, time.Now(), nil)
	})
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, NewView(*out))
}

// mutate runs fn against the locked row and persists the result with its audit and
// timeline entries. Locked documents are rejected with 409.
func (h Handlers) mutate(w http.ResponseWriter, r *http.Request, eventType, summary string, fn func(d Document) (Document, error)) {
	id := chi.URLParam(r, "id")
	actor := api.Actor(r)

	var out *Document
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		before, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if !before.Status.Editable() {
			api.WriteError(w, http.StatusConflict, "DOCUMENT_LOCKED", fmt.Sprintf("document is %s", before.Status))
			return pgx.ErrTxCommitRollback
		}

		next, err := fn(*before)
		if err != nil {
			return err
		}
		after, err := Update(r.Context(), tx, next)
		if err != nil {
			return err
		}
		out = after

		diff, err := audit.Diff(before, after)
		if err != nil {
			return err
		}
		delete(diff, "updatedAt")
		if err := audit.Insert(r.Context(), tx, audit.Entry{
			Collection: after.Kind.Collection(),
			RecordID:   after.ID,
			Action:     audit.ActionUpdate,
			Actor:      actor,
			Metadata:   map[string]any{"changes": diff},
		}); err != nil {
			return err
		}
		return events.Insert(r.Context(), tx, after.ID, eventType, summary, actor, time.Now(), nil)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrTxCommitRollback) {
			return
		}
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, NewView(*out))
}

type PatchRequest struct {
	Number    *string `json:"number"`
	Title     *string `json:"title"`
	ClientID  *string `json:"clientId"`
	ProjectID *string `json:"projectId"`
	Notes     *string `json:"notes"`
}

func (h Handlers) Patch(w http.ResponseWriter, r *http.Request) {
	var req PatchRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	h.mutate(w, r, events.TypeUpdated, "Details updated", func(d Document) (Document, error) {
		if req.Number != nil {
			n := strings.TrimSpace(*req.Number)
			if n == "" {
				return d, termin.ValidationError{Code: "VALIDATION_FAILED", Message: "number must not be blank"}
			}
			d.Number = n
		}
		if req.Title != nil {
			d.Title = strings.TrimSpace(*req.Title)
		}
		if req.ClientID != nil {
			c := strings.TrimSpace(*req.ClientID)
			if c == "" {
				return d, termin.ValidationError{Code: "VALIDATION_FAILED", Message: "clientId must not be blank"}
			}
			d.ClientID = c
		}
		if req.ProjectID != nil {
			d.ProjectID = normalizeID(req.ProjectID)
		}
		if req.Notes != nil {
			d.Notes = *req.Notes
		}
		return d, nil
	})
}

type PricingRequest struct {
	Area       decimal.Decimal `json:"area"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

func (h Handlers) PutPricing(w http.ResponseWriter, r *http.Request) {
	var req PricingRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	h.mutate(w, r, events.TypeUpdated, "Pricing updated", func(d Document) (Document, error) {
		return h.Editor.SetPricing(d, req.Area, req.UnitPrice, req.TotalValue)
	})
}

type CategoryRequest struct {
	Category string `json:"category"`
}

func (h Handlers) PutCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	cat, err := termin.ParseCategory(req.Category)
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	h.mutate(w, r, events.TypeMilestonesReset, "Category changed to "+string(cat), func(d Document) (Document, error) {
		return h.Editor.ChangeCategory(d, cat), nil
	})
}

func (h Handlers) ResetTemplate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, events.TypeMilestonesReset, "Termins reset to template", func(d Document) (Document, error) {
		return h.Editor.ResetTemplate(d), nil
	})
}

func (h Handlers) AddMilestone(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, events.TypeUpdated, "Termin added", func(d Document) (Document, error) {
		return h.Editor.AddMilestone(d), nil
	})
}

type MilestonePatchRequest struct {
	Label  *string          `json:"label"`
	Spec   *string          `json:"spec"`
	Amount *decimal.Decimal `json:"amount"`
}

func (h Handlers) PatchMilestone(w http.ResponseWriter, r *http.Request) {
	i, err := IndexParam(r)
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	var req MilestonePatchRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	h.mutate(w, r, events.TypeUpdated, fmt.Sprintf("Termin %d updated", i+1), func(d Document) (Document, error) {
		var err error
		if req.Label != nil {
			if d, err = h.Editor.SetMilestoneLabel(d, i, *req.Label); err != nil {
				return d, err
			}
		}
		if req.Spec != nil {
			if d, err = h.Editor.SetMilestoneSpec(d, i, *req.Spec); err != nil {
				return d, err
			}
		}
		if req.Amount != nil {
			if d, err = h.Editor.SetMilestoneAmount(d, i, *req.Amount); err != nil {
				return d, err
			}
		}
		return d, nil
	})
}

func (h Handlers) RemoveMilestone(w http.ResponseWriter, r *http.Request) {
	i, err := IndexParam(r)
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	h.mutate(w, r, events.TypeUpdated, fmt.Sprintf("Termin %d removed", i+1), func(d Document) (Document, error) {
		return h.Editor.RemoveMilestone(d, i)
	})
}

type ActiveMilestoneRequest struct {
	Index int `json:"index"`
}

func (h Handlers) PutActiveMilestone(w http.ResponseWriter, r *http.Request) {
	var req ActiveMilestoneRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	h.mutate(w, r, events.TypeUpdated, fmt.Sprintf("Termin %d selected", req.Index+1), func(d Document) (Document, error) {
		return h.Editor.SetActiveMilestone(d, req.Index)
	})
}

type PatchStatusRequest struct {
	Status string `json:"status"`
}

func (h Handlers) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req PatchStatusRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	actor := api.Actor(r)

	var out *Document
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		d, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		next, err := ParseStatus(d.Kind, req.Status)
		if err != nil {
			return err
		}
		if !CanTransition(d.Kind, d.Status, next) {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", ErrInvalidTransition.Error())
			return pgx.ErrTxCommitRollback
		}
		// Completion law: settling needs every termin paid, or an admin override.
		if next == StatusSettled && !Settleable(*d) {
			api.WriteError(w, http.StatusConflict, "INVOICE_NOT_FULLY_PAID", "invoice still has an outstanding balance")
			return pgx.ErrTxCommitRollback
		}
		from := d.Status
		d.Status = next
		if out, err = Update(r.Context(), tx, *d); err != nil {
			return err
		}

		data := map[string]any{"from": from, "to": next}
		if err := audit.Insert(r.Context(), tx, audit.Entry{
			Collection: d.Kind.Collection(),
			RecordID:   d.ID,
			Action:     audit.ActionUpdate,
			Actor:      actor,
			Metadata:   map[string]any{"changes": map[string]audit.Change{"status": {From: from, To: next}}},
		}); err != nil {
			return err
		}
		return events.Insert(r.Context(), tx, d.ID, events.TypeStatusChanged, "Status changed", actor, time.Now(), data)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrTxCommitRollback) {
			return
		}
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, NewView(*out))
}

type AdminOverrideRequest struct {
	ActionType string `json:"actionType"`
	Reason     string `json:"reason"`
}

func (h Handlers) AdminOverride(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req AdminOverrideRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		api.WriteError(w, http.StatusBadRequest, "OVERRIDE_REASON_REQUIRED", "reason is required")
		return
	}
	action, err := adminaction.ParseActionType(req.ActionType)
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	actor := api.Actor(r)

	var out *Document
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		d, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		next, err := OverrideTarget(*d, action)
		if err != nil {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", fmt.Sprintf("%s not allowed from %s", action, d.Status))
			return pgx.ErrTxCommitRollback
		}
		from := d.Status
		d.Status = next
		if out, err = Update(r.Context(), tx, *d); err != nil {
			return err
		}

		data := map[string]any{"actionType": action, "reason": req.Reason, "from": from, "to": next}
		if err := adminaction.Insert(r.Context(), tx, d.ID, action, req.Reason, actor, data); err != nil {
			return err
		}
		if err := audit.Insert(r.Context(), tx, audit.Entry{
			Collection: d.Kind.Collection(),
			RecordID:   d.ID,
			Action:     audit.ActionUpdate,
			Actor:      actor,
			Metadata:   data,
		}); err != nil {
			return err
		}
		return events.Insert(r.Context(), tx, d.ID, events.TypeAdminOverride, "Admin override applied", actor, time.Now(), data)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrTxCommitRollback) {
			return
		}
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, NewView(*out))
}

func (h Handlers) AdminActions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Docs.GetByID(r.Context(), id); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	items, err := h.Overrides.ListByDocument(r.Context(), id)
	if err != nil {
		api.WriteInternal(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		d, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if err := Delete(r.Context(), tx, id); err != nil {
			return err
		}
		return audit.Insert(r.Context(), tx, audit.Entry{
			Collection: d.Kind.Collection(),
			RecordID:   d.ID,
			Action:     audit.ActionDelete,
			Actor:      api.Actor(r),
			Metadata:   d,
		})
	})
	if err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handlers) Timeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Docs.GetByID(r.Context(), id); err != nil {
		api.WriteDomainError(w, r, h.Cfg.Prod(), err)
		return
	}
	items, err := h.Events.ListByDocument(r.Context(), id)
	if err != nil {
		api.WriteInternal(w, r, h.Cfg.Prod(), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// IndexParam reads the zero-based {index} route parameter.
func IndexParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, termin.ValidationError{Code: "VALIDATION_FAILED", Message: "invalid termin index: " + raw}
	}
	return i, nil
}
