// Package editor implements the admin screens for volume discount thresholds.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-volume-discounts/internal/auth"
	"github.com/noah-isme/toko-volume-discounts/internal/common"
	"github.com/noah-isme/toko-volume-discounts/internal/content"
	"github.com/noah-isme/toko-volume-discounts/internal/threshold"
)

const (
	// NonceField is the form field carrying the save token.
	NonceField = "volume_discounts_meta_box_nonce"
	// NonceAction binds save tokens to this form.
	NonceAction = "save_volume_discount"

	TitlePrompt = "Enter discount title. This will be shown on checkout."
	SaveNotice  = "If the conditions are met, this discount will be automatically applied at checkout."
)

// ErrForbidden is returned when the actor may not perform an operation.
var ErrForbidden = errors.New("insufficient permissions")

// Messages are the status notices shown after a save, keyed by message code.
var Messages = map[int]string{
	1: "Volume Discount updated.",
	4: "Volume Discount updated.",
	6: "Volume Discount published.",
	7: "Volume Discount saved.",
	8: "Volume Discount submitted.",
}

// SaveOutcome records what the save handler did.
type SaveOutcome string

const (
	SaveApplied           SaveOutcome = "saved"
	SaveSkippedNonce      SaveOutcome = "skipped_nonce"
	SaveSkippedRequest    SaveOutcome = "skipped_request"
	SaveSkippedPermission SaveOutcome = "skipped_permission"
	SaveFailed            SaveOutcome = "failed"
)

// Nonces issues and verifies form tokens.
type Nonces interface {
	Issue(action, actor string) (string, error)
	Verify(token, action, actor string) bool
}

// Column is one list view column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Row is one list view row; Cells is keyed by column.
type Row struct {
	ID     string            `json:"id"`
	Status string            `json:"status"`
	Cells  map[string]string `json:"cells"`
}

// FieldView is a rendered form input.
type FieldView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// FormView is the create/edit screen.
type FormView struct {
	ID            string      `json:"id,omitempty"`
	Title         string      `json:"title"`
	Status        string      `json:"status"`
	TitlePrompt   string      `json:"titlePrompt"`
	Fields        []FieldView `json:"fields"`
	NonceField    string      `json:"nonceField"`
	Nonce         string      `json:"nonce"`
	SubmitLabel   string      `json:"submitLabel"`
	Notice        string      `json:"notice"`
	HidePermalink bool        `json:"hidePermalink"`
}

// SaveRequest is the submission seen by the save handler.
type SaveRequest struct {
	ID string
	// Values holds submitted field values; absent keys were not submitted.
	Values   map[string]string
	Nonce    string
	Autosave bool
	Ajax     bool
	BulkEdit bool
	Revision bool
}

// Submission is a full create/update form post.
type Submission struct {
	Title  string
	Status string
	SaveRequest
}

// Result is the state after a submission.
type Result struct {
	Record  content.Record `json:"record"`
	Outcome SaveOutcome    `json:"outcome"`
	Message string         `json:"message"`
}

// Editor manages threshold records through the content store.
type Editor struct {
	store  content.Store
	nonces Nonces
	log    zerolog.Logger
	saves  *prometheus.CounterVec

	mu     sync.RWMutex
	fields []Field
}

// New returns an editor with the quantity and percent fields registered. saves may be nil.
func New(store content.Store, nonces Nonces, log zerolog.Logger, saves *prometheus.CounterVec) *Editor {
	return &Editor{store: store, nonces: nonces, log: log, saves: saves, fields: defaultFields()}
}

// RegisterField adds a form field, replacing any field with the same key.
func (e *Editor) RegisterField(f Field) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.fields {
		if e.fields[i].Key == f.Key {
			e.fields[i] = f
			return
		}
	}
	e.fields = append(e.fields, f)
}

// Fields returns the registered fields in order.
func (e *Editor) Fields() []Field {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Field(nil), e.fields...)
}

// Columns returns the list view columns: the base columns with number and
// amount added and date removed.
func (e *Editor) Columns() []Column {
	base := []Column{{Key: "cb", Label: ""}, {Key: "title", Label: "Title"}, {Key: "date", Label: "Date"}}
	base = append(base,
		Column{Key: "number", Label: "Number of Products Required"},
		Column{Key: "amount", Label: "Discount Amount"},
	)
	out := base[:0]
	for _, c := range base {
		if c.Key != "date" {
			out = append(out, c)
		}
	}
	return out
}

// List renders every threshold as a list row, newest first.
func (e *Editor) List(ctx context.Context) ([]Row, error) {
	records, err := e.store.List(ctx, threshold.Type, "")
	if err != nil {
		return nil, fmt.Errorf("list thresholds: %w", err)
	}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		number := common.NonNegativeInt(rec.Meta[threshold.MetaRequiredQuantity])
		amount := common.NonNegativeInt(rec.Meta[threshold.MetaDiscountPercent])
		rows = append(rows, Row{
			ID:     rec.ID,
			Status: rec.Status,
			Cells: map[string]string{
				"title":  rec.Title,
				"number": strconv.FormatInt(number, 10),
				"amount": strconv.FormatInt(amount, 10) + "%",
			},
		})
	}
	return rows, nil
}

// Form renders the edit screen for id, or a blank create screen when id is empty.
func (e *Editor) Form(ctx context.Context, id string) (FormView, error) {
	rec := content.Record{Status: content.StatusAutoDraft, Meta: map[string]string{}}
	if id != "" {
		var err error
		rec, err = e.load(ctx, id)
		if err != nil {
			return FormView{}, err
		}
	}

	actorID, _ := common.UserID(ctx)
	token, err := e.nonces.Issue(NonceAction, actorID)
	if err != nil {
		return FormView{}, fmt.Errorf("issue nonce: %w", err)
	}

	fields := e.Fields()
	views := make([]FieldView, 0, len(fields))
	for _, f := range fields {
		views = append(views, FieldView{Key: f.Key, Label: f.Label, Value: f.render(rec.Meta[f.Key])})
	}
	submit := "Create"
	if rec.Status == content.StatusPublish {
		submit = "Update"
	}
	return FormView{
		ID:            rec.ID,
		Title:         rec.Title,
		Status:        rec.Status,
		TitlePrompt:   TitlePrompt,
		Fields:        views,
		NonceField:    NonceField,
		Nonce:         token,
		SubmitLabel:   submit,
		Notice:        SaveNotice,
		HidePermalink: true,
	}, nil
}

func (e *Editor) load(ctx context.Context, id string) (content.Record, error) {
	rec, err := e.store.Get(ctx, id)
	if err != nil {
		return content.Record{}, err
	}
	if rec.Type != threshold.Type {
		return content.Record{}, content.ErrNotFound
	}
	return rec, nil
}

// Submit performs the host write of title and status, then runs Save. An empty
// ID creates a record.
func (e *Editor) Submit(ctx context.Context, sub Submission) (Result, error) {
	var (
		rec      content.Record
		previous string
		err      error
	)
	if sub.ID == "" {
		rec, err = e.store.Create(ctx, content.Record{Type: threshold.Type, Title: SanitizeText(sub.Title), Status: sub.Status})
	} else {
		var existing content.Record
		existing, err = e.load(ctx, sub.ID)
		if err != nil {
			return Result{}, err
		}
		previous = existing.Status
		status := sub.Status
		if status == "" {
			status = existing.Status
		}
		rec, err = e.store.Update(ctx, sub.ID, SanitizeText(sub.Title), status)
	}
	if err != nil {
		return Result{}, err
	}

	req := sub.SaveRequest
	req.ID = rec.ID
	outcome, err := e.Save(ctx, req)
	if err != nil {
		return Result{}, err
	}
	rec, err = e.store.Get(ctx, rec.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{Record: rec, Outcome: outcome, Message: Messages[messageCode(previous, rec.Status)]}, nil
}

func messageCode(previous, current string) int {
	switch {
	case current == content.StatusPublish && previous != content.StatusPublish:
		return 6
	case current == content.StatusPublish:
		return 1
	case current == content.StatusPending:
		return 8
	default:
		return 7
	}
}

// Save stores the submitted field values of req.ID and publishes the record.
// Invalid tokens, background requests and actors without the manage capability
// return without touching the record.
func (e *Editor) Save(ctx context.Context, req SaveRequest) (SaveOutcome, error) {
	outcome, err := e.save(ctx, req)
	if e.saves != nil {
		e.saves.WithLabelValues(string(outcome)).Inc()
	}
	evt := e.log.Info()
	if err != nil {
		evt = e.log.Error().Err(err)
	}
	evt.Str("threshold_id", req.ID).Str("outcome", string(outcome)).Msg("volume discount save")
	return outcome, err
}

func (e *Editor) save(ctx context.Context, req SaveRequest) (SaveOutcome, error) {
	actorID, _ := common.UserID(ctx)
	if !e.nonces.Verify(req.Nonce, NonceAction, actorID) {
		return SaveSkippedNonce, nil
	}
	if req.Autosave || req.Ajax || req.BulkEdit || req.Revision {
		return SaveSkippedRequest, nil
	}
	if !auth.Can(ctx, auth.CapManageShopDiscounts) {
		return SaveSkippedPermission, nil
	}

	for _, f := range e.Fields() {
		raw, ok := req.Values[f.Key]
		if !ok {
			if err := e.store.DeleteMeta(ctx, req.ID, f.Key); err != nil {
				return SaveFailed, fmt.Errorf("delete %s: %w", f.Key, err)
			}
			continue
		}
		if err := e.store.UpdateMeta(ctx, req.ID, f.Key, f.sanitize(raw)); err != nil {
			return SaveFailed, fmt.Errorf("update %s: %w", f.Key, err)
		}
	}

	rec, err := e.store.Get(ctx, req.ID)
	if err != nil {
		return SaveFailed, err
	}
	if rec.Status != content.StatusPublish {
		if err := e.store.SetStatus(ctx, req.ID, content.StatusPublish); err != nil {
			return SaveFailed, fmt.Errorf("publish: %w", err)
		}
	}
	return SaveApplied, nil
}

// Delete removes a threshold and its metadata.
func (e *Editor) Delete(ctx context.Context, id string) error {
	if !auth.Can(ctx, auth.CapManageShopDiscounts) {
		return ErrForbidden
	}
	if _, err := e.load(ctx, id); err != nil {
		return err
	}
	return e.store.Delete(ctx, id)
}
