package editor

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-volume-discounts/internal/common"
	"github.com/noah-isme/toko-volume-discounts/internal/content"
)

const defaultPerPage = 20

// Handler exposes the editor over HTTP.
type Handler struct {
	Editor *Editor
	Log    zerolog.Logger
}

// Routes mounts the admin screens on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.New)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Edit)
	r.Post("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List renders the threshold list view.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Editor.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, defaultPerPage)
	pagination := common.Pagination{Page: page, PerPage: perPage, TotalItems: len(rows)}
	start, end := pagination.Window()
	common.Data(w, http.StatusOK, map[string]any{
		"columns":    h.Editor.Columns(),
		"rows":       rows[start:end],
		"pagination": pagination,
	})
}

// New renders a blank create form.
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	form, err := h.Editor.Form(r.Context(), "")
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, form)
}

// Edit renders the edit form of one threshold.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	form, err := h.Editor.Form(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, form)
}

// Create handles the create form post.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "", http.StatusCreated)
}

// Update handles the edit form post.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, id string, status int) {
	if err := r.ParseForm(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid form", nil)
		return
	}
	sub := h.submission(r)
	sub.ID = id
	result, err := h.Editor.Submit(r.Context(), sub)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, status, result)
}

func (h *Handler) submission(r *http.Request) Submission {
	form := r.PostForm
	values := make(map[string]string)
	for _, f := range h.Editor.Fields() {
		if submitted, ok := form[f.Key]; ok && len(submitted) > 0 {
			values[f.Key] = submitted[0]
		}
	}
	return Submission{
		Title:  form.Get("title"),
		Status: strings.TrimSpace(form.Get("status")),
		SaveRequest: SaveRequest{
			Values:   values,
			Nonce:    form.Get(NonceField),
			Autosave: truthy(form.Get("autosave")),
			Ajax:     strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest"),
			BulkEdit: form.Has("bulk_edit"),
			Revision: form.Get("post_type") == "revision",
		},
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off", "no":
		return false
	default:
		return true
	}
}

// Delete removes one threshold.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Editor.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "volume discount not found", nil)
	case errors.Is(err, ErrForbidden):
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	default:
		h.Log.Error().Err(err).Msg("volume discount editor request failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to process request", nil)
	}
}
