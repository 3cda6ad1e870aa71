package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/anchor/internal/apperr"
	"github.com/starford/anchor/internal/index"
	"github.com/starford/anchor/internal/launcher"
	"github.com/starford/anchor/internal/models"
	"github.com/starford/anchor/internal/refstore"
)

// ReferenceService is the reference store as seen by the handlers.
type ReferenceService interface {
	List(ctx context.Context) ([]models.Reference, error)
	Get(ctx context.Context, id string) (*models.Reference, error)
	Create(ctx context.Context, c models.Candidate) (*models.Reference, error)
	Update(ctx context.Context, id string, c models.Candidate) (*models.Reference, error)
	Delete(ctx context.Context, id string) error
}

// Searcher answers search queries with reference ids in display order.
// AllChecksums reports what the index currently holds so a lagging index
// can be detected.
type Searcher interface {
	Search(q index.Query) ([]string, error)
	AllChecksums() (map[string]string, error)
}

// Launcher opens reference paths in external programs.
type Launcher interface {
	Open(target launcher.Target, path string) error
	CopyPath(path string) error
}

// Handler holds API route handlers.
type Handler struct {
	refs     ReferenceService
	search   Searcher
	launcher Launcher
	logger   *slog.Logger
}

// ListReferences handles GET /api/references.
//
//	@Summary		List all references in stored order
//	@Tags			references
//	@Produce		json
//	@Success		200	{object}	ReferenceListResponse
//	@Security		BearerAuth
//	@Router			/references [get]
func (h *Handler) ListReferences(w http.ResponseWriter, r *http.Request) {
	refs, err := h.refs.List(r.Context())
	if err != nil {
		writeError(w, h.logger, "list references", err)
		return
	}
	writeJSON(w, http.StatusOK, ReferenceListResponse{References: refs})
}

// CreateReference handles POST /api/references.
//
//	@Summary		Create a reference
//	@Tags			references
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ReferenceRequest	true	"Reference to create"
//	@Success		201		{object}	models.Reference
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/references [post]
func (h *Handler) CreateReference(w http.ResponseWriter, r *http.Request) {
	var req ReferenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ref, err := h.refs.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "create reference", err)
		return
	}
	writeJSON(w, http.StatusCreated, ref)
}

// UpdateReference handles PUT /api/references/{id}.
//
//	@Summary		Replace a reference's editable fields
//	@Tags			references
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Reference id"
//	@Param			body	body		ReferenceRequest	true	"Updated fields"
//	@Success		200		{object}	models.Reference
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/references/{id} [put]
func (h *Handler) UpdateReference(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ReferenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ref, err := h.refs.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, h.logger, "update reference", err)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

// DeleteReference handles DELETE /api/references/{id}.
//
//	@Summary		Delete a reference
//	@Tags			references
//	@Param			id	path	string	true	"Reference id"
//	@Success		204	"Reference deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/references/{id} [delete]
func (h *Handler) DeleteReference(w http.ResponseWriter, r *http.Request) {
	if err := h.refs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, "delete reference", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchReferences handles GET /api/references/search.
//
//	@Summary		Filter references by text, status and tag
//	@Tags			references
//	@Produce		json
//	@Param			q		query		string	false	"Matched against name, path and tags"
//	@Param			status	query		string	false	"Status filter"	Enums(active, paused, idea, completed, archived)
//	@Param			tag		query		string	false	"Exact tag filter"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	ReferenceListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/references/search [get]
func (h *Handler) SearchReferences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := index.Query{
		Text: q.Get("q"),
		Tag:  strings.TrimSpace(q.Get("tag")),
	}
	query.Limit, _ = strconv.Atoi(q.Get("limit"))
	if s := strings.TrimSpace(q.Get("status")); s != "" {
		status := models.Status(s)
		if !status.Valid() {
			writeJSON(w, http.StatusBadRequest, errorBody("status: must be a valid value"))
			return
		}
		query.Status = status
	}

	refs, err := h.refs.List(r.Context())
	if err != nil {
		writeError(w, h.logger, "search references", err)
		return
	}
	writeJSON(w, http.StatusOK, ReferenceListResponse{References: h.filter(refs, query)})
}

// filter answers from the index when one is configured and matches refs,
// and falls back to an in-memory scan otherwise.
func (h *Handler) filter(refs []models.Reference, q index.Query) []models.Reference {
	if h.search != nil && h.indexCurrent(refs) {
		ids, err := h.search.Search(q)
		if err == nil {
			byID := make(map[string]models.Reference, len(refs))
			for _, ref := range refs {
				byID[ref.ID] = ref
			}
			out := make([]models.Reference, 0, len(ids))
			for _, id := range ids {
				// The index may briefly trail data.json.
				if ref, ok := byID[id]; ok {
					out = append(out, ref)
				}
			}
			return out
		}
		h.logger.Warn("index search failed, scanning", slog.String("error", err.Error()))
	}

	out := refstore.Filter(refs, q.Text, q.Status, q.Tag)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// indexCurrent reports whether the index holds exactly refs. The follower
// resyncs after the change throttle, so a search right after a write can
// see an older index.
func (h *Handler) indexCurrent(refs []models.Reference) bool {
	checksums, err := h.search.AllChecksums()
	if err != nil {
		h.logger.Warn("index checksums failed, scanning", slog.String("error", err.Error()))
		return false
	}
	if len(checksums) != len(refs) {
		return false
	}
	for i, ref := range refs {
		if checksums[ref.ID] != index.RowChecksum(i, ref) {
			return false
		}
	}
	return true
}

// OpenReference handles POST /api/references/{id}/open.
//
//	@Summary		Open a reference's path in an external program
//	@Tags			launch
//	@Param			id		path	string	true	"Reference id"
//	@Param			target	query	string	true	"Where to open"	Enums(finder, reveal, terminal, editor)
//	@Success		204		"Launched"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/references/{id}/open [post]
func (h *Handler) OpenReference(w http.ResponseWriter, r *http.Request) {
	target, err := launcher.ParseTarget(r.URL.Query().Get("target"))
	if err != nil {
		writeError(w, h.logger, "open reference", err)
		return
	}
	ref, err := h.refs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "open reference", err)
		return
	}
	if err := h.launcher.Open(target, ref.AbsolutePath); err != nil {
		writeError(w, h.logger, "open reference", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CopyReferencePath handles POST /api/references/{id}/copy-path.
//
//	@Summary		Copy a reference's path to the clipboard
//	@Tags			launch
//	@Param			id	path	string	true	"Reference id"
//	@Success		204	"Copied"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/references/{id}/copy-path [post]
func (h *Handler) CopyReferencePath(w http.ResponseWriter, r *http.Request) {
	ref, err := h.refs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "copy path", err)
		return
	}
	if err := h.launcher.CopyPath(ref.AbsolutePath); err != nil {
		writeError(w, h.logger, "copy path", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PathExists handles GET /api/paths/exists.
//
//	@Summary		Check whether a path exists on disk
//	@Tags			launch
//	@Produce		json
//	@Param			path	query		string	true	"Absolute path"
//	@Success		200		{object}	PathExistsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/paths/exists [get]
func (h *Handler) PathExists(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if strings.TrimSpace(path) == "" {
		writeError(w, h.logger, "path exists", &apperr.ValidationError{Field: "path", Message: "cannot be blank"})
		return
	}
	writeJSON(w, http.StatusOK, PathExistsResponse{Path: path, Exists: launcher.PathExists(path)})
}
