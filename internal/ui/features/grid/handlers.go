package grid

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/treegrid/internal/engine"
	"github.com/leapstack-labs/treegrid/internal/forest"
	"github.com/leapstack-labs/treegrid/internal/ui/notifier"
	"github.com/leapstack-labs/treegrid/pkg/core"
)

const defaultMovesLimit = 50

// Handlers provides HTTP handlers for the grid feature.
type Handlers struct {
	engine       *engine.Engine
	source       *forest.Source
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	pageSize     int
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, sessionStore sessions.Store, notify *notifier.Notifier, pageSize int) *Handlers {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Handlers{
		engine:       eng,
		source:       eng.Source(),
		sessionStore: sessionStore,
		notifier:     notify,
		pageSize:     pageSize,
	}
}

type pageResponse struct {
	Items      []core.Record `json:"items"`
	TotalCount int           `json:"totalCount"`
	Page       int           `json:"page"`
	Size       int           `json:"size"`
	PageCount  int           `json:"pageCount"`
}

type rowsResponse struct {
	Rows       []core.Row      `json:"rows"`
	TotalCount int             `json:"totalCount"`
	Page       int             `json:"page"`
	Size       int             `json:"size"`
	Expanded   []core.RecordID `json:"expanded"`
}

type moveRequest struct {
	ParentID core.RecordID `json:"parentId"`
}

// intParam parses an optional non-negative query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", core.ErrInvalidArgument, name, raw)
	}
	return n, nil
}

func pathID(r *http.Request, key string) core.RecordID {
	return core.RecordID(chi.URLParam(r, key))
}

// ListRecords serves one page of the children of ?parent (roots when empty).
func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	size, err := intParam(r, "size", h.pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.source.FetchPage(core.PageRequest{
		ParentID:  core.RecordID(r.URL.Query().Get("parent")),
		PageIndex: page,
		PageSize:  size,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pageResponse{
		Items:      res.Items,
		TotalCount: res.TotalCount,
		Page:       page,
		Size:       size,
		PageCount:  res.PageCount(size),
	})
}

// GetRecord serves a single record.
func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.source.Get(pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Draggable reports whether a record may start a drag.
func (h *Handlers) Draggable(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	ok, err := h.source.CanDrag(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "draggable": ok})
}

// Droppable reports whether a record may be dropped onto a target.
func (h *Handlers) Droppable(w http.ResponseWriter, r *http.Request) {
	id, target := pathID(r, "id"), pathID(r, "target")
	ok, err := h.source.CanDrop(id, target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidate": id, "target": target, "droppable": ok})
}

// Move reparents a record. Dropping onto the current parent answers
// {"noop": true} with status 200.
func (h *Handlers) Move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body: %v", core.ErrInvalidArgument, err))
		return
	}

	ev, err := h.engine.Move(r.Context(), pathID(r, "id"), req.ParentID)
	if core.IsNoOp(err) {
		writeJSON(w, http.StatusOK, map[string]bool{"noop": true})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// Rows serves the visible rows for this browser's expansion set.
// ?page is remembered in the session.
func (h *Handlers) Rows(w http.ResponseWriter, r *http.Request) {
	sess, view := h.loadView(r)

	page, err := intParam(r, "page", view.Page)
	if err != nil {
		writeError(w, err)
		return
	}
	size, err := intParam(r, "size", h.pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	if page < 0 {
		writeError(w, fmt.Errorf("%w: page must not be negative", core.ErrInvalidArgument))
		return
	}

	if page != view.Page {
		view.Page = page
		if err := h.saveView(w, r, sess, view); err != nil {
			writeError(w, err)
			return
		}
	}

	if isDatastarRequest(r) {
		h.patchRows(w, r, view, size)
		return
	}

	rows, total, err := h.source.VisibleRows(view.Expanded, core.PageRequest{PageIndex: page, PageSize: size})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rowsResponse{
		Rows:       rows,
		TotalCount: total,
		Page:       page,
		Size:       size,
		Expanded:   view.Expanded.IDs(),
	})
}

// Expand adds a record to this browser's expansion set.
func (h *Handlers) Expand(w http.ResponseWriter, r *http.Request) {
	h.updateExpansion(w, r, true)
}

// Collapse removes a record from this browser's expansion set.
func (h *Handlers) Collapse(w http.ResponseWriter, r *http.Request) {
	h.updateExpansion(w, r, false)
}

func (h *Handlers) updateExpansion(w http.ResponseWriter, r *http.Request, expand bool) {
	id := pathID(r, "id")
	if _, err := h.source.Get(id); err != nil {
		writeError(w, err)
		return
	}

	sess, view := h.loadView(r)
	if expand {
		view.Expanded.Expand(id)
	} else {
		view.Expanded.Collapse(id)
	}
	if err := h.saveView(w, r, sess, view); err != nil {
		writeError(w, err)
		return
	}

	if isDatastarRequest(r) {
		h.patchRows(w, r, view, h.pageSize)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expanded": view.Expanded.IDs()})
}

// Moves serves the move journal, newest first.
func (h *Handlers) Moves(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultMovesLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	moves, err := h.engine.History(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if moves == nil {
		moves = []core.MoveEvent{}
	}
	writeJSON(w, http.StatusOK, moves)
}
