package grid

import (
	"net/http"

	"github.com/leapstack-labs/treegrid/internal/ui/notifier"
	"github.com/leapstack-labs/treegrid/pkg/core"
	"github.com/starfederation/datastar-go/datastar"
)

// dropSignals are sent by the page when a row is dropped onto another.
type dropSignals struct {
	Dragged core.RecordID `json:"dragged"`
	Target  core.RecordID `json:"target"`
}

// dropResult is patched back after a drop. DropError is empty on success
// and on drops onto the current parent.
type dropResult struct {
	Dragged   string `json:"dragged"`
	Target    string `json:"target"`
	DropError string `json:"dropError"`
}

// changeSignals announce a committed move or a reload to the page.
type changeSignals struct {
	LastMove *core.MoveEvent `json:"lastMove,omitempty"`
	Reloads  int             `json:"reloads,omitempty"`
}

func isDatastarRequest(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

// Events is the long-lived SSE endpoint. It patches the lastMove signal on
// every committed move and bumps reloads when the forest is replaced; the
// page re-fetches its rows in response.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	reloads := 0
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-updates:
			if !ok {
				return
			}
			var signals changeSignals
			switch ev.Kind {
			case notifier.KindMove:
				signals.LastMove = ev.Move
			case notifier.KindReload:
				reloads++
				signals.Reloads = reloads
			}
			if err := sse.MarshalAndPatchSignals(signals); err != nil {
				_ = sse.ConsoleError(err)
				// Don't return - keep trying on next update
			}
		}
	}
}

// Drop moves the dragged record onto the target and patches the result
// signals and the rows of this browser.
func (h *Handlers) Drop(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals dropSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(err)
		return
	}
	_, view := h.loadView(r)

	sse := datastar.NewSSE(w, r)

	result := dropResult{}
	if _, err := h.engine.Move(r.Context(), signals.Dragged, signals.Target); err != nil && !core.IsNoOp(err) {
		result.DropError = err.Error()
	}
	if err := sse.MarshalAndPatchSignals(result); err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	h.sendRows(sse, view, h.pageSize)
}

// patchRows answers a Datastar request with a size-row page of the fragment.
func (h *Handlers) patchRows(w http.ResponseWriter, r *http.Request, view viewState, size int) {
	h.sendRows(datastar.NewSSE(w, r), view, size)
}

func (h *Handlers) sendRows(sse *datastar.ServerSentEventGenerator, view viewState, size int) {
	data, err := h.buildRowsData(view, size)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElementTempl(RowsFragment(data)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

func (h *Handlers) buildRowsData(view viewState, size int) (RowsData, error) {
	rows, total, err := h.source.VisibleRows(view.Expanded, core.PageRequest{PageIndex: view.Page, PageSize: size})
	if err != nil {
		return RowsData{}, err
	}
	return RowsData{
		Rows:      rows,
		Page:      view.Page,
		Size:      size,
		PageCount: core.PageResult{TotalCount: total}.PageCount(size),
	}, nil
}

// GridPage renders the full page with the first rows already in place.
func (h *Handlers) GridPage(w http.ResponseWriter, r *http.Request) {
	_, view := h.loadView(r)
	data, err := h.buildRowsData(view, h.pageSize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := Page("treegrid", data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
