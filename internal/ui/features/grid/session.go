package grid

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/treegrid/pkg/core"
)

const (
	sessionName = "treegrid"
	expandedKey = "expanded"
	pageKey     = "page"
)

// viewState is the per-browser view of the grid. The data source never
// stores it.
type viewState struct {
	Expanded core.ExpansionSet
	Page     int
}

// loadView reads the view state from the session. A session that fails to
// decode (e.g. after a secret change) starts fresh.
func (h *Handlers) loadView(r *http.Request) (*sessions.Session, viewState) {
	sess, _ := h.sessionStore.Get(r, sessionName)
	view := viewState{Expanded: core.NewExpansionSet()}
	if sess == nil {
		sess = sessions.NewSession(h.sessionStore, sessionName)
		return sess, view
	}

	if ids, ok := sess.Values[expandedKey].([]string); ok {
		for _, id := range ids {
			view.Expanded.Expand(core.RecordID(id))
		}
	}
	if page, ok := sess.Values[pageKey].(int); ok && page >= 0 {
		view.Page = page
	}
	return sess, view
}

func (h *Handlers) saveView(w http.ResponseWriter, r *http.Request, sess *sessions.Session, view viewState) error {
	ids := view.Expanded.IDs()
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = string(id)
	}
	sess.Values[expandedKey] = values
	sess.Values[pageKey] = view.Page
	return sess.Save(r, w)
}
