package devserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nestegg-app/nestegg/internal/api"
)

type accountsHandler struct {
	store *Store
}

// ListItems handles GET /app/v1/simplefin/items.
func (h *accountsHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.listItems()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to list items")
		return
	}
	items := make([]api.LinkedItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, rec.LinkedItem)
	}
	writeJSON(w, http.StatusOK, items)
}

// ListItemAccounts handles GET /app/v1/simplefin/accounts/{itemID}.
func (h *accountsHandler) ListItemAccounts(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if _, err := h.store.getItem(itemID); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Item not found")
			return
		}
		writeDetail(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	recs, err := h.store.listItemAccounts(itemID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}
	accounts := make([]api.Account, 0, len(recs))
	for _, rec := range recs {
		accounts = append(accounts, rec.Account)
	}
	writeJSON(w, http.StatusOK, accounts)
}
