package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nestegg-app/nestegg/internal/api"
)

type categoriesHandler struct {
	store    *Store
	template []CategoryFixture
}

type categoryTreeResponse struct {
	Items []api.Category `json:"items"`
	Total int            `json:"total"`
}

// SeedDefaults handles POST /app/v1/categories/seed-defaults.
func (h *categoriesHandler) SeedDefaults(w http.ResponseWriter, r *http.Request) {
	var req api.SeedDefaultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to parse request body")
		return
	}
	if req.MonthlyBudget < 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "Monthly budget must not be negative")
		return
	}

	result, err := seedDefaults(h.store, h.template, req)
	if err != nil {
		if errors.Is(err, errAlreadySeeded) {
			writeDetail(w, http.StatusConflict, "Default categories already exist")
			return
		}
		writeDetail(w, http.StatusInternalServerError, "Failed to seed default categories")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Tree handles GET /app/v1/categories/tree.
func (h *categoriesHandler) Tree(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.listCategories()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	subs, err := h.store.listSubcategories()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	subsByCategory := make(map[string][]api.Subcategory)
	for _, sub := range subs {
		subsByCategory[sub.CategoryID] = append(subsByCategory[sub.CategoryID], api.Subcategory{
			ID:           sub.ID,
			CategoryID:   sub.CategoryID,
			Name:         sub.Name,
			Icon:         sub.Icon,
			DisplayOrder: sub.DisplayOrder,
			IsDefault:    sub.IsDefault,
		})
	}

	tree := make([]api.Category, 0, len(cats))
	for _, cat := range cats {
		children := subsByCategory[cat.ID]
		if children == nil {
			children = []api.Subcategory{}
		}
		tree = append(tree, api.Category{
			ID:            cat.ID,
			Name:          cat.Name,
			Icon:          cat.Icon,
			Color:         cat.Color,
			DisplayOrder:  cat.DisplayOrder,
			IsDefault:     cat.IsDefault,
			Subcategories: children,
		})
	}

	writeJSON(w, http.StatusOK, categoryTreeResponse{Items: tree, Total: len(tree)})
}

// CreateSubcategory handles POST /app/v1/categories/{categoryID}/subcategories.
func (h *categoriesHandler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")
	cat, err := h.store.getCategory(categoryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Category not found")
			return
		}
		writeDetail(w, http.StatusInternalServerError, "Failed to create subcategory")
		return
	}

	var req api.SubcategoryCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to parse request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Subcategory name is required")
		return
	}

	seq, err := h.store.nextSeq(bucketSubcategories)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to create subcategory")
		return
	}

	rec := subcategoryRecord{
		Seq:          seq,
		ID:           uuid.NewString(),
		CategoryID:   cat.ID,
		Name:         strings.TrimSpace(req.Name),
		Icon:         req.Icon,
		DisplayOrder: req.DisplayOrder,
	}
	if err := h.store.putSubcategory(rec); err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to create subcategory")
		return
	}

	writeJSON(w, http.StatusCreated, api.Subcategory{
		ID:           rec.ID,
		CategoryID:   rec.CategoryID,
		Name:         rec.Name,
		Icon:         rec.Icon,
		DisplayOrder: rec.DisplayOrder,
		IsDefault:    rec.IsDefault,
	})
}
