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

type goalsHandler struct {
	store *Store
}

type goalListResponse struct {
	Items []api.Goal `json:"items"`
	Total int        `json:"total"`
}

// List handles GET /app/v1/goals, newest first.
func (h *goalsHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.listGoals()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to list goals")
		return
	}

	goals := make([]api.Goal, 0, len(recs))
	for _, rec := range recs {
		goal, err := h.render(rec)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Failed to list goals")
			return
		}
		goals = append(goals, goal)
	}

	writeJSON(w, http.StatusOK, goalListResponse{Items: goals, Total: len(goals)})
}

// Create handles POST /app/v1/goals.
func (h *goalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.GoalCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to parse request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Goal name is required")
		return
	}
	if req.TargetAmount <= 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "Target amount must be positive")
		return
	}
	if req.GoalType != api.GoalSavings && req.GoalType != api.GoalDebtPayment {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid goal type")
		return
	}

	links, err := h.resolveLinks(req.Accounts, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Account not found")
			return
		}
		writeDetail(w, http.StatusInternalServerError, "Failed to create goal")
		return
	}

	seq, err := h.store.nextSeq(bucketGoals)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to create goal")
		return
	}

	now := nowStamp()
	rec := goalRecord{
		Seq:          seq,
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		GoalType:     req.GoalType,
		TargetAmount: req.TargetAmount,
		TargetDate:   req.TargetDate,
		Accounts:     links,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.putGoal(rec); err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to create goal")
		return
	}

	goal, err := h.render(rec)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to create goal")
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

// Update handles PUT /app/v1/goals/{id}. Nil fields stay unchanged.
func (h *goalsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.store.getGoal(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Goal not found")
			return
		}
		writeDetail(w, http.StatusInternalServerError, "Failed to update goal")
		return
	}

	var req api.GoalUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to parse request body")
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			writeDetail(w, http.StatusUnprocessableEntity, "Goal name is required")
			return
		}
		rec.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		rec.Description = req.Description
	}
	if req.TargetAmount != nil {
		if *req.TargetAmount <= 0 {
			writeDetail(w, http.StatusUnprocessableEntity, "Target amount must be positive")
			return
		}
		rec.TargetAmount = *req.TargetAmount
	}
	if req.TargetDate != nil {
		rec.TargetDate = req.TargetDate
	}
	if req.IsCompleted != nil {
		rec.IsCompleted = *req.IsCompleted
	}
	if req.Accounts != nil {
		links, err := h.resolveLinks(req.Accounts, rec.Accounts)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeDetail(w, http.StatusNotFound, "Account not found")
				return
			}
			writeDetail(w, http.StatusInternalServerError, "Failed to update goal")
			return
		}
		rec.Accounts = links
	}
	rec.UpdatedAt = nowStamp()

	if err := h.store.putGoal(rec); err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to update goal")
		return
	}

	goal, err := h.render(rec)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to update goal")
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// Delete handles DELETE /app/v1/goals/{id}.
func (h *goalsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.getGoal(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Goal not found")
			return
		}
		writeDetail(w, http.StatusInternalServerError, "Failed to delete goal")
		return
	}
	if err := h.store.deleteGoal(id); err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to delete goal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// resolveLinks turns account references into stored links. Links kept from
// prev preserve their ID and starting balance; new links capture the
// account's balance at link time.
func (h *goalsHandler) resolveLinks(refs []api.GoalAccountRef, prev []goalAccountRecord) ([]goalAccountRecord, error) {
	prevBySfID := make(map[string]goalAccountRecord, len(prev))
	for _, link := range prev {
		prevBySfID[link.SimplefinAccountID] = link
	}

	links := make([]goalAccountRecord, 0, len(refs))
	for _, ref := range refs {
		acc, err := h.store.accountBySimplefinID(ref.SimplefinAccountID)
		if err != nil {
			return nil, err
		}
		if existing, ok := prevBySfID[ref.SimplefinAccountID]; ok {
			existing.AllocationPercentage = ref.AllocationPercentage
			links = append(links, existing)
			continue
		}
		link := goalAccountRecord{
			ID:                   uuid.NewString(),
			SimplefinAccountID:   ref.SimplefinAccountID,
			AllocationPercentage: ref.AllocationPercentage,
		}
		if acc.Balance != nil {
			start := *acc.Balance
			link.StartingBalance = &start
		}
		links = append(links, link)
	}
	return links, nil
}

// render builds the wire goal from a record, resolving account names and
// balances and computing progress from current balances. Savings goals
// count what the accounts hold; debt goals count how far balances have
// fallen from where they started.
func (h *goalsHandler) render(rec goalRecord) (api.Goal, error) {
	accounts := make([]api.GoalAccount, 0, len(rec.Accounts))
	var current float64
	for _, link := range rec.Accounts {
		acc, err := h.store.accountBySimplefinID(link.SimplefinAccountID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return api.Goal{}, err
		}

		var balance float64
		name := link.SimplefinAccountID
		if err == nil {
			name = acc.Name
			if acc.Balance != nil {
				balance = *acc.Balance
			}
		}

		share := link.AllocationPercentage / 100
		switch rec.GoalType {
		case api.GoalDebtPayment:
			if link.StartingBalance != nil && *link.StartingBalance > balance {
				current += (*link.StartingBalance - balance) * share
			}
		default:
			current += balance * share
		}

		accounts = append(accounts, api.GoalAccount{
			ID:                   link.ID,
			SimplefinAccountID:   link.SimplefinAccountID,
			AccountName:          name,
			AllocationPercentage: link.AllocationPercentage,
			CurrentBalance:       balance,
			StartingBalance:      link.StartingBalance,
		})
	}

	var percent float64
	if rec.TargetAmount > 0 {
		percent = round2(current / rec.TargetAmount * 100)
		if percent > 100 {
			percent = 100
		}
		if percent < 0 {
			percent = 0
		}
	}

	return api.Goal{
		ID:              rec.ID,
		Name:            rec.Name,
		Description:     rec.Description,
		GoalType:        rec.GoalType,
		TargetAmount:    rec.TargetAmount,
		TargetDate:      rec.TargetDate,
		IsCompleted:     rec.IsCompleted,
		CurrentAmount:   round2(current),
		ProgressPercent: percent,
		Accounts:        accounts,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}, nil
}
