package devserver

import (
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/nestegg-app/nestegg/internal/api"
)

var errAlreadySeeded = errors.New("defaults already seeded")

// nonExpenseCategories are excluded from the budget split. They hold
// structure, not spending.
var nonExpenseCategories = map[string]bool{
	"Income":        true,
	"Transfers":     true,
	"Uncategorized": true,
}

// seedDefaults creates the template categories and subcategories and splits
// the monthly budget evenly across expense categories. It runs once; a
// second call fails with errAlreadySeeded.
func seedDefaults(st *Store, tmpl []CategoryFixture, req api.SeedDefaultsRequest) (*api.SeedDefaultsResult, error) {
	done, err := st.seeded()
	if err != nil {
		return nil, err
	}
	if done {
		return nil, errAlreadySeeded
	}

	expenseCount := 0
	for _, cat := range tmpl {
		if !nonExpenseCategories[cat.Name] {
			expenseCount++
		}
	}

	var budgetPerCategory float64
	if req.MonthlyBudget > 0 && expenseCount > 0 {
		budgetPerCategory = round2(req.MonthlyBudget / float64(expenseCount))
	}

	result := &api.SeedDefaultsResult{
		MonthlyBudget:     req.MonthlyBudget,
		BudgetPerCategory: budgetPerCategory,
	}

	for _, catFx := range tmpl {
		seq, err := st.nextSeq(bucketCategories)
		if err != nil {
			return nil, err
		}
		icon := catFx.Icon
		color := catFx.Color
		cat := categoryRecord{
			Seq:          seq,
			ID:           uuid.NewString(),
			Name:         catFx.Name,
			Icon:         &icon,
			Color:        &color,
			DisplayOrder: catFx.DisplayOrder,
			IsDefault:    true,
		}
		if err := st.putCategory(cat); err != nil {
			return nil, err
		}
		result.CategoriesCreated++

		for _, subFx := range catFx.Subcategories {
			seq, err := st.nextSeq(bucketSubcategories)
			if err != nil {
				return nil, err
			}
			subIcon := subFx.Icon
			sub := subcategoryRecord{
				Seq:          seq,
				ID:           uuid.NewString(),
				CategoryID:   cat.ID,
				Name:         subFx.Name,
				Icon:         &subIcon,
				DisplayOrder: subFx.DisplayOrder,
				IsDefault:    true,
			}
			if err := st.putSubcategory(sub); err != nil {
				return nil, err
			}
			result.SubcategoriesCreated++
		}

		if budgetPerCategory > 0 && !nonExpenseCategories[cat.Name] {
			result.BudgetsCreated++
		}
	}

	if err := st.setSeeded(); err != nil {
		return nil, err
	}
	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
