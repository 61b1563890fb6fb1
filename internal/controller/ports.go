package controller

import (
	"context"

	"github.com/nestegg-app/nestegg/internal/api"
)

// GoalService is the slice of the API the goal list needs.
type GoalService interface {
	ListGoals(ctx context.Context) ([]api.Goal, error)
	CreateGoal(ctx context.Context, in api.GoalCreate) (*api.Goal, error)
	UpdateGoal(ctx context.Context, id string, in api.GoalUpdate) (*api.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
}

// AccountSource lists bank connections and the accounts under them.
type AccountSource interface {
	ListLinkedItems(ctx context.Context) ([]api.LinkedItem, error)
	ListItemAccounts(ctx context.Context, itemID string) ([]api.Account, error)
}

// Seeder provisions the default category set.
type Seeder interface {
	SeedDefaultCategories(ctx context.Context, in api.SeedDefaultsRequest) (*api.SeedDefaultsResult, error)
}

// CategoryService reads the category tree and adds subcategories to it.
type CategoryService interface {
	ListCategories(ctx context.Context) ([]api.Category, error)
	CreateSubcategory(ctx context.Context, categoryID string, in api.SubcategoryCreate) (*api.Subcategory, error)
}

var (
	_ GoalService     = (*api.Client)(nil)
	_ AccountSource   = (*api.Client)(nil)
	_ Seeder          = (*api.Client)(nil)
	_ CategoryService = (*api.Client)(nil)
)
