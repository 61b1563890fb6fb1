// Package api speaks the budgeting service's JSON HTTP surface. Optional
// wire fields are pointers throughout so absence survives the round trip.
package api

// GoalType distinguishes saving toward a target from paying a balance down.
type GoalType string

const (
	GoalSavings     GoalType = "savings"
	GoalDebtPayment GoalType = "debt_payment"
)

// Goal is a savings or debt-payoff goal as the service reports it.
type Goal struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     *string       `json:"description"`
	GoalType        GoalType      `json:"goal_type"`
	TargetAmount    float64       `json:"target_amount"`
	TargetDate      *string       `json:"target_date"`
	IsCompleted     bool          `json:"is_completed"`
	CurrentAmount   float64       `json:"current_amount"`
	ProgressPercent float64       `json:"progress_percent"`
	Accounts        []GoalAccount `json:"accounts"`
	CreatedAt       string        `json:"created_at"`
	UpdatedAt       string        `json:"updated_at"`
}

// Progress derives the display percentage from the amounts. The service
// reports progress_percent too, but rendering always uses the derived value
// so a bar can never leave 0..100 whatever the server sent.
func (g Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	p := g.CurrentAmount / g.TargetAmount * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Done reports whether the goal should render as reached.
func (g Goal) Done() bool {
	return g.IsCompleted || g.Progress() >= 100
}

// GoalAccount is an account funding a goal.
type GoalAccount struct {
	ID                   string   `json:"id"`
	SimplefinAccountID   string   `json:"simplefin_account_id"`
	AccountName          string   `json:"account_name"`
	AllocationPercentage float64  `json:"allocation_percentage"`
	CurrentBalance       float64  `json:"current_balance"`
	StartingBalance      *float64 `json:"starting_balance"`
}

// GoalAccountRef links an account into a goal being created or updated.
type GoalAccountRef struct {
	SimplefinAccountID   string  `json:"simplefin_account_id"`
	AllocationPercentage float64 `json:"allocation_percentage"`
}

// GoalCreate is the payload for creating a goal.
type GoalCreate struct {
	Name         string           `json:"name"`
	Description  *string          `json:"description,omitempty"`
	GoalType     GoalType         `json:"goal_type"`
	TargetAmount float64          `json:"target_amount"`
	TargetDate   *string          `json:"target_date,omitempty"`
	Accounts     []GoalAccountRef `json:"accounts"`
}

// GoalUpdate is a partial update; nil fields are left unchanged.
type GoalUpdate struct {
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	TargetAmount *float64         `json:"target_amount,omitempty"`
	TargetDate   *string          `json:"target_date,omitempty"`
	IsCompleted  *bool            `json:"is_completed,omitempty"`
	Accounts     []GoalAccountRef `json:"accounts,omitempty"`
}

// LinkedItem is one bank connection on the aggregation side.
type LinkedItem struct {
	ID              string  `json:"id"`
	InstitutionName *string `json:"institution_name"`
	Status          string  `json:"status"`
	LastSyncedAt    *string `json:"last_synced_at"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// Account is one bank account under a linked item.
type Account struct {
	ID                 string   `json:"id"`
	SimplefinAccountID string   `json:"simplefin_account_id"`
	Name               string   `json:"name"`
	Currency           string   `json:"currency"`
	Balance            *float64 `json:"balance"`
	AvailableBalance   *float64 `json:"available_balance"`
	BalanceDate        *int64   `json:"balance_date"`
	OrganizationName   *string  `json:"organization_name"`
	OrganizationDomain *string  `json:"organization_domain"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

// Category is a spending category, carrying its subcategories in tree form.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Icon          *string       `json:"icon"`
	Color         *string       `json:"color"`
	DisplayOrder  int           `json:"display_order"`
	IsDefault     bool          `json:"is_default"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Subcategory is one budget line under a category.
type Subcategory struct {
	ID           string  `json:"id"`
	CategoryID   string  `json:"category_id"`
	Name         string  `json:"name"`
	Icon         *string `json:"icon"`
	DisplayOrder int     `json:"display_order"`
	IsDefault    bool    `json:"is_default"`
}

// SubcategoryCreate is the payload for adding a subcategory to a category.
type SubcategoryCreate struct {
	Name         string  `json:"name"`
	Icon         *string `json:"icon,omitempty"`
	DisplayOrder int     `json:"display_order"`
}

// SeedDefaultsRequest asks the service to create its default category set
// with an even budget split. An empty AccountIDs means every linked account
// is tracked; the service treats the empty list as "all".
type SeedDefaultsRequest struct {
	MonthlyBudget float64  `json:"monthly_budget"`
	AccountIDs    []string `json:"account_ids"`
}

// SeedDefaultsResult summarizes what seeding created.
type SeedDefaultsResult struct {
	CategoriesCreated    int     `json:"categories_created"`
	SubcategoriesCreated int     `json:"subcategories_created"`
	BudgetsCreated       int     `json:"budgets_created"`
	MonthlyBudget        float64 `json:"monthly_budget"`
	BudgetPerCategory    float64 `json:"budget_per_category"`
}
