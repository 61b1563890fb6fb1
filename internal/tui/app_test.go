package tui

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nestegg-app/nestegg/internal/api"
	"github.com/nestegg-app/nestegg/internal/config"
	"github.com/nestegg-app/nestegg/internal/controller"
)

type fakeService struct {
	goals []api.Goal

	lastCreate  *api.GoalCreate
	lastUpdate  *api.GoalUpdate
	lastUpdated string
	deleted     []string

	createErr error
}

func (f *fakeService) ListGoals(context.Context) ([]api.Goal, error) {
	return f.goals, nil
}

func (f *fakeService) CreateGoal(_ context.Context, in api.GoalCreate) (*api.Goal, error) {
	f.lastCreate = &in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &api.Goal{
		ID:           "g-new",
		Name:         in.Name,
		GoalType:     in.GoalType,
		TargetAmount: in.TargetAmount,
	}, nil
}

func (f *fakeService) UpdateGoal(_ context.Context, id string, in api.GoalUpdate) (*api.Goal, error) {
	f.lastUpdate = &in
	f.lastUpdated = id
	g := api.Goal{ID: id, GoalType: api.GoalSavings}
	for _, existing := range f.goals {
		if existing.ID == id {
			g = existing
		}
	}
	if in.Name != nil {
		g.Name = *in.Name
	}
	if in.TargetAmount != nil {
		g.TargetAmount = *in.TargetAmount
	}
	if in.IsCompleted != nil {
		g.IsCompleted = *in.IsCompleted
	}
	return &g, nil
}

func (f *fakeService) DeleteGoal(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSource struct {
	items    []api.LinkedItem
	accounts map[string][]api.Account
	err      error
}

func (f *fakeSource) ListLinkedItems(context.Context) ([]api.LinkedItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func (f *fakeSource) ListItemAccounts(_ context.Context, itemID string) ([]api.Account, error) {
	return f.accounts[itemID], nil
}

type fakeSeeder struct {
	calls     int
	failFirst bool
	result    api.SeedDefaultsResult
	lastReq   api.SeedDefaultsRequest
}

func (f *fakeSeeder) SeedDefaultCategories(_ context.Context, in api.SeedDefaultsRequest) (*api.SeedDefaultsResult, error) {
	f.calls++
	f.lastReq = in
	if f.failFirst && f.calls == 1 {
		return nil, &api.Error{StatusCode: 500, Message: "database unavailable"}
	}
	r := f.result
	return &r, nil
}

type fakeCategories struct {
	categories []api.Category
}

func (f *fakeCategories) ListCategories(context.Context) ([]api.Category, error) {
	return f.categories, nil
}

func (f *fakeCategories) CreateSubcategory(_ context.Context, categoryID string, in api.SubcategoryCreate) (*api.Subcategory, error) {
	return &api.Subcategory{
		ID:           "s-new",
		CategoryID:   categoryID,
		Name:         in.Name,
		Icon:         in.Icon,
		DisplayOrder: in.DisplayOrder,
	}, nil
}

func fptr(v float64) *float64 { return &v }

func testSource() *fakeSource {
	chase := "Chase"
	return &fakeSource{
		items: []api.LinkedItem{{ID: "item-1", InstitutionName: &chase, Status: "active"}},
		accounts: map[string][]api.Account{
			"item-1": {
				{ID: "acc-1", SimplefinAccountID: "ACT-1", Name: "Checking", Currency: "USD", Balance: fptr(4280.12), OrganizationName: &chase},
				{ID: "acc-2", SimplefinAccountID: "ACT-2", Name: "Savings", Currency: "USD", Balance: fptr(12650.00), OrganizationName: &chase},
			},
		},
	}
}

func newTestDeps(svc *fakeService, src *fakeSource, seed *fakeSeeder, cats *fakeCategories) Deps {
	return Deps{
		Goals:   controller.NewGoalList(svc, nil),
		Wizard:  controller.NewOnboardingWizard(src, nil),
		Seeder:  controller.NewSeededSetup(seed, nil),
		Budget:  controller.NewBudgetTree(cats, nil),
		Service: svc,
		Source:  src,
	}
}

func testConfig() config.Config {
	return config.Config{UI: config.UIConfig{DateFormat: "02/01/2006", CurrencySymbol: "$"}}
}

func startApp(t *testing.T, deps Deps, onboarded bool) *App {
	t.Helper()
	app := New(context.Background(), testConfig(), deps, onboarded)
	drive(t, app, app.Init())
	return app
}

// drive runs a command tree synchronously, feeding messages back into the
// model. Spinner and cursor ticks are dropped, they self-perpetuate.
func drive(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	switch m := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, c := range m {
			drive(t, app, c)
		}
		return
	case spinner.TickMsg, cursor.BlinkMsg, tea.QuitMsg:
		return
	}
	_, next := app.Update(msg)
	drive(t, app, next)
}

func pressKey(t *testing.T, app *App, k string) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+a":
		msg = tea.KeyMsg{Type: tea.KeyCtrlA}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := app.Update(msg)
	drive(t, app, cmd)
}

func typeText(t *testing.T, app *App, s string) {
	t.Helper()
	for _, r := range s {
		pressKey(t, app, string(r))
	}
}

func TestOpensOnGoalsWhenOnboarded(t *testing.T) {
	svc := &fakeService{goals: []api.Goal{
		{ID: "g1", Name: "Emergency fund", GoalType: api.GoalSavings, TargetAmount: 20000, CurrentAmount: 12650},
	}}
	app := startApp(t, newTestDeps(svc, testSource(), &fakeSeeder{}, &fakeCategories{}), true)

	if app.screen != screenGoals {
		t.Fatalf("screen = %v, want goals", app.screen)
	}
	v := app.View()
	if !strings.Contains(v, "Emergency fund") {
		t.Fatalf("view missing goal name:\n%s", v)
	}
	if !strings.Contains(v, "$12,650.00 of $20,000.00") {
		t.Fatalf("view missing amounts:\n%s", v)
	}
}

func TestOnboardingCompletesAndSeeds(t *testing.T) {
	seed := &fakeSeeder{result: api.SeedDefaultsResult{
		CategoriesCreated:    19,
		SubcategoriesCreated: 88,
		BudgetsCreated:       18,
		MonthlyBudget:        2500,
		BudgetPerCategory:    138.89,
	}}
	deps := newTestDeps(&fakeService{}, testSource(), seed, &fakeCategories{})
	marked := int64(-1)
	deps.MarkOnboarded = func(cents int64) error {
		marked = cents
		return nil
	}
	app := startApp(t, deps, false)

	if !strings.Contains(app.View(), "Step 1 of 2") {
		t.Fatalf("expected budget step:\n%s", app.View())
	}

	typeText(t, app, "2500")
	pressKey(t, app, "enter")

	v := app.View()
	if !strings.Contains(v, "Step 2 of 2") || !strings.Contains(v, "Checking") {
		t.Fatalf("expected accounts step with rows:\n%s", v)
	}

	pressKey(t, app, " ")
	pressKey(t, app, "enter")

	if app.screen != screenSeeding {
		t.Fatalf("screen = %v, want seeding", app.screen)
	}
	if seed.calls != 1 {
		t.Fatalf("seed calls = %d, want 1", seed.calls)
	}
	if seed.lastReq.MonthlyBudget != 2500 {
		t.Fatalf("monthly budget = %v, want 2500", seed.lastReq.MonthlyBudget)
	}
	if !reflect.DeepEqual(seed.lastReq.AccountIDs, []string{"acc-1"}) {
		t.Fatalf("account ids = %v, want [acc-1]", seed.lastReq.AccountIDs)
	}
	if marked != 250000 {
		t.Fatalf("marked cents = %d, want 250000", marked)
	}

	v = app.View()
	if !strings.Contains(v, "You're set up!") || !strings.Contains(v, "19 categories with 88 budget lines") {
		t.Fatalf("missing seed summary:\n%s", v)
	}
	if !strings.Contains(v, "$2,500.00 a month") {
		t.Fatalf("missing budget figure:\n%s", v)
	}

	pressKey(t, app, "enter")
	if app.screen != screenGoals {
		t.Fatalf("screen = %v, want goals after setup", app.screen)
	}
	if !strings.Contains(app.View(), "No goals yet") {
		t.Fatalf("expected empty goals screen:\n%s", app.View())
	}
}

func TestOnboardingRejectsBadBudget(t *testing.T) {
	app := startApp(t, newTestDeps(&fakeService{}, testSource(), &fakeSeeder{}, &fakeCategories{}), false)

	typeText(t, app, "abc")
	pressKey(t, app, "enter")

	v := app.View()
	if !strings.Contains(v, "Step 1 of 2") {
		t.Fatalf("should stay on budget step:\n%s", v)
	}
	if !strings.Contains(v, "enter an amount like 2500.00") {
		t.Fatalf("missing validation hint:\n%s", v)
	}
}

func TestOnboardingToggleAllAccounts(t *testing.T) {
	deps := newTestDeps(&fakeService{}, testSource(), &fakeSeeder{}, &fakeCategories{})
	app := startApp(t, deps, false)

	typeText(t, app, "100")
	pressKey(t, app, "enter")
	pressKey(t, app, "ctrl+a")

	if got := deps.Wizard.SelectedIDs(); !reflect.DeepEqual(got, []string{"acc-1", "acc-2"}) {
		t.Fatalf("selected = %v, want all", got)
	}
	if app.accountPicker.SelectedCount() != 2 {
		t.Fatalf("picker count = %d, want 2", app.accountPicker.SelectedCount())
	}

	pressKey(t, app, "ctrl+a")
	if got := deps.Wizard.SelectedIDs(); len(got) != 0 {
		t.Fatalf("selected after second toggle = %v, want none", got)
	}
}

func TestSeedRetryAfterFailure(t *testing.T) {
	seed := &fakeSeeder{failFirst: true, result: api.SeedDefaultsResult{CategoriesCreated: 19}}
	deps := newTestDeps(&fakeService{}, testSource(), seed, &fakeCategories{})
	deps.MarkOnboarded = func(int64) error { return nil }
	app := startApp(t, deps, false)

	typeText(t, app, "100")
	pressKey(t, app, "enter")
	pressKey(t, app, "enter")

	v := app.View()
	if !strings.Contains(v, "setup failed: database unavailable") {
		t.Fatalf("missing failure banner:\n%s", v)
	}

	pressKey(t, app, "r")
	if seed.calls != 2 {
		t.Fatalf("seed calls = %d, want 2 after retry", seed.calls)
	}
	if !strings.Contains(app.View(), "You're set up!") {
		t.Fatalf("retry did not land on summary:\n%s", app.View())
	}
}

func TestCreateGoalFromModal(t *testing.T) {
	svc := &fakeService{}
	app := startApp(t, newTestDeps(svc, testSource(), &fakeSeeder{}, &fakeCategories{}), true)

	pressKey(t, app, "n")
	if app.modal != modalGoalForm {
		t.Fatalf("modal = %v, want goal form", app.modal)
	}

	typeText(t, app, "Car")
	pressKey(t, app, "tab") // description
	pressKey(t, app, "tab") // amount
	typeText(t, app, "9000")
	pressKey(t, app, "enter")

	if svc.lastCreate == nil {
		t.Fatal("create was never called")
	}
	if svc.lastCreate.Name != "Car" || svc.lastCreate.TargetAmount != 9000 {
		t.Fatalf("create payload = %+v", svc.lastCreate)
	}
	if svc.lastCreate.GoalType != api.GoalSavings {
		t.Fatalf("goal type = %v, want savings default", svc.lastCreate.GoalType)
	}
	if app.modal != modalNone {
		t.Fatalf("modal = %v, want closed after save", app.modal)
	}
	if got := app.deps.Goals.Snapshot().Goals; len(got) != 1 || got[0].Name != "Car" {
		t.Fatalf("goals = %+v, want the created goal inserted", got)
	}
	if !strings.Contains(app.View(), "goal created") {
		t.Fatalf("missing status line:\n%s", app.View())
	}
}

func TestGoalFormTogglesType(t *testing.T) {
	svc := &fakeService{}
	app := startApp(t, newTestDeps(svc, testSource(), &fakeSeeder{}, &fakeCategories{}), true)

	pressKey(t, app, "n")
	typeText(t, app, "Visa")
	pressKey(t, app, "tab")
	pressKey(t, app, "tab")
	typeText(t, app, "1200")
	pressKey(t, app, "tab") // date
	pressKey(t, app, "tab") // type
	pressKey(t, app, " ")
	pressKey(t, app, "enter")

	if svc.lastCreate == nil || svc.lastCreate.GoalType != api.GoalDebtPayment {
		t.Fatalf("create payload = %+v, want debt_payment", svc.lastCreate)
	}
}

func TestGoalFormValidationKeepsModalOpen(t *testing.T) {
	app := startApp(t, newTestDeps(&fakeService{}, testSource(), &fakeSeeder{}, &fakeCategories{}), true)

	pressKey(t, app, "n")
	pressKey(t, app, "enter")

	if app.modal != modalGoalForm {
		t.Fatal("modal should stay open on invalid input")
	}
	if !strings.Contains(app.View(), "name is required") {
		t.Fatalf("missing validation message:\n%s", app.View())
	}
}

func TestGoalFormServerRejectionShowsInModal(t *testing.T) {
	svc := &fakeService{createErr: &api.Error{StatusCode: 422, Message: "Invalid goal type"}}
	app := startApp(t, newTestDeps(svc, testSource(), &fakeSeeder{}, &fakeCategories{}), true)

	pressKey(t, app, "n")
	typeText(t, app, "Car")
	pressKey(t, app, "tab")
	pressKey(t, app, "tab")
	typeText(t, app, "9000")
	pressKey(t, app, "enter")

	if app.modal != modalGoalForm {
		t.Fatal("modal should stay open on server rejection")
	}
	if !strings.Contains(app.View(), "Invalid goal type") {
		t.Fatalf("missing server detail:\n%s", app.View())
	}
	if app.goalForm.saving {
		t.Fatal("saving flag stuck after rejection")
	}
}

func TestEditGoalPrefillsAndLinksAccounts(t *testing.T) {
	svc := &fakeService{goals: []api.Goal{{
		ID:           "g1",
		Name:         "Emergency fund",
		GoalType:     api.GoalSavings,
		TargetAmount: 20000,
		Accounts: []api.GoalAccount{
			{ID: "ga1", SimplefinAccountID: "ACT-1", AccountName: "Checking", AllocationPercentage: 100},
		},
	}}}
	app := startApp(t, newTestDeps(svc, testSource(), &fakeSeeder{}, &fakeCategories{}), true)

	pressKey(t, app, "e")
	if app.modal != modalGoalForm {
		t.Fatalf("modal = %v, want goal form", app.modal)
	}
	if got := app.goalForm.name.Value(); got != "Emergency fund" {
		t.Fatalf("prefilled name = %q", got)
	}
	if got := app.goalForm.amount.Value(); got != "20000.00" {
		t.Fatalf("prefilled amount = %q", got)
	}
	if got := app.goalForm.picker.Selected(); !reflect.DeepEqual(got, []string{"ACT-1"}) {
		t.Fatalf("preselected accounts = %v, want [ACT-1]", got)
	}

	pressKey(t, app, "enter")

	if svc.lastUpdated != "g1" || svc.lastUpdate == nil {
		t.Fatalf("update call = %q %+v", svc.lastUpdated, svc.lastUpdate)
	}
	if svc.lastUpdate.Name == nil || *svc.lastUpdate.Name != "Emergency fund" {
		t.Fatalf("update name = %+v", svc.lastUpdate.Name)
	}
	want := []api.GoalAccountRef{{SimplefinAccountID: "ACT-1", AllocationPercentage: 100}}
	if !reflect.DeepEqual(svc.lastUpdate.Accounts, want) {
		t.Fatalf("update accounts = %+v, want %+v", svc.lastUpdate.Accounts, want)
	}
	if !strings.Contains(app.View(), "goal updated") {
		t.Fatalf("missing status:\n%s", app.View())
	}
}

func TestDeleteGoalNeedsConfirmation(t *testing.T) {
	svc := &fakeService{goals: []api.Goal{{ID: "g1", Name: "One"}, {ID: "g2", Name: "Two"}}}
	app := startApp(t, newTestDeps(svc, testSource(), &fakeSeeder{}, &fakeCategories{}), true)

	pressKey(t, app, "d")
	if app.modal != modalConfirmDelete {
		t.Fatalf("modal = %v, want confirm", app.modal)
	}
	pressKey(t, app, "n")
	if len(svc.deleted) != 0 {
		t.Fatalf("deleted = %v, want none after cancel", svc.deleted)
	}

	pressKey(t, app, "d")
	pressKey(t, app, "y")
	if !reflect.DeepEqual(svc.deleted, []string{"g1"}) {
		t.Fatalf("deleted = %v, want [g1]", svc.deleted)
	}
	if got := app.deps.Goals.Snapshot().Goals; len(got) != 1 || got[0].ID != "g2" {
		t.Fatalf("goals = %+v, want [g2]", got)
	}
}

func TestToggleDoneRoundTrips(t *testing.T) {
	svc := &fakeService{goals: []api.Goal{{ID: "g1", Name: "One", TargetAmount: 100}}}
	app := startApp(t, newTestDeps(svc, testSource(), &fakeSeeder{}, &fakeCategories{}), true)

	pressKey(t, app, "x")

	if svc.lastUpdate == nil || svc.lastUpdate.IsCompleted == nil || !*svc.lastUpdate.IsCompleted {
		t.Fatalf("update payload = %+v, want is_completed true", svc.lastUpdate)
	}
	if got := app.deps.Goals.Snapshot().Goals[0]; !got.IsCompleted {
		t.Fatalf("goal = %+v, want completed after toggle", got)
	}
}

func TestBudgetScreenAddsSubcategory(t *testing.T) {
	icon := "🏠"
	cats := &fakeCategories{categories: []api.Category{{
		ID:   "c1",
		Name: "Housing",
		Icon: &icon,
		Subcategories: []api.Subcategory{
			{ID: "s1", CategoryID: "c1", Name: "Rent", DisplayOrder: 1},
		},
	}}}
	app := startApp(t, newTestDeps(&fakeService{}, testSource(), &fakeSeeder{}, cats), true)

	pressKey(t, app, "b")
	if app.screen != screenBudget {
		t.Fatalf("screen = %v, want budget", app.screen)
	}
	v := app.View()
	if !strings.Contains(v, "Housing") || !strings.Contains(v, "Rent") {
		t.Fatalf("budget view missing tree:\n%s", v)
	}

	pressKey(t, app, "n")
	if app.modal != modalSubcategory {
		t.Fatalf("modal = %v, want subcategory", app.modal)
	}
	typeText(t, app, "Deposit")
	pressKey(t, app, "enter")

	if app.modal != modalNone {
		t.Fatalf("modal = %v, want closed", app.modal)
	}
	snap := app.deps.Budget.Snapshot()
	subs := snap.Categories[0].Subcategories
	if len(subs) != 2 || subs[1].Name != "Deposit" {
		t.Fatalf("subcategories = %+v, want Deposit appended", subs)
	}
	if !strings.Contains(app.View(), "budget line added") {
		t.Fatalf("missing status:\n%s", app.View())
	}

	pressKey(t, app, "g")
	if app.screen != screenGoals {
		t.Fatalf("screen = %v, want goals again", app.screen)
	}
}

func TestSubcategoryModalRequiresName(t *testing.T) {
	cats := &fakeCategories{categories: []api.Category{{ID: "c1", Name: "Housing"}}}
	app := startApp(t, newTestDeps(&fakeService{}, testSource(), &fakeSeeder{}, cats), true)

	pressKey(t, app, "b")
	pressKey(t, app, "n")
	pressKey(t, app, "enter")

	if app.modal != modalSubcategory {
		t.Fatal("modal should stay open without a name")
	}
	if !strings.Contains(app.View(), "name is required") {
		t.Fatalf("missing validation message:\n%s", app.View())
	}
}

func TestQuitKey(t *testing.T) {
	app := startApp(t, newTestDeps(&fakeService{}, testSource(), &fakeSeeder{}, &fakeCategories{}), true)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should quit from the goal list")
	}
}
