// Package tui renders the terminal client: first-run onboarding, the goal
// list and the budget tree. All state worth keeping lives in the controllers;
// the model here is view state only, so any screen can be rebuilt from a
// snapshot at any time.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nestegg-app/nestegg/internal/api"
	"github.com/nestegg-app/nestegg/internal/config"
	"github.com/nestegg-app/nestegg/internal/controller"
)

// Deps bundles everything the app talks to. Controllers own screen state;
// Service and Source are the raw ports for one-shot calls the controllers
// do not wrap.
type Deps struct {
	Goals  *controller.GoalList
	Wizard *controller.OnboardingWizard
	Seeder *controller.SeededSetup
	Budget *controller.BudgetTree

	Service controller.GoalService
	Source  controller.AccountSource

	// MarkOnboarded persists the local first-run flag. Nil is allowed in
	// tests.
	MarkOnboarded func(budgetCents int64) error
}

type screen string

const (
	screenOnboarding screen = "onboarding"
	screenSeeding    screen = "seeding"
	screenGoals      screen = "goals"
	screenBudget     screen = "budget"
)

type modal string

const (
	modalNone          modal = ""
	modalGoalForm      modal = "goal_form"
	modalConfirmDelete modal = "confirm_delete"
	modalSubcategory   modal = "subcategory"
)

// App is the bubbletea model.
type App struct {
	ctx  context.Context
	cfg  config.Config
	deps Deps

	screen screen
	modal  modal
	keys   keyMap

	width  int
	height int
	status string

	spin spinner.Model
	bar  progress.Model

	budgetInput   textinput.Model
	accountPicker *pickerState

	goalCursor   int
	budgetCursor int

	goalForm   *goalForm
	subModal   *subcategoryModal
	deleteGoal *api.Goal

	// pendingSeed keeps the wizard outcome so a failed seed can be retried
	// without walking the wizard again.
	pendingSeed *controller.OnboardingResult
}

// New builds the app. onboarded decides whether to open on the wizard or
// go straight to goals.
func New(ctx context.Context, cfg config.Config, deps Deps, onboarded bool) *App {
	bi := textinput.New()
	bi.Prompt = ""
	bi.Placeholder = "3000.00"
	bi.CharLimit = 12
	bi.Width = 14

	scr := screenGoals
	if !onboarded {
		scr = screenOnboarding
		bi.Focus()
	}

	return &App{
		ctx:         ctx,
		cfg:         cfg,
		deps:        deps,
		screen:      scr,
		keys:        newKeyMap(),
		spin:        spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
		bar:         progress.New(progress.WithDefaultGradient()),
		budgetInput: bi,
	}
}

func (a *App) Init() tea.Cmd {
	if a.screen == screenOnboarding {
		return tea.Batch(textinput.Blink, a.spin.Tick, a.loadWizardAccountsCmd())
	}
	return tea.Batch(a.spin.Tick, a.loadGoalsCmd())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		w := msg.Width - 24
		if w < 16 {
			w = 16
		}
		if w > 48 {
			w = 48
		}
		a.bar.Width = w
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case RefreshMsg:
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case goalsLoadedMsg, budgetLoadedMsg:
		return a, nil

	case wizardAccountsMsg:
		if a.screen == screenOnboarding {
			a.syncAccountPicker()
		}
		return a, nil

	case seededMsg:
		snap := a.deps.Seeder.Snapshot()
		if snap.Result != nil && a.pendingSeed != nil {
			return a, a.markOnboardedCmd(a.pendingSeed.BudgetCents)
		}
		return a, nil

	case onboardingMarkedMsg:
		if msg.err != nil {
			a.status = "local setup flag not saved; onboarding may run again"
		}
		return a, nil

	case goalMutatedMsg:
		if msg.err != nil {
			a.status = api.Message(msg.err)
			return a, nil
		}
		a.status = ""
		a.clampGoalCursor()
		return a, nil

	case goalSavedMsg:
		if msg.err != nil {
			if a.goalForm != nil {
				a.goalForm.saving = false
				a.goalForm.errMsg = api.Message(msg.err)
			}
			return a, nil
		}
		a.closeModal()
		if msg.editing {
			a.status = "goal updated"
		} else {
			a.status = "goal created"
			a.goalCursor = 0
		}
		return a, nil

	case formAccountsMsg:
		if a.goalForm != nil {
			a.goalForm.setAccounts(msg.accounts, errText(msg.err))
		}
		return a, nil

	case subcategorySavedMsg:
		if msg.err == nil {
			a.status = "budget line added"
		}
		return a, nil
	}

	// Whatever else arrives (cursor blink ticks) flows to the focused input.
	var cmds []tea.Cmd
	if a.modal == modalGoalForm && a.goalForm != nil {
		cmds = append(cmds, a.goalForm.update(msg))
	}
	if a.modal == modalSubcategory && a.subModal != nil {
		cmds = append(cmds, a.subModal.update(msg))
	}
	if a.modal == modalNone && a.screen == screenOnboarding {
		var cmd tea.Cmd
		a.budgetInput, cmd = a.budgetInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	if a.modal != modalNone {
		return a.handleModalKey(msg)
	}
	switch a.screen {
	case screenOnboarding:
		return a.handleOnboardingKey(msg)
	case screenSeeding:
		return a.handleSeedingKey(msg)
	case screenGoals:
		return a.handleGoalsKey(msg)
	case screenBudget:
		return a.handleBudgetKey(msg)
	}
	return a, nil
}

func (a *App) handleOnboardingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := a.deps.Wizard.Snapshot()
	if snap.Step == controller.StepBudget {
		if msg.String() == "enter" {
			if a.deps.Wizard.Advance() {
				a.syncAccountPicker()
				if !snap.AccountsLoaded && !snap.AccountsLoading {
					return a, a.loadWizardAccountsCmd()
				}
			}
			return a, nil
		}
		var cmd tea.Cmd
		a.budgetInput, cmd = a.budgetInput.Update(msg)
		a.deps.Wizard.SetBudgetInput(a.budgetInput.Value())
		return a, cmd
	}

	// accounts step
	switch msg.String() {
	case "enter":
		res, ok := a.deps.Wizard.Complete()
		if !ok {
			return a, nil
		}
		a.pendingSeed = &res
		a.screen = screenSeeding
		return a, tea.Batch(a.seedCmd(res), a.spin.Tick)
	case "esc":
		a.deps.Wizard.Back()
		return a, nil
	case "ctrl+a":
		a.deps.Wizard.ToggleSelectAll()
		if a.accountPicker != nil {
			a.accountPicker.SetSelected(a.deps.Wizard.SelectedIDs())
		}
		return a, nil
	case " ", "space":
		if a.accountPicker != nil {
			if it, ok := a.accountPicker.CurrentItem(); ok {
				a.accountPicker.Toggle()
				a.deps.Wizard.ToggleAccount(it.ID)
			}
		}
		return a, nil
	case "r":
		if snap.AccountsErr != "" {
			return a, a.loadWizardAccountsCmd()
		}
	}
	if a.accountPicker != nil {
		a.accountPicker.HandleKey(msg.String())
	}
	return a, nil
}

func (a *App) handleSeedingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := a.deps.Seeder.Snapshot()
	switch {
	case snap.Loading:
		return a, nil
	case snap.Err != "":
		switch msg.String() {
		case "r":
			if a.pendingSeed != nil {
				return a, tea.Batch(a.seedCmd(*a.pendingSeed), a.spin.Tick)
			}
		case "esc":
			a.screen = screenOnboarding
		}
		return a, nil
	case snap.Result != nil:
		if msg.String() == "enter" {
			a.screen = screenGoals
			return a, a.loadGoalsCmd()
		}
	}
	return a, nil
}

func (a *App) handleGoalsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := a.deps.Goals.Snapshot()
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Up):
		if a.goalCursor > 0 {
			a.goalCursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.goalCursor < len(snap.Goals)-1 {
			a.goalCursor++
		}
	case key.Matches(msg, a.keys.Reload):
		return a, a.loadGoalsCmd()
	case key.Matches(msg, a.keys.New):
		a.goalForm = newGoalForm(nil)
		a.modal = modalGoalForm
		return a, tea.Batch(textinput.Blink, a.loadFormAccountsCmd())
	case key.Matches(msg, a.keys.Edit):
		if g, ok := a.selectedGoal(snap); ok {
			goal := g
			a.goalForm = newGoalForm(&goal)
			a.modal = modalGoalForm
			return a, tea.Batch(textinput.Blink, a.loadFormAccountsCmd())
		}
	case key.Matches(msg, a.keys.Delete):
		if g, ok := a.selectedGoal(snap); ok {
			goal := g
			a.deleteGoal = &goal
			a.modal = modalConfirmDelete
		}
	case key.Matches(msg, a.keys.Done):
		if g, ok := a.selectedGoal(snap); ok {
			return a, a.toggleDoneCmd(g)
		}
	case key.Matches(msg, a.keys.Budget):
		a.screen = screenBudget
		a.budgetCursor = 0
		if !a.deps.Budget.Snapshot().LoadedOnce {
			return a, a.loadBudgetCmd()
		}
	case key.Matches(msg, a.keys.Dismiss):
		a.deps.Goals.DismissError()
		a.status = ""
	}
	return a, nil
}

func (a *App) handleBudgetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := a.deps.Budget.Snapshot()
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Up):
		if a.budgetCursor > 0 {
			a.budgetCursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.budgetCursor < len(snap.Categories)-1 {
			a.budgetCursor++
		}
	case key.Matches(msg, a.keys.Reload):
		return a, a.loadBudgetCmd()
	case key.Matches(msg, a.keys.New):
		if c, ok := a.selectedCategory(snap); ok {
			a.subModal = newSubcategoryModal(c.ID, c.Name)
			a.modal = modalSubcategory
			return a, textinput.Blink
		}
	case key.Matches(msg, a.keys.Goals):
		a.screen = screenGoals
	case key.Matches(msg, a.keys.Dismiss):
		a.deps.Budget.DismissError()
		a.status = ""
	}
	return a, nil
}

func (a *App) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.modal {
	case modalGoalForm:
		action, cmd := a.goalForm.handleKey(msg)
		switch action {
		case formCancelled:
			a.closeModal()
			return a, nil
		case formSubmitted:
			a.goalForm.saving = true
			if a.goalForm.editing != nil {
				return a, a.updateGoalCmd(a.goalForm.editing.ID, a.goalForm.buildUpdate())
			}
			return a, a.createGoalCmd(a.goalForm.buildCreate())
		}
		return a, cmd

	case modalConfirmDelete:
		switch msg.String() {
		case "y", "enter":
			var id string
			if a.deleteGoal != nil {
				id = a.deleteGoal.ID
			}
			a.closeModal()
			if id != "" {
				return a, a.deleteGoalCmd(id)
			}
		case "n", "esc":
			a.closeModal()
		}
		return a, nil

	case modalSubcategory:
		action, draft, cmd := a.subModal.handleKey(msg)
		switch action {
		case formCancelled:
			a.closeModal()
			return a, nil
		case formSubmitted:
			categoryID := a.subModal.categoryID
			a.closeModal()
			return a, a.addSubcategoryCmd(categoryID, draft)
		}
		return a, cmd
	}
	return a, nil
}

func (a *App) closeModal() {
	a.modal = modalNone
	a.goalForm = nil
	a.subModal = nil
	a.deleteGoal = nil
}

func (a *App) selectedGoal(snap controller.GoalListSnapshot) (api.Goal, bool) {
	if len(snap.Goals) == 0 {
		return api.Goal{}, false
	}
	i := a.goalCursor
	if i >= len(snap.Goals) {
		i = len(snap.Goals) - 1
	}
	return snap.Goals[i], true
}

func (a *App) selectedCategory(snap controller.BudgetSnapshot) (api.Category, bool) {
	if len(snap.Categories) == 0 {
		return api.Category{}, false
	}
	i := a.budgetCursor
	if i >= len(snap.Categories) {
		i = len(snap.Categories) - 1
	}
	return snap.Categories[i], true
}

func (a *App) clampGoalCursor() {
	n := len(a.deps.Goals.Snapshot().Goals)
	if a.goalCursor >= n {
		a.goalCursor = n - 1
	}
	if a.goalCursor < 0 {
		a.goalCursor = 0
	}
}

// syncAccountPicker rebuilds the wizard's account rows from the controller,
// which stays the source of truth for what is selected.
func (a *App) syncAccountPicker() {
	snap := a.deps.Wizard.Snapshot()
	rows := make([]pickerItem, 0, len(snap.Accounts))
	for _, acct := range snap.Accounts {
		section := "Accounts"
		if acct.OrganizationName != nil && *acct.OrganizationName != "" {
			section = *acct.OrganizationName
		}
		meta := ""
		if acct.Balance != nil {
			meta = a.cfg.UI.CurrencySymbol + formatAmount(*acct.Balance)
		}
		rows = append(rows, pickerItem{
			ID:      acct.ID,
			Label:   acct.Name,
			Section: section,
			Meta:    meta,
		})
	}
	if a.accountPicker == nil {
		a.accountPicker = newPicker("", rows)
	} else {
		a.accountPicker.SetItems(rows)
	}
	sel := make([]string, 0, len(snap.Selected))
	for id := range snap.Selected {
		sel = append(sel, id)
	}
	a.accountPicker.SetSelected(sel)
}

func (a *App) loadGoalsCmd() tea.Cmd {
	return func() tea.Msg {
		a.deps.Goals.Load(a.ctx)
		return goalsLoadedMsg{}
	}
}

func (a *App) loadWizardAccountsCmd() tea.Cmd {
	return func() tea.Msg {
		a.deps.Wizard.LoadAccounts(a.ctx)
		return wizardAccountsMsg{}
	}
}

func (a *App) seedCmd(res controller.OnboardingResult) tea.Cmd {
	return func() tea.Msg {
		a.deps.Seeder.Run(a.ctx, res.BudgetCents, res.AccountIDs)
		return seededMsg{}
	}
}

func (a *App) markOnboardedCmd(budgetCents int64) tea.Cmd {
	return func() tea.Msg {
		var err error
		if a.deps.MarkOnboarded != nil {
			err = a.deps.MarkOnboarded(budgetCents)
		}
		return onboardingMarkedMsg{err: err}
	}
}

func (a *App) loadBudgetCmd() tea.Cmd {
	return func() tea.Msg {
		a.deps.Budget.Load(a.ctx)
		return budgetLoadedMsg{}
	}
}

func (a *App) deleteGoalCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return goalMutatedMsg{err: a.deps.Goals.Delete(a.ctx, id)}
	}
}

func (a *App) toggleDoneCmd(g api.Goal) tea.Cmd {
	return func() tea.Msg {
		done := !g.IsCompleted
		updated, err := a.deps.Service.UpdateGoal(a.ctx, g.ID, api.GoalUpdate{IsCompleted: &done})
		if err != nil {
			return goalMutatedMsg{err: err}
		}
		a.deps.Goals.Replace(*updated)
		return goalMutatedMsg{}
	}
}

func (a *App) createGoalCmd(in api.GoalCreate) tea.Cmd {
	return func() tea.Msg {
		g, err := a.deps.Service.CreateGoal(a.ctx, in)
		if err != nil {
			return goalSavedMsg{err: err}
		}
		a.deps.Goals.Insert(*g)
		return goalSavedMsg{goal: g}
	}
}

func (a *App) updateGoalCmd(id string, in api.GoalUpdate) tea.Cmd {
	return func() tea.Msg {
		g, err := a.deps.Service.UpdateGoal(a.ctx, id, in)
		if err != nil {
			return goalSavedMsg{editing: true, err: err}
		}
		a.deps.Goals.Replace(*g)
		return goalSavedMsg{goal: g, editing: true}
	}
}

func (a *App) loadFormAccountsCmd() tea.Cmd {
	return func() tea.Msg {
		accounts, err := controller.LoadLinkedAccounts(a.ctx, a.deps.Source)
		return formAccountsMsg{accounts: accounts, err: err}
	}
}

func (a *App) addSubcategoryCmd(categoryID string, draft controller.NewSubcategory) tea.Cmd {
	return func() tea.Msg {
		return subcategorySavedMsg{err: a.deps.Budget.AddSubcategory(a.ctx, categoryID, draft)}
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return api.Message(err)
}

// RefreshMsg forces a repaint. The program owner sends it whenever a
// controller notifies a change that did not come through a command.
type RefreshMsg struct{}

type goalsLoadedMsg struct{}

type wizardAccountsMsg struct{}

type seededMsg struct{}

type onboardingMarkedMsg struct{ err error }

type budgetLoadedMsg struct{}

type goalMutatedMsg struct{ err error }

type goalSavedMsg struct {
	goal    *api.Goal
	editing bool
	err     error
}

type formAccountsMsg struct {
	accounts []api.Account
	err      error
}

type subcategorySavedMsg struct{ err error }
