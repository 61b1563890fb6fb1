package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nestegg-app/nestegg/internal/api"
	"github.com/nestegg-app/nestegg/internal/controller"
	"github.com/nestegg-app/nestegg/internal/money"
)

type formAction int

const (
	formNone formAction = iota
	formSubmitted
	formCancelled
)

// Every selected account funds the goal in full. Split allocations are a
// service feature the form does not expose yet.
const fullAllocation = 100.0

const (
	focusName = iota
	focusDescription
	focusAmount
	focusDate
	focusType
	focusAccounts
	goalFormFields
)

// goalForm is the create/edit goal modal. A nil editing goal means create.
type goalForm struct {
	editing *api.Goal

	name   textinput.Model
	desc   textinput.Model
	amount textinput.Model
	date   textinput.Model

	goalType api.GoalType
	picker   *pickerState

	// initialIDs preselects the picker once accounts arrive.
	initialIDs     []string
	accountsLoaded bool
	accountsErr    string

	focus  int
	saving bool
	errMsg string
}

func newGoalForm(editing *api.Goal) *goalForm {
	f := &goalForm{
		editing:  editing,
		goalType: api.GoalSavings,
		picker:   newPicker("", nil),
	}

	f.name = textinput.New()
	f.name.Prompt = ""
	f.name.Placeholder = "Emergency fund"
	f.name.CharLimit = 80
	f.name.Width = 36

	f.desc = textinput.New()
	f.desc.Prompt = ""
	f.desc.Placeholder = "optional"
	f.desc.CharLimit = 120
	f.desc.Width = 36

	f.amount = textinput.New()
	f.amount.Prompt = ""
	f.amount.Placeholder = "5000.00"
	f.amount.CharLimit = 12
	f.amount.Width = 14

	f.date = textinput.New()
	f.date.Prompt = ""
	f.date.Placeholder = "YYYY-MM-DD, optional"
	f.date.CharLimit = 10
	f.date.Width = 22

	if editing != nil {
		f.name.SetValue(editing.Name)
		if editing.Description != nil {
			f.desc.SetValue(*editing.Description)
		}
		f.amount.SetValue(money.FormatAmount(editing.TargetAmount))
		if editing.TargetDate != nil {
			f.date.SetValue(*editing.TargetDate)
		}
		f.goalType = editing.GoalType
		for _, ga := range editing.Accounts {
			f.initialIDs = append(f.initialIDs, ga.SimplefinAccountID)
		}
	}

	f.name.Focus()
	return f
}

// setAccounts fills the picker once the account load lands. Rows key on the
// aggregation-side id, the one goal links carry.
func (f *goalForm) setAccounts(accounts []api.Account, errMsg string) {
	f.accountsErr = errMsg
	if errMsg != "" {
		return
	}
	rows := make([]pickerItem, 0, len(accounts))
	for _, a := range accounts {
		section := "Accounts"
		if a.OrganizationName != nil && *a.OrganizationName != "" {
			section = *a.OrganizationName
		}
		meta := ""
		if a.Balance != nil {
			meta = formatAmount(*a.Balance)
		}
		rows = append(rows, pickerItem{
			ID:      a.SimplefinAccountID,
			Label:   a.Name,
			Section: section,
			Meta:    meta,
		})
	}
	f.picker.SetItems(rows)
	if !f.accountsLoaded {
		f.picker.SetSelected(f.initialIDs)
	}
	f.accountsLoaded = true
}

func (f *goalForm) setFocus(i int) tea.Cmd {
	f.focus = ((i % goalFormFields) + goalFormFields) % goalFormFields
	f.name.Blur()
	f.desc.Blur()
	f.amount.Blur()
	f.date.Blur()
	switch f.focus {
	case focusName:
		return f.name.Focus()
	case focusDescription:
		return f.desc.Focus()
	case focusAmount:
		return f.amount.Focus()
	case focusDate:
		return f.date.Focus()
	}
	return nil
}

// update forwards non-key messages (cursor blink ticks) to the focused input.
func (f *goalForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case focusName:
		f.name, cmd = f.name.Update(msg)
	case focusDescription:
		f.desc, cmd = f.desc.Update(msg)
	case focusAmount:
		f.amount, cmd = f.amount.Update(msg)
	case focusDate:
		f.date, cmd = f.date.Update(msg)
	}
	return cmd
}

func (f *goalForm) handleKey(msg tea.KeyMsg) (formAction, tea.Cmd) {
	if f.saving {
		return formNone, nil
	}
	switch msg.String() {
	case "esc":
		return formCancelled, nil
	case "tab":
		return formNone, f.setFocus(f.focus + 1)
	case "shift+tab":
		return formNone, f.setFocus(f.focus - 1)
	case "enter":
		if err := f.validate(); err != nil {
			f.errMsg = err.Error()
			return formNone, nil
		}
		f.errMsg = ""
		return formSubmitted, nil
	}

	switch f.focus {
	case focusType:
		switch msg.String() {
		case "left", "right", " ", "space":
			if f.goalType == api.GoalSavings {
				f.goalType = api.GoalDebtPayment
			} else {
				f.goalType = api.GoalSavings
			}
		}
		return formNone, nil
	case focusAccounts:
		f.picker.HandleKey(msg.String())
		return formNone, nil
	}
	return formNone, f.update(msg)
}

func (f *goalForm) validate() error {
	if strings.TrimSpace(f.name.Value()) == "" {
		return errors.New("name is required")
	}
	if _, err := money.ParseAmountCents(f.amount.Value()); err != nil {
		return errors.New("target amount must be a positive number")
	}
	if ds := strings.TrimSpace(f.date.Value()); ds != "" {
		if _, err := time.Parse("2006-01-02", ds); err != nil {
			return errors.New("target date must be YYYY-MM-DD")
		}
	}
	return nil
}

func (f *goalForm) accountRefs() []api.GoalAccountRef {
	ids := f.picker.Selected()
	refs := make([]api.GoalAccountRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, api.GoalAccountRef{
			SimplefinAccountID:   id,
			AllocationPercentage: fullAllocation,
		})
	}
	return refs
}

// buildCreate assumes validate passed.
func (f *goalForm) buildCreate() api.GoalCreate {
	cents, _ := money.ParseAmountCents(f.amount.Value())
	in := api.GoalCreate{
		Name:         strings.TrimSpace(f.name.Value()),
		GoalType:     f.goalType,
		TargetAmount: money.Dollars(cents),
		Accounts:     f.accountRefs(),
	}
	if d := strings.TrimSpace(f.desc.Value()); d != "" {
		in.Description = &d
	}
	if ds := strings.TrimSpace(f.date.Value()); ds != "" {
		in.TargetDate = &ds
	}
	return in
}

// buildUpdate assumes validate passed. Blank optional fields stay nil, which
// the service reads as "leave unchanged".
func (f *goalForm) buildUpdate() api.GoalUpdate {
	name := strings.TrimSpace(f.name.Value())
	cents, _ := money.ParseAmountCents(f.amount.Value())
	amount := money.Dollars(cents)
	in := api.GoalUpdate{
		Name:         &name,
		TargetAmount: &amount,
		Accounts:     f.accountRefs(),
	}
	if d := strings.TrimSpace(f.desc.Value()); d != "" {
		in.Description = &d
	}
	if ds := strings.TrimSpace(f.date.Value()); ds != "" {
		in.TargetDate = &ds
	}
	return in
}

func (f *goalForm) view() string {
	var b strings.Builder
	title := "New goal"
	if f.editing != nil {
		title = "Edit goal"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(formRow("Name", f.name.View(), f.focus == focusName))
	b.WriteString(formRow("Description", f.desc.View(), f.focus == focusDescription))
	b.WriteString(formRow("Target amount", f.amount.View(), f.focus == focusAmount))
	b.WriteString(formRow("Target date", f.date.View(), f.focus == focusDate))
	b.WriteString(formRow("Type", f.typeRow(), f.focus == focusType))

	b.WriteString("\n")
	marker := "  "
	if f.focus == focusAccounts {
		marker = cursorStyle.Render("▶") + " "
	}
	b.WriteString(marker + sectionStyle.Render("Linked accounts"))
	b.WriteString("\n")
	switch {
	case f.accountsErr != "":
		b.WriteString(warnStyle.Render("  accounts unavailable: " + f.accountsErr))
		b.WriteString("\n")
	case !f.accountsLoaded:
		b.WriteString(dimStyle.Render("  loading accounts..."))
		b.WriteString("\n")
	default:
		b.WriteString(f.picker.View(f.focus == focusAccounts))
	}

	if f.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(f.errMsg))
		b.WriteString("\n")
	}
	if f.saving {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("saving..."))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[tab] next field  [space] toggle  [enter] save  [esc] cancel"))
	return modalStyle.Render(b.String())
}

func (f *goalForm) typeRow() string {
	savings := " savings "
	debt := " debt payment "
	if f.goalType == api.GoalSavings {
		savings = accentStyle.Render("[savings]")
	} else {
		debt = accentStyle.Render("[debt payment]")
	}
	return savings + " " + debt
}

func formRow(label, value string, focused bool) string {
	marker := "  "
	if focused {
		marker = cursorStyle.Render("▶") + " "
	}
	return marker + subtleStyle.Render(padLabel(label)) + " " + value + "\n"
}

func padLabel(s string) string {
	const w = 14
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

const (
	subFocusName = iota
	subFocusIcon
	subFocusBudget
	subFormFields
)

// subcategoryModal adds a budget line under one category. Field state lives
// in the headless form; the inputs here are just the typing surface.
type subcategoryModal struct {
	categoryID   string
	categoryName string
	form         *controller.SubcategoryForm

	nameInput   textinput.Model
	budgetInput textinput.Model

	focus  int
	errMsg string
}

func newSubcategoryModal(categoryID, categoryName string) *subcategoryModal {
	m := &subcategoryModal{
		categoryID:   categoryID,
		categoryName: categoryName,
		form:         controller.NewSubcategoryForm(nil),
	}

	m.nameInput = textinput.New()
	m.nameInput.Prompt = ""
	m.nameInput.Placeholder = "Security deposit"
	m.nameInput.CharLimit = 60
	m.nameInput.Width = 30

	m.budgetInput = textinput.New()
	m.budgetInput.Prompt = ""
	m.budgetInput.Placeholder = "optional"
	m.budgetInput.CharLimit = 12
	m.budgetInput.Width = 14

	m.nameInput.Focus()
	return m
}

func (m *subcategoryModal) setFocus(i int) tea.Cmd {
	m.focus = ((i % subFormFields) + subFormFields) % subFormFields
	m.nameInput.Blur()
	m.budgetInput.Blur()
	switch m.focus {
	case subFocusName:
		return m.nameInput.Focus()
	case subFocusBudget:
		return m.budgetInput.Focus()
	}
	return nil
}

func (m *subcategoryModal) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case subFocusName:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case subFocusBudget:
		m.budgetInput, cmd = m.budgetInput.Update(msg)
	}
	m.form.SetName(m.nameInput.Value())
	m.form.SetBudgetInput(m.budgetInput.Value())
	return cmd
}

// handleKey returns the submitted draft alongside the action so the caller
// never reaches into the form.
func (m *subcategoryModal) handleKey(msg tea.KeyMsg) (formAction, controller.NewSubcategory, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return formCancelled, controller.NewSubcategory{}, nil
	case "tab":
		return formNone, controller.NewSubcategory{}, m.setFocus(m.focus + 1)
	case "shift+tab":
		return formNone, controller.NewSubcategory{}, m.setFocus(m.focus - 1)
	case "enter":
		draft, ok := m.form.Submit()
		if !ok {
			if strings.TrimSpace(m.nameInput.Value()) == "" {
				m.errMsg = "name is required"
			} else {
				m.errMsg = "budget must be an amount like 25.00"
			}
			return formNone, controller.NewSubcategory{}, nil
		}
		return formSubmitted, draft, nil
	}

	if m.focus == subFocusIcon {
		switch msg.String() {
		case "left", "right", " ", "space":
			m.form.CycleIcon()
		}
		return formNone, controller.NewSubcategory{}, nil
	}
	return formNone, controller.NewSubcategory{}, m.update(msg)
}

func (m *subcategoryModal) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Add budget line"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("under " + m.categoryName))
	b.WriteString("\n\n")

	b.WriteString(formRow("Name", m.nameInput.View(), m.focus == subFocusName))
	b.WriteString(formRow("Icon", m.form.Icon()+dimStyle.Render("  (space to change)"), m.focus == subFocusIcon))
	b.WriteString(formRow("Budget", m.budgetInput.View(), m.focus == subFocusBudget))

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[tab] next field  [enter] save  [esc] cancel"))
	return modalStyle.Render(b.String())
}
