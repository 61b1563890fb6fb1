package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/nestegg-app/nestegg/internal/api"
	"github.com/nestegg-app/nestegg/internal/controller"
	"github.com/nestegg-app/nestegg/internal/money"
)

func (a *App) View() string {
	var body string
	switch a.screen {
	case screenOnboarding:
		body = a.viewOnboarding()
	case screenSeeding:
		body = a.viewSeeding()
	case screenGoals:
		body = a.viewGoals()
	case screenBudget:
		body = a.viewBudget()
	}
	if a.modal != modalNone {
		body += "\n" + a.viewModal()
	}
	if a.status != "" {
		body += "\n" + subtleStyle.Render(a.status)
	}
	return body + "\n"
}

func (a *App) viewOnboarding() string {
	snap := a.deps.Wizard.Snapshot()
	var b strings.Builder
	b.WriteString(titleStyle.Render("nestegg"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("first-run setup"))
	b.WriteString("\n\n")

	if snap.Step == controller.StepBudget {
		b.WriteString(sectionStyle.Render("Step 1 of 2 · monthly budget"))
		b.WriteString("\n\n")
		b.WriteString("How much do you plan to spend per month?\n\n")
		b.WriteString("  " + a.cfg.UI.CurrencySymbol + " " + a.budgetInput.View())
		b.WriteString("\n\n")
		if strings.TrimSpace(snap.BudgetInput) != "" && !snap.CanComplete {
			b.WriteString(warnStyle.Render("enter an amount like 2500.00"))
			b.WriteString("\n\n")
		}
		b.WriteString(helpStyle.Render("[enter] continue  [ctrl+c] quit"))
		return b.String()
	}

	b.WriteString(sectionStyle.Render("Step 2 of 2 · accounts to track"))
	b.WriteString("\n\n")
	switch {
	case snap.AccountsLoading:
		b.WriteString(a.spin.View() + " loading linked accounts...")
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("[esc] back"))
		return b.String()
	case snap.AccountsErr != "":
		b.WriteString(warnStyle.Render("could not load accounts: " + snap.AccountsErr))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("you can finish setup anyway; every account will be tracked"))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("[r] retry  [enter] finish  [esc] back"))
		return b.String()
	case snap.AccountsLoaded && len(snap.Accounts) == 0:
		b.WriteString(dimStyle.Render("no linked accounts yet"))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("[enter] finish  [esc] back"))
		return b.String()
	}

	b.WriteString("Pick the accounts to track. Leaving all unchecked tracks everything.\n\n")
	if a.accountPicker != nil {
		b.WriteString(a.accountPicker.View(true))
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d selected", a.accountPicker.SelectedCount())))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[space] toggle  [ctrl+a] all  [enter] finish  [esc] back"))
	return b.String()
}

func (a *App) viewSeeding() string {
	snap := a.deps.Seeder.Snapshot()
	var b strings.Builder
	b.WriteString(titleStyle.Render("nestegg"))
	b.WriteString("\n\n")
	switch {
	case snap.Loading:
		b.WriteString(a.spin.View() + " setting up your categories...")
		b.WriteString("\n")
	case snap.Err != "":
		b.WriteString(bannerStyle.Render("setup failed: " + snap.Err))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("[r] retry  [esc] back"))
	case snap.Result != nil:
		r := snap.Result
		b.WriteString(successStyle.Render("You're set up!"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("  %d categories with %d budget lines\n",
			r.CategoriesCreated, r.SubcategoriesCreated))
		if r.BudgetsCreated > 0 {
			b.WriteString(fmt.Sprintf("  %s%s a month, %s%s per spending category\n",
				a.cfg.UI.CurrencySymbol, formatAmount(r.MonthlyBudget),
				a.cfg.UI.CurrencySymbol, formatAmount(r.BudgetPerCategory)))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("[enter] go to goals"))
	}
	return b.String()
}

func (a *App) viewGoals() string {
	snap := a.deps.Goals.Snapshot()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Goals"))
	if snap.Loading && snap.LoadedOnce {
		b.WriteString("  " + a.spin.View())
	}
	b.WriteString("\n\n")

	if snap.Err != "" && len(snap.Goals) > 0 {
		b.WriteString(bannerStyle.Render(snap.Err + "  (esc to dismiss)"))
		b.WriteString("\n\n")
	}

	switch snap.Phase() {
	case controller.PhaseLoading:
		b.WriteString(a.spin.View() + " loading goals...")
		b.WriteString("\n")
	case controller.PhaseError:
		b.WriteString(errorStyle.Render(snap.Err))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("[r] retry  [q] quit"))
		return b.String()
	case controller.PhaseEmpty:
		b.WriteString(dimStyle.Render("No goals yet. Press n to create one."))
		b.WriteString("\n")
	default:
		cursor := a.goalCursor
		if cursor >= len(snap.Goals) {
			cursor = len(snap.Goals) - 1
		}
		for i, g := range snap.Goals {
			b.WriteString(a.renderGoal(g, i == cursor && a.modal == modalNone))
		}
	}
	b.WriteString("\n")
	b.WriteString(renderKeyHelp(a.keys.goalsHelp()))
	return b.String()
}

func (a *App) renderGoal(g api.Goal, selected bool) string {
	marker := "  "
	if selected {
		marker = cursorStyle.Render("▶") + " "
	}
	name := g.Name
	if g.Done() {
		name = doneStyle.Render(name) + " " + successStyle.Render("✓")
	}
	badge := badgeStyle.Render("savings")
	if g.GoalType == api.GoalDebtPayment {
		badge = badgeStyle.Render("debt")
	}
	line := marker + name + "  " + badge
	if g.TargetDate != nil && *g.TargetDate != "" {
		line += "  " + dimStyle.Render("by "+a.formatDate(*g.TargetDate))
	}

	amounts := fmt.Sprintf("%s%s of %s%s",
		a.cfg.UI.CurrencySymbol, formatAmount(g.CurrentAmount),
		a.cfg.UI.CurrencySymbol, formatAmount(g.TargetAmount))
	bar := "  " + a.bar.ViewAs(g.Progress()/100) + "  " + subtleStyle.Render(amounts)

	out := line + "\n" + bar + "\n"
	if len(g.Accounts) > 0 {
		names := make([]string, 0, len(g.Accounts))
		for _, ga := range g.Accounts {
			names = append(names, ga.AccountName)
		}
		out += "  " + dimStyle.Render("funded by "+strings.Join(names, ", ")) + "\n"
	}
	return out + "\n"
}

func (a *App) viewBudget() string {
	snap := a.deps.Budget.Snapshot()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Budget"))
	if snap.Loading && snap.LoadedOnce {
		b.WriteString("  " + a.spin.View())
	}
	b.WriteString("\n\n")

	if snap.Err != "" && len(snap.Categories) > 0 {
		b.WriteString(bannerStyle.Render(snap.Err + "  (esc to dismiss)"))
		b.WriteString("\n\n")
	}

	switch snap.Phase() {
	case controller.PhaseLoading:
		b.WriteString(a.spin.View() + " loading categories...")
		b.WriteString("\n")
	case controller.PhaseError:
		b.WriteString(errorStyle.Render(snap.Err))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("[r] retry  [g] goals  [q] quit"))
		return b.String()
	case controller.PhaseEmpty:
		b.WriteString(dimStyle.Render("No categories yet."))
		b.WriteString("\n")
	default:
		cursor := a.budgetCursor
		if cursor >= len(snap.Categories) {
			cursor = len(snap.Categories) - 1
		}
		for i, c := range snap.Categories {
			selected := i == cursor && a.modal == modalNone
			b.WriteString(renderCategory(c, snap.Drafts[c.ID], selected, snap.Saving))
		}
	}
	b.WriteString("\n")
	b.WriteString(renderKeyHelp(a.keys.budgetHelp()))
	return b.String()
}

// renderCategory shows one tree row; only the selected category expands, so
// the default template's hundred-plus budget lines never flood the screen.
func renderCategory(c api.Category, drafts []controller.NewSubcategory, selected, saving bool) string {
	marker := "  "
	if selected {
		marker = cursorStyle.Render("▶") + " "
	}
	icon := ""
	if c.Icon != nil && *c.Icon != "" {
		icon = *c.Icon + " "
	}
	count := len(c.Subcategories) + len(drafts)
	header := marker + sectionStyle.Render(icon+c.Name)
	if !selected {
		header += "  " + dimStyle.Render(fmt.Sprintf("(%d)", count))
	}
	out := header + "\n"
	if !selected {
		return out
	}

	for _, s := range c.Subcategories {
		si := ""
		if s.Icon != nil && *s.Icon != "" {
			si = *s.Icon + " "
		}
		out += "      " + si + s.Name + "\n"
	}
	for _, d := range drafts {
		row := "      " + d.Icon + " " + d.Name
		if saving {
			row += "  " + dimStyle.Render("(saving...)")
		}
		out += row + "\n"
	}
	if count == 0 {
		out += "      " + dimStyle.Render("no budget lines") + "\n"
	}
	return out
}

func (a *App) viewModal() string {
	switch a.modal {
	case modalGoalForm:
		if a.goalForm != nil {
			return a.goalForm.view()
		}
	case modalSubcategory:
		if a.subModal != nil {
			return a.subModal.view()
		}
	case modalConfirmDelete:
		if a.deleteGoal != nil {
			var b strings.Builder
			b.WriteString(titleStyle.Render("Delete goal"))
			b.WriteString("\n\n")
			b.WriteString("Delete " + accentStyle.Render(a.deleteGoal.Name) + "? This cannot be undone.")
			b.WriteString("\n\n")
			b.WriteString(helpStyle.Render("[y] delete  [n] keep"))
			return modalStyle.Render(b.String())
		}
	}
	return ""
}

func (a *App) formatDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	format := a.cfg.UI.DateFormat
	if format == "" {
		format = "02/01/2006"
	}
	return t.Format(format)
}

// formatAmount renders a wire dollar value for display, "4,280.12".
func formatAmount(v float64) string {
	s := money.FormatAmount(v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	if len(intPart) > 3 {
		var parts []string
		for len(intPart) > 3 {
			parts = append([]string{intPart[len(intPart)-3:]}, parts...)
			intPart = intPart[:len(intPart)-3]
		}
		parts = append([]string{intPart}, parts...)
		intPart = strings.Join(parts, ",")
	}
	if neg {
		return "-" + intPart + frac
	}
	return intPart + frac
}
