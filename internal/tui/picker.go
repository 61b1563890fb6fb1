package tui

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// pickerItem is one selectable row. ID is the stable identifier reported
// back to the caller; Section groups adjacent rows under a header.
type pickerItem struct {
	ID      string
	Label   string
	Section string
	Meta    string
}

type pickerAction int

const (
	pickerNone pickerAction = iota
	pickerMoved
	pickerToggled
	pickerSubmitted
	pickerCancelled
)

type pickerResult struct {
	Action      pickerAction
	ItemID      string
	SelectedIDs []string
}

// pickerState is a filterable multi-select list. Printable keys narrow the
// rows, space toggles the row under the cursor, enter reports the selection.
type pickerState struct {
	title    string
	items    []pickerItem
	filtered []int
	query    string
	cursor   int
	selected map[string]bool
}

func newPicker(title string, items []pickerItem) *pickerState {
	p := &pickerState{title: title, selected: make(map[string]bool)}
	p.SetItems(items)
	return p
}

// SetItems replaces the rows, keeping the current query and any selections
// that still resolve to a known ID.
func (p *pickerState) SetItems(items []pickerItem) {
	p.items = items
	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}
	for id := range p.selected {
		if !known[id] {
			delete(p.selected, id)
		}
	}
	p.refilter()
}

func (p *pickerState) SetSelected(ids []string) {
	p.selected = make(map[string]bool, len(ids))
	for _, id := range ids {
		p.selected[id] = true
	}
}

// Selected returns selected IDs in row order, not toggle order.
func (p *pickerState) Selected() []string {
	out := make([]string, 0, len(p.selected))
	for _, it := range p.items {
		if p.selected[it.ID] {
			out = append(out, it.ID)
		}
	}
	return out
}

func (p *pickerState) SelectedCount() int {
	return len(p.selected)
}

func (p *pickerState) CurrentItem() (pickerItem, bool) {
	if len(p.filtered) == 0 || p.cursor >= len(p.filtered) {
		return pickerItem{}, false
	}
	return p.items[p.filtered[p.cursor]], true
}

func (p *pickerState) Toggle() string {
	it, ok := p.CurrentItem()
	if !ok {
		return ""
	}
	if p.selected[it.ID] {
		delete(p.selected, it.ID)
	} else {
		p.selected[it.ID] = true
	}
	return it.ID
}

func (p *pickerState) HandleKey(k string) pickerResult {
	switch k {
	case "up", "ctrl+p":
		if p.cursor > 0 {
			p.cursor--
		}
		return pickerResult{Action: pickerMoved}
	case "down", "ctrl+n":
		if p.cursor < len(p.filtered)-1 {
			p.cursor++
		}
		return pickerResult{Action: pickerMoved}
	case "enter":
		return pickerResult{Action: pickerSubmitted, SelectedIDs: p.Selected()}
	case "esc":
		return pickerResult{Action: pickerCancelled}
	case "backspace":
		if p.query != "" {
			r := []rune(p.query)
			p.query = string(r[:len(r)-1])
			p.refilter()
		}
		return pickerResult{Action: pickerNone}
	case " ", "space":
		id := p.Toggle()
		if id == "" {
			return pickerResult{Action: pickerNone}
		}
		return pickerResult{Action: pickerToggled, ItemID: id}
	}
	if isPrintableKey(k) {
		p.query += k
		p.refilter()
	}
	return pickerResult{Action: pickerNone}
}

func isPrintableKey(k string) bool {
	return len(k) == 1 && k[0] >= 32 && k[0] <= 126
}

// maxFuzzyDistance bounds the edit distance for near-miss matches.
const maxFuzzyDistance = 2

// refilter ranks substring matches first in row order, then near misses by
// per-word edit distance. Short queries skip the fuzzy pass, everything is
// a near miss of "ch".
func (p *pickerState) refilter() {
	q := strings.ToLower(strings.TrimSpace(p.query))
	if q == "" {
		p.filtered = make([]int, 0, len(p.items))
		for i := range p.items {
			p.filtered = append(p.filtered, i)
		}
		p.clampCursor()
		return
	}

	var exact []int
	type nearMiss struct {
		index int
		dist  int
	}
	var near []nearMiss
	for i, it := range p.items {
		label := strings.ToLower(it.Label)
		if strings.Contains(label, q) {
			exact = append(exact, i)
			continue
		}
		if len(q) < 3 {
			continue
		}
		best := -1
		for _, w := range strings.Fields(label) {
			d := levenshtein.ComputeDistance(q, w)
			if best == -1 || d < best {
				best = d
			}
		}
		if best >= 0 && best <= maxFuzzyDistance {
			near = append(near, nearMiss{index: i, dist: best})
		}
	}
	sort.SliceStable(near, func(a, b int) bool { return near[a].dist < near[b].dist })

	p.filtered = exact
	for _, h := range near {
		p.filtered = append(p.filtered, h.index)
	}
	p.clampCursor()
}

func (p *pickerState) clampCursor() {
	if p.cursor >= len(p.filtered) {
		p.cursor = len(p.filtered) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// View renders the picker. When active is false the row cursor and query
// caret are hidden so the widget reads as a static summary.
func (p *pickerState) View(active bool) string {
	var b strings.Builder
	if p.title != "" {
		b.WriteString(sectionStyle.Render(p.title))
		b.WriteString("\n")
	}
	filter := dimStyle.Render("filter: ") + p.query
	if active {
		filter += accentStyle.Render("▌")
	}
	b.WriteString(filter)
	b.WriteString("\n")

	if len(p.filtered) == 0 {
		b.WriteString(dimStyle.Render("  no matches"))
		b.WriteString("\n")
		return b.String()
	}

	lastSection := ""
	for fi, idx := range p.filtered {
		it := p.items[idx]
		if it.Section != "" && it.Section != lastSection {
			b.WriteString(subtleStyle.Render(it.Section))
			b.WriteString("\n")
			lastSection = it.Section
		}
		cursor := "  "
		if active && fi == p.cursor {
			cursor = cursorStyle.Render("▶") + " "
		}
		mark := "[ ]"
		if p.selected[it.ID] {
			mark = accentStyle.Render("[x]")
		}
		line := cursor + mark + " " + it.Label
		if it.Meta != "" {
			line += "  " + dimStyle.Render(it.Meta)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
