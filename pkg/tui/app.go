// Package tui provides the terminal results viewer for simulation output.
// It shows an exported results table with sortable columns and a help page.
package tui

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/tourneysim/pkg/journal"
)

const (
	pageResults = "results"
	pageHelp    = "help"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func(*App)
}

var globalKeyBindings = []KeyBinding{
	{Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Handler: (*App).Stop},
	{Key: tcell.KeyEsc, Description: "Back", Handler: (*App).back},
	{Key: tcell.KeyRune, Rune: '?', Description: "Help", Handler: (*App).showHelp},
	{Key: tcell.KeyRune, Rune: 's', Description: "Sort column", Handler: (*App).nextColumn},
	{Key: tcell.KeyRune, Rune: 'o', Description: "Sort order", Handler: (*App).toggleOrder},
}

// App is the results viewer
type App struct {
	mu       sync.Mutex
	tviewApp *tview.Application
	pages    *tview.Pages
	header   *tview.TextView
	footer   *tview.TextView
	grid     *tview.Table
	help     *HelpScreen
	view     *TableView
	title    string
	onHelp   bool
}

// NewApp builds the viewer for a table. The title is usually the file name.
func NewApp(table *journal.Table, title string) (*App, error) {
	if table == nil {
		return nil, fmt.Errorf("table cannot be nil")
	}
	a := &App{
		tviewApp: tview.NewApplication(),
		pages:    tview.NewPages(),
		header:   tview.NewTextView(),
		footer:   tview.NewTextView(),
		grid:     tview.NewTable(),
		help:     NewHelpScreen(),
		view:     NewTableView(table),
		title:    title,
	}
	a.setupUI()
	return a, nil
}

func (a *App) setupUI() {
	a.header.SetBorder(true).
		SetTitle("Tournament Simulation Results").
		SetTitleAlign(tview.AlignCenter).
		SetBackgroundColor(tcell.ColorDarkBlue)
	a.header.SetTextColor(tcell.ColorWhite)

	a.footer.SetBorder(true).
		SetTitle("Keyboard Shortcuts").
		SetTitleAlign(tview.AlignCenter).
		SetBackgroundColor(tcell.ColorDarkGreen)
	a.footer.SetTextColor(tcell.ColorWhite)
	a.footer.SetText(FooterText())

	a.grid.SetBorder(true).SetTitle(" Results ").SetTitleAlign(tview.AlignLeft)
	a.grid.SetSelectable(true, false).SetFixed(1, 0)
	a.fillGrid()
	a.updateHeader()

	a.pages.AddPage(pageResults, a.grid, true, true)
	a.pages.AddPage(pageHelp, a.help.GetPrimitive(), true, false)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 3, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.footer, 3, 0, false)
	layout.SetInputCapture(a.handleGlobalInput)

	a.tviewApp.SetRoot(layout, true)
	a.tviewApp.EnableMouse(true)
}

// fillGrid redraws every cell from the current sort state
func (a *App) fillGrid() {
	a.grid.Clear()
	col, order := a.view.SortColumn()
	for i, name := range a.view.Header() {
		label := name
		if i == col {
			label = fmt.Sprintf("%s %s", name, order)
		}
		a.grid.SetCell(0, i, tview.NewTableCell(label).
			SetTextColor(tcell.ColorYellow).
			SetAlign(tview.AlignCenter).
			SetSelectable(false).
			SetExpansion(1))
	}
	for r, row := range a.view.Rows() {
		for c, value := range row {
			a.grid.SetCell(r+1, c, tview.NewTableCell(value).SetAlign(tview.AlignRight))
		}
	}
}

func (a *App) updateHeader() {
	col, order := a.view.SortColumn()
	sorted := "file order"
	if col >= 0 {
		sorted = fmt.Sprintf("sorted by %s %s", a.view.Header()[col], order)
	}
	a.header.SetText(fmt.Sprintf("%s | %d rows | %s", a.title, a.view.Len(), sorted))
}

// Grid returns the results table primitive
func (a *App) Grid() *tview.Table {
	return a.grid
}

// View returns the sort model behind the grid
func (a *App) View() *TableView {
	return a.view
}

// Run starts the event loop and blocks until the viewer quits
func (a *App) Run() error {
	return a.tviewApp.Run()
}

// Stop ends the event loop
func (a *App) Stop() {
	a.tviewApp.Stop()
}

func (a *App) handleGlobalInput(event *tcell.EventKey) *tcell.EventKey {
	for _, binding := range globalKeyBindings {
		if (binding.Key != tcell.KeyRune && event.Key() == binding.Key) ||
			(binding.Key == tcell.KeyRune && event.Key() == tcell.KeyRune && event.Rune() == binding.Rune) {
			binding.Handler(a)
			return nil
		}
	}
	return event
}

func (a *App) showHelp() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onHelp = true
	a.pages.SwitchToPage(pageHelp)
}

// back leaves the help page, or quits from the results page
func (a *App) back() {
	a.mu.Lock()
	onHelp := a.onHelp
	a.onHelp = false
	a.mu.Unlock()

	if onHelp {
		a.pages.SwitchToPage(pageResults)
		return
	}
	a.Stop()
}

func (a *App) nextColumn() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view.NextColumn()
	a.fillGrid()
	a.updateHeader()
}

func (a *App) toggleOrder() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view.ToggleOrder()
	a.fillGrid()
	a.updateHeader()
}

// FooterText lists the global key bindings
func FooterText() string {
	text := ""
	for i, binding := range globalKeyBindings {
		if i > 0 {
			text += " | "
		}
		text += fmt.Sprintf("%s: %s", keyName(binding), binding.Description)
	}
	return text
}

func keyName(binding KeyBinding) string {
	if binding.Key != tcell.KeyRune {
		return tcell.KeyNames[binding.Key]
	}
	return string(binding.Rune)
}
