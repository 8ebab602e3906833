package tui

import (
	"strings"

	"github.com/rivo/tview"
)

// HelpScreen shows keyboard shortcuts and the meaning of the result columns
type HelpScreen struct {
	root     *tview.Flex
	textView *tview.TextView
}

// NewHelpScreen creates a new help screen
func NewHelpScreen() *HelpScreen {
	hs := &HelpScreen{
		root:     tview.NewFlex(),
		textView: tview.NewTextView(),
	}
	hs.textView.
		SetBorder(true).
		SetTitle("Help").
		SetTitleAlign(tview.AlignCenter)
	hs.textView.SetWrap(true).
		SetDynamicColors(true).
		SetScrollable(true)
	hs.textView.SetText(HelpText())
	hs.root.AddItem(hs.textView, 0, 1, true)
	return hs
}

// GetPrimitive returns the root primitive for this screen
func (hs *HelpScreen) GetPrimitive() tview.Primitive {
	return hs.root
}

var columnHelp = [][2]string{
	{"kendall", "rank correlation between the rating order and the final standings"},
	{"weighted_kendall", "the same correlation with top positions weighted"},
	{"matches", "three-way matches played"},
	{"ties", "participants whose score tuple is not unique"},
	{"discordant", "competitor pairs ordered differently by the two rankings"},
	{"duplicate_matchups", "repeated plays of an already seen matchup"},
	{"rounds", "single rounds resolved across all matches"},
	{"winner_predicted", "whether the top-rated competitor won"},
}

// HelpText renders the help page content
func HelpText() string {
	var content strings.Builder

	content.WriteString("[yellow]Tournament Simulation Results[-]\n\n")
	content.WriteString("Each row is one simulated tournament. The columns compare the order\n")
	content.WriteString("implied by skill ratings with the standings the format produced.\n\n")

	content.WriteString("[green]Keyboard Shortcuts[-]\n")
	for _, binding := range globalKeyBindings {
		content.WriteString("[white]")
		content.WriteString(keyName(binding))
		content.WriteString("[-]  - ")
		content.WriteString(binding.Description)
		content.WriteString("\n")
	}

	content.WriteString("\n[green]Columns[-]\n")
	for _, c := range columnHelp {
		content.WriteString("[white]")
		content.WriteString(c[0])
		content.WriteString("[-]  - ")
		content.WriteString(c[1])
		content.WriteString("\n")
	}
	return content.String()
}
