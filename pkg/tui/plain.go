package tui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pashagolub/tourneysim/pkg/journal"
)

// RenderPlain writes the table as aligned columns. Used when the output is not
// a terminal.
func RenderPlain(w io.Writer, table *journal.Table) error {
	if table == nil {
		return fmt.Errorf("table cannot be nil")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(tw, strings.Join(table.Header, "\t")+"\t"); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")+"\t"); err != nil {
			return err
		}
	}
	return tw.Flush()
}
