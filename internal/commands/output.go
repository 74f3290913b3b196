package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"paytrack/internal/core"
)

// OutputOptions selects between the table and JSON renderings.
type OutputOptions struct {
	JSON bool
}

func addOutputArg(cmd *cobra.Command, oo *OutputOptions) {
	cmd.Flags().BoolVar(&oo.JSON, "json", false, "Output as JSON.")
}

func (o *OutputOptions) print(w io.Writer, v any, table func(io.Writer)) error {
	if o.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	table(w)
	return nil
}

var statusColors = map[core.Status]*color.Color{
	core.Pending: color.New(color.FgYellow),
	core.Paid:    color.New(color.FgGreen),
	core.Debit:   color.New(color.FgRed),
}

func statusLabel(s core.Status) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s.String())
	}
	return s.String()
}

func entryTable(entries []core.Entry) *uitable.Table {
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("NAME"), bold.Sprint("AMOUNT"), bold.Sprint("STATUS"), bold.Sprint("CREATED"))
	for _, e := range entries {
		tbl.AddRow(e.ID, e.Name, core.FormatAmount(e.Amount), statusLabel(e.Status), e.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tbl
}

func printEntry(w io.Writer, verb string, e core.Entry) {
	_, _ = fmt.Fprintf(w, "%s %s %q %s (%s)\n", verb, e.ID, e.Name, core.FormatAmount(e.Amount), statusLabel(e.Status))
}
