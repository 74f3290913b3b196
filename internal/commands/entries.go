package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"paytrack/internal/core"
	"paytrack/internal/log"
)

// listOutput is the JSON shape of `paytrack list`.
type listOutput struct {
	Entries []core.Entry            `json:"entries"`
	Totals  map[core.Status]float64 `json:"totals"`
}

func addList(topLevel *cobra.Command) {
	oo := &OutputOptions{}
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Example: `
paytrack list
paytrack list --status paid --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter core.Status
			if status != "" {
				st, err := core.ParseStatus(status)
				if err != nil {
					return err
				}
				filter = st
			}

			ctx := cmd.Context()
			s, err := openLoaded(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			entries := s.store.Snapshot().Entries
			if filter != "" {
				entries = core.Project(entries, filter).Entries
			}
			out := listOutput{Entries: entries, Totals: core.Totals(entries)}
			return oo.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				_, _ = fmt.Fprintln(w, entryTable(out.Entries))
				for _, st := range core.Statuses() {
					if total, ok := out.Totals[st]; ok {
						_, _ = fmt.Fprintf(w, "%s total: %s\n", statusLabel(st), core.FormatAmount(total))
					}
				}
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only show entries with this status (pending, paid, debit).")
	addOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}

func addAdd(topLevel *cobra.Command) {
	oo := &OutputOptions{}
	var status string

	cmd := &cobra.Command{
		Use:   "add NAME AMOUNT",
		Short: "Record a new entry",
		Example: `
paytrack add Asha 150.00
paytrack add "Car loan" 320,50 --status debit
# "--" ends flag parsing, so a leading dash reaches the validator
paytrack add -- -Misc 12.50
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := core.ParseStatus(status)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := openSession(ctx, log.ComponentApp, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			created, ok, err := s.store.Add(ctx, args[0], args[1], st)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("invalid entry: name must not be blank and amount must be a non-negative number, got %q", args[1])
			}
			return oo.print(cmd.OutOrStdout(), created, func(w io.Writer) {
				printEntry(w, "added", created)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", core.Pending.String(), "Status of the new entry (pending, paid, debit).")
	addOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}

func addPay(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "pay ID",
		Short: "Mark a pending entry as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openLoaded(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ok, err := s.store.MarkPaid(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no payable entry with id %s", args[0])
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "paid %s\n", args[0])
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addRm(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete an entry",
		Long:  "Delete an entry. The command line has no undo window; use the HTTP API for undoable deletes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openLoaded(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.store.RequestDelete(args[0]) {
				return fmt.Errorf("no entry with id %s", args[0])
			}
			if _, err := s.store.ConfirmDelete(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
