package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Catalog string
	Delete  string
}

// HistoryEntry is one catalogued statement.
type HistoryEntry struct {
	ID          string            `json:"id"`
	Seq         int64             `json:"seq"`
	Name        string            `json:"name"`
	Dialect     string            `json:"dialect"`
	SQL         string            `json:"sql"`
	Args        []string          `json:"args,omitempty"`
	Unbound     []string          `json:"unbound,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
	Fingerprint string            `json:"fingerprint"`
	ToolVersion string            `json:"tool_version"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [query]",
		Short: "List statements recorded with build --save",
		Long: `List the statements in the catalog, oldest first.

Naming a query lists only its statements. --delete removes one record by id.

Examples:
  joinery history
  joinery history titles --catalog joinery.db
  joinery history --delete 0b4f...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runHistory(opts, name, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "statement catalog path (default from config)")
	cmd.Flags().StringVar(&opts.Delete, "delete", "", "delete the record with this id")

	return cmd
}

func runHistory(opts *HistoryOptions, name string, cmd *cobra.Command) error {
	p := opts.printer(cmd)
	path := opts.config().ResolvedCatalog(opts.Catalog)

	// Listing never creates a catalog.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return outputCommandError(p, ErrCodeNotFound, fmt.Sprintf("catalog not found: %s", path))
	}

	st, err := store.Open(path)
	if err != nil {
		return outputCommandError(p, ErrCodeCatalog, err.Error())
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Delete != "" {
		return deleteRecord(ctx, p, st, opts.Delete)
	}

	records, err := st.List(ctx, name)
	if err != nil {
		return outputCommandError(p, ErrCodeCatalog, err.Error())
	}
	p.Notef("Read %d record(s) from %s", len(records), path)

	entries := make([]HistoryEntry, len(records))
	for i := range records {
		entries[i] = historyEntry(&records[i])
	}

	if p.JSON {
		return p.OK(entries)
	}

	w := p.Out
	if len(entries) == 0 {
		fmt.Fprintln(w, "No statements recorded.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%d  %s  %s  [%s]\n", e.Seq, e.ID, e.Name, e.Dialect)
		fmt.Fprintf(w, "    %s\n", e.SQL)
		if len(e.Unbound) > 0 {
			fmt.Fprintf(w, "    unbound: %v\n", e.Unbound)
		}
	}
	return nil
}

func deleteRecord(ctx context.Context, p *Printer, st *store.Store, id string) error {
	if err := st.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return outputCommandError(p, ErrCodeNotFound, fmt.Sprintf("no statement with id %s", id))
		}
		return outputCommandError(p, ErrCodeCatalog, err.Error())
	}
	if p.JSON {
		return p.OK(map[string]string{"deleted": id})
	}
	p.Textf("✓ Deleted %s\n", id)
	return nil
}

func historyEntry(rec *store.Record) HistoryEntry {
	e := HistoryEntry{
		ID:          rec.ID,
		Seq:         rec.Seq,
		Name:        rec.Name,
		Dialect:     rec.Dialect,
		SQL:         rec.SQL,
		Unbound:     rec.Unbound,
		Params:      rec.Params,
		Fingerprint: rec.Fingerprint,
		ToolVersion: rec.ToolVersion,
	}
	if len(rec.Args) > 0 {
		e.Args = make([]string, len(rec.Args))
		for i, v := range rec.Args {
			if v == nil {
				e.Args[i] = "?"
				continue
			}
			e.Args[i] = ir.Display(v)
		}
	}
	return e
}
