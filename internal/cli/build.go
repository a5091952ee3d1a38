package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/joinery/internal/compiler"
	"github.com/roach88/joinery/internal/ir"
	"github.com/roach88/joinery/internal/querysql"
	"github.com/roach88/joinery/internal/schema"
	"github.com/roach88/joinery/internal/store"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Schema      string
	Dialect     string
	Placeholder string
	Literal     bool
	Save        bool
	Catalog     string
}

// BuiltQuery is the output for one query.
type BuiltQuery struct {
	Name        string            `json:"name"`
	SQL         string            `json:"sql"`
	Params      map[string]string `json:"params,omitempty"`
	Args        []string          `json:"args,omitempty"`
	Unbound     []string          `json:"unbound,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Source      string            `json:"source,omitempty"`
	SavedID     string            `json:"saved_id,omitempty"`
}

// BuildResult is the output of the build command.
type BuildResult struct {
	Dialect string       `json:"dialect"`
	Queries []BuiltQuery `json:"queries"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <queries.yaml> [query...]",
		Short: "Build SQL statements from a query document",
		Long: `Build every query of a query document against a CUE schema.

Queries are built in document order so registered views are visible to
the queries after them. Naming queries limits the output to those queries.

By default conditions render as placeholders and the output maps each
placeholder to the attribute it filters. --literal inlines values instead
and fails on conditions without values.

Examples:
  joinery build queries.yaml --schema ./schema
  joinery build queries.yaml titles --dialect postgres
  joinery build queries.yaml --literal
  joinery build queries.yaml --save --catalog joinery.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema file or directory (default from config)")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "SQL dialect: "+fmt.Sprint(querysql.DialectNames()))
	cmd.Flags().StringVar(&opts.Placeholder, "placeholder", "", "placeholder format (question|dollar|colon|atp)")
	cmd.Flags().BoolVar(&opts.Literal, "literal", false, "inline condition values instead of placeholders")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "record built statements in the catalog")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "statement catalog path (default from config)")

	return cmd
}

func runBuild(opts *BuildOptions, docPath string, only []string, cmd *cobra.Command) error {
	p := opts.printer(cmd)
	cfg := opts.config()

	built, err := compileDocument(p, cfg, docTarget{
		Doc:         docPath,
		Only:        only,
		Schema:      opts.Schema,
		Dialect:     opts.Dialect,
		Placeholder: opts.Placeholder,
	})
	if err != nil {
		return err
	}

	result := BuildResult{Dialect: built.Dialect.Name, Queries: []BuiltQuery{}}
	for _, c := range built.Selected {
		bq, err := describeCompiled(c, opts.Literal)
		if err != nil {
			return outputBuildFailure(p, err)
		}
		result.Queries = append(result.Queries, bq)
	}

	if opts.Save {
		if err := saveCompiled(cmd.Context(), cfg.ResolvedCatalog(opts.Catalog), built.Selected, &result); err != nil {
			return outputCommandError(p, ErrCodeCatalog, err.Error())
		}
	}

	if p.JSON {
		return p.OK(result)
	}
	printBuildText(p, result)
	return nil
}

// docTarget names a query document and the flags that shape its build.
type docTarget struct {
	Doc         string
	Only        []string
	Schema      string
	Dialect     string
	Placeholder string
}

// builtDocument is a compiled query document.
type builtDocument struct {
	Schema   *schema.Schema
	Dialect  querysql.Dialect
	Compiled []*compiler.Compiled

	// Selected holds the queries named on the command line, or all of them.
	Selected []*compiler.Compiled
}

// compileDocument loads the schema and the document and builds every query.
// Failures are printed through p and returned as ExitErrors.
func compileDocument(p *Printer, cfg *Config, target docTarget) (*builtDocument, error) {
	schemaPath := cfg.ResolvedSchema(target.Schema)
	s, err := loadSchema(schemaPath)
	if err != nil {
		code, msg := loadErrorCode(err)
		return nil, outputCommandError(p, code, msg)
	}
	p.Notef("Loaded schema from %s (%d views)", schemaPath, len(s.Views()))

	doc, err := loadDocument(target.Doc)
	if err != nil {
		code, msg := loadErrorCode(err)
		return nil, outputCommandError(p, code, msg)
	}

	// A dialect pinned by the document beats the configured default.
	dialectName := target.Dialect
	if dialectName == "" {
		dialectName = doc.Dialect
	}
	dialect, err := cfg.ResolvedDialect(dialectName, target.Placeholder)
	if err != nil {
		return nil, outputCommandError(p, ErrCodeInvalidOption, err.Error())
	}

	for _, name := range target.Only {
		if _, ok := doc.Query(name); !ok {
			return nil, outputCommandError(p, ErrCodeInvalidOption, fmt.Sprintf("query %q is not defined in %s", name, target.Doc))
		}
	}

	compiled, err := compiler.CompileQueries(s, doc, querysql.WithDialect(dialect))
	if err != nil {
		return nil, outputBuildFailure(p, err)
	}
	p.Notef("Built %d quer(ies) for dialect %s", len(compiled), dialect.Name)

	return &builtDocument{
		Schema:   s,
		Dialect:  dialect,
		Compiled: compiled,
		Selected: selectCompiled(compiled, target.Only),
	}, nil
}

// selectCompiled keeps the named queries, in document order. No names keeps all.
func selectCompiled(compiled []*compiler.Compiled, only []string) []*compiler.Compiled {
	if len(only) == 0 {
		return compiled
	}
	want := make(map[string]bool, len(only))
	for _, name := range only {
		want[name] = true
	}
	out := make([]*compiler.Compiled, 0, len(only))
	for _, c := range compiled {
		if want[c.Name] {
			out = append(out, c)
		}
	}
	return out
}

func describeCompiled(c *compiler.Compiled, literal bool) (BuiltQuery, error) {
	bq := BuiltQuery{Name: c.Name}
	if c.View != nil {
		bq.Source = c.View.Query()
	}

	if literal {
		sql, err := c.Builder.Literal()
		if err != nil {
			return bq, &compiler.CompileError{Field: c.Name, Message: err.Error(), Err: err}
		}
		bq.SQL = sql
		return bq, nil
	}

	st := c.Statement
	bq.SQL = st.SQL
	bq.Unbound = st.Unbound()
	if len(st.Names) > 0 {
		bq.Params = make(map[string]string, len(st.Names))
		for _, name := range st.Names {
			bq.Params[name] = st.Params[name].String()
		}
		bq.Args = make([]string, len(st.Args))
		for i, v := range st.Args {
			if v == nil {
				bq.Args[i] = "?"
				continue
			}
			bq.Args[i] = ir.Display(v)
		}
	}
	fp, err := st.Fingerprint()
	if err != nil {
		return bq, err
	}
	bq.Fingerprint = fp
	return bq, nil
}

// saveCompiled records the built statements in the catalog at path and
// fills in their saved ids.
func saveCompiled(ctx context.Context, path string, compiled []*compiler.Compiled, result *BuildResult) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	ids := make(map[string]string, len(compiled))
	for _, c := range compiled {
		rec, _, err := st.Save(ctx, c.Name, c.Statement)
		if err != nil {
			return fmt.Errorf("save %s: %w", c.Name, err)
		}
		ids[c.Name] = rec.ID
	}
	for i := range result.Queries {
		result.Queries[i].SavedID = ids[result.Queries[i].Name]
	}
	return nil
}

func printBuildText(p *Printer, result BuildResult) {
	w := p.Out
	for i, q := range result.Queries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "-- %s\n", q.Name)
		fmt.Fprintf(w, "%s;\n", q.SQL)

		// Placeholders are named p1, p2, ... in statement order.
		for j, arg := range q.Args {
			name := fmt.Sprintf("p%d", j+1)
			fmt.Fprintf(w, "--   %s: %s = %s\n", name, q.Params[name], arg)
		}
		if q.SavedID != "" {
			fmt.Fprintf(w, "--   saved as %s\n", q.SavedID)
		}
	}
}

// outputBuildFailure reports a query that could not be built.
func outputBuildFailure(p *Printer, err error) error {
	code := MapBuildErrorToCode(err)
	_ = p.Fail(code, err.Error(), nil)
	// An invalid query is a validation failure (exit code 1)
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", code, err.Error()))
}

// outputCommandError reports a command-level error (exit code 2).
func outputCommandError(p *Printer, code, message string) error {
	_ = p.Fail(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
