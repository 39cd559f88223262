package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/query"
)

func (a *app) viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view [range]",
		Short: "Show evaluated values of the sheet or a range",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.sheet.View(optionalArg(args))
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(view)
			}
			a.printView(view)
			return nil
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get CELL",
		Short: "Show the raw and evaluated content of a cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.sheet.Get(args[0])
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(info)
			}
			if info.Formula {
				fmt.Fprintf(a.stdout, "%s = %s (%s)\n", info.Ref, info.Value, info.Raw)
			} else {
				fmt.Fprintf(a.stdout, "%s = %s\n", info.Ref, info.Value)
			}
			return nil
		},
	}
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set CELL VALUE",
		Short: "Store a literal or =formula in a cell",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sheet.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Set %s\n", strings.ToUpper(args[0]))
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add COLUMN=VALUE...",
		Short: "Write a row into the first empty row or a new one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(args)
			if err != nil {
				return err
			}
			row, err := a.sheet.Add(values)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Added row %d\n", row)
			return nil
		},
	}
}

func (a *app) pushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push VALUE...",
		Short: "Append a positional row at the end",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := a.sheet.Push(args)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Pushed row %d\n", row)
			return nil
		},
	}
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ROW",
		Short: "Delete a 1-based data row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseInt("row", args[0])
			if err != nil {
				return err
			}
			if err := a.sheet.Remove(row); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Removed row %d\n", row)
			return nil
		},
	}
}

func (a *app) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update ROW COLUMN=VALUE...",
		Short: "Change fields of a 1-based data row",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseInt("row", args[0])
			if err != nil {
				return err
			}
			values, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			changes, err := a.sheet.Update(row, values)
			if err != nil {
				return err
			}
			for _, c := range changes {
				fmt.Fprintln(a.stdout, c)
			}
			return nil
		},
	}
}

func (a *app) queryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   `query "COLUMN OP VALUE"`,
		Short: "Filter rows with a condition (= != > < >= <= contains)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.sheet.Query(args[0], limit)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(records)
			}
			headers, err := a.headers()
			if err != nil {
				return err
			}
			a.printRecords(headers, records)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of rows (0 for all)")
	return cmd
}

func (a *app) sqlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sql QUERY",
		Short: `Run SQL against the evaluated sheet as table "data"`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.sheet.SQL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(res.Rows)
			}
			a.printResult(res)
			return nil
		},
	}
}

func (a *app) sortCmd() *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:   "sort COLUMN",
		Short: "Sort rows by the evaluated value of a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sheet.Sort(args[0], order); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Sorted by %s (%s)\n", args[0], order)
			return nil
		},
	}
	cmd.Flags().StringVarP(&order, "order", "o", "asc", "Sort order: asc, desc")
	return cmd
}

func (a *app) fillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fill RANGE PATTERN",
		Short: "Cycle a comma-separated pattern across a range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.sheet.Fill(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Filled %d cells\n", n)
			return nil
		},
	}
}

func (a *app) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Describe columns, dimensions and file size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := a.sheet.Schema()
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(schema)
			}
			a.printSchema(schema)
			return nil
		},
	}
}

func (a *app) resizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resize ROWS COLS",
		Short: "Grow or truncate the sheet (truncation discards data)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := parseInt("rows", args[0])
			if err != nil {
				return err
			}
			cols, err := parseInt("cols", args[1])
			if err != nil {
				return err
			}
			if err := a.sheet.Resize(rows, cols); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Resized to %d rows x %d columns\n", rows, cols)
			return nil
		},
	}
}

func (a *app) ingestCmd() *cobra.Command {
	var xlsx, sheetName string
	cmd := &cobra.Command{
		Use:   "ingest [FILE]",
		Short: "Replace the sheet with CSV text from FILE or stdin, or with an xlsx worksheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if xlsx != "" {
				if err := a.sheet.IngestXLSX(xlsx, sheetName); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Ingested %s\n", xlsx)
				return nil
			}
			var r io.Reader = a.stdin
			if src := optionalArg(args); src != "" && src != "-" {
				f, err := os.Open(src)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			if err := a.sheet.Ingest(string(data)); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Ingested")
			return nil
		},
	}
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "Read from an xlsx workbook instead of CSV")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet name for --xlsx (default: first)")
	return cmd
}

func (a *app) dumpCmd() *cobra.Command {
	var xlsx string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the sheet as CSV with formula text, or write evaluated values to xlsx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if xlsx != "" {
				if err := a.sheet.DumpXLSX(xlsx); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Wrote %s\n", xlsx)
				return nil
			}
			text, err := a.sheet.Dump()
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, text)
			return nil
		},
	}
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "Write an xlsx workbook to this path")
	return cmd
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [RANGE]",
		Short: "Blank cells in a range, or every cell",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sheet.Clear(optionalArg(args)); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Cleared")
			return nil
		},
	}
}

func (a *app) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename COLUMN NAME",
		Short: "Rename a column header (formulas are not rewritten)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := a.sheet.Rename(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Renamed %s to %s\n", old, args[1])
			return nil
		},
	}
}

func (a *app) formatCmd() *cobra.Command {
	var (
		typ, align string
		width      int
		wrap       bool
	)
	cmd := &cobra.Command{
		Use:   "format COLUMN",
		Short: "Set column display metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts models.FormatOptions
			flags := cmd.Flags()
			if flags.Changed("type") {
				t := models.ColumnType(typ)
				opts.Type = &t
			}
			if flags.Changed("align") {
				al := models.Alignment(align)
				opts.Align = &al
			}
			if flags.Changed("width") {
				opts.Width = &width
			}
			if flags.Changed("wrap") {
				opts.Wrap = &wrap
			}
			f, err := a.sheet.Format(args[0], opts)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(f)
			}
			fmt.Fprintf(a.stdout, "%s: %s\n", args[0], describeFormat(f))
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "Column type (text, number, currency, percent, date, bool, select, formula, markdown, longtext)")
	cmd.Flags().StringVar(&align, "align", "", "Alignment: left, center, right")
	cmd.Flags().IntVar(&width, "width", 0, "Width in pixels")
	cmd.Flags().BoolVar(&wrap, "wrap", false, "Wrap text")
	return cmd
}

func (a *app) tailCmd() *cobra.Command {
	var extra []string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow external appends and run watches until interrupted",
		Long: `tail keeps the sheet in sync with appends to its file, runs the watches
from the config file and --watch flags, and prints every event as a JSON line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			watches, err := a.watchDefs(extra)
			if err != nil {
				return err
			}
			if err := a.sheet.Tail(); err != nil {
				return err
			}
			for _, w := range watches {
				if err := a.sheet.Watch(w); err != nil {
					return err
				}
			}
			a.logger.Info("Tailing sheet", "path", a.sheet.Path(), "watches", len(watches))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			for {
				select {
				case <-ctx.Done():
					a.sheet.Untail()
					return nil
				case e := <-a.events:
					if err := a.printJSONLine(e); err != nil {
						return err
					}
				}
			}
		},
	}
	cmd.Flags().StringArrayVarP(&extra, "watch", "w", nil, `Extra watch as NAME=SQL (repeatable)`)
	return cmd
}

func (a *app) watchesCmd() *cobra.Command {
	var extra []string
	cmd := &cobra.Command{
		Use:   "watches",
		Short: "Validate and list the configured watches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			watches, err := a.watchDefs(extra)
			if err != nil {
				return err
			}
			for _, w := range watches {
				if err := a.sheet.Watch(w); err != nil {
					return err
				}
			}
			if a.asJSON {
				return a.printJSON(a.sheet.Watches())
			}
			a.printWatches(a.sheet.Watches())
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&extra, "watch", "w", nil, `Extra watch as NAME=SQL (repeatable)`)
	return cmd
}

// watchDefs merges configured watches with NAME=SQL flag values.
func (a *app) watchDefs(extra []string) ([]models.WatchDef, error) {
	defs := append([]models.WatchDef(nil), a.cfg.Watches...)
	for _, spec := range extra {
		name, q, ok := strings.Cut(spec, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(q) == "" {
			return nil, fmt.Errorf("invalid --watch %q, expected NAME=SQL", spec)
		}
		defs = append(defs, models.WatchDef{Name: strings.TrimSpace(name), Query: q})
	}
	return defs, nil
}

// headers returns the record keys used by Query, in column order.
func (a *app) headers() ([]string, error) {
	schema, err := a.sheet.Schema()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(schema.Columns))
	for _, c := range schema.Columns {
		names = append(names, c.Name)
	}
	return query.ColumnNames(names), nil
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", name, s)
	}
	return n, nil
}

// parseAssignments turns COLUMN=VALUE arguments into a map.
func parseAssignments(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		col, value, ok := strings.Cut(arg, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected COLUMN=VALUE", arg)
		}
		values[col] = value
	}
	return values, nil
}
