package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"spendbook/internal/chart"
	"spendbook/internal/core"
	"spendbook/internal/services"
)

// app holds what the commands need; tests swap in a memory store.
type app struct {
	out      io.Writer
	open     func(ctx context.Context) (*services.ExpenseService, func() error, error)
	renderer chart.Renderer
}

// withService opens the backend for the duration of fn.
func (a *app) withService(ctx context.Context, fn func(*services.ExpenseService) error) (err error) {
	svc, cleanup, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(svc)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "spendctl",
		Short:         "Record and summarize personal expenses",
		Long:          `spendctl works on the same expense list as the spendbook server, using the backend selected by DATA_BACKEND.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newSummaryCmd(a),
		newChartCmd(a),
	)
	return root
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add AMOUNT CATEGORY [DATE]",
		Short: "Append an expense (DATE defaults to today)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := services.ExpenseInput{Amount: args[0], Category: args[1]}
			if len(args) == 3 {
				in.Date = args[2]
			}
			return a.withService(cmd.Context(), func(svc *services.ExpenseService) error {
				pos, e, err := svc.Add(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Added #%d: %s %s on %s\n", pos, core.FormatAmount(e.Amount), e.Category, e.Date)
				return nil
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List expenses with their positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *services.ExpenseService) error {
				list, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(a.out, "No expenses recorded.")
					return nil
				}

				tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintln(tw, "#\tDATE\tCATEGORY\tAMOUNT\tID\t")
				for i, e := range list {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", i+1, e.Date, e.Category, core.FormatAmount(e.Amount), e.ID)
				}
				return tw.Flush()
			})
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "edit POSITION AMOUNT CATEGORY [DATE]",
		Short: "Replace the expense at POSITION (an omitted DATE keeps the stored one)",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[0])
			}
			in := services.ExpenseInput{Amount: args[1], Category: args[2]}
			if len(args) == 4 {
				in.Date = args[3]
			}
			return a.withService(cmd.Context(), func(svc *services.ExpenseService) error {
				e, err := svc.Edit(cmd.Context(), pos, id, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Updated #%d: %s %s on %s\n", pos, core.FormatAmount(e.Amount), e.Category, e.Date)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "refuse the edit unless the expense at POSITION has this id")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "delete POSITION",
		Short: "Remove the expense at POSITION",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[0])
			}
			return a.withService(cmd.Context(), func(svc *services.ExpenseService) error {
				e, err := svc.Delete(cmd.Context(), pos, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted #%d: %s %s on %s\n", pos, core.FormatAmount(e.Amount), e.Category, e.Date)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "refuse the delete unless the expense at POSITION has this id")
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show total spending and totals per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *services.ExpenseService) error {
				sum, err := svc.Summary(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeSummaryJSON(a.out, sum)
				}

				fmt.Fprintf(a.out, "Total: %s (%d expenses)\n", core.FormatAmount(sum.Total), sum.Count)
				tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				for _, c := range sum.ByCategory {
					fmt.Fprintf(tw, "  %s\t%s\n", c.Name, core.FormatAmount(c.Amount))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func writeSummaryJSON(w io.Writer, sum core.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

func newChartCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render the category bar chart to a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *services.ExpenseService) error {
				sum, err := svc.Summary(cmd.Context())
				if err != nil {
					return err
				}

				var buf bytes.Buffer
				if err := a.renderer.RenderBarChart(&buf, sum.ByCategory); err != nil {
					return err
				}
				sink := chart.DirSink{Dir: filepath.Dir(output)}
				if err := sink.Put(cmd.Context(), filepath.Base(output), buf.Bytes()); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				fmt.Fprintf(a.out, "Chart written to %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "plot.png", "output PNG file")
	return cmd
}
