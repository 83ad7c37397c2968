package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"subtrack/internal/cli"
	"subtrack/internal/core"
	"subtrack/internal/export"
	"subtrack/internal/query"
)

func newDashboardCmd(rt *runtime) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "dashboard",
		Short:   "Summarize spending and upcoming renewals",
		GroupID: "reports",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				sum := app.Subscriptions.Dashboard()
				if asJSON {
					return writeJSON(rt.out, sum)
				}
				return writeSummary(rt, sum)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func writeSummary(rt *runtime, sum query.Summary) error {
	tw := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Subscriptions:\t%d\n", sum.Count)
	fmt.Fprintf(tw, "Total:\t%s\n", export.FormatCurrency(sum.Total))
	fmt.Fprintf(tw, "Monthly spend:\t%s\n", export.FormatCurrency(sum.MonthlySpend))
	fmt.Fprintf(tw, "Upcoming:\t%d\n", sum.Upcoming)
	fmt.Fprintf(tw, "Missed:\t%d\n", sum.Missed)
	fmt.Fprintf(tw, "Due today:\t%d\n", sum.DueNow)

	if len(sum.CategoryTotals) > 0 {
		fmt.Fprintln(tw, "\nBy category:")
		for _, c := range sum.CategoryTotals {
			fmt.Fprintf(tw, "  %s\t%s\n", c.Category, export.FormatCurrency(c.Total))
		}
	}
	if len(sum.NextRenewals) > 0 {
		fmt.Fprintln(tw, "\nNext renewals:")
		for _, r := range sum.NextRenewals {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", r.Name, r.RenewDate, r.Countdown)
		}
	}
	return tw.Flush()
}

func newExportCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Export subscriptions as CSV, PDF or printable HTML",
		GroupID: "reports",
	}
	cmd.AddCommand(newExportCSVCmd(rt), newExportPDFCmd(rt), newExportDocumentCmd(rt))
	return cmd
}

// writeOutput writes data to path, to stdout for "-", or to defaultName in
// the working directory when path is empty. Only the last element of
// defaultName is used.
func writeOutput(rt *runtime, path, defaultName string, data []byte) error {
	switch path {
	case "-":
		_, err := rt.out.Write(data)
		return err
	case "":
		path = filepath.Base(defaultName)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Fprintf(rt.errOut, "Wrote %s\n", abs)
	return nil
}

func newExportCSVCmd(rt *runtime) *cobra.Command {
	var (
		filters filterFlags
		output  string
	)
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Export the filtered list as CSV",
		Long: `Export the filtered list as CSV. The file is named
subscriptions-<date>.csv unless -o is given; "-o -" writes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := filters.criteria()
			if err != nil {
				return err
			}
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				data, name, err := app.Subscriptions.ExportCSV(c)
				if errors.Is(err, core.ErrEmptyExport) {
					return errors.New("no subscriptions to export")
				}
				if err != nil {
					return err
				}
				return writeOutput(rt, output, name, data)
			})
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}

func newExportPDFCmd(rt *runtime) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "pdf <id>",
		Short: "Export one subscription as a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				data, name, err := app.Subscriptions.PDF(args[0])
				if err != nil {
					return err
				}
				return writeOutput(rt, output, name, data)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}

func newExportDocumentCmd(rt *runtime) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "document <id>",
		Short: "Print the printable HTML page of one subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				doc, err := app.Subscriptions.Document(args[0])
				if err != nil {
					return err
				}
				if output == "" {
					output = "-"
				}
				return writeOutput(rt, output, "", doc)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file")
	return cmd
}
