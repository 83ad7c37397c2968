package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"subtrack/internal/cli"
	"subtrack/internal/core"
	"subtrack/internal/export"
	"subtrack/internal/query"
)

// filterFlags are shared by list and export csv.
type filterFlags struct {
	name    string
	status  string
	renewal string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "search", "q", "", "case-insensitive name search")
	cmd.Flags().StringVar(&f.status, "status", query.StatusAll, "all, active, upcoming or missed")
	cmd.Flags().StringVar(&f.renewal, "renewal", string(query.BucketAll), "all, thisMonth or nextMonth")
}

func (f *filterFlags) criteria() (query.Criteria, error) {
	c := query.Criteria{Name: f.name}
	if s := strings.TrimSpace(f.status); s != "" && !strings.EqualFold(s, query.StatusAll) {
		status, err := core.ParseStatus(s)
		if err != nil {
			return c, err
		}
		c.Status = status.String()
	}
	bucket, ok := query.ParseBucket(f.renewal)
	if !ok {
		return c, fmt.Errorf("unknown renewal filter %q", f.renewal)
	}
	c.Renewal = bucket
	return c, nil
}

func writeTable(w io.Writer, records []core.Subscription) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCYCLE\tSTATUS\tCATEGORY\tRENEWS")
	for _, r := range records {
		category := r.Category
		if category == "" {
			category = export.MissingCategory
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, export.FormatCurrency(r.Price.Float()), r.Cycle, r.Status, category, r.RenewDate)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newListCmd(rt *runtime) *cobra.Command {
	var (
		filters filterFlags
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List subscriptions, most recent first",
		Long: `List subscriptions with optional filters.

Examples:
  subtrackctl list
  subtrackctl list -q net --status active
  subtrackctl list --renewal nextMonth --json`,
		GroupID: "subscriptions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := filters.criteria()
			if err != nil {
				return err
			}
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				records := app.Subscriptions.List(c)
				if asJSON {
					return writeJSON(rt.out, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(rt.out, "No subscriptions found.")
					return nil
				}
				return writeTable(rt.out, records)
			})
		},
	}
	filters.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "show <id>",
		Short:   "Print one subscription as JSON",
		GroupID: "subscriptions",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				sub, err := app.Subscriptions.Get(args[0])
				if err != nil {
					return err
				}
				return writeJSON(rt.out, sub)
			})
		},
	}
}

// subscriptionFlags backs add and update. Update only applies the flags the
// user actually set.
type subscriptionFlags struct {
	name        string
	price       string
	cycle       string
	renewDate   string
	status      string
	category    string
	description string
	reminder    bool
	recurring   bool
}

func (f *subscriptionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "service name")
	cmd.Flags().StringVar(&f.price, "price", "", "price per cycle, e.g. 1200 or 15000.50")
	cmd.Flags().StringVar(&f.cycle, "cycle", "", "Weekly, Monthly or Yearly (default Monthly)")
	cmd.Flags().StringVar(&f.renewDate, "renew", "", "next renewal date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.status, "status", "", "active, upcoming or missed (default active)")
	cmd.Flags().StringVar(&f.category, "category", "", "category, e.g. "+strings.Join(core.Categories(), ", "))
	cmd.Flags().StringVar(&f.description, "description", "", "free-text notes")
	cmd.Flags().BoolVar(&f.reminder, "reminder", false, "remind before renewal")
	cmd.Flags().BoolVar(&f.recurring, "recurring", false, "renews automatically")
}

func (f *subscriptionFlags) createInput() core.CreateInput {
	return core.CreateInput{
		Name:        f.name,
		Price:       core.RawAmount(f.price),
		Cycle:       f.cycle,
		RenewDate:   f.renewDate,
		Status:      f.status,
		Category:    f.category,
		Description: f.description,
		Reminder:    f.reminder,
		Recurring:   f.recurring,
	}
}

func (f *subscriptionFlags) updateInput(cmd *cobra.Command) core.UpdateInput {
	var in core.UpdateInput
	changed := cmd.Flags().Changed
	if changed("name") {
		in.Name = &f.name
	}
	if changed("price") {
		p := core.RawAmount(f.price)
		in.Price = &p
	}
	if changed("cycle") {
		in.Cycle = &f.cycle
	}
	if changed("renew") {
		in.RenewDate = &f.renewDate
	}
	if changed("status") {
		in.Status = &f.status
	}
	if changed("category") {
		in.Category = &f.category
	}
	if changed("description") {
		in.Description = &f.description
	}
	if changed("reminder") {
		in.Reminder = &f.reminder
	}
	if changed("recurring") {
		in.Recurring = &f.recurring
	}
	return in
}

// describe turns a validation failure into a message naming the flag.
func describe(err error) error {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		flag := verr.Field
		if flag == "renewDate" {
			flag = "renew"
		}
		if verr.Value != "" {
			return fmt.Errorf("--%s %q: %s", flag, verr.Value, verr.Reason)
		}
		return fmt.Errorf("--%s: %s", flag, verr.Reason)
	}
	return err
}

func newAddCmd(rt *runtime) *cobra.Command {
	var f subscriptionFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a subscription",
		Long: `Add a subscription.

Examples:
  subtrackctl add --name Netflix --price 1200 --renew 2025-08-01 --category Entertainment
  subtrackctl add --name Coursera --price 15000 --cycle Yearly --renew 2026-01-10 --category Education --reminder`,
		GroupID: "subscriptions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				sub, err := app.Subscriptions.Create(cmd.Context(), f.createInput())
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(rt.out, "CREATED %s %s\n", sub.ID, sub.Name)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newUpdateCmd(rt *runtime) *cobra.Command {
	var f subscriptionFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a subscription",
		Long: `Change fields of a subscription. Fields without a flag keep their value.

Examples:
  subtrackctl update 0b6f... --status missed
  subtrackctl update 0b6f... --price 1500 --renew 2025-09-01`,
		GroupID: "subscriptions",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				sub, err := app.Subscriptions.Update(cmd.Context(), args[0], f.updateInput(cmd))
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(rt.out, "UPDATED %s %s\n", sub.ID, sub.Name)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a subscription",
		GroupID: "subscriptions",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				if err := app.Subscriptions.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(rt.out, "DELETED %s\n", args[0])
				return nil
			})
		},
	}
}

func newClearCmd(rt *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "clear",
		Short:   "Delete every subscription",
		GroupID: "subscriptions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete every subscription without --yes")
			}
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				if err := app.Subscriptions.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(rt.out, "CLEARED")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}
