package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subtrack/internal/cli"
	"subtrack/internal/settings"
)

func newSettingsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		Short:   "Show or change the user profile",
		GroupID: "system",
	}
	cmd.AddCommand(
		newSettingsShowCmd(rt),
		newSettingsSetCmd(rt),
		newSettingsNotificationsCmd(rt),
		newSettingsResetCmd(rt),
	)
	return cmd
}

func newSettingsShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				return writeJSON(rt.out, app.Settings.Get())
			})
		},
	}
}

func newSettingsSetCmd(rt *runtime) *cobra.Command {
	var in settings.Input
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save the profile; a username or an email is required",
		Long: `Save the profile. Omitted flags keep their current value; at least one of
username and email must be non-empty afterwards.

Examples:
  subtrackctl settings set --username ada --email ada@example.com
  subtrackctl settings set --notifications=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				current := app.Settings.Get()
				if !cmd.Flags().Changed("username") {
					in.Username = current.Username
				}
				if !cmd.Flags().Changed("email") {
					in.Email = current.Email
				}
				if !cmd.Flags().Changed("notifications") {
					in.Notifications = current.Notifications
				}

				saved, changed, err := app.Settings.Save(cmd.Context(), in)
				if err != nil {
					return describe(err)
				}
				if !changed {
					fmt.Fprintln(rt.out, "No changes")
					return nil
				}
				return writeJSON(rt.out, saved)
			})
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "contact email")
	cmd.Flags().BoolVar(&in.Notifications, "notifications", true, "renewal notifications")
	return cmd
}

func newSettingsNotificationsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:       "notifications <on|off>",
		Short:     "Turn renewal notifications on or off",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseSwitch(args[0])
			if err != nil {
				return err
			}
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				saved, err := app.Settings.SetNotifications(cmd.Context(), enabled)
				if err != nil {
					return err
				}
				return writeJSON(rt.out, saved)
			})
		},
	}
}

func newSettingsResetCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd.Context(), func(app *cli.App) error {
				if err := app.Settings.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(rt.out, "RESET")
				return nil
			})
		},
	}
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
	return b, nil
}
