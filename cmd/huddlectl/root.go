package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huddle-app/backend/internal/models"
)

// cli holds the app opened for the running command.
type cli struct {
	app *app
}

// run executes one huddlectl invocation and closes the store afterwards.
func run(ctx context.Context, args []string, out, errOut io.Writer) error {
	c := &cli{}
	root := c.newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	defer func() {
		if c.app != nil {
			_ = c.app.close()
			c.app = nil
		}
	}()
	return root.ExecuteContext(ctx)
}

func (c *cli) newRootCmd() *cobra.Command {
	var (
		driverFlag  string
		dbFlag      string
		verboseFlag bool
	)
	rootCmd := &cobra.Command{
		Use:           "huddlectl",
		Short:         "CLI for a local chat state store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), driverFlag, dbFlag, verboseFlag, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Store driver (sqlite, memory, postgres); defaults to STORE_DRIVER")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "SQLite file; defaults to STORE_SQLITE_PATH")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log store activity to stderr")

	rootCmd.AddCommand(
		c.newSignupCmd(),
		c.newLoginCmd(),
		c.newLogoutCmd(),
		c.newWhoamiCmd(),
		c.newSearchCmd(),
		c.newCommunitiesCmd(),
		c.newThreadsCmd(),
		c.newRequestsCmd(),
		c.newResetCmd(),
	)
	return rootCmd
}

func (c *cli) newSignupCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.session.Signup(cmd.Context(), name, email, password)
			if err != nil {
				return cliError(err)
			}
			return c.app.print(u)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.session.Login(cmd.Context(), email, password)
			if err != nil {
				return cliError(err)
			}
			return c.app.print(u)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.session.Logout(cmd.Context())
		},
	}
}

func (c *cli) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.user()
			if err != nil {
				return err
			}
			return c.app.print(u)
		},
	}
}

func (c *cli) newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search profiles by name or email",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer := ""
			if u := c.app.session.Current(); u != nil {
				viewer = u.ID
			}
			out, err := c.app.store.SearchProfiles(cmd.Context(), strings.Join(args, " "), viewer)
			if err != nil {
				return cliError(err)
			}
			return c.app.print(out)
		},
	}
}

func (c *cli) newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Replace all data with the demo dataset and log out",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				cmd.PrintErrln("reset discards all data; rerun with --yes")
				return nil
			}
			ctx := cmd.Context()
			if err := c.app.store.Reset(ctx); err != nil {
				return cliError(err)
			}
			if err := c.app.session.Logout(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "store reset to demo data")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

func (c *cli) newRequestsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "requests", Short: "Contact requests"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List incoming and outgoing contact requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.user()
			if err != nil {
				return err
			}
			out, err := c.app.store.ListContactRequests(cmd.Context(), u.ID)
			if err != nil {
				return cliError(err)
			}
			return c.app.print(out)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "send USER_ID",
		Short: "Send a contact request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.user()
			if err != nil {
				return err
			}
			out, err := c.app.store.CreateContactRequest(cmd.Context(), u.ID, args[0])
			if err != nil {
				return cliError(err)
			}
			return c.app.print(out)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "respond REQUEST_ID accept|decline",
		Short:     "Accept or decline a contact request",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{models.ActionAccept, models.ActionDecline},
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := c.app.user()
			if err != nil {
				return err
			}
			out, err := c.app.store.RespondToContactRequestAs(cmd.Context(), args[0], me.ID, args[1])
			if err != nil {
				return cliError(err)
			}
			return c.app.print(out)
		},
	})
	return cmd
}
