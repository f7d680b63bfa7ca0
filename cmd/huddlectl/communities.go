package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *cli) newCommunitiesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "communities", Short: "Community operations"}

	var joined bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List communities",
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer := ""
			if u := c.app.session.Current(); u != nil {
				viewer = u.ID
			}
			if joined {
				u, err := c.app.user()
				if err != nil {
					return err
				}
				out, err := c.app.store.ListJoinedCommunities(cmd.Context(), u.ID)
				if err != nil {
					return cliError(err)
				}
				return c.app.print(out)
			}
			out, err := c.app.store.ListCommunities(cmd.Context(), viewer)
			if err != nil {
				return cliError(err)
			}
			return c.app.print(out)
		},
	}
	listCmd.Flags().BoolVar(&joined, "joined", false, "Only communities you belong to")
	cmd.AddCommand(listCmd)

	var name, description string
	var private bool
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a community you own",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.user()
			if err != nil {
				return err
			}
			out, err := c.app.store.CreateCommunity(cmd.Context(), u.ID, name, description, private)
			if err != nil {
				return cliError(err)
			}
			return c.app.print(out)
		},
	}
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Name (required)")
	createCmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	createCmd.Flags().BoolVar(&private, "private", false, "Require approval to join")
	_ = createCmd.MarkFlagRequired("name")
	cmd.AddCommand(createCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "join COMMUNITY_ID",
		Short: "Join a public community or request to join a private one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.user()
			if err != nil {
				return err
			}
			out, err := c.app.store.RequestToJoinCommunity(cmd.Context(), args[0], u.ID)
			if err != nil {
				return cliError(err)
			}
			return c.app.print(out)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "leave COMMUNITY_ID",
		Short: "Leave a community",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.user()
			if err != nil {
				return err
			}
			if err := c.app.store.LeaveCommunity(cmd.Context(), args[0], u.ID); err != nil {
				return cliError(err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "left "+args[0])
			return nil
		},
	})
	return cmd
}

func (c *cli) newThreadsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "threads", Short: "Thread operations"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list COMMUNITY_ID",
		Short: "List a community's threads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.app.store.ListCommunityThreads(cmd.Context(), args[0])
			if err != nil {
				return cliError(err)
			}
			return c.app.print(out)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "post THREAD_ID TEXT...",
		Short: "Post a message to a thread",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.user()
			if err != nil {
				return err
			}
			out, err := c.app.store.PostThreadMessage(cmd.Context(), args[0], u.ID, strings.Join(args[1:], " "))
			if err != nil {
				return cliError(err)
			}
			return c.app.print(out)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "messages THREAD_ID",
		Short: "Show a thread's messages, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer := ""
			if u := c.app.session.Current(); u != nil {
				viewer = u.ID
			}
			if _, err := c.app.store.CanViewThread(cmd.Context(), args[0], viewer); err != nil {
				return cliError(err)
			}
			out, err := c.app.store.ListThreadMessages(cmd.Context(), args[0])
			if err != nil {
				return cliError(err)
			}
			return c.app.print(out)
		},
	})
	return cmd
}
