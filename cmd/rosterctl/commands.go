package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"example.com/roster/pkg/client"
)

var version = "dev"

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.server)
}

func (o *rootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "rosterctl",
		Short: "CLI for the activity roster service",
		Long: `rosterctl lists extracurricular activities and signs students up for,
or removes them from, an activity roster.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:8000", "roster server URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(
		newListCmd(opts),
		newSignupCmd(opts),
		newUnregisterCmd(opts),
		newHealthCmd(opts),
	)
	return root
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities and their rosters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			activities, err := opts.client().ListActivities(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(activities)
			}
			printActivities(cmd.OutOrStdout(), activities)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON response")
	return cmd
}

func newSignupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signup <activity> <email>",
		Short: "Sign a student up for an activity",
		Long: `Sign a student up for an activity.

Examples:
  rosterctl signup "Chess Club" michael@mergington.edu`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			msg, err := opts.client().Signup(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newUnregisterCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "unregister <activity> <email>",
		Aliases: []string{"drop"},
		Short:   "Remove a student from an activity",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			msg, err := opts.client().Unregister(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check roster server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			if err := opts.client().Health(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func printActivities(w io.Writer, activities map[string]client.Activity) {
	names := make([]string, 0, len(activities))
	for name := range activities {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		a := activities[name]
		fmt.Fprintf(w, "%s (%d/%d)\n", name, len(a.Participants), a.MaxParticipants)
		fmt.Fprintf(w, "  %s\n", a.Schedule)
		if len(a.Participants) > 0 {
			fmt.Fprintf(w, "  %s\n", strings.Join(a.Participants, ", "))
		}
	}
}
