package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"playsync/internal/listenbrainz"
	"playsync/internal/reconcile"
)

const localTimeLayout = "2006-01-02 15:04:05"

func newListensCommand(ctx *commandContext) *cobra.Command {
	var before string
	var count int

	cmd := &cobra.Command{
		Use:   "listens [USER]",
		Short: "Import listens from ListenBrainz",
		Long: `Fetch a user's most recent listens from ListenBrainz and add one play
for every listen newer than the matching catalog row's last play. Listens are
matched by artist and title. USER defaults to listenbrainz.user.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxTS, err := parseBefore(before)
			if err != nil {
				return err
			}
			s, err := ctx.openSession(cmd, true, false)
			if err != nil {
				return err
			}
			defer s.close()

			user := s.cfg.ListenBrainz.User
			if len(args) == 1 {
				user = args[0]
			}
			if strings.TrimSpace(user) == "" {
				return errors.New("listens: no user given and listenbrainz.user is not set")
			}
			if count <= 0 {
				count = s.cfg.ListenBrainz.Count
			}

			client, err := listenbrainz.New(s.cfg.ListenBrainz.BaseURL,
				listenbrainz.WithToken(s.cfg.ListenBrainz.Token),
				listenbrainz.WithTimeout(s.cfg.ListenBrainzTimeout()),
			)
			if err != nil {
				return err
			}
			runner, err := ctx.newRunner(s, nil)
			if err != nil {
				return err
			}
			summary, err := runner.ImportListens(cmd.Context(), client, user, reconcile.ListenOptions{
				Before: maxTS,
				Count:  count,
			})
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&before, "before", "", "Only fetch listens before this time (RFC3339, \"2006-01-02 15:04:05\" local, or unix seconds)")
	cmd.Flags().IntVar(&count, "count", 0, "Number of listens to fetch (default listenbrainz.count)")
	return cmd
}

// parseBefore converts --before to unix seconds; empty means no bound.
func parseBefore(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
		if ts <= 0 {
			return 0, fmt.Errorf("--before: %d is not a positive unix time", ts)
		}
		return ts, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Unix(), nil
	}
	if t, err := time.ParseInLocation(localTimeLayout, value, time.Local); err == nil {
		return t.Unix(), nil
	}
	return 0, fmt.Errorf("--before: cannot parse %q (use RFC3339, %q or unix seconds)", value, localTimeLayout)
}
