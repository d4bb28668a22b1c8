package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"playsync/internal/catalog"
	"playsync/internal/config"
	"playsync/internal/logging"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var fromDB string
	var rewrite rewriteFlags

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Fill never-played rows from another catalog",
		Long: `Copy play history from the played rows of another catalog database into
the never-played rows of this one. The source catalog is opened read-only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := rewrite.rules()
			if err != nil {
				return err
			}
			sourcePath, err := config.ExpandPath(strings.TrimSpace(fromDB))
			if err != nil {
				return fmt.Errorf("resolve --from-db: %w", err)
			}
			s, err := ctx.openSession(cmd, true, false)
			if err != nil {
				return err
			}
			defer s.close()

			source, err := catalog.Open(cmd.Context(), sourcePath, catalog.Options{ReadOnly: true})
			if err != nil {
				return fmt.Errorf("open source catalog: %w", err)
			}
			defer source.Close()

			runner, err := ctx.newRunner(s, rules)
			if err != nil {
				return err
			}
			summary, err := runner.ImportCatalog(cmd.Context(), source)
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fromDB, "from-db", "f", "", "Source catalog database path")
	_ = cmd.MarkFlagRequired("from-db")
	rewrite.register(cmd)
	return cmd
}

func newConsolidateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consolidate FROM TO",
		Short: "Add one catalog row's play history to another",
		Long: `Find two catalog rows by URL fragment and add the play and skip counts of
FROM to TO. TO keeps the later of the two last-played dates; FROM is left
unchanged. Each fragment resolves to the lowest-rowid row containing it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(cmd, true, false)
			if err != nil {
				return err
			}
			defer s.close()

			runner, err := ctx.newRunner(s, nil)
			if err != nil {
				return err
			}
			summary, result, err := runner.Consolidate(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var found []catalog.Song
			if result.From != nil {
				found = append(found, *result.From)
			}
			if result.To != nil {
				found = append(found, *result.To)
			}
			if len(found) > 0 {
				fmt.Fprintln(out, renderTable(songHeaders, songRows(found...), songAligns))
			}
			if result.From != nil && result.To != nil && summary.Updated > 0 {
				merged := *result.To
				merged.PlayCount = int64(result.Result.PlayCount)
				merged.SkipCount = int64(result.Result.SkipCount)
				merged.LastPlayed = result.Result.LastPlayed
				fmt.Fprintln(out, "Result:")
				fmt.Fprintln(out, renderTable(songHeaders, songRows(merged), songAligns))
			}
			renderSummary(out, summary)
			return nil
		},
	}
	return cmd
}

func newDumpCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "List catalog rows that have been played",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New("--limit must not be negative")
			}
			s, err := ctx.openSession(cmd, true, true)
			if err != nil {
				return err
			}
			defer s.close()

			songs, err := s.store.PlayedSongs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			s.logger.Debug("played rows listed", logging.Int("rows", len(songs)))
			out := cmd.OutOrStdout()
			if len(songs) == 0 {
				fmt.Fprintln(out, "No played tracks in catalog")
				return nil
			}
			fmt.Fprintln(out, renderTable(songHeaders, songRows(songs...), songAligns))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows to list (0 lists all)")
	return cmd
}
