package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"playsync/internal/config"
	"playsync/internal/library"
	"playsync/internal/reconcile"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	var libraryPath string
	var albums []string
	var unplayedOnly bool
	var updateExisting bool
	var rewrite rewriteFlags

	cmd := &cobra.Command{
		Use:   "itunes",
		Short: "Import play counts from an exported iTunes library",
		Long: `Import play counts, skip counts and last-played dates from an exported
iTunes Library.xml. Never-played catalog rows are filled from the matching
track; rows that already have plays are left alone unless --update-existing
is given, in which case the library counts are added to them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := rewrite.rules()
			if err != nil {
				return err
			}
			s, err := ctx.openSession(cmd, true, false)
			if err != nil {
				return err
			}
			defer s.close()

			lib, err := loadLibrary(s.cfg, libraryPath)
			if err != nil {
				return err
			}
			runner, err := ctx.newRunner(s, rules)
			if err != nil {
				return err
			}
			summary, err := runner.ImportLibrary(cmd.Context(), lib, reconcile.LibraryOptions{
				Albums:         albums,
				UnplayedOnly:   unplayedOnly,
				UpdateExisting: updateExisting,
			})
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&libraryPath, "library", "i", "", "Library.xml path (overrides library.path)")
	cmd.Flags().StringArrayVarP(&albums, "find", "f", nil, "Only update catalog rows from this album (repeatable)")
	cmd.Flags().BoolVarP(&unplayedOnly, "update-unplayed", "p", false, "Only consider catalog rows that have never been played")
	cmd.Flags().BoolVarP(&updateExisting, "update-existing", "u", false, "Add library counts to catalog rows that already have plays")
	cmd.MarkFlagsMutuallyExclusive("update-unplayed", "update-existing")
	rewrite.register(cmd)
	return cmd
}

func newPlaylistsCommand(ctx *commandContext) *cobra.Command {
	var libraryPath string
	var only string
	var convertSmart bool
	var rewrite rewriteFlags

	cmd := &cobra.Command{
		Use:   "playlists",
		Short: "Import playlists from an exported iTunes library",
		Long: `Create catalog playlists from the playlists in an exported iTunes
Library.xml. Built-in playlists listed in library.exclude_playlists are skipped
unless named with --import-playlist. Playlists whose name already exists in
the catalog are never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := rewrite.rules()
			if err != nil {
				return err
			}
			s, err := ctx.openSession(cmd, true, false)
			if err != nil {
				return err
			}
			defer s.close()

			lib, err := loadLibrary(s.cfg, libraryPath)
			if err != nil {
				return err
			}
			runner, err := ctx.newRunner(s, rules)
			if err != nil {
				return err
			}
			summary, err := runner.ImportPlaylists(cmd.Context(), lib, reconcile.PlaylistOptions{
				Only:         strings.TrimSpace(only),
				ConvertSmart: convertSmart,
				Exclude:      s.cfg.Library.ExcludePlaylists,
			})
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&libraryPath, "library", "i", "", "Library.xml path (overrides library.path)")
	cmd.Flags().StringVarP(&only, "import-playlist", "p", "", "Import only the playlist with this exact name")
	cmd.Flags().BoolVar(&convertSmart, "convert-smart-playlists", false, "Import smart playlists as static snapshots")
	rewrite.register(cmd)
	return cmd
}

func loadLibrary(cfg *config.Config, override string) (*library.Library, error) {
	path := cfg.Library.Path
	if strings.TrimSpace(override) != "" {
		expanded, err := config.ExpandPath(strings.TrimSpace(override))
		if err != nil {
			return nil, fmt.Errorf("resolve library path: %w", err)
		}
		path = expanded
	}
	return library.Load(path)
}
