package main

import (
	"github.com/spf13/cobra"

	"playsync/internal/urlnorm"
)

// rewriteFlags collects --replace-url/--replace-with pairs. Given on the
// command line they replace the configured [[matching.rewrite]] rules.
type rewriteFlags struct {
	patterns     []string
	replacements []string
}

func (f *rewriteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.patterns, "replace-url", "r", nil, "Regular expression applied to source URLs for the alternate lookup (repeatable)")
	cmd.Flags().StringArrayVar(&f.replacements, "replace-with", nil, "Replacement for the matching --replace-url (repeatable)")
}

func (f *rewriteFlags) rules() ([]urlnorm.Rule, error) {
	return urlnorm.PairRules(f.patterns, f.replacements)
}
