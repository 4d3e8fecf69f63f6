package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conn-castle/wpsync/internal/composer"
	"github.com/conn-castle/wpsync/internal/messages"
)

func newComposerCmd(opts *globalOptions) *cobra.Command {
	var (
		description string
		vendor      string
		dir         string
	)
	cmd := &cobra.Command{
		Use:   messages.ComposerUse,
		Short: messages.ComposerShort,
		Args:  usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.environment(cmd)
			if err != nil {
				return err
			}
			if vendor == "" {
				vendor = env.cfg.Composer.Vendor
			}
			target := env.root
			if dir != "" {
				target = dir
				if !filepath.IsAbs(target) {
					target = filepath.Join(env.root, target)
				}
			}
			path, err := composer.Write(target, composer.Package{
				Vendor:      vendor,
				Name:        args[0],
				Version:     args[1],
				Type:        args[2],
				Description: description,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.ComposerWrittenFmt, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", messages.ComposerFlagDescription)
	cmd.Flags().StringVar(&vendor, "vendor", "", messages.ComposerFlagVendor)
	cmd.Flags().StringVar(&dir, "path", "", messages.ComposerFlagPath)
	return cmd
}
