package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/upstream"
	"github.com/conn-castle/wpsync/internal/version"
)

var newUpstreamClient = upstream.NewClient

func newCheckWordPressOrgCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.CheckWordPressOrgUse,
		Short: messages.CheckWordPressOrgShort,
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.environment(cmd)
			if err != nil {
				return err
			}
			client := newUpstreamClient()
			client.WordPressAPIBase = env.cfg.WordPress.APIBase
			client.WordPressDownloadBase = env.cfg.WordPress.DownloadBase
			info, err := client.CheckWordPressOrg(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
}

func newCheckLicenseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   messages.CheckLicenseUse,
		Short: messages.CheckLicenseShort,
		Args:  usageArgs(cobra.ExactArgs(7)),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := newUpstreamClient().CheckLicense(cmd.Context(), upstream.LicenseRequest{
				APIURL:      args[0],
				LicenseKey:  args[1],
				Basename:    args[2],
				ProductName: args[3],
				Email:       args[4],
				Domain:      args[5],
				Instance:    args[6],
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
}

func newPluginVersionCmd(opts *globalOptions) *cobra.Command {
	var branch string
	cmd := &cobra.Command{
		Use:   messages.PluginVersionUse,
		Short: messages.PluginVersionShort,
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				ver string
				ok  bool
			)
			if branch != "" {
				s, err := opts.session(cmd)
				if err != nil {
					return err
				}
				ref, err := s.store.ResolveRef(cmd.Context(), branch)
				if err != nil {
					return err
				}
				if ver, ok, err = version.FromBranch(cmd.Context(), s.store, ref); err != nil {
					return err
				}
			} else {
				dir, err := pluginDir(opts, args)
				if err != nil {
					return err
				}
				if ver, ok, err = version.FromDir(dir); err != nil {
					return err
				}
			}
			if !ok {
				ver = messages.UnknownVersion
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), ver)
			return err
		},
	}
	cmd.Flags().StringVar(&branch, "branch", "", messages.PluginVersionFlagBranch)
	return cmd
}

// pluginDir returns the directory argument relative to the working directory, or the
// checkout root.
func pluginDir(opts *globalOptions, args []string) (string, error) {
	if len(args) == 1 {
		return filepath.Abs(args[0])
	}
	return opts.rootDir()
}

func newIsNewerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   messages.IsNewerUse,
		Short: messages.IsNewerShort,
		Long:  messages.IsNewerLong,
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if version.IsNewer(args[0], args[1]) {
				return nil
			}
			return &SilentExitError{Code: 1}
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
