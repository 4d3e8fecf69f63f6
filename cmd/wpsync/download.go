package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/wpsync/internal/artifact"
	"github.com/conn-castle/wpsync/internal/installer"
	"github.com/conn-castle/wpsync/internal/messages"
)

// newFetcher is a seam for tests.
var newFetcher = func(s *session, cmd *cobra.Command) installer.Fetcher {
	f := artifact.NewFetcher()
	f.MaxBytes = s.cfg.Download.MaxBytes()
	f.HTTP.Timeout = s.cfg.Download.Timeout()
	f.Progress = cmd.ErrOrStderr()
	f.Logger = s.log
	return f
}

func (s *session) pipeline(cmd *cobra.Command, push bool) *installer.Pipeline {
	return &installer.Pipeline{
		Fetcher:        newFetcher(s, cmd),
		Installer:      &installer.Installer{Store: s.store, Logger: s.log},
		Patterns:       s.patterns,
		SyncFrom:       s.cfg.Git.Target,
		DownloadBase:   s.cfg.WordPress.DownloadBase,
		FreePrefix:     s.cfg.Tags.FreePrefix,
		LicensedPrefix: s.cfg.Tags.LicensedPrefix,
		Push:           push,
		Logger:         s.log,
	}
}

func newDownloadWordPressCmd(opts *globalOptions) *cobra.Command {
	var noPush bool
	cmd := &cobra.Command{
		Use:   messages.DownloadWordPressUse,
		Short: messages.DownloadWordPressShort,
		Args:  usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug, ver, branch := args[0], args[1], args[2]
			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				out, err := s.pipeline(cmd, !noPush).DownloadWordPress(ctx, slug, ver, branch)
				if err != nil {
					return err
				}
				reportInstall(cmd, branch, out, !noPush)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noPush, "no-push", false, messages.FlagNoPushInstall)
	return cmd
}

func newDownloadLicensedCmd(opts *globalOptions) *cobra.Command {
	var noPush bool
	cmd := &cobra.Command{
		Use:   messages.DownloadLicensedUse,
		Short: messages.DownloadLicensedShort,
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, branch := args[0], args[1]
			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				out, err := s.pipeline(cmd, !noPush).DownloadLicensed(ctx, url, branch)
				if err != nil {
					return err
				}
				reportInstall(cmd, branch, out, !noPush)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noPush, "no-push", false, messages.FlagNoPushInstall)
	return cmd
}

func reportInstall(cmd *cobra.Command, branch string, out installer.Outcome, pushed bool) {
	w := cmd.OutOrStdout()
	for _, msg := range out.Changes.Warnings {
		warn(cmd, msg)
	}
	if out.Changes.Empty() {
		_, _ = fmt.Fprintf(w, messages.InstallUpToDateFmt, branch, out.Version)
		return
	}
	_, _ = fmt.Fprintln(w, renderChanges(branch, out.Changes))
	if pushed {
		_, _ = fmt.Fprintf(w, messages.InstallPushedFmt, out.Version, branch)
		return
	}
	_, _ = fmt.Fprintf(w, messages.InstallCommittedFmt, out.Version, branch)
}
