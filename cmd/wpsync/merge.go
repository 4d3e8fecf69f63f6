package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conn-castle/wpsync/internal/changes"
	"github.com/conn-castle/wpsync/internal/merge"
	"github.com/conn-castle/wpsync/internal/messages"
)

func newMergeCmd(opts *globalOptions) *cobra.Command {
	var (
		target   string
		noPush   bool
		tag      string
		showDiff bool
	)
	cmd := &cobra.Command{
		Use:   messages.MergeUse,
		Short: messages.MergeShort,
		Long:  messages.MergeLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.environment(cmd)
			if err != nil {
				return err
			}
			if target == "" {
				target = env.cfg.Git.Target
			}
			plan := merge.Plan{Branches: args, Target: target, Push: !noPush, Tag: tag}
			if err := plan.Validate(); err != nil {
				return err
			}
			s, err := env.session()
			if err != nil {
				return err
			}
			return s.locked(cmd.Context(), func(ctx context.Context, s *session) error {
				m := &merge.Merger{Store: s.store, Logger: s.log}
				res, err := m.Merge(ctx, plan, s.patterns)
				if err != nil {
					return err
				}
				cs := res.Changes
				for _, msg := range cs.Warnings {
					warn(cmd, msg)
				}
				w := cmd.OutOrStdout()
				if cs.Empty() {
					_, _ = fmt.Fprintf(w, messages.MergeUpToDateFmt, plan.Target)
					return nil
				}
				_, _ = fmt.Fprintln(w, renderChanges(plan.Target, cs))
				if showDiff {
					if err := printDiffs(ctx, cmd, s, res); err != nil {
						return err
					}
				}
				if plan.Push {
					_, _ = fmt.Fprintf(w, messages.MergePushedFmt, plan.Target)
				} else {
					_, _ = fmt.Fprintf(w, messages.MergeLeftUncommittedFmt, plan.Target)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&target, "target", "", messages.MergeFlagTarget)
	cmd.Flags().BoolVar(&noPush, "no-push", false, messages.MergeFlagNoPush)
	cmd.Flags().StringVar(&tag, "tag", "", messages.MergeFlagTag)
	cmd.Flags().BoolVar(&showDiff, "diff", false, messages.MergeFlagDiff)
	return cmd
}

// printDiffs prints a unified diff of every modified file against the pre-merge commit.
func printDiffs(ctx context.Context, cmd *cobra.Command, s *session, res merge.Result) error {
	if res.Base == "" {
		return nil
	}
	w := cmd.OutOrStdout()
	for _, path := range res.Changes.Modified {
		before, err := s.store.ReadFile(ctx, res.Base, path)
		if err != nil {
			return err
		}
		after, err := os.ReadFile(filepath.Join(s.tree.Root, filepath.FromSlash(path)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if diff := changes.Preview(path, string(before), string(after)); diff != "" {
			_, _ = fmt.Fprint(w, diff)
		}
	}
	return nil
}
