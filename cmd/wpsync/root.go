package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/wpsync/internal/config"
	"github.com/conn-castle/wpsync/internal/gitstore"
	"github.com/conn-castle/wpsync/internal/guard"
	"github.com/conn-castle/wpsync/internal/logger"
	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
	"github.com/conn-castle/wpsync/internal/worktree"
)

var getwd = os.Getwd

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	repo       string
	verbose    bool
	noColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return syncerr.Configf("%s", err.Error())
	})
	cmd.Flags().Bool("version", false, messages.RootVersionFlag)
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", messages.RootFlagConfig)
	flags.StringVar(&opts.repo, "repo", "", messages.RootFlagRepo)
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, messages.RootFlagVerbose)
	flags.BoolVar(&opts.noColor, "no-color", false, messages.RootFlagNoColor)

	cmd.AddCommand(
		newCheckWordPressOrgCmd(opts),
		newCheckLicenseCmd(),
		newDownloadWordPressCmd(opts),
		newDownloadLicensedCmd(opts),
		newMergeCmd(opts),
		newPluginVersionCmd(opts),
		newIsNewerCmd(),
		newComposerCmd(opts),
	)
	return cmd
}

// usageArgs reports an argument-count failure as a configuration error.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return syncerr.Configf("%s", err.Error())
		}
		return nil
	}
}

// rootDir returns the --repo directory, else the checkout holding the working
// directory, else the working directory itself.
func (o *globalOptions) rootDir() (string, error) {
	if strings.TrimSpace(o.repo) != "" {
		return filepath.Abs(o.repo)
	}
	cwd, err := getwd()
	if err != nil {
		return "", err
	}
	root, found, err := worktree.Find(cwd)
	if err != nil || !found {
		return cwd, err
	}
	return root, nil
}

// environment is the configuration and logger shared by every command.
type environment struct {
	root string
	cfg  *config.Config
	log  *slog.Logger
}

func (o *globalOptions) environment(cmd *cobra.Command) (*environment, error) {
	root, err := o.rootDir()
	if err != nil {
		return nil, err
	}
	path, explicit, err := config.ResolvePath(o.configPath, root)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return nil, err
	}
	log := logger.New(cmd.ErrOrStderr(), o.verbose)
	log.Debug("config loaded", "path", path, "explicit", explicit)
	return &environment{root: root, cfg: cfg, log: log}, nil
}

// session is an environment bound to a locked git checkout.
type session struct {
	*environment
	tree     *worktree.Tree
	store    *gitstore.Store
	patterns guard.Patterns
}

func (o *globalOptions) session(cmd *cobra.Command) (*session, error) {
	env, err := o.environment(cmd)
	if err != nil {
		return nil, err
	}
	return env.session()
}

func (env *environment) session() (*session, error) {
	tree, err := worktree.Open(env.root)
	if err != nil {
		return nil, err
	}
	patterns, err := env.cfg.Patterns(os.Getenv)
	if err != nil {
		return nil, err
	}
	runner, err := gitstore.NewRunner(tree.Root, env.log)
	if err != nil {
		return nil, err
	}
	store := gitstore.New(runner, gitstore.Options{
		Remote:      env.cfg.Git.Remote,
		AuthorName:  env.cfg.Git.AuthorName,
		AuthorEmail: env.cfg.Git.AuthorEmail,
	})
	return &session{environment: env, tree: tree, store: store, patterns: patterns}, nil
}

// locked runs fn while holding the checkout lock.
func (s *session) locked(ctx context.Context, fn func(ctx context.Context, s *session) error) error {
	s.log.Debug("checkout", "root", s.tree.Root, "locked_paths", strings.Join(s.patterns.List(), ","))
	return s.tree.WithLock(func() error {
		return fn(ctx, s)
	})
}

// withSession opens the checkout and runs fn while holding its lock.
func (o *globalOptions) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	s, err := o.session(cmd)
	if err != nil {
		return err
	}
	return s.locked(cmd.Context(), fn)
}

// warn prints a yellow warning line to stderr.
func warn(cmd *cobra.Command, msg string) {
	_, _ = color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), fmt.Sprintf(messages.WarningLineFmt, msg))
}
