package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goblinsan/gh-release-milestones/pkg/config"
	"github.com/goblinsan/gh-release-milestones/pkg/engine"
	"github.com/goblinsan/gh-release-milestones/pkg/github"
	"github.com/goblinsan/gh-release-milestones/pkg/logging"
	"github.com/goblinsan/gh-release-milestones/pkg/types"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// runner holds what one assign or reconcile run needs: the loaded config, the
// GitHub client and a fresh issue cache.
type runner struct {
	cfg      *config.Config
	repo     engine.Repository
	client   *github.Client
	opts     engine.Options
	resolver *engine.Resolver
}

// newRunner loads and checks the configuration and connects to GitHub. Every
// run gets its own run_id and its own cache.
func newRunner(dryRun bool) (*runner, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if problems := config.Validate(cfg, true); len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	owner, name, err := cfg.OwnerRepo()
	if err != nil {
		return nil, err
	}

	logging.SetupLogger(os.Stderr, logging.LogLevel(cfg.LogLevel))
	logging.With("run_id", uuid.NewString())
	logging.Debug("loaded configuration", "repository", cfg.Repository, "token", logging.MaskSensitive(cfg.Token), "dry_run", dryRun)

	client, err := github.NewClient(cfg.Token,
		github.WithRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		github.WithMaxRetries(cfg.RateLimit.MaxRetries),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create github client: %w", err)
	}

	repo := engine.Repository{Owner: owner, Name: name}
	opts := engine.OptionsFromConfig(cfg, dryRun)
	return &runner{
		cfg:      cfg,
		repo:     repo,
		client:   client,
		opts:     opts,
		resolver: engine.NewResolver(engine.NewIssueCache(client, repo), opts),
	}, nil
}

// withTimeout bounds a run by the --timeout flag.
func withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

func runAssign(ctx context.Context, req types.AssignRequest) (*engine.AssignReport, error) {
	if req.Branch == "" {
		return nil, fmt.Errorf("branch is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one commit message is required")
	}

	r, err := newRunner(req.DryRun)
	if err != nil {
		return nil, err
	}
	assigner := engine.NewAssigner(r.client, r.repo, r.resolver, r.opts)
	return assigner.AssignForCommits(ctx, req.Branch, req.Messages)
}

// reconcileResult is what reconcile prints: the release report and, unless
// filing was skipped, the board items created for it.
type reconcileResult struct {
	Release *engine.ReleaseReport `json:"release" yaml:"release"`
	Filed   *engine.FileReport    `json:"filed,omitempty" yaml:"filed,omitempty"`
}

func (r *reconcileResult) WriteText(w io.Writer) error {
	if err := r.Release.WriteText(w); err != nil {
		return err
	}
	if r.Filed == nil {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n%s\n", r.Filed)
	return err
}

func runReconcile(ctx context.Context, req types.ReconcileRequest) (*reconcileResult, error) {
	if req.Version == "" {
		return nil, fmt.Errorf("version is required")
	}
	if req.Commit == "" {
		return nil, fmt.Errorf("commit is required")
	}

	r, err := newRunner(req.DryRun)
	if err != nil {
		return nil, err
	}
	base := req.Base
	if base == "" {
		base = r.cfg.BaseRef
	}

	reconciler := engine.NewReconciler(r.client, r.repo, r.resolver, r.opts)
	report, err := reconciler.Compute(ctx, req.Version, req.Commit, base)
	if err != nil {
		return nil, err
	}
	result := &reconcileResult{Release: report}
	if !req.File {
		return result, nil
	}

	filed, err := reconciler.File(ctx, report)
	result.Filed = filed
	if err != nil {
		return result, err
	}
	return result, nil
}
