package doctor

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	kerrors "github.com/PolarWolf314/pkgdoctor/internal/errors"
)

// Check groups selectable from the command line.
const (
	GroupPing        = "ping"
	GroupRegistry    = "registry"
	GroupVersions    = "versions"
	GroupEnvironment = "environment"
	GroupPermissions = "permissions"
	GroupCache       = "cache"
)

// Groups lists every group in canonical order.
func Groups() []string {
	return []string{GroupPing, GroupRegistry, GroupVersions, GroupEnvironment, GroupPermissions, GroupCache}
}

// ValidateGroups rejects names that are not a known group.
func ValidateGroups(names []string) error {
	known := make(map[string]bool)
	for _, g := range Groups() {
		known[g] = true
	}
	for _, name := range names {
		if !known[name] {
			return fmt.Errorf("%w: %q (valid checks: %s)", kerrors.ErrUnknownCheck, name, strings.Join(Groups(), ", "))
		}
	}
	return nil
}

// LTSPolicy decides how a node release outside any LTS line is reported.
type LTSPolicy string

const (
	LTSPolicyError LTSPolicy = "error"
	LTSPolicyWarn  LTSPolicy = "warn"
)

// Settings are the configured values the checks compare against.
type Settings struct {
	Registry        string
	DefaultRegistry string
	Proxy           string
	HTTPSProxy      string
	PackageName     string
	NodeIndexURL    string

	CacheRoot string
	LocalDir  string
	LocalBin  string
	GlobalDir string
	GlobalBin string

	LTSPolicy LTSPolicy
	// Workers bounds the permission audit's concurrency. Zero means GOMAXPROCS.
	Workers int
}

// Runner executes the checks in canonical order. Every collaborator is
// injected so tests can substitute fakes.
type Runner struct {
	Registry Registry
	Index    VersionIndex
	Resolver Resolver
	Cache    CacheVerifier
	FS       Filesystem

	Runtime  RuntimeContext
	Settings Settings
}

// Options selects which checks run.
type Options struct {
	// Groups restricts the run to these groups. Empty runs everything.
	Groups []string
}

// runState carries outcomes between checks within one run.
type runState struct {
	proxyErr error
	pingRan  bool
	pingErr  error
}

type check struct {
	name  string
	title string
	group string
	run   func(ctx context.Context, r *Runner, st *runState) Result
}

func (r *Runner) checks() []check {
	return []check{
		{"ping", "Connecting to the registry", GroupPing, checkPing},
		{"npm-version", "Checking npm version", GroupVersions, checkNpmVersion},
		{"node-version", "Checking node version", GroupVersions, checkNodeVersion},
		{"proxy", "Checking configured proxy", GroupEnvironment, checkProxy},
		{"registry-config", "Checking configured npm registry", GroupRegistry, checkRegistryConfig},
		{"git", "Checking for git executable in PATH", GroupEnvironment, checkGit},
		{"global-bin-path", "Checking for global bin folder in PATH", GroupEnvironment, checkGlobalBinPath},
		{"permissions-cache", "Checking permissions on cached files", GroupPermissions, auditCheck(auditRoot{path: r.Settings.CacheRoot, own: true, mask: accessR, missingOK: true})},
		{"permissions-local", "Checking permissions on local node_modules", GroupPermissions, auditCheck(auditRoot{path: r.Settings.LocalDir, own: true, mask: accessR | accessW, missingOK: true})},
		{"permissions-local-bin", "Checking permissions on local bin folder", GroupPermissions, auditCheck(auditRoot{path: r.Settings.LocalBin, mask: accessR | accessW | accessX, missingOK: true})},
		{"permissions-global", "Checking permissions on global node_modules", GroupPermissions, auditCheck(auditRoot{path: r.Settings.GlobalDir, mask: accessR})},
		{"permissions-global-bin", "Checking permissions on global bin folder", GroupPermissions, auditCheck(auditRoot{path: r.Settings.GlobalBin, mask: accessX})},
		{"cache", "Verifying cache contents", GroupCache, checkCache},
	}
}

// Run executes the selected checks and returns the report. It never
// fails: every check yields exactly one result, and a panicking check is
// reported as an error. Run stops early only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, opts Options) *Report {
	selected := make(map[string]bool)
	for _, g := range opts.Groups {
		selected[g] = true
	}

	st := &runState{proxyErr: r.proxyError()}

	var results []Result
	for _, c := range r.checks() {
		if len(selected) > 0 && !selected[c.group] {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.runCheck(ctx, c, st))
	}
	return NewReport(results)
}

func (r *Runner) runCheck(ctx context.Context, c check, st *runState) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = Result{
				Status:  StatusError,
				Message: fmt.Sprintf("check failed unexpectedly: %v", rec),
			}
		}
		result.Name = c.name
		result.Title = c.title
		result.Group = c.group
	}()
	return c.run(ctx, r, st)
}

func (r *Runner) workers() int {
	if r.Settings.Workers > 0 {
		return r.Settings.Workers
	}
	return runtime.GOMAXPROCS(0)
}
