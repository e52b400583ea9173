package workflows

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/PolarWolf314/pkgdoctor/internal/audit"
	"github.com/PolarWolf314/pkgdoctor/internal/cache"
	"github.com/PolarWolf314/pkgdoctor/internal/configs"
	"github.com/PolarWolf314/pkgdoctor/internal/doctor"
	kerrors "github.com/PolarWolf314/pkgdoctor/internal/errors"
	logger "github.com/PolarWolf314/pkgdoctor/internal/logging"
	"github.com/PolarWolf314/pkgdoctor/internal/registry"
	"github.com/PolarWolf314/pkgdoctor/internal/utils"
)

// DoctorOptions configures the doctor workflow.
type DoctorOptions struct {
	// Config is the effective configuration. Required.
	Config *configs.Config

	// Groups restricts the run to these check groups. Empty runs all.
	Groups []string

	// NpmVersion and NodeVersion override version discovery. When empty
	// the versions are read from "npm --version" and "node --version".
	NpmVersion  string
	NodeVersion string

	// Runtime overrides the description of the current process.
	Runtime *doctor.RuntimeContext

	// Version is this tool's version, sent in the User-Agent.
	Version string

	// HTTPClient overrides the registry transport.
	HTTPClient *http.Client

	// Workers bounds the permission audit's concurrency.
	Workers int

	Logger logger.Logger
}

// DoctorResult contains the outcome of a doctor run.
type DoctorResult struct {
	Report *doctor.Report

	// Entry is the run log record. It is filled in even when the run log
	// is disabled or could not be written.
	Entry audit.Entry
}

// Doctor runs the selected health checks against the configured
// registry, cache and install directories and records the run.
//
// Returns ErrUnknownCheck if a group name is not recognised.
// Returns ErrInvalidConfig if the configuration is missing or the
// registry URL is unusable. Failing checks are not errors: they are
// reported in the result.
func Doctor(ctx context.Context, opts DoctorOptions) (*DoctorResult, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("%w: no configuration loaded", kerrors.ErrInvalidConfig)
	}
	if err := doctor.ValidateGroups(opts.Groups); err != nil {
		return nil, err
	}
	log := opts.Logger

	rt := doctor.CurrentRuntime()
	if opts.Runtime != nil {
		rt = *opts.Runtime
	}
	if opts.NpmVersion != "" {
		rt.NpmVersion = opts.NpmVersion
	}
	if opts.NodeVersion != "" {
		rt.NodeVersion = opts.NodeVersion
	}
	if wantsGroup(opts.Groups, doctor.GroupVersions) {
		rt.NpmVersion = discoverVersion(ctx, log, "npm", rt.NpmVersion)
		rt.NodeVersion = discoverVersion(ctx, log, "node", rt.NodeVersion)
	}

	runner := &doctor.Runner{
		Resolver: utils.PathResolver{},
		Cache:    cache.NewStore(cfg.CacheDir()),
		FS:       utils.OSFilesystem{},
		Runtime:  rt,
		Settings: doctor.Settings{
			Registry:        cfg.Registry,
			DefaultRegistry: configs.DefaultRegistry,
			Proxy:           cfg.Proxy,
			HTTPSProxy:      cfg.HTTPSProxy,
			PackageName:     cfg.PackageName,
			NodeIndexURL:    cfg.NodeIndexURL(),
			CacheRoot:       cfg.CacheDir(),
			LocalDir:        cfg.LocalDir(),
			LocalBin:        cfg.LocalBin(),
			GlobalDir:       cfg.GlobalDir(),
			GlobalBin:       cfg.GlobalBin(),
			LTSPolicy:       doctor.LTSPolicy(cfg.NodeLTSPolicy),
			Workers:         opts.Workers,
		},
	}

	client, err := registry.New(registry.Options{
		Registry:   cfg.Registry,
		Token:      cfg.Token,
		Proxy:      cfg.Proxy,
		HTTPSProxy: cfg.HTTPSProxy,
		UserAgent:  userAgent(opts.Version, rt.NodeVersion),
		HTTPClient: opts.HTTPClient,
	})
	switch {
	case errors.Is(err, kerrors.ErrInvalidProxy):
		// The proxy check reports this and the network checks are skipped.
		log.Debugf("not contacting the registry: %v", err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidConfig, err)
	default:
		runner.Registry = client
		runner.Index = client
	}

	log.Debugf("running checks for registry %s with cache %s", cfg.Registry, cfg.CacheDir())
	report := runner.Run(ctx, doctor.Options{Groups: opts.Groups})

	runLog := audit.RunLog{Dir: cfg.LogsDir(), Max: cfg.LogsMax}
	entry, err := runLog.Append(audit.FromReport(report, opts.Groups))
	if err != nil {
		log.Debugf("failed to write run log %s: %v", runLog.Path(), err)
	}

	return &DoctorResult{Report: report, Entry: entry}, nil
}

func wantsGroup(groups []string, group string) bool {
	if len(groups) == 0 {
		return true
	}
	for _, g := range groups {
		if g == group {
			return true
		}
	}
	return false
}

// discoverVersion returns current, or the version reported by binary when
// current is empty. A failure leaves the version empty so the check
// reports it.
func discoverVersion(ctx context.Context, log logger.Logger, binary, current string) string {
	if current != "" {
		return current
	}
	version, err := utils.DiscoverVersion(ctx, binary)
	if err != nil {
		log.Debugf("could not determine %s version: %v", binary, err)
		return ""
	}
	return version
}

func userAgent(version, nodeVersion string) string {
	if version == "" {
		version = "dev"
	}
	ua := "pkgdoctor/" + version
	if nodeVersion != "" {
		ua += " node/" + nodeVersion
	}
	return fmt.Sprintf("%s %s %s", ua, runtime.GOOS, runtime.GOARCH)
}
