package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/dustin/go-humanize"

	kerrors "github.com/PolarWolf314/pkgdoctor/internal/errors"
	"github.com/PolarWolf314/pkgdoctor/internal/registry"
	"github.com/PolarWolf314/pkgdoctor/internal/utils"
)

// proxyError validates both proxy settings before anything touches the
// network.
func (r *Runner) proxyError() error {
	if err := registry.ValidateProxy(r.Settings.Proxy); err != nil {
		return err
	}
	return registry.ValidateProxy(r.Settings.HTTPSProxy)
}

func proxyInvalid(err error) Result {
	return Result{
		Status:     StatusError,
		Message:    "proxy invalid: " + err.Error(),
		Suggestion: "Fix the proxy and https-proxy settings",
		Detail:     map[string]any{"cause": err.Error()},
	}
}

func networkFailure(err error) Result {
	result := Result{Status: StatusError, Message: err.Error()}
	if regErr, ok := kerrors.AsRegistryError(err); ok {
		detail := map[string]any{"kind": regErr.Kind.String()}
		if regErr.StatusCode != 0 {
			detail["statusCode"] = regErr.StatusCode
		}
		if regErr.HasCode() {
			detail["code"] = regErr.Code
		}
		result.Detail = detail
	}
	return result
}

func checkPing(ctx context.Context, r *Runner, st *runState) Result {
	if st.proxyErr != nil {
		return proxyInvalid(st.proxyErr)
	}
	if r.Registry == nil {
		return Result{Status: StatusError, Message: "no registry client configured"}
	}

	err := r.Registry.Ping(ctx)
	st.pingRan = true
	st.pingErr = err
	if err != nil {
		result := networkFailure(err)
		result.Suggestion = "Check your internet connection and that " + r.Settings.Registry + " is reachable"
		return result
	}
	return Result{Status: StatusOK, Message: "ok"}
}

func checkNpmVersion(ctx context.Context, r *Runner, st *runState) Result {
	if st.proxyErr != nil {
		return proxyInvalid(st.proxyErr)
	}
	if st.pingRan && st.pingErr != nil {
		return networkFailure(st.pingErr)
	}
	if r.Registry == nil {
		return Result{Status: StatusError, Message: "no registry client configured"}
	}

	current, err := parseVersion("npm", r.Runtime.NpmVersion)
	if err != nil {
		return Result{Status: StatusError, Message: err.Error(), Suggestion: "Install npm and ensure it's in your PATH."}
	}

	packument, err := r.Registry.Packument(ctx, r.Settings.PackageName)
	if err != nil {
		return networkFailure(err)
	}
	latestTag, err := packument.Latest()
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}
	latest, err := parseVersion(r.Settings.PackageName+" latest", latestTag)
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}

	result := Result{
		Status:  StatusOK,
		Message: fmt.Sprintf("current: v%s, latest: v%s", current, latest),
		Detail:  map[string]any{"current": "v" + current.String(), "latest": "v" + latest.String()},
	}
	if current.LessThan(latest) {
		result.Status = StatusError
		result.Suggestion = fmt.Sprintf("Use npm v%s", latest)
	}
	return result
}

func checkNodeVersion(ctx context.Context, r *Runner, st *runState) Result {
	if st.proxyErr != nil {
		return proxyInvalid(st.proxyErr)
	}
	if r.Index == nil {
		return Result{Status: StatusError, Message: "no release index client configured"}
	}

	current, err := parseVersion("node", r.Runtime.NodeVersion)
	if err != nil {
		return Result{Status: StatusError, Message: err.Error(), Suggestion: "Install node and ensure it's in your PATH."}
	}

	releases, err := r.Index.FetchIndex(ctx, r.Settings.NodeIndexURL)
	if err != nil {
		return networkFailure(err)
	}

	line, err := semver.NewConstraint("^" + current.String())
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}

	var maxCurrent, maxLTS *semver.Version
	var currentRelease *registry.Release
	for i := range releases {
		v, err := semver.NewVersion(releases[i].Version)
		if err != nil {
			continue
		}
		if v.Equal(current) {
			currentRelease = &releases[i]
		}
		if releases[i].IsLTS() && (maxLTS == nil || v.GreaterThan(maxLTS)) {
			maxLTS = v
		}
		if line.Check(v) && (maxCurrent == nil || v.GreaterThan(maxCurrent)) {
			maxCurrent = v
		}
	}

	recommended := current
	for _, candidate := range []*semver.Version{maxCurrent, maxLTS} {
		if candidate != nil && candidate.GreaterThan(recommended) {
			recommended = candidate
		}
	}

	detail := map[string]any{"current": "v" + current.String(), "recommended": "v" + recommended.String()}
	if recommended.GreaterThan(current) {
		return Result{
			Status:     StatusError,
			Message:    fmt.Sprintf("Use node v%s (current: v%s)", recommended, current),
			Suggestion: fmt.Sprintf("Use node v%s", recommended),
			Detail:     detail,
		}
	}

	if currentRelease == nil || !currentRelease.IsLTS() {
		status := StatusError
		if r.Settings.LTSPolicy == LTSPolicyWarn {
			status = StatusWarn
		}
		suggestion := "Use an LTS release of node"
		if maxLTS != nil {
			suggestion = fmt.Sprintf("Use node v%s (LTS)", maxLTS)
		}
		return Result{
			Status:     status,
			Message:    fmt.Sprintf("current: v%s is not an LTS release, recommended: v%s", current, recommended),
			Suggestion: suggestion,
			Detail:     detail,
		}
	}

	detail["lts"] = currentRelease.LTS
	return Result{
		Status:  StatusOK,
		Message: fmt.Sprintf("current: v%s (%s), recommended: v%s", current, currentRelease.LTS, recommended),
		Detail:  detail,
	}
}

func parseVersion(what, raw string) (*semver.Version, error) {
	if raw == "" {
		return nil, fmt.Errorf("unable to determine %s version", what)
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s version %q: %v", what, raw, err)
	}
	return v, nil
}

func checkProxy(_ context.Context, r *Runner, st *runState) Result {
	if st.proxyErr != nil {
		return Result{
			Status:     StatusError,
			Message:    st.proxyErr.Error(),
			Suggestion: "Fix the proxy and https-proxy settings",
		}
	}

	var used []string
	if r.Settings.Proxy != "" {
		used = append(used, r.Settings.Proxy)
	}
	if r.Settings.HTTPSProxy != "" && r.Settings.HTTPSProxy != r.Settings.Proxy {
		used = append(used, r.Settings.HTTPSProxy)
	}
	if len(used) == 0 {
		return Result{Status: StatusOK, Message: "no proxy configured"}
	}
	return Result{Status: StatusOK, Message: "using " + strings.Join(used, ", ")}
}

func checkRegistryConfig(_ context.Context, r *Runner, _ *runState) Result {
	configured := strings.TrimSuffix(r.Settings.Registry, "/")
	if configured == strings.TrimSuffix(r.Settings.DefaultRegistry, "/") {
		return Result{Status: StatusOK, Message: "using default registry (" + r.Settings.DefaultRegistry + ")"}
	}
	return Result{
		Status:     StatusError,
		Message:    "using non-default registry (" + r.Settings.Registry + ")",
		Suggestion: fmt.Sprintf("Try \"npm config set registry=%s\"", r.Settings.DefaultRegistry),
	}
}

func checkGit(_ context.Context, r *Runner, _ *runState) Result {
	if r.Resolver == nil {
		return Result{Status: StatusError, Message: "no executable resolver configured"}
	}
	path, err := r.Resolver.Resolve("git")
	if err != nil {
		return Result{
			Status:     StatusError,
			Message:    err.Error(),
			Suggestion: "Install git and ensure it's in your PATH.",
		}
	}
	return Result{Status: StatusOK, Message: path}
}

func checkGlobalBinPath(_ context.Context, r *Runner, _ *runState) Result {
	bin := r.Settings.GlobalBin
	if utils.InPathList(bin, r.Runtime.PathEnv) {
		return Result{Status: StatusOK, Message: bin}
	}
	return Result{
		Status:     StatusWarn,
		Message:    bin + " is not in PATH",
		Suggestion: "Add " + bin + " to your PATH to run globally installed packages",
	}
}

func checkCache(ctx context.Context, r *Runner, _ *runState) Result {
	if r.Cache == nil {
		return Result{Status: StatusError, Message: "no cache verifier configured"}
	}
	stats, err := r.Cache.Verify(ctx)
	if err != nil {
		return Result{
			Status:     StatusError,
			Message:    err.Error(),
			Suggestion: "Check the permissions of " + r.Settings.CacheRoot,
		}
	}

	detail := map[string]any{
		"totalEntries":    stats.TotalEntries,
		"rejectedEntries": stats.RejectedEntries,
		"verifiedContent": stats.VerifiedContent,
		"badContentCount": stats.BadContentCount,
		"reclaimedCount":  stats.ReclaimedCount,
		"missingContent":  stats.MissingContent,
		"keptSize":        humanize.Bytes(uint64(stats.KeptSize)),
	}
	if stats.Healthy() {
		return Result{
			Status:  StatusOK,
			Message: fmt.Sprintf("verified %d tarballs", stats.VerifiedContent),
			Detail:  detail,
		}
	}

	var problems []string
	if stats.BadContentCount > 0 {
		problems = append(problems, fmt.Sprintf("Corrupted content: %d", stats.BadContentCount))
	}
	if stats.ReclaimedCount > 0 {
		problems = append(problems, fmt.Sprintf("Content garbage-collectable: %d (%s)", stats.ReclaimedCount, humanize.Bytes(uint64(stats.ReclaimedSize))))
	}
	if stats.MissingContent > 0 {
		problems = append(problems, fmt.Sprintf("Missing content: %d", stats.MissingContent))
	}
	return Result{
		Status:     StatusWarn,
		Message:    strings.Join(problems, ", "),
		Suggestion: "Run \"npm cache verify\" to repair the cache",
		Detail:     detail,
	}
}
