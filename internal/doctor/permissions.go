package doctor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"

	"github.com/PolarWolf314/pkgdoctor/internal/utils"
)

const (
	accessR = utils.AccessRead
	accessW = utils.AccessWrite
	accessX = utils.AccessExec
)

// auditRoot is one tree the permission audit walks.
type auditRoot struct {
	path      string
	own       bool
	mask      utils.AccessMode
	missingOK bool
}

// violation is one problem found under a root.
type violation struct {
	path   string
	reason string
}

func (v violation) String() string {
	return v.path + ": " + v.reason
}

// inspection is what examining one entry produced.
type inspection struct {
	violations []violation
	children   []string
}

func auditCheck(root auditRoot) func(context.Context, *Runner, *runState) Result {
	return func(ctx context.Context, r *Runner, _ *runState) Result {
		if !r.Runtime.POSIX {
			return Result{
				Status:  StatusOK,
				Message: "skipped on this platform",
				Skipped: true,
				Detail:  map[string]any{"reason": "file ownership is not supported on this platform"},
			}
		}
		if r.FS == nil {
			return Result{Status: StatusError, Message: "no filesystem configured"}
		}
		if root.path == "" {
			return Result{Status: StatusOK, Message: "no directory configured", Skipped: true}
		}

		violations, err := r.audit(ctx, root)
		if err != nil {
			return Result{Status: StatusError, Message: err.Error()}
		}
		if len(violations) == 0 {
			return Result{Status: StatusOK, Message: root.path}
		}

		message := "Check the permissions of files in " + root.path
		suggestion := fmt.Sprintf("Grant %s access on %s", root.mask, root.path)
		if root.own {
			message += " (should be owned by current user)"
			suggestion = fmt.Sprintf("Take ownership of %s and grant %s access", root.path, root.mask)
		}
		listed := make([]string, len(violations))
		for i, v := range violations {
			listed[i] = v.String()
		}
		return Result{
			Status:     StatusError,
			Message:    message,
			Suggestion: suggestion,
			Detail:     map[string]any{"violations": listed},
		}
	}
}

// audit walks root breadth first. Each level's entries are inspected by a
// bounded pool of workers; the next level and all violations are sorted
// by path so the outcome does not depend on scheduling.
func (r *Runner) audit(ctx context.Context, root auditRoot) ([]violation, error) {
	var violations []violation
	level := []string{filepath.Clean(root.path)}

	for len(level) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		inspected := r.inspectLevel(root, level)

		var next []string
		for _, in := range inspected {
			violations = append(violations, in.violations...)
			next = append(next, in.children...)
		}
		sort.Strings(next)
		level = next
	}

	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].path < violations[j].path
	})
	return violations, nil
}

func (r *Runner) inspectLevel(root auditRoot, paths []string) []inspection {
	results := make([]inspection, len(paths))
	jobs := make(chan int)

	workers := r.workers()
	if workers > len(paths) {
		workers = len(paths)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = r.inspect(root, paths[i])
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// inspect checks a single entry. Symbolic links are judged by their
// target and never descended into.
func (r *Runner) inspect(root auditRoot, path string) inspection {
	var out inspection
	fail := func(reason string) inspection {
		out.violations = append(out.violations, violation{path: path, reason: reason})
		return out
	}

	st, err := r.FS.Lstat(path)
	if err != nil {
		if root.missingOK && errors.Is(err, fs.ErrNotExist) {
			return out
		}
		return fail(fmt.Sprintf("error getting info: %v", err))
	}

	if st.IsSymlink() {
		target, err := r.FS.Stat(path)
		if err != nil {
			return fail("broken symbolic link")
		}
		if target.IsDir() || target.IsRegular() {
			if err := r.FS.Access(path, accessR); err != nil {
				return fail("missing read permission on link target")
			}
		}
		return out
	}

	if root.own && (st.UID != r.Runtime.UID || st.GID != r.Runtime.GID) {
		fail(fmt.Sprintf("owned by %d:%d, should be owned by current user (%d:%d)", st.UID, st.GID, r.Runtime.UID, r.Runtime.GID))
	}

	if !st.IsDir() && !st.IsRegular() {
		return out
	}

	mask := root.mask
	if st.IsDir() && mask&accessR != 0 {
		mask |= accessX
	}
	if err := r.FS.Access(path, mask); err != nil {
		return fail("missing " + mask.String() + " permission")
	}

	if st.IsDir() {
		names, err := r.FS.ReadDir(path)
		if err != nil {
			return fail(fmt.Sprintf("error reading directory: %v", err))
		}
		for _, name := range names {
			out.children = append(out.children, filepath.Join(path, name))
		}
	}
	return out
}
