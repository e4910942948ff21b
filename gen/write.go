package gen

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"

	"github.com/acksell/blueprint/dynamodb/schema"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
)

// WriteOptions configures Write.
type WriteOptions struct {
	Fs afero.Fs
	// Dir is the output directory.
	Dir string
	// Manifest, if set, skips files whose content is unchanged since the
	// last run and removes files an earlier run wrote that the same target
	// no longer renders.
	Manifest *Manifest
	// Targets that were rendered. Only files of these targets are removed
	// as stale. Empty means the targets of the written artifacts.
	Targets []Target
	// FailOnBreaking aborts before anything is written when the rendered
	// schema breaks the one found in Dir.
	FailOnBreaking bool
	// Logger defaults to a null logger.
	Logger hclog.Logger
}

// Result summarizes a Write.
type Result struct {
	Written   []string
	Unchanged []string
	Removed   []string
	// Breaking lists the incompatible storage changes against the schema
	// file found in the output directory.
	Breaking []schema.Change
}

// BreakingChangeError is returned by Write when FailOnBreaking is set and the
// schema changed incompatibly.
type BreakingChangeError struct {
	Changes []schema.Change
}

func (e *BreakingChangeError) Error() string {
	if len(e.Changes) == 1 {
		return "breaking schema change: " + e.Changes[0].String()
	}
	return fmt.Sprintf("%d breaking schema changes, first: %s", len(e.Changes), e.Changes[0])
}

// Write writes artifacts below opts.Dir.
func Write(artifacts []Artifact, opts WriteOptions) (Result, error) {
	if opts.Fs == nil {
		return Result{}, fmt.Errorf("no filesystem configured")
	}
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	var res Result

	breaking, err := breakingChanges(opts.Fs, opts.Dir, artifacts)
	if err != nil {
		return res, err
	}
	for _, c := range breaking {
		log.Warn("breaking schema change", "change", c.String())
	}
	res.Breaking = breaking
	if opts.FailOnBreaking && len(breaking) > 0 {
		return res, &BreakingChangeError{Changes: breaking}
	}

	rendered := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		rendered[a.Path] = true
		name := filepath.Join(opts.Dir, filepath.FromSlash(a.Path))
		hash := contentHash(a.Content)

		if opts.Manifest != nil {
			unchanged, err := isUnchanged(opts.Fs, opts.Manifest, a.Path, name, hash)
			if err != nil {
				return res, err
			}
			if unchanged {
				log.Debug("unchanged", "path", a.Path)
				res.Unchanged = append(res.Unchanged, a.Path)
				continue
			}
		}

		if err := opts.Fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			return res, fmt.Errorf("creating directory for %s: %w", a.Path, err)
		}
		if err := afero.WriteFile(opts.Fs, name, a.Content, 0o644); err != nil {
			return res, fmt.Errorf("writing %s: %w", a.Path, err)
		}
		if opts.Manifest != nil {
			if err := opts.Manifest.Put(a.Path, Entry{Hash: hash, Target: a.Target}); err != nil {
				return res, err
			}
		}
		log.Debug("wrote", "path", a.Path, "target", a.Target, "bytes", len(a.Content))
		res.Written = append(res.Written, a.Path)
	}

	if opts.Manifest != nil {
		removed, err := removeStale(opts.Fs, opts.Manifest, opts.Dir, rendered, renderedTargets(opts.Targets, artifacts))
		if err != nil {
			return res, err
		}
		for _, p := range removed {
			log.Debug("removed", "path", p)
		}
		res.Removed = removed
	}

	log.Info("generated", "dir", opts.Dir, "written", len(res.Written), "unchanged", len(res.Unchanged), "removed", len(res.Removed))
	return res, nil
}

func isUnchanged(afs afero.Fs, m *Manifest, p, name string, hash uint64) (bool, error) {
	prev, ok, err := m.Get(p)
	if err != nil || !ok || prev.Hash != hash {
		return false, err
	}
	exists, err := afero.Exists(afs, name)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", p, err)
	}
	return exists, nil
}

func renderedTargets(targets []Target, artifacts []Artifact) map[Target]bool {
	out := map[Target]bool{}
	for _, t := range targets {
		out[t] = true
	}
	if len(out) == 0 {
		for _, a := range artifacts {
			out[a.Target] = true
		}
	}
	return out
}

// removeStale removes the recorded files of the rendered targets that this
// run no longer produced. Files of other targets are left alone.
func removeStale(afs afero.Fs, m *Manifest, dir string, rendered map[string]bool, targets map[Target]bool) ([]string, error) {
	entries, err := m.Entries()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for p, e := range entries {
		if !rendered[p] && targets[e.Target] {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var removed []string
	for _, p := range paths {
		err := afs.Remove(filepath.Join(dir, filepath.FromSlash(p)))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("removing %s: %w", p, err)
		}
		if err := m.Delete(p); err != nil {
			return removed, err
		}
		removed = append(removed, p)
	}
	return removed, nil
}

// breakingChanges compares the rendered schema with the one already in dir.
// Without either there is nothing to compare.
func breakingChanges(afs afero.Fs, dir string, artifacts []Artifact) ([]schema.Change, error) {
	var next []byte
	for _, a := range artifacts {
		if a.Target == TargetSchema && path.Base(a.Path) == schema.FileName {
			next = a.Content
		}
	}
	if next == nil {
		return nil, nil
	}
	prevData, err := afero.ReadFile(afs, filepath.Join(dir, schema.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading previous schema: %w", err)
	}
	prev, err := schema.Unmarshal(prevData)
	if err != nil {
		return nil, fmt.Errorf("previous schema: %w", err)
	}
	cur, err := schema.Unmarshal(next)
	if err != nil {
		return nil, err
	}
	return schema.BreakingChanges(prev, cur), nil
}
