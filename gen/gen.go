// Package gen renders the artifacts of a service and writes them to an
// output directory.
//
// Rendering happens fully in memory, so a service that fails to render
// leaves the output directory untouched:
//
//	artifacts, err := gen.Render(svc, gen.RenderOptions{GoPackage: "peoplemodel"})
//	if err != nil {
//		return err
//	}
//	result, err := gen.Write(artifacts, gen.WriteOptions{Fs: afero.NewOsFs(), Dir: "./generated"})
package gen

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/acksell/blueprint/codegen/ddbcmd"
	"github.com/acksell/blueprint/codegen/gotypes"
	"github.com/acksell/blueprint/codegen/typescript"
	"github.com/acksell/blueprint/codegen/vtl"
	"github.com/acksell/blueprint/dynamodb/schema"
	"github.com/acksell/blueprint/dynamodb/table"
	"github.com/acksell/blueprint/model"
)

// Target selects a kind of artifact.
type Target string

const (
	TargetTypeScript Target = "typescript"
	TargetDDBCmd     Target = "ddbcmd"
	TargetVTL        Target = "vtl"
	TargetGo         Target = "go"
	TargetSchema     Target = "schema"
	TargetTable      Target = "table"
	TargetSample     Target = "sample"
)

// Targets lists every target in render order.
var Targets = []Target{TargetTypeScript, TargetDDBCmd, TargetVTL, TargetGo, TargetSchema, TargetTable, TargetSample}

// ParseTarget matches a target name case-insensitively.
func ParseTarget(s string) (Target, error) {
	for _, t := range Targets {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown target %q", s)
}

// ParseTargets parses a list of target names. Duplicates are dropped.
func ParseTargets(names []string) ([]Target, error) {
	var out []Target
	seen := map[Target]bool{}
	for _, n := range names {
		t, err := ParseTarget(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

// Artifact is one rendered file.
type Artifact struct {
	// Path is slash separated and relative to the output directory.
	Path    string
	Target  Target
	Content []byte
}

// TableFileName returns the name of the CreateTableInput file of a table.
func TableFileName(tableName string) string {
	return tableName + ".table.json"
}

// SampleFileName returns the name of the sample item file of r.
func SampleFileName(r *model.Resource) string {
	return r.Name() + ".sample.json"
}

// VTLDir is the directory resolver templates are rendered to.
const VTLDir = "vtl"

// RenderOptions configures Render.
type RenderOptions struct {
	// Targets to render. Empty renders all of them.
	Targets []Target
	// GoPackage names the package of the go target. The go target is
	// skipped without one.
	GoPackage string
}

func (o RenderOptions) enabled(t Target) bool {
	if len(o.Targets) == 0 {
		return true
	}
	for _, e := range o.Targets {
		if e == t {
			return true
		}
	}
	return false
}

// Render renders the artifacts of svc in target order. Two artifacts with
// the same path are an error.
func Render(svc *model.Service, opts RenderOptions) ([]Artifact, error) {
	r := &renderer{svc: svc, opts: opts, paths: map[string]Target{}}
	steps := []struct {
		target Target
		render func() error
	}{
		{TargetTypeScript, r.typescript},
		{TargetDDBCmd, r.ddbcmd},
		{TargetVTL, r.vtl},
		{TargetGo, r.goTypes},
		{TargetSchema, r.schema},
		{TargetTable, r.table},
		{TargetSample, r.sample},
	}
	for _, s := range steps {
		if !opts.enabled(s.target) {
			continue
		}
		if err := s.render(); err != nil {
			return nil, fmt.Errorf("target %s: %w", s.target, err)
		}
	}
	return r.out, nil
}

type renderer struct {
	svc   *model.Service
	opts  RenderOptions
	out   []Artifact
	paths map[string]Target
}

func (r *renderer) add(t Target, p string, content []byte) error {
	if other, ok := r.paths[p]; ok {
		return fmt.Errorf("%s is already rendered by target %s", p, other)
	}
	r.paths[p] = t
	r.out = append(r.out, Artifact{Path: p, Target: t, Content: content})
	return nil
}

func (r *renderer) typescript() error {
	for _, res := range r.svc.Resources() {
		out, err := typescript.New(typescript.Config{Resource: res}).Generate()
		if err != nil {
			return err
		}
		if err := r.add(TargetTypeScript, typescript.FileName(res), out); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) ddbcmd() error {
	for _, res := range r.svc.Resources() {
		out, err := ddbcmd.New(ddbcmd.Config{Resource: res}).Generate()
		if err != nil {
			return err
		}
		if err := r.add(TargetDDBCmd, ddbcmd.FileName(res), out); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) vtl() error {
	for _, res := range r.svc.Resources() {
		files, err := vtl.New(vtl.Config{Resource: res, Table: r.svc.Table()}).Generate()
		if err != nil {
			return err
		}
		for _, f := range files {
			if err := r.add(TargetVTL, path.Join(VTLDir, f.Name), f.Content); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *renderer) goTypes() error {
	if r.opts.GoPackage == "" {
		return nil
	}
	out, err := gotypes.New(gotypes.Config{Package: r.opts.GoPackage, Resources: r.svc.Resources()}).Generate()
	if err != nil {
		return err
	}
	return r.add(TargetGo, gotypes.FileName(r.opts.GoPackage), out)
}

func (r *renderer) schema() error {
	s, err := schema.Build(r.svc)
	if err != nil {
		return err
	}
	out, err := schema.Marshal(s)
	if err != nil {
		return err
	}
	return r.add(TargetSchema, schema.FileName, out)
}

func (r *renderer) table() error {
	def, err := table.FromService(r.svc)
	if err != nil {
		return err
	}
	out, err := marshalJSON(def.CreateTableInput())
	if err != nil {
		return fmt.Errorf("table %q: %w", def.Name, err)
	}
	return r.add(TargetTable, TableFileName(def.Name), out)
}

func (r *renderer) sample() error {
	for _, res := range r.svc.Resources() {
		item, err := table.SampleItem(res)
		if err != nil {
			return err
		}
		out, err := marshalJSON(table.ItemJSON(item))
		if err != nil {
			return fmt.Errorf("resource %q: %w", res.Name(), err)
		}
		if err := r.add(TargetSample, SampleFileName(res), out); err != nil {
			return err
		}
	}
	return nil
}

func marshalJSON(v any) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling json: %w", err)
	}
	return append(out, '\n'), nil
}
