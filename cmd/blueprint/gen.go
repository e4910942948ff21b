package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/acksell/blueprint/gen"
	"github.com/spf13/afero"
)

func runGen(args []string) error {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)

	var (
		model      = addModelFlags(fs)
		out        = fs.String("out", "", "output directory (default: the file's output, or ./generated)")
		targets    = fs.String("targets", "", "comma separated targets to render (default: the file's targets, or all)")
		goPackage  = fs.String("go-package", "", "package name of the go target, overrides the file's goPackage")
		manifest   = fs.String("manifest", "", "manifest directory (default: <out>/.blueprint)")
		noManifest = fs.Bool("no-manifest", false, "rewrite every file and never remove stale ones")
		strict     = fs.Bool("strict", false, "fail without writing when the schema breaks stored items")
		dryRun     = fs.Bool("dry-run", false, "list the files that would be rendered")
	)

	fs.Usage = func() {
		fmt.Println(`blueprint gen - Render artifacts into the output directory

Usage:
  blueprint gen [flags]

Flags:`)
		fs.PrintDefaults()
		fmt.Println(`
Examples:
  blueprint gen                              # Render everything blueprint.yaml asks for
  blueprint gen -targets vtl -out ./vtl      # Only the AppSync resolver templates
  blueprint gen -dry-run                     # Show what would be rendered

Unchanged files are left alone. Files an earlier run rendered that are no
longer produced are removed, unless -no-manifest is set.`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	afs := afero.NewOsFs()
	log := newLogger(*model.logLevel, os.Stderr)

	path, file, svc, err := model.load(afs)
	if err != nil {
		return err
	}
	log.Debug("loaded model", "path", path, "service", svc.Name(), "resources", len(svc.Resources()))

	names := file.Targets
	if *targets != "" {
		names = strings.Split(*targets, ",")
	}
	selected, err := gen.ParseTargets(names)
	if err != nil {
		return err
	}
	pkg := file.GoPackage
	if *goPackage != "" {
		pkg = *goPackage
	}

	artifacts, err := gen.Render(svc, gen.RenderOptions{Targets: selected, GoPackage: pkg})
	if err != nil {
		return err
	}
	for _, a := range artifacts {
		log.Debug("rendered", "path", a.Path, "target", a.Target)
	}

	dir := outputDir(*out, file.Output, path)
	if *dryRun {
		printArtifacts(os.Stdout, dir, artifacts)
		return nil
	}

	if len(selected) == 0 {
		selected = gen.Targets
	}
	opts := gen.WriteOptions{Fs: afs, Dir: dir, Targets: selected, FailOnBreaking: *strict, Logger: log}
	if !*noManifest {
		mpath := *manifest
		if mpath == "" {
			mpath = filepath.Join(dir, ".blueprint")
		}
		m, err := gen.OpenManifest(gen.ManifestOptions{Path: mpath, Logger: badgerLogger{log.Named("manifest")}})
		if err != nil {
			return err
		}
		defer m.Close()
		opts.Manifest = m
	}

	res, err := gen.Write(artifacts, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Generated %d files in %s (%d unchanged, %d removed)\n", len(res.Written), dir, len(res.Unchanged), len(res.Removed))
	return nil
}

// outputDir resolves the output directory. The flag is relative to the
// working directory, the file's output to the file.
func outputDir(flagValue, fileValue, configPath string) string {
	if flagValue != "" {
		return flagValue
	}
	if fileValue == "" {
		fileValue = "generated"
	}
	if filepath.IsAbs(fileValue) {
		return fileValue
	}
	return filepath.Join(filepath.Dir(configPath), fileValue)
}

func printArtifacts(w io.Writer, dir string, artifacts []gen.Artifact) {
	for _, a := range artifacts {
		fmt.Fprintf(w, "%-10s %s\n", a.Target, filepath.Join(dir, filepath.FromSlash(a.Path)))
	}
}
