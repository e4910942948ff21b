package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/acksell/blueprint/gen"
	"github.com/spf13/afero"
)

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	model := addModelFlags(fs)

	fs.Usage = func() {
		fmt.Println(`blueprint validate - Check a model without writing anything

Usage:
  blueprint validate [flags]

Flags:`)
		fs.PrintDefaults()
		fmt.Println(`
The model is built and every target rendered in memory, so key conflicts
between resources and unsupported operations surface here as they would in
gen.`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	log := newLogger(*model.logLevel, os.Stderr)
	path, file, svc, err := model.load(afero.NewOsFs())
	if err != nil {
		return err
	}
	artifacts, err := gen.Render(svc, gen.RenderOptions{GoPackage: file.GoPackage})
	if err != nil {
		return err
	}

	var ops int
	for _, r := range svc.Resources() {
		ops += len(r.Operations())
	}
	log.Debug("validated", "path", path, "artifacts", len(artifacts))
	fmt.Printf("%s: service %q is valid (%d resources, %d operations)\n", path, svc.Name(), len(svc.Resources()), ops)
	return nil
}
