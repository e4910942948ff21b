package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/acksell/blueprint/config"
	"github.com/acksell/blueprint/model"
	"github.com/spf13/afero"
)

// modelFlags are the flags shared by commands that load a model.
type modelFlags struct {
	config   *string
	logLevel *string
}

func addModelFlags(fs *flag.FlagSet) modelFlags {
	return modelFlags{
		config:   fs.String("config", "", "model file (default: "+config.FileName+" in the current directory or a parent)"),
		logLevel: fs.String("log-level", "", "log level, overrides $"+logLevelEnv),
	}
}

// load reads and builds the model. It returns the config file path along
// with it, so relative paths in the file resolve against its directory.
func (f modelFlags) load(afs afero.Fs) (string, *config.File, *model.Service, error) {
	path := *f.config
	if path == "" {
		path = findConfigFile(afs)
		if path == "" {
			return "", nil, nil, fmt.Errorf("no %s found; pass -config", config.FileName)
		}
	}
	file, err := config.Read(afs, path)
	if err != nil {
		return "", nil, nil, err
	}
	svc, err := config.Build(file)
	if err != nil {
		return "", nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return path, file, svc, nil
}

// findConfigFile searches for blueprint.yaml walking up from the current
// directory.
func findConfigFile(afs afero.Fs) string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, config.FileName)
		if ok, _ := afero.Exists(afs, path); ok {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}
