package main

import (
	"bytes"
	"flag"
	"testing"

	"github.com/acksell/blueprint/gen"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputDir(t *testing.T) {
	tests := []struct {
		name             string
		flag, file, conf string
		want             string
	}{
		{"flag wins", "./out", "gen", "/project/blueprint.yaml", "./out"},
		{"relative to file", "", "gen", "/project/blueprint.yaml", "/project/gen"},
		{"absolute", "", "/tmp/gen", "/project/blueprint.yaml", "/tmp/gen"},
		{"default", "", "", "/project/blueprint.yaml", "/project/generated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outputDir(tt.flag, tt.file, tt.conf))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Setenv(logLevelEnv, "warn")

	var buf bytes.Buffer
	log := newLogger("", &buf)
	assert.True(t, log.IsWarn())
	assert.False(t, log.IsInfo())
	assert.Equal(t, "blueprint", log.Name())

	log = newLogger("debug", &buf)
	assert.True(t, log.IsDebug())

	t.Setenv(logLevelEnv, "nonsense")
	assert.Equal(t, hclog.Info, newLogger("", &buf).GetLevel())
}

func TestBadgerLogger(t *testing.T) {
	var buf bytes.Buffer
	badgerLogger{newLogger("info", &buf)}.Warningf("slow %s\n", "compaction")
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "blueprint: slow compaction\n")
}

func TestModelFlags(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "/p/blueprint.yaml", []byte("service: people\nresources:\n  - name: person\n    operations:\n      - subType: CreateOne\n"), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	mf := addModelFlags(fs)
	require.NoError(t, fs.Parse([]string{"-config", "/p/blueprint.yaml"}))

	path, file, svc, err := mf.load(afs)
	require.NoError(t, err)
	assert.Equal(t, "/p/blueprint.yaml", path)
	assert.Equal(t, "people", file.Service)
	require.NotNil(t, svc.Resource("person"))

	var buf bytes.Buffer
	printArtifacts(&buf, "/out", []gen.Artifact{{Path: "vtl/a.request.vtl", Target: gen.TargetVTL}})
	assert.Equal(t, "vtl        /out/vtl/a.request.vtl\n", buf.String())
}
