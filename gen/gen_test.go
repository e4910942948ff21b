package gen

import (
	"encoding/json"
	"testing"

	"github.com/acksell/blueprint/model"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, attrs ...model.AttributeOptions) *model.Service {
	t.Helper()
	svc, err := model.NewService(model.ServiceOptions{Name: "people"})
	require.NoError(t, err)
	r, err := svc.AddResource(model.ResourceOptions{
		Name:       "person",
		Attributes: append([]model.AttributeOptions{{Name: "my-name", Required: true}}, attrs...),
	})
	require.NoError(t, err)
	for _, st := range []model.OperationSubType{model.CreateOne, model.ReadOne} {
		_, err := r.AddOperation(model.OperationOptions{SubType: st})
		require.NoError(t, err)
	}
	return svc
}

func paths(artifacts []Artifact) []string {
	out := make([]string, len(artifacts))
	for i, a := range artifacts {
		out[i] = a.Path
	}
	return out
}

func TestRender(t *testing.T) {
	artifacts, err := Render(newService(t), RenderOptions{GoPackage: "peoplemodel"})
	require.NoError(t, err)

	want := []string{
		"person.ts",
		"person-commands.ts",
		"vtl/create-person.request.vtl",
		"vtl/create-person.response.vtl",
		"vtl/get-person.request.vtl",
		"vtl/get-person.response.vtl",
		"peoplemodel.go",
		"schema_blueprint.yaml",
		"people.table.json",
		"person.sample.json",
	}
	if diff := cmp.Diff(want, paths(artifacts)); diff != "" {
		t.Errorf("artifacts mismatch (-want +got):\n%s", diff)
	}
	for _, a := range artifacts {
		assert.NotEmpty(t, a.Content, a.Path)
	}

	var input map[string]any
	require.NoError(t, json.Unmarshal(artifacts[8].Content, &input))
	assert.Equal(t, "people", input["TableName"])

	var sample map[string]map[string]any
	require.NoError(t, json.Unmarshal(artifacts[9].Content, &sample))
	assert.Equal(t, map[string]any{"S": "person"}, sample["t"])
}

func TestRender_Targets(t *testing.T) {
	svc := newService(t)

	artifacts, err := Render(svc, RenderOptions{Targets: []Target{TargetSchema, TargetTypeScript}})
	require.NoError(t, err)
	assert.Equal(t, []string{"person.ts", "schema_blueprint.yaml"}, paths(artifacts))

	artifacts, err = Render(svc, RenderOptions{Targets: []Target{TargetGo}})
	require.NoError(t, err)
	assert.Empty(t, artifacts, "go target needs a package")
}

func TestParseTargets(t *testing.T) {
	got, err := ParseTargets([]string{"TypeScript", " vtl", "typescript"})
	require.NoError(t, err)
	assert.Equal(t, []Target{TargetTypeScript, TargetVTL}, got)

	_, err = ParseTargets([]string{"swift"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown target "swift"`)
}

func openManifest(t *testing.T) *Manifest {
	t.Helper()
	m, err := OpenManifest(ManifestOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestWrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := openManifest(t)
	opts := WriteOptions{Fs: fs, Dir: "/out", Manifest: m}

	artifacts, err := Render(newService(t), RenderOptions{})
	require.NoError(t, err)

	res, err := Write(artifacts, opts)
	require.NoError(t, err)
	assert.Equal(t, paths(artifacts), res.Written)
	assert.Empty(t, res.Unchanged)

	data, err := afero.ReadFile(fs, "/out/vtl/create-person.request.vtl")
	require.NoError(t, err)
	assert.Equal(t, string(artifacts[2].Content), string(data))

	t.Run("unchanged files are skipped", func(t *testing.T) {
		res, err := Write(artifacts, opts)
		require.NoError(t, err)
		assert.Empty(t, res.Written)
		assert.Equal(t, paths(artifacts), res.Unchanged)
	})

	t.Run("deleted files are rewritten", func(t *testing.T) {
		require.NoError(t, fs.Remove("/out/person.ts"))
		res, err := Write(artifacts, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"person.ts"}, res.Written)
	})

	t.Run("stale files are removed", func(t *testing.T) {
		opts := opts
		opts.Targets = Targets
		res, err := Write(artifacts[:2], opts)
		require.NoError(t, err)
		assert.Len(t, res.Removed, len(artifacts)-2)
		assert.Contains(t, res.Removed, "vtl/get-person.response.vtl")

		exists, err := afero.Exists(fs, "/out/vtl/get-person.response.vtl")
		require.NoError(t, err)
		assert.False(t, exists)

		recorded, err := m.Paths()
		require.NoError(t, err)
		assert.Equal(t, []string{"person-commands.ts", "person.ts"}, recorded)
	})
}

func TestWrite_KeepsFilesOfOtherTargets(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts := WriteOptions{Fs: fs, Dir: "/out", Manifest: openManifest(t)}
	svc := newService(t)

	all, err := Render(svc, RenderOptions{})
	require.NoError(t, err)
	_, err = Write(all, opts)
	require.NoError(t, err)

	// Dropping an operation only removes its templates.
	vtlOnly, err := Render(svc, RenderOptions{Targets: []Target{TargetVTL}})
	require.NoError(t, err)
	res, err := Write(vtlOnly[:2], opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"vtl/get-person.request.vtl", "vtl/get-person.response.vtl"}, res.Removed)

	for _, p := range []string{"person.ts", "person-commands.ts", "schema_blueprint.yaml", "people.table.json", "person.sample.json"} {
		exists, err := afero.Exists(fs, "/out/"+p)
		require.NoError(t, err)
		assert.True(t, exists, p)
	}

	t.Run("selected target without artifacts", func(t *testing.T) {
		opts := opts
		opts.Targets = []Target{TargetVTL}
		res, err := Write(nil, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"vtl/create-person.request.vtl", "vtl/create-person.response.vtl"}, res.Removed)

		recorded, err := opts.Manifest.Paths()
		require.NoError(t, err)
		assert.NotContains(t, recorded, "vtl/create-person.request.vtl")
		assert.Contains(t, recorded, "person.ts")
	})
}

func TestWrite_WithoutManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	artifacts := []Artifact{{Path: "a/b.txt", Content: []byte("x")}}

	for i := 0; i < 2; i++ {
		res, err := Write(artifacts, WriteOptions{Fs: fs, Dir: "/out"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a/b.txt"}, res.Written)
	}

	_, err := Write(artifacts, WriteOptions{Dir: "/out"})
	require.Error(t, err)
}

func TestWrite_BreakingChanges(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts := WriteOptions{Fs: fs, Dir: "/out"}

	before, err := Render(newService(t, model.AttributeOptions{Name: "nickname"}), RenderOptions{Targets: []Target{TargetSchema}})
	require.NoError(t, err)
	res, err := Write(before, opts)
	require.NoError(t, err)
	assert.Empty(t, res.Breaking)

	after, err := Render(newService(t), RenderOptions{Targets: []Target{TargetSchema}})
	require.NoError(t, err)
	res, err = Write(after, opts)
	require.NoError(t, err)
	require.Len(t, res.Breaking, 1)
	assert.Equal(t, `table "people": entity "person": field "nickname" removed`, res.Breaking[0].String())

	t.Run("strict", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := Write(before, WriteOptions{Fs: fs, Dir: "/out"})
		require.NoError(t, err)

		_, err = Write(after, WriteOptions{Fs: fs, Dir: "/out", FailOnBreaking: true})
		var target *BreakingChangeError
		require.ErrorAs(t, err, &target)
		assert.Len(t, target.Changes, 1)

		data, err := afero.ReadFile(fs, "/out/schema_blueprint.yaml")
		require.NoError(t, err)
		assert.Equal(t, string(before[0].Content), string(data), "previous schema is kept")
	})
}

func TestManifest(t *testing.T) {
	m := openManifest(t)

	_, ok, err := m.Get("a.ts")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Put("b.ts", Entry{Hash: 2, Target: TargetDDBCmd}))
	require.NoError(t, m.Put("a.ts", Entry{Hash: contentHash([]byte("a")), Target: TargetTypeScript}))

	e, ok, err := m.Get("a.ts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Entry{Hash: contentHash([]byte("a")), Target: TargetTypeScript}, e)

	got, err := m.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts", "b.ts"}, got)

	entries, err := m.Entries()
	require.NoError(t, err)
	assert.Equal(t, TargetDDBCmd, entries["b.ts"].Target)

	require.NoError(t, m.Delete("a.ts"))
	got, err = m.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.ts"}, got)
}
