package model_test

import (
	"testing"

	"github.com/acksell/blueprint/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var systemAttributes = []string{"id", "type", "version", "created-at", "updated-at", "deleted-at"}

func newPerson(t *testing.T, opts ...func(*model.ResourceOptions)) *model.Resource {
	t.Helper()
	o := model.ResourceOptions{
		Name: "person",
		Attributes: []model.AttributeOptions{
			{Name: "my-name", Required: true},
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	r, err := model.NewResource(o)
	require.NoError(t, err)
	return r
}

func composite(o *model.ResourceOptions) { o.KeyLayout = model.KeyLayoutComposite }
func tenant(o *model.ResourceOptions)    { o.TenantEnabled = true }

func names(attrs []*model.Attribute) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.Name()
	}
	return out
}

func TestAddOperation_CreateInputExcludesGenerated(t *testing.T) {
	r := newPerson(t)
	op, err := r.AddOperation(model.OperationOptions{SubType: model.CreateOne})
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"my-name"}, op.Input().AttributeNames()); diff != "" {
		t.Errorf("create input mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"id"}, op.Output().AttributeNames())
}

func TestAddOperation_ReadStructures(t *testing.T) {
	r := newPerson(t)
	op, err := r.AddOperation(model.OperationOptions{SubType: model.ReadOne})
	require.NoError(t, err)

	assert.Equal(t, []string{"id"}, op.Input().AttributeNames())
	want := []string{"id", "type", "version", "created-at", "updated-at", "deleted-at", "my-name"}
	if diff := cmp.Diff(want, op.Output().AttributeNames()); diff != "" {
		t.Errorf("read output mismatch (-want +got):\n%s", diff)
	}
}

func TestDerive_Table(t *testing.T) {
	all := append(append([]string{}, systemAttributes...), "my-name")
	tests := []struct {
		subType model.OperationSubType
		input   []string
		output  []string
	}{
		{model.CreateOne, []string{"my-name"}, []string{"id"}},
		{model.CreateMany, []string{"my-name"}, []string{"id"}},
		{model.ReadOne, []string{"id"}, all},
		{model.ReadMany, []string{"id"}, all},
		{model.UpdateOne, []string{"id"}, all},
		{model.UpdateMany, []string{"id"}, all},
		{model.DeleteOne, []string{"id"}, all},
		{model.DeleteMany, []string{"id"}, all},
		{model.ImportOne, []string{"id"}, all},
		{model.ImportMany, []string{"id"}, all},
		{model.List, []string{}, all},
	}
	r := newPerson(t)
	for _, tt := range tests {
		t.Run(string(tt.subType), func(t *testing.T) {
			in, err := model.Derive(r, tt.subType, model.Input)
			require.NoError(t, err)
			out, err := model.Derive(r, tt.subType, model.Output)
			require.NoError(t, err)
			assert.Equal(t, tt.input, in, "input")
			assert.Equal(t, tt.output, out, "output")
		})
	}
}

func TestDerive_Unsupported(t *testing.T) {
	r := newPerson(t)
	for _, st := range []model.OperationSubType{model.CreateVersion, model.ReadVersion, "Upsert"} {
		t.Run(string(st), func(t *testing.T) {
			_, err := model.Derive(r, st, model.Input)
			var unsupported *model.UnsupportedOperationTypeError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, st, unsupported.SubType)
		})
	}

	t.Run("transient structure", func(t *testing.T) {
		_, err := model.Derive(r, model.ReadOne, model.Transient)
		var unsupported *model.UnsupportedOperationTypeError
		assert.ErrorAs(t, err, &unsupported)
	})
}

func TestDerive_Data(t *testing.T) {
	r := newPerson(t)
	got, err := model.Derive(r, "", model.Data)
	require.NoError(t, err)
	assert.Equal(t, names(r.Attributes()), got)
}

func TestProperty_UniqueNames(t *testing.T) {
	for _, layout := range []func(*model.ResourceOptions){func(*model.ResourceOptions) {}, composite, tenant} {
		r := newPerson(t, layout)
		seenName := map[string]bool{}
		seenShort := map[string]bool{}
		for _, a := range r.Attributes() {
			assert.False(t, seenName[a.Name()], "duplicate name %q", a.Name())
			assert.False(t, seenShort[a.ShortName()], "duplicate short name %q", a.ShortName())
			seenName[a.Name()] = true
			seenShort[a.ShortName()] = true
		}
	}
}

func TestProperty_ReadOutputKeepsDeclarationOrder(t *testing.T) {
	for name, layout := range map[string]func(*model.ResourceOptions){
		"simple":    func(*model.ResourceOptions) {},
		"composite": composite,
		"tenant":    tenant,
	} {
		t.Run(name, func(t *testing.T) {
			r := newPerson(t, layout, func(o *model.ResourceOptions) {
				o.Attributes = append(o.Attributes,
					model.AttributeOptions{Name: "age", Type: model.TypeInt},
					model.AttributeOptions{Name: "email", Type: model.TypeEmail},
				)
			})
			op, err := r.AddOperation(model.OperationOptions{SubType: model.ReadOne})
			require.NoError(t, err)
			if diff := cmp.Diff(names(r.Attributes()), op.Output().AttributeNames()); diff != "" {
				t.Errorf("read output order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProperty_CreateInputExcludesCreateGenerated(t *testing.T) {
	r := newPerson(t, tenant, func(o *model.ResourceOptions) {
		o.Attributes = append(o.Attributes,
			model.AttributeOptions{Name: "sequence", Type: model.TypeInt,
				Generators: model.Generators{Create: model.Gen(model.GeneratorAutoIncrement)}},
			// Generated on update only. Still a system attribute, so not caller data.
			model.AttributeOptions{Name: "touched-at", Type: model.TypeDateTime,
				Generators: model.Generators{Update: model.Gen(model.GeneratorCurrentDateTimeStamp)}},
		)
	})
	op, err := r.AddOperation(model.OperationOptions{SubType: model.CreateOne})
	require.NoError(t, err)

	input := op.Input().AttributeNames()
	for _, a := range r.Attributes() {
		if !a.CreateGenerator().IsNone() {
			assert.NotContains(t, input, a.Name())
		}
	}
	assert.Equal(t, []string{"my-name"}, input)
	assert.True(t, r.Attribute("touched-at").IsSystem())
}

func TestProperty_CreateOutputIsPartitionKey(t *testing.T) {
	for _, layout := range []func(*model.ResourceOptions){func(*model.ResourceOptions) {}, composite, tenant} {
		r := newPerson(t, layout)
		op, err := r.AddOperation(model.OperationOptions{SubType: model.CreateOne})
		require.NoError(t, err)
		require.NotZero(t, op.Output().Len())
		for _, a := range op.Output().ResourceAttributes() {
			assert.True(t, a.IsPartitionKey(), "%q is not the partition key", a.Name())
		}
	}
}

func TestProperty_DeriveIsIdempotent(t *testing.T) {
	r := newPerson(t, composite)
	for _, st := range []model.OperationSubType{model.CreateOne, model.ReadOne, model.UpdateMany, model.List} {
		for _, typ := range []model.StructureType{model.Input, model.Output} {
			first, err := model.Derive(r, st, typ)
			require.NoError(t, err)
			second, err := model.Derive(r, st, typ)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		}
	}

	op, err := r.AddOperation(model.OperationOptions{SubType: model.ReadOne})
	require.NoError(t, err)
	again, err := model.Derive(r, model.ReadOne, model.Output)
	require.NoError(t, err)
	assert.Equal(t, op.Output().AttributeNames(), again)
}

func TestDerive_CompositeUsesPkAttribute(t *testing.T) {
	r := newPerson(t, composite)
	in, err := model.Derive(r, model.ReadOne, model.Input)
	require.NoError(t, err)
	assert.Equal(t, []string{"pk"}, in)

	in, err = model.Derive(r, model.CreateOne, model.Input)
	require.NoError(t, err)
	assert.Equal(t, []string{"my-name"}, in)
}

func TestStructureAttribute_ResolvesByName(t *testing.T) {
	r := newPerson(t)
	op, err := r.AddOperation(model.OperationOptions{SubType: model.ReadOne})
	require.NoError(t, err)

	for _, sa := range op.Output().Attributes() {
		a := sa.ResourceAttribute()
		require.NotNil(t, a, sa.Name())
		assert.Same(t, r.Attribute(sa.Name()), a)
	}
}
