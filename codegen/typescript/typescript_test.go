package typescript

import (
	"testing"

	"github.com/acksell/blueprint/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPerson(t *testing.T, opts model.ResourceOptions, ops ...model.OperationSubType) *model.Resource {
	t.Helper()
	if opts.Name == "" {
		opts.Name = "person"
	}
	opts.Attributes = append([]model.AttributeOptions{
		{Name: "my-name", Required: true},
		{Name: "email", Type: model.TypeEmail, Description: "Contact address."},
	}, opts.Attributes...)
	r, err := model.NewResource(opts)
	require.NoError(t, err)
	for _, st := range ops {
		_, err := r.AddOperation(model.OperationOptions{SubType: st})
		require.NoError(t, err)
	}
	return r
}

func generate(t *testing.T, r *model.Resource) string {
	t.Helper()
	out, err := New(Config{Resource: r}).Generate()
	require.NoError(t, err)
	return string(out)
}

func TestGenerate(t *testing.T) {
	r := newPerson(t, model.ResourceOptions{}, model.CreateOne)

	want := `// Code generated by blueprint. DO NOT EDIT.

export interface Person {
  id: string;
  type: string;
  version: number;
  createdAt: string;
  updatedAt: string;
  deletedAt?: string;
  myName: string;
  /** Contact address. */
  email?: string;
}

export interface CreatePersonInput {
  myName: string;
  /** Contact address. */
  email?: string;
}

export interface CreatePersonOutput {
  id: string;
}
`
	assert.Equal(t, want, generate(t, r))
}

func TestGenerate_ListShapes(t *testing.T) {
	r := newPerson(t, model.ResourceOptions{}, model.CreateMany, model.List)
	out := generate(t, r)

	assert.Contains(t, out, "export interface CreatePeopleInputItem {\n  myName: string;")
	assert.Contains(t, out, "export type CreatePeopleInput = Array<CreatePeopleInputItem>;")
	assert.Contains(t, out, "export type CreatePeopleOutput = Array<CreatePeopleOutputItem>;")
	assert.Contains(t, out, "export interface ListPeopleInput {\n}")
	assert.Contains(t, out, "export type ListPeopleOutput = Array<ListPeopleOutputItem>;")
	assert.NotContains(t, out, "export interface CreatePeopleInput {")
}

func TestGenerate_HiddenAttributes(t *testing.T) {
	r := newPerson(t, model.ResourceOptions{TenantEnabled: true}, model.ReadOne)
	out := generate(t, r)

	assert.NotContains(t, out, "tenantId")
	assert.Contains(t, out, "export interface GetPersonInput {\n  pk: string;\n}")
	assert.Contains(t, out, "  idx: string;")
}

func TestGenerate_UpdateChanges(t *testing.T) {
	r := newPerson(t, model.ResourceOptions{}, model.UpdateOne)
	out := generate(t, r)

	assert.Contains(t, out, "export interface PersonChanges {\n  myName?: string;\n  /** Contact address. */\n  email?: string;\n}")
	assert.Contains(t, out, "export interface UpdatePersonInput {\n  id: string;\n}")

	assert.Equal(t, []string{"my-name", "email"}, attributeNames(ChangeAttributes(r)))
}

func TestGenerate_Description(t *testing.T) {
	r, err := model.NewResource(model.ResourceOptions{Name: "note", Description: "A short\n note */ with text."})
	require.NoError(t, err)
	_, err = r.AddOperation(model.OperationOptions{SubType: model.DeleteOne, Description: "Removes */ a note."})
	require.NoError(t, err)
	out := generate(t, r)

	assert.Contains(t, out, "/** A short note * / with text. */\nexport interface Note {")
	assert.Contains(t, out, "/** Removes * / a note. */\nexport interface DeleteNoteInput {")
}

func TestGenerate_Structures(t *testing.T) {
	r := newPerson(t, model.ResourceOptions{})
	_, err := r.AddStructure(model.StructureOptions{})
	require.NoError(t, err)
	_, err = r.AddStructure(model.StructureOptions{Name: "page", Type: model.Transient, TypeParameter: "T", Attributes: []string{"id"}})
	require.NoError(t, err)
	out := generate(t, r)

	assert.Contains(t, out, "export interface Person {")
	assert.Contains(t, out, "export interface Page<T> {\n  id: string;\n}")
}

func TestGenerate_NoResource(t *testing.T) {
	_, err := New(Config{}).Generate()
	require.Error(t, err)
}

func TestNames(t *testing.T) {
	r := newPerson(t, model.ResourceOptions{}, model.ReadMany)
	op := r.Operations()[0]

	assert.Equal(t, "person.ts", FileName(r))
	assert.Equal(t, "Person", DataTypeName(r))
	assert.Equal(t, "PersonChanges", ChangesTypeName(r))
	assert.Equal(t, "GetPeopleInput", TypeName(op.Input()))
	assert.Equal(t, "GetPeopleOutputItem", ItemTypeName(op.Output()))
	assert.Equal(t, "createdAt", PropertyName(r.Attribute("created-at")))
	assert.True(t, IsList(op.Input()))
	assert.True(t, IsList(op.Output()))
}

func attributeNames(attrs []*model.Attribute) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.Name()
	}
	return out
}
