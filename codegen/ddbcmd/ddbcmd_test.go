package ddbcmd

import (
	"testing"

	"github.com/acksell/blueprint/codegen"
	"github.com/acksell/blueprint/model"
	"github.com/acksell/blueprint/model/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPerson(t *testing.T, opts model.ResourceOptions, ops ...model.OperationOptions) *model.Resource {
	t.Helper()
	opts.Name = "person"
	opts.Attributes = append([]model.AttributeOptions{
		{Name: "my-name", Required: true},
		{Name: "status", Generators: model.Generators{Create: model.Gen(model.GeneratorNone).WithDefault(model.StringDefault("ACTIVE"))}},
	}, opts.Attributes...)
	r, err := model.NewResource(opts)
	require.NoError(t, err)
	for _, op := range ops {
		_, err := r.AddOperation(op)
		require.NoError(t, err)
	}
	return r
}

func ops(subTypes ...model.OperationSubType) []model.OperationOptions {
	out := make([]model.OperationOptions, len(subTypes))
	for i, st := range subTypes {
		out[i] = model.OperationOptions{SubType: st}
	}
	return out
}

func generate(t *testing.T, r *model.Resource) string {
	t.Helper()
	out, err := New(Config{Resource: r}).Generate()
	require.NoError(t, err)
	return string(out)
}

func TestGenerate_Create(t *testing.T) {
	r := newPerson(t, model.ResourceOptions{}, ops(model.CreateOne)...)
	out := generate(t, r)

	assert.Contains(t, out, `import type { PutCommandInput } from "@aws-sdk/lib-dynamodb";`)
	assert.Contains(t, out, `import { v4 as uuidv4 } from "uuid";`)
	assert.Contains(t, out, `import type { CreatePersonInput } from "./person";`)
	assert.Contains(t, out, `function createPersonItem(input: CreatePersonInput, context: CommandContext): Record<string, unknown> {
  const item: Record<string, unknown> = {};
  item["id"] = uuidv4();
  item["t"] = "person";
  item["v"] = Date.now();
  item["ca"] = new Date().toISOString();
  item["ua"] = new Date().toISOString();
  item["my-name"] = input.myName;
  item["status"] = input.status ?? "ACTIVE";
  return definedOnly(item);
}

export function createPerson(input: CreatePersonInput, context: CommandContext): PutCommandInput {
  return {
    TableName: context.tableName,
    Item: createPersonItem(input, context),
    ConditionExpression: "attribute_not_exists (#0)",
    ExpressionAttributeNames: { "#0": "id" },
  };
}
`)
	assert.NotContains(t, out, `item["da"]`)
	assert.Contains(t, out, "function definedOnly(")
	assert.NotContains(t, out, "PageOptions")
	assert.Contains(t, out, "  tenantId?: string;")
}

func TestGenerate_CompositeTenantCreate(t *testing.T) {
	r := newPerson(t, model.ResourceOptions{TenantEnabled: true}, ops(model.CreateOne)...)
	out := generate(t, r)

	assert.Contains(t, out, `  item["tid"] = context.tenantId;
  item["my-name"] = input.myName;`)
	assert.Contains(t, out, `  item["status"] = input.status ?? "ACTIVE";
  item["pk"] = `+"`${item[\"tid\"]}#${item[\"id\"]}`"+`;
  item["sk"] = `+"`${item[\"tid\"]}#${item[\"t\"]}#${item[\"v\"]}`"+`;
  item["idx"] = `+"`${item[\"tid\"]}#${item[\"t\"]}`"+`;
  return definedOnly(item);`)
	assert.Contains(t, out, `ExpressionAttributeNames: { "#0": "pk" },`)
	assert.Contains(t, out, "  tenantId: string;")
}

func TestGenerate_Read(t *testing.T) {
	t.Run("simple get", func(t *testing.T) {
		out := generate(t, newPerson(t, model.ResourceOptions{}, ops(model.ReadOne)...))
		assert.Contains(t, out, `export function getPerson(input: GetPersonInput, context: CommandContext): GetCommandInput {
  return { TableName: context.tableName, Key: { "id": input.id } };
}
`)
	})
	t.Run("composite reads latest version without sort key", func(t *testing.T) {
		out := generate(t, newPerson(t, model.ResourceOptions{KeyLayout: model.KeyLayoutComposite}, ops(model.ReadOne)...))
		assert.Contains(t, out, "export function getPerson(input: GetPersonInput, context: CommandContext, sortKey?: string): GetCommandInput | QueryCommandInput {")
		assert.Contains(t, out, `    return { TableName: context.tableName, Key: { "pk": input.pk, "sk": sortKey } };`)
		assert.Contains(t, out, `    KeyConditionExpression: "#0 = :0",
    ExpressionAttributeNames: { "#0": "pk" },
    ExpressionAttributeValues: { ":0": input.pk },
    ScanIndexForward: false,
    Limit: 1,`)
		assert.Contains(t, out, `import type { GetCommandInput, QueryCommandInput } from "@aws-sdk/lib-dynamodb";`)
	})
	t.Run("batch", func(t *testing.T) {
		out := generate(t, newPerson(t, model.ResourceOptions{}, ops(model.ReadMany)...))
		assert.Contains(t, out, "export function getPeople(input: GetPeopleInput, context: CommandContext): BatchGetCommandInput {")
		assert.Contains(t, out, `[context.tableName]: { Keys: input.map((item) => ({ "id": item.id })) },`)
	})
}

func TestGenerate_Update(t *testing.T) {
	out := generate(t, newPerson(t, model.ResourceOptions{}, ops(model.UpdateOne)...))

	assert.Contains(t, out, "export function updatePerson(input: UpdatePersonInput, changes: PersonChanges, context: CommandContext): UpdateCommandInput {")
	assert.Contains(t, out, `import type { UpdatePersonInput, PersonChanges } from "./person";`)
	assert.Contains(t, out, `    ["my-name", changes.myName],
    ["status", changes.status],`)
	assert.Contains(t, out, `ConditionExpression: "attribute_exists (#0)",`)
	assert.Contains(t, out, `Key: { "id": input.id },`)
	assert.Contains(t, out, `ReturnValues: "ALL_NEW",`)
	assert.Contains(t, out, `  const sets: string[] = ["#1 = :0", "#2 = :1"];`+"\n")
	assert.Contains(t, out, "Date.now()")
	assert.Contains(t, out, "new Date().toISOString()")
	assert.Contains(t, out, `throw new Error("update-person: nothing to update");`)
	assert.NotContains(t, out, `changes.id`)
}

func TestGenerate_UpdateMany(t *testing.T) {
	out := generate(t, newPerson(t, model.ResourceOptions{KeyLayout: model.KeyLayoutComposite}, ops(model.UpdateMany)...))

	assert.Contains(t, out, "function updatePeopleItem(input: UpdatePeopleInputItem, changes: PersonChanges, context: CommandContext, sortKey: string): UpdateCommandInput {")
	assert.Contains(t, out, `export function updatePeople(input: UpdatePeopleInput, changes: PersonChanges, context: CommandContext, sortKeys: string[]): UpdateCommandInput[] {
  return input.map((item, i) => updatePeopleItem(item, changes, context, sortKeys[i]));
}`)
	assert.Contains(t, out, `Key: { "pk": input.pk, "sk": sortKey },`)
}

func TestGenerate_Delete(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		out := generate(t, newPerson(t, model.ResourceOptions{KeyLayout: model.KeyLayoutComposite}, ops(model.DeleteOne)...))
		assert.Contains(t, out, "export function deletePerson(input: DeletePersonInput, context: CommandContext, sortKey: string): DeleteCommandInput {")
		assert.Contains(t, out, `ReturnValues: "ALL_OLD",`)
		assert.Contains(t, out, `ConditionExpression: "attribute_exists (#0)",`)
	})
	t.Run("batch", func(t *testing.T) {
		out := generate(t, newPerson(t, model.ResourceOptions{KeyLayout: model.KeyLayoutComposite}, ops(model.DeleteMany)...))
		assert.Contains(t, out, `[context.tableName]: input.map((item, i) => ({ DeleteRequest: { Key: { "pk": item.pk, "sk": sortKeys[i] } } })),`)
		assert.Contains(t, out, "sortKeys: string[]): BatchWriteCommandInput {")
	})
}

func TestGenerate_CreateMany(t *testing.T) {
	out := generate(t, newPerson(t, model.ResourceOptions{KeyLayout: model.KeyLayoutComposite}, ops(model.CreateMany)...))

	assert.Contains(t, out, "function createPeopleItem(input: CreatePeopleInputItem, context: CommandContext): Record<string, unknown> {")
	assert.Contains(t, out, `export function createPeople(input: CreatePeopleInput, context: CommandContext): BatchWriteCommandInput {
  return {
    RequestItems: {
      [context.tableName]: input.map((item) => ({ PutRequest: { Item: createPeopleItem(item, context) } })),
    },
  };
}`)
}

func TestGenerate_Import(t *testing.T) {
	out := generate(t, newPerson(t, model.ResourceOptions{TenantEnabled: true}, ops(model.ImportOne, model.ImportMany)...))

	assert.Contains(t, out, "function importPersonItem(input: Person, context: CommandContext): Record<string, unknown> {")
	assert.Contains(t, out, `  item["id"] = input.id ?? uuidv4();`)
	assert.Contains(t, out, `  item["my-name"] = input.myName;`)
	assert.Contains(t, out, `  item["status"] = input.status ?? "ACTIVE";`)
	assert.Contains(t, out, `  item["da"] = input.deletedAt;`)
	assert.Contains(t, out, `  item["tid"] = context.tenantId;`)
	assert.Contains(t, out, "export function importPerson(input: Person, context: CommandContext): PutCommandInput {")
	assert.Contains(t, out, "export function importPeople(input: Array<Person>, context: CommandContext): BatchWriteCommandInput {")
	assert.NotContains(t, out, "attribute_not_exists")
}

func TestGenerate_List(t *testing.T) {
	t.Run("scan on table", func(t *testing.T) {
		out := generate(t, newPerson(t, model.ResourceOptions{}, ops(model.List)...))
		assert.Contains(t, out, "export function listPeople(context: CommandContext, page: PageOptions = {}): ScanCommandInput {")
		assert.Contains(t, out, `    FilterExpression: "#0 = :0",
    ExpressionAttributeNames: { "#0": "t" },
    ExpressionAttributeValues: { ":0": "person" },
    Limit: page.limit,
    ExclusiveStartKey: page.startKey,`)
		assert.Contains(t, out, "export interface PageOptions {")
	})
	t.Run("lookup index", func(t *testing.T) {
		out := generate(t, newPerson(t, model.ResourceOptions{KeyLayout: model.KeyLayoutComposite}, ops(model.List)...))
		assert.Contains(t, out, `    IndexName: "lookup",
    KeyConditionExpression: "#0 = :0",
    ExpressionAttributeNames: { "#0": "idx" },
    ExpressionAttributeValues: { ":0": "person" },`)
	})
	t.Run("tenant lookup", func(t *testing.T) {
		out := generate(t, newPerson(t, model.ResourceOptions{TenantEnabled: true}, ops(model.List)...))
		assert.Contains(t, out, `ExpressionAttributeValues: { ":0": `+"`${context.tenantId}#person`"+` },`)
	})
	t.Run("custom index takes partition key", func(t *testing.T) {
		r := newPerson(t, model.ResourceOptions{Attributes: []model.AttributeOptions{{Name: "email", Type: model.TypeEmail}}})
		_, err := r.AddAccessPattern(model.AccessPatternOptions{Name: "by-email", Index: "gsi1", PartitionKey: "email"})
		require.NoError(t, err)
		_, err = r.AddOperation(model.OperationOptions{SubType: model.List, AccessPattern: "by-email"})
		require.NoError(t, err)
		out := generate(t, r)
		assert.Contains(t, out, "export function listPeople(partitionKey: string, context: CommandContext, page: PageOptions = {}): QueryCommandInput {")
		assert.Contains(t, out, `IndexName: "gsi1",`)
		assert.Contains(t, out, `ExpressionAttributeValues: { ":0": partitionKey },`)
	})
}

func TestGenerate_Generators(t *testing.T) {
	r := newPerson(t, model.ResourceOptions{Attributes: []model.AttributeOptions{
		{Name: "sequence", Type: model.TypeInt, Generators: model.Generators{Create: model.Gen(model.GeneratorAutoIncrement)}},
		{Name: "rank", Type: model.TypeInt, Generators: model.Generators{Create: model.Gen(model.GeneratorNone).WithDefault(model.NumberDefault(3))}},
		{Name: "active", Type: model.TypeBoolean, Generators: model.Generators{Create: model.Gen(model.GeneratorNone).WithDefault(model.BoolDefault(true))}},
		{Name: "revision", Generators: model.Generators{Create: model.Gen(model.GeneratorVersion)}},
	}}, ops(model.CreateOne)...)
	out := generate(t, r)

	assert.Contains(t, out, `item["sequence"] = context.nextSequence("sequence");`)
	assert.Contains(t, out, `item["rank"] = input.rank ?? 3;`)
	assert.Contains(t, out, `item["active"] = input.active ?? true;`)
	assert.Contains(t, out, `item["revision"] = Date.now().toString();`)
}

func TestGenerate_UpdateComposition(t *testing.T) {
	composed := model.Generators{Create: model.Gen(model.GeneratorComposition), Update: model.Gen(model.GeneratorComposition)}

	t.Run("from changes", func(t *testing.T) {
		r, err := model.NewResource(model.ResourceOptions{Name: "person", Attributes: []model.AttributeOptions{
			{Name: "my-name"},
			{Name: "search", Generators: composed},
		}})
		require.NoError(t, err)
		require.NoError(t, r.Attribute("search").AddCompositionSource(r.Attribute("type")))
		require.NoError(t, r.Attribute("search").AddCompositionSource(r.Attribute("my-name")))
		_, err = r.AddOperation(model.OperationOptions{SubType: model.UpdateOne})
		require.NoError(t, err)

		out := generate(t, r)
		assert.Contains(t, out, "`person#${changes.myName}`")
	})
	t.Run("unknown source", func(t *testing.T) {
		r, err := model.NewResource(model.ResourceOptions{Name: "person", Attributes: []model.AttributeOptions{
			{Name: "search", Generators: composed},
		}})
		require.NoError(t, err)
		require.NoError(t, r.Attribute("search").AddCompositionSource(r.Attribute("created-at")))
		_, err = r.AddOperation(model.OperationOptions{SubType: model.UpdateOne})
		require.NoError(t, err)

		_, err = New(Config{Resource: r}).Generate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `source "created-at" is not known on update`)
	})
}

func TestGenerate_Description(t *testing.T) {
	r := newPerson(t, model.ResourceOptions{}, model.OperationOptions{SubType: model.DeleteOne, Description: "Removes\n a person."})
	out := generate(t, r)
	assert.Contains(t, out, "/** Removes a person. */\nexport function deletePerson(")

	r = newPerson(t, model.ResourceOptions{}, model.OperationOptions{SubType: model.DeleteOne, Description: "Removes */ a person"})
	out = generate(t, r)
	assert.Contains(t, out, "/** Removes * / a person */\nexport function deletePerson(")
}

func TestNames(t *testing.T) {
	r := newPerson(t, model.ResourceOptions{}, ops(model.List)...)
	assert.Equal(t, "person-commands.ts", FileName(r))
	assert.Equal(t, "listPeople", FunctionName(r.Operations()[0]))
}

func TestTemplateLiteral(t *testing.T) {
	e, err := keys.Compose([]keys.Source{{Name: "type"}, {Name: "my-name", ShortName: "n"}}, "`")
	require.NoError(t, err)

	got := templateLiteral(e, func(s keys.Source) (string, bool) {
		if s.Name == "type" {
			return "per${son}", true
		}
		return "item." + codegen.StorageName(s), false
	})
	assert.Equal(t, "`per\\${son}\\`${item.n}`", got)

	got = templateLiteral(e, func(s keys.Source) (string, bool) { return s.Name, true })
	assert.Equal(t, "\"type`my-name\"", got)
}
