// Package vtl renders AppSync resolver mapping templates for a DynamoDB
// data source, one request and one response template per operation.
//
// Field arguments follow the command functions: the operation input is
// $ctx.args.input, update changes are $ctx.args.changes, and resources with
// the composite key layout take $ctx.args.sortKey (or sortKeys for batches).
// Tenant ids and sequence numbers are read from the stash, where an earlier
// pipeline function puts them.
package vtl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/acksell/blueprint/codegen"
	"github.com/acksell/blueprint/codegen/typescript"
	"github.com/acksell/blueprint/model"
	"github.com/acksell/blueprint/model/keys"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

const (
	templateVersion = "2018-05-29"
	// defaultLimit is the page size of lists called without a limit.
	defaultLimit = 20
)

// RequestFileName returns the name of the request template of op.
func RequestFileName(op *model.Operation) string {
	return op.Name() + ".request.vtl"
}

// ResponseFileName returns the name of the response template of op.
func ResponseFileName(op *model.Operation) string {
	return op.Name() + ".response.vtl"
}

// File is one rendered template.
type File struct {
	Name    string
	Content []byte
}

// Config configures the generator.
type Config struct {
	Resource *model.Resource
	// Table is the table name batch operations address their items by.
	Table string
}

// Generator generates the resolver templates of one resource.
type Generator struct {
	config Config
}

// New creates a new Generator with the given configuration.
func New(cfg Config) *Generator {
	return &Generator{config: cfg}
}

// Generate renders the request and response template of every operation,
// in operation order.
func (g *Generator) Generate() ([]File, error) {
	r := g.config.Resource
	if r == nil {
		return nil, fmt.Errorf("no resource configured")
	}
	tmpl, err := template.New("response").Parse(responseTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	var out []File
	for _, op := range r.Operations() {
		t := &templates{resource: r, table: g.config.Table}
		req, kind, err := t.request(op)
		if err != nil {
			return nil, fmt.Errorf("resource %q: operation %q: %w", r.Name(), op.Name(), err)
		}
		var res bytes.Buffer
		err = tmpl.Execute(&res, responseData{Header: codegen.Header, Kind: kind, Table: codegen.Quote(g.config.Table)})
		if err != nil {
			return nil, fmt.Errorf("resource %q: operation %q: executing template: %w", r.Name(), op.Name(), err)
		}
		out = append(out,
			File{Name: RequestFileName(op), Content: []byte(req)},
			File{Name: ResponseFileName(op), Content: res.Bytes()},
		)
	}
	return out, nil
}

// result is the shape of the data source result a response template maps.
type result string

const (
	resultItem        result = "item"
	resultLatest      result = "latest"
	resultBatch       result = "batch"
	resultTransaction result = "transaction"
	resultPage        result = "page"
)

type responseData struct {
	Header string
	Kind   result
	Table  string
}

const responseTemplate = `## {{.Header}}
#if($ctx.error)
$util.error($ctx.error.message, $ctx.error.type)
#end
{{- if eq .Kind "latest"}}
#if($util.isNull($ctx.result.items))
$util.toJson($ctx.result)
#elseif($ctx.result.items.isEmpty())
null
#else
$util.toJson($ctx.result.items[0])
#end
{{- else if eq .Kind "batch"}}
$util.toJson($ctx.result.data.get({{.Table}}))
{{- else if eq .Kind "transaction"}}
$util.toJson($ctx.result.keys)
{{- else if eq .Kind "page"}}
$util.toJson({"items": $ctx.result.items, "nextToken": $ctx.result.nextToken})
{{- else}}
$util.toJson($ctx.result)
{{- end}}
`

// templates renders the request templates of one resource.
type templates struct {
	resource *model.Resource
	table    string
}

func (t *templates) request(op *model.Operation) (string, result, error) {
	w := &writer{}
	w.line("## %s", codegen.Header)
	if d := op.Description(); d != "" {
		w.line("## %s", strings.Join(strings.Fields(d), " "))
	}
	var kind result
	var err error
	switch op.SubType() {
	case model.CreateOne, model.CreateMany:
		kind, err = t.create(w, op)
	case model.ImportOne, model.ImportMany:
		kind, err = t.importItems(w, op)
	case model.ReadOne, model.ReadMany:
		kind, err = t.read(w, op)
	case model.UpdateOne, model.UpdateMany:
		kind, err = t.update(w, op)
	case model.DeleteOne, model.DeleteMany:
		kind, err = t.delete(w, op)
	case model.List:
		kind, err = t.list(w, op)
	default:
		err = &model.UnsupportedOperationTypeError{Resource: op.Resource().Name(), Operation: op.Name(), SubType: op.SubType()}
	}
	if err != nil {
		return "", "", err
	}
	return w.String(), kind, nil
}

func (t *templates) composite() bool {
	return t.resource.SortKey() != nil
}

func (t *templates) tableName() (string, error) {
	if t.table == "" {
		return "", fmt.Errorf("batch operations need a table name")
	}
	return t.table, nil
}

func header(operation string) []member {
	return []member{
		{key: "version", value: codegen.Quote(templateVersion)},
		{key: "operation", value: codegen.Quote(operation)},
	}
}

// valueFunc returns the VTL value of an attribute of a stored item, or ""
// to leave it out. Optional values are only put when they are not null.
type valueFunc func(a *model.Attribute) (code string, optional bool, err error)

func (t *templates) create(w *writer, op *model.Operation) (result, error) {
	inInput := map[string]bool{}
	for _, n := range op.Input().AttributeNames() {
		inInput[n] = true
	}
	value := func(a *model.Attribute) (string, bool, error) {
		g := a.CreateGenerator()
		if !g.IsNone() {
			v, err := t.generated(a, g)
			return v, false, err
		}
		var v string
		if inInput[a.Name()] && !a.IsHidden() {
			v = "$input." + typescript.PropertyName(a)
		}
		if g.Default != nil {
			lit, err := codegen.Literal(g.Default)
			if err != nil {
				return "", false, err
			}
			if v == "" {
				return lit, false, nil
			}
			return fmt.Sprintf("$util.defaultIfNull(%s, %s)", v, lit), false, nil
		}
		return v, v != "" && !a.Required(), nil
	}
	if op.IsBatch() {
		return t.batchPut(w, value)
	}
	cond, err := t.condition(expression.AttributeNotExists(expression.Name(t.resource.PartitionKey().ShortName())))
	if err != nil {
		return "", err
	}
	if err := t.put(w, value); err != nil {
		return "", err
	}
	w.object(append(header("PutItem"),
		member{key: "key", value: "$util.dynamodb.toMapValuesJson($key)"},
		member{key: "attributeValues", value: "$util.dynamodb.toMapValuesJson($item)"},
		member{key: "condition", fields: cond},
	))
	return resultItem, nil
}

// importItems renders imports, which upsert complete items keeping the
// values they carry and generating the rest.
func (t *templates) importItems(w *writer, op *model.Operation) (result, error) {
	value := func(a *model.Attribute) (string, bool, error) {
		g := a.CreateGenerator()
		if g.Kind == model.GeneratorTenant || a.IsHidden() {
			if !g.IsNone() {
				v, err := t.generated(a, g)
				return v, false, err
			}
			if g.Default == nil {
				return "", false, nil
			}
			lit, err := codegen.Literal(g.Default)
			return lit, false, err
		}
		v := "$input." + typescript.PropertyName(a)
		switch {
		case !g.IsNone():
			gen, err := t.generated(a, g)
			if err != nil {
				return "", false, err
			}
			return fmt.Sprintf("$util.defaultIfNull(%s, %s)", v, gen), false, nil
		case g.Default != nil:
			lit, err := codegen.Literal(g.Default)
			if err != nil {
				return "", false, err
			}
			return fmt.Sprintf("$util.defaultIfNull(%s, %s)", v, lit), false, nil
		}
		return v, true, nil
	}
	if op.IsBatch() {
		return t.batchPut(w, value)
	}
	if err := t.put(w, value); err != nil {
		return "", err
	}
	w.object(append(header("PutItem"),
		member{key: "key", value: "$util.dynamodb.toMapValuesJson($key)"},
		member{key: "attributeValues", value: "$util.dynamodb.toMapValuesJson($item)"},
	))
	return resultItem, nil
}

// put writes the statements building $item from the input and moving its
// table key to $key.
func (t *templates) put(w *writer, value valueFunc) error {
	w.line("#set($input = $ctx.args.input)")
	if err := t.item(w, value); err != nil {
		return err
	}
	w.line("#set($key = {})")
	for _, a := range t.resource.KeyAttributes() {
		w.qr("$key.put(%s, $item.remove(%s))", codegen.Quote(a.ShortName()), codegen.Quote(a.ShortName()))
	}
	return nil
}

func (t *templates) batchPut(w *writer, value valueFunc) (result, error) {
	table, err := t.tableName()
	if err != nil {
		return "", err
	}
	w.line("#set($items = [])")
	w.line("#foreach($input in $ctx.args.input)")
	if err := t.item(w, value); err != nil {
		return "", err
	}
	w.qr("$items.add($util.dynamodb.toMapValues($item))")
	w.line("#end")
	w.object(append(header("BatchPutItem"),
		member{key: "tables", fields: []member{{key: table, value: "$util.toJson($items)"}}},
	))
	return resultBatch, nil
}

// item writes the statements building $item from $input. Composed
// attributes follow once their sources are set.
func (t *templates) item(w *writer, value valueFunc) error {
	w.line("#set($item = {})")
	var composed []*model.Attribute
	for _, a := range t.resource.Attributes() {
		if a.IsComposed() {
			composed = append(composed, a)
			continue
		}
		v, optional, err := value(a)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", a.Name(), err)
		}
		if v == "" {
			continue
		}
		if optional {
			w.line("#if(!$util.isNull(%s))", v)
		}
		w.qr("$item.put(%s, %s)", codegen.Quote(a.ShortName()), v)
		if optional {
			w.line("#end")
		}
	}
	ordered, err := codegen.CompositionOrder(composed)
	if err != nil {
		return err
	}
	for _, a := range ordered {
		e, err := a.KeyExpr()
		if err != nil {
			return err
		}
		v, err := interpolate(e, func(s keys.Source) (string, bool) {
			return fmt.Sprintf("$!{item.get('%s')}", codegen.StorageName(s)), false
		})
		if err != nil {
			return fmt.Errorf("attribute %q: %w", a.Name(), err)
		}
		w.qr("$item.put(%s, %s)", codegen.Quote(a.ShortName()), v)
	}
	return nil
}

// generated returns the VTL producing the value of a generator.
func (t *templates) generated(a *model.Attribute, g model.Generator) (string, error) {
	switch g.Kind {
	case model.GeneratorGUID:
		return "$util.autoId()", nil
	case model.GeneratorCurrentDateTimeStamp:
		return "$util.time.nowISO8601()", nil
	case model.GeneratorType:
		return codegen.Quote(t.resource.Name()), nil
	case model.GeneratorVersion:
		if a.StorageType() == model.StorageNumber {
			return "$util.time.nowEpochMilliSeconds()", nil
		}
		return `"$util.time.nowEpochMilliSeconds()"`, nil
	case model.GeneratorTenant:
		return "$ctx.stash.tenantId", nil
	case model.GeneratorAutoIncrement:
		return fmt.Sprintf("$ctx.stash.sequences.get(%s)", codegen.Quote(a.Name())), nil
	}
	return "", fmt.Errorf("attribute %q: generator %s has no template value", a.Name(), g)
}

// key writes the statements building $key of the item input addresses.
// sortKey is left out when empty.
func (t *templates) key(w *writer, input, sortKey string) {
	r := t.resource
	pk := r.PartitionKey()
	w.line("#set($key = {})")
	w.qr("$key.put(%s, %s.%s)", codegen.Quote(pk.ShortName()), input, typescript.PropertyName(pk))
	if sk := r.SortKey(); sk != nil && sortKey != "" {
		w.qr("$key.put(%s, %s)", codegen.Quote(sk.ShortName()), sortKey)
	}
}

// eachKey writes a loop over the input items building $key of each, then
// the statements of body.
func (t *templates) eachKey(w *writer, body func()) {
	sortKey := ""
	if t.composite() {
		sortKey = "$ctx.args.sortKeys.get($foreach.index)"
	}
	w.line("#foreach($input in $ctx.args.input)")
	t.key(w, "$input", sortKey)
	body()
	w.line("#end")
}

func (t *templates) batchKeys(w *writer) {
	w.line("#set($keys = [])")
	t.eachKey(w, func() {
		w.qr("$keys.add($util.dynamodb.toMapValues($key))")
	})
}

func (t *templates) read(w *writer, op *model.Operation) (result, error) {
	if op.IsBatch() {
		table, err := t.tableName()
		if err != nil {
			return "", err
		}
		t.batchKeys(w)
		w.object(append(header("BatchGetItem"),
			member{key: "tables", fields: []member{{key: table, fields: []member{{key: "keys", value: "$util.toJson($keys)"}}}}},
		))
		return resultBatch, nil
	}

	getItem := append(header("GetItem"), member{key: "key", value: "$util.dynamodb.toMapValuesJson($key)"})
	w.line("#set($input = $ctx.args.input)")
	t.key(w, "$input", "")
	if !t.composite() {
		w.object(getItem)
		return resultItem, nil
	}

	// Without a sort key, read the latest version of the item.
	pk := t.resource.PartitionKey()
	var p codegen.Placeholders
	latest, err := p.Build(expression.NewBuilder().WithKeyCondition(
		expression.Key(pk.ShortName()).Equal(p.Value(dynamoDBJSON("$input." + typescript.PropertyName(pk))))))
	if err != nil {
		return "", err
	}
	w.line("#if($util.isNull($ctx.args.sortKey))")
	w.object(append(header("Query"),
		member{key: "query", fields: expressionMembers(*latest.KeyCondition(), latest)},
		member{key: "scanIndexForward", value: "false"},
		member{key: "limit", value: "1"},
	))
	w.line("#else")
	w.qr("$key.put(%s, $ctx.args.sortKey)", codegen.Quote(t.resource.SortKey().ShortName()))
	w.object(getItem)
	w.line("#end")
	return resultLatest, nil
}

func (t *templates) update(w *writer, op *model.Operation) (result, error) {
	r := t.resource
	changed := typescript.ChangeAttributes(r)
	cond, err := t.condition(expression.AttributeExists(expression.Name(r.PartitionKey().ShortName())))
	if err != nil {
		return "", err
	}

	// body builds $update and $condition of the item in $input.
	body := func() error {
		w.line("#set($changes = $ctx.args.changes)")
		w.line("#set($sets = [])")
		w.line("#set($names = {})")
		w.line("#set($values = {})")
		i := 0
		for _, a := range r.Attributes() {
			g := a.UpdateGenerator()
			if g.IsNone() {
				continue
			}
			var v string
			var err error
			if g.Kind == model.GeneratorComposition {
				v, err = t.updateComposition(a, changed)
			} else {
				v, err = t.generated(a, g)
			}
			if err != nil {
				return err
			}
			t.set(w, fmt.Sprintf("u%d", i), a, v)
			i++
		}
		for i, a := range changed {
			v := "$changes." + typescript.PropertyName(a)
			w.line("#if(!$util.isNull(%s))", v)
			t.set(w, fmt.Sprintf("c%d", i), a, v)
			w.line("#end")
		}
		w.line("#if($sets.isEmpty())")
		w.line("$util.error(%s)", codegen.Quote(op.Name()+": nothing to update"))
		w.line("#end")
		w.line("#foreach($set in $sets)")
		w.line("#if($foreach.index == 0)")
		w.line(`#set($expression = "SET $set")`)
		w.line("#else")
		w.line(`#set($expression = "$expression, $set")`)
		w.line("#end")
		w.line("#end")
		w.line(`#set($update = {"expression": $expression, "expressionNames": $names, "expressionValues": $values})`)
		w.line(`#set($condition = {"expression": %s, "expressionNames": %s})`, cond[0].value, cond[1].value)
		return nil
	}

	if op.IsBatch() {
		table, err := t.tableName()
		if err != nil {
			return "", err
		}
		w.line("#set($items = [])")
		t.eachKey(w, func() {
			if err = body(); err != nil {
				return
			}
			w.qr(`$items.add({"table": %s, "operation": "UpdateItem", "key": $util.dynamodb.toMapValues($key), "update": $update, "condition": $condition})`, codegen.Quote(table))
		})
		if err != nil {
			return "", err
		}
		w.object(append(header("TransactWriteItems"), member{key: "transactItems", value: "$util.toJson($items)"}))
		return resultTransaction, nil
	}

	w.line("#set($input = $ctx.args.input)")
	t.key(w, "$input", "$ctx.args.sortKey")
	if err := body(); err != nil {
		return "", err
	}
	w.object(append(header("UpdateItem"),
		member{key: "key", value: "$util.dynamodb.toMapValuesJson($key)"},
		member{key: "update", value: "$util.toJson($update)"},
		member{key: "condition", value: "$util.toJson($condition)"},
	))
	return resultItem, nil
}

// set writes the statements adding one SET clause under the aliases #alias
// and :alias.
func (t *templates) set(w *writer, alias string, a *model.Attribute, v string) {
	w.qr(`$sets.add("#%s = :%s")`, alias, alias)
	w.qr(`$names.put("#%s", %s)`, alias, codegen.Quote(a.ShortName()))
	w.qr(`$values.put(":%s", $util.dynamodb.toDynamoDB(%s))`, alias, v)
}

// updateComposition renders an attribute composed again on update from the
// changes and the item key.
func (t *templates) updateComposition(a *model.Attribute, changed []*model.Attribute) (string, error) {
	isChange := map[string]bool{}
	for _, c := range changed {
		isChange[c.Name()] = true
	}
	e, err := a.KeyExpr()
	if err != nil {
		return "", err
	}
	var missing string
	out, err := interpolate(e, func(s keys.Source) (string, bool) {
		src := t.resource.Attribute(s.Name)
		switch {
		case isChange[s.Name]:
			return "$!{changes." + typescript.PropertyName(src) + "}", false
		case src.IsPartitionKey():
			return "$!{input." + typescript.PropertyName(src) + "}", false
		case src.CreateGenerator().Kind == model.GeneratorType:
			return t.resource.Name(), true
		case src.CreateGenerator().Kind == model.GeneratorTenant:
			return "$!{ctx.stash.tenantId}", false
		}
		if missing == "" {
			missing = s.Name
		}
		return "", false
	})
	if err != nil {
		return "", err
	}
	if missing != "" {
		return "", fmt.Errorf("attribute %q: source %q is not known on update", a.Name(), missing)
	}
	return out, nil
}

func (t *templates) delete(w *writer, op *model.Operation) (result, error) {
	if op.IsBatch() {
		table, err := t.tableName()
		if err != nil {
			return "", err
		}
		t.batchKeys(w)
		w.object(append(header("BatchDeleteItem"),
			member{key: "tables", fields: []member{{key: table, value: "$util.toJson($keys)"}}},
		))
		return resultBatch, nil
	}
	cond, err := t.condition(expression.AttributeExists(expression.Name(t.resource.PartitionKey().ShortName())))
	if err != nil {
		return "", err
	}
	w.line("#set($input = $ctx.args.input)")
	t.key(w, "$input", "$ctx.args.sortKey")
	w.object(append(header("DeleteItem"),
		member{key: "key", value: "$util.dynamodb.toMapValuesJson($key)"},
		member{key: "condition", fields: cond},
	))
	return resultItem, nil
}

// list renders a query on the index of the operation. Lists on the table
// itself scan for items of the resource type.
func (t *templates) list(w *writer, op *model.Operation) (result, error) {
	r := t.resource
	pattern := op.AccessPattern()
	page := []member{
		{key: "limit", value: fmt.Sprintf("$util.defaultIfNull($ctx.args.limit, %d)", defaultLimit)},
		{key: "nextToken", value: "$util.toJson($util.defaultIfNullOrBlank($ctx.args.nextToken, null))"},
	}
	var p codegen.Placeholders

	if pattern.IsPrimary() {
		filter := expression.Name(r.Attribute(model.AttrType).ShortName()).Equal(p.Value(dynamoDBJSON(codegen.Quote(r.Name()))))
		if r.TenantEnabled() {
			filter = filter.And(expression.Name(r.Attribute(model.AttrTenantID).ShortName()).Equal(p.Value(dynamoDBJSON("$ctx.stash.tenantId"))))
		}
		scan, err := p.Build(expression.NewBuilder().WithFilter(filter))
		if err != nil {
			return "", err
		}
		w.object(append(append(header("Scan"), member{key: "filter", fields: expressionMembers(*scan.Filter(), scan)}), page...))
		return resultPage, nil
	}

	pk := pattern.PartitionKey()
	value, err := t.listPartition(pk)
	if err != nil {
		return "", err
	}
	query, err := p.Build(expression.NewBuilder().WithKeyCondition(expression.Key(pk.Attribute().ShortName()).Equal(p.Value(dynamoDBJSON(value)))))
	if err != nil {
		return "", err
	}
	w.object(append(append(header("Query"),
		member{key: "index", value: codegen.Quote(pattern.Index())},
		member{key: "query", fields: expressionMembers(*query.KeyCondition(), query)},
	), page...))
	return resultPage, nil
}

// listPartition returns the partition value of a list query. A key composed
// of the type and tenant only is computed; any other key is the
// partitionKey argument.
func (t *templates) listPartition(pk model.Key) (string, error) {
	const arg = "$ctx.args.partitionKey"
	if !pk.Attribute().IsComposed() {
		return arg, nil
	}
	e, err := pk.Expr()
	if err != nil {
		return "", err
	}
	computed := true
	v, err := interpolate(e, func(s keys.Source) (string, bool) {
		switch t.resource.Attribute(s.Name).CreateGenerator().Kind {
		case model.GeneratorType:
			return t.resource.Name(), true
		case model.GeneratorTenant:
			return "$!{ctx.stash.tenantId}", false
		}
		computed = false
		return "", false
	})
	if err != nil {
		return "", err
	}
	if !computed {
		return arg, nil
	}
	return v, nil
}

// condition returns the condition members of c.
func (t *templates) condition(c expression.ConditionBuilder) ([]member, error) {
	var p codegen.Placeholders
	cond, err := p.Build(expression.NewBuilder().WithCondition(c))
	if err != nil {
		return nil, err
	}
	return expressionMembers(*cond.Condition(), cond), nil
}

func expressionMembers(expr string, e codegen.Expression) []member {
	ms := []member{{key: "expression", value: codegen.Quote(expr)}}
	if len(e.Names) > 0 {
		ms = append(ms, member{key: "expressionNames", value: codegen.Object(e.Names)})
	}
	if len(e.Values) > 0 {
		ms = append(ms, member{key: "expressionValues", value: codegen.Object(e.Values)})
	}
	return ms
}

func dynamoDBJSON(v string) string {
	return "$util.dynamodb.toDynamoDBJson(" + v + ")"
}

// interpolate renders a key expression as an interpolated VTL string. part
// returns the reference of one source, or its text when literal is true.
func interpolate(e keys.Expr, part func(keys.Source) (code string, literal bool)) (string, error) {
	var b strings.Builder
	for _, p := range e.Parts() {
		if p.Literal {
			if strings.ContainsAny(p.Value, `"$`) {
				return "", fmt.Errorf("separator %q cannot be written in a template string", p.Value)
			}
			b.WriteString(p.Value)
			continue
		}
		code, lit := part(p.Source)
		if lit && strings.ContainsAny(code, `"$`) {
			return "", fmt.Errorf("value %q cannot be written in a template string", code)
		}
		b.WriteString(code)
	}
	return `"` + b.String() + `"`, nil
}
