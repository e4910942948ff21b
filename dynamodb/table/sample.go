package table

import (
	"fmt"
	"maps"

	"github.com/acksell/blueprint/model"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// SampleItem builds an example stored item of r. Every attribute gets a fixed
// placeholder value of its type, or its create default, and composed
// attributes are computed from their sources the way they are stored.
// The item is keyed by storage name.
func SampleItem(r *model.Resource) (map[string]types.AttributeValue, error) {
	item := map[string]types.AttributeValue{}
	var composed []*model.Attribute
	for _, a := range r.Attributes() {
		if a.IsComposed() {
			composed = append(composed, a)
			continue
		}
		v, err := attributevalue.Marshal(sampleValue(r, a))
		if err != nil {
			return nil, fmt.Errorf("resource %q: attribute %q: failed to marshal sample value: %w", r.Name(), a.Name(), err)
		}
		item[a.ShortName()] = v
	}
	// Composed attributes may be built from other composed attributes, so
	// resolve them until nothing changes.
	for len(composed) > 0 {
		var pending []*model.Attribute
		for _, a := range composed {
			e, err := a.KeyExpr()
			if err != nil {
				return nil, fmt.Errorf("resource %q: %w", r.Name(), err)
			}
			v, err := ComposeKeyer(e).Key(item)
			if err != nil {
				pending = append(pending, a)
				continue
			}
			item[a.ShortName()] = v
		}
		if len(pending) == len(composed) {
			return nil, fmt.Errorf("resource %q: cannot resolve composed attribute %q", r.Name(), pending[0].Name())
		}
		composed = pending
	}
	// The keys of every access pattern are computed from the item, so a
	// sample whose key values do not match the key definitions fails here.
	for _, p := range r.AccessPatterns() {
		key, err := ItemKey(p, item)
		if err != nil {
			return nil, fmt.Errorf("resource %q: access pattern %q: %w", r.Name(), p.Name(), err)
		}
		maps.Copy(item, key)
	}
	return item, nil
}

func sampleValue(r *model.Resource, a *model.Attribute) any {
	if d := a.CreateGenerator().Default; d != nil {
		return d.Value()
	}
	switch a.CreateGenerator().Kind {
	case model.GeneratorType:
		return r.Name()
	case model.GeneratorTenant:
		return "tenant-1"
	}
	switch a.Type() {
	case model.TypeGuid:
		return "00000000-0000-4000-8000-000000000000"
	case model.TypeDate:
		return "2024-01-01"
	case model.TypeTime:
		return "12:00:00"
	case model.TypeDateTime:
		return "2024-01-01T12:00:00.000Z"
	case model.TypeTimestamp:
		return 1704110400000
	case model.TypeEmail:
		return "user@example.com"
	case model.TypePhone:
		return "+15555550100"
	case model.TypeUrl:
		return "https://example.com"
	case model.TypeIpAddress:
		return "192.0.2.1"
	case model.TypeInt, model.TypeCount:
		return 1
	case model.TypeFloat, model.TypeAverage, model.TypeSum:
		return 1.5
	case model.TypeBoolean:
		return true
	case model.TypeArray:
		return []any{}
	case model.TypeJson, model.TypeMap:
		return map[string]any{}
	}
	return a.Name()
}

// ItemJSON converts an item to the DynamoDB JSON shape, e.g. {"id": {"S": "1"}}.
func ItemJSON(item map[string]types.AttributeValue) map[string]any {
	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = attributeJSON(v)
	}
	return out
}

func attributeJSON(av types.AttributeValue) map[string]any {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return map[string]any{"S": v.Value}
	case *types.AttributeValueMemberN:
		return map[string]any{"N": v.Value}
	case *types.AttributeValueMemberBOOL:
		return map[string]any{"BOOL": v.Value}
	case *types.AttributeValueMemberNULL:
		return map[string]any{"NULL": v.Value}
	case *types.AttributeValueMemberB:
		return map[string]any{"B": v.Value}
	case *types.AttributeValueMemberSS:
		return map[string]any{"SS": v.Value}
	case *types.AttributeValueMemberNS:
		return map[string]any{"NS": v.Value}
	case *types.AttributeValueMemberL:
		list := make([]any, len(v.Value))
		for i, e := range v.Value {
			list[i] = attributeJSON(e)
		}
		return map[string]any{"L": list}
	case *types.AttributeValueMemberM:
		return map[string]any{"M": ItemJSON(v.Value)}
	default:
		panic(fmt.Sprintf("unsupported attribute value %T", v))
	}
}
