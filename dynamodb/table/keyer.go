package table

import (
	"fmt"
	"strings"

	"github.com/acksell/blueprint/model"
	"github.com/acksell/blueprint/model/keys"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Keyer computes one key value from a stored item.
type Keyer interface {
	Key(doc map[string]types.AttributeValue) (types.AttributeValue, error)
}

// KeyerFor returns the keyer of an access pattern key: a copy of the key
// attribute, or the join of its composition sources.
func KeyerFor(k model.Key) (Keyer, error) {
	a := k.Attribute()
	if !a.IsComposed() {
		return CopyKeyer(a.ShortName()), nil
	}
	e, err := a.KeyExpr()
	if err != nil {
		return nil, fmt.Errorf("key %q: %w", a.Name(), err)
	}
	return ComposeKeyer(e), nil
}

// ComposeKeyer joins the values of the expression sources, looked up by
// storage name, with the expression separator. Sources can only be of type
// string or number. A missing source is an error.
func ComposeKeyer(e keys.Expr) *composeKey {
	return &composeKey{e}
}

type composeKey struct {
	expr keys.Expr
}

func (k composeKey) Key(doc map[string]types.AttributeValue) (types.AttributeValue, error) {
	sources := k.expr.Sources()
	vals := make([]string, len(sources))
	for i, src := range sources {
		name := src.ShortName
		if name == "" {
			name = src.Name
		}
		v, found := doc[name]
		if !found {
			return nil, fmt.Errorf("key source %q not found", name)
		}
		switch attr := v.(type) {
		case *types.AttributeValueMemberS:
			vals[i] = attr.Value
		case *types.AttributeValueMemberN:
			vals[i] = attr.Value
		default:
			return nil, fmt.Errorf("type for key source %q is not string or number, got %T", name, v)
		}
	}
	return &types.AttributeValueMemberS{Value: strings.Join(vals, k.expr.Separator())}, nil
}

func CopyKeyer(key string) *copyKey {
	return &copyKey{key}
}

type copyKey struct {
	key string
}

func (k copyKey) Key(doc map[string]types.AttributeValue) (types.AttributeValue, error) {
	v, found := doc[k.key]
	if !found {
		return nil, fmt.Errorf("key %q not found", k.key)
	}
	return v, nil
}

// ItemKey computes the key attributes of an access pattern from an item and
// checks them against the key definition.
func ItemKey(p *model.AccessPattern, doc map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	def, err := keyDefinitionOf(p)
	if err != nil {
		return nil, err
	}
	out := map[string]types.AttributeValue{}
	compute := func(which string, k model.Key, d KeyDef) error {
		keyer, err := KeyerFor(k)
		if err != nil {
			return err
		}
		v, err := keyer.Key(doc)
		if err != nil {
			return fmt.Errorf("failed to get %s key: %w", which, err)
		}
		if err := attributeMatchesDefinition(d.Kind, v); err != nil {
			return fmt.Errorf("%s key kind does not match definition: %w", which, err)
		}
		out[d.Name] = v
		return nil
	}
	if err := compute("partition", p.PartitionKey(), def.PartitionKey); err != nil {
		return nil, err
	}
	if sk := p.SortKey(); sk != nil {
		if err := compute("sort", *sk, def.SortKey); err != nil {
			return nil, err
		}
	}
	return out, nil
}
