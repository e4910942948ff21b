package table

import (
	"fmt"

	"github.com/acksell/blueprint/model"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type PrimaryKeyDefinition struct {
	PartitionKey KeyDef
	// SortKey has an empty Name when the key is partition key only.
	SortKey KeyDef
}

func (k PrimaryKeyDefinition) HasSortKey() bool {
	return k.SortKey.Name != ""
}

func (k PrimaryKeyDefinition) keySchema() []types.KeySchemaElement {
	schema := []types.KeySchemaElement{k.PartitionKey.element(types.KeyTypeHash)}
	if k.HasSortKey() {
		schema = append(schema, k.SortKey.element(types.KeyTypeRange))
	}
	return schema
}

func (k PrimaryKeyDefinition) String() string {
	if !k.HasSortKey() {
		return k.PartitionKey.String()
	}
	return k.PartitionKey.String() + ", " + k.SortKey.String()
}

type KeyDef struct {
	// Name is the stored attribute name, i.e. the attribute's short name.
	Name string
	Kind KeyKind
}

func (k KeyDef) element(typ types.KeyType) types.KeySchemaElement {
	name := k.Name
	return types.KeySchemaElement{AttributeName: &name, KeyType: typ}
}

func (k KeyDef) String() string {
	return k.Name + " (" + string(k.Kind) + ")"
}

type KeyKind string

const (
	KeyKindS KeyKind = "S"
	KeyKindN KeyKind = "N"
	KeyKindB KeyKind = "B"
)

// KeyKindOf returns the key kind of an attribute storage type. Only string and
// number attributes can be keys.
func KeyKindOf(st model.StorageType) (KeyKind, error) {
	switch st {
	case model.StorageString:
		return KeyKindS, nil
	case model.StorageNumber:
		return KeyKindN, nil
	}
	return "", fmt.Errorf("storage type %q cannot be used as a key", st)
}

// keyDefOf describes the key stored in attribute a.
func keyDefOf(a *model.Attribute) (KeyDef, error) {
	kind, err := KeyKindOf(a.StorageType())
	if err != nil {
		return KeyDef{}, fmt.Errorf("attribute %q: %w", a.Name(), err)
	}
	return KeyDef{Name: a.ShortName(), Kind: kind}, nil
}

func keyDefinitionOf(p *model.AccessPattern) (PrimaryKeyDefinition, error) {
	pk, err := keyDefOf(p.PartitionKey().Attribute())
	if err != nil {
		return PrimaryKeyDefinition{}, fmt.Errorf("partition key: %w", err)
	}
	def := PrimaryKeyDefinition{PartitionKey: pk}
	if sk := p.SortKey(); sk != nil {
		if def.SortKey, err = keyDefOf(sk.Attribute()); err != nil {
			return PrimaryKeyDefinition{}, fmt.Errorf("sort key: %w", err)
		}
	}
	return def, nil
}

func attributeMatchesDefinition(want KeyKind, v types.AttributeValue) error {
	var got KeyKind
	switch v.(type) {
	case *types.AttributeValueMemberS:
		got = KeyKindS
	case *types.AttributeValueMemberN:
		got = KeyKindN
	case *types.AttributeValueMemberB:
		got = KeyKindB
	default:
		return fmt.Errorf("unexpected key attribute type %T", v)
	}
	if got != want {
		return fmt.Errorf("got KeyKind %q want %q", got, want)
	}
	return nil
}
