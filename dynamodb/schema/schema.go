// Package schema defines the data types of the generated table schema file
// and builds them from a service model.
package schema

import (
	"bytes"
	"fmt"

	"github.com/acksell/blueprint/dynamodb/table"
	"github.com/acksell/blueprint/model"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the generated schema file.
const FileName = "schema_blueprint.yaml"

// Schema is the root type containing all table definitions.
// This maps directly to the structure of schema_blueprint.yaml files.
type Schema struct {
	Service string  `yaml:"service" json:"service"`
	Tables  []Table `yaml:"tables" json:"tables"`
}

// Table describes a DynamoDB table structure with its entities.
type Table struct {
	Name         string   `yaml:"name" json:"name"`
	PartitionKey KeyDef   `yaml:"partitionKey" json:"partitionKey"`
	SortKey      *KeyDef  `yaml:"sortKey,omitempty" json:"sortKey,omitempty"`
	GSIs         []GSI    `yaml:"gsis,omitempty" json:"gsis,omitempty"`
	Entities     []Entity `yaml:"entities,omitempty" json:"entities,omitempty"`
}

// KeyDef describes a key attribute definition.
type KeyDef struct {
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"` // "S", "N", or "B"
}

// GSI describes a Global Secondary Index.
type GSI struct {
	Name         string  `yaml:"name" json:"name"`
	PartitionKey KeyDef  `yaml:"partitionKey" json:"partitionKey"`
	SortKey      *KeyDef `yaml:"sortKey,omitempty" json:"sortKey,omitempty"`
}

// Entity describes a resource stored in a table.
type Entity struct {
	Type                string       `yaml:"type" json:"type"`
	PartitionKeyPattern string       `yaml:"partitionKeyPattern" json:"partitionKeyPattern"`
	SortKeyPattern      string       `yaml:"sortKeyPattern,omitempty" json:"sortKeyPattern,omitempty"`
	Fields              []Field      `yaml:"fields" json:"fields"`
	GSIMappings         []GSIMapping `yaml:"gsiMappings,omitempty" json:"gsiMappings,omitempty"`
	Operations          []Operation  `yaml:"operations,omitempty" json:"operations,omitempty"`
	IsVersioned         bool         `yaml:"isVersioned,omitempty" json:"isVersioned,omitempty"`
	TenantScoped        bool         `yaml:"tenantScoped,omitempty" json:"tenantScoped,omitempty"`
}

// Field describes an entity field.
type Field struct {
	Name     string `yaml:"name" json:"name"`
	Tag      string `yaml:"tag" json:"tag"`
	Type     string `yaml:"type" json:"type"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Hidden   bool   `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	// Generated lists the non-NONE generators as stage: kind.
	Generated map[string]string `yaml:"generated,omitempty" json:"generated,omitempty"`
}

// GSIMapping describes how an entity maps to a GSI.
type GSIMapping struct {
	GSI              string `yaml:"gsi" json:"gsi"`
	PartitionPattern string `yaml:"partitionPattern" json:"partitionPattern"`
	SortPattern      string `yaml:"sortPattern,omitempty" json:"sortPattern,omitempty"`
}

// Operation describes an operation and its derived structures.
type Operation struct {
	Name    string   `yaml:"name" json:"name"`
	Type    string   `yaml:"type" json:"type"`
	SubType string   `yaml:"subType" json:"subType"`
	Index   string   `yaml:"index,omitempty" json:"index,omitempty"`
	Input   []string `yaml:"input" json:"input"`
	Output  []string `yaml:"output" json:"output"`
}

// Build describes the table of svc and every resource stored in it.
func Build(svc *model.Service) (Schema, error) {
	def, err := table.FromService(svc)
	if err != nil {
		return Schema{}, err
	}
	tbl := Table{
		Name:         def.Name,
		PartitionKey: keyDef(def.KeyDefinitions.PartitionKey),
	}
	if def.KeyDefinitions.HasSortKey() {
		sk := keyDef(def.KeyDefinitions.SortKey)
		tbl.SortKey = &sk
	}
	for _, g := range def.GSIs {
		gsi := GSI{Name: g.Name, PartitionKey: keyDef(g.KeyDefinitions.PartitionKey)}
		if g.KeyDefinitions.HasSortKey() {
			sk := keyDef(g.KeyDefinitions.SortKey)
			gsi.SortKey = &sk
		}
		tbl.GSIs = append(tbl.GSIs, gsi)
	}

	for _, r := range svc.Resources() {
		entity, err := buildEntity(r)
		if err != nil {
			return Schema{}, fmt.Errorf("resource %q: %w", r.Name(), err)
		}
		tbl.Entities = append(tbl.Entities, entity)
	}
	return Schema{Service: svc.Name(), Tables: []Table{tbl}}, nil
}

func keyDef(k table.KeyDef) KeyDef {
	return KeyDef{Name: k.Name, Kind: string(k.Kind)}
}

func buildEntity(r *model.Resource) (Entity, error) {
	entity := Entity{Type: r.Name(), TenantScoped: r.TenantEnabled()}
	for _, p := range r.AccessPatterns() {
		pk, sk, err := patterns(p)
		if err != nil {
			return Entity{}, fmt.Errorf("access pattern %q: %w", p.Name(), err)
		}
		if p.IsPrimary() {
			entity.PartitionKeyPattern, entity.SortKeyPattern = pk, sk
			if s := p.SortKey(); s != nil {
				for _, src := range s.Sources() {
					if src.Name() == model.AttrVersion {
						entity.IsVersioned = true
					}
				}
			}
			continue
		}
		entity.GSIMappings = append(entity.GSIMappings, GSIMapping{GSI: p.Index(), PartitionPattern: pk, SortPattern: sk})
	}

	for _, a := range r.Attributes() {
		f := Field{
			Name:     a.Name(),
			Tag:      a.ShortName(),
			Type:     string(a.Type()),
			Required: a.Required(),
			Hidden:   a.IsHidden(),
		}
		for _, s := range model.Stages {
			if g := a.Generator(s); !g.IsNone() {
				if f.Generated == nil {
					f.Generated = map[string]string{}
				}
				f.Generated[string(s)] = string(g.Kind)
			}
		}
		entity.Fields = append(entity.Fields, f)
	}

	for _, op := range r.Operations() {
		o := Operation{
			Name:    op.Name(),
			Type:    string(op.Type()),
			SubType: string(op.SubType()),
			Index:   op.AccessPattern().Index(),
			Input:   op.Input().AttributeNames(),
			Output:  op.Output().AttributeNames(),
		}
		entity.Operations = append(entity.Operations, o)
	}
	return entity, nil
}

// patterns returns the storage patterns of the keys of p, e.g. "{tid}#{id}".
func patterns(p *model.AccessPattern) (pk, sk string, err error) {
	e, err := p.PartitionKey().Expr()
	if err != nil {
		return "", "", fmt.Errorf("partition key: %w", err)
	}
	pk = e.StoragePattern()
	if s := p.SortKey(); s != nil {
		e, err := s.Expr()
		if err != nil {
			return "", "", fmt.Errorf("sort key: %w", err)
		}
		sk = e.StoragePattern()
	}
	return pk, sk, nil
}

// Marshal encodes the schema as YAML behind a generated-file header.
func Marshal(s Schema) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# Generated by blueprint. DO NOT EDIT.\n\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(s); err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a schema file written by Marshal.
func Unmarshal(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("parsing schema: %w", err)
	}
	return s, nil
}
