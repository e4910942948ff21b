// Package table derives the physical DynamoDB table of a service from the
// access patterns of its resources.
package table

import (
	"fmt"

	"github.com/acksell/blueprint/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type TableDefinition struct {
	Name           string
	KeyDefinitions PrimaryKeyDefinition
	GSIs           []GSIDefinition
}

// GSIDefinition represents a Global Secondary Index definition.
type GSIDefinition struct {
	Name           string
	KeyDefinitions PrimaryKeyDefinition
}

// IndexConflictError is returned when two resources declare different keys
// for the same index of the shared table.
type IndexConflictError struct {
	// Index is the GSI name, or empty for the table keys.
	Index    string
	Resource string
	Got      PrimaryKeyDefinition
	Want     PrimaryKeyDefinition
}

func (e *IndexConflictError) Error() string {
	index := "table keys"
	if e.Index != "" {
		index = fmt.Sprintf("index %q", e.Index)
	}
	return fmt.Sprintf("resource %q: %s are [%s], other resources use [%s]", e.Resource, index, e.Got, e.Want)
}

// FromService derives the table all resources of svc are stored in. Every
// resource must agree on the table keys and on the keys of every GSI they
// share. GSIs are listed in order of first use.
func FromService(svc *model.Service) (TableDefinition, error) {
	t := TableDefinition{Name: svc.Table()}
	var keysFrom string
	gsiIndex := map[string]int{}

	for _, r := range svc.Resources() {
		for _, p := range r.AccessPatterns() {
			def, err := keyDefinitionOf(p)
			if err != nil {
				return TableDefinition{}, fmt.Errorf("resource %q: access pattern %q: %w", r.Name(), p.Name(), err)
			}
			if p.IsPrimary() {
				if keysFrom == "" {
					t.KeyDefinitions, keysFrom = def, r.Name()
					continue
				}
				if def != t.KeyDefinitions {
					return TableDefinition{}, &IndexConflictError{Resource: r.Name(), Got: def, Want: t.KeyDefinitions}
				}
				continue
			}
			if i, ok := gsiIndex[p.Index()]; ok {
				if def != t.GSIs[i].KeyDefinitions {
					return TableDefinition{}, &IndexConflictError{Index: p.Index(), Resource: r.Name(), Got: def, Want: t.GSIs[i].KeyDefinitions}
				}
				continue
			}
			gsiIndex[p.Index()] = len(t.GSIs)
			t.GSIs = append(t.GSIs, GSIDefinition{Name: p.Index(), KeyDefinitions: def})
		}
	}
	if keysFrom == "" {
		return TableDefinition{}, fmt.Errorf("table %q: service %q has no resources", t.Name, svc.Name())
	}
	return t, nil
}

// CreateTableInput returns the request creating the table with on-demand
// billing. GSIs project all attributes.
func (t TableDefinition) CreateTableInput() *dynamodb.CreateTableInput {
	in := &dynamodb.CreateTableInput{
		TableName:   aws.String(t.Name),
		BillingMode: types.BillingModePayPerRequest,
		KeySchema:   t.KeyDefinitions.keySchema(),
	}

	seen := map[string]bool{}
	define := func(k KeyDef) {
		if k.Name == "" || seen[k.Name] {
			return
		}
		seen[k.Name] = true
		in.AttributeDefinitions = append(in.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(k.Name),
			AttributeType: types.ScalarAttributeType(k.Kind),
		})
	}
	define(t.KeyDefinitions.PartitionKey)
	define(t.KeyDefinitions.SortKey)

	for _, gsi := range t.GSIs {
		define(gsi.KeyDefinitions.PartitionKey)
		define(gsi.KeyDefinitions.SortKey)
		in.GlobalSecondaryIndexes = append(in.GlobalSecondaryIndexes, types.GlobalSecondaryIndex{
			IndexName:  aws.String(gsi.Name),
			KeySchema:  gsi.KeyDefinitions.keySchema(),
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}
	return in
}

// GSI returns the index with the given name.
func (t TableDefinition) GSI(name string) (GSIDefinition, bool) {
	for _, g := range t.GSIs {
		if g.Name == name {
			return g, true
		}
	}
	return GSIDefinition{}, false
}
