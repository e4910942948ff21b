// Package codegen holds what the target renderers share: the generated file
// header, literals of default values and DynamoDB expressions whose values
// stand for code in the target language.
package codegen

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/acksell/blueprint/model"
	"github.com/acksell/blueprint/model/keys"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Header marks generated files.
const Header = "Code generated by blueprint. DO NOT EDIT."

// Quote renders s as a double quoted string literal, valid in TypeScript,
// JSON and VTL.
func Quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Literal renders a default value as a literal of its storage type.
func Literal(d *model.DefaultValue) (string, error) {
	av, err := attributevalue.Marshal(d.Value())
	if err != nil {
		return "", fmt.Errorf("marshaling default %v: %w", d, err)
	}
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return Quote(v.Value), nil
	case *types.AttributeValueMemberN:
		return v.Value, nil
	case *types.AttributeValueMemberBOOL:
		return strconv.FormatBool(v.Value), nil
	}
	return "", fmt.Errorf("unsupported default %v of type %T", d, av)
}

const placeholderPrefix = "\x00blueprint:"

// Placeholders stands in for target code inside expression builder values.
// The builder aliases every value as :N and Build swaps the placeholder
// back to its code.
type Placeholders struct {
	code []string
}

// Value returns an operand standing for code.
func (p *Placeholders) Value(code string) expression.ValueBuilder {
	p.code = append(p.code, code)
	return expression.Value(placeholderPrefix + strconv.Itoa(len(p.code)-1))
}

// Field is a key and value pair, both already rendered.
type Field struct {
	Key   string
	Value string
}

// Expression is a built expression with its aliases resolved.
type Expression struct {
	expression.Expression
	// Names are the quoted name aliases and quoted attribute names.
	Names []Field
	// Values are the quoted value aliases and the code of each value.
	Values []Field
}

// Build builds b and resolves its aliases, ordered by alias number.
func (p *Placeholders) Build(b expression.Builder) (Expression, error) {
	expr, err := b.Build()
	if err != nil {
		return Expression{}, fmt.Errorf("building expression: %w", err)
	}
	out := Expression{Expression: expr}
	for alias, name := range expr.Names() {
		out.Names = append(out.Names, Field{Key: Quote(alias), Value: Quote(name)})
	}
	for alias, av := range expr.Values() {
		code, err := p.resolve(av)
		if err != nil {
			return Expression{}, fmt.Errorf("value %s: %w", alias, err)
		}
		out.Values = append(out.Values, Field{Key: Quote(alias), Value: code})
	}
	sortFields(out.Names)
	sortFields(out.Values)
	return out, nil
}

func (p *Placeholders) resolve(av types.AttributeValue) (string, error) {
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok || !strings.HasPrefix(s.Value, placeholderPrefix) {
		return "", fmt.Errorf("unexpected value %T", av)
	}
	i, err := strconv.Atoi(strings.TrimPrefix(s.Value, placeholderPrefix))
	if err != nil || i < 0 || i >= len(p.code) {
		return "", fmt.Errorf("unknown placeholder %q", s.Value)
	}
	return p.code[i], nil
}

// sortFields orders aliases numerically, so "#10" follows "#9".
func sortFields(fs []Field) {
	sort.Slice(fs, func(i, j int) bool {
		a, b := fs[i].Key, fs[j].Key
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
}

// SetClauses splits the SET clauses of the update expression,
// e.g. ["#1 = :0", "#2 = :1"].
func (e Expression) SetClauses() []string {
	u := e.Update()
	if u == nil {
		return nil
	}
	set := strings.TrimPrefix(strings.TrimSpace(*u), "SET ")
	return strings.Split(set, ", ")
}

// Object renders fields as a one line object literal.
func Object(fs []Field) string {
	if len(fs) == 0 {
		return "{}"
	}
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.Key + ": " + f.Value
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// CompositionOrder orders composed attributes so that every composed source
// comes before the attributes built from it.
func CompositionOrder(composed []*model.Attribute) ([]*model.Attribute, error) {
	pending := map[string]bool{}
	for _, a := range composed {
		pending[a.Name()] = true
	}
	var out []*model.Attribute
	for len(out) < len(composed) {
		progressed := false
		for _, a := range composed {
			if !pending[a.Name()] {
				continue
			}
			ready := true
			for _, src := range a.CompositionSources() {
				if pending[src] {
					ready = false
					break
				}
			}
			if ready {
				out = append(out, a)
				delete(pending, a.Name())
				progressed = true
			}
		}
		if !progressed {
			for _, a := range composed {
				if pending[a.Name()] {
					return nil, fmt.Errorf("composition of %q is circular", a.Name())
				}
			}
		}
	}
	return out, nil
}

// StorageName is the item field of a key source.
func StorageName(s keys.Source) string {
	if s.ShortName == "" {
		return s.Name
	}
	return s.ShortName
}
