package ddbcmd

import (
	"strings"

	"github.com/acksell/blueprint/codegen"
	"github.com/acksell/blueprint/model/keys"
)

var (
	quote   = codegen.Quote
	literal = codegen.Literal
)

// expressionFields returns the command params of a built expression.
func expressionFields(e codegen.Expression) []field {
	var out []field
	if c := e.Condition(); c != nil {
		out = append(out, field{key: "ConditionExpression", value: quote(*c)})
	}
	if k := e.KeyCondition(); k != nil {
		out = append(out, field{key: "KeyConditionExpression", value: quote(*k)})
	}
	if f := e.Filter(); f != nil {
		out = append(out, field{key: "FilterExpression", value: quote(*f)})
	}
	if len(e.Names) > 0 {
		out = append(out, field{key: "ExpressionAttributeNames", value: codegen.Object(e.Names)})
	}
	if len(e.Values) > 0 {
		out = append(out, field{key: "ExpressionAttributeValues", value: codegen.Object(e.Values)})
	}
	return out
}

// object renders fields as a one line object literal.
func object(fs []field) string {
	parts := make([]codegen.Field, len(fs))
	for i, f := range fs {
		parts[i] = codegen.Field{Key: f.key, Value: f.value}
	}
	return codegen.Object(parts)
}

// templateLiteral renders a key expression as a template literal. part
// returns the code of one source, or its text when literal is true.
// Expressions made only of literal text come out as a string literal.
func templateLiteral(e keys.Expr, part func(keys.Source) (code string, literal bool)) string {
	var b strings.Builder
	allLiteral := true
	var text strings.Builder
	for _, p := range e.Parts() {
		if p.Literal {
			b.WriteString(escapeTemplate(p.Value))
			text.WriteString(p.Value)
			continue
		}
		code, lit := part(p.Source)
		if lit {
			b.WriteString(escapeTemplate(code))
			text.WriteString(code)
			continue
		}
		allLiteral = false
		b.WriteString("${" + code + "}")
	}
	if allLiteral {
		return quote(text.String())
	}
	return "`" + b.String() + "`"
}

var templateEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`", "${", "\\${")

func escapeTemplate(s string) string {
	return templateEscaper.Replace(s)
}
