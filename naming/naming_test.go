package naming_test

import (
	"testing"

	"github.com/acksell/blueprint/naming"
	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"my-name", []string{"my", "name"}},
		{"my_name", []string{"my", "name"}},
		{"myName", []string{"my", "name"}},
		{"MyName", []string{"my", "name"}},
		{"my name", []string{"my", "name"}},
		{"HTTPServer", []string{"http", "server"}},
		{"tenantID", []string{"tenant", "id"}},
		{"created-at", []string{"created", "at"}},
		{"gsi1pk", []string{"gsi1pk"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, naming.Words(tt.in))
		})
	}
}

func TestFormats(t *testing.T) {
	tests := []struct {
		in                                     string
		param, camel, pascal, snake, constCase string
	}{
		{"my-name", "my-name", "myName", "MyName", "my_name", "MY_NAME"},
		{"CreatePerson", "create-person", "createPerson", "CreatePerson", "create_person", "CREATE_PERSON"},
		{"id", "id", "id", "Id", "id", "ID"},
		{"tenant_id", "tenant-id", "tenantId", "TenantId", "tenant_id", "TENANT_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.param, naming.Param(tt.in))
			assert.Equal(t, tt.camel, naming.Camel(tt.in))
			assert.Equal(t, tt.pascal, naming.Pascal(tt.in))
			assert.Equal(t, tt.snake, naming.Snake(tt.in))
			assert.Equal(t, tt.constCase, naming.Constant(tt.in))
		})
	}
}

func TestFormats_Deterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, "MyLongName", naming.Pascal("my-long_name"))
	}
}

func TestPlural(t *testing.T) {
	tests := map[string]string{
		"person":       "people",
		"order":        "orders",
		"category":     "categories",
		"day":          "days",
		"box":          "boxes",
		"address":      "addresses",
		"line-item":    "line-items",
		"sales-person": "sales-people",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, naming.Plural(in))
		})
	}
}
