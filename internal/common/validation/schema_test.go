package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matching-workers/internal/common/errors"
)

const requestSchema = `{
  "type": "object",
  "required": ["projectId"],
  "properties": {
    "projectId": {"type": "string", "minLength": 1},
    "profileId": {"type": "string"}
  }
}`

func TestSchema_Validate(t *testing.T) {
	schema := MustSchema(requestSchema)

	tests := []struct {
		name      string
		doc       interface{}
		wantValid bool
		wantField string
	}{
		{"valid", map[string]interface{}{"projectId": "p-1"}, true, ""},
		{"valid with profile", map[string]interface{}{"projectId": "p-1", "profileId": "c-1"}, true, ""},
		{"missing project", map[string]interface{}{"profileId": "c-1"}, false, "(root)"},
		{"empty project", map[string]interface{}{"projectId": ""}, false, "projectId"},
		{"wrong type", map[string]interface{}{"projectId": 42}, false, "projectId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := schema.Validate(tt.doc)
			assert.Equal(t, tt.wantValid, res.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, tt.wantField, res.Errors[0].Field)
				assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(res.Err()))
			} else {
				assert.NoError(t, res.Err())
			}
		})
	}
}

func TestSchema_ValidateBytes_Malformed(t *testing.T) {
	res := MustSchema(requestSchema).ValidateBytes([]byte(`{"projectId":`))
	assert.False(t, res.Valid)
	assert.Equal(t, "MALFORMED_JSON", res.Errors[0].Code)
}

func TestNewSchema_RejectsBadSchema(t *testing.T) {
	_, err := NewSchema(`{"type": 12}`)
	assert.Error(t, err)
}
