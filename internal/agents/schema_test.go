package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaGetDomains(t *testing.T) {
	s := NewSchema()
	result, err := s.GetDomains()
	require.NoError(t, err)

	body := result.(map[string]interface{})
	domains := body["domains"].([]map[string]string)
	assert.Len(t, domains, 4)
}
