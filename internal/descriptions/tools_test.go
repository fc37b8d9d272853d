package descriptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetToolDescription(t *testing.T) {
	for _, name := range GetAllToolNames() {
		desc := GetToolDescription(name)
		assert.NotEqual(t, "Tool description not available", desc, name)
		assert.Contains(t, desc, "**Best practices:**", name)
	}

	assert.Equal(t, "Tool description not available", GetToolDescription("pdf_read_file"))
}

func TestGetAllToolNames(t *testing.T) {
	names := GetAllToolNames()
	assert.Len(t, names, 11)
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, "pdf_redact")
}
