package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var parsed struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, "Collabolab API", parsed.Info.Title)
	assert.Contains(t, parsed.Paths, "/removeFromProject")
	assert.Contains(t, parsed.Paths, "/createTask")
	assert.Contains(t, parsed.Paths, "/listTasks")
	assert.Contains(t, parsed.Paths, "/ws")
}
