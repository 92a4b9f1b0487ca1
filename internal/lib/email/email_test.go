package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_PreviewData(t *testing.T) {
	for name, data := range PreviewData {
		t.Run(string(name), func(t *testing.T) {
			body, err := Render(name, data)
			require.NoError(t, err)
			for _, v := range data {
				assert.Contains(t, body, v)
			}
		})
	}
}

func TestRender_EscapesValues(t *testing.T) {
	body, err := Render(TemplateWelcome, map[string]string{
		"UserName":  "<script>alert(1)</script>",
		"UserEmail": "x@example.com",
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Render(Template("missing"), nil)
	assert.Error(t, err)
}
