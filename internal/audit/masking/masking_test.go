package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret("  "))
	assert.Equal(t, "****", MaskSecret("abcd"))
	assert.Equal(t, "re_****wxyz", MaskSecret("re_abcdefwxyz"))
}

func TestMaskSensitive(t *testing.T) {
	got := MaskSensitive(map[string]any{
		"email":    "ada@acme.test",
		"password": "hunter22",
		"mail": map[string]any{
			"api_key": "re_live_123456789",
			"port":    587,
		},
		"token_count": 3,
		" ":           "dropped",
	})

	assert.Equal(t, "ada@acme.test", got["email"])
	assert.Equal(t, "****", got["password"])
	assert.Equal(t, "****", got["token_count"])
	nested := got["mail"].(map[string]any)
	assert.Equal(t, "re_live_****6789", nested["api_key"])
	assert.Equal(t, 587, nested["port"])
	assert.NotContains(t, got, " ")

	assert.Nil(t, MaskSensitive(nil))
}
