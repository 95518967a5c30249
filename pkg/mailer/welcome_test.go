package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWelcome(t *testing.T) {
	subject, text, html, err := RenderWelcome(WelcomeData{AppName: "user-service", Name: "John Doe", Email: "john@example.com"})
	require.NoError(t, err)

	assert.Equal(t, "Welcome to user-service", subject)
	assert.Contains(t, text, "Hi John Doe,")
	assert.Contains(t, text, "john@example.com")
	assert.Contains(t, html, "<strong>john@example.com</strong>")
}

func TestRenderWelcomeEscapesHTML(t *testing.T) {
	_, _, html, err := RenderWelcome(WelcomeData{AppName: "app", Name: "<script>x</script>", Email: "a@b.c"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}
