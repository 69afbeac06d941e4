package mailer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contactform/pkg/mailer"
)

func TestParseTemplate_WithFrontmatter(t *testing.T) {
	t.Parallel()

	content := []byte("---\nSubject: Hello {{.Name}}\n---\n# Body here\n")
	tmpl, err := mailer.ParseTemplate(content)
	require.NoError(t, err)
	require.Equal(t, "Hello {{.Name}}", tmpl.Metadata["Subject"])
	require.Equal(t, "# Body here\n", tmpl.Body)
}

func TestParseTemplate_NoFrontmatter(t *testing.T) {
	t.Parallel()

	tmpl, err := mailer.ParseTemplate([]byte("just a body"))
	require.NoError(t, err)
	require.Empty(t, tmpl.Metadata)
	require.Equal(t, "just a body", tmpl.Body)
}

func TestParseTemplate_UnclosedFrontmatter(t *testing.T) {
	t.Parallel()

	_, err := mailer.ParseTemplate([]byte("---\nSubject: x\nno closing"))
	require.ErrorIs(t, err, mailer.ErrInvalidFrontmatter)
}

func TestParseTemplate_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := mailer.ParseTemplate([]byte("---\n{not yaml\n---\nbody"))
	require.ErrorIs(t, err, mailer.ErrInvalidFrontmatter)
}

func TestParseTemplate_CRLF(t *testing.T) {
	t.Parallel()

	content := []byte("---\r\nSubject: x\r\n---\r\nbody")
	tmpl, err := mailer.ParseTemplate(content)
	require.NoError(t, err)
	require.Equal(t, "x", tmpl.Metadata["Subject"])
	require.Equal(t, "body", tmpl.Body)
}
