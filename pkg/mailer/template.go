package mailer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Template represents an email template with metadata and body.
type Template struct {
	Metadata map[string]any
	Body     string
}

// ParseTemplate splits template content into YAML frontmatter metadata
// and a markdown body. Content without a leading "---" delimiter is
// returned whole with empty metadata.
func ParseTemplate(content []byte) (*Template, error) {
	delimiter := []byte("---")

	if !bytes.HasPrefix(content, delimiter) {
		return &Template{
			Metadata: make(map[string]any),
			Body:     string(content),
		}, nil
	}

	rest := bytes.TrimPrefix(content, delimiter)
	rest = bytes.TrimLeft(rest, "\r\n")
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	endIdx := bytes.Index(rest, delimiter)
	if endIdx == -1 {
		return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	frontmatter := rest[:endIdx]
	body := rest[endIdx+len(delimiter):]
	body = bytes.TrimPrefix(body, []byte("\r\n"))
	body = bytes.TrimPrefix(body, []byte("\n"))

	metadata := make(map[string]any)
	if len(bytes.TrimSpace(frontmatter)) > 0 {
		if err := yaml.Unmarshal(frontmatter, &metadata); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	return &Template{
		Metadata: metadata,
		Body:     string(body),
	}, nil
}
