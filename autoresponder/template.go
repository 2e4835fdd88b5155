package autoresponder

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// generalTemplate is the reserved name resolved when a requested template
// does not exist on storage.
const generalTemplate = "general"

// fallbackTemplate is used when no template can be read at all. Load never
// fails the caller.
const fallbackTemplate = `Subject: Re: {original_subject}

Hello,

Thank you for your email. I have received your message and will respond as soon as possible.

Best regards,

---
This is an automated response.`

// TemplateStore resolves named response templates from a directory of text
// blobs. Each blob must start with a "Subject:" line followed by a blank
// line and the body.
type TemplateStore struct {
	dir string
}

func newTemplateStore(dir string) *TemplateStore {
	return &TemplateStore{dir: dir}
}

func (s *TemplateStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// Load resolves a template by name, falling back to the general template
// when the name is unknown and to the built-in fallback when that is
// unreadable too.
func (s *TemplateStore) Load(name string) string {
	path := s.path(name)
	if _, err := os.Stat(path); err != nil {
		path = s.path(generalTemplate)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fallbackTemplate
	}
	return string(content)
}

// Render substitutes the template placeholders with values from the
// original message and the given clock time.
func (s *TemplateStore) Render(template string, msg *NormalizedMessage, now time.Time) string {
	return strings.NewReplacer(
		"{original_subject}", msg.Subject,
		"{sender_name}", senderName(msg.From),
		"{current_date}", now.Format("January 02, 2006"),
	).Replace(template)
}

// Validate checks that a template exists on storage and honors the
// "Subject:" first-line contract. It reports a descriptive reason on
// failure and is meant for setup validation, not the runtime path.
func (s *TemplateStore) Validate(name string) (bool, string) {
	path := s.path(name)
	content, err := os.ReadFile(path)
	if err != nil {
		return false, "template file not found: " + path
	}
	if !strings.HasPrefix(strings.TrimLeft(string(content), " \t\r\n"), "Subject:") {
		return false, "template must start with a \"Subject:\" line: " + path
	}
	return true, ""
}

// senderName extracts a display name from a From header value. The text
// before '<' wins when non-empty; otherwise the local part of the address
// is used.
func senderName(from string) string {
	if i := strings.IndexByte(from, '<'); i >= 0 {
		if name := strings.TrimSpace(from[:i]); name != "" {
			return name
		}
	}

	addr := from
	if i := strings.LastIndexByte(addr, '<'); i >= 0 {
		addr = addr[i+1:]
	}
	addr = strings.TrimSpace(strings.ReplaceAll(addr, ">", ""))
	if at := strings.IndexByte(addr, '@'); at >= 0 {
		return addr[:at]
	}
	return addr
}
