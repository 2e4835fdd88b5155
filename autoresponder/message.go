package autoresponder

import (
	"encoding/base64"
	"strings"

	"github.com/cockroachdb/errors"
	gmail "google.golang.org/api/gmail/v1"
)

// NormalizedMessage is the canonical, provider-independent view of one
// inbound email. It is constructed once by normalizeMessage and read-only
// everywhere downstream.
type NormalizedMessage struct {
	ID             string
	ThreadID       string
	From           string
	To             string
	Subject        string
	Date           string
	Body           string
	HasAttachments bool
}

// normalizeMessage converts a provider message into a NormalizedMessage.
// Missing headers default to empty strings and a malformed body degrades to
// an empty one; in the degraded case the record is still returned together
// with the error so the caller can leave the message unprocessed for retry.
func normalizeMessage(raw *gmail.Message) (*NormalizedMessage, error) {
	if raw == nil || raw.Payload == nil {
		return nil, errors.New("message has no payload")
	}

	msg := &NormalizedMessage{
		ID:       raw.Id,
		ThreadID: raw.ThreadId,
	}

	// First occurrence wins for each header.
	for _, header := range raw.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "subject":
			if msg.Subject == "" {
				msg.Subject = header.Value
			}
		case "from":
			if msg.From == "" {
				msg.From = header.Value
			}
		case "to":
			if msg.To == "" {
				msg.To = header.Value
			}
		case "date":
			if msg.Date == "" {
				msg.Date = header.Value
			}
		}
	}

	msg.HasAttachments = hasAttachments(raw.Payload)

	body, err := extractBody(raw.Payload)
	if err != nil {
		return msg, err
	}
	msg.Body = body
	return msg, nil
}

// extractBody returns the first text/plain payload found in the part tree,
// depth first. Only the top-level parts and one level of sub-parts are
// visited; deeper nesting is a known limitation and yields an empty body.
func extractBody(payload *gmail.MessagePart) (string, error) {
	if len(payload.Parts) == 0 {
		if isPlainText(payload) {
			return decodeBody(payload.Body.Data)
		}
		return "", nil
	}

	for _, part := range payload.Parts {
		if isPlainText(part) {
			return decodeBody(part.Body.Data)
		}
		for _, sub := range part.Parts {
			if isPlainText(sub) {
				return decodeBody(sub.Body.Data)
			}
		}
	}
	return "", nil
}

func isPlainText(part *gmail.MessagePart) bool {
	return part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != ""
}

// decodeBody decodes a web-safe base64 body payload. Gmail omits the padding
// on some payloads, so an unpadded decode is attempted before giving up.
func decodeBody(data string) (string, error) {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		b2, err2 := base64.RawURLEncoding.DecodeString(data)
		if err2 == nil {
			return string(b2), nil
		}
		return "", errors.Wrap(err, "failed to decode message body")
	}
	return string(b), nil
}

// hasAttachments reports whether any top-level part carries a filename.
// Nested parts are not inspected.
func hasAttachments(payload *gmail.MessagePart) bool {
	for _, part := range payload.Parts {
		if part.Filename != "" {
			return true
		}
	}
	return false
}
