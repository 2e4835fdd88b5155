package autoresponder

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// OutboundMessage is a fully composed auto-response, addressed back to the
// original sender and threaded into the original conversation. It is built
// fresh per response and never mutated afterwards.
type OutboundMessage struct {
	To        string
	Subject   string
	Body      string
	ThreadID  string
	InReplyTo string
}

// composeResponse parses rendered template text into an OutboundMessage.
// The first line becomes the subject when it carries the "Subject:" prefix,
// otherwise the subject defaults to "Re: " plus the original subject. The
// body is everything after the first blank line following the subject line.
func composeResponse(msg *NormalizedMessage, rendered string) *OutboundMessage {
	lines := strings.Split(strings.TrimSpace(rendered), "\n")

	subject := "Re: " + msg.Subject
	if strings.HasPrefix(lines[0], "Subject:") {
		subject = strings.TrimSpace(strings.TrimPrefix(lines[0], "Subject:"))
	}

	bodyStart := 1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			bodyStart = i + 1
			break
		}
	}
	body := ""
	if bodyStart < len(lines) {
		body = strings.Join(lines[bodyStart:], "\n")
	}

	out := &OutboundMessage{
		To:      msg.From,
		Subject: subject,
		Body:    body,
	}
	if msg.ID != "" {
		out.InReplyTo = "<" + msg.ID + ">"
		out.ThreadID = msg.ThreadID
	}
	return out
}

// rawMessage constructs the RFC 822 formatted message the provider expects
// in the raw field.
func (m *OutboundMessage) rawMessage(myDomain string) []byte {
	var buf bytes.Buffer

	buf.WriteString("To: ")
	buf.WriteString(m.To)
	buf.WriteString("\r\n")

	buf.WriteString("Subject: ")
	buf.WriteString(m.Subject)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("Message-Id: <%s@%s>\r\n", uuid.New().String(), myDomain))

	if m.InReplyTo != "" {
		buf.WriteString("In-Reply-To: ")
		buf.WriteString(m.InReplyTo)
		buf.WriteString("\r\n")
		buf.WriteString("References: ")
		buf.WriteString(m.InReplyTo)
		buf.WriteString("\r\n")
	}

	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(m.Body)

	return buf.Bytes()
}
