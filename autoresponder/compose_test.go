package autoresponder

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposeResponseSubjectLine(t *testing.T) {
	msg := sampleNormalized("jane@example.com", "Question", false)

	out := composeResponse(msg, "Subject: Re: Test\n\nHello world")
	require.Equal(t, "jane@example.com", out.To)
	require.Equal(t, "Re: Test", out.Subject)
	require.Equal(t, "Hello world", out.Body)
}

func TestComposeResponseDefaultSubject(t *testing.T) {
	msg := sampleNormalized("jane@example.com", "Original", false)

	// No Subject: prefix on the first line.
	out := composeResponse(msg, "just a body\nwith two lines")
	require.Equal(t, "Re: Original", out.Subject)
}

func TestComposeResponseMultilineBody(t *testing.T) {
	msg := sampleNormalized("jane@example.com", "s", false)

	out := composeResponse(msg, "Subject: hi\n\nline one\n\nline three")
	require.Equal(t, "hi", out.Subject)
	require.Equal(t, "line one\n\nline three", out.Body)
}

func TestComposeResponseThreading(t *testing.T) {
	msg := sampleNormalized("jane@example.com", "s", false)
	out := composeResponse(msg, "Subject: hi\n\nbody")
	require.Equal(t, "<m1>", out.InReplyTo)
	require.Equal(t, "t1", out.ThreadID)

	// A record without an id cannot be threaded.
	msg.ID = ""
	out = composeResponse(msg, "Subject: hi\n\nbody")
	require.Equal(t, "", out.InReplyTo)
	require.Equal(t, "", out.ThreadID)
}

var reMessageID = regexp.MustCompile(`Message-Id: <[0-9a-f-]+@mydomain\.example>\r\n`)

func TestRawMessage(t *testing.T) {
	out := &OutboundMessage{
		To:        "jane@example.com",
		Subject:   "Re: Test",
		Body:      "Hello world",
		InReplyTo: "<m1>",
	}
	raw := string(out.rawMessage("mydomain.example"))

	require.Contains(t, raw, "To: jane@example.com\r\n")
	require.Contains(t, raw, "Subject: Re: Test\r\n")
	require.Contains(t, raw, "In-Reply-To: <m1>\r\n")
	require.Contains(t, raw, "References: <m1>\r\n")
	require.Contains(t, raw, "Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	require.Regexp(t, reMessageID, raw)

	// Headers and body are separated by one empty line.
	require.Contains(t, raw, "\r\n\r\nHello world")
}

func TestRawMessageWithoutThreading(t *testing.T) {
	out := &OutboundMessage{To: "a@b.example", Subject: "s", Body: "b"}
	raw := string(out.rawMessage("mydomain.example"))

	require.NotContains(t, raw, "In-Reply-To")
	require.NotContains(t, raw, "References")
}
