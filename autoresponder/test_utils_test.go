package autoresponder

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

// fakeGateway records outbound traffic and serves canned messages so the
// monitor can be exercised without a mailbox provider.
type fakeGateway struct {
	unread   []string
	messages map[string]*gmail.Message

	listErr  error
	getErr   error
	draftErr error
	sendErr  error

	drafts []*OutboundMessage
	sent   []*OutboundMessage
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{messages: make(map[string]*gmail.Message)}
}

func (g *fakeGateway) add(msg *gmail.Message) {
	g.unread = append(g.unread, msg.Id)
	g.messages[msg.Id] = msg
}

func (g *fakeGateway) ListUnread(ctx context.Context, after time.Time, maxResults int64) ([]string, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.unread, nil
}

func (g *fakeGateway) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	return g.messages[id], nil
}

func (g *fakeGateway) CreateDraft(ctx context.Context, m *OutboundMessage) error {
	if g.draftErr != nil {
		return g.draftErr
	}
	g.drafts = append(g.drafts, m)
	return nil
}

func (g *fakeGateway) SendMessage(ctx context.Context, m *OutboundMessage) error {
	if g.sendErr != nil {
		return g.sendErr
	}
	g.sent = append(g.sent, m)
	return nil
}

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

// sampleGmailMessage builds a single-part plain text provider message.
func sampleGmailMessage(id, from, subject, body string) *gmail.Message {
	return &gmail.Message{
		Id:       id,
		ThreadId: "thread-" + id,
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: from},
				{Name: "To", Value: "me@mydomain.example"},
				{Name: "Subject", Value: subject},
				{Name: "Date", Value: "Mon, 2 Feb 2026 10:00:00 +0000"},
			},
			Body: &gmail.MessagePartBody{Data: b64(body)},
		},
	}
}

func sampleRuleset() *Ruleset {
	yes := true
	return &Ruleset{
		Exclusions: ExclusionSet{
			FromAddresses:   []string{"noreply@", "mailer-daemon@"},
			SubjectContains: []string{"unsubscribe", "out of office"},
			FromDomains:     []string{"spam.example.com"},
		},
		Rules: []Rule{
			{
				Name:     "urgent",
				Priority: 1,
				Conditions: RuleConditions{
					SubjectContains: []string{"urgent", "asap"},
				},
				ResponseTemplate: "urgent",
			},
			{
				Name:     "billing",
				Priority: 5,
				Conditions: RuleConditions{
					SubjectContains: []string{"invoice", "payment"},
					HasAttachments:  &yes,
				},
				ResponseTemplate: "billing",
			},
			{
				Name:             "catch-all",
				Priority:         100,
				ResponseTemplate: "general",
			},
		},
	}
}

// writeTemplateDir populates a temp directory with the standard templates
// used across tests and returns its path.
func writeTemplateDir(t *testing.T) string {
	dir := t.TempDir()
	writeTemplate(t, dir, "general",
		"Subject: Re: {original_subject}\n"+
			"\n"+
			"Hello {sender_name},\n"+
			"\n"+
			"Thanks for writing on {current_date}. I will get back to you soon.\n")
	writeTemplate(t, dir, "urgent",
		"Subject: Acknowledged: {original_subject}\n"+
			"\n"+
			"Hello {sender_name}, your urgent request is in my queue.\n")
	return dir
}

func writeTemplate(t *testing.T, dir, name, content string) {
	err := os.WriteFile(filepath.Join(dir, name+".txt"), []byte(content), 0644)
	require.Nil(t, err)
}

func newTestApp(t *testing.T, gateway Gateway, rules *Ruleset) *App {
	logger, err := createLogger()
	require.Nil(t, err)

	config := DefaultConfig()
	config.TemplatesDir = writeTemplateDir(t)
	if rules == nil {
		rules = sampleRuleset()
	}

	return &App{
		config:    config,
		logger:    logger,
		gateway:   gateway,
		rules:     rules,
		templates: newTemplateStore(config.TemplatesDir),
	}
}
