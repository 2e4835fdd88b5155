package autoresponder

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	gmail "google.golang.org/api/gmail/v1"
)

const gmailUser = "me"

// Gateway is the mailbox provider surface the responder depends on.
type Gateway interface {
	ListUnread(ctx context.Context, after time.Time, maxResults int64) ([]string, error)
	GetMessage(ctx context.Context, id string) (*gmail.Message, error)
	CreateDraft(ctx context.Context, m *OutboundMessage) error
	SendMessage(ctx context.Context, m *OutboundMessage) error
}

// gmailGateway implements Gateway on the Gmail REST API.
type gmailGateway struct {
	service  *gmail.Service
	myDomain string
}

func newGmailGateway(service *gmail.Service, myDomain string) *gmailGateway {
	return &gmailGateway{service: service, myDomain: myDomain}
}

// ListUnread returns the ids of unread inbox messages received after the
// given time. The provider's after: filter has day granularity, so callers
// must deduplicate already-handled ids themselves.
func (g *gmailGateway) ListUnread(ctx context.Context, after time.Time, maxResults int64) ([]string, error) {
	query := fmt.Sprintf("is:unread in:inbox after:%s", after.Format("2006/01/02"))
	res, err := g.service.Users.Messages.List(gmailUser).
		Q(query).
		MaxResults(maxResults).
		Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list unread messages")
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessage fetches one message in full, headers and body parts included.
func (g *gmailGateway) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	msg, err := g.service.Users.Messages.Get(gmailUser, id).
		Format("full").
		Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch message %s", id)
	}
	return msg, nil
}

// CreateDraft persists the composed response unsent.
func (g *gmailGateway) CreateDraft(ctx context.Context, m *OutboundMessage) error {
	draft := &gmail.Draft{Message: g.gmailMessage(m)}
	_, err := g.service.Users.Drafts.Create(gmailUser, draft).Context(ctx).Do()
	return errors.Wrap(err, "failed to create draft")
}

// SendMessage submits the composed response as delivered mail.
func (g *gmailGateway) SendMessage(ctx context.Context, m *OutboundMessage) error {
	_, err := g.service.Users.Messages.Send(gmailUser, g.gmailMessage(m)).Context(ctx).Do()
	return errors.Wrap(err, "failed to send message")
}

func (g *gmailGateway) gmailMessage(m *OutboundMessage) *gmail.Message {
	return &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString(m.rawMessage(g.myDomain)),
		ThreadId: m.ThreadID,
	}
}
