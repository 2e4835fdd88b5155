package autoresponder

import (
	"context"
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// newGmailService builds an authenticated Gmail client from the credentials
// file and the cached token file. Acquiring the initial token (the browser
// consent flow) is outside this program; the token file must already exist.
func newGmailService(ctx context.Context, config *Config) (*gmail.Service, error) {
	b, err := os.ReadFile(config.CredentialsPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read credentials file")
	}

	oauthConfig, err := google.ConfigFromJSON(b,
		gmail.GmailReadonlyScope,
		gmail.GmailComposeScope,
		gmail.GmailSendScope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse credentials file")
	}

	token, err := loadToken(config.TokenPath)
	if err != nil {
		return nil, err
	}

	service, err := gmail.NewService(ctx,
		option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return service, nil
}

// loadToken reads a cached OAuth token. Refreshing is handled by the token
// source; an expired token with a refresh token is fine.
func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open token file")
	}
	defer f.Close()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, errors.Wrap(err, "failed to parse token file")
	}
	return &token, nil
}
