package autoresponder

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/api/googleapi"
)

// appendError combines two errors into a single error using errors.Join.
func appendError(err1, err2 error) error {
	if err1 == nil && err2 == nil {
		return nil
	}

	if err1 == nil {
		return err2
	}

	if err2 == nil {
		return err1
	}

	return errors.Join(err1, err2)
}

// isTransient reports whether a provider error is worth retrying on a later
// cycle. Server-side failures and rate limits qualify; a definitive client
// error will fail the same way every time. Network-level errors carry no
// status code and are treated as transient.
func isTransient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503:
			return true
		}
		return false
	}
	return true
}
