package autoresponder

import (
	"errors"
	"testing"

	cerrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func Test_appendError(t *testing.T) {
	{
		err := appendError(nil, nil)
		require.Nil(t, err)
	}

	{
		err := appendError(errors.New("error1"), nil)
		require.Equal(t, errors.New("error1"), err)
	}

	{
		err := appendError(nil, errors.New("error2"))
		require.Equal(t, errors.New("error2"), err)
	}

	{
		err := appendError(errors.New("error1"), errors.New("error2"))
		require.Equal(t, "error1\nerror2", err.Error())
	}
}

func Test_isTransient(t *testing.T) {
	{
		// Rate limits and server-side failures are retryable.
		for _, code := range []int{429, 500, 502, 503} {
			err := &googleapi.Error{Code: code, Message: "provider error"}
			require.True(t, isTransient(err), "code %d", code)
		}
	}

	{
		// Definitive client errors are not.
		for _, code := range []int{400, 401, 403, 404} {
			err := &googleapi.Error{Code: code, Message: "provider error"}
			require.False(t, isTransient(err), "code %d", code)
		}
	}

	{
		// Wrapping must not hide the classification.
		err := cerrors.Wrap(&googleapi.Error{Code: 404}, "failed to fetch message")
		require.False(t, isTransient(err))
	}

	{
		// Network-level errors carry no status code.
		require.True(t, isTransient(errors.New("connection refused")))
	}
}
