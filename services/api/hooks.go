package apisvc

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core"
)

// LoginPath is the backend login endpoint. Its 401s are bad credentials, not expired sessions.
const LoginPath = "/auth/login"

const (
	DefaultMaxRetries = 2
	DefaultRetryDelay = time.Second
)

var sleepFunc = sleep // mockable

type (
	// TokenSource hands out the current bearer token; empty when logged out.
	TokenSource interface {
		Token() string
	}

	// SessionTerminator ends the current session and sends the user to the login screen.
	SessionTerminator interface {
		Expire(ctx context.Context) error
	}
)

// AttachAuth sets `Authorization: Bearer <token>` unless the call already carries one.
func AttachAuth(tokens TokenSource) Hook {
	return Hook{
		Name: "attachAuth",
		OnRequest: func(_ *Call, req *http.Request) error {
			if req.Header.Get("Authorization") != "" {
				return nil
			}
			if token := tokens.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			return nil
		},
	}
}

// HandleAuthFailure ends the session on 401/403, except for the login call.
// The failing call is still rejected with the original error.
func HandleAuthFailure(sess SessionTerminator, logger core.Logger) Hook {
	return Hook{
		Name: "handleAuthFailure",
		OnResponseError: func(ctx context.Context, call *Call, apiErr *Error) (bool, error) {
			if !apiErr.Auth() || call.Path == LoginPath {
				return false, nil
			}
			if err := sess.Expire(ctx); err != nil && logger != nil {
				logger.Error("expiring session after auth failure", errors.Wrap(err, call.Path))
			}
			return false, nil
		},
	}
}

// RetryTransient replays calls failing with 5xx up to maxRetries times, waiting delay
// between attempts. Once exhausted the last error is returned.
func RetryTransient(maxRetries int, delay time.Duration) Hook {
	return Hook{
		Name: "retryTransient",
		OnResponseError: func(ctx context.Context, call *Call, apiErr *Error) (bool, error) {
			if !apiErr.Transient() || call.Retries >= maxRetries {
				return false, nil
			}
			call.Retries++
			if err := sleepFunc(ctx, delay); err != nil {
				return false, errors.Wrapf(err, "waiting to retry %s %s", call.Method, call.Path)
			}
			return true, nil
		},
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	tmr := time.NewTimer(d)
	defer tmr.Stop()
	select {
	case <-tmr.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
