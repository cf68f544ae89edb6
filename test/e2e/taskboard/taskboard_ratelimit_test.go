package taskboard_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskboardhq/taskboard/pkg/taskboardsdk"
)

// TestLoginRateLimit verifies the strict per-IP profile on the login
// endpoint using the production limits.
func TestLoginRateLimit(t *testing.T) {
	baseURL, cleanup := setupTaskboardContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := taskboardsdk.NewClient(baseURL)

	// Burn through the strict burst with bad credentials. The production
	// profile allows 5 per minute, so the 6th attempt must be limited.
	var lastErr error
	limited := false
	for i := 0; i < 10; i++ {
		_, lastErr = client.Login(t.Context(), taskboardsdk.LoginRequest{
			Email:    "nobody@taskboard.test",
			Password: "wrong",
		})
		var apiErr *taskboardsdk.APIError
		if errors.As(lastErr, &apiErr) && apiErr.StatusCode == 429 {
			limited = true
			break
		}
	}

	require.True(t, limited, "Repeated login attempts should hit the rate limit, last error: %v", lastErr)

	t.Logf("Login rate limit verified")
}
