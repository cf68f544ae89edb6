package taskboard_test

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"github.com/taskboardhq/taskboard/pkg/taskboardsdk"
)

// TestTOTPLifecycle tests the complete second-factor flow:
// 1. Enroll (receive secret, login still passwordless-second-factor free)
// 2. Activate with a valid code
// 3. Login now requires a code
// 4. Disable with a valid code
func TestTOTPLifecycle(t *testing.T) {
	baseURL, cleanup := setupTaskboardContainer(t)
	defer cleanup()

	client := taskboardsdk.NewClient(baseURL)
	session := registerUser(t, client, "MFA User", "mfa@taskboard.test")

	enroll, err := session.EnrollTOTP(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, enroll.Secret)
	require.Contains(t, enroll.OTPAuthURL, "otpauth://")
	t.Logf("TOTP enrollment initiated, secret: %s", enroll.Secret)

	// Until activation, login works without a code
	_, err = client.Login(t.Context(), taskboardsdk.LoginRequest{
		Email: "mfa@taskboard.test", Password: userPassword,
	})
	require.NoError(t, err, "Login should not require a code before activation")

	// A bogus code must not activate
	err = session.ActivateTOTP(t.Context(), "000000")
	require.Error(t, err, "Garbage code should not activate TOTP")

	code, err := totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, session.ActivateTOTP(t.Context(), code))
	t.Logf("TOTP activated")

	// Login without a code is now refused
	_, err = client.Login(t.Context(), taskboardsdk.LoginRequest{
		Email: "mfa@taskboard.test", Password: userPassword,
	})
	assertUnauthorized(t, err, "Login without code after activation")

	// Login with a valid code succeeds
	code, err = totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)
	mfaSession, err := client.Login(t.Context(), taskboardsdk.LoginRequest{
		Email: "mfa@taskboard.test", Password: userPassword, OTP: code,
	})
	require.NoError(t, err)

	me, err := mfaSession.Me(t.Context())
	require.NoError(t, err)
	require.True(t, me.MFAEnabled)

	// Disable, then login without a code again
	code, err = totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, mfaSession.DisableTOTP(t.Context(), code))

	_, err = client.Login(t.Context(), taskboardsdk.LoginRequest{
		Email: "mfa@taskboard.test", Password: userPassword,
	})
	require.NoError(t, err, "Login should not require a code after disable")

	t.Logf("TOTP lifecycle verified")
}
