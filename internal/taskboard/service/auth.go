package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/taskboardhq/taskboard/internal/taskboard/domain"
	"github.com/taskboardhq/taskboard/internal/taskboard/store"
	"github.com/taskboardhq/taskboard/internal/taskboard/validate"
	"github.com/taskboardhq/taskboard/pkg/cryptox"
	"github.com/taskboardhq/taskboard/pkg/idx"
	"github.com/taskboardhq/taskboard/pkg/jwtx"
	"github.com/taskboardhq/taskboard/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrAccountDisabled    = errors.New("account_disabled")
	ErrEmailTaken         = errors.New("email_taken")
	ErrTOTPRequired       = errors.New("totp_required")
	ErrInvalidTOTPCode    = errors.New("invalid_totp_code")
	ErrTOTPNotEnrolled    = errors.New("totp_not_enrolled")
	ErrTOTPAlreadyActive  = errors.New("totp_already_active")
)

// AuthService owns registration, credential login, token rotation, and
// the current-user profile operations.
type AuthService struct {
	Store      store.Store
	Tokens     *jwtx.Tokens
	TOTPIssuer string
}

// TOTPEnrollment is handed back from EnrollTOTP so the client can
// render a QR code. The secret is not active until ActivateTOTP
// succeeds with a valid code.
type TOTPEnrollment struct {
	Secret     string
	OTPAuthURL string
}

// Register creates a user account and logs it straight in. The first
// registered account keeps the regular user role; admins are promoted
// via the user administration API.
func (s *AuthService) Register(ctx context.Context, in validate.RegisterInput) (domain.User, domain.TokenPair, error) {
	if verrs := validate.Register(in); !verrs.Ok() {
		return domain.User{}, domain.TokenPair{}, verrs
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Active:       true,
		LastLogin:    &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		pair, err = s.issueTokens(ctx, tx, user, now)
		return err
	})
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	slogx.FromContext(ctx).Info("user registered",
		slog.String("user_id", user.ID))
	return user, pair, nil
}

// Login verifies credentials (and the TOTP code when the account has a
// second factor) and issues a fresh token pair. Expired refresh tokens
// for the user are pruned opportunistically.
func (s *AuthService) Login(ctx context.Context, in validate.LoginInput, otpCode string) (domain.User, domain.TokenPair, error) {
	if verrs := validate.Login(in); !verrs.Ok() {
		return domain.User{}, domain.TokenPair{}, verrs
	}

	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	user, err := s.Store.Users().GetUserByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a hash comparison so missing accounts cost the
			// same as wrong passwords.
			_ = cryptox.VerifyPassword(in.Password, dummyHash)
			return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.User{}, domain.TokenPair{}, err
	}

	if err := cryptox.VerifyPassword(in.Password, user.PasswordHash); err != nil {
		l.Info("login rejected", slog.String("user_id", user.ID), slog.String("reason", "bad_password"))
		return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
	}
	if !user.Active {
		l.Info("login rejected", slog.String("user_id", user.ID), slog.String("reason", "disabled"))
		return domain.User{}, domain.TokenPair{}, ErrAccountDisabled
	}
	if user.MFAActive() {
		if otpCode == "" {
			return domain.User{}, domain.TokenPair{}, ErrTOTPRequired
		}
		if !totp.Validate(otpCode, *user.TOTPSecret) {
			l.Info("login rejected", slog.String("user_id", user.ID), slog.String("reason", "bad_otp"))
			return domain.User{}, domain.TokenPair{}, ErrInvalidTOTPCode
		}
	}

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
			return err
		}
		if err := tx.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now); err != nil {
			return err
		}
		pair, err = s.issueTokens(ctx, tx, user, now)
		return err
	})
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	user.LastLogin = &now
	l.Info("user logged in", slog.String("user_id", user.ID))
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued. A token that is revoked, expired, or unknown
// fails the whole exchange.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (domain.TokenPair, error) {
	claims, err := s.Tokens.VerifyRefresh(rawRefresh)
	if err != nil {
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	now := time.Now().UTC()
	hash := cryptox.FingerprintToken(rawRefresh)

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		record, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if record.Revoked || now.After(record.ExpiresAt) || record.UserID != claims.Subject {
			return ErrInvalidRefresh
		}

		user, err := tx.Users().GetUserByID(ctx, record.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if !user.Active {
			return ErrAccountDisabled
		}

		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, hash); err != nil {
			return err
		}
		pair, err = s.issueTokens(ctx, tx, user, now)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	slogx.FromContext(ctx).Info("refresh token rotated", slog.String("user_id", claims.Subject))
	return pair, nil
}

// Logout revokes the presented refresh token. Unknown or already
// revoked tokens are treated as success so logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" {
		return nil
	}
	hash := cryptox.FingerprintToken(rawRefresh)
	err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// UpdateProfile applies the caller's own name/email/avatar changes.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in validate.ProfileUpdateInput) (domain.User, error) {
	if verrs := validate.ProfileUpdate(in); !verrs.Ok() {
		return domain.User{}, verrs
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}

	if err := s.Store.Users().UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash,
// and revokes every refresh token the user holds. Existing access
// tokens ride out their short TTL.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, in validate.ChangePasswordInput) error {
	if verrs := validate.ChangePassword(in); !verrs.Ok() {
		return verrs
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := cryptox.VerifyPassword(in.CurrentPassword, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		return tx.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password changed", slog.String("user_id", userID))
	return nil
}

// EnrollTOTP generates a TOTP secret for the user. The second factor
// stays inactive until ActivateTOTP verifies a code against it.
func (s *AuthService) EnrollTOTP(ctx context.Context, userID string) (TOTPEnrollment, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return TOTPEnrollment{}, err
	}
	if user.MFAActive() {
		return TOTPEnrollment{}, ErrTOTPAlreadyActive
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.TOTPIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return TOTPEnrollment{}, err
	}

	secret := key.Secret()
	if err := s.Store.Users().UpdateTOTP(ctx, userID, &secret, nil); err != nil {
		return TOTPEnrollment{}, err
	}

	return TOTPEnrollment{Secret: secret, OTPAuthURL: key.URL()}, nil
}

// ActivateTOTP turns the enrolled secret on after verifying one code.
func (s *AuthService) ActivateTOTP(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == nil || *user.TOTPSecret == "" {
		return ErrTOTPNotEnrolled
	}
	if user.MFAActive() {
		return ErrTOTPAlreadyActive
	}
	if !totp.Validate(code, *user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}

	now := time.Now().UTC()
	if err := s.Store.Users().UpdateTOTP(ctx, userID, user.TOTPSecret, &now); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("totp activated", slog.String("user_id", userID))
	return nil
}

// DisableTOTP removes the second factor after verifying a current code.
func (s *AuthService) DisableTOTP(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.MFAActive() {
		return ErrTOTPNotEnrolled
	}
	if !totp.Validate(code, *user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}

	if err := s.Store.Users().UpdateTOTP(ctx, userID, nil, nil); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("totp disabled", slog.String("user_id", userID))
	return nil
}

// issueTokens signs an access/refresh pair and persists the refresh
// fingerprint.
func (s *AuthService) issueTokens(ctx context.Context, tx store.Tx, user domain.User, now time.Time) (domain.TokenPair, error) {
	access, err := s.Tokens.SignAccess(user.ID, user.Email, string(user.Role), now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.Tokens.SignRefresh(user.ID, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	record := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: now.Add(s.Tokens.RefreshTTL),
	}
	if err := tx.RefreshTokens().CreateRefreshToken(ctx, record); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.Tokens.AccessTTL,
	}, nil
}

// dummyHash keeps the timing of a failed email lookup comparable to a
// real password check. Not a valid credential for anything.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=2$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
