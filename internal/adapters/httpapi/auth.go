package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	domainauth "github.com/pharmapilot/pharmapilot-cli/internal/domain/auth"
)

// msgBadCredentials is the user-facing message for a rejected login.
const msgBadCredentials = "Incorrect email or password."

type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// Register creates a new account with the researcher role. The password
// length precondition fails fast before any network I/O.
func (c *Client) Register(ctx context.Context, email, fullName, password string) (domainauth.UserProfile, error) {
	if err := validatePassword(password); err != nil {
		return domainauth.UserProfile{}, err
	}

	var profile domainauth.UserProfile
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", registerRequest{
		Email:    email,
		FullName: fullName,
		Password: password,
		Role:     string(domainauth.RoleResearcher),
	}, &profile, "Registration failed")
	if err != nil {
		return domainauth.UserProfile{}, err
	}
	return profile, nil
}

// Login exchanges email and password for a token set and writes it through
// to the credential store. Callers do not persist separately.
func (c *Client) Login(ctx context.Context, email, password string) (domainauth.Credentials, error) {
	var creds domainauth.Credentials
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", "",
		loginRequest{Email: email, Password: password}, &creds, "Login failed")
	if err != nil {
		return domainauth.Credentials{}, loginError(err)
	}

	if creds.TokenType == "" {
		creds.TokenType = "bearer"
	}
	if saveErr := c.store.SaveCredentials(ctx, creds); saveErr != nil {
		return domainauth.Credentials{}, fmt.Errorf("persist credentials: %w", saveErr)
	}
	return creds, nil
}

// loginError rewrites rejected-credential responses into the
// invalid-credentials kind with a user-facing message. The server's detail
// hints which failures are credential failures ("invalid", "unauthorized",
// "not found"); everything else passes through unchanged.
func loginError(err error) error {
	var ae *domainauth.Error
	if !errors.As(err, &ae) || ae.Status == 0 {
		return err
	}
	if ae.Status != http.StatusUnauthorized && ae.Status != http.StatusNotFound {
		return err
	}

	detail := strings.ToLower(ae.Message)
	for _, hint := range []string{"invalid", "unauthorized", "not found", "incorrect"} {
		if strings.Contains(detail, hint) {
			return domainauth.StatusError(domainauth.KindInvalidCredentials, msgBadCredentials, ae.Status)
		}
	}
	return err
}

// Refresh trades a refresh token for a fresh token set, writing through to
// the credential store. Safe to call speculatively: any failure leaves the
// stored state untouched, and concurrent refreshes of the same token share
// one request.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domainauth.Credentials, error) {
	if refreshToken == "" {
		return domainauth.Credentials{}, domainauth.NewError(
			domainauth.KindNotAuthenticated, "No refresh token available")
	}

	result, err, _ := c.refresh.Do(refreshToken, func() (any, error) {
		var creds domainauth.Credentials
		reqErr := c.doJSON(ctx, http.MethodPost, "/auth/refresh", "",
			refreshRequest{RefreshToken: refreshToken}, &creds, "Token refresh failed")
		if reqErr != nil {
			return nil, reqErr
		}
		if creds.TokenType == "" {
			creds.TokenType = "bearer"
		}
		if saveErr := c.store.SaveCredentials(ctx, creds); saveErr != nil {
			return nil, fmt.Errorf("persist refreshed credentials: %w", saveErr)
		}
		return creds, nil
	})
	if err != nil {
		return domainauth.Credentials{}, err
	}
	creds, ok := result.(domainauth.Credentials)
	if !ok {
		return domainauth.Credentials{}, errors.New("unexpected refresh result type")
	}
	return creds, nil
}

// CurrentUser fetches the profile behind an access token. Any non-success
// status reports not-authenticated; the HTTP status stays on the error for
// callers that need to tell 401 from 403.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (domainauth.UserProfile, error) {
	var profile domainauth.UserProfile
	err := c.doJSON(ctx, http.MethodGet, "/auth/me", accessToken, nil, &profile, "Failed to fetch user info")
	if err != nil {
		var ae *domainauth.Error
		if errors.As(err, &ae) && ae.Status != 0 {
			return domainauth.UserProfile{}, domainauth.StatusError(
				domainauth.KindNotAuthenticated, ae.Message, ae.Status)
		}
		return domainauth.UserProfile{}, err
	}
	return profile, nil
}

// RequestPasswordReset asks the backend to email reset instructions. The
// response shape is identical for registered and unknown emails, so the
// result carries no enumeration signal; only transport or server errors
// fail.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	var body detailResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", "",
		emailRequest{Email: email}, &body, "Could not send reset email")
	if err != nil {
		return "", err
	}
	return body.Detail, nil
}

// ResetPassword completes a password reset with the emailed token. Shares
// the register precondition on password length.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if err := validatePassword(newPassword); err != nil {
		return "", err
	}

	var body detailResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/reset-password", "",
		resetPasswordRequest{Token: token, NewPassword: newPassword}, &body, "Password reset failed")
	if err != nil {
		return "", err
	}
	return body.Detail, nil
}

// Logout is purely local: it clears the credential store and neither
// requires nor awaits server acknowledgment.
func (c *Client) Logout(ctx context.Context) error {
	return c.store.Clear(ctx)
}

func validatePassword(password string) error {
	if len(password) < domainauth.MinPasswordLength {
		return domainauth.NewError(domainauth.KindValidationFailed,
			fmt.Sprintf("Password must be at least %d characters", domainauth.MinPasswordLength))
	}
	return nil
}
