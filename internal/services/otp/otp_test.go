// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package otp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devshelf/devshelf/internal/config"
	"github.com/devshelf/devshelf/internal/repository"
	"github.com/devshelf/devshelf/internal/services/otp"
	"github.com/devshelf/devshelf/internal/services/token"
	"github.com/devshelf/devshelf/internal/testutil"
)

// fakeSender records the last sent email.
type fakeSender struct {
	to      string
	subject string
	body    string
	sends   int
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	f.to, f.subject, f.body = to, subject, body
	f.sends++
	return nil
}

func newTestService(repo *repository.Repository, sender otp.Sender) *otp.Service {
	tokens := token.NewService(testutil.TokenConfig(), repo)
	return otp.NewService(repo, sender, tokens, &config.OTPConfig{
		ExpiryMinutes: 10,
		ResendSeconds: 60,
	})
}

func TestGenerate(t *testing.T) {
	code, err := otp.Generate()

	require.NoError(t, err)
	assert.Regexp(t, `^\d{6}$`, code)
}

func TestIssueAndSend(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	sender := &fakeSender{}
	svc := newTestService(repo, sender)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice")

	err := svc.IssueAndSend(ctx, user.Email)

	require.NoError(t, err)
	assert.Equal(t, user.Email, sender.to)
	assert.Equal(t, 1, sender.sends)

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, stored.OTPCode.Valid)
	assert.Contains(t, sender.body, stored.OTPCode.String)
	assert.True(t, stored.OTPExpiresAt.Time.After(time.Now()))
}

func TestIssueAndSend_UnknownEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(repo, &fakeSender{})

	err := svc.IssueAndSend(context.Background(), "nobody@example.com")

	assert.ErrorIs(t, err, otp.ErrUserNotFound)
}

func TestIssueAndSend_ResendInterval(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	sender := &fakeSender{}
	svc := newTestService(repo, sender)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice")

	require.NoError(t, svc.IssueAndSend(ctx, user.Email))

	err := svc.IssueAndSend(ctx, user.Email)
	assert.ErrorIs(t, err, otp.ErrResendTooSoon)
	assert.Equal(t, 1, sender.sends)
}

func TestIssueAndSend_NoSenderConfigured(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(repo, nil)

	err := svc.IssueAndSend(context.Background(), "alice@example.com")

	assert.ErrorIs(t, err, otp.ErrSenderUnavailable)
}

func TestVerify(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	sender := &fakeSender{}
	svc := newTestService(repo, sender)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice")
	require.NoError(t, svc.IssueAndSend(ctx, user.Email))

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	code := stored.OTPCode.String

	verified, pair, err := svc.Verify(ctx, user.Email, code)

	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	assert.True(t, verified.IsVerified)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestVerify_SingleUse(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(repo, &fakeSender{})
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice")
	require.NoError(t, svc.IssueAndSend(ctx, user.Email))

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	code := stored.OTPCode.String

	_, _, err = svc.Verify(ctx, user.Email, code)
	require.NoError(t, err)

	_, _, err = svc.Verify(ctx, user.Email, code)
	assert.ErrorIs(t, err, otp.ErrInvalidOTP)
}

func TestVerify_WrongCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(repo, &fakeSender{})
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice")
	require.NoError(t, svc.IssueAndSend(ctx, user.Email))

	_, _, err := svc.Verify(ctx, user.Email, "000000")

	assert.ErrorIs(t, err, otp.ErrInvalidOTP)
}

func TestVerify_Expired(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(repo, &fakeSender{})
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice")
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, repo.SetOTP(ctx, user.ID, "123456", past, past.Add(-10*time.Minute)))

	_, _, err := svc.Verify(ctx, user.Email, "123456")

	assert.ErrorIs(t, err, otp.ErrInvalidOTP)
}

func TestVerify_UnknownEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(repo, &fakeSender{})

	_, _, err := svc.Verify(context.Background(), "nobody@example.com", "123456")

	// Same error as a wrong code, so responses cannot leak which happened.
	assert.ErrorIs(t, err, otp.ErrInvalidOTP)
}
