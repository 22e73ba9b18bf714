package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuma-massage/shuma-backend/internal/shuma/service"
	"github.com/shuma-massage/shuma-backend/internal/shuma/token"
)

func TestLogin_SuccessUpdatesLastLogin(t *testing.T) {
	c := newClock(t0)
	auth, admins, _ := newAuthService(t, c)
	ctx := context.Background()

	res, err := auth.Login(ctx, "  admin ", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, t0.Add(8*time.Hour), res.ExpiresAt)
	assert.Equal(t, "admin", res.User.Username)
	require.NotNil(t, res.User.Email)
	assert.Equal(t, "owner@shuma.cz", *res.User.Email)

	u, err := admins.GetAdminByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, u.LastLogin)
	assert.Equal(t, t0, *u.LastLogin)

	p, err := auth.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, "admin", p.Username)
}

func TestLogin_WrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	auth, admins, _ := newAuthService(t, newClock(t0))
	ctx := context.Background()

	_, errWrong := auth.Login(ctx, "admin", "nope")
	_, errUnknown := auth.Login(ctx, "ghost", "hunter22")
	_, errCase := auth.Login(ctx, "Admin", "hunter22")

	assert.ErrorIs(t, errWrong, service.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, service.ErrInvalidCredentials)
	assert.ErrorIs(t, errCase, service.ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())

	u, err := admins.GetAdminByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Nil(t, u.LastLogin)
}

func TestLogin_CorruptHashFailsClosed(t *testing.T) {
	auth, admins, _ := newAuthService(t, newClock(t0))
	ctx := context.Background()

	u, err := admins.GetAdminByUsername(ctx, "admin")
	require.NoError(t, err)
	_, err = admins.UpsertAdmin(ctx, upsertOf(u.Username, "not-a-bcrypt-hash"))
	require.NoError(t, err)

	_, err = auth.Login(ctx, "admin", "hunter22")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLogin_RequiresFields(t *testing.T) {
	auth, _, _ := newAuthService(t, newClock(t0))

	_, err := auth.Login(context.Background(), "   ", "")
	var ve *service.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 2)
}

func TestVerify(t *testing.T) {
	c := newClock(t0)
	auth, _, iss := newAuthService(t, c)

	_, err := auth.Verify("")
	assert.ErrorIs(t, err, service.ErrMissingToken)

	_, err = auth.Verify("garbage")
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	foreign, err := token.NewIssuer("other-secret", time.Hour, token.WithClock(c.Now))
	require.NoError(t, err)
	raw, _, err := foreign.Sign(1, "admin")
	require.NoError(t, err)
	_, err = auth.Verify(raw)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	raw, _, err = iss.Sign(1, "admin")
	require.NoError(t, err)
	c.Advance(8*time.Hour + time.Second)
	_, err = auth.Verify(raw)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}
