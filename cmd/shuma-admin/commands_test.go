package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shuma-massage/shuma-backend/internal/backend"
	"github.com/shuma-massage/shuma-backend/internal/config"
	"github.com/shuma-massage/shuma-backend/internal/logging"
	"github.com/shuma-massage/shuma-backend/internal/shuma/password"
)

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.FromEnv()
	cfg.Env = "dev"
	cfg.DBDriver = "sqlite"
	cfg.DBPath = filepath.Join(t.TempDir(), "shuma.db")
	cfg.BcryptCost = bcrypt.MinCost
	cfg.DevAdminUser = ""
	return cfg
}

func execute(t *testing.T, load loadFunc, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(load)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCreateAdmin_ThenReset(t *testing.T) {
	cfg := sqliteConfig(t)
	load := func() (config.Config, error) { return cfg, nil }

	out, err := execute(t, load, "", "create-admin", "--username", "owner", "--password", "first-pass", "--email", "owner@shuma.cz")
	require.NoError(t, err)
	assert.Contains(t, out, `admin "owner" ready`)

	_, err = execute(t, load, "second-pass\n", "create-admin", "--username", "owner", "--password", "-")
	require.NoError(t, err)

	ctx := context.Background()
	stores, err := backend.Open(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	defer stores.Close()

	u, err := stores.Admins.GetAdminByUsername(ctx, "owner")
	require.NoError(t, err)
	assert.NoError(t, password.Verify(u.PasswordHash, "second-pass"))
	assert.ErrorIs(t, password.Verify(u.PasswordHash, "first-pass"), password.ErrMismatch)
}

func TestCreateAdmin_RejectsShortPassword(t *testing.T) {
	cfg := sqliteConfig(t)
	load := func() (config.Config, error) { return cfg, nil }

	_, err := execute(t, load, "", "create-admin", "--username", "owner", "--password", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8")
}

func TestCreateAdmin_RejectsLongUsername(t *testing.T) {
	load := func() (config.Config, error) { return config.Config{}, errors.New("not reached") }

	_, err := execute(t, load, "", "create-admin", "--username", strings.Repeat("u", 101), "--password", "long-enough")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 100")
}

func TestCreateAdmin_MissingFlags(t *testing.T) {
	load := func() (config.Config, error) { return config.Config{}, errors.New("not reached") }

	_, err := execute(t, load, "", "create-admin", "--password", "long-enough")
	require.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	load := func() (config.Config, error) { return config.Config{}, errors.New("no config") }

	out, err := execute(t, load, "", "hash-password", "--cost", "4", "s3cret-pass")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, password.Verify(hash, "s3cret-pass"))

	out, err = execute(t, load, "from-stdin\n", "hash-password", "--cost", "4")
	require.NoError(t, err)
	assert.NoError(t, password.Verify(strings.TrimSpace(out), "from-stdin"))
}

func TestCheckConfig(t *testing.T) {
	cfg := sqliteConfig(t)
	out, err := execute(t, func() (config.Config, error) { return cfg, nil }, "", "check-config")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite")
	assert.Contains(t, out, "ok")

	_, err = execute(t, func() (config.Config, error) { return config.Config{}, errors.New("JWT_SECRET must be set in prod") }, "", "check-config")
	assert.Error(t, err)
}
