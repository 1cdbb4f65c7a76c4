package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/pricebook/internal/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_PATH", t.TempDir()+"/unused.db")

	out, err := execute(t, "token", "--user", "42", "--ttl", "1h", "--env-file", "")
	require.NoError(t, err)

	claims, err := auth.NewJWTManager("test-secret", time.Hour).Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID())
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "token", "--user", "42")
	assert.Error(t, err)
}

func TestPollRequiresBotToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := execute(t, "poll")
	assert.ErrorContains(t, err, "TELEGRAM_BOT_TOKEN")
}

func TestInvalidConfigFails(t *testing.T) {
	t.Setenv("PORT", "-1")

	_, err := execute(t, "token", "--user", "42")
	assert.ErrorContains(t, err, "invalid port")
}
