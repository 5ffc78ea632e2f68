package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T) {
	t.Setenv("PORT", "0")
	t.Setenv("DATABASE_URL", "sqlite://file::memory:?cache=shared")
	t.Setenv("REDIS_URL", "localhost:1")
	t.Setenv("APP_ENV", "local")
	t.Setenv("JWT_SECRET", "test-secret-12345678901234567890123456789012")
	t.Setenv("RECAPTCHA_DISABLED", "true")
}

func TestRun(t *testing.T) {
	setTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())

	errChan := make(chan error, 1)
	go func() {
		errChan <- Run(ctx)
	}()

	// Wait a bit for startup
	time.Sleep(1 * time.Second)
	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not exit in time")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	setTestEnv(t)
	t.Setenv("JWT_SECRET", "short")

	err := Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRun_RecaptchaSecretRequired(t *testing.T) {
	setTestEnv(t)
	t.Setenv("RECAPTCHA_DISABLED", "false")

	err := Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RecaptchaSecret")
}

func TestRun_DBError(t *testing.T) {
	setTestEnv(t)
	t.Setenv("DATABASE_URL", "unsupported://db")

	err := Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize database")
}

func TestRun_UnreachablePostgres(t *testing.T) {
	setTestEnv(t)
	t.Setenv("DATABASE_URL", "postgres://user:pw@localhost:1/db?sslmode=disable")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.Error(t, Run(ctx))
}

func TestRun_ServerError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	_, port, _ := net.SplitHostPort(ln.Addr().String())

	setTestEnv(t)
	t.Setenv("PORT", port)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error")
}
