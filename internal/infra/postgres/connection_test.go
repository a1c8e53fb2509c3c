package postgres

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{
		Host:             "db.internal",
		Port:             5433,
		Name:             "reservations",
		User:             "app",
		Password:         "p@ss word",
		SSLMode:          "require",
		AppName:          "reservation-service",
		ConnectTimeout:   5 * time.Second,
		StatementTimeout: 1500 * time.Millisecond,
	}

	u, err := url.Parse(cfg.DSN())
	require.NoError(t, err)

	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5433", u.Host)
	assert.Equal(t, "/reservations", u.Path)
	assert.Equal(t, "app", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pw, "credentials are escaped")

	q := u.Query()
	assert.Equal(t, "require", q.Get("sslmode"))
	assert.Equal(t, "UTC", q.Get("TimeZone"))
	assert.Equal(t, "reservation-service", q.Get("application_name"))
	assert.Equal(t, "5", q.Get("connect_timeout"))
	assert.Equal(t, "1500", q.Get("statement_timeout"))
}

func TestConfig_DSN_OmitsUnsetOptions(t *testing.T) {
	cfg := Config{Host: "localhost", Port: 5432, Name: "db", User: "u", SSLMode: "disable"}

	u, err := url.Parse(cfg.DSN())
	require.NoError(t, err)

	q := u.Query()
	assert.False(t, q.Has("application_name"))
	assert.False(t, q.Has("connect_timeout"))
	assert.False(t, q.Has("statement_timeout"))
}

func TestNewConnection_GivesUpAfterAttempts(t *testing.T) {
	if testing.Short() {
		t.Skip("dials the network")
	}

	cfg := Config{
		Host:            "127.0.0.1",
		Port:            1, // nothing listens here
		Name:            "db",
		User:            "u",
		SSLMode:         "disable",
		ConnectTimeout:  time.Second,
		ConnectAttempts: 1,
	}

	_, err := NewConnection(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 1 attempts")
}
