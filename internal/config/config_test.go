package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cnf := LoadConfig()

	assert.Equal(t, "8080", cnf.Server.Port)
	assert.Equal(t, "8081", cnf.Server.MediaPort)
	assert.Equal(t, 30, cnf.Typing.VisibilitySeconds)
	assert.Equal(t, 10, cnf.Typing.CleanupSeconds)
	assert.Equal(t, 10, cnf.Preview.TimeoutSeconds)
	assert.EqualValues(t, 1<<20, cnf.Preview.MaxBodyBytes)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("TYPING_VISIBILITY_SECONDS", "60")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cnf := LoadConfig()
	assert.Equal(t, "9999", cnf.Server.Port)
	assert.Equal(t, 60, cnf.Typing.VisibilitySeconds)
	// A malformed integer falls back to the default rather than failing.
	assert.Equal(t, 25, cnf.Database.MaxOpenConns)
}

func TestDSN(t *testing.T) {
	cnf := &Config{Database: DatabaseConfig{
		Host: "db.internal", Port: "3306",
		Username: "svc", Password: "pw", DatabaseName: "chathub",
	}}
	assert.Equal(t,
		"svc:pw@tcp(db.internal:3306)/chathub?charset=utf8mb4&parseTime=True&loc=Local",
		cnf.DSN())
}
