package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsDelPool(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.DB.PoolMaxConns)
	assert.Equal(t, 2, cfg.DB.PoolMinConns)
}

func TestDSN_CodificaCaracteresEspeciales(t *testing.T) {
	c := DBConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "telaria",
		Password: "p@ss/word",
		DBName:   "telaria",
		SSLMode:  "disable",
	}
	dsn := c.DSN()
	assert.Contains(t, dsn, "p%40ss%2Fword")
	assert.Contains(t, dsn, "sslmode=disable")
}
