package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRejectsMalformedDSN(t *testing.T) {
	pool, err := Connect("://not-a-dsn")
	require.Error(t, err)
	assert.Nil(t, pool)
	assert.Contains(t, err.Error(), "parse postgres dsn")
}
