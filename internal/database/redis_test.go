package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClients(t *testing.T) {
	mr := miniredis.RunT(t)

	clients, err := NewRedisClients("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer clients.Close()

	assert.NotSame(t, clients.Status, clients.PubSub)
}

func TestNewRedisClients_BadURL(t *testing.T) {
	_, err := NewRedisClients("http://not-redis")
	assert.Error(t, err)
}
