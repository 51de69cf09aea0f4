package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gochat/internal/crypto"
)

func TestKeygen(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"keygen"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	key := strings.TrimSpace(out.String())
	require.NotEmpty(t, key)
	codec := crypto.NewCodec(key, nil, nil)
	assert.False(t, codec.UsingFallbackKey())
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "keygen"} {
		assert.True(t, names[want], want)
	}
}
