package token

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	tk := NewTokens("s3cret")
	md, err := tk.GetRequestMetadata(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]string{"authorization": "Bearer s3cret"}, md)
	require.False(t, tk.RequireTransportSecurity())

	require.True(t, tk.Valid([]string{"Bearer s3cret"}))
	require.False(t, tk.Valid([]string{"Bearer other"}))
	require.False(t, tk.Valid([]string{"s3cret"}))
	require.False(t, tk.Valid(nil))
	require.False(t, tk.Valid([]string{"Bearer s3cret", "Bearer s3cret"}))
}

func TestTokens_Empty(t *testing.T) {
	tk := NewTokens("")
	md, err := tk.GetRequestMetadata(context.Background())
	require.NoError(t, err)
	require.Empty(t, md)
	require.True(t, tk.Valid(nil))
}
