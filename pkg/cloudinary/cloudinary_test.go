package cloudinary

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPublicIDNormalisesNames(t *testing.T) {
	require.Equal(t, "essay-42-2f1c", PublicID("essay-42-2f1c.jpg"))
	require.Equal(t, "reda--o-final", PublicID("redação final.png"))
	require.Equal(t, "essay", PublicID("...."))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)

	require.False(t, Config{CloudName: "demo", APIKey: "key"}.Enabled())
	require.True(t, Config{CloudName: "demo", APIKey: "key", APISecret: "secret"}.Enabled())
}
