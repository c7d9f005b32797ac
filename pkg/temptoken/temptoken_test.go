package temptoken_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/enrollkit/pkg/temptoken"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires secret", func(t *testing.T) {
		t.Parallel()
		_, err := temptoken.New("")
		assert.ErrorIs(t, err, temptoken.ErrMissingSecret)
	})

	t.Run("creates codec", func(t *testing.T) {
		t.Parallel()
		codec, err := temptoken.New("secret")
		require.NoError(t, err)
		assert.NotNil(t, codec)
	})
}

func TestMintParse_RoundTrip(t *testing.T) {
	t.Parallel()

	codec, err := temptoken.New("test-signing-secret")
	require.NoError(t, err)

	tests := []struct {
		name      string
		sessionID string
		step      string
		version   int64
	}{
		{"initial step", "sess-1", "initiated", 0},
		{"mid flow", "0b8f4c7a-1111-2222-3333-444455556666", "college_selected", 3},
		{"high version", "sess-2", "verification_pending", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tok, err := codec.Mint(tt.sessionID, tt.step, tt.version, time.Now().Add(time.Hour))
			require.NoError(t, err)
			assert.Len(t, strings.Split(tok, "."), 2)

			claims, err := codec.Parse(tok)
			require.NoError(t, err)
			assert.Equal(t, tt.sessionID, claims.SessionID)
			assert.Equal(t, tt.step, claims.Step)
			assert.Equal(t, tt.version, claims.Version)
			assert.NotZero(t, claims.IssuedAt)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	codec, err := temptoken.New("test-signing-secret")
	require.NoError(t, err)

	tok, err := codec.Mint("sess-1", "initiated", 0, time.Now().Add(time.Hour))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no separator", "abcdef"},
		{"too many parts", tok + ".extra"},
		{"bad base64 payload", "!@#$." + strings.Split(tok, ".")[1]},
		{"bad base64 signature", strings.Split(tok, ".")[0] + ".!@#$"},
		{"truncated signature", strings.Split(tok, ".")[0] + ".YWJj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := codec.Parse(tt.token)
			assert.ErrorIs(t, err, temptoken.ErrMalformedToken)
		})
	}
}

// Every single-byte mutation of a minted token must fail verification,
// never decode into different claims.
func TestParse_TamperResistance(t *testing.T) {
	t.Parallel()

	codec, err := temptoken.New("test-signing-secret")
	require.NoError(t, err)

	tok, err := codec.Mint("sess-1", "college_selected", 7, time.Now().Add(time.Hour))
	require.NoError(t, err)

	for i := range tok {
		mutated := []byte(tok)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		if string(mutated) == tok {
			continue
		}

		claims, err := codec.Parse(string(mutated))
		if err == nil {
			// Extremely unlikely, but if a mutation still parses the claims
			// must be byte-identical to the original ones.
			assert.Equal(t, "sess-1", claims.SessionID)
			assert.Equal(t, "college_selected", claims.Step)
			assert.EqualValues(t, 7, claims.Version)
			continue
		}
		assert.ErrorIs(t, err, temptoken.ErrMalformedToken, "mutation at index %d", i)
	}
}

func TestParse_ForeignSecret(t *testing.T) {
	t.Parallel()

	minter, err := temptoken.New("secret-a")
	require.NoError(t, err)
	parser, err := temptoken.New("secret-b")
	require.NoError(t, err)

	tok, err := minter.Mint("sess-1", "initiated", 0, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = parser.Parse(tok)
	assert.ErrorIs(t, err, temptoken.ErrMalformedToken)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	codec, err := temptoken.New("test-signing-secret")
	require.NoError(t, err)

	tok, err := codec.Mint("sess-1", "initiated", 0, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = codec.Parse(tok)
	assert.ErrorIs(t, err, temptoken.ErrExpiredToken)
}
