package auth

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 4226 appendix D test secret, base32-encoded ASCII "12345678901234567890".
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestTOTP_RFC4226Vectors(t *testing.T) {
	totp := NewTOTP("LabLive")

	expected := []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}

	for counter, want := range expected {
		// Counter n corresponds to the time step starting at n*30s.
		at := time.Unix(int64(counter)*30, 0)
		code, err := totp.CodeAt(rfcSecret, at)
		require.NoError(t, err)
		assert.Equal(t, want, code, "counter %d", counter)
	}
}

func TestTOTP_VerifyAcceptsDriftWithinSkew(t *testing.T) {
	totp := NewTOTP("LabLive")
	now := time.Unix(1_700_000_010, 0)

	for _, drift := range []time.Duration{0, -60 * time.Second, 60 * time.Second} {
		code, err := totp.CodeAt(rfcSecret, now.Add(drift))
		require.NoError(t, err)
		assert.True(t, totp.Verify(rfcSecret, code, now), "drift %v", drift)
	}
}

func TestTOTP_VerifyRejectsStaleCode(t *testing.T) {
	totp := NewTOTP("LabLive")
	now := time.Unix(1_700_000_010, 0)

	// Three steps back is outside the +-2 step window.
	code, err := totp.CodeAt(rfcSecret, now.Add(-90*time.Second))
	require.NoError(t, err)
	assert.False(t, totp.Verify(rfcSecret, code, now))
}

func TestTOTP_VerifyRejectsMalformedInput(t *testing.T) {
	totp := NewTOTP("LabLive")
	now := time.Unix(1_700_000_010, 0)

	assert.False(t, totp.Verify(rfcSecret, "", now))
	assert.False(t, totp.Verify(rfcSecret, "12345", now))
	assert.False(t, totp.Verify(rfcSecret, "1234567", now))
	assert.False(t, totp.Verify(rfcSecret, "12a456", now))
	assert.False(t, totp.Verify("not!base32", "123456", now))
}

func TestTOTP_VerifyTrimsWhitespace(t *testing.T) {
	totp := NewTOTP("LabLive")
	now := time.Unix(1_700_000_010, 0)

	code, err := totp.CodeAt(rfcSecret, now)
	require.NoError(t, err)
	assert.True(t, totp.Verify(rfcSecret, " "+code+" ", now))
}

func TestTOTP_GenerateSecret(t *testing.T) {
	totp := NewTOTP("LabLive")

	first, err := totp.GenerateSecret()
	require.NoError(t, err)
	second, err := totp.GenerateSecret()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "=")

	// A generated secret must round-trip through code generation.
	code, err := totp.CodeAt(first, time.Unix(1_700_000_010, 0))
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestTOTP_ProvisionURI(t *testing.T) {
	totp := NewTOTP("LabLive")

	uri := totp.ProvisionURI(rfcSecret, "tech@lab.local")
	require.True(t, strings.HasPrefix(uri, "otpauth://totp/"))

	parsed, err := url.Parse(uri)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, rfcSecret, q.Get("secret"))
	assert.Equal(t, "LabLive", q.Get("issuer"))
	assert.Equal(t, "30", q.Get("period"))
	assert.Equal(t, "6", q.Get("digits"))
	assert.Equal(t, "SHA1", q.Get("algorithm"))
}
