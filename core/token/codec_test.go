package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go-booking-agent/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sampleArgs() map[string]any {
	return map[string]any{
		"title":        "Sync",
		"start":        "2026-10-20T15:00:00-07:00",
		"end":          "2026-10-20T15:30:00-07:00",
		"attendees":    []any{"alice@example.com"},
		"time_zone":    "America/Los_Angeles",
		"send_updates": "all",
	}
}

// normalize mirrors what a JSON round trip does to Go values.
func normalize(t require.TestingT, v map[string]any) map[string]any {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := NewCodec("k")
	tok, err := c.Issue(sampleArgs(), 900*time.Second)
	require.NoError(t, err)

	got, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, normalize(t, sampleArgs()), got)
}

func TestWireFormat(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	c := NewCodec("k", WithClock(fixedClock(now)))
	tok, err := c.Issue(map[string]any{"b": 1, "a": "x"}, 900*time.Second)
	require.NoError(t, err)

	assert.NotContains(t, tok, "=")
	parts := strings.Split(tok, ".")
	require.Len(t, parts, 2)

	body, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.Equal(t, `{"args":{"a":"x","b":1},"exp":1760000900}`, string(body))

	mac, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.Len(t, mac, 32)
}

func TestIssueWithoutSecret(t *testing.T) {
	_, err := NewCodec("").Issue(sampleArgs(), time.Minute)
	assert.True(t, errors.HasCode(err, errors.ErrConfiguration))

	_, err = NewCodec("").Verify("a.b")
	assert.True(t, errors.HasCode(err, errors.ErrConfiguration))
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	tok, err := NewCodec("one").Issue(sampleArgs(), time.Minute)
	require.NoError(t, err)

	_, err = NewCodec("two").Verify(tok)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidToken))
}

func TestVerifyExpired(t *testing.T) {
	issued := time.Unix(1_760_000_000, 0)
	tok, err := NewCodec("k", WithClock(fixedClock(issued))).Issue(sampleArgs(), time.Second)
	require.NoError(t, err)

	_, err = NewCodec("k", WithClock(fixedClock(issued.Add(time.Second)))).Verify(tok)
	assert.NoError(t, err, "still valid at the expiry second")

	_, err = NewCodec("k", WithClock(fixedClock(issued.Add(2*time.Second)))).Verify(tok)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidToken))
}

func TestVerifyExpiredWallClock(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps")
	}
	c := NewCodec("k")
	tok, err := c.Issue(sampleArgs(), time.Second)
	require.NoError(t, err)

	time.Sleep(2100 * time.Millisecond)
	_, err = c.Verify(tok)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidToken))
}

func TestVerifyMalformed(t *testing.T) {
	c := NewCodec("k")
	signedNotJSON := func() string {
		body := []byte("not json")
		return b64.EncodeToString(body) + "." + b64.EncodeToString(c.sign(body))
	}
	signedNoExp := func() string {
		body := []byte(`{"args":{}}`)
		return b64.EncodeToString(body) + "." + b64.EncodeToString(c.sign(body))
	}

	for name, tok := range map[string]string{
		"empty":          "",
		"no separator":   "abcdef",
		"three parts":    "a.b.c",
		"bad base64":     "***.***",
		"padded":         "eyJhIjoxfQ==.AAAA",
		"not json":       signedNotJSON(),
		"missing expiry": signedNoExp(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Verify(tok)
			require.Error(t, err)
			ae, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrInvalidToken, ae.Code)
			assert.Equal(t, "invalid token", ae.Message)
		})
	}
}

func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		secret := rapid.StringN(1, 64, -1).Draw(t, "secret")
		keys := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z_]{1,12}`), 0, 8, rapid.ID[string]).Draw(t, "keys")
		payload := map[string]any{}
		for _, k := range keys {
			payload[k] = rapid.OneOf(
				rapid.Map(rapid.String(), func(s string) any { return s }),
				rapid.Map(rapid.IntRange(-1_000_000, 1_000_000), func(i int) any { return i }),
				rapid.Map(rapid.Bool(), func(b bool) any { return b }),
				rapid.Map(rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}@example\.com`), 0, 4), func(s []string) any { return s }),
			).Draw(t, k)
		}

		c := NewCodec(secret)
		tok, err := c.Issue(payload, time.Hour)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		got, err := c.Verify(tok)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		want := normalize(t, payload)
		if !assert.ObjectsAreEqual(want, got) {
			t.Fatalf("round trip mismatch: want %v got %v", want, got)
		}
	})
}

func TestTamperProperty(t *testing.T) {
	c := NewCodec("tamper-key")
	tok, err := c.Issue(sampleArgs(), time.Hour)
	require.NoError(t, err)
	parts := strings.Split(tok, ".")
	body, _ := b64.DecodeString(parts[0])
	mac, _ := b64.DecodeString(parts[1])

	rapid.Check(t, func(t *rapid.T) {
		inPayload := rapid.Bool().Draw(t, "in_payload")
		segment := mac
		if inPayload {
			segment = body
		}
		mutated := append([]byte(nil), segment...)
		bit := rapid.IntRange(0, len(mutated)*8-1).Draw(t, "bit")
		mutated[bit/8] ^= 1 << (bit % 8)

		forged := b64.EncodeToString(body) + "." + b64.EncodeToString(mutated)
		if inPayload {
			forged = b64.EncodeToString(mutated) + "." + b64.EncodeToString(mac)
		}
		if _, err := c.Verify(forged); !errors.HasCode(err, errors.ErrInvalidToken) {
			t.Fatalf("flipping bit %d (payload=%v) was not rejected: %v", bit, inPayload, err)
		}
	})
}

func TestTamperedTextProperty(t *testing.T) {
	c := NewCodec("tamper-key")
	tok, err := c.Issue(sampleArgs(), time.Hour)
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		raw := []byte(tok)
		i := rapid.IntRange(0, len(raw)-1).Draw(t, "index")
		bit := rapid.IntRange(0, 7).Draw(t, "bit")
		raw[i] ^= 1 << bit

		if _, err := c.Verify(string(raw)); err == nil {
			t.Fatalf("mutated token accepted: %q", raw)
		}
	})
}
