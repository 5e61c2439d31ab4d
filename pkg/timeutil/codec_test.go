package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moniflow/moniflow/internal/core/domain"
)

func TestParseTimestamp(t *testing.T) {
	t.Run("utc zulu", func(t *testing.T) {
		sec, err := ParseTimestamp("2025-02-26T12:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, int64(1740571200), sec)
	})

	t.Run("numeric offset normalizes to the same instant", func(t *testing.T) {
		sec, err := ParseTimestamp("2025-02-26T14:00:00+02:00")
		require.NoError(t, err)
		assert.Equal(t, int64(1740571200), sec)
	})

	t.Run("fractional seconds truncated", func(t *testing.T) {
		sec, err := ParseTimestamp("2025-02-26T12:00:00.123456Z")
		require.NoError(t, err)
		assert.Equal(t, int64(1740571200), sec)
	})

	t.Run("missing timezone rejected", func(t *testing.T) {
		_, err := ParseTimestamp("2025-02-26T12:00:00")
		assert.ErrorIs(t, err, domain.ErrInvalidTimestamp)
	})

	t.Run("bare date rejected", func(t *testing.T) {
		_, err := ParseTimestamp("2025-02-26")
		assert.ErrorIs(t, err, domain.ErrInvalidTimestamp)
	})

	t.Run("empty rejected", func(t *testing.T) {
		_, err := ParseTimestamp("")
		assert.ErrorIs(t, err, domain.ErrInvalidTimestamp)

		_, err = ParseTimestamp("   ")
		assert.ErrorIs(t, err, domain.ErrInvalidTimestamp)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := ParseTimestamp("not-a-timestamp")
		assert.ErrorIs(t, err, domain.ErrInvalidTimestamp)
	})
}

func TestFormatSeconds(t *testing.T) {
	t.Run("canonical utc", func(t *testing.T) {
		assert.Equal(t, "2025-02-26T12:00:00Z", FormatSeconds(1740571200))
	})

	t.Run("round trip is stable", func(t *testing.T) {
		sec, err := ParseTimestamp("2025-02-26T14:00:00+02:00")
		require.NoError(t, err)

		formatted := FormatSeconds(sec)
		again, err := ParseTimestamp(formatted)
		require.NoError(t, err)
		assert.Equal(t, sec, again)
		assert.Equal(t, formatted, FormatSeconds(again))
	})
}

func TestNowISO(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)

	sec, err := ParseTimestamp(NowISO())
	require.NoError(t, err)

	after := time.Now().UTC().Add(time.Second)
	assert.GreaterOrEqual(t, sec, before.Unix())
	assert.LessOrEqual(t, sec, after.Unix())
}
