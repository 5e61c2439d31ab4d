package validation

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moniflow/moniflow/pkg/apperror"
)

func TestValidator(t *testing.T) {
	t.Run("clean validator has no errors", func(t *testing.T) {
		v := New().
			Required("name", "cpu_high").
			NonEmptyMap("tags", map[string]string{"zone": "us-east"}).
			Positive("threshold", 90).
			OneOf("comparison", "above", "above", "below")

		assert.False(t, v.HasErrors())
		assert.Nil(t, v.Error())
	})

	t.Run("required rejects blank strings", func(t *testing.T) {
		v := New().Required("name", "   ")
		require.True(t, v.HasErrors())
		assert.Equal(t, "name is required", v.Errors()[0].Message)
	})

	t.Run("non-empty map rejects nil and empty", func(t *testing.T) {
		assert.True(t, New().NonEmptyMap("tags", nil).HasErrors())
		assert.True(t, New().NonEmptyMap("tags", map[string]string{}).HasErrors())
	})

	t.Run("positive rejects zero and negatives", func(t *testing.T) {
		assert.True(t, New().Positive("duration", 0).HasErrors())
		assert.True(t, New().Positive("duration", -5).HasErrors())
		assert.False(t, New().Positive("duration", 1).HasErrors())
	})

	t.Run("non-negative allows zero", func(t *testing.T) {
		assert.False(t, New().NonNegative("offset", 0).HasErrors())
		assert.True(t, New().NonNegative("offset", -1).HasErrors())
	})

	t.Run("one-of rejects values outside the set", func(t *testing.T) {
		v := New().OneOf("comparison", "sideways", "above", "below")
		require.True(t, v.HasErrors())
		assert.Equal(t, "comparison must be one of: above, below", v.Errors()[0].Message)
	})

	t.Run("error carries per-field detail", func(t *testing.T) {
		v := New().
			Required("metric", "").
			Positive("duration", -1)

		appErr := v.Error()
		require.NotNil(t, appErr)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
		assert.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)

		fields, ok := appErr.Details["fields"].(map[string]string)
		require.True(t, ok)
		assert.Len(t, fields, 2)
		assert.Contains(t, fields, "metric")
		assert.Contains(t, fields, "duration")
	})
}
