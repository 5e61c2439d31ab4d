package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricKey(t *testing.T) {
	t.Run("sorts tags byte-wise", func(t *testing.T) {
		key := MetricKey("cpu", map[string]string{"b": "2", "a": "1"}, "usage")
		assert.Equal(t, "moniflow:metrics:cpu:a=1,b=2:usage", key)
	})

	t.Run("insertion order does not matter", func(t *testing.T) {
		first := MetricKey("cpu", map[string]string{"host": "s1", "region": "eu"}, "usage")
		second := MetricKey("cpu", map[string]string{"region": "eu", "host": "s1"}, "usage")
		assert.Equal(t, first, second)
	})

	t.Run("single tag", func(t *testing.T) {
		key := MetricKey("mem", map[string]string{"host": "server1"}, "used")
		assert.Equal(t, "moniflow:metrics:mem:host=server1:used", key)
	})

	t.Run("uppercase sorts before lowercase", func(t *testing.T) {
		key := MetricKey("m", map[string]string{"a": "1", "B": "2"}, "f")
		assert.Equal(t, "moniflow:metrics:m:B=2,a=1:f", key)
	})
}

func TestStateKeys(t *testing.T) {
	assert.Equal(t, "moniflow:alert_state:abc123", AlertStateKey("abc123"))
	assert.Equal(t, "moniflow:recovery_state:abc123", RecoveryStateKey("abc123"))
}
