package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moniflow/moniflow/internal/core/domain"
	"github.com/moniflow/moniflow/internal/core/port"
	"github.com/moniflow/moniflow/internal/core/service/mocks"
)

func validCreateInput() port.CreateRuleInput {
	return port.CreateRuleInput{
		MetricName:    "cpu_usage",
		Tags:          map[string]string{"host": "server1"},
		FieldName:     "usage",
		Threshold:     80.0,
		DurationValue: 5,
		DurationUnit:  domain.UnitMinutes,
		Comparison:    domain.CompareGt,
	}
}

func TestRuleService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes duration to seconds", func(t *testing.T) {
		repo := mocks.NewMockRuleRepository()
		svc := NewRuleService(repo)

		id, err := svc.Create(ctx, validCreateInput())

		require.NoError(t, err)
		rule := repo.Rules[id]
		require.NotNil(t, rule)
		assert.Equal(t, 300, rule.DurationSeconds)
		assert.Equal(t, domain.RuleActive, rule.Status)
		assert.False(t, rule.CreatedAt.IsZero())
		assert.Nil(t, rule.RecoverySeconds)
	})

	t.Run("stores recovery seconds only when enabled", func(t *testing.T) {
		repo := mocks.NewMockRuleRepository()
		svc := NewRuleService(repo)

		input := validCreateInput()
		input.UseRecoveryAlert = true
		value := 10
		unit := domain.UnitMinutes
		input.RecoveryTimeValue = &value
		input.RecoveryTimeUnit = &unit

		id, err := svc.Create(ctx, input)

		require.NoError(t, err)
		rule := repo.Rules[id]
		require.NotNil(t, rule.RecoverySeconds)
		assert.Equal(t, 600, *rule.RecoverySeconds)
	})

	t.Run("ignores recovery settings when disabled", func(t *testing.T) {
		repo := mocks.NewMockRuleRepository()
		svc := NewRuleService(repo)

		input := validCreateInput()
		value := 10
		unit := domain.UnitMinutes
		input.RecoveryTimeValue = &value
		input.RecoveryTimeUnit = &unit

		id, err := svc.Create(ctx, input)

		require.NoError(t, err)
		assert.Nil(t, repo.Rules[id].RecoverySeconds)
	})

	t.Run("defaults channels and recipients", func(t *testing.T) {
		repo := mocks.NewMockRuleRepository()
		svc := NewRuleService(repo)

		id, err := svc.Create(ctx, validCreateInput())

		require.NoError(t, err)
		assert.Equal(t, []string{"telegram"}, repo.Rules[id].NotificationChannels)
		assert.NotNil(t, repo.Rules[id].Recipients)
	})

	t.Run("rejects non-positive duration", func(t *testing.T) {
		svc := NewRuleService(mocks.NewMockRuleRepository())

		input := validCreateInput()
		input.DurationValue = 0

		_, err := svc.Create(ctx, input)
		require.Error(t, err)
	})

	t.Run("rejects extended comparisons on the wire", func(t *testing.T) {
		svc := NewRuleService(mocks.NewMockRuleRepository())

		input := validCreateInput()
		input.Comparison = domain.CompareGe

		_, err := svc.Create(ctx, input)
		require.Error(t, err)
	})

	t.Run("rejects empty tags", func(t *testing.T) {
		svc := NewRuleService(mocks.NewMockRuleRepository())

		input := validCreateInput()
		input.Tags = nil

		_, err := svc.Create(ctx, input)
		require.Error(t, err)
	})
}

func TestRuleService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockRuleRepository()
	svc := NewRuleService(repo)

	id, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	rule, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cpu_usage", rule.MetricName)

	rules, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	require.NoError(t, svc.Delete(ctx, id))

	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrRuleNotFound)

	err = svc.Delete(ctx, id)
	assert.ErrorIs(t, err, domain.ErrRuleNotFound)
}
