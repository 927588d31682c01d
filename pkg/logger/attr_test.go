package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledash/billing/pkg/logger"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestDomainAttrs(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	t.Run("subscription id", func(t *testing.T) {
		t.Parallel()
		attr := logger.SubscriptionID(id)
		assert.Equal(t, "subscription_id", attr.Key)
		assert.Equal(t, id.String(), attr.Value.String())
	})

	t.Run("empty business id is dropped", func(t *testing.T) {
		t.Parallel()
		assert.True(t, logger.BusinessID("").Equal(slog.Attr{}))
		assert.Equal(t, "biz_1", logger.BusinessID("biz_1").Value.String())
	})

	t.Run("transition group", func(t *testing.T) {
		t.Parallel()
		attr := logger.Transition("trialing", "active")
		require.Equal(t, slog.KindGroup, attr.Value.Kind())
		g := attr.Value.Group()
		require.Len(t, g, 2)
		assert.Equal(t, "from", g[0].Key)
		assert.Equal(t, "trialing", g[0].Value.String())
		assert.Equal(t, "to", g[1].Key)
		assert.Equal(t, "active", g[1].Value.String())
	})

	t.Run("empty reason is dropped", func(t *testing.T) {
		t.Parallel()
		assert.True(t, logger.Reason("").Equal(slog.Attr{}))
	})
}
