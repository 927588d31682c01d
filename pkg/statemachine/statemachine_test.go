package statemachine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledash/billing/pkg/statemachine"
)

type state string
type event string

const (
	draft     state = "draft"
	review    state = "review"
	published state = "published"
	archived  state = "archived"

	submit  event = "submit"
	approve event = "approve"
	archive event = "archive"
)

type doc struct {
	approvals int
	log       []string
}

func TestMachine_Fire(t *testing.T) {
	t.Parallel()

	needsTwo := func(_ context.Context, d *doc) bool { return d.approvals >= 2 }
	record := func(_ context.Context, from, to state, d *doc) error {
		d.log = append(d.log, string(from)+"->"+string(to))
		return nil
	}

	m := statemachine.NewBuilder[state, event, *doc]().
		From(draft).When(submit).To(review).Do(record).Add().
		From(review).When(approve).To(published).If(needsTwo).Do(record).Add().
		From(review).When(approve).To(review).Add().
		From(draft, review, published).When(archive).To(archived).Do(record).Add().
		MustBuild()

	ctx := context.Background()

	t.Run("moves along an edge and runs actions", func(t *testing.T) {
		t.Parallel()
		d := &doc{}
		to, err := m.Fire(ctx, draft, submit, d)
		require.NoError(t, err)
		assert.Equal(t, review, to)
		assert.Equal(t, []string{"draft->review"}, d.log)
	})

	t.Run("first passing guard wins", func(t *testing.T) {
		t.Parallel()
		to, err := m.Fire(ctx, review, approve, &doc{approvals: 1})
		require.NoError(t, err)
		assert.Equal(t, review, to)

		d := &doc{approvals: 2}
		to, err = m.Fire(ctx, review, approve, d)
		require.NoError(t, err)
		assert.Equal(t, published, to)
		assert.Equal(t, []string{"review->published"}, d.log)
	})

	t.Run("one rule covers many sources", func(t *testing.T) {
		t.Parallel()
		for _, from := range []state{draft, review, published} {
			to, err := m.Fire(ctx, from, archive, &doc{})
			require.NoError(t, err)
			assert.Equal(t, archived, to)
		}
	})

	t.Run("terminal state has no edges", func(t *testing.T) {
		t.Parallel()
		to, err := m.Fire(ctx, archived, submit, &doc{})
		require.Error(t, err)
		assert.True(t, statemachine.IsNoTransition(err))
		assert.Equal(t, archived, to)
		assert.Empty(t, m.Events(archived))
		assert.False(t, m.CanFire(ctx, archived, archive, &doc{}))
	})

	t.Run("concurrent use", func(t *testing.T) {
		t.Parallel()
		var wg sync.WaitGroup
		for range 32 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := m.Fire(ctx, draft, submit, &doc{})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
	})
}

func TestMachine_Guards(t *testing.T) {
	t.Parallel()

	never := func(context.Context, *doc) bool { return false }
	m := statemachine.NewBuilder[state, event, *doc]().
		From(draft).When(submit).To(review).If(never).Add().
		MustBuild()

	ctx := context.Background()
	_, err := m.Fire(ctx, draft, submit, &doc{})
	assert.True(t, statemachine.IsRejected(err))
	assert.False(t, statemachine.IsNoTransition(err))
	assert.False(t, m.CanFire(ctx, draft, submit, &doc{}))
	assert.Equal(t, []event{submit}, m.Events(draft))
}

func TestMachine_ActionFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ran := false
	m := statemachine.NewBuilder[state, event, *doc]().
		From(draft).When(submit).To(review).
		Do(func(context.Context, state, state, *doc) error { return boom }).
		Do(func(context.Context, state, state, *doc) error { ran = true; return nil }).
		Add().
		MustBuild()

	to, err := m.Fire(context.Background(), draft, submit, &doc{})
	require.ErrorIs(t, err, statemachine.ErrActionFailed)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, draft, to)
	assert.False(t, ran)
}

func TestBuilder_Invalid(t *testing.T) {
	t.Parallel()

	_, err := statemachine.NewBuilder[state, event, *doc]().
		From(draft).When(submit).Add().
		From(review).When(approve).To(published).Add().
		Build()
	require.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	assert.Panics(t, func() {
		statemachine.NewBuilder[state, event, *doc]().When(submit).To(review).Add().MustBuild()
	})
}
