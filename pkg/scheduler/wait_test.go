package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWait_TerminatedTaskAnswersImmediately(t *testing.T) {
	s, _ := newTestSystem(t)

	id, err := s.Create(func(any) { s.Exit(7) }, nil)
	require.NoError(t, err)

	code, err := s.Wait(id)
	require.NoError(t, err)
	assert.Equal(t, 7, code)

	before, err := s.Stats(MainID)
	require.NoError(t, err)

	code, err = s.Wait(id)
	require.NoError(t, err)
	assert.Equal(t, 7, code)

	after, err := s.Stats(MainID)
	require.NoError(t, err)
	assert.Equal(t, before.Activations, after.Activations, "no context switch")

	s.Exit(0)
}

func TestWait_AllWaitersWakeInOrder(t *testing.T) {
	s, _ := newTestSystem(t)

	target, err := s.Create(func(any) {
		s.Sleep(5)
		s.Exit(42)
	}, nil)
	require.NoError(t, err)

	type result struct {
		name string
		code int
		err  error
	}
	var results []result
	waiter := func(arg any) {
		code, err := s.Wait(target)
		results = append(results, result{arg.(string), code, err})
	}
	for _, name := range []string{"w1", "w2"} {
		_, err := s.Create(waiter, name)
		require.NoError(t, err)
	}

	s.Exit(0)

	assert.Equal(t, []result{{"w1", 42, nil}, {"w2", 42, nil}}, results)
}

func TestWait_Errors(t *testing.T) {
	s, _ := newTestSystem(t)

	_, err := s.Wait(99)
	assert.ErrorIs(t, err, ErrNoTask)

	_, err = s.Wait(DispatcherID)
	assert.ErrorIs(t, err, ErrSystemTask)

	_, err = s.Wait(Self)
	assert.ErrorIs(t, err, ErrWaitSelf)

	var selfErr error
	_, err = s.Create(func(any) {
		_, selfErr = s.Wait(Self)
	}, nil)
	require.NoError(t, err)

	s.Exit(0)
	assert.ErrorIs(t, selfErr, ErrWaitSelf)
}

func TestWait_Deadlock(t *testing.T) {
	s, rec := newTestSystem(t)

	var a, b TaskID
	returned := false
	a, err := s.Create(func(any) {
		_, _ = s.Wait(b)
		returned = true
	}, nil)
	require.NoError(t, err)
	b, err = s.Create(func(any) {
		_, _ = s.Wait(a)
		returned = true
	}, nil)
	require.NoError(t, err)

	_, err = s.Wait(a)
	require.ErrorIs(t, err, ErrDeadlock)
	assert.Equal(t, MainID, s.ID())

	st, err := s.Stats(a)
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, st.Status)

	s.Exit(0)

	assert.False(t, returned, "deadlocked tasks never resume")
	assert.Len(t, rec.messages("deadlock detected"), 2)

	_, err = s.Wait(a)
	assert.ErrorIs(t, err, ErrClosed)
}
