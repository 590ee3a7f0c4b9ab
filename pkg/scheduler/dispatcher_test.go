package scheduler

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_PriorityScenario(t *testing.T) {
	s, rec := newTestSystem(t)

	var trace []string
	body := func(arg any) {
		name := arg.(string)
		for i := 0; i < 10; i++ {
			trace = append(trace, name)
			s.Yield()
		}
		s.Exit(0)
	}

	for _, tc := range []struct {
		name string
		prio int
	}{
		{"p0", 0},
		{"p5", 5},
		{"n5", -5},
	} {
		id, err := s.Create(body, tc.name)
		require.NoError(t, err)
		require.NoError(t, s.SetPriority(id, tc.prio))
	}

	s.Exit(0)

	require.Len(t, trace, 30)
	assert.Equal(t, "n5", trace[0], "the lowest priority value runs first")
	for _, name := range []string{"p0", "p5", "n5"} {
		assert.Equal(t, 10, countOf(trace, name), name)
	}
	assert.LessOrEqual(t, slices.Index(trace, "p0"), 0-MinPriority)
	assert.LessOrEqual(t, slices.Index(trace, "p5"), 5-MinPriority)

	user, system := rec.exitsByClass()
	assert.Equal(t, 3, user)
	assert.Equal(t, 1, system)
	assert.Empty(t, s.Ready())
	assert.Empty(t, s.Sleeping())
}

func TestDispatch_EqualPrioritiesAlternate(t *testing.T) {
	s, _ := newTestSystem(t)

	var trace []string
	body := func(arg any) {
		for i := 0; i < 3; i++ {
			trace = append(trace, arg.(string))
			s.Yield()
		}
	}
	_, err := s.Create(body, "a")
	require.NoError(t, err)
	_, err = s.Create(body, "b")
	require.NoError(t, err)

	s.Exit(0)
	assert.Equal(t, []string{"a", "b", "a", "b", "a", "b"}, trace)
}

func TestDispatch_TasksCreatedByTasks(t *testing.T) {
	s, _ := newTestSystem(t)

	var trace []string
	child := func(arg any) {
		trace = append(trace, arg.(string))
	}
	_, err := s.Create(func(any) {
		trace = append(trace, "parent")
		for _, name := range []string{"c1", "c2"} {
			if _, err := s.Create(child, name); err != nil {
				t.Error(err)
			}
		}
	}, nil)
	require.NoError(t, err)

	s.Exit(0)
	assert.Equal(t, []string{"parent", "c1", "c2"}, trace)
}

func TestDispatch_BootstrapReturnsBetweenRounds(t *testing.T) {
	s, rec := newTestSystem(t)

	first, err := s.Create(func(any) {}, nil)
	require.NoError(t, err)
	_, err = s.Wait(first)
	require.NoError(t, err)
	assert.Equal(t, MainID, s.ID())

	ran := false
	_, err = s.Create(func(any) { ran = true }, nil)
	require.NoError(t, err)

	s.Exit(0)
	assert.True(t, ran)

	user, system := rec.exitsByClass()
	assert.Equal(t, 2, user)
	assert.Equal(t, 1, system)
}

func TestDispatch_ActivationStats(t *testing.T) {
	s, _ := newTestSystem(t)

	id, err := s.Create(func(any) {
		s.Yield()
		s.Yield()
	}, nil)
	require.NoError(t, err)

	s.Exit(0)

	st, err := s.Stats(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), st.Activations)
	assert.Equal(t, StatusTerminated, st.Status)

	d, err := s.Stats(DispatcherID)
	require.NoError(t, err)
	assert.Equal(t, StatusTerminated, d.Status)
	assert.Positive(t, d.Activations)
}

func countOf(trace []string, name string) int {
	n := 0
	for _, s := range trace {
		if s == name {
			n++
		}
	}
	return n
}
