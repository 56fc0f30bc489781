package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Transitions(t *testing.T) {
	s := New(false)
	events, cancel := s.Subscribe(4)
	defer cancel()

	s.Login()
	s.Login()
	s.Expire()
	s.Expire()
	s.Logout()

	require.Len(t, events, 2, "only transitions are published")
	assert.Equal(t, Event{Authenticated: true, Reason: ReasonLogin}, <-events)
	assert.Equal(t, Event{Authenticated: false, Reason: ReasonExpired}, <-events)
	assert.False(t, s.Authenticated())
}

func TestState_CancelClosesChannel(t *testing.T) {
	s := New(true)
	events, cancel := s.Subscribe(1)
	cancel()
	cancel()

	_, ok := <-events
	assert.False(t, ok)

	require.NotPanics(t, func() { s.Logout() })
}

func TestState_FullSubscriberDoesNotBlock(t *testing.T) {
	s := New(false)
	_, cancel := s.Subscribe(1)
	defer cancel()

	for i := 0; i < 10; i++ {
		s.Login()
		s.Logout()
	}
	assert.False(t, s.Authenticated())
}

func TestState_ConcurrentExpireIsSingleTransition(t *testing.T) {
	s := New(true)
	events, cancel := s.Subscribe(16)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Expire()
		}()
	}
	wg.Wait()

	assert.Len(t, events, 1)
}
