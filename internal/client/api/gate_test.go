package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshGate_SingleOwnerAndBroadcast(t *testing.T) {
	var g refreshGate

	first, started := g.tryBeginRefresh()
	require.True(t, started, "first caller owns the refresh")
	require.True(t, g.inFlight())

	second, started := g.tryBeginRefresh()
	require.False(t, started)
	third, started := g.tryBeginRefresh()
	require.False(t, started)

	g.completeRefresh(refreshResult{token: "new"})
	require.False(t, g.inFlight())

	for _, f := range []<-chan refreshResult{first, second, third} {
		res := <-f
		assert.Equal(t, "new", res.token)
		assert.NoError(t, res.err)
	}

	next, started := g.tryBeginRefresh()
	require.True(t, started, "gate reopens after completion")
	boom := errors.New("boom")
	g.completeRefresh(refreshResult{err: boom})
	assert.ErrorIs(t, (<-next).err, boom)
}
