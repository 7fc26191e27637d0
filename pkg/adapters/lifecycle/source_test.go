package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/opennote/pkg/core"
)

func TestSourceBridgesStoreEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event)
	source := NewSource(in)
	require.NoError(t, source.Start(ctx))

	go func() {
		in <- core.Event{Type: core.EventCreate, ID: "n1"}
		in <- core.Event{Type: core.EventDelete, ID: "n2"}
	}()

	select {
	case e := <-source.Events():
		assert.Equal(t, "CREATE n1", e.String())
	case <-time.After(time.Second):
		t.Fatal("first event not bridged")
	}

	select {
	case e := <-source.Events():
		assert.Equal(t, "DELETE n2", e.String())
	case <-time.After(time.Second):
		t.Fatal("second event not bridged")
	}
}

func TestSourceClosesWhenUpstreamCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event)
	source := NewSource(in)
	require.NoError(t, source.Start(ctx))

	close(in)

	select {
	case _, ok := <-source.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output channel not closed")
	}
}

func TestSourceClosesOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan core.Event)
	source := NewSource(in)
	require.NoError(t, source.Start(ctx))

	cancel()

	select {
	case _, ok := <-source.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output channel not closed")
	}
}
