package diag

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderKeepsOrder(t *testing.T) {
	r := &Recorder{}
	r.Emit(MissingField{Owner: "1", ResponseKey: "name"})
	r.Emit(TypeMismatch{ID: "1", Stored: "User", Observed: "Page"})
	r.Emit(NonBooleanGuard{Variable: "v", Value: "yes"})

	events := r.Events()
	require.Len(t, events, 3)
	assert.Equal(t, MissingField{Owner: "1", ResponseKey: "name"}, events[0])
	assert.Equal(t, TypeMismatch{ID: "1", Stored: "User", Observed: "Page"}, events[1])
	assert.Equal(t, NonBooleanGuard{Variable: "v", Value: "yes"}, events[2])
}

func TestRecorderEventsReturnsACopy(t *testing.T) {
	r := &Recorder{}
	r.Emit(MissingField{Owner: "1", ResponseKey: "a"})
	events := r.Events()
	r.Emit(MissingField{Owner: "1", ResponseKey: "b"})
	assert.Len(t, events, 1)
}

func TestRecorderConcurrentEmit(t *testing.T) {
	r := &Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Emit(NonBooleanGuard{Variable: "v"})
		}()
	}
	wg.Wait()
	assert.Len(t, r.Events(), 8)
}

func TestNopDiscards(t *testing.T) {
	var s Sink = Nop{}
	s.Emit(MissingField{Owner: "1", ResponseKey: "x"})
}
