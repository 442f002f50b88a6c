package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/moa/core"
)

func TestSessionBuilder(t *testing.T) {
	s := NewSessionBuilder("u").System("S").User("Q").Assistant("A").Models("m1").Build()

	assert.Equal(t, []core.Message{
		core.SystemMessage("S"),
		core.UserMessage("Q"),
		core.AssistantMessage("A"),
	}, s.History())
	assert.Equal(t, []string{"m1"}, s.Models())
	assert.Len(t, s.ConversationRecords(), 1)
}

func TestEventRecorder(t *testing.T) {
	rec := NewEventRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Record(core.NewEvent("t", core.EventReferenceDone))
			rec.Record(core.NewElapsedEvent("t", 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, rec.Len())
	assert.Len(t, rec.Kinds(), 10)
	assert.Len(t, rec.OfKind(core.EventElapsed), 10)
}
