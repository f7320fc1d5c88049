package observability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusBoard_EnterLeave(t *testing.T) {
	b := NewStatusBoard()

	var wg sync.WaitGroup
	leaves := make(chan func(), 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			leaves <- b.Enter(StageExecuting)
		}()
	}
	wg.Wait()
	close(leaves)

	counts, _ := b.Snapshot()
	assert.Equal(t, 8, counts[StageExecuting])
	assert.Equal(t, 0, counts[StagePlanning])

	for leave := range leaves {
		leave()
		leave() // second call is ignored
	}
	counts, _ = b.Snapshot()
	assert.Equal(t, 0, counts[StageExecuting])
}

func TestStatusBoard_Nil(t *testing.T) {
	var b *StatusBoard
	assert.NotPanics(t, func() { b.Enter(StagePlanning)() })
}
