package goroutines

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingleThreadExecutorKeepsOrder(t *testing.T) {
	var exec SingleThreadExecutor
	exec.Init(4)
	var seen []int
	for i := 0; i < 100; i++ {
		i := i
		exec.Submit(func() { seen = append(seen, i) })
	}
	exec.Join()
	assert.Len(t, seen, 100)
	for i, v := range seen {
		assert.Equal(t, i, v)
	}
	exec.Submit(func() { seen = seen[:0] })
	exec.JoinAndClose()
	assert.Empty(t, seen)
}
