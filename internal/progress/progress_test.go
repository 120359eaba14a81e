package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterConcurrentIncrements(t *testing.T) {
	c := NewCounter(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.Inc(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(100), c.Done())
	assert.Equal(t, int64(100), c.Total())
}

func TestByteCounterAdd(t *testing.T) {
	var b ByteCounter
	b.Add(512)
	b.Add(256)
	assert.Equal(t, int64(768), b.Bytes())
}
