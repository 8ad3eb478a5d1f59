package consensus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStrandOrdering posts from many goroutines and checks that no two
// functions ever run at once.
func TestStrandOrdering(t *testing.T) {
	strand := NewStrand()

	const workers = 8
	const posts = 200

	var mtx sync.Mutex
	running := 0
	maxRunning := 0
	total := 0

	var wg sync.WaitGroup
	wg.Add(workers * posts)
	for w := 0; w < workers; w++ {
		go func() {
			for i := 0; i < posts; i++ {
				strand.Post(func() {
					mtx.Lock()
					running++
					if running > maxRunning {
						maxRunning = running
					}
					mtx.Unlock()

					mtx.Lock()
					running--
					total++
					mtx.Unlock()
					wg.Done()
				})
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxRunning)
	require.Equal(t, workers*posts, total)
}

// TestStrandFIFO checks that functions posted from one goroutine run in
// post order.
func TestStrandFIFO(t *testing.T) {
	strand := NewStrand()

	const posts = 100
	got := make([]int, 0, posts)
	done := make(chan struct{})
	for i := 0; i < posts; i++ {
		i := i
		strand.Post(func() {
			got = append(got, i)
			if i == posts-1 {
				close(done)
			}
		})
	}
	<-done

	require.Len(t, got, posts)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}
