package thread_test

import (
	"sync"
	"testing"

	"duskos/thread"

	"github.com/stretchr/testify/require"
)

func TestSavedUserRSPRoundTrips(t *testing.T) {
	th := thread.New(7)
	require.Equal(t, 7, th.Tid)
	require.Zero(t, th.SavedUserRSP())

	th.SetSavedUserRSP(0x47480000)
	require.Equal(t, uintptr(0x47480000), th.SavedUserRSP())
}

func TestSavedUserRSPConcurrentAccess(t *testing.T) {
	th := thread.New(1)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v uintptr) {
			defer wg.Done()
			th.SetSavedUserRSP(v)
			_ = th.SavedUserRSP()
		}(uintptr(i))
	}
	wg.Wait()
}
