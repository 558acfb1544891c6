package mologs

import (
	"runtime"
	"sync"
)

// extrasStore manages goroutine-local parameter stacks. This lets request
// handlers attach ambient parameters once and have every logging call in the
// goroutine pick them up, without threading them through call signatures.
type extrasStore struct {
	stacks map[int64][]Params
	mu     sync.RWMutex
}

var extras = &extrasStore{
	stacks: make(map[int64][]Params),
}

// getGoroutineID returns the current goroutine ID.
// This is used as a key for goroutine-local parameter storage.
func getGoroutineID() int64 {
	// This is a hack to get the goroutine ID from the stack trace
	// In production code, you might want to use a library like
	// github.com/petermattis/goid for better performance
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	// Parse "goroutine 123 [running]:"
	// Find the space after "goroutine"
	start := 10
	for i := start; i < n; i++ {
		if buf[i] == ' ' {
			// Found the end of the goroutine ID
			var id int64
			for j := start; j < i; j++ {
				id = id*10 + int64(buf[j]-'0')
			}
			return id
		}
	}
	return 0
}

// Extras pushes ambient parameters for the current goroutine. Every logging
// call in this goroutine sees them merged under call parameters until the
// returned pop function runs. Frames nest; inner frames shadow outer keys.
//
//	pop := mologs.Extras(mologs.Params{"request": reqID})
//	defer pop()
//
//	mologs.Note("handling {{request}}")  // request filled in automatically
func Extras(params Params) (pop func()) {
	gid := getGoroutineID()

	merged := make(Params, len(params))
	extras.mu.RLock()
	stack := extras.stacks[gid]
	if len(stack) > 0 {
		for k, v := range stack[len(stack)-1] {
			merged[k] = v
		}
	}
	extras.mu.RUnlock()
	for k, v := range params {
		merged[k] = v
	}

	extras.mu.Lock()
	extras.stacks[gid] = append(extras.stacks[gid], merged)
	extras.mu.Unlock()

	return func() {
		extras.mu.Lock()
		stack := extras.stacks[gid]
		if len(stack) <= 1 {
			delete(extras.stacks, gid)
		} else {
			extras.stacks[gid] = stack[:len(stack)-1]
		}
		extras.mu.Unlock()
	}
}

// currentExtras retrieves the ambient parameters for the current goroutine.
// Returns nil when none have been set.
func currentExtras() Params {
	gid := getGoroutineID()
	extras.mu.RLock()
	stack := extras.stacks[gid]
	extras.mu.RUnlock()

	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}
