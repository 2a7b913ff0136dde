package server

import (
	"runtime"
	"testing"
)

func dumpGoroutines(t *testing.T) {
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	t.Logf("GOROUTINES:\n%s", buf[:n])
}
