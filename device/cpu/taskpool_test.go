package cpu

import (
	"sync/atomic"
	"testing"

	"github.com/achilleasa/go-pathtrace-cpu/kernel"
)

type countingShadingContext struct {
	inits, frees int64
}

func (c *countingShadingContext) ThreadInit(*kernel.Globals) { atomic.AddInt64(&c.inits, 1) }
func (c *countingShadingContext) ThreadFree(*kernel.Globals) { atomic.AddInt64(&c.frees, 1) }

func TestTaskPoolInitsShadingContextOncePerWorker(t *testing.T) {
	const numWorkers = 4
	shading := &countingShadingContext{}

	master := kernel.NewGlobals()
	master.Shading = shading

	pool := newTaskPool(numWorkers, master)

	// Run enough no-op subtasks that, if ThreadInit ran per-task instead
	// of per-worker, the init count would exceed numWorkers.
	task := &DeviceTask{Type: TaskRender}
	for i := 0; i < 20; i++ {
		pool.Run(task, func(t *DeviceTask, index, count int) *DeviceTask { return t }, func(*kernel.Globals, *DeviceTask) {})
	}

	pool.Close()

	if got := atomic.LoadInt64(&shading.inits); got != numWorkers {
		t.Fatalf("ThreadInit called %d times, want %d (once per worker)", got, numWorkers)
	}
	if got := atomic.LoadInt64(&shading.frees); got != numWorkers {
		t.Fatalf("ThreadFree called %d times, want %d (once per worker, on Close)", got, numWorkers)
	}
}

func TestTaskPoolRunBlocksUntilAllSubtasksComplete(t *testing.T) {
	master := kernel.NewGlobals()
	pool := newTaskPool(3, master)
	defer pool.Close()

	var completed int64
	task := &DeviceTask{Type: TaskRender}
	pool.Run(task, func(t *DeviceTask, index, count int) *DeviceTask { return t }, func(*kernel.Globals, *DeviceTask) {
		atomic.AddInt64(&completed, 1)
	})

	if got := atomic.LoadInt64(&completed); got != 3 {
		t.Fatalf("completed = %d, want 3 (one per worker, Run must block until all finish)", got)
	}
}
