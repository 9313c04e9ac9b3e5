package cpu

import (
	"sync"

	"github.com/achilleasa/go-pathtrace-cpu/kernel"
)

// taskPool fans a DeviceTask out across a fixed worker count using
// goroutines and channels, the same worker-loop shape used elsewhere in
// this codebase for device-bound work: a request channel feeds idle
// workers, a WaitGroup tracks completion, and a close channel tears the
// pool down. Each worker clones its own KernelGlobals once at startup and
// keeps it for the pool's lifetime, mirroring thread_kernel_globals_init
// being called once per render thread rather than once per task.
type taskPool struct {
	numWorkers int

	reqChan   chan subtask
	closeChan chan struct{}
	wg        sync.WaitGroup
}

type subtask struct {
	task     *DeviceTask
	run      func(kg *kernel.Globals, sub *DeviceTask)
	doneChan chan struct{}
}

func newTaskPool(numWorkers int, masterGlobals *kernel.Globals) *taskPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	p := &taskPool{
		numWorkers: numWorkers,
		reqChan:    make(chan subtask),
		closeChan:  make(chan struct{}),
	}
	for i := 0; i < numWorkers; i++ {
		p.startWorker(masterGlobals)
	}
	return p
}

func (p *taskPool) startWorker(masterGlobals *kernel.Globals) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		kg := masterGlobals.Clone()
		if kg.Shading != nil {
			kg.Shading.ThreadInit(kg)
			defer kg.Shading.ThreadFree(kg)
		}

		for {
			select {
			case sub := <-p.reqChan:
				sub.run(kg, sub.task)
				close(sub.doneChan)
			case <-p.closeChan:
				return
			}
		}
	}()
}

// Run splits task into as many independent subtasks as the pool has
// workers for (fewer for TaskShader, which caps at 256) and blocks until
// every subtask's run function returns.
func (p *taskPool) Run(task *DeviceTask, split func(task *DeviceTask, index, count int) *DeviceTask, run func(kg *kernel.Globals, sub *DeviceTask)) {
	count := task.splitCount(p.numWorkers)
	done := make([]chan struct{}, count)

	for i := 0; i < count; i++ {
		sub := split(task, i, count)
		done[i] = make(chan struct{})
		p.reqChan <- subtask{
			task:     sub,
			run:      run,
			doneChan: done[i],
		}
	}

	for _, ch := range done {
		<-ch
	}
}

// Close shuts every worker goroutine down and waits for them to exit.
func (p *taskPool) Close() {
	close(p.closeChan)
	p.wg.Wait()
}
