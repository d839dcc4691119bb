// Package compute provides a compute device with an ordered command queue.
//
// The device mimics a GPU queue: the host enqueues uploads, kernel
// dispatches and readbacks without waiting, and a single device goroutine
// executes them strictly in submission order. Each dispatch fans its index
// range out over a persistent worker pool and finishes before the next
// command starts, so the writes of dispatch N are visible to dispatch N+1.
package compute

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// parallelThreshold is the minimum dispatch size split across workers.
// Below this, a single goroutine is faster due to scheduling overhead.
const parallelThreshold = 256

// queueDepth bounds the number of commands in flight before Enqueue blocks.
const queueDepth = 64

// Kernel is the body of a data-parallel dispatch, invoked once per global index.
// Invocations of one dispatch run concurrently and must not write shared state
// other than their own output element.
type Kernel func(i int)

// command is one queue entry. Exactly one of kernel or fn is set for real
// work; a command with neither is a fence.
type command struct {
	label  string
	n      int
	kernel Kernel
	fn     func()
	done   chan struct{}
}

// workChunk represents a range of indices for a worker to process.
type workChunk struct {
	start, end int
	kernel     Kernel
}

// Device executes commands in submission order on a worker pool.
type Device struct {
	numWorkers int

	cmds    chan command
	queueWG sync.WaitGroup

	// Worker pool channels
	workChan chan workChunk
	doneChan chan any // nil on success, recovered panic value otherwise
	stopChan chan struct{}
	wg       sync.WaitGroup

	// qmu guards closed and serialises sends so Close never races an enqueue.
	qmu    sync.Mutex
	closed bool

	mu    sync.Mutex
	fault any // first kernel panic; the device is lost once set

	live       atomic.Int64
	dispatches atomic.Uint64

	statsMu    sync.Mutex
	kernelTime map[string]time.Duration
}

// DeviceStats holds cumulative device counters.
type DeviceStats struct {
	Dispatches    uint64
	LiveResources int64
	KernelTime    map[string]time.Duration
}

// NewDevice starts a device with the given worker count.
// workers <= 0 uses GOMAXPROCS.
func NewDevice(workers int) *Device {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	d := &Device{
		numWorkers: workers,
		cmds:       make(chan command, queueDepth),
		workChan:   make(chan workChunk, workers),
		doneChan:   make(chan any, workers),
		stopChan:   make(chan struct{}),
		kernelTime: make(map[string]time.Duration),
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	d.queueWG.Add(1)
	go d.run()
	return d
}

// Workers returns the size of the worker pool.
func (d *Device) Workers() int { return d.numWorkers }

// Dispatch enqueues kernel over the global index range [0, n).
// It returns immediately; the kernel runs after every previously enqueued command.
func (d *Device) Dispatch(label string, n int, kernel Kernel) {
	if n <= 0 {
		return
	}
	d.enqueue(command{label: label, n: n, kernel: kernel})
}

// Dispatch2D enqueues kernel over a w×h grid, row-major.
func (d *Device) Dispatch2D(label string, w, h int, kernel func(x, y int)) {
	if w <= 0 || h <= 0 {
		return
	}
	d.Dispatch(label, w*h, func(i int) {
		kernel(i%w, i/w)
	})
}

// Enqueue schedules fn to run on the device goroutine in queue order.
// Uploads and releases use this so that they are ordered against dispatches.
func (d *Device) Enqueue(label string, fn func()) {
	d.enqueue(command{label: label, fn: fn})
}

// Finish blocks until every command enqueued so far has executed.
// Only readback and teardown paths should need this.
func (d *Device) Finish() {
	done := make(chan struct{})
	if !d.enqueue(command{label: "fence", done: done}) {
		return
	}
	<-done
	d.checkFault()
}

// Err returns the kernel panic that lost the device, if any.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fault == nil {
		return nil
	}
	return fmt.Errorf("compute: device lost: %v", d.fault)
}

// checkFault re-raises a kernel panic on the calling goroutine.
func (d *Device) checkFault() {
	if err := d.Err(); err != nil {
		panic(err)
	}
}

// LiveResources returns the number of buffers and textures not yet released.
func (d *Device) LiveResources() int64 {
	return d.live.Load()
}

// Stats returns a copy of the cumulative device counters.
func (d *Device) Stats() DeviceStats {
	d.statsMu.Lock()
	kt := make(map[string]time.Duration, len(d.kernelTime))
	for k, v := range d.kernelTime {
		kt[k] = v
	}
	d.statsMu.Unlock()

	return DeviceStats{
		Dispatches:    d.dispatches.Load(),
		LiveResources: d.live.Load(),
		KernelTime:    kt,
	}
}

// Close drains the queue and stops all device goroutines. Close is idempotent.
func (d *Device) Close() {
	d.qmu.Lock()
	if d.closed {
		d.qmu.Unlock()
		return
	}
	d.closed = true
	close(d.cmds)
	d.qmu.Unlock()

	d.queueWG.Wait()
	close(d.stopChan)
	d.wg.Wait()
}

// Closed reports whether Close has been called.
func (d *Device) Closed() bool {
	d.qmu.Lock()
	defer d.qmu.Unlock()
	return d.closed
}

// enqueue sends cmd to the device goroutine. It returns false if the device is closed.
func (d *Device) enqueue(cmd command) bool {
	if cmd.kernel != nil {
		d.checkFault()
	}

	d.qmu.Lock()
	defer d.qmu.Unlock()
	if d.closed {
		if cmd.kernel != nil {
			panic(fmt.Sprintf("compute: dispatch %q on closed device", cmd.label))
		}
		return false
	}
	d.cmds <- cmd
	return true
}

// run drains the command queue in FIFO order.
func (d *Device) run() {
	defer d.queueWG.Done()
	for cmd := range d.cmds {
		switch {
		case cmd.kernel != nil:
			d.execute(cmd)
		case cmd.fn != nil:
			cmd.fn()
		}
		if cmd.done != nil {
			close(cmd.done)
		}
	}
}

// execute runs one dispatch to completion.
// Once a kernel has panicked, later dispatches are dropped.
func (d *Device) execute(cmd command) {
	d.mu.Lock()
	lost := d.fault != nil
	d.mu.Unlock()
	if lost {
		return
	}

	start := time.Now()
	var fault any

	if cmd.n < parallelThreshold || d.numWorkers == 1 {
		fault = runRange(cmd.kernel, 0, cmd.n)
	} else {
		chunkSize := (cmd.n + d.numWorkers - 1) / d.numWorkers
		dispatched := 0
		for w := 0; w < d.numWorkers; w++ {
			s := w * chunkSize
			e := s + chunkSize
			if e > cmd.n {
				e = cmd.n
			}
			if s >= e {
				continue
			}
			d.workChan <- workChunk{start: s, end: e, kernel: cmd.kernel}
			dispatched++
		}
		for i := 0; i < dispatched; i++ {
			if f := <-d.doneChan; f != nil && fault == nil {
				fault = f
			}
		}
	}

	if fault != nil {
		d.mu.Lock()
		d.fault = fmt.Sprintf("%s: %v", cmd.label, fault)
		d.mu.Unlock()
	}

	d.dispatches.Add(1)
	d.statsMu.Lock()
	d.kernelTime[cmd.label] += time.Since(start)
	d.statsMu.Unlock()
}

// worker processes chunks until the device stops.
func (d *Device) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopChan:
			return
		case chunk := <-d.workChan:
			d.doneChan <- runRange(chunk.kernel, chunk.start, chunk.end)
		}
	}
}

// runRange invokes kernel over [start, end) and returns any recovered panic.
func runRange(kernel Kernel, start, end int) (fault any) {
	defer func() {
		fault = recover()
	}()
	for i := start; i < end; i++ {
		kernel(i)
	}
	return nil
}
