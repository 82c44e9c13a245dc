/*
 * S390 - Processor routines
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package core

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rcornwell/S390/emu/cpu"
	"github.com/rcornwell/S390/emu/master"
)

// Core runs one processor. All access to the processor's TLB and ALB
// happens on its routine.
type Core struct {
	wg      sync.WaitGroup
	done    chan struct{} // Signal to shutdown processor.
	running bool          // Processor started.
	cpu     *cpu.CPU
	sys     *cpu.System
	Master  chan master.Packet
}

// Complex holds the routines for every processor of a system and
// stops them for broadcast operations.
type Complex struct {
	sys     *cpu.System
	cores   []*Core
	release chan struct{} // Closed to end a synchronization.
}

// Create routines for all processors of system.
func NewComplex(sys *cpu.System) *Complex {
	c := &Complex{sys: sys}
	for n := range sys.NumCPU() {
		c.cores = append(c.cores, &Core{
			cpu:    sys.CPU(n),
			sys:    sys,
			done:   make(chan struct{}),
			Master: make(chan master.Packet),
		})
	}
	sys.SetSynchronizer(c)
	sys.SetInterrupter(c)
	return c
}

// Return routine for processor n, nil if none.
func (c *Complex) Core(n int) *Core {
	if n < 0 || n >= len(c.cores) {
		return nil
	}
	return c.cores[n]
}

// Number of processors.
func (c *Complex) NumCores() int {
	return len(c.cores)
}

// Start all processor routines.
func (c *Complex) Start() {
	for _, core := range c.cores {
		core.Start()
	}
}

// Shut down all processor routines.
func (c *Complex) Stop() {
	for _, core := range c.cores {
		core.Stop()
	}
}

// Stop every processor but initiator at packet boundary.
func (c *Complex) Synchronize(initiator int) {
	c.release = make(chan struct{})
	for _, core := range c.cores {
		if core.cpu.Num == initiator {
			continue
		}
		done := make(chan struct{})
		core.Master <- master.Packet{Msg: master.Sync, Done: done, Release: c.release}
		<-done
	}
}

// Let processors stopped by Synchronize continue.
func (c *Complex) Release(_ int) {
	if c.release != nil {
		close(c.release)
		c.release = nil
	}
}

// Report program check.
func (c *Complex) ProgramInterrupt(p *cpu.CPU, code uint16) {
	slog.Info("Program check", "cpu", p.Num, "code", fmt.Sprintf("%04x", code),
		"tea", fmt.Sprintf("%x", p.TEA()))
}

// Start processor routine.
func (core *Core) Start() {
	core.wg.Add(1)
	go core.run()
}

func (core *Core) run() {
	defer core.wg.Done()
	for {
		select {
		case <-core.done:
			return
		case packet := <-core.Master:
			core.processPacket(packet)
		}
	}
}

// Stop a running routine.
func (core *Core) Stop() {
	slog.Info("Shutting down CPU", "cpu", core.cpu.Num)
	close(core.done)
	done := make(chan struct{})
	go func() {
		core.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(time.Second):
		slog.Warn("Timed out waiting for CPU to finish.", "cpu", core.cpu.Num)
		return
	}
}

// Return processor run by routine.
func (core *Core) CPU() *cpu.CPU {
	return core.cpu
}

// Start CPU.
func (core *Core) SendStart() {
	core.Master <- master.Packet{Msg: master.Start}
}

// Stop CPU.
func (core *Core) SendStop() {
	core.Master <- master.Packet{Msg: master.Stop}
}

// Run fn on processor routine and wait for it to finish.
func (core *Core) Do(fn func(*cpu.CPU)) {
	done := make(chan struct{})
	core.Master <- master.Packet{Msg: master.Execute, Fn: fn, Done: done}
	<-done
}

// Process a packet sent to processor.
func (core *Core) processPacket(packet master.Packet) {
	switch packet.Msg {
	case master.Start:
		core.running = true
		core.sys.SetStarted(core.cpu.Num, true)
	case master.Stop:
		core.running = false
		core.sys.SetStarted(core.cpu.Num, false)
	case master.Execute:
		packet.Fn(core.cpu)
		close(packet.Done)
	case master.Sync:
		close(packet.Done)
		select {
		case <-packet.Release:
		case <-core.done:
		}
	}
}
