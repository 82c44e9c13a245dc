/*
 * S390 - System processor registry
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

package cpu

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/rcornwell/S390/emu/memory"
)

// Largest number of processors.
const MaxCPU = 64

// Synchronizer stops all processors but the initiator at an
// instruction boundary and lets them go again.
type Synchronizer interface {
	Synchronize(initiator int)
	Release(initiator int)
}

// System holds the processors sharing one main storage.
type System struct {
	mu       sync.Mutex // Protects registry
	intlock  sync.Mutex // Interlock for broadcast operations
	arch     Arch
	mem      *memory.Storage
	cpus     []*CPU
	online   uint64 // Online processors
	started  uint64 // Started processors
	sync     Synchronizer
	features Features
	intr     Interrupter
}

// Create system of architecture arch on storage mem.
func NewSystem(arch Arch, mem *memory.Storage, features Features) *System {
	return &System{arch: arch, mem: mem, features: features}
}

// Return system architecture.
func (sys *System) Arch() Arch {
	return sys.arch
}

// Return main storage.
func (sys *System) Storage() *memory.Storage {
	return sys.mem
}

// Return installed facilities.
func (sys *System) Features() Features {
	return sys.features
}

// Add a new processor, it is online and stopped.
func (sys *System) AddCPU() (*CPU, error) {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	n := len(sys.cpus)
	if n >= MaxCPU {
		return nil, errors.New("too many processors")
	}
	cpu := newCPU(n, sys.arch, sys)
	sys.cpus = append(sys.cpus, cpu)
	sys.online |= 1 << n
	slog.Debug("Processor added", "cpu", n, "arch", sys.arch.String())
	return cpu, nil
}

// Return processor n, nil if not defined.
func (sys *System) CPU(n int) *CPU {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	if n < 0 || n >= len(sys.cpus) {
		return nil
	}
	return sys.cpus[n]
}

// Return number of processors defined.
func (sys *System) NumCPU() int {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	return len(sys.cpus)
}

// Mark processor online or offline.
func (sys *System) SetOnline(n int, online bool) {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	if online {
		sys.online |= 1 << n
	} else {
		sys.online &^= 1 << n
		sys.started &^= 1 << n
	}
}

// Mark processor started or stopped.
func (sys *System) SetStarted(n int, started bool) {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	if started {
		sys.started |= 1 << n
	} else {
		sys.started &^= 1 << n
	}
}

// Check if processor is started.
func (sys *System) Started(n int) bool {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	return (sys.started & (1 << n)) != 0
}

// Set collaborator used to quiesce processors.
func (sys *System) SetSynchronizer(s Synchronizer) {
	sys.mu.Lock()
	sys.sync = s
	sys.mu.Unlock()
}

// Set program check collaborator for all processors.
func (sys *System) SetInterrupter(intr Interrupter) {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	sys.intr = intr
	for _, cpu := range sys.cpus {
		cpu.SetInterrupter(intr)
	}
}

// Take the interlock and stop the other processors.
func (sys *System) ObtainInterlock(initiator *CPU) {
	sys.intlock.Lock()
	sys.mu.Lock()
	s := sys.sync
	sys.mu.Unlock()
	if s != nil {
		s.Synchronize(initiator.Num)
	}
}

// Let other processors run and drop the interlock.
func (sys *System) ReleaseInterlock(initiator *CPU) {
	sys.mu.Lock()
	s := sys.sync
	sys.mu.Unlock()
	if s != nil {
		s.Release(initiator.Num)
	}
	sys.intlock.Unlock()
}

// Return initiator plus every online started processor.
func (sys *System) active(initiator *CPU) []*CPU {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	list := []*CPU{}
	if initiator != nil {
		list = append(list, initiator)
	}
	mask := sys.online & sys.started
	for i, cpu := range sys.cpus {
		if cpu == initiator || (mask&(1<<i)) == 0 {
			continue
		}
		list = append(list, cpu)
	}
	return list
}

// Purge TLB of every processor.
func (sys *System) PurgeTLBAll(initiator *CPU) {
	for _, cpu := range sys.active(initiator) {
		cpu.PurgeTLB()
	}
}

// Purge ALB of every processor.
func (sys *System) PurgeALBAll(initiator *CPU) {
	for _, cpu := range sys.active(initiator) {
		cpu.PurgeALB()
	}
}

// Purge entries for page frame from every processor.
func (sys *System) PurgeTLBEntryAll(initiator *CPU, pfra uint64) {
	for _, cpu := range sys.active(initiator) {
		cpu.PurgeTLBEntry(pfra)
	}
}

// Drop access to absolute frame from every processor.
func (sys *System) InvalidateByHostAddressAll(initiator *CPU, main uint64) {
	for _, cpu := range sys.active(initiator) {
		cpu.InvalidateByHostAddress(main)
	}
}
