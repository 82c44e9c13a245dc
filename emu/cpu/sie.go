/*
 * S390 - Interpretive execution
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
	"github.com/rcornwell/S390/util/debug"
)

// SIELink connects a guest CPU to the host CPU which runs it.
type SIELink struct {
	host *CPU   // Host processor
	mso  uint64 // Guest storage origin in host space
	pref bool   // Preferred guest, storage is host absolute
}

// Create guest of architecture arch whose storage of size bytes starts
// at mso in the host primary space.
func (cpu *CPU) AttachGuest(arch Arch, mso uint64, size uint64, preferred bool) *CPU {
	guest := &CPU{
		Num:      cpu.Num,
		arch:     arch,
		ap:       &archTable[arch],
		sys:      cpu.sys,
		mem:      cpu.mem,
		features: cpu.features,
		intr:     cpu.intr,
	}
	guest.sie = &SIELink{host: cpu, mso: mso, pref: preferred}
	guest.mainlim = size - 1
	guest.Reset()
	cpu.guest = guest
	debug.Debugf("SIE", debugMsk, debugSIE, "cpu %d attach %s guest mso %x size %x",
		cpu.Num, arch, mso, size)
	return guest
}

// Remove guest from host.
func (cpu *CPU) DetachGuest() {
	cpu.sieActive = false
	if cpu.guest != nil {
		cpu.guest.sie = nil
		cpu.guest = nil
	}
}

// Return guest of host, nil if none.
func (cpu *CPU) Guest() *CPU {
	return cpu.guest
}

// Return host of guest, nil if not a guest.
func (cpu *CPU) Host() *CPU {
	if cpu.sie == nil {
		return nil
	}
	return cpu.sie.host
}

// Mark host as running its guest.
func (cpu *CPU) EnterSIE() {
	if cpu.guest != nil {
		cpu.sieActive = true
	}
}

// Host has left interpretive execution.
func (cpu *CPU) ExitSIE() {
	cpu.sieActive = false
}

// Check if host is running guest.
func (cpu *CPU) SIEActive() bool {
	return cpu.sieActive
}

// Convert guest absolute address of n bytes to host absolute.
func (cpu *CPU) sieStorage(addr uint64, acctype int, n int) (uint64, uint16) {
	if cpu.sie == nil {
		return addr, 0
	}
	if cpu.sie.pref {
		return cpu.sie.mso + addr, 0
	}
	host := cpu.sie.host
	haddr, irc := host.LogicalToMainL(cpu.sie.mso+addr, UsePrimary, acctype|AccSIE, 0, n)
	if irc != 0 {
		debug.Debugf("SIE", debugMsk, debugSIE, "cpu %d guest %x host exception %04x", cpu.Num, addr, irc)
	}
	return haddr, irc
}

// Convert guest table entry address to host absolute.
func (cpu *CPU) sieTranslate(addr uint64, acctype int) (uint64, uint16) {
	return cpu.sieStorage(addr, acctype&(AccRead|AccWrite|AccCheck), 8)
}
