/*
 * S390 - Translation related instructions
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
	"github.com/rcornwell/S390/emu/memory"
)

// Load real address. Returns condition code and value for register.
func (cpu *CPU) LoadRealAddress(addr uint64, arn int) (int, uint64, uint16) {
	if cpu.psw.Problem {
		return 0, 0, cpu.programInterrupt(ircPriv)
	}
	cc, irc := cpu.TranslateAddr(addr, arn, AccLRA)
	if irc != 0 {
		return 0, 0, irc
	}
	switch cc {
	case 0, 1, 2:
		return cc, cpu.dat.raddr, 0
	case 3:
		if cpu.arch == ArchESAME {
			return 3, cpu.dat.raddr, 0
		}
		return 3, cpu.dat.raddr | 0x80000000, 0
	default:
		// Exception code with high bit set.
		return 3, 0x80000000 | uint64(cpu.dat.xcode), 0
	}
}

// Test protection of logical address with access key. Returns 0 when
// fetch and store are allowed, 1 store protected, 2 fetch protected
// and 3 translation not available.
func (cpu *CPU) TestProtection(addr uint64, arn int, akey uint8) (int, uint16) {
	if cpu.psw.Problem {
		return 0, cpu.programInterrupt(ircPriv)
	}
	addr &= cpu.ap.addrMask
	raddr := addr
	if !cpu.psw.DAT {
		cpu.dat.protect = 0
		cpu.dat.private = false
	} else {
		cc, irc := cpu.TranslateAddr(addr, arn, AccRead)
		if irc != 0 {
			return 0, irc
		}
		if cc != 0 {
			return 3, 0
		}
		raddr = cpu.dat.raddr
	}

	aaddr := memory.ApplyPrefixing(raddr, cpu.px, cpu.ap.pxMask)
	if aaddr > cpu.mainlim {
		return 0, cpu.programInterrupt(ircAddr)
	}
	akey &= memory.KeyMask
	skey := cpu.mem.GetKey(aaddr)
	switch {
	case cpu.isFetchProtected(addr, skey, akey):
		return 2, 0
	case cpu.isStoreProtected(addr, skey, akey):
		return 1, 0
	}
	return 0, 0
}

// Check real address for storage key instructions, returns absolute.
func (cpu *CPU) keyAddr(addr uint64) (uint64, uint16) {
	if cpu.psw.Problem {
		return 0, cpu.programInterrupt(ircPriv)
	}
	aaddr := memory.ApplyPrefixing(addr&cpu.ap.addrMask, cpu.px, cpu.ap.pxMask)
	if aaddr > cpu.mainlim {
		return 0, cpu.programInterrupt(ircAddr)
	}
	return aaddr, 0
}

// Drop TLB access to frame on all processors.
func (cpu *CPU) keyChanged(aaddr uint64) {
	if cpu.sys == nil {
		cpu.InvalidateByHostAddress(aaddr)
		return
	}
	cpu.sys.ObtainInterlock(cpu)
	cpu.sys.InvalidateByHostAddressAll(cpu, aaddr)
	cpu.sys.ReleaseInterlock(cpu)
}

// Set storage key for real address.
func (cpu *CPU) SetStorageKey(addr uint64, key uint8) uint16 {
	aaddr, irc := cpu.keyAddr(addr)
	if irc != 0 {
		return irc
	}
	cpu.mem.PutKey(aaddr, key)
	cpu.keyChanged(aaddr)
	return 0
}

// Return storage key for real address.
func (cpu *CPU) InsertStorageKey(addr uint64) (uint8, uint16) {
	aaddr, irc := cpu.keyAddr(addr)
	if irc != 0 {
		return 0, irc
	}
	return cpu.mem.GetKey(aaddr) & 0xfe, 0
}

// Reset reference bit, condition code reflects previous reference and
// change bits.
func (cpu *CPU) ResetReferenceBit(addr uint64) (int, uint16) {
	aaddr, irc := cpu.keyAddr(addr)
	if irc != 0 {
		return 0, irc
	}
	old := cpu.mem.AndKey(aaddr, ^memory.KeyRef)
	cc := 0
	if (old & memory.KeyRef) != 0 {
		cc |= 2
	}
	if (old & memory.KeyChange) != 0 {
		cc |= 1
	}
	cpu.keyChanged(aaddr)
	return cc, 0
}

// Invalidate page table entry on all processors.
func (cpu *CPU) IPTE(op1, op2 uint64) uint16 {
	return cpu.invalidatePage(IPTEOp, op1, op2)
}

// Invalidate expanded storage block entry on all processors.
func (cpu *CPU) IESBE(op1, op2 uint64) uint16 {
	return cpu.invalidatePage(IESBEOp, op1, op2)
}

func (cpu *CPU) invalidatePage(ibyte uint8, op1, op2 uint64) uint16 {
	if cpu.psw.Problem {
		return cpu.programInterrupt(ircPriv)
	}
	if cpu.sys != nil {
		cpu.sys.ObtainInterlock(cpu)
		defer cpu.sys.ReleaseInterlock(cpu)
	}
	return cpu.InvalidatePTE(ibyte, op1, op2)
}

// Purge TLB, on all processors when broadcast.
func (cpu *CPU) PTLB(broadcast bool) uint16 {
	if cpu.psw.Problem {
		return cpu.programInterrupt(ircPriv)
	}
	if !broadcast || cpu.sys == nil {
		cpu.PurgeTLB()
		return 0
	}
	cpu.sys.ObtainInterlock(cpu)
	cpu.sys.PurgeTLBAll(cpu)
	cpu.sys.ReleaseInterlock(cpu)
	return 0
}

// Purge ALB, on all processors when broadcast.
func (cpu *CPU) PALB(broadcast bool) uint16 {
	if cpu.psw.Problem {
		return cpu.programInterrupt(ircPriv)
	}
	if !broadcast || cpu.sys == nil {
		cpu.PurgeALB()
		return 0
	}
	cpu.sys.ObtainInterlock(cpu)
	cpu.sys.PurgeALBAll(cpu)
	cpu.sys.ReleaseInterlock(cpu)
	return 0
}
