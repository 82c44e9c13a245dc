/*
 * S390 - Invalidate page table entry
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

// Request types for InvalidatePTE.
const (
	IPTEOp  uint8 = 0x21 // Set page invalid
	IESBEOp uint8 = 0x59 // Clear expanded storage valid
)

// Mark page table entry selected by page table origin op1 and virtual
// address op2, then purge entries using it from every TLB. Caller must
// hold the interlock with other processors synchronized.
func (cpu *CPU) InvalidatePTE(ibyte uint8, op1 uint64, op2 uint64) uint16 {
	var pfra uint64

	switch cpu.arch {
	case ArchS370:
		f := &cpu.s370
		if f.pageShift == 0 || f.segShift == 0 {
			return cpu.programInterrupt(ircTranSpec)
		}
		if ibyte == IESBEOp {
			return cpu.programInterrupt(ircOper)
		}
		px := (op2 & ((uint64(1) << f.segShift) - 1)) >> f.pageShift
		raddr := ((op1 & seg370PTO) + (px << 1)) & 0xffffff
		pte, irc := cpu.VFetch2(raddr, UseReal)
		if irc != 0 {
			return irc
		}
		pte |= uint16(f.pteInv)
		if irc := cpu.VStore2(raddr, UseReal, pte); irc != 0 {
			return irc
		}
		pfra = (uint64(pte) & f.ptePFRA) << 8

	case ArchESA390:
		if (cpu.cr[0] & cr0TranFmt) != cr0TranESA390 {
			return cpu.programInterrupt(ircTranSpec)
		}
		// Ignore carry into bit 0.
		raddr := ((op1 & stePTO) + ((op2 & 0x000ff000) >> 10)) & 0x7fffffff
		pte, irc := cpu.VFetch4(raddr, UseReal)
		if irc != 0 {
			return irc
		}
		if ibyte == IESBEOp {
			pte &^= uint32(pteESValid)
		} else {
			pte |= uint32(pteInvalid)
		}
		if irc := cpu.VStore4(raddr, UseReal, pte); irc != 0 {
			return irc
		}
		pfra = uint64(pte) & ptePFRA

	default:
		raddr := (op1 & zsegPTO) + ((op2 & 0x000ff000) >> 9)
		pte, irc := cpu.VFetch8(raddr, UseReal)
		if irc != 0 {
			return irc
		}
		if ibyte == IESBEOp {
			pte &^= zpteESValid
		} else {
			pte |= zpteI
		}
		if irc := cpu.VStore8(raddr, UseReal, pte); irc != 0 {
			return irc
		}
		pfra = pte & zptePFRA
	}

	debug.Debugf("TLB", debugMsk, debugPurge, "cpu %d invalidate pte op %02x pfra %x", cpu.Num, ibyte, pfra)
	if cpu.sys != nil {
		cpu.sys.PurgeTLBEntryAll(cpu, pfra)
	} else {
		cpu.PurgeTLBEntry(pfra)
	}
	return 0
}
