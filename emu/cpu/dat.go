/*
 * S390 - Dynamic address translation
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

// Translate virtual address using the space selected by arn. On
// success the real address is left in the translation context.
//
// Condition code is 0 on success, 1 segment or region invalid, 2 page
// invalid, 3 table length exceeded, 4 ALET or ASCE type exception and
// 5 for a suppressed translation specification. Exception codes for
// conditions 1 through 5 are in the context. A non zero second result
// means a program check was raised and the condition is not valid.
func (cpu *CPU) TranslateAddr(vaddr uint64, arn int, acctype int) (int, uint16) {
	cpu.dat.protect = 0
	cpu.dat.private = false
	cpu.dat.xcode = 0
	cpu.excARID = 0

	asd, irc := cpu.loadASD(arn, acctype)
	if irc != 0 {
		if isALETException(irc) {
			return 4, 0
		}
		return 0, irc
	}
	cpu.dat.asd = asd
	vaddr &= cpu.ap.addrMask

	if asd == tlbRealASD {
		cpu.dat.raddr = vaddr
		cpu.dat.rpfra = vaddr & cpu.ap.tlbPageMask
		return 0, 0
	}
	cpu.dat.private = (asd & cpu.ap.asdPrivate) != 0

	if cpu.arch == ArchS370 && (cpu.s370.pageShift == 0 || cpu.s370.segShift == 0) {
		_, _, cc, irc := cpu.tranSpec(acctype)
		return cc, irc
	}

	var pte uint64
	if entry, ok := cpu.lookupTLB(vaddr, acctype); ok {
		pte = entry.pte
		cpu.dat.protect |= entry.protect
	} else {
		var common bool
		var cc int
		switch cpu.arch {
		case ArchS370:
			pte, common, cc, irc = cpu.walk370(vaddr, acctype)
		case ArchESA390:
			pte, common, cc, irc = cpu.walk390(vaddr, acctype)
		default:
			pte, common, cc, irc = cpu.walkZ(vaddr, acctype)
		}
		if cc != 0 || irc != 0 {
			return cc, irc
		}
		if (acctype & AccNoTLB) == 0 {
			cpu.insertTLB(vaddr, pte, common)
		}
	}

	cpu.dat.rpfra = cpu.pteFrame(pte)
	cpu.dat.raddr = cpu.dat.rpfra | (vaddr & cpu.pageOffset())
	if cpu.pteProtected(pte) {
		cpu.dat.protect |= 1
	}
	debug.Debugf("DAT", debugMsk, debugDAT, "cpu %d translate %x asd %x real %x prot %d",
		cpu.Num, vaddr, asd, cpu.dat.raddr, cpu.dat.protect)
	return 0, 0
}

// Return real page frame address held in page table entry.
func (cpu *CPU) pteFrame(pte uint64) uint64 {
	switch cpu.arch {
	case ArchS370:
		return (pte & cpu.s370.ptePFRA) << 8
	case ArchESA390:
		return pte & ptePFRA
	default:
		return pte & zptePFRA
	}
}

// Return mask of byte index within a page.
func (cpu *CPU) pageOffset() uint64 {
	if cpu.arch == ArchS370 {
		return (uint64(1) << cpu.s370.pageShift) - 1
	}
	return 0xfff
}

// Check page protection bit.
func (cpu *CPU) pteProtected(pte uint64) bool {
	switch cpu.arch {
	case ArchESA390:
		return (pte & pteProt) != 0
	case ArchESAME:
		return (pte & zpteP) != 0
	}
	return false
}

// Record translation exception for entry at address entry.
func (cpu *CPU) tranFault(vaddr uint64, entry uint64, code uint16, cc int) (uint64, bool, int, uint16) {
	cpu.dat.raddr = entry
	cpu.dat.xcode = code
	cpu.tea = cpu.teaAddr(vaddr)
	debug.Debugf("DAT", debugMsk, debugDAT, "cpu %d translate %x exception %04x cc %d entry %x",
		cpu.Num, vaddr, code, cc, entry)
	return 0, false, cc, 0
}

// Exception address with space indication. S/370 keeps the page
// address and flags secondary space in bit 0.
func (cpu *CPU) teaAddr(vaddr uint64) uint64 {
	if cpu.arch != ArchS370 {
		return (vaddr & cpu.ap.teaMask) | cpu.dat.stid
	}
	tea := vaddr & cpu.ap.teaMask &^ cpu.pageOffset()
	if cpu.dat.stid == teaSecondary {
		tea |= tea370Secondary
	}
	return tea
}

// Translation specification exception, suppressed for enhanced
// monitor callers.
func (cpu *CPU) tranSpec(acctype int) (uint64, bool, int, uint16) {
	cpu.dat.xcode = ircTranSpec
	if (acctype & AccEnhMC) != 0 {
		return 0, false, 5, 0
	}
	return 0, false, 0, cpu.programInterrupt(ircTranSpec)
}

// Table entry outside of storage.
func (cpu *CPU) tranAddr() (uint64, bool, int, uint16) {
	cpu.dat.xcode = ircAddr
	return 0, false, 0, cpu.programInterrupt(ircAddr)
}

// Fetch table entries from absolute storage, each entry is fetched as
// one unit.
func (cpu *CPU) fetchHalf(addr uint64) (uint16, uint16) {
	abs, irc := cpu.sieTranslate(addr, AccRead)
	if irc != 0 {
		return 0, irc
	}
	return cpu.mem.FetchHalfAbsolute(abs), 0
}

func (cpu *CPU) fetchFull(addr uint64) (uint32, uint16) {
	abs, irc := cpu.sieTranslate(addr, AccRead)
	if irc != 0 {
		return 0, irc
	}
	return cpu.mem.FetchFullAbsolute(abs), 0
}

func (cpu *CPU) fetchDouble(addr uint64) (uint64, uint16) {
	abs, irc := cpu.sieTranslate(addr, AccRead)
	if irc != 0 {
		return 0, irc
	}
	return cpu.mem.FetchDoubleAbsolute(abs), 0
}
