/*
 * S390 - S/370 translation
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

// Segment table designation.
const (
	std370STO uint64 = 0x00ffffc0 // Segment table origin
	std370STL uint64 = 0xff000000 // Segment table length
)

// Segment table entry.
const (
	seg370PTL  uint64 = 0xf0000000 // Page table length
	seg370Resv uint64 = 0x0f000000
	seg370PTO  uint64 = 0x00fffff8 // Page table origin
	seg370Prot uint64 = 0x00000004 // Segment protection
	seg370Cmn  uint64 = 0x00000002 // Common segment
	seg370Invl uint64 = 0x00000001 // Segment invalid
)

// Page table entries, 2 bytes.
const (
	pte4KPFRA uint64 = 0xfff0
	pte4KInv  uint64 = 0x0008
	pte4KMBZ  uint64 = 0x0006
	pte2KPFRA uint64 = 0xfff8
	pte2KInv  uint64 = 0x0004
	pte2KMBZ  uint64 = 0x0002
)

// Walk S/370 segment and page tables.
func (cpu *CPU) walk370(vaddr uint64, acctype int) (uint64, bool, int, uint16) {
	f := &cpu.s370
	std := cpu.dat.asd
	vaddr &= 0xffffff

	// Segment table length is in units of 16 entries.
	sx := vaddr >> f.segShift
	sto := std & std370STO
	if (sx >> 4) > (std >> 24) {
		return cpu.tranFault(vaddr, sto, ircSeg, 3)
	}

	if f.segShift == 20 {
		sto += (vaddr & 0xf00000) >> 18
	} else {
		sto += (vaddr & 0xff0000) >> 14
	}
	sto &= 0xffffff
	if sto > cpu.mainlim {
		return cpu.tranAddr()
	}

	data, irc := cpu.fetchFull(sto)
	if irc != 0 {
		return 0, false, 0, irc
	}
	ste := uint64(data)
	if (ste & seg370Invl) != 0 {
		return cpu.tranFault(vaddr, sto, ircSeg, 1)
	}
	if (ste & seg370Resv) != 0 {
		cpu.dat.raddr = sto
		return cpu.tranSpec(acctype)
	}
	if (ste & seg370Prot) != 0 {
		cpu.dat.protect |= 1
	}

	// Page index within segment, length counts sixteenths of table.
	px := (vaddr & ((uint64(1) << f.segShift) - 1)) >> f.pageShift
	ptl := (ste & seg370PTL) >> 28
	pto := ste & seg370PTO
	if (px >> f.pteLenShift) > ptl {
		return cpu.tranFault(vaddr, pto, ircPage, 3)
	}

	pto = (pto + (px << 1)) & 0xffffff
	if pto > cpu.mainlim {
		return cpu.tranAddr()
	}
	half, irc := cpu.fetchHalf(pto)
	if irc != 0 {
		return 0, false, 0, irc
	}
	pte := uint64(half)
	if (pte & f.pteInv) != 0 {
		return cpu.tranFault(vaddr, pto, ircPage, 2)
	}
	if (pte & f.pteMBZ) != 0 {
		cpu.dat.raddr = pto
		return cpu.tranSpec(acctype)
	}
	return pte, (ste & seg370Cmn) != 0, 0, 0
}
