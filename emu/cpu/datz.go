/*
 * S390 - z/Architecture translation
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

// Address space control element.
const (
	asceTO      uint64 = 0xfffffffffffff000 // Table origin
	asceALEProt uint64 = 0x0000000000000800 // Marks fetch only ALB designator
	asceG       uint64 = 0x0000000000000200 // Subspace group
	asceP       uint64 = 0x0000000000000100 // Private space
	asceS       uint64 = 0x0000000000000080 // Storage alteration event
	asceX       uint64 = 0x0000000000000040 // Space switch event
	asceR       uint64 = 0x0000000000000020 // Real space
	asceDT      uint64 = 0x000000000000000c // Designation type
	asceTL      uint64 = 0x0000000000000003 // Table length
)

// Table types.
const (
	ttR1  uint64 = 0xc
	ttR2  uint64 = 0x8
	ttR3  uint64 = 0x4
	ttSeg uint64 = 0x0
)

// Region table entry.
const (
	regTO uint64 = 0xfffffffffffff000 // Next table origin
	regTF uint64 = 0x00000000000000c0 // Table offset
	regI  uint64 = 0x0000000000000020 // Invalid
	regTT uint64 = 0x000000000000000c // Table type
	regTL uint64 = 0x0000000000000003 // Table length
)

// Segment table entry.
const (
	zsegSFAA uint64 = 0xfffffffffff00000 // Segment frame absolute address
	zsegPTO  uint64 = 0xfffffffffffff800 // Page table origin
	zsegFC   uint64 = 0x0000000000000400 // Format control
	zsegP    uint64 = 0x0000000000000200 // Segment protection
	zsegI    uint64 = 0x0000000000000020 // Invalid
	zsegC    uint64 = 0x0000000000000010 // Common
	zsegTT   uint64 = 0x000000000000000c // Table type
)

// Page table entry.
const (
	zptePFRA    uint64 = 0xfffffffffffff000
	zpteResv    uint64 = 0x0000000000000800
	zpteI       uint64 = 0x0000000000000400
	zpteP       uint64 = 0x0000000000000200
	zpteESValid uint64 = 0x0000000000000100
)

// Region exception codes by table type.
var regionFault = map[uint64]uint16{
	ttR1: ircRegFirst,
	ttR2: ircRegSecond,
	ttR3: ircRegThird,
}

// Walk region, segment and page tables.
func (cpu *CPU) walkZ(vaddr uint64, acctype int) (uint64, bool, int, uint16) {
	asce := cpu.dat.asd &^ asceALEProt

	// Real space, virtual address is real.
	if (asce & asceR) != 0 {
		return vaddr &^ 0xfff, false, 0, 0
	}

	rto := asce & asceTO
	tt := asce & asceDT
	tf := uint64(0)
	tl := asce & asceTL
	var sto uint64

	switch tt {
	case ttR1:
		if (vaddr >> 62) > tl {
			return cpu.tranFault(vaddr, rto, ircRegFirst, 3)
		}
		rto += (vaddr >> 50) & 0x3ff8
	case ttR2:
		if (vaddr & 0xffe0000000000000) != 0 {
			return cpu.tranFault(vaddr, rto, ircASCEType, 4)
		}
		if ix := (vaddr >> 51) & 3; ix < tf || ix > tl {
			return cpu.tranFault(vaddr, rto, ircRegSecond, 3)
		}
		rto += (vaddr >> 39) & 0x3ff8
	case ttR3:
		if (vaddr & 0xfffffc0000000000) != 0 {
			return cpu.tranFault(vaddr, rto, ircASCEType, 4)
		}
		if ix := (vaddr >> 40) & 3; ix < tf || ix > tl {
			return cpu.tranFault(vaddr, rto, ircRegThird, 3)
		}
		rto += (vaddr >> 28) & 0x3ff8
	case ttSeg:
		if (vaddr & 0xffffffff80000000) != 0 {
			return cpu.tranFault(vaddr, rto, ircASCEType, 4)
		}
		if ix := (vaddr >> 29) & 3; ix < tf || ix > tl {
			return cpu.tranFault(vaddr, rto, ircSeg, 3)
		}
		sto = rto + ((vaddr >> 17) & 0x3ff8)
		rto = 0
	}

	// Each region entry gives origin and bounds of the next level.
	for rto != 0 {
		if rto > cpu.mainlim {
			return cpu.tranAddr()
		}
		rte, irc := cpu.fetchDouble(rto)
		if irc != 0 {
			return 0, false, 0, irc
		}
		if (rte & regI) != 0 {
			return cpu.tranFault(vaddr, rto, regionFault[tt], 1)
		}
		if (rte & regTT) != tt {
			cpu.dat.raddr = rto
			return cpu.tranSpec(acctype)
		}

		entry := rto
		tf = (rte & regTF) >> 6
		tl = rte & regTL
		rto = rte & regTO

		switch tt {
		case ttR1:
			if ix := (vaddr >> 51) & 3; ix < tf || ix > tl {
				return cpu.tranFault(vaddr, entry, ircRegSecond, 3)
			}
			rto += (vaddr >> 39) & 0x3ff8
			tt = ttR2
		case ttR2:
			if ix := (vaddr >> 40) & 3; ix < tf || ix > tl {
				return cpu.tranFault(vaddr, entry, ircRegThird, 3)
			}
			rto += (vaddr >> 28) & 0x3ff8
			tt = ttR3
		case ttR3:
			if ix := (vaddr >> 29) & 3; ix < tf || ix > tl {
				return cpu.tranFault(vaddr, entry, ircSeg, 3)
			}
			sto = rto + ((vaddr >> 17) & 0x3ff8)
			rto = 0
		}
	}

	if sto > cpu.mainlim {
		return cpu.tranAddr()
	}
	ste, irc := cpu.fetchDouble(sto)
	if irc != 0 {
		return 0, false, 0, irc
	}
	if (ste & zsegI) != 0 {
		return cpu.tranFault(vaddr, sto, ircSeg, 1)
	}

	common := (ste & zsegC) != 0
	if (ste&zsegTT) != ttSeg || (common && cpu.dat.private) {
		cpu.dat.raddr = sto
		return cpu.tranSpec(acctype)
	}
	if (ste & zsegP) != 0 {
		cpu.dat.protect |= 1
	}

	// Large frame, segment entry addresses storage directly.
	if cpu.features.EDAT && (cpu.cr[0]&cr0EDAT) != 0 && (ste&zsegFC) != 0 {
		return (ste & zsegSFAA) | (vaddr & 0xff000), common, 0, 0
	}

	pto := (ste & zsegPTO) + ((vaddr >> 9) & 0x7f8)
	if pto > cpu.mainlim {
		return cpu.tranAddr()
	}
	pte, irc := cpu.fetchDouble(pto)
	if irc != 0 {
		return 0, false, 0, irc
	}
	if (pte & zpteI) != 0 {
		return cpu.tranFault(vaddr, pto, ircPage, 2)
	}
	if (pte & zpteResv) != 0 {
		cpu.dat.raddr = pto
		return cpu.tranSpec(acctype)
	}
	return pte, common, 0, 0
}
