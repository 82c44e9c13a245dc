/*
 * S390 - ESA/390 translation
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
	stdSTO     uint64 = 0x7ffff000 // Segment table origin
	stdALEProt uint64 = 0x00000800 // Marks fetch only ALB designator
	stdGroup   uint64 = 0x00000200 // Subspace group
	stdPrivate uint64 = 0x00000100 // Private space
	stdSAEvent uint64 = 0x00000080 // Storage alteration event
	stdSTL     uint64 = 0x0000007f // Segment table length
)

// Segment table entry.
const (
	steResv    uint64 = 0x80000000
	stePTO     uint64 = 0x7fffffc0 // Page table origin
	steInvalid uint64 = 0x00000020
	steCommon  uint64 = 0x00000010
	stePTL     uint64 = 0x0000000f // Page table length
)

// Page table entry.
const (
	ptePFRA    uint64 = 0x7ffff000 // Page frame real address
	pteInvalid uint64 = 0x00000400
	pteProt    uint64 = 0x00000200
	pteESValid uint64 = 0x00000100 // Expanded storage valid
	pteResv    uint64 = 0x80000800
)

// Walk ESA/390 segment and page tables.
func (cpu *CPU) walk390(vaddr uint64, acctype int) (uint64, bool, int, uint16) {
	std := cpu.dat.asd &^ stdALEProt

	if (cpu.cr[0] & cr0TranFmt) != cr0TranESA390 {
		return cpu.tranSpec(acctype)
	}

	sto := std & stdSTO
	stl := std & stdSTL
	if (vaddr >> 24) > stl {
		return cpu.tranFault(vaddr, sto, ircSeg, 3)
	}

	// Ignore carry into bit 0.
	sto = (sto + ((vaddr & 0x7ff00000) >> 18)) & 0x7fffffff
	if sto > cpu.mainlim {
		return cpu.tranAddr()
	}

	data, irc := cpu.fetchFull(sto)
	if irc != 0 {
		return 0, false, 0, irc
	}
	ste := uint64(data)
	if (ste & steInvalid) != 0 {
		return cpu.tranFault(vaddr, sto, ircSeg, 1)
	}

	common := (ste & steCommon) != 0
	if (ste&steResv) != 0 || (common && cpu.dat.private) {
		cpu.dat.raddr = sto
		return cpu.tranSpec(acctype)
	}

	pto := ste & stePTO
	ptl := ste & stePTL
	if ((vaddr & 0x000ff000) >> 16) > ptl {
		return cpu.tranFault(vaddr, pto, ircPage, 3)
	}

	pto = (pto + ((vaddr & 0x000ff000) >> 10)) & 0x7fffffff
	if pto > cpu.mainlim {
		return cpu.tranAddr()
	}

	data, irc = cpu.fetchFull(pto)
	if irc != 0 {
		return 0, false, 0, irc
	}
	pte := uint64(data)
	if (pte & pteInvalid) != 0 {
		return cpu.tranFault(vaddr, pto, ircPage, 2)
	}
	if (pte & pteResv) != 0 {
		cpu.dat.raddr = pto
		return cpu.tranSpec(acctype)
	}
	return pte, common, 0, 0
}
