/*
 * S390 - Translation lookaside buffer
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

// TLB slot contents for display.
type TLBInfo struct {
	Index   int    // Slot number
	VAddr   uint64 // Virtual page
	ASD     uint64 // Designator
	PTE     uint64 // Page table entry
	Common  bool   // Common segment
	Protect uint8  // Protection classification
	Acc     int    // Permitted access
}

// Return TLB index for virtual address.
func (cpu *CPU) tlbIndex(vaddr uint64) int {
	return int((vaddr >> cpu.ap.tlbShift) & tlbMask)
}

// Return tag for virtual address in current generation.
func (cpu *CPU) tlbTag(vaddr uint64) uint64 {
	return (vaddr & cpu.ap.idPageMask) | cpu.tlbID
}

// Check if 370 4K pages, each page covers two slots.
func (cpu *CPU) tlbPaired() bool {
	return cpu.arch == ArchS370 && cpu.s370.pageShift == 12
}

// Find cached translation for address in the active space.
func (cpu *CPU) lookupTLB(vaddr uint64, acctype int) (*tlbEntry, bool) {
	if (acctype & AccNoTLB) != 0 {
		return nil, false
	}
	entry := &cpu.tlb[cpu.tlbIndex(vaddr)]
	if entry.vaddr != cpu.tlbTag(vaddr) {
		return nil, false
	}
	if entry.common {
		if cpu.dat.private {
			return nil, false
		}
	} else if entry.asd != cpu.dat.asd {
		return nil, false
	}
	return entry, true
}

// Record a translation.
func (cpu *CPU) insertTLB(vaddr uint64, pte uint64, common bool) {
	ix := cpu.tlbIndex(vaddr)
	cpu.fillTLB(ix, vaddr, pte, common)
	if cpu.tlbPaired() {
		cpu.fillTLB(ix^1, vaddr, pte, common)
	}
	debug.Debugf("TLB", debugMsk, debugTLB, "cpu %d insert %03x vaddr %x pte %x asd %x",
		cpu.Num, ix, vaddr, pte, cpu.dat.asd)
}

func (cpu *CPU) fillTLB(ix int, vaddr uint64, pte uint64, common bool) {
	cpu.tlb[ix] = tlbEntry{
		asd:     cpu.dat.asd,
		vaddr:   cpu.tlbTag(vaddr),
		pte:     pte,
		common:  common,
		protect: cpu.dat.protect,
	}
}

// Invalidate all entries by moving to next generation.
func (cpu *CPU) PurgeTLB() {
	cpu.purgeTLB()
	if cpu.guest != nil {
		cpu.guest.purgeTLB()
	}
}

func (cpu *CPU) purgeTLB() {
	debug.Debugf("TLB", debugMsk, debugPurge, "cpu %d purge tlb id %x", cpu.Num, cpu.tlbID)
	cpu.tlbID++
	if (cpu.tlbID & cpu.ap.idByteMask) == 0 {
		for i := range cpu.tlb {
			cpu.tlb[i].vaddr = 0
		}
		cpu.tlbID = 1
	}
}

// Return page table entry mask and value matching page frame.
func (cpu *CPU) pteMatch(pfra uint64) (uint64, uint64) {
	switch cpu.arch {
	case ArchS370:
		mask := pte4KPFRA
		if cpu.s370.pageShift != 12 {
			mask = pte2KPFRA
		}
		return mask, ((pfra & 0xffffff) >> 8) & mask
	case ArchESA390:
		return ptePFRA, pfra & ptePFRA
	default:
		return zptePFRA, pfra & zptePFRA
	}
}

// Invalidate entries which were built from the page table entry
// for the given page frame.
func (cpu *CPU) PurgeTLBEntry(pfra uint64) {
	mask, pte := cpu.pteMatch(pfra)
	cpu.purgeTLBEntry(mask, pte, false)
	if cpu.guest != nil {
		// Guest entries carry the host page table entry used to
		// reach them as well as their own.
		cpu.guest.purgeTLBEntry(mask, pte, true)
		gmask, gpte := cpu.guest.pteMatch(pfra)
		cpu.guest.purgeTLBEntry(gmask, gpte, false)
	}
}

func (cpu *CPU) purgeTLBEntry(mask uint64, pte uint64, host bool) {
	for i := range cpu.tlb {
		entry := &cpu.tlb[i]
		match := entry.pte
		if host {
			if !entry.hostMapped {
				continue
			}
			match = entry.hpte
		}
		if (match & mask) == pte {
			if entry.vaddr != (entry.vaddr & cpu.ap.idPageMask) {
				debug.Debugf("TLB", debugMsk, debugPurge, "cpu %d purge entry %03x pte %x", cpu.Num, i, entry.pte)
			}
			entry.vaddr &= cpu.ap.idPageMask
		}
	}
}

// Reduce access permitted by current entries. A mask of zero removes
// all access.
func (cpu *CPU) InvalidateTLB(mask int) {
	cpu.invalidateTLB(mask)
	if cpu.guest != nil {
		cpu.guest.invalidateTLB(mask)
	}
}

func (cpu *CPU) invalidateTLB(mask int) {
	if mask == 0 {
		for i := range cpu.tlb {
			cpu.tlb[i].acc = 0
		}
		return
	}
	for i := range cpu.tlb {
		if (cpu.tlb[i].vaddr & cpu.ap.idByteMask) == cpu.tlbID {
			cpu.tlb[i].acc &= mask
		}
	}
}

// Remove access to entries which map absolute frame main.
func (cpu *CPU) InvalidateByHostAddress(main uint64) {
	cpu.invalidateByHostAddress(main)
	if cpu.guest != nil {
		cpu.guest.invalidateByHostAddress(main)
	}
}

func (cpu *CPU) invalidateByHostAddress(main uint64) {
	main &^= (uint64(1) << cpu.ap.tlbShift) - 1
	for i := range cpu.tlb {
		entry := &cpu.tlb[i]
		if (entry.vaddr & cpu.ap.idByteMask) != cpu.tlbID {
			continue
		}
		if (entry.main ^ cpu.tlbVPage(i)) == main {
			entry.acc = 0
			if cpu.tlbPaired() {
				cpu.tlb[i^1].acc = 0
			}
		}
	}
}

// Rebuild the virtual page of a slot from its tag and index.
func (cpu *CPU) tlbVPage(ix int) uint64 {
	return (cpu.tlb[ix].vaddr & cpu.ap.idPageMask) | (uint64(ix) << cpu.ap.tlbShift)
}

// Return entries of the current generation.
func (cpu *CPU) TLBEntries() []TLBInfo {
	list := []TLBInfo{}
	for i := range cpu.tlb {
		entry := &cpu.tlb[i]
		if (entry.vaddr & cpu.ap.idByteMask) != cpu.tlbID {
			continue
		}
		list = append(list, TLBInfo{
			Index:   i,
			VAddr:   cpu.tlbVPage(i),
			ASD:     entry.asd,
			PTE:     entry.pte,
			Common:  entry.common,
			Protect: entry.protect,
			Acc:     entry.acc,
		})
	}
	return list
}
