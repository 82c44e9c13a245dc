/*
 * S390 - S/370 translation tests
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
	"testing"

	"github.com/rcornwell/S390/emu/memory"
)

// 4K pages, 64K segments, segment table at 0x10000. Virtual 0x25abc
// maps to real 0x12abc.
func setup370(t *testing.T) *CPU {
	t.Helper()
	cpu := testCPU(t, ArchS370)
	mem := cpu.Storage()
	cpu.SetControl(0, 0x00800000)
	cpu.SetControl(1, 0x00010000)
	mem.PutWord(0x10008, 0xf0011000)
	mem.PutHalf(0x1100a, 0x0120)
	cpu.SetPSW(PSW{DAT: true})
	return cpu
}

func TestTranslate370(t *testing.T) {
	cpu := setup370(t)
	cc, irc := cpu.TranslateAddr(0x25abc, UsePrimary, AccRead)
	if cc != 0 || irc != 0 {
		t.Fatalf("Translate got: %d %x expected: 0 0", cc, irc)
	}
	if cpu.RealAddr() != 0x12abc {
		t.Errorf("Real address got: %x expected: %x", cpu.RealAddr(), 0x12abc)
	}

	// Both halves of the page are cached.
	ix := cpu.tlbIndex(0x25abc)
	if cpu.tlb[ix].pte != 0x0120 || cpu.tlb[ix^1].pte != 0x0120 {
		t.Errorf("TLB pair got: %x %x expected: %x", cpu.tlb[ix].pte, cpu.tlb[ix^1].pte, 0x0120)
	}
	cc, _ = cpu.TranslateAddr(0x25123, UsePrimary, AccRead)
	if cc != 0 || cpu.RealAddr() != 0x12123 {
		t.Errorf("Other half got: %d %x expected: 0 %x", cc, cpu.RealAddr(), 0x12123)
	}

	// Upper 8 bits of address are ignored.
	cpu.PurgeTLB()
	cc, _ = cpu.TranslateAddr(0xff025abc, UsePrimary, AccRead)
	if cc != 0 || cpu.RealAddr() != 0x12abc {
		t.Errorf("24 bit address got: %d %x expected: 0 %x", cc, cpu.RealAddr(), 0x12abc)
	}
}

func TestTranslate370Small(t *testing.T) {
	cpu := testCPU(t, ArchS370)
	mem := cpu.Storage()
	cpu.SetControl(0, 0x00500000)
	cpu.SetControl(1, 0x00010000)
	mem.PutWord(0x10000, 0xf0011000)
	mem.PutHalf(0x11096, 0x0128)
	cpu.SetPSW(PSW{DAT: true})

	cc, irc := cpu.TranslateAddr(0x25abc, UsePrimary, AccRead)
	if cc != 0 || irc != 0 {
		t.Fatalf("Translate got: %d %x expected: 0 0", cc, irc)
	}
	if cpu.RealAddr() != 0x12abc {
		t.Errorf("Real address got: %x expected: %x", cpu.RealAddr(), 0x12abc)
	}
	ix := cpu.tlbIndex(0x25abc)
	if cpu.tlb[ix^1].vaddr == cpu.tlb[ix].vaddr {
		t.Error("2K page filled adjacent slot")
	}
}

func TestTranslate370Exceptions(t *testing.T) {
	tests := []struct {
		name  string
		ste   uint32
		pte   uint16
		vaddr uint64
		cc    int
		xcode uint16
	}{
		{"segment invalid", 0xf0011001, 0x0120, 0x25abc, 1, ircSeg},
		{"segment length", 0xf0011000, 0x0120, 0x125abc, 3, ircSeg},
		{"page length", 0x00011000, 0x0120, 0x25abc, 3, ircPage},
		{"page invalid", 0xf0011000, 0x0128, 0x25abc, 2, ircPage},
	}
	for _, test := range tests {
		cpu := setup370(t)
		mem := cpu.Storage()
		mem.PutWord(0x10008, test.ste)
		mem.PutHalf(0x1100a, test.pte)

		cc, irc := cpu.TranslateAddr(test.vaddr, UsePrimary, AccRead)
		if irc != 0 {
			t.Errorf("%s raised program check: %x", test.name, irc)
			continue
		}
		if cc != test.cc || cpu.XCode() != test.xcode {
			t.Errorf("%s got: %d %x expected: %d %x", test.name, cc, cpu.XCode(), test.cc, test.xcode)
		}
		if cpu.TEA() != (test.vaddr &^ 0xfff) {
			t.Errorf("%s TEA got: %x expected: %x", test.name, cpu.TEA(), test.vaddr&^0xfff)
		}
	}
}

func TestTranslate370Spec(t *testing.T) {
	cpu := setup370(t)
	cpu.Storage().PutHalf(0x1100a, 0x0122)
	_, irc := cpu.TranslateAddr(0x25abc, UsePrimary, AccRead)
	if irc != ircTranSpec {
		t.Errorf("Must be zero bit got: %x expected: %x", irc, ircTranSpec)
	}

	cpu.Storage().PutHalf(0x1100a, 0x0120)
	cpu.SetControl(0, 0x00c00000)
	_, irc = cpu.TranslateAddr(0x25abc, UsePrimary, AccRead)
	if irc != ircTranSpec {
		t.Errorf("Page size got: %x expected: %x", irc, ircTranSpec)
	}
	cc, irc := cpu.TranslateAddr(0x25abc, UsePrimary, AccRead|AccEnhMC)
	if cc != 5 || irc != 0 {
		t.Errorf("Enhanced monitor got: %d %x expected: 5 0", cc, irc)
	}

	// Table entry errors are suppressed the same way.
	cpu = setup370(t)
	cpu.Storage().PutWord(0x10008, 0xf1011000)
	cc, irc = cpu.TranslateAddr(0x25abc, UsePrimary, AccRead|AccEnhMC)
	if cc != 5 || irc != 0 {
		t.Errorf("Segment reserved got: %d %x expected: 5 0", cc, irc)
	}
	cpu = setup370(t)
	cpu.Storage().PutHalf(0x1100a, 0x0122)
	cc, irc = cpu.TranslateAddr(0x25abc, UsePrimary, AccRead|AccEnhMC)
	if cc != 5 || irc != 0 {
		t.Errorf("Page must be zero got: %d %x expected: 5 0", cc, irc)
	}
}

// Primary tables at 0x10000 map page 0 to 0x12000, secondary tables
// at 0x20000 map it to 0x22000. Secondary page 1 is invalid.
func setup370Spaces(t *testing.T, features Features) *CPU {
	t.Helper()
	mem := memory.New(1024, ArchS370.KeyShift())
	sys := NewSystem(ArchS370, mem, features)
	cpu, err := sys.AddCPU()
	if err != nil {
		t.Fatalf("AddCPU failed: %v", err)
	}
	cpu.SetControl(0, 0x00800000)
	cpu.SetControl(1, 0x00010000)
	cpu.SetControl(7, 0x00020000)
	mem.PutWord(0x10000, 0xf0011000)
	mem.PutHalf(0x11000, 0x0120)
	mem.PutWord(0x20000, 0xf0021000)
	mem.PutHalf(0x21000, 0x0220)
	mem.PutHalf(0x21002, 0x0008)
	cpu.SetPSW(PSW{DAT: true, ASC: AscSecondary})
	return cpu
}

func TestSecondarySpace370(t *testing.T) {
	cpu := setup370Spaces(t, Features{DualAddressSpace: true})
	if cpu.PSW().ASC != AscSecondary {
		t.Fatalf("Secondary mode got: %d expected: %d", cpu.PSW().ASC, AscSecondary)
	}
	cc, irc := cpu.TranslateAddr(0xabc, 1, AccRead)
	if cc != 0 || irc != 0 || cpu.RealAddr() != 0x22abc {
		t.Errorf("Secondary got: %d %x %x expected: 0 0 %x", cc, irc, cpu.RealAddr(), 0x22abc)
	}

	// Fault records page address and secondary flag.
	cc, irc = cpu.TranslateAddr(0x1abd, 1, AccRead)
	if cc != 2 || irc != 0 {
		t.Fatalf("Secondary fault got: %d %x expected: 2 0", cc, irc)
	}
	if cpu.TEA() != 0x80001000 {
		t.Errorf("Secondary TEA got: %x expected: %x", cpu.TEA(), 0x80001000)
	}
}

func TestNoDualAddressSpace370(t *testing.T) {
	cpu := setup370Spaces(t, Features{})
	if cpu.PSW().ASC != AscPrimary {
		t.Errorf("PSW space got: %d expected: %d", cpu.PSW().ASC, AscPrimary)
	}
	cc, irc := cpu.TranslateAddr(0xabc, 1, AccRead)
	if cc != 0 || irc != 0 || cpu.RealAddr() != 0x12abc {
		t.Errorf("Translate got: %d %x %x expected: 0 0 %x", cc, irc, cpu.RealAddr(), 0x12abc)
	}
}

func TestInvalidatePTE370(t *testing.T) {
	cpu := setup370(t)
	if cc, _ := cpu.TranslateAddr(0x25abc, UsePrimary, AccRead); cc != 0 {
		t.Fatalf("Translate got: %d expected: 0", cc)
	}
	if irc := cpu.IPTE(0x00011000, 0x25abc); irc != 0 {
		t.Fatalf("IPTE got: %x expected: 0", irc)
	}
	pte := cpu.Storage().GetHalf(0x1100a)
	if pte != 0x0128 {
		t.Errorf("PTE got: %04x expected: %04x", pte, 0x0128)
	}
	cc, _ := cpu.TranslateAddr(0x25abc, UsePrimary, AccRead)
	if cc != 2 {
		t.Errorf("Translate after IPTE got: %d expected: 2", cc)
	}
	if irc := cpu.IESBE(0x00011000, 0x25abc); irc != ircOper {
		t.Errorf("IESBE got: %x expected: %x", irc, ircOper)
	}
}
