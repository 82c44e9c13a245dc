/*
 * S390 - ESA/390 translation tests
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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// Two level tables map virtual 0xabc to real 0x12abc.
func TestTranslate390(t *testing.T) {
	cpu := testCPU(t, ArchESA390)
	setup390(cpu, 0xabc, 0x00012000)

	cc, irc := cpu.TranslateAddr(0xabc, UsePrimary, AccRead)
	require.Equal(t, uint16(0), irc)
	require.Equal(t, 0, cc)
	assert.Equal(t, uint64(0x12abc), cpu.RealAddr())
	assert.Equal(t, uint64(0x12000), cpu.dat.rpfra)

	entry, ok := cpu.lookupTLB(0xabc, AccRead)
	require.True(t, ok, "TLB missing translation")
	assert.Equal(t, uint64(0x12000), entry.pte)
	assert.Equal(t, cpu.CR(1), entry.asd)

	// Second translation comes from TLB.
	cpu.Storage().PutWord(0x11000, 0x00014000)
	cpu.TranslateAddr(0xabc, UsePrimary, AccRead)
	assert.Equal(t, uint64(0x12abc), cpu.RealAddr())

	cpu.TranslateAddr(0xabc, UsePrimary, AccRead|AccNoTLB)
	assert.Equal(t, uint64(0x14abc), cpu.RealAddr())
}

// Protected page must not be stored, exception address is the page
// in primary space.
func TestProtect390(t *testing.T) {
	ctrl := gomock.NewController(t)
	intr := NewMockInterrupter(ctrl)
	cpu := testCPU(t, ArchESA390)
	cpu.SetInterrupter(intr)
	setup390(cpu, 0x5abc, 0x00012200)

	intr.EXPECT().ProgramInterrupt(cpu, ircProt)
	irc := cpu.VStoreByte(0x5abc, 1, 0x55)
	assert.Equal(t, ircProt, irc)
	assert.Equal(t, uint8(0), cpu.Storage().FetchByte(0x12abc))
	assert.Equal(t, uint64(0x5000)|teaPrimary, cpu.TEA())

	// Fetch is allowed.
	v, irc := cpu.VFetchByte(0x5abc, 1)
	assert.Equal(t, uint16(0), irc)
	assert.Equal(t, uint8(0), v)
}

func TestTranslate390Exceptions(t *testing.T) {
	tests := []struct {
		name  string
		ste   uint32
		pte   uint32
		vaddr uint64
		cc    int
		xcode uint16
		entry uint64
	}{
		{"segment invalid", 0x00011020, 0x00012000, 0xabc, 1, ircSeg, 0x10000},
		{"page invalid", 0x00011000, 0x00012400, 0xabc, 2, ircPage, 0x11000},
		{"page length", 0x00011000, 0x00012000, 0x15abc, 3, ircPage, 0x11000},
		{"segment length", 0x00011000, 0x00012000, 0x1000abc, 3, ircSeg, 0x10000},
	}
	for _, test := range tests {
		cpu := testCPU(t, ArchESA390)
		mem := cpu.Storage()
		mem.PutWord(0x10000, test.ste)
		mem.PutWord(0x11000+((test.vaddr&0xff000)>>10), test.pte)
		cpu.SetControl(1, 0x10000)
		cpu.SetPSW(PSW{DAT: true})

		cc, irc := cpu.TranslateAddr(test.vaddr, UsePrimary, AccRead)
		if irc != 0 {
			t.Errorf("%s raised program check: %x", test.name, irc)
			continue
		}
		if cc != test.cc {
			t.Errorf("%s condition got: %d expected: %d", test.name, cc, test.cc)
		}
		if cpu.XCode() != test.xcode {
			t.Errorf("%s exception got: %x expected: %x", test.name, cpu.XCode(), test.xcode)
		}
		if cpu.RealAddr() != test.entry {
			t.Errorf("%s entry got: %x expected: %x", test.name, cpu.RealAddr(), test.entry)
		}
		if cpu.TEA() != (test.vaddr & 0x7ffff000) {
			t.Errorf("%s TEA got: %x expected: %x", test.name, cpu.TEA(), test.vaddr&0x7ffff000)
		}
		if cpu.LastIRC() != 0 {
			t.Errorf("%s program check raised: %x", test.name, cpu.LastIRC())
		}
	}
}

func TestTranslate390Spec(t *testing.T) {
	cpu := testCPU(t, ArchESA390)
	setup390(cpu, 0xabc, 0x00012800)

	_, irc := cpu.TranslateAddr(0xabc, UsePrimary, AccRead)
	assert.Equal(t, ircTranSpec, irc)
	assert.Equal(t, ircTranSpec, cpu.LastIRC())

	cc, irc := cpu.TranslateAddr(0xabc, UsePrimary, AccRead|AccEnhMC)
	assert.Equal(t, uint16(0), irc)
	assert.Equal(t, 5, cc)

	// Wrong translation format.
	cpu.Storage().PutWord(0x11000, 0x00012000)
	cpu.SetControl(0, 0)
	_, irc = cpu.TranslateAddr(0xabc, UsePrimary, AccRead)
	assert.Equal(t, ircTranSpec, irc)
}

func TestTranslate390Common(t *testing.T) {
	cpu := testCPU(t, ArchESA390)
	setup390(cpu, 0xabc, 0x00012000)
	cpu.Storage().PutWord(0x10000, 0x00011010)

	cc, irc := cpu.TranslateAddr(0xabc, UsePrimary, AccRead)
	require.Equal(t, uint16(0), irc)
	require.Equal(t, 0, cc)

	// Common segment in private space.
	cpu.SetControl(1, 0x10000|stdPrivate)
	_, irc = cpu.TranslateAddr(0xabc, UsePrimary, AccRead)
	assert.Equal(t, ircTranSpec, irc)
}

func TestTranslateReal(t *testing.T) {
	cpu := testCPU(t, ArchESA390)
	cc, irc := cpu.TranslateAddr(0x12345, UseReal, AccRead)
	assert.Equal(t, 0, cc)
	assert.Equal(t, uint16(0), irc)
	assert.Equal(t, uint64(0x12345), cpu.RealAddr())
}

func TestSecondarySpace(t *testing.T) {
	cpu := testCPU(t, ArchESA390)
	setup390(cpu, 0xabc, 0x00012000)
	mem := cpu.Storage()
	mem.PutWord(0x20000, 0x00021000)
	mem.PutWord(0x21000, 0x00015000)
	cpu.SetControl(7, 0x20000)
	cpu.SetPSW(PSW{DAT: true, ASC: AscSecondary})

	cc, irc := cpu.TranslateAddr(0xabc, 3, AccRead)
	require.Equal(t, uint16(0), irc)
	require.Equal(t, 0, cc)
	assert.Equal(t, uint64(0x15abc), cpu.RealAddr())

	cc, _ = cpu.TranslateAddr(0xabc, UsePrimary, AccRead)
	require.Equal(t, 0, cc)
	assert.Equal(t, uint64(0x12abc), cpu.RealAddr())

	// Exception address marks secondary space.
	mem.PutWord(0x21004, 0x00000400)
	cc, _ = cpu.TranslateAddr(0x1abc, UseSecondary, AccRead)
	assert.Equal(t, 2, cc)
	assert.Equal(t, uint64(0x1000)|teaSecondary, cpu.TEA())
}

// Setting page invalid changes one bit and later translations fail.
func TestInvalidatePTE390(t *testing.T) {
	cpu := testCPU(t, ArchESA390)
	setup390(cpu, 0xabc, 0x00012000)
	cc, irc := cpu.TranslateAddr(0xabc, UsePrimary, AccRead)
	require.Equal(t, 0, cc)
	require.Equal(t, uint16(0), irc)

	before := cpu.Storage().GetWord(0x11000)
	irc = cpu.IPTE(0x00011000, 0xabc)
	require.Equal(t, uint16(0), irc)
	after := cpu.Storage().GetWord(0x11000)
	assert.Equal(t, uint32(pteInvalid), before^after)

	cc, irc = cpu.TranslateAddr(0xabc, UsePrimary, AccRead)
	assert.Equal(t, uint16(0), irc)
	assert.Equal(t, 2, cc)
	assert.Equal(t, ircPage, cpu.XCode())
}

func TestIESBE390(t *testing.T) {
	cpu := testCPU(t, ArchESA390)
	setup390(cpu, 0xabc, 0x00012100)
	irc := cpu.IESBE(0x00011000, 0xabc)
	require.Equal(t, uint16(0), irc)
	assert.Equal(t, uint32(0x00012000), cpu.Storage().GetWord(0x11000))
}
