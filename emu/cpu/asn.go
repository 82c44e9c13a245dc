/*
 * S390 - ASN and ALET translation
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
	"github.com/rcornwell/S390/util/debug"
)

// ASN second table entry. Four words are used when the address space
// function is off.
type ASTE [16]uint32

// ASN fields.
const (
	asnAFX uint16 = 0xffc0 // First table index
	asnASX uint16 = 0x003f // Second table index
)

// ASN first table entry.
const (
	afteInvalid uint32 = 0x80000000
	afteASTO0   uint32 = 0x7ffffff0 // Origin, ASF off
	afteASTO1   uint32 = 0x7fffffc0 // Origin, ASF on
	afteResv0   uint32 = 0x0000000f
	afteResv1   uint32 = 0x0000003f
)

// ASN second table entry.
const (
	aste0Invalid uint32 = 0x80000000
	aste0ATO     uint32 = 0x7ffffffc // Authority table origin
	aste0Resv    uint32 = 0x00000002
	aste0Base    uint32 = 0x00000001 // Base space
	aste1ATL     uint32 = 0x0000fff0 // Authority table length
	aste1Resv    uint32 = 0x0000000c
)

// Authority table entry bits.
const (
	atePrimary   uint8 = 0x80
	ateSecondary uint8 = 0x40
)

// Access list entry token.
const (
	aletResv      uint32 = 0xfe000000
	aletPriList   uint32 = 0x01000000 // Use primary list
	aletALESN     uint32 = 0x00ff0000 // Sequence number
	aletALEN      uint32 = 0x0000ffff // Entry number
	aletPrimary   uint32 = 0
	aletSecondary uint32 = 1
)

// Access list designation and entry.
const (
	aldALO        uint32 = 0x7fffff80 // List origin
	aldALL        uint32 = 0x0000007f // List length
	aldALLShift          = 3
	ale0Invalid   uint32 = 0x80000000
	ale0FetchOnly uint32 = 0x02000000
	ale0Private   uint32 = 0x01000000
	ale0ALESN     uint32 = 0x00ff0000
	ale0ALEAX     uint32 = 0x0000ffff
	ale2ASTE      uint32 = 0x7fffffc0
)

// Return designator held in ASTE.
func (cpu *CPU) asteDesignator(aste *ASTE) uint64 {
	if cpu.arch == ArchESAME {
		return (uint64(aste[2]) << 32) | uint64(aste[3])
	}
	return uint64(aste[2])
}

// Fetch words of a table entry from real storage.
func (cpu *CPU) fetchWords(raddr uint64, words []uint32) uint16 {
	abs := memory.ApplyPrefixing(raddr, cpu.px, cpu.ap.pxMask)
	for i := range words {
		var irc uint16
		words[i], irc = cpu.fetchFull(abs + uint64(i*4))
		if irc != 0 {
			return irc
		}
	}
	return 0
}

// Translate ASN to second table entry and its real address.
// AFX and ASX translation exceptions are returned without raising an
// interruption, other exceptions have been raised when returned.
func (cpu *CPU) TranslateASN(asn uint16) (ASTE, uint64, uint16) {
	var aste ASTE

	afteAddr := (cpu.cr[14] & cr14AFTO) << 12
	afteAddr += uint64(asn&asnAFX) >> 4
	if afteAddr > cpu.mainlim {
		return aste, 0, cpu.programInterrupt(ircAddr)
	}

	var afte [1]uint32
	if irc := cpu.fetchWords(afteAddr, afte[:]); irc != 0 {
		return aste, 0, irc
	}

	if (afte[0] & afteInvalid) != 0 {
		cpu.tea = uint64(asn)
		debug.Debugf("ASN", debugMsk, debugASN, "cpu %d asn %04x afx invalid", cpu.Num, asn)
		return aste, 0, ircAFX
	}

	asf := cpu.arch == ArchESAME || (cpu.cr[0]&cr0ASF) != 0
	if cpu.arch != ArchESAME {
		if (!asf && (afte[0]&afteResv0) != 0) || (asf && (afte[0]&afteResv1) != 0) {
			return aste, 0, cpu.programInterrupt(ircASNTranSpec)
		}
	}

	var asteo uint64
	words := 4
	if asf {
		asteo = uint64(afte[0]&afteASTO1) + (uint64(asn&asnASX) << 6)
		words = 16
	} else {
		asteo = uint64(afte[0]&afteASTO0) + (uint64(asn&asnASX) << 4)
	}

	// Ignore carry into bit 0.
	asteo &= 0x7fffffff
	if asteo > cpu.mainlim {
		return aste, 0, cpu.programInterrupt(ircAddr)
	}

	var entry ASTE
	if irc := cpu.fetchWords(asteo, entry[:words]); irc != 0 {
		return aste, 0, irc
	}

	if (entry[0] & aste0Invalid) != 0 {
		cpu.tea = uint64(asn)
		debug.Debugf("ASN", debugMsk, debugASN, "cpu %d asn %04x asx invalid", cpu.Num, asn)
		return aste, 0, ircASX
	}

	if cpu.arch != ArchESAME {
		if (entry[0]&aste0Resv) != 0 || (entry[1]&aste1Resv) != 0 ||
			((entry[0]&aste0Base) != 0 && !asf) {
			return aste, 0, cpu.programInterrupt(ircASNTranSpec)
		}
	}
	return entry, asteo, 0
}

// Check authorization index against authority table of ASTE. Returns
// false when not authorized, the code is non zero only when an
// addressing exception was raised.
func (cpu *CPU) AuthorizeASN(ax uint16, aste *ASTE, atemask uint8) (bool, uint16) {
	ato := uint64(aste[0] & aste0ATO)
	atl := uint64(aste[1] & aste1ATL)

	if uint64(ax&0xfff0) > atl {
		return false, 0
	}

	ato += uint64(ax >> 2)
	ato &= 0x7fffffff
	if ato > cpu.mainlim {
		return false, cpu.programInterrupt(ircAddr)
	}

	ato = memory.ApplyPrefixing(ato, cpu.px, cpu.ap.pxMask)
	abs, irc := cpu.sieTranslate(ato, AccRead)
	if irc != 0 {
		return false, irc
	}
	ate := cpu.mem.FetchByte(abs)
	ate <<= (ax & 3) * 2
	cpu.mem.OrKey(abs, memory.KeyRef)

	return (ate & atemask) != 0, 0
}

// Translate ALET to second table entry and its real address.
// Specification, sequence, validity and authority exceptions are
// returned and recorded in the translation context, addressing
// exceptions are raised.
func (cpu *CPU) TranslateALET(alet uint32, eax uint16, acctype int) (ASTE, uint64, uint16) {
	var aste ASTE

	cpu.dat.protect = 0
	if (alet & aletResv) != 0 {
		return aste, 0, cpu.aletException(alet, ircALETSpec)
	}

	// Access list designation is in the primary ASTE or the DUCT.
	var cb uint64
	if (alet & aletPriList) != 0 {
		cb = cpu.cr[5] & cr5PASTEO
	} else {
		cb = cpu.cr[2] & cr2DUCTO
	}
	if cb > cpu.mainlim {
		return aste, 0, cpu.programInterrupt(ircAddr)
	}

	var ald [1]uint32
	if irc := cpu.fetchWords(cb+16, ald[:]); irc != 0 {
		return aste, 0, irc
	}

	alo := uint64(ald[0] & aldALO)
	all := ald[0] & aldALL
	if ((alet & aletALEN) >> aldALLShift) > all {
		return aste, 0, cpu.aletException(alet, ircALEN)
	}

	alo += uint64(alet&aletALEN) << 4
	if alo > cpu.mainlim {
		return aste, 0, cpu.programInterrupt(ircAddr)
	}

	var ale [4]uint32
	if irc := cpu.fetchWords(alo, ale[:]); irc != 0 {
		return aste, 0, irc
	}

	if (ale[0] & ale0Invalid) != 0 {
		return aste, 0, cpu.aletException(alet, ircALEN)
	}

	special := (acctype & AccSpecialART) != 0
	if !special && (ale[0]&ale0ALESN) != (alet&aletALESN) {
		return aste, 0, cpu.aletException(alet, ircALESeq)
	}

	asteo := uint64(ale[2] & ale2ASTE)
	if memory.ApplyPrefixing(asteo, cpu.px, cpu.ap.pxMask) > cpu.mainlim {
		return aste, 0, cpu.programInterrupt(ircAddr)
	}

	var entry ASTE
	if irc := cpu.fetchWords(asteo, entry[:]); irc != 0 {
		return aste, 0, irc
	}

	if (entry[0] & aste0Invalid) != 0 {
		return aste, 0, cpu.aletException(alet, ircASTEValid)
	}

	if entry[5] != ale[3] {
		return aste, 0, cpu.aletException(alet, ircASTESeq)
	}

	// Private entries need the ALE authorization index or extended
	// authority through the authority table.
	if !special && (ale[0]&ale0Private) != 0 && uint16(ale[0]&ale0ALEAX) != eax {
		ok, irc := cpu.AuthorizeASN(eax, &entry, ateSecondary)
		if irc != 0 {
			return aste, 0, irc
		}
		if !ok {
			return aste, 0, cpu.aletException(alet, ircExtAuth)
		}
	}

	if (ale[0] & ale0FetchOnly) != 0 {
		cpu.dat.protect |= 2
	}
	return entry, asteo, 0
}

// Record ALET translation failure.
func (cpu *CPU) aletException(alet uint32, code uint16) uint16 {
	debug.Debugf("ASN", debugMsk, debugASN, "cpu %d alet %08x exception %04x", cpu.Num, alet, code)
	cpu.dat.xcode = code
	return code
}
