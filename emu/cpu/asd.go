/*
 * S390 - Address space designator
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

// Check if code is an ALET translation exception.
func isALETException(code uint16) bool {
	return code >= ircALETSpec && code <= ircExtAuth
}

// Select designator for register selector arn. Sets the space id and
// private flag of the translation context. A non zero return is either
// an ALET exception left in dat.xcode, or a program check already raised.
func (cpu *CPU) loadASD(arn int, acctype int) (uint64, uint16) {
	switch arn {
	case UsePrimary:
		return cpu.spaceASD(1, teaPrimary), 0
	case UseSecondary:
		return cpu.spaceASD(7, teaSecondary), 0
	case UseHome:
		return cpu.spaceASD(13, teaHome), 0
	case UseReal:
		cpu.dat.stid = 0
		return tlbRealASD, 0
	case UseInstSpace:
		switch cpu.aeaAR[aeaIndex(UseInstSpace)] {
		case 13:
			return cpu.spaceASD(13, teaHome), 0
		case crASDReal:
			cpu.dat.stid = 0
			return tlbRealASD, 0
		default:
			return cpu.spaceASD(1, teaPrimary), 0
		}
	}

	if cpu.psw.ASC == AscAR || (arn&UseArMode) != 0 {
		return cpu.loadARSpace(arn & 0xf, acctype)
	}

	switch cpu.psw.ASC {
	case AscSecondary:
		return cpu.spaceASD(7, teaSecondary), 0
	case AscHome:
		if cpu.arch != ArchS370 {
			return cpu.spaceASD(13, teaHome), 0
		}
	}
	return cpu.spaceASD(1, teaPrimary), 0
}

func (cpu *CPU) spaceASD(crn int, stid uint64) uint64 {
	cpu.dat.stid = stid
	return cpu.cr[crn]
}

// Resolve designator through access register arn.
func (cpu *CPU) loadARSpace(arn int, acctype int) (uint64, uint16) {
	cpu.excARID = arn

	// Register 0 always designates primary space.
	if arn == 0 || cpu.ar[arn] == aletPrimary {
		return cpu.spaceASD(1, teaPrimary), 0
	}
	if cpu.ar[arn] == aletSecondary {
		return cpu.spaceASD(7, teaSecondary), 0
	}

	if asd, prot, ok := cpu.albLookup(arn); ok {
		cpu.dat.stid = teaAR
		cpu.dat.protect |= prot
		return asd, 0
	}

	eax := uint16(cpu.cr[8] >> 16)
	aste, _, irc := cpu.TranslateALET(cpu.ar[arn], eax, acctype)
	if irc != 0 {
		return 0, irc
	}

	asd := cpu.asteDesignator(&aste)
	// Fetch only spaces get their own TLB entries.
	if (cpu.dat.protect & 2) != 0 {
		asd ^= cpu.ap.aleProtMark
	}
	cpu.albInsert(arn, asd, cpu.dat.protect)
	cpu.dat.stid = teaAR
	return asd, 0
}
