/*
 * S390 - Architecture parameters
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
	"errors"
	"strings"
)

type Arch int

const (
	ArchS370 Arch = iota
	ArchESA390
	ArchESAME
)

// Constants that differ between architecture generations.
type archParams struct {
	name        string
	tlbShift    uint   // Shift to TLB index
	tlbPageMask uint64 // Virtual page bits covered by one slot
	idPageMask  uint64 // Tag bits above the TLB index
	idByteMask  uint64 // Generation id bits
	addrMask    uint64 // Largest address
	teaMask     uint64 // Bits of address saved in TEA
	pxMask      uint64 // Prefix compare mask
	psaSize     uint64 // Prefixed storage area
	lowProtMask uint64 // Must be zero for low address protection
	keyShift    uint   // Storage key block size
	asdPrivate  uint64 // Private space bits in designator
	aleProtMark uint64 // Bit toggled in ALB designator for ALE protection
}

var archTable = [...]archParams{
	ArchS370: {
		name:        "S370",
		tlbShift:    11,
		tlbPageMask: 0x00fff800,
		idPageMask:  0x00e00000,
		idByteMask:  0x001fffff,
		addrMask:    0x00ffffff,
		teaMask:     0x00ffffff,
		pxMask:      0x7ffff000,
		psaSize:     4096,
		lowProtMask: 0xfffffe00,
		keyShift:    11,
	},
	ArchESA390: {
		name:        "ESA390",
		tlbShift:    12,
		tlbPageMask: 0x7ffff000,
		idPageMask:  0x7fc00000,
		idByteMask:  0x003fffff,
		addrMask:    0x7fffffff,
		teaMask:     0x7ffff000,
		pxMask:      0x7ffff000,
		psaSize:     4096,
		lowProtMask: 0xfffffe00,
		keyShift:    12,
		asdPrivate:  stdPrivate,
		aleProtMark: stdALEProt,
	},
	ArchESAME: {
		name:        "ESAME",
		tlbShift:    12,
		tlbPageMask: 0xfffffffffffff000,
		idPageMask:  0xffffffffffc00000,
		idByteMask:  0x00000000003fffff,
		addrMask:    0xffffffffffffffff,
		teaMask:     0xfffffffffffff000,
		pxMask:      0x7fffffffffffe000,
		psaSize:     8192,
		lowProtMask: 0xffffffffffffee00,
		keyShift:    12,
		asdPrivate:  asceP | asceR,
		aleProtMark: asceALEProt,
	},
}

func (a Arch) String() string {
	if a < ArchS370 || a > ArchESAME {
		return "unknown"
	}
	return archTable[a].name
}

// Return storage key block shift for architecture.
func (a Arch) KeyShift() uint {
	return archTable[a].keyShift
}

// Return size of prefixed storage area.
func (a Arch) PSASize() uint64 {
	return archTable[a].psaSize
}

// Convert name to architecture.
func ParseArch(name string) (Arch, error) {
	switch strings.ToUpper(name) {
	case "S370", "370":
		return ArchS370, nil
	case "ESA390", "ESA", "390", "S390":
		return ArchESA390, nil
	case "ESAME", "Z", "ZARCH":
		return ArchESAME, nil
	}
	return ArchS370, errors.New("unknown architecture: " + name)
}
