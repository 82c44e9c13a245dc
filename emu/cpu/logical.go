/*
 * S390 - Logical to absolute address
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

// Return absolute address of logical address using the TLB when the
// cached entry permits the access. Falls back to a full translation.
func (cpu *CPU) MainAddr(addr uint64, arn int, acctype int, akey uint8) (uint64, uint16) {
	addr &= cpu.ap.addrMask
	akey &= memory.KeyMask
	if n := aeaIndex(arn); n >= 0 && (acctype&AccNoTLB) == 0 {
		if crn := cpu.aeaAR[n]; crn != 0 {
			entry := &cpu.tlb[cpu.tlbIndex(addr)]
			if (cpu.cr[crn] == entry.asd || (cpu.aeaCommon[crn] && entry.common)) &&
				(akey == 0 || akey == entry.skey) &&
				cpu.tlbTag(addr) == entry.vaddr &&
				(acctype&entry.acc) != 0 {
				return entry.main ^ addr, 0
			}
		}
	}
	return cpu.LogicalToMainL(addr, arn, acctype, akey, 1)
}

// Resolve a single byte access.
func (cpu *CPU) LogicalToMain(addr uint64, arn int, acctype int, akey uint8) (uint64, uint16) {
	return cpu.LogicalToMainL(addr, arn, acctype, akey, 1)
}

// Translate logical address, check protection with access key and
// update storage key and TLB. Returns the absolute address in storage,
// or the program check raised.
func (cpu *CPU) LogicalToMainL(addr uint64, arn int, acctype int, akey uint8, length int) (uint64, uint16) {
	addr &= cpu.ap.addrMask
	akey &= memory.KeyMask
	ix := cpu.tlbIndex(addr)

	if !cpu.psw.DAT || arn == UseReal {
		cpu.realTLB(addr, ix)
	} else {
		cc, irc := cpu.TranslateAddr(addr, arn, acctype)
		if irc != 0 {
			return 0, irc
		}
		if cc != 0 {
			return 0, cpu.programInterrupt(cpu.dat.xcode)
		}
		if cpu.dat.protect != 0 && (acctype&(AccWrite|AccCheck)) != 0 {
			return 0, cpu.protException(addr, arn, acctype)
		}
	}

	aaddr := memory.ApplyPrefixing(cpu.dat.raddr, cpu.px, cpu.ap.pxMask)
	cpu.dat.aaddr = aaddr
	if aaddr > cpu.mainlim || aaddr+uint64(max(length, 1))-1 > cpu.mainlim {
		return 0, cpu.programInterrupt(ircAddr)
	}

	// Guest absolute is host logical.
	var hpte uint64
	hostMapped := false
	if cpu.sie != nil {
		haddr, irc := cpu.sieStorage(aaddr, acctype, length)
		if irc != 0 {
			return 0, irc
		}
		if !cpu.sie.pref {
			host := cpu.sie.host
			hpte = host.tlb[host.tlbIndex(cpu.sie.mso+aaddr)].pte
			hostMapped = true
		}
		aaddr = haddr
	}

	// Host access on behalf of a guest skips the key check.
	if (acctype & AccSIE) != 0 {
		return aaddr, 0
	}

	skey := cpu.mem.GetKey(aaddr)
	acc := AccRead
	if (acctype & AccRead) != 0 {
		if cpu.isFetchProtected(addr, skey, akey) {
			return 0, cpu.protException(addr, arn, acctype)
		}
		cpu.mem.OrKey(aaddr, memory.KeyRef)
	} else {
		if cpu.isStoreProtected(addr, skey, akey) {
			return 0, cpu.protException(addr, arn, acctype)
		}
		if (acctype & AccWrite) != 0 {
			cpu.mem.OrKey(aaddr, memory.KeyRef|memory.KeyChange)
		}
		if addr >= cpu.ap.psaSize || cpu.dat.private {
			acc = AccRead | AccCheck | acctype
		}
	}

	if (acctype & AccNoTLB) == 0 {
		entry := &cpu.tlb[ix]
		entry.skey = cpu.mem.GetKey(aaddr) & memory.KeyMask
		entry.acc = acc
		entry.main = (aaddr &^ ((uint64(1) << cpu.ap.tlbShift) - 1)) ^ (addr & cpu.ap.tlbPageMask)
		entry.hpte = hpte
		entry.hostMapped = hostMapped
	}
	return aaddr, 0
}

// Build pass through entry for real address.
func (cpu *CPU) realTLB(addr uint64, ix int) {
	cpu.dat.private = false
	cpu.dat.protect = 0
	cpu.dat.stid = 0
	cpu.dat.raddr = addr
	cpu.dat.rpfra = addr & cpu.ap.tlbPageMask
	cpu.dat.asd = tlbRealASD
	cpu.tlb[ix] = tlbEntry{
		asd:   tlbRealASD,
		vaddr: cpu.tlbTag(addr),
		pte:   addr & cpu.ap.idPageMask,
	}
}

// Raise protection exception, set exception address when
// suppression on protection is installed.
func (cpu *CPU) protException(addr uint64, arn int, acctype int) uint16 {
	if cpu.features.SuppressOnProt {
		tea := (addr & cpu.ap.addrMask &^ 0xfff) | cpu.dat.stid
		if cpu.arch == ArchS370 {
			tea = cpu.teaAddr(addr)
		}
		if cpu.arch == ArchESAME && cpu.dat.protect != 0 && (acctype&(AccWrite|AccCheck)) != 0 {
			tea |= teaProtAP
			if (cpu.dat.protect & 2) != 0 {
				tea |= teaProtA
			}
		}
		cpu.tea = tea
		if arn < 16 {
			cpu.excARID = arn
		} else {
			cpu.excARID = 0
		}
	}
	debug.Debugf("PROT", debugMsk, debugProt, "cpu %d protection %x acc %x prot %d",
		cpu.Num, addr, acctype, cpu.dat.protect)
	return cpu.programInterrupt(ircProt)
}

// Check if fetch with key akey is prohibited by storage key skey.
func (cpu *CPU) isFetchProtected(addr uint64, skey uint8, akey uint8) bool {
	if akey == 0 || akey == (skey&memory.KeyMask) || (skey&memory.KeyFetch) == 0 {
		return false
	}

	// First 2K of non private space may be readable.
	if cpu.features.FetchProtOverride && addr < psaFetchOvrd &&
		(cpu.cr[0]&cr0FetchOvrd) != 0 && !cpu.dat.private {
		return false
	}

	return !cpu.storageOverride(skey)
}

// Storage key 9 permits access when override enabled.
func (cpu *CPU) storageOverride(skey uint8) bool {
	return cpu.features.StorageProtOverride && (skey&memory.KeyMask) == skeyOvrd &&
		(cpu.cr[0]&cr0StoreOvrd) != 0
}

// Check if address is in low storage protected from stores.
func (cpu *CPU) isLowAddressProtected(addr uint64) bool {
	if (addr & cpu.ap.lowProtMask) != 0 {
		return false
	}
	if (cpu.cr[0] & cr0LowProt) == 0 {
		return false
	}
	if cpu.sieActive {
		return false
	}
	return !cpu.dat.private
}

// Check if store with key akey is prohibited.
func (cpu *CPU) isStoreProtected(addr uint64, skey uint8, akey uint8) bool {
	if cpu.isLowAddressProtected(addr) {
		return true
	}

	// Page, segment or access list protection.
	if cpu.dat.protect != 0 {
		return true
	}

	if akey == 0 || cpu.storageOverride(skey) {
		return false
	}
	return (skey & memory.KeyMask) != akey
}

// Check if access of n bytes crosses into next page.
func (cpu *CPU) crossPage(addr uint64, n int) bool {
	off := addr & 0x7ff
	return off+uint64(n) > 0x800
}

// Fetch n bytes from virtual address using PSW key.
func (cpu *CPU) vfetch(addr uint64, arn int, n int) (uint64, uint16) {
	if cpu.crossPage(addr, n) {
		var value uint64
		for i := range n {
			abs, irc := cpu.MainAddr((addr+uint64(i))&cpu.ap.addrMask, arn, AccRead, cpu.psw.Key)
			if irc != 0 {
				return 0, irc
			}
			value = (value << 8) | uint64(cpu.mem.FetchByte(abs))
		}
		return value, 0
	}

	abs, irc := cpu.MainAddr(addr, arn, AccRead, cpu.psw.Key)
	if irc != 0 {
		return 0, irc
	}
	switch n {
	case 1:
		return uint64(cpu.mem.FetchByte(abs)), 0
	case 2:
		return uint64(cpu.mem.GetHalf(abs)), 0
	case 4:
		return uint64(cpu.mem.GetWord(abs)), 0
	default:
		return cpu.mem.GetDouble(abs), 0
	}
}

// Store n bytes at virtual address using PSW key. Both pages are
// checked before any byte is changed.
func (cpu *CPU) vstore(addr uint64, arn int, n int, value uint64) uint16 {
	if cpu.crossPage(addr, n) {
		last := (addr + uint64(n) - 1) & cpu.ap.addrMask
		if _, irc := cpu.MainAddr(last, arn, AccWrite, cpu.psw.Key); irc != 0 {
			return irc
		}
		for i := range n {
			abs, irc := cpu.MainAddr((addr+uint64(i))&cpu.ap.addrMask, arn, AccWrite, cpu.psw.Key)
			if irc != 0 {
				return irc
			}
			cpu.mem.StoreByte(abs, uint8(value>>(8*(n-1-i))))
		}
		return 0
	}

	abs, irc := cpu.MainAddr(addr, arn, AccWrite, cpu.psw.Key)
	if irc != 0 {
		return irc
	}
	switch n {
	case 1:
		cpu.mem.StoreByte(abs, uint8(value))
	case 2:
		cpu.mem.PutHalf(abs, uint16(value))
	case 4:
		cpu.mem.PutWord(abs, uint32(value))
	default:
		cpu.mem.PutDouble(abs, value)
	}
	return 0
}

// Virtual storage accessors.
func (cpu *CPU) VFetchByte(addr uint64, arn int) (uint8, uint16) {
	v, irc := cpu.vfetch(addr, arn, 1)
	return uint8(v), irc
}

func (cpu *CPU) VFetch2(addr uint64, arn int) (uint16, uint16) {
	v, irc := cpu.vfetch(addr, arn, 2)
	return uint16(v), irc
}

func (cpu *CPU) VFetch4(addr uint64, arn int) (uint32, uint16) {
	v, irc := cpu.vfetch(addr, arn, 4)
	return uint32(v), irc
}

func (cpu *CPU) VFetch8(addr uint64, arn int) (uint64, uint16) {
	return cpu.vfetch(addr, arn, 8)
}

func (cpu *CPU) VStoreByte(addr uint64, arn int, value uint8) uint16 {
	return cpu.vstore(addr, arn, 1, uint64(value))
}

func (cpu *CPU) VStore2(addr uint64, arn int, value uint16) uint16 {
	return cpu.vstore(addr, arn, 2, uint64(value))
}

func (cpu *CPU) VStore4(addr uint64, arn int, value uint32) uint16 {
	return cpu.vstore(addr, arn, 4, uint64(value))
}

func (cpu *CPU) VStore8(addr uint64, arn int, value uint64) uint16 {
	return cpu.vstore(addr, arn, 8, value)
}
