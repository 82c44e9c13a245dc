/*
 * S390 - CPU translation state
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
	"log/slog"

	"github.com/rcornwell/S390/emu/memory"
	"github.com/rcornwell/S390/util/debug"
)

const (
	// Debug options.
	debugDAT = 1 << iota
	debugTLB
	debugALB
	debugASN
	debugProt
	debugPurge
	debugSIE
	debugPgm
)

var debugOption = map[string]int{
	"DAT":   debugDAT,
	"TLB":   debugTLB,
	"ALB":   debugALB,
	"ASN":   debugASN,
	"PROT":  debugProt,
	"PURGE": debugPurge,
	"SIE":   debugSIE,
	"PGM":   debugPgm,
}

var debugMsk int

// Enable debug options.
func Debug(opt string) error {
	flag, ok := debugOption[opt]
	if !ok {
		return errors.New("cpu debug option invalid: " + opt)
	}
	debugMsk |= flag
	return nil
}

// Create a CPU attached to storage.
func newCPU(num int, arch Arch, sys *System) *CPU {
	cpu := &CPU{
		Num:  num,
		arch: arch,
		ap:   &archTable[arch],
		sys:  sys,
		mem:  sys.mem,
	}
	cpu.mainlim = cpu.mem.Limit()
	cpu.features = sys.features
	cpu.intr = sys.intr
	cpu.Reset()
	return cpu
}

// Clear translation state.
func (cpu *CPU) Reset() {
	cpu.psw = PSW{}
	cpu.cr = [crTotal]uint64{}
	cpu.ar = [16]uint32{}
	cpu.cr[crASDReal] = tlbRealASD
	cpu.tlb = [tlbSize]tlbEntry{}
	cpu.tlbID = 1
	cpu.dat = datContext{}
	cpu.tea = 0
	cpu.px = 0
	cpu.s370 = s370Format{}
	cpu.aleProt = [16]uint8{}
	if cpu.arch == ArchESA390 {
		// Translation format must be set for ESA/390.
		cpu.cr[0] = cr0TranESA390
	}
	cpu.setAEACommon()
	cpu.SetAEA()
}

// Return architecture of CPU.
func (cpu *CPU) Arch() Arch {
	return cpu.arch
}

// Return storage used by CPU.
func (cpu *CPU) Storage() *memory.Storage {
	return cpu.mem
}

// Set program check collaborator.
func (cpu *CPU) SetInterrupter(intr Interrupter) {
	cpu.intr = intr
}

// Return control register.
func (cpu *CPU) CR(n int) uint64 {
	return cpu.cr[n&0xf]
}

// Load control register.
func (cpu *CPU) SetControl(n int, value uint64) {
	n &= 0xf
	if cpu.arch != ArchESAME {
		value &= 0xffffffff
	}
	cpu.cr[n] = value
	switch n {
	case 0:
		if cpu.arch == ArchS370 {
			cpu.decode370(value)
		}
	case 1, 7, 13:
		cpu.setAEACommon()
	}
	cpu.SetAEA()
}

// Decode S/370 page and segment size from CR0.
func (cpu *CPU) decode370(value uint64) {
	f := s370Format{}
	switch value & cr0PageSize {
	default: // Translation specification
	case cr0PageSz2K:
		f.pageShift = 11
		f.pteInv = pte2KInv
		f.pteMBZ = pte2KMBZ
		f.ptePFRA = pte2KPFRA
		f.pteLenShift = 1
	case cr0PageSz4K:
		f.pageShift = 12
		f.pteInv = pte4KInv
		f.pteMBZ = pte4KMBZ
		f.ptePFRA = pte4KPFRA
		f.pteLenShift = 0
	}

	switch value & cr0SegSize {
	default: // Translation specification
	case cr0SegSz64K:
		f.segShift = 16
	case cr0SegSz1M:
		f.segShift = 20
		f.pteLenShift += 4
	}
	if f.pageShift == 0 {
		f.segShift = 0
	}
	// Cached entries depend on the table format.
	if f != cpu.s370 {
		cpu.purgeTLB()
	}
	cpu.s370 = f
}

// Return access register.
func (cpu *CPU) AR(n int) uint32 {
	return cpu.ar[n&0xf]
}

// Load access register. Reloading the register drops its ALB entry.
func (cpu *CPU) SetAR(n int, value uint32) {
	n &= 0xf
	cpu.ar[n] = value
	if cpu.psw.DAT && cpu.psw.ASC == AscAR && n > 0 {
		switch value {
		case aletPrimary:
			cpu.aeaAR[n] = 1
		case aletSecondary:
			cpu.aeaAR[n] = 7
		default:
			cpu.aeaAR[n] = 0
		}
	}
}

// Return current PSW.
func (cpu *CPU) PSW() PSW {
	return cpu.psw
}

// Load new PSW.
func (cpu *CPU) SetPSW(psw PSW) {
	if cpu.arch == ArchS370 && (psw.ASC != AscSecondary || !cpu.features.DualAddressSpace) {
		psw.ASC = AscPrimary
	}
	cpu.psw = psw
	cpu.SetAEA()
}

// Return prefix register.
func (cpu *CPU) Prefix() uint64 {
	return cpu.px
}

// Set prefix register.
func (cpu *CPU) SetPrefix(px uint64) {
	cpu.px = px & cpu.ap.pxMask
}

// Return real address from last translation.
func (cpu *CPU) RealAddr() uint64 {
	return cpu.dat.raddr
}

// Return absolute address from last translation.
func (cpu *CPU) AbsAddr() uint64 {
	return cpu.dat.aaddr
}

// Return exception code from last translation.
func (cpu *CPU) XCode() uint16 {
	return cpu.dat.xcode
}

// Return translation exception address.
func (cpu *CPU) TEA() uint64 {
	return cpu.tea
}

// Return last program interruption code raised.
func (cpu *CPU) LastIRC() uint16 {
	return cpu.lastIRC
}

// Common segment entries may only be used in non private spaces.
func (cpu *CPU) setAEACommon() {
	for _, n := range []int{1, 7, 13} {
		cpu.aeaCommon[n] = (cpu.cr[n] & cpu.ap.asdPrivate) == 0
	}
}

// Return AEA slot for register selector, -1 if none.
func aeaIndex(arn int) int {
	if arn >= 0 && arn < 16 {
		return arn
	}
	if arn >= UseInstSpace && arn <= UseReal {
		return 16 + arn - UseInstSpace
	}
	return -1
}

// Select control register for each space based on PSW.
func (cpu *CPU) SetAEA() {
	inst := aeaIndex(UseInstSpace)
	cpu.aeaAR[aeaIndex(UsePrimary)] = 1
	cpu.aeaAR[aeaIndex(UseSecondary)] = 7
	cpu.aeaAR[aeaIndex(UseHome)] = 13
	cpu.aeaAR[aeaIndex(UseReal)] = crASDReal

	if !cpu.psw.DAT {
		for i := range aeaSlots {
			cpu.aeaAR[i] = crASDReal
		}
		return
	}

	switch cpu.psw.ASC {
	case AscPrimary:
		cpu.aeaAR[inst] = 1
		for i := range 16 {
			cpu.aeaAR[i] = 1
		}
	case AscAR:
		cpu.aeaAR[inst] = 1
		cpu.aeaAR[0] = 1
		for i := 1; i < 16; i++ {
			switch cpu.ar[i] {
			case aletPrimary:
				cpu.aeaAR[i] = 1
			case aletSecondary:
				cpu.aeaAR[i] = 7
			default:
				cpu.aeaAR[i] = 0
			}
		}
	case AscSecondary:
		cpu.aeaAR[inst] = 1
		for i := range 16 {
			cpu.aeaAR[i] = 7
		}
	case AscHome:
		cpu.aeaAR[inst] = 13
		for i := range 16 {
			cpu.aeaAR[i] = 13
		}
	}
}

// Raise a program interruption. The code is returned so callers can
// unwind by returning it.
func (cpu *CPU) programInterrupt(code uint16) uint16 {
	cpu.lastIRC = code
	debug.Debugf("CPU", debugMsk, debugPgm, "cpu %d program check %04x TEA %x", cpu.Num, code, cpu.tea)
	slog.Debug("Program check", "cpu", cpu.Num, "code", code)
	if cpu.intr != nil {
		cpu.intr.ProgramInterrupt(cpu, code)
	}
	return code
}
