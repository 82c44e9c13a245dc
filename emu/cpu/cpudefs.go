/*
 * S390 - CPU definitions
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
)

// Register selectors passed in place of an access register number.
const (
	UseArMode    int = 0x10 // OR'd with register to force AR mode
	UseInstSpace int = 0x40 // Instruction fetch space
	UsePrimary   int = 0x41 // Primary space
	UseSecondary int = 0x42 // Secondary space
	UseHome      int = 0x43 // Home space
	UseReal      int = 0x44 // Real address
)

// Access types.
const (
	AccCheck      int = 0x0001 // Check store access, don't change
	AccWrite      int = 0x0002 // Store access
	AccRead       int = 0x0004 // Fetch access
	AccNoTLB      int = 0x0100 // Don't use or update TLB
	AccSpecialART int = 0x0800 // Special ART, no sequence or authority check
	AccEnhMC      int = 0x1000 // Return cc 5 on specification exception
	AccSIE        int = 0x2000 // Host translation for a guest
	AccLRA        int = 0x4000 // Load real address
)

// Program interruption codes.
const (
	ircOper        uint16 = 0x0001 // Operation
	ircPriv        uint16 = 0x0002 // Privileged operation
	ircProt        uint16 = 0x0004 // Protection
	ircAddr        uint16 = 0x0005 // Addressing
	ircSeg         uint16 = 0x0010 // Segment translation
	ircPage        uint16 = 0x0011 // Page translation
	ircTranSpec    uint16 = 0x0012 // Translation specification
	ircASNTranSpec uint16 = 0x0017 // ASN translation specification
	ircAFX         uint16 = 0x0020 // AFX translation
	ircASX         uint16 = 0x0021 // ASX translation
	ircALETSpec    uint16 = 0x0028 // ALET specification
	ircALEN        uint16 = 0x0029 // ALEN translation
	ircALESeq      uint16 = 0x002a // ALE sequence
	ircASTEValid   uint16 = 0x002b // ASTE validity
	ircASTESeq     uint16 = 0x002c // ASTE sequence
	ircExtAuth     uint16 = 0x002d // Extended authority
	ircASCEType    uint16 = 0x0038 // ASCE type
	ircRegFirst    uint16 = 0x0039 // Region first translation
	ircRegSecond   uint16 = 0x003a // Region second translation
	ircRegThird    uint16 = 0x003b // Region third translation
)

// Address space control in PSW, values match the TEA space ids.
const (
	AscPrimary   uint8 = 0
	AscAR        uint8 = 1
	AscSecondary uint8 = 2
	AscHome      uint8 = 3
)

// Translation exception address bits.
const (
	teaPrimary   uint64 = 0x0
	teaAR        uint64 = 0x1
	teaSecondary uint64 = 0x2
	teaHome      uint64 = 0x3
	teaProtAP    uint64 = 0x4 // Access list or DAT protection
	teaProtA     uint64 = 0x8 // Access list protection

	tea370Secondary uint64 = 0x80000000 // S/370 secondary space fault
)

// Control register 0.
const (
	cr0LowProt    uint64 = 0x10000000 // Low address protection
	cr0FetchOvrd  uint64 = 0x02000000 // Fetch protection override
	cr0StoreOvrd  uint64 = 0x01000000 // Storage protection override
	cr0PageSize   uint64 = 0x00c00000 // S/370 page size
	cr0PageSz2K   uint64 = 0x00400000
	cr0PageSz4K   uint64 = 0x00800000
	cr0SegSize    uint64 = 0x00380000 // S/370 segment size
	cr0SegSz64K   uint64 = 0x00000000
	cr0SegSz1M    uint64 = 0x00100000
	cr0TranFmt    uint64 = 0x00f80000 // ESA/390 translation format
	cr0TranESA390 uint64 = 0x00b00000
	cr0EDAT       uint64 = 0x00800000 // ESAME enhanced DAT
	cr0ASF        uint64 = 0x00010000 // Address space function
)

// Other control register fields.
const (
	cr2DUCTO  uint64 = 0x7fffffc0 // Dispatchable unit control table
	cr5PASTEO uint64 = 0x7fffffc0 // Primary ASTE origin
	cr14AFTO  uint64 = 0x0007ffff // ASN first table origin
)

// Control register slots. 0-15 are the architected registers, the ALB
// keeps the designator resolved for access register n in slot 16+n.
const (
	crALBOffset = 16
	crASDReal   = 32
	crTotal     = 33
	aeaSlots    = 21
)

// Designator stored for real mode TLB entries.
const tlbRealASD uint64 = ^uint64(0)

const (
	tlbSize = 1024
	tlbMask = tlbSize - 1
)

// Storage key pieces for protection checks.
const (
	psaFetchOvrd uint64 = 2048 // Fetch override limit
	skeyOvrd     uint8  = 0x90 // Key allowed by storage override
)

// Program status word fields used by translation.
type PSW struct {
	Key     uint8 // Access key in high four bits
	DAT     bool  // Translation enabled
	ASC     uint8 // Address space control
	Problem bool  // Problem state
}

// Optional facilities.
type Features struct {
	DualAddressSpace    bool // Secondary space mode (S/370)
	FetchProtOverride   bool // Fetch protection override
	StorageProtOverride bool // Storage protection override
	SuppressOnProt      bool // Suppression on protection, sets TEA
	EDAT                bool // Enhanced DAT large frames
}

// One TLB slot.
type tlbEntry struct {
	asd     uint64 // Designator at time of caching
	vaddr   uint64 // Page tag OR'd with generation id
	pte     uint64 // Page table entry
	main    uint64 // Absolute page XOR virtual page
	acc     int    // Permitted access types
	common  bool   // Common segment
	protect uint8  // Protection classification
	skey    uint8  // Storage key at time of caching

	hpte       uint64 // Host page table entry for guest entry
	hostMapped bool   // Guest entry reached through host tables
}

// Result of last translation.
type datContext struct {
	asd     uint64 // Active designator
	raddr   uint64 // Real address, entry address on exception
	rpfra   uint64 // Real page frame address
	aaddr   uint64 // Absolute address
	xcode   uint16 // Exception code
	private bool   // Private space
	protect uint8  // 1 page/segment protection, 2 access list
	stid    uint64 // Space id for TEA
}

// Interrupter receives program interruptions raised during translation.
type Interrupter interface {
	ProgramInterrupt(cpu *CPU, code uint16)
}

// CPU holds the translation state of one processor.
type CPU struct {
	Num       int             // CPU address
	arch      Arch            // Architecture
	ap        *archParams     // Architecture constants
	sys       *System         // Owning system
	mem       *memory.Storage // Main storage
	mainlim   uint64          // Highest absolute address
	features  Features        // Facilities installed
	psw       PSW             // Current PSW
	cr        [crTotal]uint64 // Control registers plus ALB slots
	ar        [16]uint32      // Access registers
	px        uint64          // Prefix register
	tea       uint64          // Translation exception address
	excARID   int             // Exception access id
	tlbID     uint64          // Current TLB generation
	tlb       [tlbSize]tlbEntry
	dat       datContext
	aeaAR     [aeaSlots]int      // Control register selected for each space
	aeaCommon [crTotal]bool      // Common segments usable
	aleProt   [16]uint8          // ALB access list protection
	intr      Interrupter        // Program check collaborator
	lastIRC   uint16             // Last program interruption code
	s370      s370Format         // S/370 translation format from CR0
	sie       *SIELink           // Host link, nil unless a guest
	guest     *CPU               // Guest of this host
	sieActive bool               // Host is running guest
}

// S/370 page and segment size decoded from CR0.
type s370Format struct {
	pageShift   uint   // 11 or 12, 0 invalid
	segShift    uint   // 16 or 20, 0 invalid
	pteInv      uint64 // Invalid bit
	pteMBZ      uint64 // Bits that must be zero
	ptePFRA     uint64 // Page frame bits
	pteLenShift uint   // Shift of page index for length check
}
