/*
 * S390 - Console commands.
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

package parser

import (
	"errors"
	"fmt"
	"strings"

	core "github.com/rcornwell/S390/emu/core"
	"github.com/rcornwell/S390/emu/cpu"
	"github.com/rcornwell/S390/util/hex"
)

var cmdList = []cmd{
	{Name: "ar", Min: 2, Process: ar},
	{Name: "cpu", Min: 2, Process: selectCPU},
	{Name: "cr", Min: 2, Process: cr},
	{Name: "deposit", Min: 1, Process: deposit},
	{Name: "examine", Min: 1, Process: examine},
	{Name: "help", Min: 1, Process: help},
	{Name: "iesbe", Min: 2, Process: iesbe},
	{Name: "ipte", Min: 2, Process: ipte},
	{Name: "key", Min: 1, Process: key},
	{Name: "lra", Min: 1, Process: lra, Complete: spaceComplete},
	{Name: "palb", Min: 2, Process: palb, Complete: allComplete},
	{Name: "prefix", Min: 2, Process: prefix},
	{Name: "psw", Min: 2, Process: psw, Complete: pswComplete},
	{Name: "ptlb", Min: 2, Process: ptlb, Complete: allComplete},
	{Name: "quit", Min: 1, Process: quit},
	{Name: "start", Min: 3, Process: start, Complete: allComplete},
	{Name: "stop", Min: 3, Process: stop, Complete: allComplete},
	{Name: "tlb", Min: 2, Process: tlb},
	{Name: "tprot", Min: 2, Process: tprot, Complete: spaceComplete},
	{Name: "translate", Min: 2, Process: translate, Complete: spaceComplete},
}

// Address space names for translate style commands.
var spaceNames = map[string]int{
	"primary":   cpu.UsePrimary,
	"secondary": cpu.UseSecondary,
	"home":      cpu.UseHome,
	"real":      cpu.UseReal,
	"inst":      cpu.UseInstSpace,
}

var ascNames = []string{"primary", "ar", "secondary", "home"}

// Return core of currently selected processor.
func selected(c *core.Complex) *core.Core {
	if current >= c.NumCores() {
		current = 0
	}
	return c.Core(current)
}

// Number of hex digits in an address.
func addrDigits(arch cpu.Arch) int {
	switch arch {
	case cpu.ArchS370:
		return 6
	case cpu.ArchESA390:
		return 8
	default:
		return 16
	}
}

// Report program check from an operation.
func pgmCheck(irc uint16) error {
	return fmt.Errorf("program check %04X", irc)
}

func quit(line *cmdLine, _ *core.Complex) (bool, error) {
	return true, line.checkEOL()
}

func help(_ *cmdLine, _ *core.Complex) (bool, error) {
	var str strings.Builder
	for i, m := range cmdList {
		if i != 0 {
			str.WriteByte(' ')
		}
		str.WriteString(m.Name)
	}
	printf("%s\n", str.String())
	return false, nil
}

// Select processor commands apply to.
func selectCPU(line *cmdLine, c *core.Complex) (bool, error) {
	line.skipSpace()
	if line.isEOL() {
		printf("CPU %d\n", selected(c).CPU().Num)
		return false, nil
	}
	n, err := line.getNumber()
	if err != nil {
		return false, err
	}
	if err = line.checkEOL(); err != nil {
		return false, err
	}
	if n >= c.NumCores() {
		return false, fmt.Errorf("cpu %d not defined", n)
	}
	current = n
	return false, nil
}

// Show register set, four to a line.
func showRegs(name string, first int, regs []uint64, digits int) {
	var str strings.Builder
	for i, v := range regs {
		if i != 0 {
			if (i % 4) == 0 {
				str.WriteByte('\n')
			} else {
				str.WriteByte(' ')
			}
		}
		str.WriteString(fmt.Sprintf("%s%-2d ", name, first+i))
		hex.FormatAddr(&str, v, digits)
	}
	printf("%s\n", str.String())
}

// Display or set a register. get and set run on the processor routine.
func register(line *cmdLine, c *core.Complex, name string, digits int,
	get func(*cpu.CPU, int) uint64, set func(*cpu.CPU, int, uint64),
) (bool, error) {
	sel := selected(c)
	line.skipSpace()
	if line.isEOL() {
		regs := make([]uint64, 16)
		sel.Do(func(p *cpu.CPU) {
			for i := range regs {
				regs[i] = get(p, i)
			}
		})
		showRegs(name, 0, regs, digits)
		return false, nil
	}

	n, err := line.getRegister()
	if err != nil {
		return false, err
	}
	line.skipSpace()
	if line.isEOL() {
		var v uint64
		sel.Do(func(p *cpu.CPU) { v = get(p, n) })
		showRegs(name, n, []uint64{v}, digits)
		return false, nil
	}

	value, err := line.getHex()
	if err != nil {
		return false, err
	}
	if err = line.checkEOL(); err != nil {
		return false, err
	}
	sel.Do(func(p *cpu.CPU) { set(p, n, value) })
	return false, nil
}

// Control registers.
func cr(line *cmdLine, c *core.Complex) (bool, error) {
	digits := 8
	if selected(c).CPU().Arch() == cpu.ArchESAME {
		digits = 16
	}
	return register(line, c, "CR", digits,
		func(p *cpu.CPU, n int) uint64 { return p.CR(n) },
		func(p *cpu.CPU, n int, v uint64) { p.SetControl(n, v) })
}

// Access registers.
func ar(line *cmdLine, c *core.Complex) (bool, error) {
	if selected(c).CPU().Arch() == cpu.ArchS370 {
		return false, errors.New("access registers not available")
	}
	return register(line, c, "AR", 8,
		func(p *cpu.CPU, n int) uint64 { return uint64(p.AR(n)) },
		func(p *cpu.CPU, n int, v uint64) { p.SetAR(n, uint32(v)) })
}

// Format PSW translation fields.
func formatPSW(psw cpu.PSW) string {
	var str strings.Builder
	str.WriteString("PSW key=")
	hex.FormatDigit(&str, psw.Key>>4)
	if psw.DAT {
		str.WriteString(" dat")
	} else {
		str.WriteString(" nodat")
	}
	str.WriteString(" " + ascNames[psw.ASC&3])
	if psw.Problem {
		str.WriteString(" problem")
	} else {
		str.WriteString(" supervisor")
	}
	return str.String()
}

// Display or modify PSW.
func psw(line *cmdLine, c *core.Complex) (bool, error) {
	sel := selected(c)
	var cur cpu.PSW
	sel.Do(func(p *cpu.CPU) { cur = p.PSW() })

	line.skipSpace()
	if line.isEOL() {
		printf("%s\n", formatPSW(cur))
		return false, nil
	}

	for {
		line.skipSpace()
		if line.isEOL() {
			break
		}
		word := line.getWord()
		switch word {
		case "dat":
			cur.DAT = true
		case "nodat":
			cur.DAT = false
		case "problem":
			cur.Problem = true
		case "supervisor":
			cur.Problem = false
		case "primary":
			cur.ASC = cpu.AscPrimary
		case "secondary":
			cur.ASC = cpu.AscSecondary
		case "home":
			cur.ASC = cpu.AscHome
		case "ar":
			cur.ASC = cpu.AscAR
		case "key":
			if err := line.getEqual(); err != nil {
				return false, err
			}
			k, err := line.getHex()
			if err != nil {
				return false, err
			}
			if k > 0xf {
				return false, errors.New("key must be 0 to F")
			}
			cur.Key = uint8(k << 4)
		case "":
			return false, fmt.Errorf("invalid psw option at: %s", line.line[line.pos:])
		default:
			return false, errors.New("invalid psw option: " + word)
		}
	}
	sel.Do(func(p *cpu.CPU) { p.SetPSW(cur) })
	return false, nil
}

// Display or set prefix register.
func prefix(line *cmdLine, c *core.Complex) (bool, error) {
	sel := selected(c)
	line.skipSpace()
	if line.isEOL() {
		var px uint64
		sel.Do(func(p *cpu.CPU) { px = p.Prefix() })
		var str strings.Builder
		str.WriteString("Prefix ")
		hex.FormatAddr(&str, px, addrDigits(sel.CPU().Arch()))
		printf("%s\n", str.String())
		return false, nil
	}

	px, err := line.getHex()
	if err != nil {
		return false, err
	}
	if err = line.checkEOL(); err != nil {
		return false, err
	}
	align := sel.CPU().Arch().PSASize() - 1
	if (px & align) != 0 {
		return false, fmt.Errorf("prefix %x not aligned", px)
	}
	if !sel.CPU().Storage().CheckAddr(px + align) {
		return false, fmt.Errorf("prefix %x outside storage", px)
	}
	sel.Do(func(p *cpu.CPU) { p.SetPrefix(px) })
	return false, nil
}

// Display words of absolute storage.
func examine(line *cmdLine, c *core.Complex) (bool, error) {
	addr, err := line.getHex()
	if err != nil {
		return false, err
	}
	count := 1
	line.skipSpace()
	if !line.isEOL() {
		if count, err = line.getNumber(); err != nil {
			return false, err
		}
	}
	if err = line.checkEOL(); err != nil {
		return false, err
	}

	mem := selected(c).CPU().Storage()
	digits := addrDigits(selected(c).CPU().Arch())
	addr &^= 3
	var str strings.Builder
	for i := 0; i < count; i++ {
		if !mem.CheckAddr(addr) {
			printf("%s", str.String())
			return false, fmt.Errorf("address %x outside storage", addr)
		}
		if (i % 4) == 0 {
			if i != 0 {
				str.WriteByte('\n')
			}
			hex.FormatAddr(&str, addr, digits)
			str.WriteString(": ")
		}
		hex.FormatWord(&str, []uint32{mem.GetWord(addr)})
		addr += 4
	}
	printf("%s\n", str.String())
	return false, nil
}

// Store words into absolute storage.
func deposit(line *cmdLine, c *core.Complex) (bool, error) {
	addr, err := line.getHex()
	if err != nil {
		return false, err
	}
	values := []uint32{}
	for {
		line.skipSpace()
		if line.isEOL() {
			break
		}
		v, err := line.getHex()
		if err != nil {
			return false, err
		}
		if v > 0xffffffff {
			return false, fmt.Errorf("value %x larger then a word", v)
		}
		values = append(values, uint32(v))
	}
	if len(values) == 0 {
		return false, errors.New("value expected")
	}

	mem := selected(c).CPU().Storage()
	addr &^= 3
	if !mem.CheckAddr(addr + uint64(4*len(values)) - 1) {
		return false, fmt.Errorf("address %x outside storage", addr)
	}
	for _, v := range values {
		mem.PutWord(addr, v)
		addr += 4
	}
	return false, nil
}

// Display or set storage key of real address.
func key(line *cmdLine, c *core.Complex) (bool, error) {
	addr, err := line.getHex()
	if err != nil {
		return false, err
	}
	line.skipSpace()
	sel := selected(c)
	if line.isEOL() {
		var k uint8
		var irc uint16
		sel.Do(func(p *cpu.CPU) { k, irc = p.InsertStorageKey(addr) })
		if irc != 0 {
			return false, pgmCheck(irc)
		}
		var str strings.Builder
		str.WriteString("Key ")
		hex.FormatByte(&str, k)
		printf("%s\n", str.String())
		return false, nil
	}

	k, err := line.getHex()
	if err != nil {
		return false, err
	}
	if err = line.checkEOL(); err != nil {
		return false, err
	}
	if k > 0xff {
		return false, errors.New("key must be 00 to FF")
	}
	var irc uint16
	sel.Do(func(p *cpu.CPU) { irc = p.SetStorageKey(addr, uint8(k)) })
	if irc != 0 {
		return false, pgmCheck(irc)
	}
	return false, nil
}

// Get optional address space, number selects an access register.
func (line *cmdLine) getSpace() (int, error) {
	line.skipSpace()
	if line.isEOL() {
		return cpu.UsePrimary, nil
	}
	if word := line.peekWord(); word != "" {
		arn, ok := spaceNames[word]
		if !ok {
			return cpu.UsePrimary, nil
		}
		line.getWord()
		return arn, nil
	}
	return line.getRegister()
}

// Translate a virtual address.
func translate(line *cmdLine, c *core.Complex) (bool, error) {
	vaddr, err := line.getHex()
	if err != nil {
		return false, err
	}
	arn, err := line.getSpace()
	if err != nil {
		return false, err
	}
	acc := cpu.AccRead
	if line.peekWord() == "write" {
		line.getWord()
		acc = cpu.AccWrite
	}
	if err = line.checkEOL(); err != nil {
		return false, err
	}

	sel := selected(c)
	var cc int
	var irc, xcode uint16
	var raddr uint64
	sel.Do(func(p *cpu.CPU) {
		cc, irc = p.TranslateAddr(vaddr, arn, acc)
		raddr = p.RealAddr()
		xcode = p.XCode()
	})
	if irc != 0 {
		return false, pgmCheck(irc)
	}
	if cc != 0 {
		printf("cc %d code %04X\n", cc, xcode)
		return false, nil
	}
	var str strings.Builder
	str.WriteString("Real ")
	hex.FormatAddr(&str, raddr, addrDigits(sel.CPU().Arch()))
	printf("%s\n", str.String())
	return false, nil
}

// Load real address.
func lra(line *cmdLine, c *core.Complex) (bool, error) {
	vaddr, err := line.getHex()
	if err != nil {
		return false, err
	}
	arn, err := line.getSpace()
	if err != nil {
		return false, err
	}
	if err = line.checkEOL(); err != nil {
		return false, err
	}

	sel := selected(c)
	var cc int
	var value uint64
	var irc uint16
	sel.Do(func(p *cpu.CPU) { cc, value, irc = p.LoadRealAddress(vaddr, arn) })
	if irc != 0 {
		return false, pgmCheck(irc)
	}
	var str strings.Builder
	str.WriteString(fmt.Sprintf("cc %d ", cc))
	hex.FormatAddr(&str, value, addrDigits(sel.CPU().Arch()))
	printf("%s\n", str.String())
	return false, nil
}

// Test protection: tprot addr key [space].
func tprot(line *cmdLine, c *core.Complex) (bool, error) {
	vaddr, err := line.getHex()
	if err != nil {
		return false, err
	}
	k, err := line.getHex()
	if err != nil {
		return false, err
	}
	if k > 0xf {
		return false, errors.New("key must be 0 to F")
	}
	arn, err := line.getSpace()
	if err != nil {
		return false, err
	}
	if err = line.checkEOL(); err != nil {
		return false, err
	}

	var cc int
	var irc uint16
	selected(c).Do(func(p *cpu.CPU) { cc, irc = p.TestProtection(vaddr, arn, uint8(k<<4)) })
	if irc != 0 {
		return false, pgmCheck(irc)
	}
	printf("cc %d\n", cc)
	return false, nil
}

// List translation lookaside buffer.
func tlb(line *cmdLine, c *core.Complex) (bool, error) {
	if err := line.checkEOL(); err != nil {
		return false, err
	}
	sel := selected(c)
	var entries []cpu.TLBInfo
	sel.Do(func(p *cpu.CPU) { entries = p.TLBEntries() })
	digits := addrDigits(sel.CPU().Arch())
	for _, e := range entries {
		var str strings.Builder
		hex.FormatHalf(&str, true, []uint16{uint16(e.Index)})
		hex.FormatAddr(&str, e.VAddr, digits)
		str.WriteString(" asd ")
		hex.FormatAddr(&str, e.ASD, digits)
		str.WriteString(" pte ")
		hex.FormatAddr(&str, e.PTE, digits)
		if e.Common {
			str.WriteString(" common")
		}
		if e.Protect != 0 {
			str.WriteString(" protect")
		}
		switch {
		case (e.Acc & cpu.AccWrite) != 0:
			str.WriteString(" write")
		case (e.Acc & cpu.AccRead) != 0:
			str.WriteString(" read")
		}
		printf("%s\n", str.String())
	}
	printf("%d entries\n", len(entries))
	return false, nil
}

// Check for optional all keyword.
func (line *cmdLine) getAll() (bool, error) {
	all := false
	line.skipSpace()
	if !line.isEOL() {
		word := line.getWord()
		if word != "all" {
			return false, fmt.Errorf("invalid option: %s", line.line[line.pos:])
		}
		all = true
	}
	return all, line.checkEOL()
}

// Purge TLB, all purges every started processor.
func ptlb(line *cmdLine, c *core.Complex) (bool, error) {
	all, err := line.getAll()
	if err != nil {
		return false, err
	}
	var irc uint16
	selected(c).Do(func(p *cpu.CPU) { irc = p.PTLB(all) })
	if irc != 0 {
		return false, pgmCheck(irc)
	}
	return false, nil
}

// Purge ALB.
func palb(line *cmdLine, c *core.Complex) (bool, error) {
	all, err := line.getAll()
	if err != nil {
		return false, err
	}
	var irc uint16
	selected(c).Do(func(p *cpu.CPU) { irc = p.PALB(all) })
	if irc != 0 {
		return false, pgmCheck(irc)
	}
	return false, nil
}

// Run table entry invalidation with two operands.
func invalidate(line *cmdLine, c *core.Complex, fn func(*cpu.CPU, uint64, uint64) uint16) (bool, error) {
	op1, err := line.getHex()
	if err != nil {
		return false, err
	}
	op2, err := line.getHex()
	if err != nil {
		return false, err
	}
	if err = line.checkEOL(); err != nil {
		return false, err
	}
	var irc uint16
	selected(c).Do(func(p *cpu.CPU) { irc = fn(p, op1, op2) })
	if irc != 0 {
		return false, pgmCheck(irc)
	}
	return false, nil
}

// Invalidate page table entry: ipte origin vaddr.
func ipte(line *cmdLine, c *core.Complex) (bool, error) {
	return invalidate(line, c, (*cpu.CPU).IPTE)
}

// Invalidate expanded storage block entry.
func iesbe(line *cmdLine, c *core.Complex) (bool, error) {
	return invalidate(line, c, (*cpu.CPU).IESBE)
}

// Get list of cores, default is the selected one.
func (line *cmdLine) getCores(c *core.Complex) ([]*core.Core, error) {
	line.skipSpace()
	if line.isEOL() {
		return []*core.Core{selected(c)}, nil
	}
	if word := line.getWord(); word != "" {
		if word != "all" {
			return nil, errors.New("invalid cpu: " + word)
		}
		if err := line.checkEOL(); err != nil {
			return nil, err
		}
		cores := []*core.Core{}
		for i := range c.NumCores() {
			cores = append(cores, c.Core(i))
		}
		return cores, nil
	}
	n, err := line.getNumber()
	if err != nil {
		return nil, err
	}
	if err = line.checkEOL(); err != nil {
		return nil, err
	}
	if n >= c.NumCores() {
		return nil, fmt.Errorf("cpu %d not defined", n)
	}
	return []*core.Core{c.Core(n)}, nil
}

// Start processors.
func start(line *cmdLine, c *core.Complex) (bool, error) {
	cores, err := line.getCores(c)
	if err != nil {
		return false, err
	}
	for _, sel := range cores {
		sel.SendStart()
	}
	return false, nil
}

// Stop processors.
func stop(line *cmdLine, c *core.Complex) (bool, error) {
	cores, err := line.getCores(c)
	if err != nil {
		return false, err
	}
	for _, sel := range cores {
		sel.SendStop()
	}
	return false, nil
}
