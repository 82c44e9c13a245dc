/*
 * S390 - Machine configuration
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

package sysconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	config "github.com/rcornwell/S390/config/configparser"
	"github.com/rcornwell/S390/emu/cpu"
	"github.com/rcornwell/S390/emu/memory"
)

// Machine description collected from configuration file.
type Machine struct {
	Arch     cpu.Arch       // Architecture
	MemoryK  int            // Main storage size in K
	CPUs     int            // Number of processors
	Features cpu.Features   // Installed facilities
	Prefix   map[int]uint64 // Prefix register per processor
}

var machine = Default()

// Return default machine, one ESA/390 processor with 16M.
func Default() Machine {
	return Machine{
		Arch:    cpu.ArchESA390,
		MemoryK: 16 * 1024,
		CPUs:    1,
		Prefix:  map[int]uint64{},
	}
}

// Return machine described so far.
func Current() Machine {
	return machine
}

// Forget any configuration.
func Reset() {
	machine = Default()
}

// register keywords on initialize.
func init() {
	config.RegisterOption("ARCH", setArch)
	config.RegisterOption("MEMORY", setMemory)
	config.RegisterOption("CPUS", setCPUs)
	config.RegisterKeyword("FEATURE", config.TypeOptions, setFeature)
	config.RegisterKeyword("PREFIX", config.TypeOptions, setPrefix)
}

func setArch(value string, _ []config.Option) error {
	arch, err := cpu.ParseArch(value)
	if err != nil {
		return err
	}
	machine.Arch = arch
	return nil
}

// Memory size is decimal with optional K or M suffix, default K.
func setMemory(value string, _ []config.Option) error {
	value = strings.ToUpper(value)
	scale := 1
	switch {
	case strings.HasSuffix(value, "M"):
		scale = 1024
		value = strings.TrimSuffix(value, "M")
	case strings.HasSuffix(value, "K"):
		value = strings.TrimSuffix(value, "K")
	}
	size, err := strconv.Atoi(value)
	if err != nil || size <= 0 {
		return errors.New("memory size invalid: " + value)
	}
	machine.MemoryK = size * scale
	return nil
}

func setCPUs(value string, _ []config.Option) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > cpu.MaxCPU {
		return fmt.Errorf("number of cpus must be 1 to %d: %s", cpu.MaxCPU, value)
	}
	machine.CPUs = n
	return nil
}

// Set or clear one facility, NO prefix clears.
func setFeatureName(name string) error {
	name = strings.ToUpper(name)
	on := true
	if strings.HasPrefix(name, "NO") {
		on = false
		name = strings.TrimPrefix(name, "NO")
	}
	f := &machine.Features
	switch name {
	case "DAS":
		f.DualAddressSpace = on
	case "FPO":
		f.FetchProtOverride = on
	case "SPO":
		f.StorageProtOverride = on
	case "SOP":
		f.SuppressOnProt = on
	case "EDAT":
		f.EDAT = on
	default:
		return errors.New("feature invalid: " + name)
	}
	return nil
}

func setFeature(first string, options []config.Option) error {
	if err := setFeatureName(first); err != nil {
		return err
	}
	for _, opt := range options {
		for _, name := range opt.Names() {
			if err := setFeatureName(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// PREFIX <cpu> ADDR=<hex>.
func setPrefix(first string, options []config.Option) error {
	n, err := strconv.Atoi(first)
	if err != nil || n < 0 || n >= cpu.MaxCPU {
		return errors.New("prefix cpu number invalid: " + first)
	}
	if len(options) != 1 || strings.ToUpper(options[0].Name) != "ADDR" || options[0].EqualOpt == "" {
		return errors.New("prefix requires ADDR=address")
	}
	px, err := strconv.ParseUint(options[0].EqualOpt, 16, 64)
	if err != nil {
		return errors.New("prefix address invalid: " + options[0].EqualOpt)
	}
	if (px & 0xfff) != 0 {
		return errors.New("prefix must be on 4K boundary: " + options[0].EqualOpt)
	}
	machine.Prefix[n] = px
	return nil
}

// Create storage and processors for machine.
func (m Machine) Build() (*cpu.System, error) {
	if m.Arch == cpu.ArchS370 && m.MemoryK > 16*1024 {
		return nil, errors.New("S370 storage limited to 16M")
	}
	if m.Arch == cpu.ArchESA390 && m.MemoryK > 2*1024*1024 {
		return nil, errors.New("ESA390 storage limited to 2G")
	}
	mem := memory.New(m.MemoryK, m.Arch.KeyShift())
	sys := cpu.NewSystem(m.Arch, mem, m.Features)
	for range m.CPUs {
		if _, err := sys.AddCPU(); err != nil {
			return nil, err
		}
	}
	for n, px := range m.Prefix {
		c := sys.CPU(n)
		if c == nil {
			return nil, fmt.Errorf("prefix for undefined cpu %d", n)
		}
		psa := m.Arch.PSASize()
		if (px & (psa - 1)) != 0 {
			return nil, fmt.Errorf("prefix %x must be on %dK boundary", px, psa/1024)
		}
		if px+psa > mem.Size() {
			return nil, fmt.Errorf("prefix %x outside storage", px)
		}
		c.SetPrefix(px)
	}
	slog.Info("Machine configured", "arch", m.Arch.String(), "memory", m.MemoryK, "cpus", m.CPUs)
	return sys, nil
}
