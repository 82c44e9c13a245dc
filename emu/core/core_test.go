/*
 * S390 - Processor routine tests
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

package core

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rcornwell/S390/emu/cpu"
	"github.com/rcornwell/S390/emu/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two ESA/390 processors with a page table mapping 0x5000 to 0x12000.
func testComplex(t *testing.T) *Complex {
	t.Helper()
	mem := memory.New(1024, cpu.ArchESA390.KeyShift())
	sys := cpu.NewSystem(cpu.ArchESA390, mem, cpu.Features{})
	for range 2 {
		_, err := sys.AddCPU()
		require.NoError(t, err)
	}
	mem.PutWord(0x10000, 0x00011000)
	mem.PutWord(0x11014, 0x00012000)
	c := NewComplex(sys)
	c.Start()
	t.Cleanup(c.Stop)
	return c
}

// Translate 0x5abc on processor n leaving entry in its TLB.
func translate(t *testing.T, c *Complex, n int) {
	t.Helper()
	c.Core(n).Do(func(p *cpu.CPU) {
		p.SetControl(1, 0x10000)
		p.SetPSW(cpu.PSW{DAT: true})
		cc, irc := p.TranslateAddr(0x5abc, cpu.UsePrimary, cpu.AccRead)
		assert.Equal(t, 0, cc)
		assert.Equal(t, uint16(0), irc)
	})
}

// Check if processor n has 0x5000 in its TLB.
func mapped(c *Complex, n int) bool {
	found := false
	c.Core(n).Do(func(p *cpu.CPU) {
		for _, entry := range p.TLBEntries() {
			if entry.VAddr == 0x5000 {
				found = true
			}
		}
	})
	return found
}

func TestStartStop(t *testing.T) {
	c := testComplex(t)
	assert.Equal(t, 2, c.NumCores())
	assert.Nil(t, c.Core(2))

	c.Core(1).SendStart()
	c.Core(1).Do(func(*cpu.CPU) {})
	assert.True(t, c.sys.Started(1))

	c.Core(1).SendStop()
	c.Core(1).Do(func(*cpu.CPU) {})
	assert.False(t, c.sys.Started(1))
}

func TestBroadcastPurge(t *testing.T) {
	c := testComplex(t)
	for n := range 2 {
		c.Core(n).SendStart()
		translate(t, c, n)
		require.True(t, mapped(c, n))
	}

	var irc uint16
	c.Core(0).Do(func(p *cpu.CPU) {
		irc = p.PTLB(true)
	})
	assert.Equal(t, uint16(0), irc)
	assert.False(t, mapped(c, 0))
	assert.False(t, mapped(c, 1))
}

// Stopped processors keep their entries.
func TestBroadcastStopped(t *testing.T) {
	c := testComplex(t)
	c.Core(0).SendStart()
	translate(t, c, 0)
	translate(t, c, 1)

	c.Core(0).Do(func(p *cpu.CPU) {
		p.IPTE(0x11000, 0x5000)
	})
	assert.False(t, mapped(c, 0))
	assert.True(t, mapped(c, 1))
	assert.Equal(t, uint32(0x00012400), c.sys.Storage().GetWord(0x11014))
}

func TestSynchronize(t *testing.T) {
	c := testComplex(t)
	c.Synchronize(0)

	var ran atomic.Bool
	go c.Core(1).Do(func(*cpu.CPU) {
		ran.Store(true)
	})
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load())

	// Initiator keeps running.
	c.Core(0).Do(func(*cpu.CPU) {})

	c.Release(0)
	assert.Eventually(t, ran.Load, time.Second, time.Millisecond)
}
