/*
 * S390 - Absolute storage tests
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

package memory

import (
	"sync"
	"testing"
)

// Size rounds to 4K frames.
func TestNewSize(t *testing.T) {
	for _, k := range []int{1, 4, 5, 64, 1024} {
		s := New(k, 12)
		exp := uint64((k+3)&^3) * 1024
		if k < 4 {
			exp = 4096
		}
		if s.Size() != exp {
			t.Errorf("Memory size not correct got: %d expected: %d", s.Size(), exp)
		}
		if s.Limit() != exp-1 {
			t.Errorf("Memory limit not correct got: %x expected: %x", s.Limit(), exp-1)
		}
		if s.CheckAddr(exp) {
			t.Errorf("CheckAddr accepted address %x", exp)
		}
		if !s.CheckAddr(exp - 1) {
			t.Errorf("CheckAddr rejected address %x", exp-1)
		}
	}
}

// Bytes are stored big endian.
func TestByteOrder(t *testing.T) {
	s := New(64, 12)
	s.PutWord(0x100, 0x01020304)
	for i := range uint64(4) {
		r := s.FetchByte(0x100 + i)
		if r != uint8(i+1) {
			t.Errorf("FetchByte not correct got: %x expected: %x", r, i+1)
		}
	}
	if r := s.GetHalf(0x102); r != 0x0304 {
		t.Errorf("GetHalf not correct got: %04x expected: %04x", r, 0x0304)
	}
	s.PutDouble(0x200, 0x0011223344556677)
	if r := s.GetWord(0x204); r != 0x44556677 {
		t.Errorf("GetWord not correct got: %08x expected: %08x", r, 0x44556677)
	}
	if r := s.GetDouble(0x200); r != 0x0011223344556677 {
		t.Errorf("GetDouble not correct got: %016x expected: %016x", r, uint64(0x0011223344556677))
	}
}

// Stores spanning a doubleword boundary.
func TestUnaligned(t *testing.T) {
	s := New(64, 12)
	s.PutWord(0x106, 0xdeadbeef)
	if r := s.GetWord(0x106); r != 0xdeadbeef {
		t.Errorf("GetWord not correct got: %08x expected: %08x", r, 0xdeadbeef)
	}
	if r := s.GetHalf(0x106); r != 0xdead {
		t.Errorf("GetHalf not correct got: %04x expected: %04x", r, 0xdead)
	}
	if r := s.GetHalf(0x108); r != 0xbeef {
		t.Errorf("GetHalf not correct got: %04x expected: %04x", r, 0xbeef)
	}
	if r := s.FetchByte(0x105); r != 0 {
		t.Errorf("Neighbour byte modified got: %02x", r)
	}
}

// Absolute fetch sets reference, store sets reference and change.
func TestAbsoluteKeys(t *testing.T) {
	s := New(64, 12)
	s.PutKey(0x1000, 0x30)
	_ = s.FetchFullAbsolute(0x1004)
	if r := s.GetKey(0x1000); r != 0x34 {
		t.Errorf("Key after fetch not correct got: %02x expected: %02x", r, 0x34)
	}
	s.StoreHalfAbsolute(0x2002, 0x55aa)
	if r := s.GetKey(0x2000); r != 0x06 {
		t.Errorf("Key after store not correct got: %02x expected: %02x", r, 0x06)
	}
	if r := s.GetHalf(0x2002); r != 0x55aa {
		t.Errorf("Halfword not correct got: %04x expected: %04x", r, 0x55aa)
	}
	s.StoreDoubleAbsolute(0x3000, 1)
	if r := s.FetchDoubleAbsolute(0x3000); r != 1 {
		t.Errorf("Doubleword not correct got: %x expected: %x", r, 1)
	}
	old := s.AndKey(0x3000, ^KeyRef)
	if old != 0x06 {
		t.Errorf("AndKey old value not correct got: %02x expected: %02x", old, 0x06)
	}
	if r := s.GetKey(0x3000); r != KeyChange {
		t.Errorf("AndKey not correct got: %02x expected: %02x", r, KeyChange)
	}
}

// Key granularity follows key shift.
func TestKeyBlocks(t *testing.T) {
	s := New(64, 11)
	s.PutKey(0x800, 0xf0)
	if r := s.GetKey(0x7ff); r != 0 {
		t.Errorf("Key for 7ff not correct got: %02x expected: %02x", r, 0)
	}
	if r := s.GetKey(0xfff); r != 0xf0 {
		t.Errorf("Key for fff not correct got: %02x expected: %02x", r, 0xf0)
	}
	if s.KeyIndex(0x1800) != 3 {
		t.Errorf("KeyIndex not correct got: %d expected: %d", s.KeyIndex(0x1800), 3)
	}
	if r := s.GetKey(s.Size()); r != 0 {
		t.Errorf("Key out of range not zero: %02x", r)
	}
}

// Prefixing swaps frame zero and the prefix frame.
func TestApplyPrefixing(t *testing.T) {
	tests := []struct {
		addr, px, mask, exp uint64
	}{
		{0x000123, 0x4000, 0x7ffff000, 0x4123},
		{0x004123, 0x4000, 0x7ffff000, 0x0123},
		{0x005123, 0x4000, 0x7ffff000, 0x5123},
		{0x001123, 0x4000, 0x7fffffffffffe000, 0x5123},
		{0x005123, 0x4000, 0x7fffffffffffe000, 0x1123},
		{0x009123, 0x4000, 0x7fffffffffffe000, 0x9123},
		{0x000123, 0, 0x7ffff000, 0x0123},
	}
	for _, test := range tests {
		r := ApplyPrefixing(test.addr, test.px, test.mask)
		if r != test.exp {
			t.Errorf("Prefixing %x not correct got: %x expected: %x", test.addr, r, test.exp)
		}
	}
}

// Concurrent byte stores in one doubleword are not lost.
func TestConcurrentStore(t *testing.T) {
	s := New(4, 12)
	var wg sync.WaitGroup
	for i := range uint64(8) {
		wg.Add(1)
		go func(n uint64) {
			defer wg.Done()
			for range 1000 {
				s.StoreByte(0x10+n, uint8(n+1))
			}
		}(i)
	}
	wg.Wait()
	if r := s.GetDouble(0x10); r != 0x0102030405060708 {
		t.Errorf("Concurrent store not correct got: %016x expected: %016x", r, uint64(0x0102030405060708))
	}
}

// Console copy helpers stop at end of storage.
func TestBytes(t *testing.T) {
	s := New(4, 12)
	n := s.PutBytes(s.Size()-2, []byte{1, 2, 3})
	if n != 2 {
		t.Errorf("PutBytes count not correct got: %d expected: %d", n, 2)
	}
	data := s.GetBytes(s.Size()-2, 4)
	if len(data) != 2 || data[0] != 1 || data[1] != 2 {
		t.Errorf("GetBytes not correct got: %v", data)
	}
}
