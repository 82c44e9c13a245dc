/*
 * S390 - Absolute storage
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
	"sync/atomic"
)

// Storage key bits.
const (
	KeyMask   uint8 = 0xf0 // Access control bits
	KeyFetch  uint8 = 0x08 // Fetch protection
	KeyRef    uint8 = 0x04 // Reference bit
	KeyChange uint8 = 0x02 // Change bit
)

// Storage is main storage shared by all CPUs. Data is held as big endian
// doublewords so that any aligned unit of up to eight bytes can be loaded
// or stored as one atomic operation.
type Storage struct {
	mem      []uint64 // Doublewords of storage
	key      []uint32 // Storage keys, low byte used
	size     uint64   // Size in bytes
	keyShift uint     // Log2 of key block size
}

// Create storage of k kilobytes, with a storage key for every
// 1 << keyShift bytes.
func New(k int, keyShift uint) *Storage {
	if k < 4 {
		k = 4
	}
	// Round up to full 4K frame.
	k = (k + 3) &^ 3
	size := uint64(k) * 1024
	return &Storage{
		mem:      make([]uint64, size>>3),
		key:      make([]uint32, size>>keyShift),
		size:     size,
		keyShift: keyShift,
	}
}

// Return size of memory in bytes.
func (s *Storage) Size() uint64 {
	return s.size
}

// Return highest valid absolute address.
func (s *Storage) Limit() uint64 {
	return s.size - 1
}

// Return log2 of the storage key block size.
func (s *Storage) KeyShift() uint {
	return s.keyShift
}

// Check if address in range.
func (s *Storage) CheckAddr(addr uint64) bool {
	return addr < s.size
}

// Load n bytes starting at addr. When the bytes sit inside one doubleword
// they are fetched with one atomic load.
func (s *Storage) load(addr uint64, n uint64) uint64 {
	off := addr & 7
	if off+n <= 8 {
		word := atomic.LoadUint64(&s.mem[addr>>3])
		shift := (8 - off - n) * 8
		if n == 8 {
			return word
		}
		return (word >> shift) & ((uint64(1) << (n * 8)) - 1)
	}
	value := uint64(0)
	for i := range n {
		value = (value << 8) | uint64(s.FetchByte(addr+i))
	}
	return value
}

// Store n bytes starting at addr.
func (s *Storage) store(addr uint64, n uint64, value uint64) {
	off := addr & 7
	if off+n <= 8 {
		ptr := &s.mem[addr>>3]
		if n == 8 {
			atomic.StoreUint64(ptr, value)
			return
		}
		shift := (8 - off - n) * 8
		mask := ((uint64(1) << (n * 8)) - 1) << shift
		for {
			old := atomic.LoadUint64(ptr)
			word := (old &^ mask) | ((value << shift) & mask)
			if atomic.CompareAndSwapUint64(ptr, old, word) {
				return
			}
		}
	}
	for i := range n {
		s.StoreByte(addr+i, uint8(value>>((n-1-i)*8)))
	}
}

// Get a byte without changing the storage key.
func (s *Storage) FetchByte(addr uint64) uint8 {
	word := atomic.LoadUint64(&s.mem[addr>>3])
	return uint8(word >> ((7 - (addr & 7)) * 8))
}

// Put a byte without changing the storage key.
func (s *Storage) StoreByte(addr uint64, data uint8) {
	s.store(addr, 1, uint64(data))
}

// Get a halfword without changing the storage key.
func (s *Storage) GetHalf(addr uint64) uint16 {
	return uint16(s.load(addr, 2))
}

// Get a fullword without changing the storage key.
func (s *Storage) GetWord(addr uint64) uint32 {
	return uint32(s.load(addr, 4))
}

// Get a doubleword without changing the storage key.
func (s *Storage) GetDouble(addr uint64) uint64 {
	return s.load(addr, 8)
}

// Put a halfword without changing the storage key.
func (s *Storage) PutHalf(addr uint64, data uint16) {
	s.store(addr, 2, uint64(data))
}

// Put a fullword without changing the storage key.
func (s *Storage) PutWord(addr uint64, data uint32) {
	s.store(addr, 4, uint64(data))
}

// Put a doubleword without changing the storage key.
func (s *Storage) PutDouble(addr uint64, data uint64) {
	s.store(addr, 8, data)
}

// The absolute accessors are used for table fetches. The caller has
// already checked the address against the storage limit.

// Fetch halfword and set reference bit.
func (s *Storage) FetchHalfAbsolute(addr uint64) uint16 {
	s.OrKey(addr, KeyRef)
	return uint16(s.load(addr, 2))
}

// Fetch fullword and set reference bit.
func (s *Storage) FetchFullAbsolute(addr uint64) uint32 {
	s.OrKey(addr, KeyRef)
	return uint32(s.load(addr, 4))
}

// Fetch doubleword and set reference bit.
func (s *Storage) FetchDoubleAbsolute(addr uint64) uint64 {
	s.OrKey(addr, KeyRef)
	return s.load(addr, 8)
}

// Store halfword and set reference and change bits.
func (s *Storage) StoreHalfAbsolute(addr uint64, data uint16) {
	s.OrKey(addr, KeyRef|KeyChange)
	s.store(addr, 2, uint64(data))
}

// Store fullword and set reference and change bits.
func (s *Storage) StoreFullAbsolute(addr uint64, data uint32) {
	s.OrKey(addr, KeyRef|KeyChange)
	s.store(addr, 4, uint64(data))
}

// Store doubleword and set reference and change bits.
func (s *Storage) StoreDoubleAbsolute(addr uint64, data uint64) {
	s.OrKey(addr, KeyRef|KeyChange)
	s.store(addr, 8, data)
}

// Copy bytes out of storage, used by the console.
func (s *Storage) GetBytes(addr uint64, n int) []byte {
	data := make([]byte, 0, n)
	for i := range uint64(n) {
		if !s.CheckAddr(addr + i) {
			break
		}
		data = append(data, s.FetchByte(addr+i))
	}
	return data
}

// Copy bytes into storage, returns number of bytes stored.
func (s *Storage) PutBytes(addr uint64, data []byte) int {
	for i, by := range data {
		if !s.CheckAddr(addr + uint64(i)) {
			return i
		}
		s.StoreByte(addr+uint64(i), by)
	}
	return len(data)
}

// Return index of storage key for address.
func (s *Storage) KeyIndex(addr uint64) uint64 {
	return addr >> s.keyShift
}

// Return storage key for address.
func (s *Storage) GetKey(addr uint64) uint8 {
	if addr >= s.size {
		return 0
	}
	return uint8(atomic.LoadUint32(&s.key[addr>>s.keyShift]))
}

// Set storage key for address.
func (s *Storage) PutKey(addr uint64, key uint8) {
	if addr < s.size {
		atomic.StoreUint32(&s.key[addr>>s.keyShift], uint32(key&0xfe))
	}
}

// Set bits in storage key.
func (s *Storage) OrKey(addr uint64, bits uint8) {
	if addr < s.size {
		atomic.OrUint32(&s.key[addr>>s.keyShift], uint32(bits))
	}
}

// Clear bits in storage key, returns previous key.
func (s *Storage) AndKey(addr uint64, bits uint8) uint8 {
	if addr >= s.size {
		return 0
	}
	return uint8(atomic.AndUint32(&s.key[addr>>s.keyShift], uint32(bits)|0xffffff00))
}

// Convert a real address to absolute. The first frame and the prefix
// frame swap places, mask selects the frame bits compared.
func ApplyPrefixing(addr, px, mask uint64) uint64 {
	frame := addr & mask
	if frame == 0 || frame == px {
		return addr ^ px
	}
	return addr
}
