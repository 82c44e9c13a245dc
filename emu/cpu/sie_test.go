/*
 * S390 - SIE guest translation tests
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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Host maps guest storage at host virtual 0x80000. Guest tables at
// guest 0x1000 and 0x2000 map guest virtual 0x5abc to guest absolute
// 0x12abc, host virtual 0x92abc, host absolute 0xb2abc.
func setupGuest(t *testing.T) (*CPU, *CPU) {
	t.Helper()
	host := testCPU(t, ArchESA390)
	setup390(host, 0x81000, 0x000a1000)
	setup390(host, 0x82000, 0x000a2000)
	setup390(host, 0x92000, 0x000b2000)
	mem := host.Storage()
	mem.PutWord(0xa1000, 0x00002000)
	mem.PutWord(0xa2014, 0x00012000)
	mem.PutWord(0xb2abc, 0xfeedface)

	guest := host.AttachGuest(ArchESA390, 0x80000, 0x40000, false)
	guest.SetControl(1, 0x1000)
	guest.SetPSW(PSW{DAT: true})
	host.EnterSIE()
	return host, guest
}

func TestGuestTranslate(t *testing.T) {
	host, guest := setupGuest(t)
	require.Equal(t, guest, host.Guest())
	require.Equal(t, host, guest.Host())
	assert.True(t, host.SIEActive())

	cc, irc := guest.TranslateAddr(0x5abc, UsePrimary, AccRead)
	require.Equal(t, uint16(0), irc)
	require.Equal(t, 0, cc)
	assert.Equal(t, uint64(0x12abc), guest.RealAddr())

	v, irc := guest.VFetch4(0x5abc, 1)
	require.Equal(t, uint16(0), irc)
	assert.Equal(t, uint32(0xfeedface), v)
	assert.Equal(t, uint64(0x12abc), guest.AbsAddr())

	entry, ok := guest.lookupTLB(0x5abc, AccRead)
	require.True(t, ok)
	assert.True(t, entry.hostMapped)
	assert.Equal(t, uint64(0xb2000), entry.hpte)
}

// Invalidating the host page drops guest entries reached through it.
func TestGuestHostPurge(t *testing.T) {
	host, guest := setupGuest(t)
	_, irc := guest.VFetch4(0x5abc, 1)
	require.Equal(t, uint16(0), irc)

	require.Equal(t, uint16(0), host.IPTE(0x11000, 0x92000))
	_, ok := guest.lookupTLB(0x5abc, AccRead)
	assert.False(t, ok)

	// Host page now invalid, guest sees the host exception.
	_, irc = guest.VFetch4(0x5abc, 1)
	assert.Equal(t, ircPage, irc)
	assert.Equal(t, ircPage, host.LastIRC())
}

func TestGuestPurgeTLB(t *testing.T) {
	host, guest := setupGuest(t)
	_, irc := guest.VFetch4(0x5abc, 1)
	require.Equal(t, uint16(0), irc)

	host.PurgeTLB()
	_, ok := guest.lookupTLB(0x5abc, AccRead)
	assert.False(t, ok)
}

func TestGuestAddressing(t *testing.T) {
	_, guest := setupGuest(t)
	guest.SetPSW(PSW{})
	_, irc := guest.VFetch4(0x40000, 1)
	assert.Equal(t, ircAddr, irc)
}

func TestPreferredGuest(t *testing.T) {
	host := testCPU(t, ArchESA390)
	host.Storage().PutWord(0x80100, 0x01020304)
	guest := host.AttachGuest(ArchESA390, 0x80000, 0x40000, true)

	v, irc := guest.VFetch4(0x100, 1)
	require.Equal(t, uint16(0), irc)
	assert.Equal(t, uint32(0x01020304), v)

	host.DetachGuest()
	assert.Nil(t, host.Guest())
	assert.Nil(t, guest.Host())
	assert.False(t, host.SIEActive())
}
