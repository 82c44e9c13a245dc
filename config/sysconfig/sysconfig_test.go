/*
 * S390 - Machine configuration tests
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
	"strings"
	"testing"

	config "github.com/rcornwell/S390/config/configparser"
	"github.com/rcornwell/S390/emu/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, cfg string) error {
	t.Helper()
	Reset()
	return config.LoadConfig(strings.NewReader(cfg))
}

func TestMachine(t *testing.T) {
	cfg := `# test machine
ARCH ESAME
MEMORY 2M
CPUS 2
FEATURE EDAT FPO, SPO
FEATURE nodas sop
PREFIX 1 ADDR=2000
`
	require.NoError(t, load(t, cfg))
	m := Current()
	assert.Equal(t, cpu.ArchESAME, m.Arch)
	assert.Equal(t, 2048, m.MemoryK)
	assert.Equal(t, 2, m.CPUs)
	assert.Equal(t, cpu.Features{
		FetchProtOverride:   true,
		StorageProtOverride: true,
		SuppressOnProt:      true,
		EDAT:                true,
	}, m.Features)
	assert.Equal(t, uint64(0x2000), m.Prefix[1])

	sys, err := m.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, sys.NumCPU())
	assert.Equal(t, uint64(2*1024*1024), sys.Storage().Size())
	assert.Equal(t, uint64(0x2000), sys.CPU(1).Prefix())
	assert.Equal(t, uint64(0), sys.CPU(0).Prefix())
}

func TestMemorySize(t *testing.T) {
	tests := []struct {
		value string
		size  int
		err   bool
	}{
		{"512", 512, false},
		{"64K", 64, false},
		{"16m", 16384, false},
		{"0", 0, true},
		{"M", 0, true},
		{"12G", 0, true},
	}
	for _, test := range tests {
		err := load(t, "MEMORY "+test.value)
		if (err != nil) != test.err {
			t.Errorf("MEMORY %s error got: %v", test.value, err)
			continue
		}
		if !test.err && Current().MemoryK != test.size {
			t.Errorf("MEMORY %s got: %d expected: %d", test.value, Current().MemoryK, test.size)
		}
	}
}

func TestConfigErrors(t *testing.T) {
	for _, cfg := range []string{
		"ARCH VAX",
		"CPUS 0",
		"CPUS 65",
		"FEATURE ASN",
		"PREFIX 1",
		"PREFIX 1 ADDR=1234",
		"PREFIX X ADDR=2000",
		"PREFIX 1 ADDR=ZZ",
	} {
		if err := load(t, cfg); err == nil {
			t.Errorf("Configuration accepted: %s", cfg)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	require.NoError(t, load(t, "ARCH S370\nMEMORY 32M\n"))
	_, err := Current().Build()
	assert.Error(t, err)

	require.NoError(t, load(t, "PREFIX 3 ADDR=2000\n"))
	_, err = Current().Build()
	assert.Error(t, err)

	require.NoError(t, load(t, "MEMORY 64K\nPREFIX 0 ADDR=10000\n"))
	_, err = Current().Build()
	assert.Error(t, err)

	require.NoError(t, load(t, "ARCH ESAME\nPREFIX 0 ADDR=3000\n"))
	_, err = Current().Build()
	assert.Error(t, err)

	// Prefix area is 8K on ESAME, 4K elsewhere.
	require.NoError(t, load(t, "ARCH ESAME\nMEMORY 60K\nPREFIX 0 ADDR=E000\n"))
	_, err = Current().Build()
	assert.Error(t, err)

	require.NoError(t, load(t, "ARCH ESA390\nMEMORY 60K\nPREFIX 0 ADDR=E000\n"))
	sys, err := Current().Build()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xe000), sys.CPU(0).Prefix())
}
