package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarchlab/memscope/mem"
	"github.com/sarchlab/memscope/sim"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input string
		want  uint64
	}{
		{"256", 256},
		{"0x100", 0x100},
		{"0X1f", 0x1F},
		{" 42 ", 42},
	}

	for _, test := range tests {
		got, err := parseAddress(test.input)
		require.NoError(t, err)
		assert.Equal(t, test.want, got)
	}

	_, err := parseAddress("nope")
	assert.Error(t, err)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input string
		want  mem.ValueType
	}{
		{"int32", mem.Int32},
		{"byte", mem.Byte},
		{"ptr", mem.Pointer},
		{"array:16", mem.ByteArray(16)},
	}

	for _, test := range tests {
		got, err := parseType(test.input)
		require.NoError(t, err)
		assert.Equal(t, test.want, got)
	}

	_, err := parseType("float")
	assert.Error(t, err)

	_, err = parseType("array:x")
	assert.Error(t, err)
}

func TestParseSymbols(t *testing.T) {
	path := writeTempFile(t,
		"counter,0x100,int32\nflag,260,byte\nbuf,0x108,array:4\n")

	symbols, err := parseSymbols(path)
	require.NoError(t, err)

	assert.Equal(t, []mem.Symbol{
		{Name: "counter", Address: 0x100, Type: mem.Int32},
		{Name: "flag", Address: 260, Type: mem.Byte},
		{Name: "buf", Address: 0x108, Type: mem.ByteArray(4)},
	}, symbols)
}

func TestParseSymbolsRejectsBadRow(t *testing.T) {
	path := writeTempFile(t, "counter,0x100,int32,extra\n")

	_, err := parseSymbols(path)
	assert.Error(t, err)
}

func TestParseTrace(t *testing.T) {
	path := writeTempFile(t,
		"1000,0x100,01020304\n2000,0x104,ff\n")

	writes, err := parseTrace(path)
	require.NoError(t, err)

	assert.Equal(t, []traceWrite{
		{time: sim.VTimeInUs(1000), addr: 0x100,
			data: []byte{0x01, 0x02, 0x03, 0x04}},
		{time: sim.VTimeInUs(2000), addr: 0x104, data: []byte{0xFF}},
	}, writes)
}

func TestParseTraceRejectsBadHex(t *testing.T) {
	path := writeTempFile(t, "1000,0x100,zz\n")

	_, err := parseTrace(path)
	assert.Error(t, err)
}
