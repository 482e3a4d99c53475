package main

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/memscope/mem"
	"github.com/sarchlab/memscope/sim"
)

// parseSymbols reads a symbol table CSV: name, address, type. Types are
// int32, byte, ptr, or array:N. Addresses may be decimal or 0x-hex.
func parseSymbols(path string) ([]mem.Symbol, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	symbols := make([]mem.Symbol, 0, len(records))
	for i, rec := range records {
		if len(rec) != 3 {
			return nil, fmt.Errorf(
				"%s:%d: want name, address, type", path, i+1)
		}

		addr, err := parseAddress(rec[1])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
		}

		vt, err := parseType(rec[2])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
		}

		symbols = append(symbols, mem.Symbol{
			Name:    strings.TrimSpace(rec[0]),
			Address: addr,
			Type:    vt,
		})
	}

	return symbols, nil
}

// A traceWrite is one replayed memory mutation.
type traceWrite struct {
	time sim.VTimeInUs
	addr uint64
	data []byte
}

// parseTrace reads a write trace CSV: time_us, address, hex bytes.
func parseTrace(path string) ([]traceWrite, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	writes := make([]traceWrite, 0, len(records))
	for i, rec := range records {
		if len(rec) != 3 {
			return nil, fmt.Errorf(
				"%s:%d: want time_us, address, bytes", path, i+1)
		}

		t, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
		}

		addr, err := parseAddress(rec[1])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
		}

		data, err := hex.DecodeString(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
		}

		writes = append(writes, traceWrite{
			time: sim.VTimeInUs(t),
			addr: addr,
			data: data,
		})
	}

	return writes, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	return r.ReadAll()
}

func parseAddress(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}

	return strconv.ParseUint(s, 10, 64)
}

func parseType(s string) (mem.ValueType, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "int32":
		return mem.Int32, nil
	case s == "byte":
		return mem.Byte, nil
	case s == "ptr":
		return mem.Pointer, nil
	case strings.HasPrefix(s, "array:"):
		n, err := strconv.Atoi(s[len("array:"):])
		if err != nil {
			return mem.ValueType{}, err
		}
		return mem.ByteArray(n), nil
	default:
		return mem.ValueType{}, fmt.Errorf("unknown type %q", s)
	}
}
