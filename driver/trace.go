package driver

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/memory"
)

// defaultWriteValue is written by a write line that carries no data.
const defaultWriteValue memory.Word = 1

// ParseTrace reads a trace. Each line is "op address [data]", where op is
// r, read, w or write, the address is hexadecimal and the data is decimal.
// Empty lines, lines starting with '#', lines with fewer than two fields and
// lines with an unknown op are skipped.
func ParseTrace(r io.Reader) ([]Op, error) {
	var ops []Op

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		op, ok, err := parseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, lineNo, err)
		}

		if ok {
			ops = append(ops, op)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ops, nil
}

func parseLine(line string) (op Op, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return op, false, nil
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return op, false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "r", "read":
		op.Kind = OpRead
	case "w", "write":
		op.Kind = OpWrite
		op.Value = defaultWriteValue
	default:
		return op, false, nil
	}

	op.Address, err = parseAddress(fields[1])
	if err != nil {
		return op, false, err
	}

	if op.Kind == OpWrite && len(fields) > 2 {
		op.Value, err = strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return op, false, fmt.Errorf("bad data %q", fields[2])
		}
	}

	return op, true, nil
}

func parseAddress(s string) (uint64, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	addr, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("bad address %q", s)
	}

	return addr, nil
}

// TraceResult summarizes a trace run.
type TraceResult struct {
	Ops    int
	Reads  int
	Writes int
}

// RunTrace parses the whole trace and then replays it against the accessor.
// Nothing is replayed if the trace does not parse.
func RunTrace(a Accessor, r io.Reader) (TraceResult, error) {
	ops, err := ParseTrace(r)
	if err != nil {
		return TraceResult{}, err
	}

	result := TraceResult{Ops: len(ops)}
	for _, op := range ops {
		if op.Kind == OpWrite {
			result.Writes++
		} else {
			result.Reads++
		}
	}

	return result, Replay(a, ops)
}
