package driver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/memory/cache"
)

const menuText = `
===== Cache Simulator =====
1. Configure cache
2. Run trace file
3. Random access test
4. Print statistics
5. Exit
`

// A Menu is a line-oriented interactive front end of a Session.
type Menu struct {
	session *Session
	in      *bufio.Scanner
	out     io.Writer
}

// NewMenu creates a menu that reads choices from in and writes prompts and
// results to out.
func NewMenu(session *Session, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		session: session,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// errEndOfInput stops the menu when the input is exhausted.
var errEndOfInput = errors.New("end of input")

// Run shows the menu until the user exits or the input ends.
func (m *Menu) Run() error {
	m.printf("Welcome to the cache simulator\n")

	for {
		m.printf("%s", menuText)

		choice, err := m.prompt("Select an option (1-5): ")
		if err != nil {
			return m.endOrErr(err)
		}

		switch choice {
		case "1":
			err = m.configure()
		case "2":
			err = m.runTrace()
		case "3":
			err = m.runRandom()
		case "4":
			err = m.printStats()
		case "5":
			m.printf("Bye.\n")
			return nil
		default:
			m.printf("Invalid choice, please try again\n")
		}

		if err != nil {
			return m.endOrErr(err)
		}
	}
}

func (m *Menu) endOrErr(err error) error {
	if errors.Is(err, errEndOfInput) {
		return nil
	}

	return err
}

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

func (m *Menu) prompt(text string) (string, error) {
	m.printf("%s", text)

	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}

		return "", errEndOfInput
	}

	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) promptUint(text string) (uint64, error) {
	s, err := m.prompt(text)
	if err != nil {
		return 0, err
	}

	return strconv.ParseUint(s, 10, 64)
}

func (m *Menu) configure() error {
	var config cache.Config

	fields := []struct {
		text  string
		value *uint64
	}{
		{"Cache size (words): ", &config.CacheSize},
		{"Block size (words): ", &config.BlockSize},
		{"Associativity: ", &config.Associativity},
	}

	for _, f := range fields {
		v, err := m.promptUint(f.text)
		if err != nil {
			return m.reportInputErr(err)
		}

		*f.value = v
	}

	policy, err := m.prompt("Replacement policy (FIFO/LRU/RANDOM): ")
	if err != nil {
		return m.reportInputErr(err)
	}

	config.Policy = cache.ReplacementPolicy(strings.ToUpper(policy))

	bits, err := m.promptUint("Address bits: ")
	if err != nil {
		return m.reportInputErr(err)
	}

	config.AddressBits = uint(bits)

	if err := m.session.Configure(config); err != nil {
		m.printf("Invalid parameters: %v\n", err)
		return nil
	}

	m.printf("Cache configured with %d sets\n", config.NumSets())

	return nil
}

// reportInputErr prints a parsing error and lets the menu continue. Input
// exhaustion and read errors are passed through.
func (m *Menu) reportInputErr(err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		m.printf("Invalid parameters: %v\n", err)
		return nil
	}

	return err
}

func (m *Menu) requireConfigured() bool {
	if !m.session.IsConfigured() {
		m.printf("Please configure the cache first\n")
		return false
	}

	return true
}

func (m *Menu) runTrace() error {
	if !m.requireConfigured() {
		return nil
	}

	path, err := m.prompt("Trace file path: ")
	if err != nil {
		return err
	}

	result, err := m.session.RunTraceFile(path)
	if err != nil {
		m.printf("Error while running trace: %v\n", err)
		return nil
	}

	m.printf("Trace %s done (%d operations)\n", path, result.Ops)

	return m.printStats()
}

func (m *Menu) runRandom() error {
	if !m.requireConfigured() {
		return nil
	}

	count, err := m.promptUint("Number of accesses: ")
	if err != nil {
		return m.reportInputErr(err)
	}

	ratioText, err := m.prompt("Read ratio (0-1): ")
	if err != nil {
		return err
	}

	ratio, err := strconv.ParseFloat(ratioText, 64)
	if err != nil {
		return m.reportInputErr(err)
	}

	workload := RandomWorkload{Count: int(count), ReadRatio: ratio}
	if err := m.session.RunRandom(workload); err != nil {
		m.printf("Invalid parameters: %v\n", err)
		return nil
	}

	m.printf("Random access test done (%d operations)\n", count)

	return m.printStats()
}

func (m *Menu) printStats() error {
	if !m.requireConfigured() {
		return nil
	}

	return m.session.Report(m.out)
}
