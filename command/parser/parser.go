/*
 * S390 - Command parser.
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

package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	core "github.com/rcornwell/S390/emu/core"
)

type cmd struct {
	Name     string // Command name.
	Min      int    // Minimum match size.
	Process  func(*cmdLine, *core.Complex) (bool, error)
	Complete func(*cmdLine) []string
}

type cmdLine struct {
	line string // Current command.
	pos  int    // Position in line.
}

// Where command output goes.
var Output io.Writer = os.Stdout

// Processor commands are directed to.
var current int

var errExtra = errors.New("extra text at end of command")

// Execute the command line given.
func ProcessCommand(commandLine string, c *core.Complex) (bool, error) {
	line := cmdLine{line: commandLine}
	command := line.getWord()
	if command == "" {
		if line.isEOL() {
			return false, nil
		}
		return false, errors.New("command must start with a letter")
	}

	match := matchList(command)
	if len(match) == 0 {
		return false, errors.New("command not found: " + command)
	}

	if len(match) > 1 {
		return false, errors.New("unique command not found: " + command)
	}

	return match[0].Process(&line, c)
}

// Check if command matches at least to minimum length.
func matchCommand(match cmd, command string) bool {
	if len(command) > len(match.Name) {
		return false
	}
	if !strings.HasPrefix(match.Name, command) {
		return false
	}
	return len(command) >= match.Min
}

// Check if command matches one of the commands.
func matchList(command string) []cmd {
	// If command empty just return.
	if command == "" {
		return []cmd{}
	}

	var match []cmd
	for _, m := range cmdList {
		// Exact match wins over abbreviations.
		if m.Name == command {
			return []cmd{m}
		}
		if matchCommand(m, command) {
			match = append(match, m)
		}
	}
	return match
}

// Skip forward over line until none whitespace character found.
func (line *cmdLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

// Check if at end of line.
func (line *cmdLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}

	return line.line[line.pos] == '#'
}

// Return current character, 0 at end of line.
func (line *cmdLine) peek() byte {
	if line.isEOL() {
		return 0
	}
	return line.line[line.pos]
}

// Make sure nothing is left on the line.
func (line *cmdLine) checkEOL() error {
	line.skipSpace()
	if !line.isEOL() {
		return errExtra
	}
	return nil
}

// Get a word made of letters and digits. Must start with a letter.
func (line *cmdLine) getWord() string {
	line.skipSpace()
	pos := line.pos
	if !unicode.IsLetter(rune(line.peek())) {
		return ""
	}
	for !line.isEOL() {
		by := rune(line.line[line.pos])
		if !unicode.IsLetter(by) && !unicode.IsDigit(by) {
			break
		}
		line.pos++
	}
	return strings.ToLower(line.line[pos:line.pos])
}

// Peek at the next word without moving.
func (line *cmdLine) peekWord() string {
	pos := line.pos
	word := line.getWord()
	line.pos = pos
	return word
}

// Get a hex number.
func (line *cmdLine) getHex() (uint64, error) {
	line.skipSpace()
	if line.isEOL() {
		return 0, errors.New("hex number expected")
	}

	var value uint64
	digits := 0
	for !line.isEOL() {
		by := line.line[line.pos]
		if unicode.IsSpace(rune(by)) {
			break
		}
		digit := strings.IndexByte(hexDigits, byte(unicode.ToLower(rune(by))))
		if digit < 0 {
			return 0, fmt.Errorf("invalid hex digit: %c", by)
		}
		digits++
		if digits > 16 {
			return 0, errors.New("hex number too large")
		}
		value = (value << 4) | uint64(digit)
		line.pos++
	}
	return value, nil
}

// Get a decimal number.
func (line *cmdLine) getNumber() (int, error) {
	line.skipSpace()
	if line.isEOL() {
		return 0, errors.New("number expected")
	}

	value := 0
	for !line.isEOL() {
		by := line.line[line.pos]
		if unicode.IsSpace(rune(by)) {
			break
		}
		if by < '0' || by > '9' {
			return 0, fmt.Errorf("invalid number: %c", by)
		}
		value = value*10 + int(by-'0')
		if value > 0xffff {
			return 0, errors.New("number too large")
		}
		line.pos++
	}
	return value, nil
}

// Get a register number 0 to 15.
func (line *cmdLine) getRegister() (int, error) {
	n, err := line.getNumber()
	if err != nil {
		return 0, err
	}
	if n > 15 {
		return 0, fmt.Errorf("register number out of range: %d", n)
	}
	return n, nil
}

// Expect an equal sign.
func (line *cmdLine) getEqual() error {
	line.skipSpace()
	if line.peek() != '=' {
		return errors.New("= expected")
	}
	line.pos++
	return nil
}

var hexDigits = "0123456789abcdef"

// Write output line.
func printf(format string, args ...any) {
	fmt.Fprintf(Output, format, args...)
}
