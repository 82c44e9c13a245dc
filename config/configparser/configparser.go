/*
 * S390 - Configuration file parser
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

package configparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"
)

// List of options to pass to create routine.
type Option struct {
	Name     string    // Name of option.
	EqualOpt string    // Value of string after =.
	Value    []*string // Values following option separated by comma.
}

// Current option line being parsed.
type optionLine struct {
	line string // Current option line.
	pos  int    // Current position in line.
}

/* Configuration file format:
 *
 * '#' indicates comment, rest of line is ignored.
 * <line> := <keyword> |
 *           <keyword> <whitespace> <value> |
 *           <keyword> <whitespace> <value> <whitespace> <options> |
 *           <keyword> <whitespace> <quoteopt>
 * <keyword> := <string>
 * <value> ::= <string> | <number><K|M>
 * <options> ::= *(<option> *(<whitespace>))
 * <option> ::= <opt> *(',' *(<whitespace>) <string>)
 * <opt> := <optvalue> | <string>
 * <optvalue> ::= <string> '=' <quoteopt>
 * <quoteopt> ::= <string> | '"' *(<letter> | <whitespace>) '"'
 * <string> ::= *(<letter> | <number>)
 */

const (
	TypeOption  = 1 + iota // Keyword followed by a single value.
	TypeOptions            // Keyword followed by value and list of options.
	TypeSwitch             // Keyword only used to set a flag.
	TypeFile               // Keyword followed by a file name.
)

// Keyword creation list.
type keywordDef struct {
	create func(string, []Option) error
	ty     int
}

var keywords = map[string]keywordDef{}

var lineNumber int

// Return type of keyword or 0 if not registered.
func getKeyword(key string) int {
	keyword, ok := keywords[key]
	if !ok {
		return 0
	}
	return keyword.ty
}

// Register should be called from init functions.
func RegisterKeyword(key string, ty int, fn func(string, []Option) error) {
	key = strings.ToUpper(key)
	slog.Debug("Registering keyword: " + key)
	keywords[key] = keywordDef{create: fn, ty: ty}
}

// Register keyword which takes one value.
func RegisterOption(key string, fn func(string, []Option) error) {
	RegisterKeyword(key, TypeOption, fn)
}

// Register keyword without arguments.
func RegisterSwitch(key string, fn func(string, []Option) error) {
	RegisterKeyword(key, TypeSwitch, fn)
}

// Register keyword naming a file.
func RegisterFile(key string, fn func(string, []Option) error) {
	RegisterKeyword(key, TypeFile, fn)
}

// Call create routine for keyword, checking it is of type ty.
func create(key string, ty int, value string, options []Option) error {
	keyword, ok := keywords[key]
	if !ok {
		return errors.New("Unknown keyword: " + key)
	}
	if keyword.ty != ty {
		return fmt.Errorf("keyword %s used incorrectly, line: %d", key, lineNumber)
	}
	return keyword.create(value, options)
}

// Load in a configuration file.
func LoadConfigFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	return LoadConfig(file)
}

// Process configuration from reader.
func LoadConfig(r io.Reader) error {
	lineNumber = 0
	reader := bufio.NewReader(r)
	for {
		var err error

		line := optionLine{}
		line.line, err = reader.ReadString('\n')
		lineNumber++
		if len(line.line) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		err = line.parseLine()
		if err != nil {
			return err
		}
	}
	return nil
}

// Parse one line from file.
func (line *optionLine) parseLine() error {
	key := line.parseKeyword()
	if key == "" {
		if !line.isEOL() {
			return fmt.Errorf("invalid keyword, line: %d", lineNumber)
		}
		return nil
	}
	switch getKeyword(key) {
	case TypeOption:
		first := line.parseFirst()
		line.skipSpace()
		if !line.isEOL() || first == "" {
			return fmt.Errorf("option: %s not followed by single value, line: %d", key, lineNumber)
		}
		return create(key, TypeOption, first, nil)

	case TypeOptions:
		first := line.parseFirst()
		if first == "" {
			return fmt.Errorf("option: %s not followed by value, line: %d", key, lineNumber)
		}
		options, err := line.parseOptions()
		if err != nil {
			return err
		}
		return create(key, TypeOptions, first, options)

	case TypeSwitch:
		line.skipSpace()
		if !line.isEOL() {
			return fmt.Errorf("switch option: %s followed by options, line: %d", key, lineNumber)
		}
		return create(key, TypeSwitch, "", nil)

	case TypeFile:
		line.skipSpace()
		name, ok := line.parseQuoteString()
		if !ok || name == "" {
			return fmt.Errorf("file: %s requires file name, line: %d", key, lineNumber)
		}
		line.skipSpace()
		if !line.isEOL() {
			return fmt.Errorf("file: %s followed by options, line: %d", key, lineNumber)
		}
		return create(key, TypeFile, name, nil)
	}
	return fmt.Errorf("no type: %s registered, line: %d", key, lineNumber)
}

// Skip forward over line until none whitespace character found.
func (line *optionLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

// Check if at end of line.
func (line *optionLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}
	return line.line[line.pos] == '#'
}

// Check if current character is letter or digit.
func (line *optionLine) isAlnum() bool {
	if line.isEOL() {
		return false
	}
	by := rune(line.line[line.pos])
	return unicode.IsLetter(by) || unicode.IsNumber(by)
}

// Collect run of letters and digits.
func (line *optionLine) getString() string {
	start := line.pos
	for line.isAlnum() {
		line.pos++
	}
	return line.line[start:line.pos]
}

// Parse keyword at start of line.
func (line *optionLine) parseKeyword() string {
	line.skipSpace()
	return strings.ToUpper(line.getString())
}

// Parse first option parameter.
func (line *optionLine) parseFirst() string {
	line.skipSpace()
	return line.getString()
}

// Parse string that is "string" or just string. Inside quotes ""
// gives a single quote.
func (line *optionLine) parseQuoteString() (string, bool) {
	if line.isEOL() {
		return "", true
	}
	if line.line[line.pos] != '"' {
		start := line.pos
		for !line.isEOL() {
			by := line.line[line.pos]
			if unicode.IsSpace(rune(by)) || by == ',' {
				break
			}
			line.pos++
		}
		return line.line[start:line.pos], true
	}

	value := ""
	line.pos++
	for line.pos < len(line.line) {
		by := line.line[line.pos]
		line.pos++
		if by != '"' {
			value += string([]byte{by})
			continue
		}
		if line.pos < len(line.line) && line.line[line.pos] == '"' {
			value += "\""
			line.pos++
			continue
		}
		// Hit end of string.
		return value, true
	}
	return value, false
}

// Parse options for a line.
func (line *optionLine) parseOption() (*Option, error) {
	// Skip leading space
	line.skipSpace()
	if line.isEOL() {
		return nil, nil
	}

	// First character must be alphabetic.
	if !unicode.IsLetter(rune(line.line[line.pos])) {
		return nil, fmt.Errorf("invalid option encountered line: %d [%d]", lineNumber, line.pos)
	}

	option := Option{Name: line.getString()}

	// Check if equals option.
	if !line.isEOL() && line.line[line.pos] == '=' {
		line.pos++
		v, ok := line.parseQuoteString()
		if !ok {
			return nil, fmt.Errorf("invalid quoted string line: %d [%d]", lineNumber, line.pos)
		}
		option.EqualOpt = v
	}

	// Skip any spaces.
	line.skipSpace()

	// Grab all , options
	for !line.isEOL() && line.line[line.pos] == ',' {
		line.pos++ // Skip comma
		// Skip space between , and next option
		line.skipSpace()
		v := line.getString()
		if v == "" {
			return nil, fmt.Errorf("missing value after comma line: %d [%d]", lineNumber, line.pos)
		}
		option.Value = append(option.Value, &v)
		// Skip any trailing spaces.
		line.skipSpace()
	}

	return &option, nil
}

// Collect all options for line.
func (line *optionLine) parseOptions() ([]Option, error) {
	options := []Option{}
	for {
		option, err := line.parseOption()
		if err != nil {
			return nil, err
		}
		if option == nil {
			break
		}
		options = append(options, *option)
	}
	return options, nil
}

// Return names of option and its comma values, upper cased.
func (option *Option) Names() []string {
	names := []string{strings.ToUpper(option.Name)}
	for _, v := range option.Value {
		names = append(names, strings.ToUpper(*v))
	}
	return names
}
