/*
 * S390 - Command completion.
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
	"sort"
	"strings"
	"unicode"
)

var pswOptions = []string{"ar", "dat", "home", "key=", "nodat", "primary", "problem", "secondary", "supervisor"}

// Return possible completions of command line.
func CompleteCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord()
	if line.isEOL() {
		if name == "" && strings.TrimSpace(commandLine) != "" {
			return nil
		}
		leading := commandLine[:len(commandLine)-len(name)]
		matches := []string{}
		for _, m := range cmdList {
			if strings.HasPrefix(m.Name, name) {
				matches = append(matches, leading+m.Name+" ")
			}
		}
		return matches
	}

	match := matchList(name)
	if len(match) != 1 || match[0].Complete == nil {
		return nil
	}
	if !unicode.IsSpace(rune(line.peek())) {
		return nil
	}
	return match[0].Complete(&line)
}

// Complete last word of line from list of words.
func (line *cmdLine) completeWord(words []string) []string {
	last := strings.LastIndexFunc(line.line, unicode.IsSpace)
	leading := line.line[:last+1]
	partial := strings.ToLower(line.line[last+1:])
	matches := []string{}
	for _, w := range words {
		if strings.HasPrefix(w, partial) {
			sep := " "
			if strings.HasSuffix(w, "=") {
				sep = ""
			}
			matches = append(matches, leading+w+sep)
		}
	}
	return matches
}

func allComplete(line *cmdLine) []string {
	return line.completeWord([]string{"all"})
}

func pswComplete(line *cmdLine) []string {
	return line.completeWord(pswOptions)
}

// Address spaces are only offered after the address.
func spaceComplete(line *cmdLine) []string {
	line.skipSpace()
	if _, err := line.getHex(); err != nil || line.isEOL() {
		return nil
	}
	names := make([]string, 0, len(spaceNames))
	for name := range spaceNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return line.completeWord(names)
}
