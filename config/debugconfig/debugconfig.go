/*
 * S390 - Debug option configuration
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

package debugconfig

import (
	"errors"
	"strings"

	config "github.com/rcornwell/S390/config/configparser"
	"github.com/rcornwell/S390/emu/cpu"
)

// register debug keyword on initialize.
func init() {
	config.RegisterKeyword("DEBUG", config.TypeOptions, setDebug)
}

// DEBUG <unit> <option>[, <option>...].
func setDebug(unit string, options []config.Option) error {
	switch strings.ToUpper(unit) {
	case "CPU":
		// Process CPU debug options
		for _, opt := range options {
			for _, name := range opt.Names() {
				if err := cpu.Debug(name); err != nil {
					return err
				}
			}
		}
	default:
		return errors.New("debug option invalid: " + unit)
	}
	return nil
}
