/*
 * S390 - ART lookaside buffer
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
	"github.com/rcornwell/S390/util/debug"
)

// Return designator cached for access register, if any.
func (cpu *CPU) albLookup(arn int) (uint64, uint8, bool) {
	crn := cpu.aeaAR[arn]
	if crn < crALBOffset || crn == crASDReal {
		return 0, 0, false
	}
	return cpu.cr[crn], cpu.aleProt[arn], true
}

// Save designator resolved for access register.
func (cpu *CPU) albInsert(arn int, asd uint64, protect uint8) {
	crn := crALBOffset + arn
	cpu.cr[crn] = asd
	cpu.aeaAR[arn] = crn
	cpu.aeaCommon[crn] = (asd & cpu.ap.asdPrivate) == 0
	cpu.aleProt[arn] = protect & 2
	debug.Debugf("ALB", debugMsk, debugALB, "cpu %d alb %d asd %x prot %d", cpu.Num, arn, asd, protect&2)
}

// Drop every cached access register translation.
func (cpu *CPU) PurgeALB() {
	cpu.purgeALB()
	if cpu.guest != nil {
		cpu.guest.purgeALB()
	}
}

func (cpu *CPU) purgeALB() {
	debug.Debugf("ALB", debugMsk, debugPurge, "cpu %d purge alb", cpu.Num)
	for i := 1; i < 16; i++ {
		if cpu.aeaAR[i] >= crALBOffset && cpu.aeaAR[i] != crASDReal {
			cpu.aeaAR[i] = 0
		}
	}
}
