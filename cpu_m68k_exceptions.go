// cpu_m68k_exceptions.go - Autovectored interrupts and exception delivery

package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// RequestAutovector raises interrupt level 1-7. Lower requests never
// replace a higher pending one. Delivery happens at the next block
// boundary the mask and frozen state allow.
func (e *M68KEngine) RequestAutovector(level int) {
	if level < 1 || level > 7 {
		return
	}
	e.regs.Pending = max(e.regs.Pending, level)
}

// RequestException delivers vector immediately with returnPC as the
// stacked program counter. It is not masked and not gated by frozen.
func (e *M68KEngine) RequestException(vector int, returnPC uint32) {
	e.raiseException(vector, returnPC)
}

// enterException switches to the supervisor stack and pushes the return
// frame: PC first, then the SR as it was before the switch.
func (e *M68KEngine) enterException(returnPC uint32) {
	oldSR := e.regs.SR
	if !e.supervisor() {
		e.swapStacks()
	}
	e.regs.SR = (e.regs.SR | M68K_SR_S) &^ M68K_SR_T
	e.push32(returnPC)
	e.push16(oldSR)
}

func (e *M68KEngine) raiseException(vector int, returnPC uint32) {
	e.regs.Stopped = false
	e.enterException(returnPC)
	e.regs.PC = e.read32(uint32(vector) * 4)
	e.stats.Exceptions++
	if e.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		e.log.WithFields(logrus.Fields{
			"vector": vector,
			"return": fmt.Sprintf("0x%06X", returnPC),
			"target": fmt.Sprintf("0x%06X", e.regs.PC),
		}).Trace("exception")
	}
}

// checkPrivilege raises a privilege violation for the current instruction
// when not in supervisor mode.
func (e *M68KEngine) checkPrivilege() bool {
	if e.supervisor() {
		return true
	}
	e.raiseException(M68K_VEC_PRIVILEGE, e.regs.PC)
	return false
}

// serviceAutovector delivers the pending level if the mask allows it.
// Level 7 is never masked.
func (e *M68KEngine) serviceAutovector() bool {
	level := e.regs.Pending
	if level == 0 || e.regs.Frozen {
		return false
	}
	if level <= e.interruptMask() && level != 7 {
		return false
	}
	if e.regs.Stopped {
		e.regs.PC += 4
		e.regs.Stopped = false
	}
	e.enterException(e.regs.PC)
	e.regs.SR = e.regs.SR&^M68K_SR_IPL_MASK | uint16(level)<<M68K_SR_IPL_SHIFT
	e.regs.PC = e.read32(uint32(M68K_VEC_AUTOVECTOR+level) * 4)
	e.regs.Pending = 0
	e.stats.Interrupts++
	return true
}
