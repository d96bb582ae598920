package main

import (
	"fmt"

	"github.com/pkg/errors"
)

// FatalKind classifies unrecoverable engine conditions.
type FatalKind int

const (
	FatalTableMalformed FatalKind = iota
	FatalTableConflict
	FatalTableCount
	FatalIllegalOpcode
	FatalRunawayDecode
	FatalBankResolve
)

var fatalKindNames = [...]string{
	FatalTableMalformed: "malformed opcode pattern",
	FatalTableConflict:  "opcode pattern conflict",
	FatalTableCount:     "opcode count mismatch",
	FatalIllegalOpcode:  "illegal opcode",
	FatalRunawayDecode:  "runaway block decode",
	FatalBankResolve:    "bank resolve failure",
}

func (k FatalKind) String() string {
	if int(k) < len(fatalKindNames) {
		return fatalKindNames[k]
	}
	return fmt.Sprintf("FatalKind(%d)", int(k))
}

// FatalError is returned when the engine cannot continue. The host decides
// whether to abort the process or surface it to a script.
type FatalError struct {
	Kind   FatalKind
	Addr   uint32
	Opcode uint16
	Bank   uint32
	Detail string
}

func (e *FatalError) Error() string {
	switch e.Kind {
	case FatalIllegalOpcode:
		return fmt.Sprintf("m68k: %s 0x%04X at 0x%06X", e.Kind, e.Opcode, e.Addr)
	case FatalRunawayDecode:
		return fmt.Sprintf("m68k: %s from 0x%06X (bank 0x%06X): %s", e.Kind, e.Addr, e.Bank, e.Detail)
	case FatalBankResolve:
		return fmt.Sprintf("m68k: %s at 0x%06X: %s", e.Kind, e.Addr, e.Detail)
	case FatalTableConflict:
		return fmt.Sprintf("m68k: %s at 0x%04X: %s", e.Kind, e.Opcode, e.Detail)
	}
	return fmt.Sprintf("m68k: %s: %s", e.Kind, e.Detail)
}

func newFatal(kind FatalKind, format string, args ...any) *FatalError {
	return &FatalError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err carries a *FatalError, returning it if so.
func IsFatal(err error) (*FatalError, bool) {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
