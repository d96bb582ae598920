// m68k_optable.go - Opcode to descriptor table

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

package main

import (
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type decodeEntry struct {
	iib      *IIB
	variants [2]Handler
}

// DecodeTable maps every 16-bit opcode to its descriptor and handler pair.
// It is immutable once built and may be shared by any number of engines.
type DecodeTable struct {
	entries     [65536]decodeEntry
	descriptors []*IIB
	populated   int
}

// opcodeField is one variable sub-field of a pattern.
type opcodeField struct {
	pos, width int
}

func (f opcodeField) mask() uint16 {
	return uint16((1<<f.width)-1) << f.pos
}

// fields lists the variable sub-fields implied by the descriptor's operand
// kinds, lowest bit first.
func (d *IIB) fields() []opcodeField {
	var fs []opcodeField
	if w := d.Src.fieldWidth(); w > 0 {
		fs = append(fs, opcodeField{int(d.SrcPos), w})
	}
	if w := d.Dst.fieldWidth(); w > 0 {
		fs = append(fs, opcodeField{int(d.DstPos), w})
	}
	sort.Slice(fs, func(i, j int) bool { return fs[i].pos < fs[j].pos })
	return fs
}

// BuildDecodeTable builds the table from the embedded pattern set. Hosts
// call it once and hand the result to every engine they create.
func BuildDecodeTable() (*DecodeTable, error) {
	return buildDecodeTable(strings.NewReader(m68kPatternSource))
}

func buildDecodeTable(r io.Reader) (*DecodeTable, error) {
	descs, err := parsePatterns(r)
	if err != nil {
		return nil, errors.Wrap(err, "m68k pattern table")
	}

	t := &DecodeTable{descriptors: descs}
	enumerated := 0
	for _, d := range descs {
		pair, err := handlerPair(d)
		if err != nil {
			return nil, err
		}

		fields := d.fields()
		var toggled uint16
		width := 0
		for _, f := range fields {
			if toggled&f.mask() != 0 {
				return nil, newFatal(FatalTableMalformed, "%s: operand fields overlap", d)
			}
			toggled |= f.mask()
			width += f.width
		}
		if toggled != ^d.Mask {
			return nil, newFatal(FatalTableMalformed, "%s: variable bits %04X do not match don't-care bits %04X", d, toggled, ^d.Mask)
		}

		for n := 0; n < 1<<width; n++ {
			opcode := d.Bits
			shift := 0
			for _, f := range fields {
				v := (n >> shift) & (1<<f.width - 1)
				opcode |= uint16(v) << f.pos
				shift += f.width
			}
			if opcode&d.Mask != d.Bits {
				return nil, newFatal(FatalTableMalformed, "%s: opcode %04X escapes its pattern", d, opcode)
			}
			if !d.Matches(opcode) {
				continue
			}
			enumerated++
			slot := &t.entries[opcode]
			if slot.iib != nil {
				fe := newFatal(FatalTableConflict, "%s overlaps %s", d, slot.iib)
				fe.Opcode = opcode
				return nil, fe
			}
			slot.iib = d
			slot.variants = pair
			t.populated++
		}
	}

	if enumerated != t.populated {
		return nil, newFatal(FatalTableCount, "enumerated %d opcodes, populated %d", enumerated, t.populated)
	}
	return t, nil
}

// Lookup returns the descriptor for opcode, if one exists.
func (t *DecodeTable) Lookup(opcode uint16) (*IIB, bool) {
	d := t.entries[opcode].iib
	return d, d != nil
}

// Handler returns the requested variant for opcode.
func (t *DecodeTable) Handler(opcode uint16, v Variant) Handler {
	return t.entries[opcode].variants[v]
}

// Populated is the number of opcodes with a descriptor.
func (t *DecodeTable) Populated() int { return t.populated }

// Descriptors returns every expanded descriptor in table order.
func (t *DecodeTable) Descriptors() []*IIB { return t.descriptors }
