// m68k_patterns.go - Compact 68000 pattern table parser

package main

import (
	_ "embed"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//go:embed m68k_patterns.def
var m68kPatternSource string

// eaMode is one addressing mode of the mode/reg effective address field.
// reg is -1 when the register bits remain a variable field.
type eaMode struct {
	mode, reg int
}

var eaModeOrder = []string{"Dn", "An", "Aind", "Ainc", "Adec", "Adis", "Aidx", "AbsW", "AbsL", "Pdis", "Pidx", "Imm"}

var eaModes = map[string]eaMode{
	"Dn":   {0, -1},
	"An":   {1, -1},
	"Aind": {2, -1},
	"Ainc": {3, -1},
	"Adec": {4, -1},
	"Adis": {5, -1},
	"Aidx": {6, -1},
	"AbsW": {7, 0},
	"AbsL": {7, 1},
	"Pdis": {7, 2},
	"Pidx": {7, 3},
	"Imm":  {7, 4},
}

var eaClasses = map[string][]string{
	"all":  {"Dn", "An", "Aind", "Ainc", "Adec", "Adis", "Aidx", "AbsW", "AbsL", "Pdis", "Pidx", "Imm"},
	"data": {"Dn", "Aind", "Ainc", "Adec", "Adis", "Aidx", "AbsW", "AbsL", "Pdis", "Pidx", "Imm"},
	"mem":  {"Aind", "Ainc", "Adec", "Adis", "Aidx", "AbsW", "AbsL", "Pdis", "Pidx", "Imm"},
	"ctrl": {"Aind", "Adis", "Aidx", "AbsW", "AbsL", "Pdis", "Pidx"},
	"alt":  {"Dn", "An", "Aind", "Ainc", "Adec", "Adis", "Aidx", "AbsW", "AbsL"},
	"dalt": {"Dn", "Aind", "Ainc", "Adec", "Adis", "Aidx", "AbsW", "AbsL"},
	"malt": {"Aind", "Ainc", "Adec", "Adis", "Aidx", "AbsW", "AbsL"},
	"calt": {"Aind", "Adis", "Aidx", "AbsW", "AbsL"},
}

var operandNames = map[string]OperandKind{
	"-":    OpNone,
	"Dn":   OpDreg,
	"An":   OpAreg,
	"Aind": OpAind,
	"Ainc": OpAinc,
	"Adec": OpAdec,
	"Adis": OpAdis,
	"#b":   OpImmB,
	"#w":   OpImmW,
	"#l":   OpImmL,
	"#3":   OpImm3,
	"#4":   OpImm4,
	"#8":   OpImm8,
	"#8s":  OpImm8s,
	"#12":  OpImm12,
}

func modeKind(m eaMode, size Size) OperandKind {
	if m.mode < 7 {
		return OpDreg + OperandKind(m.mode)
	}
	switch m.reg {
	case 0:
		return OpAbsW
	case 1:
		return OpAbsL
	case 2:
		return OpPdis
	case 3:
		return OpPidx
	}
	return immKind(size)
}

func immKind(size Size) OperandKind {
	switch size {
	case SizeByte:
		return OpImmB
	case SizeLong:
		return OpImmL
	}
	return OpImmW
}

// eaCycles is the effective address calculation cost added to an
// instruction's base cost.
func eaCycles(k OperandKind, size Size) int {
	long := 0
	if size == SizeLong {
		long = 4
	}
	switch k {
	case OpAind, OpAinc:
		return 4 + long
	case OpAdec:
		return 6 + long
	case OpAdis, OpAbsW, OpPdis:
		return 8 + long
	case OpAidx, OpPidx:
		return 10 + long
	case OpAbsL:
		return 12 + long
	case OpImmB, OpImmW:
		return 4
	case OpImmL:
		return 8
	}
	return 0
}

type patternRow struct {
	line     int
	mnemonic Mnemonic
	sizes    []Size
	pattern  []byte
	src, dst string
	used     string
	set      FlagSet
	cycles   [2]int
	end      bool
	priv     bool
	trap     bool
	nz       bool
	branch   bool
	conds    []Condition
}

func malformed(line int, format string, args ...any) *FatalError {
	fe := newFatal(FatalTableMalformed, format, args...)
	fe.Detail = "line " + strconv.Itoa(line) + ": " + fe.Detail
	return fe
}

// parsePatterns reads the compact table and expands every row into the
// concrete descriptors the builder enumerates.
func parsePatterns(r io.Reader) ([]*IIB, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	var out []*IIB
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading pattern table")
		}
		line, _ := cr.FieldPos(0)
		row, err := parseRow(line, rec)
		if err != nil {
			return nil, err
		}
		descs, err := row.expand()
		if err != nil {
			return nil, err
		}
		out = append(out, descs...)
	}
	return out, nil
}

func parseRow(line int, rec []string) (*patternRow, error) {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	if len(rec) != 8 && len(rec) != 9 {
		return nil, malformed(line, "want 8 or 9 fields, got %d", len(rec))
	}
	row := &patternRow{line: line, src: rec[3], dst: rec[4], used: rec[5]}

	mn, ok := mnemonicByName(rec[0])
	if !ok {
		return nil, malformed(line, "unknown mnemonic %q", rec[0])
	}
	row.mnemonic = mn

	if rec[1] == "-" {
		row.sizes = []Size{SizeNone}
	} else {
		for _, c := range rec[1] {
			switch c {
			case 'B':
				row.sizes = append(row.sizes, SizeByte)
			case 'W':
				row.sizes = append(row.sizes, SizeWord)
			case 'L':
				row.sizes = append(row.sizes, SizeLong)
			default:
				return nil, malformed(line, "bad size %q", rec[1])
			}
		}
	}

	p := strings.ReplaceAll(rec[2], "_", "")
	if len(p) != 16 {
		return nil, malformed(line, "pattern %q is not 16 bits", rec[2])
	}
	row.pattern = []byte(p)

	set, err := parseFlags(rec[6])
	if err != nil {
		return nil, malformed(line, "%v", err)
	}
	row.set = set

	base, long, found := strings.Cut(rec[7], "/")
	if row.cycles[0], err = strconv.Atoi(base); err != nil {
		return nil, malformed(line, "bad cycles %q", rec[7])
	}
	row.cycles[1] = row.cycles[0]
	if found {
		if row.cycles[1], err = strconv.Atoi(long); err != nil {
			return nil, malformed(line, "bad cycles %q", rec[7])
		}
	}

	row.conds = []Condition{CondT}
	if len(rec) == 9 {
		for _, a := range strings.Fields(rec[8]) {
			switch a {
			case "end":
				row.end = true
			case "priv":
				row.priv = true
			case "trap":
				row.trap = true
			case "nz":
				row.nz = true
			case "branch":
				row.branch = true
			case "cc=all":
				row.conds = conditionRange(CondT, CondLE)
			case "cc=bcc":
				row.conds = conditionRange(CondHI, CondLE)
			default:
				return nil, malformed(line, "unknown attribute %q", a)
			}
		}
	}
	return row, nil
}

func conditionRange(from, to Condition) []Condition {
	var cs []Condition
	for c := from; c <= to; c++ {
		cs = append(cs, c)
	}
	return cs
}

func parseFlags(s string) (FlagSet, error) {
	if s == "-" {
		return FlagsNone, nil
	}
	var f FlagSet
	for _, c := range s {
		switch c {
		case 'X':
			f |= FlagX
		case 'N':
			f |= FlagN
		case 'Z':
			f |= FlagZ
		case 'V':
			f |= FlagV
		case 'C':
			f |= FlagC
		default:
			return 0, errors.Errorf("bad flag set %q", s)
		}
	}
	return f, nil
}

// letterRun finds the contiguous run of letter in a pattern and returns the
// bit number of its lowest bit and its width.
func letterRun(p []byte, letter byte) (lo, width int, err error) {
	first, last := -1, -1
	for i, c := range p {
		if c != letter {
			continue
		}
		if first < 0 {
			first = i
		} else if last != i-1 {
			return 0, 0, errors.Errorf("letter %c is not contiguous", letter)
		}
		last = i
	}
	if first < 0 {
		return -1, 0, nil
	}
	return 15 - last, last - first + 1, nil
}

func setField(p []byte, lo, width, value int) {
	for b := 0; b < width; b++ {
		c := byte('0')
		if value&(1<<b) != 0 {
			c = '1'
		}
		p[15-(lo+b)] = c
	}
}

// eaSet evaluates a class expression such as "calt+Adec" or "mem-Imm".
func eaSet(expr string) ([]eaMode, error) {
	in := map[string]bool{}
	op := byte('+')
	for len(expr) > 0 {
		i := strings.IndexAny(expr, "+-")
		tok := expr
		if i >= 0 {
			tok = expr[:i]
		}
		names, ok := eaClasses[tok]
		if !ok {
			if _, single := eaModes[tok]; !single {
				return nil, errors.Errorf("unknown addressing class %q", tok)
			}
			names = []string{tok}
		}
		for _, n := range names {
			in[n] = op == '+'
		}
		if i < 0 {
			break
		}
		op = expr[i]
		expr = expr[i+1:]
	}
	var modes []eaMode
	for _, n := range eaModeOrder {
		if in[n] {
			modes = append(modes, eaModes[n])
		}
	}
	return modes, nil
}

// operandChoice is one concrete way to fill an operand slot.
type operandChoice struct {
	kind  OperandKind
	pos   int
	imm   uint32
	apply func(p []byte)
}

// operandChoices resolves one operand column against its pattern letters.
func (r *patternRow) operandChoices(p []byte, col string, size Size, eaLetter, eaSwapped, regLetter byte) ([]operandChoice, error) {
	eaLo, eaWidth, err := letterRun(p, eaLetter)
	if err != nil {
		return nil, err
	}
	if eaSwapped != 0 && eaLo < 0 {
		if eaLo, eaWidth, err = letterRun(p, eaSwapped); err != nil {
			return nil, err
		}
		if eaLo >= 0 {
			eaLetter = eaSwapped
		}
	}
	if eaLo >= 0 {
		if eaWidth != 6 {
			return nil, errors.Errorf("effective address field %c is %d bits", eaLetter, eaWidth)
		}
		modes, err := eaSet(col)
		if err != nil {
			return nil, err
		}
		regLo, modeLo := eaLo, eaLo+3
		if eaLetter == 'D' {
			regLo, modeLo = eaLo+3, eaLo
		}
		choices := make([]operandChoice, 0, len(modes))
		for _, m := range modes {
			choices = append(choices, operandChoice{
				kind: modeKind(m, size),
				pos:  regLo,
				apply: func(p []byte) {
					setField(p, modeLo, 3, m.mode)
					if m.reg >= 0 {
						setField(p, regLo, 3, m.reg)
					}
				},
			})
		}
		return choices, nil
	}

	c := operandChoice{}
	switch {
	case strings.HasPrefix(col, "="):
		v, err := strconv.ParseUint(col[1:], 0, 32)
		if err != nil {
			return nil, errors.Errorf("bad payload %q", col)
		}
		c.kind, c.imm = OpImmS, uint32(v)
	case col == "#s":
		c.kind = immKind(size)
	default:
		k, ok := operandNames[col]
		if !ok {
			return nil, errors.Errorf("unknown operand %q", col)
		}
		c.kind = k
	}

	if w := c.kind.fieldWidth(); w > 0 {
		letter := regLetter
		if !c.kind.hasRegField() {
			letter = 'i'
		}
		lo, width, err := letterRun(p, letter)
		if err != nil {
			return nil, err
		}
		if lo < 0 || width != w {
			return nil, errors.Errorf("operand %s needs a %d-bit %c field", col, w, letter)
		}
		c.pos = lo
	}
	return []operandChoice{c}, nil
}

func (r *patternRow) expand() ([]*IIB, error) {
	var out []*IIB
	for _, size := range r.sizes {
		p := append([]byte(nil), r.pattern...)
		if lo, width, err := letterRun(p, 'z'); err != nil {
			return nil, malformed(r.line, "%v", err)
		} else if lo >= 0 {
			if width != 2 || size == SizeNone {
				return nil, malformed(r.line, "size field needs two bits and a size")
			}
			setField(p, lo, 2, int(size)-1)
		}

		for _, cond := range r.conds {
			q := append([]byte(nil), p...)
			if lo, width, err := letterRun(q, 'c'); err != nil {
				return nil, malformed(r.line, "%v", err)
			} else if lo >= 0 && width == 4 {
				setField(q, lo, 4, int(cond))
			}

			srcs, err := r.operandChoices(q, r.src, size, 's', 0, 'r')
			if err != nil {
				return nil, malformed(r.line, "source: %v", err)
			}
			dsts, err := r.operandChoices(q, r.dst, size, 'd', 'D', 'R')
			if err != nil {
				return nil, malformed(r.line, "destination: %v", err)
			}
			for _, s := range srcs {
				for _, d := range dsts {
					iib, err := r.descriptor(q, size, cond, s, d)
					if err != nil {
						return nil, err
					}
					out = append(out, iib)
				}
			}
		}
	}
	return out, nil
}

func (r *patternRow) descriptor(p []byte, size Size, cond Condition, s, d operandChoice) (*IIB, error) {
	q := append([]byte(nil), p...)
	if s.apply != nil {
		s.apply(q)
	}
	if d.apply != nil {
		d.apply(q)
	}

	iib := &IIB{
		Mnemonic:   r.mnemonic,
		Size:       size,
		Src:        s.kind,
		Dst:        d.kind,
		SrcPos:     uint8(s.pos),
		DstPos:     uint8(d.pos),
		ImmValue:   s.imm,
		Cond:       cond,
		EndBlock:   r.end || r.priv || r.trap,
		Priv:       r.priv,
		ImmNotZero: r.nz,
		Branch:     r.branch,
		Set:        r.set,
	}
	for i, c := range q {
		bit := uint16(1) << (15 - i)
		switch c {
		case '0':
			iib.Mask |= bit
		case '1':
			iib.Mask |= bit
			iib.Bits |= bit
		}
	}

	switch r.used {
	case "cc":
		iib.Used = cond.flagsRead()
	default:
		used, err := parseFlags(r.used)
		if err != nil {
			return nil, malformed(r.line, "%v", err)
		}
		iib.Used = used
	}
	if r.priv || r.trap {
		iib.Used = FlagsAll
	}

	iib.WordLen = 1 + s.kind.extWords(size) + d.kind.extWords(size)
	base := r.cycles[0]
	if size == SizeLong {
		base = r.cycles[1]
	}
	iib.Cycles = base + eaCycles(s.kind, size) + eaCycles(d.kind, size)
	return iib, nil
}
