package ordasm

import "github.com/asmtools/hlasm-ordasm/section"

// dispatch routes one rebuilt statement to its directive handler. Unknown
// mnemonics are a no-op here: recognizing machine-instruction mnemonics
// (and diagnosing truly unknown ones) is instruction-encoding work, out
// of this component's scope — OPSYN's own E049/A246 checks are the only
// place mnemonic validity matters to ordinary-assembly semantics.
func (p *Processor) dispatch(stmt Statement) {
	switch stmt.Op {
	case "CSECT":
		p.dispatchSection(stmt, section.EXECUTABLE)
	case "DSECT":
		p.dispatchSection(stmt, section.DUMMY)
	case "RSECT":
		p.dispatchSection(stmt, section.READONLY)
	case "COM":
		p.dispatchSection(stmt, section.COMMON)
	case "LOCTR":
		p.dispatchLoctr(stmt)
	case "EQU":
		p.dispatchEqu(stmt)
	case "DC":
		p.dispatchDcDs(stmt, true)
	case "DS":
		p.dispatchDcDs(stmt, false)
	case "COPY":
		p.dispatchCopy(stmt)
	case "EXTRN":
		p.dispatchExtrn(stmt, section.EXTERNAL)
	case "WXTRN":
		p.dispatchExtrn(stmt, section.WEAK_EXTERNAL)
	case "ORG":
		p.dispatchOrg(stmt)
	case "OPSYN":
		p.dispatchOpsyn(stmt)
	case "USING":
		p.dispatchUsing(stmt)
	case "DROP":
		p.dispatchDrop(stmt)
	case "PUSH":
		p.dispatchPush(stmt)
	case "POP":
		p.dispatchPop(stmt)
	case "CCW", "CCW0", "CCW1":
		p.dispatchCcw(stmt)
	case "CNOP":
		p.dispatchCnop(stmt)
	case "CXD":
		p.dispatchCxd(stmt)
	case "START":
		p.dispatchStart(stmt)
	case "END":
		p.dispatchEnd(stmt)
	case "LTORG":
		p.dispatchLtorg(stmt)
	case "TITLE":
		p.dispatchTitle(stmt)
	case "ALIAS":
		p.dispatchAlias(stmt)
	case "MNOTE":
		p.dispatchMnote(stmt)
	case "AINSERT":
		p.dispatchAinsert(stmt)
	}
}

// directiveMnemonics is the universe of recognized assembler-directive
// operation codes, consulted only by OPSYN's target-validity check.
var directiveMnemonics = map[string]bool{
	"CSECT": true, "DSECT": true, "RSECT": true, "COM": true,
	"LOCTR": true, "EQU": true, "DC": true, "DS": true, "COPY": true,
	"EXTRN": true, "WXTRN": true, "ORG": true, "OPSYN": true,
	"USING": true, "DROP": true, "PUSH": true, "POP": true,
	"CCW": true, "CCW0": true, "CCW1": true, "CNOP": true, "CXD": true,
	"START": true, "END": true, "LTORG": true, "TITLE": true,
	"ALIAS": true, "MNOTE": true, "AINSERT": true,
}

func isDirectiveMnemonic(name string) bool { return directiveMnemonics[name] }
