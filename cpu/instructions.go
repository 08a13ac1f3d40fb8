// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"strings"
	"sync"
)

// An opsym is an internal symbol used to associate an opcode's data
// with its instructions.
type opsym byte

const (
	symABA opsym = iota
	symABX
	symADCA
	symADCB
	symADDA
	symADDB
	symADDD
	symAIM
	symANDA
	symANDB
	symASL
	symASLA
	symASLB
	symASLD
	symASR
	symASRA
	symASRB
	symBCC
	symBCS
	symBEQ
	symBGE
	symBGT
	symBHI
	symBITA
	symBITB
	symBLE
	symBLS
	symBLT
	symBMI
	symBNE
	symBPL
	symBRA
	symBRN
	symBSR
	symBVC
	symBVS
	symCBA
	symCLC
	symCLI
	symCLR
	symCLRA
	symCLRB
	symCLV
	symCMPA
	symCMPB
	symCOM
	symCOMA
	symCOMB
	symCPX
	symDAA
	symDEC
	symDECA
	symDECB
	symDES
	symDEX
	symEIM
	symEORA
	symEORB
	symINC
	symINCA
	symINCB
	symINS
	symINX
	symJMP
	symJSR
	symLDAA
	symLDAB
	symLDD
	symLDS
	symLDX
	symLSR
	symLSRA
	symLSRB
	symLSRD
	symMUL
	symNEG
	symNEGA
	symNEGB
	symNOP
	symOIM
	symORAA
	symORAB
	symPSHA
	symPSHB
	symPSHX
	symPULA
	symPULB
	symPULX
	symROL
	symROLA
	symROLB
	symROR
	symRORA
	symRORB
	symRTI
	symRTS
	symSBA
	symSBCA
	symSBCB
	symSEC
	symSEI
	symSEV
	symSLP
	symSTAA
	symSTAB
	symSTD
	symSTS
	symSTX
	symSUBA
	symSUBB
	symSUBD
	symSWI
	symTAB
	symTAP
	symTBA
	symTIM
	symTPA
	symTST
	symTSTA
	symTSTB
	symTSX
	symTXS
	symWAI
	symXGDX
)

type instfunc func(c *CPU, inst *Instruction, operand []byte)

// Emulator implementation for each opcode
type opcodeImpl struct {
	sym  opsym
	name string
	fn   instfunc
}

var impl = []opcodeImpl{
	{symABA, "ABA", (*CPU).aba},
	{symABX, "ABX", (*CPU).abx},
	{symADCA, "ADCA", (*CPU).adca},
	{symADCB, "ADCB", (*CPU).adcb},
	{symADDA, "ADDA", (*CPU).adda},
	{symADDB, "ADDB", (*CPU).addb},
	{symADDD, "ADDD", (*CPU).addd},
	{symAIM, "AIM", (*CPU).aim},
	{symANDA, "ANDA", (*CPU).anda},
	{symANDB, "ANDB", (*CPU).andb},
	{symASL, "ASL", (*CPU).asl},
	{symASLA, "ASLA", (*CPU).asla},
	{symASLB, "ASLB", (*CPU).aslb},
	{symASLD, "ASLD", (*CPU).asld},
	{symASR, "ASR", (*CPU).asr},
	{symASRA, "ASRA", (*CPU).asra},
	{symASRB, "ASRB", (*CPU).asrb},
	{symBCC, "BCC", (*CPU).bcc},
	{symBCS, "BCS", (*CPU).bcs},
	{symBEQ, "BEQ", (*CPU).beq},
	{symBGE, "BGE", (*CPU).bge},
	{symBGT, "BGT", (*CPU).bgt},
	{symBHI, "BHI", (*CPU).bhi},
	{symBITA, "BITA", (*CPU).bita},
	{symBITB, "BITB", (*CPU).bitb},
	{symBLE, "BLE", (*CPU).ble},
	{symBLS, "BLS", (*CPU).bls},
	{symBLT, "BLT", (*CPU).blt},
	{symBMI, "BMI", (*CPU).bmi},
	{symBNE, "BNE", (*CPU).bne},
	{symBPL, "BPL", (*CPU).bpl},
	{symBRA, "BRA", (*CPU).bra},
	{symBRN, "BRN", (*CPU).brn},
	{symBSR, "BSR", (*CPU).bsr},
	{symBVC, "BVC", (*CPU).bvc},
	{symBVS, "BVS", (*CPU).bvs},
	{symCBA, "CBA", (*CPU).cba},
	{symCLC, "CLC", (*CPU).clc},
	{symCLI, "CLI", (*CPU).cli},
	{symCLR, "CLR", (*CPU).clr},
	{symCLRA, "CLRA", (*CPU).clra},
	{symCLRB, "CLRB", (*CPU).clrb},
	{symCLV, "CLV", (*CPU).clv},
	{symCMPA, "CMPA", (*CPU).cmpa},
	{symCMPB, "CMPB", (*CPU).cmpb},
	{symCOM, "COM", (*CPU).com},
	{symCOMA, "COMA", (*CPU).coma},
	{symCOMB, "COMB", (*CPU).comb},
	{symCPX, "CPX", (*CPU).cpx},
	{symDAA, "DAA", (*CPU).daa},
	{symDEC, "DEC", (*CPU).dec},
	{symDECA, "DECA", (*CPU).deca},
	{symDECB, "DECB", (*CPU).decb},
	{symDES, "DES", (*CPU).des},
	{symDEX, "DEX", (*CPU).dex},
	{symEIM, "EIM", (*CPU).eim},
	{symEORA, "EORA", (*CPU).eora},
	{symEORB, "EORB", (*CPU).eorb},
	{symINC, "INC", (*CPU).inc},
	{symINCA, "INCA", (*CPU).inca},
	{symINCB, "INCB", (*CPU).incb},
	{symINS, "INS", (*CPU).ins},
	{symINX, "INX", (*CPU).inx},
	{symJMP, "JMP", (*CPU).jmp},
	{symJSR, "JSR", (*CPU).jsr},
	{symLDAA, "LDAA", (*CPU).ldaa},
	{symLDAB, "LDAB", (*CPU).ldab},
	{symLDD, "LDD", (*CPU).ldd},
	{symLDS, "LDS", (*CPU).lds},
	{symLDX, "LDX", (*CPU).ldx},
	{symLSR, "LSR", (*CPU).lsr},
	{symLSRA, "LSRA", (*CPU).lsra},
	{symLSRB, "LSRB", (*CPU).lsrb},
	{symLSRD, "LSRD", (*CPU).lsrd},
	{symMUL, "MUL", (*CPU).mul},
	{symNEG, "NEG", (*CPU).neg},
	{symNEGA, "NEGA", (*CPU).nega},
	{symNEGB, "NEGB", (*CPU).negb},
	{symNOP, "NOP", (*CPU).nop},
	{symOIM, "OIM", (*CPU).oim},
	{symORAA, "ORAA", (*CPU).oraa},
	{symORAB, "ORAB", (*CPU).orab},
	{symPSHA, "PSHA", (*CPU).psha},
	{symPSHB, "PSHB", (*CPU).pshb},
	{symPSHX, "PSHX", (*CPU).pshx},
	{symPULA, "PULA", (*CPU).pula},
	{symPULB, "PULB", (*CPU).pulb},
	{symPULX, "PULX", (*CPU).pulx},
	{symROL, "ROL", (*CPU).rol},
	{symROLA, "ROLA", (*CPU).rola},
	{symROLB, "ROLB", (*CPU).rolb},
	{symROR, "ROR", (*CPU).ror},
	{symRORA, "RORA", (*CPU).rora},
	{symRORB, "RORB", (*CPU).rorb},
	{symRTI, "RTI", (*CPU).rti},
	{symRTS, "RTS", (*CPU).rts},
	{symSBA, "SBA", (*CPU).sba},
	{symSBCA, "SBCA", (*CPU).sbca},
	{symSBCB, "SBCB", (*CPU).sbcb},
	{symSEC, "SEC", (*CPU).sec},
	{symSEI, "SEI", (*CPU).sei},
	{symSEV, "SEV", (*CPU).sev},
	{symSLP, "SLP", (*CPU).slp},
	{symSTAA, "STAA", (*CPU).staa},
	{symSTAB, "STAB", (*CPU).stab},
	{symSTD, "STD", (*CPU).std},
	{symSTS, "STS", (*CPU).sts},
	{symSTX, "STX", (*CPU).stx},
	{symSUBA, "SUBA", (*CPU).suba},
	{symSUBB, "SUBB", (*CPU).subb},
	{symSUBD, "SUBD", (*CPU).subd},
	{symSWI, "SWI", (*CPU).swi},
	{symTAB, "TAB", (*CPU).tab},
	{symTAP, "TAP", (*CPU).tap},
	{symTBA, "TBA", (*CPU).tba},
	{symTIM, "TIM", (*CPU).tim},
	{symTPA, "TPA", (*CPU).tpa},
	{symTST, "TST", (*CPU).tst},
	{symTSTA, "TSTA", (*CPU).tsta},
	{symTSTB, "TSTB", (*CPU).tstb},
	{symTSX, "TSX", (*CPU).tsx},
	{symTXS, "TXS", (*CPU).txs},
	{symWAI, "WAI", (*CPU).wai},
	{symXGDX, "XGDX", (*CPU).xgdx},
}

// Mode describes a memory addressing mode.
type Mode byte

// All possible memory addressing modes
const (
	INH Mode = iota // Inherent (no operand)
	IMM             // Immediate, 8- or 16-bit
	DIR             // Direct page ($00-$FF)
	IDX             // Indexed, unsigned 8-bit offset from X
	EXT             // Extended 16-bit address
	REL             // Relative
	BDR             // Bit immediate, direct (#imm,dir)
	BIX             // Bit immediate, indexed (#imm,off,X)
)

// Opcode data for an (opcode, mode) pair
type opcodeData struct {
	sym    opsym // internal opcode symbol
	mode   Mode  // addressing mode
	opcode byte  // opcode hex value
	length byte  // length of opcode + operand in bytes
	cycles byte  // number of CPU cycles to execute command
}

// All valid (opcode, mode) pairs
var data = []opcodeData{
	{symNOP, INH, 0x01, 1, 1},

	{symLSRD, INH, 0x04, 1, 1},

	{symASLD, INH, 0x05, 1, 1},

	{symTAP, INH, 0x06, 1, 1},

	{symTPA, INH, 0x07, 1, 1},

	{symINX, INH, 0x08, 1, 1},

	{symDEX, INH, 0x09, 1, 1},

	{symCLV, INH, 0x0a, 1, 1},

	{symSEV, INH, 0x0b, 1, 1},

	{symCLC, INH, 0x0c, 1, 1},

	{symSEC, INH, 0x0d, 1, 1},

	{symCLI, INH, 0x0e, 1, 1},

	{symSEI, INH, 0x0f, 1, 1},

	{symSBA, INH, 0x10, 1, 1},

	{symCBA, INH, 0x11, 1, 1},

	{symTAB, INH, 0x16, 1, 1},

	{symTBA, INH, 0x17, 1, 1},

	{symXGDX, INH, 0x18, 1, 2},

	{symDAA, INH, 0x19, 1, 2},

	{symSLP, INH, 0x1a, 1, 4},

	{symABA, INH, 0x1b, 1, 1},

	{symTSX, INH, 0x30, 1, 1},

	{symINS, INH, 0x31, 1, 1},

	{symPULA, INH, 0x32, 1, 3},

	{symPULB, INH, 0x33, 1, 3},

	{symDES, INH, 0x34, 1, 1},

	{symTXS, INH, 0x35, 1, 1},

	{symPSHA, INH, 0x36, 1, 4},

	{symPSHB, INH, 0x37, 1, 4},

	{symPULX, INH, 0x38, 1, 4},

	{symRTS, INH, 0x39, 1, 5},

	{symABX, INH, 0x3a, 1, 1},

	{symRTI, INH, 0x3b, 1, 10},

	{symPSHX, INH, 0x3c, 1, 5},

	{symMUL, INH, 0x3d, 1, 7},

	{symWAI, INH, 0x3e, 1, 9},

	{symSWI, INH, 0x3f, 1, 12},

	{symBRA, REL, 0x20, 2, 3},

	{symBRN, REL, 0x21, 2, 3},

	{symBHI, REL, 0x22, 2, 3},

	{symBLS, REL, 0x23, 2, 3},

	{symBCC, REL, 0x24, 2, 3},

	{symBCS, REL, 0x25, 2, 3},

	{symBNE, REL, 0x26, 2, 3},

	{symBEQ, REL, 0x27, 2, 3},

	{symBVC, REL, 0x28, 2, 3},

	{symBVS, REL, 0x29, 2, 3},

	{symBPL, REL, 0x2a, 2, 3},

	{symBMI, REL, 0x2b, 2, 3},

	{symBGE, REL, 0x2c, 2, 3},

	{symBLT, REL, 0x2d, 2, 3},

	{symBGT, REL, 0x2e, 2, 3},

	{symBLE, REL, 0x2f, 2, 3},

	{symBSR, REL, 0x8d, 2, 5},

	{symNEGA, INH, 0x40, 1, 1},

	{symNEGB, INH, 0x50, 1, 1},

	{symCOMA, INH, 0x43, 1, 1},

	{symCOMB, INH, 0x53, 1, 1},

	{symLSRA, INH, 0x44, 1, 1},

	{symLSRB, INH, 0x54, 1, 1},

	{symRORA, INH, 0x46, 1, 1},

	{symRORB, INH, 0x56, 1, 1},

	{symASRA, INH, 0x47, 1, 1},

	{symASRB, INH, 0x57, 1, 1},

	{symASLA, INH, 0x48, 1, 1},

	{symASLB, INH, 0x58, 1, 1},

	{symROLA, INH, 0x49, 1, 1},

	{symROLB, INH, 0x59, 1, 1},

	{symDECA, INH, 0x4a, 1, 1},

	{symDECB, INH, 0x5a, 1, 1},

	{symINCA, INH, 0x4c, 1, 1},

	{symINCB, INH, 0x5c, 1, 1},

	{symTSTA, INH, 0x4d, 1, 1},

	{symTSTB, INH, 0x5d, 1, 1},

	{symCLRA, INH, 0x4f, 1, 1},

	{symCLRB, INH, 0x5f, 1, 1},

	{symNEG, IDX, 0x60, 2, 6},
	{symNEG, EXT, 0x70, 3, 6},

	{symCOM, IDX, 0x63, 2, 6},
	{symCOM, EXT, 0x73, 3, 6},

	{symLSR, IDX, 0x64, 2, 6},
	{symLSR, EXT, 0x74, 3, 6},

	{symROR, IDX, 0x66, 2, 6},
	{symROR, EXT, 0x76, 3, 6},

	{symASR, IDX, 0x67, 2, 6},
	{symASR, EXT, 0x77, 3, 6},

	{symASL, IDX, 0x68, 2, 6},
	{symASL, EXT, 0x78, 3, 6},

	{symROL, IDX, 0x69, 2, 6},
	{symROL, EXT, 0x79, 3, 6},

	{symDEC, IDX, 0x6a, 2, 6},
	{symDEC, EXT, 0x7a, 3, 6},

	{symINC, IDX, 0x6c, 2, 6},
	{symINC, EXT, 0x7c, 3, 6},

	{symTST, IDX, 0x6d, 2, 4},
	{symTST, EXT, 0x7d, 3, 4},

	{symJMP, IDX, 0x6e, 2, 3},
	{symJMP, EXT, 0x7e, 3, 3},

	{symCLR, IDX, 0x6f, 2, 5},
	{symCLR, EXT, 0x7f, 3, 5},

	{symAIM, BIX, 0x61, 3, 7},
	{symAIM, BDR, 0x71, 3, 6},

	{symOIM, BIX, 0x62, 3, 7},
	{symOIM, BDR, 0x72, 3, 6},

	{symEIM, BIX, 0x65, 3, 7},
	{symEIM, BDR, 0x75, 3, 6},

	{symTIM, BIX, 0x6b, 3, 5},
	{symTIM, BDR, 0x7b, 3, 4},

	{symSUBA, IMM, 0x80, 2, 2},
	{symSUBA, DIR, 0x90, 2, 3},
	{symSUBA, IDX, 0xa0, 2, 4},
	{symSUBA, EXT, 0xb0, 3, 4},

	{symCMPA, IMM, 0x81, 2, 2},
	{symCMPA, DIR, 0x91, 2, 3},
	{symCMPA, IDX, 0xa1, 2, 4},
	{symCMPA, EXT, 0xb1, 3, 4},

	{symSBCA, IMM, 0x82, 2, 2},
	{symSBCA, DIR, 0x92, 2, 3},
	{symSBCA, IDX, 0xa2, 2, 4},
	{symSBCA, EXT, 0xb2, 3, 4},

	{symANDA, IMM, 0x84, 2, 2},
	{symANDA, DIR, 0x94, 2, 3},
	{symANDA, IDX, 0xa4, 2, 4},
	{symANDA, EXT, 0xb4, 3, 4},

	{symBITA, IMM, 0x85, 2, 2},
	{symBITA, DIR, 0x95, 2, 3},
	{symBITA, IDX, 0xa5, 2, 4},
	{symBITA, EXT, 0xb5, 3, 4},

	{symLDAA, IMM, 0x86, 2, 2},
	{symLDAA, DIR, 0x96, 2, 3},
	{symLDAA, IDX, 0xa6, 2, 4},
	{symLDAA, EXT, 0xb6, 3, 4},

	{symEORA, IMM, 0x88, 2, 2},
	{symEORA, DIR, 0x98, 2, 3},
	{symEORA, IDX, 0xa8, 2, 4},
	{symEORA, EXT, 0xb8, 3, 4},

	{symADCA, IMM, 0x89, 2, 2},
	{symADCA, DIR, 0x99, 2, 3},
	{symADCA, IDX, 0xa9, 2, 4},
	{symADCA, EXT, 0xb9, 3, 4},

	{symORAA, IMM, 0x8a, 2, 2},
	{symORAA, DIR, 0x9a, 2, 3},
	{symORAA, IDX, 0xaa, 2, 4},
	{symORAA, EXT, 0xba, 3, 4},

	{symADDA, IMM, 0x8b, 2, 2},
	{symADDA, DIR, 0x9b, 2, 3},
	{symADDA, IDX, 0xab, 2, 4},
	{symADDA, EXT, 0xbb, 3, 4},

	{symSUBB, IMM, 0xc0, 2, 2},
	{symSUBB, DIR, 0xd0, 2, 3},
	{symSUBB, IDX, 0xe0, 2, 4},
	{symSUBB, EXT, 0xf0, 3, 4},

	{symCMPB, IMM, 0xc1, 2, 2},
	{symCMPB, DIR, 0xd1, 2, 3},
	{symCMPB, IDX, 0xe1, 2, 4},
	{symCMPB, EXT, 0xf1, 3, 4},

	{symSBCB, IMM, 0xc2, 2, 2},
	{symSBCB, DIR, 0xd2, 2, 3},
	{symSBCB, IDX, 0xe2, 2, 4},
	{symSBCB, EXT, 0xf2, 3, 4},

	{symANDB, IMM, 0xc4, 2, 2},
	{symANDB, DIR, 0xd4, 2, 3},
	{symANDB, IDX, 0xe4, 2, 4},
	{symANDB, EXT, 0xf4, 3, 4},

	{symBITB, IMM, 0xc5, 2, 2},
	{symBITB, DIR, 0xd5, 2, 3},
	{symBITB, IDX, 0xe5, 2, 4},
	{symBITB, EXT, 0xf5, 3, 4},

	{symLDAB, IMM, 0xc6, 2, 2},
	{symLDAB, DIR, 0xd6, 2, 3},
	{symLDAB, IDX, 0xe6, 2, 4},
	{symLDAB, EXT, 0xf6, 3, 4},

	{symEORB, IMM, 0xc8, 2, 2},
	{symEORB, DIR, 0xd8, 2, 3},
	{symEORB, IDX, 0xe8, 2, 4},
	{symEORB, EXT, 0xf8, 3, 4},

	{symADCB, IMM, 0xc9, 2, 2},
	{symADCB, DIR, 0xd9, 2, 3},
	{symADCB, IDX, 0xe9, 2, 4},
	{symADCB, EXT, 0xf9, 3, 4},

	{symORAB, IMM, 0xca, 2, 2},
	{symORAB, DIR, 0xda, 2, 3},
	{symORAB, IDX, 0xea, 2, 4},
	{symORAB, EXT, 0xfa, 3, 4},

	{symADDB, IMM, 0xcb, 2, 2},
	{symADDB, DIR, 0xdb, 2, 3},
	{symADDB, IDX, 0xeb, 2, 4},
	{symADDB, EXT, 0xfb, 3, 4},

	{symSTAA, DIR, 0x97, 2, 3},
	{symSTAA, IDX, 0xa7, 2, 4},
	{symSTAA, EXT, 0xb7, 3, 4},

	{symSTAB, DIR, 0xd7, 2, 3},
	{symSTAB, IDX, 0xe7, 2, 4},
	{symSTAB, EXT, 0xf7, 3, 4},

	{symSUBD, IMM, 0x83, 3, 3},
	{symSUBD, DIR, 0x93, 2, 4},
	{symSUBD, IDX, 0xa3, 2, 5},
	{symSUBD, EXT, 0xb3, 3, 5},

	{symCPX, IMM, 0x8c, 3, 3},
	{symCPX, DIR, 0x9c, 2, 4},
	{symCPX, IDX, 0xac, 2, 5},
	{symCPX, EXT, 0xbc, 3, 5},

	{symLDS, IMM, 0x8e, 3, 3},
	{symLDS, DIR, 0x9e, 2, 4},
	{symLDS, IDX, 0xae, 2, 5},
	{symLDS, EXT, 0xbe, 3, 5},

	{symADDD, IMM, 0xc3, 3, 3},
	{symADDD, DIR, 0xd3, 2, 4},
	{symADDD, IDX, 0xe3, 2, 5},
	{symADDD, EXT, 0xf3, 3, 5},

	{symLDD, IMM, 0xcc, 3, 3},
	{symLDD, DIR, 0xdc, 2, 4},
	{symLDD, IDX, 0xec, 2, 5},
	{symLDD, EXT, 0xfc, 3, 5},

	{symLDX, IMM, 0xce, 3, 3},
	{symLDX, DIR, 0xde, 2, 4},
	{symLDX, IDX, 0xee, 2, 5},
	{symLDX, EXT, 0xfe, 3, 5},

	{symSTS, DIR, 0x9f, 2, 4},
	{symSTS, IDX, 0xaf, 2, 5},
	{symSTS, EXT, 0xbf, 3, 5},

	{symSTD, DIR, 0xdd, 2, 4},
	{symSTD, IDX, 0xed, 2, 5},
	{symSTD, EXT, 0xfd, 3, 5},

	{symSTX, DIR, 0xdf, 2, 4},
	{symSTX, IDX, 0xef, 2, 5},
	{symSTX, EXT, 0xff, 3, 5},

	{symJSR, DIR, 0x9d, 2, 5},
	{symJSR, IDX, 0xad, 2, 5},
	{symJSR, EXT, 0xbd, 3, 6},
}

// An Instruction describes a CPU instruction, including its name,
// its addressing mode, its opcode value, its operand size, and its CPU cycle
// cost.
type Instruction struct {
	Name   string   // all-caps name of the instruction
	Mode   Mode     // addressing mode
	Opcode byte     // hexadecimal opcode value
	Length byte     // combined size of opcode and operand, in bytes
	Cycles byte     // number of CPU cycles to execute the instruction
	fn     instfunc // emulator implementation of the function
}

// Illegal returns true if the opcode has no HD6301 implementation.
func (inst *Instruction) Illegal() bool {
	return inst.fn == nil
}

// An InstructionSet defines the set of all possible instructions that
// can run on the emulated CPU.
type InstructionSet struct {
	instructions [256]Instruction
	variants     map[string][]*Instruction // variants of each instruction
}

// Lookup retrieves a CPU instruction corresponding to the requested opcode.
func (s *InstructionSet) Lookup(opcode byte) *Instruction {
	return &s.instructions[opcode]
}

// GetInstructions returns all CPU instructions whose name matches the
// provided string.
func (s *InstructionSet) GetInstructions(name string) []*Instruction {
	return s.variants[strings.ToUpper(name)]
}

func newInstructionSet() *InstructionSet {
	set := &InstructionSet{variants: make(map[string][]*Instruction)}

	symToImpl := make(map[opsym]*opcodeImpl, len(impl))
	for i := range impl {
		symToImpl[impl[i].sym] = &impl[i]
	}

	for _, d := range data {
		impl := symToImpl[d.sym]
		inst := &set.instructions[d.opcode]
		inst.Name = impl.name
		inst.Mode = d.mode
		inst.Opcode = d.opcode
		inst.Length = d.length
		inst.Cycles = d.cycles
		inst.fn = impl.fn
		set.variants[inst.Name] = append(set.variants[inst.Name], inst)
	}

	// Opcodes left over are illegal on the HD6301. Executing one of them
	// crashes the CPU.
	for i := range set.instructions {
		inst := &set.instructions[i]
		if inst.Name == "" {
			inst.Name = "???"
			inst.Mode = INH
			inst.Opcode = byte(i)
			inst.Length = 1
			inst.Cycles = 1
		}
	}
	return set
}

var (
	instructionSet     *InstructionSet
	instructionSetOnce sync.Once
)

// GetInstructionSet returns the HD6301 instruction set.
func GetInstructionSet() *InstructionSet {
	instructionSetOnce.Do(func() {
		instructionSet = newInstructionSet()
	})
	return instructionSet
}
