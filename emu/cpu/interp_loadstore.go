/*
   mipscore load/store instruction handlers.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/
package cpu

// loadBytes translates vaddr for a load of n bytes and reads them from
// physical memory, raising AdEL/TLBL/DBE as appropriate. The returned
// code is ircNone on success, otherwise the exception already raised
// through s.raise.
func (s *State) loadBytes(vaddr uint64, n uint32, align uint32) ([]byte, irc) {
	if align > 1 && vaddr&uint64(align-1) != 0 {
		return nil, s.raise(ExcAdEL, excContext{vaddr: vaddr})
	}
	paddr, ok := s.Translate(vaddr, IntentLoad, 0)
	if !ok {
		return nil, ircFromLastRaise(s)
	}
	buf := make([]byte, n)
	if !s.mem.ReadBytes(uint32(paddr), buf) {
		return nil, s.raise(ExcDBE, excContext{vaddr: vaddr})
	}
	return buf, ircNone
}

func (s *State) storeBytes(vaddr uint64, buf []byte, align uint32) irc {
	if align > 1 && vaddr&uint64(align-1) != 0 {
		return s.raise(ExcAdES, excContext{vaddr: vaddr})
	}
	paddr, ok := s.Translate(vaddr, IntentStore, 0)
	if !ok {
		return ircFromLastRaise(s)
	}
	if !s.mem.WriteBytes(uint32(paddr), buf) {
		return s.raise(ExcDBE, excContext{vaddr: vaddr})
	}
	if s.rmwValid && vaddr < s.rmwAddr+uint64(s.rmwLen) && s.rmwAddr < vaddr+uint64(len(buf)) {
		s.rmwValid = false
	}
	return ircNone
}

func (s *State) beWord(b []byte) uint32 {
	if s.bigEndian {
		return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	}
	return uint32(b[3])<<24 | uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
}

func (s *State) putWord(b []byte, v uint32) {
	if s.bigEndian {
		b[0], b[1], b[2], b[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
	} else {
		b[3], b[2], b[1], b[0] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
	}
}

func (s *State) beDword(b []byte) uint64 {
	if s.bigEndian {
		return uint64(s.beWord(b[0:4]))<<32 | uint64(s.beWord(b[4:8]))
	}
	return uint64(s.beWord(b[4:8]))<<32 | uint64(s.beWord(b[0:4]))
}

func (s *State) putDword(b []byte, v uint64) {
	if s.bigEndian {
		s.putWord(b[0:4], uint32(v>>32))
		s.putWord(b[4:8], uint32(v))
	} else {
		s.putWord(b[4:8], uint32(v>>32))
		s.putWord(b[0:4], uint32(v))
	}
}

func effAddr(s *State, f instrFields) uint64 {
	return s.ReadGPR(uint(f.rs)) + signExt16(f.imm16)
}

func opLB(s *State, instr uint32) irc {
	f := decodeFields(instr)
	buf, code := s.loadBytes(effAddr(s, f), 1, 0)
	if code != ircNone {
		return code
	}
	s.WriteGPR(uint(f.rt), uint64(int64(int8(buf[0]))))
	return ircNone
}

func opLBU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	buf, code := s.loadBytes(effAddr(s, f), 1, 0)
	if code != ircNone {
		return code
	}
	s.WriteGPR(uint(f.rt), uint64(buf[0]))
	return ircNone
}

func opLH(s *State, instr uint32) irc {
	f := decodeFields(instr)
	buf, code := s.loadBytes(effAddr(s, f), 2, 2)
	if code != ircNone {
		return code
	}
	var v uint16
	if s.bigEndian {
		v = uint16(buf[0])<<8 | uint16(buf[1])
	} else {
		v = uint16(buf[1])<<8 | uint16(buf[0])
	}
	s.WriteGPR(uint(f.rt), uint64(int64(int16(v))))
	return ircNone
}

func opLHU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	buf, code := s.loadBytes(effAddr(s, f), 2, 2)
	if code != ircNone {
		return code
	}
	var v uint16
	if s.bigEndian {
		v = uint16(buf[0])<<8 | uint16(buf[1])
	} else {
		v = uint16(buf[1])<<8 | uint16(buf[0])
	}
	s.WriteGPR(uint(f.rt), uint64(v))
	return ircNone
}

func opLW(s *State, instr uint32) irc {
	f := decodeFields(instr)
	buf, code := s.loadBytes(effAddr(s, f), 4, 4)
	if code != ircNone {
		return code
	}
	s.WriteGPR(uint(f.rt), sext32(s.beWord(buf)))
	return ircNone
}

func opLWU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	buf, code := s.loadBytes(effAddr(s, f), 4, 4)
	if code != ircNone {
		return code
	}
	s.WriteGPR(uint(f.rt), uint64(s.beWord(buf)))
	return ircNone
}

func opLD(s *State, instr uint32) irc {
	f := decodeFields(instr)
	buf, code := s.loadBytes(effAddr(s, f), 8, 8)
	if code != ircNone {
		return code
	}
	s.WriteGPR(uint(f.rt), s.beDword(buf))
	return ircNone
}

func opSB(s *State, instr uint32) irc {
	f := decodeFields(instr)
	return s.storeBytes(effAddr(s, f), []byte{byte(s.ReadGPR(uint(f.rt)))}, 0)
}

func opSH(s *State, instr uint32) irc {
	f := decodeFields(instr)
	v := uint16(s.ReadGPR(uint(f.rt)))
	var buf [2]byte
	if s.bigEndian {
		buf[0], buf[1] = byte(v>>8), byte(v)
	} else {
		buf[1], buf[0] = byte(v>>8), byte(v)
	}
	return s.storeBytes(effAddr(s, f), buf[:], 2)
}

func opSW(s *State, instr uint32) irc {
	f := decodeFields(instr)
	var buf [4]byte
	s.putWord(buf[:], uint32(s.ReadGPR(uint(f.rt))))
	return s.storeBytes(effAddr(s, f), buf[:], 4)
}

func opSD(s *State, instr uint32) irc {
	f := decodeFields(instr)
	var buf [8]byte
	s.putDword(buf[:], s.ReadGPR(uint(f.rt)))
	return s.storeBytes(effAddr(s, f), buf[:], 8)
}

// unalignedMerge implements the LWL/LWR/LDL/LDR/SWL/SWR/SDL/SDR family:
// the memory operand is whatever bytes of the aligned word/dword overlap
// the unaligned address, merged with the register's other bytes. LWL/SWL
// takes the bytes from the start of the aligned unit through the
// addressed byte; LWR/SWR takes the bytes from the addressed byte through
// the end. This is purely an address-range split — the same "offset 3,
// then offset 0" instruction pair reconstructs a full word regardless of
// CPU endianness, because the byte range is expressed in address order
// (matching loadBytes/putWord) and only the final numeric interpretation
// (beWord/beDword) is endian-aware (spec.md §4.D item 5).
func (s *State) loadPartial(vaddr uint64, size uint32, left bool, reg uint32) irc {
	aligned := vaddr &^ uint64(size-1)
	offset := uint32(vaddr) & (size - 1)
	buf, code := s.loadBytes(aligned, size, 0)
	if code != ircNone {
		return code
	}
	result := make([]byte, size)
	cur := s.ReadGPR(uint(reg))
	if size == 4 {
		s.putWord(result, uint32(cur))
	} else {
		s.putDword(result, cur)
	}
	if left {
		copy(result[0:offset+1], buf[0:offset+1])
	} else {
		copy(result[offset:size], buf[offset:size])
	}
	if size == 4 {
		s.WriteGPR(uint(reg), sext32(s.beWord(result)))
	} else {
		s.WriteGPR(uint(reg), s.beDword(result))
	}
	return ircNone
}

func opLWL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	return s.loadPartial(effAddr(s, f), 4, true, f.rt)
}

func opLWR(s *State, instr uint32) irc {
	f := decodeFields(instr)
	return s.loadPartial(effAddr(s, f), 4, false, f.rt)
}

func opLDL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	return s.loadPartial(effAddr(s, f), 8, true, f.rt)
}

func opLDR(s *State, instr uint32) irc {
	f := decodeFields(instr)
	return s.loadPartial(effAddr(s, f), 8, false, f.rt)
}

func (s *State) storePartial(vaddr uint64, size uint32, left bool, reg uint32) irc {
	aligned := vaddr &^ uint64(size-1)
	offset := uint32(vaddr) & (size - 1)
	old, code := s.loadBytes(aligned, size, 0)
	if code != ircNone {
		return code
	}
	regBytes := make([]byte, size)
	rv := s.ReadGPR(uint(reg))
	if size == 4 {
		s.putWord(regBytes, uint32(rv))
	} else {
		s.putDword(regBytes, rv)
	}
	if left {
		copy(old[0:offset+1], regBytes[0:offset+1])
	} else {
		copy(old[offset:size], regBytes[offset:size])
	}
	return s.storeBytes(aligned, old, 0)
}

func opSWL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	return s.storePartial(effAddr(s, f), 4, true, f.rt)
}

func opSWR(s *State, instr uint32) irc {
	f := decodeFields(instr)
	return s.storePartial(effAddr(s, f), 4, false, f.rt)
}

func opSDL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	return s.storePartial(effAddr(s, f), 8, true, f.rt)
}

func opSDR(s *State, instr uint32) irc {
	f := decodeFields(instr)
	return s.storePartial(effAddr(s, f), 8, false, f.rt)
}

// Load-linked/store-conditional. The "link" is a single reservation
// covering one aligned word/dword (spec.md §4.D). rmwValid is cleared by
// a store from this CPU that overlaps the reservation (storeBytes), by
// any exception (raise), by ERET, and by a completed SC/SCD. Stores from
// other CPUs and TLB/ASID changes do not clear it.
func opLL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	vaddr := effAddr(s, f)
	buf, code := s.loadBytes(vaddr, 4, 4)
	if code != ircNone {
		return code
	}
	s.WriteGPR(uint(f.rt), sext32(s.beWord(buf)))
	s.rmwValid = true
	s.rmwAddr = vaddr
	s.rmwLen = 4
	return ircNone
}

func opLLD(s *State, instr uint32) irc {
	f := decodeFields(instr)
	vaddr := effAddr(s, f)
	buf, code := s.loadBytes(vaddr, 8, 8)
	if code != ircNone {
		return code
	}
	s.WriteGPR(uint(f.rt), s.beDword(buf))
	s.rmwValid = true
	s.rmwAddr = vaddr
	s.rmwLen = 8
	return ircNone
}

func opSC(s *State, instr uint32) irc {
	f := decodeFields(instr)
	vaddr := effAddr(s, f)
	if !s.rmwValid || s.rmwAddr != vaddr || s.rmwLen != 4 {
		s.WriteGPR(uint(f.rt), 0)
		return ircNone
	}
	var buf [4]byte
	s.putWord(buf[:], uint32(s.ReadGPR(uint(f.rt))))
	code := s.storeBytes(vaddr, buf[:], 4)
	if code != ircNone {
		return code
	}
	s.rmwValid = false
	s.WriteGPR(uint(f.rt), 1)
	return ircNone
}

func opSCD(s *State, instr uint32) irc {
	f := decodeFields(instr)
	vaddr := effAddr(s, f)
	if !s.rmwValid || s.rmwAddr != vaddr || s.rmwLen != 8 {
		s.WriteGPR(uint(f.rt), 0)
		return ircNone
	}
	var buf [8]byte
	s.putDword(buf[:], s.ReadGPR(uint(f.rt)))
	code := s.storeBytes(vaddr, buf[:], 8)
	if code != ircNone {
		return code
	}
	s.rmwValid = false
	s.WriteGPR(uint(f.rt), 1)
	return ircNone
}
