package garil

import (
	"encoding/binary"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/ril-go/garil/internal/bo"
)

// maxParcelLen bounds any single read/write length. RIL lengths travel the
// wire as signed 32-bit integers, so that is the practical ceiling for any
// buffer this library will ever see; guarding against larger values catches
// corrupt length fields before they reach an allocation.
const maxParcelLen = math.MaxInt32 - 3

// Parcel is a length-prefixed, 4-byte-padded binary buffer with a typed
// read/write cursor, used to encode and decode RIL message payloads.
//
// Once malformed is set by a failed read or write, every subsequent
// operation on the parcel is a no-op that returns a zero value; the flag
// never clears. Callers must check IsMalformed after a decoding sequence
// before trusting any value extracted from it.
type Parcel struct {
	buf       []byte
	position  int
	malformed bool
}

// NewParcel returns an empty parcel ready for writing.
func NewParcel() *Parcel {
	return &Parcel{}
}

// NewParcelFromBytes returns a parcel wrapping buf for reading. buf is
// adopted by reference, not copied.
func NewParcelFromBytes(buf []byte) *Parcel {
	return &Parcel{buf: buf}
}

func pad4(n int) int { return (n + 3) &^ 3 }

// Size returns the total number of bytes in the parcel's buffer.
func (p *Parcel) Size() int { return len(p.buf) }

// Available returns the number of unread bytes remaining.
func (p *Parcel) Available() int { return len(p.buf) - p.position }

// Position returns the current cursor offset.
func (p *Parcel) Position() int { return p.position }

// IsMalformed reports whether this parcel has hit a decoding or bounds
// error. The flag is sticky.
func (p *Parcel) IsMalformed() bool { return p.malformed }

// ReadInplace returns a borrowed view of n bytes at the current position
// and advances the cursor by pad4(n). The returned slice aliases the
// parcel's buffer and must not be retained across any write to the parcel.
func (p *Parcel) ReadInplace(n int) []byte {
	if p.malformed {
		return nil
	}
	if n < 0 || n > maxParcelLen {
		p.malformed = true
		return nil
	}
	padded := pad4(n)
	if p.Available() < padded {
		p.malformed = true
		return nil
	}
	out := p.buf[p.position : p.position+n : p.position+n]
	p.position += padded
	return out
}

// Read copies n bytes from the current position into out and advances the
// cursor by pad4(n). It copies nothing and marks the parcel malformed if
// fewer than pad4(n) bytes remain.
func (p *Parcel) Read(out []byte, n int) int {
	if p.malformed {
		return 0
	}
	src := p.ReadInplace(n)
	if src == nil {
		return 0
	}
	return copy(out, src)
}

// ReadDup is like Read but returns a freshly allocated copy, or nil if n is
// zero or the parcel is malformed.
func (p *Parcel) ReadDup(n int) []byte {
	if p.malformed || n == 0 {
		return nil
	}
	src := p.ReadInplace(n)
	if src == nil {
		return nil
	}
	dup := make([]byte, n)
	copy(dup, src)
	return dup
}

// WriteInplace grows the buffer by pad4(n), advances the cursor, and
// returns a borrowed mutable view of the n data bytes for the caller to
// fill. Trailing pad bytes are left zeroed.
func (p *Parcel) WriteInplace(n int) []byte {
	if p.malformed {
		return nil
	}
	if n < 0 || n > maxParcelLen {
		p.malformed = true
		return nil
	}
	padded := pad4(n)
	start := len(p.buf)
	p.buf = append(p.buf, make([]byte, padded)...)
	p.position += padded
	return p.buf[start : start+n : start+n]
}

// Write appends n bytes from src plus pad4(n)-n zero bytes, advancing the
// cursor. n=0 is a legal no-op.
func (p *Parcel) Write(src []byte, n int) {
	if p.malformed || n == 0 {
		return
	}
	dst := p.WriteInplace(n)
	if dst == nil {
		return
	}
	copy(dst, src[:n])
}

// ReadByte reads a value encoded on the wire as a full 32-bit LE integer
// and returns its low 8 bits. The conversion to byte truncates without
// sign-extension, which is exactly the masking the wire format requires.
func (p *Parcel) ReadByte() byte {
	return byte(p.ReadInt32())
}

// WriteByte writes v encoded as a full 32-bit LE integer.
func (p *Parcel) WriteByte(v byte) {
	p.WriteInt32(int32(v))
}

// ReadInt32 reads a 4-byte little-endian signed integer.
func (p *Parcel) ReadInt32() int32 {
	if p.malformed {
		return 0
	}
	b := p.ReadInplace(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// WriteInt32 writes v as a 4-byte little-endian signed integer.
func (p *Parcel) WriteInt32(v int32) {
	if p.malformed {
		return
	}
	b := p.WriteInplace(4)
	if b == nil {
		return
	}
	binary.LittleEndian.PutUint32(b, uint32(v))
}

// ReadByteArray reads a 4-byte LE length followed by that many payload
// bytes into a newly allocated slice. A negative length marks the parcel
// malformed.
func (p *Parcel) ReadByteArray() []byte {
	if p.malformed {
		return nil
	}
	n := p.ReadInt32()
	if p.malformed || n < 0 {
		p.malformed = true
		return nil
	}
	if n == 0 {
		return []byte{}
	}
	return p.ReadDup(int(n))
}

// WriteByteArray writes a 4-byte LE length followed by b, padded to a
// 4-byte boundary. An empty slice is legal and writes length 0.
func (p *Parcel) WriteByteArray(b []byte) {
	if p.malformed {
		return
	}
	p.WriteInt32(int32(len(b)))
	if len(b) == 0 {
		return
	}
	p.Write(b, len(b))
}

// ReadInt32Array reads a 4-byte LE count followed by that many
// little-endian 32-bit integers.
func (p *Parcel) ReadInt32Array() []int32 {
	if p.malformed {
		return nil
	}
	n := p.ReadInt32()
	if p.malformed || n < 0 {
		p.malformed = true
		return nil
	}
	if n == 0 {
		return []int32{}
	}
	b := p.ReadInplace(int(n) * 4)
	if b == nil {
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[i*4 : i*4+4]))
	}
	return out
}

// WriteInt32Array writes a 4-byte LE count followed by v as little-endian
// 32-bit integers.
func (p *Parcel) WriteInt32Array(v []int32) {
	if p.malformed {
		return
	}
	p.WriteInt32(int32(len(v)))
	if len(v) == 0 {
		return
	}
	b := p.WriteInplace(len(v) * 4)
	if b == nil {
		return
	}
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[i*4:i*4+4], uint32(x))
	}
}

// utf16ToUTF8 decodes units per UTF-16 surrogate-pairing rules, rejecting
// any unpaired surrogate instead of silently substituting a replacement
// character.
func utf16ToUTF8(units []uint16) (string, bool) {
	var sb strings.Builder
	for i := 0; i < len(units); {
		r := units[i]
		switch {
		case r < 0xD800 || r > 0xDFFF:
			sb.WriteRune(rune(r))
			i++
		case r <= 0xDBFF:
			if i+1 >= len(units) {
				return "", false
			}
			r2 := units[i+1]
			if r2 < 0xDC00 || r2 > 0xDFFF {
				return "", false
			}
			sb.WriteRune(utf16.DecodeRune(rune(r), rune(r2)))
			i += 2
		default:
			// unpaired low surrogate
			return "", false
		}
	}
	return sb.String(), true
}

// ReadString16 reads a UTF-16 string: a 4-byte LE length L in code units
// (excluding the terminator), followed by (L+1)*2 native-byte-order
// UTF-16 code units. L=-1 denotes a null string. A malformed UTF-16
// sequence marks the parcel malformed.
func (p *Parcel) ReadString16() *string {
	if p.malformed {
		return nil
	}
	n := p.ReadInt32()
	if p.malformed {
		return nil
	}
	if n == -1 {
		return nil
	}
	if n < 0 {
		p.malformed = true
		return nil
	}
	raw := p.ReadInplace((int(n) + 1) * 2)
	if raw == nil {
		return nil
	}
	order := bo.Native()
	units := make([]uint16, n)
	for i := range units {
		units[i] = order.Uint16(raw[i*2 : i*2+2])
	}
	s, ok := utf16ToUTF8(units)
	if !ok {
		p.malformed = true
		return nil
	}
	return &s
}

// WriteString16 writes s as a UTF-16 string. A nil s writes length -1 and
// nothing else.
func (p *Parcel) WriteString16(s *string) {
	if p.malformed {
		return
	}
	if s == nil {
		p.WriteInt32(-1)
		return
	}
	units := utf16.Encode([]rune(*s))
	p.WriteInt32(int32(len(units)))
	raw := p.WriteInplace((len(units) + 1) * 2)
	if raw == nil {
		return
	}
	order := bo.Native()
	for i, u := range units {
		order.PutUint16(raw[i*2:i*2+2], u)
	}
	order.PutUint16(raw[len(units)*2:len(units)*2+2], 0)
}

// ReadString16Array reads a 4-byte LE count N followed by N strings (each
// per ReadString16, so elements may be null). It returns nil for N=0 and
// for a malformed read; otherwise the returned slice's length is always
// the authoritative element count N.
func (p *Parcel) ReadString16Array() []*string {
	if p.malformed {
		return nil
	}
	n := p.ReadInt32()
	if p.malformed || n < 0 {
		p.malformed = true
		return nil
	}
	if n == 0 {
		return nil
	}
	out := make([]*string, n)
	for i := range out {
		out[i] = p.ReadString16()
		if p.malformed {
			return nil
		}
	}
	return out
}

// WriteString16Array writes a 4-byte LE count followed by len(arr) strings;
// nil elements are encoded as null strings.
func (p *Parcel) WriteString16Array(arr []*string) {
	if p.malformed {
		return
	}
	p.WriteInt32(int32(len(arr)))
	for _, s := range arr {
		p.WriteString16(s)
	}
}
