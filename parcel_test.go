package garil

import (
	"bytes"
	"testing"

	"github.com/ril-go/garil/internal/bo"
)

func TestParcelInt32RoundTrip(t *testing.T) {
	p := NewParcel()
	p.WriteInt32(1)
	p.WriteInt32(-1)
	p.WriteInt32(0x7fffffff)

	r := NewParcelFromBytes(p.buf)
	if v := r.ReadInt32(); v != 1 {
		t.Fatalf("first int32 = %d, want 1", v)
	}
	if v := r.ReadInt32(); v != -1 {
		t.Fatalf("second int32 = %d, want -1", v)
	}
	if v := r.ReadInt32(); v != 0x7fffffff {
		t.Fatalf("third int32 = %#x, want 0x7fffffff", v)
	}
	if r.IsMalformed() {
		t.Fatal("parcel unexpectedly malformed")
	}
	if r.Available() != 0 {
		t.Fatalf("available = %d, want 0", r.Available())
	}
}

func TestParcelByteMasksLowByte(t *testing.T) {
	p := NewParcel()
	p.WriteByte(0xAB)

	r := NewParcelFromBytes(p.buf)
	if got := r.ReadByte(); got != 0xAB {
		t.Fatalf("ReadByte() = %#x, want 0xab", got)
	}

	// The wire encodes a full 32-bit LE integer per byte; verify the three
	// high bytes are present and zero.
	if !bytes.Equal(p.buf, []byte{0xAB, 0x00, 0x00, 0x00}) {
		t.Fatalf("wire bytes = %x, want ab000000", p.buf)
	}

	// A wire int32 with high bits set (0xFFFFFFAB) reads back as its low byte.
	n := NewParcelFromBytes([]byte{0xAB, 0xFF, 0xFF, 0xFF})
	if got := n.ReadByte(); got != 0xAB {
		t.Fatalf("ReadByte() of 0xffffffab = %#x, want 0xab", got)
	}
}

func TestParcelByteArrayRoundTrip(t *testing.T) {
	p := NewParcel()
	p.WriteByteArray([]byte{1, 2, 3})

	// length(4) + 3 data bytes padded to 4 = 8 bytes total.
	if p.Size() != 8 {
		t.Fatalf("size = %d, want 8", p.Size())
	}

	r := NewParcelFromBytes(p.buf)
	got := r.ReadByteArray()
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("ReadByteArray() = %v, want [1 2 3]", got)
	}
}

func TestParcelByteArrayEmptyIsNonNil(t *testing.T) {
	p := NewParcel()
	p.WriteByteArray(nil)

	r := NewParcelFromBytes(p.buf)
	got := r.ReadByteArray()
	if got == nil {
		t.Fatal("ReadByteArray() on length 0 = nil, want non-nil empty slice")
	}
	if len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

func TestParcelByteArrayNegativeLengthMalformed(t *testing.T) {
	p := NewParcel()
	p.WriteInt32(-1) // malformed length prefix, not -1-as-null (that's string-only)

	r := NewParcelFromBytes(p.buf)
	if got := r.ReadByteArray(); got != nil {
		t.Fatalf("ReadByteArray() = %v, want nil", got)
	}
	if !r.IsMalformed() {
		t.Fatal("expected parcel to be malformed")
	}
}

func TestParcelInt32ArrayRoundTrip(t *testing.T) {
	p := NewParcel()
	p.WriteInt32Array([]int32{10, -20, 30})

	r := NewParcelFromBytes(p.buf)
	got := r.ReadInt32Array()
	want := []int32{10, -20, 30}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestParcelString16RoundTrip(t *testing.T) {
	p := NewParcel()
	s := "hello"
	p.WriteString16(&s)

	r := NewParcelFromBytes(p.buf)
	got := r.ReadString16()
	if got == nil {
		t.Fatal("ReadString16() = nil, want non-nil")
	}
	if *got != "hello" {
		t.Fatalf("ReadString16() = %q, want %q", *got, "hello")
	}
}

func TestParcelString16Null(t *testing.T) {
	p := NewParcel()
	p.WriteString16(nil)

	// null strings encode as length -1 and nothing else: 4 bytes total.
	if p.Size() != 4 {
		t.Fatalf("size = %d, want 4", p.Size())
	}

	r := NewParcelFromBytes(p.buf)
	if got := r.ReadString16(); got != nil {
		t.Fatalf("ReadString16() = %v, want nil", got)
	}
	if r.IsMalformed() {
		t.Fatal("null string must not mark parcel malformed")
	}
}

func TestParcelString16Empty(t *testing.T) {
	p := NewParcel()
	s := ""
	p.WriteString16(&s)

	r := NewParcelFromBytes(p.buf)
	got := r.ReadString16()
	if got == nil {
		t.Fatal("ReadString16() = nil, want non-nil empty string")
	}
	if *got != "" {
		t.Fatalf("ReadString16() = %q, want empty", *got)
	}
}

func TestParcelString16UnpairedSurrogateMalformed(t *testing.T) {
	p := NewParcel()
	p.WriteInt32(1) // one code unit
	raw := p.WriteInplace(4)
	// a lone high surrogate with no pair, then the terminator unit.
	order := bo.Native()
	order.PutUint16(raw[0:2], 0xD800)
	order.PutUint16(raw[2:4], 0)

	r := NewParcelFromBytes(p.buf)
	if got := r.ReadString16(); got != nil {
		t.Fatalf("ReadString16() = %v, want nil", got)
	}
	if !r.IsMalformed() {
		t.Fatal("expected parcel to be malformed on unpaired surrogate")
	}
}

func TestParcelString16ArrayWithNullElements(t *testing.T) {
	p := NewParcel()
	a := "a"
	arr := []*string{&a, nil, &a}
	p.WriteString16Array(arr)

	r := NewParcelFromBytes(p.buf)
	got := r.ReadString16Array()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] == nil || *got[0] != "a" {
		t.Fatalf("got[0] = %v, want \"a\"", got[0])
	}
	if got[1] != nil {
		t.Fatalf("got[1] = %v, want nil", got[1])
	}
	if got[2] == nil || *got[2] != "a" {
		t.Fatalf("got[2] = %v, want \"a\"", got[2])
	}
}

func TestParcelString16ArrayZeroLengthIsNil(t *testing.T) {
	p := NewParcel()
	p.WriteString16Array(nil)

	r := NewParcelFromBytes(p.buf)
	if got := r.ReadString16Array(); got != nil {
		t.Fatalf("ReadString16Array() = %v, want nil", got)
	}
}

func TestParcelTruncatedReadMarksMalformed(t *testing.T) {
	// A length prefix claiming 8 bytes but only 4 follow.
	buf := []byte{8, 0, 0, 0, 1, 2, 3, 4}
	r := NewParcelFromBytes(buf)
	got := r.ReadByteArray()
	if got != nil {
		t.Fatalf("ReadByteArray() = %v, want nil", got)
	}
	if !r.IsMalformed() {
		t.Fatal("expected parcel to be malformed on truncated read")
	}
}

func TestParcelMalformedIsSticky(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF} // length -1 read as a byte array length
	r := NewParcelFromBytes(buf)
	r.ReadByteArray()
	if !r.IsMalformed() {
		t.Fatal("expected malformed after negative-length byte array read")
	}

	// Every subsequent op must be a no-op returning a zero value.
	if v := r.ReadInt32(); v != 0 {
		t.Fatalf("ReadInt32() after malformed = %d, want 0", v)
	}
	if got := r.ReadByteArray(); got != nil {
		t.Fatalf("ReadByteArray() after malformed = %v, want nil", got)
	}
	if got := r.ReadString16(); got != nil {
		t.Fatalf("ReadString16() after malformed = %v, want nil", got)
	}
}

func TestParcelPadding(t *testing.T) {
	p := NewParcel()
	p.Write([]byte{1, 2, 3}, 3)
	if p.Size() != 4 {
		t.Fatalf("size after writing 3 bytes = %d, want 4 (padded)", p.Size())
	}
	if p.buf[3] != 0 {
		t.Fatalf("pad byte = %#x, want 0", p.buf[3])
	}
}

func TestParcelReadInplaceAliasesBuffer(t *testing.T) {
	p := NewParcel()
	p.Write([]byte{9, 9, 9, 9}, 4)

	r := NewParcelFromBytes(p.buf)
	view := r.ReadInplace(4)
	view[0] = 0xFF
	if r.buf[0] != 0xFF {
		t.Fatal("ReadInplace must return a slice aliasing the underlying buffer")
	}
}

func TestParcelReadDupCopiesBuffer(t *testing.T) {
	p := NewParcel()
	p.Write([]byte{7, 7, 7, 7}, 4)

	r := NewParcelFromBytes(p.buf)
	dup := r.ReadDup(4)
	dup[0] = 0xFF
	if r.buf[0] == 0xFF {
		t.Fatal("ReadDup must return a copy, not an alias")
	}
}
