package cboring

import (
	"bytes"
	"io"
	"testing"
)

func TestUIntRoundTrip(t *testing.T) {
	tests := []uint64{0, 1, 23, 24, 25, 0xFF, 0x100, 0xFFFF, 0x10000, 0xFFFFFFFF, 0x100000000, 1<<64 - 1}

	for _, x := range tests {
		buf := new(bytes.Buffer)
		if err := WriteUInt(x, buf); err != nil {
			t.Fatalf("WriteUInt(%d) errored: %v", x, err)
		}

		y, err := ReadUInt(buf)
		if err != nil {
			t.Fatalf("ReadUInt after WriteUInt(%d) errored: %v", x, err)
		}
		if y != x {
			t.Fatalf("round trip mismatch: %d != %d", x, y)
		}
	}
}

func TestUIntShortestForm(t *testing.T) {
	tests := []struct {
		x    uint64
		head byte
		n    int
	}{
		{0, 0x00, 0},
		{23, 0x17, 0},
		{24, 0x18, 1},
		{0xFF, 0x18, 1},
		{0x100, 0x19, 2},
		{0xFFFF, 0x19, 2},
		{0x10000, 0x1A, 4},
		{0xFFFFFFFF, 0x1A, 4},
		{0x100000000, 0x1B, 8},
	}

	for _, tc := range tests {
		buf := new(bytes.Buffer)
		if err := WriteUInt(tc.x, buf); err != nil {
			t.Fatalf("WriteUInt(%d) errored: %v", tc.x, err)
		}

		if got := buf.Bytes()[0]; got != tc.head {
			t.Errorf("WriteUInt(%d) head byte = %#x, want %#x", tc.x, got, tc.head)
		}
		if got := buf.Len() - 1; got != tc.n {
			t.Errorf("WriteUInt(%d) wrote %d argument bytes, want %d", tc.x, got, tc.n)
		}
	}
}

func TestReadUIntPermitsNonShortestFormByDefault(t *testing.T) {
	// 5 encoded with the uint8 extension instead of the single byte form.
	// RFC 8949 section 4.2.2 permits this on ingress even though this
	// package never produces it.
	buf := bytes.NewBuffer([]byte{0x18, 0x05})
	got, err := ReadUInt(buf)
	if err != nil {
		t.Fatalf("non-shortest encoding should be permitted by default, got error: %v", err)
	}
	if got != 5 {
		t.Fatalf("ReadUInt = %d, want 5", got)
	}
}

func TestReadUIntStrictModeRejectsNonShortestForm(t *testing.T) {
	SetStrictMode(true)
	defer SetStrictMode(false)

	buf := bytes.NewBuffer([]byte{0x18, 0x05})
	if _, err := ReadUInt(buf); err == nil {
		t.Fatalf("expected strict mode to reject non-shortest encoding")
	}
}

func TestIntRoundTrip(t *testing.T) {
	tests := []int64{0, 1, -1, -24, -25, 100, -100, -1 << 32}

	for _, x := range tests {
		buf := new(bytes.Buffer)
		if err := WriteInt(x, buf); err != nil {
			t.Fatalf("WriteInt(%d) errored: %v", x, err)
		}

		y, err := ReadInt(buf)
		if err != nil {
			t.Fatalf("ReadInt after WriteInt(%d) errored: %v", x, err)
		}
		if y != x {
			t.Fatalf("round trip mismatch: %d != %d", x, y)
		}
	}
}

func TestByteStringRoundTrip(t *testing.T) {
	tests := [][]byte{{}, {0x00}, bytes.Repeat([]byte{0xAB}, 1000)}

	for _, x := range tests {
		buf := new(bytes.Buffer)
		if err := WriteByteString(x, buf); err != nil {
			t.Fatalf("WriteByteString errored: %v", err)
		}

		y, err := ReadByteString(buf)
		if err != nil {
			t.Fatalf("ReadByteString errored: %v", err)
		}
		if !bytes.Equal(x, y) {
			t.Fatalf("round trip mismatch: %x != %x", x, y)
		}
	}
}

func TestTextStringRoundTrip(t *testing.T) {
	tests := []string{"", "dtn://node/service", "a longer piece of text for the round trip"}

	for _, x := range tests {
		buf := new(bytes.Buffer)
		if err := WriteTextString(x, buf); err != nil {
			t.Fatalf("WriteTextString errored: %v", err)
		}

		y, err := ReadTextString(buf)
		if err != nil {
			t.Fatalf("ReadTextString errored: %v", err)
		}
		if x != y {
			t.Fatalf("round trip mismatch: %q != %q", x, y)
		}
	}
}

func TestDefiniteArrayRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := WriteArrayLength(3, buf); err != nil {
		t.Fatal(err)
	}
	for _, x := range []uint64{1, 2, 3} {
		if err := WriteUInt(x, buf); err != nil {
			t.Fatal(err)
		}
	}

	n, err := ReadArrayLength(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("array length = %d, want 3", n)
	}
	for _, want := range []uint64{1, 2, 3} {
		got, err := ReadUInt(buf)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("element = %d, want %d", got, want)
		}
	}
}

// indefiniteArrayElem adapts a uint64 to a CborMarshaler/CborUnmarshaler pair
// so it can be driven through Unmarshal's break code detection.
type indefiniteArrayElem struct{ v uint64 }

func (e *indefiniteArrayElem) MarshalCbor(w io.Writer) error { return WriteUInt(e.v, w) }
func (e *indefiniteArrayElem) UnmarshalCbor(r io.Reader) error {
	v, err := ReadUInt(r)
	e.v = v
	return err
}

func TestIndefiniteArrayBreakDetection(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := WriteIndefiniteArrayStart(buf); err != nil {
		t.Fatal(err)
	}
	for _, x := range []uint64{10, 20, 30} {
		if err := WriteUInt(x, buf); err != nil {
			t.Fatal(err)
		}
	}
	if err := WriteBreak(buf); err != nil {
		t.Fatal(err)
	}

	if err := ReadExpect(IndefiniteArray, buf); err != nil {
		t.Fatal(err)
	}

	var got []uint64
	for {
		e := new(indefiniteArrayElem)
		if err := Unmarshal(e, buf); err == FlagBreakCode {
			break
		} else if err != nil {
			t.Fatal(err)
		}
		got = append(got, e.v)
	}

	want := []uint64{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDecodeValueRoundTrip(t *testing.T) {
	values := []Value{
		uint64(42),
		int64(-17),
		[]byte{1, 2, 3},
		"hello",
		true,
		false,
		[]Value{uint64(1), "two", []byte{3}},
	}

	for _, v := range values {
		buf := new(bytes.Buffer)
		if err := EncodeValue(v, buf); err != nil {
			t.Fatalf("EncodeValue(%v) errored: %v", v, err)
		}

		got, err := DecodeValue(buf)
		if err != nil {
			t.Fatalf("DecodeValue errored: %v", err)
		}

		gotBuf, wantBuf := new(bytes.Buffer), new(bytes.Buffer)
		_ = EncodeValue(got, gotBuf)
		_ = EncodeValue(v, wantBuf)
		if !bytes.Equal(gotBuf.Bytes(), wantBuf.Bytes()) {
			t.Fatalf("round trip mismatch: %v != %v", got, v)
		}
	}
}
