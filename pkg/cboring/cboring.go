// Package cboring implements a minimal, deterministic CBOR (RFC 8949) codec
// for the subset of the data model used by bundle and convergence layer
// wire formats: unsigned/negative integers, byte/text strings, definite and
// indefinite length arrays and definite length maps, and the three simple
// values false/true/null. Map entries are written in the order given; keys
// are not sorted.
//
// Major types and additional information follow RFC 8949 section 3. Only
// shortest-form integer encoding is ever produced. Per RFC 8949 section
// 4.2.2's "permit but do not produce" policy, decoding does not itself
// reject a non-shortest-form argument; a bundle or message arriving from a
// compliant peer that happens to use a longer-than-necessary width is still
// accepted. SetStrictMode opts decoding into rejecting that laxity instead,
// for callers that need to confirm an input is itself canonically encoded
// (e.g. conformance testing); it is off by default.
package cboring

import (
	"bytes"
	"fmt"
	"io"
)

// Major types, shifted into the high three bits of the initial byte.
const (
	MajorUnsignedInt byte = 0
	MajorNegativeInt byte = 1
	MajorByteString  byte = 2
	MajorTextString  byte = 3
	MajorArray       byte = 4
	MajorMap         byte = 5
	MajorTag         byte = 6
	MajorSimple      byte = 7
)

const (
	additionalUint8  = 24
	additionalUint16 = 25
	additionalUint32 = 26
	additionalUint64 = 27
	additionalIndef  = 31
)

const (
	simpleFalse = 20
	simpleTrue  = 21
	simpleNull  = 22
)

// IndefiniteArray is the initial byte of an indefinite length array, i.e.,
// major type 4 with additional information 31.
const IndefiniteArray byte = (MajorArray << 5) | additionalIndef

// BreakCode terminates an indefinite length array or byte/text string.
const BreakCode byte = (MajorSimple << 5) | additionalIndef

// FlagBreakCode is returned by Unmarshal when the next item in the stream is
// the break stop code instead of a value. Callers iterating the elements of
// an indefinite length array compare against this sentinel to detect the
// array's end.
var FlagBreakCode = fmt.Errorf("cboring: break code encountered")

// strictMode, when set, makes readHead reject non-shortest-form integer and
// length arguments instead of merely accepting them. Off by default, per
// RFC 8949 section 4.2.2's "permit but do not produce" ingress policy.
var strictMode = false

// SetStrictMode toggles rejection of non-canonical (non-shortest-form)
// argument encodings on decode. This affects every subsequent call into
// this package from any goroutine; it is meant for conformance tooling, not
// for use while a session is actively decoding peer traffic.
func SetStrictMode(strict bool) {
	strictMode = strict
}

// CborMarshaler is implemented by types with a hand-written CBOR encoding.
type CborMarshaler interface {
	MarshalCbor(w io.Writer) error
}

// CborUnmarshaler is implemented by types with a hand-written CBOR decoding.
type CborUnmarshaler interface {
	UnmarshalCbor(r io.Reader) error
}

// Marshal writes u's CBOR representation to w.
func Marshal(u CborMarshaler, w io.Writer) error {
	return u.MarshalCbor(w)
}

// Unmarshal reads a CBOR representation from r into u. If the next byte in r
// is the break stop code, it is consumed and FlagBreakCode is returned
// without calling u.UnmarshalCbor; this lets callers use Unmarshal directly
// as the loop condition when reading the elements of an indefinite length
// array.
func Unmarshal(u CborUnmarshaler, r io.Reader) error {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return err
	}

	if first[0] == BreakCode {
		return FlagBreakCode
	}

	return u.UnmarshalCbor(io.MultiReader(bytes.NewReader(first[:]), r))
}

// writeHead writes the initial byte(s) for major type with argument arg,
// using the shortest possible encoding.
func writeHead(major byte, arg uint64, w io.Writer) error {
	hi := major << 5

	switch {
	case arg < additionalUint8:
		return writeBytes(w, byte(hi)|byte(arg))

	case arg <= 0xFF:
		return writeBytes(w, hi|additionalUint8, byte(arg))

	case arg <= 0xFFFF:
		return writeBytes(w, hi|additionalUint16,
			byte(arg>>8), byte(arg))

	case arg <= 0xFFFFFFFF:
		return writeBytes(w, hi|additionalUint32,
			byte(arg>>24), byte(arg>>16), byte(arg>>8), byte(arg))

	default:
		return writeBytes(w, hi|additionalUint64,
			byte(arg>>56), byte(arg>>48), byte(arg>>40), byte(arg>>32),
			byte(arg>>24), byte(arg>>16), byte(arg>>8), byte(arg))
	}
}

func writeBytes(w io.Writer, bs ...byte) error {
	n, err := w.Write(bs)
	if err != nil {
		return err
	} else if n != len(bs) {
		return fmt.Errorf("cboring: wrote %d of %d bytes", n, len(bs))
	}
	return nil
}

// readHead reads an initial byte and any following argument bytes, returning
// the major type, the argument value and whether the additional information
// indicated an indefinite length item (arg is 0 in that case).
func readHead(r io.Reader) (major byte, arg uint64, indefinite bool, err error) {
	var first [1]byte
	if _, err = io.ReadFull(r, first[:]); err != nil {
		return
	}

	major = first[0] >> 5
	ai := first[0] & 0x1F

	switch {
	case ai < additionalUint8:
		arg = uint64(ai)

	case ai == additionalUint8:
		var b [1]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return
		}
		arg = uint64(b[0])
		if strictMode && arg < additionalUint8 {
			err = fmt.Errorf("cboring: non-shortest uint8 encoding")
		}

	case ai == additionalUint16:
		var b [2]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return
		}
		arg = uint64(b[0])<<8 | uint64(b[1])
		if strictMode && arg <= 0xFF {
			err = fmt.Errorf("cboring: non-shortest uint16 encoding")
		}

	case ai == additionalUint32:
		var b [4]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return
		}
		arg = uint64(b[0])<<24 | uint64(b[1])<<16 | uint64(b[2])<<8 | uint64(b[3])
		if strictMode && arg <= 0xFFFF {
			err = fmt.Errorf("cboring: non-shortest uint32 encoding")
		}

	case ai == additionalUint64:
		var b [8]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return
		}
		for _, x := range b {
			arg = arg<<8 | uint64(x)
		}
		if strictMode && arg <= 0xFFFFFFFF {
			err = fmt.Errorf("cboring: non-shortest uint64 encoding")
		}

	case ai == additionalIndef:
		indefinite = true

	default:
		err = fmt.Errorf("cboring: unsupported additional information %d", ai)
	}

	return
}

// ReadExpect reads a single byte from r and compares it against expected.
func ReadExpect(expected byte, r io.Reader) error {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	} else if b[0] != expected {
		return fmt.Errorf("cboring: expected byte %#x, got %#x", expected, b[0])
	}
	return nil
}

// WriteUInt writes x as a CBOR unsigned integer.
func WriteUInt(x uint64, w io.Writer) error {
	return writeHead(MajorUnsignedInt, x, w)
}

// ReadUInt reads a CBOR unsigned integer.
func ReadUInt(r io.Reader) (uint64, error) {
	major, arg, indef, err := readHead(r)
	if err != nil {
		return 0, err
	} else if major != MajorUnsignedInt || indef {
		return 0, fmt.Errorf("cboring: expected unsigned int, got major type %d", major)
	}
	return arg, nil
}

// WriteInt writes x as a CBOR integer, choosing the unsigned or negative
// major type as appropriate.
func WriteInt(x int64, w io.Writer) error {
	if x >= 0 {
		return writeHead(MajorUnsignedInt, uint64(x), w)
	}
	return writeHead(MajorNegativeInt, uint64(-(x + 1)), w)
}

// ReadInt reads a CBOR integer of either the unsigned or negative major type.
func ReadInt(r io.Reader) (int64, error) {
	major, arg, indef, err := readHead(r)
	if err != nil {
		return 0, err
	}
	if indef {
		return 0, fmt.Errorf("cboring: unexpected indefinite length integer")
	}

	switch major {
	case MajorUnsignedInt:
		if arg > 1<<63-1 {
			return 0, fmt.Errorf("cboring: unsigned integer overflows int64")
		}
		return int64(arg), nil
	case MajorNegativeInt:
		return -int64(arg) - 1, nil
	default:
		return 0, fmt.Errorf("cboring: expected integer, got major type %d", major)
	}
}

// WriteByteString writes bs as a definite length CBOR byte string.
func WriteByteString(bs []byte, w io.Writer) error {
	if err := writeHead(MajorByteString, uint64(len(bs)), w); err != nil {
		return err
	}
	return writeBytes(w, bs...)
}

// ReadByteString reads a definite length CBOR byte string.
func ReadByteString(r io.Reader) ([]byte, error) {
	major, arg, indef, err := readHead(r)
	if err != nil {
		return nil, err
	} else if major != MajorByteString || indef {
		return nil, fmt.Errorf("cboring: expected definite length byte string")
	}

	buf := make([]byte, arg)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteTextString writes s as a definite length CBOR text string.
func WriteTextString(s string, w io.Writer) error {
	if err := writeHead(MajorTextString, uint64(len(s)), w); err != nil {
		return err
	}
	return writeBytes(w, []byte(s)...)
}

// ReadTextString reads a definite length CBOR text string.
func ReadTextString(r io.Reader) (string, error) {
	major, arg, indef, err := readHead(r)
	if err != nil {
		return "", err
	} else if major != MajorTextString || indef {
		return "", fmt.Errorf("cboring: expected definite length text string")
	}

	buf := make([]byte, arg)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteArrayLength writes the head of a definite length array with n
// elements. The elements themselves must be written separately.
func WriteArrayLength(n uint64, w io.Writer) error {
	return writeHead(MajorArray, n, w)
}

// ReadArrayLength reads the head of a definite length array and returns its
// element count.
func ReadArrayLength(r io.Reader) (uint64, error) {
	major, arg, indef, err := readHead(r)
	if err != nil {
		return 0, err
	} else if major != MajorArray || indef {
		return 0, fmt.Errorf("cboring: expected definite length array")
	}
	return arg, nil
}

// WriteIndefiniteArrayStart writes the indefinite length array head.
func WriteIndefiniteArrayStart(w io.Writer) error {
	return writeBytes(w, IndefiniteArray)
}

// WriteBreak writes the break stop code.
func WriteBreak(w io.Writer) error {
	return writeBytes(w, BreakCode)
}

// WriteBool writes a CBOR simple boolean value.
func WriteBool(b bool, w io.Writer) error {
	if b {
		return writeBytes(w, (MajorSimple<<5)|simpleTrue)
	}
	return writeBytes(w, (MajorSimple<<5)|simpleFalse)
}

// ReadBool reads a CBOR simple boolean value.
func ReadBool(r io.Reader) (bool, error) {
	major, arg, _, err := readHead(r)
	if err != nil {
		return false, err
	} else if major != MajorSimple {
		return false, fmt.Errorf("cboring: expected boolean simple value")
	}

	switch arg {
	case simpleTrue:
		return true, nil
	case simpleFalse:
		return false, nil
	default:
		return false, fmt.Errorf("cboring: unsupported simple value %d", arg)
	}
}
