package cboring

import (
	"fmt"
	"io"
)

// Value is a generic decoded CBOR item, used by tests and diagnostic tools
// that need to walk an arbitrary, not statically typed CBOR stream. Concrete
// dynamic types are uint64, int64, []byte, string, bool, nil, []Value and
// []KeyValue.
type Value interface{}

// KeyValue is one entry of a decoded CBOR map, preserving encounter order.
type KeyValue struct {
	Key   Value
	Value Value
}

// DecodeValue reads one arbitrary CBOR item from r, recursing into arrays
// and maps. It is used for round trip testing of the codec and is not on
// the hot path of bundle or session marshalling.
func DecodeValue(r io.Reader) (Value, error) {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return nil, err
	}
	rr := io.MultiReader(byteReader(first[0]), r)

	major := first[0] >> 5
	ai := first[0] & 0x1F

	switch major {
	case MajorUnsignedInt:
		return ReadUInt(rr)

	case MajorNegativeInt:
		return ReadInt(rr)

	case MajorByteString:
		return ReadByteString(rr)

	case MajorTextString:
		return ReadTextString(rr)

	case MajorArray:
		if ai == additionalIndef {
			if _, err := io.ReadFull(rr, first[:]); err != nil {
				return nil, err
			}
			var items []Value
			for {
				v, err := DecodeValue(r)
				if err == FlagBreakCode {
					break
				} else if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			return items, nil
		}

		n, err := ReadArrayLength(rr)
		if err != nil {
			return nil, err
		}
		items := make([]Value, 0, n)
		for i := uint64(0); i < n; i++ {
			v, err := DecodeValue(r)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil

	case MajorMap:
		if ai == additionalIndef {
			return nil, fmt.Errorf("cboring: indefinite length maps are not supported")
		}

		_, n, _, err := readHead(rr)
		if err != nil {
			return nil, err
		}

		pairs := make([]KeyValue, 0, n)
		for i := uint64(0); i < n; i++ {
			k, err := DecodeValue(r)
			if err != nil {
				return nil, err
			}
			v, err := DecodeValue(r)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, KeyValue{Key: k, Value: v})
		}
		return pairs, nil

	case MajorSimple:
		switch ai {
		case simpleFalse:
			return false, nil
		case simpleTrue:
			return true, nil
		case simpleNull:
			return nil, nil
		case additionalIndef:
			return nil, FlagBreakCode
		default:
			return nil, fmt.Errorf("cboring: unsupported simple value %d", ai)
		}

	default:
		return nil, fmt.Errorf("cboring: unsupported major type %d", major)
	}
}

// EncodeValue writes an arbitrary Value produced by DecodeValue back to w.
func EncodeValue(v Value, w io.Writer) error {
	switch x := v.(type) {
	case uint64:
		return WriteUInt(x, w)
	case int64:
		return WriteInt(x, w)
	case []byte:
		return WriteByteString(x, w)
	case string:
		return WriteTextString(x, w)
	case bool:
		return WriteBool(x, w)
	case nil:
		return writeBytes(w, (MajorSimple<<5)|simpleNull)
	case []Value:
		if err := WriteArrayLength(uint64(len(x)), w); err != nil {
			return err
		}
		for _, item := range x {
			if err := EncodeValue(item, w); err != nil {
				return err
			}
		}
		return nil
	case []KeyValue:
		if err := writeHead(MajorMap, uint64(len(x)), w); err != nil {
			return err
		}
		for _, kv := range x {
			if err := EncodeValue(kv.Key, w); err != nil {
				return err
			}
			if err := EncodeValue(kv.Value, w); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("cboring: unsupported value type %T", v)
	}
}

// byteReader adapts a single byte to an io.Reader, yielding it exactly once.
type byteReader byte

func (b byteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	p[0] = byte(b)
	return 1, io.EOF
}
