package kll

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
)

// Serialized layout (little-endian):
//
//	magic      uint32  "KLLS"
//	serVer     uint8
//	kind       uint8   element kind
//	flags      uint8   bit 0: empty
//	numLevels  uint8
//	k          uint16
//	minK       uint16
//	n          uint64
//	counts     numLevels * uint32
//	minItem    item
//	maxItem    item
//	items      level 0 .. level numLevels-1, count items each
//	checksum   uint32  CRC32 (IEEE) of everything above
//
// An empty sketch stops after n (numLevels = 0) and carries no counts,
// extremes or items.
const (
	serdeMagic   = uint32(0x534C4C4B) // "KLLS"
	serdeVersion = uint8(1)
)

var (
	// ErrBadBlob is returned when a blob is truncated or does not start
	// with the KLL magic.
	ErrBadBlob = errors.New("malformed sketch blob")

	// ErrChecksum is returned when the blob checksum does not match.
	ErrChecksum = errors.New("sketch blob checksum mismatch")
)

// ErrKindMismatch indicates a blob serialized from a sketch with a
// different element type.
type ErrKindMismatch struct {
	Expected Kind
	Actual   Kind
}

func (e *ErrKindMismatch) Error() string {
	return fmt.Sprintf("element kind mismatch: blob holds %s, want %s", e.Actual, e.Expected)
}

// Serialize encodes the sketch into a compact, self-describing blob.
func (s *Sketch[T]) Serialize() ([]byte, error) {
	kind := KindOf[T]()
	if kind == kindInvalid {
		return nil, fmt.Errorf("unsupported element type for serialization")
	}
	size := 20 + 4 // header + checksum
	if !s.IsEmpty() {
		size += 4*len(s.levels) + kind.size()*(2+int(s.GetNumRetained()))
	}
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, serdeMagic)
	buf = append(buf, serdeVersion, byte(kind))
	var flags uint8
	numLevels := uint8(len(s.levels))
	if s.IsEmpty() {
		flags |= 1
		numLevels = 0
	}
	buf = append(buf, flags, numLevels)
	buf = binary.LittleEndian.AppendUint16(buf, s.k)
	buf = binary.LittleEndian.AppendUint16(buf, s.minK)
	buf = binary.LittleEndian.AppendUint64(buf, s.n)
	if !s.IsEmpty() {
		for _, level := range s.levels {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(level)))
		}
		buf = appendItem(buf, s.minItem)
		buf = appendItem(buf, s.maxItem)
		for _, level := range s.levels {
			for _, item := range level {
				buf = appendItem(buf, item)
			}
		}
	}
	buf = binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))
	return buf, nil
}

// Deserialize reconstructs a sketch from a blob produced by Serialize.
// The sketch keeps the k parameter encoded in the blob, which may differ
// from any container-level k.
func Deserialize[T Number](blob []byte) (*Sketch[T], error) {
	if len(blob) < 24 {
		return nil, ErrBadBlob
	}
	body, footer := blob[:len(blob)-4], blob[len(blob)-4:]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(footer) {
		return nil, ErrChecksum
	}
	if binary.LittleEndian.Uint32(body) != serdeMagic {
		return nil, ErrBadBlob
	}
	if body[4] != serdeVersion {
		return nil, fmt.Errorf("%w: unsupported serial version %d", ErrBadBlob, body[4])
	}
	kind := Kind(body[5])
	if want := KindOf[T](); kind != want {
		return nil, &ErrKindMismatch{Expected: want, Actual: kind}
	}
	flags := body[6]
	numLevels := int(body[7])
	k := binary.LittleEndian.Uint16(body[8:])
	minK := binary.LittleEndian.Uint16(body[10:])
	n := binary.LittleEndian.Uint64(body[12:])

	s, err := New[T](k)
	if err != nil {
		return nil, err
	}
	s.minK = minK
	if flags&1 != 0 {
		return s, nil
	}
	if numLevels == 0 || n == 0 {
		return nil, ErrBadBlob
	}

	r := body[20:]
	if len(r) < 4*numLevels {
		return nil, ErrBadBlob
	}
	counts := make([]int, numLevels)
	var retained int
	for l := range counts {
		counts[l] = int(binary.LittleEndian.Uint32(r))
		retained += counts[l]
		r = r[4:]
	}
	itemSize := kind.size()
	if len(r) != itemSize*(2+retained) {
		return nil, ErrBadBlob
	}
	s.minItem = itemAt[T](r, kind)
	r = r[itemSize:]
	s.maxItem = itemAt[T](r, kind)
	r = r[itemSize:]
	s.n = n
	s.levels = make([][]T, numLevels)
	for l, count := range counts {
		level := make([]T, count)
		for i := range level {
			level[i] = itemAt[T](r, kind)
			r = r[itemSize:]
		}
		s.levels[l] = level
	}
	return s, nil
}

// Kind identifies the element type encoded in a serialized blob.
type Kind uint8

const (
	kindInvalid Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
)

var kindNames = map[Kind]string{
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) size() int {
	switch k {
	case KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	default:
		return 8
	}
}

// KindOf returns the serialization kind for T, or an invalid kind for
// named types not identical to a builtin numeric type.
func KindOf[T Number]() Kind {
	var zero T
	switch any(zero).(type) {
	case int8:
		return KindInt8
	case int16:
		return KindInt16
	case int32:
		return KindInt32
	case int64:
		return KindInt64
	case uint8:
		return KindUint8
	case uint16:
		return KindUint16
	case uint32:
		return KindUint32
	case uint64:
		return KindUint64
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	default:
		return kindInvalid
	}
}

func appendItem[T Number](buf []byte, v T) []byte {
	switch x := any(v).(type) {
	case int8:
		return append(buf, byte(x))
	case int16:
		return binary.LittleEndian.AppendUint16(buf, uint16(x))
	case int32:
		return binary.LittleEndian.AppendUint32(buf, uint32(x))
	case int64:
		return binary.LittleEndian.AppendUint64(buf, uint64(x))
	case uint8:
		return append(buf, x)
	case uint16:
		return binary.LittleEndian.AppendUint16(buf, x)
	case uint32:
		return binary.LittleEndian.AppendUint32(buf, x)
	case uint64:
		return binary.LittleEndian.AppendUint64(buf, x)
	case float32:
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
	case float64:
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
	default:
		return buf
	}
}

// itemAt decodes one item from the front of b. kind always matches
// KindOf[T] by the time this is called.
func itemAt[T Number](b []byte, kind Kind) T {
	switch kind {
	case KindInt8:
		return T(int8(b[0]))
	case KindInt16:
		return T(int16(binary.LittleEndian.Uint16(b)))
	case KindInt32:
		return T(int32(binary.LittleEndian.Uint32(b)))
	case KindInt64:
		return T(int64(binary.LittleEndian.Uint64(b)))
	case KindUint8:
		return T(b[0])
	case KindUint16:
		return T(binary.LittleEndian.Uint16(b))
	case KindUint32:
		return T(binary.LittleEndian.Uint32(b))
	case KindUint64:
		return T(binary.LittleEndian.Uint64(b))
	case KindFloat32:
		return T(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	default:
		return T(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	}
}
