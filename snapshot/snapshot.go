// Package snapshot persists a whole sketch container to a blobstore as
// a single, self-describing blob.
//
// A snapshot records the container parameters (k, d, element kind), one
// serialized sketch section per channel, the codec that encoded its
// manifest and the compression applied to the sections, and ends with a
// CRC32 of everything before it. Loading validates all of that before
// rebuilding the container.
//
// The per-sketch blobs returned by VectorOfKLL.Serialize remain
// envelope-free; snapshots are a separate, optional layer on top.
package snapshot

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/kllvec"
	"github.com/hupe1980/kllvec/blobstore"
	"github.com/hupe1980/kllvec/codec"
	"github.com/hupe1980/kllvec/kll"
)

// Binary layout (little-endian):
//
//	magic        uint32  "KLLV"
//	version      uint8
//	codecNameLen uint8
//	codecName    bytes
//	manifestLen  uint32
//	manifest     codec-encoded bytes
//	sections     d sketch blobs, lengths per manifest
//	checksum     uint32  CRC32 (IEEE) of everything above
const (
	magic   = uint32(0x564C4C4B) // "KLLV"
	version = uint8(1)
)

var (
	// ErrBadSnapshot is returned for truncated or non-snapshot blobs.
	ErrBadSnapshot = errors.New("malformed snapshot")

	// ErrChecksum is returned when the snapshot checksum does not match.
	ErrChecksum = errors.New("snapshot checksum mismatch")
)

// ErrUnknownCodec indicates a snapshot whose manifest codec is not
// built in.
type ErrUnknownCodec struct {
	Name string
}

func (e *ErrUnknownCodec) Error() string {
	return fmt.Sprintf("unknown snapshot codec: %q", e.Name)
}

// ErrElementKindMismatch indicates a snapshot of a container with a
// different element type.
type ErrElementKindMismatch struct {
	Expected string
	Actual   string
}

func (e *ErrElementKindMismatch) Error() string {
	return fmt.Sprintf("snapshot holds %s sketches, want %s", e.Actual, e.Expected)
}

type manifest struct {
	K           uint16      `json:"k"`
	D           int         `json:"d"`
	ElementKind string      `json:"element_kind"`
	Compression Compression `json:"compression"`
	Sections    []section   `json:"sections"`
}

type section struct {
	Len    int  `json:"len"`
	RawLen int  `json:"raw_len"`
	Raw    bool `json:"raw,omitempty"`
}

type options struct {
	codec       codec.Codec
	compression Compression
}

// Option configures Save and Load behavior.
type Option func(*options)

// WithCodec configures the codec used for the snapshot manifest.
// Loading ignores this option; snapshots record the codec they were
// written with.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures how sketch sections are compressed.
// The default is zstd. Loading ignores this option.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// Save writes a snapshot of v under the given name. The d sketches are
// serialized and compressed concurrently, then written as one blob.
func Save[T kll.Number](ctx context.Context, store blobstore.Store, name string, v *kllvec.VectorOfKLL[T], optFns ...Option) error {
	opts := options{
		codec:       codec.Default,
		compression: CompressionZstd,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	d := v.D()
	sections := make([]section, d)
	payloads := make([][]byte, d)

	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < d; i++ {
		g.Go(func() error {
			blobs, err := v.Serialize(kllvec.One(i))
			if err != nil {
				return err
			}
			compressed, raw, err := compress(opts.compression, blobs[0])
			if err != nil {
				return err
			}
			payloads[i] = compressed
			sections[i] = section{Len: len(compressed), RawLen: len(blobs[0]), Raw: raw}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	m := manifest{
		K:           v.K(),
		D:           d,
		ElementKind: kll.KindOf[T]().String(),
		Compression: opts.compression,
		Sections:    sections,
	}
	encoded, err := opts.codec.Marshal(m)
	if err != nil {
		return err
	}
	codecName := opts.codec.Name()
	if len(codecName) > 255 {
		return fmt.Errorf("codec name too long: %q", codecName)
	}

	size := 10 + len(codecName) + len(encoded) + 4
	for _, p := range payloads {
		size += len(p)
	}
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, magic)
	buf = append(buf, version, uint8(len(codecName)))
	buf = append(buf, codecName...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(encoded)))
	buf = append(buf, encoded...)
	for _, p := range payloads {
		buf = append(buf, p...)
	}
	buf = binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))

	return store.Put(ctx, name, buf)
}

// Load reads a snapshot and rebuilds its container. The container keeps
// the k and d recorded in the snapshot.
func Load[T kll.Number](ctx context.Context, store blobstore.Store, name string, optFns ...Option) (*kllvec.VectorOfKLL[T], error) {
	blob, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	if len(blob) < 14 {
		return nil, ErrBadSnapshot
	}
	body, footer := blob[:len(blob)-4], blob[len(blob)-4:]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(footer) {
		return nil, ErrChecksum
	}
	if binary.LittleEndian.Uint32(body) != magic {
		return nil, ErrBadSnapshot
	}
	if body[4] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, body[4])
	}

	r := body[5:]
	nameLen := int(r[0])
	r = r[1:]
	if len(r) < nameLen+4 {
		return nil, ErrBadSnapshot
	}
	codecName := string(r[:nameLen])
	r = r[nameLen:]
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, &ErrUnknownCodec{Name: codecName}
	}

	manifestLen := int(binary.LittleEndian.Uint32(r))
	r = r[4:]
	if len(r) < manifestLen {
		return nil, ErrBadSnapshot
	}
	var m manifest
	if err := c.Unmarshal(r[:manifestLen], &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	r = r[manifestLen:]

	if want := kll.KindOf[T]().String(); m.ElementKind != want {
		return nil, &ErrElementKindMismatch{Expected: want, Actual: m.ElementKind}
	}
	if m.D != len(m.Sections) {
		return nil, ErrBadSnapshot
	}

	payloads := make([][]byte, m.D)
	for i, sec := range m.Sections {
		if sec.Len < 0 || len(r) < sec.Len {
			return nil, ErrBadSnapshot
		}
		payloads[i] = r[:sec.Len]
		r = r[sec.Len:]
	}
	if len(r) != 0 {
		return nil, ErrBadSnapshot
	}

	v, err := kllvec.New[T](m.K, m.D)
	if err != nil {
		return nil, err
	}

	g, _ := errgroup.WithContext(ctx)
	for i, sec := range m.Sections {
		g.Go(func() error {
			data, err := decompress(m.Compression, payloads[i], sec.RawLen, sec.Raw)
			if err != nil {
				return err
			}
			return v.Deserialize(data, i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return v, nil
}
