package snapshot

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how per-channel sketch sections are compressed
// inside a snapshot.
type Compression string

const (
	// CompressionNone stores sections verbatim.
	CompressionNone Compression = "none"
	// CompressionLZ4 favors speed over ratio.
	CompressionLZ4 Compression = "lz4"
	// CompressionZstd favors ratio; the default.
	CompressionZstd Compression = "zstd"
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	// EncodeAll/DecodeAll on shared instances are safe for concurrent use.
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
}

// compress encodes data with the given compression. raw reports that the
// section was stored verbatim, which also happens when lz4 cannot shrink
// the input.
func compress(c Compression, data []byte) (out []byte, raw bool, err error) {
	switch c {
	case CompressionNone:
		return data, true, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, false, err
		}
		if n == 0 || n >= len(data) { // incompressible
			return data, true, nil
		}
		return buf[:n], false, nil
	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, nil), false, nil
	default:
		return nil, false, fmt.Errorf("unsupported compression: %q", c)
	}
}

// decompress reverses compress. rawLen is the expected decoded length.
func decompress(c Compression, data []byte, rawLen int, raw bool) ([]byte, error) {
	if raw {
		return data, nil
	}
	switch c {
	case CompressionLZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, err
		}
		if n != rawLen {
			return nil, fmt.Errorf("lz4 section decoded to %d bytes, want %d", n, rawLen)
		}
		return out, nil
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, rawLen))
		if err != nil {
			return nil, err
		}
		if len(out) != rawLen {
			return nil, fmt.Errorf("zstd section decoded to %d bytes, want %d", len(out), rawLen)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression: %q", c)
	}
}
