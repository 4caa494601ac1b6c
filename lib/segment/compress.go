// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the codec of one block. Tags are stored in
// block headers (1 byte each); changing them breaks the file format.
type Compression uint8

const (
	// CompressionNone stores the block as is.
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression: fast, modest ratio.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level: better ratios for
	// text-heavy values.
	CompressionZstd Compression = 2

	// CompressionAuto is a writer setting, never stored: each block is
	// probed and gets whichever of the above suits it.
	CompressionAuto Compression = 255
)

// String returns the name of a compression tag.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionAuto:
		return "auto"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as used in configuration.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	case "auto":
		return CompressionAuto, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", name)
	}
}

// compressBlock compresses data. It returns errIncompressible when the
// result would not be smaller than the input.
func compressBlock(data []byte, tag Compression) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		return compressLZ4(data)
	case CompressionZstd:
		return compressZstd(data)
	default:
		return nil, fmt.Errorf("unsupported compression: %s", tag)
	}
}

// decompressBlock reverses compressBlock. The result must be exactly
// rawSize bytes.
func decompressBlock(stored []byte, tag Compression, rawSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(stored) != rawSize {
			return nil, fmt.Errorf("uncompressed block: size %d does not match expected %d", len(stored), rawSize)
		}
		return stored, nil
	case CompressionLZ4:
		return decompressLZ4(stored, rawSize)
	case CompressionZstd:
		return decompressZstd(stored, rawSize)
	default:
		return nil, fmt.Errorf("unsupported compression: %s", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, rawSize int) ([]byte, error) {
	destination := make([]byte, rawSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != rawSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, rawSize)
	}
	return destination, nil
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use with
// EncodeAll and DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("segment: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = newZstdDecoder(maxBlockSize)
	if err != nil {
		panic("segment: zstd decoder initialization failed: " + err.Error())
	}
}

// newZstdDecoder returns a decoder that refuses to produce more than
// maxMemory bytes, whatever a corrupt frame claims.
func newZstdDecoder(maxMemory uint64) (*zstd.Decoder, error) {
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxMemory))
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, rawSize int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, rawSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != rawSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), rawSize)
	}
	return result, nil
}

// errIncompressible means compression would not shrink the block; the
// writer stores it with CompressionNone instead.
var errIncompressible = errors.New("block is incompressible")

// selectCompression probes data with zstd: a ratio of 1.5 or better
// picks zstd, 1.1 or better picks LZ4, anything less stores the block
// uncompressed.
func selectCompression(data []byte) Compression {
	if len(data) == 0 {
		return CompressionNone
	}
	compressed := zstdEncoder.EncodeAll(data, nil)
	ratio := float64(len(data)) / float64(len(compressed))
	switch {
	case ratio >= 1.5:
		return CompressionZstd
	case ratio >= 1.1:
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// compressAuto compresses data with tag, resolving CompressionAuto by
// probing and falling back to CompressionNone for incompressible data.
func compressAuto(data []byte, tag Compression) ([]byte, Compression, error) {
	if tag == CompressionAuto {
		tag = selectCompression(data)
	}
	stored, err := compressBlock(data, tag)
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return stored, tag, nil
}
