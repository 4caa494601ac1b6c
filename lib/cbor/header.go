// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Major is the 3-bit major type carried in the high bits of every
// header byte.
type Major uint8

const (
	MajorUint   Major = 0
	MajorNint   Major = 1
	MajorBytes  Major = 2
	MajorText   Major = 3
	MajorArray  Major = 4
	MajorMap    Major = 5
	MajorTag    Major = 6
	MajorSimple Major = 7
)

// String returns the short name of a major type.
func (major Major) String() string {
	switch major {
	case MajorUint:
		return "uint"
	case MajorNint:
		return "nint"
	case MajorBytes:
		return "bytes"
	case MajorText:
		return "text"
	case MajorArray:
		return "array"
	case MajorMap:
		return "map"
	case MajorTag:
		return "tag"
	case MajorSimple:
		return "simple"
	default:
		return fmt.Sprintf("major(%d)", uint8(major))
	}
}

// Info is the 5-bit additional information carried in the low bits of
// a header byte. Values 0 through 23 hold a magnitude inline; the
// named constants select a width class or streaming mode.
type Info uint8

const (
	// InfoU8 through InfoU64 mean the magnitude follows the header in
	// the next 1, 2, 4 or 8 big-endian bytes.
	InfoU8  Info = 24
	InfoU16 Info = 25
	InfoU32 Info = 26
	InfoU64 Info = 27

	infoReserved28 Info = 28
	infoReserved29 Info = 29
	infoReserved30 Info = 30

	// InfoIndefinite marks an indefinite-length item terminated by a
	// Break simple value.
	InfoIndefinite Info = 31

	maxTiny = 23
)

// InfoFor returns the smallest width class able to hold n.
func InfoFor(n uint64) Info {
	switch {
	case n <= maxTiny:
		return Info(n)
	case n <= math.MaxUint8:
		return InfoU8
	case n <= math.MaxUint16:
		return InfoU16
	case n <= math.MaxUint32:
		return InfoU32
	default:
		return InfoU64
	}
}

// IsTiny reports whether the info carries its magnitude inline.
func (info Info) IsTiny() bool { return info <= maxTiny }

// IsReserved reports whether the info is one of the three codes that
// are never valid on the wire.
func (info Info) IsReserved() bool {
	return info == infoReserved28 || info == infoReserved29 || info == infoReserved30
}

// String returns a readable form of the info code.
func (info Info) String() string {
	switch {
	case info.IsTiny():
		return fmt.Sprintf("tiny(%d)", uint8(info))
	case info == InfoU8:
		return "u8"
	case info == InfoU16:
		return "u16"
	case info == InfoU32:
		return "u32"
	case info == InfoU64:
		return "u64"
	case info.IsReserved():
		return fmt.Sprintf("reserved(%d)", uint8(info))
	case info == InfoIndefinite:
		return "indefinite"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(info))
	}
}

// encodeHeader writes the single header byte for major and info.
func encodeHeader(w io.Writer, major Major, info Info) (int, error) {
	if major > MajorSimple {
		return 0, structuralf("major type %d out of range", uint8(major))
	}
	if info > InfoIndefinite {
		return 0, structuralf("additional info %d out of range", uint8(info))
	}
	return write(w, []byte{byte(major)<<5 | byte(info)})
}

// decodeHeader reads exactly one header byte and splits it.
func decodeHeader(r io.Reader) (Major, Info, int, error) {
	var scratch [1]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return 0, 0, 0, ioError("reading header", err)
	}
	return Major(scratch[0] >> 5), Info(scratch[0] & 0x1f), 1, nil
}

// encodeAdditional writes the bytes that follow a header for
// magnitude n: none for 0-23, otherwise the minimal big-endian width.
func encodeAdditional(w io.Writer, n uint64) (int, error) {
	var scratch [8]byte
	var size int
	switch InfoFor(n) {
	case InfoU8:
		scratch[0] = byte(n)
		size = 1
	case InfoU16:
		binary.BigEndian.PutUint16(scratch[:], uint16(n))
		size = 2
	case InfoU32:
		binary.BigEndian.PutUint32(scratch[:], uint32(n))
		size = 4
	case InfoU64:
		binary.BigEndian.PutUint64(scratch[:], n)
		size = 8
	default:
		return 0, nil
	}
	return write(w, scratch[:size])
}

// encodeHead writes a header whose info is the minimal class for n,
// followed by the additional bytes for n.
func encodeHead(w io.Writer, major Major, n uint64) (int, error) {
	written, err := encodeHeader(w, major, InfoFor(n))
	if err != nil {
		return written, err
	}
	more, err := encodeAdditional(w, n)
	return written + more, err
}

// decodeAdditional reads the magnitude selected by info. For
// InfoIndefinite it consumes nothing and returns zero: callers must
// check for streaming mode before treating the result as a length.
func decodeAdditional(info Info, r io.Reader) (uint64, int, error) {
	var scratch [8]byte
	var size int
	switch {
	case info.IsTiny():
		return uint64(info), 0, nil
	case info == InfoU8:
		size = 1
	case info == InfoU16:
		size = 2
	case info == InfoU32:
		size = 4
	case info == InfoU64:
		size = 8
	case info == InfoIndefinite:
		return 0, 0, nil
	case info.IsReserved():
		return 0, 0, structuralf("reserved additional info %d", uint8(info))
	default:
		return 0, 0, structuralf("additional info %d out of range", uint8(info))
	}
	if _, err := io.ReadFull(r, scratch[:size]); err != nil {
		return 0, 0, ioError("reading additional value", err)
	}
	switch size {
	case 1:
		return uint64(scratch[0]), 1, nil
	case 2:
		return uint64(binary.BigEndian.Uint16(scratch[:])), 2, nil
	case 4:
		return uint64(binary.BigEndian.Uint32(scratch[:])), 4, nil
	default:
		return binary.BigEndian.Uint64(scratch[:]), 8, nil
	}
}

// write writes all of data, treating a short write as an I/O failure.
func write(w io.Writer, data []byte) (int, error) {
	n, err := w.Write(data)
	if err != nil {
		return n, ioError("writing", err)
	}
	if n != len(data) {
		return n, ioError("writing", io.ErrShortWrite)
	}
	return n, nil
}
