// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/storekit/lib/cbor"
	"github.com/bureau-foundation/storekit/lib/entry"
	"github.com/bureau-foundation/storekit/lib/filter"
)

// DefaultBlockSize is the block size used when WriterOptions leaves it
// unset.
const DefaultBlockSize = 64 << 10

// WriterOptions configures a Writer.
type WriterOptions struct {
	// BlockSize is the uncompressed size at which a block is closed.
	// A single entry larger than BlockSize gets a block of its own.
	BlockSize int

	// Compression is applied to each block. CompressionAuto probes
	// every block and picks per block.
	Compression Compression

	// Filter receives the KeyDigest of every appended key and is
	// stored in the footer. Nil means a NoFilter.
	Filter filter.Filter

	// Logger receives per-block debug records and a summary on Close.
	// Nil discards.
	Logger *slog.Logger
}

// Writer builds a segment file. It is not safe for concurrent use.
type Writer[V, D any] struct {
	path      string
	temporary *os.File
	output    *bufio.Writer
	codec     entry.Codec[V, D]
	options   WriterOptions
	logger    *slog.Logger

	block      []byte
	blockFirst cbor.Key
	blockCount int

	offset    uint64
	blocks    []BlockHandle
	checksums []Hash
	last      cbor.Key
	entries   int
	stored    uint64
	done      bool
}

// Create starts a segment that will appear at path when Close
// succeeds. The data is written to a temporary file in the same
// directory until then.
func Create[V, D any](path string, codec entry.Codec[V, D], options WriterOptions) (*Writer[V, D], error) {
	if options.BlockSize <= 0 {
		options.BlockSize = DefaultBlockSize
	}
	if options.Filter == nil {
		options.Filter = &filter.NoFilter{}
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch options.Compression {
	case CompressionNone, CompressionLZ4, CompressionZstd, CompressionAuto:
	default:
		return nil, fmt.Errorf("unsupported compression: %s", options.Compression)
	}

	temporary, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating temporary segment file: %w", err)
	}
	w := &Writer[V, D]{
		path:      path,
		temporary: temporary,
		output:    bufio.NewWriter(temporary),
		codec:     codec,
		options:   options,
		logger:    logger.With("segment", path),
	}
	if err := w.write(magic[:]); err != nil {
		w.Abort()
		return nil, err
	}
	return w, nil
}

// Append adds e to the segment. Keys must be strictly increasing.
func (w *Writer[V, D]) Append(e entry.Entry[V, D]) error {
	if w.done {
		return errors.New("segment writer is closed")
	}
	if e.Key.Kind() == 0 {
		return errors.New("entry has no key")
	}
	if w.entries > 0 && w.last.Compare(e.Key) >= 0 {
		return fmt.Errorf("key %s does not follow %s", e.Key, w.last)
	}

	data, err := w.codec.Encode(e)
	if err != nil {
		return fmt.Errorf("encoding entry %s: %w", e.Key, err)
	}
	if w.blockCount == 0 {
		w.blockFirst = e.Key
	}
	w.block = append(w.block, data...)
	w.blockCount++
	w.options.Filter.Add(filter.KeyDigest(e.Key))
	w.last = e.Key
	w.entries++

	if len(w.block) >= w.options.BlockSize {
		return w.flushBlock()
	}
	return nil
}

// Len returns the number of entries appended so far.
func (w *Writer[V, D]) Len() int { return w.entries }

// Close writes the remaining block and the footer, syncs, and renames
// the file into place. On failure the temporary file is removed.
func (w *Writer[V, D]) Close() error {
	if w.done {
		return errors.New("segment writer is closed")
	}
	if err := w.finish(); err != nil {
		w.Abort()
		return err
	}
	w.done = true
	w.logger.Info("segment written",
		"entries", w.entries,
		"blocks", len(w.blocks),
		"stored_bytes", w.stored,
		"file_bytes", w.offset,
	)
	return nil
}

func (w *Writer[V, D]) finish() error {
	if w.blockCount > 0 {
		if err := w.flushBlock(); err != nil {
			return err
		}
	}

	footerValue, err := footer{
		blocks:  w.blocks,
		filter:  w.options.Filter,
		entries: w.entries,
		digest:  fileDigest(w.checksums),
	}.marshal()
	if err != nil {
		return err
	}
	footerData, err := cbor.Marshal(footerValue)
	if err != nil {
		return fmt.Errorf("encoding footer: %w", err)
	}
	footerOffset := w.offset
	if err := w.write(footerData); err != nil {
		return err
	}
	trailer := binary.BigEndian.AppendUint64(nil, footerOffset)
	trailer = append(trailer, magic[:]...)
	if err := w.write(trailer); err != nil {
		return err
	}

	if err := w.output.Flush(); err != nil {
		return fmt.Errorf("writing segment: %w", err)
	}
	if err := w.temporary.Sync(); err != nil {
		return fmt.Errorf("syncing segment: %w", err)
	}
	if err := w.temporary.Close(); err != nil {
		return fmt.Errorf("closing segment: %w", err)
	}
	if err := os.Rename(w.temporary.Name(), w.path); err != nil {
		return fmt.Errorf("renaming segment to %s: %w", w.path, err)
	}
	return nil
}

// Abort discards the segment. It is safe to call after Close.
func (w *Writer[V, D]) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.temporary.Close()
	os.Remove(w.temporary.Name())
}

func (w *Writer[V, D]) flushBlock() error {
	if len(w.block) > maxBlockSize {
		return fmt.Errorf("block %d is %d bytes, limit is %d", len(w.blocks), len(w.block), maxBlockSize)
	}
	checksum := hashBlock(w.block)
	stored, tag, err := compressAuto(w.block, w.options.Compression)
	if err != nil {
		return fmt.Errorf("compressing block %d: %w", len(w.blocks), err)
	}

	header := blockHeader{
		compression: tag,
		rawSize:     uint32(len(w.block)),
		storedSize:  uint32(len(stored)),
		checksum:    checksum,
	}
	handle := BlockHandle{FirstKey: w.blockFirst, Offset: w.offset, Count: w.blockCount}
	if err := w.write(header.append(nil)); err != nil {
		return err
	}
	if err := w.write(stored); err != nil {
		return err
	}

	w.logger.Debug("block written",
		"block", len(w.blocks),
		"entries", w.blockCount,
		"raw_bytes", len(w.block),
		"stored_bytes", len(stored),
		"compression", tag.String(),
	)
	w.blocks = append(w.blocks, handle)
	w.checksums = append(w.checksums, checksum)
	w.stored += uint64(len(stored))
	w.block = w.block[:0]
	w.blockCount = 0
	return nil
}

func (w *Writer[V, D]) write(data []byte) error {
	if _, err := w.output.Write(data); err != nil {
		return fmt.Errorf("writing segment: %w", err)
	}
	w.offset += uint64(len(data))
	return nil
}
