// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"

	"github.com/bureau-foundation/storekit/lib/cbor"
	"github.com/bureau-foundation/storekit/lib/entry"
	"github.com/bureau-foundation/storekit/lib/filter"
)

// Reader serves lookups from a segment file. Get, Scan and Verify are
// safe for concurrent use.
type Reader[V, D any] struct {
	file         *os.File
	codec        entry.Codec[V, D]
	logger       *slog.Logger
	footer       footer
	footerOffset uint64
}

// Open reads and checks the trailer and footer of the segment at path.
// A nil logger discards.
func Open[V, D any](path string, codec entry.Codec[V, D], logger *slog.Logger) (*Reader[V, D], error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment: %w", err)
	}
	r := &Reader[V, D]{file: file, codec: codec, logger: logger.With("segment", path)}
	if err := r.load(); err != nil {
		file.Close()
		return nil, fmt.Errorf("segment %s: %w", path, err)
	}
	r.logger.Debug("segment opened",
		"entries", r.footer.entries,
		"blocks", len(r.footer.blocks),
	)
	return r, nil
}

func (r *Reader[V, D]) load() error {
	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	size := uint64(info.Size())
	if size < uint64(len(magic))+trailerSize {
		return fmt.Errorf("%w: file is %d bytes", ErrCorrupt, size)
	}

	var head [len(magic)]byte
	if err := r.readAt(head[:], 0); err != nil {
		return err
	}
	if head != magic {
		return fmt.Errorf("%w: bad header magic", ErrCorrupt)
	}
	var trailer [trailerSize]byte
	if err := r.readAt(trailer[:], size-trailerSize); err != nil {
		return err
	}
	if [len(magic)]byte(trailer[8:]) != magic {
		return fmt.Errorf("%w: bad trailer magic", ErrCorrupt)
	}

	r.footerOffset = binary.BigEndian.Uint64(trailer[:8])
	end := size - trailerSize
	if r.footerOffset < uint64(len(magic)) || r.footerOffset >= end {
		return fmt.Errorf("%w: footer offset %d out of range", ErrCorrupt, r.footerOffset)
	}
	footerData := make([]byte, end-r.footerOffset)
	if err := r.readAt(footerData, r.footerOffset); err != nil {
		return err
	}
	value, err := cbor.Unmarshal(footerData)
	if err != nil {
		return fmt.Errorf("%w: footer: %w", ErrCorrupt, err)
	}
	r.footer, err = unmarshalFooter(value, r.footerOffset)
	return err
}

// Close releases the file.
func (r *Reader[V, D]) Close() error {
	return r.file.Close()
}

// Len returns the number of entries in the segment.
func (r *Reader[V, D]) Len() int { return r.footer.entries }

// Blocks returns the block index. The caller must not modify it.
func (r *Reader[V, D]) Blocks() []BlockHandle { return r.footer.blocks }

// Filter returns the segment's membership filter.
func (r *Reader[V, D]) Filter() filter.Filter { return r.footer.filter }

// Digest returns the file digest recorded in the footer.
func (r *Reader[V, D]) Digest() Hash { return r.footer.digest }

// Get returns the entry for key. The bool is false when the segment
// has no such key.
func (r *Reader[V, D]) Get(key cbor.Key) (entry.Entry[V, D], bool, error) {
	var zero entry.Entry[V, D]
	if !r.footer.filter.Contains(filter.KeyDigest(key)) {
		return zero, false, nil
	}

	blocks := r.footer.blocks
	index := sort.Search(len(blocks), func(i int) bool {
		return blocks[i].FirstKey.Compare(key) > 0
	}) - 1
	if index < 0 {
		return zero, false, nil
	}

	entries, err := r.readEntries(index)
	if err != nil {
		return zero, false, err
	}
	position, found := slices.BinarySearchFunc(entries, key, func(e entry.Entry[V, D], key cbor.Key) int {
		return e.Key.Compare(key)
	})
	if !found {
		return zero, false, nil
	}
	return entries[position], true, nil
}

// Scan calls fn for every entry in key order. It stops at and returns
// the first error fn returns.
func (r *Reader[V, D]) Scan(fn func(entry.Entry[V, D]) error) error {
	for index := range r.footer.blocks {
		entries, err := r.readEntries(index)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := fn(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// Verify reads every block, checking checksums, entry counts, key
// order and the file digest.
func (r *Reader[V, D]) Verify() error {
	checksums := make([]Hash, len(r.footer.blocks))
	var last cbor.Key
	for index := range r.footer.blocks {
		raw, header, err := r.readBlock(index)
		if err != nil {
			return err
		}
		checksums[index] = header.checksum
		entries, err := r.decodeBlock(index, raw)
		if err != nil {
			return err
		}
		if index > 0 && last.Compare(entries[0].Key) >= 0 {
			return fmt.Errorf("%w: block %d starts at or before the end of block %d", ErrCorrupt, index, index-1)
		}
		last = entries[len(entries)-1].Key
	}
	if digest := fileDigest(checksums); digest != r.footer.digest {
		return fmt.Errorf("%w: file digest %s does not match footer %s", ErrCorrupt, digest, r.footer.digest)
	}
	r.logger.Debug("segment verified", "blocks", len(checksums))
	return nil
}

func (r *Reader[V, D]) readEntries(index int) ([]entry.Entry[V, D], error) {
	raw, _, err := r.readBlock(index)
	if err != nil {
		return nil, err
	}
	return r.decodeBlock(index, raw)
}

// readBlock returns the uncompressed payload of a block after checking
// its checksum.
func (r *Reader[V, D]) readBlock(index int) ([]byte, blockHeader, error) {
	start := r.footer.blocks[index].Offset
	end := r.footerOffset
	if index+1 < len(r.footer.blocks) {
		end = r.footer.blocks[index+1].Offset
	}

	data := make([]byte, end-start)
	if err := r.readAt(data, start); err != nil {
		return nil, blockHeader{}, err
	}
	header, err := parseBlockHeader(data)
	if err != nil {
		return nil, blockHeader{}, fmt.Errorf("block %d: %w", index, err)
	}
	stored := data[blockHeaderSize:]
	if uint64(len(stored)) != uint64(header.storedSize) {
		return nil, blockHeader{}, fmt.Errorf("%w: block %d stores %d bytes, header says %d", ErrCorrupt, index, len(stored), header.storedSize)
	}
	raw, err := decompressBlock(stored, header.compression, int(header.rawSize))
	if err != nil {
		return nil, blockHeader{}, fmt.Errorf("%w: block %d: %w", ErrCorrupt, index, err)
	}
	if hashBlock(raw) != header.checksum {
		return nil, blockHeader{}, fmt.Errorf("%w: block %d checksum mismatch", ErrCorrupt, index)
	}
	return raw, header, nil
}

func (r *Reader[V, D]) decodeBlock(index int, raw []byte) ([]entry.Entry[V, D], error) {
	handle := r.footer.blocks[index]
	entries := make([]entry.Entry[V, D], 0, handle.Count)
	for len(raw) > 0 {
		e, rest, err := r.codec.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d entry %d: %w", ErrCorrupt, index, len(entries), err)
		}
		if n := len(entries); n > 0 && entries[n-1].Key.Compare(e.Key) >= 0 {
			return nil, fmt.Errorf("%w: block %d entry %d out of order", ErrCorrupt, index, n)
		}
		entries = append(entries, e)
		raw = rest
	}
	if len(entries) != handle.Count {
		return nil, fmt.Errorf("%w: block %d has %d entries, index says %d", ErrCorrupt, index, len(entries), handle.Count)
	}
	if entries[0].Key != handle.FirstKey {
		return nil, fmt.Errorf("%w: block %d first key %s, index says %s", ErrCorrupt, index, entries[0].Key, handle.FirstKey)
	}
	return entries, nil
}

func (r *Reader[V, D]) readAt(buffer []byte, offset uint64) error {
	if _, err := r.file.ReadAt(buffer, int64(offset)); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected end of file at offset %d", ErrCorrupt, offset)
		}
		return fmt.Errorf("reading segment: %w", err)
	}
	return nil
}
