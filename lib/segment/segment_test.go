// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/storekit/lib/cbor"
	"github.com/bureau-foundation/storekit/lib/entry"
	"github.com/bureau-foundation/storekit/lib/filter"
	"github.com/bureau-foundation/storekit/lib/testutil"
)

var keyComparer = cmp.Comparer(func(a, b cbor.Key) bool { return a == b })

type stringEntry = entry.Entry[string, string]

func stringCodec() entry.Codec[string, string] {
	return entry.SnapshotCodec(func(s string) (cbor.Value, error) { return cbor.FromString(s), nil }, cbor.ToString)
}

// evenEntries returns count entries keyed 0, 2, 4, ...
func evenEntries(count int) []stringEntry {
	entries := make([]stringEntry, count)
	for i := range entries {
		entries[i] = entry.New[string, string](cbor.UintKey(uint64(i*2)), fmt.Sprintf("value number %d", i), uint64(i+1))
	}
	return entries
}

func writeSegment(t *testing.T, entries []stringEntry, options WriterOptions) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), testutil.UniqueID("segment")+".sks")
	writer, err := Create(path, stringCodec(), options)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, e := range entries {
		if err := writer.Append(e); err != nil {
			t.Fatalf("Append(%s): %v", e.Key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func openSegment(t *testing.T, path string) *Reader[string, string] {
	t.Helper()
	reader, err := Open(path, stringCodec(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { reader.Close() })
	return reader
}

func TestWriteReadRoundTrip(t *testing.T) {
	entries := evenEntries(500)
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd, CompressionAuto} {
		t.Run(compression.String(), func(t *testing.T) {
			bloom, err := filter.NewBloom(len(entries), 0.01)
			if err != nil {
				t.Fatalf("NewBloom: %v", err)
			}
			path := writeSegment(t, entries, WriterOptions{BlockSize: 512, Compression: compression, Filter: bloom})
			reader := openSegment(t, path)

			if reader.Len() != len(entries) {
				t.Errorf("Len = %d, want %d", reader.Len(), len(entries))
			}
			if len(reader.Blocks()) < 2 {
				t.Errorf("got %d blocks, want several", len(reader.Blocks()))
			}
			if _, ok := reader.Filter().(*filter.Bloom); !ok {
				t.Errorf("Filter = %T, want *filter.Bloom", reader.Filter())
			}

			for _, want := range entries {
				got, found, err := reader.Get(want.Key)
				if err != nil {
					t.Fatalf("Get(%s): %v", want.Key, err)
				}
				if !found {
					t.Fatalf("Get(%s): not found", want.Key)
				}
				if diff := cmp.Diff(want, got, keyComparer); diff != "" {
					t.Fatalf("Get(%s) mismatch (-want +got):\n%s", want.Key, diff)
				}
			}
			for _, key := range []cbor.Key{cbor.UintKey(1), cbor.UintKey(999), cbor.UintKey(5000), cbor.TextKey("0"), cbor.BoolKey(true)} {
				if _, found, err := reader.Get(key); err != nil || found {
					t.Errorf("Get(%s) = found %v, %v; want absent", key, found, err)
				}
			}

			if err := reader.Verify(); err != nil {
				t.Errorf("Verify: %v", err)
			}
		})
	}
}

func TestScanInOrder(t *testing.T) {
	entries := evenEntries(100)
	reader := openSegment(t, writeSegment(t, entries, WriterOptions{BlockSize: 200}))

	var scanned []stringEntry
	if err := reader.Scan(func(e stringEntry) error {
		scanned = append(scanned, e)
		return nil
	}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if diff := cmp.Diff(entries, scanned, keyComparer); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}

	stop := errors.New("stop")
	visited := 0
	err := reader.Scan(func(stringEntry) error {
		visited++
		if visited == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || visited != 3 {
		t.Errorf("Scan = %v after %d entries, want stop after 3", err, visited)
	}
}

func TestEntriesKeepHistory(t *testing.T) {
	differ := entry.Snapshot[string]{}
	live := entry.New[string, string](cbor.TextKey("live"), "one", 1)
	live.Insert(differ, "two", 4)
	deleted := entry.New[string, string](cbor.TextKey("removed"), "gone", 2)
	deleted.Delete(differ, 5)
	tombstone := entry.NewDeleted[string, string](cbor.TextKey("tombstone"), 3)
	entries := []stringEntry{live, deleted, tombstone}

	reader := openSegment(t, writeSegment(t, entries, WriterOptions{}))
	for _, want := range entries {
		got, found, err := reader.Get(want.Key)
		if err != nil || !found {
			t.Fatalf("Get(%s) = found %v, %v", want.Key, found, err)
		}
		if diff := cmp.Diff(want, got, keyComparer); diff != "" {
			t.Errorf("Get(%s) mismatch (-want +got):\n%s", want.Key, diff)
		}
	}
}

func TestMixedKeyKinds(t *testing.T) {
	keys := []cbor.Key{
		cbor.BoolKey(false),
		cbor.IntKey(-10),
		cbor.UintKey(3),
		cbor.F64Key(0.5),
		cbor.BytesKey([]byte{1}),
		cbor.TextKey("a"),
	}
	entries := make([]stringEntry, len(keys))
	for i, key := range keys {
		entries[i] = entry.New[string, string](key, key.String(), 1)
	}
	reader := openSegment(t, writeSegment(t, entries, WriterOptions{BlockSize: 16}))
	for _, key := range keys {
		got, found, err := reader.Get(key)
		if err != nil || !found || got.Current.Value != key.String() {
			t.Errorf("Get(%s) = %q, found %v, %v", key, got.Current.Value, found, err)
		}
	}
}

func TestAppendRejectsOutOfOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment.sks")
	writer, err := Create(path, stringCodec(), WriterOptions{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer writer.Abort()

	if err := writer.Append(entry.New[string, string](cbor.UintKey(5), "five", 1)); err != nil {
		t.Fatalf("Append(5): %v", err)
	}
	if err := writer.Append(entry.New[string, string](cbor.UintKey(5), "again", 2)); err == nil {
		t.Error("Append of a duplicate key should fail")
	}
	if err := writer.Append(entry.New[string, string](cbor.UintKey(4), "four", 3)); err == nil {
		t.Error("Append of a smaller key should fail")
	}
	if err := writer.Append(entry.New[string, string](cbor.Key{}, "none", 4)); err == nil {
		t.Error("Append of the zero key should fail")
	}
	if writer.Len() != 1 {
		t.Errorf("Len = %d, want 1", writer.Len())
	}
}

func TestNothingAppearsUntilClose(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "segment.sks")

	writer, err := Create(path, stringCodec(), WriterOptions{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := writer.Append(entry.New[string, string](cbor.UintKey(1), "one", 1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Stat before Close = %v, want not exist", err)
	}

	writer.Abort()
	remaining, err := os.ReadDir(directory)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("Abort left %d files behind", len(remaining))
	}
	if err := writer.Close(); err == nil {
		t.Error("Close after Abort should fail")
	}
}

func TestEmptySegment(t *testing.T) {
	reader := openSegment(t, writeSegment(t, nil, WriterOptions{}))
	if reader.Len() != 0 || len(reader.Blocks()) != 0 {
		t.Errorf("Len = %d, blocks = %d, want empty", reader.Len(), len(reader.Blocks()))
	}
	if _, found, err := reader.Get(cbor.UintKey(0)); err != nil || found {
		t.Errorf("Get on empty segment = found %v, %v", found, err)
	}
	if err := reader.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestOversizedEntryGetsOwnBlock(t *testing.T) {
	entries := []stringEntry{
		entry.New[string, string](cbor.UintKey(1), string(make([]byte, 4096)), 1),
		entry.New[string, string](cbor.UintKey(2), "small", 2),
	}
	reader := openSegment(t, writeSegment(t, entries, WriterOptions{BlockSize: 1024, Compression: CompressionLZ4}))
	if got := len(reader.Blocks()); got != 2 {
		t.Errorf("got %d blocks, want 2", got)
	}
	if err := reader.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestCreateRejectsUnknownCompression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment.sks")
	if _, err := Create(path, stringCodec(), WriterOptions{Compression: Compression(42)}); err == nil {
		t.Error("Create with unknown compression should fail")
	}
}

// corrupt writes a copy of the segment at path with data modified by
// change, and returns the copy's path.
func corrupt(t *testing.T, path string, change func(data []byte) []byte) string {
	t.Helper()
	data := change(testutil.ReadFile(t, path))
	return testutil.WriteFile(t, t.TempDir(), testutil.UniqueID("corrupt")+".sks", data)
}

func TestCorruptBlockDetected(t *testing.T) {
	path := writeSegment(t, evenEntries(50), WriterOptions{BlockSize: 128})
	reader := openSegment(t, path)
	first := reader.Blocks()[0]

	damaged := corrupt(t, path, func(data []byte) []byte {
		data[first.Offset+blockHeaderSize+3] ^= 0xff
		return data
	})
	damagedReader := openSegment(t, damaged)

	if err := damagedReader.Verify(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Verify = %v, want ErrCorrupt", err)
	}
	if _, _, err := damagedReader.Get(first.FirstKey); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Get in damaged block = %v, want ErrCorrupt", err)
	}
	if err := damagedReader.Scan(func(stringEntry) error { return nil }); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Scan = %v, want ErrCorrupt", err)
	}

	// Blocks after the damaged one still serve lookups.
	last := reader.Blocks()[len(reader.Blocks())-1]
	if _, found, err := damagedReader.Get(last.FirstKey); err != nil || !found {
		t.Errorf("Get in intact block = found %v, %v", found, err)
	}
}

func TestCorruptFileRejectedOnOpen(t *testing.T) {
	path := writeSegment(t, evenEntries(20), WriterOptions{})
	size := len(testutil.ReadFile(t, path))

	tests := []struct {
		name   string
		change func([]byte) []byte
	}{
		{"header magic", func(data []byte) []byte {
			data[0] = 'X'
			return data
		}},
		{"trailer magic", func(data []byte) []byte {
			data[len(data)-1] = 'X'
			return data
		}},
		{"truncated", func(data []byte) []byte { return data[:len(data)-5] }},
		{"too short", func(data []byte) []byte { return data[:10] }},
		{"footer offset past end", func(data []byte) []byte {
			binary.BigEndian.PutUint64(data[len(data)-trailerSize:], uint64(size))
			return data
		}},
		{"footer offset into blocks", func(data []byte) []byte {
			binary.BigEndian.PutUint64(data[len(data)-trailerSize:], uint64(len(magic)))
			return data
		}},
		{"footer byte", func(data []byte) []byte {
			offset := binary.BigEndian.Uint64(data[len(data)-trailerSize:])
			data[offset+1] ^= 0xff
			return data
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			damaged := corrupt(t, path, tt.change)
			reader, err := Open(damaged, stringCodec(), nil)
			if err == nil {
				reader.Close()
				t.Fatal("Open succeeded on a damaged file")
			}
			if !errors.Is(err, ErrCorrupt) {
				t.Errorf("Open = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.sks"), stringCodec(), nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open = %v, want not exist", err)
	}
}

func BenchmarkGet(b *testing.B) {
	directory := b.TempDir()
	path := filepath.Join(directory, "bench.sks")
	writer, err := Create(path, stringCodec(), WriterOptions{Compression: CompressionLZ4})
	if err != nil {
		b.Fatal(err)
	}
	for _, e := range evenEntries(10000) {
		if err := writer.Append(e); err != nil {
			b.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		b.Fatal(err)
	}
	reader, err := Open(path, stringCodec(), nil)
	if err != nil {
		b.Fatal(err)
	}
	defer reader.Close()

	key := cbor.UintKey(9000)
	for b.Loop() {
		if _, _, err := reader.Get(key); err != nil {
			b.Fatal(err)
		}
	}
}
