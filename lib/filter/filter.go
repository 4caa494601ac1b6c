// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"encoding/json"
	"fmt"

	"github.com/ipfs/bbloom"

	"github.com/bureau-foundation/storekit/lib/cbor"
)

// Filter answers approximate membership queries: Contains may report
// false positives but never false negatives.
type Filter interface {
	cbor.ValueMarshaler

	// Add records data as a member.
	Add(data []byte)

	// Contains reports whether data may be a member.
	Contains(data []byte) bool

	// Len returns the number of Add calls.
	Len() int
}

// Record identifiers.
var (
	noneID  = cbor.FromString("nofilter/1")
	bloomID = cbor.FromString("bloom/1")
)

// KeyDigest returns the bytes a filter is fed for key.
func KeyDigest(key cbor.Key) []byte {
	data, err := cbor.Marshal(key.Value())
	if err != nil {
		// Only the zero Key fails to encode.
		return nil
	}
	return data
}

// NoFilter reports every key as a possible member.
type NoFilter struct {
	count int
}

func (f *NoFilter) Add([]byte)           { f.count++ }
func (f *NoFilter) Contains([]byte) bool { return true }
func (f *NoFilter) Len() int             { return f.count }

// MarshalValue encodes the filter as [39("nofilter/1"), count].
func (f *NoFilter) MarshalValue() (cbor.Value, error) {
	return cbor.NewRecord(noneID, cbor.FromInt(f.count)), nil
}

// Bloom is a Bloom filter sized for an expected number of entries and
// a target false positive rate.
type Bloom struct {
	bloom *bbloom.Bloom
	count int
}

// NewBloom returns an empty Bloom filter.
func NewBloom(expectedEntries int, falsePositiveRate float64) (*Bloom, error) {
	if expectedEntries <= 0 {
		return nil, fmt.Errorf("bloom filter: expected entries must be positive, got %d", expectedEntries)
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		return nil, fmt.Errorf("bloom filter: false positive rate must be in (0, 1), got %v", falsePositiveRate)
	}
	bloom, err := bbloom.New(float64(expectedEntries), falsePositiveRate)
	if err != nil {
		return nil, fmt.Errorf("bloom filter: %w", err)
	}
	return &Bloom{bloom: bloom}, nil
}

func (f *Bloom) Add(data []byte) {
	f.bloom.Add(data)
	f.count++
}

func (f *Bloom) Contains(data []byte) bool { return f.bloom.Has(data) }

func (f *Bloom) Len() int { return f.count }

// FillRatio returns the fraction of bits set.
func (f *Bloom) FillRatio() float64 { return f.bloom.FillRatio() }

// bloomExport mirrors the JSON export of bbloom.
type bloomExport struct {
	FilterSet []byte
	SetLocs   uint64
}

// MarshalValue encodes the filter as
// [39("bloom/1"), bitset, hash locations, count].
func (f *Bloom) MarshalValue() (cbor.Value, error) {
	var export bloomExport
	if err := json.Unmarshal(f.bloom.JSONMarshal(), &export); err != nil {
		return nil, fmt.Errorf("bloom filter: reading export: %w", err)
	}
	return cbor.NewRecord(bloomID,
		cbor.FromBytes(export.FilterSet),
		cbor.FromInt(export.SetLocs),
		cbor.FromInt(f.count),
	), nil
}

// Unmarshal restores a filter written by a Filter's MarshalValue.
func Unmarshal(v cbor.Value) (Filter, error) {
	if fields, err := cbor.OpenRecord(v, noneID, 1); err == nil {
		count, err := cbor.ToInt[int](fields[0])
		if err != nil {
			return nil, fmt.Errorf("nofilter count: %w", err)
		}
		return &NoFilter{count: count}, nil
	}

	fields, err := cbor.OpenRecord(v, bloomID, 3)
	if err != nil {
		return nil, fmt.Errorf("unknown filter record: %w", err)
	}
	bitset, err := cbor.ToBytes(fields[0])
	if err != nil {
		return nil, fmt.Errorf("bloom bitset: %w", err)
	}
	// bbloom sizes are powers of two, at least 512 bits.
	if len(bitset) < 64 || len(bitset)&(len(bitset)-1) != 0 {
		return nil, fmt.Errorf("bloom bitset: invalid size %d", len(bitset))
	}
	locations, err := cbor.ToInt[uint64](fields[1])
	if err != nil {
		return nil, fmt.Errorf("bloom hash locations: %w", err)
	}
	if locations == 0 || locations > 64 {
		return nil, fmt.Errorf("bloom hash locations: invalid count %d", locations)
	}
	count, err := cbor.ToInt[int](fields[2])
	if err != nil {
		return nil, fmt.Errorf("bloom count: %w", err)
	}
	return &Bloom{bloom: bbloom.NewWithBoolset(bitset, locations), count: count}, nil
}
