// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/bureau-foundation/storekit/lib/cbor"
)

// toValue converts the output of encoding/json (with UseNumber) or
// yaml.v3 into the value model. Integral numbers stay integers, maps
// are sorted by Key order, and YAML maps with non-text keys keep their
// key types.
func toValue(x any) (cbor.Value, error) {
	switch x := x.(type) {
	case json.Number:
		return numberValue(x)
	case time.Time:
		// YAML timestamps.
		return cbor.FromString(x.Format(time.RFC3339Nano)), nil
	case []any:
		return cbor.FromSlice(x, toValue)
	case map[string]any:
		pairs := make([]cbor.Pair, 0, len(x))
		for name, item := range x {
			value, err := toValue(item)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", name, err)
			}
			pairs = append(pairs, cbor.Pair{Key: cbor.TextKey(name), Value: value})
		}
		cbor.SortPairs(pairs)
		return cbor.NewMap(pairs...), nil
	case map[any]any:
		pairs := make([]cbor.Pair, 0, len(x))
		for name, item := range x {
			key, err := toKey(name)
			if err != nil {
				return nil, err
			}
			value, err := toValue(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			pairs = append(pairs, cbor.Pair{Key: key, Value: value})
		}
		cbor.SortPairs(pairs)
		return cbor.NewMap(pairs...), nil
	default:
		return cbor.ValueOf(x)
	}
}

// numberValue keeps JSON integers as integers, including those beyond
// int64 in either direction that still fit the CBOR integer range.
func numberValue(n json.Number) (cbor.Value, error) {
	text := n.String()
	if integer, err := strconv.ParseInt(text, 10, 64); err == nil {
		return cbor.FromInt(integer), nil
	}
	if integer, err := strconv.ParseUint(text, 10, 64); err == nil {
		return cbor.FromInt(integer), nil
	}
	if negative, ok := new(big.Int).SetString(text, 10); ok && negative.Sign() < 0 {
		// CBOR encodes -1-n; the range reaches down to -2^64.
		n := new(big.Int).Neg(negative)
		n.Sub(n, big.NewInt(1))
		if n.IsUint64() {
			return cbor.NewNint(n.Uint64()), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("number %s: %w", text, err)
	}
	return cbor.FromFloat64(f), nil
}

// toKey converts a scalar from YAML or JSON into a Key.
func toKey(x any) (cbor.Key, error) {
	switch x := x.(type) {
	case string:
		return cbor.TextKey(x), nil
	case bool:
		return cbor.BoolKey(x), nil
	case int:
		return cbor.IntKey(int64(x)), nil
	case int64:
		return cbor.IntKey(x), nil
	case uint64:
		return cbor.UintKey(x), nil
	case float64:
		return cbor.F64Key(x), nil
	case []byte:
		return cbor.BytesKey(x), nil
	case json.Number:
		value, err := numberValue(x)
		if err != nil {
			return cbor.Key{}, err
		}
		return cbor.KeyFromValue(value)
	case nil:
		return cbor.Key{}, fmt.Errorf("null cannot be a key")
	default:
		return cbor.Key{}, fmt.Errorf("%T cannot be a key", x)
	}
}
