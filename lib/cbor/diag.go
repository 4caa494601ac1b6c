// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Diagnose renders v in diagnostic notation: integers in decimal,
// h'..' byte strings, quoted text, [..] arrays, {k: v} maps, N(..)
// tags and (_ ..) for indefinite-length items. Raw values are decoded
// for display; an undecodable raw value is shown as raw(h'..').
func Diagnose(v Value) string {
	var builder strings.Builder
	diagnose(&builder, v)
	return builder.String()
}

func diagnose(builder *strings.Builder, v Value) {
	switch v := v.(type) {
	case Uint:
		builder.WriteString(strconv.FormatUint(v.N, 10))
	case Nint:
		builder.WriteString(nintString(v.N))
	case Bytes:
		if v.Info == InfoIndefinite {
			fmt.Fprintf(builder, "(_ h'%x')", v.Data)
			return
		}
		fmt.Fprintf(builder, "h'%x'", v.Data)
	case Text:
		if v.Info == InfoIndefinite {
			fmt.Fprintf(builder, "(_ %s)", strconv.Quote(string(v.Data)))
			return
		}
		builder.WriteString(strconv.Quote(string(v.Data)))
	case Array:
		builder.WriteByte('[')
		if v.Info == InfoIndefinite {
			builder.WriteString("_ ")
		}
		for i, item := range v.Items {
			if i > 0 {
				builder.WriteString(", ")
			}
			diagnose(builder, item)
		}
		builder.WriteByte(']')
	case Map:
		builder.WriteByte('{')
		if v.Info == InfoIndefinite {
			builder.WriteString("_ ")
		}
		for i, pair := range v.Pairs {
			if i > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(pair.Key.String())
			builder.WriteString(": ")
			diagnose(builder, pair.Value)
		}
		builder.WriteByte('}')
	case Tagged:
		if v.Tag.IsIdentifier() {
			fmt.Fprintf(builder, "%d(", IdentifierTag)
			diagnose(builder, v.Tag.Payload())
			builder.WriteByte(')')
			return
		}
		fmt.Fprintf(builder, "%d(_)", v.Tag.Number())
	case Simple:
		builder.WriteString(simpleString(v.Value))
	case Raw:
		decoded, err := v.Decode()
		if err != nil {
			fmt.Fprintf(builder, "raw(h'%x')", v.data)
			return
		}
		diagnose(builder, decoded)
	case nil:
		builder.WriteString("<nil>")
	default:
		fmt.Fprintf(builder, "<%T>", v)
	}
}

func simpleString(s SimpleValue) string {
	switch s.Kind {
	case SimpleF32:
		return formatFloat(float64(s.Float32()), 32) + "_2"
	case SimpleF64:
		return formatFloat(s.Float64(), 64) + "_3"
	case SimpleReserved24:
		return fmt.Sprintf("simple(%d)", s.Bits)
	default:
		return s.Kind.String()
	}
}

// nintString formats -(magnitude+1) without overflowing int64.
func nintString(magnitude uint64) string {
	if magnitude < math.MaxInt64 {
		return strconv.FormatInt(-int64(magnitude)-1, 10)
	}
	n := new(big.Int).SetUint64(magnitude)
	n.Add(n, big.NewInt(1))
	return n.Neg(n).String()
}

func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	text := strconv.FormatFloat(f, 'g', -1, bitSize)
	if !strings.ContainsAny(text, ".eEn") {
		text += ".0"
	}
	return text
}
