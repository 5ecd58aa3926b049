package ws

import (
	"encoding/binary"
	"fmt"
	"math"

	"x-terrain/internal/transport"
)

// Двоичный кадр: [kind:1][tag:int32][count:int32][payload].
// Числа - little-endian; double - IEEE 754 бит-в-бит.
const headerLen = 9

type frame struct {
	kind    transport.Kind
	tag     int32
	payload []byte
}

func elemSize(kind transport.Kind) int {
	switch kind {
	case transport.KindDoubles:
		return 8
	case transport.KindInts, transport.KindUints, transport.KindFloats:
		return 4
	default:
		return 0
	}
}

func encodeFrame(kind transport.Kind, tag int, count int, put func(b []byte)) []byte {
	elem := elemSize(kind)
	buf := make([]byte, headerLen+elem*count)
	buf[0] = byte(kind)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(int32(tag)))
	binary.LittleEndian.PutUint32(buf[5:9], uint32(int32(count)))
	if count > 0 {
		put(buf[headerLen:])
	}
	return buf
}

func encodeDoubles(tag int, data []float64) []byte {
	return encodeFrame(transport.KindDoubles, tag, len(data), func(b []byte) {
		for i, v := range data {
			binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(v))
		}
	})
}

func encodeInts(tag int, data []int32) []byte {
	return encodeFrame(transport.KindInts, tag, len(data), func(b []byte) {
		for i, v := range data {
			binary.LittleEndian.PutUint32(b[4*i:], uint32(v))
		}
	})
}

func encodeUints(tag int, data []uint32) []byte {
	return encodeFrame(transport.KindUints, tag, len(data), func(b []byte) {
		for i, v := range data {
			binary.LittleEndian.PutUint32(b[4*i:], v)
		}
	})
}

func encodeFloats(tag int, data []float32) []byte {
	return encodeFrame(transport.KindFloats, tag, len(data), func(b []byte) {
		for i, v := range data {
			binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
		}
	})
}

func encodeControl(kind transport.Kind, tag int) []byte {
	return encodeFrame(kind, tag, 0, nil)
}

func decodeFrame(buf []byte) (frame, error) {
	if len(buf) < headerLen {
		return frame{}, fmt.Errorf("ws: кадр короче заголовка (%d байт)", len(buf))
	}
	f := frame{
		kind:    transport.Kind(buf[0]),
		tag:     int32(binary.LittleEndian.Uint32(buf[1:5])),
		payload: buf[headerLen:],
	}
	count := int32(binary.LittleEndian.Uint32(buf[5:9]))

	elem := elemSize(f.kind)
	if elem > 0 && len(f.payload) != elem*int(count) {
		return frame{}, fmt.Errorf("ws: длина кадра %d не соответствует count=%d", len(f.payload), count)
	}
	return f, nil
}

func (f frame) doubles() []float64 {
	out := make([]float64, len(f.payload)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(f.payload[8*i:]))
	}
	return out
}

func (f frame) ints() []int32 {
	out := make([]int32, len(f.payload)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(f.payload[4*i:]))
	}
	return out
}

func (f frame) uints() []uint32 {
	out := make([]uint32, len(f.payload)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(f.payload[4*i:])
	}
	return out
}

func (f frame) floats() []float32 {
	out := make([]float32, len(f.payload)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(f.payload[4*i:]))
	}
	return out
}
