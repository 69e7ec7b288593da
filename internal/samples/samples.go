// Package samples converts between on-disk sample encodings and complex
// values.
//
// Complex SAR pixels are stored as adjacent real/imaginary component pairs
// with a file-specific component width and byte order:
//
//	RE32F_IM32F: [re0 im0 re1 im1 ...] as 32-bit floats
//	RE16I_IM16I: [re0 im0 re1 im1 ...] as 16-bit signed integers
//
// The decode functions turn pixel bytes into complex values or band planes;
// the encode functions reverse them. If out is nil, a new buffer of the
// right size is allocated.
package samples

import (
	"encoding/binary"
	"math"
)

// DecodeRE32F decodes float32 real/imaginary pairs into complex values.
// len(data) must be a multiple of 8.
func DecodeRE32F(data []byte, order binary.ByteOrder, out []complex128) []complex128 {
	n := len(data) / 8
	if out == nil {
		out = make([]complex128, n)
	}
	for i := 0; i < n; i++ {
		re := math.Float32frombits(order.Uint32(data[i*8:]))
		im := math.Float32frombits(order.Uint32(data[i*8+4:]))
		out[i] = complex(float64(re), float64(im))
	}
	return out
}

// EncodeRE32F encodes complex values as float32 real/imaginary pairs.
// The imaginary and real parts are truncated to float32 precision.
func EncodeRE32F(src []complex128, order binary.ByteOrder, out []byte) []byte {
	if out == nil {
		out = make([]byte, len(src)*8)
	}
	for i, v := range src {
		order.PutUint32(out[i*8:], math.Float32bits(float32(real(v))))
		order.PutUint32(out[i*8+4:], math.Float32bits(float32(imag(v))))
	}
	return out
}

// DecodeRE16I decodes int16 real/imaginary pairs into separate real and
// imaginary float32 planes, the band-sequential layout chippers expect.
// len(data) must be a multiple of 4.
func DecodeRE16I(data []byte, order binary.ByteOrder, re, im []float32) (outRe, outIm []float32) {
	n := len(data) / 4
	if re == nil {
		re = make([]float32, n)
	}
	if im == nil {
		im = make([]float32, n)
	}
	for i := 0; i < n; i++ {
		re[i] = float32(int16(order.Uint16(data[i*4:])))
		im[i] = float32(int16(order.Uint16(data[i*4+2:])))
	}
	return re, im
}

// EncodeRE16I encodes complex values as int16 real/imaginary pairs.
// Components are rounded to the nearest integer and clamped to the int16
// range.
func EncodeRE16I(src []complex128, order binary.ByteOrder, out []byte) []byte {
	if out == nil {
		out = make([]byte, len(src)*4)
	}
	for i, v := range src {
		order.PutUint16(out[i*4:], uint16(clampInt16(real(v))))
		order.PutUint16(out[i*4+2:], uint16(clampInt16(imag(v))))
	}
	return out
}

func clampInt16(v float64) int16 {
	r := math.RoundToEven(v)
	if r > math.MaxInt16 {
		return math.MaxInt16
	}
	if r < math.MinInt16 {
		return math.MinInt16
	}
	return int16(r)
}

// PairsToComplex combines matching real and imaginary planes into complex
// values.
func PairsToComplex(re, im []float32, out []complex128) []complex128 {
	if out == nil {
		out = make([]complex128, len(re))
	}
	for i := range re {
		out[i] = complex(float64(re[i]), float64(im[i]))
	}
	return out
}
