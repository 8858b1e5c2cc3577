package stego

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

const terminator = 0x00

// EncodeMessage turns message plus its zero terminator into chip
// polarities, most significant bit first: 0 becomes -1 and 1 becomes +1.
func EncodeMessage(message string) []int8 {
	data := append([]byte(message), terminator)
	symbols := make([]int8, 0, len(data)*8)
	for _, bit := range bytesToBits(data) {
		symbols = append(symbols, int8(bit)*2-1)
	}
	return symbols
}

// DecodeBits packs 0/1 bits back into bytes and returns the text before the
// first zero byte.
func DecodeBits(bits []byte) (string, error) {
	data := bitsToBytes(bits)

	end := bytes.IndexByte(data, terminator)
	if end < 0 {
		return "", fmt.Errorf("%w: no terminator in %d recovered bytes", ErrDecode, len(data))
	}
	if !utf8.Valid(data[:end]) {
		return "", fmt.Errorf("%w: %d bytes before terminator are not valid UTF-8", ErrDecode, end)
	}

	return string(data[:end]), nil
}

func bytesToBits(data []byte) []byte {
	bits := make([]byte, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>i)&1)
		}
	}
	return bits
}

// bitsToBytes zero-pads a trailing partial byte.
func bitsToBytes(bits []byte) []byte {
	out := make([]byte, 0, (len(bits)+7)/8)
	for i := 0; i < len(bits); i += 8 {
		var b byte
		for j := 0; j < 8; j++ {
			b <<= 1
			if i+j < len(bits) {
				b |= bits[i+j] & 1
			}
		}
		out = append(out, b)
	}
	return out
}
