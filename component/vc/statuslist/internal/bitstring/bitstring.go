/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package bitstring operates on byte slices as 0-indexed arrays of bits,
// packed 8 bits to a byte, LSB-first, and converts them to and from the
// compressed text form used by Bitstring Status List credentials
// (gzip, then raw base64url).
package bitstring

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
)

const bitsPerByte = 8

// New returns an all-zero bitstring with capacity for numBits bits. When
// numBits is not a multiple of 8 the final byte carries zero padding bits;
// Decode ignores them.
func New(numBits int) []byte {
	return make([]byte, byteLen(numBits))
}

// Encode gzips a bitstring and encodes it as a raw urlsafe base-64 string.
// Encoding is deterministic: the same bits always produce byte-identical
// output, so re-encoding an unchanged list never invalidates a signature
// over the published credential.
func Encode(bitString []byte) (string, error) {
	var buf bytes.Buffer

	w := gzip.NewWriter(&buf)
	if _, err := w.Write(bitString); err != nil {
		return "", err
	}

	if err := w.Close(); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode decodes a compressed bitstring from a base64URL-encoded string and
// verifies that it holds exactly numBits bits. Truncated or corrupt input is
// rejected, never zero-filled.
func Decode(src string, numBits int) ([]byte, error) {
	compressed, err := base64.RawURLEncoding.Strict().DecodeString(src)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	zipReader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}

	// Inflate at most one byte past the expected length so an oversized
	// payload fails the length check below without ballooning memory.
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, io.LimitReader(zipReader, int64(byteLen(numBits))+1)); err != nil {
		return nil, fmt.Errorf("read gzip stream: %w", err)
	}

	if err := zipReader.Close(); err != nil {
		return nil, fmt.Errorf("close gzip stream: %w", err)
	}

	if buf.Len() != byteLen(numBits) {
		return nil, fmt.Errorf("bitstring holds %d bytes, expected %d for %d bits",
			buf.Len(), byteLen(numBits), numBits)
	}

	return buf.Bytes(), nil
}

// BitAt returns the bit in the idx'th position (zero-indexed) in the given
// bitstring.
func BitAt(bitString []byte, idx int) (bool, error) {
	nByte := idx / bitsPerByte
	nBit := idx % bitsPerByte

	if idx < 0 || nByte >= len(bitString) {
		return false, fmt.Errorf("position %d is invalid", idx)
	}

	return bitString[nByte]&(1<<nBit) != 0, nil
}

// SetBit sets or clears the bit in the idx'th position (zero-indexed) in the
// given bitstring, in place.
func SetBit(bitString []byte, idx int, value bool) error {
	nByte := idx / bitsPerByte
	nBit := idx % bitsPerByte

	if idx < 0 || nByte >= len(bitString) {
		return fmt.Errorf("position %d is invalid", idx)
	}

	if value {
		bitString[nByte] |= 1 << nBit
	} else {
		bitString[nByte] &^= 1 << nBit
	}

	return nil
}

func byteLen(numBits int) int {
	return (numBits + bitsPerByte - 1) / bitsPerByte
}
