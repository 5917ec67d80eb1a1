// Copyright 2024 The Erigon Authors
// (modifications)
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package block

import (
	"unsafe"

	"github.com/klauspost/compress/zstd"
)

// CompressionCodec is the narrow interface behind the `compressed` state
// bit (spec.md §3.5 declares the bit in-core; the codec itself is
// explicitly out of scope per §1 "compression (zlib)... thin layers over
// the core"). It never participates in construct/copy/move/destroy/
// compare/hash -- those always operate on the decompressed view.
type CompressionCodec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// zstdCodec is the one concrete CompressionCodec this repo ships, backed
// by klauspost/compress/zstd.
type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstdCodec builds the zstd-backed CompressionCodec.
func NewZstdCodec() (CompressionCodec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &zstdCodec{enc: enc, dec: dec}, nil
}

func (c *zstdCodec) Compress(data []byte) ([]byte, error) {
	return c.enc.EncodeAll(data, nil), nil
}

func (c *zstdCodec) Decompress(data []byte) ([]byte, error) {
	return c.dec.DecodeAll(data, nil)
}

// Compress sets the Compressed state bit and returns a compressed copy of
// the Block's current POD byte range. It does not mutate the Block's own
// storage -- callers persist the returned bytes and later rebuild a Block
// from them via Decompress.
func (b *Block) Compress(codec CompressionCodec) ([]byte, error) {
	if b.typ == nil || !b.typ.IsPOD || b.state.Has(Sparse) {
		return nil, ErrTypeMismatch
	}
	raw := unsafe.Slice((*byte)(b.raw), uintptr(b.count)*b.stride())
	out, err := codec.Compress(raw)
	if err != nil {
		return nil, err
	}
	b.state = b.state.with(Compressed)
	return out, nil
}

// Decompress replaces the Block's contents with the decompressed bytes,
// clearing the Compressed state bit.
func (b *Block) Decompress(codec CompressionCodec, data []byte) error {
	out, err := codec.Decompress(data)
	if err != nil {
		return err
	}
	if b.typ == nil || b.stride() == 0 {
		return ErrTypeMismatch
	}
	stride := b.stride()
	n := len(out) / int(stride)
	if err := b.Allocate(n, false); err != nil {
		return err
	}
	copy(unsafe.Slice((*byte)(b.raw), uintptr(n)*stride), out)
	b.count = n
	b.state = b.state.without(Compressed)
	return nil
}
