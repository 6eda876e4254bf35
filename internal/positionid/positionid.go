// Package positionid encodes board snapshots as GNU Backgammon position IDs.
//
// A position ID is a 14-character base64 string. The snapshot is written as
// a bit stream: for each side and each of its 25 points, one 1-bit per pawn
// followed by a 0-bit. The 80 resulting bits are packed little-endian into
// ten bytes and base64 encoded.
package positionid

import (
	"errors"
)

const (
	// Length is the length of a position ID string.
	Length = 14
	// BarPoint is the point index of the band in a Board.
	BarPoint = 24
	// MaxPawns is the number of pawns a side may have.
	MaxPawns = 15
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// ErrInvalid is returned when a position ID cannot be decoded or describes
// an impossible position.
var ErrInvalid = errors.New("invalid position ID")

// Board is a snapshot as [side][point]. Side 1 is the player on roll, side 0
// the opponent. Each side counts points 0-23 from its own home end; point 24
// is the band.
type Board [2][25]uint8

// key is the packed 80-bit form of a Board.
type key [10]uint8

// setBits writes n consecutive 1-bits starting at bit pos.
func (k *key) setBits(pos, n uint32) {
	for i := uint32(0); i < n; i++ {
		bit := pos + i
		k[bit/8] |= 1 << (bit % 8)
	}
}

func pack(b Board) key {
	var k key
	var pos uint32
	for side := 0; side < 2; side++ {
		for point := 0; point < 25; point++ {
			n := uint32(b[side][point])
			k.setBits(pos, n)
			pos += n + 1
		}
	}
	return k
}

func unpack(k key) (Board, bool) {
	var b Board
	side, point := 0, 0
	for _, cur := range k {
		for bit := 0; bit < 8; bit++ {
			if cur&1 != 0 {
				if side >= 2 {
					return b, false
				}
				b[side][point]++
			} else {
				point++
				if point == 25 {
					side++
					point = 0
				}
			}
			cur >>= 1
		}
	}
	return b, true
}

// Encode returns the position ID of b.
func Encode(b Board) string {
	k := pack(b)
	out := make([]byte, Length)
	src := k[:]
	for i := 0; i < 3; i++ {
		out[i*4] = base64Chars[src[0]>>2]
		out[i*4+1] = base64Chars[((src[0]&0x03)<<4)|(src[1]>>4)]
		out[i*4+2] = base64Chars[((src[1]&0x0F)<<2)|(src[2]>>6)]
		out[i*4+3] = base64Chars[src[2]&0x3F]
		src = src[3:]
	}
	out[12] = base64Chars[src[0]>>2]
	out[13] = base64Chars[(src[0]&0x03)<<4]
	return string(out)
}

func decodeChar(ch byte) (uint8, bool) {
	switch {
	case ch >= 'A' && ch <= 'Z':
		return ch - 'A', true
	case ch >= 'a' && ch <= 'z':
		return ch - 'a' + 26, true
	case ch >= '0' && ch <= '9':
		return ch - '0' + 52, true
	case ch == '+':
		return 62, true
	case ch == '/':
		return 63, true
	}
	return 0, false
}

// Decode parses a position ID. Anything after the first 14 characters (for
// example a ":matchID" suffix) is ignored.
func Decode(id string) (Board, error) {
	if len(id) < Length {
		return Board{}, ErrInvalid
	}

	var v [Length]uint8
	for i := 0; i < Length; i++ {
		c, ok := decodeChar(id[i])
		if !ok {
			return Board{}, ErrInvalid
		}
		v[i] = c
	}

	var k key
	src := v[:]
	for i := 0; i < 3; i++ {
		k[i*3] = (src[0] << 2) | (src[1] >> 4)
		k[i*3+1] = (src[1] << 4) | (src[2] >> 2)
		k[i*3+2] = (src[2] << 6) | src[3]
		src = src[4:]
	}
	k[9] = (src[0] << 2) | (src[1] >> 4)

	b, ok := unpack(k)
	if !ok || !Check(b) {
		return Board{}, ErrInvalid
	}
	return b, nil
}

// Check reports whether b is a possible position: at most 15 pawns a side,
// no point occupied by both sides.
func Check(b Board) bool {
	var total [2]int
	for point := 0; point < 25; point++ {
		total[0] += int(b[0][point])
		total[1] += int(b[1][point])
	}
	if total[0] > MaxPawns || total[1] > MaxPawns {
		return false
	}

	for point := 0; point < 24; point++ {
		if b[0][point] > 0 && b[1][23-point] > 0 {
			return false
		}
	}
	return true
}

// Swap returns b seen from the other side.
func Swap(b Board) Board {
	return Board{b[1], b[0]}
}
