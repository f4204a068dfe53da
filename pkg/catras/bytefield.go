package catras

import "fmt"

// Byte-pair domain. Pairs with msb > 128 are negative, everything else
// (including msb == 128) is positive, so the representable range is
// asymmetric.
const (
	MinBytePair = -32512
	MaxBytePair = 33023
)

// ReadU8 returns the unsigned byte at pos.
func ReadU8(buf []byte, pos int) (uint8, error) {
	if pos < 0 || pos >= len(buf) {
		return 0, fmt.Errorf("%w: byte %d of %d", ErrOutOfRange, pos, len(buf))
	}
	return buf[pos], nil
}

// ReadBytePair decodes the little-endian pair at pos, pos+1 using the
// CATRAS sign rule. This is not two's complement: msb == 128 decodes as a
// positive value.
func ReadBytePair(buf []byte, pos int) (int, error) {
	if pos < 0 || pos+1 >= len(buf) {
		return 0, fmt.Errorf("%w: byte pair at %d of %d", ErrOutOfRange, pos, len(buf))
	}
	return decodePair(buf[pos], buf[pos+1]), nil
}

func decodePair(lo, hi byte) int {
	lsb, msb := int(lo), int(hi)
	if msb > 128 {
		return -1 - ((255 - lsb) + 256*(255-msb))
	}
	return lsb + 256*msb
}

// PutBytePair encodes v as a little-endian pair that ReadBytePair decodes
// back to v.
func PutBytePair(v int) ([2]byte, error) {
	if v < MinBytePair || v > MaxBytePair {
		return [2]byte{}, fmt.Errorf("%w: value %d outside [%d, %d]", ErrEncoding, v, MinBytePair, MaxBytePair)
	}
	if v >= 0 {
		return [2]byte{byte(v % 256), byte(v / 256)}, nil
	}
	u := v + 65536
	return [2]byte{byte(u & 0xFF), byte(u >> 8)}, nil
}

// Slice returns buf[start:end+1]; both bounds are inclusive.
func Slice(buf []byte, start, end int) ([]byte, error) {
	if start < 0 || end < start || end >= len(buf) {
		return nil, fmt.Errorf("%w: bytes %d-%d of %d", ErrOutOfRange, start, end, len(buf))
	}
	return buf[start : end+1], nil
}

// roundUp128 rounds n up to the next multiple of BlockSize.
func roundUp128(n int) int {
	if r := n % BlockSize; r != 0 {
		return n + BlockSize - r
	}
	return n
}
