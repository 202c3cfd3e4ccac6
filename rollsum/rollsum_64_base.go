package rollsum

import (
    "encoding/binary"
)

const rollsum64Size = 8

/*
 * Rollsum64Base is the arithmetic core of the rolling checksum, decoupled from window storage so that the comparer
 * and the hash.Hash wrapper can each manage the window bytes in the way that suits them.
 *
 * The two internal sums are kept in uint64 with no modulus applied. `a` is the plain byte sum of the window, `b` is
 * the position-weighted sum (the byte at offset i of a window of length L carries weight L-i). Both are bounded by
 * the window content rather than the stream position: a <= 255*L and b <= 255*L*(L+1)/2, so for any block size up
 * to ~1.4M the composite value (b<<16)|a is exactly what unbounded-precision arithmetic would produce. Beyond that,
 * the shift quietly truncates the top bits of b; pick a smaller block size instead of relying on that.
 */
func NewRollsum64Base(blockSize uint) *Rollsum64Base {
    return &Rollsum64Base{blockSize: blockSize}
}

type Rollsum64Base struct {
    blockSize uint
    a, b      uint64
}

// Add a single byte into the rollsum
func (r *Rollsum64Base) AddByte(c byte) {
    r.a += uint64(c)
    r.b += r.a
}

func (r *Rollsum64Base) AddBytes(bs []byte) {
    for _, c := range bs {
        r.a += uint64(c)
        r.b += r.a
    }
}

// Remove a byte from the head of the window. The removed byte always carried a weight of blockSize, regardless
// of how many bytes the window still holds (a shrinking window behaves as if zero-padded back up to blockSize).
func (r *Rollsum64Base) RemoveByte(c byte) {
    r.a -= uint64(c)
    r.b -= uint64(r.blockSize) * uint64(c)
}

/*
 * Rotate slides the window one byte: the head byte leaves, the new byte enters at the tail.
 *
 * The order of operations matters. The weighted sum picks up the *already updated* byte sum
 * (b' = b - out*blockSize + a'), and that is what keeps the rolled value identical to recomputing the checksum
 * of the shifted window from scratch. Swapping the two updates changes every subsequent value.
 */
func (r *Rollsum64Base) Rotate(out, in byte) {
    r.RemoveByte(out)
    r.AddByte(in)
}

// RemoveHead shrinks the window from the head with nothing entering at the tail. Used once the candidate
// stream is exhausted; equivalent to rotating in a zero byte.
func (r *Rollsum64Base) RemoveHead(out byte) {
    r.Rotate(out, 0)
}

// Set a whole block of up to blockSize bytes, replacing any previous state
func (r *Rollsum64Base) SetBlock(block []byte) {
    r.Reset()
    r.AddBytes(block)
}

// Reset the hash to the initial state
func (r *Rollsum64Base) Reset() {
    r.a, r.b = 0, 0
}

// size of the hash in bytes
func (r *Rollsum64Base) Size() int {
    return rollsum64Size
}

// Sum64 returns the composite weak checksum (b << 16) | a.
func (r *Rollsum64Base) Sum64() uint64 {
    return (r.b << 16) | r.a
}

// Puts the sum into b. Avoids allocation. b must have length >= 8
func (r *Rollsum64Base) GetSum(b []byte) {
    binary.LittleEndian.PutUint64(b, r.Sum64())
}
