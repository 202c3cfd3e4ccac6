/*
 * rollsum provides the rolling checksum used for the cheap first-tier comparison of candidate windows against
 * reference blocks. It is inspired by the checksum in rsync, but keeps its internal values in 64bit integers and
 * applies no modulus, matching the arithmetic of the original pyzsync implementation (see Rollsum64Base for the
 * exact bounds this puts on usable block sizes).
 *
 * Rollsum64 wraps the arithmetic with its own circular window storage and implements hash.Hash, which is mostly a
 * convenience for signature generation and tests; the comparer drives Rollsum64Base directly so that it controls
 * the eviction order itself.
 */
package rollsum

import (
    "github.com/FranciscoSilveira/pyzsync/circularbuffer"
)

func NewRollsum64(blockSize uint) *Rollsum64 {
    return &Rollsum64{
        Rollsum64Base: Rollsum64Base{
            blockSize: blockSize,
        },
        buffer: circularbuffer.MakeC2Buffer(int(blockSize)),
    }
}

// Rollsum64 is a rolling checksum over the last blockSize bytes written to it.
// Create one using NewRollsum64
type Rollsum64 struct {
    Rollsum64Base
    buffer *circularbuffer.C2
}

// cannot be called concurrently
func (r *Rollsum64) Write(p []byte) (n int, err error) {
    ulen := uint(len(p))

    if ulen >= r.blockSize {
        // long writes displace the entire window
        remaining := p[ulen-r.blockSize:]
        r.buffer.Write(remaining)
        r.Rollsum64Base.SetBlock(remaining)
    } else {
        r.buffer.Write(p)
        evicted := r.buffer.Evicted()

        // adds and removals must interleave head-removal-first per slid byte,
        // or the weighted sum picks up bytes that should already have left
        pairStart := len(p) - len(evicted)
        r.Rollsum64Base.AddBytes(p[:pairStart])
        for i, c := range evicted {
            r.Rollsum64Base.Rotate(c, p[pairStart+i])
        }
    }

    return len(p), nil
}

// The most efficient byte length to call Write with
func (r *Rollsum64) BlockSize() int {
    return int(r.blockSize)
}

// the number of bytes in the checksum
func (r *Rollsum64) Size() int {
    return rollsum64Size
}

func (r *Rollsum64) Reset() {
    r.Rollsum64Base.Reset()
    r.buffer.Reset()
}

// Sum appends the current hash to b and returns the resulting slice.
// It does not change the underlying hash state.
func (r *Rollsum64) Sum(b []byte) []byte {
    if b != nil && cap(b)-len(b) >= rollsum64Size {
        p := len(b)
        b = b[:len(b)+rollsum64Size]
        r.Rollsum64Base.GetSum(b[p:])
        return b
    }

    result := make([]byte, rollsum64Size)
    r.Rollsum64Base.GetSum(result)
    return append(b, result...)
}

func (r *Rollsum64) GetLastBlock() []byte {
    return r.buffer.GetBlock()
}
