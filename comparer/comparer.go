/*
 * Package comparer implements the block-matching scan at the heart of both sync protocols: it slides a window
 * over the candidate stream one byte at a time, using the rolling weak checksum to cheaply reject positions and
 * the strong checksum to confirm real matches against the reference signature index.
 *
 * The scan itself is agnostic of what a match means. It reports events to an Encoder - a confirmed block match,
 * a byte that fell out of the window unmatched, the end of the scan - and the streaming and blueprint encoders
 * turn those events into their respective instruction forms. The index is never written to; any bookkeeping of
 * which blocks were already seen belongs to the encoder.
 *
 * The scan alternates between two modes. After a confirmed match (and at the start) it reseeds a whole fresh
 * window and checksums it from scratch; after a non-match it slides the window a single byte, which costs O(1)
 * thanks to the rolling update. When the candidate runs out, the window logically shrinks from the head (the
 * rolling arithmetic treats the missing tail bytes as zeros) until only the final partial-block tail remains,
 * and whatever is left is handed to the encoder as unmatched bytes.
 */
package comparer

import (
    "bufio"
    "crypto/md5"
    "io"

    "github.com/FranciscoSilveira/pyzsync/circularbuffer"
    "github.com/FranciscoSilveira/pyzsync/index"
    "github.com/FranciscoSilveira/pyzsync/patcher"
    "github.com/FranciscoSilveira/pyzsync/rollsum"
    "github.com/pkg/errors"
)

// Encoder receives matching events in strict candidate-stream order.
// Implementations must not retain the byte values beyond the call.
type Encoder interface {
    // OnMatch reports that the reference block blockID was confirmed at the
    // given byte offset of the candidate stream. Every confirmation is
    // reported, including repeats of an already-seen block.
    OnMatch(blockID uint, candidateOffset int64) error

    // OnUnmatchedByte reports one candidate byte that no reference block covers.
    OnUnmatchedByte(b byte) error

    // OnEnd reports that the candidate stream is fully consumed.
    OnEnd() error
}

/*
 * FindMatchingBlocks scans the candidate stream against the signature index and drives the encoder with the
 * results. The block size must be the one the index was built with. A nil or empty index is legal: the whole
 * candidate surfaces as unmatched bytes.
 *
 * The candidate is consumed exactly once, sequentially. Termination is governed purely by stream exhaustion:
 * once no more bytes arrive, the window shrinks to the final partial-block tail and the scan ends.
 */
func FindMatchingBlocks(candidate io.Reader, idx *index.ChecksumIndex, blockSize uint, enc Encoder) error {
    if blockSize == 0 {
        return errors.Wrap(patcher.ErrBlockSizeMismatch, "matching requires a positive block size")
    }
    if idx != nil && idx.BlockSize() != blockSize {
        return errors.Wrapf(patcher.ErrBlockSizeMismatch,
            "index built with block size %v, matching attempted with %v", idx.BlockSize(), blockSize)
    }

    var (
        reader    = bufio.NewReader(candidate)
        rsum      = rollsum.NewRollsum64Base(blockSize)
        window    = circularbuffer.MakeC2Buffer(int(blockSize))
        block     = make([]byte, blockSize)
        weak      = make([]byte, rsum.Size())
        strong    = md5.New()
        position  int64
        exhausted bool
        tailSize  int
    )

    // testWindow confirms the current window against the index: a weak hit
    // followed by a strong comparison over the candidates in that bucket.
    // A weak hit without strong confirmation is not a match of any kind.
    testWindow := func() (uint, bool) {
        if idx == nil || idx.WeakCount() == 0 || window.Len() == 0 {
            return 0, false
        }

        rsum.GetSum(weak)
        bucket := idx.FindWeakChecksumInIndex(weak)
        if bucket == nil {
            return 0, false
        }

        strong.Reset()
        strong.Write(window.GetBlock())
        candidates := bucket.FindStrongChecksum(strong.Sum(nil))
        if len(candidates) == 0 {
            return 0, false
        }

        // bucket order puts the earliest reference block first
        return candidates[0].ChunkOffset, true
    }

seek:
    for {
        // reseed a whole window; cheaper than rolling it in byte by byte
        n, err := io.ReadFull(reader, block)
        if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
            return errors.Wrap(err, "reading candidate stream")
        }
        position += int64(n)
        if err != nil && !exhausted {
            exhausted = true
            tailSize = int(position % int64(blockSize))
        }

        window.Reset()
        rsum.Reset()
        if n > 0 {
            window.Write(block[:n])
            rsum.SetBlock(block[:n])
        }

        for {
            if blockID, ok := testWindow(); ok {
                if err := enc.OnMatch(blockID, position-int64(window.Len())); err != nil {
                    return err
                }
                continue seek
            }

            if !exhausted {
                nb, err := reader.ReadByte()
                switch err {
                case nil:
                    position++
                    window.WriteByte(nb)
                    out := window.Evicted()[0]
                    rsum.Rotate(out, nb)
                    if err := enc.OnUnmatchedByte(out); err != nil {
                        return err
                    }
                    continue
                case io.EOF:
                    exhausted = true
                    tailSize = int(position % int64(blockSize))
                default:
                    return errors.Wrap(err, "reading candidate stream")
                }
            }

            // nothing more will enter the window; shrink it toward the tail
            if window.Len() <= tailSize {
                for _, b := range window.GetBlock() {
                    if err := enc.OnUnmatchedByte(b); err != nil {
                        return err
                    }
                }
                return enc.OnEnd()
            }

            out := window.Pop()
            rsum.RemoveHead(out)
            if err := enc.OnUnmatchedByte(out); err != nil {
                return err
            }
        }
    }
}
