package chunks

import (
    "crypto/md5"

    "github.com/FranciscoSilveira/pyzsync/rollsum"
)

// BuildSequentialChecksum generates the signature list for a reference made of the given blocks.
// Mostly a convenience for tests that want an index without running a full generator.
func BuildSequentialChecksum(refBlks []string, blockSize int) SequentialChecksumList {
    var (
        chksum = SequentialChecksumList{}
        rsum   = rollsum.NewRollsum64Base(uint(blockSize))
        ssum   = md5.New()
    )

    for i := 0; i < len(refBlks); i++ {
        var (
            wsum = make([]byte, rsum.Size())
            blk  = []byte(refBlks[i])
        )
        rsum.SetBlock(blk)
        rsum.GetSum(wsum)
        ssum.Reset()
        ssum.Write(blk)

        chksum = append(
            chksum,
            ChunkChecksum{
                ChunkOffset:    uint(i),
                Size:           int64(len(blk)),
                WeakChecksum:   wsum,
                StrongChecksum: ssum.Sum(nil),
            })
    }
    return chksum
}
