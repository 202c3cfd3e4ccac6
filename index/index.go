/*
 * Package index holds the read-only signature table built from a reference stream's checksums: a weak-checksum
 * lookup resolving to the strong-checksum candidates under that weak value, plus a sequential lookup by block
 * index. The matching pattern is always the same two steps - check whether a weak checksum is present at all,
 * then confirm against the strong candidates it maps to.
 *
 * The index is immutable once built and carries no per-scan state, so one index may back any number of
 * concurrent matching passes. Matchers record their confirmed blocks in their own resolved sets, never here.
 */
package index

import (
    "bytes"
    "encoding/binary"
    "sort"

    "github.com/FranciscoSilveira/pyzsync/chunks"
    "github.com/FranciscoSilveira/pyzsync/merkle"
    "github.com/pkg/errors"
)

const (
    // the weak lookup is sharded on the least significant byte, which spreads
    // rolling checksums well enough to keep each map small
    indexOffsetFilter  uint64 = 0xFF
    indexLookupMapSize int    = 256

    seqLookupOffsetFlt uint = 0xFF
    seqLookupArraySize int  = 256
)

type ChecksumIndex struct {
    blockSize          uint
    weakChecksumLookup []map[uint64]chunks.StrongChecksumList
    seqChecksumLookup  []map[uint]chunks.SequentialChecksumList
    checkSumSequence   chunks.SequentialChecksumList

    BlockCount int
    Count      int
}

// MakeChecksumIndex builds the signature table for one matching pass. The block size is the one the
// checksums were generated with; matching against a differently configured comparer is refused upstream.
func MakeChecksumIndex(blockSize uint, checksums []chunks.ChunkChecksum) *ChecksumIndex {
    n := NewChecksumIndex(blockSize)
    if len(checksums) != 0 {
        n.AppendChecksums(checksums)
    }
    return n
}

func NewChecksumIndex(blockSize uint) *ChecksumIndex {
    return &ChecksumIndex{
        blockSize:          blockSize,
        weakChecksumLookup: make([]map[uint64]chunks.StrongChecksumList, indexLookupMapSize),
        seqChecksumLookup:  make([]map[uint]chunks.SequentialChecksumList, seqLookupArraySize),
        checkSumSequence:   make(chunks.SequentialChecksumList, 0),
    }
}

func (n *ChecksumIndex) AppendChecksums(checksums []chunks.ChunkChecksum) {
    // keep the sequential view ordered by block index
    n.checkSumSequence = append(n.checkSumSequence, checksums...)
    sort.Sort(n.checkSumSequence)

    for _, c := range checksums {
        blockID := c.ChunkOffset
        arrayOffset := blockID & seqLookupOffsetFlt

        if n.seqChecksumLookup[arrayOffset] == nil {
            n.seqChecksumLookup[arrayOffset] = make(map[uint]chunks.SequentialChecksumList)
        }
        n.seqChecksumLookup[arrayOffset][blockID] = append(n.seqChecksumLookup[arrayOffset][blockID], c)
    }

    for _, chunk := range checksums {
        weakChecksumAsInt := binary.LittleEndian.Uint64(chunk.WeakChecksum)
        arrayOffset := weakChecksumAsInt & indexOffsetFilter

        if n.weakChecksumLookup[arrayOffset] == nil {
            n.weakChecksumLookup[arrayOffset] = make(map[uint64]chunks.StrongChecksumList)
        }

        n.weakChecksumLookup[arrayOffset][weakChecksumAsInt] = append(
            n.weakChecksumLookup[arrayOffset][weakChecksumAsInt],
            chunk,
        )
    }

    for _, shard := range n.weakChecksumLookup {
        for _, bucket := range shard {
            sort.Sort(bucket)
        }
    }

    n.BlockCount += len(checksums)
    n.Count += len(checksums)
}

func (n *ChecksumIndex) BlockSize() uint {
    return n.blockSize
}

func (n *ChecksumIndex) WeakCount() int {
    return n.Count
}

func (n *ChecksumIndex) FindWeakChecksumInIndex(weak []byte) chunks.StrongChecksumList {
    x := binary.LittleEndian.Uint64(weak)
    if n.weakChecksumLookup[x&indexOffsetFilter] != nil {
        if v, ok := n.weakChecksumLookup[x&indexOffsetFilter][x]; ok {
            return v
        }
    }
    return nil
}

func (n *ChecksumIndex) FindWeakChecksum2(chk []byte) interface{} {
    w := n.FindWeakChecksumInIndex(chk)

    if len(w) == 0 {
        return nil
    }
    return w
}

func (n *ChecksumIndex) FindStrongChecksum2(chk []byte, weak interface{}) []chunks.ChunkChecksum {
    if strongList, ok := weak.(chunks.StrongChecksumList); ok {
        return strongList.FindStrongChecksum(chk)
    }
    return nil
}

// ------------------------------ sequential lookup --------------------------------------------------------------------

func (n *ChecksumIndex) SequentialChecksumList() chunks.SequentialChecksumList {
    return n.checkSumSequence
}

func (n *ChecksumIndex) EndBlockID() uint {
    return n.checkSumSequence[len(n.checkSumSequence)-1].ChunkOffset
}

func (n *ChecksumIndex) FindChecksumWithBlockID(blockID uint) (*chunks.ChunkChecksum, error) {
    if n.seqChecksumLookup[blockID&seqLookupOffsetFlt] != nil {
        if cl, ok := n.seqChecksumLookup[blockID&seqLookupOffsetFlt][blockID]; ok {
            for i, c := range cl {
                if c.ChunkOffset == blockID {
                    return &(cl[i]), nil
                }
            }
        }
    }
    return nil, errors.Errorf("no checksum indexed for block %v", blockID)
}

// VerifyRootHash compares the merkle root of the given hash list against the root of this index's sequence.
func (n *ChecksumIndex) VerifyRootHash(hashes [][]byte) error {
    hToCheck, err := merkle.SimpleHashFromHashes(hashes)
    if err != nil {
        return err
    }
    hAsRefer, err := n.checkSumSequence.RootHash()
    if err != nil {
        return err
    }
    if !bytes.Equal(hToCheck, hAsRefer) {
        return errors.Errorf("calculated root hash differs from the reference")
    }
    return nil
}

// ChecksumLookup impl.
func (n *ChecksumIndex) GetStrongChecksumForBlock(blockID uint) []byte {
    c, err := n.FindChecksumWithBlockID(blockID)
    if err != nil {
        return nil
    }
    return c.StrongChecksum
}
