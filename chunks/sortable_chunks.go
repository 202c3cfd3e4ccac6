package chunks

import (
    "bytes"
    "sort"

    "github.com/FranciscoSilveira/pyzsync/merkle"
)

// --------------------------------------------- StrongChecksumList ----------------------------------------------------

/*
 * StrongChecksumList is the candidate list under one weak-checksum bucket, ordered by strong checksum so that
 * FindStrongChecksum can binary-search it. Entries with equal strong checksums (duplicate blocks in the
 * reference) are tie-broken by block index, which keeps the earliest block first the way the original's
 * insertion-ordered buckets did.
 */
type StrongChecksumList []ChunkChecksum

// Sortable interface
func (s StrongChecksumList) Len() int {
    return len(s)
}

// Sortable interface
func (s StrongChecksumList) Swap(i, j int) {
    s[i], s[j] = s[j], s[i]
}

// Sortable interface
func (s StrongChecksumList) Less(i, j int) bool {
    switch bytes.Compare(s[i].StrongChecksum, s[j].StrongChecksum) {
    case -1:
        return true
    case 1:
        return false
    default:
        return s[i].ChunkOffset < s[j].ChunkOffset
    }
}

func (s StrongChecksumList) FindStrongChecksum(strong []byte) (result []ChunkChecksum) {
    n := len(s)

    // average bucket length is 1, so fast path the comparison
    if n == 1 {
        if bytes.Equal(s[0].StrongChecksum, strong) {
            return s
        }
        return nil
    }

    // find the first possible occurrence
    firstGteChecksum := sort.Search(
        n,
        func(i int) bool {
            return bytes.Compare(s[i].StrongChecksum, strong) >= 0
        },
    )

    // out of bounds
    if firstGteChecksum == n {
        return nil
    }

    // somewhere in the middle, but the next one didn't match
    if !bytes.Equal(s[firstGteChecksum].StrongChecksum, strong) {
        return nil
    }

    end := firstGteChecksum + 1
    for end < n && bytes.Equal(s[end].StrongChecksum, strong) {
        end++
    }

    return s[firstGteChecksum:end]
}

// --------------------------------------------- SequentialChecksumList ------------------------------------------------

// SequentialChecksumList orders checksums by block index, the order they appear in the reference stream.
type SequentialChecksumList []ChunkChecksum

// Sortable interface
func (s SequentialChecksumList) Len() int {
    return len(s)
}

// Sortable interface
func (s SequentialChecksumList) Swap(i, j int) {
    s[i], s[j] = s[j], s[i]
}

// Sortable interface
func (s SequentialChecksumList) Less(i, j int) bool {
    return s[i].ChunkOffset < s[j].ChunkOffset
}

func (s SequentialChecksumList) HashList() [][]byte {
    hashes := make([][]byte, 0, len(s))
    for i := 0; i < len(s); i++ {
        hashes = append(hashes, s[i].StrongChecksum)
    }
    return hashes
}

// RootHash builds the merkle root over the strong checksums, in block order.
// Lets a receiver check a transmitted signature sequence against one reference value.
func (s SequentialChecksumList) RootHash() ([]byte, error) {
    return merkle.SimpleHashFromHashes(s.HashList())
}
