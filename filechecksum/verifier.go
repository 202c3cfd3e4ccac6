package filechecksum

import (
    "bytes"
    "hash"

    "github.com/pkg/errors"
)

type ChecksumLookup interface {
    GetStrongChecksumForBlock(blockID uint) []byte
}

// HashVerifier checks fetched block data against the strong checksums the
// signature sequence promised for those blocks.
type HashVerifier struct {
    BlockSize           uint
    Hash                hash.Hash
    BlockChecksumGetter ChecksumLookup
}

func (v *HashVerifier) VerifyBlockRange(startBlockID uint, data []byte) bool {
    for i := 0; i*int(v.BlockSize) < len(data); i++ {
        start := i * int(v.BlockSize)
        end := start + int(v.BlockSize)

        if end > len(data) {
            end = len(data)
        }

        blockData := data[start:end]

        expectedChecksum := v.BlockChecksumGetter.GetStrongChecksumForBlock(
            startBlockID + uint(i),
        )

        if expectedChecksum == nil {
            // nothing known for this block, nothing to contradict
            continue
        }

        v.Hash.Reset()
        v.Hash.Write(blockData)

        if !bytes.Equal(expectedChecksum, v.Hash.Sum(nil)) {
            return false
        }
    }

    return true
}

// BlockChecksumForRange hashes a fetched range and compares it against the expected checksum,
// returning the calculated checksum when they agree.
func (v *HashVerifier) BlockChecksumForRange(startBlockID uint, data []byte) ([]byte, error) {
    v.Hash.Reset()
    v.Hash.Write(data)
    calculatedChecksum := v.Hash.Sum(nil)

    expectedChecksum := v.BlockChecksumGetter.GetStrongChecksumForBlock(startBlockID)
    if expectedChecksum == nil {
        return nil, errors.Errorf("no expected checksum known for block %v", startBlockID)
    }
    if !bytes.Equal(expectedChecksum, calculatedChecksum) {
        return nil, errors.Errorf("calculated checksum for block %v does not match the expected one", startBlockID)
    }

    return calculatedChecksum, nil
}
