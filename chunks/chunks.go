/*
 * Package chunks defines the signature entry produced for every block of a reference stream, along with the
 * sortable views and serialized-form loaders that the index and the patchers are built on.
 */
package chunks

import (
    "bytes"
    "io"

    "github.com/pkg/errors"
)

/*
 * ChunkChecksum is one block's signature: the block's position in the reference stream, its byte length
 * (shorter than the block size only for the final block), the weak rolling checksum and the strong content
 * hash of its bytes. Weak checksums collide by design; the strong checksum is what confirms a match.
 */
type ChunkChecksum struct {
    ChunkOffset    uint
    Size           int64
    WeakChecksum   []byte
    StrongChecksum []byte
}

// Match is true when both checksums agree.
func (c ChunkChecksum) Match(weak []byte, strong []byte) bool {
    return bytes.Equal(c.WeakChecksum, weak) && bytes.Equal(c.StrongChecksum, strong)
}

/*
 * LoadChecksumsFromReader consumes a serialized signature stream of concatenated (weak, strong) checksum pairs,
 * as written by filechecksum.GenerateChecksums, until EOF. Block sizes are not carried on the wire; the loader
 * leaves Size zero and the consumer applies its configured block size.
 */
func LoadChecksumsFromReader(r io.Reader, weakSize int, strongSize int) ([]ChunkChecksum, error) {
    var (
        result []ChunkChecksum
        offset uint
    )

    for {
        weak := make([]byte, weakSize)
        if _, err := io.ReadFull(r, weak); err == io.EOF {
            return result, nil
        } else if err != nil {
            return nil, errors.Wrapf(err, "loading weak checksum of block %v", offset)
        }

        strong := make([]byte, strongSize)
        if _, err := io.ReadFull(r, strong); err != nil {
            return nil, errors.Wrapf(err, "loading strong checksum of block %v", offset)
        }

        result = append(result, ChunkChecksum{
            ChunkOffset:    offset,
            WeakChecksum:   weak,
            StrongChecksum: strong,
        })
        offset++
    }
}

// SizedLoadChecksumsFromReader reads exactly checksumCount signature entries.
func SizedLoadChecksumsFromReader(r io.Reader, checksumCount uint, weakSize int, strongSize int) ([]ChunkChecksum, error) {
    result, err := LoadChecksumsFromReader(r, weakSize, strongSize)
    if err != nil {
        return nil, err
    }
    if uint(len(result)) != checksumCount {
        return nil, errors.Errorf("expected %v checksums, loaded %v", checksumCount, len(result))
    }
    return result, nil
}

// StrongChecksumGetter looks up the strong checksum of a block by its index.
// It implements filechecksum.ChecksumLookup.
type StrongChecksumGetter []ChunkChecksum

func (s StrongChecksumGetter) GetStrongChecksumForBlock(blockID uint) []byte {
    for _, c := range s {
        if c.ChunkOffset == blockID {
            return c.StrongChecksum
        }
    }
    return nil
}
