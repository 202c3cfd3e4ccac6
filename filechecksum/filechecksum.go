/*
 * package filechecksum provides the FileChecksumGenerator, which reads a reference stream and produces one
 * (weak, strong) checksum pair per fixed-size block, plus a merkle root over the strong checksums so that a
 * transmitted signature sequence can be verified in one comparison. The weak checksum is the rolling checksum
 * the comparer later slides over candidate data; the strong checksum is an md5 digest of the block bytes.
 */
package filechecksum

import (
    "crypto/md5"
    "hash"
    "io"

    "github.com/FranciscoSilveira/pyzsync/chunks"
    "github.com/FranciscoSilveira/pyzsync/merkle"
    "github.com/FranciscoSilveira/pyzsync/rollsum"
    "github.com/pkg/errors"
)

// DefaultStrongHashGenerator builds the strong hash used for block verification.
var DefaultStrongHashGenerator = md5.New

func NewFileChecksumGenerator(blockSize uint) *FileChecksumGenerator {
    return &FileChecksumGenerator{
        blockSize: blockSize,
    }
}

// RollingHash is the window-maintaining checksum contract the generator and the comparer share.
type RollingHash interface {
    // the size of the hash output
    Size() int

    AddByte(b byte)
    RemoveByte(b byte)

    // pairs up removal and addition in the order that keeps the sum exact
    Rotate(out, in byte)

    SetBlock(block []byte)

    GetSum(b []byte)
    Reset()
}

/*
 * FileChecksumGenerator describes the hashing functions used to evaluate a reference stream. The hashes store
 * state, so a generator must not be shared between concurrent generation passes.
 */
type FileChecksumGenerator struct {
    blockSize uint
}

func (check *FileChecksumGenerator) BlockSize() uint {
    return check.blockSize
}

func (check *FileChecksumGenerator) ChecksumSize() int {
    return check.GetWeakRollingHash().Size() + check.GetStrongHash().Size()
}

func (check *FileChecksumGenerator) GetChecksumSizes() (int, int) {
    return check.GetWeakRollingHash().Size(), check.GetStrongHash().Size()
}

// Gets a fresh, clean weak rolling hash for a block
func (check *FileChecksumGenerator) GetWeakRollingHash() RollingHash {
    return rollsum.NewRollsum64Base(check.blockSize)
}

// Gets a fresh, clean strong hash for a block.
// This is a factory function, because hash state must not be shared.
func (check *FileChecksumGenerator) GetStrongHash() hash.Hash {
    return md5.New()
}

// ChecksumResults carries batches of generated block checksums. The final
// result on the channel holds the root checksum and the sequence length instead.
type ChecksumResults struct {
    Checksums []chunks.ChunkChecksum

    // only set on the last item
    RootChecksum []byte
    SequenceSize uint

    Err error
}

/*
 * GenerateChecksums reads each block of the input stream and writes first the weak, then the strong checksum
 * of the block to the output writer, which is the serialized signature form chunks.LoadChecksumsFromReader
 * consumes. It returns the merkle root checksum over the whole sequence.
 */
func (check *FileChecksumGenerator) GenerateChecksums(inputFile io.Reader, output io.Writer) ([]byte, error) {
    for result := range check.StartChecksumGeneration(inputFile, 64) {
        if result.Err != nil {
            return nil, result.Err
        }
        if result.RootChecksum != nil {
            return result.RootChecksum, nil
        }

        for _, chunk := range result.Checksums {
            if _, err := output.Write(chunk.WeakChecksum); err != nil {
                return nil, errors.Wrap(err, "writing weak checksum")
            }
            if _, err := output.Write(chunk.StrongChecksum); err != nil {
                return nil, errors.Wrap(err, "writing strong checksum")
            }
        }
    }

    return nil, nil
}

// List reads the whole stream and returns the checksums in block order,
// without serializing them anywhere.
func (check *FileChecksumGenerator) List(inputFile io.Reader) (chunks.SequentialChecksumList, error) {
    var list chunks.SequentialChecksumList

    for result := range check.StartChecksumGeneration(inputFile, 64) {
        if result.Err != nil {
            return nil, result.Err
        }
        list = append(list, result.Checksums...)
    }

    return list, nil
}

// StartChecksumGeneration launches generation and returns the channel results arrive on.
// The stream is consumed exactly once, in order; the channel closes after the final root-checksum result.
func (check *FileChecksumGenerator) StartChecksumGeneration(
    inputFile io.Reader,
    blocksPerResult uint,
) <-chan ChecksumResults {
    resultChan := make(chan ChecksumResults)
    go check.generate(resultChan, blocksPerResult, inputFile)
    return resultChan
}

func (check *FileChecksumGenerator) generate(
    resultChan chan ChecksumResults,
    blocksPerResult uint,
    inputFile io.Reader,
) {
    defer close(resultChan)

    var (
        buffer      = make([]byte, check.blockSize)
        results     = make([]chunks.ChunkChecksum, 0, blocksPerResult)
        strongs     = make([][]byte, 0, blocksPerResult)
        rollingHash = check.GetWeakRollingHash()
        strongHash  = check.GetStrongHash()
        blockID     = uint(0)
    )

    for {
        n, err := io.ReadFull(inputFile, buffer)
        if n == 0 {
            if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
                resultChan <- ChecksumResults{Err: err}
                return
            }
            break
        }

        // the only reason for a partial block is the end of the stream;
        // it still gets a checksum entry of its own
        section := buffer[:n]

        rollingHash.SetBlock(section)
        strongHash.Reset()
        strongHash.Write(section)

        weakChecksumValue := make([]byte, rollingHash.Size())
        rollingHash.GetSum(weakChecksumValue)
        strongChecksumValue := strongHash.Sum(make([]byte, 0, strongHash.Size()))

        results = append(
            results,
            chunks.ChunkChecksum{
                ChunkOffset:    blockID,
                Size:           int64(n),
                WeakChecksum:   weakChecksumValue,
                StrongChecksum: strongChecksumValue,
            })
        strongs = append(strongs, strongChecksumValue)
        blockID++

        if len(results) == cap(results) {
            resultChan <- ChecksumResults{Checksums: results}
            results = make([]chunks.ChunkChecksum, 0, blocksPerResult)
        }

        if err != nil {
            // io.EOF or io.ErrUnexpectedEOF: the stream ended on this block
            break
        }
    }

    if len(results) > 0 {
        resultChan <- ChecksumResults{Checksums: results}
    }

    if blockID == 0 {
        // an empty reference has an empty signature and no root
        resultChan <- ChecksumResults{SequenceSize: 0}
        return
    }

    root, err := merkle.SimpleHashFromHashes(strongs)
    if err != nil {
        resultChan <- ChecksumResults{Err: err}
        return
    }

    resultChan <- ChecksumResults{
        RootChecksum: root,
        SequenceSize: blockID,
    }
}
