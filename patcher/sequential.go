package patcher

import (
    "io"

    lru "github.com/hashicorp/golang-lru"
    "github.com/pkg/errors"
)

// number of reference blocks the streaming applier keeps around; deltas of
// repetitive data reference the same block many times over
const appliedBlockCacheSize = 64

/*
 * ApplyDelta replays a streaming delta in order against the reference stream: literal operations are written
 * verbatim, block references are read from the reference at blockID*blockSize and may be shorter than blockSize
 * only when they reach the end of the reference. A block reference that lands past the end of the reference is
 * fatal (ErrSourceExhausted): the delta was computed against a different version of this data.
 */
func ApplyDelta(blockSize int64, ops []Operation, reference io.ReadSeeker, output io.Writer) error {
    if blockSize <= 0 {
        return errors.Wrapf(ErrBlockSizeMismatch, "cannot apply with block size %v", blockSize)
    }

    cache, err := lru.New(appliedBlockCacheSize)
    if err != nil {
        return errors.WithStack(err)
    }

    readBlock := func(blockID uint) ([]byte, error) {
        if cached, ok := cache.Get(blockID); ok {
            return cached.([]byte), nil
        }

        if _, err := reference.Seek(int64(blockID)*blockSize, io.SeekStart); err != nil {
            return nil, errors.Wrapf(err, "seeking reference to block %v", blockID)
        }

        buffer := make([]byte, blockSize)
        n, err := io.ReadFull(reference, buffer)
        if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
            return nil, errors.Wrapf(err, "reading reference block %v", blockID)
        }
        if n == 0 {
            return nil, errors.Wrapf(ErrSourceExhausted, "reference block %v", blockID)
        }

        block := buffer[:n]
        cache.Add(blockID, block)
        return block, nil
    }

    for _, op := range ops {
        switch op.Type {
        case OpBlock:
            block, err := readBlock(op.BlockID)
            if err != nil {
                return err
            }
            if _, err := output.Write(block); err != nil {
                return errors.Wrap(err, "writing reference block")
            }
        case OpData:
            if _, err := output.Write(op.Data); err != nil {
                return errors.Wrap(err, "writing literal data")
            }
        }
    }

    return nil
}
