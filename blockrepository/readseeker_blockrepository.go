package blockrepository

import (
    "io"

    "github.com/pkg/errors"

    "github.com/FranciscoSilveira/pyzsync/filechecksum"
    "github.com/FranciscoSilveira/pyzsync/index"
)

// ReadSeekerRequester serves block requests from any io.ReadSeeker, typically an open target file on disk.
type ReadSeekerRequester struct {
    rs io.ReadSeeker
}

func NewReadSeekerRequester(rs io.ReadSeeker) *ReadSeekerRequester {
    return &ReadSeekerRequester{
        rs: rs,
    }
}

func (r *ReadSeekerRequester) DoRequest(startOffset int64, endOffset int64) (data []byte, err error) {
    length := endOffset - startOffset
    if length <= 0 {
        return nil, errors.Errorf("invalid range to request: startOffset %v endOffset %v", startOffset, endOffset)
    }
    buffer := make([]byte, length)

    if _, err = r.rs.Seek(startOffset, io.SeekStart); err != nil {
        return nil, errors.WithStack(err)
    }

    n, err := io.ReadFull(r.rs, buffer)
    if err == io.ErrUnexpectedEOF {
        // the final block may be shorter than asked for
        return buffer[:n], nil
    } else if err != nil {
        return nil, errors.WithStack(err)
    }

    return buffer, nil
}

func (r *ReadSeekerRequester) IsFatal(err error) bool {
    return true
}

/*
 * NewReadSeekerBlockRepository builds a verified repository over a local read-seeker, using the checksum
 * index the fetcher already holds to verify every block served.
 */
func NewReadSeekerBlockRepository(
    repositoryID uint,
    rs io.ReadSeeker,
    blockSize int64,
    idx *index.ChecksumIndex,
) *BlockRepositoryBase {
    verifier := &filechecksum.HashVerifier{
        Hash:                filechecksum.DefaultStrongHashGenerator(),
        BlockSize:           uint(blockSize),
        BlockChecksumGetter: idx,
    }

    return NewBlockRepositoryBase(
        repositoryID,
        NewReadSeekerRequester(rs),
        MakeFileSizedBlockResolver(blockSize, 0),
        FunctionChecksumVerifier(verifier.BlockChecksumForRange),
    )
}
