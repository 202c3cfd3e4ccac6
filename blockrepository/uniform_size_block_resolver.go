package blockrepository

import (
    "github.com/FranciscoSilveira/pyzsync/patcher"
)

/*
 * UniformSizeBlockResolver maps block IDs to byte ranges for a source whose blocks are all BlockSize long
 * except a possibly short final one (bounded by FileSize when known). MaxDesiredRequestSize caps how many
 * bytes a single request may span; spans larger than that are split on block boundaries.
 */
type UniformSizeBlockResolver struct {
    BlockSize             int64
    FileSize              int64
    MaxDesiredRequestSize int64
}

func MakeFileSizedBlockResolver(blockSize int64, fileSize int64) *UniformSizeBlockResolver {
    return &UniformSizeBlockResolver{
        BlockSize: blockSize,
        FileSize:  fileSize,
    }
}

func MakeKnownFileSizedBlockResolver(blockSize int64, fileSize int64, maxDesiredRequestSize int64) *UniformSizeBlockResolver {
    return &UniformSizeBlockResolver{
        BlockSize:             blockSize,
        FileSize:              fileSize,
        MaxDesiredRequestSize: maxDesiredRequestSize,
    }
}

func (r *UniformSizeBlockResolver) GetBlockStartOffset(blockID uint) int64 {
    if off := int64(blockID) * r.BlockSize; r.FileSize > 0 && off > r.FileSize {
        return r.FileSize
    } else {
        return off
    }
}

func (r *UniformSizeBlockResolver) GetBlockEndOffset(blockID uint) int64 {
    if off := int64(blockID+1) * r.BlockSize; r.FileSize > 0 && off > r.FileSize {
        return r.FileSize
    } else {
        return off
    }
}

func (r *UniformSizeBlockResolver) SplitBlockRangeToDesiredSize(reqBlk patcher.MissingBlockSpan) patcher.QueuedRequestList {
    if r.MaxDesiredRequestSize == 0 {
        return patcher.QueuedRequestList{reqBlk}
    }

    maxSize := r.MaxDesiredRequestSize
    if maxSize < r.BlockSize {
        maxSize = r.BlockSize
    }

    blockCountPerRequest := uint(maxSize / r.BlockSize)
    requests := make(patcher.QueuedRequestList, 0, 2)
    startBlockID := reqBlk.StartBlock

    for startBlockID <= reqBlk.EndBlock {
        endBlockID := startBlockID + blockCountPerRequest - 1
        if endBlockID > reqBlk.EndBlock {
            endBlockID = reqBlk.EndBlock
        }

        requests = append(requests, patcher.MissingBlockSpan{
            BlockSize:  reqBlk.BlockSize,
            StartBlock: startBlockID,
            EndBlock:   endBlockID,
        })

        startBlockID = endBlockID + 1
    }

    return requests
}
