/*
 * Package patcher holds the instruction representations produced by the delta encoders and the appliers that
 * replay them into reconstructed output: an ordered operation list for the streaming (rsync-style) protocol,
 * and a block-indexed blueprint plus request list for the two-phase (zsync-style) protocol. It also defines
 * the BlockRepository contract that missing-block fetchers implement.
 */
package patcher

import (
    "sync"
)

// Operation Types.
type OpType byte

const (
    // OpBlock references one block of the reference stream by index
    OpBlock OpType = iota
    // OpData carries literal bytes that matched nothing
    OpData
)

// Operation is one instruction of the streaming delta. Replaying the ordered
// sequence of operations against the reference stream reproduces the candidate
// stream byte for byte.
type Operation struct {
    Type    OpType
    BlockID uint
    Data    []byte
}

// MissingBlockSpan is a request for a contiguous run of reference blocks that
// were not found locally and must be fetched.
type MissingBlockSpan struct {
    BlockSize  int64
    StartBlock uint
    EndBlock   uint
}

type QueuedRequestList []MissingBlockSpan

func (r QueuedRequestList) Len() int {
    return len(r)
}

func (r QueuedRequestList) Swap(i, j int) {
    r[i], r[j] = r[j], r[i]
}

func (r QueuedRequestList) Less(i, j int) bool {
    return r[i].StartBlock < r[j].StartBlock
}

/*
 * BlockRepository is the interface fetchers use to obtain blocks from one source of reference data. It does not
 * stipulate where that data is (a local file, a pre-built patch file, an HTTP server holding the target).
 *
 * A repository may be slow; requests are dispatched through a channel and answered asynchronously, so a fetcher
 * can keep several repositories busy at once and is responsible for re-ordering the responses it receives.
 */
type BlockRepository interface {
    RepositoryID() uint
    RequestBlocks(MissingBlockSpan) error
    HandleRequest(
        waiter *sync.WaitGroup,
        exitC chan bool,
        errorC chan *RepositoryError,
        responseC chan RepositoryResponse,
    )
}

// RepositoryResponse carries one fetched block back from a repository.
type RepositoryResponse struct {
    RepositoryID   uint
    BlockID        uint
    Data           []byte
    StrongChecksum []byte
}

type StackedResponse []RepositoryResponse

func (r StackedResponse) Len() int {
    return len(r)
}

func (r StackedResponse) Swap(i, j int) {
    r[i], r[j] = r[j], r[i]
}

func (r StackedResponse) Less(i, j int) bool {
    return r[i].BlockID < r[j].BlockID
}
