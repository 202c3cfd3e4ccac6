/*
 * Package blockrepository implements the fetching side of the two-phase protocol: a BlockRepository wraps one
 * source of reference blocks (a local read-seeker, an HTTP server holding the target, a pre-built patch file)
 * behind an asynchronous request/response loop with retry and in-order delivery, so that a fetcher can keep a
 * pool of repositories busy while it merges arriving blocks.
 */
package blockrepository

import (
    "sort"
    "sync"
    "time"

    "github.com/FranciscoSilveira/pyzsync/patcher"
    "github.com/FranciscoSilveira/pyzsync/util/uslice"
)

const (
    repositoryRetryLimit = 5
    retryDelay           = time.Second
)

/*
 * BlockRepositoryRequester does synchronous requests on a source of blocks.
 * Concurrency is handled by BlockRepositoryBase; a requester may be called from multiple goroutines
 * and must support simultaneous requests.
 */
type BlockRepositoryRequester interface {
    DoRequest(startOffset int64, endOffset int64) (data []byte, err error)

    // If an error raised by DoRequest should make the repository give up instead of retrying, return true
    IsFatal(err error) bool
}

/*
 * A BlockRepositoryOffsetResolver resolves a block index to a byte range in the underlying source, and decides
 * how to split a span of requested blocks into individual requests (down to single blocks if it wants).
 */
type BlockRepositoryOffsetResolver interface {
    GetBlockStartOffset(blockID uint) int64
    GetBlockEndOffset(blockID uint) int64
    SplitBlockRangeToDesiredSize(reqBlk patcher.MissingBlockSpan) patcher.QueuedRequestList
}

// BlockChecksumVerifier checks fetched blocks against their expected strong checksums.
type BlockChecksumVerifier interface {
    BlockChecksumForRange(startBlockID uint, data []byte) ([]byte, error)
}

/*
 * BlockRepositoryBase takes care of every aspect of serving block requests from a single repository except the
 * actual synchronous fetch: request splitting, bounded retry, optional checksum verification and lowest-first
 * response ordering. Implementing a new kind of repository reduces to writing a requester.
 *
 * BlockRepositoryBase implements patcher.BlockRepository.
 */
func NewBlockRepositoryBase(
    repositoryID uint,
    requester BlockRepositoryRequester,
    resolver BlockRepositoryOffsetResolver,
    verifier BlockChecksumVerifier,
) *BlockRepositoryBase {
    return &BlockRepositoryBase{
        Requester:           requester,
        BlockSourceResolver: resolver,
        Verifier:            verifier,
        requestChannel:      make(chan patcher.MissingBlockSpan),
        repositoryID:        repositoryID,
    }
}

type BlockRepositoryBase struct {
    Requester           BlockRepositoryRequester
    BlockSourceResolver BlockRepositoryOffsetResolver
    Verifier            BlockChecksumVerifier

    requestChannel chan patcher.MissingBlockSpan
    repositoryID   uint
}

func (b *BlockRepositoryBase) RepositoryID() uint {
    return b.repositoryID
}

func (b *BlockRepositoryBase) RequestBlocks(block patcher.MissingBlockSpan) error {
    b.requestChannel <- block
    return nil
}

/*
 * HandleRequest runs the repository's serving loop until exitC closes. Responses are held back until they are
 * the lowest outstanding block, so a consumer always receives this repository's blocks in ascending order even
 * when requests were split or queued out of order.
 */
func (b *BlockRepositoryBase) HandleRequest(
    waiter *sync.WaitGroup,
    exitC chan bool,
    errorC chan *patcher.RepositoryError,
    responseC chan patcher.RepositoryResponse,
) {
    var (
        retryCount    = 0
        pendingErrors = &ErrorWatcher{
            ErrorChannel: errorC,
        }
        pendingResponse = &PendingResponseHelper{
            ResponseChannel: responseC,
        }
        requestQueue     = make(patcher.QueuedRequestList, 0, 2)
        requestOrdering  = make(uslice.UintSlice, 0, 1)
        responseOrdering = make(PendingResponses, 0, 1)
    )

    defer func() {
        close(b.requestChannel)
        waiter.Done()
    }()

requestLoop:
    for {
        if len(requestQueue) != 0 {
            // dispatch the lowest queued request
            nextRequest := requestQueue[len(requestQueue)-1]

            // not a retrial, so track its ordering
            if retryCount == 0 {
                requestOrdering = append(requestOrdering, nextRequest.StartBlock)
                sort.Sort(sort.Reverse(requestOrdering))
            }

            startOffset := b.BlockSourceResolver.GetBlockStartOffset(nextRequest.StartBlock)
            endOffset := b.BlockSourceResolver.GetBlockEndOffset(nextRequest.EndBlock)

            retryCount++
            response, err := b.Requester.DoRequest(startOffset, endOffset)

            if err != nil {
                if !b.Requester.IsFatal(err) && retryCount < repositoryRetryLimit {
                    time.Sleep(retryDelay)
                    continue requestLoop
                }

                // give up on this request and report it
                requestQueue = requestQueue[:len(requestQueue)-1]
                requestOrdering = requestOrdering[:len(requestOrdering)-1]
                retryCount = 0
                pendingErrors.SetError(patcher.NewRepositoryError(
                    b.repositoryID,
                    nextRequest,
                    err))
                goto resultReport
            }

            var checksum []byte
            if b.Verifier != nil {
                checksum, err = b.Verifier.BlockChecksumForRange(nextRequest.StartBlock, response)
                if err != nil {
                    if retryCount < repositoryRetryLimit {
                        time.Sleep(retryDelay)
                        continue requestLoop
                    }

                    requestQueue = requestQueue[:len(requestQueue)-1]
                    requestOrdering = requestOrdering[:len(requestOrdering)-1]
                    retryCount = 0
                    pendingErrors.SetError(patcher.NewRepositoryError(
                        b.repositoryID,
                        nextRequest,
                        err))
                    goto resultReport
                }
            }

            // request served; remove it from the queue and stack the response
            retryCount = 0
            requestQueue = requestQueue[:len(requestQueue)-1]

            responseOrdering = append(responseOrdering,
                patcher.RepositoryResponse{
                    RepositoryID:   b.repositoryID,
                    BlockID:        nextRequest.StartBlock,
                    Data:           response,
                    StrongChecksum: checksum,
                })
            sort.Sort(sort.Reverse(responseOrdering))

            // only release a response once it is the lowest requested block
            lowestRequest := requestOrdering[len(requestOrdering)-1]
            if lowestRequest == nextRequest.StartBlock {
                lowestResponse := responseOrdering[len(responseOrdering)-1]
                pendingResponse.Clear()
                pendingResponse.SetResponse(&lowestResponse)
            }
        }

    resultReport:
        select {
        case <-exitC:
            return

        case pendingErrors.SendIfSet() <- pendingErrors.Err():
            pendingErrors.Clear()
            return

        case pendingResponse.SendIfPending() <- pendingResponse.Response():
            pendingResponse.Clear()
            responseOrdering = responseOrdering[:len(responseOrdering)-1]
            requestOrdering = requestOrdering[:len(requestOrdering)-1]

            // release the next response if it is already in
            if len(responseOrdering) > 0 && len(requestOrdering) > 0 {
                lowestResponse := responseOrdering[len(responseOrdering)-1]
                if requestOrdering[len(requestOrdering)-1] == lowestResponse.BlockID {
                    pendingResponse.SetResponse(&lowestResponse)
                }
            }

        case newRequest := <-b.requestChannel:
            requestQueue = append(
                requestQueue,
                b.BlockSourceResolver.SplitBlockRangeToDesiredSize(newRequest)...)

            sort.Sort(sort.Reverse(requestQueue))
        }
    }
}
