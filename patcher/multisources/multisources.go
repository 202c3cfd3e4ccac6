/*
 * Package multisources fetches the blocks a blueprint could not resolve locally from a pool of block
 * repositories. Fetched blocks are verified and merged into the blueprint as they arrive; once every
 * slot is filled the blueprint can be applied against the local file to produce the target.
 */
package multisources

import (
    "io"
    "math/rand"
    "sort"
    "sync"

    "github.com/pkg/errors"
    log "github.com/sirupsen/logrus"

    "github.com/FranciscoSilveira/pyzsync/patcher"
    "github.com/FranciscoSilveira/pyzsync/util/uslice"
)

func NewMultiSourceFetcher(
    blueprint *patcher.Blueprint,
    repositories []patcher.BlockRepository,
) (*MultiSourceFetcher, error) {
    if blueprint == nil {
        return nil, errors.Errorf("no blueprint to fetch missing blocks for")
    }
    if len(repositories) == 0 {
        return nil, errors.Errorf("no block repository set for obtaining missing blocks")
    }

    rMap := map[uint]patcher.BlockRepository{}
    for _, r := range repositories {
        rMap[r.RepositoryID()] = r
    }

    return &MultiSourceFetcher{
        blueprint:    blueprint,
        repositories: rMap,

        repoWaiter:    &sync.WaitGroup{},
        repoExitC:     make(chan bool),
        repoErrorC:    make(chan *patcher.RepositoryError),
        repoResponseC: make(chan patcher.RepositoryResponse),
    }, nil
}

type MultiSourceFetcher struct {
    blueprint    *patcher.Blueprint
    repositories map[uint]patcher.BlockRepository

    // repository handling
    repoWaiter    *sync.WaitGroup
    repoExitC     chan bool
    repoErrorC    chan *patcher.RepositoryError
    repoResponseC chan patcher.RepositoryResponse
}

func (m *MultiSourceFetcher) closeRepositories() error {
    close(m.repoExitC)
    m.repoWaiter.Wait()
    close(m.repoErrorC)
    close(m.repoResponseC)
    return nil
}

/*
 * Fetch requests every block on the blueprint's request list from the repository pool and merges the
 * responses as they arrive. One block is requested per repository at a time; a repository returns to the
 * pool when its response comes in, so faster repositories naturally serve more blocks.
 */
func (m *MultiSourceFetcher) Fetch() error {
    defer m.closeRepositories()

    var (
        toRequest      = m.blueprint.ToRequest()
        nextRequest    = 0
        received       = 0
        repositoryPool = makeRepositoryPoolFromMap(m.repositories)
    )

    if len(toRequest) == 0 {
        log.Debugf("[FETCHER] nothing to request, every block resolved locally")
        return nil
    }

    // launch repository pool
    for _, r := range m.repositories {
        log.Debugf("[FETCHER] repo %v starting into pool...", r.RepositoryID())
        m.repoWaiter.Add(1)
        go r.HandleRequest(m.repoWaiter, m.repoExitC, m.repoErrorC, m.repoResponseC)
    }

    for received < len(toRequest) {

        // hand out one block per idle repository
        for 0 < len(repositoryPool) && nextRequest < len(toRequest) {
            var (
                missing = toRequest[nextRequest]
                pIndex  = rand.Intn(len(repositoryPool))
                poolID  = repositoryPool[pIndex]
            )
            log.Debugf("[FETCHER] missing blk %v | pool %v | pool id %v", missing, repositoryPool, poolID)
            repositoryPool = uslice.DelElementFromSlice(repositoryPool, poolID)

            if err := m.repositories[poolID].RequestBlocks(patcher.MissingBlockSpan{
                BlockSize:  m.blueprint.BlockSize,
                StartBlock: missing,
                EndBlock:   missing,
            }); err != nil {
                return errors.WithStack(err)
            }

            nextRequest++
        }

        select {
        case repoErr := <-m.repoErrorC:
            log.Debugf("[FETCHER] error detected %v", repoErr.Error())
            return errors.Wrapf(repoErr,
                "repository %v failed to serve blocks [%v, %v]",
                repoErr.RepositoryID(),
                repoErr.MissingBlock().StartBlock,
                repoErr.MissingBlock().EndBlock)

        case result := <-m.repoResponseC:
            log.Debugf("[FETCHER] received block %v from repo %v", result.BlockID, result.RepositoryID)

            if err := m.blueprint.MergeBlock(result.BlockID, result.Data); err != nil {
                return errors.WithStack(err)
            }
            received++

            // put back the repo id into available pool
            repositoryPool = uslice.AddElementToSlice(repositoryPool, result.RepositoryID)
        }
    }

    return nil
}

// FetchAndApply fetches every missing block and then applies the completed
// blueprint, writing the reconstructed target to output.
func (m *MultiSourceFetcher) FetchAndApply(localFile io.ReadSeeker, output io.Writer) error {
    if err := m.Fetch(); err != nil {
        return err
    }
    return m.blueprint.Apply(localFile, output)
}

func makeRepositoryPoolFromMap(repos map[uint]patcher.BlockRepository) uslice.UintSlice {
    var rID = uslice.UintSlice{}
    for id := range repos {
        rID = append(rID, id)
    }
    sort.Sort(rID)
    return rID
}
