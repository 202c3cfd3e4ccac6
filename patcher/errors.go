package patcher

import (
    "github.com/pkg/errors"
)

/*
 * Fatal apply-time conditions. All of them indicate a contract violation by the caller rather than a transient
 * fault, so none are retried; they surface immediately, wrapped with whatever context the failing component can
 * add. Callers test with errors.Cause / errors.Is.
 */
var (
    // ErrSourceExhausted: an instruction references bytes past the current end of its source,
    // meaning the instruction set is stale relative to that source.
    ErrSourceExhausted = errors.New("source exhausted before instruction could be satisfied")

    // ErrBlockSizeMismatch: the block size configured for matching or applying differs from
    // the one the signature index was built with.
    ErrBlockSizeMismatch = errors.New("block size differs from the one the signatures were built with")

    // ErrUnresolvedBlock: a blueprint was applied while one of its slots was still unresolved,
    // meaning the merge step was skipped or incomplete.
    ErrUnresolvedBlock = errors.New("blueprint slot still unresolved at apply time")
)

// RepositoryError ties a fetch failure to the repository and the block span it was serving.
type RepositoryError struct {
    repositoryID uint
    missingBlk   MissingBlockSpan
    reasonErr    error
}

func NewRepositoryError(
    repositoryID uint,
    missingBlock MissingBlockSpan,
    reasonErr error,
) *RepositoryError {
    return &RepositoryError{
        repositoryID: repositoryID,
        missingBlk:   missingBlock,
        reasonErr:    reasonErr,
    }
}

func (e *RepositoryError) Error() string {
    return e.reasonErr.Error()
}

func (e *RepositoryError) RepositoryID() uint {
    return e.repositoryID
}

func (e *RepositoryError) MissingBlock() MissingBlockSpan {
    return e.missingBlk
}
