package blockrepository

import (
    log "github.com/sirupsen/logrus"

    "github.com/FranciscoSilveira/pyzsync/patcher"
)

/*
 * ErrorWatcher holds at most one pending error, and gives a nil channel until one is set. This lets the serving
 * loop select on "send the error, if there is one" without a busy branch.
 */
type ErrorWatcher struct {
    ErrorChannel chan *patcher.RepositoryError
    lastError    *patcher.RepositoryError
}

func (w *ErrorWatcher) SetError(e *patcher.RepositoryError) {
    if w.lastError != nil {
        log.Errorf("setting a new error while one is still pending: dropping %v", w.lastError)
    }
    w.lastError = e
}

func (w *ErrorWatcher) Clear() {
    w.lastError = nil
}

func (w *ErrorWatcher) Err() *patcher.RepositoryError {
    return w.lastError
}

func (w *ErrorWatcher) SendIfSet() chan *patcher.RepositoryError {
    if w.lastError == nil {
        return nil
    }
    return w.ErrorChannel
}

// PendingResponseHelper is the response-side twin of ErrorWatcher.
type PendingResponseHelper struct {
    ResponseChannel chan patcher.RepositoryResponse
    pendingResponse *patcher.RepositoryResponse
}

func (w *PendingResponseHelper) SetResponse(r *patcher.RepositoryResponse) {
    if w.pendingResponse != nil {
        log.Errorf("setting a response while block %v is still pending: dropping it for block %v",
            w.pendingResponse.BlockID, r.BlockID)
    }
    w.pendingResponse = r
}

func (w *PendingResponseHelper) Clear() {
    w.pendingResponse = nil
}

func (w *PendingResponseHelper) Response() patcher.RepositoryResponse {
    if w.pendingResponse == nil {
        return patcher.RepositoryResponse{}
    }
    return *w.pendingResponse
}

func (w *PendingResponseHelper) SendIfPending() chan patcher.RepositoryResponse {
    if w.pendingResponse == nil {
        return nil
    }
    return w.ResponseChannel
}

// PendingResponses sorts responses by ascending block ID.
type PendingResponses []patcher.RepositoryResponse

func (r PendingResponses) Len() int {
    return len(r)
}

func (r PendingResponses) Swap(i, j int) {
    r[i], r[j] = r[j], r[i]
}

func (r PendingResponses) Less(i, j int) bool {
    return r[i].BlockID < r[j].BlockID
}

// FunctionChecksumVerifier adapts a plain function to BlockChecksumVerifier.
type FunctionChecksumVerifier func(startBlockID uint, data []byte) ([]byte, error)

func (f FunctionChecksumVerifier) BlockChecksumForRange(startBlockID uint, data []byte) ([]byte, error) {
    return f(startBlockID, data)
}
