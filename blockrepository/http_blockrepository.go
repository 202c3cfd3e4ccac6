package blockrepository

import (
    "fmt"
    "io"
    "net/http"

    "github.com/pkg/errors"
)

/*
 * HttpRequester fetches block ranges over HTTP with ranged GET requests, so a plain file server holding the
 * target file can act as a block repository. The server must honor Range headers (respond with 206).
 */
type HttpRequester struct {
    client *http.Client
    url    string
}

func NewHttpRequester(client *http.Client, url string) *HttpRequester {
    if client == nil {
        client = http.DefaultClient
    }
    return &HttpRequester{
        client: client,
        url:    url,
    }
}

// URLNotFoundError is raised when the server responds 404; it is always fatal.
type URLNotFoundError string

func (u URLNotFoundError) Error() string {
    return "404 Error on URL: " + string(u)
}

// RangedRequestNotSupportedError indicates the server ignored the Range header.
var RangedRequestNotSupportedError = errors.New("ranged request not supported (server did not respond with 206 Partial Content)")

func (r *HttpRequester) DoRequest(startOffset int64, endOffset int64) (data []byte, err error) {
    rangedRequest, err := http.NewRequest("GET", r.url, nil)
    if err != nil {
        return nil, errors.Wrapf(err, "error creating request for %v", r.url)
    }

    // the Range header is inclusive on both ends
    rangeSpecifier := fmt.Sprintf("bytes=%v-%v", startOffset, endOffset-1)
    rangedRequest.ProtoAtLeast(1, 1)
    rangedRequest.Header.Add("Range", rangeSpecifier)

    rangedResponse, err := r.client.Do(rangedRequest)
    if err != nil {
        return nil, errors.Wrapf(err, "error executing request for %v", r.url)
    }
    defer rangedResponse.Body.Close()

    switch {
    case rangedResponse.StatusCode == http.StatusNotFound:
        return nil, URLNotFoundError(r.url)
    case rangedResponse.StatusCode != http.StatusPartialContent:
        return nil, RangedRequestNotSupportedError
    }

    buf := make([]byte, endOffset-startOffset)
    n, err := io.ReadFull(rangedResponse.Body, buf)
    if err == io.ErrUnexpectedEOF {
        return buf[:n], nil
    } else if err != nil {
        return nil, errors.Wrapf(err, "failed to read response body for %v", r.url)
    }

    return buf, nil
}

func (r *HttpRequester) IsFatal(err error) bool {
    switch errors.Cause(err).(type) {
    case URLNotFoundError:
        return true
    default:
        return errors.Cause(err) == RangedRequestNotSupportedError
    }
}

/*
 * NewHttpBlockRepository builds a repository fetching blocks from url. When idx is non-nil every fetched
 * block is verified against the checksum index before it is handed to the fetcher.
 */
func NewHttpBlockRepository(
    repositoryID uint,
    url string,
    client *http.Client,
    blockSize int64,
    verifier BlockChecksumVerifier,
) *BlockRepositoryBase {
    return NewBlockRepositoryBase(
        repositoryID,
        NewHttpRequester(client, url),
        MakeFileSizedBlockResolver(blockSize, 0),
        verifier,
    )
}
