/*
 * Package showpipe is a synchronous in-memory pipe that reports transfer progress. Reconstruction output is
 * written into the pipe's write half while the consumer drains the read half; when the pipe was created with
 * PipeWithReport, every read publishes a PipeProgress snapshot so a caller can display how far patching got.
 */
package showpipe

import (
    "io"
    "sync"
    "time"

    "github.com/pkg/errors"
)

// ErrClosedPipe is the error used for read or write operations on a closed pipe.
var ErrClosedPipe = errors.New("read/write on closed pipe")

// PipeProgress is one snapshot of how much data has passed through the pipe.
type PipeProgress struct {
    TotalSize   uint64
    Accumulated uint64
    Remaining   uint64
    DonePercent float32
    Speed       float32
}

// pipe is the shared structure behind PipeReader and PipeWriter. There is no
// internal buffering; a write parks until readers have consumed it.
type pipe struct {
    mu    sync.Mutex
    rwait sync.Cond
    wwait sync.Cond

    data []byte // remainder of the pending write, nil when none
    rerr error  // set when the read half closed
    werr error  // set when the write half closed

    reportC     chan PipeProgress
    totalSize   uint64
    accumulated uint64
    lastWrite   time.Time
    speed       float32
}

func newPipe() *pipe {
    p := new(pipe)
    p.rwait.L = &p.mu
    p.wwait.L = &p.mu
    return p
}

func (p *pipe) report(transferred int) {
    if p.reportC == nil {
        return
    }
    p.accumulated += uint64(transferred)

    var done float32
    if p.totalSize != 0 {
        done = float32(float64(p.accumulated) / float64(p.totalSize))
    }
    var remaining uint64
    if p.accumulated < p.totalSize {
        remaining = p.totalSize - p.accumulated
    }

    p.reportC <- PipeProgress{
        TotalSize:   p.totalSize,
        Accumulated: p.accumulated,
        Remaining:   remaining,
        DonePercent: done,
        Speed:       p.speed,
    }
}

func (p *pipe) measureSpeed(submitted int) {
    if p.lastWrite.IsZero() {
        p.speed = float32(submitted)
    } else {
        now := time.Now()
        p.speed = float32(float64(submitted) / float64(now.Sub(p.lastWrite)))
        p.lastWrite = now
    }
}

func (p *pipe) read(b []byte) (n int, err error) {
    p.mu.Lock()
    defer p.mu.Unlock()

    for {
        if p.rerr != nil {
            return 0, ErrClosedPipe
        }
        if p.data != nil {
            break
        }
        if p.werr != nil {
            return 0, p.werr
        }
        p.rwait.Wait()
    }

    n = copy(b, p.data)
    p.report(n)

    p.data = p.data[n:]
    if len(p.data) == 0 {
        p.data = nil
        p.wwait.Signal()
    }
    return n, nil
}

func (p *pipe) write(b []byte) (n int, err error) {
    p.mu.Lock()
    defer p.mu.Unlock()

    p.measureSpeed(len(b))
    if p.werr != nil {
        return 0, ErrClosedPipe
    }

    p.data = b
    if p.data == nil {
        p.data = []byte{}
    }
    p.rwait.Signal()

    for {
        if len(p.data) == 0 {
            break
        }
        if p.rerr != nil {
            err = p.rerr
            break
        }
        if p.werr != nil {
            err = ErrClosedPipe
            break
        }
        p.wwait.Wait()
    }

    n = len(b) - len(p.data)
    p.data = nil
    return n, err
}

func (p *pipe) rclose(err error) {
    if err == nil {
        err = ErrClosedPipe
    }
    p.mu.Lock()
    defer p.mu.Unlock()
    p.rerr = err
    if p.reportC != nil {
        close(p.reportC)
        p.reportC = nil
    }
    p.rwait.Signal()
    p.wwait.Signal()
}

func (p *pipe) wclose(err error) {
    if err == nil {
        err = io.EOF
    }
    p.mu.Lock()
    defer p.mu.Unlock()
    p.werr = err
    p.rwait.Signal()
    p.wwait.Signal()
}

// PipeReader is the read half of a pipe.
type PipeReader struct {
    p *pipe
}

func (r *PipeReader) Read(data []byte) (n int, err error) {
    return r.p.read(data)
}

func (r *PipeReader) Close() error {
    return r.CloseWithError(nil)
}

// CloseWithError closes the reader; subsequent writes to the write half return err.
func (r *PipeReader) CloseWithError(err error) error {
    r.p.rclose(err)
    return nil
}

// PipeWriter is the write half of a pipe.
type PipeWriter struct {
    p *pipe
}

func (w *PipeWriter) Write(data []byte) (n int, err error) {
    return w.p.write(data)
}

func (w *PipeWriter) Close() error {
    return w.CloseWithError(nil)
}

// CloseWithError closes the writer; subsequent reads from the read half return
// no bytes and err, or EOF when err is nil.
func (w *PipeWriter) CloseWithError(err error) error {
    w.p.wclose(err)
    return nil
}

// Pipe creates a synchronous in-memory pipe without progress reporting.
func Pipe() (*PipeReader, *PipeWriter) {
    p := newPipe()
    return &PipeReader{p}, &PipeWriter{p}
}

/*
 * PipeWithReport creates a pipe that publishes a PipeProgress on the returned channel for every read,
 * measured against totalSize. The channel closes when the read half closes; the consumer of the channel
 * must keep draining it or reads will block.
 */
func PipeWithReport(totalSize uint64) (*PipeReader, *PipeWriter, <-chan PipeProgress) {
    p := newPipe()
    p.reportC = make(chan PipeProgress)
    p.totalSize = totalSize
    return &PipeReader{p}, &PipeWriter{p}, p.reportC
}
