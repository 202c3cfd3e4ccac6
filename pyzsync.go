/*
 * Package pyzsync synchronizes a local copy of a file with a remote target by transferring only the parts
 * that differ. The remote side summarizes its file as one (weak, strong) checksum pair per fixed-size block;
 * the local side slides a rolling checksum over its own data to find which remote blocks it already holds,
 * and then either streams an ordered delta (rsync style) or requests exactly the missing blocks and patches
 * in place order (zsync style).
 *
 * This package is the high level surface; the work happens in filechecksum, index, comparer, delta and
 * patcher, which can be used directly when more control is needed.
 */
package pyzsync

import (
    "io"

    "github.com/pkg/errors"

    "github.com/FranciscoSilveira/pyzsync/chunks"
    "github.com/FranciscoSilveira/pyzsync/delta"
    "github.com/FranciscoSilveira/pyzsync/filechecksum"
    "github.com/FranciscoSilveira/pyzsync/index"
    "github.com/FranciscoSilveira/pyzsync/patcher"
    "github.com/FranciscoSilveira/pyzsync/showpipe"
)

/*
 * BlockChecksums reads the reference stream and returns its sequential checksum list together with the root
 * checksum over the strong checksums. The sequence is what gets transmitted to the side holding the candidate
 * data; the root lets that side verify the sequence arrived intact.
 */
func BlockChecksums(reference io.Reader, c Config) ([]byte, chunks.SequentialChecksumList, error) {
    if err := c.Validate(); err != nil {
        return nil, nil, errors.WithStack(err)
    }

    generator := filechecksum.NewFileChecksumGenerator(c.BlockSize)
    sequence, err := generator.List(reference)
    if err != nil {
        return nil, nil, err
    }

    root, err := sequence.RootHash()
    if err != nil {
        return nil, nil, err
    }
    return root, sequence, nil
}

// BuildIndex reads the reference stream and returns a searchable checksum index
// plus the root checksum, for use with RsyncDelta and ZsyncDelta.
func BuildIndex(reference io.Reader, c Config) ([]byte, *index.ChecksumIndex, error) {
    if err := c.Validate(); err != nil {
        return nil, nil, errors.WithStack(err)
    }

    generator := filechecksum.NewFileChecksumGenerator(c.BlockSize)
    root, idx, _, err := filechecksum.BuildChecksumIndex(generator, reference)
    if err != nil {
        return nil, nil, err
    }
    return root, idx, nil
}

// IndexFromChecksums builds a searchable index from a previously transmitted
// checksum sequence.
func IndexFromChecksums(c Config, sequence chunks.SequentialChecksumList) *index.ChecksumIndex {
    return index.MakeChecksumIndex(c.BlockSize, sequence)
}

/*
 * RsyncDelta walks the candidate stream against the reference index and returns the ordered operation list
 * that rebuilds the candidate from the reference: block references where a reference block was found in the
 * candidate, literal data everywhere else.
 */
func RsyncDelta(candidate io.Reader, idx *index.ChecksumIndex, c Config) ([]patcher.Operation, error) {
    if err := c.Validate(); err != nil {
        return nil, errors.WithStack(err)
    }
    return delta.Rsync(candidate, idx, c.BlockSize, c.maxDataOp())
}

/*
 * ZsyncDelta walks the candidate stream against the reference index and returns a blueprint with one slot per
 * reference block, plus the ascending list of block IDs the candidate could not provide. Feed the list to a
 * fetcher (patcher/multisources, or ReadBlocks against any seekable source), merge the responses into the
 * blueprint and apply it.
 */
func ZsyncDelta(candidate io.Reader, idx *index.ChecksumIndex, c Config) (*patcher.Blueprint, []uint, error) {
    if err := c.Validate(); err != nil {
        return nil, nil, errors.WithStack(err)
    }
    return delta.Zsync(candidate, idx, c.BlockSize)
}

// GetBlocks reads the requested block IDs out of a seekable source, typically
// to serve another peer's ZsyncDelta request list.
func GetBlocks(source io.ReadSeeker, requests []uint, c Config) ([]patcher.RepositoryResponse, error) {
    if err := c.Validate(); err != nil {
        return nil, errors.WithStack(err)
    }
    return patcher.ReadBlocks(source, requests, int64(c.BlockSize))
}

// Patch replays a streaming delta against the reference stream, writing the
// reconstructed candidate to output.
func Patch(reference io.ReadSeeker, ops []patcher.Operation, output io.Writer, c Config) error {
    if err := c.Validate(); err != nil {
        return errors.WithStack(err)
    }
    return patcher.ApplyDelta(int64(c.BlockSize), ops, reference, output)
}

/*
 * PatchWithProgress is Patch with a progress feed: reconstruction goes through a reporting pipe sized with
 * expectedSize, and every chunk read publishes a snapshot on the returned channel. The channel closes when
 * patching finishes; the caller must drain it.
 */
func PatchWithProgress(
    reference io.ReadSeeker,
    ops []patcher.Operation,
    output io.Writer,
    expectedSize uint64,
    c Config,
) (<-chan showpipe.PipeProgress, <-chan error, error) {
    if err := c.Validate(); err != nil {
        return nil, nil, errors.WithStack(err)
    }

    var (
        pr, pw, progressC = showpipe.PipeWithReport(expectedSize)
        errC              = make(chan error, 1)
        copied            = make(chan struct{})
    )

    go func() {
        _, err := io.Copy(output, pr)
        if err != nil {
            pr.CloseWithError(err)
        } else {
            pr.Close()
        }
        errC <- err
        close(copied)
    }()

    go func() {
        err := patcher.ApplyDelta(int64(c.BlockSize), ops, reference, pw)
        pw.CloseWithError(err)
        <-copied
        close(errC)
    }()

    return progressC, errC, nil
}

// MergeAndApply merges fetched blocks into the blueprint and applies it against
// the local file, writing the reconstructed target to output.
func MergeAndApply(
    blueprint *patcher.Blueprint,
    responses []patcher.RepositoryResponse,
    local io.ReadSeeker,
    output io.Writer,
) error {
    if err := blueprint.Merge(responses); err != nil {
        return err
    }
    return blueprint.Apply(local, output)
}
