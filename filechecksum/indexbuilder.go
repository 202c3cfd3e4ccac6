package filechecksum

import (
    "bytes"
    "io"

    "github.com/FranciscoSilveira/pyzsync/chunks"
    "github.com/FranciscoSilveira/pyzsync/index"
)

/*
 * BuildChecksumIndex is a shortcut that generates checksums from a reader, reloads them from their serialized
 * form and builds the lookup index, returning the root checksum and a strong-checksum lookup alongside.
 * Mostly here so that tests and the top-level convenience API don't have to wire the pieces by hand.
 */
func BuildChecksumIndex(check *FileChecksumGenerator, r io.Reader) (
    rootChecksum []byte,
    i *index.ChecksumIndex,
    lookup ChecksumLookup,
    err error,
) {
    var (
        b          = bytes.NewBuffer(nil)
        weakSize   = check.GetWeakRollingHash().Size()
        strongSize = check.GetStrongHash().Size()
    )

    rootChecksum, err = check.GenerateChecksums(r, b)
    if err != nil {
        return
    }

    readChunks, err := chunks.LoadChecksumsFromReader(b, weakSize, strongSize)
    if err != nil {
        return
    }

    i = index.MakeChecksumIndex(check.BlockSize(), readChunks)
    lookup = chunks.StrongChecksumGetter(readChunks)

    return
}

func BuildIndexFromString(generator *FileChecksumGenerator, reference string) (
    rootChecksum []byte,
    referenceIndex *index.ChecksumIndex,
    lookup ChecksumLookup,
    err error,
) {
    return BuildChecksumIndex(generator, bytes.NewBufferString(reference))
}
