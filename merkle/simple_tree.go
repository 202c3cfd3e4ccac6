/*
 * Computes a deterministic minimal-height merkle tree hash over a list of block strong checksums.
 * If the number of items is not a power of two, some leaves will be at different levels. Both sides of
 * the tree are kept the same size where possible; the left may be one greater.
 *
 * The root lets the two sides of a sync agree on an entire signature sequence with a single comparison
 * before any matching work starts.
 */
package merkle

import (
    "github.com/pkg/errors"
    "golang.org/x/crypto/ripemd160"
)

func SimpleHashFromTwoHashes(left []byte, right []byte) ([]byte, error) {
    hasher := ripemd160.New()

    if _, err := hasher.Write(left); err != nil {
        return nil, errors.WithStack(err)
    }
    if _, err := hasher.Write(right); err != nil {
        return nil, errors.WithStack(err)
    }
    return hasher.Sum(nil), nil
}

func SimpleHashFromHashes(hashes [][]byte) ([]byte, error) {
    // Recursive impl.
    switch len(hashes) {
    case 0:
        return nil, errors.Errorf("invalid number of child hashes")
    case 1:
        return hashes[0], nil
    default:
        left, err := SimpleHashFromHashes(hashes[:(len(hashes)+1)/2])
        if err != nil {
            return nil, err
        }
        right, err := SimpleHashFromHashes(hashes[(len(hashes)+1)/2:])
        if err != nil {
            return nil, err
        }
        return SimpleHashFromTwoHashes(left, right)
    }
}
