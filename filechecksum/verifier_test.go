package filechecksum

import (
    "bytes"
    "crypto/md5"
    "testing"

    "github.com/FranciscoSilveira/pyzsync/chunks"
)

func makeLookup(blocks ...[]byte) chunks.StrongChecksumGetter {
    var getter chunks.StrongChecksumGetter
    for i, b := range blocks {
        sum := md5.Sum(b)
        getter = append(getter, chunks.ChunkChecksum{
            ChunkOffset:    uint(i),
            StrongChecksum: sum[:],
        })
    }
    return getter
}

func Test_VerifyBlockRange_AcceptsMatchingData(t *testing.T) {
    v := &HashVerifier{
        BlockSize:           4,
        Hash:                md5.New(),
        BlockChecksumGetter: makeLookup([]byte("aaaa"), []byte("bbbb")),
    }

    if !v.VerifyBlockRange(0, []byte("aaaabbbb")) {
        t.Error("A matching range should verify")
    }
}

func Test_VerifyBlockRange_RejectsCorruptedData(t *testing.T) {
    v := &HashVerifier{
        BlockSize:           4,
        Hash:                md5.New(),
        BlockChecksumGetter: makeLookup([]byte("aaaa"), []byte("bbbb")),
    }

    if v.VerifyBlockRange(0, []byte("aaaaXbbb")) {
        t.Error("A corrupted range should not verify")
    }
}

func Test_VerifyBlockRange_ShortFinalBlock(t *testing.T) {
    v := &HashVerifier{
        BlockSize:           4,
        Hash:                md5.New(),
        BlockChecksumGetter: makeLookup([]byte("aaaa"), []byte("xy")),
    }

    if !v.VerifyBlockRange(0, []byte("aaaaxy")) {
        t.Error("A short final block should verify against its short checksum")
    }
}

func Test_BlockChecksumForRange_ReturnsChecksumOnMatch(t *testing.T) {
    v := &HashVerifier{
        BlockSize:           4,
        Hash:                md5.New(),
        BlockChecksumGetter: makeLookup([]byte("aaaa")),
    }

    sum, err := v.BlockChecksumForRange(0, []byte("aaaa"))
    if err != nil {
        t.Fatal(err)
    }

    expected := md5.Sum([]byte("aaaa"))
    if !bytes.Equal(sum, expected[:]) {
        t.Errorf("Wrong checksum returned: %v", sum)
    }
}

func Test_BlockChecksumForRange_ErrorsOnMismatch(t *testing.T) {
    v := &HashVerifier{
        BlockSize:           4,
        Hash:                md5.New(),
        BlockChecksumGetter: makeLookup([]byte("aaaa")),
    }

    if _, err := v.BlockChecksumForRange(0, []byte("bbbb")); err == nil {
        t.Error("Expected an error on mismatching data")
    }
}

func Test_BlockChecksumForRange_ErrorsOnUnknownBlock(t *testing.T) {
    v := &HashVerifier{
        BlockSize:           4,
        Hash:                md5.New(),
        BlockChecksumGetter: makeLookup([]byte("aaaa")),
    }

    if _, err := v.BlockChecksumForRange(7, []byte("aaaa")); err == nil {
        t.Error("Expected an error for a block with no known checksum")
    }
}
