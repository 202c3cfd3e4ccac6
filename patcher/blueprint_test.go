package patcher

import (
    "bytes"
    "crypto/md5"
    "strings"
    "testing"

    "github.com/pkg/errors"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/FranciscoSilveira/pyzsync/chunks"
)

func checksumListFor(blockSize int, blocks ...string) chunks.SequentialChecksumList {
    var list chunks.SequentialChecksumList
    for i, b := range blocks {
        sum := md5.Sum([]byte(b))
        list = append(list, chunks.ChunkChecksum{
            ChunkOffset:    uint(i),
            Size:           int64(len(b)),
            StrongChecksum: sum[:],
        })
    }
    return list
}

func TestNewBlueprintStartsUnresolved(t *testing.T) {
    b := NewBlueprint(4, checksumListFor(4, "aaaa", "bbbb"))

    require.Len(t, b.Blocks, 2)
    for _, slot := range b.Blocks {
        assert.Equal(t, SlotUnresolved, slot.Kind)
    }
    assert.Equal(t, []uint{0, 1}, b.ToRequest())
}

func TestResolveIsFirstWins(t *testing.T) {
    b := NewBlueprint(4, checksumListFor(4, "aaaa", "bbbb"))

    assert.True(t, b.Resolve(0, 8))
    assert.False(t, b.Resolve(0, 16))
    assert.Equal(t, int64(8), b.Blocks[0].LocalOffset)

    assert.Equal(t, []uint{1}, b.ToRequest())
}

func TestMergeBlockVerifiesChecksum(t *testing.T) {
    b := NewBlueprint(4, checksumListFor(4, "aaaa"))

    err := b.MergeBlock(0, []byte("XXXX"))
    require.Error(t, err)

    require.NoError(t, b.MergeBlock(0, []byte("aaaa")))
    assert.Equal(t, SlotRaw, b.Blocks[0].Kind)
}

func TestMergeBlockRejectsOutOfRange(t *testing.T) {
    b := NewBlueprint(4, checksumListFor(4, "aaaa"))
    assert.Error(t, b.MergeBlock(3, []byte("aaaa")))
}

func TestMergeBlockRejectsResolvedSlot(t *testing.T) {
    b := NewBlueprint(4, checksumListFor(4, "aaaa"))
    b.Resolve(0, 0)
    assert.Error(t, b.MergeBlock(0, []byte("aaaa")))
}

func TestApplyWithUnresolvedSlotFails(t *testing.T) {
    b := NewBlueprint(4, checksumListFor(4, "aaaa"))

    err := b.Apply(strings.NewReader("aaaa"), &bytes.Buffer{})
    require.Error(t, err)
    assert.Equal(t, ErrUnresolvedBlock, errors.Cause(err))
}

func TestApplyMixesLocalAndMergedBlocks(t *testing.T) {
    b := NewBlueprint(4, checksumListFor(4, "aaaa", "bbbb", "cc"))

    // local data holds block 0 at offset 4
    b.Resolve(0, 4)
    require.NoError(t, b.MergeBlock(1, []byte("bbbb")))
    require.NoError(t, b.MergeBlock(2, []byte("cc")))

    output := &bytes.Buffer{}
    require.NoError(t, b.Apply(strings.NewReader("XXXXaaaa"), output))
    assert.Equal(t, "aaaabbbbcc", output.String())
}

func TestApplyResolvedSlotPastLocalEndFails(t *testing.T) {
    b := NewBlueprint(4, checksumListFor(4, "aaaa", "bbbb"))
    b.Resolve(0, 2)
    require.NoError(t, b.MergeBlock(1, []byte("bbbb")))

    err := b.Apply(strings.NewReader("abcd"), &bytes.Buffer{})
    require.Error(t, err)
    assert.Equal(t, ErrSourceExhausted, errors.Cause(err))
}

func TestApplyToleratesShortFinalResolvedBlock(t *testing.T) {
    // serialized signatures carry no block sizes, so the slot for a short
    // final block reports the full block size and Apply trims at EOF
    list := checksumListFor(4, "aaaa", "cc")
    list[1].Size = 0
    b := NewBlueprint(4, list)
    require.NoError(t, b.MergeBlock(0, []byte("aaaa")))
    b.Resolve(1, 2)

    output := &bytes.Buffer{}
    require.NoError(t, b.Apply(strings.NewReader("XXcc"), output))
    assert.Equal(t, "aaaacc", output.String())
}

func TestReadBlocks(t *testing.T) {
    responses, err := ReadBlocks(strings.NewReader("aaaabbbbcc"), []uint{0, 2}, 4)
    require.NoError(t, err)

    require.Len(t, responses, 2)
    assert.Equal(t, uint(0), responses[0].BlockID)
    assert.Equal(t, []byte("aaaa"), responses[0].Data)
    assert.Equal(t, uint(2), responses[1].BlockID)
    assert.Equal(t, []byte("cc"), responses[1].Data)
}

func TestReadBlocksPastEndFails(t *testing.T) {
    _, err := ReadBlocks(strings.NewReader("aaaa"), []uint{2}, 4)
    require.Error(t, err)
    assert.Equal(t, ErrSourceExhausted, errors.Cause(err))
}
