package pyzsync

import (
    "bytes"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestConfigValidation(t *testing.T) {
    assert.NoError(t, NewConfig().Validate())
    assert.Error(t, Config{BlockSize: 0}.Validate())
    assert.Error(t, Config{BlockSize: 4, MaxDataOp: -1}.Validate())
}

func TestBlockChecksums(t *testing.T) {
    c := Config{BlockSize: 4}

    root, sequence, err := BlockChecksums(strings.NewReader("aaaabbbbcc"), c)
    require.NoError(t, err)

    assert.Len(t, sequence, 3)
    assert.NotNil(t, root)
    assert.Equal(t, int64(2), sequence[2].Size)

    // the root verifies the transmitted sequence
    idx := IndexFromChecksums(c, sequence)
    assert.NoError(t, idx.VerifyRootHash(sequence.HashList()))
}

// The streaming protocol end to end: the holder of the new data computes the
// delta against the old version's signatures, the holder of the old version
// replays it.
func TestStreamingSynchronization(t *testing.T) {
    var (
        c         = Config{BlockSize: 4}
        oldData   = "The quick brown fox jumped over the lazy dog"
        newData   = "The quick brown fox jumped over the lazy cat"
    )

    _, idx, err := BuildIndex(strings.NewReader(oldData), c)
    require.NoError(t, err)

    ops, err := RsyncDelta(strings.NewReader(newData), idx, c)
    require.NoError(t, err)

    output := &bytes.Buffer{}
    require.NoError(t, Patch(strings.NewReader(oldData), ops, output, c))
    assert.Equal(t, newData, output.String())
}

// The two-phase protocol end to end: the holder of the old data blueprints the
// new version's signatures against what it already has, requests only the
// missing blocks, merges and applies.
func TestBlueprintSynchronization(t *testing.T) {
    var (
        c       = Config{BlockSize: 4}
        oldData = "aaaaXXXXbbbbcc"
        newData = "aaaaAAAAbbbbcc"
    )

    _, idx, err := BuildIndex(strings.NewReader(newData), c)
    require.NoError(t, err)

    blueprint, toRequest, err := ZsyncDelta(strings.NewReader(oldData), idx, c)
    require.NoError(t, err)
    assert.Equal(t, []uint{1}, toRequest)

    responses, err := GetBlocks(strings.NewReader(newData), toRequest, c)
    require.NoError(t, err)

    output := &bytes.Buffer{}
    require.NoError(t, MergeAndApply(blueprint, responses, strings.NewReader(oldData), output))
    assert.Equal(t, newData, output.String())
}

func TestPatchWithProgress(t *testing.T) {
    var (
        c       = Config{BlockSize: 4}
        oldData = "aaaabbbbcccc"
        newData = "aaaaZZbbbbcccc"
    )

    _, idx, err := BuildIndex(strings.NewReader(oldData), c)
    require.NoError(t, err)

    ops, err := RsyncDelta(strings.NewReader(newData), idx, c)
    require.NoError(t, err)

    output := &bytes.Buffer{}
    progressC, errC, err := PatchWithProgress(
        strings.NewReader(oldData), ops, output, uint64(len(newData)), c)
    require.NoError(t, err)

    var last PipeProgressSnapshot
    for p := range progressC {
        last = PipeProgressSnapshot{Accumulated: p.Accumulated, DonePercent: p.DonePercent}
    }
    for err := range errC {
        require.NoError(t, err)
    }

    assert.Equal(t, newData, output.String())
    assert.Equal(t, uint64(len(newData)), last.Accumulated)
}

// keeps the test focused on the fields it checks
type PipeProgressSnapshot struct {
    Accumulated uint64
    DonePercent float32
}

func TestDeltaRejectsInvalidConfig(t *testing.T) {
    _, err := RsyncDelta(strings.NewReader("x"), nil, Config{})
    assert.Error(t, err)

    _, _, err = ZsyncDelta(strings.NewReader("x"), nil, Config{})
    assert.Error(t, err)
}
