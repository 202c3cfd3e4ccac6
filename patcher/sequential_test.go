package patcher

import (
    "bytes"
    "strings"
    "testing"

    "github.com/pkg/errors"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestApplyDeltaLiteralOnly(t *testing.T) {
    ops := []Operation{
        {Type: OpData, Data: []byte("hello ")},
        {Type: OpData, Data: []byte("world")},
    }

    output := &bytes.Buffer{}
    require.NoError(t, ApplyDelta(4, ops, strings.NewReader(""), output))
    assert.Equal(t, "hello world", output.String())
}

func TestApplyDeltaBlockReferences(t *testing.T) {
    reference := "aaaabbbbcccc"
    ops := []Operation{
        {Type: OpBlock, BlockID: 2},
        {Type: OpData, Data: []byte("--")},
        {Type: OpBlock, BlockID: 0},
    }

    output := &bytes.Buffer{}
    require.NoError(t, ApplyDelta(4, ops, strings.NewReader(reference), output))
    assert.Equal(t, "cccc--aaaa", output.String())
}

func TestApplyDeltaRepeatedBlockReferences(t *testing.T) {
    reference := "aaaabbbb"
    ops := []Operation{
        {Type: OpBlock, BlockID: 0},
        {Type: OpBlock, BlockID: 0},
        {Type: OpBlock, BlockID: 0},
    }

    output := &bytes.Buffer{}
    require.NoError(t, ApplyDelta(4, ops, strings.NewReader(reference), output))
    assert.Equal(t, "aaaaaaaaaaaa", output.String())
}

func TestApplyDeltaShortFinalBlock(t *testing.T) {
    reference := "aaaabb"
    ops := []Operation{
        {Type: OpBlock, BlockID: 0},
        {Type: OpBlock, BlockID: 1},
    }

    output := &bytes.Buffer{}
    require.NoError(t, ApplyDelta(4, ops, strings.NewReader(reference), output))
    assert.Equal(t, "aaaabb", output.String())
}

func TestApplyDeltaStaleReferenceFails(t *testing.T) {
    ops := []Operation{
        {Type: OpBlock, BlockID: 5},
    }

    err := ApplyDelta(4, ops, strings.NewReader("aaaa"), &bytes.Buffer{})
    require.Error(t, err)
    assert.Equal(t, ErrSourceExhausted, errors.Cause(err))
}

func TestApplyDeltaRejectsBadBlockSize(t *testing.T) {
    err := ApplyDelta(0, nil, strings.NewReader(""), &bytes.Buffer{})
    require.Error(t, err)
    assert.Equal(t, ErrBlockSizeMismatch, errors.Cause(err))
}
