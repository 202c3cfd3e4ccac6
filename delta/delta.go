/*
 * Package delta turns block-matching events into the two instruction representations: an ordered operation
 * sequence for the streaming (rsync-style) protocol, and a block-indexed blueprint plus request manifest for
 * the two-phase (zsync-style) protocol. Both encoders plug into the same comparer scan; they only differ in
 * what they do with the events.
 */
package delta

import (
    "io"

    "github.com/FranciscoSilveira/pyzsync/chunks"
    "github.com/FranciscoSilveira/pyzsync/comparer"
    "github.com/FranciscoSilveira/pyzsync/index"
    "github.com/FranciscoSilveira/pyzsync/patcher"
)

/*
 * StreamEncoder accumulates unmatched bytes into literal runs and emits them interleaved with block references,
 * in candidate order. A literal run is flushed when a match interrupts it, when it reaches maxDataOp bytes
 * (bounding memory, not affecting correctness) and at the end of the scan, which is also what carries the final
 * partial-block tail into the delta.
 */
type StreamEncoder struct {
    maxDataOp int
    literal   []byte
    ops       []patcher.Operation
}

// NewStreamEncoder bounds literal runs at maxDataOp bytes.
func NewStreamEncoder(maxDataOp int) *StreamEncoder {
    return &StreamEncoder{
        maxDataOp: maxDataOp,
        literal:   make([]byte, 0, maxDataOp),
    }
}

func (e *StreamEncoder) flushLiteral() {
    if len(e.literal) == 0 {
        return
    }
    data := make([]byte, len(e.literal))
    copy(data, e.literal)
    e.ops = append(e.ops, patcher.Operation{Type: patcher.OpData, Data: data})
    e.literal = e.literal[:0]
}

func (e *StreamEncoder) OnMatch(blockID uint, candidateOffset int64) error {
    e.flushLiteral()
    e.ops = append(e.ops, patcher.Operation{Type: patcher.OpBlock, BlockID: blockID})
    return nil
}

func (e *StreamEncoder) OnUnmatchedByte(b byte) error {
    e.literal = append(e.literal, b)
    if len(e.literal) >= e.maxDataOp {
        e.flushLiteral()
    }
    return nil
}

func (e *StreamEncoder) OnEnd() error {
    e.flushLiteral()
    return nil
}

// Operations returns the encoded delta. Only meaningful after the scan has ended.
func (e *StreamEncoder) Operations() []patcher.Operation {
    return e.ops
}

/*
 * BlueprintEncoder fills a blueprint: one slot per reference block, resolved to a candidate offset when a match
 * confirms the block locally. Unmatched bytes carry no information for this protocol and are discarded. The
 * resolved set lives here, not in the signature index, so the index stays read-only and shareable; the first
 * confirmation of a block wins and later candidate positions for it are ignored.
 */
type BlueprintEncoder struct {
    blueprint *patcher.Blueprint
    resolved  map[uint]int64
}

func NewBlueprintEncoder(blockSize int64, checksums chunks.SequentialChecksumList) *BlueprintEncoder {
    return &BlueprintEncoder{
        blueprint: patcher.NewBlueprint(blockSize, checksums),
        resolved:  make(map[uint]int64),
    }
}

func (e *BlueprintEncoder) OnMatch(blockID uint, candidateOffset int64) error {
    if _, done := e.resolved[blockID]; done {
        return nil
    }
    e.resolved[blockID] = candidateOffset
    e.blueprint.Resolve(blockID, candidateOffset)
    return nil
}

func (e *BlueprintEncoder) OnUnmatchedByte(b byte) error {
    return nil
}

func (e *BlueprintEncoder) OnEnd() error {
    return nil
}

// Result returns the blueprint and the blocks that still need fetching, in block order.
func (e *BlueprintEncoder) Result() (*patcher.Blueprint, []uint) {
    return e.blueprint, e.blueprint.ToRequest()
}

// Rsync runs a streaming-delta scan of the candidate against the reference index.
func Rsync(candidate io.Reader, idx *index.ChecksumIndex, blockSize uint, maxDataOp int) ([]patcher.Operation, error) {
    if maxDataOp <= 0 {
        maxDataOp = int(blockSize)
    }

    enc := NewStreamEncoder(maxDataOp)
    if err := comparer.FindMatchingBlocks(candidate, idx, blockSize, enc); err != nil {
        return nil, err
    }
    return enc.Operations(), nil
}

// Zsync runs a blueprint scan of the candidate against the reference index, returning the
// instruction table and the request manifest.
func Zsync(candidate io.Reader, idx *index.ChecksumIndex, blockSize uint) (*patcher.Blueprint, []uint, error) {
    var sequence chunks.SequentialChecksumList
    if idx != nil {
        sequence = idx.SequentialChecksumList()
    }

    enc := NewBlueprintEncoder(int64(blockSize), sequence)
    if err := comparer.FindMatchingBlocks(candidate, idx, blockSize, enc); err != nil {
        return nil, nil, err
    }
    blueprint, toRequest := enc.Result()
    return blueprint, toRequest, nil
}
