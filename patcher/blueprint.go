package patcher

import (
    "bytes"
    "crypto/md5"
    "io"

    "github.com/FranciscoSilveira/pyzsync/chunks"
    "github.com/pkg/errors"
)

// SlotKind says what a blueprint slot currently holds.
type SlotKind byte

const (
    // SlotUnresolved: no local match was found; the slot still holds the block's
    // checksums and waits for the block bytes to arrive from elsewhere
    SlotUnresolved SlotKind = iota
    // SlotResolved: the block's content is available in the candidate's own data
    // at a known byte offset
    SlotResolved
    // SlotRaw: the block bytes were fetched and merged in
    SlotRaw
)

// BlockSlot is one entry of a blueprint. Exactly one interpretation is active,
// selected by Kind; slots never carry both an offset and data.
type BlockSlot struct {
    Kind           SlotKind
    Size           int64
    LocalOffset    int64
    WeakChecksum   []byte
    StrongChecksum []byte
    Data           []byte
}

/*
 * Blueprint is the two-phase protocol's instruction table: one slot per reference block, indexed by block. After
 * a matching pass every slot is either resolved to an offset in the candidate's local data or still unresolved;
 * the unresolved ones are fetched out-of-band, merged in as raw data, and only then can the blueprint be applied.
 */
type Blueprint struct {
    BlockSize int64
    Blocks    []BlockSlot
}

// NewBlueprint pre-fills every slot as unresolved, carrying the checksums the
// fetched bytes will eventually be verified against.
func NewBlueprint(blockSize int64, checksums chunks.SequentialChecksumList) *Blueprint {
    b := &Blueprint{
        BlockSize: blockSize,
        Blocks:    make([]BlockSlot, len(checksums)),
    }

    for _, c := range checksums {
        size := c.Size
        if size == 0 {
            size = blockSize
        }
        b.Blocks[c.ChunkOffset] = BlockSlot{
            Kind:           SlotUnresolved,
            Size:           size,
            WeakChecksum:   c.WeakChecksum,
            StrongChecksum: c.StrongChecksum,
        }
    }

    return b
}

// Resolve marks a block as locally available at the given candidate offset.
// The first resolution wins; repeat confirmations of the same block are ignored.
func (b *Blueprint) Resolve(blockID uint, localOffset int64) bool {
    if b.Blocks[blockID].Kind != SlotUnresolved {
        return false
    }
    b.Blocks[blockID] = BlockSlot{
        Kind:        SlotResolved,
        Size:        b.Blocks[blockID].Size,
        LocalOffset: localOffset,
    }
    return true
}

// ToRequest lists the blocks that found no local match, in block order.
// Every index in [0, len(Blocks)) is either resolved or listed here, never both.
func (b *Blueprint) ToRequest() []uint {
    var toRequest []uint
    for blockID, slot := range b.Blocks {
        if slot.Kind == SlotUnresolved {
            toRequest = append(toRequest, uint(blockID))
        }
    }
    return toRequest
}

// MergeBlock fills an unresolved slot with externally fetched bytes, verifying
// them against the slot's strong checksum first.
func (b *Blueprint) MergeBlock(blockID uint, data []byte) error {
    if int(blockID) >= len(b.Blocks) {
        return errors.Errorf("merge of block %v outside blueprint of %v blocks", blockID, len(b.Blocks))
    }

    slot := b.Blocks[blockID]
    if slot.Kind != SlotUnresolved {
        return errors.Errorf("merge of block %v which is not awaiting data", blockID)
    }

    if slot.StrongChecksum != nil {
        digest := md5.Sum(data)
        if !bytes.Equal(digest[:], slot.StrongChecksum) {
            return errors.Errorf("fetched data for block %v does not match its strong checksum", blockID)
        }
    }

    b.Blocks[blockID] = BlockSlot{
        Kind: SlotRaw,
        Size: int64(len(data)),
        Data: data,
    }
    return nil
}

// Merge folds a batch of fetched responses into the blueprint.
func (b *Blueprint) Merge(responses []RepositoryResponse) error {
    for _, r := range responses {
        if err := b.MergeBlock(r.BlockID, r.Data); err != nil {
            return err
        }
    }
    return nil
}

/*
 * Apply writes the reconstructed content to output, reading resolved slots from the candidate's own local data.
 * Every slot must be resolved or raw by now; an unresolved slot means the merge step was skipped and is fatal
 * (ErrUnresolvedBlock). A resolved offset that cannot deliver its full block is fatal too (ErrSourceExhausted) -
 * the local data changed since the blueprint was computed.
 */
func (b *Blueprint) Apply(local io.ReadSeeker, output io.Writer) error {
    for blockID, slot := range b.Blocks {
        switch slot.Kind {
        case SlotRaw:
            if _, err := output.Write(slot.Data); err != nil {
                return errors.Wrap(err, "writing merged block")
            }

        case SlotResolved:
            if _, err := local.Seek(slot.LocalOffset, io.SeekStart); err != nil {
                return errors.Wrapf(err, "seeking local data for block %v", blockID)
            }

            buffer := make([]byte, slot.Size)
            n, err := io.ReadFull(local, buffer)
            if err != nil {
                // sizes do not travel with the signature stream, so the final
                // block of the target may legitimately come up short; a short
                // read anywhere else means the local data changed under us
                if blockID != len(b.Blocks)-1 || n == 0 {
                    return errors.Wrapf(ErrSourceExhausted, "local data for block %v at offset %v: %v",
                        blockID, slot.LocalOffset, err)
                }
                buffer = buffer[:n]
            }
            if _, err := output.Write(buffer); err != nil {
                return errors.Wrap(err, "writing local block")
            }

        default:
            return errors.Wrapf(ErrUnresolvedBlock, "block %v", blockID)
        }
    }

    return nil
}

/*
 * ReadBlocks serves a request manifest from an authoritative seekable source: for every requested block index
 * it reads the block's bytes and returns them keyed by index. This is the other party's half of the two-phase
 * protocol; transport of the responses is the caller's concern.
 */
func ReadBlocks(source io.ReadSeeker, requests []uint, blockSize int64) ([]RepositoryResponse, error) {
    responses := make([]RepositoryResponse, 0, len(requests))

    for _, blockID := range requests {
        if _, err := source.Seek(int64(blockID)*blockSize, io.SeekStart); err != nil {
            return nil, errors.Wrapf(err, "seeking source to block %v", blockID)
        }

        buffer := make([]byte, blockSize)
        n, err := io.ReadFull(source, buffer)
        if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
            return nil, errors.Wrapf(err, "reading source block %v", blockID)
        }
        if n == 0 {
            return nil, errors.Wrapf(ErrSourceExhausted, "source block %v", blockID)
        }

        responses = append(responses, RepositoryResponse{
            BlockID: blockID,
            Data:    buffer[:n],
        })
    }

    return responses, nil
}
