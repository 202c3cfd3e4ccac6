package pyzsync

import (
    validation "github.com/go-ozzo/ozzo-validation"
)

/*
 * Config collects the tunables shared by signature generation, delta encoding and patching. Both sides of a
 * synchronization must agree on BlockSize; MaxDataOp only affects the shape of a streaming delta and defaults
 * to BlockSize when unset.
 */
type Config struct {
    // BlockSize is the length in bytes of the fixed reference blocks.
    BlockSize uint

    // MaxDataOp caps how many literal bytes a single data operation of a
    // streaming delta may carry. Zero means one block's worth.
    MaxDataOp int
}

func NewConfig() Config {
    return Config{
        BlockSize: PyZsyncDefaultBlockSize,
    }
}

func (c Config) Validate() error {
    return validation.ValidateStruct(&c,
        validation.Field(&c.BlockSize, validation.Required, validation.Min(uint(1))),
        validation.Field(&c.MaxDataOp, validation.Min(0)),
    )
}

func (c Config) maxDataOp() int {
    if c.MaxDataOp <= 0 {
        return int(c.BlockSize)
    }
    return c.MaxDataOp
}
