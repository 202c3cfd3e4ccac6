package pyzsync

const (
    PyZsyncDefaultBlockSize = 4096
    PyZsyncMagicString      = "PZ5YNC" // just to confirm the file type is used correctly
    PyZsyncMajorVersion     = uint16(0)
    PyZsyncMinorVersion     = uint16(2)
    PyZsyncPatchVersion     = uint16(0)
)
