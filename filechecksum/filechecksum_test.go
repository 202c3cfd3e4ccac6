package filechecksum

import (
    "bytes"
    "crypto/md5"
    "strings"
    "testing"

    "github.com/FranciscoSilveira/pyzsync/chunks"
)

func Test_GeneratedChecksumsCanBeLoadedBack(t *testing.T) {
    const blockSize = 4
    reference := "abcdefghijklmnop"

    check := NewFileChecksumGenerator(blockSize)
    serialized := &bytes.Buffer{}

    root, err := check.GenerateChecksums(strings.NewReader(reference), serialized)
    if err != nil {
        t.Fatal(err)
    }
    if root == nil {
        t.Fatal("Expected a root checksum")
    }

    weakSize, strongSize := check.GetChecksumSizes()
    loaded, err := chunks.LoadChecksumsFromReader(serialized, weakSize, strongSize)
    if err != nil {
        t.Fatal(err)
    }

    if len(loaded) != 4 {
        t.Fatalf("Expected 4 checksums, got %v", len(loaded))
    }

    expectedStrong := md5.Sum([]byte("efgh"))
    if !bytes.Equal(loaded[1].StrongChecksum, expectedStrong[:]) {
        t.Errorf("Strong checksum of block 1 does not match md5 of its content")
    }
}

func Test_ShortFinalBlockGetsItsOwnChecksum(t *testing.T) {
    check := NewFileChecksumGenerator(4)

    list, err := check.List(strings.NewReader("abcdefgh" + "xy"))
    if err != nil {
        t.Fatal(err)
    }

    if len(list) != 3 {
        t.Fatalf("Expected 3 checksums, got %v", len(list))
    }
    if list[2].Size != 2 {
        t.Errorf("Final block should carry its short size: %v", list[2].Size)
    }

    expectedStrong := md5.Sum([]byte("xy"))
    if !bytes.Equal(list[2].StrongChecksum, expectedStrong[:]) {
        t.Errorf("Final block checksum should cover only the remaining bytes")
    }
}

func Test_EmptyReferenceHasEmptySignature(t *testing.T) {
    check := NewFileChecksumGenerator(4)

    list, err := check.List(strings.NewReader(""))
    if err != nil {
        t.Fatal(err)
    }
    if len(list) != 0 {
        t.Errorf("Expected no checksums for empty input, got %v", len(list))
    }
}

func Test_GeneratedRootMatchesSequenceRoot(t *testing.T) {
    const blockSize = 4
    reference := "the quick brown fox jumps over the lazy dog"

    check := NewFileChecksumGenerator(blockSize)

    root, err := check.GenerateChecksums(strings.NewReader(reference), &bytes.Buffer{})
    if err != nil {
        t.Fatal(err)
    }

    list, err := check.List(strings.NewReader(reference))
    if err != nil {
        t.Fatal(err)
    }
    seqRoot, err := list.RootHash()
    if err != nil {
        t.Fatal(err)
    }

    if !bytes.Equal(root, seqRoot) {
        t.Error("Root from generation should equal the root of the checksum sequence")
    }
}

func Test_IdenticalContentHasIdenticalChecksums(t *testing.T) {
    check := NewFileChecksumGenerator(4)

    a, err := check.List(strings.NewReader("aaaabbbbcccc"))
    if err != nil {
        t.Fatal(err)
    }
    b, err := check.List(strings.NewReader("aaaabbbbcccc"))
    if err != nil {
        t.Fatal(err)
    }

    for i := range a {
        if !bytes.Equal(a[i].WeakChecksum, b[i].WeakChecksum) {
            t.Errorf("Weak checksums differ at block %v", i)
        }
        if !bytes.Equal(a[i].StrongChecksum, b[i].StrongChecksum) {
            t.Errorf("Strong checksums differ at block %v", i)
        }
    }
}

func Test_ListAgreesWithBuildSequentialChecksum(t *testing.T) {
    check := NewFileChecksumGenerator(4)

    list, err := check.List(strings.NewReader("aaaabbbbcc"))
    if err != nil {
        t.Fatal(err)
    }

    built := chunks.BuildSequentialChecksum([]string{"aaaa", "bbbb", "cc"}, 4)

    if len(list) != len(built) {
        t.Fatalf("Different lengths: %v vs %v", len(list), len(built))
    }
    for i := range list {
        if !bytes.Equal(list[i].WeakChecksum, built[i].WeakChecksum) {
            t.Errorf("Weak checksums differ at block %v", i)
        }
        if !bytes.Equal(list[i].StrongChecksum, built[i].StrongChecksum) {
            t.Errorf("Strong checksums differ at block %v", i)
        }
    }
}

func Test_RepeatedBlocksShareChecksums(t *testing.T) {
    check := NewFileChecksumGenerator(4)

    list, err := check.List(strings.NewReader("aaaa" + "bbbb" + "aaaa"))
    if err != nil {
        t.Fatal(err)
    }

    if !bytes.Equal(list[0].WeakChecksum, list[2].WeakChecksum) {
        t.Error("Identical blocks should share a weak checksum")
    }
    if !bytes.Equal(list[0].StrongChecksum, list[2].StrongChecksum) {
        t.Error("Identical blocks should share a strong checksum")
    }
    if bytes.Equal(list[0].StrongChecksum, list[1].StrongChecksum) {
        t.Error("Different blocks should not share a strong checksum")
    }
}
