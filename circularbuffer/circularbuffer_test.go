package circularbuffer

import (
    "bytes"
    "testing"

    . "gopkg.in/check.v1"
)

func TestCircularBuffer(t *testing.T) { TestingT(t) }

type C2Suite struct {
}

var _ = Suite(&C2Suite{})

/// ---

func (s *C2Suite) Test_StartsEmpty(c *C) {
    b := MakeC2Buffer(4)
    c.Assert(b.Len(), Equals, 0)
    c.Assert(len(b.GetBlock()), Equals, 0)
}

func (s *C2Suite) Test_FillsUpToBlockSize(c *C) {
    b := MakeC2Buffer(4)
    b.Write([]byte{1, 2})

    c.Assert(b.Len(), Equals, 2)
    c.Assert(bytes.Compare(b.GetBlock(), []byte{1, 2}), Equals, 0)
    c.Assert(len(b.Evicted()), Equals, 0)
}

func (s *C2Suite) Test_EvictsFromTheHead(c *C) {
    b := MakeC2Buffer(4)
    b.Write([]byte{1, 2, 3, 4})
    b.Write([]byte{5, 6})

    c.Assert(bytes.Compare(b.GetBlock(), []byte{3, 4, 5, 6}), Equals, 0)
    c.Assert(bytes.Compare(b.Evicted(), []byte{1, 2}), Equals, 0)
}

func (s *C2Suite) Test_WriteLargerThanBlockKeepsTheTail(c *C) {
    b := MakeC2Buffer(4)
    b.Write([]byte{1, 2, 3, 4})
    b.Write([]byte{5, 6, 7, 8, 9, 10})

    c.Assert(bytes.Compare(b.GetBlock(), []byte{7, 8, 9, 10}), Equals, 0)
    // everything held plus the surplus prefix leaves the window
    c.Assert(bytes.Compare(b.Evicted(), []byte{1, 2, 3, 4, 5, 6}), Equals, 0)
}

func (s *C2Suite) Test_WriteByte(c *C) {
    b := MakeC2Buffer(2)
    b.WriteByte(1)
    b.WriteByte(2)
    b.WriteByte(3)

    c.Assert(bytes.Compare(b.GetBlock(), []byte{2, 3}), Equals, 0)
    c.Assert(bytes.Compare(b.Evicted(), []byte{1}), Equals, 0)
}

func (s *C2Suite) Test_EvictedResetsEachWrite(c *C) {
    b := MakeC2Buffer(2)
    b.Write([]byte{1, 2})
    b.Write([]byte{3})
    b.Write([]byte{4})

    c.Assert(bytes.Compare(b.Evicted(), []byte{2}), Equals, 0)
}

func (s *C2Suite) Test_SlidesIndefinitely(c *C) {
    // long enough to force the window copy-back repeatedly
    b := MakeC2Buffer(3)
    for i := 0; i < 1000; i++ {
        b.WriteByte(byte(i))
        if b.Len() > 3 {
            c.Fatalf("window grew past the block size at %v", i)
        }
    }

    c.Assert(bytes.Compare(b.GetBlock(), []byte{997 % 256, 998 % 256, 999 % 256}), Equals, 0)
}

func (s *C2Suite) Test_Pop(c *C) {
    b := MakeC2Buffer(4)
    b.Write([]byte{1, 2, 3})

    c.Assert(b.Pop(), Equals, byte(1))
    c.Assert(b.Len(), Equals, 2)
    c.Assert(bytes.Compare(b.GetBlock(), []byte{2, 3}), Equals, 0)
}

func (s *C2Suite) Test_Reset(c *C) {
    b := MakeC2Buffer(4)
    b.Write([]byte{1, 2, 3, 4})
    b.Reset()

    c.Assert(b.Len(), Equals, 0)
    b.Write([]byte{9})
    c.Assert(bytes.Compare(b.GetBlock(), []byte{9}), Equals, 0)
}
