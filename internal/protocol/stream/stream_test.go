package stream

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/danmuck/mavctl/internal/testutil/testlog"
)

func seq(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}

func TestReadByteKeepsBytesForRollback(t *testing.T) {
	testlog.Start(t)
	r := NewReader(bytes.NewReader([]byte{1, 2, 3}), 0)
	for want := byte(1); want <= 3; want++ {
		b, err := r.ReadByte()
		if err != nil || b != want {
			t.Fatalf("read: got=%d,%v want=%d", b, err, want)
		}
	}
	if !bytes.Equal(r.Buffer(), []byte{1, 2, 3}) {
		t.Fatalf("window: %v", r.Buffer())
	}
	r.Rollback()
	if r.Window() != 0 {
		t.Fatalf("rollback left window=%d", r.Window())
	}
	b, err := r.ReadByte()
	if err != nil || b != 1 {
		t.Fatalf("read after rollback: got=%d,%v", b, err)
	}
}

func TestReadByteEOF(t *testing.T) {
	testlog.Start(t)
	r := NewReader(bytes.NewReader(nil), 0)
	if _, err := r.ReadByte(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestAdvanceAcrossShortReads(t *testing.T) {
	testlog.Start(t)
	r := NewReader(iotest.OneByteReader(bytes.NewReader(seq(40))), 0)
	ok, err := r.Advance(32)
	if err != nil || !ok {
		t.Fatalf("advance: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(r.Buffer(), seq(32)) {
		t.Fatalf("window mismatch: %v", r.Buffer())
	}
}

func TestAdvanceExhaustedLeavesCursorAtEnd(t *testing.T) {
	testlog.Start(t)
	r := NewReader(bytes.NewReader(seq(5)), 0)
	ok, err := r.Advance(10)
	if err != nil || ok {
		t.Fatalf("advance past end: ok=%v err=%v", ok, err)
	}
	if r.Window() != 5 || r.Buffered() != 0 {
		t.Fatalf("window=%d buffered=%d", r.Window(), r.Buffered())
	}
	if _, err := r.ReadByte(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after exhaustion, got %v", err)
	}
}

func TestCommitDiscardsWindow(t *testing.T) {
	testlog.Start(t)
	r := NewReader(bytes.NewReader(seq(8)), 0)
	if ok, _ := r.Advance(3); !ok {
		t.Fatalf("advance failed")
	}
	r.Commit()
	r.Rollback()
	b, err := r.ReadByte()
	if err != nil || b != 3 {
		t.Fatalf("after commit: got=%d,%v want=3", b, err)
	}
	if !bytes.Equal(r.Buffer(), []byte{3}) {
		t.Fatalf("window: %v", r.Buffer())
	}
}

func TestRollbackSkipCommitStepsOneByte(t *testing.T) {
	testlog.Start(t)
	r := NewReader(bytes.NewReader([]byte{9, 8, 7, 6}), 0)
	if ok, _ := r.Advance(3); !ok {
		t.Fatalf("advance failed")
	}
	r.Rollback()
	if err := r.Skip(1); err != nil {
		t.Fatalf("skip: %v", err)
	}
	r.Commit()
	b, err := r.ReadByte()
	if err != nil || b != 8 {
		t.Fatalf("after drop cycle: got=%d,%v want=8", b, err)
	}
}

func TestSkipPastEndIsNotAnError(t *testing.T) {
	testlog.Start(t)
	r := NewReader(bytes.NewReader([]byte{1}), 0)
	if err := r.Skip(4); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if r.Window() != 1 {
		t.Fatalf("window=%d want=1", r.Window())
	}
}

func TestCompactionReusesBuffer(t *testing.T) {
	testlog.Start(t)
	data := seq(MinCapacity * 4)
	r := NewReader(iotest.HalfReader(bytes.NewReader(data)), MinCapacity)
	for off := 0; off+200 <= len(data); off += 200 {
		r.Commit()
		ok, err := r.Advance(200)
		if err != nil || !ok {
			t.Fatalf("advance at %d: ok=%v err=%v", off, ok, err)
		}
		if !bytes.Equal(r.Buffer(), data[off:off+200]) {
			t.Fatalf("window mismatch at offset %d", off)
		}
	}
}

func TestWindowFull(t *testing.T) {
	testlog.Start(t)
	r := NewReader(bytes.NewReader(seq(MinCapacity+10)), MinCapacity)
	if _, err := r.Advance(MinCapacity + 1); !errors.Is(err, ErrWindowFull) {
		t.Fatalf("expected ErrWindowFull, got %v", err)
	}
}

func TestIOErrorPropagates(t *testing.T) {
	testlog.Start(t)
	boom := errors.New("link down")
	r := NewReader(iotest.ErrReader(boom), 0)
	if _, err := r.ReadByte(); !errors.Is(err, boom) {
		t.Fatalf("expected io error, got %v", err)
	}
	if _, err := r.Advance(2); !errors.Is(err, boom) {
		t.Fatalf("expected io error from advance, got %v", err)
	}
}

func TestDataThenErrorKeepsData(t *testing.T) {
	testlog.Start(t)
	boom := errors.New("reset by peer")
	src := io.MultiReader(bytes.NewReader([]byte{1, 2}), iotest.ErrReader(boom))
	r := NewReader(src, 0)
	if ok, err := r.Advance(2); !ok || err != nil {
		t.Fatalf("advance: ok=%v err=%v", ok, err)
	}
	if _, err := r.ReadByte(); !errors.Is(err, boom) {
		t.Fatalf("expected io error, got %v", err)
	}
}

func TestCapacityFloor(t *testing.T) {
	testlog.Start(t)
	if c := NewReader(bytes.NewReader(nil), 16).Cap(); c != MinCapacity {
		t.Fatalf("cap=%d want=%d", c, MinCapacity)
	}
}
