// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpubuf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"
)

// failingSink fails every call after failAfter successful calls.
type failingSink struct {
	MemorySink
	calls     int
	failAfter int
}

var errSinkFailed = errors.New("sink failed")

func (s *failingSink) Allocate(size uint64) error {
	s.calls++
	if s.calls > s.failAfter {
		return errSinkFailed
	}
	return s.MemorySink.Allocate(size)
}

func (s *failingSink) Write(offset uint64, data []byte) error {
	s.calls++
	if s.calls > s.failAfter {
		return errSinkFailed
	}
	return s.MemorySink.Write(offset, data)
}

func newTestBuffer(t *testing.T, capacity int) (*Buffer[uint32], *MemorySink) {
	t.Helper()
	sink := NewMemorySink()
	b, err := New[uint32](sink, capacity)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b, sink
}

// assertMirror checks that the sink holds the CPU contents for [0, Len()).
func assertMirror(t *testing.T, b *Buffer[uint32], sink *MemorySink) {
	t.Helper()
	want := make([]byte, 4*b.Len())
	for i, v := range b.Items() {
		binary.NativeEndian.PutUint32(want[4*i:], v)
	}
	got := sink.Bytes()
	if len(got) < len(want) {
		t.Fatalf("sink holds %d bytes, want at least %d", len(got), len(want))
	}
	if !bytes.Equal(got[:len(want)], want) {
		t.Errorf("sink contents differ from CPU mirror\n got: %v\nwant: %v", got[:len(want)], want)
	}
}

// =============================================================================
// Construction
// =============================================================================

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantCap  int
	}{
		{"default", 0, DefaultCapacity},
		{"negative", -3, DefaultCapacity},
		{"explicit", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := NewMemorySink()
			b, err := New[uint32](sink, tt.capacity)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if b.DeviceCap() != tt.wantCap {
				t.Errorf("DeviceCap() = %d, want %d", b.DeviceCap(), tt.wantCap)
			}
			allocs := sink.Allocations()
			if len(allocs) != 1 || allocs[0] != uint64(4*tt.wantCap) {
				t.Errorf("Allocations() = %v, want [%d]", allocs, 4*tt.wantCap)
			}
			if b.Dirty() {
				t.Error("new buffer is dirty")
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New[uint32](nil, 4); !errors.Is(err, ErrNilSink) {
		t.Errorf("New(nil sink) error = %v, want ErrNilSink", err)
	}
	if _, err := New[struct{}](NewMemorySink(), 4); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("New(zero-size T) error = %v, want ErrInvalidSize", err)
	}
	sink := &failingSink{failAfter: 0}
	if _, err := New[uint32](sink, 4); !errors.Is(err, errSinkFailed) {
		t.Errorf("New(failing sink) error = %v, want errSinkFailed", err)
	}
}

// =============================================================================
// Dirty Range Tracking
// =============================================================================

func TestAppend_CleanCollapsesRange(t *testing.T) {
	b, _ := newTestBuffer(t, 8)
	b.Append(1)
	b.Append(2)
	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	b.Append(3)
	lo, hi := b.Range()
	if !b.Dirty() || lo != 2 || hi != 3 {
		t.Errorf("after Append on clean buffer: dirty=%v range=[%d,%d), want true [2,3)", b.Dirty(), lo, hi)
	}
}

func TestAppend_RangeCoversAllAppends(t *testing.T) {
	b, _ := newTestBuffer(t, 64)
	for i := range 10 {
		b.Append(uint32(i))
	}
	lo, hi := b.Range()
	if lo > 0 || hi < 10 {
		t.Errorf("Range() = [%d,%d), want superset of [0,10)", lo, hi)
	}
}

func TestSet_WidensRange(t *testing.T) {
	b, sink := newTestBuffer(t, 16)
	for i := range 10 {
		b.Append(uint32(i))
	}
	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	sink.Reset()

	if err := b.Set(7, 70); err != nil {
		t.Fatalf("Set(7) error = %v", err)
	}
	if err := b.Set(3, 30); err != nil {
		t.Fatalf("Set(3) error = %v", err)
	}
	if lo, hi := b.Range(); lo != 3 || hi != 8 {
		t.Errorf("Range() = [%d,%d), want [3,8)", lo, hi)
	}
	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	writes := sink.Writes()
	if len(writes) != 1 || writes[0] != (WriteOp{Offset: 12, Size: 20}) {
		t.Errorf("Writes() = %v, want [{12 20}]", writes)
	}
	assertMirror(t, b, sink)
}

func TestSet_OutOfRange(t *testing.T) {
	b, _ := newTestBuffer(t, 4)
	b.Append(1)
	for _, i := range []int{-1, 1, 5} {
		if err := b.Set(i, 0); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Set(%d) error = %v, want ErrIndexOutOfRange", i, err)
		}
	}
}

func TestSwapRemove(t *testing.T) {
	tests := []struct {
		name      string
		remove    int
		wantItems []uint32
		wantDirty bool
		wantLo    int
		wantHi    int
	}{
		{"first", 0, []uint32{40, 10, 20, 30}, true, 0, 1},
		{"middle", 2, []uint32{0, 10, 40, 30}, true, 2, 3},
		{"last", 4, []uint32{0, 10, 20, 30}, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, sink := newTestBuffer(t, 8)
			for i := range 5 {
				b.Append(uint32(i * 10))
			}
			if err := b.Sync(); err != nil {
				t.Fatalf("Sync() error = %v", err)
			}

			got, err := b.SwapRemove(tt.remove)
			if err != nil {
				t.Fatalf("SwapRemove() error = %v", err)
			}
			if got != uint32(tt.remove*10) {
				t.Errorf("SwapRemove() = %d, want %d", got, tt.remove*10)
			}
			if !equalItems(b.Items(), tt.wantItems) {
				t.Errorf("Items() = %v, want %v", b.Items(), tt.wantItems)
			}
			lo, hi := b.Range()
			if b.Dirty() != tt.wantDirty || lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("dirty=%v range=[%d,%d), want %v [%d,%d)", b.Dirty(), lo, hi, tt.wantDirty, tt.wantLo, tt.wantHi)
			}
			if err := b.Sync(); err != nil {
				t.Fatalf("Sync() error = %v", err)
			}
			assertMirror(t, b, sink)
		})
	}
}

func TestSwapRemove_ClampsPendingRange(t *testing.T) {
	b, _ := newTestBuffer(t, 8)
	for i := range 4 {
		b.Append(uint32(i))
	}
	// Pending range is [0,4); removing index 1 moves 3 into 1 and shrinks to 3.
	if _, err := b.SwapRemove(1); err != nil {
		t.Fatalf("SwapRemove() error = %v", err)
	}
	if lo, hi := b.Range(); lo != 0 || hi != 3 {
		t.Errorf("Range() = [%d,%d), want [0,3)", lo, hi)
	}
}

func TestSwapRemove_OutOfRange(t *testing.T) {
	b, _ := newTestBuffer(t, 4)
	if _, err := b.SwapRemove(0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("SwapRemove(0) on empty error = %v, want ErrIndexOutOfRange", err)
	}
}

// =============================================================================
// Synchronization
// =============================================================================

func TestSync_CleanIsNoop(t *testing.T) {
	b, sink := newTestBuffer(t, 4)
	sink.Reset()
	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(sink.Writes()) != 0 || len(sink.Allocations()) != 0 {
		t.Errorf("clean Sync made calls: writes=%v allocs=%v", sink.Writes(), sink.Allocations())
	}
}

func TestSync_PartialUpload(t *testing.T) {
	b, sink := newTestBuffer(t, 8)
	b.Append(1)
	b.Append(2)
	b.Append(3)
	sink.Reset()

	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if b.Dirty() {
		t.Error("Dirty() = true after Sync")
	}
	if writes := sink.Writes(); len(writes) != 1 || writes[0] != (WriteOp{Offset: 0, Size: 12}) {
		t.Errorf("Writes() = %v, want [{0 12}]", writes)
	}
	assertMirror(t, b, sink)
}

func TestSync_GrowthReallocatesAndUploadsAll(t *testing.T) {
	b, sink := newTestBuffer(t, 2)
	b.Append(1)
	b.Append(2)
	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	sink.Reset()

	b.Append(3) // exceeds capacity 2
	if b.Cap() <= 2 {
		t.Fatalf("Cap() = %d, want growth", b.Cap())
	}
	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	allocs := sink.Allocations()
	if len(allocs) != 1 || allocs[0] != uint64(4*b.Cap()) {
		t.Errorf("Allocations() = %v, want [%d]", allocs, 4*b.Cap())
	}
	if writes := sink.Writes(); len(writes) != 1 || writes[0] != (WriteOp{Offset: 0, Size: 12}) {
		t.Errorf("Writes() = %v, want full upload [{0 12}]", writes)
	}
	if b.DeviceCap() != b.Cap() {
		t.Errorf("DeviceCap() = %d, want %d", b.DeviceCap(), b.Cap())
	}
	assertMirror(t, b, sink)
}

func TestSync_ErrorKeepsDirty(t *testing.T) {
	sink := &failingSink{failAfter: 1} // New's Allocate succeeds, first Write fails
	b, err := New[uint32](sink, 4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b.Append(9)

	if err := b.Sync(); !errors.Is(err, errSinkFailed) {
		t.Fatalf("Sync() error = %v, want errSinkFailed", err)
	}
	if lo, hi := b.Range(); !b.Dirty() || lo != 0 || hi != 1 {
		t.Errorf("after failed Sync: dirty=%v range=[%d,%d), want true [0,1)", b.Dirty(), lo, hi)
	}

	sink.failAfter = 100
	if err := b.Sync(); err != nil {
		t.Fatalf("retry Sync() error = %v", err)
	}
	if b.Dirty() {
		t.Error("Dirty() = true after successful retry")
	}
}

func TestRelease_ForcesFullUpload(t *testing.T) {
	b, sink := newTestBuffer(t, 4)
	b.Append(5)
	b.Append(6)
	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	b.Release()
	if !b.Dirty() {
		t.Fatal("Dirty() = false after Release with content")
	}
	sink.Reset()
	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(sink.Allocations()) != 1 {
		t.Errorf("Allocations() = %v, want one reallocation", sink.Allocations())
	}
	assertMirror(t, b, sink)
}

func TestClear(t *testing.T) {
	b, _ := newTestBuffer(t, 4)
	b.Append(1)
	b.Clear()
	if b.Len() != 0 || b.Dirty() {
		t.Errorf("after Clear: Len=%d Dirty=%v, want 0 false", b.Len(), b.Dirty())
	}
}

// Random mutations interleaved with syncs must always leave the sink equal
// to the CPU mirror.
func TestSync_RandomMirror(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	b, sink := newTestBuffer(t, 2)

	for step := range 3000 {
		switch op := rng.Intn(10); {
		case op < 5 || b.Len() == 0:
			b.Append(rng.Uint32())
		case op < 7:
			if err := b.Set(rng.Intn(b.Len()), rng.Uint32()); err != nil {
				t.Fatalf("step %d: Set() error = %v", step, err)
			}
		case op < 9:
			if _, err := b.SwapRemove(rng.Intn(b.Len())); err != nil {
				t.Fatalf("step %d: SwapRemove() error = %v", step, err)
			}
		default:
			if err := b.Sync(); err != nil {
				t.Fatalf("step %d: Sync() error = %v", step, err)
			}
			assertMirror(t, b, sink)
		}
	}
	if err := b.Sync(); err != nil {
		t.Fatalf("final Sync() error = %v", err)
	}
	assertMirror(t, b, sink)
}

func TestMemorySink_WriteOutOfRange(t *testing.T) {
	sink := NewMemorySink()
	if err := sink.Allocate(4); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if err := sink.Write(2, []byte{1, 2, 3}); !errors.Is(err, ErrWriteOutOfRange) {
		t.Errorf("Write() error = %v, want ErrWriteOutOfRange", err)
	}
}

func equalItems(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
