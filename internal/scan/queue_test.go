package scan

import (
	"testing"

	"github.com/cookdaemon/cookd/internal/index"
)

func TestQueuePushPopFIFO(t *testing.T) {
	q := NewQueue()
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop() on an empty queue should report false")
	}

	first := index.FileID{RepoIndex: 0, FileIndex: 1}
	second := index.FileID{RepoIndex: 0, FileIndex: 2}
	q.Push(first)
	q.Push(second)

	if q.Len() != 2 {
		t.Fatalf("Len() = %d, expected 2", q.Len())
	}

	if got, ok := q.Pop(); !ok || got != first {
		t.Errorf("first Pop() = (%v, %v), expected (%v, true)", got, ok, first)
	}
	if got, ok := q.Pop(); !ok || got != second {
		t.Errorf("second Pop() = (%v, %v), expected (%v, true)", got, ok, second)
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop() on a drained queue should report false")
	}
}
