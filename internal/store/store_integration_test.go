package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"loom/internal/prompt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Exercises concurrent writers and readers against one database file to
// confirm the mutex plus WAL configuration holds up.
func TestConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s, err := Open(filepath.Join(t.TempDir(), "concurrent.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()
	s.SetEngine(newFakeEngine())

	ctx := context.Background()
	sessionID, err := s.CreateSession(ctx, "stress")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 30)
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			if _, err := s.Add(ctx, fmt.Sprintf("note %d", i), nil); err != nil {
				errCh <- err
			}
		}()
		go func() {
			defer wg.Done()
			msg := prompt.UserMessage(fmt.Sprintf("turn %d", i))
			if err := s.AppendMessage(ctx, sessionID, msg); err != nil {
				errCh <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := s.Search(ctx, "note", 5); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("Concurrent operation failed: %v", err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if got := stats["total_documents"]; got != 10 {
		t.Errorf("Expected 10 documents, got %v", got)
	}
	msgs, err := s.Messages(ctx, sessionID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != 10 {
		t.Errorf("Expected 10 messages, got %d", len(msgs))
	}
}
