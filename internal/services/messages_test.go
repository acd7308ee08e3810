package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestMessageService_Append(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		userName string
		content  string
		wantErr  error
	}{
		{
			name:     "valid message",
			userID:   "user_1",
			userName: "Alice",
			content:  "hello",
		},
		{
			name:     "content is trimmed",
			userID:   "user_1",
			userName: "Alice",
			content:  "  hi  ",
		},
		{
			name:     "empty content",
			userID:   "user_1",
			userName: "Alice",
			content:  "",
			wantErr:  ErrEmptyContent,
		},
		{
			name:     "whitespace-only content",
			userID:   "user_1",
			userName: "Alice",
			content:  "   ",
			wantErr:  ErrEmptyContent,
		},
		{
			name:     "missing user id",
			userID:   "",
			userName: "Alice",
			content:  "hello",
			wantErr:  ErrInvalidMessage,
		},
		{
			name:     "missing user name",
			userID:   "user_1",
			userName: "",
			content:  "hello",
			wantErr:  ErrInvalidMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewMessageService(0)

			msg, err := service.Append(tt.userID, tt.userName, tt.content)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Append() error = %v, want %v", err, tt.wantErr)
				}
				if service.Count() != 0 {
					t.Errorf("Append() count = %d after rejection, want 0", service.Count())
				}
				return
			}

			if err != nil {
				t.Fatalf("Append() unexpected error: %v", err)
			}
			if msg.ID == "" {
				t.Error("Append() id should not be empty")
			}
			if msg.Timestamp == 0 {
				t.Error("Append() timestamp should be set")
			}
			if service.Count() != 1 {
				t.Errorf("Append() count = %d, want 1", service.Count())
			}
		})
	}
}

func TestMessageService_FIFOEviction(t *testing.T) {
	service := NewMessageService(200)

	for i := 0; i < 205; i++ {
		if _, err := service.Append("user_1", "Alice", fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("Append() unexpected error: %v", err)
		}
	}

	if service.Count() != 200 {
		t.Fatalf("Count() = %d, want 200 after trimming", service.Count())
	}

	// Oldest 5 trimmed, then tail takes the last 100 of the remaining 200.
	tail := service.Tail(100)
	if len(tail) != 100 {
		t.Fatalf("Tail(100) = %d messages, want 100", len(tail))
	}
	if tail[0].Content != "m105" {
		t.Errorf("Tail(100) first = %q, want m105", tail[0].Content)
	}
	if tail[99].Content != "m204" {
		t.Errorf("Tail(100) last = %q, want m204", tail[99].Content)
	}

	// The full buffer holds exactly the last 200 in append order.
	all := service.Tail(0)
	for i, msg := range all {
		if want := fmt.Sprintf("m%d", i+5); msg.Content != want {
			t.Fatalf("Tail(0)[%d] = %q, want %q", i, msg.Content, want)
		}
	}
}

func TestMessageService_Tail(t *testing.T) {
	service := NewMessageService(10)

	for i := 0; i < 3; i++ {
		if _, err := service.Append("user_1", "Alice", fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("Append() unexpected error: %v", err)
		}
	}

	tests := []struct {
		name  string
		n     int
		want  int
		first string
	}{
		{name: "last two", n: 2, want: 2, first: "m1"},
		{name: "more than buffered", n: 10, want: 3, first: "m0"},
		{name: "zero means all", n: 0, want: 3, first: "m0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.Tail(tt.n)
			if len(got) != tt.want {
				t.Fatalf("Tail(%d) = %d messages, want %d", tt.n, len(got), tt.want)
			}
			if got[0].Content != tt.first {
				t.Errorf("Tail(%d) first = %q, want %q", tt.n, got[0].Content, tt.first)
			}
		})
	}
}

func TestMessageService_Since(t *testing.T) {
	service := NewMessageService(10)

	first, err := service.Append("user_1", "Alice", "first")
	if err != nil {
		t.Fatalf("Append() unexpected error: %v", err)
	}

	// Immediately after the append there is nothing newer.
	delta, ok := service.Since(first.ID)
	if !ok {
		t.Fatal("Since() should find a live message id")
	}
	if len(delta) != 0 {
		t.Errorf("Since() right after append = %d messages, want 0", len(delta))
	}

	second, err := service.Append("user_2", "Bob", "second")
	if err != nil {
		t.Fatalf("Append() unexpected error: %v", err)
	}

	delta, ok = service.Since(first.ID)
	if !ok {
		t.Fatal("Since() should find a live message id")
	}
	if len(delta) != 1 || delta[0].ID != second.ID {
		t.Errorf("Since() = %v, want exactly the second message", delta)
	}
}

func TestMessageService_SinceEvictedCursor(t *testing.T) {
	service := NewMessageService(3)

	first, err := service.Append("user_1", "Alice", "m0")
	if err != nil {
		t.Fatalf("Append() unexpected error: %v", err)
	}
	for i := 1; i < 5; i++ {
		if _, err := service.Append("user_1", "Alice", fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("Append() unexpected error: %v", err)
		}
	}

	// first has been evicted; the caller must resync.
	if _, ok := service.Since(first.ID); ok {
		t.Error("Since() found an evicted id, want ok=false")
	}
	if _, ok := service.Since("msg_never-existed"); ok {
		t.Error("Since() found an unknown id, want ok=false")
	}
}

func TestMessageService_TimestampsNonDecreasing(t *testing.T) {
	service := NewMessageService(100)

	var last int64
	for i := 0; i < 50; i++ {
		msg, err := service.Append("user_1", "Alice", "tick")
		if err != nil {
			t.Fatalf("Append() unexpected error: %v", err)
		}
		if msg.Timestamp < last {
			t.Fatalf("timestamp went backwards: %d -> %d", last, msg.Timestamp)
		}
		last = msg.Timestamp
	}
}

func TestMessageService_Range(t *testing.T) {
	service := NewMessageService(10)

	for i := 0; i < 5; i++ {
		if _, err := service.Append("user_1", "Alice", fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("Append() unexpected error: %v", err)
		}
	}

	tests := []struct {
		name   string
		offset int
		limit  int
		want   []string
	}{
		{name: "first page", offset: 0, limit: 2, want: []string{"m0", "m1"}},
		{name: "middle page", offset: 2, limit: 2, want: []string{"m2", "m3"}},
		{name: "last partial page", offset: 4, limit: 2, want: []string{"m4"}},
		{name: "offset past end", offset: 10, limit: 2, want: []string{}},
		{name: "no limit", offset: 0, limit: 0, want: []string{"m0", "m1", "m2", "m3", "m4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, total := service.Range(tt.offset, tt.limit)
			if total != 5 {
				t.Errorf("Range() total = %d, want 5", total)
			}
			if len(page) != len(tt.want) {
				t.Fatalf("Range() = %d messages, want %d", len(page), len(tt.want))
			}
			for i, content := range tt.want {
				if page[i].Content != content {
					t.Errorf("Range()[%d] = %q, want %q", i, page[i].Content, content)
				}
			}
		})
	}
}
