package message

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"TMProject/tools/errs"
)

func TestFindOrCreateIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c1, err := s.FindOrCreate(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	// 反向顺序收敛到同一会话
	c2, err := s.FindOrCreate(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("FindOrCreate reversed: %v", err)
	}
	if c1.ID != c2.ID {
		t.Fatalf("pair produced two conversations: %s vs %s", c1.ID, c2.ID)
	}
	if c1.ParticipantA != "alice" || c1.ParticipantB != "bob" {
		t.Fatalf("participants not canonical: %s/%s", c1.ParticipantA, c1.ParticipantB)
	}
}

func TestFindOrCreateConcurrentSingleWinner(t *testing.T) {
	s := NewMemoryStore()
	const n = 32

	idCh := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "alice", "bob"
			if i%2 == 1 {
				a, b = b, a
			}
			c, err := s.FindOrCreate(context.Background(), a, b)
			if err != nil {
				t.Errorf("FindOrCreate: %v", err)
				return
			}
			idCh <- c.ID
		}(i)
	}
	wg.Wait()
	close(idCh)

	seen := map[string]bool{}
	for id := range idCh {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Fatalf("expected exactly one conversation, got %d", len(seen))
	}
}

func TestFindOrCreateRejectsSelf(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.FindOrCreate(context.Background(), "alice", "alice"); !errs.ErrInvalidParticipants.Is(err) {
		t.Fatalf("want invalid participants, got %v", err)
	}
}

func TestAppendAssignsContiguousSeq(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	c, _ := s.FindOrCreate(ctx, "alice", "bob")

	for i := 1; i <= 5; i++ {
		m, err := s.Append(ctx, c.ID, "alice", fmt.Sprintf("msg %d", i))
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		if m.Seq != int64(i) {
			t.Fatalf("msg %d got seq %d", i, m.Seq)
		}
	}

	msgs, err := s.List(ctx, c.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for i := range msgs {
		if msgs[i].Seq != int64(i+1) {
			t.Fatalf("list out of order at %d: seq=%d", i, msgs[i].Seq)
		}
		if i > 0 && msgs[i].CreatedAtMS < msgs[i-1].CreatedAtMS {
			t.Fatalf("timestamp decreased at %d", i)
		}
	}
}

func TestAppendConcurrentNoSeqGaps(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	c, _ := s.FindOrCreate(ctx, "alice", "bob")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := "alice"
			if i%2 == 1 {
				sender = "bob"
			}
			if _, err := s.Append(ctx, c.ID, sender, "hello"); err != nil {
				t.Errorf("Append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	msgs, err := s.List(ctx, c.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != n {
		t.Fatalf("expected %d messages, got %d", n, len(msgs))
	}
	seen := map[int64]bool{}
	for _, m := range msgs {
		if seen[m.Seq] {
			t.Fatalf("duplicate seq %d", m.Seq)
		}
		seen[m.Seq] = true
	}
	for i := int64(1); i <= n; i++ {
		if !seen[i] {
			t.Fatalf("seq gap at %d", i)
		}
	}
}

func TestAppendValidation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	c, _ := s.FindOrCreate(ctx, "alice", "bob")

	if _, err := s.Append(ctx, c.ID, "alice", "   \t\n"); !errs.ErrEmptyContent.Is(err) {
		t.Fatalf("whitespace content: want empty content, got %v", err)
	}
	if _, err := s.Append(ctx, c.ID, "mallory", "hi"); !errs.ErrForbidden.Is(err) {
		t.Fatalf("outsider append: want forbidden, got %v", err)
	}
	// 被拒绝的写入不留痕
	msgs, _ := s.List(ctx, c.ID)
	if len(msgs) != 0 {
		t.Fatalf("rejected appends persisted: %d messages", len(msgs))
	}

	if _, err := s.Append(ctx, "no-such-conv", "alice", "hi"); !errs.ErrNotFound.Is(err) {
		t.Fatalf("unknown conversation: want not found, got %v", err)
	}
}

func TestUnreadAndMarkRead(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	c, _ := s.FindOrCreate(ctx, "alice", "bob")

	for i := 0; i < 3; i++ {
		if _, err := s.Append(ctx, c.ID, "alice", "hi bob"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	// 未读只算对端发来的
	if n, _ := s.CountUnread(ctx, c.ID, "bob"); n != 3 {
		t.Fatalf("bob unread = %d, want 3", n)
	}
	if n, _ := s.CountUnread(ctx, c.ID, "alice"); n != 0 {
		t.Fatalf("alice unread = %d, want 0", n)
	}

	n, err := s.MarkRead(ctx, c.ID, "bob")
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if n != 3 {
		t.Fatalf("MarkRead flipped %d, want 3", n)
	}
	if n, _ := s.CountUnread(ctx, c.ID, "bob"); n != 0 {
		t.Fatalf("unread after mark = %d, want 0", n)
	}

	// 幂等：再标一次不翻转任何消息
	if n, _ := s.MarkRead(ctx, c.ID, "bob"); n != 0 {
		t.Fatalf("second MarkRead flipped %d, want 0", n)
	}

	// 新消息重新计数
	if _, err := s.Append(ctx, c.ID, "alice", "one more"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n, _ := s.CountUnread(ctx, c.ID, "bob"); n != 1 {
		t.Fatalf("unread after new message = %d, want 1", n)
	}
}

func TestLastMessageAndListByUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	c, _ := s.FindOrCreate(ctx, "alice", "bob")

	last, err := s.LastMessage(ctx, c.ID)
	if err != nil {
		t.Fatalf("LastMessage: %v", err)
	}
	if last != nil {
		t.Fatal("empty conversation should have nil last message")
	}

	s.Append(ctx, c.ID, "alice", "first")
	s.Append(ctx, c.ID, "bob", "second")
	last, _ = s.LastMessage(ctx, c.ID)
	if last == nil || last.Content != "second" {
		t.Fatalf("last message = %+v", last)
	}

	s.FindOrCreate(ctx, "alice", "carol")
	convs, err := s.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("alice conversations = %d, want 2", len(convs))
	}
	convs, _ = s.ListByUser(ctx, "bob")
	if len(convs) != 1 {
		t.Fatalf("bob conversations = %d, want 1", len(convs))
	}
}
