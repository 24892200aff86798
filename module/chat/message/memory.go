package message

import (
	"context"
	"strings"
	"sync"
	"time"

	chatmodel "TMProject/module/chat/model"
	"TMProject/tools/errs"
	"TMProject/tools/ids"

	"github.com/google/uuid"
)

// MemoryStore 是持久化后端的内存孪生，用于测试与本地运行。
// 目录表用全局锁（对创建是天然的串行点）；追加走会话级锁，
// 不同会话的 Append 互不阻塞。
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*memConv
	byPair map[string]*memConv // "lo|hi"
}

type memConv struct {
	mu   sync.Mutex
	conv chatmodel.Conversation
	msgs []chatmodel.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*memConv),
		byPair: make(map[string]*memConv),
	}
}

func pairKey(lo, hi string) string { return lo + "|" + hi }

func (s *MemoryStore) FindOrCreate(ctx context.Context, userA, userB string) (*chatmodel.Conversation, error) {
	lo, hi, err := chatmodel.CanonicalPair(userA, userB)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mc, ok := s.byPair[pairKey(lo, hi)]; ok {
		c := mc.snapshot()
		return &c, nil
	}

	mc := &memConv{conv: chatmodel.Conversation{
		ID:           uuid.NewString(),
		ParticipantA: lo,
		ParticipantB: hi,
		CreatedAtMS:  time.Now().UnixMilli(),
	}}
	s.byID[mc.conv.ID] = mc
	s.byPair[pairKey(lo, hi)] = mc

	c := mc.conv
	return &c, nil
}

func (s *MemoryStore) Get(ctx context.Context, conversationID string) (*chatmodel.Conversation, error) {
	mc, err := s.lookup(conversationID)
	if err != nil {
		return nil, err
	}
	c := mc.snapshot()
	return &c, nil
}

func (s *MemoryStore) Append(ctx context.Context, conversationID, senderID, content string) (*chatmodel.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errs.ErrEmptyContent
	}
	mc, err := s.lookup(conversationID)
	if err != nil {
		return nil, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if !mc.conv.HasParticipant(senderID) {
		return nil, ErrNotAParticipant
	}

	// 时间戳单调不减；顺序仍由 Seq 决定
	now := time.Now().UnixMilli()
	if now < mc.conv.LastMsgAtMS {
		now = mc.conv.LastMsgAtMS
	}
	mc.conv.MaxSeq++
	mc.conv.LastMsgAtMS = now

	m := chatmodel.Message{
		ID:             ids.GenerateString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Seq:            mc.conv.MaxSeq,
		CreatedAtMS:    now,
	}
	mc.msgs = append(mc.msgs, m)
	return &m, nil
}

func (s *MemoryStore) List(ctx context.Context, conversationID string) ([]chatmodel.Message, error) {
	mc, err := s.lookup(conversationID)
	if err != nil {
		return nil, err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	out := make([]chatmodel.Message, len(mc.msgs))
	copy(out, mc.msgs)
	return out, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	mc, err := s.lookup(conversationID)
	if err != nil {
		return 0, err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	var n int64
	for i := range mc.msgs {
		if mc.msgs[i].SenderID != readerID && !mc.msgs[i].ReadByRecipient {
			mc.msgs[i].ReadByRecipient = true
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) LastMessage(ctx context.Context, conversationID string) (*chatmodel.Message, error) {
	mc, err := s.lookup(conversationID)
	if err != nil {
		return nil, err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if len(mc.msgs) == 0 {
		return nil, nil
	}
	m := mc.msgs[len(mc.msgs)-1]
	return &m, nil
}

func (s *MemoryStore) CountUnread(ctx context.Context, conversationID, userID string) (int64, error) {
	mc, err := s.lookup(conversationID)
	if err != nil {
		return 0, err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	var n int64
	for i := range mc.msgs {
		if mc.msgs[i].SenderID != userID && !mc.msgs[i].ReadByRecipient {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]chatmodel.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []chatmodel.Conversation
	for _, mc := range s.byID {
		c := mc.snapshot()
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) lookup(conversationID string) (*memConv, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mc, ok := s.byID[conversationID]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("conversation " + conversationID)
	}
	return mc, nil
}

func (mc *memConv) snapshot() chatmodel.Conversation {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.conv
}
