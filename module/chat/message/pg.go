package message

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	chatmodel "TMProject/module/chat/model"
	coderr "TMProject/tools/errs"
	"TMProject/tools/ids"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// PgStore 默认的持久化引擎：会话对唯一约束 + 行锁分配 Seq。
type PgStore struct {
	pool *pgxpool.Pool

	schemaOnce sync.Once
	schemaErr  error
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS chat_conversations (
  id TEXT PRIMARY KEY,
  participant_a TEXT NOT NULL,
  participant_b TEXT NOT NULL,
  max_seq BIGINT NOT NULL DEFAULT 0,
  last_msg_at_ms BIGINT NOT NULL DEFAULT 0,
  created_at_ms BIGINT NOT NULL,
  CONSTRAINT chat_conversations_pair_key UNIQUE (participant_a, participant_b),
  CONSTRAINT chat_conversations_pair_order CHECK (participant_a < participant_b)
);

CREATE TABLE IF NOT EXISTS chat_messages (
  id TEXT PRIMARY KEY,
  conversation_id TEXT NOT NULL REFERENCES chat_conversations (id),
  sender_id TEXT NOT NULL,
  content TEXT NOT NULL,
  seq BIGINT NOT NULL,
  created_at_ms BIGINT NOT NULL,
  read_by_recipient BOOLEAN NOT NULL DEFAULT FALSE,
  CONSTRAINT chat_messages_conv_seq_key UNIQUE (conversation_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_unread
  ON chat_messages (conversation_id, sender_id) WHERE NOT read_by_recipient;
`)
	})
	return s.schemaErr
}

// FindOrCreate 乐观插入，唯一键冲突视为成功：冲突说明对端刚创建，回读返回已有行。
func (s *PgStore) FindOrCreate(ctx context.Context, userA, userB string) (*chatmodel.Conversation, error) {
	lo, hi, err := chatmodel.CanonicalPair(userA, userB)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, storageErr(err)
	}

	c := chatmodel.Conversation{
		ID:           uuid.NewString(),
		ParticipantA: lo,
		ParticipantB: hi,
		CreatedAtMS:  time.Now().UnixMilli(),
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO chat_conversations (id, participant_a, participant_b, created_at_ms)
VALUES ($1, $2, $3, $4)`,
		c.ID, c.ParticipantA, c.ParticipantB, c.CreatedAtMS)
	if err == nil {
		return &c, nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil, storageErr(err)
	}

	// 冲突 -> 败者回读胜者的行
	row := s.pool.QueryRow(ctx, `
SELECT id, participant_a, participant_b, max_seq, last_msg_at_ms, created_at_ms
FROM chat_conversations WHERE participant_a = $1 AND participant_b = $2`, lo, hi)
	return scanConversation(row)
}

func (s *PgStore) Get(ctx context.Context, conversationID string) (*chatmodel.Conversation, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, storageErr(err)
	}
	row := s.pool.QueryRow(ctx, `
SELECT id, participant_a, participant_b, max_seq, last_msg_at_ms, created_at_ms
FROM chat_conversations WHERE id = $1`, conversationID)
	c, err := scanConversation(row)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PgStore) Append(ctx context.Context, conversationID, senderID, content string) (*chatmodel.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, coderr.ErrEmptyContent
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, storageErr(err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// 行锁即会话级串行点：不同会话互不阻塞。
	// GREATEST 保证时间戳单调不减，排序仍只看 seq。
	now := time.Now().UnixMilli()
	var (
		a, b string
		seq  int64
		tsMS int64
	)
	err = tx.QueryRow(ctx, `
UPDATE chat_conversations
SET max_seq = max_seq + 1, last_msg_at_ms = GREATEST(last_msg_at_ms, $2)
WHERE id = $1
RETURNING participant_a, participant_b, max_seq, last_msg_at_ms`,
		conversationID, now).Scan(&a, &b, &seq, &tsMS)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, coderr.ErrNotFound.WithDetail("conversation " + conversationID)
	}
	if err != nil {
		return nil, storageErr(err)
	}
	if senderID != a && senderID != b {
		return nil, ErrNotAParticipant
	}

	m := chatmodel.Message{
		ID:             ids.GenerateString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Seq:            seq,
		CreatedAtMS:    tsMS,
	}
	_, err = tx.Exec(ctx, `
INSERT INTO chat_messages (id, conversation_id, sender_id, content, seq, created_at_ms, read_by_recipient)
VALUES ($1, $2, $3, $4, $5, $6, FALSE)`,
		m.ID, m.ConversationID, m.SenderID, m.Content, m.Seq, m.CreatedAtMS)
	if err != nil {
		return nil, storageErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr(err)
	}
	return &m, nil
}

func (s *PgStore) List(ctx context.Context, conversationID string) ([]chatmodel.Message, error) {
	if _, err := s.Get(ctx, conversationID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, conversation_id, sender_id, content, seq, created_at_ms, read_by_recipient
FROM chat_messages WHERE conversation_id = $1 ORDER BY seq ASC`, conversationID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []chatmodel.Message
	for rows.Next() {
		var m chatmodel.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Seq, &m.CreatedAtMS, &m.ReadByRecipient); err != nil {
			return nil, storageErr(err)
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, storageErr(rows.Err())
	}
	return out, nil
}

func (s *PgStore) MarkRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	if _, err := s.Get(ctx, conversationID); err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, `
UPDATE chat_messages SET read_by_recipient = TRUE
WHERE conversation_id = $1 AND sender_id <> $2 AND NOT read_by_recipient`,
		conversationID, readerID)
	if err != nil {
		return 0, storageErr(err)
	}
	return tag.RowsAffected(), nil
}

func (s *PgStore) LastMessage(ctx context.Context, conversationID string) (*chatmodel.Message, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, storageErr(err)
	}
	row := s.pool.QueryRow(ctx, `
SELECT id, conversation_id, sender_id, content, seq, created_at_ms, read_by_recipient
FROM chat_messages WHERE conversation_id = $1 ORDER BY seq DESC LIMIT 1`, conversationID)
	var m chatmodel.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Seq, &m.CreatedAtMS, &m.ReadByRecipient)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &m, nil
}

func (s *PgStore) CountUnread(ctx context.Context, conversationID, userID string) (int64, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return 0, storageErr(err)
	}
	var n int64
	err := s.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM chat_messages
WHERE conversation_id = $1 AND sender_id <> $2 AND NOT read_by_recipient`,
		conversationID, userID).Scan(&n)
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

func (s *PgStore) ListByUser(ctx context.Context, userID string) ([]chatmodel.Conversation, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, storageErr(err)
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, participant_a, participant_b, max_seq, last_msg_at_ms, created_at_ms
FROM chat_conversations WHERE participant_a = $1 OR participant_b = $1`, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []chatmodel.Conversation
	for rows.Next() {
		var c chatmodel.Conversation
		if err := rows.Scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &c.MaxSeq, &c.LastMsgAtMS, &c.CreatedAtMS); err != nil {
			return nil, storageErr(err)
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, storageErr(rows.Err())
	}
	return out, nil
}

func scanConversation(row pgx.Row) (*chatmodel.Conversation, error) {
	var c chatmodel.Conversation
	err := row.Scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &c.MaxSeq, &c.LastMsgAtMS, &c.CreatedAtMS)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, coderr.ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &c, nil
}

// 基础设施错误统一收敛为 StorageUnavailable，不向调用方透传驱动错误文本
func storageErr(err error) error {
	return coderr.ErrStorageUnavailable.WrapMsg("postgres", "err", err)
}
