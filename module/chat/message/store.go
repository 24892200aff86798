package message

import (
	"context"

	chatmodel "TMProject/module/chat/model"
	"TMProject/tools/errs"
)

// 发送者不在会话双方之内。与 Forbidden 同码：对调用方就是越权。
var ErrNotAParticipant = errs.NewCodeError(errs.ForbiddenCode, "sender is not a participant")

// Directory 维护“无序参与者对 -> 会话”的映射，唯一性约束的唯一持有者。
type Directory interface {
	// FindOrCreate 返回该无序对的会话，不存在则原子创建。
	// 并发调用同一对用户时只会产生一个胜者，败者拿到胜者的会话而不是报错。
	FindOrCreate(ctx context.Context, userA, userB string) (*chatmodel.Conversation, error)
	Get(ctx context.Context, conversationID string) (*chatmodel.Conversation, error)
}

// Store 是按会话分组的追加式消息日志。
// Append 为每条消息分配会话内严格递增的 Seq（接受顺序），
// 不同会话的 Append 互不阻塞；同一会话按 Seq 串行。
type Store interface {
	Append(ctx context.Context, conversationID, senderID, content string) (*chatmodel.Message, error)
	// List 按 Seq 升序返回全量消息；每次调用重读当前状态
	List(ctx context.Context, conversationID string) ([]chatmodel.Message, error)
	// MarkRead 把对端发来的未读消息全部置已读，返回本次置位条数；幂等
	MarkRead(ctx context.Context, conversationID, readerID string) (int64, error)

	// 读侧投影用
	LastMessage(ctx context.Context, conversationID string) (*chatmodel.Message, error) // 无消息时返回 nil
	CountUnread(ctx context.Context, conversationID, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]chatmodel.Conversation, error)
}
