package service

import (
	"context"

	"TMProject/module/chat/message"
	chatmodel "TMProject/module/chat/model"
)

// ConversationSummary 是按请求方视角派生的会话摘要，不落库。
// 每次请求重算，避免第二份可漂移的事实源。
type ConversationSummary struct {
	ConversationID     string `json:"conversationId"`
	OtherUserID        string `json:"otherUserId"`
	OtherDisplayName   string `json:"otherDisplayName"`
	LastMessageContent string `json:"lastMessage"`
	LastMessageAtMS    int64  `json:"lastMessageAt"`
	UnreadCount        int64  `json:"unreadCount"`
	CreatedAtMS        int64  `json:"createdAt"`
}

type Projector struct {
	store message.Store
	users UserDirectory
}

func NewProjector(store message.Store, users UserDirectory) *Projector {
	return &Projector{store: store, users: users}
}

// Summarize 容忍零消息会话：last* 为零值，未读为 0。
// 对端用户解析失败时退化为只带 ID 的摘要，不让整个列表失败。
func (p *Projector) Summarize(ctx context.Context, conv *chatmodel.Conversation, forUser string) (ConversationSummary, error) {
	otherID := conv.OtherParticipant(forUser)
	sum := ConversationSummary{
		ConversationID: conv.ID,
		OtherUserID:    otherID,
		CreatedAtMS:    conv.CreatedAtMS,
	}

	if other, err := p.users.ResolveUser(ctx, otherID); err == nil {
		sum.OtherDisplayName = other.DisplayName
	}

	last, err := p.store.LastMessage(ctx, conv.ID)
	if err != nil {
		return ConversationSummary{}, err
	}
	if last != nil {
		sum.LastMessageContent = last.Content
		sum.LastMessageAtMS = last.CreatedAtMS
	}

	unread, err := p.store.CountUnread(ctx, conv.ID, forUser)
	if err != nil {
		return ConversationSummary{}, err
	}
	sum.UnreadCount = unread
	return sum, nil
}
