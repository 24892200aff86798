package model

import (
	"strings"

	"TMProject/tools/errs"
)

// Conversation 表示两个用户之间唯一的私聊会话。
// ParticipantA/B 存规范化后的参与者对（按字典序 A < B），
// 无序对 {A,B} 在存储层有唯一约束，同一对用户最多一条记录。
type Conversation struct {
	ID           string `bson:"_id" json:"id"`
	ParticipantA string `bson:"participant_a" json:"participantA"`
	ParticipantB string `bson:"participant_b" json:"participantB"`

	MaxSeq      int64 `bson:"max_seq" json:"-"`              // 会话内已分配的最大消息序列
	LastMsgAtMS int64 `bson:"last_msg_at_ms" json:"-"`       // 最近一条消息时间(Unix ms)，0=尚无消息
	CreatedAtMS int64 `bson:"created_at_ms" json:"createdAt"`
}

// CanonicalPair 把 (a,b) 归一成固定顺序 (lo,hi)，(A,B) 与 (B,A) 得到同一个键。
// 自聊与空 ID 返回 InvalidParticipants。
func CanonicalPair(a, b string) (lo, hi string, err error) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return "", "", errs.ErrInvalidParticipants.WithDetail("participant id is empty")
	}
	if a == b {
		return "", "", errs.ErrInvalidParticipants.WithDetail("cannot start a conversation with yourself")
	}
	if a < b {
		return a, b, nil
	}
	return b, a, nil
}

func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (userID == c.ParticipantA || userID == c.ParticipantB)
}

// OtherParticipant 返回对端用户ID；userID 不在会话内时返回空串
func (c *Conversation) OtherParticipant(userID string) string {
	switch userID {
	case c.ParticipantA:
		return c.ParticipantB
	case c.ParticipantB:
		return c.ParticipantA
	}
	return ""
}
