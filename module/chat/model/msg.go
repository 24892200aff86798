package model

// Message 是会话内一条消息。
// Seq 是会话内严格递增的接受序列，排序只看 Seq，不比较时间戳
// （秒级粒度下两条消息可能同一时间戳）。
type Message struct {
	ID             string `bson:"_id" json:"id"` // 服务端分配（雪花ID）
	ConversationID string `bson:"conversation_id" json:"conversationId"`
	SenderID       string `bson:"sender_id" json:"senderId"`
	Content        string `bson:"content" json:"content"`

	Seq         int64 `bson:"seq" json:"seq"`
	CreatedAtMS int64 `bson:"created_at_ms" json:"createdAt"` // 会话内单调不减

	// 对端是否已读；未读数 = 对端发送且未置位的条数
	ReadByRecipient bool `bson:"read_by_recipient" json:"readByRecipient"`
}
