package service

import (
	"context"
	"sort"

	"TMProject/logger"
	"TMProject/module/chat/message"
	chatmodel "TMProject/module/chat/model"
	"TMProject/tools/errs"

	"go.uber.org/zap"
)

// UserRef 是聊天引擎需要的最小用户视图
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// UserDirectory 由外部身份体系实现；引擎只用它校验对端存在并取展示名
type UserDirectory interface {
	ResolveUser(ctx context.Context, id string) (UserRef, error)
}

// ConversationService 编排 Directory + Store，是对外可调用的核心。
// 鉴权（principal 是否有效）在上层中间件完成，这里只做参与者校验。
type ConversationService struct {
	dir   message.Directory
	store message.Store
	users UserDirectory
	proj  *Projector
}

func New(dir message.Directory, store message.Store, users UserDirectory) *ConversationService {
	return &ConversationService{
		dir:   dir,
		store: store,
		users: users,
		proj:  NewProjector(store, users),
	}
}

// StartOrGetConversation 幂等：同一对用户任何次数、任何并发的调用都收敛到同一个会话
func (s *ConversationService) StartOrGetConversation(ctx context.Context, me, otherID string) (*chatmodel.Conversation, []UserRef, error) {
	if otherID == me {
		return nil, nil, errs.ErrInvalidParticipants.WithDetail("cannot start a conversation with yourself")
	}
	other, err := s.users.ResolveUser(ctx, otherID)
	if err != nil {
		return nil, nil, err
	}
	mine, err := s.users.ResolveUser(ctx, me)
	if err != nil {
		return nil, nil, err
	}

	conv, err := s.dir.FindOrCreate(ctx, me, otherID)
	if err != nil {
		return nil, nil, err
	}

	participants := []UserRef{mine, other}
	return conv, participants, nil
}

func (s *ConversationService) SendMessage(ctx context.Context, me, conversationID, content string) (*chatmodel.Message, error) {
	if _, err := s.requireParticipant(ctx, me, conversationID, "send"); err != nil {
		return nil, err
	}
	return s.store.Append(ctx, conversationID, me, content)
}

func (s *ConversationService) ListMessages(ctx context.Context, me, conversationID string) ([]chatmodel.Message, error) {
	if _, err := s.requireParticipant(ctx, me, conversationID, "list"); err != nil {
		return nil, err
	}
	return s.store.List(ctx, conversationID)
}

func (s *ConversationService) MarkRead(ctx context.Context, me, conversationID string) (int64, error) {
	if _, err := s.requireParticipant(ctx, me, conversationID, "mark_read"); err != nil {
		return 0, err
	}
	return s.store.MarkRead(ctx, conversationID, me)
}

// ListMyConversations 按最近消息时间倒序；还没有消息的会话排最后，按创建时间倒序
func (s *ConversationService) ListMyConversations(ctx context.Context, me string) ([]ConversationSummary, error) {
	convs, err := s.store.ListByUser(ctx, me)
	if err != nil {
		return nil, err
	}

	out := make([]ConversationSummary, 0, len(convs))
	for i := range convs {
		sum, err := s.proj.Summarize(ctx, &convs[i], me)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.LastMessageAtMS > 0) != (b.LastMessageAtMS > 0) {
			return a.LastMessageAtMS > 0
		}
		if a.LastMessageAtMS != b.LastMessageAtMS {
			return a.LastMessageAtMS > b.LastMessageAtMS
		}
		return a.CreatedAtMS > b.CreatedAtMS
	})
	return out, nil
}

func (s *ConversationService) requireParticipant(ctx context.Context, me, conversationID, op string) (*chatmodel.Conversation, error) {
	conv, err := s.dir.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(me) {
		// 已认证但不在会话里，可能是越权探测
		logger.Warn("conversation access denied",
			zap.String("op", op),
			zap.String("user", me),
			zap.String("conversation", conversationID))
		return nil, errs.ErrForbidden
	}
	return conv, nil
}
