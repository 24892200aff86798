package service

import (
	"context"
	"strings"
	"time"

	"TMProject/logger"
	usermodel "TMProject/module/user/model"
	"TMProject/service/storage"
	"TMProject/tools/errs"
	"TMProject/tools/security"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service 账号注册/登录与用户目录。
// 聊天侧通过 ResolveUser 校验参与者存在性。
type Service struct {
	store Store
	opts  security.Options
}

func NewService(store Store, opts security.Options) *Service {
	return &Service{store: store, opts: opts}
}

type LoginResult struct {
	User     *usermodel.User `json:"user"`
	Token    string          `json:"token"`
	ExpireAt int64           `json:"expireAt"` // unix ms
}

func (s *Service) Register(ctx context.Context, username, displayName, password string) (*usermodel.User, error) {
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)
	if username == "" || password == "" {
		return nil, errs.ErrInvalidArgument.WithDetail("username and password are required")
	}
	if displayName == "" {
		displayName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errs.New("bcrypt hash", "err", err)
	}

	u := &usermodel.User{
		ID:           uuid.NewString(),
		Username:     username,
		DisplayName:  displayName,
		Role:         usermodel.RoleUser,
		PasswordHash: string(hash),
		CreatedAtMS:  time.Now().UnixMilli(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	logger.Infof("user registered id=%s username=%s", u.ID, u.Username)
	return u, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.store.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			// 不泄露用户是否存在
			return nil, errs.ErrUnauthenticated.WithDetail("bad credentials")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, errs.ErrUnauthenticated.WithDetail("bad credentials")
	}

	token, tokenHash, expireAt, err := security.Generate(s.opts, u.ID, u.Role)
	if err != nil {
		return nil, errs.New("sign token", "err", err)
	}
	// 会话写入失败不阻断登录，仅降级为无会话加固
	if err := storage.SessionPut(ctx, u.ID, tokenHash, s.opts.TTL); err != nil {
		logger.Warn("session put skipped: " + err.Error())
	}
	return &LoginResult{User: u, Token: token, ExpireAt: expireAt.UnixMilli()}, nil
}

func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := storage.SessionDrop(ctx, userID); err != nil {
		logger.Warn("session drop skipped: " + err.Error())
	}
	return nil
}

// ResolveUser 供聊天引擎校验/展示参与者；未知用户返回 ErrUnknownUser
func (s *Service) ResolveUser(ctx context.Context, id string) (*usermodel.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			return nil, errs.ErrUnknownUser.WithDetail(id)
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) ListOthers(ctx context.Context, me string) ([]usermodel.User, error) {
	return s.store.ListOthers(ctx, me)
}
