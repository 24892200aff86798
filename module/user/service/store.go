package service

import (
	"context"
	"sync"

	usermodel "TMProject/module/user/model"
	"TMProject/tools/errs"
)

var ErrUsernameTaken = errs.NewCodeError(errs.UsernameTakenCode, "username already taken")

// Store 用户存取接口；身份体系对聊天引擎只暴露 ResolveUser 这一窄口
type Store interface {
	Create(ctx context.Context, u *usermodel.User) error
	GetByID(ctx context.Context, id string) (*usermodel.User, error)
	GetByUsername(ctx context.Context, username string) (*usermodel.User, error)
	// ListOthers 返回除 me 以外的全部用户（聊天对象选择列表）
	ListOthers(ctx context.Context, me string) ([]usermodel.User, error)
}

// MemoryUserStore 测试/本地运行用
type MemoryUserStore struct {
	mu     sync.RWMutex
	byID   map[string]usermodel.User
	byName map[string]string // username -> id
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:   make(map[string]usermodel.User),
		byName: make(map[string]string),
	}
}

func (s *MemoryUserStore) Create(ctx context.Context, u *usermodel.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[u.Username]; ok {
		return ErrUsernameTaken
	}
	s.byID[u.ID] = *u
	s.byName[u.Username] = u.ID
	return nil
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("user " + id)
	}
	return &u, nil
}

func (s *MemoryUserStore) GetByUsername(ctx context.Context, username string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[username]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("username " + username)
	}
	u := s.byID[id]
	return &u, nil
}

func (s *MemoryUserStore) ListOthers(ctx context.Context, me string) ([]usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]usermodel.User, 0, len(s.byID))
	for id, u := range s.byID {
		if id == me {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
