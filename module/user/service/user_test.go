package service

import (
	"context"
	"testing"

	"TMProject/tools/errs"
	"TMProject/tools/security"
)

func newTestService() *Service {
	return NewService(NewMemoryUserStore(), security.DefaultOptions([]byte("test-secret")))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "Alice", "s3cret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == "" || u.Username != "alice" || u.DisplayName != "Alice" {
		t.Fatalf("user = %+v", u)
	}
	if u.PasswordHash == "s3cret" || u.PasswordHash == "" {
		t.Fatal("password stored in clear or missing")
	}

	res, err := svc.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" || res.User.ID != u.ID {
		t.Fatalf("login result = %+v", res)
	}

	claims, err := security.Verify(security.DefaultOptions([]byte("test-secret")), res.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject() != u.ID {
		t.Fatalf("token subject = %q, want %q", claims.Subject(), u.ID)
	}
}

func TestRegisterDefaultsDisplayName(t *testing.T) {
	svc := newTestService()
	u, err := svc.Register(context.Background(), "bob", "", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.DisplayName != "bob" {
		t.Fatalf("display name = %q", u.DisplayName)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, "alice", "Alice", "pw1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "Other Alice", "pw2"); !ErrUsernameTaken.Is(err) {
		t.Fatalf("duplicate username: want taken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, "  ", "x", "pw"); !errs.ErrInvalidArgument.Is(err) {
		t.Fatalf("blank username: got %v", err)
	}
	if _, err := svc.Register(ctx, "carol", "x", ""); !errs.ErrInvalidArgument.Is(err) {
		t.Fatalf("empty password: got %v", err)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, "alice", "Alice", "right"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); !errs.ErrUnauthenticated.Is(err) {
		t.Fatalf("wrong password: got %v", err)
	}
	// 未知用户名与密码错误不可区分
	if _, err := svc.Login(ctx, "nobody", "whatever"); !errs.ErrUnauthenticated.Is(err) {
		t.Fatalf("unknown username: got %v", err)
	}
}

func TestResolveUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	u, _ := svc.Register(ctx, "alice", "Alice", "pw")

	got, err := svc.ResolveUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ResolveUser: %v", err)
	}
	if got.Username != "alice" {
		t.Fatalf("resolved = %+v", got)
	}
	if _, err := svc.ResolveUser(ctx, "ghost"); !errs.ErrUnknownUser.Is(err) {
		t.Fatalf("unknown id: want unknown user, got %v", err)
	}
}

func TestListOthersExcludesSelf(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a, _ := svc.Register(ctx, "alice", "Alice", "pw")
	svc.Register(ctx, "bob", "Bob", "pw")
	svc.Register(ctx, "carol", "Carol", "pw")

	others, err := svc.ListOthers(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListOthers: %v", err)
	}
	if len(others) != 2 {
		t.Fatalf("others = %d, want 2", len(others))
	}
	for _, o := range others {
		if o.ID == a.ID {
			t.Fatal("list contains self")
		}
	}
}
