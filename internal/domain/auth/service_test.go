package auth

import (
	"context"
	"testing"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/rbac"
)

type memUserRepo struct {
	byID    map[id.ID]*User
	byEmail map[string]*User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    make(map[id.ID]*User),
		byEmail: make(map[string]*User),
	}
}

func (r *memUserRepo) Create(ctx context.Context, user *User) error {
	cp := *user
	r.byID[user.ID] = &cp
	r.byEmail[user.Email] = &cp
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	u, ok := r.byID[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, apperror.NewNotFound("user", email)
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) Exists(ctx context.Context, email string) (bool, error) {
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *memUserRepo) Update(ctx context.Context, user *User) error {
	if _, ok := r.byID[user.ID]; !ok {
		return apperror.NewNotFound("user", user.ID)
	}
	cp := *user
	r.byID[user.ID] = &cp
	r.byEmail[user.Email] = &cp
	return nil
}

func (r *memUserRepo) List(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range r.byID {
		out = append(out, *u)
	}
	return out, nil
}

type memTokenRepo struct {
	byHash map[string]*RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{byHash: make(map[string]*RefreshToken)}
}

func (r *memTokenRepo) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	cp := *token
	r.byHash[token.TokenHash] = &cp
	return nil
}

func (r *memTokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	t, ok := r.byHash[tokenHash]
	if !ok {
		return nil, apperror.NewNotFound("refresh token", tokenHash)
	}
	cp := *t
	return &cp, nil
}

func (r *memTokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	for _, t := range r.byHash {
		if t.ID == tokenID {
			t.Revoke(reason)
		}
	}
	return nil
}

func (r *memTokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	for _, t := range r.byHash {
		if t.UserID == userID {
			t.Revoke(reason)
		}
	}
	return nil
}

func (r *memTokenRepo) activeCount(userID id.ID) int {
	n := 0
	for _, t := range r.byHash {
		if t.UserID == userID && t.IsValid() {
			n++
		}
	}
	return n
}

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (noopTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *memUserRepo, *memTokenRepo) {
	users := newMemUserRepo()
	tokens := newMemTokenRepo()
	jwtService := NewJWTService(DefaultJWTConfig("test-secret"))
	svc := NewService(users, tokens, noopTxManager{}, jwtService, DefaultServiceConfig())
	return svc, users, tokens
}

func register(t *testing.T, svc *Service, email, password string) *User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: password,
		Name:     "Test User",
		Role:     rbac.RoleOperator,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return user
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"empty email", RegisterRequest{Password: "password1", Role: rbac.RoleViewer}},
		{"short password", RegisterRequest{Email: "a@b.c", Password: "short", Role: rbac.RoleViewer}},
		{"unknown role", RegisterRequest{Email: "a@b.c", Password: "password1", Role: "SUPERUSER"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			appErr, ok := apperror.AsAppError(err)
			if !ok || appErr.Code != apperror.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	register(t, svc, "kim@partsync.kr", "password1")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "kim@partsync.kr",
		Password: "password2",
		Role:     rbac.RoleViewer,
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _, _ := newTestService()
	register(t, svc, "kim@partsync.kr", "password1")

	tokens, user, err := svc.Login(context.Background(), Credentials{
		Email:    "kim@partsync.kr",
		Password: "password1",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if user.Role != rbac.RoleOperator {
		t.Errorf("role = %s", user.Role)
	}

	// The access token must validate back to the same identity.
	uc, err := svc.jwtService.ValidateToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if uc.UserID != user.ID.String() {
		t.Errorf("token user = %s, want %s", uc.UserID, user.ID)
	}
	if uc.Role != string(rbac.RoleOperator) {
		t.Errorf("token role = %s", uc.Role)
	}
}

func TestLoginLockout(t *testing.T) {
	svc, users, _ := newTestService()
	user := register(t, svc, "kim@partsync.kr", "password1")
	ctx := context.Background()

	for i := 0; i < svc.config.MaxLoginAttempts; i++ {
		_, _, err := svc.Login(ctx, Credentials{Email: user.Email, Password: "wrong"})
		if err == nil {
			t.Fatal("expected login failure")
		}
	}

	stored, _ := users.GetByID(ctx, user.ID)
	if !stored.IsLocked() {
		t.Fatal("expected account locked after repeated failures")
	}

	// Correct password is rejected while locked.
	_, _, err := svc.Login(ctx, Credentials{Email: user.Email, Password: "password1"})
	if err == nil {
		t.Fatal("expected locked account to refuse login")
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, tokens := newTestService()
	user := register(t, svc, "kim@partsync.kr", "password1")
	ctx := context.Background()

	pair, _, err := svc.Login(ctx, Credentials{Email: user.Email, Password: "password1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	next, err := svc.RefreshToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The old token is revoked and cannot be replayed.
	if _, err := svc.RefreshToken(ctx, pair.RefreshToken); err == nil {
		t.Fatal("expected replayed refresh token to fail")
	}
	if got := tokens.activeCount(user.ID); got != 1 {
		t.Errorf("active tokens = %d, want 1", got)
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc, _, tokens := newTestService()
	user := register(t, svc, "kim@partsync.kr", "password1")
	ctx := context.Background()

	pair, _, err := svc.Login(ctx, Credentials{Email: user.Email, Password: "password1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "newpassword1"); err == nil {
		t.Fatal("expected wrong current password to fail")
	}
	if err := svc.ChangePassword(ctx, user.ID, "password1", "newpassword1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if got := tokens.activeCount(user.ID); got != 0 {
		t.Errorf("active tokens after password change = %d, want 0", got)
	}
	if _, err := svc.RefreshToken(ctx, pair.RefreshToken); err == nil {
		t.Fatal("expected old session to be dead")
	}

	if _, _, err := svc.Login(ctx, Credentials{Email: user.Email, Password: "newpassword1"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
