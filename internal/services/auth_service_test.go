package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vtart/go-gallery/internal/config"
	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/utils"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/repositories"
	"github.com/vtart/go-gallery/internal/services/verification"
	"gorm.io/gorm"
)

type memUserRepo struct {
	mu     sync.Mutex
	users  map[uint64]*models.User
	nextID uint64
}

var _ repositories.UserRepository = (*memUserRepo)(nil)

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uint64]*models.User), nextID: 1}
}

func (r *memUserRepo) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetUserByUsername(username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetUserByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetUserByID(id uint64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) UpdateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) ListUsers(offset, limit int) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepo) AddUsedStorage(_ *gorm.DB, userID uint64, delta uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.UsedStorage+delta > u.StorageLimit {
		return false, nil
	}
	u.UsedStorage += delta
	return true, nil
}

func (r *memUserRepo) SubUsedStorage(_ *gorm.DB, userID uint64, delta uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		if u.UsedStorage >= delta {
			u.UsedStorage -= delta
		} else {
			u.UsedStorage = 0
		}
	}
	return nil
}

func (r *memUserRepo) SetStorageLimit(userID uint64, limit uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.UsedStorage > limit {
		return false, nil
	}
	u.StorageLimit = limit
	return true, nil
}

func (r *memUserRepo) StorageStats() (uint64, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var used, limit uint64
	for _, u := range r.users {
		used += u.UsedStorage
		limit += u.StorageLimit
	}
	return used, limit, nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (m *captureMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

type authFixture struct {
	svc      AuthService
	users    *memUserRepo
	verifier *verification.Service
	mail     *captureMailer
}

func newAuthFixture() *authFixture {
	users := newMemUserRepo()
	vcfg := config.DefaultVerification()
	verifier := verification.NewService(verification.NewMemoryStore(), verification.NewRateLimiter(vcfg.RateLimitWindow), vcfg)
	mail := &captureMailer{}

	cfg := &config.Config{}
	cfg.Verification = vcfg
	cfg.JWT = config.JWTConfig{SecretKey: "test-secret", ExpiresIn: time.Hour, Issuer: "go-gallery"}

	return &authFixture{
		svc:      NewAuthService(users, verifier, mail, cfg),
		users:    users,
		verifier: verifier,
		mail:     mail,
	}
}

func (f *authFixture) seedUser(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	u := &models.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Role:         models.RoleUser,
		StorageLimit: 1 << 30,
		Status:       1,
	}
	if err := f.users.CreateUser(u); err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	return u
}

func TestSendCodeRateLimited(t *testing.T) {
	fx := newAuthFixture()

	retry, err := fx.svc.SendCode(context.Background(), "new@x.com", verification.TypeVerifyEmail, nil)
	if err != nil {
		t.Fatalf("first SendCode failed: %v", err)
	}
	if retry != 0 {
		t.Fatalf("retry = %d, want 0", retry)
	}
	if len(fx.mail.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(fx.mail.sent))
	}

	retry, err = fx.svc.SendCode(context.Background(), "new@x.com", verification.TypeVerifyEmail, nil)
	if !errors.Is(err, xerr.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if retry < 1 || retry > 60 {
		t.Fatalf("retry = %d, want 1..60", retry)
	}
}

func TestSendCodeVerifyEmailRejectsTakenEmail(t *testing.T) {
	fx := newAuthFixture()
	fx.seedUser(t, "alice", "alice@x.com", "secret123")

	_, err := fx.svc.SendCode(context.Background(), "alice@x.com", verification.TypeVerifyEmail, nil)
	if !errors.Is(err, xerr.ErrEmailAlreadyExists) {
		t.Fatalf("err = %v, want ErrEmailAlreadyExists", err)
	}
	if len(fx.mail.sent) != 0 {
		t.Fatal("no mail must be sent on rejection")
	}
}

func TestSendCodeForgotPasswordRequiresKnownEmail(t *testing.T) {
	fx := newAuthFixture()

	_, err := fx.svc.SendCode(context.Background(), "ghost@x.com", verification.TypeForgotPassword, nil)
	if !errors.Is(err, xerr.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestSendCodeBoundTypesRequireRequester(t *testing.T) {
	fx := newAuthFixture()
	alice := fx.seedUser(t, "alice", "alice@x.com", "secret123")

	if _, err := fx.svc.SendCode(context.Background(), "new@x.com", verification.TypeChangeEmail, nil); !errors.Is(err, xerr.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	// 修改密码的验证码只能发往本人邮箱
	_, err := fx.svc.SendCode(context.Background(), "other@x.com", verification.TypePasswordChange, alice)
	if !errors.Is(err, xerr.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if _, err := fx.svc.SendCode(context.Background(), "alice@x.com", verification.TypePasswordChange, alice); err != nil {
		t.Fatalf("SendCode failed: %v", err)
	}
}

func TestSendCodeMailFailure(t *testing.T) {
	fx := newAuthFixture()
	fx.mail.fail = errors.New("smtp down")

	_, err := fx.svc.SendCode(context.Background(), "new@x.com", verification.TypeVerifyEmail, nil)
	if !errors.Is(err, xerr.ErrMailError) {
		t.Fatalf("err = %v, want ErrMailError", err)
	}
}

func TestRegister(t *testing.T) {
	fx := newAuthFixture()

	code, err := fx.verifier.Issue(context.Background(), "new@x.com", verification.TypeVerifyEmail, nil)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	user, err := fx.svc.Register(context.Background(), "newbie", "secret123", "new@x.com", code, ClientMeta{IPAddress: "1.2.3.4"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Role != models.RoleUser {
		t.Fatalf("role = %q, want user", user.Role)
	}
	if user.StorageLimit != 1073741824 {
		t.Fatalf("storage limit = %d, want 1GB default", user.StorageLimit)
	}

	// 验证码一次性，重复注册必须失败
	_, err = fx.svc.Register(context.Background(), "other", "secret123", "new@x.com", code, ClientMeta{})
	if !errors.Is(err, xerr.ErrCodeNotFound) && !errors.Is(err, xerr.ErrCodeInvalid) {
		t.Fatalf("err = %v, want a code error", err)
	}
}

func TestRegisterWrongCode(t *testing.T) {
	fx := newAuthFixture()

	if _, err := fx.verifier.Issue(context.Background(), "new@x.com", verification.TypeVerifyEmail, nil); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err := fx.svc.Register(context.Background(), "newbie", "secret123", "new@x.com", "000000", ClientMeta{})
	if !errors.Is(err, xerr.ErrCodeInvalid) {
		t.Fatalf("err = %v, want ErrCodeInvalid", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	fx := newAuthFixture()
	fx.seedUser(t, "alice", "alice@x.com", "secret123")

	code, err := fx.verifier.Issue(context.Background(), "new@x.com", verification.TypeVerifyEmail, nil)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = fx.svc.Register(context.Background(), "alice", "secret123", "new@x.com", code, ClientMeta{})
	if !errors.Is(err, xerr.ErrUserAlreadyExists) {
		t.Fatalf("err = %v, want ErrUserAlreadyExists", err)
	}
}

func TestLogin(t *testing.T) {
	fx := newAuthFixture()
	fx.seedUser(t, "alice", "alice@x.com", "secret123")

	token, user, err := fx.svc.Login("alice", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" || user.Username != "alice" {
		t.Fatalf("unexpected login result: token=%q user=%v", token, user)
	}

	if _, _, err := fx.svc.Login("alice", "wrongpass"); !errors.Is(err, xerr.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := fx.svc.Login("nobody", "secret123"); !errors.Is(err, xerr.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	fx := newAuthFixture()
	u := fx.seedUser(t, "alice", "alice@x.com", "secret123")
	u.Status = 0
	if err := fx.users.UpdateUser(u); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if _, _, err := fx.svc.Login("alice", "secret123"); !errors.Is(err, xerr.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestChangeEmail(t *testing.T) {
	fx := newAuthFixture()
	alice := fx.seedUser(t, "alice", "alice@x.com", "secret123")

	code, err := fx.verifier.Issue(context.Background(), "fresh@x.com", verification.TypeChangeEmail, &alice.ID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := fx.svc.ChangeEmail(context.Background(), alice.ID, "fresh@x.com", code, ClientMeta{}); err != nil {
		t.Fatalf("ChangeEmail failed: %v", err)
	}

	updated, _ := fx.users.GetUserByID(alice.ID)
	if updated.Email != "fresh@x.com" {
		t.Fatalf("email = %q, want fresh@x.com", updated.Email)
	}
}

func TestChangeEmailCodeBoundToAnotherUser(t *testing.T) {
	fx := newAuthFixture()
	alice := fx.seedUser(t, "alice", "alice@x.com", "secret123")
	mallory := fx.seedUser(t, "mallory", "mallory@x.com", "secret123")

	code, err := fx.verifier.Issue(context.Background(), "fresh@x.com", verification.TypeChangeEmail, &alice.ID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	err = fx.svc.ChangeEmail(context.Background(), mallory.ID, "fresh@x.com", code, ClientMeta{})
	if !errors.Is(err, xerr.ErrCodeNotOwned) {
		t.Fatalf("err = %v, want ErrCodeNotOwned", err)
	}
}

func TestChangePassword(t *testing.T) {
	fx := newAuthFixture()
	alice := fx.seedUser(t, "alice", "alice@x.com", "oldpass123")

	code, err := fx.verifier.Issue(context.Background(), "alice@x.com", verification.TypePasswordChange, &alice.ID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := fx.svc.ChangePassword(context.Background(), alice.ID, code, "newpass456", ClientMeta{}); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, _, err := fx.svc.Login("alice", "newpass456"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, err := fx.svc.Login("alice", "oldpass123"); !errors.Is(err, xerr.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestResetPassword(t *testing.T) {
	fx := newAuthFixture()
	fx.seedUser(t, "alice", "alice@x.com", "oldpass123")

	code, err := fx.verifier.Issue(context.Background(), "alice@x.com", verification.TypeForgotPassword, nil)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := fx.svc.ResetPassword(context.Background(), "alice", "alice@x.com", code, "newpass456", ClientMeta{}); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if _, _, err := fx.svc.Login("alice", "newpass456"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

// 用户名和验证码邮箱指向不同账号时必须拒绝重置
func TestResetPasswordUsernameEmailMismatch(t *testing.T) {
	fx := newAuthFixture()
	fx.seedUser(t, "alice", "alice@x.com", "secret123")
	fx.seedUser(t, "mallory", "mallory@x.com", "secret123")

	code, err := fx.verifier.Issue(context.Background(), "alice@x.com", verification.TypeForgotPassword, nil)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	err = fx.svc.ResetPassword(context.Background(), "mallory", "alice@x.com", code, "newpass456", ClientMeta{})
	if !errors.Is(err, xerr.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}

	// alice 的密码不能被动过
	if _, _, err := fx.svc.Login("alice", "secret123"); err != nil {
		t.Fatalf("alice login failed after blocked reset: %v", err)
	}
}

func TestCodeConsumeErrorMapping(t *testing.T) {
	tests := []struct {
		message string
		want    error
	}{
		{"验证码错误", xerr.ErrCodeInvalid},
		{"验证码不存在或已过期", xerr.ErrCodeNotFound},
		{"验证码已过期", xerr.ErrCodeExpired},
		{"验证码尝试次数过多，已失效", xerr.ErrCodeMaxAttempts},
		{"验证码不属于当前用户，无法使用", xerr.ErrCodeNotOwned},
		{"验证码只能由目标邮箱所有者使用", xerr.ErrCodeWrongEmail},
		{"其他未知原因", xerr.ErrCodeInvalid},
	}
	for _, tt := range tests {
		err := codeConsumeError(verification.ConsumeResult{Valid: false, Message: tt.message})
		if !errors.Is(err, tt.want) {
			t.Errorf("codeConsumeError(%q) = %v, want %v", tt.message, err, tt.want)
		}
	}

	if err := codeConsumeError(verification.ConsumeResult{Valid: true}); err != nil {
		t.Errorf("valid result must map to nil, got %v", err)
	}
}
