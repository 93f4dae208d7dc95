package services

import (
	"errors"
	"testing"

	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/repositories"
	"github.com/vtart/go-gallery/internal/services/explorer"
)

type stubFileRepo struct {
	repositories.FileRepository
	files map[uint64]*models.File
}

func (r *stubFileRepo) FindByID(id uint64) (*models.File, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func newTestUserService(files map[uint64]*models.File) (UserService, *memUserRepo) {
	users := newMemUserRepo()
	fileRepo := &stubFileRepo{files: files}
	domain := explorer.NewFileDomainService(fileRepo, nil, users)
	return NewUserService(users, domain, explorer.NewQuotaLedger(users)), users
}

func TestGetQuotaUsage(t *testing.T) {
	svc, users := newTestUserService(nil)
	users.CreateUser(&models.User{Username: "alice", Email: "a@x.com", StorageLimit: 100, UsedStorage: 30})

	usage, err := svc.GetQuotaUsage(1)
	if err != nil {
		t.Fatalf("GetQuotaUsage failed: %v", err)
	}
	if usage.UsedStorage != 30 || usage.StorageLimit != 100 || usage.Available != 70 {
		t.Fatalf("usage = %+v, want 30/100/70", usage)
	}

	if _, err := svc.GetQuotaUsage(999); !errors.Is(err, xerr.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestSetAvatar(t *testing.T) {
	files := map[uint64]*models.File{
		1: {ID: 1, UserID: 1, FileType: models.FileTypeImage},
		2: {ID: 2, UserID: 1, FileType: models.FileTypeVideo},
		3: {ID: 3, UserID: 2, FileType: models.FileTypeImage},
	}
	svc, users := newTestUserService(files)
	users.CreateUser(&models.User{Username: "alice", Email: "a@x.com", StorageLimit: 100})

	if err := svc.SetAvatar(1, 1); err != nil {
		t.Fatalf("SetAvatar failed: %v", err)
	}
	u, _ := users.GetUserByID(1)
	if u.AvatarFileID == nil || *u.AvatarFileID != 1 {
		t.Fatalf("avatar = %v, want 1", u.AvatarFileID)
	}

	// 视频不能当头像
	if err := svc.SetAvatar(1, 2); !errors.Is(err, xerr.ErrInvalidFile) {
		t.Fatalf("err = %v, want ErrInvalidFile", err)
	}
	// 别人的文件不能当头像
	if err := svc.SetAvatar(1, 3); !errors.Is(err, xerr.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}

	if err := svc.ClearAvatar(1); err != nil {
		t.Fatalf("ClearAvatar failed: %v", err)
	}
	u, _ = users.GetUserByID(1)
	if u.AvatarFileID != nil {
		t.Fatal("avatar must be cleared")
	}
}
