package explorer

import (
	"errors"
	"testing"

	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
)

func TestQuotaCommitGuard(t *testing.T) {
	users := newFakeUserRepo()
	users.put(&models.User{ID: 1, StorageLimit: 100})
	ledger := NewQuotaLedger(users)

	if err := ledger.Commit(nil, 1, 60); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}
	if err := ledger.Commit(nil, 1, 60); !errors.Is(err, xerr.ErrInsufficientStorage) {
		t.Fatalf("err = %v, want ErrInsufficientStorage", err)
	}

	used, _, err := ledger.Usage(1)
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if used != 60 {
		t.Fatalf("used = %d, rejected commit must not change usage", used)
	}
}

func TestQuotaReleaseClampsAtZero(t *testing.T) {
	users := newFakeUserRepo()
	users.put(&models.User{ID: 1, StorageLimit: 100, UsedStorage: 30})
	ledger := NewQuotaLedger(users)

	if err := ledger.Release(nil, 1, 50); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	used, _, _ := ledger.Usage(1)
	if used != 0 {
		t.Fatalf("used = %d, want 0", used)
	}
}

func TestQuotaSetLimit(t *testing.T) {
	users := newFakeUserRepo()
	users.put(&models.User{ID: 1, StorageLimit: 100, UsedStorage: 80})
	ledger := NewQuotaLedger(users)

	if err := ledger.SetLimit(1, 200); err != nil {
		t.Fatalf("raising limit failed: %v", err)
	}
	if _, limit, _ := ledger.Usage(1); limit != 200 {
		t.Fatalf("limit = %d, want 200", limit)
	}

	// 新上限低于已用量必须拒绝
	if err := ledger.SetLimit(1, 50); !errors.Is(err, xerr.ErrQuotaBelowUsage) {
		t.Fatalf("err = %v, want ErrQuotaBelowUsage", err)
	}

	if err := ledger.SetLimit(999, 100); !errors.Is(err, xerr.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestQuotaCheckAvailable(t *testing.T) {
	users := newFakeUserRepo()
	users.put(&models.User{ID: 1, StorageLimit: 100, UsedStorage: 90})
	ledger := NewQuotaLedger(users)

	if err := ledger.CheckAvailable(1, 10); err != nil {
		t.Fatalf("CheckAvailable(10) = %v, want nil", err)
	}
	if err := ledger.CheckAvailable(1, 11); !errors.Is(err, xerr.ErrInsufficientStorage) {
		t.Fatalf("err = %v, want ErrInsufficientStorage", err)
	}
	if err := ledger.CheckAvailable(999, 1); !errors.Is(err, xerr.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
