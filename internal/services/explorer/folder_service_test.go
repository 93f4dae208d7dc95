package explorer

import (
	"context"
	"errors"
	"testing"

	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
)

type folderServiceFixture struct {
	svc     FolderService
	fileSvc FileService
	users   *fakeUserRepo
	folders *fakeFolderRepo
}

func newFolderServiceFixture() *folderServiceFixture {
	fx := newFileServiceFixture(0)
	fx.addUser(1, 1000)
	fx.addUser(2, 1000)
	domain := NewFileDomainService(fx.files, fx.folders, fx.users)
	return &folderServiceFixture{
		svc:     NewFolderService(fx.folders, fx.files, domain),
		fileSvc: fx.svc,
		users:   fx.users,
		folders: fx.folders,
	}
}

func TestCreateAndListFolders(t *testing.T) {
	fx := newFolderServiceFixture()

	parent, err := fx.svc.CreateFolder(1, "trips", nil)
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if _, err := fx.svc.CreateFolder(1, "2026", &parent.ID); err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}

	roots, err := fx.svc.ListFolders(1, nil)
	if err != nil {
		t.Fatalf("ListFolders failed: %v", err)
	}
	if len(roots) != 1 || roots[0].Name != "trips" {
		t.Fatalf("roots = %v, want [trips]", roots)
	}

	children, err := fx.svc.ListFolders(1, &parent.ID)
	if err != nil {
		t.Fatalf("ListFolders failed: %v", err)
	}
	if len(children) != 1 || children[0].Name != "2026" {
		t.Fatalf("children = %v, want [2026]", children)
	}
}

func TestCreateFolderValidation(t *testing.T) {
	fx := newFolderServiceFixture()

	if _, err := fx.svc.CreateFolder(1, "bad/name", nil); !errors.Is(err, xerr.ErrFileNameInvalid) {
		t.Fatalf("err = %v, want ErrFileNameInvalid", err)
	}
	if _, err := fx.svc.CreateFolder(1, "  ", nil); !errors.Is(err, xerr.ErrFileNameInvalid) {
		t.Fatalf("err = %v, want ErrFileNameInvalid", err)
	}

	missing := uint64(999)
	if _, err := fx.svc.CreateFolder(1, "x", &missing); !errors.Is(err, xerr.ErrFolderNotFound) {
		t.Fatalf("err = %v, want ErrFolderNotFound", err)
	}

	foreign, _ := fx.svc.CreateFolder(2, "private", nil)
	if _, err := fx.svc.CreateFolder(1, "x", &foreign.ID); !errors.Is(err, xerr.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestDeleteFolderRequiresEmpty(t *testing.T) {
	fx := newFolderServiceFixture()

	withFile, _ := fx.svc.CreateFolder(1, "withfile", nil)
	in := uploadInput("a.mp4", 10)
	in.FolderID = &withFile.ID
	if _, err := fx.fileSvc.Upload(context.Background(), 1, in); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if err := fx.svc.DeleteFolder(1, withFile.ID); !errors.Is(err, xerr.ErrFolderNotEmpty) {
		t.Fatalf("err = %v, want ErrFolderNotEmpty", err)
	}

	withChild, _ := fx.svc.CreateFolder(1, "withchild", nil)
	if _, err := fx.svc.CreateFolder(1, "child", &withChild.ID); err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if err := fx.svc.DeleteFolder(1, withChild.ID); !errors.Is(err, xerr.ErrFolderNotEmpty) {
		t.Fatalf("err = %v, want ErrFolderNotEmpty", err)
	}

	empty, _ := fx.svc.CreateFolder(1, "empty", nil)
	if err := fx.svc.DeleteFolder(1, empty.ID); err != nil {
		t.Fatalf("DeleteFolder failed: %v", err)
	}
	if got, _ := fx.folders.FindByID(empty.ID); got != nil {
		t.Fatal("empty folder must be gone")
	}
}

func TestRenameFolder(t *testing.T) {
	fx := newFolderServiceFixture()

	folder, _ := fx.svc.CreateFolder(1, "old", nil)

	renamed, err := fx.svc.RenameFolder(1, folder.ID, "new")
	if err != nil {
		t.Fatalf("RenameFolder failed: %v", err)
	}
	if renamed.Name != "new" {
		t.Fatalf("name = %q, want new", renamed.Name)
	}

	if _, err := fx.svc.RenameFolder(1, folder.ID, "bad\\name"); !errors.Is(err, xerr.ErrFileNameInvalid) {
		t.Fatalf("err = %v, want ErrFileNameInvalid", err)
	}
	if _, err := fx.svc.RenameFolder(2, folder.ID, "steal"); !errors.Is(err, xerr.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestCheckDeletableUnknownUser(t *testing.T) {
	fx := newFileServiceFixture(0)
	domain := NewFileDomainService(fx.files, fx.folders, fx.users)

	err := domain.CheckDeletable(999, &models.File{ID: 1, UserID: 999})
	if !errors.Is(err, xerr.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
