package explorer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/repositories"
	"gorm.io/gorm"
)

// fakeUserRepo 是内存实现，配额守卫和真实 SQL 一样在锁内原子完成
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint64]*models.User
}

var _ repositories.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint64]*models.User)}
}

func (r *fakeUserRepo) put(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
}

func (r *fakeUserRepo) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uint64(len(r.users) + 1)
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetUserByUsername(username string) (*models.User, error) {
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

func (r *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
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

func (r *fakeUserRepo) GetUserByID(id uint64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) ListUsers(offset, limit int) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(r.users)), nil
}

func (r *fakeUserRepo) AddUsedStorage(_ *gorm.DB, userID uint64, delta uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, nil
	}
	if u.UsedStorage+delta > u.StorageLimit {
		return false, nil
	}
	u.UsedStorage += delta
	return true, nil
}

func (r *fakeUserRepo) SubUsedStorage(_ *gorm.DB, userID uint64, delta uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil
	}
	if u.UsedStorage >= delta {
		u.UsedStorage -= delta
	} else {
		u.UsedStorage = 0
	}
	return nil
}

func (r *fakeUserRepo) SetStorageLimit(userID uint64, limit uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.UsedStorage > limit {
		return false, nil
	}
	u.StorageLimit = limit
	return true, nil
}

func (r *fakeUserRepo) StorageStats() (uint64, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var used, limit uint64
	for _, u := range r.users {
		used += u.UsedStorage
		limit += u.StorageLimit
	}
	return used, limit, nil
}

type fakeFileRepo struct {
	mu         sync.Mutex
	files      map[uint64]*models.File
	nextID     uint64
	failCreate error // 注入插入失败，模拟事务回滚
}

var _ repositories.FileRepository = (*fakeFileRepo)(nil)

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[uint64]*models.File), nextID: 1}
}

func (r *fakeFileRepo) Create(_ *gorm.DB, file *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	file.ID = r.nextID
	r.nextID++
	cp := *file
	r.files[file.ID] = &cp
	return nil
}

func (r *fakeFileRepo) FindByID(id uint64) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFileRepo) FindByIDs(userID uint64, ids []uint64) ([]models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.File
	for _, id := range ids {
		if f, ok := r.files[id]; ok && f.UserID == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) FindByUserIDAndFolderID(userID uint64, folderID *uint64, fileType string, offset, limit int) ([]models.File, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.File
	for _, f := range r.files {
		if f.UserID != userID {
			continue
		}
		if folderID == nil && f.FolderID != nil {
			continue
		}
		if folderID != nil && (f.FolderID == nil || *f.FolderID != *folderID) {
			continue
		}
		if fileType != "" && f.FileType != fileType {
			continue
		}
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *fakeFileRepo) Update(_ *gorm.DB, file *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *file
	r.files[file.ID] = &cp
	return nil
}

func (r *fakeFileRepo) Delete(_ *gorm.DB, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, id)
	return nil
}

func (r *fakeFileRepo) CountByFolderID(folderID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, f := range r.files {
		if f.FolderID != nil && *f.FolderID == folderID {
			n++
		}
	}
	return n, nil
}

func (r *fakeFileRepo) CountAll() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.files)), nil
}

type fakeFolderRepo struct {
	mu      sync.Mutex
	folders map[uint64]*models.Folder
	nextID  uint64
}

var _ repositories.FolderRepository = (*fakeFolderRepo)(nil)

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[uint64]*models.Folder), nextID: 1}
}

func (r *fakeFolderRepo) Create(folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	folder.ID = r.nextID
	r.nextID++
	cp := *folder
	r.folders[folder.ID] = &cp
	return nil
}

func (r *fakeFolderRepo) FindByID(id uint64) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFolderRepo) FindByUserID(userID uint64, parentID *uint64) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Folder
	for _, f := range r.folders {
		if f.UserID != userID {
			continue
		}
		if parentID == nil && f.ParentID != nil {
			continue
		}
		if parentID != nil && (f.ParentID == nil || *f.ParentID != *parentID) {
			continue
		}
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeFolderRepo) Update(folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *folder
	r.folders[folder.ID] = &cp
	return nil
}

func (r *fakeFolderRepo) Delete(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.folders, id)
	return nil
}

func (r *fakeFolderRepo) CountChildren(folderID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, f := range r.folders {
		if f.ParentID != nil && *f.ParentID == folderID {
			n++
		}
	}
	return n, nil
}

// fakeStorage 把对象保存在内存里
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) PutObject(_ context.Context, key string, reader io.Reader, size int64, contentType string) (int64, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return int64(len(data)), nil
}

func (s *fakeStorage) GetObject(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) RemoveObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) CopyObject(_ context.Context, srcKey, dstKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[srcKey]
	if !ok {
		return 0, errors.New("source object not found")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[dstKey] = cp
	return int64(len(cp)), nil
}

func (s *fakeStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStorage) ObjectURL(key string) string {
	return "http://localhost/uploads/" + key
}

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// fakeTxManager 直接执行回调，错误语义和真实事务一致：回调失败则放弃提交
type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
