package service

import (
	"sync"
	"testing"
	"time"

	"learning_path_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStudyStore struct {
	mu      sync.Mutex
	records map[string]*model.StudyData
	upserts int
}

func newFakeStudyStore() *fakeStudyStore {
	return &fakeStudyStore{records: make(map[string]*model.StudyData)}
}

func (s *fakeStudyStore) FindByUserAndModule(userID uint, moduleTitle string) (*model.StudyData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[studyKey(userID, moduleTitle)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	snapshot := *data
	return &snapshot, nil
}

func (s *fakeStudyStore) Upsert(data *model.StudyData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	s.records[studyKey(data.UserID, data.ModuleTitle)] = data
	return nil
}

func (s *fakeStudyStore) upsertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

func TestStudyGetEmptyWhenMissing(t *testing.T) {
	svc := NewStudyServiceWithDelay(newFakeStudyStore(), 10*time.Millisecond)

	data, err := svc.Get(1, "Basics")
	require.NoError(t, err)
	assert.Equal(t, uint(1), data.UserID)
	assert.Equal(t, "Basics", data.ModuleTitle)
	assert.Empty(t, data.Notes)
	assert.NotNil(t, data.Flashcards)
}

func TestStudySaveCoalescesWrites(t *testing.T) {
	store := newFakeStudyStore()
	svc := NewStudyServiceWithDelay(store, 50*time.Millisecond)

	svc.Save(1, "Basics", &model.StudyData{Notes: "v1"})
	svc.Save(1, "Basics", &model.StudyData{Notes: "v2"})
	svc.Save(1, "Basics", &model.StudyData{Notes: "v3"})

	// 静默期内连续保存只落库一次，内容为最后一次
	require.Eventually(t, func() bool {
		return store.upsertCount() == 1
	}, time.Second, 10*time.Millisecond)

	data, err := store.FindByUserAndModule(1, "Basics")
	require.NoError(t, err)
	assert.Equal(t, "v3", data.Notes)
}

func TestStudySaveSeparateKeysFlushedIndependently(t *testing.T) {
	store := newFakeStudyStore()
	svc := NewStudyServiceWithDelay(store, 20*time.Millisecond)

	svc.Save(1, "Basics", &model.StudyData{Notes: "a"})
	svc.Save(1, "Advanced", &model.StudyData{Notes: "b"})
	svc.Save(2, "Basics", &model.StudyData{Notes: "c"})

	require.Eventually(t, func() bool {
		return store.upsertCount() == 3
	}, time.Second, 10*time.Millisecond)
}

func TestStudyGetReturnsPendingWrite(t *testing.T) {
	store := newFakeStudyStore()
	svc := NewStudyServiceWithDelay(store, time.Hour) // 不会自动落库

	svc.Save(1, "Basics", &model.StudyData{Notes: "draft"})

	data, err := svc.Get(1, "Basics")
	require.NoError(t, err)
	assert.Equal(t, "draft", data.Notes)
	assert.Zero(t, store.upsertCount())
}

func TestStudyFlushWritesImmediately(t *testing.T) {
	store := newFakeStudyStore()
	svc := NewStudyServiceWithDelay(store, time.Hour)

	svc.Save(1, "Basics", &model.StudyData{Notes: "draft"})
	svc.Save(1, "Advanced", &model.StudyData{Notes: "draft2"})

	svc.Flush()

	assert.Equal(t, 2, store.upsertCount())

	// Flush 后没有遗留的待写入
	svc.Flush()
	assert.Equal(t, 2, store.upsertCount())
}

func TestStudySaveStampsIdentity(t *testing.T) {
	store := newFakeStudyStore()
	svc := NewStudyServiceWithDelay(store, time.Hour)

	svc.Save(7, "Basics", &model.StudyData{Notes: "n"})
	svc.Stop()

	data, err := store.FindByUserAndModule(7, "Basics")
	require.NoError(t, err)
	assert.Equal(t, uint(7), data.UserID)
	assert.Equal(t, "Basics", data.ModuleTitle)
	assert.False(t, data.LastUpdated.IsZero())
}
