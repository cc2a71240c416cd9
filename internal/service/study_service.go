package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"learning_path_backend/internal/model"
	"learning_path_backend/internal/util"
	"learning_path_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultFlushDelay = 2 * time.Second

// studyStore StudyService 所需的最小存储面
type studyStore interface {
	FindByUserAndModule(userID uint, moduleTitle string) (*model.StudyData, error)
	Upsert(data *model.StudyData) error
}

type pendingWrite struct {
	data  *model.StudyData
	timer *time.Timer
}

// StudyService 学习工具数据的延迟写入层。连续保存会在静默期后合并为
// 一次落库，读取时以内存中待写入的版本为准。进程退出前必须调用 Stop。
type StudyService struct {
	store      studyStore
	flushDelay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingWrite
}

func NewStudyService(store studyStore) *StudyService {
	return NewStudyServiceWithDelay(store, defaultFlushDelay)
}

func NewStudyServiceWithDelay(store studyStore, delay time.Duration) *StudyService {
	return &StudyService{
		store:      store,
		flushDelay: delay,
		pending:    make(map[string]*pendingWrite),
	}
}

func studyKey(userID uint, moduleTitle string) string {
	return fmt.Sprintf("%d_%s", userID, moduleTitle)
}

// Get 返回某模块的学习数据。待写入版本优先于库中版本；
// 两边都没有时返回一份空数据而非错误。
func (s *StudyService) Get(userID uint, moduleTitle string) (*model.StudyData, error) {
	s.mu.Lock()
	if p, ok := s.pending[studyKey(userID, moduleTitle)]; ok {
		snapshot := *p.data
		s.mu.Unlock()
		return &snapshot, nil
	}
	s.mu.Unlock()

	data, err := s.store.FindByUserAndModule(userID, moduleTitle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.StudyData{
				UserID:              userID,
				ModuleTitle:         moduleTitle,
				Flashcards:          model.FlashcardList{},
				Quizzes:             model.QuizList{},
				IntegratedResources: model.ResourceList{},
			}, nil
		}
		return nil, &util.PersistenceError{Op: "load study data", Err: err}
	}
	return data, nil
}

// Save 接受一次保存请求并推迟落库。同一 (userId, moduleTitle) 的
// 后续保存会重置静默计时并覆盖待写入内容。
func (s *StudyService) Save(userID uint, moduleTitle string, data *model.StudyData) {
	data.UserID = userID
	data.ModuleTitle = moduleTitle
	data.LastUpdated = time.Now()

	key := studyKey(userID, moduleTitle)

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[key]; ok {
		p.data = data
		p.timer.Reset(s.flushDelay)
		return
	}

	p := &pendingWrite{data: data}
	p.timer = time.AfterFunc(s.flushDelay, func() {
		s.flush(key)
	})
	s.pending[key] = p
}

func (s *StudyService) flush(key string) {
	s.mu.Lock()
	p, ok := s.pending[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	data := p.data
	s.mu.Unlock()

	if err := s.store.Upsert(data); err != nil {
		logger.Log.Error("Failed to flush study data",
			zap.String("key", key),
			zap.Error(err))
	}
}

// Flush 立即落库所有待写入数据，用于优雅关停
func (s *StudyService) Flush() {
	s.mu.Lock()
	keys := make([]string, 0, len(s.pending))
	for key, p := range s.pending {
		p.timer.Stop()
		keys = append(keys, key)
	}
	s.mu.Unlock()

	for _, key := range keys {
		s.flush(key)
	}
}

// Stop 关停前的最终落盘
func (s *StudyService) Stop() {
	s.Flush()
}
