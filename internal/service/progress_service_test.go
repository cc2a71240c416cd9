package service

import (
	"errors"
	"testing"
	"time"

	"learning_path_backend/internal/model"
	"learning_path_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakePathStore struct {
	paths   map[string]*model.LearningPath
	saveErr error
	saved   int
}

func newFakePathStore(paths ...*model.LearningPath) *fakePathStore {
	s := &fakePathStore{paths: make(map[string]*model.LearningPath)}
	for _, p := range paths {
		s.paths[p.ID] = p
	}
	return s
}

func (s *fakePathStore) FindByIDAndUserID(id string, userID uint) (*model.LearningPath, error) {
	p, ok := s.paths[id]
	if !ok || p.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *fakePathStore) Save(path *model.LearningPath) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved++
	s.paths[path.ID] = path
	return nil
}

func testPath() *model.LearningPath {
	p := &model.LearningPath{
		UserID: 1,
		Skill:  "Go",
		Modules: model.ModuleList{
			{Title: "Basics", SubTopics: []string{"syntax", "types", "functions"}},
			{Title: "Concurrency", SubTopics: []string{"goroutines", "channels"}},
		},
		Progress:     model.ProgressMap{},
		Achievements: model.AchievementList{},
	}
	p.ID = "path-1"
	return p
}

func TestModulePercentageRounds(t *testing.T) {
	p := testPath()
	p.Progress["0-0"] = true
	p.Progress["0-1"] = true

	assert.Equal(t, 67, ModulePercentage(p.Modules, p.Progress, 0))

	p.Progress["0-1"] = false
	assert.Equal(t, 33, ModulePercentage(p.Modules, p.Progress, 0))

	p.Progress["1-0"] = true
	assert.Equal(t, 50, ModulePercentage(p.Modules, p.Progress, 1))
}

func TestPercentagesTwoModulesOfThree(t *testing.T) {
	// 2 个模块各 3 个子主题，模块一完成 2 步、模块二完成 1 步
	modules := model.ModuleList{
		{Title: "A", SubTopics: []string{"a1", "a2", "a3"}},
		{Title: "B", SubTopics: []string{"b1", "b2", "b3"}},
	}
	progress := model.ProgressMap{"0-0": true, "0-1": true, "1-0": true}

	assert.Equal(t, 67, ModulePercentage(modules, progress, 0))
	assert.Equal(t, 33, ModulePercentage(modules, progress, 1))
	assert.Equal(t, 50, OverallPercentage(modules, progress))
}

func TestModulePercentageEmptyModule(t *testing.T) {
	modules := model.ModuleList{{Title: "empty"}}
	assert.Equal(t, 0, ModulePercentage(modules, model.ProgressMap{}, 0))
	assert.Equal(t, 0, OverallPercentage(modules, model.ProgressMap{}))
}

func TestOverallPercentageBounds(t *testing.T) {
	p := testPath()
	assert.Equal(t, 0, OverallPercentage(p.Modules, p.Progress))

	for _, key := range []string{"0-0", "0-1", "0-2", "1-0", "1-1"} {
		p.Progress[key] = true
	}
	assert.Equal(t, 100, OverallPercentage(p.Modules, p.Progress))

	// 未知键不计入
	p.Progress["9-9"] = true
	assert.Equal(t, 100, OverallPercentage(p.Modules, p.Progress))
}

func TestEvaluateAchievementsThresholds(t *testing.T) {
	now := time.Now()

	earned := EvaluateAchievements(nil, 25, now)
	require.Len(t, earned, 2)
	assert.Equal(t, "first_step", earned[0].ID)
	assert.Equal(t, "quarter_way", earned[1].ID)

	// 已解锁的不会重复发放
	again := EvaluateAchievements(earned, 25, now.Add(time.Hour))
	assert.Empty(t, again)

	// 一次跨越多个阈值时共用同一解锁时间
	all := EvaluateAchievements(nil, 100, now)
	require.Len(t, all, 5)
	for _, a := range all {
		assert.Equal(t, now, a.EarnedAt)
	}
}

func TestEvaluateAchievementsNeverRevokes(t *testing.T) {
	now := time.Now()
	existing := EvaluateAchievements(nil, 50, now)
	require.Len(t, existing, 3)

	// 进度回落也不收回
	dropped := EvaluateAchievements(existing, 10, now.Add(time.Hour))
	assert.Empty(t, dropped)
}

func TestToggleStepMarksAndUnmarks(t *testing.T) {
	store := newFakePathStore(testPath())
	svc := NewProgressService(store)

	path, err := svc.ToggleStep(1, "path-1", 0, 0)
	require.NoError(t, err)
	assert.True(t, path.Progress["0-0"])
	assert.False(t, path.LastUpdated.IsZero())

	// first_step 在第一次勾选后解锁
	require.Len(t, path.Achievements, 1)
	assert.Equal(t, "first_step", path.Achievements[0].ID)

	path, err = svc.ToggleStep(1, "path-1", 0, 0)
	require.NoError(t, err)
	assert.False(t, path.Progress["0-0"])
	// 取消勾选不回收成就
	assert.Len(t, path.Achievements, 1)
}

func TestToggleStepOutOfRange(t *testing.T) {
	store := newFakePathStore(testPath())
	svc := NewProgressService(store)

	_, err := svc.ToggleStep(1, "path-1", 5, 0)
	assert.ErrorIs(t, err, util.ErrStepOutOfRange)

	_, err = svc.ToggleStep(1, "path-1", 0, -1)
	assert.ErrorIs(t, err, util.ErrStepOutOfRange)

	assert.Zero(t, store.saved)
}

func TestToggleStepPathNotFound(t *testing.T) {
	store := newFakePathStore(testPath())
	svc := NewProgressService(store)

	_, err := svc.ToggleStep(2, "path-1", 0, 0)
	assert.ErrorIs(t, err, util.ErrPathNotFound)

	_, err = svc.ToggleStep(1, "missing", 0, 0)
	assert.ErrorIs(t, err, util.ErrPathNotFound)
}

func TestToggleStepRollsBackOnSaveFailure(t *testing.T) {
	store := newFakePathStore(testPath())
	store.saveErr = errors.New("connection lost")
	svc := NewProgressService(store)

	_, err := svc.ToggleStep(1, "path-1", 0, 0)

	var pe *util.PersistenceError
	require.ErrorAs(t, err, &pe)

	// 内存状态全部回滚
	p := store.paths["path-1"]
	assert.False(t, p.Progress["0-0"])
	assert.True(t, p.LastUpdated.IsZero())
	assert.Empty(t, p.Achievements)
}

func TestGetProgress(t *testing.T) {
	p := testPath()
	p.Progress["0-0"] = true
	p.Progress["1-0"] = true
	p.Progress["1-1"] = true
	store := newFakePathStore(p)
	svc := NewProgressService(store)

	result, err := svc.GetProgress(1, "path-1")
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalSteps)
	assert.Equal(t, 3, result.CompletedSteps)
	assert.Equal(t, 60, result.OverallPercentage)

	require.Len(t, result.Modules, 2)
	assert.Equal(t, 33, result.Modules[0].Percentage)
	assert.Equal(t, 100, result.Modules[1].Percentage)
	assert.Equal(t, []bool{true, false, false}, result.Modules[0].Completed)
	assert.Equal(t, []bool{true, true}, result.Modules[1].Completed)
}
