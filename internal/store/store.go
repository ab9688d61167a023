package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/participant-hub/participant-hub/internal/logging"
	"github.com/participant-hub/participant-hub/internal/metrics"
)

// FileExt 是记录文件的固定扩展名：alice -> alice.yml。
const FileExt = ".yml"

var keyPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var (
	// ErrInvalidKey 表示 key 不满足 [a-z0-9-]+。
	ErrInvalidKey = errors.New("invalid record key")
	// ErrClosed 表示 Store 已关闭，不再接受写入。
	ErrClosed = errors.New("store closed")
)

// Record 是无固定 schema 的结构化文档。
type Record map[string]any

// Options 控制 Store 的日志、指标与落盘策略。
type Options struct {
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
	// SyncWrites 为 true 时 Set/Delete 等待文件操作完成后再返回；
	// 默认 false，文件操作在后台进行。
	SyncWrites bool
}

// LoadReport 汇总一次目录扫描的结果。
type LoadReport struct {
	Loaded  int
	Skipped []string
}

// Store 持有内存索引与记录目录，进程内只创建一份并注入到各 handler。
type Store struct {
	dir        string
	logger     *logrus.Logger
	metrics    *metrics.Metrics
	syncWrites bool
	files      *fileWriter

	mu      sync.RWMutex
	records map[string]Record
	closed  bool

	pending sync.WaitGroup
}

// ValidKey 判断 key 是否满足 [a-z0-9-]+。
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// KeyToFile 将 key 映射为文件名。
func KeyToFile(key string) string {
	return key + FileExt
}

// FileToKey 从文件名推导 key；扩展名不符或 key 非法时返回 false。
func FileToKey(name string) (string, bool) {
	if !strings.HasSuffix(name, FileExt) {
		return "", false
	}
	key := strings.TrimSuffix(name, FileExt)
	if !ValidKey(key) {
		return "", false
	}
	return key, true
}

// New 以 dir 为记录目录构建 Store，目录不存在时自动创建。调用方随后执行 LoadAll。
func New(dir string, opts Options) (*Store, error) {
	if dir == "" {
		return nil, errors.New("records path required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve records path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create records path: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	return &Store{
		dir:        abs,
		logger:     logger,
		metrics:    opts.Metrics,
		syncWrites: opts.SyncWrites,
		files:      newFileWriter(abs),
		records:    make(map[string]Record),
	}, nil
}

// Dir 返回记录目录的绝对路径。
func (s *Store) Dir() string {
	return s.dir
}

// LoadAll 扫描记录目录（不递归，仅普通文件），解析每个 YAML 文件并填充内存索引。
// 单个文件解析失败时记录 warning 并跳过，继续加载其余文件；只有目录本身不可读时返回错误。
func (s *Store) LoadAll() (LoadReport, error) {
	var report LoadReport

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return report, fmt.Errorf("read records path: %w", err)
	}

	loaded := make(map[string]Record, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, FileExt) {
			continue
		}
		file := filepath.Join(s.dir, name)

		key, ok := FileToKey(name)
		if !ok {
			s.skip(&report, name, file, errors.New("file name is not a valid key"))
			continue
		}

		record, err := readRecord(file)
		if err != nil {
			s.skip(&report, name, file, err)
			continue
		}
		loaded[key] = record
	}

	s.mu.Lock()
	for key, record := range loaded {
		s.records[key] = record
	}
	count := len(s.records)
	s.mu.Unlock()

	report.Loaded = len(loaded)
	s.metrics.SetRecords(count)
	return report, nil
}

func (s *Store) skip(report *LoadReport, name, file string, err error) {
	report.Skipped = append(report.Skipped, name)
	s.logger.WithFields(logging.StoreFields("load", strings.TrimSuffix(name, FileExt), file)).
		WithError(err).
		Warn("跳过无法加载的记录文件")
}

func readRecord(file string) (Record, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	if doc == nil {
		return nil, errors.New("record is not a mapping document")
	}
	return cloneRecord(doc), nil
}

// Get 纯内存查询，不触发任何 I/O。
func (s *Store) Get(key string) (Record, bool) {
	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneRecord(record), true
}

// Set 立即更新内存索引（后续 Get 立刻可见），随后把记录写入 <key>.yml。
// 写盘失败只记录日志与指标，不影响返回值。
func (s *Store) Set(key string, record Record) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	stored := cloneRecord(record)
	if stored == nil {
		stored = Record{}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.records[key] = stored
	count := len(s.records)
	s.pending.Add(1)
	s.mu.Unlock()

	s.metrics.SetRecords(count)
	s.schedule(key)
	return nil
}

// Delete 立即从内存索引移除 key，随后删除对应文件。key 不存在时同样成功。
func (s *Store) Delete(key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	delete(s.records, key)
	count := len(s.records)
	s.pending.Add(1)
	s.mu.Unlock()

	s.metrics.SetRecords(count)
	s.schedule(key)
	return nil
}

// All 返回整个索引的深拷贝快照，调用方修改快照不会影响 Store。
func (s *Store) All() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Record, len(s.records))
	for key, record := range s.records {
		out[key] = cloneRecord(record)
	}
	return out
}

// Len 返回内存索引中的记录数量。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Flush 等待已调度的文件操作全部完成。仅应在没有并发写入的时刻调用，例如测试或关闭前。
func (s *Store) Flush() {
	s.pending.Wait()
}

// Close 拒绝后续写入并等待未完成的文件操作。
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.pending.Wait()
	return nil
}

func (s *Store) schedule(key string) {
	if s.syncWrites {
		s.syncKey(key)
		return
	}
	go s.syncKey(key)
}

// syncKey 在 key 级锁内把文件同步为内存中的当前值：存在则写入，不存在则删除。
// 因为总是读取最新值，多个任务乱序执行时目录仍会收敛到内存索引。
func (s *Store) syncKey(key string) {
	defer s.pending.Done()

	unlock := s.files.lock(key)
	defer unlock()

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()

	file := s.files.path(key)
	if !ok {
		if err := s.files.remove(key); err != nil {
			s.persistFailed("remove", key, file, err)
		}
		return
	}

	data, err := yaml.Marshal(map[string]any(record))
	if err != nil {
		s.persistFailed("encode", key, file, err)
		return
	}
	if err := s.files.write(key, data); err != nil {
		s.persistFailed("write", key, file, err)
		return
	}
	s.logger.WithFields(logging.StoreFields("persist", key, file)).Debug("记录已落盘")
}

func (s *Store) persistFailed(op, key, file string, err error) {
	s.metrics.PersistError(op)
	s.logger.WithFields(logging.StoreFields("persist", key, file)).
		WithField("op", op).
		WithError(err).
		Error("记录落盘失败，内存与磁盘暂时不一致")
}

// cloneRecord 深拷贝记录，同时把 YAML 解析出的 map[any]any 统一成 map[string]any，
// 保证结果可以直接编码为 JSON。
func cloneRecord(src map[string]any) Record {
	if src == nil {
		return nil
	}
	out := make(Record, len(src))
	for k, v := range src {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return map[string]any(cloneRecord(typed))
	case Record:
		return map[string]any(cloneRecord(typed))
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[fmt.Sprint(k)] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
