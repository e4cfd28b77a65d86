package db

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"vault/config"
	"vault/logs"

	"github.com/dgraph-io/badger/v2"
)

var ErrClosed = errors.New("database is not initialized or closed")

// Manager 封装 BadgerDB 的管理器
//
// 写入先进入 pending 队列，ForceFlush 在一个 badger 事务里整体提交，
// 因此一次调用产生的全部写集要么全部落盘，要么全部丢弃。
type Manager struct {
	Db     *badger.DB
	mu     sync.RWMutex
	Logger logs.Logger

	pendingMu sync.Mutex
	pending   []WriteTask
}

// NewManager 按配置打开数据库；cfg 为 nil 时使用默认配置
func NewManager(cfg *config.Config, logger logs.Logger) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logs.NewNodeLogger("db")
	}

	var opts badger.Options
	if cfg.Database.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// badger v2 不自动创建父目录，需要手动创建
		if err := os.MkdirAll(cfg.Database.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Database.Path).
			WithSyncWrites(cfg.Database.SyncWrites).
			WithValueLogFileSize(cfg.Database.ValueLogFileSize)
	}
	opts = opts.WithLogger(nil)

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger.Debug("opened badger db (in_memory=%v path=%s)", cfg.Database.InMemory, cfg.Database.Path)
	return &Manager{
		Db:      bdb,
		Logger:  logger,
		pending: make([]WriteTask, 0, 16),
	}, nil
}

func (manager *Manager) db() (*badger.DB, error) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	if manager.Db == nil {
		return nil, ErrClosed
	}
	return manager.Db, nil
}

// Get 实现 vm.DBManager 接口；key 不存在时返回 (nil, nil)
func (manager *Manager) Get(key string) ([]byte, error) {
	bdb, err := manager.db()
	if err != nil {
		return nil, err
	}

	var value []byte
	err = bdb.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Scan 返回所有以 prefix 开头的键值对
func (manager *Manager) Scan(prefix string) (map[string][]byte, error) {
	bdb, err := manager.db()
	if err != nil {
		return nil, err
	}

	result := make(map[string][]byte)
	err = bdb.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[string(k)] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// 提供"投递写请求"的方法

func (manager *Manager) EnqueueSet(key, value string) {
	manager.pendingMu.Lock()
	defer manager.pendingMu.Unlock()
	manager.pending = append(manager.pending, WriteTask{
		Key:   []byte(key),
		Value: []byte(value),
		Op:    OpSet,
	})
}

func (manager *Manager) EnqueueDel(key string) {
	manager.pendingMu.Lock()
	defer manager.pendingMu.Unlock()
	manager.pending = append(manager.pending, WriteTask{
		Key: []byte(key),
		Op:  OpDelete,
	})
}

// PendingCount 尚未提交的写请求数
func (manager *Manager) PendingCount() int {
	manager.pendingMu.Lock()
	defer manager.pendingMu.Unlock()
	return len(manager.pending)
}

// DiscardPending 丢弃尚未提交的写请求
func (manager *Manager) DiscardPending() {
	manager.pendingMu.Lock()
	defer manager.pendingMu.Unlock()
	manager.pending = manager.pending[:0]
}

// ForceFlush 把 pending 写集放进同一个 badger 事务提交。
// 提交失败时 pending 保持原样，由调用方决定重试或 DiscardPending。
func (manager *Manager) ForceFlush() error {
	manager.pendingMu.Lock()
	defer manager.pendingMu.Unlock()

	if len(manager.pending) == 0 {
		return nil
	}
	bdb, err := manager.db()
	if err != nil {
		return err
	}

	err = bdb.Update(func(txn *badger.Txn) error {
		for _, task := range manager.pending {
			switch task.Op {
			case OpSet:
				if err := txn.Set(task.Key, task.Value); err != nil {
					return fmt.Errorf("set %s: %w", task.Key, err)
				}
			case OpDelete:
				if err := txn.Delete(task.Key); err != nil {
					return fmt.Errorf("delete %s: %w", task.Key, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		manager.Logger.Error("flush of %d tasks failed: %v", len(manager.pending), err)
		return err
	}

	manager.Logger.Trace("flushed %d tasks", len(manager.pending))
	manager.pending = manager.pending[:0]
	return nil
}

// Close 先落盘 pending，再关闭数据库
func (manager *Manager) Close() error {
	flushErr := manager.ForceFlush()

	manager.mu.Lock()
	defer manager.mu.Unlock()
	if manager.Db == nil {
		return flushErr
	}
	closeErr := manager.Db.Close()
	manager.Db = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
