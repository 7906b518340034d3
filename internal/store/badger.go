package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

var edgePrefix = []byte("dep/")

// BadgerConfig configures the embedded key/value backend.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps everything in RAM; used by tests.
	InMemory   bool
	SyncWrites bool
	// GCInterval is how often value-log GC runs. Zero disables it.
	GCInterval time.Duration
	Logger     *slog.Logger
}

// edgeRecord is the msgpack form of an edge. The type is stored by name so
// the encoding survives reordering of the enum.
type edgeRecord struct {
	ID          string    `msgpack:"id"`
	Source      string    `msgpack:"source"`
	Target      string    `msgpack:"target"`
	Type        string    `msgpack:"type"`
	Description string    `msgpack:"description,omitempty"`
	Condition   string    `msgpack:"condition,omitempty"`
	CreatedAt   time.Time `msgpack:"created_at"`
	UpdatedAt   time.Time `msgpack:"updated_at"`
}

func toRecord(e goal.DependencyEdge) edgeRecord {
	return edgeRecord{
		ID:          e.ID,
		Source:      e.SourceGoalID,
		Target:      e.TargetGoalID,
		Type:        e.Type.String(),
		Description: e.Description,
		Condition:   e.Condition,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (r edgeRecord) edge() (goal.DependencyEdge, error) {
	t, err := goal.ParseDependencyType(r.Type)
	if err != nil {
		return goal.DependencyEdge{}, fmt.Errorf("decode dependency %s: %w", r.ID, err)
	}
	return goal.DependencyEdge{
		ID:           r.ID,
		SourceGoalID: r.Source,
		TargetGoalID: r.Target,
		Type:         t,
		Description:  r.Description,
		Condition:    r.Condition,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}, nil
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

type badgerBackend struct {
	db     *badger.DB
	stopGC chan struct{}
	gcDone chan struct{}
}

// OpenBadger opens (or creates) a Badger-backed Store.
func OpenBadger(cfg BadgerConfig) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger store: path is required")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	b := &badgerBackend{db: db}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		b.stopGC = make(chan struct{})
		b.gcDone = make(chan struct{})
		go b.runGC(cfg.GCInterval)
	}
	return newStore("badger", b, cfg.Logger), nil
}

func (b *badgerBackend) runGC(every time.Duration) {
	defer close(b.gcDone)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-b.stopGC:
			return
		case <-ticker.C:
			for b.db.RunValueLogGC(0.5) == nil {
			}
		}
	}
}

func edgeKey(id string) []byte {
	return append(append([]byte{}, edgePrefix...), id...)
}

func (b *badgerBackend) put(_ context.Context, e goal.DependencyEdge) error {
	val, err := msgpack.Marshal(toRecord(e))
	if err != nil {
		return fmt.Errorf("encode dependency: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(edgeKey(e.ID), val)
	})
}

func (b *badgerBackend) get(_ context.Context, id string) (goal.DependencyEdge, error) {
	var rec edgeRecord
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(edgeKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return goal.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return goal.DependencyEdge{}, err
	}
	return rec.edge()
}

func (b *badgerBackend) all(ctx context.Context) ([]goal.DependencyEdge, error) {
	var out []goal.DependencyEdge
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = edgePrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(edgePrefix); it.ValidForPrefix(edgePrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec edgeRecord
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			e, err := rec.edge()
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

func (b *badgerBackend) remove(_ context.Context, id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(edgeKey(id)); errors.Is(err, badger.ErrKeyNotFound) {
			return goal.ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(edgeKey(id))
	})
}

func (b *badgerBackend) close() error {
	if b.stopGC != nil {
		close(b.stopGC)
		<-b.gcDone
	}
	return b.db.Close()
}
