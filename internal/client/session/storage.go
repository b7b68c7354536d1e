package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mrlokans/bookkinder/internal/crypto"
	"github.com/mrlokans/bookkinder/internal/logger"
)

// Storage persists session values between processes.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryStorage keeps values in process memory. Two Stores sharing one
// MemoryStorage behave like two runs of the client sharing a disk.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// sessionsSchema is the table layout sqlite3store expects.
const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

const (
	// recordToken names the single session record holding every value.
	recordToken = "bookkinder-client"
	// retention keeps the record effectively forever; ClearAuth removes it.
	retention = 100 * 365 * 24 * time.Hour
)

// LocalStorage keeps all values as one scs session record in a SQLite file.
// The record is gob-encoded with the scs codec and sealed with AES-256-GCM.
type LocalStorage struct {
	mu        sync.Mutex
	db        *sql.DB
	store     *sqlite3store.SQLite3Store
	codec     scs.GobCodec
	encryptor *crypto.Encryptor
}

type LocalStorageConfig struct {
	// Path is the SQLite file holding the values.
	Path string
	// EncryptionKey is a base64 AES-256 key. When empty the key is read from
	// KeyFile, which is created on first use.
	EncryptionKey string
	// KeyFile defaults to Path + ".key".
	KeyFile string
}

func NewLocalStorage(cfg LocalStorageConfig) (*LocalStorage, error) {
	if cfg.Path == "" {
		return nil, errors.New("session storage path is required")
	}
	keyFile := cfg.KeyFile
	if keyFile == "" {
		keyFile = cfg.Path + ".key"
	}

	key, created, err := crypto.ResolveKey(cfg.EncryptionKey, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}
	if created {
		logger.L.Info().Str("path", keyFile).Msg("Generated new session encryption key")
	}
	encryptor, err := crypto.NewEncryptorFromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	db, err := sql.Open("sqlite3", cfg.Path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if _, err := db.Exec(sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	return &LocalStorage{
		db: db,
		// Values never expire on their own, so no cleanup goroutine.
		store:     sqlite3store.NewWithCleanupInterval(db, 0),
		encryptor: encryptor,
	}, nil
}

func (l *LocalStorage) load() (map[string]interface{}, error) {
	sealed, found, err := l.store.Find(recordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}
	if !found {
		return map[string]interface{}{}, nil
	}
	plaintext, err := l.encryptor.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session record: %w", err)
	}
	_, values, err := l.codec.Decode(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session record: %w", err)
	}
	return values, nil
}

func (l *LocalStorage) save(values map[string]interface{}) error {
	if len(values) == 0 {
		if err := l.store.Delete(recordToken); err != nil {
			return fmt.Errorf("failed to remove session record: %w", err)
		}
		return nil
	}

	expiry := time.Now().Add(retention)
	data, err := l.codec.Encode(expiry, values)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	sealed, err := l.encryptor.Seal(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt session record: %w", err)
	}
	if err := l.store.Commit(recordToken, sealed, expiry); err != nil {
		return fmt.Errorf("failed to write session record: %w", err)
	}
	return nil
}

func (l *LocalStorage) Get(key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	values, err := l.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key].(string)
	return v, ok, nil
}

func (l *LocalStorage) Set(key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	values, err := l.load()
	if err != nil {
		return err
	}
	values[key] = value
	return l.save(values)
}

func (l *LocalStorage) Remove(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	values, err := l.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return l.save(values)
}

func (l *LocalStorage) Close() error {
	return l.db.Close()
}
