package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mbertrand/plume/internal/models"
)

// kvEntry is a single storage slot. The table mirrors the browser
// client's localStorage: opaque string values under fixed keys.
type kvEntry struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}

func (kvEntry) TableName() string { return "session_kv" }

// storedUser is the value persisted under the "user" key: the account
// record plus the token expiry the server reported at login.
type storedUser struct {
	models.User
	ExpiresAt string `json:"expiresAt"`
}

// FileStore persists the session in a SQLite file so it survives process
// restarts.
type FileStore struct {
	mu sync.Mutex
	db *gorm.DB
}

func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrate session store: %w", err)
	}

	return &FileStore{db: db}, nil
}

func (f *FileStore) Session() *models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	token, ok := f.get(keyToken)
	if !ok || token == "" {
		return nil
	}
	raw, ok := f.get(keyUser)
	if !ok {
		return nil
	}

	var su storedUser
	if err := json.Unmarshal([]byte(raw), &su); err != nil {
		return nil
	}
	return &models.Session{Token: token, User: su.User, ExpiresAt: su.ExpiresAt}
}

func (f *FileStore) IsAuthenticated() bool {
	return f.Session() != nil
}

func (f *FileStore) CurrentUser() *models.User {
	s := f.Session()
	if s == nil {
		return nil
	}
	u := s.User
	return &u
}

func (f *FileStore) Save(s models.Session) error {
	raw, err := json.Marshal(storedUser{User: s.User, ExpiresAt: s.ExpiresAt})
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Token and user go in one transaction so a crash can never leave one
	// without the other.
	return f.db.Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, keyToken, s.Token); err != nil {
			return err
		}
		return upsert(tx, keyUser, string(raw))
	})
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.db.Transaction(func(tx *gorm.DB) error {
		return tx.Where("key IN ?", []string{keyToken, keyUser}).Delete(&kvEntry{}).Error
	})
}

func (f *FileStore) get(key string) (string, bool) {
	var e kvEntry
	err := f.db.First(&e, "key = ?", key).Error
	if err != nil {
		return "", false
	}
	return e.Value, true
}

func upsert(tx *gorm.DB, key, value string) error {
	res := tx.Model(&kvEntry{}).Where("key = ?", key).Update("value", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return tx.Create(&kvEntry{Key: key, Value: value}).Error
	}
	return nil
}
