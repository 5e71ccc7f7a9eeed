package checkpoint

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"xfollowers/pkg/logger"
	"xfollowers/pkg/storage"
	"xfollowers/pkg/supplier"
)

const currentVersion = 1

// Checkpoint is the pagination state of an interrupted run. The accounts
// gathered so far live in a JSON-lines file next to the checkpoint; only
// AccountsOffset bytes of it are committed.
type Checkpoint struct {
	Username       string    `json:"username"`
	Request        string    `json:"request"`
	Pages          int       `json:"pages"`
	EndCursor      string    `json:"end_cursor"`
	AccountCount   int       `json:"account_count"`
	AccountsOffset int64     `json:"accounts_offset"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int       `json:"version"`

	// Accounts is filled by Load
	Accounts []supplier.RawAccount `json:"-"`
}

// Age is the time since the checkpoint was last written
func (c *Checkpoint) Age() time.Duration {
	return time.Since(c.UpdatedAt)
}

// Manager handles checkpoint operations for one username and request
type Manager struct {
	checkpointPath string
	accountsPath   string
	logger         logger.Logger
	mu             sync.Mutex
}

// NewManager creates a manager storing checkpoints under the user data directory
func NewManager(username, request string) (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewManagerInDir(filepath.Join(dataDir, "checkpoints"), username, request)
}

// NewManagerInDir creates a manager storing checkpoints in dir
func NewManagerInDir(dir, username, request string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	base := filepath.Join(dir, fmt.Sprintf("%s_%s", username, request))
	return &Manager{
		checkpointPath: base + ".checkpoint.json",
		accountsPath:   base + ".accounts.jsonl",
		logger:         logger.GetLogger(),
	}, nil
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create starts a fresh checkpoint and saves it
func (m *Manager) Create(username, request string) (*Checkpoint, error) {
	if err := os.Remove(m.accountsPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to reset checkpoint accounts: %w", err)
	}

	now := time.Now()
	checkpoint := &Checkpoint{
		Username:  username,
		Request:   request,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   currentVersion,
	}

	if err := m.Save(checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"username": username,
		"request":  request,
		"path":     m.checkpointPath,
	})

	return checkpoint, nil
}

// Peek reads the checkpoint without its accounts. It returns nil, nil when
// none exists.
func (m *Manager) Peek() (*Checkpoint, error) {
	data, err := os.ReadFile(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if checkpoint.Version > currentVersion {
		return nil, fmt.Errorf("checkpoint version %d is newer than supported %d", checkpoint.Version, currentVersion)
	}
	return &checkpoint, nil
}

// Load reads the checkpoint and its committed accounts. It returns nil, nil
// when none exists.
func (m *Manager) Load() (*Checkpoint, error) {
	checkpoint, err := m.Peek()
	if err != nil || checkpoint == nil {
		return checkpoint, err
	}

	accounts, err := m.readAccounts(checkpoint)
	if err != nil {
		return nil, err
	}
	checkpoint.Accounts = accounts

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"username":    checkpoint.Username,
		"request":     checkpoint.Request,
		"pages":       checkpoint.Pages,
		"accounts":    len(checkpoint.Accounts),
		"last_cursor": checkpoint.EndCursor,
		"updated_at":  checkpoint.UpdatedAt,
	})

	return checkpoint, nil
}

func (m *Manager) readAccounts(checkpoint *Checkpoint) ([]supplier.RawAccount, error) {
	if checkpoint.AccountsOffset == 0 {
		return nil, nil
	}

	file, err := os.Open(m.accountsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint accounts: %w", err)
	}
	defer file.Close()

	accounts := make([]supplier.RawAccount, 0, checkpoint.AccountCount)
	decoder := json.NewDecoder(io.LimitReader(file, checkpoint.AccountsOffset))
	for decoder.More() {
		var acc supplier.RawAccount
		if err := decoder.Decode(&acc); err != nil {
			return nil, fmt.Errorf("failed to decode checkpoint account %d: %w", len(accounts), err)
		}
		accounts = append(accounts, acc)
	}
	if len(accounts) != checkpoint.AccountCount {
		return nil, fmt.Errorf("checkpoint lists %d accounts but %d were stored", checkpoint.AccountCount, len(accounts))
	}
	return accounts, nil
}

// Save writes the checkpoint to disk atomically
func (m *Manager) Save(checkpoint *Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(checkpoint)
}

func (m *Manager) save(checkpoint *Checkpoint) error {
	checkpoint.UpdatedAt = time.Now()

	err := storage.WriteAtomic(m.checkpointPath, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(checkpoint)
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"username":    checkpoint.Username,
		"pages":       checkpoint.Pages,
		"accounts":    checkpoint.AccountCount,
		"last_cursor": checkpoint.EndCursor,
	})

	return nil
}

// Delete removes the checkpoint and its accounts
func (m *Manager) Delete() error {
	for _, path := range []string{m.checkpointPath, m.accountsPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete checkpoint: %w", err)
		}
	}

	m.logger.Debug("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// RecordPage appends the accounts of a fetched page and moves the cursor to
// the page after it. Accounts are appended to the accounts file, so the cost
// of a page does not grow with the pages before it. Bytes past the committed
// offset, left by a write that never reached the checkpoint, are dropped.
func (m *Manager) RecordPage(checkpoint *Checkpoint, accounts []supplier.RawAccount, nextCursor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	offset, err := m.appendAccounts(checkpoint.AccountsOffset, accounts)
	if err != nil {
		return err
	}

	checkpoint.AccountsOffset = offset
	checkpoint.AccountCount += len(accounts)
	checkpoint.EndCursor = nextCursor
	checkpoint.Pages++
	return m.save(checkpoint)
}

func (m *Manager) appendAccounts(offset int64, accounts []supplier.RawAccount) (int64, error) {
	file, err := os.OpenFile(m.accountsPath, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open checkpoint accounts: %w", err)
	}
	defer file.Close()

	if err := file.Truncate(offset); err != nil {
		return 0, fmt.Errorf("failed to trim checkpoint accounts: %w", err)
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek checkpoint accounts: %w", err)
	}

	w := bufio.NewWriter(file)
	encoder := json.NewEncoder(w)
	for _, acc := range accounts {
		if err := encoder.Encode(acc); err != nil {
			return 0, fmt.Errorf("failed to write checkpoint account %s: %w", acc.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write checkpoint accounts: %w", err)
	}
	if err := file.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync checkpoint accounts: %w", err)
	}

	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("failed to read checkpoint accounts offset: %w", err)
	}
	return end, nil
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "xfollowers")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "xfollowers")
	default:
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "xfollowers")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "xfollowers")
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
