package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// Credential is the API key for one supplier
type Credential struct {
	Supplier     string    `json:"supplier"`
	APIKey       string    `json:"api_key"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving API keys
type CredentialStore interface {
	// Store saves the key for cred.Supplier
	Store(cred *Credential) error

	// Retrieve gets the key for a supplier
	Retrieve(supplier string) (*Credential, error)

	// List returns all stored keys
	List() ([]*Credential, error)

	// Delete removes the key for a supplier
	Delete(supplier string) error

	// Exists checks if a key is stored for a supplier
	Exists(supplier string) bool
}

// Manager handles key storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a manager backed by the system keychain when present,
// an encrypted file and finally the environment.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves the key using the first store that accepts it
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Supplier == "" {
		return errors.New("supplier is required")
	}
	if cred.APIKey == "" {
		return errors.New("API key is required")
	}

	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store API key: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets the key from the first store that has it
func (m *Manager) Retrieve(supplier string) (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(supplier); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w for supplier: %s", ErrCredentialsNotFound, supplier)
}

// APIKey returns the stored key for supplier, or "" when none is stored
func (m *Manager) APIKey(supplier string) string {
	cred, err := m.Retrieve(supplier)
	if err != nil {
		return ""
	}
	return cred.APIKey
}

// List returns the stored keys of all stores, newest version per supplier,
// sorted by supplier name.
func (m *Manager) List() ([]*Credential, error) {
	bySupplier := make(map[string]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if existing, ok := bySupplier[cred.Supplier]; !ok || cred.LastModified.After(existing.LastModified) {
				bySupplier[cred.Supplier] = cred
			}
		}
	}

	result := make([]*Credential, 0, len(bySupplier))
	for _, cred := range bySupplier {
		result = append(result, cred)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Supplier < result[j].Supplier })

	return result, nil
}

// Delete removes the key from all stores
func (m *Manager) Delete(supplier string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(supplier); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil && !errors.Is(lastErr, ErrCredentialsNotFound) && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete API key: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for supplier: %s", ErrCredentialsNotFound, supplier)
	}

	return nil
}

// DeleteAll removes every stored key
func (m *Manager) DeleteAll() error {
	creds, err := m.List()
	if err != nil {
		return err
	}

	for _, cred := range creds {
		_ = m.Delete(cred.Supplier)
	}

	return nil
}

func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "xfollowers")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "xfollowers")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "xfollowers")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "xfollowers")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeCredential returns a copy with the key masked
func SanitizeCredential(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}

	return &Credential{
		Supplier:     cred.Supplier,
		APIKey:       MaskKey(cred.APIKey),
		LastModified: cred.LastModified,
	}
}

// MaskKey masks all but the first 4 and last 4 characters of a key
func MaskKey(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("API key not found")
	ErrInvalidCredentials  = errors.New("invalid API key entry")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
