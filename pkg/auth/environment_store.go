package auth

import (
	"os"
	"time"

	"xfollowers/pkg/config"
)

var knownSuppliers = []string{config.SupplierRapidAPI, config.SupplierJoJAPI}

// envKeys lists the variables checked for each supplier, in order
var envKeys = map[string][]string{
	config.SupplierRapidAPI: {"XFOLLOWERS_RAPIDAPI_KEY", config.EnvRapidAPIKey},
	config.SupplierJoJAPI:   {"XFOLLOWERS_JOJAPI_KEY", config.EnvJoJAPIKey},
}

// EnvironmentStore implements CredentialStore using environment variables.
// It is read only.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Retrieve(supplier string) (*Credential, error) {
	for _, name := range envKeys[supplier] {
		if key := os.Getenv(name); key != "" {
			return &Credential{
				Supplier:     supplier,
				APIKey:       key,
				LastModified: time.Time{},
			}, nil
		}
	}
	return nil, ErrCredentialsNotFound
}

func (e *EnvironmentStore) List() ([]*Credential, error) {
	var creds []*Credential
	for _, supplier := range knownSuppliers {
		if cred, err := e.Retrieve(supplier); err == nil {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(supplier string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(supplier string) bool {
	_, err := e.Retrieve(supplier)
	return err == nil
}
