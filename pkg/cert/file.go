package cert

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CredentialsFile is the on-disk YAML layout for exported rider
// credentials:
//
//	privateKey: <base64 Ed25519 key>
//	certificate: <base64 certificate blob>
//	bikeAddress: AA:BB:CC:DD:EE:FF   # optional
type CredentialsFile struct {
	PrivateKey  string `yaml:"privateKey"`
	Certificate string `yaml:"certificate"`
	BikeAddress string `yaml:"bikeAddress,omitempty"`
}

// ReadCredentialsFile loads and parses a credentials YAML file.
func ReadCredentialsFile(path string) (*CredentialsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var f CredentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return &f, nil
}

// Credentials decodes the file's key and certificate into verified
// credentials.
func (f *CredentialsFile) Credentials() (*Credentials, error) {
	return LoadCredentials(f.PrivateKey, f.Certificate)
}

// Write saves the credentials file with owner-only permissions; it
// contains a private key.
func (f *CredentialsFile) Write(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode credentials file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}
