package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// checksumSuffix is appended to the config path to locate its checksum file.
const checksumSuffix = ".b3"

// ErrChecksumMissing reports that no checksum file exists for the config.
// Startup treats this as a warning; a hash mismatch is a refusal.
var ErrChecksumMissing = errors.New("checksum file not found")

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// WriteChecksum computes the config file's hash and writes it next to the
// file. An operator runs this after an intentional edit.
func WriteChecksum(configPath string) (string, error) {
	hash, err := ComputeBlake3Hash(configPath)
	if err != nil {
		return "", err
	}
	// Restrictive permissions: the checksum is the tamper reference.
	if err := os.WriteFile(configPath+checksumSuffix, []byte(hash+"\n"), 0600); err != nil {
		return "", fmt.Errorf("failed to write checksum: %w", err)
	}
	return hash, nil
}

// VerifyChecksum verifies the config file against its stored checksum.
// A missing checksum file is reported distinctly so startup can proceed
// with a warning rather than a refusal.
func VerifyChecksum(configPath string) error {
	stored, err := os.ReadFile(configPath + checksumSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w for %s (run 'config lock' after editing)", ErrChecksumMissing, filepath.Base(configPath))
		}
		return fmt.Errorf("failed to read checksum: %w", err)
	}

	expected := strings.TrimSpace(string(stored))
	actual, err := ComputeBlake3Hash(configPath)
	if err != nil {
		return fmt.Errorf("failed to compute hash: %w", err)
	}
	if actual != expected {
		return fmt.Errorf("hash mismatch for %s: expected %s, got %s",
			filepath.Base(configPath), expected, actual)
	}
	return nil
}
