package apiclient

import (
	"os"
	"path/filepath"
	"strings"
)

// TokenStore is the persisted session storage the client pulls its bearer
// token from.
type TokenStore interface {
	Token() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a mode-0600 file, the way the CLI
// persists a login across invocations.
type FileTokenStore struct {
	Path string
}

// DefaultTokenPath returns ~/.drp/token, falling back to the working
// directory when the home directory cannot be resolved.
func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".drp_token"
	}
	return filepath.Join(home, ".drp", "token")
}

func (s *FileTokenStore) Token() (string, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token+"\n"), 0o600)
}

func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemTokenStore holds a token in memory, for tests and one-shot scripts.
type MemTokenStore struct {
	tok string
}

func (m *MemTokenStore) Token() (string, error) { return m.tok, nil }
func (m *MemTokenStore) Save(tok string) error  { m.tok = tok; return nil }
func (m *MemTokenStore) Clear() error           { m.tok = ""; return nil }
