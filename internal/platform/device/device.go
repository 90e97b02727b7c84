package device

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

// Provider supplies the stable per-install device identifier used in
// progress event identity.
type Provider interface {
	DeviceID() string
}

type fileProvider struct {
	id string
}

// NewFileProvider loads the install id from <dataDir>/device_id, creating
// it on first run. The id never changes for the lifetime of the install.
func NewFileProvider(dataDir string, log *logger.Logger) (Provider, error) {
	path := filepath.Join(dataDir, "device_id")
	if raw, err := os.ReadFile(path); err == nil {
		id := strings.TrimSpace(string(raw))
		if id != "" {
			return &fileProvider{id: id}, nil
		}
	}
	id := uuid.New().String()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return nil, err
	}
	if log != nil {
		log.Info("Generated new device id", "device_id", id)
	}
	return &fileProvider{id: id}, nil
}

func (p *fileProvider) DeviceID() string { return p.id }

// Static returns a fixed-id provider, used in tests.
func Static(id string) Provider { return &fileProvider{id: id} }
