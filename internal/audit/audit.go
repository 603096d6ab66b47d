package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Auditor keeps a copy of every payload received for import, so a bad
// import can be inspected after the fact.
type Auditor struct {
	AuditDir string
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
	}
}

// SaveJSON writes data as indented JSON to <dir>/<timestamp>-<uuid>.json and
// returns the file name.
func (a *Auditor) SaveJSON(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data to JSON: %w", err)
	}
	return a.SaveRaw(jsonData, "json")
}

// SaveRaw writes payload unchanged using ext as the file extension.
func (a *Auditor) SaveRaw(payload []byte, ext string) (string, error) {
	if err := os.MkdirAll(a.AuditDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audit directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.%s", time.Now().UTC().Format("20060102T150405Z"), uuid.NewString(), ext)
	path := filepath.Join(a.AuditDir, filename)

	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	logrus.WithField("path", path).Debug("saved import payload")
	return filename, nil
}
