package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const filePrefix = "cypher-backup-"

// Writer writes timestamped backup files into Dir.
type Writer struct {
	Dir        string
	Format     Format
	Passphrase string

	now func() time.Time
}

func NewWriter(dir string, format Format, passphrase string) *Writer {
	return &Writer{Dir: dir, Format: format, Passphrase: passphrase, now: time.Now}
}

// FileName returns the backup file name for t. Sealed files get a .sealed
// suffix.
func (w *Writer) FileName(t time.Time) string {
	name := filePrefix + t.UTC().Format("20060102-150405") + "." + w.Format.Extension()
	if w.Passphrase != "" {
		name += ".sealed"
	}
	return name
}

// WriteFile encodes snap and writes it atomically: to a temp file first,
// then renamed into place. It returns the final path.
func (w *Writer) WriteFile(snap *Snapshot) (string, error) {
	data, err := EncodeSealed(snap, w.Format, w.Passphrase)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(w.Dir, w.FileName(w.now()))
	tmp, err := os.CreateTemp(w.Dir, ".tmp-"+filePrefix+"*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename backup: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"path":   path,
		"bytes":  len(data),
		"sealed": w.Passphrase != "",
	}).Info("backup written")
	return path, nil
}

// List returns backup files in Dir, newest first.
func (w *Writer) List() ([]string, error) {
	entries, err := os.ReadDir(w.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	// The timestamp in the name sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(w.Dir, n)
	}
	return paths, nil
}

// Prune deletes all but the newest keep backup files and returns how many it
// removed. keep <= 0 disables pruning.
func (w *Writer) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	paths, err := w.List()
	if err != nil {
		return 0, err
	}
	if len(paths) <= keep {
		return 0, nil
	}

	removed := 0
	for _, p := range paths[keep:] {
		if err := os.Remove(p); err != nil {
			return removed, fmt.Errorf("remove %s: %w", p, err)
		}
		removed++
	}
	return removed, nil
}

// ReadFile loads a backup file written by WriteFile or by hand.
func ReadFile(path, passphrase string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeAny(data, passphrase)
}
