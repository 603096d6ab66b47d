package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/cypher/internal/audit"
	"github.com/mrlokans/cypher/internal/backup"
	"github.com/mrlokans/cypher/internal/crypto"
	"github.com/mrlokans/cypher/internal/tasks"
)

// PassphraseHeader carries the passphrase for sealed backups.
const PassphraseHeader = "X-Backup-Passphrase"

const maxImportBytes = 64 << 20

// SnapshotExporter reads the whole catalog.
type SnapshotExporter interface {
	Export(ctx context.Context) (*backup.Snapshot, error)
}

// SnapshotImporter replaces the whole catalog.
type SnapshotImporter interface {
	Import(ctx context.Context, snap *backup.Snapshot) (backup.Counts, error)
	DryRun(ctx context.Context, snap *backup.Snapshot) (backup.Counts, error)
}

// BackupFiles writes and lists backup files on disk.
type BackupFiles interface {
	Backup(ctx context.Context) (string, error)
	List() ([]string, error)
}

// TaskEnqueuer hands work to the background queue.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, tasks ...backlite.Task) ([]string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

type BackupController struct {
	exporter SnapshotExporter
	importer SnapshotImporter
	files    BackupFiles
	queue    TaskEnqueuer
	auditor  *audit.Auditor
	activity ActivityLog
	keep     int
}

func NewBackupController(exporter SnapshotExporter, importer SnapshotImporter, files BackupFiles, queue TaskEnqueuer, auditor *audit.Auditor, activity ActivityLog, keep int) *BackupController {
	return &BackupController{
		exporter: exporter,
		importer: importer,
		files:    files,
		queue:    queue,
		auditor:  auditor,
		activity: activity,
		keep:     keep,
	}
}

// ImportResponse reports the rows written, or that would be written, per table.
type ImportResponse struct {
	DryRun bool             `json:"dryRun"`
	Total  int64            `json:"total"`
	Counts map[string]int64 `json:"counts"`
}

// Export downloads the whole catalog. A passphrase header seals the file.
// GET /api/backup?format=json|yaml
func (bc *BackupController) Export(c *gin.Context) {
	format, err := backup.ParseFormat(c.Query("format"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	passphrase := c.GetHeader(PassphraseHeader)

	snap, err := bc.exporter.Export(c.Request.Context())
	if err != nil {
		bc.logExport(format, nil, err)
		respondInternalError(c, err, "export")
		return
	}

	data, err := backup.EncodeSealed(snap, format, passphrase)
	if err != nil {
		bc.logExport(format, snap, err)
		respondInternalError(c, err, "encode export")
		return
	}
	bc.logExport(format, snap, nil)

	name := fmt.Sprintf("cypher-export-%s.%s", time.Now().UTC().Format("20060102-150405"), format.Extension())
	contentType := format.ContentType()
	if passphrase != "" {
		name += ".sealed"
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// Import replaces the catalog with the uploaded snapshot. JSON, YAML and
// sealed files are accepted; dry_run=true validates without writing.
// POST /api/backup?dry_run=true
func (bc *BackupController) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondBadRequest(c, "failed to read request body")
		return
	}
	if len(payload) == 0 {
		respondBadRequest(c, "empty backup")
		return
	}

	if bc.auditor != nil {
		ext := backup.DetectFormat(payload).Extension()
		if crypto.IsSealed(payload) {
			ext = "sealed"
		}
		if _, err := bc.auditor.SaveRaw(payload, ext); err != nil {
			logrus.WithError(err).Warn("failed to save import payload")
		}
	}

	snap, err := backup.DecodeAny(payload, c.GetHeader(PassphraseHeader))
	if err != nil {
		bc.logImport(nil, err)
		respondDecodeError(c, err)
		return
	}

	dryRun := parseBoolQuery(c, "dry_run", false)
	var counts backup.Counts
	if dryRun {
		counts, err = bc.importer.DryRun(c.Request.Context(), snap)
	} else {
		counts, err = bc.importer.Import(c.Request.Context(), snap)
		bc.logImport(counts, err)
	}
	if err != nil {
		respondStoreError(c, err, "backup")
		return
	}

	c.JSON(http.StatusOK, ImportResponse{DryRun: dryRun, Total: counts.Total(), Counts: counts.ByName()})
}

func respondDecodeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, backup.ErrDecryptionFailed), errors.Is(err, crypto.ErrEmptyPassphrase):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "decryption_failed"})
	case errors.Is(err, backup.ErrUnsupportedVersion):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "unsupported_version"})
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "malformed_backup"})
	}
}

// ListFiles lists backup files on disk, newest first
// GET /api/backup/files
func (bc *BackupController) ListFiles(c *gin.Context) {
	if bc.files == nil {
		c.JSON(http.StatusOK, gin.H{"files": []string{}})
		return
	}
	paths, err := bc.files.List()
	if err != nil {
		respondInternalError(c, err, "list backups")
		return
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	c.JSON(http.StatusOK, gin.H{"files": names})
}

// RunJob writes a backup file. With a task queue the job runs in the
// background; without one it runs inline.
// POST /api/backup/jobs
func (bc *BackupController) RunJob(c *gin.Context) {
	if bc.queue != nil {
		ids, err := bc.queue.Enqueue(c.Request.Context(), tasks.ExportBackupTask{Reason: "manual", Keep: bc.keep})
		if err != nil {
			respondInternalError(c, err, "enqueue backup")
			return
		}
		respondAccepted(c, "backup enqueued", gin.H{"task_id": ids[0]})
		return
	}

	if bc.files == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "backups not configured"})
		return
	}
	path, err := bc.files.Backup(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "backup")
		return
	}
	respondCreated(c, gin.H{"file": filepath.Base(path)})
}

func (bc *BackupController) logExport(format backup.Format, snap *backup.Snapshot, err error) {
	if bc.activity == nil {
		return
	}
	var counts map[string]int64
	if snap != nil {
		counts = snap.Counts().ByName()
	}
	bc.activity.LogExport(string(format), "export via API", counts, err)
}

func (bc *BackupController) logImport(counts backup.Counts, err error) {
	if bc.activity == nil {
		return
	}
	bc.activity.LogImport("snapshot", "import via API", counts.ByName(), err)
}

