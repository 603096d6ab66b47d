package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/cypher/internal/audit"
	"github.com/mrlokans/cypher/internal/backup"
	"github.com/mrlokans/cypher/internal/database"
	auditRepo "github.com/mrlokans/cypher/internal/database/audit"
	"github.com/mrlokans/cypher/internal/database/battle"
	"github.com/mrlokans/cypher/internal/database/combos"
	"github.com/mrlokans/cypher/internal/database/goals"
	"github.com/mrlokans/cypher/internal/database/moves"
	"github.com/mrlokans/cypher/internal/preferences"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router    *gin.Engine
	db        *database.Database
	activity  *audit.Service
	backups   *backup.Service
	backupDir string
	auditDir  string
	moves     *moves.Repository
	combos    *combos.Repository
	battle    *battle.Repository
	goals     *goals.Repository
}

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	opts := database.DefaultOptions()
	opts.LogLevel = logger.Silent
	db, err := database.NewDatabaseWithOptions(filepath.Join(t.TempDir(), "http.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestServer wires every controller to a fresh database. mutate may
// adjust the router config before the router is built.
func newTestServer(t *testing.T, mutate ...func(*RouterConfig)) *testServer {
	t.Helper()
	db := setupTestDB(t)
	tmp := t.TempDir()

	prefs, err := preferences.Open(filepath.Join(tmp, "prefs.yaml"))
	require.NoError(t, err)

	s := &testServer{
		db:        db,
		activity:  audit.NewService(auditRepo.NewRepository(db.DB)),
		backupDir: filepath.Join(tmp, "backups"),
		auditDir:  filepath.Join(tmp, "audit"),
		moves:     moves.NewRepository(db.DB, db.Changes),
		combos:    combos.NewRepository(db.DB, db.Changes),
		battle:    battle.NewRepository(db.DB, db.Changes),
		goals:     goals.NewRepository(db.DB, db.Changes),
	}
	t.Cleanup(s.activity.Wait)

	exporter := backup.NewExporter(db.DB)
	s.backups = backup.NewService(exporter, backup.NewWriter(s.backupDir, backup.FormatJSON, ""))

	cfg := RouterConfig{
		Database:              db,
		Moves:                 s.moves,
		Combos:                s.combos,
		Battle:                s.battle,
		Goals:                 s.goals,
		Exporter:              exporter,
		Importer:              backup.NewImporter(db.DB, db.Changes),
		BackupFiles:           s.backups,
		KeepBackups:           3,
		Auditor:               audit.NewAuditor(s.auditDir),
		Activity:              s.activity,
		ActivityRetentionDays: 30,
		Preferences:           prefs,
		Version:               "test",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	s.router = NewRouter(cfg)
	return s
}

// do sends a request. body may be nil, raw bytes or a value encoded as JSON.
// headers are key/value pairs.
func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	return s.serve(req)
}

// closeNotifyingRecorder lets handlers that stream run under a recorder.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func (s *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	w := &closeNotifyingRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	s.router.ServeHTTP(w, req)
	return w.ResponseRecorder
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}


// obj is shorthand for a JSON object body.
type obj = map[string]any
