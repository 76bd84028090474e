package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexliaai/corretor/internal/documents"
	"github.com/nexliaai/corretor/internal/orchestrator"
)

// execute runs the root command against srv and returns its output.
func execute(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()

	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--server", srv.URL}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags() {
	uploadCategory = "apolice_auto"
	uploadWait = false
	statusWatch = false
	watchInterval = time.Millisecond
	watchAttempts = 60
	confirmFields = ""
	confirmParty = ""
	confirmCategory = ""
	exportOutput = ""
	exportSeguradora = ""
	exportVigenteDe = ""
	exportVigenteAte = ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestUpload(t *testing.T) {
	id := uuid.New()
	var gotCategory, gotFile, gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST /documents", r.Method+" "+r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotCategory = r.FormValue("category")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		gotFile, gotBody = hdr.Filename, string(data)

		writeJSON(w, http.StatusCreated, documents.Document{
			ID:       id,
			Filename: hdr.Filename,
			Category: gotCategory,
			Status:   documents.StatusPending,
		})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "apolice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o644))

	out, err := execute(t, srv, "upload", path, "--category", "apolice_auto")
	require.NoError(t, err)

	assert.Equal(t, "apolice_auto", gotCategory)
	assert.Equal(t, "apolice.pdf", gotFile)
	assert.Equal(t, "%PDF-1.7", gotBody)
	assert.Contains(t, out, id.String())
	assert.Contains(t, out, "pending")
}

func TestUploadMissingFile(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := execute(t, srv, "upload", filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	id := uuid.New()
	msg := "extraction timed out after 3 status checks"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, orchestrator.StatusView{
			ID:           id,
			FileName:     "apolice.pdf",
			Category:     "apolice_auto",
			Status:       documents.StatusError,
			ErrorMessage: &msg,
		})
	}))
	defer srv.Close()

	out, err := execute(t, srv, "status", id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "apolice.pdf")
	assert.Contains(t, out, msg)
}

func TestStatusInvalidID(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := execute(t, srv, "status", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid document id")
}

func TestStatusServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
	}))
	defer srv.Close()

	_, err := execute(t, srv, "status", uuid.NewString())
	require.Error(t, err)

	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "document not found", apiErr.Message)
}

func TestStatusWatchSettles(t *testing.T) {
	id := uuid.New()
	var mu sync.Mutex
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		status := documents.StatusProcessing
		if n >= 3 {
			status = documents.StatusPendingReview
		}
		writeJSON(w, http.StatusOK, orchestrator.StatusView{ID: id, Status: status})
	}))
	defer srv.Close()

	out, err := execute(t, srv, "status", id.String(), "--watch", "--interval", "1ms", "--attempts", "5")
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
	assert.Contains(t, out, "[3/5] pending_review")
}

func TestStatusWatchExpires(t *testing.T) {
	id := uuid.New()
	var expired orchestrator.ExpireRequest
	var mu sync.Mutex
	done := false

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		switch r.Method + " " + r.URL.Path {
		case "POST /extractions/" + id.String() + "/expire":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&expired))
			done = true
			writeJSON(w, http.StatusOK, orchestrator.Transition{DocumentID: id, Transitioned: true, Status: documents.StatusError})
		case "GET /extractions/" + id.String():
			status := documents.StatusProcessing
			if done {
				status = documents.StatusError
			}
			writeJSON(w, http.StatusOK, orchestrator.StatusView{ID: id, Status: status})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out, err := execute(t, srv, "status", id.String(), "--watch", "--interval", "1ms", "--attempts", "2")
	require.NoError(t, err)

	assert.Equal(t, 2, expired.Attempts)
	assert.Contains(t, out, "Status:   error")
}

func TestConfirm(t *testing.T) {
	id := uuid.New()
	party := uuid.New()
	var got map[string]json.RawMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/extractions/"+id.String()+"/confirm", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, orchestrator.ConfirmResult{
			DocumentID: id,
			Status:     documents.StatusCompleted,
			Outcome:    orchestrator.OutcomeExplicit,
		})
	}))
	defer srv.Close()

	fields := filepath.Join(t.TempDir(), "fields.json")
	require.NoError(t, os.WriteFile(fields, []byte(`{"numero_apolice":"5312024"}`), 0o644))

	out, err := execute(t, srv, "confirm", id.String(), "--fields", fields, "--party", party.String())
	require.NoError(t, err)

	assert.JSONEq(t, `{"numero_apolice":"5312024"}`, string(got["fields"]))
	assert.JSONEq(t, `"`+party.String()+`"`, string(got["party_id"]))
	assert.NotContains(t, got, "category")
	assert.Contains(t, out, "completed")
}

func TestConfirmRejectsInvalidFields(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	fields := filepath.Join(t.TempDir(), "fields.json")
	require.NoError(t, os.WriteFile(fields, []byte(`{not json`), 0o644))

	_, err := execute(t, srv, "confirm", uuid.NewString(), "--fields", fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestConfirmConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "document is not awaiting review"})
	}))
	defer srv.Close()

	_, err := execute(t, srv, "confirm", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}

func TestExport(t *testing.T) {
	var query map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/policies/export", r.URL.Path)
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write([]byte("PK\x03\x04"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "out.xlsx")
	out, err := execute(t, srv, "export", "-o", path, "--seguradora", "Porto", "--vigente-de", "2025-01-01")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"seguradora": "Porto", "vigente_de": "2025-01-01"}, query)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04", string(data))
	assert.Contains(t, out, "Wrote "+path)
}
