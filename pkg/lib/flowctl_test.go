package lib_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/flowctl/pkg/lib"
)

func newTestClient(t *testing.T, handler http.Handler) *lib.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := lib.New(lib.Config{
		BaseURL:      server.URL,
		TenantID:     "tenant-1",
		Token:        lib.StaticToken("secret-token"),
		PollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	return client
}

func TestNew(t *testing.T) {
	tests := map[string]struct {
		config lib.Config
		expErr bool
	}{
		"A config without a base URL is invalid": {
			config: lib.Config{TenantID: "tenant-1", Token: lib.StaticToken("x")},
			expErr: true,
		},
		"A config without a tenant is invalid": {
			config: lib.Config{BaseURL: "https://bff.example.com", Token: lib.StaticToken("x")},
			expErr: true,
		},
		"A config without a token provider is invalid": {
			config: lib.Config{BaseURL: "https://bff.example.com", TenantID: "tenant-1"},
			expErr: true,
		},
		"A config with the required fields is valid": {
			config: lib.Config{BaseURL: "https://bff.example.com", TenantID: "tenant-1", Token: lib.StaticToken("x")},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := lib.New(test.config)

			if test.expErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestClientInvoke(t *testing.T) {
	t.Run("A sync response resolves immediately with its data", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/workflows/report-export", r.URL.Path)
			_, _ = w.Write([]byte(`{"data":{"url":"https://files/report.pdf"}}`))
		}))

		handle, err := client.Invoke(context.TODO(), "report-export", json.RawMessage(`{"format":"pdf"}`), &lib.InvokeOpts{Synchronous: true})

		require.NoError(t, err)
		assert.Equal(t, lib.OperationModeSync, handle.Mode)
		assert.JSONEq(t, `{"url":"https://files/report.pdf"}`, string(handle.Data))
	})

	t.Run("An async response yields the operation handle", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"operationId":"op-42","statusUrl":"/api/workflows/op-42/status"}`))
		}))

		handle, err := client.Invoke(context.TODO(), "report-export", nil, nil)

		require.NoError(t, err)
		assert.Equal(t, lib.OperationModeAsync, handle.Mode)
		assert.Equal(t, "op-42", handle.OperationID)
	})

	t.Run("A rejected invocation is a typed invocation error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"unknown workflow kind"}`))
		}))

		_, err := client.Invoke(context.TODO(), "nope", nil, nil)

		var invErr *lib.InvocationError
		require.ErrorAs(t, err, &invErr)
		assert.Equal(t, http.StatusBadRequest, invErr.StatusCode)
		assert.Equal(t, "unknown workflow kind", invErr.Message)
	})
}

func TestClientInvokeAndWait(t *testing.T) {
	t.Run("An async invocation is polled to completion", func(t *testing.T) {
		var statusCalls int32
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/workflows/report-export":
				w.WriteHeader(http.StatusAccepted)
				_, _ = w.Write([]byte(`{"operationId":"op-42"}`))
			case "/api/workflows/op-42/status":
				switch atomic.AddInt32(&statusCalls, 1) {
				case 1:
					_, _ = w.Write([]byte(`{"status":"pending"}`))
				case 2:
					_, _ = w.Write([]byte(`{"status":"running","progress":{"percent":60,"message":"rendering"}}`))
				default:
					_, _ = w.Write([]byte(`{"status":"completed","result":{"url":"https://files/report.pdf"}}`))
				}
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))

		var progress []lib.OperationProgress
		result, err := client.InvokeAndWaitWithProgress(context.TODO(), "report-export", nil, nil, func(p lib.OperationProgress) {
			progress = append(progress, p)
		})

		require.NoError(t, err)
		assert.JSONEq(t, `{"url":"https://files/report.pdf"}`, string(result))
		assert.EqualValues(t, 3, atomic.LoadInt32(&statusCalls))
		require.Len(t, progress, 1)
		assert.EqualValues(t, 60, progress[0].Percent)
	})

	t.Run("A failed operation surfaces the server message verbatim", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/workflows/report-export":
				_, _ = w.Write([]byte(`{"operationId":"op-42"}`))
			default:
				_, _ = w.Write([]byte(`{"status":"failed","error":"Disk full"}`))
			}
		}))

		_, err := client.InvokeAndWait(context.TODO(), "report-export", nil, nil)

		var wfErr *lib.WorkflowError
		require.ErrorAs(t, err, &wfErr)
		assert.Equal(t, "Disk full", wfErr.Error())
	})
}

func TestClientWait(t *testing.T) {
	t.Run("An unknown status value is a typed unknown status error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"paused"}`))
		}))

		_, err := client.Wait(context.TODO(), "op-42", nil)

		var unkErr *lib.UnknownStatusError
		require.ErrorAs(t, err, &unkErr)
		assert.Equal(t, "paused", unkErr.Status)
	})

	t.Run("A missing operation matches the public not found sentinel", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		_, err := client.OperationStatus(context.TODO(), "op-missing")

		assert.ErrorIs(t, err, lib.ErrNotFound)
	})
}

func TestClientUpload(t *testing.T) {
	t.Run("An upload streams multipart and reports terminal progress", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "/reports", r.FormValue("path"))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"srv-1","name":"report.pdf","path":"/reports/report.pdf","sizeBytes":11}`))
		}))

		var snaps []lib.UploadProgress
		res, err := client.Upload(context.TODO(), lib.UploadFile{
			Name:      "report.pdf",
			SizeBytes: 11,
			Content:   strings.NewReader("hello world"),
		}, "/reports", func(p lib.UploadProgress) {
			snaps = append(snaps, p)
		})

		require.NoError(t, err)
		assert.Equal(t, "srv-1", res.ID)
		require.NotEmpty(t, snaps)
		assert.Equal(t, lib.UploadStatusCompleted, snaps[len(snaps)-1].Status)
		assert.EqualValues(t, 100, snaps[len(snaps)-1].Percent)
	})
}

func TestClientUploadMany(t *testing.T) {
	t.Run("A failing transfer rejects the batch with a typed batch error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, header, err := r.FormFile("file")
			require.NoError(t, err)

			if header.Filename == "bad.txt" {
				w.WriteHeader(http.StatusInsufficientStorage)
				_, _ = w.Write([]byte(`{"error":"quota exceeded"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"srv-ok","name":"` + header.Filename + `"}`))
		}))

		_, err := client.UploadMany(context.TODO(), []lib.UploadFile{
			{ID: "f-good", Name: "good.txt", SizeBytes: 4, Content: strings.NewReader("good")},
			{ID: "f-bad", Name: "bad.txt", SizeBytes: 3, Content: strings.NewReader("bad")},
		}, "/dest", nil)

		var batchErr *lib.BatchUploadError
		require.ErrorAs(t, err, &batchErr)
		assert.Equal(t, "f-bad", batchErr.FileID)
	})

	t.Run("Settling the whole batch keeps partial results", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, header, err := r.FormFile("file")
			require.NoError(t, err)

			if header.Filename == "bad.txt" {
				w.WriteHeader(http.StatusInsufficientStorage)
				_, _ = w.Write([]byte(`{"error":"quota exceeded"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"srv-ok","name":"` + header.Filename + `"}`))
		}))

		result, err := client.UploadAll(context.TODO(), []lib.UploadFile{
			{ID: "f-good", Name: "good.txt", SizeBytes: 4, Content: strings.NewReader("good")},
			{ID: "f-bad", Name: "bad.txt", SizeBytes: 3, Content: strings.NewReader("bad")},
		}, "/dest", nil)

		require.NoError(t, err)
		require.Len(t, result.Succeeded, 1)
		assert.Equal(t, "srv-ok", result.Succeeded[0].ID)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, "f-bad", result.Failed[0].Progress.FileID)
	})
}

func TestClientFiles(t *testing.T) {
	t.Run("File verbs round-trip through the backend", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/api/files/f1/rename":
				_, _ = w.Write([]byte(`{"id":"f1","name":"final.pdf","path":"/reports/final.pdf"}`))
			case r.URL.Path == "/api/files/f1" && r.Method == http.MethodDelete:
				w.WriteHeader(http.StatusNoContent)
			case r.URL.Path == "/api/files/f1/share":
				_, _ = w.Write([]byte(`{"url":"https://files/s/abc","token":"abc","expiresAt":"2026-08-25T10:00:00Z"}`))
			default:
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
		}))

		res, err := client.RenameFile(context.TODO(), "f1", "final.pdf")
		require.NoError(t, err)
		assert.Equal(t, "final.pdf", res.Name)

		require.NoError(t, client.DeleteFile(context.TODO(), "f1"))

		link, err := client.ShareFile(context.TODO(), "f1", 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "https://files/s/abc", link.URL)
	})
}
