package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusdrive/nimbus/internal/auth"
	contentmem "github.com/nimbusdrive/nimbus/pkg/content/memory"
	"github.com/nimbusdrive/nimbus/pkg/drive/memory"
	"github.com/nimbusdrive/nimbus/pkg/hierarchy"
	"github.com/nimbusdrive/nimbus/pkg/metrics"
	"github.com/nimbusdrive/nimbus/pkg/quota"
	"github.com/nimbusdrive/nimbus/pkg/sharing"
	"github.com/nimbusdrive/nimbus/pkg/trash"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store := memory.NewStore()
	t.Cleanup(func() { store.Close() })
	contentStore := contentmem.NewStore()

	m := metrics.NewDriveMetrics()
	accountant := quota.NewAccountant(store, m)
	trashSvc := trash.NewService(store, contentStore, accountant, m)

	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	return New(Dependencies{
		Store:     store,
		Content:   contentStore,
		Quota:     accountant,
		Hierarchy: hierarchy.NewService(store, m),
		Sharing:   sharing.NewService(store, m),
		Trash:     trashSvc,
		Tokens:    tokens,
		Metrics:   m,
		BodyLimit: 10 * 1024 * 1024,
	})
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func register(t *testing.T, app *fiber.App, email, name string) string {
	t.Helper()
	resp, body := doJSON(t, app, fiber.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    email,
		"name":     name,
		"password": "correct-horse",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func upload(t *testing.T, app *fiber.App, token, filename, contents, parentID string) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)
	if parentID != "" {
		require.NoError(t, writer.WriteField("parent_id", parentID))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/files/upload", &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

func TestAuthEndpoints(t *testing.T) {
	t.Run("RegisterLoginMe", func(t *testing.T) {
		app := newTestApp(t)
		register(t, app, "alice@example.com", "Alice")

		resp, body := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "correct-horse",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		token := body["token"].(string)

		resp, body = doJSON(t, app, fiber.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		user := body["user"].(map[string]any)
		assert.Equal(t, "alice@example.com", user["email"])
	})

	t.Run("DuplicateEmailConflicts", func(t *testing.T) {
		app := newTestApp(t)
		register(t, app, "alice@example.com", "Alice")

		resp, _ := doJSON(t, app, fiber.MethodPost, "/api/auth/register", "", map[string]any{
			"email":    "alice@example.com",
			"name":     "Imposter",
			"password": "correct-horse",
		})
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("WrongPasswordUnauthorized", func(t *testing.T) {
		app := newTestApp(t)
		register(t, app, "alice@example.com", "Alice")

		resp, _ := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "wrong",
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("MissingTokenUnauthorized", func(t *testing.T) {
		app := newTestApp(t)
		resp, _ := doJSON(t, app, fiber.MethodGet, "/api/files/", "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestFileEndpoints(t *testing.T) {
	t.Run("UploadListDownload", func(t *testing.T) {
		app := newTestApp(t)
		token := register(t, app, "alice@example.com", "Alice")

		resp, folder := doJSON(t, app, fiber.MethodPost, "/api/folders", token, map[string]any{
			"name": "Docs",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		folderID := folder["id"].(string)

		uploaded := upload(t, app, token, "notes.txt", "hello nimbus", folderID)
		assert.Equal(t, "notes.txt", uploaded["name"])
		assert.Equal(t, float64(len("hello nimbus")), uploaded["size"])

		resp, listing := doJSON(t, app, fiber.MethodGet, "/api/files/?folder_id="+folderID, token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		items := listing["items"].([]any)
		require.Len(t, items, 1)

		current, ok := listing["folder"].(map[string]any)
		require.True(t, ok, "folder listings carry the folder's own metadata")
		assert.Equal(t, folderID, current["id"])
		assert.Equal(t, "Docs", current["name"])

		crumbs := listing["breadcrumbs"].([]any)
		require.Len(t, crumbs, 2)
		first := crumbs[0].(map[string]any)
		assert.Equal(t, "My Drive", first["name"])

		resp, rootListing := doJSON(t, app, fiber.MethodGet, "/api/files/", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Nil(t, rootListing["folder"], "the root has no folder record")

		fileID := uploaded["id"].(string)
		req := httptest.NewRequest(fiber.MethodGet, "/api/files/"+fileID+"/download", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		dlResp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, dlResp.StatusCode)
		data, err := io.ReadAll(dlResp.Body)
		require.NoError(t, err)
		assert.Equal(t, "hello nimbus", string(data))
	})

	t.Run("RenameAndStar", func(t *testing.T) {
		app := newTestApp(t)
		token := register(t, app, "alice@example.com", "Alice")
		uploaded := upload(t, app, token, "draft.txt", "v1", "")
		fileID := uploaded["id"].(string)

		resp, body := doJSON(t, app, fiber.MethodPut, "/api/files/"+fileID, token, map[string]any{
			"name":       "final.txt",
			"is_starred": true,
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "final.txt", body["name"])
		assert.Equal(t, true, body["is_starred"])

		resp, starred := doJSON(t, app, fiber.MethodGet, "/api/files/starred", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Len(t, starred["items"].([]any), 1)
	})

	t.Run("SearchFindsSubstring", func(t *testing.T) {
		app := newTestApp(t)
		token := register(t, app, "alice@example.com", "Alice")
		upload(t, app, token, "Quarterly Report.txt", "numbers", "")
		upload(t, app, token, "unrelated.txt", "other", "")

		resp, body := doJSON(t, app, fiber.MethodGet, "/api/files/search?q=report", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Len(t, body["items"].([]any), 1)
	})

	t.Run("ForeignFileHiddenAs404", func(t *testing.T) {
		app := newTestApp(t)
		alice := register(t, app, "alice@example.com", "Alice")
		bob := register(t, app, "bob@example.com", "Bob")
		uploaded := upload(t, app, alice, "secret.txt", "classified", "")
		fileID := uploaded["id"].(string)

		req := httptest.NewRequest(fiber.MethodGet, "/api/files/"+fileID+"/download", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bob)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestShareEndpoints(t *testing.T) {
	t.Run("ShareGrantsReadOnlyVisibility", func(t *testing.T) {
		app := newTestApp(t)
		alice := register(t, app, "alice@example.com", "Alice")
		bob := register(t, app, "bob@example.com", "Bob")
		uploaded := upload(t, app, alice, "report.pdf", "contents", "")
		fileID := uploaded["id"].(string)

		resp, _ := doJSON(t, app, fiber.MethodPost, "/api/files/"+fileID+"/share", alice, map[string]any{
			"user_email": "bob@example.com",
			"permission": "edit",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, body := doJSON(t, app, fiber.MethodGet, "/api/files/shared", bob, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		items := body["items"].([]any)
		require.Len(t, items, 1)
		item := items[0].(map[string]any)
		// Mutations stay owner-only regardless of the granted level.
		assert.Equal(t, false, item["can_edit"])
	})

	t.Run("UnshareRevokes", func(t *testing.T) {
		app := newTestApp(t)
		alice := register(t, app, "alice@example.com", "Alice")
		bob := register(t, app, "bob@example.com", "Bob")
		uploaded := upload(t, app, alice, "report.pdf", "contents", "")
		fileID := uploaded["id"].(string)

		resp, _ := doJSON(t, app, fiber.MethodPost, "/api/files/"+fileID+"/share", alice, map[string]any{
			"user_email": "bob@example.com",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, _ = doJSON(t, app, fiber.MethodDelete, "/api/files/"+fileID+"/share", alice, map[string]any{
			"user_email": "bob@example.com",
		})
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

		resp, body := doJSON(t, app, fiber.MethodGet, "/api/files/shared", bob, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Empty(t, body["items"])
	})

	t.Run("SelfShareRejected", func(t *testing.T) {
		app := newTestApp(t)
		alice := register(t, app, "alice@example.com", "Alice")
		uploaded := upload(t, app, alice, "report.pdf", "contents", "")
		fileID := uploaded["id"].(string)

		resp, _ := doJSON(t, app, fiber.MethodPost, "/api/files/"+fileID+"/share", alice, map[string]any{
			"user_email": "alice@example.com",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestTrashEndpoints(t *testing.T) {
	t.Run("TrashRestorePurge", func(t *testing.T) {
		app := newTestApp(t)
		token := register(t, app, "alice@example.com", "Alice")
		uploaded := upload(t, app, token, "doomed.txt", "bytes", "")
		fileID := uploaded["id"].(string)

		resp, _ := doJSON(t, app, fiber.MethodDelete, "/api/files/"+fileID, token, nil)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

		resp, body := doJSON(t, app, fiber.MethodGet, "/api/files/trash", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Len(t, body["items"].([]any), 1)

		resp, _ = doJSON(t, app, fiber.MethodPost, "/api/files/"+fileID+"/restore", token, nil)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

		resp, _ = doJSON(t, app, fiber.MethodDelete, "/api/files/"+fileID, token, nil)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		resp, _ = doJSON(t, app, fiber.MethodDelete, "/api/files/"+fileID+"/permanent", token, nil)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

		resp, body = doJSON(t, app, fiber.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		usage := body["usage"].(map[string]any)
		assert.Equal(t, float64(0), usage["storage_used"])
	})

	t.Run("PermanentQuerySkipsTrash", func(t *testing.T) {
		app := newTestApp(t)
		token := register(t, app, "alice@example.com", "Alice")
		uploaded := upload(t, app, token, "alive.txt", "bytes", "")
		fileID := uploaded["id"].(string)

		resp, _ := doJSON(t, app, fiber.MethodDelete, "/api/files/"+fileID+"?permanent=true", token, nil)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

		// Never visited the trash, and the bytes are released.
		resp, body := doJSON(t, app, fiber.MethodGet, "/api/files/trash", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Empty(t, body["items"])

		resp, body = doJSON(t, app, fiber.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		usage := body["usage"].(map[string]any)
		assert.Equal(t, float64(0), usage["storage_used"])
	})

	t.Run("EmptyTrash", func(t *testing.T) {
		app := newTestApp(t)
		token := register(t, app, "alice@example.com", "Alice")

		for i := 0; i < 3; i++ {
			uploaded := upload(t, app, token, fmt.Sprintf("file-%d.txt", i), "bytes", "")
			resp, _ := doJSON(t, app, fiber.MethodDelete, "/api/files/"+uploaded["id"].(string), token, nil)
			require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		}

		resp, _ := doJSON(t, app, fiber.MethodDelete, "/api/trash", token, nil)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

		resp, body := doJSON(t, app, fiber.MethodGet, "/api/files/trash", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Empty(t, body["items"])
	})
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	resp, body := doJSON(t, app, fiber.MethodGet, "/api/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
