package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"lifelog/backend/internal/filestorage"
	"lifelog/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSigner struct{ err error }

func (s stubSigner) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://files.example/" + key + "?sig=abc", nil
}

func useSigner(t *testing.T, signer filestorage.LinkSigner) {
	t.Helper()
	original := filestorage.DefaultLinkSigner
	filestorage.DefaultLinkSigner = signer
	t.Cleanup(func() { filestorage.DefaultLinkSigner = original })
}

func documentRouter(userID uuid.UUID) *gin.Engine {
	r := getRouterWithAuthenticatedContext(userID)
	r.POST("/documents/categories", CreateDocumentCategoryHandler)
	r.POST("/documents", CreateDocumentHandler)
	r.GET("/documents", ListDocumentsHandler)
	r.GET("/documents/:id", GetDocumentHandler)
	r.GET("/documents/:id/download", DownloadDocumentHandler)
	r.GET("/documents/:id/access-log", GetDocumentAccessLogHandler)
	r.PUT("/documents/:id", UpdateDocumentHandler)
	return r
}

type downloadBody struct {
	models.Document
	DownloadURL string `json:"downloadUrl"`
}

func TestDocumentHandlers(t *testing.T) {
	db := useSQLite(t)
	owner, other := twoHandlerUsers(t, db)
	r := documentRouter(owner.ID)

	rr := performRequest(documentRouter(other.ID), http.MethodPost, "/documents/categories", gin.H{"name": "Theirs"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	theirs := decodeJSON[models.DocumentCategory](t, rr)

	rr = performRequest(r, http.MethodPost, "/documents", gin.H{"title": "Passport", "categoryId": theirs.ID})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = performRequest(r, http.MethodPost, "/documents", gin.H{"fileName": "x.pdf"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = performRequest(r, http.MethodPost, "/documents", gin.H{
		"title": "Passport", "fileName": "passport.pdf", "storagePath": "/users/ana/passport.pdf", "mimeType": "application/pdf",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	doc := decodeJSON[models.Document](t, rr)
	assert.Equal(t, 1, doc.Version)

	rr = performRequest(r, http.MethodGet, "/documents/"+doc.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decodeJSON[models.Document](t, rr).ViewCount)

	t.Run("download without object storage", func(t *testing.T) {
		useSigner(t, nil)
		rr := performRequest(r, http.MethodGet, "/documents/"+doc.ID.String()+"/download", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeJSON[downloadBody](t, rr)
		assert.Equal(t, "/users/ana/passport.pdf", body.StoragePath)
		assert.Empty(t, body.DownloadURL)
		assert.NotContains(t, rr.Body.String(), "downloadUrl")
	})

	t.Run("download with signed link", func(t *testing.T) {
		useSigner(t, stubSigner{})
		rr := performRequest(r, http.MethodGet, "/documents/"+doc.ID.String()+"/download", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeJSON[downloadBody](t, rr)
		assert.Equal(t, "https://files.example/users/ana/passport.pdf?sig=abc", body.DownloadURL)
		assert.Equal(t, 2, body.DownloadCount)
	})

	t.Run("signing failure still returns metadata", func(t *testing.T) {
		useSigner(t, stubSigner{err: errors.New("no credentials")})
		rr := performRequest(r, http.MethodGet, "/documents/"+doc.ID.String()+"/download", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 3, decodeJSON[downloadBody](t, rr).DownloadCount)
	})

	rr = performRequest(documentRouter(other.ID), http.MethodGet, "/documents/"+doc.ID.String()+"/download", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = performRequest(r, http.MethodPut, "/documents/"+doc.ID.String(), gin.H{"storagePath": "/users/ana/passport-v2.pdf"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, decodeJSON[models.Document](t, rr).Version)

	rr = performRequest(r, http.MethodGet, "/documents/"+doc.ID.String()+"/access-log", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	actions := map[models.AccessAction]int{}
	for _, entry := range decodeJSON[[]models.DocumentAccessLog](t, rr) {
		actions[entry.Action]++
	}
	assert.Equal(t, 3, actions[models.AccessDownload])
	assert.Equal(t, 1, actions[models.AccessView])

	rr = performRequest(r, http.MethodGet, "/documents?search=PASS", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeJSON[[]models.Document](t, rr), 1)
}

func vaultRouter(userID uuid.UUID) *gin.Engine {
	r := getRouterWithAuthenticatedContext(userID)
	r.POST("/vault/items", CreateVaultItemHandler)
	r.GET("/vault/items", ListVaultItemsHandler)
	r.GET("/vault/items/:id", GetVaultItemHandler)
	r.GET("/vault/items/:id/access-log", GetVaultItemAccessLogHandler)
	r.PATCH("/vault/items/:id/favorite", ToggleVaultItemFavoriteHandler)
	r.DELETE("/vault/items/:id", DeleteVaultItemHandler)
	return r
}

func TestVaultItemHandlers(t *testing.T) {
	db := useSQLite(t)
	owner, other := twoHandlerUsers(t, db)
	r := vaultRouter(owner.ID)

	rr := performRequest(r, http.MethodPost, "/vault/items", gin.H{"name": "Bank", "type": "safe"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = performRequest(r, http.MethodPost, "/vault/items", gin.H{
		"name": "Bank", "type": "password", "encryptedData": "b64:opaque", "encryptionKeyId": "key-1",
	}, "User-Agent", "vault-test")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	item := decodeJSON[models.VaultItem](t, rr)
	assert.Equal(t, "b64:opaque", item.EncryptedData, "the blob is stored as given")

	rr = performRequest(r, http.MethodGet, "/vault/items/"+item.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decodeJSON[models.VaultItem](t, rr).AccessCount)

	rr = performRequest(vaultRouter(other.ID), http.MethodGet, "/vault/items/"+item.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = performRequest(r, http.MethodPatch, "/vault/items/"+item.ID.String()+"/favorite", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeJSON[models.VaultItem](t, rr).IsFavorite)

	rr = performRequest(r, http.MethodGet, "/vault/items/"+item.ID.String()+"/access-log", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	entries := decodeJSON[[]models.VaultAccessLog](t, rr)
	require.NotEmpty(t, entries)
	var sawCreate bool
	for _, e := range entries {
		if e.Action == models.AccessCreate {
			sawCreate = true
			assert.Equal(t, "vault-test", e.UserAgent)
		}
	}
	assert.True(t, sawCreate)

	rr = performRequest(r, http.MethodDelete, "/vault/items/"+item.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = performRequest(r, http.MethodGet, "/vault/items", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeJSON[[]models.VaultItem](t, rr))
}
