package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	httperr "github.com/Tab-and-Quill/spotify-music-history/internal/core/errors"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	storagemocks "github.com/Tab-and-Quill/spotify-music-history/internal/mocks/storage"
	"github.com/Tab-and-Quill/spotify-music-history/internal/schema"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validRecord = `{
	"ts": "2021-03-01T10:00:00Z",
	"platform": "android",
	"ms_played": 215000,
	"conn_country": "DE",
	"ip_addr": "10.0.0.1",
	"master_metadata_track_name": "Song",
	"master_metadata_album_artist_name": "Artist",
	"master_metadata_album_album_name": "Album",
	"spotify_track_uri": "spotify:track:1",
	"reason_start": "trackdone",
	"reason_end": "trackdone",
	"shuffle": false,
	"skipped": false,
	"offline": false,
	"incognito_mode": false
}`

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r)
	return r
}

func postFile(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/files", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAddFileHandler_Success(t *testing.T) {
	addedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mockStore := storagemocks.NewFileStore(t)
	mockStore.EXPECT().
		AddFile(mock.Anything, mock.MatchedBy(func(f *v1.File) bool {
			return f.Name == "history.json" && f.RecordCount == 2
		})).
		Run(func(ctx context.Context, f *v1.File) { f.AddedAt = addedAt }).
		Return(nil).
		Once()

	svc := NewService(schema.NewValidator(schema.Default()), mockStore, 1, 0)
	r := newRouter(svc)

	resp := postFile(r, fmt.Sprintf(`{"name":"history.json","data":[%s,%s]}`, validRecord, validRecord))

	require.Equal(t, http.StatusCreated, resp.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "fileAdded", body["status"])
	file := body["file"].(map[string]interface{})
	require.Equal(t, "history.json", file["name"])
	require.Equal(t, float64(2), file["record_count"])
}

func TestAddFileHandler_InvalidJSON(t *testing.T) {
	mockStore := storagemocks.NewFileStore(t)
	svc := NewService(schema.NewValidator(schema.Default()), mockStore, 1, 0)
	r := newRouter(svc)

	resp := postFile(r, "not json")

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidJsonError, errResp.ErrorType)
}

func TestAddFileHandler_SchemaFailureRejectsWholeBatch(t *testing.T) {
	// No AddFile expectation: the store must never be called.
	mockStore := storagemocks.NewFileStore(t)
	svc := NewService(schema.NewValidator(schema.Default()), mockStore, 1, 0)
	r := newRouter(svc)

	missingTS := strings.Replace(validRecord, `"ts": "2021-03-01T10:00:00Z",`, "", 1)
	resp := postFile(r, fmt.Sprintf(`{"name":"bad.json","data":[%s,%s]}`, validRecord, missingTS))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpSchemaValidationError, errResp.ErrorType)

	details := errResp.Details.(map[string]interface{})
	require.Equal(t, "ts", details["field"])
	require.Equal(t, float64(1), details["record"])
}

func TestAddFileHandler_Duplicate(t *testing.T) {
	mockStore := storagemocks.NewFileStore(t)
	mockStore.EXPECT().AddFile(mock.Anything, mock.Anything).Return(storage.ErrDuplicate).Once()

	svc := NewService(schema.NewValidator(schema.Default()), mockStore, 1, 0)
	r := newRouter(svc)

	resp := postFile(r, fmt.Sprintf(`{"name":"dup.json","data":[%s]}`, validRecord))

	require.Equal(t, http.StatusConflict, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpDuplicateFileError, errResp.ErrorType)
}

func TestAddFileHandler_TooManyRecords(t *testing.T) {
	mockStore := storagemocks.NewFileStore(t)
	svc := NewService(schema.NewValidator(schema.Default()), mockStore, 1, 1)
	r := newRouter(svc)

	resp := postFile(r, fmt.Sprintf(`{"name":"big.json","data":[%s,%s]}`, validRecord, validRecord))

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpTooManyRecordsError, errResp.ErrorType)
}

func TestAddFileHandler_BodyTooLarge(t *testing.T) {
	mockStore := storagemocks.NewFileStore(t)
	svc := NewService(schema.NewValidator(schema.Default()), mockStore, 1, 0)
	r := newRouter(svc)

	huge := `{"name":"huge.json","data":"` + strings.Repeat("x", 1024*1024+1) + `"}`
	resp := postFile(r, huge)

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestAddFileHandler_StoreFailure(t *testing.T) {
	mockStore := storagemocks.NewFileStore(t)
	mockStore.EXPECT().AddFile(mock.Anything, mock.Anything).Return(errors.New("disk gone")).Once()

	svc := NewService(schema.NewValidator(schema.Default()), mockStore, 1, 0)
	r := newRouter(svc)

	resp := postFile(r, fmt.Sprintf(`{"name":"a.json","data":[%s]}`, validRecord))

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInternalError, errResp.ErrorType)
	require.Equal(t, msgPersistFailed, errResp.Message)
}

func TestCountHandler(t *testing.T) {
	mockStore := storagemocks.NewFileStore(t)
	mockStore.EXPECT().CountFiles(mock.Anything).Return(3, nil).Once()

	svc := NewService(schema.NewValidator(schema.Default()), mockStore, 1, 0)
	r := newRouter(svc)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/files/count", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, float64(3), body["count"])
	require.Equal(t, true, body["has_files"])
}

func TestCountHandler_Unavailable(t *testing.T) {
	svc := NewService(schema.NewValidator(schema.Default()), storage.NewUnavailable(errors.New("no db")), 1, 0)
	r := newRouter(svc)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/files/count", nil))

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
