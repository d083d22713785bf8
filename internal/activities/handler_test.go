package activities

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newHandlerRouter(t *testing.T) (*gin.Engine, *Service, *recordingPublisher) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _, _, pub := newTestService(t)
	r := gin.New()
	svc.RegisterRoutes(r)
	return r, svc, pub
}

func serveJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	payload := map[string]interface{}{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	}
	return w, payload
}

func TestCreateHandler(t *testing.T) {
	r, _, pub := newHandlerRouter(t)

	w, payload := serveJSON(t, r, http.MethodPost, "/v1/activities",
		`{"state":"Kerala","eventCategory":"Camp","eventDate":"2024-10-30","numberOfParticipants":25}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, float64(1), payload["id"])
	require.Len(t, pub.events, 1)

	w, payload = serveJSON(t, r, http.MethodPost, "/v1/activities",
		`{"state":"Kerala","numberOfParticipants":0}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "validation_error", payload["error_type"])

	w, _ = serveJSON(t, r, http.MethodPost, "/v1/activities", `{"state":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateHandler(t *testing.T) {
	r, svc, _ := newHandlerRouter(t)
	a := seedActivity(t, svc)

	w, payload := serveJSON(t, r, http.MethodPut, "/v1/activities/1",
		`{"state":"Goa","numberOfParticipants":30}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Goa", payload["state"])
	require.Equal(t, float64(a.ID), payload["id"])

	w, _ = serveJSON(t, r, http.MethodPut, "/v1/activities/999",
		`{"state":"Goa","numberOfParticipants":30}`)
	require.Equal(t, http.StatusNotFound, w.Code)

	w, _ = serveJSON(t, r, http.MethodPut, "/v1/activities/zero",
		`{"numberOfParticipants":30}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatchHandler(t *testing.T) {
	r, svc, _ := newHandlerRouter(t)
	seedActivity(t, svc)

	w, payload := serveJSON(t, r, http.MethodPatch, "/v1/activities/1",
		`{"field":"state","value":"Punjab"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Punjab", payload["state"])

	// field is required
	w, _ = serveJSON(t, r, http.MethodPatch, "/v1/activities/1", `{"value":"x"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = serveJSON(t, r, http.MethodPatch, "/v1/activities/1",
		`{"field":"bogus","value":"x"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkUpdateHandler(t *testing.T) {
	r, svc, _ := newHandlerRouter(t)
	seedActivity(t, svc)
	seedActivity(t, svc)

	w, payload := serveJSON(t, r, http.MethodPost, "/v1/activities/bulk-update",
		`{"ids":[1,2],"updates":{"state":"Punjab"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(2), payload["updatedCount"])

	w, _ = serveJSON(t, r, http.MethodPost, "/v1/activities/bulk-update",
		`{"ids":[],"updates":{"state":"Punjab"}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteHandlers(t *testing.T) {
	r, svc, _ := newHandlerRouter(t)
	seedActivity(t, svc)
	seedActivity(t, svc)

	w, payload := serveJSON(t, r, http.MethodDelete, "/v1/activities/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), payload["deleted"])

	w, _ = serveJSON(t, r, http.MethodDelete, "/v1/activities/1", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w, payload = serveJSON(t, r, http.MethodPost, "/v1/activities/bulk-delete",
		`{"ids":[2,999]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(2), payload["deletedCount"])
}

func TestReorderHandler(t *testing.T) {
	r, svc, _ := newHandlerRouter(t)
	seedActivity(t, svc)
	seedActivity(t, svc)

	w, payload := serveJSON(t, r, http.MethodPost, "/v1/activities/reorder",
		`[{"id":1,"orderIndex":2},{"id":2,"orderIndex":1}]`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, payload["activities"], 2)

	w, _ = serveJSON(t, r, http.MethodPost, "/v1/activities/reorder", `[]`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFileHandlers(t *testing.T) {
	r, svc, _ := newHandlerRouter(t)
	seedActivity(t, svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/activities/1/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var uploaded struct {
		Files []struct {
			ID       float64 `json:"id"`
			FileName string  `json:"fileName"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	require.Len(t, uploaded.Files, 1)
	require.Equal(t, "notes.txt", uploaded.Files[0].FileName)

	dw, _ := serveJSON(t, r, http.MethodGet, "/v1/files/1", "")
	require.Equal(t, http.StatusOK, dw.Code)
	require.Equal(t, "payload", dw.Body.String())
	require.Contains(t, dw.Header().Get("Content-Disposition"), "notes.txt")

	del, payload := serveJSON(t, r, http.MethodDelete, "/v1/files/1", "")
	require.Equal(t, http.StatusOK, del.Code)
	require.Equal(t, float64(1), payload["deleted"])

	missing, _ := serveJSON(t, r, http.MethodGet, "/v1/files/1", "")
	require.Equal(t, http.StatusNotFound, missing.Code)
}
