package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/petalertfrance/petalert-be/internal/api/handlers"
	"github.com/petalertfrance/petalert-be/internal/auth"
	"github.com/petalertfrance/petalert-be/internal/config"
	"github.com/petalertfrance/petalert-be/internal/database"
	"github.com/petalertfrance/petalert-be/internal/geocoding"
	"github.com/petalertfrance/petalert-be/internal/services"
	"github.com/petalertfrance/petalert-be/internal/uploads"
	ws "github.com/petalertfrance/petalert-be/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer wires the full router against a throwaway database and a
// stubbed geocoding provider, mirroring the wiring in main.
func newTestServer(t *testing.T, nominatimURL string) *httptest.Server {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	photos, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	hub := ws.NewHub()
	go hub.Run()

	cfg := &config.Config{
		Environment: "development",
		UploadDir:   photos.BaseDir(),
		JWTSecret:   "test-secret",
	}
	authService := auth.NewService(cfg.JWTSecret)

	userService := services.NewUserService(db)
	petService := services.NewPetService(db, photos)
	alertService := services.NewAlertService(db, hub)
	geoClient := geocoding.NewClient(nominatimURL, nil)

	router := NewRouter(cfg, authService, Handlers{
		Auth:      handlers.NewAuthHandler(userService, authService),
		Pets:      handlers.NewPetHandler(petService, photos),
		Alerts:    handlers.NewAlertHandler(alertService),
		Geocoding: handlers.NewGeocodingHandler(geoClient),
		Health:    handlers.NewHealthHandler(cfg.Environment),
		Feed:      handlers.NewWebSocketHandler(hub),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// doJSON sends a JSON request and decodes the JSON response body into a map.
func doJSON(t *testing.T, method, url, token string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

func registerAndLogin(t *testing.T, baseURL, email string) string {
	t.Helper()

	status, _ := doJSON(t, http.MethodPost, baseURL+"/api/auth/register", "", map[string]string{
		"name":     "Alice",
		"email":    email,
		"password": "secret123",
		"phone":    "0601020304",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, http.MethodPost, baseURL+"/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// petForm builds a multipart pet form with an optional photo part.
func petForm(t *testing.T, fields map[string]string, photoName string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if photoName != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="photo"; filename="`+photoName+`"`)
		header.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func createPet(t *testing.T, baseURL, token string) map[string]interface{} {
	t.Helper()

	body, contentType := petForm(t, map[string]string{
		"name": "Rex", "type": "dog", "breed": "Beagle", "age": "3", "color": "brown",
	}, "rex.png", []byte("not-really-a-png"))

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/pets/", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var decoded struct {
		Pet map[string]interface{} `json:"pet"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded.Pet
}

func TestLostPetFlow(t *testing.T) {
	server := newTestServer(t, "http://unused.invalid")
	token := registerAndLogin(t, server.URL, "alice@example.com")

	pet := createPet(t, server.URL, token)
	petID, _ := pet["id"].(string)
	require.NotEmpty(t, petID)

	// The uploaded photo is served statically.
	photoPath, _ := pet["photo"].(string)
	require.True(t, strings.HasPrefix(photoPath, "/uploads/"), "photo path: %q", photoPath)
	resp, err := http.Get(server.URL + photoPath)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "not-really-a-png", string(raw))

	// Publish an alert for the pet.
	status, body := doJSON(t, http.MethodPost, server.URL+"/api/alerts/", token, map[string]interface{}{
		"pet_id":        petID,
		"lost_date":     "2024-01-01",
		"location":      "Paris",
		"latitude":      48.85,
		"longitude":     2.35,
		"description":   "Ran away near the park",
		"contact_phone": "0601020304",
	})
	require.Equal(t, http.StatusCreated, status)
	alert, _ := body["alert"].(map[string]interface{})
	alertID, _ := alert["id"].(string)
	require.NotEmpty(t, alertID)
	assert.Equal(t, "active", alert["status"])
	assert.Equal(t, "Rex", alert["pet_name"])

	// The alert is publicly visible without a token.
	status, _ = doJSON(t, http.MethodGet, server.URL+"/api/alerts/"+alertID, "", nil)
	assert.Equal(t, http.StatusOK, status)

	listResp, err := http.Get(server.URL + "/api/alerts/")
	require.NoError(t, err)
	var activeAlerts []map[string]interface{}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&activeAlerts))
	listResp.Body.Close()
	require.Len(t, activeAlerts, 1)

	// A second alert for the same pet is refused while the first is active.
	status, body = doJSON(t, http.MethodPost, server.URL+"/api/alerts/", token, map[string]interface{}{
		"pet_id": petID, "lost_date": "2024-01-02",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "active alert")

	// Close it. It disappears from the public listing but stays in my-alerts.
	status, _ = doJSON(t, http.MethodPut, server.URL+"/api/alerts/"+alertID+"/close", token, nil)
	require.Equal(t, http.StatusOK, status)

	listResp, err = http.Get(server.URL + "/api/alerts/")
	require.NoError(t, err)
	activeAlerts = nil
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&activeAlerts))
	listResp.Body.Close()
	assert.Empty(t, activeAlerts)

	status, _ = doJSON(t, http.MethodGet, server.URL+"/api/alerts/"+alertID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/alerts/my-alerts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	mineResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var mine []map[string]interface{}
	require.NoError(t, json.NewDecoder(mineResp.Body).Decode(&mine))
	mineResp.Body.Close()
	require.Len(t, mine, 1)
	assert.Equal(t, "closed", mine[0]["status"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	server := newTestServer(t, "http://unused.invalid")

	for _, route := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/pets/my-pets"},
		{http.MethodPost, "/api/pets/"},
		{http.MethodGet, "/api/alerts/my-alerts"},
		{http.MethodPost, "/api/alerts/"},
		{http.MethodPut, "/api/alerts/some-id/close"},
	} {
		status, body := doJSON(t, route.method, server.URL+route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, "%s %s", route.method, route.path)
		assert.NotEmpty(t, body["message"], "%s %s", route.method, route.path)
	}
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	server := newTestServer(t, "http://unused.invalid")
	registerAndLogin(t, server.URL, "alice@example.com")

	status, body := doJSON(t, http.MethodPost, server.URL+"/api/auth/register", "", map[string]string{
		"name": "Imposter", "email": "alice@example.com", "password": "other456",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body["message"], "already in use")
}

func TestGetMe(t *testing.T) {
	server := newTestServer(t, "http://unused.invalid")
	token := registerAndLogin(t, server.URL, "alice@example.com")

	status, body := doJSON(t, http.MethodGet, server.URL+"/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.NotContains(t, body, "password_hash")
}

func TestUnknownAPIRouteEchoesPath(t *testing.T) {
	server := newTestServer(t, "http://unused.invalid")

	status, body := doJSON(t, http.MethodGet, server.URL+"/api/does/not/exist", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "API route not found", body["error"])
	assert.Equal(t, "/api/does/not/exist", body["path"])
}

func TestGeocodingSearchProxy(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat": "48.8566", "lon": "2.3522", "display_name": "Paris, France", "address": {"city": "Paris"}}]`))
	}))
	defer stub.Close()

	server := newTestServer(t, stub.URL)

	status, body := doJSON(t, http.MethodGet, server.URL+"/api/geocoding/search?query=paris", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	suggestions, _ := body["suggestions"].([]interface{})
	require.Len(t, suggestions, 1)

	// Queries under three characters are answered locally.
	status, body = doJSON(t, http.MethodGet, server.URL+"/api/geocoding/search?query=ab", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["success"])
}

func TestAlertFeedBroadcastsCreations(t *testing.T) {
	server := newTestServer(t, "http://unused.invalid")
	token := registerAndLogin(t, server.URL, "alice@example.com")
	pet := createPet(t, server.URL, token)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/alerts/feed"
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	// Give the hub a moment to process the registration.
	time.Sleep(50 * time.Millisecond)

	status, _ := doJSON(t, http.MethodPost, server.URL+"/api/alerts/", token, map[string]interface{}{
		"pet_id": pet["id"], "lost_date": "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, status)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Action  string                 `json:"action"`
		Payload map[string]interface{} `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "alert.created", msg.Action)
	assert.Equal(t, pet["id"], msg.Payload["pet_id"])
}
