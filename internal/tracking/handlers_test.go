package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend-trailrecorder/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T, fileSink FileSink) (*fiber.App, *Recorder, *LocationSampleSink) {
	t.Helper()
	rec := NewRecorder(nil)
	sink := NewLocationSampleSink(rec, 8)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = sink.Run(ctx) }()

	app := fiber.New()
	RegisterRoutes(app.Group("/recording"), rec, sink, NewExporter(rec, fileSink, "hiking_track.json"), func(c *fiber.Ctx) error { return c.Next() })
	return app, rec, sink
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(http.MethodPost, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func TestRecordingHandlersFlow(t *testing.T) {
	fileSink := &fakeFileSink{}
	app, rec, sink := newTestApp(t, fileSink)

	resp := postJSON(t, app, "/recording/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status: %d", resp.StatusCode)
	}
	var summary Summary
	_ = json.NewDecoder(resp.Body).Decode(&summary)
	if summary.RecordingID == "" {
		t.Fatalf("expected recording id")
	}

	for _, p := range []geo.Point{{Latitude: 12.9, Longitude: 77.5}, {Latitude: 12.91, Longitude: 77.6}} {
		resp = postJSON(t, app, "/recording/fixes", p)
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("fix status: %d", resp.StatusCode)
		}
	}
	waitFor(t, func() bool { return sink.Stats().Retained == 2 })

	resp = postJSON(t, app, "/recording/stop", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status: %d", resp.StatusCode)
	}
	if rec.State() != Idle {
		t.Fatalf("expected idle after stop")
	}

	req := httptest.NewRequest(http.MethodGet, "/recording", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("snapshot status: %v", err)
	}
	var snap Snapshot
	_ = json.NewDecoder(resp.Body).Decode(&snap)
	if snap.PointCount != 2 || len(snap.Points) != 2 || snap.State != Idle {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	req = httptest.NewRequest(http.MethodGet, "/recording/export", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("export status: %v", err)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "hiking_track.json") {
		t.Fatalf("expected attachment header")
	}
	body, _ := io.ReadAll(resp.Body)
	var compact bytes.Buffer
	_ = json.Compact(&compact, body)
	if compact.String() != `{"track":[{"latitude":12.9,"longitude":77.5},{"latitude":12.91,"longitude":77.6}]}` {
		t.Fatalf("unexpected export body: %s", body)
	}

	resp = postJSON(t, app, "/recording/export", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("store export status: %d", resp.StatusCode)
	}
	if !bytes.Equal(fileSink.data, body) {
		t.Fatalf("file sink received different bytes")
	}
}

func TestRecordingHandlersExportEmpty(t *testing.T) {
	app, _, _ := newTestApp(t, &fakeFileSink{})

	req := httptest.NewRequest(http.MethodGet, "/recording/export", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict")
	}

	resp = postJSON(t, app, "/recording/export", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict, got %d", resp.StatusCode)
	}
}

func TestRecordingHandlersExportSinkError(t *testing.T) {
	app, rec, _ := newTestApp(t, &fakeFileSink{err: errors.New("boom")})
	rec.Start()
	rec.OnLocationFix(geo.Point{Latitude: 1, Longitude: 1})

	resp := postJSON(t, app, "/recording/export", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected error status, got %d", resp.StatusCode)
	}
}

func TestRecordingHandlersFixBadRequest(t *testing.T) {
	app, _, _ := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/recording/fixes", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}

	resp = postJSON(t, app, "/recording/fixes", map[string]float64{"latitude": 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for missing longitude")
	}
}

func TestRecordingHandlersImport(t *testing.T) {
	app, _, _ := newTestApp(t, nil)

	doc := `{"track":[{"latitude":-6.2,"longitude":106.816},{"latitude":-6.9175,"longitude":107.6191}]}`
	req := httptest.NewRequest(http.MethodPost, "/recording/import", strings.NewReader(doc))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("import status: %v", err)
	}
	var result ImportResult
	_ = json.NewDecoder(resp.Body).Decode(&result)
	if result.PointCount != 2 || result.DistanceKm < 100 {
		t.Fatalf("unexpected import result: %+v", result)
	}

	req = httptest.NewRequest(http.MethodPost, "/recording/import", strings.NewReader(`{"track": 1}`))
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for malformed document")
	}
}

func TestRecordingHandlersSinkStats(t *testing.T) {
	app, _, _ := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/recording/sink", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("sink stats status: %v", err)
	}
}

func TestRecordingHandlersRequireAuth(t *testing.T) {
	rec := NewRecorder(nil)
	app := fiber.New()
	deny := func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusUnauthorized) }
	RegisterRoutes(app.Group("/recording"), rec, NewLocationSampleSink(rec, 1), NewExporter(rec, nil, "t.json"), deny)

	for _, path := range []string{"/recording/start", "/recording/stop", "/recording/fixes", "/recording/export", "/recording/import"} {
		resp := postJSON(t, app, path, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected unauthorized, got %d", path, resp.StatusCode)
		}
	}
	if rec.State() != Idle {
		t.Fatalf("unauthorized start changed state")
	}
}
