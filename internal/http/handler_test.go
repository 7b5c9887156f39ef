package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/fleetops/internal/config"
	"github.com/nurpe/fleetops/internal/excel"
	"github.com/nurpe/fleetops/internal/model"
	"github.com/nurpe/fleetops/internal/repository"
	"github.com/nurpe/fleetops/internal/service"
	"github.com/nurpe/fleetops/internal/severity"
)

type fakeAttributions struct {
	mu    sync.Mutex
	items map[uuid.UUID]model.Attribution
}

func (f *fakeAttributions) Get(_ context.Context, id uuid.UUID) (*model.Attribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (f *fakeAttributions) ListByVehicle(_ context.Context, vehicleID uuid.UUID) ([]model.Attribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []model.Attribution
	for _, a := range f.items {
		if a.VehicleID == vehicleID {
			list = append(list, a)
		}
	}
	return list, nil
}

func (f *fakeAttributions) Create(_ context.Context, a *model.Attribution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.overlap(a); err != nil {
		return err
	}
	a.HolderName = "Jean Dupont"
	f.items[a.ID] = *a
	return nil
}

func (f *fakeAttributions) UpdatePeriod(_ context.Context, a *model.Attribution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.overlap(a); err != nil {
		return err
	}
	f.items[a.ID] = *a
	return nil
}

func (f *fakeAttributions) overlap(a *model.Attribution) error {
	if a.Role != model.RolePrincipal {
		return nil
	}
	for _, other := range f.items {
		if other.ID != a.ID && other.VehicleID == a.VehicleID && other.Role == model.RolePrincipal &&
			other.Overlaps(a.DateDebut, a.DateFin) {
			return repository.ErrPrincipalOverlap
		}
	}
	return nil
}

type fakeVehicles struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]model.Vehicle
}

func (f *fakeVehicles) Get(_ context.Context, id uuid.UUID) (*model.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (f *fakeVehicles) UpdateStatus(_ context.Context, id uuid.UUID, status model.VehicleStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.vehicles[id]
	v.Statut = status
	f.vehicles[id] = v
	return nil
}

func (f *fakeVehicles) UpdateOverrides(_ context.Context, v *model.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vehicles[v.ID] = *v
	return nil
}

type fakeExpirations struct {
	contractsErr error
}

func (f fakeExpirations) ScanDocuments(_ context.Context, _, to time.Time) ([]model.DocumentExpiry, error) {
	return []model.DocumentExpiry{{
		ID:             uuid.New(),
		OwnerType:      model.DocumentOwnerVehicule,
		OwnerID:        uuid.New(),
		OwnerLabel:     "AB-123-CD",
		Type:           model.DocumentTypeControleTechnique,
		DateExpiration: to.AddDate(0, 0, -55),
	}}, nil
}

func (f fakeExpirations) ScanContracts(context.Context, time.Time, time.Time) ([]model.ContractExpiry, error) {
	return nil, f.contractsErr
}

func (f fakeExpirations) ScanCandidates(context.Context, time.Time, time.Time, string, string) ([]model.CandidateAvailability, error) {
	return nil, nil
}

type testServer struct {
	router  *gin.Engine
	vehicle model.Vehicle
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	vehicle := model.Vehicle{ID: uuid.New(), Immatriculation: "AB-123-CD", Statut: model.VehicleStatusActif}
	vehicles := &fakeVehicles{vehicles: map[uuid.UUID]model.Vehicle{vehicle.ID: vehicle}}
	attributionStore := &fakeAttributions{items: make(map[uuid.UUID]model.Attribution)}

	log := zerolog.Nop()
	expirations := fakeExpirations{contractsErr: errors.New("timeout")}
	attributions := service.NewAttributionService(attributionStore, nil, log)
	alerts := service.NewAlertService([]service.Scanner{
		service.NewDocumentScanner(expirations, 60, 30),
		service.NewContractScanner(expirations, 30, 30),
		service.NewVivierScanner(expirations, 30, 2, 30),
	}, severity.DefaultTable(), excel.NewGenerator(), nil, log)

	handler := NewHandler(attributions, service.NewVehicleService(vehicles, attributions, log), alerts, log)
	cfg := &config.Config{Environment: "test"}
	return &testServer{router: NewRouter(handler, cfg, log), vehicle: vehicle}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHandler_AttributionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	base := "/api/vehicles/" + srv.vehicle.ID.String()

	create := map[string]interface{}{
		"holder_kind": "profil",
		"holder_id":   uuid.New().String(),
		"role":        "principal",
		"date_debut":  "2020-01-01",
	}
	rec := srv.do(t, http.MethodPost, base+"/attributions", create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created attributionResponse
	decode(t, rec, &created)
	assert.Equal(t, "2020-01-01", created.DateDebut)
	assert.Nil(t, created.DateFin)

	create["date_debut"] = "2021-06-01"
	rec = srv.do(t, http.MethodPost, base+"/attributions", create)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodGet, base+"/occupancy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var occupancy struct {
		Locataire struct {
			Label    string `json:"label"`
			Category string `json:"category"`
		} `json:"locataire"`
		Loueur struct {
			Label string `json:"label"`
		} `json:"loueur"`
	}
	decode(t, rec, &occupancy)
	assert.Equal(t, "Jean Dupont", occupancy.Locataire.Label)
	assert.Equal(t, "principal-driver", occupancy.Locataire.Category)
	assert.Equal(t, "-", occupancy.Loueur.Label)

	endPath := "/api/attributions/" + created.ID.String() + "/end"
	rec = srv.do(t, http.MethodPost, endPath, gin.H{"date": "2019-12-31"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, endPath, gin.H{"date": "2020-12-31"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodPatch, "/api/attributions/"+created.ID.String()+"/start", gin.H{"date": "2019-06-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "closed attribution cannot be rescheduled")

	rec = srv.do(t, http.MethodPost, base+"/attributions", create)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.do(t, http.MethodGet, base+"/attributions/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Data []attributionResponse `json:"data"`
	}
	decode(t, rec, &history)
	require.Len(t, history.Data, 2)
	assert.Equal(t, created.ID, history.Data[0].ID)

	rec = srv.do(t, http.MethodGet, base+"/attributions/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current struct {
		Data []attributionResponse `json:"data"`
	}
	decode(t, rec, &current)
	require.Len(t, current.Data, 1)
	assert.Equal(t, "2021-06-01", current.Data[0].DateDebut)
}

func TestHandler_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"invalid vehicle id", http.MethodGet, "/api/vehicles/abc/occupancy", nil, http.StatusBadRequest},
		{"unknown vehicle", http.MethodGet, "/api/vehicles/" + uuid.NewString() + "/occupancy", nil, http.StatusNotFound},
		{"unknown attribution", http.MethodPost, "/api/attributions/" + uuid.NewString() + "/end", gin.H{"date": "2024-01-01"}, http.StatusNotFound},
		{"bad date", http.MethodPost, "/api/attributions/" + uuid.NewString() + "/end", gin.H{"date": "31/01/2024"}, http.StatusBadRequest},
		{"missing fields", http.MethodPost, "/api/vehicles/" + srv.vehicle.ID.String() + "/attributions", gin.H{"role": "principal"}, http.StatusBadRequest},
		{"unknown role", http.MethodPost, "/api/vehicles/" + srv.vehicle.ID.String() + "/attributions", gin.H{
			"holder_kind": "profil", "holder_id": uuid.NewString(), "role": "owner", "date_debut": "2024-01-01",
		}, http.StatusBadRequest},
		{"sell without confirmation", http.MethodPatch, "/api/vehicles/" + srv.vehicle.ID.String() + "/status", gin.H{"statut": "vendu"}, http.StatusPreconditionRequired},
		{"libre without name", http.MethodPatch, "/api/vehicles/" + srv.vehicle.ID.String() + "/overrides", gin.H{"locataire_type": "libre"}, http.StatusBadRequest},
		{"unknown alert domain", http.MethodGet, "/api/alerts?domains=payroll", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_VehicleUpdates(t *testing.T) {
	srv := newTestServer(t)
	base := "/api/vehicles/" + srv.vehicle.ID.String()

	rec := srv.do(t, http.MethodPatch, base+"/status", gin.H{"statut": "vendu", "confirmed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var vehicle vehicleResponse
	decode(t, rec, &vehicle)
	assert.Equal(t, model.VehicleStatusVendu, vehicle.Statut)

	rec = srv.do(t, http.MethodPatch, base+"/overrides", gin.H{"locataire_type": "vendu"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodGet, base+"/occupancy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"label":"Vendu"`)
}

func TestHandler_Alerts(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var feed model.AlertFeed
	decode(t, rec, &feed)
	assert.Equal(t, []model.AlertDomain{model.AlertDomainContracts}, feed.PartialFailures)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Len(t, feed.Items, 1)
	assert.Equal(t, model.SeverityCritical, feed.Items[0].Severity)
	assert.Equal(t, 5, *feed.Items[0].RemainingDays)

	rec = srv.do(t, http.MethodGet, "/api/alerts?domains=documents,vivier", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &feed)
	assert.Empty(t, feed.PartialFailures)
	assert.Empty(t, rec.Header().Get("Cache-Control"))

	rec = srv.do(t, http.MethodGet, "/api/alerts/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestHandler_Healthz(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
