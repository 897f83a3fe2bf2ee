package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/records"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/session"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/store"
)

const testSecret = "test-secret"

// stubTracker satisfies session.TrackerRunner without touching a camera.
type stubTracker struct{}

func (stubTracker) Run(stop <-chan struct{}) error {
	<-stop
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	controller := session.NewController(stubTracker{}, nil, zap.NewNop().Sugar())
	t.Cleanup(controller.Stop)
	return New(Config{
		JWTSecret:  testSecret,
		Accounts:   records.NewAccountStore(filepath.Join(dir, "accounts.json")),
		Medical:    records.NewMedicalStore(filepath.Join(dir, "medical.json")),
		Controller: controller,
		Logger:     zap.NewNop().Sugar(),
	})
}

func doJSON(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func tokenFor(t *testing.T, user *session.User) string {
	t.Helper()
	token, err := IssueToken(testSecret, user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestServer_Health(t *testing.T) {
	s := New(Config{Logger: zap.NewNop().Sugar()})

	rec := doJSON(t, s, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	resp := decode(t, rec)
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", resp["status"])
	}
	if _, exists := resp["uptime"]; !exists {
		t.Error("expected 'uptime' field in response")
	}
}

func TestServer_LoginPatientStartsHandsFree(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"username": "john",
		"password": "123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	if resp["token"] == "" || resp["token"] == nil {
		t.Error("expected a session token")
	}
	if resp["hands_free"] != true {
		t.Error("patient login should start a hands-free session")
	}
	if !s.config.Controller.Active() {
		t.Error("controller should report an active session")
	}
}

func TestServer_LoginDoctorDoesNotStartHandsFree(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"username": "drsmith",
		"password": "123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	resp := decode(t, rec)
	if resp["hands_free"] != false {
		t.Error("doctor login should not start a hands-free session")
	}
	if s.config.Controller.Active() {
		t.Error("controller should not report an active session")
	}
}

func TestServer_LoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"username": "john",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestServer_LoginRejectsUnsupportedLanguage(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"username": "john",
		"password": "123",
		"language": "xx",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestServer_SignupCreatesPatientRecord(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/signup", "", map[string]string{
		"username":  "newpatient",
		"password":  "pw",
		"name":      "New Patient",
		"user_type": "patients",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	user, err := s.config.Accounts.Lookup("newpatient")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if _, err := s.config.Medical.Patient(user.PatientID); err != nil {
		t.Errorf("signup should create an empty medical record: %v", err)
	}
}

func TestServer_SignupRejectsDuplicate(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/signup", "", map[string]string{
		"username":  "john",
		"password":  "pw",
		"name":      "Imposter",
		"user_type": "patients",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/start_hands_free"},
		{http.MethodPost, "/stop_hands_free"},
		{http.MethodGet, "/current_language"},
		{http.MethodPost, "/api/save_prescription"},
		{http.MethodGet, "/api/patient_data"},
		{http.MethodGet, "/api/activity"},
	}
	for _, p := range paths {
		rec := doJSON(t, s, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected status %d, got %d", p.method, p.path, http.StatusUnauthorized, rec.Code)
		}
	}
}

func TestServer_SavePrescriptionRoleGate(t *testing.T) {
	s := newTestServer(t)

	body := map[string]string{
		"patient_id": "P001",
		"medication": "Aspirin",
		"dosage":     "100mg daily",
	}

	// A nurse must not be able to prescribe.
	nurse := tokenFor(t, &session.User{Username: "nurse1", Role: session.RoleNurse})
	rec := doJSON(t, s, http.MethodPost, "/api/save_prescription", nurse, body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("nurse: expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
	if patient, err := s.config.Medical.Patient("P001"); err != nil || len(patient.Prescriptions) != 0 {
		t.Fatalf("rejected request must not write: err=%v prescriptions=%d", err, len(patient.Prescriptions))
	}

	// A doctor can, and the entry is attributed.
	doctor := tokenFor(t, &session.User{Username: "drsmith", Role: session.RoleDoctor})
	rec = doJSON(t, s, http.MethodPost, "/api/save_prescription", doctor, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("doctor: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	patient, err := s.config.Medical.Patient("P001")
	if err != nil {
		t.Fatalf("patient: %v", err)
	}
	if len(patient.Prescriptions) != 1 {
		t.Fatalf("expected 1 prescription, got %d", len(patient.Prescriptions))
	}
	p := patient.Prescriptions[0]
	if p.PrescribedBy != "Dr. Smith" {
		t.Errorf("expected attribution Dr. Smith, got %q", p.PrescribedBy)
	}
	if p.Date == "" {
		t.Error("expected a timestamp on the prescription")
	}
}

func TestServer_SaveVitalsNurseOnly(t *testing.T) {
	s := newTestServer(t)

	body := map[string]string{
		"patient_id":     "P002",
		"blood_pressure": "120/80",
		"heart_rate":     "72",
	}

	doctor := tokenFor(t, &session.User{Username: "drsmith", Role: session.RoleDoctor})
	if rec := doJSON(t, s, http.MethodPost, "/api/save_vitals", doctor, body); rec.Code != http.StatusForbidden {
		t.Fatalf("doctor: expected status %d, got %d", http.StatusForbidden, rec.Code)
	}

	nurse := tokenFor(t, &session.User{Username: "nurse1", Role: session.RoleNurse})
	if rec := doJSON(t, s, http.MethodPost, "/api/save_vitals", nurse, body); rec.Code != http.StatusOK {
		t.Fatalf("nurse: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	patient, err := s.config.Medical.Patient("P002")
	if err != nil {
		t.Fatalf("patient: %v", err)
	}
	if len(patient.VitalSigns) != 1 {
		t.Fatalf("expected 1 vitals entry, got %d", len(patient.VitalSigns))
	}
	if patient.VitalSigns[0].Nurse != "Nurse Brown" {
		t.Errorf("expected attribution Nurse Brown, got %q", patient.VitalSigns[0].Nurse)
	}
}

func TestServer_SaveRejectsUnknownPatient(t *testing.T) {
	s := newTestServer(t)

	doctor := tokenFor(t, &session.User{Username: "drsmith", Role: session.RoleDoctor})
	rec := doJSON(t, s, http.MethodPost, "/api/save_prescription", doctor, map[string]string{
		"patient_id": "P999",
		"medication": "Aspirin",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_ChangeLanguage(t *testing.T) {
	s := newTestServer(t)
	token := tokenFor(t, &session.User{Username: "john", Role: session.RolePatient})

	rec := doJSON(t, s, http.MethodPost, "/change_language/es", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	if resp["language"] != "es" || resp["speech_code"] != "es-ES" {
		t.Errorf("unexpected response %v", resp)
	}

	rec = doJSON(t, s, http.MethodGet, "/current_language", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("current_language: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	resp = decode(t, rec)
	if resp["language"] != "es" {
		t.Errorf("expected persisted language es, got %v", resp["language"])
	}
}

func TestServer_ChangeLanguageRejectsUnknownCode(t *testing.T) {
	s := newTestServer(t)
	token := tokenFor(t, &session.User{Username: "john", Role: session.RolePatient})

	rec := doJSON(t, s, http.MethodPost, "/change_language/klingon", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestServer_ChangeLanguageUpdatesActiveSession(t *testing.T) {
	s := newTestServer(t)

	// Patient login starts the session with the stored language.
	rec := doJSON(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"username": "john",
		"password": "123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	token := tokenFor(t, &session.User{Username: "john", Role: session.RolePatient})
	if rec := doJSON(t, s, http.MethodPost, "/change_language/fr", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("change_language: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	if lang := s.config.Controller.Language(); lang != "fr" {
		t.Errorf("active session language = %q, want fr", lang)
	}
}

func TestServer_StartHandsFreeConflict(t *testing.T) {
	s := newTestServer(t)

	john := tokenFor(t, &session.User{Username: "john", Role: session.RolePatient})
	if rec := doJSON(t, s, http.MethodPost, "/start_hands_free", john, nil); rec.Code != http.StatusOK {
		t.Fatalf("first start: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	sarah := tokenFor(t, &session.User{Username: "sarah", Role: session.RolePatient})
	if rec := doJSON(t, s, http.MethodPost, "/start_hands_free", sarah, nil); rec.Code != http.StatusConflict {
		t.Fatalf("second start: expected status %d, got %d", http.StatusConflict, rec.Code)
	}

	// The original session is undisturbed.
	if user := s.config.Controller.User(); user == nil || user.Username != "john" {
		t.Errorf("active session should still belong to john")
	}
}

func TestServer_StopHandsFreeIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	token := tokenFor(t, &session.User{Username: "john", Role: session.RolePatient})

	if rec := doJSON(t, s, http.MethodPost, "/start_hands_free", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("start: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/stop_hands_free", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("stop: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/stop_hands_free", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("second stop: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if s.config.Controller.Active() {
		t.Error("session should be stopped")
	}
}

func TestServer_PatientDataScopedToOwnRecord(t *testing.T) {
	s := newTestServer(t)

	doctor := tokenFor(t, &session.User{Username: "drsmith", Role: session.RoleDoctor})
	if rec := doJSON(t, s, http.MethodPost, "/api/save_diagnosis", doctor, map[string]string{
		"patient_id": "P001",
		"diagnosis":  "Hypertension",
		"treatment":  "Diet",
	}); rec.Code != http.StatusOK {
		t.Fatalf("save diagnosis: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	patient := tokenFor(t, &session.User{Username: "john", Role: session.RolePatient})
	rec := doJSON(t, s, http.MethodGet, "/api/patient_data", patient, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("patient_data: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	resp := decode(t, rec)
	if resp["patient_id"] != "P001" {
		t.Errorf("patient should see own record, got %v", resp["patient_id"])
	}
	if _, hasAll := resp["records"]; hasAll {
		t.Error("patient must not receive the full record set")
	}
}

func TestServer_PatientDataAllForStaff(t *testing.T) {
	s := newTestServer(t)

	doctor := tokenFor(t, &session.User{Username: "drsmith", Role: session.RoleDoctor})
	rec := doJSON(t, s, http.MethodGet, "/api/patient_data", doctor, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	resp := decode(t, rec)
	all, ok := resp["records"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected records map, got %T", resp["records"])
	}
	if _, ok := all["P001"]; !ok {
		t.Error("expected seeded record P001 in staff view")
	}
}

func TestServer_ActivityScopedForPatients(t *testing.T) {
	s := newTestServer(t)

	db, err := store.New(filepath.Join(t.TempDir(), "activity.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s.config.Events = db.Events()

	if err := s.config.Events.Record(store.EventCommand, "john", "click"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.config.Events.Record(store.EventCommand, "sarah", "scroll_up"); err != nil {
		t.Fatalf("record: %v", err)
	}

	patient := tokenFor(t, &session.User{Username: "john", Role: session.RolePatient})
	rec := doJSON(t, s, http.MethodGet, "/api/activity", patient, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	resp := decode(t, rec)
	events, ok := resp["events"].([]interface{})
	if !ok || len(events) != 1 {
		t.Fatalf("patient should see only own events, got %v", resp["events"])
	}

	doctor := tokenFor(t, &session.User{Username: "drsmith", Role: session.RoleDoctor})
	rec = doJSON(t, s, http.MethodGet, "/api/activity", doctor, nil)
	resp = decode(t, rec)
	if events, ok := resp["events"].([]interface{}); !ok || len(events) != 2 {
		t.Errorf("staff should see all events, got %v", resp["events"])
	}
}

func TestServer_LogoutStopsOwnSession(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"username": "john",
		"password": "123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !s.config.Controller.Active() {
		t.Fatal("expected active session after login")
	}

	token := tokenFor(t, &session.User{Username: "john", Role: session.RolePatient})
	if rec := doJSON(t, s, http.MethodGet, "/logout", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if s.config.Controller.Active() {
		t.Error("logout should stop the caller's session")
	}
}
