// Package server provides the HTTP server for the hospital portal.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/records"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/session"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/store"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/voice"
)

// Config holds the server configuration.
type Config struct {
	StaticDir  string
	JWTSecret  string
	Accounts   *records.AccountStore
	Medical    *records.MedicalStore
	Controller *session.Controller
	Events     *store.EventRepository
	Logger     *zap.SugaredLogger
}

// Server represents the portal HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	status *StatusHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = zap.NewNop().Sugar()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/signup", s.handleSignup)
	s.mux.HandleFunc("/api/login", s.handleLogin)
	s.mux.HandleFunc("/logout", s.requireAuth(s.handleLogout))

	s.mux.HandleFunc("/start_hands_free", s.requireAuth(s.handleStartHandsFree))
	s.mux.HandleFunc("/stop_hands_free", s.requireAuth(s.handleStopHandsFree))
	s.mux.HandleFunc("/change_language/", s.requireAuth(s.handleChangeLanguage))
	s.mux.HandleFunc("/current_language", s.requireAuth(s.handleCurrentLanguage))

	s.mux.HandleFunc("/api/save_prescription", s.requireAuth(s.handleSavePrescription, session.RoleDoctor))
	s.mux.HandleFunc("/api/save_diagnosis", s.requireAuth(s.handleSaveDiagnosis, session.RoleDoctor))
	s.mux.HandleFunc("/api/save_vitals", s.requireAuth(s.handleSaveVitals, session.RoleNurse))
	s.mux.HandleFunc("/api/save_nurse_note", s.requireAuth(s.handleSaveNurseNote, session.RoleNurse))
	s.mux.HandleFunc("/api/patient_data", s.requireAuth(s.handlePatientData))
	s.mux.HandleFunc("/api/activity", s.requireAuth(s.handleActivity))

	// Live tracking/voice status over WebSocket
	if s.config.Controller != nil {
		s.status = NewStatusHandler(s.config.Controller)
		s.mux.Handle("/api/status", s.status)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Close stops the server's background broadcast loop.
func (s *Server) Close() {
	if s.status != nil {
		s.status.Close()
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

type signupRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	UserType       string `json:"user_type"`
	Specialization string `json:"specialization"`
	Department     string `json:"department"`
}

// handleSignup handles POST requests to /api/signup.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "username, password and name are required")
		return
	}

	user, err := s.config.Accounts.Create(req.Username, req.Password, req.Name, req.UserType, req.Specialization, req.Department)
	if err != nil {
		switch {
		case errors.Is(err, records.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "username already exists")
		case errors.Is(err, records.ErrUnknownBucket):
			writeError(w, http.StatusBadRequest, "unknown account type")
		default:
			s.config.Logger.Errorw("signup failed", "error", err)
			writeError(w, http.StatusInternalServerError, "could not create account")
		}
		return
	}

	if user.Role == session.RolePatient && s.config.Medical != nil {
		if err := s.config.Medical.EnsurePatient(user.PatientID); err != nil {
			s.config.Logger.Errorw("failed to create patient record", "patient_id", user.PatientID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Language string `json:"language"`
}

// handleLogin handles POST requests to /api/login. A successful patient
// login also starts the hands-free session so the portal is usable without
// keyboard or mouse from the first page.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Language != "" && !voice.SupportedLanguage(req.Language) {
		writeError(w, http.StatusBadRequest, "unsupported language")
		return
	}

	user, err := s.config.Accounts.Authenticate(req.Username, req.Password, req.Language)
	if err != nil {
		if errors.Is(err, records.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		s.config.Logger.Errorw("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := IssueToken(s.config.JWTSecret, user)
	if err != nil {
		s.config.Logger.Errorw("token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})

	handsFree := false
	if user.Role == session.RolePatient && s.config.Controller != nil {
		handsFree = s.config.Controller.Start(user)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"token":      token,
		"user":       user,
		"hands_free": handsFree,
	})
}

// handleLogout stops any session owned by the caller and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	if s.config.Controller != nil {
		if active := s.config.Controller.User(); active != nil && active.Username == p.Username {
			s.config.Controller.Stop()
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:   tokenCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleStartHandsFree handles /start_hands_free. GET is accepted alongside
// POST so the route stays reachable from a plain browser link.
func (s *Server) handleStartHandsFree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.config.Controller == nil {
		writeError(w, http.StatusServiceUnavailable, "hands-free control not available")
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	user, err := s.config.Accounts.Lookup(p.Username)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	if !s.config.Controller.Start(user) {
		writeError(w, http.StatusConflict, "a hands-free session is already running")
		return
	}
	writeJSON(w, http.StatusOK, s.config.Controller.Status())
}

// handleStopHandsFree handles /stop_hands_free.
func (s *Server) handleStopHandsFree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.config.Controller == nil {
		writeError(w, http.StatusServiceUnavailable, "hands-free control not available")
		return
	}
	s.config.Controller.Stop()
	writeJSON(w, http.StatusOK, s.config.Controller.Status())
}

// handleChangeLanguage handles /change_language/{code}.
func (s *Server) handleChangeLanguage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	code := strings.TrimPrefix(r.URL.Path, "/change_language/")
	if code == "" || !voice.SupportedLanguage(code) {
		writeError(w, http.StatusBadRequest, "unsupported language")
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	if err := s.config.Accounts.SetLanguage(p.Username, code); err != nil {
		writeError(w, http.StatusInternalServerError, "could not save language")
		return
	}
	if s.config.Controller != nil {
		if active := s.config.Controller.User(); active != nil && active.Username == p.Username {
			s.config.Controller.SetLanguage(code)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"language":    code,
		"speech_code": voice.SpeechCode(code),
	})
}

// handleCurrentLanguage handles GET requests to /current_language.
func (s *Server) handleCurrentLanguage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	lang := "en"
	if s.config.Controller != nil {
		if active := s.config.Controller.User(); active != nil && active.Username == p.Username {
			lang = s.config.Controller.Language()
		} else if user, err := s.config.Accounts.Lookup(p.Username); err == nil {
			lang = user.Language
		}
	} else if user, err := s.config.Accounts.Lookup(p.Username); err == nil {
		lang = user.Language
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"language":    lang,
		"speech_code": voice.SpeechCode(lang),
	})
}

type prescriptionRequest struct {
	PatientID  string `json:"patient_id"`
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
}

// handleSavePrescription handles POST requests to /api/save_prescription.
// Doctor only.
func (s *Server) handleSavePrescription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req prescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientID == "" || req.Medication == "" {
		writeError(w, http.StatusBadRequest, "patient_id and medication are required")
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	if err := s.config.Medical.AddPrescription(req.PatientID, req.Medication, req.Dosage, s.displayName(p)); err != nil {
		s.writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type diagnosisRequest struct {
	PatientID string `json:"patient_id"`
	Diagnosis string `json:"diagnosis"`
	Treatment string `json:"treatment"`
}

// handleSaveDiagnosis handles POST requests to /api/save_diagnosis.
// Doctor only.
func (s *Server) handleSaveDiagnosis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req diagnosisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientID == "" || req.Diagnosis == "" {
		writeError(w, http.StatusBadRequest, "patient_id and diagnosis are required")
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	if err := s.config.Medical.AddDiagnosis(req.PatientID, req.Diagnosis, req.Treatment, s.displayName(p)); err != nil {
		s.writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type vitalsRequest struct {
	PatientID     string `json:"patient_id"`
	BloodPressure string `json:"blood_pressure"`
	HeartRate     string `json:"heart_rate"`
	Temperature   string `json:"temperature"`
	Notes         string `json:"notes"`
}

// handleSaveVitals handles POST requests to /api/save_vitals. Nurse only.
func (s *Server) handleSaveVitals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req vitalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	if err := s.config.Medical.AddVitals(req.PatientID, req.BloodPressure, req.HeartRate, req.Temperature, req.Notes, s.displayName(p)); err != nil {
		s.writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type nurseNoteRequest struct {
	PatientID string `json:"patient_id"`
	Note      string `json:"note"`
}

// handleSaveNurseNote handles POST requests to /api/save_nurse_note.
// Nurse only.
func (s *Server) handleSaveNurseNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req nurseNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientID == "" || req.Note == "" {
		writeError(w, http.StatusBadRequest, "patient_id and note are required")
		return
	}

	p, _ := PrincipalFromContext(r.Context())
	if err := s.config.Medical.AddNurseNote(req.PatientID, req.Note, s.displayName(p)); err != nil {
		s.writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handlePatientData handles GET requests to /api/patient_data. Patients see
// their own record; doctors and nurses can fetch any record or all of them.
func (s *Server) handlePatientData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	p, _ := PrincipalFromContext(r.Context())

	if p.Role == session.RolePatient {
		user, err := s.config.Accounts.Lookup(p.Username)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		rec, err := s.config.Medical.Patient(user.PatientID)
		if err != nil {
			s.writeRecordError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"patient_id": user.PatientID, "record": rec})
		return
	}

	if id := r.URL.Query().Get("patient_id"); id != "" {
		rec, err := s.config.Medical.Patient(id)
		if err != nil {
			s.writeRecordError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"patient_id": id, "record": rec})
		return
	}

	all, err := s.config.Medical.All()
	if err != nil {
		s.config.Logger.Errorw("failed to load records", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load records")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": all})
}

// handleActivity handles GET requests to /api/activity. Patients see only
// their own events.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.config.Events == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"events": []interface{}{}})
		return
	}

	p, _ := PrincipalFromContext(r.Context())

	var (
		events []*store.Event
		err    error
	)
	if p.Role == session.RolePatient {
		events, err = s.config.Events.ByUser(p.Username, 100)
	} else {
		events, err = s.config.Events.Recent(100)
	}
	if err != nil {
		s.config.Logger.Errorw("failed to load activity", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load activity")
		return
	}

	type eventResponse struct {
		Kind      string `json:"kind"`
		Username  string `json:"username"`
		Detail    string `json:"detail,omitempty"`
		CreatedAt string `json:"created_at"`
	}
	resp := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventResponse{
			Kind:      e.Kind,
			Username:  e.Username,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": resp})
}

func (s *Server) writeRecordError(w http.ResponseWriter, err error) {
	if errors.Is(err, records.ErrUnknownPatient) {
		writeError(w, http.StatusNotFound, "unknown patient")
		return
	}
	s.config.Logger.Errorw("record write failed", "error", err)
	writeError(w, http.StatusInternalServerError, "could not save record")
}

// displayName resolves the human name for attribution on record entries,
// falling back to the username.
func (s *Server) displayName(p *Principal) string {
	if user, err := s.config.Accounts.Lookup(p.Username); err == nil && user.Name != "" {
		return user.Name
	}
	return p.Username
}
