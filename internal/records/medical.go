package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// ErrUnknownPatient is returned when a write targets a patient ID that has
// no record.
var ErrUnknownPatient = errors.New("unknown patient")

const recordTimeFormat = "2006-01-02 15:04"

// Prescription is one medication entry in a patient record.
type Prescription struct {
	Medication   string `json:"medication"`
	Dosage       string `json:"dosage"`
	PrescribedBy string `json:"prescribed_by"`
	Date         string `json:"date"`
}

// Note types stored in the doctor_notes list.
const (
	noteTypeDiagnosis        = "diagnosis"
	noteTypeNurseObservation = "nurse_observation"
)

// DoctorNote is one entry in a patient's doctor_notes list: either a
// diagnosis with its treatment plan, or a free-form nurse observation.
type DoctorNote struct {
	Type      string `json:"type,omitempty"`
	Diagnosis string `json:"diagnosis,omitempty"`
	Treatment string `json:"treatment,omitempty"`
	Doctor    string `json:"doctor,omitempty"`
	Note      string `json:"note,omitempty"`
	Nurse     string `json:"nurse,omitempty"`
	Date      string `json:"date"`
}

// VitalSigns is one vitals observation recorded by a nurse.
type VitalSigns struct {
	BloodPressure string `json:"blood_pressure,omitempty"`
	HeartRate     string `json:"heart_rate,omitempty"`
	Temperature   string `json:"temperature,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Nurse         string `json:"nurse"`
	Date          string `json:"date"`
}

// PatientRecord holds everything stored for one patient.
type PatientRecord struct {
	Prescriptions []Prescription `json:"prescriptions"`
	DoctorNotes   []DoctorNote   `json:"doctor_notes"`
	VitalSigns    []VitalSigns   `json:"vital_signs"`
}

type medicalData map[string]PatientRecord

// MedicalStore persists patient records in a single JSON file keyed by
// patient ID. Same discipline as AccountStore: load, mutate, atomic rewrite.
type MedicalStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewMedicalStore creates a store backed by the given file.
func NewMedicalStore(path string) *MedicalStore {
	return &MedicalStore{path: path, now: time.Now}
}

// SetClock overrides the timestamp source. Test hook.
func (s *MedicalStore) SetClock(now func() time.Time) { s.now = now }

// EnsurePatient creates an empty record for a patient ID if none exists.
// Called on patient signup.
func (s *MedicalStore) EnsurePatient(patientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := data[patientID]; ok {
		return nil
	}
	data[patientID] = PatientRecord{
		Prescriptions: []Prescription{},
		DoctorNotes:   []DoctorNote{},
		VitalSigns:    []VitalSigns{},
	}
	return s.save(data)
}

// AddPrescription appends a timestamped prescription to a patient record.
func (s *MedicalStore) AddPrescription(patientID, medication, dosage, doctorName string) error {
	return s.append(patientID, func(rec *PatientRecord, ts string) {
		rec.Prescriptions = append(rec.Prescriptions, Prescription{
			Medication:   medication,
			Dosage:       dosage,
			PrescribedBy: doctorName,
			Date:         ts,
		})
	})
}

// AddDiagnosis appends a timestamped diagnosis to a patient record.
func (s *MedicalStore) AddDiagnosis(patientID, diagnosis, treatment, doctorName string) error {
	return s.append(patientID, func(rec *PatientRecord, ts string) {
		rec.DoctorNotes = append(rec.DoctorNotes, DoctorNote{
			Type:      noteTypeDiagnosis,
			Diagnosis: diagnosis,
			Treatment: treatment,
			Doctor:    doctorName,
			Date:      ts,
		})
	})
}

// AddVitals appends a timestamped vitals observation to a patient record.
func (s *MedicalStore) AddVitals(patientID, bloodPressure, heartRate, temperature, notes, nurseName string) error {
	return s.append(patientID, func(rec *PatientRecord, ts string) {
		rec.VitalSigns = append(rec.VitalSigns, VitalSigns{
			BloodPressure: bloodPressure,
			HeartRate:     heartRate,
			Temperature:   temperature,
			Notes:         notes,
			Nurse:         nurseName,
			Date:          ts,
		})
	})
}

// AddNurseNote appends a free-form nurse observation to a patient's
// doctor_notes list.
func (s *MedicalStore) AddNurseNote(patientID, note, nurseName string) error {
	return s.append(patientID, func(rec *PatientRecord, ts string) {
		rec.DoctorNotes = append(rec.DoctorNotes, DoctorNote{
			Type:  noteTypeNurseObservation,
			Note:  note,
			Nurse: nurseName,
			Date:  ts,
		})
	})
}

// Patient returns the record for one patient ID.
func (s *MedicalStore) Patient(patientID string) (PatientRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return PatientRecord{}, err
	}
	rec, ok := data[patientID]
	if !ok {
		return PatientRecord{}, fmt.Errorf("%w: %s", ErrUnknownPatient, patientID)
	}
	return rec, nil
}

// All returns every patient record keyed by patient ID.
func (s *MedicalStore) All() (map[string]PatientRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *MedicalStore) append(patientID string, fn func(*PatientRecord, string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	rec, ok := data[patientID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPatient, patientID)
	}

	fn(&rec, s.now().Format(recordTimeFormat))
	data[patientID] = rec
	return s.save(data)
}

func (s *MedicalStore) load() (medicalData, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return defaultRecords(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read medical records: %w", err)
	}

	var data medicalData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse medical records: %w", err)
	}
	return data, nil
}

func (s *MedicalStore) save(data medicalData) error {
	return writeFileAtomic(s.path, data)
}

// defaultRecords seeds records for the demo patients.
func defaultRecords() medicalData {
	data := medicalData{}
	for _, id := range []string{"P001", "P002", "P003", "P004", "P005"} {
		data[id] = PatientRecord{
			Prescriptions: []Prescription{},
			DoctorNotes:   []DoctorNote{},
			VitalSigns:    []VitalSigns{},
		}
	}
	return data
}
