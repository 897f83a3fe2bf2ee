// Package records persists portal data as flat JSON files with atomic
// whole-file rewrites: the account store and the medical record store.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/session"
)

var (
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when a signup reuses an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrUnknownUser is returned when a username is not found.
	ErrUnknownUser = errors.New("unknown user")
	// ErrUnknownBucket is returned for an unrecognized account type.
	ErrUnknownBucket = errors.New("unknown account type")
)

// Role buckets in the account file.
const (
	BucketPatients = "patients"
	BucketDoctors  = "doctors"
	BucketNurses   = "nurses"
)

var bucketRoles = map[string]session.Role{
	BucketPatients: session.RolePatient,
	BucketDoctors:  session.RoleDoctor,
	BucketNurses:   session.RoleNurse,
}

// Account is one stored account record.
type Account struct {
	Password       string `json:"password"`
	Name           string `json:"name"`
	PatientID      string `json:"patient_id,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Department     string `json:"department,omitempty"`
	Language       string `json:"language"`
}

type accountData map[string]map[string]Account

// AccountStore reads and rewrites the whole account file on every operation.
// No partial updates; a temp-file rename keeps rewrites atomic.
type AccountStore struct {
	path string
	mu   sync.Mutex
}

// NewAccountStore creates a store backed by the given file. A missing file
// is seeded with the default dataset on first read.
func NewAccountStore(path string) *AccountStore {
	return &AccountStore{path: path}
}

// Authenticate verifies the credentials, records the chosen spoken-language
// preference, and returns the user snapshot.
func (s *AccountStore) Authenticate(username, password, language string) (*session.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	for bucket, accounts := range data {
		acct, ok := accounts[username]
		if !ok || acct.Password != password {
			continue
		}

		if language != "" {
			acct.Language = language
			accounts[username] = acct
			if err := s.save(data); err != nil {
				return nil, err
			}
		}

		return snapshot(username, bucket, acct), nil
	}

	return nil, ErrInvalidCredentials
}

// Create adds a new account to the given bucket. Usernames are unique across
// all buckets. Patients receive a generated sequential patient ID.
func (s *AccountStore) Create(username, password, name, bucket, specialization, department string) (*session.User, error) {
	if _, ok := bucketRoles[bucket]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, accounts := range data {
		if _, exists := accounts[username]; exists {
			return nil, ErrUsernameTaken
		}
	}

	acct := Account{
		Password: password,
		Name:     name,
		Language: "en",
	}
	switch bucket {
	case BucketPatients:
		acct.PatientID = fmt.Sprintf("P%03d", len(data[BucketPatients])+1)
	case BucketDoctors:
		if specialization == "" {
			specialization = "General"
		}
		acct.Specialization = specialization
	case BucketNurses:
		if department == "" {
			department = "General"
		}
		acct.Department = department
	}

	data[bucket][username] = acct
	if err := s.save(data); err != nil {
		return nil, err
	}

	return snapshot(username, bucket, acct), nil
}

// SetLanguage updates a user's spoken-language preference.
func (s *AccountStore) SetLanguage(username, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	for _, accounts := range data {
		if acct, ok := accounts[username]; ok {
			acct.Language = language
			accounts[username] = acct
			return s.save(data)
		}
	}

	return ErrUnknownUser
}

// Lookup returns the user snapshot for a username.
func (s *AccountStore) Lookup(username string) (*session.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	for bucket, accounts := range data {
		if acct, ok := accounts[username]; ok {
			return snapshot(username, bucket, acct), nil
		}
	}
	return nil, ErrUnknownUser
}

func snapshot(username, bucket string, acct Account) *session.User {
	lang := acct.Language
	if lang == "" {
		lang = "en"
	}
	return &session.User{
		Username:       username,
		Name:           acct.Name,
		Role:           bucketRoles[bucket],
		PatientID:      acct.PatientID,
		Specialization: acct.Specialization,
		Department:     acct.Department,
		Language:       lang,
	}
}

func (s *AccountStore) load() (accountData, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return defaultAccounts(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}

	var data accountData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse accounts: %w", err)
	}
	for _, bucket := range []string{BucketPatients, BucketDoctors, BucketNurses} {
		if data[bucket] == nil {
			data[bucket] = map[string]Account{}
		}
	}
	return data, nil
}

func (s *AccountStore) save(data accountData) error {
	return writeFileAtomic(s.path, data)
}

// writeFileAtomic marshals v and replaces path in one rename, so readers
// never observe a partially written file.
func writeFileAtomic(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// defaultAccounts seeds the store with the demo dataset used when no account
// file exists yet.
func defaultAccounts() accountData {
	return accountData{
		BucketPatients: {
			"john":      {Password: "123", Name: "John Smith", PatientID: "P001", Language: "en"},
			"sarah":     {Password: "123", Name: "Sarah Johnson", PatientID: "P002", Language: "es"},
			"ali":       {Password: "123", Name: "Ali Hassan", PatientID: "P003", Language: "ar"},
			"marie":     {Password: "123", Name: "Marie Dubois", PatientID: "P004", Language: "fr"},
			"multilang": {Password: "123", Name: "Multi Language User", PatientID: "P005", Language: "en"},
		},
		BucketDoctors: {
			"drsmith": {Password: "123", Name: "Dr. Smith", Specialization: "Cardiology", Language: "en"},
			"drjohn":  {Password: "123", Name: "Dr. Johnson", Specialization: "Neurology", Language: "en"},
		},
		BucketNurses: {
			"nurse1": {Password: "123", Name: "Nurse Brown", Department: "Emergency", Language: "en"},
			"nurse2": {Password: "123", Name: "Nurse Davis", Department: "ICU", Language: "en"},
		},
	}
}
