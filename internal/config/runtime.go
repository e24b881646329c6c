package config

import (
	"sync"
	"time"
)

// tokenSkew renews the cached credential one minute before it expires.
const tokenSkew = time.Minute

// Runtime holds the mutable sync configuration: which spreadsheet to use and
// the current Google access credential. It is set at sign-in or from the
// settings screen and cleared at sign-out. Spreadsheet mode is on whenever
// both a spreadsheet id and a valid credential are present; otherwise the
// relational backend is used.
type Runtime struct {
	mu            sync.RWMutex
	spreadsheetID string
	accessToken   string
	tokenExpiry   time.Time
}

func NewRuntime(spreadsheetID string) *Runtime {
	return &Runtime{spreadsheetID: spreadsheetID}
}

func (r *Runtime) SetSpreadsheetID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spreadsheetID = id
}

func (r *Runtime) SpreadsheetID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.spreadsheetID
}

// SetAccessToken caches a credential. expiresIn <= 0 assumes the usual hour.
func (r *Runtime) SetAccessToken(token string, expiresIn time.Duration) {
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.accessToken = token
	r.tokenExpiry = time.Now().Add(expiresIn)
}

// AccessToken returns the cached credential if it is still valid.
func (r *Runtime) AccessToken() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.accessToken == "" || time.Now().After(r.tokenExpiry.Add(-tokenSkew)) {
		return "", false
	}

	return r.accessToken, true
}

// SheetsConfigured reports whether spreadsheet mode is active: a spreadsheet
// id plus a still-valid credential.
func (r *Runtime) SheetsConfigured() bool {
	if r.SpreadsheetID() == "" {
		return false
	}

	_, ok := r.AccessToken()

	return ok
}

// Clear drops the credential and spreadsheet id (sign-out).
func (r *Runtime) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spreadsheetID = ""
	r.accessToken = ""
	r.tokenExpiry = time.Time{}
}
