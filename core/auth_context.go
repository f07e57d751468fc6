package core

import "strings"

// AuthContext holds the API key attached to every outbound request.
//
// AuthContext performs no locking. Setting the key while requests are in
// flight on other goroutines is a data race; callers sharing one context
// across goroutines must synchronize access themselves.
type AuthContext struct {
	apiKey string
	set    bool
}

func NewAuthContext(apiKey string) *AuthContext {
	ac := &AuthContext{}
	ac.SetAPIKey(apiKey)
	return ac
}

var defaultAuthContext = &AuthContext{}

// DefaultAuthContext returns the process-wide context used by clients that
// were not given one explicitly. It starts empty.
func DefaultAuthContext() *AuthContext {
	return defaultAuthContext
}

// SetAPIKey stores key unmodified. A blank key clears the slot.
func (a *AuthContext) SetAPIKey(key string) {
	if a == nil {
		return
	}
	if strings.TrimSpace(key) == "" {
		a.Clear()
		return
	}
	a.apiKey = key
	a.set = true
}

func (a *AuthContext) APIKey() (string, bool) {
	if a == nil || !a.set {
		return "", false
	}
	return a.apiKey, true
}

func (a *AuthContext) Clear() {
	if a == nil {
		return
	}
	a.apiKey = ""
	a.set = false
}
