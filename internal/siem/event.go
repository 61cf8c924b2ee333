// Package siem formats security events and forwards them to an external
// collector (QRadar) over syslog.
package siem

import "time"

// Event types understood by the collector's parser.
const (
	EventLoginAttempt       = "LOGIN_ATTEMPT"
	EventAdminAccess        = "ADMIN_ACCESS"
	EventSuspiciousActivity = "SUSPICIOUS_ACTIVITY"
)

// Event is one immutable security event record.
type Event struct {
	Type         string         `json:"event_type"`
	Username     string         `json:"username"`
	IPAddress    string         `json:"ip_address"`
	Status       string         `json:"status,omitempty"`
	Resource     string         `json:"resource,omitempty"`
	ActivityType string         `json:"activity_type,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Details      map[string]any `json:"details"`
}

func statusOf(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// LoginAttempt records one authentication attempt and its outcome.
func LoginAttempt(username, ip string, success bool, details map[string]any, now time.Time) Event {
	if details == nil {
		details = map[string]any{}
	}
	return Event{
		Type:      EventLoginAttempt,
		Username:  username,
		IPAddress: ip,
		Status:    statusOf(success),
		Timestamp: now.UTC(),
		Details:   details,
	}
}

// AdminAccess records access to an admin-gated resource.
func AdminAccess(username, ip, resource string, success bool, now time.Time) Event {
	return Event{
		Type:      EventAdminAccess,
		Username:  username,
		IPAddress: ip,
		Resource:  resource,
		Status:    statusOf(success),
		Timestamp: now.UTC(),
		Details:   map[string]any{},
	}
}

// SuspiciousActivity records behavior worth an analyst's attention, such as
// repeated failed logins or new-account creation.
func SuspiciousActivity(username, ip, activityType string, details map[string]any, now time.Time) Event {
	if details == nil {
		details = map[string]any{}
	}
	return Event{
		Type:         EventSuspiciousActivity,
		Username:     username,
		IPAddress:    ip,
		ActivityType: activityType,
		Timestamp:    now.UTC(),
		Details:      details,
	}
}
