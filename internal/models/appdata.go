package models

import "time"

// SchemaVersion is stamped on every snapshot the store adopts.
const SchemaVersion = "1.0.0"

// AppData is the unit of persistence: every collection plus metadata.
type AppData struct {
	Users        []User        `json:"users"`
	ActivityLogs []ActivityLog `json:"activityLogs"`
	Cases        []PatientCase `json:"cases"`
	ChatMessages []ChatMessage `json:"chatMessages"`
	Documents    []Document    `json:"documents"`
	AIRules      []AIRule      `json:"aiRules"`
	Version      string        `json:"version"`
	LastBackup   time.Time     `json:"lastBackup"`
}

// Clone returns a deep copy. Nil collections come back as empty slices so the
// serialized form always carries JSON arrays.
func (d AppData) Clone() AppData {
	out := AppData{
		Users:        make([]User, 0, len(d.Users)),
		ActivityLogs: append(make([]ActivityLog, 0, len(d.ActivityLogs)), d.ActivityLogs...),
		Cases:        append(make([]PatientCase, 0, len(d.Cases)), d.Cases...),
		ChatMessages: append(make([]ChatMessage, 0, len(d.ChatMessages)), d.ChatMessages...),
		Documents:    append(make([]Document, 0, len(d.Documents)), d.Documents...),
		AIRules:      append(make([]AIRule, 0, len(d.AIRules)), d.AIRules...),
		Version:      d.Version,
		LastBackup:   d.LastBackup,
	}
	for _, u := range d.Users {
		out.Users = append(out.Users, u.Clone())
	}
	return out
}
