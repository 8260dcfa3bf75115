package core

import "time"

// ListRequest is a business request for creating or updating a list of HCPs.
type ListRequest struct {
	RequestID      int          `json:"request_id"`
	SubdomainID    int          `json:"subdomain_id"`
	SubdomainName  string       `json:"subdomain_name,omitempty"`
	RequesterName  string       `json:"requester_name"`
	RequestPurpose string       `json:"request_purpose"`
	Status         string       `json:"status"`
	AssignedTo     string       `json:"assigned_to,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	CurrentVersion *ListVersion `json:"current_version,omitempty"`
}

// ListVersion is one numbered snapshot of a list's evolution.
type ListVersion struct {
	VersionID       int       `json:"version_id"`
	RequestID       int       `json:"request_id"`
	VersionNumber   int       `json:"version_number"`
	ChangeType      string    `json:"change_type,omitempty"`
	ChangeRationale string    `json:"change_rationale,omitempty"`
	CreatedBy       string    `json:"created_by,omitempty"`
	IsCurrent       bool      `json:"is_current"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListDetail is a list request with its current snapshot items.
type ListDetail struct {
	ListRequest
	CurrentSnapshot []map[string]any `json:"current_snapshot,omitempty"`
}

// VersionComparison is the diff between two consecutive versions of a list.
type VersionComparison struct {
	FromVersion int `json:"from_version"`
	ToVersion   int `json:"to_version"`
	Added       int `json:"added"`
	Removed     int `json:"removed"`
	Total       int `json:"total"`
}

// ChangeAnalysis summarizes how a list evolved across all its versions.
type ChangeAnalysis struct {
	Comparisons        []VersionComparison `json:"comparisons"`
	MostDynamicVersion int                 `json:"most_dynamic_version"`
	MostDynamicTotal   int                 `json:"most_dynamic_total"`
}
