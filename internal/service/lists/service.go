// Package lists is the plain CRUD and version-analysis layer over the list
// management tables. No conversational logic lives here.
package lists

import (
	"context"
	"errors"
	"fmt"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/storage/postgres"
)

// ErrValidation marks bad caller input (missing fields, unknown subdomain).
var ErrValidation = errors.New("validation failed")

// entryTables maps a subdomain name to its entry table.
var entryTables = map[string]string{
	"Target Lists":                   "target_list_entries",
	"Call Lists":                     "call_list_entries",
	"Formulary Decision-Maker Lists": "formulary_decision_maker_entries",
	"IDN/Health System Lists":        "idn_health_system_entries",
	"Event Invitation Lists":         "event_invitation_entries",
	"Digital Engagement Lists":       "digital_engagement_entries",
	"High-Value Prescriber Lists":    "high_value_prescriber_entries",
	"Competitor Target Lists":        "competitor_target_entries",
}

type Repository interface {
	ListRequests(ctx context.Context, subdomainID, limit int) ([]core.ListRequest, error)
	GetListRequest(ctx context.Context, requestID int) (*core.ListRequest, error)
	CreateListRequest(ctx context.Context, lr *core.ListRequest) (*core.ListRequest, error)
	UpdateListRequest(ctx context.Context, requestID int, fields map[string]any) error
	DeleteListRequest(ctx context.Context, requestID int) error
	Versions(ctx context.Context, requestID int) ([]core.ListVersion, error)
	CurrentVersion(ctx context.Context, requestID int) (*core.ListVersion, error)
	HCPIDs(ctx context.Context, versionID int) (map[string]struct{}, error)
	EntriesForVersion(ctx context.Context, table string, versionID int) ([]map[string]any, error)
	AddVersion(ctx context.Context, requestID int, changeType, rationale, createdBy string) (*core.ListVersion, error)
	InsertEntries(ctx context.Context, table string, versionID int, items []map[string]any) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns requests with their current version attached.
func (s *Service) List(ctx context.Context, subdomainID, limit int) ([]core.ListRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	requests, err := s.repo.ListRequests(ctx, subdomainID, limit)
	if err != nil {
		return nil, err
	}
	for i := range requests {
		version, err := s.repo.CurrentVersion(ctx, requests[i].RequestID)
		if err != nil {
			return nil, err
		}
		requests[i].CurrentVersion = version
	}
	return requests, nil
}

// Get returns a request with its current version and snapshot items.
func (s *Service) Get(ctx context.Context, requestID int) (*core.ListDetail, error) {
	lr, err := s.repo.GetListRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	detail := &core.ListDetail{ListRequest: *lr}

	version, err := s.repo.CurrentVersion(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return detail, nil
	}
	detail.CurrentVersion = version

	table, ok := entryTables[lr.SubdomainName]
	if !ok {
		return detail, nil
	}
	entries, err := s.repo.EntriesForVersion(ctx, table, version.VersionID)
	if err != nil {
		return nil, err
	}
	detail.CurrentSnapshot = entries
	return detail, nil
}

func (s *Service) Create(ctx context.Context, lr *core.ListRequest) (*core.ListRequest, error) {
	if lr.SubdomainID == 0 {
		return nil, fmt.Errorf("%w: subdomain_id is required", ErrValidation)
	}
	if lr.RequesterName == "" {
		return nil, fmt.Errorf("%w: requester_name is required", ErrValidation)
	}
	if lr.RequestPurpose == "" {
		return nil, fmt.Errorf("%w: request_purpose is required", ErrValidation)
	}
	if lr.Status == "" {
		lr.Status = "In Progress"
	}
	return s.repo.CreateListRequest(ctx, lr)
}

// Update applies field updates, dropping immutable columns.
func (s *Service) Update(ctx context.Context, requestID int, fields map[string]any) error {
	delete(fields, "request_id")
	delete(fields, "created_at")
	return s.repo.UpdateListRequest(ctx, requestID, fields)
}

func (s *Service) Delete(ctx context.Context, requestID int) error {
	return s.repo.DeleteListRequest(ctx, requestID)
}

// AddItems appends items to a list as a brand-new version.
func (s *Service) AddItems(ctx context.Context, requestID int, items []map[string]any, updatedBy string) (*core.ListVersion, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items provided", ErrValidation)
	}
	if updatedBy == "" {
		updatedBy = "Unknown"
	}

	lr, err := s.repo.GetListRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	table, ok := entryTables[lr.SubdomainName]
	if !ok {
		return nil, fmt.Errorf("%w: no entry table for subdomain %q", ErrValidation, lr.SubdomainName)
	}

	version, err := s.repo.AddVersion(ctx, requestID, "Additions", "Items added via API", updatedBy)
	if err != nil {
		return nil, err
	}
	if err := s.repo.InsertEntries(ctx, table, version.VersionID, items); err != nil {
		return nil, err
	}
	return version, nil
}

// AnalyzeChanges diffs consecutive target-list versions by hcp_id and
// reports the version with the most churn.
func (s *Service) AnalyzeChanges(ctx context.Context, requestID int) (*core.ChangeAnalysis, error) {
	versions, err := s.repo.Versions(ctx, requestID)
	if err != nil {
		return nil, err
	}

	analysis := &core.ChangeAnalysis{Comparisons: []core.VersionComparison{}}
	if len(versions) < 2 {
		return analysis, nil
	}

	prev, err := s.repo.HCPIDs(ctx, versions[0].VersionID)
	if err != nil {
		return nil, err
	}

	mostDynamicTotal := -1
	for i := 1; i < len(versions); i++ {
		curr, err := s.repo.HCPIDs(ctx, versions[i].VersionID)
		if err != nil {
			return nil, err
		}

		added, removed := diff(prev, curr)
		total := added + removed
		analysis.Comparisons = append(analysis.Comparisons, core.VersionComparison{
			FromVersion: versions[i-1].VersionNumber,
			ToVersion:   versions[i].VersionNumber,
			Added:       added,
			Removed:     removed,
			Total:       total,
		})

		if total > mostDynamicTotal {
			mostDynamicTotal = total
			analysis.MostDynamicVersion = versions[i].VersionNumber
			analysis.MostDynamicTotal = total
		}

		prev = curr
	}

	return analysis, nil
}

// diff counts ids present only in curr (added) and only in prev (removed).
func diff(prev, curr map[string]struct{}) (added, removed int) {
	for id := range curr {
		if _, ok := prev[id]; !ok {
			added++
		}
	}
	for id := range prev {
		if _, ok := curr[id]; !ok {
			removed++
		}
	}
	return added, removed
}

var _ Repository = (*postgres.ListsRepo)(nil)
