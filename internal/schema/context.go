// Package schema holds the static, human-readable description of the list
// management database. The text is passed verbatim into query-generation
// prompts; nothing in the pipeline depends on its internal structure.
package schema

// Context describes tables, views and reasoning hints for the query composer.
const Context = `
SYSTEM OVERVIEW
This database powers a list management and evolution tracking system for
healthcare professionals (HCPs). Lists evolve through numbered versions and
are connected to business requests, sales activity and audit logs.

CORE TABLES

domains
  High-level business domains (e.g. "Cardiology", "Oncology").
  Use to categorize or filter requests by domain.

subdomains
  Subdivisions under each domain; each subdomain belongs to one domain.

list_requests
  A business request for creating or updating a list of HCPs.
  Columns: requester_name, request_purpose, status, assigned_to, created_at.
  Use to answer "who requested what and why".

list_versions
  Tracks the evolution of each request via numbered versions.
  Columns: request_id, version_number, change_type, change_rationale,
  created_by, is_current.
  Use to see how a list evolved and who made each change.

target_list_entries
  HCPs (doctors) in each list version; the core list data.
  Columns: hcp_id, hcp_name, specialty, territory, tier.

call_list_entries
  Planned or completed sales rep calls to HCPs.
  Columns: hcp_id, hcp_name, call_date, sales_rep, status.

competitor_target_entries
  Competitor engagements with HCPs.
  Columns: hcp_name, competitor_product, conversion_potential, assigned_rep.

digital_engagement_entries
  Digital outreach contacts.
  Columns: contact_name, email, specialty, opt_in.

formulary_decision_maker_entries
  Contacts who make formulary or approval decisions.
  Columns: contact_name, organization, influence_level.

high_value_prescriber_entries
  HCPs with high prescription or revenue volume.
  Columns: hcp_name, total_prescriptions, revenue, value_tier.

idn_health_system_entries
  Health systems / hospital networks and their key contacts.
  Columns: system_name, contact_name, importance.

work_logs
  Audit trail of all activity.
  Columns: worker_name, activity_description, decisions_made, activity_date.

VIEWS

view_request_context      - requests joined with versions, domains, work logs.
view_target_list_full     - list_versions joined with target_list_entries.
view_list_evolution       - how a list changed over time, with rationale.
v_current_state_target_list - original vs current HCPs (Added/Removed/Modified).
view_work_attribution     - who contributed to which request or version.

RELATIONSHIPS
domains (1) --< subdomains (1) --< list_requests (1) --< list_versions
list_versions (1) --< target_list_entries / call_list_entries / other entries
list_requests (1) --< work_logs

QUERY HINTS
"current list", "latest version", "HCPs"  -> view_target_list_full
"changes", "differences", "what changed"  -> v_current_state_target_list or view_list_evolution
"who requested", "purpose"                -> list_requests or view_request_context
"who made updates", "history"             -> work_logs or view_work_attribution
"competitor", "market", "conversion"      -> competitor_target_entries
"sales call", "rep performance"           -> call_list_entries
"decision makers", "formulary"            -> formulary_decision_maker_entries
"high value", "top doctors"               -> high_value_prescriber_entries
"hospitals", "systems", "network"         -> idn_health_system_entries

BEST PRACTICES
1. Join through foreign keys; never guess implicit relations.
2. Prefer views for business queries (joins already done).
3. Use ILIKE for user search terms.
4. Prefer informative columns over raw ids.
`
