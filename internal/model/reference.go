package model

// Reference is a client/project record attached to exactly one provider.
type Reference struct {
	ID          string `json:"reference_id"`
	ProviderID  string `json:"provider_id"`
	ClientName  string `json:"client_name"`
	Country     string `json:"country,omitempty"`
	Industry    string `json:"industry,omitempty"`
	ProjectSize string `json:"project_size,omitempty"`
	Timeline    string `json:"timeline,omitempty"`
	Outcomes    string `json:"outcomes,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	Flagged     bool   `json:"flagged,omitempty"`
}
