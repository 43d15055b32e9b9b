package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Identity describes a stored identity in a transport-friendly format.
type Identity struct {
	ID        int64    `json:"id"`
	Handle    string   `json:"handle,omitempty"`
	Fifty     bool     `json:"fifty"`
	Phones    []string `json:"phones"`
	Cards     []string `json:"cards"`
	Proofs    []string `json:"proofs"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
}

// Draft describes an operator's report in progress.
type Draft struct {
	Operator   int64     `json:"operator"`
	IdentityID int64     `json:"identityId,omitempty"`
	Handle     string    `json:"handle,omitempty"`
	Name       string    `json:"name,omitempty"`
	Banned     bool      `json:"banned"`
	Existing   *Identity `json:"existing,omitempty"`
	Phones     []string  `json:"phones"`
	Cards      []string  `json:"cards"`
	Proofs     []string  `json:"proofs"`
	Fifty      bool      `json:"fifty"`
	UpdatedAt  string    `json:"updatedAt,omitempty"`
}

// Change is one field mutation of a draft.
type Change struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Previous string `json:"previous,omitempty"`
}

// Directive is a handle refresh applied to a stored identity.
type Directive struct {
	IdentityID int64  `json:"identityId"`
	Handle     string `json:"handle"`
}

// Outcome is one resolution pass for an input line.
type Outcome struct {
	Kind        string      `json:"kind"`
	IdentityID  int64       `json:"identityId,omitempty"`
	Handle      string      `json:"handle,omitempty"`
	Banned      bool        `json:"banned,omitempty"`
	HandleDrift bool        `json:"handleDrift,omitempty"`
	Candidates  []int64     `json:"candidates,omitempty"`
	Directives  []Directive `json:"directives,omitempty"`
}

// Line is the result of one input line.
type Line struct {
	Line     int       `json:"line"`
	Category string    `json:"category"`
	Value    string    `json:"value"`
	Outcomes []Outcome `json:"outcomes"`
	Change   *Change   `json:"change,omitempty"`
	Notes    []string  `json:"notes,omitempty"`
}

// InputRequest carries operator text for the draft.
type InputRequest struct {
	Text string `json:"text"`
}

// ApplyResponse is returned after draft input.
type ApplyResponse struct {
	Lines          []Line `json:"lines"`
	Draft          *Draft `json:"draft,omitempty"`
	HandlesUpdated int    `json:"handlesUpdated"`
}

// DraftResponse wraps the current draft.
type DraftResponse struct {
	Draft *Draft `json:"draft"`
}

// CommitResponse wraps the post-merge record.
type CommitResponse struct {
	Identity Identity `json:"identity"`
}

// CheckResponse answers a public lookup.
type CheckResponse struct {
	Query    string     `json:"query"`
	Category string     `json:"category"`
	Value    string     `json:"value"`
	Verdict  string     `json:"verdict"`
	Resolved int64      `json:"resolvedId,omitempty"`
	Banned   bool       `json:"banned,omitempty"`
	Matches  []Identity `json:"matches"`
}

// SkippedLine is an import line that was not used.
type SkippedLine struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// ImportResponse summarises a bulk import.
type ImportResponse struct {
	Imported     []Identity    `json:"imported"`
	Skipped      int           `json:"skipped"`
	SkippedLines []SkippedLine `json:"skippedLines"`
}

// Stats are store counts.
type Stats struct {
	Identities int `json:"identities"`
	Fifty      int `json:"fifty"`
	Phones     int `json:"phones"`
	Cards      int `json:"cards"`
	Operators  int `json:"operators"`
}

// StatusResponse aggregates daemon runtime information.
type StatusResponse struct {
	Running             bool   `json:"running"`
	PID                 int    `json:"pid"`
	DatabasePath        string `json:"databasePath"`
	LockFilePath        string `json:"lockFilePath"`
	DirectoryConfigured bool   `json:"directoryConfigured"`
	Stats               Stats  `json:"stats"`
}

// OperatorRequest names an operator to register.
type OperatorRequest struct {
	ID int64 `json:"id"`
}

// OperatorsResponse lists registered operators.
type OperatorsResponse struct {
	Operators []int64 `json:"operators"`
}

// IdentityResponse wraps a single identity.
type IdentityResponse struct {
	Identity Identity `json:"identity"`
}
