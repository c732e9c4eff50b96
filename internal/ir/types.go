package ir

// Entry is one immutable fact in the ledger.
type Entry struct {
	ID        string `json:"id"` // UUIDv7, tie-breaker for equal timestamps
	Verb      Verb   `json:"verb"`
	ContextID string `json:"context_id"` // Scoping key; not referentially enforced
	Key       string `json:"key"`        // Interaction target for relate/react/communicate
	Value     string `json:"value"`      // Emoji for react, message body for communicate
	Timestamp string `json:"timestamp"`  // TimestampLayout, assigned at insert
}

// Filter is a ledger query request.
//
// Verb is a verb name or VerbAll. Key and Value accept a "like:" prefix for
// substring matching; Value also accepts "json:<field>=<literal>" to match a
// field of a JSON-encoded value. Since and Until are inclusive bounds in
// TimestampLayout; a date-only Until runs to the end of that day. Limit and
// Offset apply per verb table; Limit 0 means DefaultLimit.
type Filter struct {
	Verb      string `json:"verb" yaml:"verb"`
	ContextID string `json:"context_id,omitempty" yaml:"context_id,omitempty"`
	Key       string `json:"key,omitempty" yaml:"key,omitempty"`
	Value     string `json:"value,omitempty" yaml:"value,omitempty"`
	Since     string `json:"since,omitempty" yaml:"since,omitempty"`
	Until     string `json:"until,omitempty" yaml:"until,omitempty"`
	Limit     int    `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// DefaultLimit is the per-table row limit when Filter.Limit is zero.
const DefaultLimit = 100

// MatchMode selects how a key or value filter is compared.
type MatchMode int

const (
	// MatchExact compares for equality.
	MatchExact MatchMode = iota
	// MatchLike matches a substring.
	MatchLike
	// MatchJSONField compares one field of a JSON object value.
	MatchJSONField
)

// String returns the filter prefix name of the mode.
func (m MatchMode) String() string {
	switch m {
	case MatchLike:
		return "like"
	case MatchJSONField:
		return "json"
	default:
		return "exact"
	}
}

// Match is a parsed key or value filter.
type Match struct {
	Mode  MatchMode
	Field string // JSON field name, MatchJSONField only
	Text  string // Literal compared against the column or field
}

// Keys is the persisted key material of an identity.
type Keys struct {
	PublicKey           string `json:"public_key"`
	EncryptedPrivateKey string `json:"encrypted_private_key"`
	CreatedAt           string `json:"created_at"`
}

// IdentitySummary is the public view of an identity record.
type IdentitySummary struct {
	Username  string `json:"username"`
	PublicKey string `json:"public_key"`
	CreatedAt string `json:"created_at"`
}
