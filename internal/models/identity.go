package models

// Identity is the caller record supplied by the host's session layer,
// normalized at the boundary. The core trusts it completely and never
// performs credential checks of its own.
type Identity struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}
