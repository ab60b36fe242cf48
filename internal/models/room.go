package models

// Room is an entry in the read-only room catalog. Restricted rooms are
// visible only to privileged roles; the catalog itself is set by
// configuration and never mutated at runtime.
type Room struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Restricted bool   `json:"restricted" yaml:"restricted"`
}
