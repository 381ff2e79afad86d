package models

// Institute is an entry of the `institutes` collection, keyed by abbreviation.
type Institute struct {
	Abbreviation string   `json:"abbreviation" toml:"abbreviation"`
	Name         string   `json:"name" toml:"name"`
	Faculties    []string `json:"faculties" toml:"faculties"`
}
