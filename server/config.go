package server

import "github.com/mydocta/docta/pkg/prompt"

// Config is the gateway server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// DBPath is the path to the SQLite database file.
	// Empty means in-memory conversation storage only.
	DBPath string

	// Model is the hosted model identifier (e.g., "gemini-1.5-flash").
	Model string

	// APIKey authenticates against the hosted model API. Empty is allowed;
	// chat requests then fail with a configuration error.
	APIKey string

	// Slot names the conversation slot. Empty uses store.DefaultSlot.
	Slot string

	// Params are the fixed generation parameters sent with every request.
	Params prompt.GenerationParams

	// Safety is the fixed content-safety policy sent with every request.
	Safety []prompt.SafetyRule
}
