package diagnostics

// Store persists teardown reports for leak auditing.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a report. Overwrites a report with the same ID.
	Save(report Report) error

	// Load retrieves a report by ID.
	// Returns ErrNotFound if the report doesn't exist.
	Load(id string) (Report, error)

	// List returns all reports for a registry name, oldest first.
	// Returns empty slice (not error) if there are none.
	List(registry string) ([]Report, error)

	// Delete removes a report.
	// Returns nil if the report doesn't exist.
	Delete(id string) error

	// Close releases any resources (connections, files).
	Close() error
}
