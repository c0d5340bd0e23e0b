package config

const (
	// MaxTreeDepth bounds how deep a single tree request may resolve.
	// Open folders only resolve one level of children, so this only
	// matters for malformed hierarchies.
	MaxTreeDepth = 32

	// ChildConcurrency is how many child folders of one open node are
	// resolved in parallel.
	ChildConcurrency = 4

	// MaxSearchLength is the maximum length of search input.
	MaxSearchLength = 200

	// MaxPathLength is the maximum length of a route path used to start a
	// workspace.
	MaxPathLength = 2048

	// DBMaxConns and DBMinConns size the PostgreSQL pool.
	DBMaxConns = 25
	DBMinConns = 5
)
