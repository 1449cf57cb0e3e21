// Package timeouts defines timeout constants shared by playlog commands.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// MetadataRequest caps a single call to the remote board-game metadata API.
const MetadataRequest = 10 * time.Second

// Migrate is the default overall deadline for a migration run.
const Migrate = time.Minute

// Audit is the default overall deadline for a schema audit run.
const Audit = 30 * time.Second
