package simctl

import "github.com/ehrlich-b/go-simctl/internal/constants"

// Re-exported defaults for the public API (Driver construction), per
// spec.md §6 "Embedding B program surface": port=5100, timeout_seconds=120.
const (
	DefaultPort       = constants.DefaultPort
	DefaultTimeoutSec = constants.DefaultTimeoutSec
)
