package identity

import "github.com/roach88/thisme/internal/ir"

// IdentitySummary is the public view of a stored identity.
type IdentitySummary = ir.IdentitySummary
