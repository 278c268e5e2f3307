// Package model defines the value types shared by the SEO check engine.
//
// This package contains the following main types:
//   - Check: one rule evaluation with its Status
//   - CategorizedResult and Summary: the aggregated view consumed by UIs
//   - Snapshot and Metadata: the inputs of an evaluation
//   - LinkRecord and Progress: broken-link verification state
//
// The types live in their own package because the checker, aggregate,
// linkcheck, override and report packages all need them.
package model
