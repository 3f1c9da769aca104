// Package core defines the shared language of the treegrid system.
//
// This package contains:
//   - Domain entities (Record, MoveEvent, Row)
//   - Paging types (PageRequest, PageResult)
//   - View state owned by callers (ExpansionSet)
//   - Service interfaces (Store)
//   - Error kinds shared by every surface
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
