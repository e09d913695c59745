// Package domain defines the core types for the campaign archive and report passes.
//
// Types in this package are pure value objects with no behavior, no network
// dependencies, and no filesystem concerns. They are the shared language between
// the API client, the archiver, the matcher and the report assembler.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No http.Client, no *os.File, no context.Context in struct fields
//   - JSON tags are allowed (they're metadata, not behavior)
//   - Derivation methods are allowed (they're pure functions on the type)
//   - Constants and enums belong here
package domain
