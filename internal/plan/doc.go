// Package plan implements the adoption plan engine: instantiating customer
// tasks from entitled templates, computing weighted progress, driving status
// transitions (manual and telemetry triggered), reconciling plans against
// updated templates, and rolling product plans up into solution plans.
//
// The engine functions operate on in-memory aggregates and take the current
// time as a parameter. Persistence lives behind the Store interface, with a
// JSON file implementation (FileStore) and a sqlite one (SQLiteStore).
//
// Import rules:
//   - CAN import: internal/constants, internal/domain, internal/errors,
//     internal/entitlement, internal/criteria, internal/flock, internal/ctxutil
//   - MUST NOT import: internal/adoption, internal/cli
package plan
