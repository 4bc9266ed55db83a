// Package app composes the ledger service into a running application.
//
// The package layout follows a composition-over-business-logic split:
//
//	internal/app/
//	├── application.go      # Application struct, wiring, and lifecycle
//	├── domain/token/       # Persisted record shapes (pure data)
//	├── storage/            # LedgerStore interface, memory and postgres impls
//	├── services/token/     # The ledger service (single writer, journaling)
//	├── events/             # Event publishers (in-memory broadcaster, Redis)
//	├── httpapi/            # REST handlers, auth, rate limiting
//	└── metrics/            # Prometheus collectors
//
// The ledger core itself lives in internal/token and knows nothing about
// storage, HTTP or logging; everything in internal/app exists to host it.
package app
