// Package store persists identities, their phone and card numbers, and the
// operator roster in SQLite.
//
// The query layer is deliberately small: Insert, SelectWhere, ExistsWhere,
// and UpdateHandle, all built from relation and column names checked against
// the known schema with every value bound as a parameter. Predicates are
// equality comparisons joined by a single AND/OR combinator; the system never
// needs range queries.
//
// Each call outside WithTx commits before it returns. Callers that must write
// several rows as a unit (a draft commit with many phones, say) open a Tx via
// WithTx. Transactions start IMMEDIATE so two writers serialize instead of
// deadlocking on lock upgrade, and the identity primary key makes concurrent
// merges for the same id converge on one record.
//
// The numeric identity id is the only stable join key. Handles are advisory:
// the store may hold a handle that now belongs to someone else, and
// reconciling that is the resolution engine's job, not this package's.
package store
