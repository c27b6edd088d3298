// Package jobqueue persists production jobs in SQLite and exposes helpers
// for driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, stuck-job recovery, and the retry policy
// applied when a production attempt fails. Jobs carry progress fields and the
// recipe payload so the worker can pick up where a previous process left off
// without extra state.
//
// The database is treated as transient storage for in-flight jobs rather
// than a long-term archive. Schema changes bump the version in schema.go;
// users clear the database to adopt the new schema.
package jobqueue
