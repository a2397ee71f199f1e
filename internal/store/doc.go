// Package store provides the SQLite-backed message log behind the backlog
// and search commands.
//
// The store is an append-only log with a single table:
//
//	log(time, who, where, message, type)
//
// with secondary indexes on time, who, where and type. Entries are never
// updated or deleted.
//
// # Self-authored messages
//
// A NULL who means "written by the user who owns this log". It is exposed
// as the tagged Author value (Own or Other) and resolved to a nick only at
// the read boundary, by whoever renders the row.
//
// # Unicode functions and collations
//
// Every connection is opened through a dedicated driver whose ConnectHook
// installs the casefold functions in place of SQLite's ASCII-only ones:
// lower(), upper(), LIKE and the NOCASE and FOLD collations.
//
// The text columns of log are declared COLLATE LOGTEXT. The hook defines
// LOGTEXT from the store's Collation: the case-fold comparator for
// CollationFolded (the default) or byte order for CollationBinary. That
// one choice, made when the store is opened, sets equality, ordering and
// index order for every comparison against those columns. Expressions that
// carry no column collation (COALESCE, functions) must say COLLATE LOGTEXT
// themselves. Opening a database with the other collation rebuilds its
// indexes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - single connection: one writer, statements run in arrival order
//
// Schema changes are embedded goose migrations. Logs written before
// migrations existed are adopted: the first migration creates only what
// is missing, and the table rebuild that adds LOGTEXT keeps every row and
// its rowid.
package store
