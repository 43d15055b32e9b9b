// Command cheatdb is the operator CLI: it checks identifiers against the
// database, files reports interactively, imports and exports text
// documents, manages operators, and runs the HTTP daemon.
//
// Every command except serve works against the local database directly.
package main
