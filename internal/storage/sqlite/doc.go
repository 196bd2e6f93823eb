// Package sqlite persists strike decisions to a SQLite database.
//
// Schema changes are managed by golang-migrate using the SQL files embedded
// from migrations/. Planning code never touches SQL directly; it hands
// finished decisions to a DecisionStore.
package sqlite
