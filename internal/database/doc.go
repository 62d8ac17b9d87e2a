// Package database provides SQLite-based run history for portalwatch.
//
// History stores every finished run as a JSON report together with a few
// indexed columns (profile, timestamps, outcome, entry counts), so that
// runs can be listed cheaply and two successful runs can be diffed.
package database
