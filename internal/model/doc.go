// Package model defines the data structures shared by portalwatch packages.
//
// This package contains the following main types:
//   - Credentials: the portal account used for login
//   - TableRow and Record: single extracted entries (HTML rows or JSONP objects)
//   - Entries and WorkflowResult: the two record sets produced by one run
//   - NavigationContext: the state threaded between navigation steps
//   - RunReport: the outcome of one run, consumed by report writers and the history store
//
// The models carry JSON tags so that run reports can be written as JSON and
// stored in the history database.
package model
