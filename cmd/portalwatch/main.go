// Package main provides the entry point for the portalwatch CLI.
//
// portalwatch logs in to the legacy broadcast management portal, reads the
// policy-violation list and the management announcements, and mails them.
//
// Usage:
//
//	portalwatch init
//	portalwatch run [config...]
//	portalwatch history --list
//
// See --help for all available options.
package main

// main is the entry point for portalwatch.
func main() {
	Execute()
}
