// Package config loads and validates portalwatch profiles.
//
// A profile is a YAML or JSON5 file naming the portal account, how to reach
// the portal, how to solve captchas and where to mail the report. A
// "<name>.local.<ext>" sibling overrides it, which keeps secrets out of a
// shared file.
package config
