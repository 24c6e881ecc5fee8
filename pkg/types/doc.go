// Package types holds the public data model shared by the traversal engine
// and its consumers: RegistryEntry and Value (the traversal output),
// RegType, the RegistryError taxonomy and hive diagnostics.
package types
