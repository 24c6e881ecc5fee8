package types

// Windows registry limits used as traversal defaults.
const (
	// WindowsMaxTreeDepthPractical is the practical limit for registry tree
	// depth. Windows has no hard limit, but nothing real goes deeper.
	WindowsMaxTreeDepthPractical = 512

	// WindowsMaxTreeDepthDeep allows very deep trees for special cases.
	WindowsMaxTreeDepthDeep = 1024

	// WindowsMaxKeyNameLen is the limit for key names, in characters.
	WindowsMaxKeyNameLen = 255

	// WindowsMaxValueNameLen is the limit for value names, in characters.
	WindowsMaxValueNameLen = 16383
)
