// Package tokenstore provides persistent storage abstractions for session credentials.
//
// Supports four storage backends with different security and deployment tradeoffs:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Bolt: Embedded bbolt database, useful when several client tools share one state file
//   - Env: Read-only environment variable access (requires external secret management)
//
// Stores hold an opaque string. Interactive login needs writable storage (file, keyring
// or bolt); env storage only serves pre-provisioned sessions.
package tokenstore
