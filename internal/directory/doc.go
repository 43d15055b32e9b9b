// Package directory resolves handles and numeric ids against the platform
// directory (the VK users.get method) to learn an account's canonical id,
// its current handle, and whether it has been banned.
//
// The resolution engine depends only on the Lookup interface; Client is the
// production implementation and tests substitute a stub.
package directory
