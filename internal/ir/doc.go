// Package ir provides the value and identity types shared by every layer of
// the store.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps value representation the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Values are a sealed set of variants (Null, String, Int, Float, Bool, Ref)
//   - Record identity is a 32-bit unsigned ID; NoID (0) is never allocated
//   - Canonical JSON sorts keys by UTF-16 code units and NFC-normalizes strings
//   - No reflection: dispatch is always a type switch over the sealed variants
package ir
