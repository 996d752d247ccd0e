// Package protocol owns the controller wire contract and parsing primitives.
//
// Ownership boundary:
// - command, architecture, operating-system and status enumerations
// - Connect and LoadModelLibrary payload codecs
// - frame/header primitives live in protocol/frame
// - request/response correlation lives in protocol/session
package protocol
