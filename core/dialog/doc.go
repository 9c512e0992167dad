// Package dialog implements a per-conversation finite-state dialogue engine.
// Each workflow is a declarative state graph validated at registration time;
// the engine resolves inbound events against active sessions, runs transition
// actions at most once per event, and serializes all mutations per owner.
// It is transport-agnostic so it can be driven by any update source.
package dialog
