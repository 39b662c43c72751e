// Package resolve rewrites an annotated document from reviewer decisions.
//
// The engine is a small state machine over one immutable buffer:
//
//	Scanning --span found--> AwaitingDecision --accept/reject--> Scanning
//	Scanning --end of buffer--> Done
//	AwaitingDecision --quit--> Quit
//
// Accepting an addition or rejecting a deletion keeps the payload; accepting
// a deletion or rejecting an addition drops it. Plain text between spans is
// copied verbatim.
package resolve
