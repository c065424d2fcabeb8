/*
Package pipeline implements the phase state machine of the refit orchestrator.

The Controller validates transition preconditions, invokes the phase executor,
records results and applies approval/rejection decisions. It never blocks
waiting for a human: reaching awaiting-approval persists the state record and
returns control to the caller, so the process may terminate and resume later
purely by re-reading the store.
*/
package pipeline
