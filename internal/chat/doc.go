// Package chat orchestrates generation turns over persisted threads.
//
// # Turn lifecycle
//
// SendMessage persists the triggering user message first, then streams one
// model turn through an event channel (text, tool_call, tool_result,
// confirmation_required, done, error). Tool calls execute through the
// registry between model rounds, bounded by maxToolRounds. The assistant
// message is persisted only when the turn finishes with non-empty text,
// using a detached context so a client disconnect yields
// fully-persisted-or-absent, never partial.
//
// # Confirmation handshake
//
// A tool call that needs confirmation (confirm_action, or cell_update
// without confirmed:true) records an in-memory PendingCall keyed by the
// tool-call id and ends the turn. No worker ever blocks on human input:
// the resolution arrives later through ResolveToolCall, which starts a new
// turn carrying the tool result. Confirmed cell updates re-execute with
// the confirmed flag injected; cancellations feed a structured
// cancellation result back to the model.
//
// # Edits
//
// EditMessage replaces a message's content in place (id, role, timestamp
// preserved), deletes everything in the thread created strictly after it,
// and regenerates from the truncated history. A failed regeneration does
// not restore the deleted messages.
//
// At most one turn per thread is expected at a time, but this is not
// enforced; concurrent sends on one thread can interleave their persisted
// messages.
package chat
