// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package worker runs a single goroutine that owns some state and is
// reached only through messages.
//
// The goroutine runs a [Loop] that reads [Message] values from its
// inbox until the inbox is closed. Callers either [Worker.Post] a
// message and move on, or [Worker.Request] one and wait for the loop
// to [Message.Reply]. Nothing else touches the loop's state, so it
// needs no locking.
//
// [Worker.Close] closes the inbox, waits for the loop to drain what
// was already queued, and returns the loop's error. Sends after Close,
// or after the loop has returned on its own, fail with [ErrClosed].
package worker
