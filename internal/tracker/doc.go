// Package tracker keeps a local view of a long-running pipeline job
// consistent with the backend's true state.
//
// # Update channels
//
// Two independent, individually unreliable channels feed the tracker:
//
//  1. [Listener] : a per-job websocket subscription delivering
//     incremental events (progress, stage_complete, video_ready,
//     complete, error). Low latency, no reconnect — a dropped or
//     never-opened stream degrades the tracker to poll-only.
//  2. [Poller] : a fixed-interval status pull. The channel of last
//     resort; it alone is guaranteed to terminate tracking when the
//     push channel is silent.
//
// # Reconciliation
//
// The [Engine] merges both channels into one authoritative [State].
// The merge is idempotent and order-tolerant: only legal forward moves
// in the canonical stage ordering are applied, the displayed percent
// never regresses, failed is reachable from any non-terminal stage, and
// nothing leaves a terminal stage. Duplicate terminal deliveries (once
// per channel) are absorbed; the artifact fetch fires exactly once.
//
// # Persistence and resumption
//
// While a job is non-terminal its snapshot is written through to the
// per-project store on every change and deleted on termination. On
// mount, [Engine.Resume] tries the persisted snapshot first (discarding
// stale, foreign-scope, or terminal records) and falls back to querying
// the backend for an in-flight job in the same project.
//
// Every channel start is paired with a guaranteed stop: job
// termination, [Engine.Reset], and [Engine.Close] all tear down the
// stream and the poll loop.
package tracker
