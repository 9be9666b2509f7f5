// Package soundcloud implements the api-v2 client used to resolve references
// into track and collection records.
//
// # Classification
//
// [Locator.Classify] normalizes a user-supplied reference (short-link
// resolution, mobile-host rewrite, query/fragment stripping) and derives its
// [Kind] from ordered pattern rules. Unknown references fail with
// [shared.ErrUnknownReference] without aborting sibling inputs.
//
// # Client credential
//
// The api-v2 endpoints require a client ID that is not issued through any
// developer program; it is embedded in the web app's script bundles.
// [Client.Connect] scrapes the discover page for bundle URLs and races the
// probes through [FirstSuccess], keeping the first extracted ID and
// cancelling the rest. The ID is discovered once per process and shared
// read-only afterwards.
//
// # Pagination
//
// Collection listings return a cursor (next_href) per page. [Pager] issues
// exactly one request per [Pager.Next] call and reports completion after the
// page that carries no cursor. A pager is not restartable mid-stream; callers
// restart by constructing a new one.
//
// # Error handling
//
// The track-by-id endpoint intermittently serves HTML from its JSON route.
// [Client.Track] treats the content-type mismatch as transient and retries
// on a fixed delay until the context is cancelled. [Client.StreamURL]
// implements the same unbounded policy for rate-limited (429) and otherwise
// non-200 stream lookups.
package soundcloud
