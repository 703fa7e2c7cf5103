// Package portal implements the client-side session core for the
// Scholarspace academic portal: authentication against the portal's REST
// backend, durable session persistence, an observable session lifecycle, and
// the navigation gates that enforce role-based access.
//
// Session lifecycle:
//   - SessionContext is the single process-wide observable of "who is logged
//     in". It starts in the initializing state, hydrates from the SessionStore,
//     and moves between anonymous and authenticated through login, logout, and
//     profile updates. All mutations are atomic with respect to readers and a
//     subscriber fan-out notifies consumers on every transition.
//
// Gates:
//   - NavigationGate composes the first-login gate (instructors flagged for a
//     forced password change are routed to the change-password flow before
//     anything else) with the route authorization gate (case-insensitive role
//     membership, redirecting denied principals to their role's home).
//
// Storage:
//   - BunStore persists the session and bearer token in a local SQLite
//     key/value table via Bun, the durable analogue of the browser portal's
//     localStorage. MemoryStore offers the same contract for tests and
//     ephemeral embedders.
package portal
