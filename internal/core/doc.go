// Package core is the PropScrub session service.
//
// It owns everything between an uploaded file and a cleaned export, and is
// independent of any transport: the web server and tests drive it directly.
//
// # Sessions
//
// Each uploaded file becomes an in-memory session holding the parsed table.
// A session moves through these phases:
//
//  1. imported: headers detected, a mapping is suggested via [scrub.AutoMap]
//  2. scrubbing: [Service.StartScrub] charges the balance, takes a slot from
//     the [ScrubLimiter] and runs [scrub.Run] in the background
//  3. complete, failed or cancelled: rows are committed only on completion
//
// Progress is broadcast to subscribers via [Service.SubscribeProgress].
// Idle sessions are swept after the configured TTL.
//
// # Persistence
//
// Mapping templates, scrub history and balances live behind [Store]. The
// server uses [NewPostgresStore]; tests use [NewMemoryStore].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a code for support reference:
//
//   - FILE001-FILE006: File errors (size, format, encoding, empty)
//   - MAP001-MAP006: Mapping and slot count errors
//   - SCRUB001-SCRUB006: Session and scrub lifecycle errors
//   - BAL001-BAL002: Balance and purchase errors
//   - CRM001-CRM004: GoHighLevel errors
//   - LOOK001-LOOK002: Phone lookup errors
package core
