// Package core provides the business logic for the UDI record editor.
//
// This package holds all domain logic independent of any UI or transport
// layer. It can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Architecture
//
// The package is organized around a few concepts:
//
//   - Records: a [Record] is one medical device entry. [Validate] derives
//     its errors, warnings and status and never fails.
//   - Store: a [Store] is the working set with a single edit cursor,
//     column filters, lock toggles and bulk edit.
//   - Ingest: an [Ingester] turns an uploaded file or a demo request into
//     a [ValidatedBatch]. Only the latest request may apply its result.
//   - History: a [HistoryStore] keeps the last ten batches behind a
//     [HistoryPort] supplied by the persistence layer.
//   - Service: a [Service] composes the above into one goroutine-safe
//     session for the HTTP layer.
//
// # Ingest Flow
//
//  1. Client calls [Service.StartIngest] with a [Source]
//  2. The extension and size are checked synchronously
//  3. A goroutine waits out the processing delay, parses and validates
//  4. If no newer request arrived, the batch replaces the working set
//     and is appended to history
//
// # Validation Rules
//
// Device identifier, manufacturer and product name are required. The
// device identifier must be at least [MinDeviceIdentifierLength]
// characters. Dates must be real YYYY-MM-DD calendar dates. An expiration
// date before the production date is a warning, not an error.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: File errors (type, size, content)
//   - VAL001-VAL002: Import gate and lookups
//   - UPL001-UPL004: Ingest errors (superseded, busy, cancelled, timeout)
//   - HIST001: History storage
//
// # Concurrency
//
// [Store] and [GMDNSheet] are not safe for concurrent use. [Service]
// serializes access with a mutex and never calls into the [Ingester]
// while holding it.
package core
