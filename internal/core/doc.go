// Package core provides the feed-generation engine.
//
// This package holds all domain logic independent of HTTP and of the
// concrete spreadsheet and commerce clients. Collaborators are reached
// through [sheet.Reader], [InventoryLookup], [HistoryStore] and [Publisher],
// so handlers and tests can supply their own.
//
// # Architecture
//
//   - Control map: [BuildControlMap] turns the Feed Control List into a
//     [ControlMap] keyed by Import column name. Each entry is enabled or not
//     and routed to a [Channel] by its target name.
//   - Normalizer: [CleanPrice], [ConvertLength], [ConvertWeight],
//     [EscapeMarkup] and [ProcessTagValue] are total functions. A bad cell
//     degrades to 0, null or its raw text; it never fails a feed.
//   - Offer feed: [BuildOffers] and [RenderOffersXML].
//   - Stock feed: [BuildStockFeed], with [DispatchPolicy] and
//     [ParseDeliveryMethods] supplying values shared by every entry.
//   - Reconciliation: [Reconcile] joins requested SKUs with inventory
//     records by priority and lists unmatched SKUs.
//
// # Feed Build Pipeline
//
// Every [Service] call is a two-phase pipeline:
//
//  1. The needed sheet ranges are fetched concurrently.
//  2. Once the SKU column is resolved, inventory is fetched in one batched
//     call.
//
// A failure in either phase aborts the build with a single error. Nothing
// is cached between calls.
//
// # Error Handling
//
// Failures are typed ([ConfigError], [SchemaError], [UpstreamError]) and
// mapped to support codes by [MapError] and to HTTP statuses by [HTTPStatus].
//
// # History
//
// Builds are recorded through a [HistoryStore]. [PgHistoryStore] keeps them
// in Postgres and [Service.StartHistoryScheduler] purges old rows.
package core
