// Package core provides the tabular transform pipeline behind DataForge.
//
// This package holds all domain logic independent of any UI or transport
// layer. It is used by the web handlers and the batch CLI without
// modification.
//
// # Pipeline
//
// Each uploaded file flows through the same stages, and every stage is a pure
// function returning a new value:
//
//  1. [Ingest] resolves a [Format] from the filename once and parses the
//     stream into a [Dataset].
//  2. [Clean] applies [OpRemoveDuplicates] or [OpFillMissing].
//  3. [Shape] keeps, orders, and renames columns per a [ColumnSelection].
//  4. [ChartSpecs] derives declarative [ChartSpec] values from column kinds.
//  5. [Export] serializes to CSV or Excel as an [ExportArtifact].
//
// [Summarize] and [Head] feed the preview; they are not part of the data flow.
//
// # Sessions
//
// Callers that need to remember a "current" Dataset per file keep it in a
// [SessionStore], keyed by session ID then file ID. The store swaps Dataset
// references; it never mutates a Dataset in place.
//
// # Error Handling
//
// Errors are sentinel values or typed errors that wrap a cause. Use
// errors.Is and errors.As to inspect them, and [MapError] to turn one into a
// user-facing message with a support code:
//
//   - FILE001-FILE007: Upload and parse errors
//   - COL001-COL004: Column selection errors
//   - CLN001: Cleaning errors
//   - CHT001-CHT002: Chart errors (CHT001 is a warning)
//   - EXP001-EXP003: Export errors
//   - SES001, UPL001-UPL005, RATE001: Session and request errors
//
// Batch callers use [ProcessBatch] so one bad file never aborts the others.
package core
