// Package dataprocessing turns extracted disclosure rows into typed line
// items and rolls joined line items up per operator and region.
//
// # Components
//
//  1. Normalizer: derives quarter and year from the archive name, parses the
//     opening and closing balances, computes and classifies the delta and
//     cleans the description text.
//  2. Aggregator: groups joined records by (legal name, region) and computes
//     the total, count and mean of their deltas.
//
// # Amount format
//
// Balances follow a single explicit contract, see ParseAmount. A value
// that does not satisfy it fails the whole run with ErrInvalidAmount; it is
// never coerced to zero.
//
// # Data Flow
//
//	RawRow → Normalizer → LineItem → (registry join) → JoinedRecord → Aggregator → Aggregate
package dataprocessing
