// Package registry fetches the ANS operator registry (CADOP) and enriches
// normalized line items with each operator's legal name, category and region.
//
// The join is a left join on the digits-only tax ID: every input line item
// appears exactly once in the output, in input order. When the registry
// cannot be reached the run continues unenriched instead of failing.
package registry
