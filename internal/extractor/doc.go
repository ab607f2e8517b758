// Package extractor reads the quarterly accounting archives published by
// ANS and keeps the rows whose description matches every filter term.
//
// Each archive is a zip file. Members ending in .csv or .txt are parsed as
// delimited text, decoded as UTF-8 unless the bytes are not valid UTF-8,
// in which case they are decoded as ISO-8859-1. Members ending in .xlsx are
// read from their first sheet. Header cells are trimmed and upper-cased so
// lookups by column name are stable across publications.
//
// Unreadable archives and members are logged and skipped; only a missing
// archive directory is an error.
package extractor
