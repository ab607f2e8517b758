// Package shared holds helpers used across packages that belong to no
// single layer.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler for asserting on log output
//   - fixture builders for disclosure archives (zip files with CSV, TXT
//     and XLSX members, Latin-1 encoded text)
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    dir := t.TempDir()
//	    testutil.WriteZip(t, dir, "1T2025.zip", testutil.CSVMember("a.csv", rows))
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelWarn, "skipped")
//	}
package shared
