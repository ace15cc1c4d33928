// Package errors provides coded, actionable errors for the atoms CLI.
//
// Each code (e.g., "A101") maps to a category, a short message, a longer
// explanation and an optional hint. Codes are grouped by range:
//   - A100-A199: configuration
//   - A200-A299: CLI and devtools server
//   - A300-A399: store errors surfaced by the CLI
//
// # Usage
//
//	err := errors.New("A101").Wrap(cause)
//	errors.Print(os.Stderr, err)
//	// Output:
//	// ERROR A101: Config file not found
//	//
//	//   open atoms.json: no such file or directory
//	//
//	//   No atoms.json or atoms.yaml was found in the directory.
//	//
//	//   Hint: Run without --config to use the defaults, ...
//
// FromError maps store sentinels (atom.ErrCyclicDependency and friends) to
// their codes so they print with an explanation.
package errors
