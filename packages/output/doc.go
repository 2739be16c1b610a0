// Package output renders run results for people and for files.
//
// Console streams one line per exchange to the terminal while the run is in
// progress; WriteReport persists the full record list as a JSON array once
// the run is over. Two runs against identical server behavior produce
// byte-identical reports except for the timing fields.
package output
