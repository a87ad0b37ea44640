// Package logging provides the run log for lockdir.
//
// Every event is appended to the configured log file as one line:
//
//	2024-05-01 13:37:42 - INFO - Encrypted /home/alice/notes.txt
//
// The log is the only record of a run's outcome: the process exits zero
// even when individual files failed, so partial failures are discovered
// by inspecting the log, not the exit status.
//
// Console output mirrors the log with colored level prefixes. Warnings
// and errors always reach stderr; info lines reach stdout only with
// --verbose.
package logging
