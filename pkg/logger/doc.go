/*
Package logger provides structured logging for dbwalk. It wraps uber-go/zap
behind a small interface with verbosity levels and field-based context.

Basic Usage:

	log := logger.NewLogger(logger.Config{
	    Verbosity: 0,               // INFO and above
	    Name:      "dbwalk.loader", // diagnostic category
	})

	log.Info("Load pass started")
	log.Debug("Classifying root")  // verbosity >= 1
	log.Trace("Visiting entry")    // verbosity >= 2

Verbosity Levels:

	0: Info, Warn, Error (default)
	1: Debug + Level 0
	2: Trace + Level 1

Structured Logging:

	log.WithFields(logger.Fields{
	    "domain": "dbwalk.loader",
	    "path":   "/home/u/.config/dbwalk/db",
	}).Warn("Skipping inaccessible path")

Output Example (JSON):

	{
	    "level": "warn",
	    "ts": "2024-01-20T15:04:05.000Z",
	    "logger": "dbwalk.loader",
	    "message": "Skipping inaccessible path",
	    "domain": "dbwalk.loader",
	    "path": "/home/u/.config/dbwalk/db"
	}

Set Format to "console" for human-oriented output on a terminal.

The logger is safe for concurrent use by multiple goroutines.
*/
package logger
