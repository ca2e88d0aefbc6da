// Package config loads dbwalk settings from defaults, an optional config file
// and DBWALK_* environment variables, in increasing order of precedence.
//
// # Configuration Loading
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	files, err := loader.New(cfg.LoaderConfig(), fs, reporter, log).LoadAll(cfg.Roots())
//
// # Environment Variables
//
//	DBWALK_SYSTEM_DIR       Shipped database directory (default: /usr/share/dbwalk/db)
//	DBWALK_SYSTEM_OPTIONAL  Tolerate a missing system directory (true/false)
//	DBWALK_LOCAL_DIR        Local override directory (default: /etc/dbwalk/db)
//	DBWALK_USER_DIR         Per-user directory (default: $XDG_CONFIG_HOME/dbwalk/db)
//	DBWALK_EXTENSIONS       Comma-separated file extensions to load (default: .xml)
//	DBWALK_WORKERS          Number of roots walked concurrently (default: 1)
//	DBWALK_RATE_LIMIT       Root walk starts per second (0 for unlimited)
//	DBWALK_MAX_DEPTH        Maximum directory depth (-1 for unlimited)
//	DBWALK_MAX_LINK_DEPTH   Symbolic link hops allowed along one path (default: 8)
//	DBWALK_IGNORE           Comma-separated ignore patterns
//	DBWALK_OUTPUT           Output format: list|tree|json|yaml|toml
//	DBWALK_OUTPUT_FILE      Output file path (empty for stdout)
//	DBWALK_NO_PROGRESS      Disable progress reporting (true/false)
//	DBWALK_NO_COLOR         Disable colored output (true/false)
//	DBWALK_VERBOSE          Verbosity level (number of 'v's or a number)
//	DBWALK_LOG_FORMAT       Log encoding: json|console
//
// # Config File
//
// Any format viper understands works; the keys are the lower-case variable
// names without the prefix:
//
//	system_dir = "/opt/dbwalk/db"
//	extensions = [".xml", ".json"]
//	ignore = ["*.bak", ".git/"]
//
// # Roots
//
// Roots returns the system, local and user directories in that order. The
// system root fails the load when it is missing unless system_optional is set;
// the local and user roots only produce a warning. Empty paths are skipped.
package config
