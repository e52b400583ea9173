// Package logger provides levelled logging for pkgdoctor commands.
//
// Levels follow the npm names so that a user's existing loglevel setting
// carries over: silly, verbose, info, notice, warn, error and silent.
// The default threshold is notice.
//
// # Verbosity
//
// Two flags adjust the configured level:
//
//   - --verbose: lowers the threshold to info
//   - --debug: lowers the threshold to silly
//
// A silent level wins over both flags.
//
// # Log Methods
//
//	Logger.Debugf()   // silly
//	Logger.Infof()    // info
//	Logger.Noticef()  // notice
//	Logger.Warnf()    // warn
//	Logger.Errorf()   // error
//	Logger.Entry()    // structured key=value line at any level
//
// Debug and info messages go to Out (stdout by default); notice and above
// go to Err (stderr by default).
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug, Level: level}
//	log.Entry(LevelWarn, "doctor", Fields{"check": "cache", "status": "warn"})
package logger
