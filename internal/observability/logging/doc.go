// Package logging builds the process logger.
//
// LOG_LEVEL selects debug, info, warn or error (default info). LOG_FORMAT
// selects json (default) or text. Both binaries call NewLogger once and
// install the result with slog.SetDefault.
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//	logger.Info("api starting", slog.String("version", version))
package logging
