// Package log provides logging for urlport, built on top of the
// standard slog package.
//
// The scanner logs URLs found in source trees, and such URLs routinely
// embed credentials in their query strings (api_key=..., token=...).
// The RedactHandler masks credential-bearing query parameters before
// records reach the underlying handler, so sharing a verbose log never
// leaks a secret that was hardcoded in the scanned project.
//
// Usage:
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Info("url detected",
//	    "url", "https://dev.example.com/api?token=abc123", // token masked
//	)
//	slog.SetDefault(logger)
package log
