// Package log builds the slog logger used by seocheck. Its SecureHandler
// masks credentials before they reach the output.
//
// The REST backend authenticates with a WordPress nonce or an application
// password, and both can end up in log attributes: a failed request logs
// its URL, a debug line may log headers. SecureHandler redacts:
//   - attributes whose key names a credential (authorization, x-wp-nonce,
//     password, application_password, cookie, ...)
//   - values that look like one (Basic/Bearer headers, JWTs, application
//     passwords, WordPress login cookies)
//   - credentials embedded in URLs (user:password@ and _wpnonce=)
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
