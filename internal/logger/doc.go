// Package logger wraps zap for the release tooling:
//   - a global sugared logger writing a compact console format,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the --log-level flag,
//   - leveled helpers (Info, InfoKV, ErrorKV, ...) that read the logger from ctx.
//
// Services receive a context and log through it, so every line carries the
// binary name and whatever run-scoped fields were attached upstream.
package logger
