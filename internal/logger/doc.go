// Package logger wraps zap for the packager and the setup binaries:
//   - a global sugared logger writing console lines to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the --log-level flag.
//
// Services receive a context and pull the logger from it, so every line
// carries the name of the binary and the step that produced it.
package logger
