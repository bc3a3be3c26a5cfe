// Package logger provides structured logging for the scribe service built
// on zerolog. It supports component-tagged loggers, console and JSON output,
// and a global logger for packages without an injected instance.
package logger
