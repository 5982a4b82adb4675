// Package logging provides structured logging for Mökkiwahti.
//
// It wraps log/slog. The json format is meant for log shippers; the text
// format is rendered by tint and is coloured only when writing to a
// terminal. Every entry carries service and version fields.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
package logging
