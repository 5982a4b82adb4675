// Package schema validates inbound JSON documents before they reach the
// store. Structural rules come from the JSON Schemas in package model; this
// package additionally enforces the date-time format, which the schema
// engine treats as an annotation only.
package schema
