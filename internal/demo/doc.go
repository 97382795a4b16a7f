// Package demo contains small component trees used by the democrat CLI and
// by tests of the inspect server.
package demo
