// Package migrations embeds the SQL files that build the chat room schema
// (participants and messages).
package migrations

import "embed"

// FS holds the embedded up/down migration files.
//
//go:embed *.sql
var FS embed.FS
