// Package migrations embeds the goose SQL migrations that define the
// relational schema: users, sessions, and messages.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
