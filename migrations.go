// Package duesbook holds assets shared by the binaries, such as the embedded
// SQL migrations.
package duesbook

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose SQL migrations rooted at the migrations
// directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		// the directory is embedded at build time
		panic(err)
	}

	return sub
}
