package appfs

import "embed"

// FS holds the SQL migrations and the email and web templates.
//
//go:embed migrations/*.sql templates/email/* templates/web/*
var FS embed.FS
