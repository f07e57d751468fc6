package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[CreateEntityMessage] = (*CreateEntityCommand)(nil)
	_ gocmd.Commander[ExportEntityMessage] = (*ExportEntityCommand)(nil)
)
