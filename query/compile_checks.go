package query

import (
	"github.com/goliatone/go-bankconnect/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[GetIdentityMessage, core.Record]   = (*GetIdentityQuery)(nil)
	_ gocmd.Querier[ListRecordsMessage, []core.Record] = (*ListRecordsQuery)(nil)
)
