package sqlstore

import "github.com/goliatone/go-bankconnect/core"

var (
	_ core.RecordSink    = (*ExportStore)(nil)
	_ core.RecordTrimmer = (*ExportStore)(nil)
)
