package core

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrDone is returned by Paginator.Next once every record has been yielded.
var ErrDone = errors.New("core: no more records")

type PaginatorState int

const (
	PaginatorReady PaginatorState = iota
	PaginatorFetching
	PaginatorExhausted
	PaginatorFailed
)

func (s PaginatorState) String() string {
	switch s {
	case PaginatorReady:
		return "ready"
	case PaginatorFetching:
		return "fetching"
	case PaginatorExhausted:
		return "exhausted"
	case PaginatorFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Paginator is a forward-only, lazy sequence over one paginated resource.
// A page is requested only when the buffered records run out. Once exhausted
// or failed it stays that way; ask the Entity for a fresh Paginator to start
// over.
//
// A Paginator is not safe for concurrent use.
type Paginator struct {
	client   *Client
	path     string
	resource Resource
	pageSize int

	state        PaginatorState
	page         int
	cursor       string
	buffer       []Record
	index        int
	pagesFetched int
	err          error
}

func newPaginator(client *Client, path string, resource Resource) *Paginator {
	pageSize := DefaultPageSize
	if client != nil && client.config.PageSize > 0 {
		pageSize = client.config.PageSize
	}
	return &Paginator{
		client:   client,
		path:     path,
		resource: resource,
		pageSize: pageSize,
		state:    PaginatorReady,
		page:     1,
	}
}

func (p *Paginator) Resource() Resource { return p.resource }

func (p *Paginator) State() PaginatorState { return p.state }

func (p *Paginator) PagesFetched() int { return p.pagesFetched }

// Next returns the next record, fetching a page first when the buffer is
// empty. It returns ErrDone at the end of the sequence. After a failed fetch the
// same error is returned on every call.
func (p *Paginator) Next(ctx context.Context) (Record, error) {
	if p == nil || p.client == nil {
		return nil, newInternalError("bankconnect: paginator is not bound to a client")
	}
	for {
		if p.index < len(p.buffer) {
			record := p.buffer[p.index]
			p.buffer[p.index] = nil
			p.index++
			return record, nil
		}
		switch p.state {
		case PaginatorExhausted:
			return nil, ErrDone
		case PaginatorFailed:
			return nil, p.err
		case PaginatorFetching:
			return nil, newInternalError("bankconnect: paginator is already fetching")
		}
		if err := p.fetch(ctx); err != nil {
			p.state = PaginatorFailed
			p.err = err
			p.buffer = nil
			p.index = 0
			return nil, err
		}
	}
}

// All adapts the paginator to a range-over-func sequence. A failure is
// yielded once as the final pair.
func (p *Paginator) All(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			record, err := p.Next(ctx)
			if errors.Is(err, ErrDone) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

// Take consumes at most limit records. A limit of zero or less drains the
// sequence.
func (p *Paginator) Take(ctx context.Context, limit int) ([]Record, error) {
	records := []Record{}
	for record, err := range p.All(ctx) {
		if err != nil {
			return records, err
		}
		records = append(records, record)
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

func (p *Paginator) fetch(ctx context.Context) error {
	p.state = PaginatorFetching
	params := map[string]any{"page_size": p.pageSize}
	if p.cursor != "" {
		params["cursor"] = p.cursor
	} else {
		params["page"] = p.page
	}

	body, err := p.client.Request(ctx, http.MethodGet, p.path, params)
	if err != nil {
		return err
	}
	page, err := decodePage(body, p.resource)
	if err != nil {
		return err
	}
	p.pagesFetched++
	p.buffer = page.records
	p.index = 0

	switch {
	case page.nextCursor != "":
		p.advanceCursor(page.nextCursor)
	case len(page.records) == 0:
		p.state = PaginatorExhausted
	case page.nextLink != "":
		p.followLink(page.nextLink)
	case page.hasMore:
		p.advancePage(p.page + 1)
	default:
		p.state = PaginatorExhausted
	}
	return nil
}

func (p *Paginator) advanceCursor(cursor string) {
	if cursor == p.cursor {
		p.state = PaginatorExhausted
		return
	}
	p.cursor = cursor
	p.state = PaginatorReady
}

// advancePage moves to page. A paginator already following cursors cannot
// fall back to page numbers, so it stops instead.
func (p *Paginator) advancePage(page int) {
	if p.cursor != "" || page <= p.page {
		p.state = PaginatorExhausted
		return
	}
	p.page = page
	p.state = PaginatorReady
}

// followLink carries the cursor or page of the service's next URL forward.
// A next value that is not a URL only signals that another page exists.
func (p *Paginator) followLink(link string) {
	parsed, err := url.Parse(link)
	if err != nil || (parsed.Scheme == "" && parsed.RawQuery == "") {
		p.advancePage(p.page + 1)
		return
	}
	query := parsed.Query()
	if cursor := strings.TrimSpace(query.Get("cursor")); cursor != "" {
		p.advanceCursor(cursor)
		return
	}
	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			p.state = PaginatorExhausted
			return
		}
		p.advancePage(page)
		return
	}
	p.state = PaginatorExhausted
}

type pageEnvelope struct {
	records    []Record
	nextCursor string
	nextLink   string
	hasMore    bool
}

// decodePage accepts a bare JSON array, holding the only page, or an object
// carrying the records under results, data, or the resource name.
// Continuation comes from next_cursor, the next URL, or has_more.
func decodePage(body any, resource Resource) (pageEnvelope, error) {
	switch typed := body.(type) {
	case nil:
		return pageEnvelope{}, nil
	case []any:
		records, err := decodeRecords(typed, resource)
		return pageEnvelope{records: records}, err
	case map[string]any:
		var items []any
		found := false
		for _, key := range []string{"results", "data", resource.String()} {
			if list, ok := typed[key].([]any); ok {
				items = list
				found = true
				break
			}
		}
		if !found {
			return pageEnvelope{}, malformedPageError(resource, "page carries no record list")
		}
		records, err := decodeRecords(items, resource)
		if err != nil {
			return pageEnvelope{}, err
		}
		page := pageEnvelope{records: records}
		if cursor, ok := typed["next_cursor"].(string); ok {
			page.nextCursor = strings.TrimSpace(cursor)
		}
		switch next := typed["next"].(type) {
		case nil:
		case string:
			page.nextLink = strings.TrimSpace(next)
		default:
			page.hasMore = true
		}
		if more, ok := typed["has_more"].(bool); ok && more {
			page.hasMore = true
		}
		return page, nil
	default:
		return pageEnvelope{}, malformedPageError(resource, "page is neither an object nor an array")
	}
}

func decodeRecords(items []any, resource Resource) ([]Record, error) {
	records := make([]Record, 0, len(items))
	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			return nil, malformedPageError(resource, "page entry is not an object")
		}
		records = append(records, Record(object))
	}
	return records, nil
}

func malformedPageError(resource Resource, reason string) error {
	return NewTransientServiceError(nil, "bankconnect: malformed "+resource.String()+" page: "+reason, http.StatusBadGateway, map[string]any{
		"resource": resource.String(),
	})
}
