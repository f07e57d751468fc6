package transport

import (
	"net/http"

	"github.com/goliatone/go-bankconnect/core"
	goerrors "github.com/goliatone/go-errors"
)

// requestError reports a request the adapter refused to send.
func requestError(source error, message string, metadata map[string]any) error {
	return envelope(source, message, goerrors.CategoryBadInput, http.StatusBadRequest, core.ErrorInvalidArgument, metadata)
}

// exchangeError reports a failure while talking to the service or reading
// its answer. The client treats these as transient.
func exchangeError(source error, message string, metadata map[string]any) error {
	return envelope(source, message, goerrors.CategoryExternal, http.StatusBadGateway, core.ErrorServiceUnavailable, metadata)
}

func configurationError(message string) error {
	return envelope(nil, message, goerrors.CategoryInternal, http.StatusInternalServerError, core.ErrorInternal, map[string]any{"adapter": KindREST})
}

func envelope(source error, message string, category goerrors.Category, code int, textCode string, metadata map[string]any) error {
	var err *goerrors.Error
	if source != nil {
		err = goerrors.Wrap(source, category, message)
	} else {
		err = goerrors.New(message, category)
	}
	err = err.WithCode(code).WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
