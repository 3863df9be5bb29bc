package router

import (
	json "github.com/json-iterator/go"

	"github.com/indigo-web/bitty/http"
	"github.com/indigo-web/bitty/http/mime"
)

// Static returns a route serving a fixed body.
func Static(body []byte, contentType mime.MIME) Route {
	header := mime.Header(contentType)

	return Route{
		Handler: HandlerFunc(func(s *http.Session) {
			s.Header(header)
			s.WriteWhole(body)
		}),
	}
}

// JSON returns a dynamic route rendering the value produced by the function. Values
// that can't be serialized result in 500 Internal Server Error.
func JSON(value func() any) Route {
	header := mime.Header(mime.JSON)

	return Route{
		Dynamic: true,
		Handler: HandlerFunc(func(s *http.Session) {
			data, err := json.ConfigCompatibleWithStandardLibrary.Marshal(value())
			if err != nil {
				internalError(s)
				return
			}

			s.Header(header)
			s.WriteWhole(data)
		}),
	}
}
