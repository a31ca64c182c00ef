// Package restapi exposes the tracking service over the
// /api/2.0/mltrack REST namespace.
package restapi

import (
	"encoding/json"

	"github.com/gorilla/schema"

	lhttp "github.com/mltrack/mltrack/pkg/http"
	sbhttp "github.com/mltrack/mltrack/pkg/serverbase/http"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
)

const apiPrefix = "/api/2.0/mltrack"

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	decoder.SetAliasTag("json")
	return decoder
}

func decodeJSON(request *sbhttpbase.Request, v interface{}) error {
	if err := json.NewDecoder(request.Request.Body).Decode(v); err != nil {
		return lhttp.NewBadRequest("malformed request body: " + err.Error())
	}
	return nil
}

func decodeQuery(request *sbhttpbase.Request, v interface{}) error {
	if err := request.Request.ParseForm(); err != nil {
		return lhttp.NewBadRequest("malformed query string")
	}
	if err := queryDecoder.Decode(v, request.Request.Form); err != nil {
		return lhttp.NewBadRequest("malformed query parameters: " + err.Error())
	}
	return nil
}

func writeError(request *sbhttpbase.Request, err error) {
	herr := lhttp.FromError(err)
	if herr.Err != nil {
		sbhttp.ReturnError(request.Writer, 500, "internal server error", herr.Err)
		return
	}
	sbhttp.ReturnError(request.Writer, herr.Code, herr.Message, herr)
}

func writeJSON(request *sbhttpbase.Request, v interface{}) {
	sbhttp.WriteJson(request.Writer, 200, v)
}
