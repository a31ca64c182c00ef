package sbhttptest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"

	"pgregory.net/rapid"

	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
)

func MethodGenerator() *rapid.Generator[string] {
	return rapid.SampledFrom([]string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodPatch,
	})
}

func UrlGenerator() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		return "/" + rapid.StringMatching(`[a-z]{1,10}(/[a-z]{1,10}){0,3}`).Draw(t, "path")
	})
}

func HeadersGenerator() *rapid.Generator[http.Header] {
	return rapid.Custom(func(t *rapid.T) http.Header {
		headers := http.Header{}
		names := rapid.SliceOfN(rapid.StringMatching(`X-[A-Za-z]{1,10}`), 0, 5).Draw(t, "names")
		for _, name := range names {
			headers.Set(name, rapid.StringMatching(`[a-zA-Z0-9]{0,20}`).Draw(t, "value"))
		}
		return headers
	})
}

func RequestGenerator(recorder *httptest.ResponseRecorder) *rapid.Generator[*sbhttpbase.Request] {
	return rapid.Custom(func(t *rapid.T) *sbhttpbase.Request {
		body := rapid.SliceOf(rapid.Byte()).Draw(t, "body")
		return requestGeneratorHelper(t, recorder, bytes.NewBuffer(body))
	})
}

func RequestWithBodyGenerator(recorder *httptest.ResponseRecorder, body io.Reader) *rapid.Generator[*sbhttpbase.Request] {
	return rapid.Custom(func(t *rapid.T) *sbhttpbase.Request {
		return requestGeneratorHelper(t, recorder, body)
	})
}

func requestGeneratorHelper(t *rapid.T, recorder *httptest.ResponseRecorder, body io.Reader) *sbhttpbase.Request {
	request := &sbhttpbase.Request{
		PathPattern: rapid.String().Draw(t, "path"),
		Writer:      recorder,
		Request: httptest.NewRequest(
			MethodGenerator().Draw(t, "method"),
			UrlGenerator().Draw(t, "target"),
			body,
		),
		Params: rapid.MapOf(rapid.String(), rapid.String()).Draw(t, "params"),
	}
	request.Request.Header = HeadersGenerator().Draw(t, "header")
	return request
}

func OkHandlerGenerator() *rapid.Generator[sbhttpbase.HandleFunc] {
	return rapid.Custom(func(t *rapid.T) sbhttpbase.HandleFunc {
		headers := HeadersGenerator().Draw(t, "headers")
		body := rapid.SliceOf(rapid.Byte()).Draw(t, "body")

		return func(request *sbhttpbase.Request) {
			io.Copy(io.Discard, request.Request.Body)
			request.Request.Body.Close()

			writer := request.Writer
			for k, vals := range headers {
				writer.Header().Del(k)
				for _, v := range vals {
					writer.Header().Add(k, v)
				}
			}
			writer.WriteHeader(http.StatusOK)
			writer.Write(body)
		}
	})
}
