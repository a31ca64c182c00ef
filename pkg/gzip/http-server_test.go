package lgzip

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
	sbhttptest "github.com/mltrack/mltrack/pkg/serverbase/http/test"
)

func TestCompressResponseInterceptor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		recorder := httptest.NewRecorder()
		request := sbhttptest.RequestGenerator(recorder).Draw(t, "request")
		request.Request.Header.Set("Accept-Encoding", "gzip")
		handler := sbhttptest.OkHandlerGenerator().Draw(t, "handler")

		HttpServerCompressResponseInterceptor()(request, handler)

		assert.Equal(t, "gzip", recorder.Header().Get("content-encoding"))
		reader, err := gzip.NewReader(recorder.Body)
		assert.Nil(t, err)
		_, err = io.ReadAll(reader)
		assert.Nil(t, err)
	})
}

func TestCompressResponseSkippedWithoutAcceptEncoding(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := &sbhttpbase.Request{
		Writer:  recorder,
		Request: httptest.NewRequest("GET", "/ping", nil),
	}

	HttpServerCompressResponseInterceptor()(request, func(request *sbhttpbase.Request) {
		request.Writer.WriteHeader(200)
		request.Writer.Write([]byte("plain"))
	})

	assert.Empty(t, recorder.Header().Get("content-encoding"))
	assert.Equal(t, "plain", recorder.Body.String())
}

func TestDecompressRequestInterceptor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		body := rapid.SliceOf(rapid.Byte()).Draw(t, "body")

		var compressed bytes.Buffer
		writer := gzip.NewWriter(&compressed)
		_, err := writer.Write(body)
		assert.Nil(t, err)
		assert.Nil(t, writer.Close())

		recorder := httptest.NewRecorder()
		request := sbhttptest.RequestWithBodyGenerator(recorder, &compressed).Draw(t, "request")
		request.Request.Header.Set("Content-Encoding", "gzip")

		HttpServerDecompressRequestInterceptor()(request, func(request *sbhttpbase.Request) {
			received, err := io.ReadAll(request.Request.Body)
			assert.Nil(t, err)
			if len(body) == 0 {
				assert.Equal(t, 0, len(received))
			} else {
				assert.Equal(t, body, received)
			}
			request.Writer.WriteHeader(200)
		})

		assert.Equal(t, 200, recorder.Code)
	})
}

func TestDecompressRequestRejectsCorruptBody(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := &sbhttpbase.Request{
		Writer:  recorder,
		Request: httptest.NewRequest("POST", "/upload", bytes.NewReader([]byte("not gzip"))),
	}
	request.Request.Header.Set("Content-Encoding", "gzip")

	HttpServerDecompressRequestInterceptor()(request, func(request *sbhttpbase.Request) {
		t.Fatalf("handler must not run on corrupt input")
	})
	assert.Equal(t, 400, recorder.Code)
}
