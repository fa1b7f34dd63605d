package adminform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cast"
)

func firstOr[T any](as []T, or ...T) T {
	if len(as) > 0 {
		return as[0]
	}
	if len(or) > 0 {
		return or[0]
	}
	var t T
	return t
}

// Ensure value avoid error/bool trouble
func must[T any](v T, frs ...any) T {
	if len(frs) == 0 {
		return v
	}

	// try: func() (x, error)
	err, ok := frs[len(frs)-1].(error)
	if ok && err != nil {
		panic(err)
	}

	if !ok {
		// try: func() (x, bool)
		if b, ok := frs[len(frs)-1].(bool); ok && !b {
			panic("not ok")
		}
	}
	return v
}

// Input paired args, like: a,b,c,d return "a=b&c=d"
func pairToQuery(args ...any) url.Values {
	uv := url.Values{}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			panic(fmt.Errorf("paired-args key not string %v", args[i]))
		}

		// `Add` is better than `Set`
		uv.Add(key, cast.ToString(args[i+1]))
	}
	return uv
}

// Merge b to a
func merge[K comparable, V any](a, b map[K]V) map[K]V {
	for k, v := range b {
		a[k] = v
	}
	return a
}

const (
	ContentTypeJson     = "application/json; charset=utf-8"
	ContentTypeUtf8Html = "text/html; charset=utf-8"
	ContentTypeJs       = "text/javascript; charset=utf-8"
)

func ReplyJson(w http.ResponseWriter, status int, o any) {
	w.Header().Set("content-type", ContentTypeJson)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(o); err != nil {
		panic(err)
	}
}

// Cache http.ResponseWriter, Output Cookie after handler finished
func NewBufferWriter(w http.ResponseWriter, f func(http.ResponseWriter)) *bufferWriter {
	return &bufferWriter{
		buf:         bytes.NewBuffer([]byte{}),
		w:           w,
		beforeFlush: f}
}

type bufferWriter struct {
	buf    *bytes.Buffer
	status int

	// origin `ResponseWriter`
	w http.ResponseWriter

	// excute before flush, eg. Set-Cookie
	beforeFlush func(http.ResponseWriter)
}

func (B *bufferWriter) Write(p []byte) (n int, err error) {
	return B.buf.Write(p)
}

func (B *bufferWriter) Header() http.Header {
	return B.w.Header()
}

// status is hold until Flush, headers may still change before that
func (B *bufferWriter) WriteHeader(statusCode int) {
	if B.status == 0 {
		B.status = statusCode
	}
}

func (B *bufferWriter) Flush() {
	if B.beforeFlush != nil {
		B.beforeFlush(B.w)
	}
	if B.status != 0 {
		B.w.WriteHeader(B.status)
	}
	B.w.Write(B.buf.Bytes())
	if f, ok := B.w.(http.Flusher); ok {
		f.Flush()
	}
}
