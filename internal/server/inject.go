package server

import (
	"bytes"
	"net/http"
	"strings"
)

var scriptTag = []byte(`<script async src="` + ScriptPath + `"></script>`)

// injectScript adds the live-reload client to HTML responses before </body>.
func injectScript(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		inj := &injector{ResponseWriter: w, statusCode: http.StatusOK, maxSize: 4 << 20}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// injector buffers HTML bodies up to maxSize; anything else passes through.
type injector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	headerWritten bool
	passthrough   bool
	maxSize       int
}

func (l *injector) WriteHeader(code int) {
	l.statusCode = code
	if l.passthrough {
		l.ResponseWriter.WriteHeader(code)
		l.headerWritten = true
	}
}

func (l *injector) Write(data []byte) (int, error) {
	if !l.headerWritten && !l.passthrough && l.buffer == nil {
		contentType := l.Header().Get("Content-Type")
		isHTML := strings.Contains(contentType, "text/html")
		if !isHTML || l.statusCode != http.StatusOK {
			l.passthrough = true
			l.ResponseWriter.WriteHeader(l.statusCode)
			l.headerWritten = true
			return l.ResponseWriter.Write(data)
		}
		l.buffer = make([]byte, 0, 64*1024)
	}
	if l.passthrough {
		return l.ResponseWriter.Write(data)
	}
	if len(l.buffer)+len(data) > l.maxSize {
		l.passthrough = true
		l.Header().Del("Content-Length")
		l.ResponseWriter.WriteHeader(l.statusCode)
		l.headerWritten = true
		if _, err := l.ResponseWriter.Write(l.buffer); err != nil {
			return 0, err
		}
		return l.ResponseWriter.Write(data)
	}
	l.buffer = append(l.buffer, data...)
	return len(data), nil
}

func (l *injector) finalize() {
	if l.passthrough || len(l.buffer) == 0 {
		if !l.headerWritten {
			l.ResponseWriter.WriteHeader(l.statusCode)
		}
		return
	}
	out := l.buffer
	if i := bytes.LastIndex(bytes.ToLower(out), []byte("</body>")); i >= 0 {
		out = append(append(append([]byte{}, out[:i]...), scriptTag...), out[i:]...)
	} else {
		out = append(out, scriptTag...)
	}
	l.Header().Del("Content-Length")
	l.ResponseWriter.WriteHeader(l.statusCode)
	_, _ = l.ResponseWriter.Write(out)
}
