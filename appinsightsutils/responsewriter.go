package appinsightsutils

import "net/http"

// ResponseWriterWithStatusCode is a wrapper around http.ResponseWriter that
// captures the status code and the number of body bytes written
type ResponseWriterWithStatusCode struct {
	http.ResponseWriter
	statusCode   int
	wroteHeader  bool
	bytesWritten int
}

func NewResponseWriterWithStatusCode(w http.ResponseWriter) *ResponseWriterWithStatusCode {
	return &ResponseWriterWithStatusCode{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *ResponseWriterWithStatusCode) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *ResponseWriterWithStatusCode) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

func (w *ResponseWriterWithStatusCode) StatusCode() int {
	return w.statusCode
}

func (w *ResponseWriterWithStatusCode) BytesWritten() int {
	return w.bytesWritten
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *ResponseWriterWithStatusCode) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
