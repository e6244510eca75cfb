package http

import (
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
	"github.com/zgjsxx/st-http-proxy/http/mime"
	"github.com/zgjsxx/st-http-proxy/http/status"
)

// Error replies to the request with the status text of the code as a plain-text
// body. Finalization stays with the connection loop.
func Error(w ResponseWriter, code status.Code) error {
	return ErrorMessage(w, code, string(status.Text(code)))
}

// ErrorMessage replies to the request with the specified error message and code.
// The message should be plain text.
func ErrorMessage(w ResponseWriter, code status.Code, message string) error {
	w.Header().SetContentType(mime.Plain)
	w.Header().SetContentLength(int64(len(message)))
	w.WriteHeader(code)

	return w.Write(uf.S2B(message))
}

// WriteJSON marshals the model and replies with it as an application/json body.
// Used by the API-style handlers of the streaming server.
func WriteJSON(w ResponseWriter, code status.Code, model any) error {
	body, err := json.ConfigCompatibleWithStandardLibrary.Marshal(model)
	if err != nil {
		return err
	}

	w.Header().SetContentType(mime.JSON)
	w.Header().SetContentLength(int64(len(body)))
	w.WriteHeader(code)

	return w.Write(body)
}
