// Package mockservices contains in-memory versions of the AgroWeb productos, carrito and usuarios
// services. They implement just enough of each API for the clients and suites to be tested, and
// for the harness to be run with no live deployment.
package mockservices

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

const maxRequestBodySize = 1 << 20

var errNotAnObject = errors.New("request body must be a JSON object")

func writeJSON(w http.ResponseWriter, status int, body ldvalue.Value) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body.JSONString()))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ldvalue.ObjectBuild().Set("error", ldvalue.String(message)).Build())
}

func isJSONContentType(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// readObject decodes the request body, which must be a JSON object.
func readObject(r *http.Request) (ldvalue.Value, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		return ldvalue.Null(), err
	}
	var v ldvalue.Value
	if err := json.Unmarshal(body, &v); err != nil {
		return ldvalue.Null(), err
	}
	if v.Type() != ldvalue.ObjectType {
		return ldvalue.Null(), errNotAnObject
	}
	return v, nil
}

// newRouter returns a router whose unmatched requests get JSON error bodies in the style of the
// service.
func newRouter(notFound, methodNotAllowed http.HandlerFunc) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = notFound
	router.MethodNotAllowedHandler = methodNotAllowed
	return router
}

// statusRecorder remembers the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(data []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(data)
}
