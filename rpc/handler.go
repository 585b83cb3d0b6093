package rpc

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

const (
	jsonrpcVersion = "2.0"
	// maxRequestBytes bounds how much of a request body is read. Even
	// large batches stay far below this.
	maxRequestBytes = 5 << 20
)

// jsonrpcMessage is the wire shape of a single request or response.
type jsonrpcMessage struct {
	Version string              `json:"jsonrpc,omitempty"`
	ID      jsoniter.RawMessage `json:"id,omitempty"`
	Method  string              `json:"method,omitempty"`
	Params  jsoniter.RawMessage `json:"params,omitempty"`
	Result  interface{}         `json:"result,omitempty"`
	Error   *jsonError          `json:"error,omitempty"`
}

// jsonError is the error object of a failed call.
type jsonError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// response shapes a successful result into a reply to msg.
func (msg *jsonrpcMessage) response(result interface{}) *jsonrpcMessage {
	return &jsonrpcMessage{Version: jsonrpcVersion, ID: msg.ID, Result: result}
}

// errorResponse shapes a method failure into a reply to msg, honoring
// errors that carry their own code or data.
func (msg *jsonrpcMessage) errorResponse(err error) *jsonrpcMessage {
	e := &jsonError{Code: serverErrorCode, Message: err.Error()}
	if ec, ok := err.(interface{ ErrorCode() int }); ok {
		e.Code = ec.ErrorCode()
	}
	if de, ok := err.(interface{ ErrorData() interface{} }); ok {
		e.Data = de.ErrorData()
	}
	return &jsonrpcMessage{Version: jsonrpcVersion, ID: msg.ID, Error: e}
}

func errorMessage(id jsoniter.RawMessage, code int, message string) *jsonrpcMessage {
	return &jsonrpcMessage{Version: jsonrpcVersion, ID: id, Error: &jsonError{Code: code, Message: message}}
}

// isBatch reports whether the raw body looks like a batch of calls. A
// batch is any payload whose first non-whitespace byte is an opening
// bracket.
func isBatch(raw []byte) bool {
	for _, c := range raw {
		switch c {
		case 0x20, 0x09, 0x0a, 0x0d:
			continue
		}
		return c == '['
	}
	return false
}

// handleHTTP decodes a single call or a batch from the POST body and
// serves each call from verified state. Failures travel as JSON-RPC
// error objects, the transport itself always answers 200.
func (s *Service) handleHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		http.Error(w, "could not read request body", http.StatusInternalServerError)
		return
	}

	if !isBatch(body) {
		var msg jsonrpcMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			writeJSON(w, errorMessage(nil, parseErrorCode, "invalid request body"))
			return
		}
		writeJSON(w, s.dispatch(r.Context(), &msg))
		return
	}

	var msgs []*jsonrpcMessage
	if err := json.Unmarshal(body, &msgs); err != nil {
		writeJSON(w, errorMessage(nil, parseErrorCode, "invalid request body"))
		return
	}
	if len(msgs) == 0 {
		writeJSON(w, errorMessage(nil, invalidRequestCode, "empty batch"))
		return
	}
	resps := make([]*jsonrpcMessage, 0, len(msgs))
	for _, msg := range msgs {
		resps = append(resps, s.dispatch(r.Context(), msg))
	}
	writeJSON(w, resps)
}

// dispatch routes one decoded call to its method handler and shapes the
// outcome into a response.
func (s *Service) dispatch(ctx context.Context, msg *jsonrpcMessage) *jsonrpcMessage {
	if msg.Method == "" {
		return errorMessage(msg.ID, invalidRequestCode, "invalid request")
	}
	handler, ok := s.methods[msg.Method]
	if !ok {
		return errorMessage(msg.ID, methodNotFoundCode, fmt.Sprintf("the method %s does not exist/is not available", msg.Method))
	}
	var params []jsoniter.RawMessage
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return errorMessage(msg.ID, invalidParamsCode, "non-array args")
		}
	}

	rlog := log.WithFields(logrus.Fields{"method": msg.Method, "requestId": requestID()})
	rlog.Debug("Serving JSON-RPC request")
	result, err := handler(ctx, params)
	if err != nil {
		rlog.WithError(err).Debug("JSON-RPC request failed")
		return msg.errorResponse(err)
	}
	if result == nil {
		result = jsoniter.RawMessage("null")
	}
	return msg.response(result)
}

// requestID tags the log lines of one call so interleaved requests stay
// tellable apart.
func requestID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return "unknown"
	}
	return id.String()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Could not encode JSON-RPC response")
	}
}
