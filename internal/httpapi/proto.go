package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxRequestBody caps protobuf and JSON request bodies. Inbound WhatsApp
// events are a phone, a short text and an optional location.
const maxRequestBody = 16 << 10

const protobufContentType = "application/x-protobuf"

// isProtobuf reports whether the request body is a binary
// google.protobuf.Struct rather than JSON.
func isProtobuf(r *http.Request) bool {
	ct, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
	switch strings.TrimSpace(ct) {
	case protobufContentType, "application/protobuf":
		return true
	}
	return false
}

func readStruct(r *http.Request) (*structpb.Struct, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxRequestBody {
		return nil, fmt.Errorf("body exceeds %d bytes", maxRequestBody)
	}
	var st structpb.Struct
	if err := proto.Unmarshal(body, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func writeStruct(w http.ResponseWriter, status int, st *structpb.Struct) {
	data, err := proto.Marshal(st)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	w.Header().Set("Content-Type", protobufContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
