package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/signalmesh/alertgate/internal/config"
	apperrors "github.com/signalmesh/alertgate/internal/errors"
)

// PayloadGuard bounds and decodes inbound request bodies before any routing
// or normalization work happens.
type PayloadGuard struct {
	maxBytes int64
}

func NewPayloadGuard(maxBytes int64) *PayloadGuard {
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxBodyBytes
	}
	return &PayloadGuard{maxBytes: maxBytes}
}

// Decode enforces the size cap and content-type policy and returns the
// request payload as canonical JSON. JSON bodies pass through byte for byte;
// form bodies decode to an object of key/value pairs; multipart uploads are
// refused outright. The size cap cuts the read off at the limit instead of
// materializing oversized bodies.
func (g *PayloadGuard) Decode(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		// Monitoring webhooks overwhelmingly send JSON; a missing header is
		// treated as such rather than refused.
		ct = "application/json"
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return nil, apperrors.NewUnsupportedContentType("unparseable content type %q", ct)
	}

	switch mediaType {
	case "application/json", "text/json":
	case "application/x-www-form-urlencoded":
	case "multipart/form-data", "multipart/mixed":
		return nil, apperrors.NewUnsupportedContentType("file uploads are not accepted")
	default:
		return nil, apperrors.NewUnsupportedContentType("unsupported content type %q", mediaType)
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, g.maxBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.NewPayloadTooLarge("request body exceeds %d bytes", g.maxBytes)
		}
		return nil, apperrors.NewMalformedPayload("read request body: %v", err)
	}

	if mediaType == "application/x-www-form-urlencoded" {
		return decodeForm(body)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		// Empty bodies arrive from probes and heartbeat integrations; they
		// ingest as an empty object.
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(body) {
		return nil, apperrors.NewMalformedPayload("request body is not valid json")
	}
	return json.RawMessage(body), nil
}

// decodeForm converts a urlencoded body into a JSON object. Repeated keys
// keep their first value.
func decodeForm(body []byte) (json.RawMessage, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, apperrors.NewMalformedPayload("invalid form body: %v", err)
	}
	form := make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			form[key] = vals[0]
		} else {
			form[key] = ""
		}
	}
	data, err := json.Marshal(form)
	if err != nil {
		return nil, apperrors.NewMalformedPayload("encode form body: %v", err)
	}
	return data, nil
}
