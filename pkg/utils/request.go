package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) (int, error) {
	if r.Header.Get("Content-Type") != "application/json" {
		return http.StatusUnsupportedMediaType, fmt.Errorf("Content-Type header is not application/json")
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&dst); err != nil {
		return http.StatusBadRequest, err
	}

	return http.StatusOK, nil
}

// DecodeLenientJSON unmarshals a raw body into a generic map. Mobile SMS
// forwarders often paste message text with literal newlines inside JSON
// string values, which is invalid JSON; when the first parse fails we
// escape bare newlines and retry once before giving up.
func DecodeLenientJSON(r *http.Request) (map[string]interface{}, error) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, 1048576))
	if err != nil {
		return nil, err
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		return payload, nil
	}

	sanitized := escapeBareNewlines(body)
	if err := json.Unmarshal(sanitized, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func escapeBareNewlines(body []byte) []byte {
	var out bytes.Buffer
	inString := false
	escaped := false

	for _, b := range body {
		if escaped {
			out.WriteByte(b)
			escaped = false
			continue
		}
		switch b {
		case '\\':
			escaped = inString
			out.WriteByte(b)
		case '"':
			inString = !inString
			out.WriteByte(b)
		case '\n':
			if inString {
				out.WriteString(`\n`)
			} else {
				out.WriteByte(b)
			}
		case '\r':
			if inString {
				out.WriteString(`\r`)
			} else {
				out.WriteByte(b)
			}
		default:
			out.WriteByte(b)
		}
	}
	return out.Bytes()
}
