package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

// errMalformedBody marks JSON bodies that cannot be parsed. It is not a
// validation failure and surfaces as an internal fault.
var errMalformedBody = errors.New("malformed json body")

// payloadAPI keeps numbers as text so out-of-range literals still decode and
// are rejected by name validation rather than by the parser.
var payloadAPI = sonic.Config{UseNumber: true}.Froze()

// decodePayload reads a JSON request body. Requests that are not
// application/json, have an empty body, or carry a top-level array yield a
// nil payload. Bodies that are not a JSON object or array, or fail to parse,
// return errMalformedBody; read failures (such as an exceeded body limit)
// are returned unchanged.
func decodePayload(c echo.Context) (map[string]any, error) {
	req := c.Request()
	ct := strings.ToLower(req.Header.Get(echo.HeaderContentType))
	if !strings.HasPrefix(ct, echo.MIMEApplicationJSON) || req.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] != '{' && data[0] != '[' {
		return nil, fmt.Errorf("%w: top-level value must be an object or array", errMalformedBody)
	}
	var v any
	if err := payloadAPI.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	payload, _ := v.(map[string]any)
	return payload, nil
}
