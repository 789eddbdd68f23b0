package mcp

import (
	"bytes"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/vacay/internal/errors"
)

// decode converts tool arguments into T through a JSON round trip.
// Unknown argument names and type mismatches are INVALID_REQUEST.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, errors.NewInvalidRequest("invalid arguments: " + err.Error())
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&result); err != nil {
		return result, errors.NewInvalidRequest("invalid arguments: " + err.Error())
	}
	return result, nil
}
