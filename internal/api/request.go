package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
)

var (
	errUnsupportedMediaType = errors.New("request body must be JSON with Content-Type application/json")
	errMalformedBody        = errors.New("malformed JSON body")
)

// decodeDocument reads a JSON object from the request body. A missing body,
// a JSON null or a non-JSON content type is errUnsupportedMediaType.
// Syntactically broken JSON is errMalformedBody. Any other non-object value
// is left for schema validation to reject.
func decodeDocument(r *http.Request) (model.Document, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return nil, errUnsupportedMediaType
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if len(body) == 0 {
		return nil, errUnsupportedMediaType
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedBody, err)
	}

	switch doc := v.(type) {
	case nil:
		return nil, errUnsupportedMediaType
	case map[string]any:
		return model.Document(doc), nil
	default:
		// A nil Document fails validation with a "must be a JSON object" message.
		return nil, nil
	}
}
