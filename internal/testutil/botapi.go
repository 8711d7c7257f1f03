package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// BotParams returns the parameters of a Bot API request as strings, whatever
// encoding the client chose. Nested objects come back as their JSON text.
func BotParams(r *http.Request) (map[string]string, error) {
	params := map[string]string{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case mediaType == "application/json":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		for k, v := range raw {
			switch vv := v.(type) {
			case string:
				params[k] = vv
			case json.Number, bool:
				params[k] = fmt.Sprint(vv)
			default:
				enc, _ := json.Marshal(vv)
				params[k] = string(enc)
			}
		}
	case strings.HasPrefix(mediaType, "multipart/"):
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return nil, err
		}
		for k, v := range r.MultipartForm.Value {
			params[k] = v[0]
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for k, v := range r.PostForm {
			params[k] = v[0]
		}
	}
	return params, nil
}

// BotOK writes a successful Bot API envelope around result, which must be JSON.
func BotOK(w http.ResponseWriter, result string) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"ok":true,"result":`+result+`}`)
}

// BotError writes a failed Bot API envelope.
func BotError(w http.ResponseWriter, code int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"ok":          false,
		"error_code":  code,
		"description": description,
	})
}
