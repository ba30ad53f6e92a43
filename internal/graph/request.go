package graph

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// maxBodyBytes caps the size of a POSTed GraphQL request.
const maxBodyBytes = 1 << 20

// Request is a GraphQL request as sent over HTTP or in a subscribe message.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// decodeRequest reads a GraphQL request from the query string (GET) or a
// JSON body (POST).
func decodeRequest(w http.ResponseWriter, r *http.Request) (*Request, error) {
	req := &Request{}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if vars := q.Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				return nil, fmt.Errorf("variables are not valid JSON: %w", err)
			}
		}

	case http.MethodPost:
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			return nil, errors.New("use Content-Type application/json for GraphQL requests")
		}
		body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(body).Decode(req); err != nil {
			return nil, fmt.Errorf("not a valid GraphQL request body: %w", err)
		}

	default:
		return nil, errMethodNotAllowed
	}

	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.New("missing query")
	}
	return req, nil
}

var errMethodNotAllowed = errors.New("use GET or POST for GraphQL requests")

// isMutation reports whether the operation selected by operationName is a
// mutation. With no operationName any top-level mutation counts.
func isMutation(document, operationName string) bool {
	tokens := topLevelWords(document)
	for i, tok := range tokens {
		if tok != "mutation" {
			continue
		}
		if operationName == "" {
			return true
		}
		if i+1 < len(tokens) && tokens[i+1] == operationName {
			return true
		}
	}
	return false
}

// topLevelWords returns the names appearing outside any selection set or
// argument list, skipping comments and string literals.
func topLevelWords(document string) []string {
	var (
		words []string
		depth int
		word  strings.Builder
	)

	flush := func() {
		if word.Len() > 0 {
			if depth == 0 {
				words = append(words, word.String())
			}
			word.Reset()
		}
	}

	for i := 0; i < len(document); i++ {
		c := document[i]
		switch {
		case c == '#':
			flush()
			for i < len(document) && document[i] != '\n' {
				i++
			}
		case c == '"':
			flush()
			i++
			for i < len(document) && document[i] != '"' {
				if document[i] == '\\' {
					i++
				}
				i++
			}
		case c == '{' || c == '(':
			flush()
			depth++
		case c == '}' || c == ')':
			flush()
			if depth > 0 {
				depth--
			}
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'):
			word.WriteByte(c)
		default:
			flush()
		}
	}
	flush()

	return words
}
