package clients

import (
	"bytes"
	"encoding/json"
	"strconv"

	"tcgsearch_api/internal/tcg/models"
)

// ResponseKind is resolved once per upstream response; callers never look at raw bodies.
type ResponseKind int

const (
	KindStructured ResponseKind = iota
	KindAnomalousHTML
	KindMalformedShape
	KindSoftEmpty
	KindTransportError
)

func (k ResponseKind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindAnomalousHTML:
		return "anomalous_html"
	case KindMalformedShape:
		return "malformed_shape"
	case KindSoftEmpty:
		return "soft_empty"
	case KindTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

type Envelope struct {
	NumFound int
	Docs     []models.RawDocument
}

type Response struct {
	Kind     ResponseKind
	Status   int
	Envelope Envelope
	Err      error
}

type wireEnvelope struct {
	Response *struct {
		NumFound json.Number          `json:"numFound"`
		Docs     []models.RawDocument `json:"docs"`
	} `json:"response"`
}

var htmlMarkers = [][]byte{[]byte("<!doctype html"), []byte("<html")}

// Classify maps a transport outcome to exactly one ResponseKind. HTML is checked
// before the status code: maintenance pages are served with 200 as well as 5xx.
// A body that is neither HTML nor JSON counts as anomalous too.
func Classify(status int, body []byte, err error) Response {
	if err != nil {
		return Response{Kind: KindTransportError, Status: status, Err: err}
	}
	if looksLikeHTML(body) {
		return Response{Kind: KindAnomalousHTML, Status: status}
	}
	if status < 200 || status > 299 {
		return Response{Kind: KindSoftEmpty, Status: status}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var wire wireEnvelope
	if err := dec.Decode(&wire); err != nil {
		return Response{Kind: KindAnomalousHTML, Status: status, Err: err}
	}
	if wire.Response == nil {
		return Response{Kind: KindMalformedShape, Status: status}
	}

	numFound := len(wire.Response.Docs)
	if n, err := strconv.Atoi(wire.Response.NumFound.String()); err == nil && n >= 0 {
		numFound = n
	}
	return Response{
		Kind:     KindStructured,
		Status:   status,
		Envelope: Envelope{NumFound: numFound, Docs: wire.Response.Docs},
	}
}

func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")))
	if len(trimmed) > 32 {
		trimmed = trimmed[:32]
	}
	lower := bytes.ToLower(trimmed)
	for _, marker := range htmlMarkers {
		if bytes.HasPrefix(lower, marker) {
			return true
		}
	}
	return false
}
