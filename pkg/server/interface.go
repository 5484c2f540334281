package server

// IPC message types. The stdio transport uses MessagePack with short field
// names; records travel as their original JSON bytes so clients keep full
// round-trip fidelity.

// Request is one incoming IPC message.
type Request struct {
	ID       string `msgpack:"id"`
	Op       string `msgpack:"op"` // "search", "autocomplete", "get", "health"
	Query    string `msgpack:"q,omitempty"`
	Limit    int    `msgpack:"l,omitempty"`
	RecordID int64  `msgpack:"rid,omitempty"`
}

// SearchResponse answers a "search" request.
type SearchResponse struct {
	ID        string   `msgpack:"id"`
	Query     string   `msgpack:"q"`
	Count     int      `msgpack:"c"`
	Results   [][]byte `msgpack:"r"`
	TimeTaken int64    `msgpack:"t"`
}

// AutocompleteResponse answers an "autocomplete" request.
type AutocompleteResponse struct {
	ID          string   `msgpack:"id"`
	Query       string   `msgpack:"q"`
	Suggestions []string `msgpack:"s"`
	TimeTaken   int64    `msgpack:"t"`
}

// RecordResponse answers a "get" request.
type RecordResponse struct {
	ID     string `msgpack:"id"`
	Record []byte `msgpack:"rec"`
}

// HealthResponse answers a "health" request.
type HealthResponse struct {
	ID        string `msgpack:"id"`
	Status    string `msgpack:"status"`
	TotalKeys int64  `msgpack:"total_keys"`
}

// ErrorResponse reports a failed request. Codes follow HTTP conventions.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
