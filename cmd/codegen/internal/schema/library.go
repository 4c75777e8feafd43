package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/Khan/genqlient/graphql"
	"github.com/suessflorian/gqlfetch"

	"github.com/albertocavalcante/codegen/internal/fsutil"
	"github.com/albertocavalcante/codegen/internal/log"
)

// LibraryFetcher downloads schemas in-process. The endpoint is introspected
// once through a genqlient client; the JSON format is that response, and the
// SDL format is printed from it by gqlfetch.
type LibraryFetcher struct {
	client *http.Client
}

// NewLibraryFetcher creates a LibraryFetcher. A nil client uses http.DefaultClient.
func NewLibraryFetcher(client *http.Client) *LibraryFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &LibraryFetcher{client: client}
}

// Fetch implements Fetcher.
func (f *LibraryFetcher) Fetch(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	logger := log.Component("schema")
	logger.Debug("fetching schema", "endpoint", req.Endpoint, "format", req.Format)

	if req.Format != FormatSDL && req.Format != FormatJSON {
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, req.Format)
	}

	result, err := f.introspect(ctx, req)
	if err != nil {
		return "", err
	}

	var data []byte
	switch req.Format {
	case FormatSDL:
		sdl, err := printSDL(ctx, result)
		if err != nil {
			return "", err
		}
		data = []byte(sdl)
	case FormatJSON:
		var out bytes.Buffer
		if err := json.Indent(&out, result, "", "  "); err != nil {
			return "", err
		}
		out.WriteByte('\n')
		data = out.Bytes()
	}

	path := req.OutputPath()
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", err
	}
	logger.Info("schema written", "path", path, "bytes", len(data))
	return path, nil
}

// headerDoer adds the request's custom headers to every outgoing call.
type headerDoer struct {
	doer   graphql.Doer
	header http.Header
}

func (d headerDoer) Do(r *http.Request) (*http.Response, error) {
	for key, values := range d.header {
		for _, v := range values {
			r.Header.Add(key, v)
		}
	}
	return d.doer.Do(r)
}

// introspect returns the compact {"data": {"__schema": ...}} document.
func (f *LibraryFetcher) introspect(ctx context.Context, req Request) ([]byte, error) {
	client := graphql.NewClient(req.Endpoint, headerDoer{doer: f.client, header: req.Headers})

	var data json.RawMessage
	resp := &graphql.Response{Data: &data}
	err := client.MakeRequest(ctx, &graphql.Request{
		Query:  IntrospectionQuery,
		OpName: "IntrospectionQuery",
	}, resp)
	if err != nil {
		return nil, fmt.Errorf("introspection of %s failed: %w", req.Endpoint, err)
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, errors.New("introspection response has no data")
	}
	return json.Marshal(map[string]json.RawMessage{"data": data})
}

// printSDL renders an introspection result as SDL. gqlfetch only prints from
// a live endpoint and exits the process on transport errors, so the result
// that was already validated is replayed to it over loopback.
func printSDL(ctx context.Context, result []byte) (sdl string, err error) {
	// gqlfetch panics on type kinds it cannot print.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to print schema: %v", r)
		}
	}()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to start schema printer: %w", err)
	}
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(result)
	})}
	go func() { _ = srv.Serve(ln) }()
	defer func() { _ = srv.Close() }()

	endpoint := "http://" + ln.Addr().String()
	sdl, err = gqlfetch.BuildClientSchemaWithHeaders(context.WithoutCancel(ctx), endpoint, make(http.Header), false)
	if err != nil {
		return "", err
	}

	roots, err := parseRootTypes(result)
	if err != nil {
		return "", err
	}
	if def := roots.definition(); def != "" {
		sdl = strings.TrimRight(sdl, "\n") + "\n\n" + def
	}
	return sdl, nil
}

type typeName struct {
	Name string `json:"name"`
}

// rootTypes holds the operation root type names of an introspected schema.
type rootTypes struct {
	Query        string
	Mutation     string
	Subscription string
}

func parseRootTypes(result []byte) (rootTypes, error) {
	var doc struct {
		Data struct {
			Schema struct {
				QueryType        *typeName `json:"queryType"`
				MutationType     *typeName `json:"mutationType"`
				SubscriptionType *typeName `json:"subscriptionType"`
			} `json:"__schema"`
		} `json:"data"`
	}
	if err := json.Unmarshal(result, &doc); err != nil {
		return rootTypes{}, fmt.Errorf("failed to parse introspection result: %w", err)
	}
	name := func(t *typeName) string {
		if t == nil {
			return ""
		}
		return t.Name
	}
	s := doc.Data.Schema
	return rootTypes{
		Query:        name(s.QueryType),
		Mutation:     name(s.MutationType),
		Subscription: name(s.SubscriptionType),
	}, nil
}

// definition returns a schema { ... } block, or "" when every root type uses
// its conventional name and the block can be omitted.
func (r rootTypes) definition() string {
	if r.Query == "" {
		return ""
	}
	conventional := r.Query == "Query" &&
		(r.Mutation == "" || r.Mutation == "Mutation") &&
		(r.Subscription == "" || r.Subscription == "Subscription")
	if conventional {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("schema {\n")
	sb.WriteString("  query: " + r.Query + "\n")
	if r.Mutation != "" {
		sb.WriteString("  mutation: " + r.Mutation + "\n")
	}
	if r.Subscription != "" {
		sb.WriteString("  subscription: " + r.Subscription + "\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}
