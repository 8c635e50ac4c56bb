package engine

import (
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/khanh1998/test-pilot-sub005/errors"
	"github.com/khanh1998/test-pilot-sub005/schema"
	"github.com/khanh1998/test-pilot-sub005/template"
	"github.com/khanh1998/test-pilot-sub005/transport"
)

// composeRequest resolves every templated fragment of a step endpoint and
// assembles the request that goes on the wire.
func composeRequest(key string, ep *schema.Endpoint, se *schema.StepEndpoint, hosts map[int]string, tc *template.Context) (*transport.Request, error) {
	host, ok := hosts[ep.APIID]
	if !ok {
		return nil, errors.Validationf("no host configured for api %d (endpoint %s)", ep.APIID, ep.ID)
	}

	path, err := composePath(ep.Path, se.PathParams, tc)
	if err != nil {
		return nil, err
	}
	query, err := composeQuery(ep, se.QueryParams, tc)
	if err != nil {
		return nil, err
	}

	rawURL := strings.TrimRight(host, "/") + path
	if query != "" {
		rawURL += "?" + query
	}

	header := http.Header{}
	for _, h := range se.Headers {
		if !h.Enabled {
			continue
		}
		header.Add(h.Name, template.Stringify(template.Resolve(h.Value, tc)))
	}

	var body any
	if se.Body != nil {
		body = template.ResolveStructured(se.Body, tc)
	}

	return &transport.Request{
		Key:    key,
		Method: strings.ToUpper(ep.Method),
		URL:    rawURL,
		Header: header,
		Body:   body,
	}, nil
}

// composePath substitutes {name} placeholders, URL-escaping each resolved
// value. Placeholders without a binding stay literal.
func composePath(path string, params map[string]string, tc *template.Context) (string, error) {
	for name, tmpl := range params {
		v := template.Resolve(tmpl, tc)
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(template.Stringify(v)))
	}
	return path, nil
}

// composeQuery resolves query templates and re-serializes array parameters
// according to the endpoint's parameter schema. Keys are emitted in sorted
// order so composed URLs are stable.
func composeQuery(ep *schema.Endpoint, params map[string]string, tc *template.Context) (string, error) {
	if len(params) == 0 {
		return "", nil
	}
	values := url.Values{}
	for name, tmpl := range params {
		resolved := template.Resolve(tmpl, tc)
		spec, ok := ep.Param(name, "query")
		if !ok || !spec.IsArray {
			values.Add(name, template.Stringify(resolved))
			continue
		}
		items := splitArray(resolved, spec)
		if spec.Explode || spec.CollectionFormat == schema.FormatMulti {
			for _, item := range items {
				values.Add(name, item)
			}
			continue
		}
		values.Add(name, strings.Join(items, spec.Delimiter()))
	}
	return values.Encode(), nil
}

// splitArray normalizes an array parameter value to its items. Native slices
// stringify per element; strings split on the declared delimiter.
func splitArray(v any, spec *schema.EndpointParam) []string {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = template.Stringify(rv.Index(i).Interface())
		}
		return items
	}
	s := template.Stringify(v)
	if s == "" {
		return nil
	}
	delim := spec.Delimiter()
	if spec.CollectionFormat == schema.FormatMulti {
		delim = ","
	}
	return strings.Split(s, delim)
}
