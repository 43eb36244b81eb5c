package httpadapter

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

//go:embed openapi.yaml
var openAPISpec []byte

type requestValidator struct {
	router routers.Router
}

func newRequestValidator() (*requestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &requestValidator{router: router}, nil
}

// middleware rejects requests that do not match a documented operation or
// whose parameters and body break the schema.
func (v *requestValidator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := v.router.FindRoute(r)
		if err != nil {
			switch {
			case errors.Is(err, routers.ErrMethodNotAllowed):
				writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
					Error:   "Method Not Allowed",
					Details: fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path),
				})
			default:
				writeJSON(w, http.StatusNotFound, errorResponse{
					Error:   "Not Found",
					Details: fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path),
				})
			}
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         false,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeJSON(w, http.StatusBadRequest, validationErrorBody(err))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func validationErrorBody(err error) errorResponse {
	body := errorResponse{Error: "Validation Error", Details: "Invalid input data"}

	var reqErr *openapi3filter.RequestError
	if !errors.As(err, &reqErr) {
		return body
	}

	reason := strings.TrimSpace(reqErr.Reason)
	if reason == "" && reqErr.Err != nil {
		reason = reqErr.Err.Error()
	}
	switch {
	case reqErr.Parameter != nil:
		body.Fields = map[string]string{reqErr.Parameter.Name: reason}
	case reqErr.RequestBody != nil:
		field := "body"
		var schemaErr *openapi3.SchemaError
		if errors.As(reqErr.Err, &schemaErr) {
			if path := schemaErr.JSONPointer(); len(path) > 0 {
				field = strings.Join(path, ".")
			}
			reason = schemaErr.Reason
		}
		body.Fields = map[string]string{field: reason}
	default:
		if reason != "" {
			body.Details = reason
		}
	}
	return body
}
