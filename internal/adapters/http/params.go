package httpadapter

import (
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

type listClaimsParams struct {
	Status *string
	Search *string
	Limit  *int
}

func bindClaimID(r *http.Request) (string, error) {
	var id string
	if err := runtime.BindStyledParameterWithLocation("simple", false, "id", runtime.ParamLocationPath, r.PathValue("id"), &id); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "bind path", fmt.Errorf("invalid format for parameter id: %w", err))
	}
	if id == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "bind path", fmt.Errorf("parameter id is required"))
	}
	return id, nil
}

func bindListClaimsParams(r *http.Request) (listClaimsParams, error) {
	var params listClaimsParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "status", query, &params.Status); err != nil {
		return params, domain.WrapError(domain.ErrInvalidInput, "bind query", fmt.Errorf("invalid format for parameter status: %w", err))
	}
	if err := runtime.BindQueryParameter("form", true, false, "search", query, &params.Search); err != nil {
		return params, domain.WrapError(domain.ErrInvalidInput, "bind query", fmt.Errorf("invalid format for parameter search: %w", err))
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		return params, domain.WrapError(domain.ErrInvalidInput, "bind query", fmt.Errorf("invalid format for parameter limit: %w", err))
	}
	return params, nil
}

func (p listClaimsParams) filter() domain.ClaimFilter {
	var filter domain.ClaimFilter
	if p.Status != nil {
		filter.Status = domain.ClaimStatus(*p.Status)
	}
	if p.Search != nil {
		filter.Search = *p.Search
	}
	if p.Limit != nil {
		filter.Limit = *p.Limit
	}
	return filter
}
