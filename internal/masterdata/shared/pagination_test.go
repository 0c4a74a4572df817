package shared

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFiltersFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/products?page=3&limit=5&search=+slim+&sort=price&dir=DESC", nil)
	f := FiltersFromRequest(r)
	require.Equal(t, 3, f.Page)
	require.Equal(t, 5, f.Limit)
	require.Equal(t, "slim", f.Search)
	require.Equal(t, 10, f.Offset())
	require.Equal(t, "DESC", f.Direction())
}

func TestFiltersFromRequestDefaults(t *testing.T) {
	f := FiltersFromRequest(httptest.NewRequest("GET", "/products?limit=5000", nil))
	require.Equal(t, DefaultPage, f.Page)
	require.Equal(t, DefaultLimit, f.Limit)
	require.Equal(t, "ASC", f.Direction())
}
