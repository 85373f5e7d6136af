package browse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/listview"
)

func TestFetchAll(t *testing.T) {
	pages := map[int][]catalog.AdmissionMethod{
		1: {{Meta: catalog.Meta{ID: "a"}, Name: "Xét tuyển thẳng"}, {Meta: catalog.Meta{ID: "b"}, Name: "Xét học bạ"}},
		2: {{Meta: catalog.Meta{ID: "c"}, Name: "Thi THPT"}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/admission-methods", r.URL.Path)
		assert.Equal(t, "oldest", r.URL.Query().Get("sort"))
		assert.Equal(t, "100", r.URL.Query().Get("page_size"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(listview.PageWindow[catalog.AdmissionMethod]{
			Items:       pages[page],
			TotalItems:  3,
			TotalPages:  2,
			CurrentPage: page,
			PageSize:    2,
		})
	}))
	defer srv.Close()

	items, err := FetchAll(context.Background(), NewClient(srv.URL+"/"), catalog.AdmissionMethodKind)
	require.NoError(t, err)

	got := make([]string, 0, len(items))
	for _, m := range items {
		got = append(got, m.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestFetchAll_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := FetchAll(context.Background(), NewClient(srv.URL), catalog.MajorKind)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API responded 404")
}
