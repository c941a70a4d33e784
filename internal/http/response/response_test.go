package response

import "testing"

func TestBuildPagination(t *testing.T) {
	cases := []struct {
		name     string
		page     int
		pageSize int
		total    int64
		wantPage int64
	}{
		{"exact pages", 1, 20, 40, 2},
		{"partial last page", 1, 20, 41, 3},
		{"empty", 1, 20, 0, 0},
		{"zero page size", 1, 0, 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := BuildPagination(tc.page, tc.pageSize, tc.total)
			if p.TotalPage != tc.wantPage {
				t.Fatalf("total_page want %d got %d", tc.wantPage, p.TotalPage)
			}
			if p.Page != tc.page || p.PageSize != tc.pageSize || p.Total != tc.total {
				t.Fatalf("unexpected pagination: %+v", p)
			}
		})
	}
}
