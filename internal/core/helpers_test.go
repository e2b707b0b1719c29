package core

import "testing"

func TestPaginate(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name     string
		page     int
		size     int
		want     []int
		wantPage int
		wantSize int
	}{
		{"all rows when size unset", 3, 0, []int{1, 2, 3, 4, 5}, 1, 5},
		{"first page", 1, 2, []int{1, 2}, 1, 2},
		{"last partial page", 3, 2, []int{5}, 3, 2},
		{"past the end", 4, 2, []int{}, 4, 2},
		{"page clamps to one", 0, 2, []int{1, 2}, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, page, size := paginate(rows, tt.page, tt.size)
			if len(got) != len(tt.want) {
				t.Fatalf("paginate() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("paginate()[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
			if page != tt.wantPage || size != tt.wantSize {
				t.Errorf("page, size = %d, %d, want %d, %d", page, size, tt.wantPage, tt.wantSize)
			}
		})
	}
}
