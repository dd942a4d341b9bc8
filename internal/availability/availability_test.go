package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"minishop-gateway/internal/domain"
)

func branchWith(counts ...domain.ProductCount) domain.Branch {
	return domain.Branch{ID: "b", ProductCounts: counts}
}

func pc(id string, n float64) domain.ProductCount {
	return domain.ProductCount{ProductID: domain.FlexID(id), Count: domain.FlexNumber(n)}
}

func TestHasEnough(t *testing.T) {
	req := Requirements{"A": 2, "B": 1}

	tests := []struct {
		name   string
		branch domain.Branch
		want   bool
	}{
		{"exact stock", branchWith(pc("A", 2), pc("B", 1)), true},
		{"short on A", branchWith(pc("A", 1), pc("B", 1)), false},
		{"B missing counts as zero", branchWith(pc("A", 5)), false},
		{"no counts at all", branchWith(), false},
		{"duplicate ids keep last", branchWith(pc("A", 5), pc("A", 1), pc("B", 1)), false},
		{"duplicate ids keep last sufficient", branchWith(pc("A", 0), pc("A", 2), pc("B", 1)), true},
		{"blank ids ignored", branchWith(pc("", 10), pc("A", 2), pc("B", 1)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasEnough(req, tt.branch))
		})
	}
}

func TestEmptyRequirementsQualifyEveryBranch(t *testing.T) {
	branches := []domain.Branch{branchWith(), branchWith(pc("A", 0))}
	for _, v := range Classify(FromLines(nil), branches) {
		assert.True(t, v.Sufficient)
	}
}

func TestFromLinesSkipsUnwantedLines(t *testing.T) {
	req := FromLines([]domain.CartLine{
		{ID: "A", Quantity: 2},
		{ID: "", Quantity: 3},
		{ID: "C", Quantity: 0},
		{ID: "D", Quantity: -1},
	})
	assert.Equal(t, Requirements{"A": 2}, req)
}

func TestFromProductIDs(t *testing.T) {
	assert.Equal(t, Requirements{"A": 1, "B": 1}, FromProductIDs([]string{"A", " ", "B", "A"}))
}

func TestClassifyPreservesOrder(t *testing.T) {
	branches := []domain.Branch{
		{ID: "1", ProductCounts: []domain.ProductCount{pc("A", 1)}},
		{ID: "2", ProductCounts: []domain.ProductCount{pc("A", 3)}},
	}
	got := Classify(Requirements{"A": 2}, branches)
	assert.Equal(t, "1", got[0].Branch.ID)
	assert.False(t, got[0].Sufficient)
	assert.Equal(t, "2", got[1].Branch.ID)
	assert.True(t, got[1].Sufficient)
}
