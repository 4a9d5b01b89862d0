package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRows() []Row {
	return []Row{
		{"senderId": "S1", "name": "Asha Rao", "statusOfConsignment": "Completed"},
		{"senderId": "S2", "name": "Ravi Kumar", "statusOfConsignment": "Pending"},
		{"senderId": "S3", "statusOfConsignment": "Pending"},
	}
}

func TestFilterTermAndStatus(t *testing.T) {
	f := Filter{Term: "RAVI", Fields: []string{"senderId", "name"}, StatusField: "statusOfConsignment", Status: StatusAll}
	out := f.Apply(sampleRows())
	require.Len(t, out, 1)
	require.Equal(t, "S2", out[0]["senderId"])

	f = Filter{Fields: []string{"name"}, StatusField: "statusOfConsignment", Status: "Pending"}
	out = f.Apply(sampleRows())
	require.Len(t, out, 2)

	f.Status = "pending"
	require.Empty(t, f.Apply(sampleRows()), "status match is case-sensitive")
}

func TestFilterMissingFieldNeverMatches(t *testing.T) {
	f := Filter{Term: "a", Fields: []string{"name"}}
	out := f.Apply(sampleRows())
	require.Len(t, out, 2)
	for _, row := range out {
		require.NotEqual(t, "S3", row["senderId"])
	}
}

func TestFilterIdempotent(t *testing.T) {
	f := Filter{Term: "s", Fields: []string{"senderId", "name"}, StatusField: "statusOfConsignment", Status: "Pending"}
	once := f.Apply(sampleRows())
	require.Equal(t, once, f.Apply(once))
}

func TestFilterEmptyTermAndAllStatusKeepsEverything(t *testing.T) {
	f := Filter{Fields: []string{"name"}, StatusField: "statusOfConsignment", Status: StatusAll}
	require.Equal(t, sampleRows(), f.Apply(sampleRows()))
}

func TestFilterForServerSearchIgnoresTerm(t *testing.T) {
	def := &Definition{SearchMode: SearchServer, SearchFields: []string{"name"}, StatusField: "status"}
	f := FilterFor(def, "zzz", StatusAll)
	require.Empty(t, f.Term)
	require.True(t, f.Matches(Row{"name": "abc"}))
}
