package trace

import (
	"context"

	"github.com/sarchlab/cachesim/datarecording"
)

// ReadAccesses loads the accesses of a recording in the order they were
// made. Accesses of all the caches in the recording are returned unless
// location is set.
func ReadAccesses(
	ctx context.Context,
	reader datarecording.DataReader,
	location string,
) ([]AccessEntry, error) {
	reader.MapTable(AccessTable, AccessEntry{})

	params := datarecording.QueryParams{OrderBy: "Time, rowid"}
	if location != "" {
		params.Where = "Location = ?"
		params.Args = []any{location}
	}

	results, _, err := reader.Query(ctx, AccessTable, params)
	if err != nil {
		return nil, err
	}

	entries := make([]AccessEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, *r.(*AccessEntry))
	}

	return entries, nil
}
