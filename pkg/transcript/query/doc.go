// Package query validates journal queries before they reach a storage
// backend and applies the default limit and sort order.
//
//	q := &transcript.Query{Provider: "openai", SortBy: "duration"}
//	if err := query.Validate(q); err != nil {
//	    return err
//	}
//	query.ApplyDefaults(q)
//	entries, err := store.Query(ctx, q)
package query
