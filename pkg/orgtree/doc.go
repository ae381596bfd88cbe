// Package orgtree reconstructs a customer ownership hierarchy from flat
// customer records and an ancestry lookup, and renders it as a nested
// document keyed by the customers two levels below each root.
//
// Quick start:
//
//	customers := []orgtree.Customer{{ID: "C1", Name: "Acme Korea", ParentID: "C0"}}
//	t, stats, err := orgtree.Resolve(ctx, customers, myLookup)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	json.NewEncoder(os.Stdout).Encode(t)
//
// Lookup failures never abort a run; the affected customer becomes a root.
// Only context cancellation is returned as an error.
package orgtree
