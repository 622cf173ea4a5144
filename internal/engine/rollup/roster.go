package rollup

import (
	"context"
	"sort"

	"deskpulserest/internal/repositories/caseapi"
	"deskpulserest/internal/timewindow"
)

// FieldUserID is the systemusers key column.
const FieldUserID = "systemuserid"

// Roster discovers team member identifiers when the caller does not supply
// them.
type Roster struct {
	api QueryAPI
}

// NewRoster creates a roster resolver.
func NewRoster(api QueryAPI) *Roster {
	return &Roster{api: api}
}

// Members resolves the member list through an ordered fallback chain: the
// user directory first, then distinct owners of tier-1 cases in the window,
// then distinct owners of currently-active cases. The first source that
// yields anything wins; later sources are not consulted. IDs come back
// sorted so report output is stable across runs.
func (r *Roster) Members(ctx context.Context, win timewindow.Window) ([]string, error) {
	records, err := r.api.Fetch(ctx, caseapi.Query{
		Collection: CollectionUsers,
		Select:     FieldUserID,
		Top:        r.api.PageLimit(),
	})
	if err == nil {
		if ids := collectIDs(records, FieldUserID); len(ids) > 0 {
			return ids, nil
		}
	}

	records, err = r.api.Fetch(ctx, caseapi.Query{
		Collection: CollectionCases,
		Filter:     Tiers[0].Filter + " and " + windowFilter(FieldCreatedOn, win),
		Select:     FieldOwner,
		Top:        r.api.PageLimit(),
	})
	if err == nil {
		if ids := collectIDs(records, FieldOwner); len(ids) > 0 {
			return ids, nil
		}
	}

	records, err = r.api.Fetch(ctx, caseapi.Query{
		Collection: CollectionCases,
		Filter:     FieldState + " eq 0",
		Select:     FieldOwner,
		Top:        r.api.PageLimit(),
	})
	if err != nil {
		return nil, err
	}
	return collectIDs(records, FieldOwner), nil
}

func collectIDs(records []caseapi.Record, field string) []string {
	seen := make(map[string]struct{}, len(records))
	var ids []string
	for _, rec := range records {
		id := rec.Str(field)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
