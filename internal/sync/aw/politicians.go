package aw

import (
	"context"
	"net/url"
	"slices"

	"github.com/okfde/evidencesync/internal/models"
	syncstats "github.com/okfde/evidencesync/internal/sync"
)

// importPoliticians imports persons from the politicians endpoint.
// With awIDs given, only the listed politicians missing locally are
// fetched; when none are missing, the API is not called at all. A nil
// awIDs imports every politician the API serves.
func (i *Importer) importPoliticians(ctx context.Context, awIDs []int64) error {
	existing, err := i.repo.PersonsByAwID()
	if err != nil {
		return err
	}

	extra := url.Values{}
	if awIDs != nil {
		var missing []int64
		for _, id := range awIDs {
			if existing[id] == nil {
				missing = append(missing, id)
			}
		}
		if len(missing) == 0 {
			return nil
		}
		slices.Sort(missing)
		extra.Set("id[in]", jsonIDList(missing))
	}

	return iterRows(ctx, i.client, entityPoliticians, extra, func(row politicianRow) error {
		title := ""
		if row.FieldTitle != nil {
			title = *row.FieldTitle
		}

		cur := existing[row.ID]
		if cur == nil {
			awID := row.ID
			p := &models.Person{
				FirstName:   row.FirstName,
				LastName:    row.LastName,
				Title:       &title,
				AlsoKnownAs: []string{},
				WikidataID:  row.QidWikidata,
				AwID:        &awID,
			}
			if err := i.repo.SavePerson(p, false); err != nil {
				return err
			}
			existing[row.ID] = p
			i.stats.TrackCreated("Person", p.ID, p.SyncFields())
			return nil
		}

		// Values that are already set locally are never overwritten.
		changed := false
		if syncstats.IsEmpty(cur.FirstName) && row.FirstName != "" {
			cur.FirstName = row.FirstName
			changed = true
		}
		if syncstats.IsEmpty(cur.LastName) && row.LastName != "" {
			cur.LastName = row.LastName
			changed = true
		}
		if syncstats.IsEmpty(cur.Title) && title != "" {
			cur.Title = &title
			changed = true
		}
		if syncstats.IsEmpty(cur.WikidataID) && !syncstats.IsEmpty(row.QidWikidata) {
			cur.WikidataID = row.QidWikidata
			changed = true
		}
		if !changed {
			return nil
		}

		if err := i.repo.SavePerson(cur, false); err != nil {
			return err
		}
		i.stats.TrackUpdated("Person", cur.ID, syncstats.Diff(cur.LastSyncedState, cur.SyncFields()))
		return nil
	})
}
