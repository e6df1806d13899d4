package nocodb

import (
	"context"
	"fmt"

	"github.com/okfde/evidencesync/internal/models"
	syncstats "github.com/okfde/evidencesync/internal/sync"
)

func (i *Importer) personsByExternalID() (map[int64]*models.Person, error) {
	persons, err := i.repo.ListPersons()
	if err != nil {
		return nil, err
	}
	byExternalID := make(map[int64]*models.Person, len(persons))
	for _, p := range persons {
		if p.ExternalID != nil {
			byExternalID[*p.ExternalID] = p
		}
	}
	return byExternalID, nil
}

func (i *Importer) mapPersonRow(row Row) (*models.Person, error) {
	p := &models.Person{
		FirstName:   row.Str("Vorname(n)"),
		LastName:    row.Str("Nachname"),
		Title:       row.StrPtr("Titel"),
		AlsoKnownAs: nonNilStrings(row.List("Spitzname")),
		WikidataID:  row.StrPtr("Wikidata-ID"),
		AwID:        row.Int64Ptr("abgeordnetenwatch.de Politiker-ID"),
	}

	statusID, err := i.vocabID(models.VocabPersonStatus, row.Str("Status (Person)"))
	if err != nil {
		return nil, err
	}
	p.StatusID = statusID
	return p, nil
}

func (i *Importer) importPersons(ctx context.Context) error {
	existing, err := i.personsByExternalID()
	if err != nil {
		return err
	}

	var seen []int64
	err = i.client.IterRecords(ctx, i.cfg.NocoDB.ActorTable, i.cfg.NocoDB.PersonView, func(row Row) error {
		externalID, ok := row.Int64("Id")
		if !ok {
			return i.handleError("Person", fmt.Sprintf("Missing Id in Person row: %v", map[string]any(row)))
		}
		seen = append(seen, externalID)

		remoteUUID := row.Str("Sync-UUID")
		incoming, err := i.mapPersonRow(row)
		if err != nil {
			return err
		}

		cur := existing[externalID]
		if cur == nil {
			incoming.ExternalID = &externalID
			synced := remoteUUID != ""
			if synced {
				incoming.SyncUUID = models.UUID(remoteUUID)
			}
			if err := i.repo.SavePerson(incoming, synced); err != nil {
				return i.handleError("Person", fmt.Sprintf("Error saving Person instance: %v", err))
			}
			existing[externalID] = incoming
			i.stats.TrackCreated("Person", incoming.ID, incoming.SyncFields())
			return nil
		}

		proceed, err := i.decideUpdate("Person", cur.ID, cur.SyncUUID, remoteUUID)
		if err != nil || !proceed {
			return err
		}

		incoming.ID = cur.ID
		incoming.SyncMeta = cur.SyncMeta
		diff := syncstats.Diff(cur.SyncFields(), incoming.SyncFields())
		if len(diff) == 0 {
			return nil
		}
		if err := i.repo.SavePerson(incoming, true); err != nil {
			return i.handleError("Person", fmt.Sprintf("Error saving Person instance: %v", err))
		}
		existing[externalID] = incoming
		i.stats.TrackUpdated("Person", incoming.ID, diff)
		return nil
	})
	if err != nil {
		return err
	}

	deleted, err := i.repo.DeletePersonsNotIn(seen)
	if err != nil {
		return err
	}
	for _, d := range deleted {
		i.stats.TrackDeleted("Person", d.ID)
	}
	return nil
}
