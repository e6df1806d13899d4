package nocodb

import (
	"context"
	"fmt"

	"github.com/okfde/evidencesync/internal/models"
	syncstats "github.com/okfde/evidencesync/internal/sync"
)

func (i *Importer) affiliationsByExternalID() (map[int64]*models.Affiliation, error) {
	affiliations, err := i.repo.ListAffiliations()
	if err != nil {
		return nil, err
	}
	byExternalID := make(map[int64]*models.Affiliation, len(affiliations))
	for _, a := range affiliations {
		if a.ExternalID != nil {
			byExternalID[*a.ExternalID] = a
		}
	}
	return byExternalID, nil
}

// fkValue reads a single-valued relation column that NocoDB may
// deliver as a list. A multi-element list is malformed; in permissive
// mode the malformed value is reported and treated as absent.
func (i *Importer) fkValue(row Row, key, field, model string) (*int64, error) {
	id, malformed := row.FkID(key)
	if malformed {
		raw := row[key]
		count := 0
		if items, ok := raw.([]any); ok {
			count = len(items)
		}
		return nil, i.handleError(model, fmt.Sprintf(
			"Expected single value for %s in %s, got %d values: %v", field, model, count, raw))
	}
	return id, nil
}

func (i *Importer) importAffiliations(ctx context.Context) error {
	existing, err := i.affiliationsByExternalID()
	if err != nil {
		return err
	}
	persons, err := i.personsByExternalID()
	if err != nil {
		return err
	}
	organizations, err := i.organizationsByExternalID()
	if err != nil {
		return err
	}
	roles, err := i.rolesByExternalID()
	if err != nil {
		return err
	}

	var seen []int64
	err = i.client.IterRecords(ctx, i.cfg.NocoDB.AffiliationTable, "", func(row Row) error {
		externalID, ok := row.Int64("Id")
		if !ok {
			return i.handleError("Affiliation", fmt.Sprintf("Missing Id in Affiliation row: %v", map[string]any(row)))
		}
		seen = append(seen, externalID)

		remoteUUID := row.Str("Sync-UUID")

		personExt, err := i.fkValue(row, "Personen und Organisationen_id", "person", "Affiliation")
		if err != nil {
			return err
		}
		orgExt, err := i.fkValue(row, "Personen und Organisationen_id1", "organization", "Affiliation")
		if err != nil {
			return err
		}
		if personExt == nil || orgExt == nil {
			return i.handleError("Affiliation", fmt.Sprintf(
				"Missing person or organization for Affiliation %d", externalID))
		}

		person := persons[*personExt]
		if person == nil {
			return i.handleError("Affiliation", fmt.Sprintf("Missing values for Person: [%d]", *personExt))
		}
		organization := organizations[*orgExt]
		if organization == nil {
			return i.handleError("Affiliation", fmt.Sprintf("Missing values for Organization: [%d]", *orgExt))
		}

		incoming := &models.Affiliation{
			PersonID:        person.ID,
			OrganizationID:  organization.ID,
			StartDateString: row.StrPtr("Begonnen am"),
			EndDateString:   row.StrPtr("Ausgeübt bis"),
			ReferenceURL:    row.StrPtr("Referenz-URL"),
			Comment:         row.Str("Kommentar/Notiz"),
			AwID:            row.Int64Ptr("abgeordnetenwatch.de-ID"),
		}

		if roleExt := row.NestedID("Funktion", "Id"); roleExt != nil {
			role := roles[*roleExt]
			if role == nil {
				return i.handleError("Affiliation", fmt.Sprintf("Missing values for Role: [%d]", *roleExt))
			}
			incoming.RoleID = &role.ID
		}

		cur := existing[externalID]
		if cur == nil {
			incoming.ExternalID = &externalID
			synced := remoteUUID != ""
			if synced {
				incoming.SyncUUID = models.UUID(remoteUUID)
			}
			if err := i.repo.SaveAffiliation(incoming, synced); err != nil {
				return i.handleError("Affiliation", fmt.Sprintf("Error saving Affiliation instance: %v", err))
			}
			existing[externalID] = incoming
			i.stats.TrackCreated("Affiliation", incoming.ID, incoming.SyncFields())
			return nil
		}

		proceed, err := i.decideUpdate("Affiliation", cur.ID, cur.SyncUUID, remoteUUID)
		if err != nil || !proceed {
			return err
		}

		incoming.ID = cur.ID
		incoming.SyncMeta = cur.SyncMeta
		incoming.StartDate = cur.StartDate
		incoming.EndDate = cur.EndDate
		diff := syncstats.Diff(cur.SyncFields(), incoming.SyncFields())
		if len(diff) == 0 {
			return nil
		}
		if err := i.repo.SaveAffiliation(incoming, true); err != nil {
			return i.handleError("Affiliation", fmt.Sprintf("Error saving Affiliation instance: %v", err))
		}
		existing[externalID] = incoming
		i.stats.TrackUpdated("Affiliation", incoming.ID, diff)
		return nil
	})
	if err != nil {
		return err
	}

	deleted, err := i.repo.DeleteAffiliationsNotIn(seen)
	if err != nil {
		return err
	}
	for _, d := range deleted {
		i.stats.TrackDeleted("Affiliation", d.ID)
	}
	return nil
}
