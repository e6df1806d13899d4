package nocodb

import (
	"context"
	"fmt"
	"slices"

	"github.com/okfde/evidencesync/internal/models"
	syncstats "github.com/okfde/evidencesync/internal/sync"
)

func (i *Importer) organizationsByExternalID() (map[int64]*models.Organization, error) {
	orgs, err := i.repo.ListOrganizations()
	if err != nil {
		return nil, err
	}
	byExternalID := make(map[int64]*models.Organization, len(orgs))
	for _, o := range orgs {
		if o.ExternalID != nil {
			byExternalID[*o.ExternalID] = o
		}
	}
	return byExternalID, nil
}

func (i *Importer) regionsByName() (map[string]int64, error) {
	entries, err := i.repo.ListVocabEntries(models.VocabRegion)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int64, len(entries))
	for _, e := range entries {
		byName[e.Name] = e.ID
	}
	return byName, nil
}

// mapRegions splits the remote region column into references into the
// region vocabulary and the configured special values kept verbatim.
// An unknown region name is an error; the region vocabulary is not
// grown from import data.
func (i *Importer) mapRegions(names []string, orgName string, regionMap map[string]int64) ([]int64, []string, error) {
	regionIDs := []int64{}
	specialRegions := []string{}

	for _, name := range names {
		if slices.Contains(i.cfg.SpecialRegions, name) {
			specialRegions = append(specialRegions, name)
		}
	}
	for _, name := range names {
		if slices.Contains(i.cfg.SpecialRegions, name) {
			continue
		}
		id, ok := regionMap[name]
		if !ok {
			err := i.handleError("Organization", fmt.Sprintf("Region %q not found for %q", name, orgName))
			return []int64{}, specialRegions, err
		}
		regionIDs = append(regionIDs, id)
	}
	return regionIDs, specialRegions, nil
}

func (i *Importer) mapOrganizationRow(row Row, regionMap map[string]int64) (*models.Organization, error) {
	o := &models.Organization{
		Name:        row.Str("Organisationsname"),
		AlsoKnownAs: nonNilStrings(row.List("Abkürzung")),
		WikidataID:  row.StrPtr("Wikidata-ID"),
	}

	statusID, err := i.vocabID(models.VocabOrganizationStatus, row.Str("Status (Organisation)"))
	if err != nil {
		return nil, err
	}
	o.StatusID = statusID

	levelID, err := i.vocabID(models.VocabInstitutionalLevel, row.Str("Institutionsebene"))
	if err != nil {
		return nil, err
	}
	o.InstitutionalLevelID = levelID

	regionIDs, specialRegions, err := i.mapRegions(row.List("Region(en)"), o.Name, regionMap)
	if err != nil {
		return nil, err
	}
	o.RegionIDs = regionIDs
	o.SpecialRegions = specialRegions
	return o, nil
}

func (i *Importer) importOrganizations(ctx context.Context) error {
	existing, err := i.organizationsByExternalID()
	if err != nil {
		return err
	}
	regionMap, err := i.regionsByName()
	if err != nil {
		return err
	}

	var seen []int64
	err = i.client.IterRecords(ctx, i.cfg.NocoDB.ActorTable, i.cfg.NocoDB.OrganizationView, func(row Row) error {
		externalID, ok := row.Int64("Id")
		if !ok {
			return i.handleError("Organization", fmt.Sprintf("Missing Id in Organization row: %v", map[string]any(row)))
		}
		seen = append(seen, externalID)

		remoteUUID := row.Str("Sync-UUID")
		incoming, err := i.mapOrganizationRow(row, regionMap)
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
			if err := i.repo.SaveOrganization(incoming, synced); err != nil {
				return i.handleError("Organization", fmt.Sprintf("Error saving Organization instance: %v", err))
			}
			existing[externalID] = incoming
			i.stats.TrackCreated("Organization", incoming.ID, incoming.SyncFields())
			return nil
		}

		proceed, err := i.decideUpdate("Organization", cur.ID, cur.SyncUUID, remoteUUID)
		if err != nil || !proceed {
			return err
		}

		incoming.ID = cur.ID
		incoming.SyncMeta = cur.SyncMeta
		diff := syncstats.Diff(cur.SyncFields(), incoming.SyncFields())
		if len(diff) == 0 {
			return nil
		}
		if err := i.repo.SaveOrganization(incoming, true); err != nil {
			return i.handleError("Organization", fmt.Sprintf("Error saving Organization instance: %v", err))
		}
		existing[externalID] = incoming
		i.stats.TrackUpdated("Organization", incoming.ID, diff)
		return nil
	})
	if err != nil {
		return err
	}

	deleted, err := i.repo.DeleteOrganizationsNotIn(seen)
	if err != nil {
		return err
	}
	for _, d := range deleted {
		i.stats.TrackDeleted("Organization", d.ID)
	}
	return nil
}
