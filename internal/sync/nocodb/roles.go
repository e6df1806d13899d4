package nocodb

import (
	"context"
	"fmt"

	"github.com/okfde/evidencesync/internal/models"
	syncstats "github.com/okfde/evidencesync/internal/sync"
)

func (i *Importer) rolesByExternalID() (map[int64]*models.Role, error) {
	roles, err := i.repo.ListRoles()
	if err != nil {
		return nil, err
	}
	byExternalID := make(map[int64]*models.Role, len(roles))
	for _, ro := range roles {
		if ro.ExternalID != nil {
			byExternalID[*ro.ExternalID] = ro
		}
	}
	return byExternalID, nil
}

func (i *Importer) importRoles(ctx context.Context) error {
	existing, err := i.rolesByExternalID()
	if err != nil {
		return err
	}

	var seen []int64
	err = i.client.IterRecords(ctx, i.cfg.NocoDB.RoleTable, "", func(row Row) error {
		externalID, ok := row.Int64("Id")
		if !ok {
			return i.handleError("Role", fmt.Sprintf("Missing Id in Role row: %v", map[string]any(row)))
		}
		seen = append(seen, externalID)

		remoteUUID := row.Str("Sync-UUID")
		name := row.Str("Bezeichnung")

		cur := existing[externalID]
		if cur == nil {
			ro := &models.Role{Name: name}
			ro.ExternalID = &externalID
			synced := remoteUUID != ""
			if synced {
				ro.SyncUUID = models.UUID(remoteUUID)
			}
			if err := i.repo.SaveRole(ro, synced); err != nil {
				return i.handleError("Role", fmt.Sprintf("Error saving Role instance: %v", err))
			}
			existing[externalID] = ro
			i.stats.TrackCreated("Role", ro.ID, ro.SyncFields())
			return nil
		}

		proceed, err := i.decideUpdate("Role", cur.ID, cur.SyncUUID, remoteUUID)
		if err != nil || !proceed {
			return err
		}

		oldFields := cur.SyncFields()
		if syncstats.Equals(cur.Name, name) {
			return nil
		}
		cur.Name = name
		if err := i.repo.SaveRole(cur, true); err != nil {
			return i.handleError("Role", fmt.Sprintf("Error saving Role instance: %v", err))
		}
		i.stats.TrackUpdated("Role", cur.ID, syncstats.Diff(oldFields, cur.SyncFields()))
		return nil
	})
	if err != nil {
		return err
	}

	deleted, err := i.repo.DeleteRolesNotIn(seen)
	if err != nil {
		return err
	}
	for _, d := range deleted {
		i.stats.TrackDeleted("Role", d.ID)
	}
	return nil
}
