package aw

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"github.com/okfde/evidencesync/internal/errors"
	"github.com/okfde/evidencesync/internal/logging"
	"github.com/okfde/evidencesync/internal/models"
)

// The helper tables are create-only: records already known locally are
// excluded from the fetch via id[notin], and nothing is ever updated
// or deleted. All rows of a fetch are resolved before the first save,
// so a bad row leaves the table untouched.

func excludeExisting(extra url.Values, existing map[int64]bool) {
	if len(existing) == 0 {
		return
	}
	ids := make([]int64, 0, len(existing))
	for id := range existing {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	extra.Set("id[notin]", jsonIDList(ids))
}

func (i *Importer) parliamentsByAwID() (map[int64]*models.Parliament, error) {
	parliaments, err := i.repo.ListParliaments()
	if err != nil {
		return nil, err
	}
	byAwID := make(map[int64]*models.Parliament, len(parliaments))
	for _, p := range parliaments {
		byAwID[p.AwID] = p
	}
	return byAwID, nil
}

// findFraction resolves the single organization that represents a
// parliament's fraction. Matching is substring based on the
// organization name, and exactly one hit is required.
func (i *Importer) findFraction(parliamentName string) (*models.Organization, error) {
	orgs, err := i.repo.FindOrganizationsByNameContains(parliamentName)
	if err != nil {
		return nil, err
	}
	if len(orgs) == 1 {
		return orgs[0], nil
	}
	if len(orgs) == 0 {
		return nil, errors.Newf(errors.ErrImportFailed,
			"Error finding fraction: No matching fraction found for parliament %s", parliamentName)
	}

	names := make([]string, len(orgs))
	for idx, o := range orgs {
		names[idx] = o.Name
	}
	return nil, errors.Newf(errors.ErrImportFailed,
		"Error finding fraction: Multiple matching fractions found for parliament %s: %s",
		parliamentName, strings.Join(names, ", "))
}

func (i *Importer) importParliaments(ctx context.Context) error {
	existing, err := i.parliamentsByAwID()
	if err != nil {
		return err
	}
	existingIDs := make(map[int64]bool, len(existing))
	for awID := range existing {
		existingIDs[awID] = true
	}

	extra := url.Values{}
	excludeExisting(extra, existingIDs)

	var toCreate []*models.Parliament
	err = iterRows(ctx, i.client, entityParliaments, extra, func(row parliamentRow) error {
		if existingIDs[row.ID] {
			return nil
		}
		fraction, err := i.findFraction(row.LabelExternalLong)
		if err != nil {
			return err
		}
		toCreate = append(toCreate, &models.Parliament{
			AwID:       row.ID,
			Name:       row.LabelExternalLong,
			FractionID: &fraction.ID,
		})
		return nil
	})
	if err != nil {
		return err
	}

	for _, p := range toCreate {
		if err := i.repo.SaveParliament(p); err != nil {
			return err
		}
	}
	if len(toCreate) > 0 {
		logging.Info("created parliaments from abgeordnetenwatch data", map[string]any{
			"count": len(toCreate),
		})
	}
	return nil
}

func (i *Importer) importElections(ctx context.Context) error {
	parliaments, err := i.parliamentsByAwID()
	if err != nil {
		return err
	}
	existing, err := i.repo.ElectionsByAwID()
	if err != nil {
		return err
	}
	existingIDs := make(map[int64]bool, len(existing))
	for awID := range existing {
		existingIDs[awID] = true
	}

	extra := url.Values{}
	extra.Set("type", "election")
	extra.Set("sort_by", "start_date_period")
	excludeExisting(extra, existingIDs)

	var collected []periodRow
	err = iterRows(ctx, i.client, entityParliamentPeriods, extra, func(row periodRow) error {
		if !existingIDs[row.ID] {
			collected = append(collected, row)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var toCreate []*models.Election
	for _, row := range collected {
		parliament := parliaments[row.Parliament.ID]
		if parliament == nil {
			return errors.Newf(errors.ErrImportFailed,
				"Parliament with abgeordnetenwatch ID %d not found", row.Parliament.ID)
		}
		toCreate = append(toCreate, &models.Election{
			AwID:         row.ID,
			Name:         row.Label,
			ParliamentID: parliament.ID,
			StartDate:    parseDate(row.StartDatePeriod),
			// end_date_period does not reliably match the election
			// date, so the election date wins.
			EndDate: parseDate(row.ElectionDate),
		})
	}

	for _, e := range toCreate {
		if err := i.repo.SaveElection(e); err != nil {
			return err
		}
	}
	if len(toCreate) > 0 {
		logging.Info("created elections from abgeordnetenwatch data", map[string]any{
			"count": len(toCreate),
		})
	}
	return nil
}

func (i *Importer) importLegislativePeriods(ctx context.Context) error {
	parliaments, err := i.parliamentsByAwID()
	if err != nil {
		return err
	}
	elections, err := i.repo.ElectionsByAwID()
	if err != nil {
		return err
	}
	existing, err := i.repo.LegislativePeriodsByAwID()
	if err != nil {
		return err
	}
	existingIDs := make(map[int64]bool, len(existing))
	linked := make(map[int64]*models.LegislativePeriod)
	for awID, lp := range existing {
		existingIDs[awID] = true
		if lp.ElectionID != nil {
			linked[*lp.ElectionID] = lp
		}
	}

	extra := url.Values{}
	extra.Set("type", "legislature")
	extra.Set("sort_by", "start_date_period")
	excludeExisting(extra, existingIDs)

	var collected []periodRow
	err = iterRows(ctx, i.client, entityParliamentPeriods, extra, func(row periodRow) error {
		if !existingIDs[row.ID] {
			collected = append(collected, row)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var toCreate []*models.LegislativePeriod
	for _, row := range collected {
		parliament := parliaments[row.Parliament.ID]
		if parliament == nil {
			return errors.Newf(errors.ErrImportFailed,
				"Parliament with abgeordnetenwatch ID %d not found", row.Parliament.ID)
		}

		var electionID *int64
		if row.PreviousPeriod != nil {
			electionAwID := row.PreviousPeriod.ID
			if fixed, ok := i.cfg.Abgeordnetenwatch.PreviousPeriodMap[row.ID]; ok {
				electionAwID = fixed
			}
			if election := elections[electionAwID]; election != nil {
				if prior := linked[election.ID]; prior != nil {
					return errors.Newf(errors.ErrImportFailed,
						"Election %s is already linked to legislative period %s",
						election.Name, prior.Name)
				}
				electionID = &election.ID
			}
		}

		toCreate = append(toCreate, &models.LegislativePeriod{
			AwID:         row.ID,
			Name:         row.Label,
			ParliamentID: parliament.ID,
			ElectionID:   electionID,
			StartDate:    parseDate(row.StartDatePeriod),
			EndDate:      parseDate(row.EndDatePeriod),
		})
	}

	for _, lp := range toCreate {
		if err := i.repo.SaveLegislativePeriod(lp); err != nil {
			return err
		}
	}
	if len(toCreate) > 0 {
		logging.Info("created legislative periods from abgeordnetenwatch data", map[string]any{
			"count": len(toCreate),
		})
	}
	return nil
}
