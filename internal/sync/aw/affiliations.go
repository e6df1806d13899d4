package aw

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/okfde/evidencesync/internal/errors"
	"github.com/okfde/evidencesync/internal/models"
	syncstats "github.com/okfde/evidencesync/internal/sync"
)

// periodRef is the slice of an election or legislative period the
// affiliation import needs: the owning parliament and the date range
// used as fallback for open-ended rows.
type periodRef struct {
	parliamentID int64
	startDate    *time.Time
	endDate      *time.Time
}

// affiliationSource binds one run of the candidacies-mandates endpoint
// to its role and its period model.
type affiliationSource struct {
	role        *models.Role
	periodsName string
	periods     map[int64]periodRef
}

// roleForImport resolves the configured role for one affiliation type.
// Both a missing configuration and a missing local role abort the run.
func (i *Importer) roleForImport(roleUUID, roleTypeName string) (*models.Role, error) {
	if roleUUID == "" {
		return nil, errors.Newf(errors.ErrImportFailed,
			"No %s role UUID configured for abgeordnetenwatch.de %s import", roleTypeName, roleTypeName)
	}
	role, err := i.repo.GetRoleBySyncUUID(roleUUID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, errors.Newf(errors.ErrImportFailed, "Role with sync UUID %s not found", roleUUID)
	}
	return role, nil
}

func (i *Importer) importCandidacies(ctx context.Context) error {
	role, err := i.roleForImport(i.cfg.Abgeordnetenwatch.CandidateRoleUUID, "candidacy")
	if err != nil {
		return err
	}
	if i.cfg.Abgeordnetenwatch.PartyID == 0 {
		return errors.New(errors.ErrImportFailed,
			"No party ID configured for abgeordnetenwatch.de candidacy import")
	}

	elections, err := i.repo.ElectionsByAwID()
	if err != nil {
		return err
	}
	periods := make(map[int64]periodRef, len(elections))
	for awID, e := range elections {
		periods[awID] = periodRef{
			parliamentID: e.ParliamentID,
			startDate:    e.StartDate,
			endDate:      e.EndDate,
		}
	}

	src := &affiliationSource{role: role, periodsName: "Election", periods: periods}

	extra := url.Values{}
	extra.Set("type", "candidacy")
	extra.Set("party", strconv.FormatInt(i.cfg.Abgeordnetenwatch.PartyID, 10))
	extra.Set("current_on", "all")

	return i.importAffiliationRows(ctx, src, extra)
}

func (i *Importer) importMandates(ctx context.Context) error {
	role, err := i.roleForImport(i.cfg.Abgeordnetenwatch.MandateRoleUUID, "mandate")
	if err != nil {
		return err
	}
	if len(i.cfg.Abgeordnetenwatch.Fractions) == 0 {
		return errors.New(errors.ErrImportFailed,
			"No fractions configured for abgeordnetenwatch.de mandate import")
	}

	legislativePeriods, err := i.repo.LegislativePeriodsByAwID()
	if err != nil {
		return err
	}
	periods := make(map[int64]periodRef, len(legislativePeriods))
	for awID, lp := range legislativePeriods {
		periods[awID] = periodRef{
			parliamentID: lp.ParliamentID,
			startDate:    lp.StartDate,
			endDate:      lp.EndDate,
		}
	}

	src := &affiliationSource{role: role, periodsName: "LegislativePeriod", periods: periods}

	// Filtering by a set of fractions in one request does not work
	// reliably, so each fraction is fetched on its own.
	for _, fraction := range i.cfg.Abgeordnetenwatch.Fractions {
		extra := url.Values{}
		extra.Set("type", "mandate")
		extra.Set("fraction", fraction)
		extra.Set("current_on", "all")

		if err := i.importAffiliationRows(ctx, src, extra); err != nil {
			return err
		}
	}
	return nil
}

func (i *Importer) importAffiliationRows(ctx context.Context, src *affiliationSource, extra url.Values) error {
	parliaments, err := i.repo.ListParliaments()
	if err != nil {
		return err
	}
	parliamentsByID := make(map[int64]*models.Parliament, len(parliaments))
	for _, p := range parliaments {
		parliamentsByID[p.ID] = p
	}

	existing, err := i.repo.AffiliationsByAwID()
	if err != nil {
		return err
	}

	return iterPages(ctx, i.client, entityCandidaciesMandates, extra, func(rows []mandateRow) error {
		persons, err := i.personsForRows(ctx, rows)
		if err != nil {
			return err
		}

		for _, row := range rows {
			period, ok := src.periods[row.ParliamentPeriod.ID]
			if !ok {
				return errors.Newf(errors.ErrImportFailed,
					"%s with abgeordnetenwatch ID %d not found", src.periodsName, row.ParliamentPeriod.ID)
			}
			person := persons[row.Politician.ID]
			if person == nil {
				return errors.Newf(errors.ErrImportFailed,
					"Person with abgeordnetenwatch ID %d not found", row.Politician.ID)
			}
			parliament := parliamentsByID[period.parliamentID]
			if parliament == nil || parliament.FractionID == nil {
				return errors.Newf(errors.ErrImportFailed,
					"No fraction organization for %s with abgeordnetenwatch ID %d",
					src.periodsName, row.ParliamentPeriod.ID)
			}

			startDate := parseDatePtr(row.StartDate)
			if startDate == nil {
				startDate = period.startDate
			}
			endDate := parseDatePtr(row.EndDate)
			if endDate == nil {
				endDate = period.endDate
			}
			endDate = syncstats.FilterFutureDate(endDate, i.now())

			comment := ""
			if row.Info != nil {
				comment = *row.Info
			}
			emptyURL := ""
			awID := row.ID

			desired := &models.Affiliation{
				PersonID:       person.ID,
				OrganizationID: *parliament.FractionID,
				RoleID:         &src.role.ID,
				StartDate:      startDate,
				EndDate:        endDate,
				ReferenceURL:   &emptyURL,
				Comment:        comment,
				AwID:           &awID,
			}

			if err := i.upsertAffiliation(existing, desired); err != nil {
				return err
			}
		}
		return nil
	})
}

// personsForRows makes sure all politicians referenced on a page exist
// locally, then returns the local persons keyed by abgeordnetenwatch
// ID.
func (i *Importer) personsForRows(ctx context.Context, rows []mandateRow) (map[int64]*models.Person, error) {
	seen := make(map[int64]bool, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		if !seen[row.Politician.ID] {
			seen[row.Politician.ID] = true
			ids = append(ids, row.Politician.ID)
		}
	}

	if err := i.importPoliticians(ctx, ids); err != nil {
		return nil, err
	}
	return i.repo.PersonsByAwID()
}

func (i *Importer) upsertAffiliation(existing map[int64]*models.Affiliation, desired *models.Affiliation) error {
	cur := existing[*desired.AwID]
	if cur == nil {
		desired.StartDateString = dateStringOrEmpty(desired.StartDate)
		desired.EndDateString = dateStringOrEmpty(desired.EndDate)
		if err := i.repo.SaveAffiliation(desired, false); err != nil {
			return err
		}
		existing[*desired.AwID] = desired
		i.stats.TrackCreated("Affiliation", desired.ID, desired.SyncFields())
		return nil
	}

	// Values that are already set locally are never overwritten.
	// Person and organization are always set and stay as they are.
	changed := false
	if cur.RoleID == nil && desired.RoleID != nil {
		cur.RoleID = desired.RoleID
		changed = true
	}
	if cur.StartDate == nil && desired.StartDate != nil {
		cur.StartDate = desired.StartDate
		changed = true
	}
	if cur.EndDate == nil && desired.EndDate != nil {
		cur.EndDate = desired.EndDate
		changed = true
	}
	if cur.Comment == "" && desired.Comment != "" {
		cur.Comment = desired.Comment
		changed = true
	}
	if !changed {
		return nil
	}

	if syncstats.IsEmpty(cur.StartDateString) && cur.StartDate != nil {
		cur.StartDateString = models.DateString(cur.StartDate)
	}
	if syncstats.IsEmpty(cur.EndDateString) && cur.EndDate != nil {
		cur.EndDateString = models.DateString(cur.EndDate)
	}

	if err := i.repo.SaveAffiliation(cur, false); err != nil {
		return err
	}
	i.stats.TrackUpdated("Affiliation", cur.ID, syncstats.Diff(cur.LastSyncedState, cur.SyncFields()))
	return nil
}

func dateStringOrEmpty(t *time.Time) *string {
	if s := models.DateString(t); s != nil {
		return s
	}
	empty := ""
	return &empty
}
