package nocodb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/okfde/evidencesync/internal/logging"
	"github.com/okfde/evidencesync/internal/models"
	syncstats "github.com/okfde/evidencesync/internal/sync"
)

const (
	originatorsKey         = "_nc_m2m_Quellen und Bel_Personen und Ors"
	relatedActorsKey       = "_nc_m2m_Quellen und Bel_Personen und Or1s"
	attributionEvidenceKey = "_nc_m2m_Quellen und Bel_Quellen und Bels"
)

// resolveAll maps remote record IDs onto local primary keys. The
// returned slice is sorted so stored and mapped relation sets compare
// equal; missing IDs are reported in one error.
func resolveAll(externalIDs []int64, lookup func(int64) (int64, bool)) ([]int64, []int64) {
	ids := []int64{}
	var missing []int64
	for _, ext := range externalIDs {
		id, ok := lookup(ext)
		if !ok {
			missing = append(missing, ext)
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, missing
}

func (i *Importer) mapEvidenceRow(row Row, actors map[int64]*models.Actor, evidence map[int64]*models.Evidence) (*models.Evidence, error) {
	e := &models.Evidence{
		Citation:                 row.Str("Zitat/Beschreibung"),
		Description:              row.Str("Zusammenfassung"),
		AttributionJustification: row.Str("Zurechnungs - Begründung"),
		ReferenceInfo:            row.Str("Fundstelle (zusätzliche Informationen)"),
		PrimarySourceInfo:        row.Str("Primärquelle (zusätzliche Informationen)"),
		Comment:                  row.Str("Kommentar/Notiz"),
		LegalAssessment:          row.Int64Ptr("Juristische Bewertung"),
		EventDate:                parseDate(row.Str("Datum der Originaläußerung")),
		PublishingDate:           parseDate(row.Str("Datum der Veröffentlichung")),
		DocumentationDate:        parseDate(row.Str("Datum der Dokumentation")),
		ReferenceURL:             row.StrPtr("Fundstelle (URL)"),
		PrimarySourceURL:         row.StrPtr("Primärquelle (URL)"),
	}

	typeID, err := i.vocabID(models.VocabEvidenceType, row.Str("Art des Belegs"))
	if err != nil {
		return nil, err
	}
	e.EvidenceTypeID = typeID

	collections, err := i.vocabIDs(models.VocabCollection, row.List("Sammlung(en)"))
	if err != nil {
		return nil, err
	}
	e.CollectionIDs = collections

	problems, err := i.vocabIDs(models.VocabAttributionProblem, row.List("Zurechnungsprobleme"))
	if err != nil {
		return nil, err
	}
	e.AttributionProblemIDs = problems

	actorLookup := func(ext int64) (int64, bool) {
		a, ok := actors[ext]
		if !ok {
			return 0, false
		}
		return a.ID, true
	}
	evidenceLookup := func(ext int64) (int64, bool) {
		ev, ok := evidence[ext]
		if !ok {
			return 0, false
		}
		return ev.ID, true
	}

	var missing []int64
	e.OriginatorIDs, missing = resolveAll(row.NestedIDs(originatorsKey, "Personen und Organisationen_id"), actorLookup)
	if len(missing) > 0 {
		return nil, i.handleError("Evidence", fmt.Sprintf("Missing values for Actor: %v", missing))
	}
	e.RelatedActorIDs, missing = resolveAll(row.NestedIDs(relatedActorsKey, "Personen und Organisationen_id"), actorLookup)
	if len(missing) > 0 {
		return nil, i.handleError("Evidence", fmt.Sprintf("Missing values for Actor: %v", missing))
	}
	e.AttributionEvidenceIDs, missing = resolveAll(row.NestedIDs(attributionEvidenceKey, "Quellen und Belege_id"), evidenceLookup)
	if len(missing) > 0 {
		return nil, i.handleError("Evidence", fmt.Sprintf("Missing values for Evidence: %v", missing))
	}

	return e, nil
}

func (i *Importer) importEvidence(ctx context.Context) error {
	existing, err := i.repo.EvidenceByExternalID()
	if err != nil {
		return err
	}
	actors, err := i.repo.ActorsByExternalID()
	if err != nil {
		return err
	}

	i.attachments = nil

	var seen []int64
	err = i.client.IterRecords(ctx, i.cfg.NocoDB.EvidenceTable, "", func(row Row) error {
		externalID, ok := row.Int64("Id")
		if !ok {
			return i.handleError("Evidence", fmt.Sprintf("Missing Id in Evidence row: %v", map[string]any(row)))
		}
		seen = append(seen, externalID)

		for _, att := range row.Objects("Screenshot(s)") {
			i.attachments = append(i.attachments, attachmentRow{
				evidenceExternalID: externalID,
				data:               att,
			})
		}

		incoming, err := i.mapEvidenceRow(row, actors, existing)
		if err != nil {
			return err
		}
		if incoming == nil {
			// Skipped in permissive mode.
			return nil
		}

		cur := existing[externalID]
		if cur == nil {
			incoming.ExternalID = &externalID
			if err := i.repo.SaveEvidence(incoming); err != nil {
				return i.handleError("Evidence", fmt.Sprintf("Error saving Evidence instance: %v", err))
			}
			existing[externalID] = incoming
			i.stats.TrackCreated("Evidence", incoming.ID, incoming.Fields())
			return nil
		}

		incoming.ID = cur.ID
		incoming.ExternalID = cur.ExternalID
		incoming.CreatedAt = cur.CreatedAt
		diff := syncstats.Diff(cur.Fields(), incoming.Fields())
		if len(diff) == 0 {
			return nil
		}
		if err := i.repo.SaveEvidence(incoming); err != nil {
			return i.handleError("Evidence", fmt.Sprintf("Error saving Evidence instance: %v", err))
		}
		existing[externalID] = incoming
		i.stats.TrackUpdated("Evidence", incoming.ID, diff)
		return nil
	})
	if err != nil {
		return err
	}

	deleted, err := i.repo.DeleteEvidenceNotIn(seen)
	if err != nil {
		return err
	}
	for _, d := range deleted {
		i.stats.TrackDeleted("Evidence", d.ID)
	}

	return i.importAttachments(ctx, existing)
}

// importAttachments processes the attachment metadata collected while
// walking the evidence table. Files are only downloaded for attachments
// that do not have a stored file yet.
func (i *Importer) importAttachments(ctx context.Context, evidence map[int64]*models.Evidence) error {
	existing, err := i.repo.AttachmentsByExternalID()
	if err != nil {
		return err
	}

	var seen []string
	for _, att := range i.attachments {
		data := att.data
		externalID := data.Str("id")
		signedURL := data.Str("signedUrl")

		if externalID != "" {
			seen = append(seen, externalID)
		}
		if externalID == "" || signedURL == "" || att.evidenceExternalID == 0 {
			if err := i.handleError("Attachment", fmt.Sprintf("Missing data in attachment: %v", map[string]any(data))); err != nil {
				return err
			}
			continue
		}

		ev := evidence[att.evidenceExternalID]
		if ev == nil {
			if err := i.handleError("Attachment", fmt.Sprintf(
				"No evidence with ID %d found for attachment %s", att.evidenceExternalID, externalID)); err != nil {
				return err
			}
			continue
		}

		incoming := &models.Attachment{
			ExternalID: externalID,
			EvidenceID: ev.ID,
			Title:      data.Str("title"),
			Mimetype:   data.StrPtr("mimetype"),
			Size:       data.Int64Ptr("size"),
			Width:      data.Int64Ptr("width"),
			Height:     data.Int64Ptr("height"),
		}

		cur := existing[externalID]
		created := cur == nil
		if created {
			if err := i.repo.SaveAttachment(incoming); err != nil {
				if err := i.handleError("Attachment", fmt.Sprintf("Error saving Attachment instance: %v", err)); err != nil {
					return err
				}
				continue
			}
			existing[externalID] = incoming
			i.stats.TrackCreated("Attachment", incoming.ID, incoming.Fields())
		} else {
			incoming.ID = cur.ID
			incoming.FilePath = cur.FilePath
			incoming.CreatedAt = cur.CreatedAt
			diff := syncstats.Diff(cur.Fields(), incoming.Fields())
			if len(diff) > 0 {
				if err := i.repo.SaveAttachment(incoming); err != nil {
					if err := i.handleError("Attachment", fmt.Sprintf("Error saving Attachment instance: %v", err)); err != nil {
						return err
					}
					continue
				}
				i.stats.TrackUpdated("Attachment", incoming.ID, diff)
			}
			existing[externalID] = incoming
		}

		if incoming.FilePath == nil {
			if err := i.downloadAttachment(ctx, incoming, signedURL); err != nil {
				if err := i.handleError("Attachment", err.Error()); err != nil {
					return err
				}
				continue
			}
		}
	}

	deleted, err := i.repo.DeleteAttachmentsNotIn(seen)
	if err != nil {
		return err
	}
	for _, d := range deleted {
		if d.FilePath != nil {
			if err := os.Remove(*d.FilePath); err != nil && !os.IsNotExist(err) {
				logging.Warn("failed to remove attachment file", map[string]any{
					"path": *d.FilePath,
				})
			}
		}
		i.stats.TrackDeleted("Attachment", d.ID)
	}
	return nil
}

func (i *Importer) downloadAttachment(ctx context.Context, a *models.Attachment, signedURL string) error {
	logging.Info("downloading attachment file", map[string]any{
		"attachment": a.ExternalID,
		"url":        signedURL,
	})

	content, err := i.client.DownloadFile(ctx, signedURL)
	if err != nil {
		return fmt.Errorf("Download failed for %s: %v", signedURL, err)
	}

	dir := i.cfg.AttachmentDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("Error saving file for attachment %s: %v", a.ExternalID, err)
	}

	path := filepath.Join(dir, a.ExternalID+"_"+filepath.Base(a.Title))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("Error saving file for attachment %s: %v", a.ExternalID, err)
	}

	a.FilePath = &path
	return i.repo.SaveAttachment(a)
}
