package aw

// ref is a nested entity reference as the API delivers it.
type ref struct {
	ID int64 `json:"id"`
}

type parliamentRow struct {
	ID int64 `json:"id"`
	// label_external_long carries the full name ("Abgeordnetenhaus
	// Berlin"), label just the region ("Berlin").
	LabelExternalLong string `json:"label_external_long"`
}

// periodRow covers both period types served by the parliament-periods
// endpoint. ElectionDate is only set on elections, PreviousPeriod only
// on legislatures.
type periodRow struct {
	ID              int64  `json:"id"`
	Label           string `json:"label"`
	Parliament      ref    `json:"parliament"`
	StartDatePeriod string `json:"start_date_period"`
	EndDatePeriod   string `json:"end_date_period"`
	ElectionDate    string `json:"election_date"`
	PreviousPeriod  *ref   `json:"previous_period"`
}

type politicianRow struct {
	ID          int64   `json:"id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	FieldTitle  *string `json:"field_title"`
	QidWikidata *string `json:"qid_wikidata"`
}

// mandateRow covers candidacies and mandates, which share one endpoint
// and shape.
type mandateRow struct {
	ID               int64   `json:"id"`
	Politician       ref     `json:"politician"`
	ParliamentPeriod ref     `json:"parliament_period"`
	StartDate        *string `json:"start_date"`
	EndDate          *string `json:"end_date"`
	Info             *string `json:"info"`
}
