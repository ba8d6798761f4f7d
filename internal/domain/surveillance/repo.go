package surveillance

import "context"

// Repository defines the persistence interface for examinations. Every
// dependent is read and written by surveillance id.
type Repository interface {
	InsertRecord(ctx context.Context, r *Record) error
	InsertTargetOrgan(ctx context.Context, surveillanceID, patientID int64, t *TargetOrgan) error
	InsertBiological(ctx context.Context, surveillanceID, patientID int64, b *BiologicalMonitoring) error
	InsertFitness(ctx context.Context, surveillanceID, patientID int64, f *FitnessRespirator) error
	InsertConclusion(ctx context.Context, surveillanceID, patientID int64, c *Conclusion) error
	InsertRecommendation(ctx context.Context, surveillanceID, patientID int64, r *Recommendation) error

	GetRecord(ctx context.Context, surveillanceID int64) (*FullRecord, error)
	// DeleteRecord removes the dependents and the primary row in one
	// transaction.
	DeleteRecord(ctx context.Context, surveillanceID int64) error

	// ListRows is the raw list join; a surveillance id may repeat.
	ListRows(ctx context.Context, f Filter) ([]ListRow, error)
	// CompanyIDForPatient joins the current occupational history to the
	// company by trimmed, case-insensitive name. 0 when nothing matches.
	CompanyIDForPatient(ctx context.Context, patientID int64) (int64, error)
}
