package integration

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/ohclinic/ohclinic/internal/domain/company"
	"github.com/ohclinic/ohclinic/internal/domain/declaration"
	"github.com/ohclinic/ohclinic/internal/domain/patient"
	"github.com/ohclinic/ohclinic/internal/domain/surveillance"
)

type services struct {
	companies    *company.Service
	patients     *patient.Service
	resolver     *declaration.Resolver
	declarations declaration.Repository
	surveillance *surveillance.Service
	survRepo     surveillance.Repository
}

func newServices(pool *pgxpool.Pool) *services {
	s := &services{
		companies:    company.NewService(company.NewRepo(pool), nopLogger()),
		patients:     patient.NewService(patient.NewRepo(pool), nopLogger()),
		declarations: declaration.NewRepo(pool),
		survRepo:     surveillance.NewRepo(pool),
	}
	s.resolver = declaration.NewResolver(s.declarations, nopLogger())
	s.surveillance = surveillance.NewService(s.survRepo, s.patients, s.resolver, nopLogger())
	return s
}

func createCompany(t *testing.T, s *services, name string) *company.Company {
	t.Helper()
	co := &company.Company{Name: name, Address: "Lot 5, Jalan Industri", State: "Selangor"}
	require.NoError(t, s.companies.Create(context.Background(), co))
	return co
}

// createEmployee registers a patient whose current employer is companyName.
func createEmployee(t *testing.T, s *services, first, last, companyName string) *patient.Patient {
	t.Helper()
	ctx := context.Background()
	p := &patient.Patient{FirstName: first, LastName: last, NRIC: "900101-10-" + first[:1] + "001", DateOfBirth: day("1990-01-01")}
	require.NoError(t, s.patients.Create(ctx, p))
	if companyName != "" {
		require.NoError(t, s.patients.AddOccupationalHistory(ctx, &patient.OccupationalHistory{
			PatientID:   p.ID,
			CompanyName: companyName,
			JobTitle:    "Operator",
		}))
	}
	return p
}

func patientHistory(patientID int64, companyName string) *patient.OccupationalHistory {
	return &patient.OccupationalHistory{PatientID: patientID, CompanyName: companyName, JobTitle: "Operator"}
}
